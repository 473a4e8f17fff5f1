package kiosk

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/cerjey13/rifa/internal/models"
	"github.com/cerjey13/rifa/internal/ticket"
	"github.com/cerjey13/rifa/internal/wizard"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("212"))
	faintStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	selectedStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("229"))
	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			Padding(1, 2)
)

func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	var body string
	switch {
	case m.view == ViewAuth:
		body = m.authView()
	case m.view == ViewAdmin:
		body = m.adminView()
	case m.wizard.Visible():
		body = m.wizardView()
	default:
		body = m.landingView()
	}

	if m.status != "" {
		body += "\n" + faintStyle.Render(m.status)
	}
	return body
}

func (m Model) landingView() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Gran Rifa") + "\n\n")
	b.WriteString(fmt.Sprintf("Sold: %.2f%% of 10000 tickets\n", m.percent))
	b.WriteString(fmt.Sprintf(
		"Ticket: Bs %s / $ %s\n\n",
		m.wizard.AmountBs(), m.wizard.AmountUsd(),
	))

	if m.user != nil {
		b.WriteString("Logged in as " + m.user.Email + "\n")
		if len(m.myTickets) > 0 {
			b.WriteString("Your numbers: " +
				strings.Join(m.myTickets, ", ") + "\n")
		}
		b.WriteString("\n")
		b.WriteString(faintStyle.Render(
			"b buy tickets · a admin · l log out · q quit",
		))
	} else {
		b.WriteString(faintStyle.Render(
			"b buy tickets · l log in · q quit",
		))
	}
	return b.String()
}

func (m Model) wizardView() string {
	var inner string
	switch m.wizard.Step() {
	case wizard.StepQuantity:
		inner = m.quantityStepView()
	case wizard.StepPayment:
		inner = m.paymentStepView()
	case wizard.StepSubmit:
		inner = m.submitStepView()
	}
	return boxStyle.Render(inner)
}

func (m Model) quantityStepView() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Step 1 of 3: Tickets") + "\n\n")

	quantityLine := fmt.Sprintf("Quantity: %d  (+/-)", m.wizard.Quantity())
	if m.focus == focusQuantity {
		quantityLine = selectedStyle.Render("> " + quantityLine)
	} else {
		quantityLine = "  " + quantityLine
	}
	b.WriteString(quantityLine + "\n")
	b.WriteString(fmt.Sprintf(
		"Total: Bs %s / $ %s\n\n",
		m.wizard.AmountBs(), m.wizard.AmountUsd(),
	))

	b.WriteString("Pick numbers (optional, blank = random):\n")
	for i, slot := range m.wizard.Slots() {
		cell := slot
		if cell == "" {
			cell = "____"
		}
		line := fmt.Sprintf("#%d: %s", i+1, cell)
		if m.focus == i+1 {
			line = selectedStyle.Render("> " + line)
		} else {
			line = "  " + line
		}
		if e := m.wizard.SlotError(i); e != "" {
			line += "  " + errorStyle.Render(e)
		}
		b.WriteString(line + "\n")
	}

	if m.wizard.Checking() {
		b.WriteString("\n" + m.spin.View() + " checking availability...")
	}
	if e := m.wizard.GeneralError(); e != "" {
		b.WriteString("\n" + errorStyle.Render(e))
	}
	b.WriteString("\n" + faintStyle.Render("Enter next · Esc close"))
	return b.String()
}

func (m Model) paymentStepView() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Step 2 of 3: Payment") + "\n\n")

	for i, method := range models.PaymentMethods {
		marker := "[ ]"
		if m.wizard.PaymentMethod() == method {
			marker = "[x]"
		}
		line := fmt.Sprintf("%s %s", marker, method)
		if m.payCursor == i {
			line = selectedStyle.Render("> " + line)
		} else {
			line = "  " + line
		}
		b.WriteString(line + "\n")
	}

	if instructions, ok := models.InstructionsFor(m.wizard.PaymentMethod()); ok {
		b.WriteString("\n")
		for _, line := range instructions.Lines {
			b.WriteString(fmt.Sprintf(
				"  %s: %s\n", line.Label, line.Value,
			))
		}
	}

	hint := "Space select · Esc back"
	if m.wizard.PaymentMethod() != "" {
		hint = "Space deselect · Enter next · Esc back"
	}
	b.WriteString("\n" + faintStyle.Render(hint))
	return b.String()
}

func (m Model) submitStepView() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Step 3 of 3: Confirm") + "\n\n")
	b.WriteString(fmt.Sprintf(
		"%d tickets · Bs %s / $ %s · %s\n",
		m.wizard.Quantity(),
		m.wizard.AmountBs(), m.wizard.AmountUsd(),
		m.wizard.PaymentMethod(),
	))
	if selected := ticket.SelectedNumbers(m.wizard.Slots()); len(selected) > 0 {
		b.WriteString("Numbers: " + strings.Join(selected, ", ") + "\n")
	}
	b.WriteString("\n")

	ref := m.wizard.TransactionRef()
	if ref == "" {
		ref = "______"
	}
	refLine := "Reference (6 digits): " + ref
	if m.submitFocus == submitFocusReference {
		refLine = selectedStyle.Render("> " + refLine)
	} else {
		refLine = "  " + refLine
	}
	b.WriteString(refLine + "\n")

	path := m.filePath
	if m.wizard.ScreenshotName() != "" {
		path = m.wizard.ScreenshotName() + " (attached)"
	}
	fileLine := "Proof of payment: " + path
	if m.submitFocus == submitFocusFile {
		fileLine = selectedStyle.Render("> " + fileLine)
	} else {
		fileLine = "  " + fileLine
	}
	b.WriteString(fileLine + "\n")

	button := "[ Submit ]"
	if !m.wizard.CanSubmit() {
		button = faintStyle.Render(button)
	} else if m.submitFocus == submitFocusButton {
		button = selectedStyle.Render("> " + button)
	}
	b.WriteString("\n" + button + "\n")

	if m.wizard.Submitting() {
		b.WriteString("\n" + m.spin.View() + " submitting...")
	}
	if e := m.wizard.SubmitError(); e != "" {
		b.WriteString("\n" + errorStyle.Render(e))
	}
	b.WriteString("\n" + faintStyle.Render("Esc back"))
	return b.String()
}

func (m Model) authView() string {
	var b strings.Builder
	if m.auth.registering {
		b.WriteString(titleStyle.Render("Register") + "\n\n")
	} else {
		b.WriteString(titleStyle.Render("Log in") + "\n\n")
	}

	for _, i := range m.auth.fields() {
		b.WriteString(m.auth.inputs[i].View() + "\n")
	}

	if m.auth.busy {
		b.WriteString("\n" + m.spin.View() + " working...")
	}
	if m.auth.errText != "" {
		b.WriteString("\n" + errorStyle.Render(m.auth.errText))
	}
	b.WriteString("\n" + faintStyle.Render(
		"Enter submit · Ctrl+R switch login/register · Esc back",
	))
	return boxStyle.Render(b.String())
}

func (m Model) adminView() string {
	switch m.admin.mode {
	case adminLeaderboard:
		return m.leaderboardView()
	case adminSearch:
		return m.searchView()
	}
	return m.purchaseListView()
}

func (m Model) purchaseListView() string {
	var b strings.Builder
	filter := m.admin.statusFilter
	if filter == "" {
		filter = "all"
	}
	b.WriteString(titleStyle.Render("Purchases") +
		faintStyle.Render(fmt.Sprintf(
			"  %s · page %d · %d total",
			filter, m.admin.page, m.admin.total,
		)) + "\n\n")

	if len(m.admin.records) == 0 {
		b.WriteString(faintStyle.Render("nothing here") + "\n")
	}
	for i, record := range m.admin.records {
		line := fmt.Sprintf(
			"%s  %-24s  %3d tks  Bs %-10s %-10s %s  %s",
			record.ID,
			record.User.Email,
			record.Quantity,
			record.MontoBs,
			record.PaymentMethod,
			record.TransactionDigits,
			record.Status,
		)
		if i == m.admin.cursor {
			line = selectedStyle.Render("> " + line)
		} else {
			line = "  " + line
		}
		b.WriteString(line + "\n")
	}

	if m.admin.busy {
		b.WriteString("\n" + m.spin.View() + " loading...")
	}
	if m.admin.notice != "" {
		b.WriteString("\n" + errorStyle.Render(m.admin.notice))
	}
	b.WriteString("\n" + faintStyle.Render(
		"v verify · x reject · p pending · f filter · / search · "+
			"L leaderboard · r refresh · Esc back",
	))
	return b.String()
}

func (m Model) leaderboardView() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Top buyers") +
		faintStyle.Render(fmt.Sprintf(
			"  page %d · %d buyers", m.admin.lbPage, m.admin.lbTotal,
		)) + "\n\n")

	rank := (m.admin.lbPage-1)*adminPerPage + 1
	for i, entry := range m.admin.entries {
		b.WriteString(fmt.Sprintf(
			"%3d. %-24s %d tickets\n",
			rank+i, entry.User.Email, entry.TicketCount,
		))
	}
	if m.admin.notice != "" {
		b.WriteString("\n" + errorStyle.Render(m.admin.notice))
	}
	b.WriteString("\n" + faintStyle.Render("←/→ pages · Esc back"))
	return b.String()
}

func (m Model) searchView() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Search by number") + "\n\n")
	input := m.admin.searchInput
	if input == "" {
		input = "____"
	}
	b.WriteString("Number: " + input + "\n")

	if m.admin.searchDone {
		if m.admin.searchResult == nil {
			b.WriteString("\n" + faintStyle.Render("not sold yet") + "\n")
		} else {
			result := m.admin.searchResult
			b.WriteString(fmt.Sprintf(
				"\nOwner: %s (%s)\n", result.User.Name, result.User.Email,
			))
			b.WriteString("All their numbers: " +
				strings.Join(ticket.ToStrSlice(result.Tickets), ", ") + "\n")
		}
	}
	if m.admin.notice != "" {
		b.WriteString("\n" + errorStyle.Render(m.admin.notice))
	}
	b.WriteString("\n" + faintStyle.Render("Enter search · Esc back"))
	return b.String()
}
