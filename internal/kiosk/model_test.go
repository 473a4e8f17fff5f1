package kiosk

import (
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/cerjey13/rifa/internal/interfaces"
	"github.com/cerjey13/rifa/internal/models"
	"github.com/cerjey13/rifa/internal/services/mock"
	"github.com/cerjey13/rifa/internal/wizard"
)

// newTestModel builds a kiosk over the in-process mock service with a
// registered buyer ready to log in.
func newTestModel(t *testing.T) (Model, *mock.MockRaffle) {
	t.Helper()
	service := mock.NewMockRaffle(false)
	err := service.Register(models.RegisterRequest{
		Name:     "Buyer",
		Email:    "buyer@example.com",
		Phone:    "04141551801",
		Password: "supersecret",
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	m := New(service, 2, 500)
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	return updated.(Model), service
}

// runCmds executes commands and feeds every produced message back into
// the model, following tea.Batch fan-out, until nothing is left. This
// stands in for the bubbletea runtime in tests.
func runCmds(t *testing.T, m Model, cmds ...tea.Cmd) Model {
	t.Helper()
	for len(cmds) > 0 {
		cmd := cmds[0]
		cmds = cmds[1:]
		if cmd == nil {
			continue
		}
		msg := cmd()
		if msg == nil {
			continue
		}
		if batch, ok := msg.(tea.BatchMsg); ok {
			cmds = append(cmds, batch...)
			continue
		}
		updated, next := m.Update(msg)
		m = updated.(Model)
		if next != nil {
			cmds = append(cmds, next)
		}
	}
	return m
}

func press(t *testing.T, m Model, keys ...string) Model {
	t.Helper()
	for _, k := range keys {
		var msg tea.KeyMsg
		switch k {
		case "enter":
			msg = tea.KeyMsg{Type: tea.KeyEnter}
		case "esc":
			msg = tea.KeyMsg{Type: tea.KeyEscape}
		case "backspace":
			msg = tea.KeyMsg{Type: tea.KeyBackspace}
		case "down":
			msg = tea.KeyMsg{Type: tea.KeyDown}
		case "up":
			msg = tea.KeyMsg{Type: tea.KeyUp}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		updated, cmd := m.Update(msg)
		m = runCmds(t, updated.(Model), cmd)
	}
	return m
}

// typeText sends each character as its own rune message so the focused
// input receives it like real typing.
func typeText(t *testing.T, m Model, text string) Model {
	t.Helper()
	for _, r := range text {
		m = press(t, m, string(r))
	}
	return m
}

// login drives the auth form end to end.
func login(t *testing.T, m Model, email, password string) Model {
	t.Helper()
	m = press(t, m, "l")
	if m.view != ViewAuth {
		t.Fatal("login key did not open the auth form")
	}
	m = typeText(t, m, email)
	m = press(t, m, "down")
	m = typeText(t, m, password)
	m = press(t, m, "enter")
	if m.view != ViewLanding || m.user == nil {
		t.Fatalf("login failed: view=%d err=%q", m.view, m.auth.errText)
	}
	return m
}

func TestLoadingBeforeWindowSize(t *testing.T) {
	service := mock.NewMockRaffle(false)
	m := New(service, 2, 500)
	if m.View() != "Loading..." {
		t.Errorf("view: %q", m.View())
	}
}

func TestBuyRequiresLogin(t *testing.T) {
	m, _ := newTestModel(t)
	m = press(t, m, "b")
	if m.view != ViewAuth {
		t.Error("anonymous buy did not redirect to the auth form")
	}
	if m.wizard.Visible() {
		t.Error("wizard opened without a session")
	}
}

func TestLoginAndOpenWizard(t *testing.T) {
	m, _ := newTestModel(t)
	m = login(t, m, "buyer@example.com", "supersecret")

	m = press(t, m, "b")
	if !m.wizard.Visible() {
		t.Fatal("wizard did not open")
	}
	view := m.View()
	if !strings.Contains(view, "Step 1 of 3") {
		t.Errorf("wizard view: %q", view)
	}
	// Prices arrived from the mock at startup.
	if !strings.Contains(view, "200.00") {
		t.Errorf("quote missing from view: %q", view)
	}
}

func TestWizardFullPurchaseFlow(t *testing.T) {
	m, service := newTestModel(t)
	m = login(t, m, "buyer@example.com", "supersecret")
	m = press(t, m, "b")

	// Quantity 3, pick number 7 in the first slot.
	m = press(t, m, "+")
	if m.wizard.Quantity() != 3 {
		t.Fatalf("quantity: %d", m.wizard.Quantity())
	}
	m = press(t, m, "down")
	m = typeText(t, m, "7")
	if m.wizard.Slots()[0] != "7" {
		t.Fatalf("slot: %v", m.wizard.Slots())
	}

	// Enter runs the availability check against the mock and advances.
	m = press(t, m, "enter")
	if m.wizard.Step() != wizard.StepPayment {
		t.Fatalf("step after check: %d", m.wizard.Step())
	}

	// Select zelle (second channel) and advance.
	m = press(t, m, "down", " ")
	if m.wizard.PaymentMethod() != models.PaymentZelle {
		t.Fatalf("payment: %q", m.wizard.PaymentMethod())
	}
	m = press(t, m, "enter")
	if m.wizard.Step() != wizard.StepSubmit {
		t.Fatalf("step after payment: %d", m.wizard.Step())
	}

	// Reference, then attach a proof directly (file dialogs don't run
	// in tests) and submit.
	m = typeText(t, m, "123456")
	if m.wizard.TransactionRef() != "123456" {
		t.Fatalf("reference: %q", m.wizard.TransactionRef())
	}
	m.wizard.AttachScreenshot("proof.png", []byte("img"))
	m = press(t, m, "down", "down", "enter")

	if m.wizard.Visible() {
		t.Error("wizard still open after successful submission")
	}
	taken, err := service.CheckTickets([]string{"7"})
	if err != nil || len(taken) != 1 {
		t.Errorf("purchase not stored: %v %v", err, taken)
	}
	if len(m.myTickets) != 3 {
		t.Errorf("own tickets not refreshed: %v", m.myTickets)
	}
}

func TestWizardConflictMarksSlot(t *testing.T) {
	m, service := newTestModel(t)

	// Number 42 gets taken before the wizard checks it.
	if _, err := service.Login("buyer@example.com", "supersecret"); err != nil {
		t.Fatalf("seed login: %v", err)
	}
	err := service.SubmitPurchase(&models.PurchaseSubmission{
		Quantity:          2,
		MontoBs:           "200.00",
		MontoUSD:          "20.00",
		PaymentMethod:     models.PaymentZelle,
		TransactionDigits: "111111",
		SelectedNumbers:   []string{"42"},
		PaymentScreenshot: []byte("img"),
	})
	if err != nil {
		t.Fatalf("seed purchase: %v", err)
	}
	if err := service.Logout(); err != nil {
		t.Fatalf("seed logout: %v", err)
	}

	m = login(t, m, "buyer@example.com", "supersecret")
	m = press(t, m, "b", "down")
	m = typeText(t, m, "42")
	m = press(t, m, "enter")

	if m.wizard.Step() != wizard.StepQuantity {
		t.Error("wizard advanced past a taken number")
	}
	if m.wizard.SlotError(0) != "not available" {
		t.Errorf("slot error: %q", m.wizard.SlotError(0))
	}
	if !strings.Contains(m.View(), "not available") {
		t.Error("conflict not rendered")
	}
}

func TestWizardCloseKeepsState(t *testing.T) {
	m, _ := newTestModel(t)
	m = login(t, m, "buyer@example.com", "supersecret")
	m = press(t, m, "b", "+", "down")
	m = typeText(t, m, "9")

	m = press(t, m, "esc")
	if m.wizard.Visible() {
		t.Fatal("wizard did not close")
	}
	m = press(t, m, "b")
	if m.wizard.Quantity() != 3 || m.wizard.Slots()[0] != "9" {
		t.Errorf(
			"state lost on reopen: quantity=%d slots=%v",
			m.wizard.Quantity(), m.wizard.Slots(),
		)
	}
}

func TestAdminReviewFlow(t *testing.T) {
	m, service := newTestModel(t)

	// Seed one pending purchase from the buyer.
	if _, err := service.Login("buyer@example.com", "supersecret"); err != nil {
		t.Fatalf("seed login: %v", err)
	}
	err := service.SubmitPurchase(&models.PurchaseSubmission{
		Quantity:          2,
		MontoBs:           "200.00",
		MontoUSD:          "20.00",
		PaymentMethod:     models.PaymentPagoMovil,
		TransactionDigits: "222222",
		SelectedNumbers:   []string{"5"},
		PaymentScreenshot: []byte("img"),
	})
	if err != nil {
		t.Fatalf("seed purchase: %v", err)
	}
	service.Logout()

	m = login(t, m, "admin@localhost", "admin")
	m = press(t, m, "a")
	if m.view != ViewAdmin {
		t.Fatal("admin view did not open")
	}
	if len(m.admin.records) != 1 {
		t.Fatalf("records: %+v", m.admin.records)
	}
	if !strings.Contains(m.View(), "buyer@example.com") {
		t.Error("buyer missing from listing")
	}

	// Verify the purchase under the cursor; the listing refreshes.
	m = press(t, m, "v")
	if m.admin.records[0].Status != models.StatusVerified {
		t.Errorf("status after verify: %s", m.admin.records[0].Status)
	}

	// Filter cycling: pending shows nothing now.
	m = press(t, m, "f")
	if m.admin.statusFilter != "pending" {
		t.Errorf("filter: %q", m.admin.statusFilter)
	}
	if len(m.admin.records) != 0 {
		t.Errorf("pending filter: %+v", m.admin.records)
	}

	// Leaderboard.
	m = press(t, m, "L")
	if m.admin.mode != adminLeaderboard {
		t.Fatal("leaderboard did not open")
	}
	if len(m.admin.entries) != 1 || m.admin.entries[0].TicketCount != 2 {
		t.Errorf("leaderboard: %+v", m.admin.entries)
	}

	// Search for the number the buyer picked. Esc leaves the
	// leaderboard, not the admin view.
	m = press(t, m, "esc")
	if m.view != ViewAdmin || m.admin.mode != adminList {
		t.Fatal("esc did not return to the purchase list")
	}
	m = press(t, m, "/")
	m = typeText(t, m, "5")
	m = press(t, m, "enter")
	if m.admin.searchResult == nil {
		t.Fatal("search returned nothing")
	}
	if m.admin.searchResult.User.Email != "buyer@example.com" {
		t.Errorf("search owner: %+v", m.admin.searchResult.User)
	}
	if !strings.Contains(m.View(), "buyer@example.com") {
		t.Error("search result not rendered")
	}
}

func TestAdminMutationFailureSurfaces(t *testing.T) {
	m, _ := newTestModel(t)
	m = login(t, m, "admin@localhost", "admin")
	m = press(t, m, "a")

	// Force a failing mutation result directly.
	updated, cmd := m.Update(statusResultMsg{
		purchaseID: "p999999",
		status:     "verified",
		err:        errors.New("purchase not found"),
	})
	m = runCmds(t, updated.(Model), cmd)
	if !strings.Contains(m.View(), "purchase not found") {
		t.Error("mutation failure not surfaced in the admin view")
	}
}

func TestSessionExpiryDropsToLanding(t *testing.T) {
	m, _ := newTestModel(t)
	m = login(t, m, "admin@localhost", "admin")
	m = press(t, m, "a")

	// An unauthorized listing result means the session died server-side.
	updated, cmd := m.Update(purchasesMsg{err: interfaces.ErrUnauthorized})
	m = runCmds(t, updated.(Model), cmd)
	if m.view != ViewLanding {
		t.Error("expired session did not return to the landing view")
	}
	if m.user != nil {
		t.Error("local session survived expiry")
	}
}
