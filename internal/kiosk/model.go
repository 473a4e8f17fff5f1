package kiosk

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/cerjey13/rifa/internal/interfaces"
	"github.com/cerjey13/rifa/internal/models"
	"github.com/cerjey13/rifa/internal/wizard"
)

// View identifies the active top-level screen.
type View int

const (
	// ViewLanding is the public raffle page. The purchase wizard
	// overlays it when open.
	ViewLanding View = iota
	// ViewAuth is the login/register form.
	ViewAuth
	// ViewAdmin is the purchase review surface.
	ViewAdmin
)

// Wizard field focus on the quantity step: index 0 is the quantity
// row, 1..n are the number slots.
const focusQuantity = 0

// Submit step fields.
const (
	submitFocusReference = iota
	submitFocusFile
	submitFocusButton
)

// Messages delivered by asynchronous service calls.
type (
	pricesMsg struct {
		prices models.Prices
		err    error
	}
	percentMsg struct {
		percent float64
		err     error
	}
	availabilityMsg struct {
		token int
		taken []string
		err   error
	}
	screenshotMsg struct {
		name string
		data []byte
		err  error
	}
	submitResultMsg struct {
		err error
	}
	sessionMsg struct {
		user *models.UserSummary
		err  error
	}
	registerResultMsg struct {
		err error
	}
	userTicketsMsg struct {
		tickets []string
		err     error
	}
	logoutMsg struct {
		err error
	}
)

// Model is the top-level bubbletea model for the kiosk.
type Model struct {
	service interfaces.RaffleService
	keys    KeyMap
	spin    spinner.Model

	width  int
	height int
	ready  bool

	view   View
	user   *models.UserSummary
	admin  adminPane
	auth   authForm
	status string

	percent   float64
	myTickets []string

	wizard      *wizard.Wizard
	focus       int
	payCursor   int
	submitFocus int
	filePath    string
}

// New creates the kiosk model over a raffle service. Purchase bounds
// come from configuration, prices are fetched at startup.
func New(service interfaces.RaffleService, minQuantity, maxQuantity int) Model {
	spin := spinner.New()
	spin.Spinner = spinner.Dot
	return Model{
		service: service,
		keys:    DefaultKeyMap,
		spin:    spin,
		wizard:  wizard.New(minQuantity, maxQuantity, models.Prices{}),
		auth:    newAuthForm(),
		admin:   newAdminPane(service),
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.fetchPrices(), m.fetchPercent(), m.spin.Tick)
}

func (m Model) fetchPrices() tea.Cmd {
	service := m.service
	return func() tea.Msg {
		prices, err := service.Prices()
		return pricesMsg{prices: prices, err: err}
	}
}

func (m Model) fetchPercent() tea.Cmd {
	service := m.service
	return func() tea.Msg {
		percent, err := service.PercentSold()
		return percentMsg{percent: percent, err: err}
	}
}

func (m Model) fetchUserTickets() tea.Cmd {
	service := m.service
	return func() tea.Msg {
		tickets, err := service.UserTickets()
		return userTicketsMsg{tickets: tickets, err: err}
	}
}

func (m Model) checkAvailability(token int, numbers []string) tea.Cmd {
	service := m.service
	return func() tea.Msg {
		taken, err := service.CheckTickets(numbers)
		return availabilityMsg{token: token, taken: taken, err: err}
	}
}

func (m Model) loadScreenshot(path string) tea.Cmd {
	return func() tea.Msg {
		data, err := os.ReadFile(path)
		return screenshotMsg{
			name: filepath.Base(path),
			data: data,
			err:  err,
		}
	}
}

func (m Model) submitPurchase(sub *models.PurchaseSubmission) tea.Cmd {
	service := m.service
	return func() tea.Msg {
		return submitResultMsg{err: service.SubmitPurchase(sub)}
	}
}

func (m Model) logout() tea.Cmd {
	service := m.service
	return func() tea.Msg {
		return logoutMsg{err: service.Logout()}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case pricesMsg:
		if msg.err == nil {
			m.wizard.SetPrices(msg.prices)
		}
		return m, nil

	case percentMsg:
		if msg.err == nil {
			m.percent = msg.percent
		}
		return m, nil

	case availabilityMsg:
		m.wizard.ApplyAvailability(msg.token, msg.taken, msg.err)
		return m, nil

	case screenshotMsg:
		if msg.err != nil {
			m.status = "could not read file: " + msg.err.Error()
			return m, nil
		}
		if m.wizard.AttachScreenshot(msg.name, msg.data) {
			m.status = ""
		}
		return m, nil

	case submitResultMsg:
		if m.wizard.ApplySubmitResult(msg.err) {
			m.status = "Purchase submitted for review"
			m.filePath = ""
			m.focus = focusQuantity
			m.submitFocus = submitFocusReference
			return m, tea.Batch(m.fetchPercent(), m.fetchUserTickets())
		}
		if msg.err != nil && m.sessionExpired(msg.err) {
			return m, nil
		}
		return m, nil

	case sessionMsg:
		m.auth.busy = false
		if msg.err != nil {
			m.auth.errText = msg.err.Error()
			return m, nil
		}
		m.user = msg.user
		m.auth.reset()
		m.view = ViewLanding
		m.status = "Logged in as " + msg.user.Email
		return m, m.fetchUserTickets()

	case registerResultMsg:
		m.auth.busy = false
		if msg.err != nil {
			m.auth.errText = msg.err.Error()
			return m, nil
		}
		// Registration succeeded; log straight in.
		m.auth.busy = true
		return m, m.auth.submitLogin(m.service)

	case userTicketsMsg:
		if msg.err == nil {
			m.myTickets = msg.tickets
		} else {
			m.sessionExpired(msg.err)
		}
		return m, nil

	case logoutMsg:
		m.user = nil
		m.myTickets = nil
		m.view = ViewLanding
		m.status = "Logged out"
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	// Admin pane messages.
	var cmd tea.Cmd
	var handled bool
	m.admin, handled, cmd = m.admin.handleMsg(msg)
	if handled {
		if m.admin.unauthorized {
			m.admin.unauthorized = false
			m.dropSession()
		}
		return m, cmd
	}
	return m, nil
}

// sessionExpired checks err for the distinguished auth failure and, if
// found, drops the local session and returns to the public view.
func (m *Model) sessionExpired(err error) bool {
	if !isUnauthorized(err) {
		return false
	}
	m.dropSession()
	return true
}

func (m *Model) dropSession() {
	m.user = nil
	m.myTickets = nil
	m.view = ViewLanding
	m.wizard.Close()
	m.status = "Session expired, please log in again"
}

func isUnauthorized(err error) bool {
	return errors.Is(err, interfaces.ErrUnauthorized)
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// The auth form swallows everything while active.
	if m.view == ViewAuth {
		return m.handleAuthKey(msg)
	}

	if m.view == ViewAdmin {
		var cmd tea.Cmd
		var handled bool
		m.admin, handled, cmd = m.admin.handleKey(msg, m.keys)
		if handled {
			return m, cmd
		}
		if key.Matches(msg, m.keys.Back) {
			m.view = ViewLanding
			return m, nil
		}
		if key.Matches(msg, m.keys.Quit) {
			return m, tea.Quit
		}
		return m, nil
	}

	if m.wizard.Visible() {
		return m.handleWizardKey(msg)
	}
	return m.handleLandingKey(msg)
}

func (m Model) handleLandingKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Buy):
		if m.user == nil {
			m.view = ViewAuth
			m.status = "Log in to buy tickets"
			return m, m.auth.focusCmd()
		}
		m.wizard.Open()
		m.focus = focusQuantity
		return m, m.fetchPrices()

	case key.Matches(msg, m.keys.Login):
		if m.user != nil {
			return m, m.logout()
		}
		m.view = ViewAuth
		return m, m.auth.focusCmd()

	case key.Matches(msg, m.keys.Refresh):
		return m, m.fetchPercent()
	}

	// "a" opens the review surface for logged-in admins.
	if msg.String() == "a" && m.user != nil {
		m.view = ViewAdmin
		return m, m.admin.refresh()
	}
	return m, nil
}

func (m Model) handleWizardKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Back) {
		if m.wizard.Step() == wizard.StepQuantity {
			m.wizard.Close()
			return m, nil
		}
		m.wizard.Back()
		return m, nil
	}

	switch m.wizard.Step() {
	case wizard.StepQuantity:
		return m.handleQuantityKey(msg)
	case wizard.StepPayment:
		return m.handlePaymentKey(msg)
	case wizard.StepSubmit:
		return m.handleSubmitKey(msg)
	}
	return m, nil
}

func (m Model) handleQuantityKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	slots := m.wizard.Slots()

	switch {
	case key.Matches(msg, m.keys.Down):
		if m.focus < len(slots) {
			m.focus++
		}
		return m, nil
	case key.Matches(msg, m.keys.Up):
		if m.focus > focusQuantity {
			m.focus--
		}
		return m, nil
	case key.Matches(msg, m.keys.Next):
		token, numbers, check := m.wizard.NextFromQuantity()
		if check {
			return m, m.checkAvailability(token, numbers)
		}
		return m, nil
	}

	switch msg.Type {
	case tea.KeyBackspace:
		if i := m.focus - 1; i >= 0 && i < len(slots) && slots[i] != "" {
			m.wizard.SetSlot(i, slots[i][:len(slots[i])-1])
		}
		return m, nil
	case tea.KeyRunes:
		for _, r := range msg.Runes {
			if m.focus == focusQuantity {
				switch r {
				case '+', '=':
					m.wizard.Increment()
				case '-':
					m.wizard.Decrement()
				}
				continue
			}
			if i := m.focus - 1; i < len(slots) {
				m.wizard.SetSlot(i, m.wizard.Slots()[i]+string(r))
			}
		}
		return m, nil
	}
	return m, nil
}

func (m Model) handlePaymentKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Down):
		if m.payCursor < len(models.PaymentMethods)-1 {
			m.payCursor++
		}
		return m, nil
	case key.Matches(msg, m.keys.Up):
		if m.payCursor > 0 {
			m.payCursor--
		}
		return m, nil
	case key.Matches(msg, m.keys.Next):
		m.wizard.NextFromPayment()
		m.submitFocus = submitFocusReference
		return m, nil
	}
	if msg.String() == " " {
		m.wizard.TogglePayment(models.PaymentMethods[m.payCursor])
	}
	return m, nil
}

func (m Model) handleSubmitKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Down):
		if m.submitFocus < submitFocusButton {
			m.submitFocus++
		}
		return m, nil
	case key.Matches(msg, m.keys.Up):
		if m.submitFocus > submitFocusReference {
			m.submitFocus--
		}
		return m, nil
	case key.Matches(msg, m.keys.Next):
		switch m.submitFocus {
		case submitFocusReference:
			m.submitFocus = submitFocusFile
			return m, nil
		case submitFocusFile:
			if m.filePath != "" {
				return m, m.loadScreenshot(m.filePath)
			}
			return m, nil
		case submitFocusButton:
			if sub := m.wizard.BeginSubmit(); sub != nil {
				return m, m.submitPurchase(sub)
			}
			return m, nil
		}
	}

	switch msg.Type {
	case tea.KeyBackspace:
		switch m.submitFocus {
		case submitFocusReference:
			ref := m.wizard.TransactionRef()
			if ref != "" {
				m.wizard.SetTransactionRef(ref[:len(ref)-1])
			}
		case submitFocusFile:
			if m.filePath != "" {
				m.filePath = m.filePath[:len(m.filePath)-1]
			}
		}
		return m, nil
	case tea.KeyRunes:
		switch m.submitFocus {
		case submitFocusReference:
			m.wizard.SetTransactionRef(
				m.wizard.TransactionRef() + string(msg.Runes),
			)
		case submitFocusFile:
			m.filePath += string(msg.Runes)
		}
		return m, nil
	}
	return m, nil
}
