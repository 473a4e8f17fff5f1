package kiosk

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/cerjey13/rifa/internal/interfaces"
	"github.com/cerjey13/rifa/internal/models"
)

// Field order inside the auth form.
const (
	authName = iota
	authEmail
	authPhone
	authPassword
	authFieldCount
)

// authForm is the login/register screen: four text inputs, of which the
// login variant shows only email and password.
type authForm struct {
	registering bool
	inputs      []textinput.Model
	focus       int
	busy        bool
	errText     string
}

func newAuthForm() authForm {
	inputs := make([]textinput.Model, authFieldCount)
	for i := range inputs {
		inputs[i] = textinput.New()
		inputs[i].CharLimit = 64
	}
	inputs[authName].Placeholder = "name"
	inputs[authEmail].Placeholder = "email"
	inputs[authPhone].Placeholder = "phone"
	inputs[authPassword].Placeholder = "password"
	inputs[authPassword].EchoMode = textinput.EchoPassword
	inputs[authPassword].EchoCharacter = '*'
	return authForm{inputs: inputs, focus: authEmail}
}

// fields returns the indexes visible in the current mode.
func (f *authForm) fields() []int {
	if f.registering {
		return []int{authName, authEmail, authPhone, authPassword}
	}
	return []int{authEmail, authPassword}
}

func (f *authForm) focusCmd() tea.Cmd {
	cmds := make([]tea.Cmd, 0, len(f.inputs))
	for i := range f.inputs {
		if i == f.focus {
			cmds = append(cmds, f.inputs[i].Focus())
		} else {
			f.inputs[i].Blur()
		}
	}
	return tea.Batch(cmds...)
}

// cycle moves focus by delta across the visible fields, wrapping.
func (f *authForm) cycle(delta int) tea.Cmd {
	visible := f.fields()
	current := 0
	for i, idx := range visible {
		if idx == f.focus {
			current = i
			break
		}
	}
	current = (current + delta + len(visible)) % len(visible)
	f.focus = visible[current]
	return f.focusCmd()
}

func (f *authForm) toggleMode() tea.Cmd {
	f.registering = !f.registering
	f.errText = ""
	f.focus = f.fields()[0]
	return f.focusCmd()
}

func (f *authForm) reset() {
	for i := range f.inputs {
		f.inputs[i].SetValue("")
		f.inputs[i].Blur()
	}
	f.registering = false
	f.busy = false
	f.errText = ""
	f.focus = authEmail
}

func (f *authForm) submitLogin(service interfaces.RaffleService) tea.Cmd {
	email := f.inputs[authEmail].Value()
	password := f.inputs[authPassword].Value()
	return func() tea.Msg {
		user, err := service.Login(email, password)
		return sessionMsg{user: user, err: err}
	}
}

func (f *authForm) submitRegister(service interfaces.RaffleService) tea.Cmd {
	req := models.RegisterRequest{
		Name:     f.inputs[authName].Value(),
		Email:    f.inputs[authEmail].Value(),
		Phone:    f.inputs[authPhone].Value(),
		Password: f.inputs[authPassword].Value(),
	}
	return func() tea.Msg {
		return registerResultMsg{err: service.Register(req)}
	}
}

func (m Model) handleAuthKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Back):
		m.auth.reset()
		m.view = ViewLanding
		return m, nil
	case key.Matches(msg, m.keys.Down):
		return m, m.auth.cycle(1)
	case key.Matches(msg, m.keys.Up):
		return m, m.auth.cycle(-1)
	case key.Matches(msg, m.keys.Next):
		if m.auth.busy {
			return m, nil
		}
		m.auth.busy = true
		m.auth.errText = ""
		if m.auth.registering {
			return m, m.auth.submitRegister(m.service)
		}
		return m, m.auth.submitLogin(m.service)
	}

	if msg.Type == tea.KeyCtrlR {
		return m, m.auth.toggleMode()
	}

	var cmd tea.Cmd
	m.auth.inputs[m.auth.focus], cmd =
		m.auth.inputs[m.auth.focus].Update(msg)
	return m, cmd
}
