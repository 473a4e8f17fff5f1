package kiosk

import (
	"strconv"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/cerjey13/rifa/internal/interfaces"
	"github.com/cerjey13/rifa/internal/models"
	"github.com/cerjey13/rifa/internal/ticket"
)

// adminMode is the sub-view inside the review surface.
type adminMode int

const (
	adminList adminMode = iota
	adminLeaderboard
	adminSearch
)

// Admin listing page size.
const adminPerPage = 10

// Messages for the review surface.
type (
	purchasesMsg struct {
		records []models.PurchaseRecord
		total   int
		err     error
	}
	statusResultMsg struct {
		purchaseID string
		status     string
		err        error
	}
	leaderboardMsg struct {
		entries []models.LeaderboardEntry
		total   int
		err     error
	}
	searchResultMsg struct {
		result *models.SearchResult
		err    error
	}
)

// adminPane is the purchase review surface: a paginated purchase table
// with inline status changes, a buyer leaderboard and a by-number
// search.
type adminPane struct {
	service interfaces.RaffleService
	mode    adminMode

	records      []models.PurchaseRecord
	total        int
	page         int
	cursor       int
	statusFilter string

	entries []models.LeaderboardEntry
	lbTotal int
	lbPage  int

	searchInput  string
	searchResult *models.SearchResult
	searchDone   bool

	notice       string
	busy         bool
	unauthorized bool
}

func newAdminPane(service interfaces.RaffleService) adminPane {
	return adminPane{service: service, page: 1, lbPage: 1}
}

func (a adminPane) refresh() tea.Cmd {
	service := a.service
	status, page := a.statusFilter, a.page
	return func() tea.Msg {
		records, total, err := service.ListPurchases(
			status, page, adminPerPage,
		)
		return purchasesMsg{records: records, total: total, err: err}
	}
}

func (a adminPane) fetchLeaderboard() tea.Cmd {
	service := a.service
	page := a.lbPage
	return func() tea.Msg {
		entries, total, err := service.Leaderboard(page, adminPerPage)
		return leaderboardMsg{entries: entries, total: total, err: err}
	}
}

func (a adminPane) setStatus(purchaseID, status string) tea.Cmd {
	service := a.service
	return func() tea.Msg {
		return statusResultMsg{
			purchaseID: purchaseID,
			status:     status,
			err:        service.UpdatePurchaseStatus(purchaseID, status),
		}
	}
}

func (a adminPane) search(number int) tea.Cmd {
	service := a.service
	return func() tea.Msg {
		result, err := service.SearchTicket(number)
		return searchResultMsg{result: result, err: err}
	}
}

// handleMsg consumes the pane's async results. The second return value
// reports whether the message belonged to the pane.
func (a adminPane) handleMsg(msg tea.Msg) (adminPane, bool, tea.Cmd) {
	switch msg := msg.(type) {
	case purchasesMsg:
		a.busy = false
		if msg.err != nil {
			a.fail(msg.err)
			return a, true, nil
		}
		a.records = msg.records
		a.total = msg.total
		if a.cursor >= len(a.records) {
			a.cursor = len(a.records) - 1
		}
		if a.cursor < 0 {
			a.cursor = 0
		}
		return a, true, nil

	case statusResultMsg:
		if msg.err != nil {
			a.fail(msg.err)
			return a, true, nil
		}
		a.notice = msg.purchaseID + " -> " + msg.status
		return a, true, a.refresh()

	case leaderboardMsg:
		a.busy = false
		if msg.err != nil {
			a.fail(msg.err)
			return a, true, nil
		}
		a.entries = msg.entries
		a.lbTotal = msg.total
		return a, true, nil

	case searchResultMsg:
		a.busy = false
		if msg.err != nil {
			a.fail(msg.err)
			return a, true, nil
		}
		a.searchResult = msg.result
		a.searchDone = true
		return a, true, nil
	}
	return a, false, nil
}

// fail records an error in the notice line. Auth failures are flagged
// for the model to drop the session.
func (a *adminPane) fail(err error) {
	a.busy = false
	if isUnauthorized(err) {
		a.unauthorized = true
		return
	}
	a.notice = err.Error()
}

// handleKey consumes pane key presses. Unhandled keys (quit, leaving
// the pane) fall through to the model.
func (a adminPane) handleKey(
	msg tea.KeyMsg,
	keys KeyMap,
) (adminPane, bool, tea.Cmd) {
	if a.mode == adminSearch {
		return a.handleSearchKey(msg, keys)
	}
	if a.mode == adminLeaderboard {
		return a.handleLeaderboardKey(msg, keys)
	}

	switch {
	case key.Matches(msg, keys.Refresh):
		a.busy = true
		return a, true, a.refresh()

	case key.Matches(msg, keys.Down):
		if a.cursor < len(a.records)-1 {
			a.cursor++
		}
		return a, true, nil

	case key.Matches(msg, keys.Up):
		if a.cursor > 0 {
			a.cursor--
		}
		return a, true, nil

	case key.Matches(msg, keys.PageNext):
		if a.page*adminPerPage < a.total {
			a.page++
			a.busy = true
			return a, true, a.refresh()
		}
		return a, true, nil

	case key.Matches(msg, keys.PagePrev):
		if a.page > 1 {
			a.page--
			a.busy = true
			return a, true, a.refresh()
		}
		return a, true, nil

	case key.Matches(msg, keys.CycleFilter):
		a.statusFilter = nextStatusFilter(a.statusFilter)
		a.page = 1
		a.busy = true
		return a, true, a.refresh()

	case key.Matches(msg, keys.Verify):
		return a.changeStatus(string(models.StatusVerified))
	case key.Matches(msg, keys.Reject):
		return a.changeStatus(string(models.StatusRejected))
	case key.Matches(msg, keys.Pending):
		return a.changeStatus(string(models.StatusPending))

	case key.Matches(msg, keys.Leaderboard):
		a.mode = adminLeaderboard
		a.busy = true
		return a, true, a.fetchLeaderboard()

	case key.Matches(msg, keys.Search):
		a.mode = adminSearch
		a.searchInput = ""
		a.searchResult = nil
		a.searchDone = false
		return a, true, nil
	}
	return a, false, nil
}

func (a adminPane) changeStatus(status string) (adminPane, bool, tea.Cmd) {
	if a.cursor >= len(a.records) {
		return a, true, nil
	}
	record := a.records[a.cursor]
	if string(record.Status) == status {
		return a, true, nil
	}
	return a, true, a.setStatus(record.ID, status)
}

func (a adminPane) handleLeaderboardKey(
	msg tea.KeyMsg,
	keys KeyMap,
) (adminPane, bool, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Back):
		a.mode = adminList
		return a, true, nil
	case key.Matches(msg, keys.PageNext):
		if a.lbPage*adminPerPage < a.lbTotal {
			a.lbPage++
			return a, true, a.fetchLeaderboard()
		}
		return a, true, nil
	case key.Matches(msg, keys.PagePrev):
		if a.lbPage > 1 {
			a.lbPage--
			return a, true, a.fetchLeaderboard()
		}
		return a, true, nil
	case key.Matches(msg, keys.Refresh):
		return a, true, a.fetchLeaderboard()
	}
	return a, true, nil
}

func (a adminPane) handleSearchKey(
	msg tea.KeyMsg,
	keys KeyMap,
) (adminPane, bool, tea.Cmd) {
	if key.Matches(msg, keys.Back) {
		a.mode = adminList
		return a, true, nil
	}

	switch msg.Type {
	case tea.KeyEnter:
		number, err := strconv.Atoi(a.searchInput)
		if err != nil || number < ticket.NumberMin || number > ticket.NumberMax {
			a.notice = "enter a number between 0 and 9999"
			return a, true, nil
		}
		a.busy = true
		return a, true, a.search(number)

	case tea.KeyBackspace:
		if a.searchInput != "" {
			a.searchInput = a.searchInput[:len(a.searchInput)-1]
		}
		return a, true, nil

	case tea.KeyRunes:
		for _, r := range msg.Runes {
			if r >= '0' && r <= '9' && len(a.searchInput) < 4 {
				a.searchInput += string(r)
			}
		}
		return a, true, nil
	}
	return a, true, nil
}

// nextStatusFilter cycles all -> pending -> verified -> rejected -> all.
func nextStatusFilter(current string) string {
	switch current {
	case "":
		return string(models.StatusPending)
	case string(models.StatusPending):
		return string(models.StatusVerified)
	case string(models.StatusVerified):
		return string(models.StatusRejected)
	default:
		return ""
	}
}
