package mock

import (
	"fmt"
	"log"

	"github.com/cerjey13/rifa/internal/interfaces"
	"github.com/cerjey13/rifa/internal/models"
	"github.com/cerjey13/rifa/internal/storage"
	"github.com/cerjey13/rifa/internal/ticket"
)

// MockRaffle runs the whole raffle in-process for standalone mode and
// tests. It reuses the server's storage layer so number assignment,
// conflicts and pagination behave exactly like the live service, with a
// single logged-in user in place of cookie sessions.
type MockRaffle struct {
	storage *storage.MemoryStorage
	current *models.User
	verbose bool
}

func NewMockRaffle(verbose bool) *MockRaffle {
	m := &MockRaffle{
		storage: storage.NewMemoryStorage(
			models.Prices{MontoBs: 100, MontoUsd: 10},
			verbose,
		),
		verbose: verbose,
	}

	// A ready-made admin so the standalone kiosk can reach the review
	// surface without a registration round-trip.
	admin := &models.User{
		Name:     "Standalone Admin",
		Email:    "admin@localhost",
		Phone:    "00000000000",
		Role:     models.RoleAdmin,
		Password: "admin",
	}
	if err := m.storage.CreateUser(admin); err == nil && verbose {
		log.Printf("[MOCK] Raffle: Seeded admin %s", admin.Email)
	}
	return m
}

func (m *MockRaffle) Register(req models.RegisterRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}
	user := &models.User{
		Name:     req.Name,
		Email:    req.Email,
		Phone:    req.Phone,
		Role:     "user",
		Password: req.Password,
	}
	if err := m.storage.CreateUser(user); err != nil {
		return err
	}
	if m.verbose {
		log.Printf("[MOCK] Raffle: Registered %s", req.Email)
	}
	return nil
}

func (m *MockRaffle) Login(
	email, password string,
) (*models.UserSummary, error) {
	user, err := m.storage.UserByEmail(email)
	if err != nil || user.Password != password {
		return nil, fmt.Errorf("invalid credentials")
	}
	m.current = user
	if m.verbose {
		log.Printf("[MOCK] Raffle: Logged in as %s", email)
	}
	return &models.UserSummary{
		ID:    user.ID,
		Name:  user.Name,
		Email: user.Email,
		Phone: user.Phone,
	}, nil
}

func (m *MockRaffle) Me() (*models.User, error) {
	if m.current == nil {
		return nil, interfaces.ErrUnauthorized
	}
	return m.current, nil
}

func (m *MockRaffle) Logout() error {
	m.current = nil
	return nil
}

func (m *MockRaffle) Prices() (models.Prices, error) {
	return m.storage.GetPrices(), nil
}

func (m *MockRaffle) UpdatePrices(prices models.Prices) error {
	if err := m.requireAdmin(); err != nil {
		return err
	}
	m.storage.SetPrices(prices)
	return nil
}

func (m *MockRaffle) PercentSold() (float64, error) {
	return m.storage.PercentSold(), nil
}

func (m *MockRaffle) CheckTickets(numbers []string) ([]string, error) {
	if m.current == nil {
		return nil, interfaces.ErrUnauthorized
	}
	parsed, err := ticket.ToIntSlice(numbers)
	if err != nil {
		return nil, err
	}
	return ticket.ToStrSlice(m.storage.UnavailableNumbers(parsed)), nil
}

func (m *MockRaffle) UserTickets() ([]string, error) {
	if m.current == nil {
		return nil, interfaces.ErrUnauthorized
	}
	return ticket.ToStrSlice(m.storage.UserTickets(m.current.ID)), nil
}

func (m *MockRaffle) SubmitPurchase(
	submission *models.PurchaseSubmission,
) error {
	if m.current == nil {
		return interfaces.ErrUnauthorized
	}
	if err := submission.Validate(); err != nil {
		return err
	}
	selected, err := ticket.ToIntSlice(submission.SelectedNumbers)
	if err != nil {
		return err
	}

	purchase := &models.Purchase{
		UserID:            m.current.ID,
		Quantity:          submission.Quantity,
		MontoBs:           submission.MontoBs,
		MontoUSD:          submission.MontoUSD,
		PaymentMethod:     submission.PaymentMethod,
		TransactionDigits: submission.TransactionDigits,
		PaymentScreenshot: submission.PaymentScreenshot,
	}
	if _, err := m.storage.CreatePurchase(purchase, selected); err != nil {
		return err
	}
	if m.verbose {
		log.Printf(
			"[MOCK] Raffle: Purchase stored (%d tickets)",
			submission.Quantity,
		)
	}
	return nil
}

func (m *MockRaffle) ListPurchases(
	status string, page, perPage int,
) ([]models.PurchaseRecord, int, error) {
	if err := m.requireAdmin(); err != nil {
		return nil, 0, err
	}
	records, total := m.storage.ListPurchases(status, page, perPage)
	return records, total, nil
}

func (m *MockRaffle) UpdatePurchaseStatus(purchaseID, status string) error {
	if err := m.requireAdmin(); err != nil {
		return err
	}
	return m.storage.UpdateStatus(purchaseID, status)
}

func (m *MockRaffle) Leaderboard(
	page, perPage int,
) ([]models.LeaderboardEntry, int, error) {
	if err := m.requireAdmin(); err != nil {
		return nil, 0, err
	}
	entries, total := m.storage.Leaderboard(page, perPage)
	return entries, total, nil
}

func (m *MockRaffle) SearchTicket(number int) (*models.SearchResult, error) {
	if err := m.requireAdmin(); err != nil {
		return nil, err
	}
	if number < ticket.NumberMin || number > ticket.NumberMax {
		return nil, fmt.Errorf("invalid ticket number %d", number)
	}
	return m.storage.SearchByTicket(number), nil
}

func (m *MockRaffle) requireAdmin() error {
	if m.current == nil {
		return interfaces.ErrUnauthorized
	}
	if m.current.Role != models.RoleAdmin {
		return fmt.Errorf("admin only")
	}
	return nil
}
