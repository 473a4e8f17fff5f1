package interfaces

import (
	"errors"

	"github.com/cerjey13/rifa/internal/models"
)

// ErrUnauthorized is returned by service calls that were rejected for a
// missing or expired session. The kiosk uses it to fall back to the
// public view instead of showing a generic error.
var ErrUnauthorized = errors.New("not authenticated")

// RaffleService is the full API surface the kiosk talks to. The real
// implementation is an HTTP client against the raffle server; the mock
// runs everything in-process for standalone mode and tests.
type RaffleService interface {
	// Account operations.
	Register(req models.RegisterRequest) error
	Login(email, password string) (*models.UserSummary, error)
	Me() (*models.User, error)
	Logout() error

	// Public raffle data.
	Prices() (models.Prices, error)
	PercentSold() (float64, error)

	// Buyer operations. All require a session.
	CheckTickets(numbers []string) ([]string, error)
	UserTickets() ([]string, error)
	SubmitPurchase(submission *models.PurchaseSubmission) error

	// Admin operations.
	UpdatePrices(prices models.Prices) error
	ListPurchases(
		status string, page, perPage int,
	) ([]models.PurchaseRecord, int, error)
	UpdatePurchaseStatus(purchaseID, status string) error
	Leaderboard(page, perPage int) ([]models.LeaderboardEntry, int, error)
	SearchTicket(number int) (*models.SearchResult, error)
}
