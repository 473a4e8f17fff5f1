package mock

import (
	"errors"
	"testing"

	"github.com/cerjey13/rifa/internal/interfaces"
	"github.com/cerjey13/rifa/internal/models"
)

func loggedInBuyer(t *testing.T) *MockRaffle {
	t.Helper()
	m := NewMockRaffle(false)
	err := m.Register(models.RegisterRequest{
		Name:     "Buyer",
		Email:    "buyer@example.com",
		Phone:    "04141551801",
		Password: "supersecret",
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if _, err := m.Login("buyer@example.com", "supersecret"); err != nil {
		t.Fatalf("Login: %v", err)
	}
	return m
}

func TestMockRequiresLogin(t *testing.T) {
	m := NewMockRaffle(false)
	if _, err := m.CheckTickets([]string{"7"}); !errors.Is(err, interfaces.ErrUnauthorized) {
		t.Errorf("CheckTickets: got %v", err)
	}
	if _, err := m.Me(); !errors.Is(err, interfaces.ErrUnauthorized) {
		t.Errorf("Me: got %v", err)
	}
}

func TestMockPurchaseFlow(t *testing.T) {
	m := loggedInBuyer(t)

	err := m.SubmitPurchase(&models.PurchaseSubmission{
		Quantity:          2,
		MontoBs:           "200.00",
		MontoUSD:          "20.00",
		PaymentMethod:     models.PaymentPagoMovil,
		TransactionDigits: "654321",
		SelectedNumbers:   []string{"7"},
		PaymentScreenshot: []byte("img"),
	})
	if err != nil {
		t.Fatalf("SubmitPurchase: %v", err)
	}

	taken, err := m.CheckTickets([]string{"7"})
	if err != nil {
		t.Fatalf("CheckTickets: %v", err)
	}
	if len(taken) != 1 || taken[0] != "7" {
		t.Errorf("taken: %v", taken)
	}

	mine, err := m.UserTickets()
	if err != nil || len(mine) != 2 {
		t.Errorf("own tickets: %v %v", err, mine)
	}
}

func TestMockAdminGate(t *testing.T) {
	m := loggedInBuyer(t)
	if _, _, err := m.ListPurchases("", 1, 10); err == nil {
		t.Error("buyer reached admin listing")
	}

	// The seeded standalone admin can.
	if _, err := m.Login("admin@localhost", "admin"); err != nil {
		t.Fatalf("admin login: %v", err)
	}
	if _, _, err := m.ListPurchases("", 1, 10); err != nil {
		t.Errorf("admin listing: %v", err)
	}
}
