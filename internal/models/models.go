package models

import (
	"fmt"
	"regexp"
	"time"
)

// MaxScreenshotBytes caps the payment-proof upload at 3 MiB. Anything
// larger is rejected before it is retained anywhere.
const MaxScreenshotBytes = 3 * 1024 * 1024

// PurchaseStatus is the admin review state of a purchase.
type PurchaseStatus string

const (
	StatusPending  PurchaseStatus = "pending"
	StatusVerified PurchaseStatus = "verified"
	StatusRejected PurchaseStatus = "rejected"
)

// ValidStatus reports whether s is one of the known review states.
func ValidStatus(s string) bool {
	switch PurchaseStatus(s) {
	case StatusPending, StatusVerified, StatusRejected:
		return true
	}
	return false
}

// Payment channels. The wire values are fixed reference data shared with
// the original service, so they stay as-is.
const (
	PaymentPagoMovil = "pago movil"
	PaymentZelle     = "zelle"
)

// PaymentMethods lists the closed channel enumeration in display order.
var PaymentMethods = []string{PaymentPagoMovil, PaymentZelle}

// ValidPaymentMethod reports whether method is a known channel.
func ValidPaymentMethod(method string) bool {
	return method == PaymentPagoMovil || method == PaymentZelle
}

// PaymentInstructions is the channel-keyed reference data shown on the
// confirmation step: where to actually send the money.
type PaymentInstructions struct {
	Lines []InstructionLine
}

// InstructionLine is a single label/value pair, e.g. "Cuenta: BANESCO 0134".
type InstructionLine struct {
	Label string
	Value string
}

var paymentInstructions = map[string]PaymentInstructions{
	PaymentPagoMovil: {Lines: []InstructionLine{
		{Label: "Cuenta", Value: "BANESCO 0134"},
		{Label: "Cedula", Value: "30606459"},
		{Label: "Telefono", Value: "04141551801"},
	}},
	PaymentZelle: {Lines: []InstructionLine{
		{Label: "Telefono", Value: "3802389306"},
		{Label: "Nombre", Value: "Vicente Mendez"},
	}},
}

// InstructionsFor returns the payment instructions for a channel.
func InstructionsFor(method string) (PaymentInstructions, bool) {
	ins, ok := paymentInstructions[method]
	return ins, ok
}

// User is a registered buyer or administrator.
type User struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Role     string `json:"role"`
	Password string `json:"-"`
}

// Admin role marker.
const RoleAdmin = "admin"

// Purchase is a submitted ticket purchase awaiting (or past) review.
type Purchase struct {
	ID                string         `json:"id"`
	UserID            string         `json:"user_id"`
	Quantity          int            `json:"quantity"`
	MontoBs           string         `json:"monto_bs"`
	MontoUSD          string         `json:"monto_usd"`
	PaymentMethod     string         `json:"payment_method"`
	TransactionDigits string         `json:"transaction_digits"`
	PaymentScreenshot []byte         `json:"-"`
	Status            PurchaseStatus `json:"status"`
	CreatedAt         time.Time      `json:"created_at"`
	Numbers           []int          `json:"numbers"`
}

// PurchaseRecord is a purchase joined with its buyer, as listed on the
// admin review surface.
type PurchaseRecord struct {
	Purchase
	User UserSummary `json:"user"`
}

// UserSummary is the buyer data exposed to the admin surfaces.
type UserSummary struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// Prices holds the unit price of one ticket in both currencies.
type Prices struct {
	MontoBs  float64 `json:"montoBs"`
	MontoUsd float64 `json:"montoUsd"`
}

// LeaderboardEntry ranks a buyer by how many tickets they hold.
type LeaderboardEntry struct {
	User        UserSummary `json:"user"`
	TicketCount int         `json:"ticketCount"`
}

// SearchResult is the outcome of the admin by-number search: the owner of
// a ticket plus every number they bought.
type SearchResult struct {
	User    UserSummary `json:"user"`
	Tickets []int       `json:"tickets"`
}

var (
	emailRegex = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	phoneRegex = regexp.MustCompile(`^\+?[0-9]{7,15}$`)
	digitsOnly = regexp.MustCompile(`^[0-9]{6}$`)
)

// ValidEmail reports whether s looks like an email address.
func ValidEmail(s string) bool {
	return emailRegex.MatchString(s)
}

// ValidPhone reports whether s looks like a phone number.
func ValidPhone(s string) bool {
	return phoneRegex.MatchString(s)
}

// ValidTransactionDigits reports whether s is exactly six digits.
func ValidTransactionDigits(s string) bool {
	return digitsOnly.MatchString(s)
}

// RegisterRequest is the sign-up payload.
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

// Validate checks the sign-up payload before it reaches storage.
func (r *RegisterRequest) Validate() error {
	if r.Name == "" {
		return fmt.Errorf("name is required")
	}
	if !ValidEmail(r.Email) {
		return fmt.Errorf("email is not valid")
	}
	if !ValidPhone(r.Phone) {
		return fmt.Errorf("phone is not valid")
	}
	if len(r.Password) < 8 {
		return fmt.Errorf("password must be at least 8 characters")
	}
	return nil
}

// LoginRequest is the credential payload.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate checks the credential payload.
func (r *LoginRequest) Validate() error {
	if !ValidEmail(r.Email) {
		return fmt.Errorf("email is not valid")
	}
	if r.Password == "" {
		return fmt.Errorf("password is required")
	}
	return nil
}

// PurchaseSubmission is the assembled multipart payload for
// POST /api/purchases. Created once at final submission; never retried
// automatically.
type PurchaseSubmission struct {
	Quantity          int
	MontoBs           string
	MontoUSD          string
	PaymentMethod     string
	TransactionDigits string
	SelectedNumbers   []string
	PaymentScreenshot []byte
	ScreenshotName    string
}

// Validate applies the client-side submission rules: a known channel, a
// six-digit reference and a proof file within the size cap.
func (s *PurchaseSubmission) Validate() error {
	if s.Quantity <= 0 {
		return fmt.Errorf("quantity must be positive")
	}
	if !ValidPaymentMethod(s.PaymentMethod) {
		return fmt.Errorf("unknown payment method %q", s.PaymentMethod)
	}
	if !ValidTransactionDigits(s.TransactionDigits) {
		return fmt.Errorf("transaction reference must be exactly 6 digits")
	}
	if len(s.PaymentScreenshot) == 0 {
		return fmt.Errorf("payment screenshot is required")
	}
	if len(s.PaymentScreenshot) > MaxScreenshotBytes {
		return fmt.Errorf("payment screenshot exceeds 3MB limit")
	}
	return nil
}

// ErrorResponse is the JSON error body returned by the API.
type ErrorResponse struct {
	Error string `json:"error"`
}

// TicketsResponse is the availability-check response: the subset of the
// queried numbers that is already taken.
type TicketsResponse struct {
	Tickets []string `json:"tickets"`
}

// PercentageResponse reports the percent of the pool already sold.
type PercentageResponse struct {
	Vendidos float64 `json:"vendidos"`
}

// UserTicketsResponse lists the caller's own purchased numbers.
type UserTicketsResponse struct {
	Tickets []string `json:"tickets"`
}
