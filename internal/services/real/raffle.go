package real

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cerjey13/rifa/internal/interfaces"
	"github.com/cerjey13/rifa/internal/models"
)

// RealRaffle is the HTTP client for the raffle server. The session
// cookie set at login lives in the client's cookie jar, so every later
// call carries it automatically.
type RealRaffle struct {
	baseURL    string
	httpClient *http.Client
	verbose    bool
}

func NewRealRaffle(baseURL string, verbose bool) (*RealRaffle, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %v", err)
	}
	return &RealRaffle{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
			Jar:     jar,
		},
		verbose: verbose,
	}, nil
}

// doJSON performs a request with an optional JSON body and decodes the
// response into out (when out is non-nil). A 401 becomes the
// distinguished ErrUnauthorized.
func (r *RealRaffle) doJSON(
	method, path string,
	body any,
	out any,
) (http.Header, error) {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %v", err)
		}
		reader = bytes.NewBuffer(encoded)
	}

	req, err := http.NewRequest(method, r.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call raffle server: %v", err)
	}
	defer resp.Body.Close()

	responseBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %v", err)
	}

	if resp.StatusCode == http.StatusUnauthorized {
		return nil, interfaces.ErrUnauthorized
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errorResp models.ErrorResponse
		if json.Unmarshal(responseBody, &errorResp) == nil &&
			errorResp.Error != "" {
			return nil, fmt.Errorf(
				"raffle server error (%d): %s",
				resp.StatusCode, errorResp.Error,
			)
		}
		return nil, fmt.Errorf(
			"raffle server returned status %d: %s",
			resp.StatusCode, string(responseBody),
		)
	}

	if out != nil {
		if err := json.Unmarshal(responseBody, out); err != nil {
			return nil, fmt.Errorf("failed to parse response: %v", err)
		}
	}
	return resp.Header, nil
}

func (r *RealRaffle) Register(req models.RegisterRequest) error {
	if r.verbose {
		log.Printf("[REAL] Raffle: Registering %s", req.Email)
	}
	_, err := r.doJSON(http.MethodPost, "/api/register", req, nil)
	return err
}

func (r *RealRaffle) Login(
	email, password string,
) (*models.UserSummary, error) {
	var user models.UserSummary
	_, err := r.doJSON(http.MethodPost, "/api/login", models.LoginRequest{
		Email:    email,
		Password: password,
	}, &user)
	if err != nil {
		return nil, err
	}
	if r.verbose {
		log.Printf("[REAL] Raffle: Logged in as %s", user.Email)
	}
	return &user, nil
}

func (r *RealRaffle) Me() (*models.User, error) {
	var user models.User
	if _, err := r.doJSON(http.MethodGet, "/api/me", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *RealRaffle) Logout() error {
	_, err := r.doJSON(http.MethodPost, "/api/logout", nil, nil)
	return err
}

func (r *RealRaffle) Prices() (models.Prices, error) {
	var prices models.Prices
	_, err := r.doJSON(http.MethodGet, "/api/prices", nil, &prices)
	return prices, err
}

func (r *RealRaffle) UpdatePrices(prices models.Prices) error {
	_, err := r.doJSON(http.MethodPatch, "/api/prices", prices, nil)
	return err
}

func (r *RealRaffle) PercentSold() (float64, error) {
	var resp models.PercentageResponse
	_, err := r.doJSON(http.MethodGet, "/api/tickets/percentage", nil, &resp)
	return resp.Vendidos, err
}

// CheckTickets asks the server which of the given numbers are taken.
func (r *RealRaffle) CheckTickets(numbers []string) ([]string, error) {
	path := "/api/tickets?numbers=" + url.QueryEscape(
		strings.Join(numbers, ","),
	)
	var resp models.TicketsResponse
	if _, err := r.doJSON(http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	if r.verbose {
		log.Printf(
			"[REAL] Raffle: %d of %d queried numbers taken",
			len(resp.Tickets), len(numbers),
		)
	}
	return resp.Tickets, nil
}

func (r *RealRaffle) UserTickets() ([]string, error) {
	var resp models.UserTicketsResponse
	_, err := r.doJSON(http.MethodGet, "/api/tickets/users", nil, &resp)
	if err != nil {
		return nil, err
	}
	return resp.Tickets, nil
}

// SubmitPurchase posts the assembled multipart purchase.
func (r *RealRaffle) SubmitPurchase(
	submission *models.PurchaseSubmission,
) error {
	if err := submission.Validate(); err != nil {
		return err
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fields := map[string]string{
		"quantity":          strconv.Itoa(submission.Quantity),
		"montoBs":           submission.MontoBs,
		"montoUSD":          submission.MontoUSD,
		"paymentMethod":     submission.PaymentMethod,
		"transactionDigits": submission.TransactionDigits,
		"selectedNumbers":   strings.Join(submission.SelectedNumbers, ","),
	}
	for name, value := range fields {
		if err := mw.WriteField(name, value); err != nil {
			return fmt.Errorf("failed to write form field %s: %v", name, err)
		}
	}

	name := submission.ScreenshotName
	if name == "" {
		name = "screenshot"
	}
	fw, err := mw.CreateFormFile("paymentScreenshot", name)
	if err != nil {
		return fmt.Errorf("failed to attach screenshot: %v", err)
	}
	if _, err := fw.Write(submission.PaymentScreenshot); err != nil {
		return fmt.Errorf("failed to write screenshot: %v", err)
	}
	if err := mw.Close(); err != nil {
		return fmt.Errorf("failed to finalize form: %v", err)
	}

	req, err := http.NewRequest(
		http.MethodPost, r.baseURL+"/api/purchases", &buf,
	)
	if err != nil {
		return fmt.Errorf("failed to build request: %v", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call raffle server: %v", err)
	}
	defer resp.Body.Close()

	responseBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %v", err)
	}

	if resp.StatusCode == http.StatusUnauthorized {
		return interfaces.ErrUnauthorized
	}
	if resp.StatusCode != http.StatusCreated {
		var errorResp models.ErrorResponse
		if json.Unmarshal(responseBody, &errorResp) == nil &&
			errorResp.Error != "" {
			return fmt.Errorf(
				"purchase rejected (%d): %s",
				resp.StatusCode, errorResp.Error,
			)
		}
		return fmt.Errorf(
			"raffle server returned status %d: %s",
			resp.StatusCode, string(responseBody),
		)
	}

	if r.verbose {
		log.Printf(
			"[REAL] Raffle: Purchase submitted (%d tickets, %s)",
			submission.Quantity, submission.PaymentMethod,
		)
	}
	return nil
}

func (r *RealRaffle) ListPurchases(
	status string, page, perPage int,
) ([]models.PurchaseRecord, int, error) {
	query := url.Values{}
	if status != "" {
		query.Set("status", status)
	}
	query.Set("page", strconv.Itoa(page))
	query.Set("perPage", strconv.Itoa(perPage))

	var records []models.PurchaseRecord
	headers, err := r.doJSON(
		http.MethodGet, "/api/purchases?"+query.Encode(), nil, &records,
	)
	if err != nil {
		return nil, 0, err
	}
	return records, totalCount(headers, len(records)), nil
}

func (r *RealRaffle) UpdatePurchaseStatus(purchaseID, status string) error {
	path := "/api/purchases?id=" + url.QueryEscape(purchaseID)
	_, err := r.doJSON(http.MethodPatch, path, map[string]string{
		"status": status,
	}, nil)
	return err
}

func (r *RealRaffle) Leaderboard(
	page, perPage int,
) ([]models.LeaderboardEntry, int, error) {
	query := url.Values{}
	query.Set("page", strconv.Itoa(page))
	query.Set("perPage", strconv.Itoa(perPage))

	var entries []models.LeaderboardEntry
	headers, err := r.doJSON(
		http.MethodGet,
		"/api/purchases/leaderboard?"+query.Encode(),
		nil,
		&entries,
	)
	if err != nil {
		return nil, 0, err
	}
	return entries, totalCount(headers, len(entries)), nil
}

func (r *RealRaffle) SearchTicket(number int) (*models.SearchResult, error) {
	path := fmt.Sprintf("/api/purchases/search?number=%d", number)
	var result *models.SearchResult
	if _, err := r.doJSON(http.MethodGet, path, nil, &result); err != nil {
		return nil, err
	}
	// A null body means the number is unsold.
	return result, nil
}

// totalCount reads the X-Total-Count pagination header, falling back to
// the page length when the header is absent or malformed.
func totalCount(headers http.Header, fallback int) int {
	total, err := strconv.Atoi(headers.Get("X-Total-Count"))
	if err != nil {
		return fallback
	}
	return total
}
