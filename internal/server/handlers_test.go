package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/cerjey13/rifa/internal/auth"
	"github.com/cerjey13/rifa/internal/models"
	"github.com/cerjey13/rifa/internal/notify"
	"github.com/cerjey13/rifa/internal/storage"
)

type testEnv struct {
	server  *Server
	storage *storage.MemoryStorage
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := storage.NewMemoryStorage(
		models.Prices{MontoBs: 100, MontoUsd: 10},
		false,
	)
	sessions, err := auth.NewSessions("test-secret", false)
	if err != nil {
		t.Fatalf("NewSessions: %v", err)
	}
	notifier := notify.NewClient("", time.Second, 0, false)

	srv := NewServer(store, sessions, notifier, Options{
		MinQuantity: 2,
		MaxQuantity: 500,
	})
	return &testEnv{server: srv, storage: store}
}

func (e *testEnv) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	e.server.Handler().ServeHTTP(w, req)
	return w
}

func (e *testEnv) jsonRequest(
	method, path string,
	body any,
	cookie *http.Cookie,
) *http.Request {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if cookie != nil {
		req.AddCookie(cookie)
	}
	return req
}

// registerAndLogin creates a user through the API and returns its session
// cookie.
func (e *testEnv) registerAndLogin(t *testing.T, email string) *http.Cookie {
	t.Helper()
	w := e.do(e.jsonRequest(http.MethodPost, "/api/register", models.RegisterRequest{
		Name:     "Buyer",
		Email:    email,
		Phone:    "04141551801",
		Password: "supersecret",
	}, nil))
	if w.Code != http.StatusCreated {
		t.Fatalf("register: got %d (%s)", w.Code, w.Body.String())
	}
	return e.login(t, email, "supersecret")
}

func (e *testEnv) login(t *testing.T, email, password string) *http.Cookie {
	t.Helper()
	w := e.do(e.jsonRequest(http.MethodPost, "/api/login", models.LoginRequest{
		Email:    email,
		Password: password,
	}, nil))
	if w.Code != http.StatusOK {
		t.Fatalf("login: got %d (%s)", w.Code, w.Body.String())
	}
	for _, cookie := range w.Result().Cookies() {
		if cookie.Name == auth.SessionCookie {
			return cookie
		}
	}
	t.Fatal("login response carried no session cookie")
	return nil
}

// adminCookie seeds an admin user directly in storage and logs in.
func (e *testEnv) adminCookie(t *testing.T) *http.Cookie {
	t.Helper()
	hashed, err := auth.HashPassword("adminpassword")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	admin := &models.User{
		Name:     "Admin",
		Email:    "admin@example.com",
		Phone:    "04140000000",
		Role:     models.RoleAdmin,
		Password: hashed,
	}
	if err := e.storage.CreateUser(admin); err != nil {
		t.Fatalf("CreateUser(admin): %v", err)
	}
	return e.login(t, "admin@example.com", "adminpassword")
}

// purchaseRequest builds the multipart submission the wizard sends.
func purchaseRequest(
	t *testing.T,
	cookie *http.Cookie,
	quantity int,
	numbers string,
	screenshotSize int,
) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fields := map[string]string{
		"quantity":          fmt.Sprint(quantity),
		"montoBs":           "200.00",
		"montoUSD":          "20.00",
		"paymentMethod":     models.PaymentZelle,
		"transactionDigits": "123456",
		"selectedNumbers":   numbers,
	}
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatalf("WriteField(%s): %v", k, err)
		}
	}
	fw, err := mw.CreateFormFile("paymentScreenshot", "proof.png")
	if err != nil {
		t.Fatalf("CreateFormFile: %v", err)
	}
	fw.Write(bytes.Repeat([]byte{0xAB}, screenshotSize))
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/purchases", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if cookie != nil {
		req.AddCookie(cookie)
	}
	return req
}

func TestPurchaseRequiresSession(t *testing.T) {
	env := newTestEnv(t)
	w := env.do(purchaseRequest(t, nil, 2, "", 128))
	if w.Code != http.StatusUnauthorized {
		t.Errorf("got %d", w.Code)
	}
}

func TestPurchaseHappyPath(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.registerAndLogin(t, "buyer@example.com")

	w := env.do(purchaseRequest(t, cookie, 2, "7,1234", 128))
	if w.Code != http.StatusCreated {
		t.Fatalf("got %d (%s)", w.Code, w.Body.String())
	}

	// Both chosen numbers must now be reported unavailable.
	req := httptest.NewRequest(
		http.MethodGet, "/api/tickets?numbers=7,1234,42", nil,
	)
	req.AddCookie(cookie)
	w = env.do(req)
	if w.Code != http.StatusOK {
		t.Fatalf("tickets check: got %d", w.Code)
	}
	var resp models.TicketsResponse
	json.Unmarshal(w.Body.Bytes(), &resp)
	if len(resp.Tickets) != 2 {
		t.Errorf("unavailable subset: %v", resp.Tickets)
	}
}

func TestPurchaseRejectsOversizeScreenshot(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.registerAndLogin(t, "buyer@example.com")

	w := env.do(purchaseRequest(
		t, cookie, 2, "", models.MaxScreenshotBytes+1,
	))
	if w.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("got %d", w.Code)
	}
}

func TestPurchaseConflictOnTakenNumber(t *testing.T) {
	env := newTestEnv(t)
	first := env.registerAndLogin(t, "first@example.com")
	second := env.registerAndLogin(t, "second@example.com")

	if w := env.do(purchaseRequest(t, first, 2, "7,8", 64)); w.Code != http.StatusCreated {
		t.Fatalf("first purchase: got %d", w.Code)
	}
	w := env.do(purchaseRequest(t, second, 2, "8", 64))
	if w.Code != http.StatusConflict {
		t.Errorf("got %d (%s)", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), "no longer available") {
		t.Errorf("body: %s", w.Body.String())
	}
}

func TestPurchaseValidation(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.registerAndLogin(t, "buyer@example.com")

	// Quantity below the floor.
	if w := env.do(purchaseRequest(t, cookie, 1, "", 64)); w.Code != http.StatusBadRequest {
		t.Errorf("quantity 1: got %d", w.Code)
	}
	// Malformed numbers.
	if w := env.do(purchaseRequest(t, cookie, 2, "abc", 64)); w.Code != http.StatusBadRequest {
		t.Errorf("bad numbers: got %d", w.Code)
	}
}

func TestPercentageEndpoint(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.registerAndLogin(t, "buyer@example.com")
	if w := env.do(purchaseRequest(t, cookie, 100, "", 64)); w.Code != http.StatusCreated {
		t.Fatalf("purchase: got %d", w.Code)
	}

	w := env.do(httptest.NewRequest(
		http.MethodGet, "/api/tickets/percentage", nil,
	))
	if w.Code != http.StatusOK {
		t.Fatalf("got %d", w.Code)
	}
	var resp models.PercentageResponse
	json.Unmarshal(w.Body.Bytes(), &resp)
	if math.Abs(resp.Vendidos-1) > 1e-9 {
		t.Errorf("vendidos: got %v", resp.Vendidos)
	}
}

func TestUserTicketsEndpoint(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.registerAndLogin(t, "buyer@example.com")
	env.do(purchaseRequest(t, cookie, 2, "10,20", 64))

	req := httptest.NewRequest(http.MethodGet, "/api/tickets/users", nil)
	req.AddCookie(cookie)
	w := env.do(req)
	if w.Code != http.StatusOK {
		t.Fatalf("got %d", w.Code)
	}
	var resp models.UserTicketsResponse
	json.Unmarshal(w.Body.Bytes(), &resp)
	if len(resp.Tickets) != 2 {
		t.Errorf("tickets: %v", resp.Tickets)
	}
}

func TestAdminListPurchases(t *testing.T) {
	env := newTestEnv(t)
	buyer := env.registerAndLogin(t, "buyer@example.com")
	env.do(purchaseRequest(t, buyer, 2, "", 64))
	env.do(purchaseRequest(t, buyer, 3, "", 64))

	// Buyers must not see the admin listing.
	req := httptest.NewRequest(http.MethodGet, "/api/purchases", nil)
	req.AddCookie(buyer)
	if w := env.do(req); w.Code != http.StatusForbidden {
		t.Errorf("buyer listing: got %d", w.Code)
	}

	admin := env.adminCookie(t)
	req = httptest.NewRequest(
		http.MethodGet, "/api/purchases?page=1&perPage=1", nil,
	)
	req.AddCookie(admin)
	w := env.do(req)
	if w.Code != http.StatusOK {
		t.Fatalf("admin listing: got %d", w.Code)
	}
	if got := w.Header().Get("X-Total-Count"); got != "2" {
		t.Errorf("X-Total-Count: got %q", got)
	}
	var records []models.PurchaseRecord
	json.Unmarshal(w.Body.Bytes(), &records)
	if len(records) != 1 || records[0].Quantity != 3 {
		t.Errorf("page content: %+v", records)
	}
}

func TestAdminUpdatePurchaseStatus(t *testing.T) {
	env := newTestEnv(t)
	buyer := env.registerAndLogin(t, "buyer@example.com")
	env.do(purchaseRequest(t, buyer, 2, "", 64))
	admin := env.adminCookie(t)

	records, _ := env.storage.ListPurchases("", 1, 1)
	id := records[0].ID

	w := env.do(env.jsonRequest(
		http.MethodPatch,
		"/api/purchases?id="+id,
		map[string]string{"status": "verified"},
		admin,
	))
	if w.Code != http.StatusNoContent {
		t.Fatalf("got %d (%s)", w.Code, w.Body.String())
	}

	records, _ = env.storage.ListPurchases("verified", 1, 1)
	if len(records) != 1 {
		t.Error("status update not persisted")
	}

	w = env.do(env.jsonRequest(
		http.MethodPatch,
		"/api/purchases?id=missing",
		map[string]string{"status": "verified"},
		admin,
	))
	if w.Code != http.StatusBadRequest {
		t.Errorf("missing id: got %d", w.Code)
	}
}

func TestAdminLeaderboard(t *testing.T) {
	env := newTestEnv(t)
	buyer := env.registerAndLogin(t, "buyer@example.com")
	env.do(purchaseRequest(t, buyer, 5, "", 64))
	admin := env.adminCookie(t)

	req := httptest.NewRequest(
		http.MethodGet, "/api/purchases/leaderboard?page=1&perPage=10", nil,
	)
	req.AddCookie(admin)
	w := env.do(req)
	if w.Code != http.StatusOK {
		t.Fatalf("got %d", w.Code)
	}
	if got := w.Header().Get("X-Total-Count"); got != "1" {
		t.Errorf("X-Total-Count: got %q", got)
	}
	var entries []models.LeaderboardEntry
	json.Unmarshal(w.Body.Bytes(), &entries)
	if len(entries) != 1 || entries[0].TicketCount != 5 {
		t.Errorf("entries: %+v", entries)
	}
}

func TestAdminSearch(t *testing.T) {
	env := newTestEnv(t)
	buyer := env.registerAndLogin(t, "buyer@example.com")
	env.do(purchaseRequest(t, buyer, 2, "77", 64))
	admin := env.adminCookie(t)

	req := httptest.NewRequest(
		http.MethodGet, "/api/purchases/search?number=77", nil,
	)
	req.AddCookie(admin)
	w := env.do(req)
	if w.Code != http.StatusOK {
		t.Fatalf("got %d", w.Code)
	}
	var result models.SearchResult
	if err := json.Unmarshal(w.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if result.User.Email != "buyer@example.com" {
		t.Errorf("owner: %+v", result.User)
	}

	// Unsold numbers come back as a JSON null body.
	free := -1
	for n := 0; n <= 9999; n++ {
		if len(env.storage.UnavailableNumbers([]int{n})) == 0 {
			free = n
			break
		}
	}
	req = httptest.NewRequest(
		http.MethodGet,
		fmt.Sprintf("/api/purchases/search?number=%d", free),
		nil,
	)
	req.AddCookie(admin)
	w = env.do(req)
	if strings.TrimSpace(w.Body.String()) != "null" {
		t.Errorf("unsold search body: %q", w.Body.String())
	}
}

func TestPricesEndpoints(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(httptest.NewRequest(http.MethodGet, "/api/prices", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("get prices: got %d", w.Code)
	}
	var prices models.Prices
	json.Unmarshal(w.Body.Bytes(), &prices)
	if prices.MontoBs != 100 || prices.MontoUsd != 10 {
		t.Errorf("fallback prices: %+v", prices)
	}

	admin := env.adminCookie(t)
	w = env.do(env.jsonRequest(
		http.MethodPatch,
		"/api/prices",
		models.Prices{MontoBs: 120, MontoUsd: 12},
		admin,
	))
	if w.Code != http.StatusOK {
		t.Fatalf("patch prices: got %d", w.Code)
	}
	if got := env.storage.GetPrices(); got.MontoBs != 120 {
		t.Errorf("prices not updated: %+v", got)
	}

	// Price editing is admin only.
	buyer := env.registerAndLogin(t, "buyer@example.com")
	w = env.do(env.jsonRequest(
		http.MethodPatch,
		"/api/prices",
		models.Prices{MontoBs: 1, MontoUsd: 1},
		buyer,
	))
	if w.Code != http.StatusForbidden {
		t.Errorf("buyer patch prices: got %d", w.Code)
	}
}

func TestMeAndLogout(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.registerAndLogin(t, "buyer@example.com")

	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	req.AddCookie(cookie)
	w := env.do(req)
	if w.Code != http.StatusOK {
		t.Fatalf("me: got %d", w.Code)
	}
	var user models.User
	json.Unmarshal(w.Body.Bytes(), &user)
	if user.Email != "buyer@example.com" {
		t.Errorf("me body: %+v", user)
	}

	w = env.do(env.jsonRequest(http.MethodPost, "/api/logout", nil, cookie))
	if w.Code != http.StatusOK {
		t.Fatalf("logout: got %d", w.Code)
	}
	cleared := false
	for _, c := range w.Result().Cookies() {
		if c.Name == auth.SessionCookie && c.MaxAge < 0 {
			cleared = true
		}
	}
	if !cleared {
		t.Error("logout did not clear the session cookie")
	}

	// Anonymous /api/me is the distinguished 401.
	w = env.do(httptest.NewRequest(http.MethodGet, "/api/me", nil))
	if w.Code != http.StatusUnauthorized {
		t.Errorf("anonymous me: got %d", w.Code)
	}
}
