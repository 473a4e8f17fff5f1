package server

import (
	"io"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/cerjey13/rifa/internal/auth"
	"github.com/cerjey13/rifa/internal/models"
	"github.com/cerjey13/rifa/internal/ticket"
)

// handleRegister handles POST /api/register.
func (s *Server) handleRegister(c *gin.Context) {
	var req models.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(
			http.StatusBadRequest,
			models.ErrorResponse{Error: "Invalid request format"},
		)
		return
	}
	if err := req.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
		return
	}

	hashed, err := auth.HashPassword(req.Password)
	if err != nil {
		c.JSON(
			http.StatusInternalServerError,
			models.ErrorResponse{Error: "Registration failed"},
		)
		return
	}

	user := &models.User{
		Name:     req.Name,
		Email:    req.Email,
		Phone:    req.Phone,
		Role:     "user",
		Password: hashed,
	}
	if err := s.storage.CreateUser(user); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "Registration successful"})
}

// handleLogin handles POST /api/login and sets the session cookie.
func (s *Server) handleLogin(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(
			http.StatusBadRequest,
			models.ErrorResponse{Error: "Invalid request format"},
		)
		return
	}

	user, err := s.storage.UserByEmail(req.Email)
	if err != nil || !auth.CheckPassword(user.Password, req.Password) {
		c.JSON(
			http.StatusBadRequest,
			models.ErrorResponse{Error: "Invalid credentials"},
		)
		return
	}

	token, err := s.sessions.GenerateToken(user)
	if err != nil {
		c.JSON(
			http.StatusInternalServerError,
			models.ErrorResponse{Error: "Failed to create session"},
		)
		return
	}
	s.sessions.SetCookie(c, token)

	c.JSON(http.StatusOK, models.UserSummary{
		ID:    user.ID,
		Name:  user.Name,
		Email: user.Email,
		Phone: user.Phone,
	})
}

// handleMe handles GET /api/me.
func (s *Server) handleMe(c *gin.Context) {
	userID, err := auth.UserID(c)
	if err != nil {
		c.JSON(
			http.StatusUnauthorized,
			models.ErrorResponse{Error: "not authenticated"},
		)
		return
	}
	user, err := s.storage.UserByID(userID)
	if err != nil {
		c.JSON(
			http.StatusUnauthorized,
			models.ErrorResponse{Error: "not authenticated"},
		)
		return
	}
	c.JSON(http.StatusOK, user)
}

// handleLogout handles POST /api/logout.
func (s *Server) handleLogout(c *gin.Context) {
	s.sessions.ClearCookie(c)
	c.Status(http.StatusOK)
}

// handleGetPrices handles GET /api/prices.
func (s *Server) handleGetPrices(c *gin.Context) {
	c.JSON(http.StatusOK, s.storage.GetPrices())
}

// handleUpdatePrices handles PATCH /api/prices (admin only).
func (s *Server) handleUpdatePrices(c *gin.Context) {
	var prices models.Prices
	if err := c.ShouldBindJSON(&prices); err != nil {
		c.JSON(
			http.StatusBadRequest,
			models.ErrorResponse{Error: "Invalid request format"},
		)
		return
	}
	if prices.MontoBs < 0 || prices.MontoUsd < 0 {
		c.JSON(
			http.StatusBadRequest,
			models.ErrorResponse{Error: "prices must be non-negative"},
		)
		return
	}
	s.storage.SetPrices(prices)
	c.JSON(http.StatusOK, s.storage.GetPrices())
}

// handleCheckTickets handles GET /api/tickets?numbers=a,b,c and returns
// the subset that is already taken.
func (s *Server) handleCheckTickets(c *gin.Context) {
	numbers, err := ticket.ToIntSlice(
		ticket.SplitNumbers(c.Query("numbers")),
	)
	if err != nil {
		c.JSON(
			http.StatusBadRequest,
			models.ErrorResponse{Error: "Numeros mal formateados"},
		)
		return
	}

	unavailable := s.storage.UnavailableNumbers(numbers)
	c.JSON(http.StatusOK, models.TicketsResponse{
		Tickets: ticket.ToStrSlice(unavailable),
	})
}

// handlePercentage handles GET /api/tickets/percentage.
func (s *Server) handlePercentage(c *gin.Context) {
	c.JSON(http.StatusOK, models.PercentageResponse{
		Vendidos: s.storage.PercentSold(),
	})
}

// handleUserTickets handles GET /api/tickets/users: the caller's own
// purchased numbers.
func (s *Server) handleUserTickets(c *gin.Context) {
	userID, err := auth.UserID(c)
	if err != nil {
		c.JSON(
			http.StatusUnauthorized,
			models.ErrorResponse{Error: "not authenticated"},
		)
		return
	}
	c.JSON(http.StatusOK, models.UserTicketsResponse{
		Tickets: ticket.ToStrSlice(s.storage.UserTickets(userID)),
	})
}

// handleCreatePurchase handles the multipart POST /api/purchases.
func (s *Server) handleCreatePurchase(c *gin.Context) {
	userID, err := auth.UserID(c)
	if err != nil {
		c.JSON(
			http.StatusUnauthorized,
			models.ErrorResponse{Error: "No session claims"},
		)
		return
	}

	quantity, err := strconv.Atoi(c.PostForm("quantity"))
	if err != nil || quantity < s.minQuantity || quantity > s.maxQuantity {
		c.JSON(
			http.StatusBadRequest,
			models.ErrorResponse{Error: "Invalid quantity"},
		)
		return
	}

	paymentMethod := c.PostForm("paymentMethod")
	if !models.ValidPaymentMethod(paymentMethod) {
		c.JSON(
			http.StatusBadRequest,
			models.ErrorResponse{Error: "Unknown payment method"},
		)
		return
	}

	transactionDigits := c.PostForm("transactionDigits")
	if !models.ValidTransactionDigits(transactionDigits) {
		c.JSON(
			http.StatusBadRequest,
			models.ErrorResponse{
				Error: "Transaction reference must be 6 digits",
			},
		)
		return
	}

	selected, err := ticket.ToIntSlice(
		ticket.SplitNumbers(c.PostForm("selectedNumbers")),
	)
	if err != nil {
		c.JSON(
			http.StatusBadRequest,
			models.ErrorResponse{Error: "Numeros mal formateados"},
		)
		return
	}

	fileHeader, err := c.FormFile("paymentScreenshot")
	if err != nil {
		c.JSON(
			http.StatusBadRequest,
			models.ErrorResponse{Error: "Payment screenshot is required"},
		)
		return
	}
	if fileHeader.Size > models.MaxScreenshotBytes {
		c.JSON(
			http.StatusRequestEntityTooLarge,
			models.ErrorResponse{Error: "image exceeds 3MB limit"},
		)
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(
			http.StatusBadRequest,
			models.ErrorResponse{Error: "Could not read uploaded file"},
		)
		return
	}
	defer file.Close()

	// Read guard in case the reported size is missing or wrong.
	screenshot, err := io.ReadAll(
		io.LimitReader(file, models.MaxScreenshotBytes+1),
	)
	if err != nil {
		c.JSON(
			http.StatusBadRequest,
			models.ErrorResponse{Error: "Could not read uploaded file"},
		)
		return
	}
	if len(screenshot) > models.MaxScreenshotBytes {
		c.JSON(
			http.StatusRequestEntityTooLarge,
			models.ErrorResponse{Error: "image exceeds 3MB limit"},
		)
		return
	}

	purchase := &models.Purchase{
		UserID:            userID,
		Quantity:          quantity,
		MontoBs:           c.PostForm("montoBs"),
		MontoUSD:          c.PostForm("montoUSD"),
		PaymentMethod:     paymentMethod,
		TransactionDigits: transactionDigits,
		PaymentScreenshot: screenshot,
	}
	if _, err := s.storage.CreatePurchase(purchase, selected); err != nil {
		c.JSON(
			http.StatusConflict,
			models.ErrorResponse{Error: err.Error()},
		)
		return
	}

	if s.notifier.Enabled() {
		email := ""
		if user, err := s.storage.UserByID(userID); err == nil {
			email = user.Email
		}
		go func() {
			if err := s.notifier.NotifyPurchase(purchase, email); err != nil {
				log.Printf("[SERVER] %v", err)
			}
		}()
	}

	c.JSON(http.StatusCreated, gin.H{"message": "success"})
}

// handleListPurchases handles GET /api/purchases (admin only). The total
// row count travels in the X-Total-Count header.
func (s *Server) handleListPurchases(c *gin.Context) {
	page, _ := strconv.Atoi(c.Query("page"))
	perPage, _ := strconv.Atoi(c.Query("perPage"))
	status := c.Query("status")
	if status != "" && !models.ValidStatus(status) {
		c.JSON(
			http.StatusBadRequest,
			models.ErrorResponse{Error: "Unknown status filter"},
		)
		return
	}

	records, total := s.storage.ListPurchases(status, page, perPage)
	c.Header("X-Total-Count", strconv.Itoa(total))
	c.JSON(http.StatusOK, records)
}

// handleUpdatePurchase handles PATCH /api/purchases?id= (admin only).
func (s *Server) handleUpdatePurchase(c *gin.Context) {
	id := c.Query("id")
	if id == "" {
		c.JSON(
			http.StatusBadRequest,
			models.ErrorResponse{Error: "id is required"},
		)
		return
	}

	var body struct {
		Status string `json:"status"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(
			http.StatusBadRequest,
			models.ErrorResponse{Error: "Invalid request format"},
		)
		return
	}

	if err := s.storage.UpdateStatus(id, body.Status); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

// handleLeaderboard handles GET /api/purchases/leaderboard (admin only).
func (s *Server) handleLeaderboard(c *gin.Context) {
	page, _ := strconv.Atoi(c.Query("page"))
	perPage, _ := strconv.Atoi(c.Query("perPage"))

	entries, total := s.storage.Leaderboard(page, perPage)
	c.Header("X-Total-Count", strconv.Itoa(total))
	c.JSON(http.StatusOK, entries)
}

// handleSearchPurchase handles GET /api/purchases/search?number=
// (admin only). Returns null when the number is unsold.
func (s *Server) handleSearchPurchase(c *gin.Context) {
	number, err := strconv.Atoi(c.Query("number"))
	if err != nil || number < ticket.NumberMin || number > ticket.NumberMax {
		c.JSON(
			http.StatusBadRequest,
			models.ErrorResponse{Error: "Invalid ticket number"},
		)
		return
	}

	result := s.storage.SearchByTicket(number)
	if result == nil {
		c.JSON(http.StatusOK, nil)
		return
	}
	c.JSON(http.StatusOK, result)
}
