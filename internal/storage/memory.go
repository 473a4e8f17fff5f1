package storage

import (
	"fmt"
	"log"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/cerjey13/rifa/internal/models"
	"github.com/cerjey13/rifa/internal/ticket"
)

// ticketOwner records who holds a sold number and through which purchase.
type ticketOwner struct {
	userID     string
	purchaseID string
}

// MemoryStorage provides thread-safe in-memory storage for users, prices,
// purchases and the 0-9999 ticket pool.
type MemoryStorage struct {
	mu sync.RWMutex

	users        map[string]*models.User // key: user ID
	usersByEmail map[string]string       // email -> user ID

	purchases     map[string]*models.Purchase // key: purchase ID
	purchaseOrder []string                    // creation order, oldest first

	tickets map[int]ticketOwner // sold numbers only

	prices models.Prices

	userCounter     int
	purchaseCounter int
	verbose         bool
}

// NewMemoryStorage creates a new in-memory storage instance seeded with
// the fallback unit prices.
func NewMemoryStorage(fallback models.Prices, verbose bool) *MemoryStorage {
	return &MemoryStorage{
		users:        make(map[string]*models.User),
		usersByEmail: make(map[string]string),
		purchases:    make(map[string]*models.Purchase),
		tickets:      make(map[int]ticketOwner),
		prices:       fallback,
		verbose:      verbose,
	}
}

// poolSize is the number of sellable tickets.
const poolSize = ticket.NumberMax - ticket.NumberMin + 1

// CreateUser stores a new user, rejecting duplicate emails.
func (ms *MemoryStorage) CreateUser(user *models.User) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	if _, exists := ms.usersByEmail[user.Email]; exists {
		return fmt.Errorf("email already registered")
	}

	ms.userCounter++
	user.ID = fmt.Sprintf("u%06d", ms.userCounter)
	ms.users[user.ID] = user
	ms.usersByEmail[user.Email] = user.ID

	if ms.verbose {
		log.Printf("[STORAGE] Registered user %s (%s)", user.ID, user.Email)
	}
	return nil
}

// UserByEmail looks a user up by email.
func (ms *MemoryStorage) UserByEmail(email string) (*models.User, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	id, ok := ms.usersByEmail[email]
	if !ok {
		return nil, fmt.Errorf("user not found")
	}
	return ms.users[id], nil
}

// UserByID looks a user up by ID.
func (ms *MemoryStorage) UserByID(id string) (*models.User, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	user, ok := ms.users[id]
	if !ok {
		return nil, fmt.Errorf("user not found")
	}
	return user, nil
}

// GetPrices returns the current unit prices.
func (ms *MemoryStorage) GetPrices() models.Prices {
	ms.mu.RLock()
	defer ms.mu.RUnlock()
	return ms.prices
}

// SetPrices replaces the current unit prices.
func (ms *MemoryStorage) SetPrices(prices models.Prices) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.prices = prices

	if ms.verbose {
		log.Printf(
			"[STORAGE] Prices updated: Bs %.2f / USD %.2f",
			prices.MontoBs, prices.MontoUsd,
		)
	}
}

// CreatePurchase stores a purchase and assigns its tickets atomically:
// explicitly chosen numbers first (failing if any is already sold), then
// random numbers for the remainder. Returns the assigned numbers sorted.
func (ms *MemoryStorage) CreatePurchase(
	purchase *models.Purchase,
	selected []int,
) ([]int, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	if len(selected) > purchase.Quantity {
		return nil, fmt.Errorf("more numbers selected than tickets bought")
	}

	for _, number := range selected {
		if _, sold := ms.tickets[number]; sold {
			return nil, fmt.Errorf(
				"ticket number %d is no longer available", number,
			)
		}
	}

	remaining := purchase.Quantity - len(selected)
	if len(ms.tickets)+purchase.Quantity > poolSize {
		return nil, fmt.Errorf("not enough tickets available")
	}

	ms.purchaseCounter++
	purchase.ID = fmt.Sprintf("p%06d", ms.purchaseCounter)
	purchase.Status = models.StatusPending
	purchase.CreatedAt = time.Now()

	assigned := make([]int, 0, purchase.Quantity)
	owner := ticketOwner{userID: purchase.UserID, purchaseID: purchase.ID}
	for _, number := range selected {
		ms.tickets[number] = owner
		assigned = append(assigned, number)
	}
	for _, number := range ms.randomAvailable(remaining) {
		ms.tickets[number] = owner
		assigned = append(assigned, number)
	}

	sort.Ints(assigned)
	purchase.Numbers = assigned
	ms.purchases[purchase.ID] = purchase
	ms.purchaseOrder = append(ms.purchaseOrder, purchase.ID)

	if ms.verbose {
		log.Printf(
			"[STORAGE] Stored purchase %s (%d tickets, %d chosen)",
			purchase.ID, purchase.Quantity, len(selected),
		)
	}
	return assigned, nil
}

// randomAvailable picks n random unsold numbers. Caller holds the lock
// and has verified that n numbers are available.
func (ms *MemoryStorage) randomAvailable(n int) []int {
	if n <= 0 {
		return nil
	}
	available := make([]int, 0, poolSize-len(ms.tickets))
	for number := ticket.NumberMin; number <= ticket.NumberMax; number++ {
		if _, sold := ms.tickets[number]; !sold {
			available = append(available, number)
		}
	}
	rand.Shuffle(len(available), func(i, j int) {
		available[i], available[j] = available[j], available[i]
	})
	return available[:n]
}

// UnavailableNumbers returns the subset of the queried numbers that is
// already sold.
func (ms *MemoryStorage) UnavailableNumbers(numbers []int) []int {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	unavailable := []int{}
	for _, number := range numbers {
		if _, sold := ms.tickets[number]; sold {
			unavailable = append(unavailable, number)
		}
	}
	return unavailable
}

// PercentSold returns the percentage of the pool already sold.
func (ms *MemoryStorage) PercentSold() float64 {
	ms.mu.RLock()
	defer ms.mu.RUnlock()
	return float64(len(ms.tickets)) / float64(poolSize) * 100
}

// ListPurchases returns one page of purchases, newest first, optionally
// filtered by status, plus the total count before pagination.
func (ms *MemoryStorage) ListPurchases(
	status string,
	page, perPage int,
) ([]models.PurchaseRecord, int) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	filtered := make([]*models.Purchase, 0, len(ms.purchaseOrder))
	// Reverse creation order: newest first.
	for i := len(ms.purchaseOrder) - 1; i >= 0; i-- {
		p := ms.purchases[ms.purchaseOrder[i]]
		if status != "" && string(p.Status) != status {
			continue
		}
		filtered = append(filtered, p)
	}

	total := len(filtered)
	start, end := pageBounds(total, page, perPage)

	records := make([]models.PurchaseRecord, 0, end-start)
	for _, p := range filtered[start:end] {
		records = append(records, models.PurchaseRecord{
			Purchase: *p,
			User:     ms.userSummary(p.UserID),
		})
	}
	return records, total
}

// UpdateStatus changes a purchase's review status.
func (ms *MemoryStorage) UpdateStatus(purchaseID, status string) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	purchase, ok := ms.purchases[purchaseID]
	if !ok {
		return fmt.Errorf("purchase not found")
	}
	if !models.ValidStatus(status) {
		return fmt.Errorf("unknown status %q", status)
	}
	purchase.Status = models.PurchaseStatus(status)

	if ms.verbose {
		log.Printf("[STORAGE] Purchase %s -> %s", purchaseID, status)
	}
	return nil
}

// Leaderboard returns one page of buyers ranked by ticket count, plus
// the total number of ranked buyers.
func (ms *MemoryStorage) Leaderboard(
	page, perPage int,
) ([]models.LeaderboardEntry, int) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	counts := make(map[string]int)
	for _, owner := range ms.tickets {
		counts[owner.userID]++
	}

	entries := make([]models.LeaderboardEntry, 0, len(counts))
	for userID, count := range counts {
		entries = append(entries, models.LeaderboardEntry{
			User:        ms.userSummary(userID),
			TicketCount: count,
		})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].TicketCount != entries[j].TicketCount {
			return entries[i].TicketCount > entries[j].TicketCount
		}
		return entries[i].User.ID < entries[j].User.ID
	})

	total := len(entries)
	start, end := pageBounds(total, page, perPage)
	return entries[start:end], total
}

// SearchByTicket finds the buyer holding a number together with all of
// their numbers. Returns nil when the number is unsold.
func (ms *MemoryStorage) SearchByTicket(number int) *models.SearchResult {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	owner, sold := ms.tickets[number]
	if !sold {
		return nil
	}
	return &models.SearchResult{
		User:    ms.userSummary(owner.userID),
		Tickets: ms.ticketsOf(owner.userID),
	}
}

// UserTickets returns every number a user holds, ascending.
func (ms *MemoryStorage) UserTickets(userID string) []int {
	ms.mu.RLock()
	defer ms.mu.RUnlock()
	return ms.ticketsOf(userID)
}

// ticketsOf collects a user's numbers. Caller holds the lock.
func (ms *MemoryStorage) ticketsOf(userID string) []int {
	numbers := []int{}
	for number, owner := range ms.tickets {
		if owner.userID == userID {
			numbers = append(numbers, number)
		}
	}
	sort.Ints(numbers)
	return numbers
}

// userSummary resolves a user ID into the admin-facing summary. Caller
// holds the lock.
func (ms *MemoryStorage) userSummary(userID string) models.UserSummary {
	user, ok := ms.users[userID]
	if !ok {
		return models.UserSummary{ID: userID}
	}
	return models.UserSummary{
		ID:    user.ID,
		Name:  user.Name,
		Email: user.Email,
		Phone: user.Phone,
	}
}

// pageBounds converts 1-based page/perPage into slice bounds, with the
// same defaults the original API used (page 1, 10 per page).
func pageBounds(total, page, perPage int) (int, int) {
	if perPage <= 0 {
		perPage = 10
	}
	if page <= 0 {
		page = 1
	}
	start := (page - 1) * perPage
	if start > total {
		start = total
	}
	end := start + perPage
	if end > total {
		end = total
	}
	return start, end
}
