package wizard

import (
	"strings"

	"github.com/cerjey13/rifa/internal/models"
	"github.com/cerjey13/rifa/internal/ticket"
)

// Step is the wizard's current page.
type Step int

const (
	StepQuantity Step = iota // quantity + optional number picks
	StepPayment              // channel selection + instructions
	StepSubmit               // reference digits + proof upload
)

// Wizard is the purchase flow state machine, free of any rendering. The
// UI layer calls mutators on key presses, runs the returned availability
// and submission work asynchronously, and feeds results back in.
type Wizard struct {
	minQuantity int
	maxQuantity int
	prices      models.Prices

	visible bool
	step    Step

	quantity   int
	slots      []string
	slotErrors []string

	generalError string
	checking     bool
	// generation invalidates in-flight availability checks whenever the
	// inputs change under them.
	generation int

	paymentMethod string

	transactionDigits string
	screenshot        []byte
	screenshotName    string
	submitError       string
	submitting        bool
}

// New creates a wizard with quantity pinned to the purchase floor.
func New(minQuantity, maxQuantity int, prices models.Prices) *Wizard {
	w := &Wizard{
		minQuantity: minQuantity,
		maxQuantity: maxQuantity,
		prices:      prices,
		quantity:    minQuantity,
	}
	w.slots = ticket.ResizeSlots(nil, w.quantity)
	w.slotErrors = make([]string, w.quantity)
	return w
}

// SetPrices refreshes the unit prices used for the quote.
func (w *Wizard) SetPrices(prices models.Prices) {
	w.prices = prices
}

// Open shows the wizard. State from a previous run is kept.
func (w *Wizard) Open() {
	w.visible = true
}

// Close hides the wizard and resets the step and payment selection.
// Quantity and picked numbers survive so reopening continues where the
// buyer left off.
func (w *Wizard) Close() {
	w.visible = false
	w.step = StepQuantity
	w.paymentMethod = ""
	w.transactionDigits = ""
	w.screenshot = nil
	w.screenshotName = ""
	w.submitError = ""
	w.generalError = ""
	w.submitting = false
	w.checking = false
	w.generation++
	w.clearSlotErrors()
}

func (w *Wizard) Visible() bool { return w.visible }
func (w *Wizard) Step() Step    { return w.step }

// Increment raises the quantity by one, clamped to the purchase ceiling,
// and grows the slot list to match.
func (w *Wizard) Increment() { w.setQuantity(w.quantity + 1) }

// Decrement lowers the quantity by one, clamped to the purchase floor,
// truncating surplus slots from the tail.
func (w *Wizard) Decrement() { w.setQuantity(w.quantity - 1) }

func (w *Wizard) setQuantity(q int) {
	w.quantity = ticket.Clamp(q, w.minQuantity, w.maxQuantity)
	w.slots = ticket.ResizeSlots(w.slots, w.quantity)
	w.slotErrors = make([]string, w.quantity)
	w.generalError = ""
	w.invalidateCheck()
}

func (w *Wizard) Quantity() int { return w.quantity }

// SetSlot stores raw input into slot i after sanitizing it to at most
// four digits with no leading zeros.
func (w *Wizard) SetSlot(i int, raw string) {
	if i < 0 || i >= len(w.slots) {
		return
	}
	w.slots[i] = ticket.SanitizeSlot(raw)
	w.slotErrors[i] = ""
	w.generalError = ""
	w.invalidateCheck()
}

// Slots returns the slot values, one per ticket.
func (w *Wizard) Slots() []string { return w.slots }

// SlotError returns the validation message for slot i, "" when clean.
func (w *Wizard) SlotError(i int) string {
	if i < 0 || i >= len(w.slotErrors) {
		return ""
	}
	return w.slotErrors[i]
}

// GeneralError is the step-level failure message (availability check
// errors), "" when none.
func (w *Wizard) GeneralError() string { return w.generalError }

// Checking reports whether an availability check is in flight.
func (w *Wizard) Checking() bool { return w.checking }

// AmountBs is the running quote in bolivares, two decimals.
func (w *Wizard) AmountBs() string {
	return ticket.FormatAmount(w.quantity, w.prices.MontoBs)
}

// AmountUsd is the running quote in dollars, two decimals.
func (w *Wizard) AmountUsd() string {
	return ticket.FormatAmount(w.quantity, w.prices.MontoUsd)
}

// NextFromQuantity validates the slots and decides how to advance. When
// every slot is empty there is nothing to check and the wizard moves on
// immediately. Otherwise the caller must run the availability check for
// the returned numbers and feed the outcome to ApplyAvailability with
// the same token.
func (w *Wizard) NextFromQuantity() (token int, numbers []string, check bool) {
	if w.step != StepQuantity || w.checking {
		return 0, nil, false
	}

	w.slotErrors = ticket.ValidateSlots(w.slots)
	for _, e := range w.slotErrors {
		if e != "" {
			return 0, nil, false
		}
	}

	numbers = ticket.SelectedNumbers(w.slots)
	if len(numbers) == 0 {
		w.step = StepPayment
		return 0, nil, false
	}

	w.generation++
	w.checking = true
	w.generalError = ""
	return w.generation, numbers, true
}

// ApplyAvailability feeds the availability result back in. Stale results
// (token mismatch after the inputs changed) are dropped. Taken numbers
// mark their slots "not available" and block the advance; a check error
// becomes the general error.
func (w *Wizard) ApplyAvailability(token int, taken []string, err error) {
	if token != w.generation || !w.checking {
		return
	}
	w.checking = false

	if err != nil {
		w.generalError = err.Error()
		return
	}
	if len(taken) > 0 {
		takenSet := make(map[string]bool, len(taken))
		for _, n := range taken {
			takenSet[n] = true
		}
		for i, slot := range w.slots {
			if slot != "" && takenSet[slot] {
				w.slotErrors[i] = ticket.ErrTaken
			}
		}
		return
	}
	w.step = StepPayment
}

// invalidateCheck discards any in-flight availability result.
func (w *Wizard) invalidateCheck() {
	w.generation++
	w.checking = false
}

// TogglePayment selects a channel, or deselects it when it is already
// the current choice.
func (w *Wizard) TogglePayment(method string) {
	if !models.ValidPaymentMethod(method) {
		return
	}
	if w.paymentMethod == method {
		w.paymentMethod = ""
		return
	}
	w.paymentMethod = method
}

func (w *Wizard) PaymentMethod() string { return w.paymentMethod }

// NextFromPayment advances to the submit step. A channel must be
// selected.
func (w *Wizard) NextFromPayment() bool {
	if w.step != StepPayment || w.paymentMethod == "" {
		return false
	}
	w.step = StepSubmit
	return true
}

// Back steps one page backwards. No-op on the first step or while a
// submission is in flight.
func (w *Wizard) Back() {
	if w.submitting || w.step == StepQuantity {
		return
	}
	w.step--
	w.generalError = ""
	w.submitError = ""
}

// SetTransactionRef stores the payment reference, keeping only digits
// and truncating to six.
func (w *Wizard) SetTransactionRef(raw string) {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if len(digits) > 6 {
		digits = digits[:6]
	}
	w.transactionDigits = digits
}

func (w *Wizard) TransactionRef() string { return w.transactionDigits }

// AttachScreenshot stores the proof file. Files over the cap are
// rejected on the spot and never retained.
func (w *Wizard) AttachScreenshot(name string, data []byte) bool {
	if len(data) > models.MaxScreenshotBytes {
		w.submitError = "payment screenshot exceeds 3MB limit"
		return false
	}
	w.screenshot = data
	w.screenshotName = name
	w.submitError = ""
	return true
}

func (w *Wizard) ScreenshotName() string { return w.screenshotName }

// SubmitError is the submission failure message, "" when none.
func (w *Wizard) SubmitError() string { return w.submitError }

// Submitting reports whether a submission is in flight.
func (w *Wizard) Submitting() bool { return w.submitting }

// CanSubmit reports whether the submit control is enabled: a complete
// reference, an attached proof and no submission already running.
func (w *Wizard) CanSubmit() bool {
	return w.step == StepSubmit &&
		!w.submitting &&
		models.ValidTransactionDigits(w.transactionDigits) &&
		len(w.screenshot) > 0
}

// BeginSubmit assembles the multipart payload and marks the submission
// in flight. Returns nil when submission is not currently allowed. The
// caller posts the payload and reports back via ApplySubmitResult.
func (w *Wizard) BeginSubmit() *models.PurchaseSubmission {
	if !w.CanSubmit() {
		return nil
	}
	w.submitting = true
	w.submitError = ""
	return &models.PurchaseSubmission{
		Quantity:          w.quantity,
		MontoBs:           w.AmountBs(),
		MontoUSD:          w.AmountUsd(),
		PaymentMethod:     w.paymentMethod,
		TransactionDigits: w.transactionDigits,
		SelectedNumbers:   ticket.SelectedNumbers(w.slots),
		PaymentScreenshot: w.screenshot,
		ScreenshotName:    w.screenshotName,
	}
}

// ApplySubmitResult finishes a submission. On success the wizard closes
// and fully resets, numbers included. On failure the error is shown and
// the submit control re-enables.
func (w *Wizard) ApplySubmitResult(err error) (closed bool) {
	if !w.submitting {
		return false
	}
	w.submitting = false

	if err != nil {
		w.submitError = err.Error()
		return false
	}

	w.Close()
	w.quantity = w.minQuantity
	w.slots = ticket.ResizeSlots(nil, w.quantity)
	w.slotErrors = make([]string, w.quantity)
	return true
}

func (w *Wizard) clearSlotErrors() {
	for i := range w.slotErrors {
		w.slotErrors[i] = ""
	}
}
