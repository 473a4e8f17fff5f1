package ticket

import (
	"fmt"
	"strconv"
	"strings"
)

// Ticket numbers live in a fixed 0-9999 pool, four digits at most.
const (
	NumberMin    = 0
	NumberMax    = 9999
	numberDigits = 4
)

// Slot error messages shown next to a number input. RangeError is built
// dynamically so the message always matches the real bounds.
const (
	ErrInvalid  = "invalid"
	ErrRepeated = "repeated"
	ErrTaken    = "not available"
)

// RangeError is the per-slot message for an out-of-range number.
func RangeError() string {
	return fmt.Sprintf("%d-%d", NumberMin, NumberMax)
}

// SanitizeSlot filters raw user input into a storable slot value: digits
// only, leading zeros stripped (a lone "0" survives), truncated to four
// characters. The result is always "" or an integer string in 0-9999.
func SanitizeSlot(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	s := b.String()
	s = strings.TrimLeft(s, "0")
	if s == "" && b.Len() > 0 {
		s = "0"
	}
	if len(s) > numberDigits {
		s = s[:numberDigits]
	}
	return s
}

// ValidateSlots returns one error message per slot ("" when the slot is
// fine). Empty slots are always fine. A duplicate flags the later
// occurrence, never the first.
func ValidateSlots(slots []string) []string {
	errs := make([]string, len(slots))
	seen := make(map[string]bool, len(slots))
	for i, slot := range slots {
		if slot == "" {
			continue
		}
		n, err := strconv.Atoi(slot)
		if err != nil {
			errs[i] = ErrInvalid
			continue
		}
		if n < NumberMin || n > NumberMax {
			errs[i] = RangeError()
			continue
		}
		if seen[slot] {
			errs[i] = ErrRepeated
			continue
		}
		seen[slot] = true
	}
	return errs
}

// CleanSlots returns true when every slot validates. Convenience wrapper
// used to gate the wizard's "next" control.
func CleanSlots(slots []string) bool {
	for _, e := range ValidateSlots(slots) {
		if e != "" {
			return false
		}
	}
	return true
}

// ResizeSlots grows or shrinks a slot list to n entries, padding with
// empty strings and truncating from the tail.
func ResizeSlots(slots []string, n int) []string {
	if n < 0 {
		n = 0
	}
	resized := make([]string, n)
	copy(resized, slots)
	return resized
}

// Clamp bounds a quantity to the [min, max] purchase range.
func Clamp(quantity, min, max int) int {
	if quantity < min {
		return min
	}
	if quantity > max {
		return max
	}
	return quantity
}

// FormatAmount computes quantity x unitPrice rendered with exactly two
// decimal places, matching the display contract for monetary quotes.
func FormatAmount(quantity int, unitPrice float64) string {
	return strconv.FormatFloat(float64(quantity)*unitPrice, 'f', 2, 64)
}

// SelectedNumbers extracts the non-empty slots in order. The result is
// what actually travels to the backend; an empty result means "assign
// randomly".
func SelectedNumbers(slots []string) []string {
	selected := make([]string, 0, len(slots))
	for _, slot := range slots {
		if slot != "" {
			selected = append(selected, slot)
		}
	}
	return selected
}

// JoinNumbers renders the non-empty slots as the comma-joined wire form.
func JoinNumbers(slots []string) string {
	return strings.Join(SelectedNumbers(slots), ",")
}

// SplitNumbers parses the comma-joined wire form back into a list,
// dropping empty segments.
func SplitNumbers(joined string) []string {
	if joined == "" {
		return []string{}
	}
	parts := strings.Split(joined, ",")
	numbers := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			numbers = append(numbers, p)
		}
	}
	return numbers
}

// ToIntSlice converts number strings to ints, rejecting anything outside
// the ticket pool.
func ToIntSlice(numbers []string) ([]int, error) {
	ints := make([]int, 0, len(numbers))
	for _, s := range numbers {
		n, err := strconv.Atoi(s)
		if err != nil {
			return nil, fmt.Errorf("invalid ticket number %q", s)
		}
		if n < NumberMin || n > NumberMax {
			return nil, fmt.Errorf("ticket number %d out of range", n)
		}
		ints = append(ints, n)
	}
	return ints, nil
}

// ToStrSlice converts ticket numbers back to their wire representation.
func ToStrSlice(numbers []int) []string {
	strs := make([]string, 0, len(numbers))
	for _, n := range numbers {
		strs = append(strs, strconv.Itoa(n))
	}
	return strs
}
