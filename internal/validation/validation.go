package validation

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/hyperengineering/daybook/internal/types"
)

// Field limits applied to values arriving over the HTTP surface.
const (
	MaxNameLength     = 200
	MaxIconLength     = 64
	MaxTitleLength    = 500
	MaxContentLength  = 100000
	MaxImageURILength = 2048
)

// ValidationError represents a single field validation failure.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Collector accumulates validation errors without failing on first.
type Collector struct {
	errors []ValidationError
}

// Add appends a validation error to the collector if non-nil.
func (c *Collector) Add(err *ValidationError) {
	if err != nil {
		c.errors = append(c.errors, *err)
	}
}

// HasErrors returns true if the collector has accumulated any errors.
func (c *Collector) HasErrors() bool {
	return len(c.errors) > 0
}

// Errors returns all accumulated validation errors.
func (c *Collector) Errors() []ValidationError {
	return c.errors
}

// ValidateUTF8 returns an error if the value is not valid UTF-8.
func ValidateUTF8(field, value string) *ValidationError {
	if !utf8.ValidString(value) {
		return &ValidationError{
			Field:   field,
			Message: "must be valid UTF-8",
		}
	}
	return nil
}

// ValidateNoNullBytes returns an error if the value contains null bytes.
func ValidateNoNullBytes(field, value string) *ValidationError {
	if strings.Contains(value, "\x00") {
		return &ValidationError{
			Field:   field,
			Message: "must not contain null bytes",
		}
	}
	return nil
}

// ValidateMaxLength returns an error if the value exceeds max runes.
func ValidateMaxLength(field, value string, max int) *ValidationError {
	if utf8.RuneCountInString(value) > max {
		return &ValidationError{
			Field:   field,
			Message: fmt.Sprintf("exceeds maximum length of %d characters", max),
		}
	}
	return nil
}

// ValidateHexColor returns an error unless the value is #RRGGBB.
func ValidateHexColor(field, value string) *ValidationError {
	bad := &ValidationError{
		Field:   field,
		Message: "must be a color of the form #RRGGBB",
	}
	if len(value) != 7 || value[0] != '#' {
		return bad
	}
	for _, r := range value[1:] {
		switch {
		case r >= '0' && r <= '9', r >= 'a' && r <= 'f', r >= 'A' && r <= 'F':
		default:
			return bad
		}
	}
	return nil
}

// ValidateRange returns an error if the value is outside [min, max].
func ValidateRange(field string, value, min, max int) *ValidationError {
	if value < min || value > max {
		return &ValidationError{
			Field:   field,
			Message: fmt.Sprintf("must be between %d and %d", min, max),
		}
	}
	return nil
}

// ValidateNonNegative returns an error if an id is negative.
func ValidateNonNegative(field string, value int64) *ValidationError {
	if value < 0 {
		return &ValidationError{
			Field:   field,
			Message: "must not be negative",
		}
	}
	return nil
}

// text runs the checks every free-text field gets.
func text(c *Collector, field, value string, max int) {
	if err := ValidateUTF8(field, value); err != nil {
		c.Add(err)
		return
	}
	c.Add(ValidateNoNullBytes(field, value))
	c.Add(ValidateMaxLength(field, value, max))
}

// ValidateJournal checks a journal received from a client. An empty name
// is accepted; the store does not require one.
func ValidateJournal(j types.Journal) []ValidationError {
	var c Collector
	c.Add(ValidateNonNegative("id", j.ID))
	text(&c, "name", j.Name, MaxNameLength)
	if j.Color != "" {
		c.Add(ValidateHexColor("color", j.Color))
	}
	text(&c, "icon", j.Icon, MaxIconLength)
	return c.Errors()
}

// ValidateEntry checks a journal entry received from a client.
func ValidateEntry(e types.JournalEntry) []ValidationError {
	var c Collector
	c.Add(ValidateNonNegative("id", e.ID))
	text(&c, "title", e.Title, MaxTitleLength)
	text(&c, "content", e.Content, MaxContentLength)
	if e.Mood != nil {
		c.Add(ValidateRange("mood", *e.Mood, types.MinMood, types.MaxMood))
	}
	if e.ImageURI != nil {
		text(&c, "image_uri", *e.ImageURI, MaxImageURILength)
	}
	return c.Errors()
}
