package validation

import (
	"strings"
	"testing"
	"time"

	"github.com/hyperengineering/daybook/internal/types"
)

// --- Field checks ---

func TestValidateUTF8(t *testing.T) {
	for _, v := range []string{"", "hello", "Hello, 世界", "Hello 👋🏻"} {
		if err := ValidateUTF8("field", v); err != nil {
			t.Errorf("ValidateUTF8(%q) = %v, want nil", v, err)
		}
	}

	err := ValidateUTF8("content", string([]byte{0xff, 0xfe}))
	if err == nil {
		t.Fatal("ValidateUTF8(invalid) = nil, want error")
	}
	if err.Field != "content" {
		t.Errorf("error.Field = %q, want %q", err.Field, "content")
	}
}

func TestValidateNoNullBytes(t *testing.T) {
	if err := ValidateNoNullBytes("title", "clean"); err != nil {
		t.Errorf("ValidateNoNullBytes(clean) = %v, want nil", err)
	}
	if err := ValidateNoNullBytes("title", "a\x00b"); err == nil {
		t.Error("ValidateNoNullBytes(with null) = nil, want error")
	}
}

func TestValidateMaxLength_CountsRunes(t *testing.T) {
	if err := ValidateMaxLength("name", strings.Repeat("👋", 10), 10); err != nil {
		t.Errorf("ValidateMaxLength(10 emoji, max 10) = %v, want nil", err)
	}
	if err := ValidateMaxLength("name", strings.Repeat("a", 11), 10); err == nil {
		t.Error("ValidateMaxLength(11 chars, max 10) = nil, want error")
	}
}

func TestValidateHexColor(t *testing.T) {
	tests := []struct {
		value string
		ok    bool
	}{
		{"#6650a4", true},
		{"#ABCDEF", true},
		{"#000000", true},
		{"6650a4", false},
		{"#6650a", false},
		{"#6650a4f", false},
		{"#66g0a4", false},
		{"", false},
	}
	for _, tt := range tests {
		err := ValidateHexColor("color", tt.value)
		if (err == nil) != tt.ok {
			t.Errorf("ValidateHexColor(%q) = %v, want ok=%v", tt.value, err, tt.ok)
		}
	}
}

func TestValidateRange(t *testing.T) {
	for _, v := range []int{0, 50, 100} {
		if err := ValidateRange("mood", v, 0, 100); err != nil {
			t.Errorf("ValidateRange(%d) = %v, want nil", v, err)
		}
	}
	for _, v := range []int{-1, 101} {
		err := ValidateRange("mood", v, 0, 100)
		if err == nil {
			t.Errorf("ValidateRange(%d) = nil, want error", v)
			continue
		}
		if !strings.Contains(err.Message, "between 0 and 100") {
			t.Errorf("message = %q", err.Message)
		}
	}
}

// --- Collector Tests ---

func TestCollector_IgnoresNil(t *testing.T) {
	c := &Collector{}
	c.Add(nil)
	c.Add(&ValidationError{Field: "field", Message: "error"})
	c.Add(nil)

	if got := len(c.Errors()); got != 1 {
		t.Errorf("len(Errors()) = %d, want 1 (nil should be ignored)", got)
	}
	if !c.HasErrors() {
		t.Error("HasErrors() = false, want true")
	}
}

func TestCollector_Empty(t *testing.T) {
	c := &Collector{}
	if c.HasErrors() {
		t.Error("HasErrors() = true, want false for empty collector")
	}
}

// --- ValidateJournal Tests ---

func TestValidateJournal_Valid(t *testing.T) {
	if errs := ValidateJournal(types.NewJournal("Work")); len(errs) != 0 {
		t.Errorf("ValidateJournal(valid) = %v, want no errors", errs)
	}
}

func TestValidateJournal_EmptyNameAccepted(t *testing.T) {
	j := types.NewJournal("")
	if errs := ValidateJournal(j); len(errs) != 0 {
		t.Errorf("ValidateJournal(empty name) = %v, want no errors", errs)
	}
}

func TestValidateJournal_AllFieldsInvalid(t *testing.T) {
	j := types.Journal{
		ID:    -1,
		Name:  strings.Repeat("n", MaxNameLength+1),
		Color: "purple",
		Icon:  "bad\x00icon",
	}
	errs := ValidateJournal(j)

	fields := map[string]bool{}
	for _, e := range errs {
		fields[e.Field] = true
	}
	for _, want := range []string{"id", "name", "color", "icon"} {
		if !fields[want] {
			t.Errorf("ValidateJournal missing %s error, got: %v", want, errs)
		}
	}
}

// --- ValidateEntry Tests ---

func validEntry() types.JournalEntry {
	return types.NewJournalEntry(1, "Morning", "Coffee and a walk.", time.Now()).
		WithMood(72).
		WithImage("content://media/42")
}

func TestValidateEntry_Valid(t *testing.T) {
	if errs := ValidateEntry(validEntry()); len(errs) != 0 {
		t.Errorf("ValidateEntry(valid) = %v, want no errors", errs)
	}
}

func TestValidateEntry_MoodOutOfRange(t *testing.T) {
	for _, mood := range []int{-1, 101} {
		errs := ValidateEntry(validEntry().WithMood(mood))
		if len(errs) != 1 || errs[0].Field != "mood" {
			t.Errorf("ValidateEntry(mood %d) = %v, want single mood error", mood, errs)
		}
	}
}

func TestValidateEntry_NoMoodIsFine(t *testing.T) {
	e := validEntry()
	e.Mood = nil
	if errs := ValidateEntry(e); len(errs) != 0 {
		t.Errorf("ValidateEntry(no mood) = %v, want no errors", errs)
	}
}

func TestValidateEntry_InvalidUTF8ReportedOnce(t *testing.T) {
	e := validEntry()
	e.Content = string([]byte{0xff, 0x00})
	errs := ValidateEntry(e)
	if len(errs) != 1 || errs[0].Field != "content" {
		t.Errorf("ValidateEntry(invalid content) = %v, want one content error", errs)
	}
}

func TestValidateEntry_TooLongFields(t *testing.T) {
	e := validEntry()
	e.Title = strings.Repeat("t", MaxTitleLength+1)
	e = e.WithImage(strings.Repeat("u", MaxImageURILength+1))

	fields := map[string]bool{}
	for _, err := range ValidateEntry(e) {
		fields[err.Field] = true
	}
	if !fields["title"] || !fields["image_uri"] {
		t.Errorf("ValidateEntry missing title/image_uri errors, got %v", fields)
	}
}
