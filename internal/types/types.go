package types

import "time"

// Defaults applied to journals created without an explicit color or icon.
const (
	DefaultJournalColor = "#6650a4"
	DefaultJournalIcon  = "description"
)

// Journal is a named collection of entries.
type Journal struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Color     string    `json:"color"`
	Icon      string    `json:"icon"`
	CreatedAt time.Time `json:"created_at"`
	IsDeleted bool      `json:"is_deleted"`
}

// JournalEntry is a single dated record written into a journal.
// Date is the user-facing date of the entry and is independent of
// CreatedAt and UpdatedAt.
type JournalEntry struct {
	ID        int64     `json:"id"`
	JournalID int64     `json:"journal_id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Date      time.Time `json:"date"`
	Mood      *int      `json:"mood,omitempty"`
	ImageURI  *string   `json:"image_uri,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewJournal returns an unsaved journal with default color and icon and
// CreatedAt set to now.
func NewJournal(name string) Journal {
	return Journal{
		Name:      name,
		Color:     DefaultJournalColor,
		Icon:      DefaultJournalIcon,
		CreatedAt: Now(),
	}
}

// NewJournalEntry returns an unsaved entry whose CreatedAt and UpdatedAt
// are the same instant.
func NewJournalEntry(journalID int64, title, content string, date time.Time) JournalEntry {
	now := Now()
	return JournalEntry{
		JournalID: journalID,
		Title:     title,
		Content:   content,
		Date:      Millis(date),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// WithMood returns a copy of e carrying the given mood value.
func (e JournalEntry) WithMood(mood int) JournalEntry {
	e.Mood = &mood
	return e
}

// WithImage returns a copy of e referencing the given image.
func (e JournalEntry) WithImage(uri string) JournalEntry {
	e.ImageURI = &uri
	return e
}

// HasMood reports whether the entry is a mood entry.
func (e JournalEntry) HasMood() bool {
	return e.Mood != nil
}

// Now returns the current time at the precision the store persists.
func Now() time.Time {
	return Millis(time.Now())
}

// Millis normalizes t to UTC at millisecond precision, which is the
// resolution timestamps are stored at.
func Millis(t time.Time) time.Time {
	return time.UnixMilli(t.UnixMilli()).UTC()
}

// FromMillis converts milliseconds since the Unix epoch to a UTC time.
func FromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

// DayBounds returns the half-open range [start, end) covering the calendar
// day containing t in t's location.
func DayBounds(t time.Time) (start, end time.Time) {
	y, m, d := t.Date()
	start = time.Date(y, m, d, 0, 0, 0, 0, t.Location())
	end = start.AddDate(0, 0, 1)
	return start, end
}

// Selection is an optional journal id. The zero value means no journal is
// selected; an ID of 0 with Valid set is a legitimate (if unusual) selection.
type Selection struct {
	ID    int64
	Valid bool
}

// NoSelection is the explicit "nothing selected" value.
var NoSelection = Selection{}

// Selected returns a selection of the given journal id.
func Selected(id int64) Selection {
	return Selection{ID: id, Valid: true}
}

// StoreStats holds aggregate counts for a store.
type StoreStats struct {
	ActiveJournals  int64 `json:"active_journals"`
	DeletedJournals int64 `json:"deleted_journals"`
	Entries         int64 `json:"entries"`
	MoodEntries     int64 `json:"mood_entries"`
}

// HealthResponse is returned by the health endpoint.
type HealthResponse struct {
	Status  string     `json:"status"`
	Version string     `json:"version"`
	Stats   StoreStats `json:"stats"`
}

// IDResponse is returned after an insert.
type IDResponse struct {
	ID int64 `json:"id"`
}

// SelectionResponse is the wire form of a Selection.
type SelectionResponse struct {
	JournalID *int64 `json:"journal_id"`
}
