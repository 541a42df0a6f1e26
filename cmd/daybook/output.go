package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/gosuri/uitable"

	"github.com/hyperengineering/daybook/internal/types"
)

var (
	headerStyle = color.New(color.Bold, color.Underline)
	faintStyle  = color.New(color.Faint)
	emptyStyle  = color.New(color.Faint, color.Italic)
	idStyle     = color.New(color.FgHiYellow)
)

// printJSON marshals v to JSON and writes to the given writer.
func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// newTable returns a table with single-space column separation.
func newTable() *uitable.Table {
	tbl := uitable.New()
	tbl.Separator = "  "
	tbl.MaxColWidth = 60
	return tbl
}

func printTitle(w io.Writer, title string, count int, noun string) {
	headerStyle.Fprint(w, title)
	faintStyle.Fprintf(w, " - %s\n", humanize.Comma(int64(count))+" "+plural(count, noun))
}

func plural(n int, noun string) string {
	if n == 1 {
		return noun
	}
	if strings.HasSuffix(noun, "y") {
		return strings.TrimSuffix(noun, "y") + "ies"
	}
	return noun + "s"
}

func printNone(w io.Writer) {
	emptyStyle.Fprintln(w, "  none")
}

func printJournals(w io.Writer, title string, journals []types.Journal) {
	printTitle(w, title, len(journals), "journal")
	if len(journals) == 0 {
		printNone(w)
		return
	}
	tbl := newTable()
	tbl.AddRow("ID", "NAME", "COLOR", "ICON", "CREATED")
	for _, j := range journals {
		tbl.AddRow(idStyle.Sprint(j.ID), j.Name, j.Color, j.Icon, humanize.Time(j.CreatedAt))
	}
	fmt.Fprintln(w, tbl)
}

func printEntries(w io.Writer, title string, entries []types.JournalEntry) {
	printTitle(w, title, len(entries), "entry")
	if len(entries) == 0 {
		printNone(w)
		return
	}
	tbl := newTable()
	tbl.AddRow("ID", "JOURNAL", "DATE", "MOOD", "TITLE")
	for _, e := range entries {
		tbl.AddRow(idStyle.Sprint(e.ID), e.JournalID, formatDate(e.Date), moodCell(e.Mood), e.Title)
	}
	fmt.Fprintln(w, tbl)
}

func printEntry(w io.Writer, e types.JournalEntry) {
	tbl := uitable.New()
	tbl.Wrap = true
	tbl.MaxColWidth = 80
	tbl.AddRow("ID:", e.ID)
	tbl.AddRow("Journal:", e.JournalID)
	tbl.AddRow("Title:", e.Title)
	tbl.AddRow("Date:", formatDate(e.Date))
	tbl.AddRow("Mood:", moodCell(e.Mood))
	if e.ImageURI != nil {
		tbl.AddRow("Image:", *e.ImageURI)
	}
	tbl.AddRow("Created:", e.CreatedAt.Local().Format("2006-01-02 15:04:05 MST"))
	tbl.AddRow("Updated:", fmt.Sprintf("%s (%s)", e.UpdatedAt.Local().Format("2006-01-02 15:04:05 MST"), humanize.Time(e.UpdatedAt)))
	fmt.Fprintln(w, tbl)
	if e.Content != "" {
		fmt.Fprintln(w)
		fmt.Fprintln(w, e.Content)
	}
}

func formatDate(t time.Time) string {
	return t.Local().Format("2006-01-02 15:04")
}

func moodCell(m *int) string {
	if m == nil {
		return "-"
	}
	return fmt.Sprintf("%d %s", *m, types.ClassifyMood(*m).Label())
}
