package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/hyperengineering/daybook/internal/store"
	"github.com/hyperengineering/daybook/internal/types"
	"github.com/hyperengineering/daybook/internal/validation"
)

const dateLayout = "2006-01-02"

var (
	entryJournalID int64
	entryDate      string
	entryTitle     string
	entryContent   string
	entryMood      int
	entryClearMood bool
	entryImage     string
)

var entryCmd = &cobra.Command{
	Use:   "entry",
	Short: "Read and write journal entries",
}

var entryListCmd = &cobra.Command{
	Use:   "list",
	Short: "List entries, for one journal or one day",
	Long: "List entries. With --journal, only that journal's entries by date. " +
		"With --date, the entries dated on that local day, most recently written first.",
	Args: cobra.NoArgs,
	RunE: runEntryList,
}

var entryShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one entry",
	Args:  cobra.ExactArgs(1),
	RunE:  runEntryShow,
}

var entryAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add an entry to a journal",
	Long:  "Add an entry. Without --journal, the selected journal is used.",
	Args:  cobra.NoArgs,
	RunE:  runEntryAdd,
}

var entryEditCmd = &cobra.Command{
	Use:   "edit <id>",
	Short: "Change fields of an entry",
	Args:  cobra.ExactArgs(1),
	RunE:  runEntryEdit,
}

var entryDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete an entry",
	Args:  cobra.ExactArgs(1),
	RunE:  runEntryDelete,
}

func init() {
	entryListCmd.Flags().Int64Var(&entryJournalID, "journal", 0, "Only entries of this journal")
	entryListCmd.Flags().StringVar(&entryDate, "date", "", "Only entries dated on this day (YYYY-MM-DD, or \"today\")")
	entryListCmd.MarkFlagsMutuallyExclusive("journal", "date")

	for _, c := range []*cobra.Command{entryAddCmd, entryEditCmd} {
		c.Flags().Int64Var(&entryJournalID, "journal", 0, "Journal id")
		c.Flags().StringVar(&entryTitle, "title", "", "Entry title")
		c.Flags().StringVar(&entryContent, "content", "", "Entry text")
		c.Flags().StringVar(&entryDate, "date", "", "Entry date (YYYY-MM-DD, default today)")
		c.Flags().IntVar(&entryMood, "mood", 0, "Mood from 0 to 100")
		c.Flags().StringVar(&entryImage, "image", "", "Image reference")
	}
	entryEditCmd.Flags().BoolVar(&entryClearMood, "clear-mood", false, "Remove the mood")
	entryEditCmd.MarkFlagsMutuallyExclusive("mood", "clear-mood")

	entryCmd.AddCommand(entryListCmd)
	entryCmd.AddCommand(entryShowCmd)
	entryCmd.AddCommand(entryAddCmd)
	entryCmd.AddCommand(entryEditCmd)
	entryCmd.AddCommand(entryDeleteCmd)
	entryCmd.AddCommand(entryComposeCmd)
}

// parseDay parses a local calendar day.
func parseDay(s string) (time.Time, error) {
	if s == "" || s == "today" {
		return time.Now(), nil
	}
	t, err := time.ParseInLocation(dateLayout, s, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: want YYYY-MM-DD", s)
	}
	return t, nil
}

// entryDateAt combines a parsed day with the current time of day, so
// entries added for the same day keep the order they were written in.
func entryDateAt(day time.Time) time.Time {
	now := time.Now()
	y, m, d := day.Date()
	return time.Date(y, m, d, now.Hour(), now.Minute(), now.Second(), now.Nanosecond(), time.Local)
}

func runEntryList(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	a, err := openApp(ctx, cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	var (
		entries []types.JournalEntry
		title   string
	)
	switch {
	case cmd.Flags().Changed("date"):
		day, err := parseDay(entryDate)
		if err != nil {
			return err
		}
		a.session.SetSelectedDate(day)
		view, err := a.session.EntriesForSelectedDate(ctx)
		if err != nil {
			return fmt.Errorf("list entries: %w", err)
		}
		entries = <-view
		title = day.Format("Monday, January 2, 2006")
	case cmd.Flags().Changed("journal"):
		if entries, err = a.repo().ListEntries(ctx, store.EntriesByJournal(entryJournalID)); err != nil {
			return fmt.Errorf("list entries: %w", err)
		}
		title = fmt.Sprintf("Journal %d", entryJournalID)
		if j, _ := a.repo().GetJournal(ctx, entryJournalID); j != nil {
			title = j.Name
		}
	default:
		if entries, err = a.repo().ListEntries(ctx, store.AllEntries()); err != nil {
			return fmt.Errorf("list entries: %w", err)
		}
		title = "All Entries"
	}

	if jsonOutput {
		return printJSON(cmd.OutOrStdout(), map[string]any{
			"entries": entries,
			"total":   len(entries),
		})
	}
	printEntries(cmd.OutOrStdout(), title, entries)
	return nil
}

// loadEntry fetches id through the session and fails when it is absent.
func (a *app) loadEntry(id int64) (*types.JournalEntry, error) {
	a.session.LoadEntry(id)
	if _, err := a.awaitEntryOp(); err != nil {
		return nil, fmt.Errorf("load entry: %w", err)
	}
	e := a.session.SelectedEntry().Get()
	if e == nil {
		return nil, fmt.Errorf("entry %d not found", id)
	}
	return e, nil
}

func runEntryShow(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	a, err := openApp(cmd.Context(), cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	e, err := a.loadEntry(id)
	if err != nil {
		return err
	}
	if jsonOutput {
		return printJSON(cmd.OutOrStdout(), e)
	}
	printEntry(cmd.OutOrStdout(), *e)
	return nil
}

// resolveJournal returns the --journal flag when set and the selected
// journal otherwise.
func (a *app) resolveJournal(cmd *cobra.Command) (int64, error) {
	if cmd.Flags().Changed("journal") {
		return entryJournalID, nil
	}
	sel := a.session.SelectedJournal().Get()
	if !sel.Valid {
		return 0, fmt.Errorf("no journal selected: pass --journal or run \"daybook select <id>\"")
	}
	return sel.ID, nil
}

func runEntryAdd(cmd *cobra.Command, args []string) error {
	day, err := parseDay(entryDate)
	if err != nil {
		return err
	}

	a, err := openApp(cmd.Context(), cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	journalID, err := a.resolveJournal(cmd)
	if err != nil {
		return err
	}
	e := types.NewJournalEntry(journalID, entryTitle, entryContent, entryDateAt(day))
	if cmd.Flags().Changed("mood") {
		e = e.WithMood(entryMood)
	}
	if entryImage != "" {
		e = e.WithImage(entryImage)
	}
	if err := fieldErrors(validation.ValidateEntry(e)); err != nil {
		return err
	}

	a.session.InsertEntry(e)
	st, err := a.awaitEntryOp()
	if err != nil {
		return fmt.Errorf("add entry: %w", err)
	}

	if jsonOutput {
		return printJSON(cmd.OutOrStdout(), types.IDResponse{ID: st.ID})
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Added entry %d to journal %d\n", st.ID, journalID)
	return nil
}

func runEntryEdit(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	a, err := openApp(cmd.Context(), cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	loaded, err := a.loadEntry(id)
	if err != nil {
		return err
	}
	e := *loaded

	flags := cmd.Flags()
	if flags.Changed("journal") {
		e.JournalID = entryJournalID
	}
	if flags.Changed("title") {
		e.Title = entryTitle
	}
	if flags.Changed("content") {
		e.Content = entryContent
	}
	if flags.Changed("date") {
		day, err := parseDay(entryDate)
		if err != nil {
			return err
		}
		e.Date = types.Millis(entryDateAt(day))
	}
	if flags.Changed("mood") {
		e = e.WithMood(entryMood)
	}
	if entryClearMood {
		e.Mood = nil
	}
	if flags.Changed("image") {
		if entryImage == "" {
			e.ImageURI = nil
		} else {
			e = e.WithImage(entryImage)
		}
	}
	if err := fieldErrors(validation.ValidateEntry(e)); err != nil {
		return err
	}

	a.session.UpdateEntry(e)
	if _, err := a.awaitEntryOp(); err != nil {
		return fmt.Errorf("edit entry: %w", err)
	}

	if jsonOutput {
		return printJSON(cmd.OutOrStdout(), types.IDResponse{ID: id})
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Updated entry %d\n", id)
	return nil
}

func runEntryDelete(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	a, err := openApp(cmd.Context(), cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	a.session.DeleteEntryByID(id)
	if _, err := a.awaitEntryOp(); err != nil {
		return fmt.Errorf("delete entry: %w", err)
	}

	if jsonOutput {
		return printJSON(cmd.OutOrStdout(), map[string]any{"id": id, "deleted": true})
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted entry %d\n", id)
	return nil
}
