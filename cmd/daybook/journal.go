package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hyperengineering/daybook/internal/types"
	"github.com/hyperengineering/daybook/internal/validation"
)

var (
	journalShowStats bool
	journalColor     string
	journalIcon      string
)

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "Manage journals",
	Long:  "Create, rename, trash, restore and delete journals.",
}

var journalListCmd = &cobra.Command{
	Use:   "list",
	Short: "List active journals, newest first",
	Args:  cobra.NoArgs,
	RunE:  func(cmd *cobra.Command, args []string) error { return runJournalList(cmd, false) },
}

var journalDeletedCmd = &cobra.Command{
	Use:   "deleted",
	Short: "List recently deleted journals",
	Args:  cobra.NoArgs,
	RunE:  func(cmd *cobra.Command, args []string) error { return runJournalList(cmd, true) },
}

var journalCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a journal",
	Args:  cobra.ExactArgs(1),
	RunE:  runJournalCreate,
}

var journalRenameCmd = &cobra.Command{
	Use:   "rename <id> <name>",
	Short: "Rename a journal",
	Args:  cobra.ExactArgs(2),
	RunE:  runJournalRename,
}

var journalTrashCmd = &cobra.Command{
	Use:   "trash <id>",
	Short: "Move a journal to recently deleted",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runJournalSetDeleted(cmd, args[0], true)
	},
}

var journalRestoreCmd = &cobra.Command{
	Use:   "restore <id>",
	Short: "Restore a journal from recently deleted",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runJournalSetDeleted(cmd, args[0], false)
	},
}

var journalDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Permanently delete a journal",
	Long:  "Permanently delete a journal. Its entries are kept.",
	Args:  cobra.ExactArgs(1),
	RunE:  runJournalDelete,
}

func init() {
	journalListCmd.Flags().BoolVar(&journalShowStats, "stats", false,
		"Also show store counts")
	journalCreateCmd.Flags().StringVar(&journalColor, "color", types.DefaultJournalColor,
		"Journal color as #RRGGBB")
	journalCreateCmd.Flags().StringVar(&journalIcon, "icon", types.DefaultJournalIcon,
		"Journal icon name")

	journalCmd.AddCommand(journalListCmd)
	journalCmd.AddCommand(journalDeletedCmd)
	journalCmd.AddCommand(journalCreateCmd)
	journalCmd.AddCommand(journalRenameCmd)
	journalCmd.AddCommand(journalTrashCmd)
	journalCmd.AddCommand(journalRestoreCmd)
	journalCmd.AddCommand(journalDeleteCmd)
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q: must be a positive integer", s)
	}
	return id, nil
}

// fieldErrors turns validation failures into one error.
func fieldErrors(errs []validation.ValidationError) error {
	if len(errs) == 0 {
		return nil
	}
	parts := make([]string, len(errs))
	for i, e := range errs {
		parts[i] = e.Field + ": " + e.Message
	}
	return fmt.Errorf("invalid input: %s", strings.Join(parts, "; "))
}

func runJournalList(cmd *cobra.Command, deleted bool) error {
	ctx := cmd.Context()
	a, err := openApp(ctx, cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	journals, err := a.repo().ListJournals(ctx, deleted)
	if err != nil {
		return fmt.Errorf("list journals: %w", err)
	}

	var stats *types.StoreStats
	if journalShowStats && !deleted {
		if stats, err = a.repo().Stats(ctx); err != nil {
			return fmt.Errorf("stats: %w", err)
		}
	}

	out := cmd.OutOrStdout()
	if jsonOutput {
		body := map[string]any{
			"journals": journals,
			"total":    len(journals),
		}
		if stats != nil {
			body["stats"] = stats
		}
		return printJSON(out, body)
	}

	title := "Journals"
	if deleted {
		title = "Recently Deleted"
	}
	printJournals(out, title, journals)
	if stats != nil {
		faintStyle.Fprintf(out, "%d active, %d deleted, %d entries (%d with mood)\n",
			stats.ActiveJournals, stats.DeletedJournals, stats.Entries, stats.MoodEntries)
	}
	return nil
}

func runJournalCreate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	j := types.NewJournal(args[0])
	j.Color = journalColor
	j.Icon = journalIcon
	if err := fieldErrors(validation.ValidateJournal(j)); err != nil {
		return err
	}

	a, err := openApp(ctx, cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	id, err := a.session.InsertJournal(ctx, j)
	if err != nil {
		return fmt.Errorf("create journal: %w", err)
	}

	if jsonOutput {
		return printJSON(cmd.OutOrStdout(), types.IDResponse{ID: id})
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created journal %d %q\n", id, j.Name)
	return nil
}

func runJournalRename(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	id, err := parseID(args[0])
	if err != nil {
		return err
	}

	a, err := openApp(ctx, cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	j, err := a.repo().GetJournal(ctx, id)
	if err != nil {
		return err
	}
	if j == nil {
		return fmt.Errorf("journal %d not found", id)
	}
	j.Name = args[1]
	if err := fieldErrors(validation.ValidateJournal(*j)); err != nil {
		return err
	}
	if err := a.session.UpdateJournal(ctx, *j); err != nil {
		return fmt.Errorf("rename journal: %w", err)
	}

	if jsonOutput {
		return printJSON(cmd.OutOrStdout(), j)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Renamed journal %d to %q\n", id, j.Name)
	return nil
}

func runJournalSetDeleted(cmd *cobra.Command, arg string, deleted bool) error {
	ctx := cmd.Context()
	id, err := parseID(arg)
	if err != nil {
		return err
	}

	a, err := openApp(ctx, cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	verb := "Restored"
	if deleted {
		verb = "Trashed"
		err = a.session.TrashJournal(ctx, id)
	} else {
		err = a.session.RestoreJournal(ctx, id)
	}
	if err != nil {
		return err
	}

	if jsonOutput {
		return printJSON(cmd.OutOrStdout(), map[string]any{"id": id, "is_deleted": deleted})
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s journal %d\n", verb, id)
	return nil
}

func runJournalDelete(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	id, err := parseID(args[0])
	if err != nil {
		return err
	}

	a, err := openApp(ctx, cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.session.DeleteJournalByID(ctx, id); err != nil {
		return fmt.Errorf("delete journal: %w", err)
	}

	if jsonOutput {
		return printJSON(cmd.OutOrStdout(), map[string]any{"id": id, "deleted": true})
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted journal %d\n", id)
	return nil
}
