package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hyperengineering/daybook/internal/types"
)

var (
	selectClear bool
	selectShow  bool
)

var selectCmd = &cobra.Command{
	Use:   "select [id]",
	Short: "Select the journal new entries go to",
	Long:  "Select a journal by id, clear the selection with --clear, or print it with --show. The selection survives restarts.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runSelect,
}

func init() {
	selectCmd.Flags().BoolVar(&selectClear, "clear", false, "Clear the selection")
	selectCmd.Flags().BoolVar(&selectShow, "show", false, "Print the selection")
	selectCmd.MarkFlagsMutuallyExclusive("clear", "show")
}

func runSelect(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if (len(args) == 1) == (selectClear || selectShow) {
		return fmt.Errorf("pass a journal id, --clear or --show")
	}

	a, err := openApp(ctx, cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	switch {
	case selectShow:
	case selectClear:
		if err := a.session.SetSelectedJournal(ctx, types.NoSelection); err != nil {
			return err
		}
	default:
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		j, err := a.repo().GetJournal(ctx, id)
		if err != nil {
			return err
		}
		if j == nil {
			return fmt.Errorf("journal %d not found", id)
		}
		if err := a.session.SetSelectedJournal(ctx, types.Selected(id)); err != nil {
			return err
		}
	}

	sel := a.session.SelectedJournal().Get()
	out := cmd.OutOrStdout()
	if jsonOutput {
		var resp types.SelectionResponse
		if sel.Valid {
			resp.JournalID = &sel.ID
		}
		return printJSON(out, resp)
	}
	if !sel.Valid {
		fmt.Fprintln(out, "No journal selected.")
		return nil
	}
	name := ""
	if j, _ := a.repo().GetJournal(ctx, sel.ID); j != nil {
		name = fmt.Sprintf(" %q", j.Name)
	}
	fmt.Fprintf(out, "Selected journal %d%s\n", sel.ID, name)
	return nil
}
