package main

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/hyperengineering/daybook/internal/session"
	"github.com/hyperengineering/daybook/internal/types"
	"github.com/hyperengineering/daybook/internal/validation"
)

var entryComposeCmd = &cobra.Command{
	Use:   "compose [id]",
	Short: "Write an entry interactively, with undo and redo",
	Long: `Write a new entry, or edit entry [id], reading from standard input.

Plain lines are appended to the content. Commands:
  :title <text>    set the title
  :content <text>  replace the content
  :mood <0-100>    set the mood (":mood" alone clears it)
  :undo, :redo     step through the edit history
  :show            print the draft
  :save            save the entry and exit
  :quit            exit without saving`,
	Args: cobra.MaximumNArgs(1),
	RunE: runEntryCompose,
}

func init() {
	entryComposeCmd.Flags().Int64Var(&entryJournalID, "journal", 0, "Journal for a new entry")
}

func runEntryCompose(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd.Context(), cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	var draft *session.Composer
	if len(args) == 1 {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		e, err := a.loadEntry(id)
		if err != nil {
			return err
		}
		draft = session.NewComposer(*e)
	} else {
		journalID, err := a.resolveJournal(cmd)
		if err != nil {
			return err
		}
		draft = session.NewComposer(types.NewJournalEntry(journalID, "", "", entryDateAt(time.Now())))
	}

	saved, err := composeLoop(cmd.InOrStdin(), cmd.OutOrStdout(), draft)
	if err != nil || !saved {
		return err
	}

	e := draft.Entry()
	if err := fieldErrors(validation.ValidateEntry(e)); err != nil {
		return err
	}
	a.session.SaveDraft(draft)
	st, err := a.awaitEntryOp()
	if err != nil {
		return fmt.Errorf("save entry: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Saved entry %d\n", st.ID)
	return nil
}

// composeLoop applies editing commands read from in to draft until :save,
// :quit or end of input. It reports whether the draft should be saved.
func composeLoop(in io.Reader, out io.Writer, draft *session.Composer) (bool, error) {
	sc := bufio.NewScanner(in)
	for sc.Scan() {
		line := sc.Text()
		if !strings.HasPrefix(line, ":") {
			cur := draft.Current()
			content := line
			if cur.Content != "" {
				content = cur.Content + "\n" + line
			}
			draft.SetContent(content)
			continue
		}

		name, arg, _ := strings.Cut(strings.TrimPrefix(line, ":"), " ")
		switch name {
		case "title":
			draft.SetTitle(arg)
		case "content":
			draft.SetContent(arg)
		case "mood":
			if arg == "" {
				draft.SetMood(nil)
				break
			}
			v, err := strconv.Atoi(arg)
			if err != nil {
				fmt.Fprintf(out, "invalid mood %q\n", arg)
				break
			}
			draft.SetMood(&v)
		case "undo":
			if _, ok := draft.Undo(); !ok {
				faintStyle.Fprintln(out, "nothing to undo")
			}
		case "redo":
			if _, ok := draft.Redo(); !ok {
				faintStyle.Fprintln(out, "nothing to redo")
			}
		case "show":
			e := draft.Entry()
			headerStyle.Fprintln(out, e.Title)
			if e.Mood != nil {
				faintStyle.Fprintln(out, moodCell(e.Mood))
			}
			fmt.Fprintln(out, e.Content)
		case "save":
			return true, nil
		case "quit":
			return false, nil
		default:
			fmt.Fprintf(out, "unknown command :%s\n", name)
		}
	}
	if err := sc.Err(); err != nil {
		return false, fmt.Errorf("read input: %w", err)
	}
	return false, nil
}
