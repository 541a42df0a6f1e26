package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hyperengineering/daybook/internal/types"
)

var moodCmd = &cobra.Command{
	Use:   "mood <value>",
	Short: "Show the mood bucket for a value from 0 to 100",
	Args:  cobra.ExactArgs(1),
	RunE:  runMood,
}

func runMood(cmd *cobra.Command, args []string) error {
	v, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid mood %q: must be an integer", args[0])
	}
	m := types.ClassifyMood(v)

	if jsonOutput {
		return printJSON(cmd.OutOrStdout(), map[string]any{
			"value":       v,
			"bucket":      m.Bucket(),
			"label":       m.Label(),
			"descriptors": m.Descriptors(),
		})
	}
	out := cmd.OutOrStdout()
	headerStyle.Fprint(out, m.Label())
	faintStyle.Fprintf(out, " (%d of 5)\n", m.Bucket())
	fmt.Fprintln(out, strings.Join(m.Descriptors(), ", "))
	return nil
}
