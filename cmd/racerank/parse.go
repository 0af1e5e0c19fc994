package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var parseShowDetection bool

var parseCmd = &cobra.Command{
	Use:   "parse FILE",
	Short: "Print the canonical records of a result file",
	Long: `Detects the layout of a result file and prints its canonical records,
one per line, in key order. The header record comes first.`,
	Args: cobra.ExactArgs(1),
	RunE: runParse,
}

func init() {
	parseCmd.Flags().BoolVar(&parseShowDetection, "detection", false, "print the detected layout to stderr")
	rootCmd.AddCommand(parseCmd)
}

func runParse(cmd *cobra.Command, args []string) error {
	members, err := loadMembers()
	if err != nil {
		return err
	}

	set, det, err := newRepository().Read(cmd.Context(), args[0], members)
	if err != nil {
		return err
	}
	if parseShowDetection {
		fmt.Fprintf(cmd.ErrOrStderr(), "layout=%s coverage=%.2f fallback=%t\n",
			det.Parser.Name(), det.Coverage, det.Fallback)
	}

	out := cmd.OutOrStdout()
	for _, k := range set.Keys() {
		if _, err := fmt.Fprintln(out, set[k]); err != nil {
			return err
		}
	}
	return nil
}
