package main

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/okian/racerank/internal/batch"
)

var submitCfg batch.Config

var submitCmd = &cobra.Command{
	Use:   "submit DIR",
	Short: "Upload a directory of result files to a racerank server",
	Long: `Uploads every PDF, XLSX and CSV file of DIR to a running server, waits
for the parse jobs and prints their outcome followed by the standings.
Files with identical content are only parsed once.`,
	Args: cobra.ExactArgs(1),
	RunE: runSubmit,
}

func init() {
	f := submitCmd.Flags()
	f.StringVarP(&submitCfg.BaseURL, "url", "u", "http://localhost:9080", "server base URL")
	f.IntVarP(&submitCfg.Workers, "workers", "w", 4, "concurrent uploads")
	f.DurationVar(&submitCfg.Timeout, "timeout", 30*time.Second, "per-request timeout")
	f.DurationVar(&submitCfg.Wait, "wait", 2*time.Minute, "how long to wait for the jobs")
	f.IntVarP(&submitCfg.TopN, "top", "n", 50, "number of standings rows")
	f.StringVar(&submitCfg.RaceName, "race", "", "race name (overrides the file names)")
	f.IntVarP(&submitCfg.DistanceKm, "distance", "d", 0, "race distance in km (overrides the file names)")
	f.BoolVarP(&submitCfg.Verbose, "verbose", "v", false, "log every upload")
	rootCmd.AddCommand(submitCmd)
}

func runSubmit(cmd *cobra.Command, args []string) error {
	cfg := submitCfg
	cfg.Dir = args[0]
	_, err := batch.Run(cmd.Context(), &cfg, cmd.OutOrStdout())
	return err
}
