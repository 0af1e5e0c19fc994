// Command racerank parses race result files and computes the season
// classification, locally or through a running racerank server.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/okian/racerank/internal/adapters/results"
	"github.com/okian/racerank/internal/adapters/roster"
	"github.com/okian/racerank/internal/config"
	"github.com/okian/racerank/internal/domain/model"
	"github.com/okian/racerank/internal/formats"
	"github.com/okian/racerank/pkg/logger"
)

var (
	logLevel   string
	rosterPath string
	cfg        *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "racerank",
	Short: "Race result parsing and season classification",
	Long: `racerank reads race result exports (PDF, XLSX, CSV) from several timing
companies, normalizes them to canonical records and scores club members
against the race winner.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVarP(&rosterPath, "roster", "r", "", "YAML member roster (defaults to roster_path from config)")
}

// setup routes logs to stderr, keeping stdout for results, and loads the config.
func setup(cmd *cobra.Command, _ []string) error {
	if err := logger.InitWithWriter(cmd.ErrOrStderr()); err != nil {
		return err
	}
	if err := logger.SetLevelString(logLevel); err != nil {
		return err
	}
	c, err := config.Load(cmd.Context())
	if err != nil {
		return err
	}
	cfg = c
	if rosterPath == "" {
		rosterPath = cfg.RosterPath
	}
	return nil
}

// loadMembers reads the roster, if one is configured.
func loadMembers() ([]model.Member, error) {
	if rosterPath == "" {
		return nil, nil
	}
	return roster.LoadFile(rosterPath)
}

// newRepository builds a document repository from the loaded config.
func newRepository() *results.DocumentRepository {
	log := logger.Named("racerank")
	return results.NewDocumentRepository(
		results.WithDetector(formats.NewDetector(
			formats.WithThreshold(cfg.SignatureThreshold),
			formats.WithLogger(log.Named("formats")),
		)),
		results.WithPDFLayout(cfg.PDFRowTolerance, cfg.PDFWordGap),
		results.WithLogger(log.Named("results")),
	)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "racerank:", err)
		os.Exit(1)
	}
}
