package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/okian/racerank/internal/adapters/repository"
	"github.com/okian/racerank/internal/batch"
	"github.com/okian/racerank/internal/domain/classification"
	"github.com/okian/racerank/internal/domain/model"
	"github.com/okian/racerank/internal/domain/raceresult"
	"github.com/okian/racerank/internal/domain/types"
	"github.com/okian/racerank/pkg/logger"
)

var (
	classifyDistance int
	classifyRace     string
	classifyTop      int
	classifyJSON     bool
)

var classifyCmd = &cobra.Command{
	Use:   "classify FILE...",
	Short: "Score result files against the roster",
	Long: `Processes result files locally, in the given order, and prints the
classification followed by the season standings. Race name and distance
default to the metadata encoded in each file name.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runClassify,
}

func init() {
	classifyCmd.Flags().IntVarP(&classifyDistance, "distance", "d", 0, "race distance in km (overrides the file name)")
	classifyCmd.Flags().StringVar(&classifyRace, "race", "", "race name (overrides the file name)")
	classifyCmd.Flags().IntVarP(&classifyTop, "top", "n", 50, "number of standings rows")
	classifyCmd.Flags().BoolVar(&classifyJSON, "json", false, "output JSON")
	rootCmd.AddCommand(classifyCmd)
}

type classifyOutput struct {
	Classification []types.ClassificationEntry `json:"classification"`
	Standings      []types.Standing            `json:"standings"`
}

func runClassify(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	members, err := loadMembers()
	if err != nil {
		return err
	}

	log := logger.Named("classify")
	parser := raceresult.NewParser(newRepository(), raceresult.WithLogger(log))
	season := repository.NewSeasonStore(repository.WithLogger(log))
	race := model.RaceDistance{Name: classifyRace, DistanceKm: classifyDistance}

	for i, path := range args {
		race.Number = i + 1
		c := classification.New()
		sum, err := parser.Parse(ctx, path, race, members, c)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		if _, err := season.Merge(ctx, c); err != nil {
			return err
		}
		log.Info(ctx, "file classified",
			logger.String("file", path),
			logger.String("race", sum.Race.Name),
			logger.Int("scored", sum.Scored),
			logger.Int("updates", sum.Updates))
	}

	standings, err := season.Standings(ctx, max(classifyTop, 1))
	if err != nil {
		return err
	}
	all := season.Classifications(ctx)
	entries := make([]types.ClassificationEntry, len(all))
	for i := range all {
		entries[i] = all[i].Entry()
	}

	out := cmd.OutOrStdout()
	if classifyJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(classifyOutput{Classification: entries, Standings: standings})
	}
	if err := batch.RenderClassification(out, entries); err != nil {
		return err
	}
	fmt.Fprintln(out)
	return batch.RenderStandings(out, standings)
}
