package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/go-pbp-metrics/internal/model"
	"github.com/pable/go-pbp-metrics/internal/report"
	"github.com/pable/go-pbp-metrics/internal/storage"
)

var possessionsPeriod int

var possessionsCmd = &cobra.Command{
	Use:   "possessions <game-id>",
	Short: "Show the stored possession log for a game",
	Args:  cobra.ExactArgs(1),
	RunE:  runPossessions,
}

func init() {
	possessionsCmd.Flags().IntVar(&possessionsPeriod, "period", 0, "restrict to one period (0 = all)")
}

func runPossessions(cmd *cobra.Command, args []string) error {
	gameID := args[0]

	db, err := storage.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer db.Close()

	summary, err := db.GetGame(gameID)
	if err != nil {
		return fmt.Errorf("query game: %w", err)
	}
	if summary == nil {
		return fmt.Errorf("game not found: %s", gameID)
	}

	possessions, err := db.GetPossessions(gameID)
	if err != nil {
		return fmt.Errorf("get possessions: %w", err)
	}
	if possessionsPeriod > 0 {
		var filtered []model.Possession
		for _, p := range possessions {
			if p.Period == possessionsPeriod {
				filtered = append(filtered, p)
			}
		}
		possessions = filtered
	}
	if len(possessions) == 0 {
		fmt.Fprintln(os.Stdout, "No possessions stored for this selection.")
		return nil
	}

	labels := storedTeamLabels(db, gameID)

	report.PrintGameSummary(os.Stdout, *summary)
	report.PrintPossessionTable(os.Stdout, possessions, labels)
	fmt.Fprintln(os.Stdout)
	report.PrintPossessionBreakdown(os.Stdout, possessions, labels)
	return nil
}

// storedTeamLabels recovers team-id display labels from the stored unit
// timeline. Missing labels fall back to numeric ids at render time.
func storedTeamLabels(db *storage.DB, gameID string) map[int64]string {
	labels := make(map[int64]string)
	states, err := db.GetLineupStates(gameID)
	if err != nil {
		return labels
	}
	for _, s := range states {
		labels[s.Unit.TeamID] = s.Unit.Team
	}
	return labels
}
