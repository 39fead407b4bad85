package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/pable/go-pbp-metrics/internal/aggregator"
	"github.com/pable/go-pbp-metrics/internal/attribution"
	"github.com/pable/go-pbp-metrics/internal/config"
	"github.com/pable/go-pbp-metrics/internal/ingest"
	"github.com/pable/go-pbp-metrics/internal/lineup"
	"github.com/pable/go-pbp-metrics/internal/model"
	"github.com/pable/go-pbp-metrics/internal/possession"
	"github.com/pable/go-pbp-metrics/internal/report"
	"github.com/pable/go-pbp-metrics/internal/storage"
)

var (
	processGameID string
	processForce  bool
)

var processCmd = &cobra.Command{
	Use:   "process <box.csv> <pbp.csv>",
	Short: "Process a game's box score and play-by-play and store metrics",
	Args:  cobra.ExactArgs(2),
	RunE:  runProcess,
}

func init() {
	processCmd.Flags().StringVar(&processGameID, "game", "", "override the game id from the feed")
	processCmd.Flags().BoolVar(&processForce, "force", false, "reprocess even if the game is already stored")
}

func runProcess(cmd *cobra.Command, args []string) error {
	boxPath, pbpPath := args[0], args[1]

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger := newLogger(cfg.LogLevel)

	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return fmt.Errorf("create db dir: %w", err)
	}
	db, err := storage.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer db.Close()

	game, err := ingest.LoadGame(boxPath, pbpPath, cfg.RimDistanceFeet)
	if err != nil {
		return fmt.Errorf("load game: %w", err)
	}
	gameID := gameIdentity(game)

	exists, err := db.GameExists(gameID)
	if err != nil {
		return fmt.Errorf("check game: %w", err)
	}
	if exists && !processForce {
		fmt.Fprintf(os.Stdout, "Game %s already stored, showing cached results.\n", gameID)
		return showStoredGame(db, gameID, cfg.MinPossessions)
	}
	if exists {
		// Clear the previous run so stale rows cannot linger next to
		// the fresh ones.
		if err := db.DeleteGame(gameID); err != nil {
			return fmt.Errorf("clear previous run: %w", err)
		}
	}

	states, stateDiag, err := lineup.BuildStates(game)
	if err != nil {
		return fmt.Errorf("build lineup states: %w", err)
	}
	if stateDiag.SkippedSubstitutions > 0 {
		logger.Warn("skipped malformed substitutions", "game", gameID, "count", stateDiag.SkippedSubstitutions)
	}

	intervals, intervalDiag, err := lineup.BuildPlayerIntervals(game)
	if err != nil {
		return fmt.Errorf("build player intervals: %w", err)
	}
	if intervalDiag.InferredEntries > 0 {
		logger.Info("inferred re-entries from activity", "game", gameID, "count", intervalDiag.InferredEntries)
	}
	if intervalDiag.SkippedSubstitutions > 0 {
		logger.Warn("skipped malformed substitutions in interval tracking", "game", gameID, "count", intervalDiag.SkippedSubstitutions)
	}

	possessions, possDiag := possession.Segment(game.Events, possession.Options{
		AndOneWindowSeconds:    cfg.AndOneWindowSeconds,
		FreeThrowWindowSeconds: cfg.FreeThrowWindowSeconds,
		ReboundLookback:        cfg.ReboundLookback,
	})
	if possDiag.AmbiguousRebounds > 0 {
		logger.Info("rebounds defaulted to defensive", "game", gameID, "count", possDiag.AmbiguousRebounds)
	}

	attributed, attrDiag := attribution.AttributePossessions(possessions, states)
	if attrDiag.UnresolvedPossessions > 0 {
		logger.Warn("possessions dropped for missing lineups", "game", gameID, "count", attrDiag.UnresolvedPossessions)
	}

	ratings := aggregator.LineupRatings(attributed)
	splits := attribution.RimShotSplits(game.Events, intervals)
	counts := attribution.CountPlayerPossessions(possessions, game.Events, intervals)
	rimRows := aggregator.RimDefense(splits, counts, game.Players)

	summary := gameSummary(game, gameID, possessions)

	if err := db.InsertGame(summary); err != nil {
		return fmt.Errorf("insert game: %w", err)
	}
	if err := db.InsertLineupStates(gameID, states); err != nil {
		return fmt.Errorf("insert lineup states: %w", err)
	}
	if err := db.InsertPlayerIntervals(gameID, intervals); err != nil {
		return fmt.Errorf("insert player intervals: %w", err)
	}
	if err := db.InsertPossessions(gameID, possessions); err != nil {
		return fmt.Errorf("insert possessions: %w", err)
	}
	if err := db.InsertAttributedPossessions(gameID, attributed); err != nil {
		return fmt.Errorf("insert attributed possessions: %w", err)
	}
	if err := db.InsertLineupRatings(gameID, ratings); err != nil {
		return fmt.Errorf("insert lineup ratings: %w", err)
	}
	if err := db.InsertRimDefense(gameID, rimRows); err != nil {
		return fmt.Errorf("insert rim defense: %w", err)
	}

	report.PrintGameSummary(os.Stdout, summary)
	report.PrintRatingTable(os.Stdout, aggregator.FilterRatings(ratings, cfg.MinPossessions), playerNames(game.Players))
	report.PrintRimDefenseTable(os.Stdout, rimRows)
	report.PrintPossessionBreakdown(os.Stdout, possessions, teamLabels(game))
	return nil
}

// gameIdentity picks the stored id: the --game flag, the feed's id, or a
// fresh import id when the feed carries none.
func gameIdentity(game *model.RawGame) string {
	if processGameID != "" {
		return processGameID
	}
	if game.GameID != "" {
		return game.GameID
	}
	return uuid.NewString()
}

func gameSummary(game *model.RawGame, gameID string, possessions []model.Possession) model.GameSummary {
	periods := 0
	for _, e := range game.Events {
		if e.Period > periods {
			periods = e.Period
		}
	}
	home, away := "", ""
	if ids := game.TeamIDs(); len(ids) == 2 {
		home, away = game.TeamLabel(ids[0]), game.TeamLabel(ids[1])
	}
	return model.GameSummary{
		GameID:     gameID,
		ImportID:   uuid.NewString(),
		Date:       game.Date,
		HomeTeam:   home,
		AwayTeam:   away,
		EventCount: len(game.Events),
		PossCount:  len(possessions),
		Periods:    periods,
	}
}

func playerNames(players []model.PlayerRow) map[int64]string {
	names := make(map[int64]string, len(players))
	for _, p := range players {
		names[p.PlayerID] = lastName(p.Name)
	}
	return names
}

// lastName trims "First Last" to "Last" so five-player unit rows stay narrow.
func lastName(full string) string {
	parts := strings.Fields(full)
	if len(parts) == 0 {
		return full
	}
	return parts[len(parts)-1]
}

func teamLabels(game *model.RawGame) map[int64]string {
	labels := make(map[int64]string)
	for _, id := range game.TeamIDs() {
		labels[id] = game.TeamLabel(id)
	}
	return labels
}

func showStoredGame(db *storage.DB, gameID string, minPossessions int) error {
	summary, err := db.GetGame(gameID)
	if err != nil {
		return fmt.Errorf("query game: %w", err)
	}
	if summary == nil {
		return fmt.Errorf("game not found: %s", gameID)
	}
	ratings, err := db.GetLineupRatings(gameID)
	if err != nil {
		return fmt.Errorf("get lineup ratings: %w", err)
	}
	rimRows, err := db.GetRimDefense(gameID)
	if err != nil {
		return fmt.Errorf("get rim defense: %w", err)
	}

	names := make(map[int64]string, len(rimRows))
	for _, r := range rimRows {
		names[r.PlayerID] = lastName(r.Name)
	}

	report.PrintGameSummary(os.Stdout, *summary)
	report.PrintRatingTable(os.Stdout, aggregator.FilterRatings(ratings, minPossessions), names)
	report.PrintRimDefenseTable(os.Stdout, rimRows)
	return nil
}
