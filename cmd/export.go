package cmd

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/pable/go-pbp-metrics/internal/model"
	"github.com/pable/go-pbp-metrics/internal/storage"
)

var exportOut string

var exportCmd = &cobra.Command{
	Use:   "export <game-id>",
	Short: "Export a game's rating and rim-defense tables as CSV",
	Long:  "Write lineup_ratings.csv and rim_defense.csv for the given game into the output directory.",
	Args:  cobra.ExactArgs(1),
	RunE:  runExport,
}

func init() {
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", ".", "output directory")
}

func runExport(cmd *cobra.Command, args []string) error {
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

	ratings, err := db.GetLineupRatings(gameID)
	if err != nil {
		return fmt.Errorf("get lineup ratings: %w", err)
	}
	rimRows, err := db.GetRimDefense(gameID)
	if err != nil {
		return fmt.Errorf("get rim defense: %w", err)
	}

	if err := os.MkdirAll(exportOut, 0755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	ratingsPath := filepath.Join(exportOut, "lineup_ratings.csv")
	if err := writeRatingsCSV(ratingsPath, ratings); err != nil {
		return fmt.Errorf("write %s: %w", ratingsPath, err)
	}
	rimPath := filepath.Join(exportOut, "rim_defense.csv")
	if err := writeRimCSV(rimPath, rimRows); err != nil {
		return fmt.Errorf("write %s: %w", rimPath, err)
	}

	fmt.Fprintf(os.Stdout, "Exported %d rating rows and %d rim rows for %s to %s\n",
		len(ratings), len(rimRows), gameID, exportOut)
	return nil
}

func writeRatingsCSV(path string, ratings []model.LineupRating) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	header := []string{
		"team", "player_1", "player_2", "player_3", "player_4", "player_5",
		"off_poss", "def_poss", "off_rating", "def_rating", "net_rating",
	}
	if err := w.Write(header); err != nil {
		return err
	}
	for _, r := range ratings {
		rec := []string{
			r.Team,
			strconv.FormatInt(r.Players[0], 10),
			strconv.FormatInt(r.Players[1], 10),
			strconv.FormatInt(r.Players[2], 10),
			strconv.FormatInt(r.Players[3], 10),
			strconv.FormatInt(r.Players[4], 10),
			strconv.Itoa(r.OffPoss),
			strconv.Itoa(r.DefPoss),
			strconv.FormatFloat(r.OffRating, 'f', 1, 64),
			strconv.FormatFloat(r.DefRating, 'f', 1, 64),
			strconv.FormatFloat(r.NetRating, 'f', 1, 64),
		}
		if err := w.Write(rec); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func writeRimCSV(path string, rows []model.RimDefenseRow) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	header := []string{
		"player_id", "name", "team",
		"rim_fgm_on", "rim_fga_on", "rim_fgm_off", "rim_fga_off",
		"rim_fg_pct_on", "rim_fg_pct_off", "rim_fg_pct_diff",
		"offensive_possessions", "defensive_possessions",
	}
	if err := w.Write(header); err != nil {
		return err
	}
	for _, r := range rows {
		rec := []string{
			strconv.FormatInt(r.PlayerID, 10),
			r.Name,
			r.Team,
			strconv.Itoa(r.OnMakes),
			strconv.Itoa(r.OnAttempts),
			strconv.Itoa(r.OffMakes),
			strconv.Itoa(r.OffAttempts),
			csvFloat(r.OnPct),
			csvFloat(r.OffPct),
			csvFloat(r.Diff),
			strconv.Itoa(r.OffPossessions),
			strconv.Itoa(r.DefPossessions),
		}
		if err := w.Write(rec); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// csvFloat renders a nullable percentage; undefined stays an empty cell.
func csvFloat(p *float64) string {
	if p == nil {
		return ""
	}
	return strconv.FormatFloat(*p, 'f', 3, 64)
}
