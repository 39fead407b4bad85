package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/spf13/cobra"

	"github.com/pable/go-pbp-metrics/internal/storage"
)

var sqlCmd = &cobra.Command{
	Use:   "sql <query>",
	Short: "Run a raw SQL query against the metrics database",
	Long: `Run an arbitrary SQL query against the metrics database and print results as a table.

Schema overview:
  games(game_id, import_id, date, home_team, away_team, event_count, poss_count, periods)
  lineup_states(game_id, team_id, team, period, game_clock, clock_seconds, player_1..player_5)
  player_intervals(game_id, player_id, team_id, period_start, wall_clock_start,
    period_end, wall_clock_end, source)
  possessions(game_id, possession_id, period, start_seconds, end_seconds,
    off_team_id, def_team_id, end_type, points)
  attributed_possessions(game_id, possession_id, ..., off_player_1..5, def_player_1..5,
    off_unit_id, def_unit_id)
  lineup_ratings(game_id, team, unit_id, player_1..player_5, off_poss, def_poss,
    off_rating, def_rating, net_rating)
  rim_defense(game_id, player_id, name, team, on_makes, on_attempts, off_makes,
    off_attempts, on_pct, off_pct, diff, off_possessions, def_possessions)

Note: on_pct, off_pct and diff are NULL when the attempt count is zero.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSQL,
}

func runSQL(cmd *cobra.Command, args []string) error {
	query := strings.Join(args, " ")
	db, err := storage.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer db.Close()

	cols, rows, err := db.QueryRaw(query)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		fmt.Println("(no rows)")
		return nil
	}

	table := tablewriter.NewTable(os.Stdout, tablewriter.WithConfig(tablewriter.Config{
		Row:    tw.CellConfig{Alignment: tw.CellAlignment{Global: tw.AlignRight}},
		Header: tw.CellConfig{Alignment: tw.CellAlignment{Global: tw.AlignCenter}},
	}))

	colsAny := make([]any, len(cols))
	for i, c := range cols {
		colsAny[i] = c
	}
	table.Header(colsAny...)

	for _, row := range rows {
		rowAny := make([]any, len(row))
		for i, v := range row {
			rowAny[i] = v
		}
		table.Append(rowAny...)
	}
	table.Render()
	return nil
}
