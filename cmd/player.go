package cmd

import (
	"fmt"
	"os"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/spf13/cobra"

	"github.com/pable/go-pbp-metrics/internal/model"
	"github.com/pable/go-pbp-metrics/internal/report"
	"github.com/pable/go-pbp-metrics/internal/storage"
)

var playerCmd = &cobra.Command{
	Use:   "player <game-id> <player-id>",
	Short: "Show one player's court time and rim defense for a game",
	Args:  cobra.ExactArgs(2),
	RunE:  runPlayer,
}

func runPlayer(cmd *cobra.Command, args []string) error {
	gameID := args[0]
	playerID, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid player id %q: %w", args[1], err)
	}

	db, err := storage.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer db.Close()

	intervals, err := db.GetPlayerIntervals(gameID)
	if err != nil {
		return fmt.Errorf("get player intervals: %w", err)
	}
	var own []model.PlayerInterval
	for _, iv := range intervals {
		if iv.PlayerID == playerID {
			own = append(own, iv)
		}
	}
	if len(own) == 0 {
		fmt.Fprintf(os.Stderr, "No court time stored for player %d in game %s\n", playerID, gameID)
		return nil
	}

	rimRows, err := db.GetRimDefense(gameID)
	if err != nil {
		return fmt.Errorf("get rim defense: %w", err)
	}
	var rim []model.RimDefenseRow
	for _, r := range rimRows {
		if r.PlayerID == playerID {
			rim = append(rim, r)
			break
		}
	}

	name := strconv.FormatInt(playerID, 10)
	if len(rim) > 0 && rim[0].Name != "" {
		name = rim[0].Name
	}
	fmt.Fprintf(os.Stdout, "\nPlayer: %s  |  Game: %s  |  Stints: %d\n\n", name, gameID, len(own))

	printIntervalTable(own)

	if len(rim) > 0 {
		fmt.Fprintln(os.Stdout)
		report.PrintRimDefenseTable(os.Stdout, rim)
	}
	return nil
}

func printIntervalTable(intervals []model.PlayerInterval) {
	table := tablewriter.NewTable(os.Stdout, tablewriter.WithConfig(tablewriter.Config{
		Row:    tw.CellConfig{Alignment: tw.CellAlignment{Global: tw.AlignRight}},
		Header: tw.CellConfig{Alignment: tw.CellAlignment{Global: tw.AlignCenter}},
	}))

	table.Header("#", "IN_PERIOD", "IN_WALLCLOCK", "OUT_PERIOD", "OUT_WALLCLOCK", "SOURCE")

	for i, iv := range intervals {
		table.Append(
			strconv.Itoa(i+1),
			strconv.Itoa(iv.PeriodStart),
			strconv.FormatInt(iv.WallClockStart, 10),
			strconv.Itoa(iv.PeriodEnd),
			strconv.FormatInt(iv.WallClockEnd, 10),
			string(iv.Source),
		)
	}
	table.Render()
}
