package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/pable/go-pbp-metrics/internal/model"
)

// PrintGameSummary prints a one-line summary header for the game.
func PrintGameSummary(w io.Writer, s model.GameSummary) {
	fmt.Fprintf(w, "\nGame: %s  |  Date: %s  |  %s vs %s  |  Events: %d  |  Possessions: %d  |  Periods: %d\n\n",
		s.GameID, s.Date, s.HomeTeam, s.AwayTeam, s.EventCount, s.PossCount, s.Periods)
}

// PrintRatingTable prints the per-unit rating table. Rows are expected
// pre-sorted and pre-filtered; names is an optional player-id lookup used to
// render the unit column, falling back to raw ids.
func PrintRatingTable(w io.Writer, ratings []model.LineupRating, names map[int64]string) {
	table := tablewriter.NewTable(w, tablewriter.WithConfig(tablewriter.Config{
		Row: tw.CellConfig{
			Alignment: tw.CellAlignment{Global: tw.AlignRight},
		},
		Header: tw.CellConfig{
			Alignment: tw.CellAlignment{Global: tw.AlignCenter},
		},
	}))

	table.Header("TEAM", "UNIT", "OFF_POSS", "DEF_POSS", "OFF_RTG", "DEF_RTG", "NET_RTG")

	for _, r := range ratings {
		table.Append(
			r.Team,
			unitLabel(r.Players, names),
			strconv.Itoa(r.OffPoss),
			strconv.Itoa(r.DefPoss),
			fmt.Sprintf("%.1f", r.OffRating),
			fmt.Sprintf("%.1f", r.DefRating),
			fmt.Sprintf("%+.1f", r.NetRating),
		)
	}
	table.Render()
}

// PrintRimDefenseTable prints the per-player rim on/off table.
// Undefined percentages render as "-", never as 0.
func PrintRimDefenseTable(w io.Writer, rows []model.RimDefenseRow) {
	table := tablewriter.NewTable(w, tablewriter.WithConfig(tablewriter.Config{
		Row: tw.CellConfig{
			Alignment: tw.CellAlignment{Global: tw.AlignRight},
		},
		Header: tw.CellConfig{
			Alignment: tw.CellAlignment{Global: tw.AlignCenter},
		},
	}))

	table.Header("PLAYER", "TEAM", "ON_FGM/FGA", "ON%", "OFF_FGM/FGA", "OFF%", "DIFF", "OFF_POSS", "DEF_POSS")

	for _, r := range rows {
		name := r.Name
		if name == "" {
			name = strconv.FormatInt(r.PlayerID, 10)
		}

		onPct := "-"
		if r.OnPct != nil {
			onPct = fmt.Sprintf("%.3f", *r.OnPct)
		}
		offPct := "-"
		if r.OffPct != nil {
			offPct = fmt.Sprintf("%.3f", *r.OffPct)
		}
		diff := "-"
		if r.Diff != nil {
			diff = fmt.Sprintf("%+.3f", *r.Diff)
		}

		table.Append(
			name,
			r.Team,
			fmt.Sprintf("%d/%d", r.OnMakes, r.OnAttempts),
			onPct,
			fmt.Sprintf("%d/%d", r.OffMakes, r.OffAttempts),
			offPct,
			diff,
			strconv.Itoa(r.OffPossessions),
			strconv.Itoa(r.DefPossessions),
		)
	}
	table.Render()
}

// PrintPossessionTable prints the possession log for one game.
func PrintPossessionTable(w io.Writer, possessions []model.Possession, labels map[int64]string) {
	table := tablewriter.NewTable(w, tablewriter.WithConfig(tablewriter.Config{
		Row: tw.CellConfig{
			Alignment: tw.CellAlignment{Global: tw.AlignRight},
		},
		Header: tw.CellConfig{
			Alignment: tw.CellAlignment{Global: tw.AlignCenter},
		},
	}))

	table.Header("#", "PERIOD", "START", "END", "DUR", "OFF", "DEF", "PTS", "END_TYPE")

	for _, p := range possessions {
		table.Append(
			strconv.Itoa(p.ID),
			strconv.Itoa(p.Period),
			clockLabel(p.StartSeconds),
			clockLabel(p.EndSeconds),
			fmt.Sprintf("%ds", p.Duration()),
			teamLabel(p.OffTeamID, labels),
			teamLabel(p.DefTeamID, labels),
			strconv.Itoa(p.Points),
			string(p.EndType),
		)
	}
	table.Render()
}

// PrintPossessionBreakdown prints per-team totals and end-type counts.
func PrintPossessionBreakdown(w io.Writer, possessions []model.Possession, labels map[int64]string) {
	poss := make(map[int64]int)
	points := make(map[int64]int)
	endTypes := make(map[model.EndType]int)
	var teams []int64
	for _, p := range possessions {
		if _, seen := poss[p.OffTeamID]; !seen {
			teams = append(teams, p.OffTeamID)
		}
		poss[p.OffTeamID]++
		points[p.OffTeamID] += p.Points
		endTypes[p.EndType]++
	}

	for _, team := range teams {
		fmt.Fprintf(w, "%s: %d possessions, %d points\n", teamLabel(team, labels), poss[team], points[team])
	}
	if len(endTypes) > 0 {
		fmt.Fprintln(w, "\nEnd types:")
		for _, et := range []model.EndType{
			model.EndMadeShot, model.EndFreeThrow, model.EndDefensiveRebound,
			model.EndTurnover, model.EndPeriod, model.EndGame,
		} {
			if n := endTypes[et]; n > 0 {
				fmt.Fprintf(w, "  %-18s %d\n", et, n)
			}
		}
	}
}

// PrintGameList prints the stored-games table for the list command.
func PrintGameList(w io.Writer, games []model.GameSummary) {
	table := tablewriter.NewTable(w, tablewriter.WithConfig(tablewriter.Config{
		Row: tw.CellConfig{
			Alignment: tw.CellAlignment{Global: tw.AlignRight},
		},
		Header: tw.CellConfig{
			Alignment: tw.CellAlignment{Global: tw.AlignCenter},
		},
	}))

	table.Header("GAME", "DATE", "HOME", "AWAY", "EVENTS", "POSS")

	for _, g := range games {
		table.Append(
			g.GameID,
			g.Date,
			g.HomeTeam,
			g.AwayTeam,
			strconv.Itoa(g.EventCount),
			strconv.Itoa(g.PossCount),
		)
	}
	table.Render()
}

func unitLabel(players [5]int64, names map[int64]string) string {
	parts := make([]string, 0, 5)
	for _, p := range players {
		if name, ok := names[p]; ok && name != "" {
			parts = append(parts, name)
			continue
		}
		parts = append(parts, strconv.FormatInt(p, 10))
	}
	return strings.Join(parts, ", ")
}

func teamLabel(teamID int64, labels map[int64]string) string {
	if label, ok := labels[teamID]; ok && label != "" {
		return label
	}
	return strconv.FormatInt(teamID, 10)
}

func clockLabel(seconds int) string {
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}
