package lineup

import (
	"sort"

	"github.com/pable/go-pbp-metrics/internal/model"
)

// playerStatus is the tracker's belief about one player.
type playerStatus int

const (
	statusUnknown playerStatus = iota
	statusOn
	statusOff
)

// BuildPlayerIntervals produces per-player court intervals in
// (period, wall-clock) coordinates using the hybrid approach: explicit
// substitutions open and close intervals, and an activity event by a player
// believed off court inserts an inferred re-entry for that player alone.
// Players still on court at the last event are closed there.
func BuildPlayerIntervals(game *model.RawGame) ([]model.PlayerInterval, model.LineupDiagnostics, error) {
	var diag model.LineupDiagnostics

	starters, err := StartingUnits(game.Players)
	if err != nil {
		return nil, diag, err
	}
	if len(game.Events) == 0 {
		return []model.PlayerInterval{}, diag, nil
	}

	playerTeam := teamMapping(game.Players)

	type entry struct {
		period    int
		wallClock int64
		source    model.TransitionSource
	}
	status := make(map[int64]playerStatus)
	openAt := make(map[int64]entry)

	first := game.Events[0]
	for _, unit := range starters {
		for _, p := range unit.Players {
			status[p] = statusOn
			openAt[p] = entry{period: first.Period, wallClock: first.WallClock, source: model.SourceStarter}
		}
	}

	var intervals []model.PlayerInterval
	closeInterval := func(playerID int64, period int, wallClock int64) {
		at := openAt[playerID]
		intervals = append(intervals, model.PlayerInterval{
			PlayerID:       playerID,
			TeamID:         playerTeam[playerID],
			PeriodStart:    at.period,
			WallClockStart: at.wallClock,
			PeriodEnd:      period,
			WallClockEnd:   wallClock,
			Source:         at.source,
		})
		delete(openAt, playerID)
	}

	for _, e := range game.Events {
		switch {
		case e.Type == model.EventSubstitution:
			out, in := e.PlayerID1, e.PlayerID2
			if out == 0 || in == 0 {
				diag.SkippedSubstitutions++
				continue
			}
			if _, ok := playerTeam[out]; !ok {
				continue // unknown team: no-op
			}
			if status[out] != statusOn || status[in] == statusOn {
				diag.SkippedSubstitutions++
				continue
			}
			closeInterval(out, e.Period, e.WallClock)
			status[out] = statusOff
			status[in] = statusOn
			openAt[in] = entry{period: e.Period, wallClock: e.WallClock, source: model.SourceExplicit}

		case e.Type.IsActivity():
			for _, playerID := range []int64{e.PlayerID1, e.PlayerID2, e.PlayerID3} {
				if playerID == 0 {
					continue
				}
				// Only a player we positively believe to be off court
				// triggers inference; a player we have never tracked may
				// just be missing a roster row.
				if status[playerID] != statusOff {
					continue
				}
				if _, ok := playerTeam[playerID]; !ok {
					continue
				}
				status[playerID] = statusOn
				openAt[playerID] = entry{period: e.Period, wallClock: e.WallClock, source: model.SourceInferred}
				diag.InferredEntries++
			}
		}
	}

	last := game.Events[len(game.Events)-1]
	stillOpen := make([]int64, 0, len(openAt))
	for playerID := range openAt {
		stillOpen = append(stillOpen, playerID)
	}
	sort.Slice(stillOpen, func(i, j int) bool { return stillOpen[i] < stillOpen[j] })
	for _, playerID := range stillOpen {
		closeInterval(playerID, last.Period, last.WallClock)
	}

	sort.SliceStable(intervals, func(i, j int) bool {
		a, b := intervals[i], intervals[j]
		if a.PlayerID != b.PlayerID {
			return a.PlayerID < b.PlayerID
		}
		if a.PeriodStart != b.PeriodStart {
			return a.PeriodStart < b.PeriodStart
		}
		return a.WallClockStart < b.WallClockStart
	})
	return intervals, diag, nil
}

// OnCourt reports whether the player has an interval covering the coordinate.
func OnCourt(intervals []model.PlayerInterval, playerID int64, period int, wallClock int64) bool {
	for _, iv := range intervals {
		if iv.PlayerID == playerID && iv.Covers(period, wallClock) {
			return true
		}
	}
	return false
}
