// Package attribution joins the independently built timelines: possessions
// against unit states (who was on the floor when each possession started)
// and rim shots against player intervals (on/off defensive splits).
package attribution

import (
	"sort"

	"github.com/pable/go-pbp-metrics/internal/lineup"
	"github.com/pable/go-pbp-metrics/internal/model"
)

// FindLineupAt resolves the unit a team had on the floor at the given clock
// time. States are filtered to team and period and ordered clock-descending;
// the match is the last state at or before the probe time. A probe earlier
// than every remaining state falls back to the team's last known unit of the
// period. ok is false only when the team has no states in the period at all.
func FindLineupAt(states []model.LineupState, teamID int64, period, clockSeconds int) (model.RosterUnit, bool) {
	var candidates []model.LineupState
	for _, s := range states {
		if s.Unit.TeamID == teamID && s.Period == period {
			candidates = append(candidates, s)
		}
	}
	if len(candidates) == 0 {
		return model.RosterUnit{}, false
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].ClockSeconds > candidates[j].ClockSeconds
	})

	// Last state still at or before the probe (highest clock first, so the
	// final one with ClockSeconds >= probe is the nearest change).
	match := candidates[len(candidates)-1]
	for i := len(candidates) - 1; i >= 0; i-- {
		if candidates[i].ClockSeconds >= clockSeconds {
			match = candidates[i]
			break
		}
	}
	return match.Unit, true
}

// AttributePossessions joins each possession with the offensive and defensive
// units on the floor at its start. Possessions missing either side are
// dropped and counted, never guessed.
func AttributePossessions(possessions []model.Possession, states []model.LineupState) ([]model.AttributedPossession, model.AttributionDiagnostics) {
	var diag model.AttributionDiagnostics
	attributed := make([]model.AttributedPossession, 0, len(possessions))

	for _, p := range possessions {
		offUnit, offOK := FindLineupAt(states, p.OffTeamID, p.Period, p.StartSeconds)
		defUnit, defOK := FindLineupAt(states, p.DefTeamID, p.Period, p.StartSeconds)
		if !offOK || !defOK {
			diag.UnresolvedPossessions++
			continue
		}
		attributed = append(attributed, model.AttributedPossession{
			Possession: p,
			OffUnit:    offUnit,
			DefUnit:    defUnit,
		})
	}
	return attributed, diag
}

// RimSplit is one player's raw rim-shot counters, split by whether the
// player was on the floor defending when the shot went up.
type RimSplit struct {
	PlayerID int64
	TeamID   int64

	OnMakes     int
	OnAttempts  int
	OffMakes    int
	OffAttempts int
}

// RimShotSplits buckets every rim attempt against every player on the
// defending roster: on-court if a court interval covers the shot's
// (period, wall clock), off-court otherwise. Each shot lands in exactly one
// bucket per defender. Rosters are derived from the intervals themselves.
func RimShotSplits(events []model.Event, intervals []model.PlayerInterval) []RimSplit {
	playerTeam := teamMapping(intervals)

	splits := make(map[int64]*RimSplit)
	for _, e := range events {
		if !e.IsRimShot {
			continue
		}
		if e.Type != model.EventMadeShot && e.Type != model.EventMissedShot {
			continue
		}
		if e.OffTeamID == 0 || e.DefTeamID == 0 {
			continue
		}
		made := e.Type == model.EventMadeShot

		for playerID, teamID := range playerTeam {
			if teamID != e.DefTeamID {
				continue
			}
			s, ok := splits[playerID]
			if !ok {
				s = &RimSplit{PlayerID: playerID, TeamID: teamID}
				splits[playerID] = s
			}
			if lineup.OnCourt(intervals, playerID, e.Period, e.WallClock) {
				s.OnAttempts++
				if made {
					s.OnMakes++
				}
			} else {
				s.OffAttempts++
				if made {
					s.OffMakes++
				}
			}
		}
	}

	out := make([]RimSplit, 0, len(splits))
	for _, s := range splits {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PlayerID < out[j].PlayerID })
	return out
}

// PlayerPossessionCount is a player's tally of possessions spent on court.
type PlayerPossessionCount struct {
	PlayerID  int64
	TeamID    int64
	Offensive int
	Defensive int
}

// CountPlayerPossessions tallies, per player, the possessions they were on
// court for. Each possession is probed at its wall-clock midpoint, derived
// from the events inside its clock window; possessions whose window holds no
// events are skipped.
func CountPlayerPossessions(possessions []model.Possession, events []model.Event, intervals []model.PlayerInterval) []PlayerPossessionCount {
	counts := make(map[int64]*PlayerPossessionCount)

	for _, p := range possessions {
		mid, ok := midpointWallClock(p, events)
		if !ok {
			continue
		}
		for _, iv := range intervals {
			if !iv.Covers(p.Period, mid) {
				continue
			}
			c, seen := counts[iv.PlayerID]
			if !seen {
				c = &PlayerPossessionCount{PlayerID: iv.PlayerID, TeamID: iv.TeamID}
				counts[iv.PlayerID] = c
			}
			switch iv.TeamID {
			case p.OffTeamID:
				c.Offensive++
			case p.DefTeamID:
				c.Defensive++
			}
		}
	}

	out := make([]PlayerPossessionCount, 0, len(counts))
	for _, c := range counts {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PlayerID < out[j].PlayerID })
	return out
}

// midpointWallClock maps a possession's clock window onto the wall-clock axis
// using the events it contains.
func midpointWallClock(p model.Possession, events []model.Event) (int64, bool) {
	var lo, hi int64
	found := false
	for _, e := range events {
		if e.Period != p.Period || e.WallClock == 0 {
			continue
		}
		if e.ClockSeconds > p.StartSeconds || e.ClockSeconds < p.EndSeconds {
			continue
		}
		if !found || e.WallClock < lo {
			lo = e.WallClock
		}
		if !found || e.WallClock > hi {
			hi = e.WallClock
		}
		found = true
	}
	if !found {
		return 0, false
	}
	return (lo + hi) / 2, true
}

func teamMapping(intervals []model.PlayerInterval) map[int64]int64 {
	m := make(map[int64]int64)
	for _, iv := range intervals {
		m[iv.PlayerID] = iv.TeamID
	}
	return m
}
