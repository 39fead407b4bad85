// Package lineup reconstructs who was on court from starting units,
// explicit substitution events and activity-based inference.
//
// It produces two views of the same ground truth: a per-team unit timeline
// (five-player lineup states, driven by explicit substitutions only) used to
// attach lineups to possessions, and per-player court intervals (hybrid
// explicit + inferred transitions) used for on/off splits. The two are built
// separately because the unit timeline needs exactly five players at every
// state while the interval tracker recovers individual re-entries the feed
// never logged as substitutions.
package lineup

import (
	"fmt"
	"sort"

	"github.com/pable/go-pbp-metrics/internal/clock"
	"github.com/pable/go-pbp-metrics/internal/model"
)

// StartingUnits extracts each team's starting five from the roster table.
// A team without exactly five starters is a fatal input error.
func StartingUnits(players []model.PlayerRow) (map[int64]model.RosterUnit, error) {
	byTeam := make(map[int64][]int64)
	labels := make(map[int64]string)
	for _, p := range players {
		labels[p.TeamID] = p.Team
		if p.Starter {
			byTeam[p.TeamID] = append(byTeam[p.TeamID], p.PlayerID)
		}
	}
	units := make(map[int64]model.RosterUnit, len(byTeam))
	for teamID, starters := range byTeam {
		u, err := model.NewRosterUnit(teamID, labels[teamID], starters)
		if err != nil {
			return nil, fmt.Errorf("invalid starting unit: %w", err)
		}
		units[teamID] = u
	}
	if len(units) != 2 {
		return nil, fmt.Errorf("expected starting units for 2 teams, got %d", len(units))
	}
	return units, nil
}

// BuildStates produces the per-team unit timeline: one state per period start
// carrying the current five, plus one state per applied substitution.
// Malformed substitution pairs (outgoing player not on court, incoming player
// already on court) are skipped silently and counted; a participant whose
// team is unknown makes the whole substitution a no-op.
func BuildStates(game *model.RawGame) ([]model.LineupState, model.LineupDiagnostics, error) {
	var diag model.LineupDiagnostics

	starters, err := StartingUnits(game.Players)
	if err != nil {
		return nil, diag, err
	}

	playerTeam := teamMapping(game.Players)

	// Current on-court set per team, seeded from starters.
	current := make(map[int64]map[int64]bool, len(starters))
	teamIDs := make([]int64, 0, len(starters))
	for teamID, unit := range starters {
		set := make(map[int64]bool, 5)
		for _, p := range unit.Players {
			set[p] = true
		}
		current[teamID] = set
		teamIDs = append(teamIDs, teamID)
	}
	sort.Slice(teamIDs, func(i, j int) bool { return teamIDs[i] < teamIDs[j] })

	periods := periodsOf(game.Events)

	var states []model.LineupState
	emit := func(teamID int64, period, clockSeconds int, display string) error {
		unit, err := unitFromSet(teamID, game.TeamLabel(teamID), current[teamID])
		if err != nil {
			return err
		}
		states = append(states, model.LineupState{
			Period:       period,
			GameClock:    display,
			ClockSeconds: clockSeconds,
			Unit:         unit,
		})
		return nil
	}

	for _, period := range periods {
		// Whatever five were on the floor carry over the period boundary.
		periodClock := clock.PeriodLength(period)
		for _, teamID := range teamIDs {
			if err := emit(teamID, period, periodClock, clock.Format(periodClock)); err != nil {
				return nil, diag, err
			}
		}

		for _, e := range game.Events {
			if e.Period != period || e.Type != model.EventSubstitution {
				continue
			}
			out, in := e.PlayerID1, e.PlayerID2
			if out == 0 || in == 0 {
				diag.SkippedSubstitutions++
				continue
			}
			teamID, ok := playerTeam[out]
			if !ok {
				continue // unknown team: no-op
			}
			set := current[teamID]
			if set == nil {
				continue
			}
			if !set[out] || set[in] {
				diag.SkippedSubstitutions++
				continue
			}
			delete(set, out)
			set[in] = true
			if err := emit(teamID, e.Period, e.ClockSeconds, e.GameClock); err != nil {
				return nil, diag, err
			}
		}
	}

	sort.SliceStable(states, func(i, j int) bool {
		a, b := states[i], states[j]
		if a.Unit.TeamID != b.Unit.TeamID {
			return a.Unit.TeamID < b.Unit.TeamID
		}
		if a.Period != b.Period {
			return a.Period < b.Period
		}
		return a.ClockSeconds > b.ClockSeconds // higher clock = earlier
	})
	return states, diag, nil
}

func unitFromSet(teamID int64, label string, set map[int64]bool) (model.RosterUnit, error) {
	players := make([]int64, 0, len(set))
	for p := range set {
		players = append(players, p)
	}
	return model.NewRosterUnit(teamID, label, players)
}

func teamMapping(players []model.PlayerRow) map[int64]int64 {
	m := make(map[int64]int64, len(players))
	for _, p := range players {
		m[p.PlayerID] = p.TeamID
	}
	return m
}

func periodsOf(events []model.Event) []int {
	seen := make(map[int]bool)
	var periods []int
	for _, e := range events {
		if !seen[e.Period] {
			seen[e.Period] = true
			periods = append(periods, e.Period)
		}
	}
	sort.Ints(periods)
	return periods
}
