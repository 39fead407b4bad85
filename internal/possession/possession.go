// Package possession partitions the normalized event stream into
// possessions with end-type classification. The heuristics here (and-one
// deferral, terminal free throws, defensive-rebound lookback with a
// defensive default) are documented policy, not guarantees; each defaulted
// decision is counted in the returned diagnostics.
package possession

import (
	"github.com/pable/go-pbp-metrics/internal/clock"
	"github.com/pable/go-pbp-metrics/internal/model"
)

// Options are the heuristic windows, in game-clock seconds and event counts.
type Options struct {
	AndOneWindowSeconds    int
	FreeThrowWindowSeconds int
	ReboundLookback        int
}

// DefaultOptions mirror the windows the segmentation was validated with.
func DefaultOptions() Options {
	return Options{
		AndOneWindowSeconds:    5,
		FreeThrowWindowSeconds: 10,
		ReboundLookback:        5,
	}
}

// lookAhead bounds how many subsequent events the and-one and free-throw
// checks inspect. Free-throw sequences interleave at most one rebound or
// substitution row between attempts in the source feed.
const lookAhead = 2

type ending struct {
	idx     int
	period  int
	seconds int
	endType model.EndType
}

// Segment partitions one game's ordered events into possessions.
// Zero possession-ending events yields a typed empty slice, not an error.
func Segment(events []model.Event, opts Options) ([]model.Possession, model.PossessionDiagnostics) {
	var diag model.PossessionDiagnostics

	endings := findEndings(events, opts, &diag)
	if len(endings) == 0 {
		return []model.Possession{}, diag
	}

	possessions := buildTimeline(events, endings)
	scorePossessions(possessions, events)
	return possessions, diag
}

// findEndings walks the stream and classifies possession-ending events.
func findEndings(events []model.Event, opts Options, diag *model.PossessionDiagnostics) []ending {
	var endings []ending
	for i, e := range events {
		switch e.Type {
		case model.EventMadeShot:
			if isAndOne(events, i, opts.AndOneWindowSeconds) {
				continue // closure deferred to the terminal free throw
			}
			endings = append(endings, ending{i, e.Period, e.ClockSeconds, model.EndMadeShot})

		case model.EventFreeThrow:
			if !isTerminalFreeThrow(events, i, opts.FreeThrowWindowSeconds) {
				continue
			}
			endings = append(endings, ending{i, e.Period, e.ClockSeconds, model.EndFreeThrow})

		case model.EventRebound:
			if isDefensiveRebound(events, i, opts.ReboundLookback, diag) {
				endings = append(endings, ending{i, e.Period, e.ClockSeconds, model.EndDefensiveRebound})
			}

		case model.EventTurnover:
			endings = append(endings, ending{i, e.Period, e.ClockSeconds, model.EndTurnover})

		case model.EventPeriodEnd:
			endings = append(endings, ending{i, e.Period, e.ClockSeconds, model.EndPeriod})

		case model.EventGameEnd:
			endings = append(endings, ending{i, e.Period, e.ClockSeconds, model.EndGame})
		}
	}
	return endings
}

// isAndOne reports whether the made shot at idx is immediately followed by a
// free throw from the same shooter, in which case it does not end the
// possession.
func isAndOne(events []model.Event, idx, windowSeconds int) bool {
	shot := events[idx]
	for j := idx + 1; j <= idx+lookAhead && j < len(events); j++ {
		next := events[j]
		if next.Period != shot.Period {
			break
		}
		if next.Type == model.EventFreeThrow &&
			next.PlayerID1 == shot.PlayerID1 &&
			abs(next.Elapsed-shot.Elapsed) < windowSeconds {
			return true
		}
	}
	return false
}

// isTerminalFreeThrow reports whether no further free throw by the same
// shooter follows within the window.
func isTerminalFreeThrow(events []model.Event, idx, windowSeconds int) bool {
	ft := events[idx]
	for j := idx + 1; j <= idx+lookAhead && j < len(events); j++ {
		next := events[j]
		if next.Period != ft.Period {
			break
		}
		if next.Type == model.EventFreeThrow &&
			next.PlayerID1 == ft.PlayerID1 &&
			abs(next.Elapsed-ft.Elapsed) < windowSeconds {
			return false
		}
	}
	return true
}

// isDefensiveRebound scans backwards for the most recent missed shot. A
// rebound by the other team is defensive; by the shooting team, offensive.
// No miss in the lookback window, or missing team ids, defaults to
// defensive and counts as ambiguous.
func isDefensiveRebound(events []model.Event, idx, lookback int, diag *model.PossessionDiagnostics) bool {
	reb := events[idx]
	for j := idx - 1; j >= 0 && j >= idx-lookback; j-- {
		prev := events[j]
		if prev.Type != model.EventMissedShot {
			continue
		}
		if reb.OffTeamID > 0 && prev.OffTeamID > 0 {
			return reb.OffTeamID != prev.OffTeamID
		}
		break // miss found but teams unknown: fall through to the default
	}
	diag.AmbiguousRebounds++
	return true
}

// buildTimeline converts endings into dense possessions, period by period.
// Offense flips after defensive rebounds and turnovers; every period opens
// with the team of its first attributable event.
func buildTimeline(events []model.Event, endings []ending) []model.Possession {
	teamA, teamB, ok := clock.TeamPair(events)
	if !ok {
		return []model.Possession{}
	}

	byPeriod := make(map[int][]ending)
	var periods []int
	for _, end := range endings {
		if _, seen := byPeriod[end.period]; !seen {
			periods = append(periods, end.period)
		}
		byPeriod[end.period] = append(byPeriod[end.period], end)
	}

	var possessions []model.Possession
	for _, period := range periods {
		offense, ok := firstOffense(events, period)
		if !ok {
			continue // no attributable event: nothing to segment
		}
		defense := other(offense, teamA, teamB)
		start := periodStartClock(events, period)

		for _, end := range byPeriod[period] {
			possessions = append(possessions, model.Possession{
				Period:       period,
				StartSeconds: start,
				EndSeconds:   end.seconds,
				OffTeamID:    offense,
				DefTeamID:    defense,
				EndType:      end.endType,
			})
			start = end.seconds
			if end.endType.FlipsOffense() {
				offense, defense = defense, offense
			}
		}
	}

	// Dense 1-based ids in chronological order.
	for i := range possessions {
		possessions[i].ID = i + 1
	}
	return possessions
}

// scorePossessions sums the points of scoring events that fall inside each
// possession's clock window and belong to its offense.
func scorePossessions(possessions []model.Possession, events []model.Event) {
	for i := range possessions {
		p := &possessions[i]
		for _, e := range events {
			if e.Period != p.Period || e.Points <= 0 || e.OffTeamID != p.OffTeamID {
				continue
			}
			if e.ClockSeconds <= p.StartSeconds && e.ClockSeconds >= p.EndSeconds {
				p.Points += e.Points
			}
		}
	}
}

func firstOffense(events []model.Event, period int) (int64, bool) {
	for _, e := range events {
		if e.Period == period && e.OffTeamID > 0 {
			return e.OffTeamID, true
		}
	}
	return 0, false
}

func periodStartClock(events []model.Event, period int) int {
	max := 0
	for _, e := range events {
		if e.Period == period && e.ClockSeconds > max {
			max = e.ClockSeconds
		}
	}
	return max
}

func other(team, a, b int64) int64 {
	if team == a {
		return b
	}
	return a
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
