// Package aggregator reduces attributed possessions and rim-shot splits into
// the final rating tables. Every pass recomputes from scratch, so running it
// twice over the same inputs yields identical rows.
package aggregator

import (
	"math"
	"sort"

	"github.com/pable/go-pbp-metrics/internal/attribution"
	"github.com/pable/go-pbp-metrics/internal/model"
)

type unitKey struct {
	teamID  int64
	players [5]int64
}

// LineupRatings computes per-100-possession ratings for every distinct unit.
// Offensive and defensive groupings are built independently and outer-joined
// on (team, sorted players); a unit seen only on one side gets zeros on the
// other. Ratings are 0 (not NaN) for a zero possession count.
func LineupRatings(attributed []model.AttributedPossession) []model.LineupRating {
	rows := make(map[unitKey]*model.LineupRating)

	lookup := func(u model.RosterUnit) *model.LineupRating {
		key := unitKey{teamID: u.TeamID, players: u.Players}
		r, ok := rows[key]
		if !ok {
			r = &model.LineupRating{
				Team:    u.Team,
				TeamID:  u.TeamID,
				Players: u.Players,
				UnitID:  u.UnitID(),
			}
			rows[key] = r
		}
		return r
	}

	for _, ap := range attributed {
		off := lookup(ap.OffUnit)
		off.OffPoss++
		off.OffPoints += ap.Points

		def := lookup(ap.DefUnit)
		def.DefPoss++
		def.DefPointsAllowed += ap.Points
	}

	out := make([]model.LineupRating, 0, len(rows))
	for _, r := range rows {
		offRating := 0.0
		if r.OffPoss > 0 {
			offRating = float64(r.OffPoints) / float64(r.OffPoss) * 100
		}
		defRating := 0.0
		if r.DefPoss > 0 {
			defRating = float64(r.DefPointsAllowed) / float64(r.DefPoss) * 100
		}
		r.OffRating = round1(offRating)
		r.DefRating = round1(defRating)
		r.NetRating = round1(offRating - defRating)
		out = append(out, *r)
	}

	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Team != b.Team {
			return a.Team < b.Team
		}
		if a.OffPoss != b.OffPoss {
			return a.OffPoss > b.OffPoss
		}
		if a.NetRating != b.NetRating {
			return a.NetRating > b.NetRating
		}
		return a.UnitID < b.UnitID
	})
	return out
}

// FilterRatings keeps units that reached the threshold on either side of the
// ball. A zero threshold keeps everything.
func FilterRatings(ratings []model.LineupRating, minPossessions int) []model.LineupRating {
	out := make([]model.LineupRating, 0, len(ratings))
	for _, r := range ratings {
		if r.OffPoss >= minPossessions || r.DefPoss >= minPossessions {
			out = append(out, r)
		}
	}
	return out
}

// RimDefense merges rim-shot splits with per-player possession counts and
// roster names into the final on/off table. Percentages stay nil on a zero
// attempt count, and the differential is nil when either side is undefined.
// Rows are sorted by differential ascending (best rim protection first);
// rows without a differential sort last by player id.
func RimDefense(splits []attribution.RimSplit, counts []attribution.PlayerPossessionCount, players []model.PlayerRow) []model.RimDefenseRow {
	countByPlayer := make(map[int64]attribution.PlayerPossessionCount, len(counts))
	for _, c := range counts {
		countByPlayer[c.PlayerID] = c
	}
	rosterByPlayer := make(map[int64]model.PlayerRow, len(players))
	for _, p := range players {
		rosterByPlayer[p.PlayerID] = p
	}

	out := make([]model.RimDefenseRow, 0, len(splits))
	for _, s := range splits {
		row := model.RimDefenseRow{
			PlayerID:    s.PlayerID,
			TeamID:      s.TeamID,
			OnMakes:     s.OnMakes,
			OnAttempts:  s.OnAttempts,
			OffMakes:    s.OffMakes,
			OffAttempts: s.OffAttempts,
		}
		if p, ok := rosterByPlayer[s.PlayerID]; ok {
			row.Name = p.Name
			row.Team = p.Team
		}
		if c, ok := countByPlayer[s.PlayerID]; ok {
			row.OffPossessions = c.Offensive
			row.DefPossessions = c.Defensive
		}

		row.OnPct = pct(s.OnMakes, s.OnAttempts)
		row.OffPct = pct(s.OffMakes, s.OffAttempts)
		if row.OnPct != nil && row.OffPct != nil {
			d := round3(*row.OnPct - *row.OffPct)
			row.Diff = &d
		}
		out = append(out, row)
	}

	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		switch {
		case a.Diff != nil && b.Diff != nil:
			if *a.Diff != *b.Diff {
				return *a.Diff < *b.Diff
			}
			return a.PlayerID < b.PlayerID
		case a.Diff != nil:
			return true
		case b.Diff != nil:
			return false
		default:
			return a.PlayerID < b.PlayerID
		}
	})
	return out
}

func pct(makes, attempts int) *float64 {
	if attempts == 0 {
		return nil
	}
	v := round3(float64(makes) / float64(attempts))
	return &v
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
