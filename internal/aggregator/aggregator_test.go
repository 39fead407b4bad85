package aggregator

import (
	"reflect"
	"testing"

	"github.com/pable/go-pbp-metrics/internal/attribution"
	"github.com/pable/go-pbp-metrics/internal/model"
)

const (
	teamA int64 = 100
	teamB int64 = 200
)

func unit(t *testing.T, teamID int64, team string, players ...int64) model.RosterUnit {
	t.Helper()
	u, err := model.NewRosterUnit(teamID, team, players)
	if err != nil {
		t.Fatalf("NewRosterUnit: %v", err)
	}
	return u
}

func attributed(t *testing.T, offUnit, defUnit model.RosterUnit, points int) model.AttributedPossession {
	t.Helper()
	return model.AttributedPossession{
		Possession: model.Possession{
			OffTeamID: offUnit.TeamID,
			DefTeamID: defUnit.TeamID,
			Points:    points,
			EndType:   model.EndMadeShot,
		},
		OffUnit: offUnit,
		DefUnit: defUnit,
	}
}

func TestLineupRatingsPerHundred(t *testing.T) {
	ua := unit(t, teamA, "HOU", 101, 102, 103, 104, 105)
	ub := unit(t, teamB, "DAL", 201, 202, 203, 204, 205)

	// Team A: 3 offensive possessions, 7 points. Team B: 3 defensive
	// possessions allowing the same 7.
	aps := []model.AttributedPossession{
		attributed(t, ua, ub, 2),
		attributed(t, ua, ub, 3),
		attributed(t, ua, ub, 2),
	}

	got := LineupRatings(aps)
	if len(got) != 2 {
		t.Fatalf("len(ratings) = %d, want 2", len(got))
	}

	// Sorted by team label: DAL before HOU.
	dal, hou := got[0], got[1]
	if dal.Team != "DAL" || hou.Team != "HOU" {
		t.Fatalf("rows not sorted by team: %s, %s", got[0].Team, got[1].Team)
	}

	if hou.OffPoss != 3 || hou.OffPoints != 7 {
		t.Errorf("HOU offense = %d poss %d points, want 3/7", hou.OffPoss, hou.OffPoints)
	}
	if hou.OffRating != 233.3 {
		t.Errorf("HOU OffRating = %.1f, want 233.3", hou.OffRating)
	}
	if hou.DefPoss != 0 || hou.DefRating != 0 {
		t.Errorf("HOU defense = %d poss rating %.1f, want zeros (never defended)", hou.DefPoss, hou.DefRating)
	}
	if hou.NetRating != 233.3 {
		t.Errorf("HOU NetRating = %.1f, want 233.3", hou.NetRating)
	}

	if dal.DefPoss != 3 || dal.DefPointsAllowed != 7 {
		t.Errorf("DAL defense = %d poss %d allowed, want 3/7", dal.DefPoss, dal.DefPointsAllowed)
	}
	if dal.DefRating != 233.3 || dal.NetRating != -233.3 {
		t.Errorf("DAL ratings = def %.1f net %.1f, want 233.3/-233.3", dal.DefRating, dal.NetRating)
	}
}

func TestLineupRatingsConservation(t *testing.T) {
	ua1 := unit(t, teamA, "HOU", 101, 102, 103, 104, 105)
	ua2 := unit(t, teamA, "HOU", 101, 102, 103, 104, 106)
	ub := unit(t, teamB, "DAL", 201, 202, 203, 204, 205)

	aps := []model.AttributedPossession{
		attributed(t, ua1, ub, 2),
		attributed(t, ua2, ub, 0),
		attributed(t, ua2, ub, 3),
		attributed(t, ub, ua1, 2),
	}

	got := LineupRatings(aps)

	offByTeam := make(map[int64]int)
	for _, r := range got {
		offByTeam[r.TeamID] += r.OffPoss
	}
	wantByTeam := make(map[int64]int)
	for _, ap := range aps {
		wantByTeam[ap.OffTeamID]++
	}
	if !reflect.DeepEqual(offByTeam, wantByTeam) {
		t.Errorf("offensive possessions per team = %v, want %v", offByTeam, wantByTeam)
	}
}

func TestLineupRatingsIdempotent(t *testing.T) {
	ua := unit(t, teamA, "HOU", 101, 102, 103, 104, 105)
	ub := unit(t, teamB, "DAL", 201, 202, 203, 204, 205)
	aps := []model.AttributedPossession{
		attributed(t, ua, ub, 2),
		attributed(t, ub, ua, 3),
		attributed(t, ua, ub, 0),
	}

	first := LineupRatings(aps)
	second := LineupRatings(aps)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("re-running aggregation changed the output:\nfirst:  %+v\nsecond: %+v", first, second)
	}
}

func TestFilterRatingsThreshold(t *testing.T) {
	ratings := []model.LineupRating{
		{UnitID: "HOU_a", OffPoss: 3, DefPoss: 2},
		{UnitID: "HOU_b", OffPoss: 15, DefPoss: 12},
		{UnitID: "DAL_c", OffPoss: 1, DefPoss: 9},
	}

	got := FilterRatings(ratings, 5)
	if len(got) != 2 {
		t.Fatalf("len(filtered) = %d, want 2", len(got))
	}
	if got[0].UnitID != "HOU_b" || got[1].UnitID != "DAL_c" {
		t.Errorf("filtered units = %s, %s; want HOU_b (15/12) and DAL_c (def side qualifies)",
			got[0].UnitID, got[1].UnitID)
	}
}

func TestFilterRatingsZeroKeepsAll(t *testing.T) {
	ratings := []model.LineupRating{{OffPoss: 0, DefPoss: 0}}
	if got := FilterRatings(ratings, 0); len(got) != 1 {
		t.Errorf("len(filtered) = %d, want 1", len(got))
	}
}

func TestRimDefenseNilPercentages(t *testing.T) {
	splits := []attribution.RimSplit{
		{PlayerID: 201, TeamID: teamB, OnMakes: 1, OnAttempts: 3}, // zero off-court attempts
	}
	players := []model.PlayerRow{
		{PlayerID: 201, TeamID: teamB, Team: "DAL", Name: "Lively"},
	}

	got := RimDefense(splits, nil, players)
	if len(got) != 1 {
		t.Fatalf("len(rows) = %d, want 1", len(got))
	}
	row := got[0]
	if row.OnPct == nil || *row.OnPct != 0.333 {
		t.Errorf("OnPct = %v, want 0.333", row.OnPct)
	}
	if row.OffPct != nil {
		t.Errorf("OffPct = %v, want nil for zero attempts", *row.OffPct)
	}
	if row.Diff != nil {
		t.Errorf("Diff = %v, want nil when one side is undefined", *row.Diff)
	}
	if row.Name != "Lively" || row.Team != "DAL" {
		t.Errorf("roster merge: name=%q team=%q", row.Name, row.Team)
	}
}

func TestRimDefenseSortAndCounts(t *testing.T) {
	splits := []attribution.RimSplit{
		{PlayerID: 201, TeamID: teamB, OnMakes: 3, OnAttempts: 4, OffMakes: 1, OffAttempts: 4}, // diff +0.5
		{PlayerID: 202, TeamID: teamB, OnMakes: 1, OnAttempts: 4, OffMakes: 3, OffAttempts: 4}, // diff -0.5
		{PlayerID: 203, TeamID: teamB, OnMakes: 0, OnAttempts: 2},                              // no diff
	}
	counts := []attribution.PlayerPossessionCount{
		{PlayerID: 202, TeamID: teamB, Offensive: 40, Defensive: 38},
	}

	got := RimDefense(splits, counts, nil)
	if len(got) != 3 {
		t.Fatalf("len(rows) = %d, want 3", len(got))
	}
	if got[0].PlayerID != 202 {
		t.Errorf("first row = player %d, want 202 (most negative differential)", got[0].PlayerID)
	}
	if got[2].PlayerID != 203 {
		t.Errorf("last row = player %d, want 203 (undefined differential sorts last)", got[2].PlayerID)
	}
	if got[0].Diff == nil || *got[0].Diff != -0.5 {
		t.Errorf("202 Diff = %v, want -0.5", got[0].Diff)
	}
	if got[0].OffPossessions != 40 || got[0].DefPossessions != 38 {
		t.Errorf("202 possessions = %d/%d, want 40/38", got[0].OffPossessions, got[0].DefPossessions)
	}
}
