package storage

import (
	"testing"

	"github.com/pable/go-pbp-metrics/internal/model"
)

func openMemDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(":memory:")
	if err != nil {
		t.Fatalf("open in-memory db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func sampleGame() model.GameSummary {
	return model.GameSummary{
		GameID:     "HOU-DAL-20250115",
		ImportID:   "f2a1",
		Date:       "2025-01-15",
		HomeTeam:   "HOU",
		AwayTeam:   "DAL",
		EventCount: 480,
		PossCount:  198,
		Periods:    4,
	}
}

func TestGameInsertAndExists(t *testing.T) {
	db := openMemDB(t)

	if err := db.InsertGame(sampleGame()); err != nil {
		t.Fatalf("InsertGame: %v", err)
	}

	exists, err := db.GameExists("HOU-DAL-20250115")
	if err != nil {
		t.Fatalf("GameExists: %v", err)
	}
	if !exists {
		t.Error("expected game to exist after insert")
	}

	exists2, _ := db.GameExists("nonexistent")
	if exists2 {
		t.Error("expected non-existent game to not exist")
	}
}

func TestListGamesOrderedByDate(t *testing.T) {
	db := openMemDB(t)

	games := []model.GameSummary{
		{GameID: "g1", ImportID: "a", Date: "2025-01-01", HomeTeam: "HOU", AwayTeam: "DAL"},
		{GameID: "g2", ImportID: "b", Date: "2025-02-01", HomeTeam: "DAL", AwayTeam: "HOU"},
	}
	for _, g := range games {
		if err := db.InsertGame(g); err != nil {
			t.Fatalf("InsertGame: %v", err)
		}
	}

	list, err := db.ListGames()
	if err != nil {
		t.Fatalf("ListGames: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 games, got %d", len(list))
	}
	// Ordered by date DESC, so g2 should be first.
	if list[0].GameID != "g2" {
		t.Errorf("expected g2 first (newest), got %s", list[0].GameID)
	}
}

func TestLineupStatesRoundTrip(t *testing.T) {
	db := openMemDB(t)

	unit, err := model.NewRosterUnit(100, "HOU", []int64{105, 101, 103, 102, 104})
	if err != nil {
		t.Fatalf("NewRosterUnit: %v", err)
	}
	states := []model.LineupState{
		{Period: 1, GameClock: "12:00", ClockSeconds: 720, Unit: unit},
		{Period: 1, GameClock: "6:40", ClockSeconds: 400, Unit: unit},
	}

	if err := db.InsertLineupStates("g1", states); err != nil {
		t.Fatalf("InsertLineupStates: %v", err)
	}

	got, err := db.GetLineupStates("g1")
	if err != nil {
		t.Fatalf("GetLineupStates: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 states, got %d", len(got))
	}
	if got[0].ClockSeconds != 720 || got[1].ClockSeconds != 400 {
		t.Errorf("states out of order: %d, %d", got[0].ClockSeconds, got[1].ClockSeconds)
	}
	if got[0].Unit.UnitID() != "HOU_101_102_103_104_105" {
		t.Errorf("unit id = %s, want HOU_101_102_103_104_105", got[0].Unit.UnitID())
	}
}

func TestPlayerIntervalsRoundTrip(t *testing.T) {
	db := openMemDB(t)

	intervals := []model.PlayerInterval{
		{PlayerID: 101, TeamID: 100, PeriodStart: 1, WallClockStart: 1000, PeriodEnd: 2, WallClockEnd: 3000, Source: model.SourceStarter},
		{PlayerID: 101, TeamID: 100, PeriodStart: 3, WallClockStart: 4000, PeriodEnd: 4, WallClockEnd: 6000, Source: model.SourceInferred},
	}
	if err := db.InsertPlayerIntervals("g1", intervals); err != nil {
		t.Fatalf("InsertPlayerIntervals: %v", err)
	}

	got, err := db.GetPlayerIntervals("g1")
	if err != nil {
		t.Fatalf("GetPlayerIntervals: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 intervals, got %d", len(got))
	}
	if got[0].Source != model.SourceStarter || got[1].Source != model.SourceInferred {
		t.Errorf("sources = %s, %s", got[0].Source, got[1].Source)
	}
}

func TestPossessionsRoundTrip(t *testing.T) {
	db := openMemDB(t)

	possessions := []model.Possession{
		{ID: 1, Period: 1, StartSeconds: 720, EndSeconds: 700, OffTeamID: 100, DefTeamID: 200, EndType: model.EndMadeShot, Points: 2},
		{ID: 2, Period: 1, StartSeconds: 700, EndSeconds: 680, OffTeamID: 100, DefTeamID: 200, EndType: model.EndTurnover},
	}
	if err := db.InsertPossessions("g1", possessions); err != nil {
		t.Fatalf("InsertPossessions: %v", err)
	}

	got, err := db.GetPossessions("g1")
	if err != nil {
		t.Fatalf("GetPossessions: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 possessions, got %d", len(got))
	}
	if got[0].EndType != model.EndMadeShot || got[0].Points != 2 {
		t.Errorf("possession 1 = %s/%d points", got[0].EndType, got[0].Points)
	}
	if got[1].ID != 2 {
		t.Errorf("possessions out of sequence: second id = %d", got[1].ID)
	}
}

func TestAttributedPossessionsRoundTrip(t *testing.T) {
	db := openMemDB(t)

	offUnit, _ := model.NewRosterUnit(100, "HOU", []int64{101, 102, 103, 104, 105})
	defUnit, _ := model.NewRosterUnit(200, "DAL", []int64{201, 202, 203, 204, 205})
	attributed := []model.AttributedPossession{{
		Possession: model.Possession{
			ID: 1, Period: 1, StartSeconds: 720, EndSeconds: 700,
			OffTeamID: 100, DefTeamID: 200, EndType: model.EndMadeShot, Points: 2,
		},
		OffUnit: offUnit,
		DefUnit: defUnit,
	}}

	if err := db.InsertAttributedPossessions("g1", attributed); err != nil {
		t.Fatalf("InsertAttributedPossessions: %v", err)
	}

	got, err := db.GetAttributedPossessions("g1")
	if err != nil {
		t.Fatalf("GetAttributedPossessions: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 attributed possession, got %d", len(got))
	}
	ap := got[0]
	if ap.OffUnit.UnitID() != offUnit.UnitID() || ap.DefUnit.UnitID() != defUnit.UnitID() {
		t.Errorf("units = %s vs %s", ap.OffUnit.UnitID(), ap.DefUnit.UnitID())
	}
	if ap.Points != 2 || ap.OffTeamID != 100 {
		t.Errorf("possession fields = %d points, off team %d", ap.Points, ap.OffTeamID)
	}
}

func TestLineupRatingsRoundTrip(t *testing.T) {
	db := openMemDB(t)

	ratings := []model.LineupRating{
		{Team: "HOU", TeamID: 100, UnitID: "HOU_1", Players: [5]int64{101, 102, 103, 104, 105},
			OffPoss: 20, DefPoss: 18, OffPoints: 24, DefPointsAllowed: 19,
			OffRating: 120.0, DefRating: 105.6, NetRating: 14.4},
		{Team: "HOU", TeamID: 100, UnitID: "HOU_2", Players: [5]int64{101, 102, 103, 104, 106},
			OffPoss: 5, DefPoss: 6, OffRating: 80.0, DefRating: 100.0, NetRating: -20.0},
	}
	if err := db.InsertLineupRatings("g1", ratings); err != nil {
		t.Fatalf("InsertLineupRatings: %v", err)
	}

	got, err := db.GetLineupRatings("g1")
	if err != nil {
		t.Fatalf("GetLineupRatings: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 ratings, got %d", len(got))
	}
	// Presentation order: more offensive possessions first.
	if got[0].UnitID != "HOU_1" {
		t.Errorf("first rating = %s, want HOU_1", got[0].UnitID)
	}
	if got[0].NetRating != 14.4 {
		t.Errorf("NetRating = %.1f, want 14.4", got[0].NetRating)
	}
}

func TestRimDefenseNullsSurviveRoundTrip(t *testing.T) {
	db := openMemDB(t)

	onPct := 0.4
	rows := []model.RimDefenseRow{
		{PlayerID: 201, TeamID: 200, Name: "Lively", Team: "DAL",
			OnMakes: 2, OnAttempts: 5, OnPct: &onPct}, // off side undefined
	}
	if err := db.InsertRimDefense("g1", rows); err != nil {
		t.Fatalf("InsertRimDefense: %v", err)
	}

	got, err := db.GetRimDefense("g1")
	if err != nil {
		t.Fatalf("GetRimDefense: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 row, got %d", len(got))
	}
	r := got[0]
	if r.OnPct == nil || *r.OnPct != 0.4 {
		t.Errorf("OnPct = %v, want 0.4", r.OnPct)
	}
	if r.OffPct != nil {
		t.Errorf("OffPct = %v, want nil", *r.OffPct)
	}
	if r.Diff != nil {
		t.Errorf("Diff = %v, want nil", *r.Diff)
	}
}

func TestDeleteGameCascades(t *testing.T) {
	db := openMemDB(t)

	if err := db.InsertGame(sampleGame()); err != nil {
		t.Fatalf("InsertGame: %v", err)
	}
	possessions := []model.Possession{
		{ID: 1, Period: 1, StartSeconds: 720, EndSeconds: 700, OffTeamID: 100, DefTeamID: 200, EndType: model.EndTurnover},
	}
	if err := db.InsertPossessions("HOU-DAL-20250115", possessions); err != nil {
		t.Fatalf("InsertPossessions: %v", err)
	}

	if err := db.DeleteGame("HOU-DAL-20250115"); err != nil {
		t.Fatalf("DeleteGame: %v", err)
	}

	exists, _ := db.GameExists("HOU-DAL-20250115")
	if exists {
		t.Error("game still exists after delete")
	}
	remaining, err := db.GetPossessions("HOU-DAL-20250115")
	if err != nil {
		t.Fatalf("GetPossessions: %v", err)
	}
	if len(remaining) != 0 {
		t.Errorf("expected 0 possessions after delete, got %d", len(remaining))
	}
}

func TestQueryRaw(t *testing.T) {
	db := openMemDB(t)

	if err := db.InsertGame(sampleGame()); err != nil {
		t.Fatalf("InsertGame: %v", err)
	}

	cols, rows, err := db.QueryRaw("SELECT game_id, poss_count FROM games")
	if err != nil {
		t.Fatalf("QueryRaw: %v", err)
	}
	if len(cols) != 2 || cols[0] != "game_id" {
		t.Errorf("columns = %v", cols)
	}
	if len(rows) != 1 || rows[0][0] != "HOU-DAL-20250115" || rows[0][1] != "198" {
		t.Errorf("rows = %v", rows)
	}
}
