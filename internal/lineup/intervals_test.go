package lineup

import (
	"testing"

	"github.com/pable/go-pbp-metrics/internal/model"
)

func activity(period int, clockSeconds int, order int, wallClock int64, playerID int64) model.Event {
	return model.Event{
		Period: period, ClockSeconds: clockSeconds, PbpOrder: order,
		WallClock: wallClock, Type: model.EventMissedShot, PlayerID1: playerID,
	}
}

func subAt(period, clockSeconds, order int, wallClock int64, out, in int64) model.Event {
	e := sub(period, clockSeconds, order, out, in)
	e.WallClock = wallClock
	return e
}

func intervalsFor(intervals []model.PlayerInterval, playerID int64) []model.PlayerInterval {
	var out []model.PlayerInterval
	for _, iv := range intervals {
		if iv.PlayerID == playerID {
			out = append(out, iv)
		}
	}
	return out
}

func TestBuildPlayerIntervals_StartersRunWholeGame(t *testing.T) {
	game := &model.RawGame{
		Players: testRoster(t),
		Events: []model.Event{
			activity(1, 700, 1, 1000, 101),
			activity(1, 100, 2, 1600, 201),
			{Period: 1, ClockSeconds: 0, PbpOrder: 3, WallClock: 1700, Type: model.EventGameEnd},
		},
	}
	intervals, diag, err := BuildPlayerIntervals(game)
	if err != nil {
		t.Fatalf("BuildPlayerIntervals: %v", err)
	}
	if len(intervals) != 10 {
		t.Fatalf("ten starters, ten intervals: got %d", len(intervals))
	}
	if diag.InferredEntries != 0 || diag.SkippedSubstitutions != 0 {
		t.Errorf("clean game must have empty diagnostics: %+v", diag)
	}
	ivs := intervalsFor(intervals, 101)
	if len(ivs) != 1 {
		t.Fatalf("player 101: want 1 interval, got %d", len(ivs))
	}
	iv := ivs[0]
	if iv.WallClockStart != 1000 || iv.WallClockEnd != 1700 {
		t.Errorf("starter interval must span first to last event: %+v", iv)
	}
	if iv.Source != model.SourceStarter {
		t.Errorf("starter interval source: want starter, got %s", iv.Source)
	}
}

func TestBuildPlayerIntervals_ExplicitSub(t *testing.T) {
	game := &model.RawGame{
		Players: testRoster(t),
		Events: []model.Event{
			activity(1, 700, 1, 1000, 101),
			subAt(1, 400, 2, 1300, 105, 106),
			{Period: 1, ClockSeconds: 0, PbpOrder: 3, WallClock: 1700, Type: model.EventGameEnd},
		},
	}
	intervals, _, err := BuildPlayerIntervals(game)
	if err != nil {
		t.Fatalf("BuildPlayerIntervals: %v", err)
	}

	out := intervalsFor(intervals, 105)
	if len(out) != 1 || out[0].WallClockEnd != 1300 {
		t.Fatalf("player 105 must close at the sub: %+v", out)
	}
	in := intervalsFor(intervals, 106)
	if len(in) != 1 {
		t.Fatalf("player 106: want 1 interval, got %d", len(in))
	}
	if in[0].WallClockStart != 1300 || in[0].WallClockEnd != 1700 {
		t.Errorf("player 106 interval: %+v", in[0])
	}
	if in[0].Source != model.SourceExplicit {
		t.Errorf("sub entry source: want explicit, got %s", in[0].Source)
	}
}

func TestBuildPlayerIntervals_InferredReentry(t *testing.T) {
	// 105 leaves in period 1; his period-2 rebound proves he returned even
	// though no substitution was logged across the boundary.
	game := &model.RawGame{
		Players: testRoster(t),
		Events: []model.Event{
			activity(1, 700, 1, 1000, 101),
			subAt(1, 400, 2, 1300, 105, 106),
			{Period: 2, ClockSeconds: 500, PbpOrder: 3, WallClock: 2200, Type: model.EventRebound, PlayerID1: 105},
			{Period: 2, ClockSeconds: 0, PbpOrder: 4, WallClock: 2900, Type: model.EventGameEnd},
		},
	}
	intervals, diag, err := BuildPlayerIntervals(game)
	if err != nil {
		t.Fatalf("BuildPlayerIntervals: %v", err)
	}
	if diag.InferredEntries != 1 {
		t.Errorf("want 1 inferred entry, got %d", diag.InferredEntries)
	}

	ivs := intervalsFor(intervals, 105)
	if len(ivs) != 2 {
		t.Fatalf("player 105: want 2 intervals, got %d: %+v", len(ivs), ivs)
	}
	re := ivs[1]
	if re.Source != model.SourceInferred {
		t.Errorf("re-entry source: want inferred, got %s", re.Source)
	}
	if re.PeriodStart != 2 || re.WallClockStart != 2200 || re.WallClockEnd != 2900 {
		t.Errorf("re-entry interval: %+v", re)
	}
	// Only 105 flips: 106 keeps running.
	if ivs106 := intervalsFor(intervals, 106); len(ivs106) != 1 || ivs106[0].WallClockEnd != 2900 {
		t.Errorf("inference must not close anyone else's interval: %+v", ivs106)
	}
}

func TestBuildPlayerIntervals_NoOverlapPerPlayer(t *testing.T) {
	game := &model.RawGame{
		Players: testRoster(t),
		Events: []model.Event{
			activity(1, 700, 1, 1000, 101),
			subAt(1, 500, 2, 1200, 105, 106),
			subAt(1, 300, 3, 1400, 106, 105), // 105 back in explicitly
			{Period: 1, ClockSeconds: 0, PbpOrder: 4, WallClock: 1700, Type: model.EventGameEnd},
		},
	}
	intervals, _, err := BuildPlayerIntervals(game)
	if err != nil {
		t.Fatalf("BuildPlayerIntervals: %v", err)
	}
	for playerID := int64(101); playerID <= 106; playerID++ {
		ivs := intervalsFor(intervals, playerID)
		for i := 1; i < len(ivs); i++ {
			if ivs[i].WallClockStart < ivs[i-1].WallClockEnd {
				t.Errorf("player %d: overlapping intervals %+v / %+v", playerID, ivs[i-1], ivs[i])
			}
		}
	}
	if got := len(intervalsFor(intervals, 105)); got != 2 {
		t.Errorf("player 105: want 2 intervals after leaving and returning, got %d", got)
	}
}

func TestBuildPlayerIntervals_MalformedSubCounted(t *testing.T) {
	game := &model.RawGame{
		Players: testRoster(t),
		Events: []model.Event{
			activity(1, 700, 1, 1000, 101),
			subAt(1, 500, 2, 1200, 106, 105), // 106 not on court
			{Period: 1, ClockSeconds: 0, PbpOrder: 3, WallClock: 1700, Type: model.EventGameEnd},
		},
	}
	_, diag, err := BuildPlayerIntervals(game)
	if err != nil {
		t.Fatalf("BuildPlayerIntervals: %v", err)
	}
	if diag.SkippedSubstitutions != 1 {
		t.Errorf("want 1 skipped substitution, got %d", diag.SkippedSubstitutions)
	}
}

func TestBuildPlayerIntervals_EmptyEvents(t *testing.T) {
	game := &model.RawGame{Players: testRoster(t)}
	intervals, _, err := BuildPlayerIntervals(game)
	if err != nil {
		t.Fatalf("BuildPlayerIntervals: %v", err)
	}
	if intervals == nil || len(intervals) != 0 {
		t.Errorf("empty input must give a typed empty result, got %v", intervals)
	}
}

func TestOnCourt(t *testing.T) {
	intervals := []model.PlayerInterval{
		{PlayerID: 101, PeriodStart: 1, WallClockStart: 1000, PeriodEnd: 1, WallClockEnd: 1500},
	}
	if !OnCourt(intervals, 101, 1, 1200) {
		t.Error("player inside interval must be on court")
	}
	if OnCourt(intervals, 101, 1, 1600) {
		t.Error("player past interval end must be off court")
	}
	if OnCourt(intervals, 102, 1, 1200) {
		t.Error("player with no intervals must be off court")
	}
}
