package model

import (
	"fmt"
	"sort"
	"strings"
)

// EventType is the msgType code of a play-by-play event.
type EventType int

const (
	EventMadeShot     EventType = 1
	EventMissedShot   EventType = 2
	EventFreeThrow    EventType = 3
	EventRebound      EventType = 4
	EventTurnover     EventType = 5
	EventFoul         EventType = 6
	EventViolation    EventType = 7
	EventSubstitution EventType = 8
	EventPeriodEnd    EventType = 12
	EventGameEnd      EventType = 13
)

func (t EventType) String() string {
	switch t {
	case EventMadeShot:
		return "made_shot"
	case EventMissedShot:
		return "missed_shot"
	case EventFreeThrow:
		return "free_throw"
	case EventRebound:
		return "rebound"
	case EventTurnover:
		return "turnover"
	case EventFoul:
		return "foul"
	case EventViolation:
		return "violation"
	case EventSubstitution:
		return "substitution"
	case EventPeriodEnd:
		return "period_end"
	case EventGameEnd:
		return "game_end"
	default:
		return "?"
	}
}

// IsActivity reports whether the event type implies the involved players
// were on court (shot, rebound, turnover, foul, violation). Substitutions
// and administrative events are not activity.
func (t EventType) IsActivity() bool {
	return t >= EventMadeShot && t <= EventViolation
}

// ---- Raw inputs produced by ingest ----

// Event is one normalized play-by-play record. ClockSeconds, Elapsed,
// ShotDistance, IsRimShot and DefTeamID are derived during ingest; the rest
// come straight from the feed. Events are totally ordered by
// (Period, Elapsed, PbpOrder).
type Event struct {
	Period       int
	GameClock    string // display clock, "MM:SS" remaining
	ClockSeconds int    // seconds remaining in period
	Elapsed      int    // seconds since period start
	WallClock    int64  // alternative monotonic key from the feed
	PbpOrder     int    // source ordering key
	Type         EventType

	OffTeamID int64 // 0 for neutral events
	DefTeamID int64 // 0 for neutral events

	PlayerID1 int64 // 0 when absent; meaning depends on event type
	PlayerID2 int64
	PlayerID3 int64

	LocX   int // shot court coordinates, tenths of feet
	LocY   int
	Points int

	ShotDistance float64 // feet from the basket; -1 for non-shots
	IsRimShot    bool
}

// PlayerRow is one roster/box-score row.
type PlayerRow struct {
	TeamID  int64
	Team    string // display label, e.g. "HOU"
	PlayerID int64
	Name    string
	Starter bool
	Minutes float64
}

// RawGame bundles one game's validated inputs.
type RawGame struct {
	GameID  string
	Date    string
	Players []PlayerRow
	Events  []Event
}

// TeamIDs returns the distinct team ids in roster order.
func (g *RawGame) TeamIDs() []int64 {
	seen := make(map[int64]bool)
	var ids []int64
	for _, p := range g.Players {
		if !seen[p.TeamID] {
			seen[p.TeamID] = true
			ids = append(ids, p.TeamID)
		}
	}
	return ids
}

// TeamLabel returns the display label for a team id, or its numeric form.
func (g *RawGame) TeamLabel(teamID int64) string {
	for _, p := range g.Players {
		if p.TeamID == teamID {
			return p.Team
		}
	}
	return fmt.Sprintf("%d", teamID)
}

// ---- Units, states and intervals ----

// RosterUnit is a team's five-player on-court unit. Players are kept sorted
// so two units with the same members always compare equal.
type RosterUnit struct {
	TeamID  int64
	Team    string
	Players [5]int64
}

// NewRosterUnit builds a unit from an unordered set of exactly five players.
func NewRosterUnit(teamID int64, team string, players []int64) (RosterUnit, error) {
	if len(players) != 5 {
		return RosterUnit{}, fmt.Errorf("unit for team %s has %d players, expected 5", team, len(players))
	}
	sorted := append([]int64(nil), players...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	u := RosterUnit{TeamID: teamID, Team: team}
	copy(u.Players[:], sorted)
	return u, nil
}

// UnitID is the stable identity of the unit: team label plus the sorted
// player ids joined with underscores.
func (u RosterUnit) UnitID() string {
	parts := make([]string, 0, 6)
	parts = append(parts, u.Team)
	for _, p := range u.Players {
		parts = append(parts, fmt.Sprintf("%d", p))
	}
	return strings.Join(parts, "_")
}

// Contains reports whether the player is part of the unit.
func (u RosterUnit) Contains(playerID int64) bool {
	for _, p := range u.Players {
		if p == playerID {
			return true
		}
	}
	return false
}

// LineupState is one entry of a team's unit timeline: the unit that took the
// floor at ClockSeconds remaining in Period. A state stays active until the
// next state for the same team.
type LineupState struct {
	Period       int
	GameClock    string
	ClockSeconds int
	Unit         RosterUnit
}

// TransitionSource tags how an interval boundary was discovered.
type TransitionSource string

const (
	SourceStarter  TransitionSource = "starter"
	SourceExplicit TransitionSource = "explicit"
	SourceInferred TransitionSource = "inferred"
)

// PlayerInterval is one contiguous span a player spent on court, in
// (period, wall-clock) coordinates. Intervals for one player never overlap.
type PlayerInterval struct {
	PlayerID int64
	TeamID   int64

	PeriodStart    int
	WallClockStart int64
	PeriodEnd      int
	WallClockEnd   int64

	Source TransitionSource // how the opening transition was discovered
}

// Covers reports whether the interval contains the given time coordinate.
func (iv PlayerInterval) Covers(period int, wallClock int64) bool {
	return iv.PeriodStart <= period && iv.PeriodEnd >= period &&
		iv.WallClockStart <= wallClock && iv.WallClockEnd >= wallClock
}

// ---- Possessions ----

// EndType labels how a possession ended.
type EndType string

const (
	EndMadeShot         EndType = "made_shot"
	EndFreeThrow        EndType = "free_throw"
	EndDefensiveRebound EndType = "defensive_rebound"
	EndTurnover         EndType = "turnover"
	EndPeriod           EndType = "period_end"
	EndGame             EndType = "game_end"
)

// FlipsOffense reports whether the next possession belongs to the other team.
func (t EndType) FlipsOffense() bool {
	return t == EndDefensiveRebound || t == EndTurnover
}

// Possession is one contiguous span of offense for a single team.
// StartSeconds/EndSeconds are clock-remaining, so StartSeconds >= EndSeconds
// within a period. IDs are dense and 1-based in chronological order.
type Possession struct {
	ID           int
	Period       int
	StartSeconds int
	EndSeconds   int
	OffTeamID    int64
	DefTeamID    int64
	EndType      EndType
	Points       int
}

// Duration is the possession length in game-clock seconds.
func (p Possession) Duration() int {
	d := p.StartSeconds - p.EndSeconds
	if d < 0 {
		return -d
	}
	return d
}

// AttributedPossession joins a possession with the units on the floor at its
// start. It carries no identity beyond the possession it augments.
type AttributedPossession struct {
	Possession
	OffUnit RosterUnit
	DefUnit RosterUnit
}

// ---- Aggregates ----

// LineupRating holds per-unit possession counts and per-100 ratings.
// Rows are recomputed from scratch on every aggregation pass.
type LineupRating struct {
	Team    string
	TeamID  int64
	Players [5]int64
	UnitID  string

	OffPoss          int
	DefPoss          int
	OffPoints        int
	DefPointsAllowed int

	OffRating float64 // points per 100 offensive possessions, 0 if OffPoss == 0
	DefRating float64
	NetRating float64
}

// RimDefenseRow is one player's rim-shot on/off defensive split.
// Percentages are nil (not zero) when the attempt count is zero, and the
// differential is nil when either side is undefined.
type RimDefenseRow struct {
	PlayerID int64
	TeamID   int64
	Name     string
	Team     string

	OnMakes     int
	OnAttempts  int
	OffMakes    int
	OffAttempts int

	OnPct  *float64
	OffPct *float64
	Diff   *float64 // OnPct - OffPct; most negative = best rim protection

	OffPossessions int // offensive possessions played
	DefPossessions int
}

// ---- Diagnostics ----

// LineupDiagnostics counts the recoverable inconsistencies absorbed while
// building timelines. Returned instead of logged so callers can assert on it.
type LineupDiagnostics struct {
	SkippedSubstitutions int // malformed sub pairs ignored
	InferredEntries      int // re-entries recovered from activity
}

// PossessionDiagnostics counts heuristic decisions taken while segmenting.
type PossessionDiagnostics struct {
	AmbiguousRebounds int // rebounds defaulted to defensive
}

// AttributionDiagnostics counts join failures absorbed during attribution.
type AttributionDiagnostics struct {
	UnresolvedPossessions int // possessions dropped for missing a lineup side
}

// GameSummary is a lightweight record for list/show commands.
type GameSummary struct {
	GameID      string
	ImportID    string
	Date        string
	HomeTeam    string
	AwayTeam    string
	EventCount  int
	PossCount   int
	Periods     int
}
