// Package ingest reads the validated roster/box-score and play-by-play CSV
// tables and produces the normalized in-memory event stream the core
// consumes. Schema validation proper belongs to the upstream feed; this
// package is strict about the columns the core needs and tolerant of extras.
package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/pable/go-pbp-metrics/internal/clock"
	"github.com/pable/go-pbp-metrics/internal/model"
)

// LoadGame reads both input tables and returns a fully normalized RawGame:
// events are clock-normalized, totally ordered, and shot-annotated.
func LoadGame(boxPath, pbpPath string, rimDistanceFeet float64) (*model.RawGame, error) {
	bf, err := os.Open(boxPath)
	if err != nil {
		return nil, fmt.Errorf("open box score: %w", err)
	}
	defer bf.Close()

	players, err := ReadBoxScore(bf)
	if err != nil {
		return nil, fmt.Errorf("read box score %s: %w", boxPath, err)
	}

	pf, err := os.Open(pbpPath)
	if err != nil {
		return nil, fmt.Errorf("open play-by-play: %w", err)
	}
	defer pf.Close()

	gameID, date, events, err := ReadPlayByPlay(pf)
	if err != nil {
		return nil, fmt.Errorf("read play-by-play %s: %w", pbpPath, err)
	}

	events = clock.Normalize(events)
	AnnotateShots(events, rimDistanceFeet)

	return &model.RawGame{
		GameID:  gameID,
		Date:    date,
		Players: players,
		Events:  events,
	}, nil
}

// ReadBoxScore parses the roster/box-score table.
func ReadBoxScore(r io.Reader) ([]model.PlayerRow, error) {
	rows, header, err := readCSV(r)
	if err != nil {
		return nil, err
	}
	col, err := header.require("nbaTeamId", "team", "nbaId", "name")
	if err != nil {
		return nil, err
	}
	gsCol := header.optional("gs")
	startPosCol := header.optional("startPos")
	minCol := header.optional("min")

	players := make([]model.PlayerRow, 0, len(rows))
	for i, row := range rows {
		teamID, err := parseInt64(row[col["nbaTeamId"]])
		if err != nil {
			return nil, fmt.Errorf("row %d: nbaTeamId: %w", i+2, err)
		}
		playerID, err := parseInt64(row[col["nbaId"]])
		if err != nil {
			return nil, fmt.Errorf("row %d: nbaId: %w", i+2, err)
		}
		p := model.PlayerRow{
			TeamID:   teamID,
			Team:     strings.TrimSpace(row[col["team"]]),
			PlayerID: playerID,
			Name:     strings.TrimSpace(row[col["name"]]),
		}
		// Starter status comes from gs=1 when present, else a non-empty
		// starting-position label.
		if gsCol >= 0 {
			p.Starter = strings.TrimSpace(row[gsCol]) == "1"
		} else if startPosCol >= 0 {
			p.Starter = strings.TrimSpace(row[startPosCol]) != ""
		}
		if minCol >= 0 {
			p.Minutes, _ = strconv.ParseFloat(strings.TrimSpace(row[minCol]), 64)
		}
		players = append(players, p)
	}
	return players, nil
}

// ReadPlayByPlay parses the event-log table. Returns the game id and date
// found on the rows alongside the raw (not yet normalized) events.
func ReadPlayByPlay(r io.Reader) (gameID, date string, events []model.Event, err error) {
	rows, header, err := readCSV(r)
	if err != nil {
		return "", "", nil, err
	}
	col, err := header.require("period", "gameClock", "pbpOrder", "msgType")
	if err != nil {
		return "", "", nil, err
	}
	gameIDCol := header.optional("gameId")
	dateCol := header.optional("date")
	offCol := header.optional("offTeamId")
	defCol := header.optional("defTeamId")
	wallCol := header.optional("wallClockInt")
	locXCol := header.optional("locX")
	locYCol := header.optional("locY")
	ptsCol := header.optional("pts")
	p1Col := header.optional("playerId1")
	p2Col := header.optional("playerId2")
	p3Col := header.optional("playerId3")

	events = make([]model.Event, 0, len(rows))
	for i, row := range rows {
		period, err := strconv.Atoi(strings.TrimSpace(row[col["period"]]))
		if err != nil {
			return "", "", nil, fmt.Errorf("row %d: period: %w", i+2, err)
		}
		order, err := strconv.Atoi(strings.TrimSpace(row[col["pbpOrder"]]))
		if err != nil {
			return "", "", nil, fmt.Errorf("row %d: pbpOrder: %w", i+2, err)
		}
		msgType, err := strconv.Atoi(strings.TrimSpace(row[col["msgType"]]))
		if err != nil {
			return "", "", nil, fmt.Errorf("row %d: msgType: %w", i+2, err)
		}

		e := model.Event{
			Period:       period,
			GameClock:    strings.TrimSpace(row[col["gameClock"]]),
			PbpOrder:     order,
			Type:         model.EventType(msgType),
			ShotDistance: -1,
		}
		e.ClockSeconds = clock.Parse(e.GameClock)
		e.OffTeamID = optInt64(row, offCol)
		e.DefTeamID = optInt64(row, defCol)
		e.WallClock = optInt64(row, wallCol)
		e.PlayerID1 = optInt64(row, p1Col)
		e.PlayerID2 = optInt64(row, p2Col)
		e.PlayerID3 = optInt64(row, p3Col)
		e.LocX = int(optInt64(row, locXCol))
		e.LocY = int(optInt64(row, locYCol))
		e.Points = int(optInt64(row, ptsCol))

		if gameID == "" && gameIDCol >= 0 {
			gameID = strings.TrimSpace(row[gameIDCol])
		}
		if date == "" && dateCol >= 0 {
			date = strings.TrimSpace(row[dateCol])
		}
		events = append(events, e)
	}
	return gameID, date, events, nil
}

// AnnotateShots fills ShotDistance and IsRimShot on shot attempts in place.
// The basket sits at the court origin; locX/locY are tenths of feet.
func AnnotateShots(events []model.Event, rimDistanceFeet float64) {
	for i := range events {
		t := events[i].Type
		if t != model.EventMadeShot && t != model.EventMissedShot {
			events[i].ShotDistance = -1
			events[i].IsRimShot = false
			continue
		}
		x := float64(events[i].LocX) / 10.0
		y := float64(events[i].LocY) / 10.0
		d := math.Sqrt(x*x + y*y)
		events[i].ShotDistance = d
		events[i].IsRimShot = d <= rimDistanceFeet
	}
}

// ---- CSV plumbing ----

type headerIndex map[string]int

func readCSV(r io.Reader) ([][]string, headerIndex, error) {
	// Every row must match the header's width; a ragged row is a feed
	// defect and surfaces as an ErrFieldCount with the offending line.
	cr := csv.NewReader(r)
	all, err := cr.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("read csv: %w", err)
	}
	if len(all) == 0 {
		return nil, nil, fmt.Errorf("empty csv")
	}
	header := make(headerIndex, len(all[0]))
	for i, name := range all[0] {
		header[strings.TrimSpace(name)] = i
	}
	return all[1:], header, nil
}

func (h headerIndex) require(names ...string) (map[string]int, error) {
	out := make(map[string]int, len(names))
	var missing []string
	for _, n := range names {
		idx, ok := h[n]
		if !ok {
			missing = append(missing, n)
			continue
		}
		out[n] = idx
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required columns: %s", strings.Join(missing, ", "))
	}
	return out, nil
}

func (h headerIndex) optional(name string) int {
	if idx, ok := h[name]; ok {
		return idx
	}
	return -1
}

func parseInt64(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty value")
	}
	// Feeds serialize ids as floats ("1610612745.0") in some exports.
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return int64(f), nil
	}
	return strconv.ParseInt(s, 10, 64)
}

// optInt64 reads a nullable numeric column; blanks and absent columns are 0.
func optInt64(row []string, col int) int64 {
	if col < 0 || col >= len(row) {
		return 0
	}
	s := strings.TrimSpace(row[col])
	if s == "" {
		return 0
	}
	v, err := parseInt64(s)
	if err != nil {
		return 0
	}
	return v
}
