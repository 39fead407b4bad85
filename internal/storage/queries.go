package storage

import (
	"database/sql"
	"fmt"

	"github.com/pable/go-pbp-metrics/internal/model"
)

// GameExists returns true if a game with the given id is already stored.
func (db *DB) GameExists(gameID string) (bool, error) {
	var count int
	err := db.conn.QueryRow("SELECT COUNT(1) FROM games WHERE game_id = ?", gameID).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// InsertGame inserts a game record. Uses INSERT OR REPLACE for idempotency.
func (db *DB) InsertGame(summary model.GameSummary) error {
	_, err := db.conn.Exec(`
		INSERT OR REPLACE INTO games(game_id, import_id, date, home_team, away_team, event_count, poss_count, periods)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		summary.GameID, summary.ImportID, summary.Date,
		summary.HomeTeam, summary.AwayTeam,
		summary.EventCount, summary.PossCount, summary.Periods,
	)
	return err
}

// ListGames returns all stored game summaries ordered by date desc.
func (db *DB) ListGames() ([]model.GameSummary, error) {
	rows, err := db.conn.Query(`
		SELECT game_id, import_id, date, home_team, away_team, event_count, poss_count, periods
		FROM games ORDER BY date DESC, game_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.GameSummary
	for rows.Next() {
		var s model.GameSummary
		if err := rows.Scan(&s.GameID, &s.ImportID, &s.Date, &s.HomeTeam, &s.AwayTeam,
			&s.EventCount, &s.PossCount, &s.Periods); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// GetGame returns the summary for one game, or nil when absent.
func (db *DB) GetGame(gameID string) (*model.GameSummary, error) {
	var s model.GameSummary
	err := db.conn.QueryRow(`
		SELECT game_id, import_id, date, home_team, away_team, event_count, poss_count, periods
		FROM games WHERE game_id = ?`, gameID).
		Scan(&s.GameID, &s.ImportID, &s.Date, &s.HomeTeam, &s.AwayTeam,
			&s.EventCount, &s.PossCount, &s.Periods)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// DeleteGame removes a game and every derived row in a single transaction.
func (db *DB) DeleteGame(gameID string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	tables := []string{
		"rim_defense", "lineup_ratings", "attributed_possessions",
		"possessions", "player_intervals", "lineup_states", "games",
	}
	for _, table := range tables {
		if _, err := tx.Exec(fmt.Sprintf("DELETE FROM %s WHERE game_id = ?", table), gameID); err != nil {
			return fmt.Errorf("delete from %s: %w", table, err)
		}
	}
	return tx.Commit()
}

// InsertLineupStates bulk-inserts unit timeline states in a transaction.
func (db *DB) InsertLineupStates(gameID string, states []model.LineupState) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO lineup_states(
			game_id, team_id, team, period, game_clock, clock_seconds,
			player_1, player_2, player_3, player_4, player_5
		) VALUES (?,?,?,?,?,?,?,?,?,?,?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, s := range states {
		u := s.Unit
		_, err = stmt.Exec(
			gameID, u.TeamID, u.Team, s.Period, s.GameClock, s.ClockSeconds,
			u.Players[0], u.Players[1], u.Players[2], u.Players[3], u.Players[4],
		)
		if err != nil {
			return fmt.Errorf("insert lineup_states for %s: %w", u.UnitID(), err)
		}
	}
	return tx.Commit()
}

// GetLineupStates returns the stored unit timeline for a game.
func (db *DB) GetLineupStates(gameID string) ([]model.LineupState, error) {
	rows, err := db.conn.Query(`
		SELECT team_id, team, period, game_clock, clock_seconds,
		       player_1, player_2, player_3, player_4, player_5
		FROM lineup_states WHERE game_id = ?
		ORDER BY team_id, period, clock_seconds DESC`, gameID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.LineupState
	for rows.Next() {
		var s model.LineupState
		u := &s.Unit
		if err := rows.Scan(&u.TeamID, &u.Team, &s.Period, &s.GameClock, &s.ClockSeconds,
			&u.Players[0], &u.Players[1], &u.Players[2], &u.Players[3], &u.Players[4]); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// InsertPlayerIntervals bulk-inserts court-time intervals in a transaction.
func (db *DB) InsertPlayerIntervals(gameID string, intervals []model.PlayerInterval) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO player_intervals(
			game_id, player_id, team_id,
			period_start, wall_clock_start, period_end, wall_clock_end, source
		) VALUES (?,?,?,?,?,?,?,?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, iv := range intervals {
		_, err = stmt.Exec(
			gameID, iv.PlayerID, iv.TeamID,
			iv.PeriodStart, iv.WallClockStart, iv.PeriodEnd, iv.WallClockEnd,
			string(iv.Source),
		)
		if err != nil {
			return fmt.Errorf("insert player_intervals for %d: %w", iv.PlayerID, err)
		}
	}
	return tx.Commit()
}

// GetPlayerIntervals returns the stored court-time intervals for a game.
func (db *DB) GetPlayerIntervals(gameID string) ([]model.PlayerInterval, error) {
	rows, err := db.conn.Query(`
		SELECT player_id, team_id, period_start, wall_clock_start, period_end, wall_clock_end, source
		FROM player_intervals WHERE game_id = ?
		ORDER BY player_id, period_start, wall_clock_start`, gameID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.PlayerInterval
	for rows.Next() {
		var iv model.PlayerInterval
		var source string
		if err := rows.Scan(&iv.PlayerID, &iv.TeamID,
			&iv.PeriodStart, &iv.WallClockStart, &iv.PeriodEnd, &iv.WallClockEnd, &source); err != nil {
			return nil, err
		}
		iv.Source = model.TransitionSource(source)
		out = append(out, iv)
	}
	return out, rows.Err()
}

// InsertPossessions bulk-inserts possessions in a transaction.
func (db *DB) InsertPossessions(gameID string, possessions []model.Possession) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO possessions(
			game_id, possession_id, period, start_seconds, end_seconds,
			off_team_id, def_team_id, end_type, points
		) VALUES (?,?,?,?,?,?,?,?,?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, p := range possessions {
		_, err = stmt.Exec(
			gameID, p.ID, p.Period, p.StartSeconds, p.EndSeconds,
			p.OffTeamID, p.DefTeamID, string(p.EndType), p.Points,
		)
		if err != nil {
			return fmt.Errorf("insert possessions #%d: %w", p.ID, err)
		}
	}
	return tx.Commit()
}

// GetPossessions returns the stored possessions for a game in sequence order.
func (db *DB) GetPossessions(gameID string) ([]model.Possession, error) {
	rows, err := db.conn.Query(`
		SELECT possession_id, period, start_seconds, end_seconds,
		       off_team_id, def_team_id, end_type, points
		FROM possessions WHERE game_id = ?
		ORDER BY possession_id`, gameID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Possession
	for rows.Next() {
		var p model.Possession
		var endType string
		if err := rows.Scan(&p.ID, &p.Period, &p.StartSeconds, &p.EndSeconds,
			&p.OffTeamID, &p.DefTeamID, &endType, &p.Points); err != nil {
			return nil, err
		}
		p.EndType = model.EndType(endType)
		out = append(out, p)
	}
	return out, rows.Err()
}

// InsertAttributedPossessions bulk-inserts attributed possessions in a transaction.
func (db *DB) InsertAttributedPossessions(gameID string, attributed []model.AttributedPossession) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO attributed_possessions(
			game_id, possession_id, period, start_seconds, end_seconds,
			off_team_id, def_team_id, end_type, points,
			off_team, def_team,
			off_player_1, off_player_2, off_player_3, off_player_4, off_player_5,
			def_player_1, def_player_2, def_player_3, def_player_4, def_player_5,
			off_unit_id, def_unit_id
		) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, ap := range attributed {
		off, def := ap.OffUnit, ap.DefUnit
		_, err = stmt.Exec(
			gameID, ap.ID, ap.Period, ap.StartSeconds, ap.EndSeconds,
			ap.OffTeamID, ap.DefTeamID, string(ap.EndType), ap.Points,
			off.Team, def.Team,
			off.Players[0], off.Players[1], off.Players[2], off.Players[3], off.Players[4],
			def.Players[0], def.Players[1], def.Players[2], def.Players[3], def.Players[4],
			off.UnitID(), def.UnitID(),
		)
		if err != nil {
			return fmt.Errorf("insert attributed_possessions #%d: %w", ap.ID, err)
		}
	}
	return tx.Commit()
}

// GetAttributedPossessions returns the stored attributed possessions for a game.
func (db *DB) GetAttributedPossessions(gameID string) ([]model.AttributedPossession, error) {
	rows, err := db.conn.Query(`
		SELECT possession_id, period, start_seconds, end_seconds,
		       off_team_id, def_team_id, end_type, points,
		       off_team, def_team,
		       off_player_1, off_player_2, off_player_3, off_player_4, off_player_5,
		       def_player_1, def_player_2, def_player_3, def_player_4, def_player_5
		FROM attributed_possessions WHERE game_id = ?
		ORDER BY possession_id`, gameID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.AttributedPossession
	for rows.Next() {
		var ap model.AttributedPossession
		var endType string
		off, def := &ap.OffUnit, &ap.DefUnit
		if err := rows.Scan(&ap.ID, &ap.Period, &ap.StartSeconds, &ap.EndSeconds,
			&ap.OffTeamID, &ap.DefTeamID, &endType, &ap.Points,
			&off.Team, &def.Team,
			&off.Players[0], &off.Players[1], &off.Players[2], &off.Players[3], &off.Players[4],
			&def.Players[0], &def.Players[1], &def.Players[2], &def.Players[3], &def.Players[4]); err != nil {
			return nil, err
		}
		ap.EndType = model.EndType(endType)
		off.TeamID = ap.OffTeamID
		def.TeamID = ap.DefTeamID
		out = append(out, ap)
	}
	return out, rows.Err()
}

// InsertLineupRatings bulk-inserts rating rows in a transaction.
func (db *DB) InsertLineupRatings(gameID string, ratings []model.LineupRating) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO lineup_ratings(
			game_id, team, team_id, unit_id,
			player_1, player_2, player_3, player_4, player_5,
			off_poss, def_poss, off_points, def_points_allowed,
			off_rating, def_rating, net_rating
		) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, r := range ratings {
		_, err = stmt.Exec(
			gameID, r.Team, r.TeamID, r.UnitID,
			r.Players[0], r.Players[1], r.Players[2], r.Players[3], r.Players[4],
			r.OffPoss, r.DefPoss, r.OffPoints, r.DefPointsAllowed,
			r.OffRating, r.DefRating, r.NetRating,
		)
		if err != nil {
			return fmt.Errorf("insert lineup_ratings for %s: %w", r.UnitID, err)
		}
	}
	return tx.Commit()
}

// GetLineupRatings returns rating rows for a game in presentation order.
func (db *DB) GetLineupRatings(gameID string) ([]model.LineupRating, error) {
	rows, err := db.conn.Query(`
		SELECT team, team_id, unit_id,
		       player_1, player_2, player_3, player_4, player_5,
		       off_poss, def_poss, off_points, def_points_allowed,
		       off_rating, def_rating, net_rating
		FROM lineup_ratings WHERE game_id = ?
		ORDER BY team, off_poss DESC, net_rating DESC, unit_id`, gameID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.LineupRating
	for rows.Next() {
		var r model.LineupRating
		if err := rows.Scan(&r.Team, &r.TeamID, &r.UnitID,
			&r.Players[0], &r.Players[1], &r.Players[2], &r.Players[3], &r.Players[4],
			&r.OffPoss, &r.DefPoss, &r.OffPoints, &r.DefPointsAllowed,
			&r.OffRating, &r.DefRating, &r.NetRating); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// InsertRimDefense bulk-inserts rim on/off rows in a transaction.
// Undefined percentages are stored as NULL, never coerced to zero.
func (db *DB) InsertRimDefense(gameID string, rimRows []model.RimDefenseRow) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO rim_defense(
			game_id, player_id, team_id, name, team,
			on_makes, on_attempts, off_makes, off_attempts,
			on_pct, off_pct, diff,
			off_possessions, def_possessions
		) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, r := range rimRows {
		_, err = stmt.Exec(
			gameID, r.PlayerID, r.TeamID, r.Name, r.Team,
			r.OnMakes, r.OnAttempts, r.OffMakes, r.OffAttempts,
			nullFloat(r.OnPct), nullFloat(r.OffPct), nullFloat(r.Diff),
			r.OffPossessions, r.DefPossessions,
		)
		if err != nil {
			return fmt.Errorf("insert rim_defense for %d: %w", r.PlayerID, err)
		}
	}
	return tx.Commit()
}

// GetRimDefense returns rim on/off rows for a game, best protection first.
func (db *DB) GetRimDefense(gameID string) ([]model.RimDefenseRow, error) {
	rows, err := db.conn.Query(`
		SELECT player_id, team_id, name, team,
		       on_makes, on_attempts, off_makes, off_attempts,
		       on_pct, off_pct, diff,
		       off_possessions, def_possessions
		FROM rim_defense WHERE game_id = ?
		ORDER BY diff IS NULL, diff, player_id`, gameID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.RimDefenseRow
	for rows.Next() {
		var r model.RimDefenseRow
		var onPct, offPct, diff sql.NullFloat64
		if err := rows.Scan(&r.PlayerID, &r.TeamID, &r.Name, &r.Team,
			&r.OnMakes, &r.OnAttempts, &r.OffMakes, &r.OffAttempts,
			&onPct, &offPct, &diff,
			&r.OffPossessions, &r.DefPossessions); err != nil {
			return nil, err
		}
		r.OnPct = floatPtr(onPct)
		r.OffPct = floatPtr(offPct)
		r.Diff = floatPtr(diff)
		out = append(out, r)
	}
	return out, rows.Err()
}

// QueryRaw runs an arbitrary read query and returns the columns plus rows
// rendered as strings. NULL renders as "NULL".
func (db *DB) QueryRaw(query string) ([]string, [][]string, error) {
	rows, err := db.conn.Query(query)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, nil, err
	}

	var out [][]string
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, nil, err
		}
		row := make([]string, len(cols))
		for i, v := range values {
			switch val := v.(type) {
			case nil:
				row[i] = "NULL"
			case []byte:
				row[i] = string(val)
			default:
				row[i] = fmt.Sprintf("%v", val)
			}
		}
		out = append(out, row)
	}
	return cols, out, rows.Err()
}

func nullFloat(p *float64) any {
	if p == nil {
		return nil
	}
	return *p
}

func floatPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}
