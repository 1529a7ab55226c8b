package repository

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/okian/gameboard/internal/domain/model"
	"github.com/okian/gameboard/internal/domain/window"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

// MemoryDSN opens a private in-memory sqlite database.
const MemoryDSN = ":memory:"

// SQLiteStore is a Store backed by a sqlite database through
// modernc.org/sqlite. It keeps a single connection so writes are serialised.
type SQLiteStore struct {
	conn        *sql.DB
	busyTimeout time.Duration
}

var _ Store = (*SQLiteStore)(nil)

// OpenSQLite opens (or creates) the database at path and applies the schema.
func OpenSQLite(ctx context.Context, path string, opts ...Option) (*SQLiteStore, error) {
	s := &SQLiteStore{busyTimeout: defaultBusyTimeout}
	for _, opt := range opts {
		opt(s)
	}

	dsn := fmt.Sprintf("file:%s?_pragma=foreign_keys(1)&_pragma=busy_timeout(%d)", path, s.busyTimeout.Milliseconds())
	if path != MemoryDSN {
		dsn += "&_pragma=journal_mode(WAL)"
	}
	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	conn.SetMaxOpenConns(1)

	if _, err := conn.ExecContext(ctx, schemaSQL); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	s.conn = conn
	return s, nil
}

// Close closes the underlying connection.
func (s *SQLiteStore) Close() error {
	return s.conn.Close()
}

func (s *SQLiteStore) PlayersInGroup(ctx context.Context, groupID string) ([]string, error) {
	if err := s.exists(ctx, "SELECT 1 FROM player_groups WHERE id = ?", groupID); err != nil {
		return nil, fmt.Errorf("group %s: %w", groupID, err)
	}
	return s.column(ctx, "SELECT player_id FROM group_players WHERE group_id = ? ORDER BY position", groupID)
}

func (s *SQLiteStore) RoundsForPlayer(ctx context.Context, playerID string, w window.Window) ([]model.Round, error) {
	return s.queryRounds(ctx,
		`r.played_at >= ? AND r.played_at < ?
		 AND EXISTS (SELECT 1 FROM player_ranks x WHERE x.round_id = r.id AND x.player_id = ?)`,
		w.Start.UnixNano(), w.Until().UnixNano(), playerID)
}

func (s *SQLiteStore) RoundsForGroup(ctx context.Context, groupID string, w window.Window) ([]model.Round, error) {
	return s.queryRounds(ctx,
		"r.group_id = ? AND r.played_at >= ? AND r.played_at < ?",
		groupID, w.Start.UnixNano(), w.Until().UnixNano())
}

func (s *SQLiteStore) Round(ctx context.Context, id string) (model.Round, error) {
	rounds, err := s.queryRounds(ctx, "r.id = ?", id)
	if err != nil {
		return model.Round{}, err
	}
	if len(rounds) == 0 {
		return model.Round{}, fmt.Errorf("round %s: %w", id, ErrNotFound)
	}
	return rounds[0], nil
}

// queryRounds loads rounds matching where, with their ranks, ordered by date
// then id.
func (s *SQLiteStore) queryRounds(ctx context.Context, where string, args ...any) ([]model.Round, error) {
	rows, err := s.conn.QueryContext(ctx, `
		SELECT r.id, r.game_id, g.name, r.group_id, r.played_at,
		       pr.player_id, pr.placement, pr.score
		FROM rounds r
		JOIN games g ON g.id = r.game_id
		LEFT JOIN player_ranks pr ON pr.round_id = r.id
		WHERE `+where+`
		ORDER BY r.played_at, r.id, pr.position`, args...)
	if err != nil {
		return nil, fmt.Errorf("query rounds: %w", err)
	}
	defer rows.Close()

	var out []model.Round
	for rows.Next() {
		var (
			r         model.Round
			playedAt  int64
			playerID  sql.NullString
			placement sql.NullInt64
			score     sql.NullInt64
		)
		if err := rows.Scan(&r.ID, &r.GameID, &r.GameName, &r.GroupID, &playedAt, &playerID, &placement, &score); err != nil {
			return nil, fmt.Errorf("scan round: %w", err)
		}
		if n := len(out); n == 0 || out[n-1].ID != r.ID {
			r.Date = time.Unix(0, playedAt).UTC()
			r.Ranks = []model.PlayerRank{}
			out = append(out, r)
		}
		if !playerID.Valid {
			continue
		}
		pr := model.PlayerRank{PlayerID: playerID.String}
		if placement.Valid {
			pr.Rank = model.IntPtr(int(placement.Int64))
		}
		if score.Valid {
			pr.Score = model.IntPtr(int(score.Int64))
		}
		last := &out[len(out)-1]
		last.Ranks = append(last.Ranks, pr)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rounds: %w", err)
	}
	return out, nil
}

func (s *SQLiteStore) OldestRoundDate(ctx context.Context) (time.Time, bool, error) {
	var oldest sql.NullInt64
	if err := s.conn.QueryRowContext(ctx, "SELECT MIN(played_at) FROM rounds").Scan(&oldest); err != nil {
		return time.Time{}, false, fmt.Errorf("oldest round: %w", err)
	}
	if !oldest.Valid {
		return time.Time{}, false, nil
	}
	return time.Unix(0, oldest.Int64).UTC(), true, nil
}

func (s *SQLiteStore) Games(ctx context.Context) ([]model.Game, error) {
	rows, err := s.conn.QueryContext(ctx, "SELECT id, name, description FROM games ORDER BY name, id")
	if err != nil {
		return nil, fmt.Errorf("query games: %w", err)
	}
	defer rows.Close()

	out := []model.Game{}
	for rows.Next() {
		var g model.Game
		if err := rows.Scan(&g.ID, &g.Name, &g.Description); err != nil {
			return nil, fmt.Errorf("scan game: %w", err)
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Game(ctx context.Context, id, name string) (model.Game, error) {
	return lookupGame(ctx, s.conn, id, name)
}

type rowQuerier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// lookupGame resolves a game by ID, falling back to the lowest ID carrying
// name.
func lookupGame(ctx context.Context, q rowQuerier, id, name string) (model.Game, error) {
	var g model.Game
	err := q.QueryRowContext(ctx, `
		SELECT id, name, description FROM games
		WHERE (? <> '' AND id = ?) OR (? <> '' AND name = ?)
		ORDER BY CASE WHEN id = ? THEN 0 ELSE 1 END, id
		LIMIT 1`, id, id, name, name, id,
	).Scan(&g.ID, &g.Name, &g.Description)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Game{}, fmt.Errorf("game %s%s: %w", id, name, ErrNotFound)
	}
	if err != nil {
		return model.Game{}, fmt.Errorf("lookup game: %w", err)
	}
	return g, nil
}

func (s *SQLiteStore) Group(ctx context.Context, id string) (model.Group, error) {
	g := model.Group{ID: id}
	err := s.conn.QueryRowContext(ctx, "SELECT name FROM player_groups WHERE id = ?", id).Scan(&g.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Group{}, fmt.Errorf("group %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return model.Group{}, fmt.Errorf("query group: %w", err)
	}
	if g.Players, err = s.column(ctx, "SELECT player_id FROM group_players WHERE group_id = ? ORDER BY position", id); err != nil {
		return model.Group{}, err
	}
	if g.Admins, err = s.column(ctx, "SELECT player_id FROM group_admins WHERE group_id = ? ORDER BY position", id); err != nil {
		return model.Group{}, err
	}
	return g, nil
}

func (s *SQLiteStore) Player(ctx context.Context, id string) (model.Player, error) {
	p := model.Player{ID: id}
	err := s.conn.QueryRowContext(ctx,
		"SELECT username, primary_group, favorite_game FROM players WHERE id = ?", id,
	).Scan(&p.Username, &p.PrimaryGroup, &p.FavoriteGame)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Player{}, fmt.Errorf("player %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return model.Player{}, fmt.Errorf("query player: %w", err)
	}
	return p, nil
}

func (s *SQLiteStore) Tournament(ctx context.Context, id string) (model.Tournament, error) {
	t := model.Tournament{ID: id}
	var bracket string
	err := s.conn.QueryRowContext(ctx,
		"SELECT name, group_id, bracket_type FROM tournaments WHERE id = ?", id,
	).Scan(&t.Name, &t.GroupID, &bracket)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Tournament{}, fmt.Errorf("tournament %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return model.Tournament{}, fmt.Errorf("query tournament: %w", err)
	}
	if t.BracketType, err = bracketType(model.BracketType(bracket)); err != nil {
		return model.Tournament{}, fmt.Errorf("tournament %s: %w", id, err)
	}

	if t.Teams, err = s.teams(ctx, id); err != nil {
		return model.Tournament{}, err
	}
	if t.Matches, err = s.matches(ctx, id); err != nil {
		return model.Tournament{}, err
	}
	return t, nil
}

func (s *SQLiteStore) teams(ctx context.Context, tournamentID string) ([]model.Team, error) {
	rows, err := s.conn.QueryContext(ctx, `
		SELECT t.id, t.name, t.color, tp.player_id
		FROM teams t
		LEFT JOIN team_players tp ON tp.tournament_id = t.tournament_id AND tp.team_id = t.id
		WHERE t.tournament_id = ?
		ORDER BY t.position, tp.position`, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("query teams: %w", err)
	}
	defer rows.Close()

	out := []model.Team{}
	for rows.Next() {
		var (
			team     model.Team
			playerID sql.NullString
		)
		if err := rows.Scan(&team.ID, &team.Name, &team.Color, &playerID); err != nil {
			return nil, fmt.Errorf("scan team: %w", err)
		}
		if n := len(out); n == 0 || out[n-1].ID != team.ID {
			out = append(out, team)
		}
		if playerID.Valid {
			last := &out[len(out)-1]
			last.Players = append(last.Players, playerID.String)
		}
	}
	return out, rows.Err()
}

func (s *SQLiteStore) matches(ctx context.Context, tournamentID string) ([]model.BracketMatch, error) {
	rows, err := s.conn.QueryContext(ctx,
		"SELECT match_no, round_id FROM bracket_matches WHERE tournament_id = ? ORDER BY match_no", tournamentID)
	if err != nil {
		return nil, fmt.Errorf("query matches: %w", err)
	}
	type ref struct {
		match   int
		roundID string
	}
	var refs []ref
	for rows.Next() {
		var r ref
		if err := rows.Scan(&r.match, &r.roundID); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("scan match: %w", err)
		}
		refs = append(refs, r)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, fmt.Errorf("iterate matches: %w", err)
	}
	_ = rows.Close()

	rounds, err := s.queryRounds(ctx,
		"r.id IN (SELECT round_id FROM bracket_matches WHERE tournament_id = ?)", tournamentID)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]model.Round, len(rounds))
	for _, r := range rounds {
		byID[r.ID] = r
	}

	out := make([]model.BracketMatch, 0, len(refs))
	for _, ref := range refs {
		out = append(out, model.BracketMatch{Match: ref.match, Round: byID[ref.roundID]})
	}
	return out, nil
}

func (s *SQLiteStore) Counts(ctx context.Context) (Counts, error) {
	var c Counts
	err := s.conn.QueryRowContext(ctx, `
		SELECT (SELECT COUNT(*) FROM player_groups),
		       (SELECT COUNT(*) FROM players),
		       (SELECT COUNT(*) FROM games),
		       (SELECT COUNT(*) FROM rounds),
		       (SELECT COUNT(*) FROM tournaments)`,
	).Scan(&c.Groups, &c.Players, &c.Games, &c.Rounds, &c.Tournaments)
	if err != nil {
		return Counts{}, fmt.Errorf("counts: %w", err)
	}
	return c, nil
}

func (s *SQLiteStore) SaveGroup(ctx context.Context, g model.Group) error {
	if strings.TrimSpace(g.ID) == "" {
		return fmt.Errorf("group id: %w", ErrInvalidArgument)
	}
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO player_groups (id, name) VALUES (?, ?)
			ON CONFLICT(id) DO UPDATE SET name = excluded.name`, g.ID, g.Name); err != nil {
			return fmt.Errorf("upsert group: %w", err)
		}
		for _, table := range []string{"group_players", "group_admins"} {
			if _, err := tx.ExecContext(ctx, "DELETE FROM "+table+" WHERE group_id = ?", g.ID); err != nil {
				return fmt.Errorf("clear %s: %w", table, err)
			}
		}
		if err := insertMembers(ctx, tx, "group_players", g.ID, g.Players); err != nil {
			return err
		}
		return insertMembers(ctx, tx, "group_admins", g.ID, g.Admins)
	})
}

func insertMembers(ctx context.Context, tx *sql.Tx, table, groupID string, players []string) error {
	stmt, err := tx.PrepareContext(ctx, "INSERT OR IGNORE INTO "+table+" (group_id, player_id, position) VALUES (?, ?, ?)")
	if err != nil {
		return fmt.Errorf("prepare %s: %w", table, err)
	}
	defer stmt.Close()
	for i, p := range players {
		if _, err := stmt.ExecContext(ctx, groupID, p, i); err != nil {
			return fmt.Errorf("insert %s: %w", table, err)
		}
	}
	return nil
}

func (s *SQLiteStore) SavePlayer(ctx context.Context, p model.Player) error {
	if strings.TrimSpace(p.ID) == "" {
		return fmt.Errorf("player id: %w", ErrInvalidArgument)
	}
	_, err := s.conn.ExecContext(ctx, `
		INSERT INTO players (id, username, primary_group, favorite_game) VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			username = excluded.username,
			primary_group = excluded.primary_group,
			favorite_game = excluded.favorite_game`,
		p.ID, p.Username, p.PrimaryGroup, p.FavoriteGame)
	if err != nil {
		return fmt.Errorf("upsert player: %w", err)
	}
	return nil
}

func (s *SQLiteStore) SaveGame(ctx context.Context, g model.Game) error {
	if strings.TrimSpace(g.ID) == "" || strings.TrimSpace(g.Name) == "" {
		return fmt.Errorf("game id and name: %w", ErrInvalidArgument)
	}
	_, err := s.conn.ExecContext(ctx, `
		INSERT INTO games (id, name, description) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name, description = excluded.description`,
		g.ID, g.Name, g.Description)
	if err != nil {
		return fmt.Errorf("upsert game: %w", err)
	}
	return nil
}

func (s *SQLiteStore) SaveRound(ctx context.Context, r model.Round) (model.Round, error) {
	if strings.TrimSpace(r.ID) == "" {
		return model.Round{}, fmt.Errorf("round id: %w", ErrInvalidArgument)
	}
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		if err := txExists(ctx, tx, "SELECT 1 FROM player_groups WHERE id = ?", r.GroupID); err != nil {
			return fmt.Errorf("group %s: %w", r.GroupID, err)
		}
		game, err := lookupGame(ctx, tx, r.GameID, r.GameName)
		if err != nil {
			return err
		}
		r.GameID, r.GameName = game.ID, game.Name

		r.Date = r.Date.UTC()
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO rounds (id, game_id, group_id, played_at) VALUES (?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				game_id = excluded.game_id,
				group_id = excluded.group_id,
				played_at = excluded.played_at`,
			r.ID, r.GameID, r.GroupID, r.Date.UnixNano()); err != nil {
			return fmt.Errorf("upsert round: %w", err)
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM player_ranks WHERE round_id = ?", r.ID); err != nil {
			return fmt.Errorf("clear ranks: %w", err)
		}
		stmt, err := tx.PrepareContext(ctx,
			"INSERT INTO player_ranks (round_id, player_id, placement, score, position) VALUES (?, ?, ?, ?, ?)")
		if err != nil {
			return fmt.Errorf("prepare ranks: %w", err)
		}
		defer stmt.Close()
		for i, pr := range r.Ranks {
			if _, err := stmt.ExecContext(ctx, r.ID, pr.PlayerID, nullInt(pr.Rank), nullInt(pr.Score), i); err != nil {
				return fmt.Errorf("insert rank: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return model.Round{}, err
	}
	return r, nil
}

func (s *SQLiteStore) SaveTournament(ctx context.Context, t model.Tournament) error {
	if strings.TrimSpace(t.ID) == "" {
		return fmt.Errorf("tournament id: %w", ErrInvalidArgument)
	}
	bt, err := bracketType(t.BracketType)
	if err != nil {
		return fmt.Errorf("tournament %s: %w", t.ID, err)
	}
	t.BracketType = bt
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if err := txExists(ctx, tx, "SELECT 1 FROM player_groups WHERE id = ?", t.GroupID); err != nil {
			return fmt.Errorf("group %s: %w", t.GroupID, err)
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO tournaments (id, name, group_id, bracket_type) VALUES (?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				name = excluded.name,
				group_id = excluded.group_id,
				bracket_type = excluded.bracket_type`,
			t.ID, t.Name, t.GroupID, string(t.BracketType)); err != nil {
			return fmt.Errorf("upsert tournament: %w", err)
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM teams WHERE tournament_id = ?", t.ID); err != nil {
			return fmt.Errorf("clear teams: %w", err)
		}
		for _, team := range t.Teams {
			if err := upsertTeam(ctx, tx, t.ID, team); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *SQLiteStore) AddTeam(ctx context.Context, tournamentID string, team model.Team) error {
	if strings.TrimSpace(team.ID) == "" {
		return fmt.Errorf("team id: %w", ErrInvalidArgument)
	}
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if err := txExists(ctx, tx, "SELECT 1 FROM tournaments WHERE id = ?", tournamentID); err != nil {
			return fmt.Errorf("tournament %s: %w", tournamentID, err)
		}
		return upsertTeam(ctx, tx, tournamentID, team)
	})
}

// upsertTeam writes a team and replaces its roster. New teams go last.
func upsertTeam(ctx context.Context, tx *sql.Tx, tournamentID string, team model.Team) error {
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO teams (tournament_id, id, name, color, position)
		VALUES (?, ?, ?, ?, (SELECT COALESCE(MAX(position), -1) + 1 FROM teams WHERE tournament_id = ?))
		ON CONFLICT(tournament_id, id) DO UPDATE SET name = excluded.name, color = excluded.color`,
		tournamentID, team.ID, team.Name, team.Color, tournamentID); err != nil {
		return fmt.Errorf("upsert team: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		"DELETE FROM team_players WHERE tournament_id = ? AND team_id = ?", tournamentID, team.ID); err != nil {
		return fmt.Errorf("clear roster: %w", err)
	}
	for i, p := range team.Players {
		if _, err := tx.ExecContext(ctx,
			"INSERT OR IGNORE INTO team_players (tournament_id, team_id, player_id, position) VALUES (?, ?, ?, ?)",
			tournamentID, team.ID, p, i); err != nil {
			return fmt.Errorf("insert roster: %w", err)
		}
	}
	return nil
}

func (s *SQLiteStore) AddMatch(ctx context.Context, tournamentID string, match int, roundID string) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if err := txExists(ctx, tx, "SELECT 1 FROM tournaments WHERE id = ?", tournamentID); err != nil {
			return fmt.Errorf("tournament %s: %w", tournamentID, err)
		}
		if err := txExists(ctx, tx, "SELECT 1 FROM rounds WHERE id = ?", roundID); err != nil {
			return fmt.Errorf("round %s: %w", roundID, err)
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO bracket_matches (tournament_id, match_no, round_id) VALUES (?, ?, ?)
			ON CONFLICT(tournament_id, match_no) DO UPDATE SET round_id = excluded.round_id`,
			tournamentID, match, roundID); err != nil {
			return fmt.Errorf("upsert match: %w", err)
		}
		return nil
	})
}

func (s *SQLiteStore) inTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (s *SQLiteStore) exists(ctx context.Context, query string, args ...any) error {
	var one int
	err := s.conn.QueryRowContext(ctx, query, args...).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

func txExists(ctx context.Context, tx *sql.Tx, query string, args ...any) error {
	var one int
	err := tx.QueryRowContext(ctx, query, args...).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

func (s *SQLiteStore) column(ctx context.Context, query string, args ...any) ([]string, error) {
	rows, err := s.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}
