// internal/results/store.go
//
// Finished-game persistence for signed-in players.
// Responsibilities:
//   - Record a finished session and bump the player's counters in one tx.
//   - Recent games and counters for the profile page.
//   - Per-day competitive leaderboard.
//
// Guest sessions are never recorded.
package results

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/robalobadob/pokeguess/internal/daily"
	"github.com/robalobadob/pokeguess/internal/game"
)

// Result is one finished game.
type Result struct {
	ID         string    `json:"id"`
	UserID     string    `json:"-"`
	Date       string    `json:"date"`
	Mode       string    `json:"mode"`
	Difficulty string    `json:"difficulty,omitempty"`
	Target     string    `json:"target"`
	Outcome    string    `json:"outcome"`
	Attempts   int       `json:"attempts"`
	ElapsedMs  int64     `json:"elapsedMs"`
	CreatedAt  time.Time `json:"createdAt"`
}

// FromSnapshot builds the row for an ended session.
func FromSnapshot(userID string, s game.Snapshot) Result {
	r := Result{
		ID:         s.ID,
		UserID:     userID,
		Date:       daily.DateKey(s.EndedAt),
		Mode:       string(s.Mode),
		Difficulty: s.Difficulty,
		Outcome:    string(s.Outcome),
		Attempts:   s.Attempts,
		ElapsedMs:  s.Elapsed().Milliseconds(),
	}
	if s.Target != nil {
		r.Target = s.Target.Name
	}
	return r
}

// Won reports whether the result counts as a win.
func (r Result) Won() bool { return r.Outcome == string(game.OutcomeWon) }

// Stats are the per-user counters.
type Stats struct {
	GamesPlayed int `json:"gamesPlayed"`
	Wins        int `json:"wins"`
	Streak      int `json:"streak"`
}

// LBRow is one leaderboard line.
type LBRow struct {
	Username  string `json:"username"`
	Attempts  int    `json:"attempts"`
	ElapsedMs int64  `json:"elapsedMs"`
}

type Store struct{ db *sql.DB }

func NewStore(db *sql.DB) *Store { return &Store{db: db} }

// Record inserts r and bumps the user's counters. Recording the same game
// twice is a no-op.
func (s *Store) Record(ctx context.Context, r Result) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `
        INSERT OR IGNORE INTO games
            (id, user_id, date, mode, difficulty, target, outcome, attempts, elapsed_ms)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.UserID, r.Date, r.Mode, r.Difficulty, r.Target, r.Outcome, r.Attempts, r.ElapsedMs,
	)
	if err != nil {
		return fmt.Errorf("insert game: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil
	}
	if err := bumpStats(ctx, tx, r.UserID, r.Won()); err != nil {
		return fmt.Errorf("bump stats: %w", err)
	}
	return tx.Commit()
}

// bumpStats increments games played; updates wins and streak based on result.
func bumpStats(ctx context.Context, tx *sql.Tx, userID string, won bool) error {
	var st Stats
	row := tx.QueryRowContext(ctx, `SELECT games_played, wins, streak FROM users WHERE id=?`, userID)
	if err := row.Scan(&st.GamesPlayed, &st.Wins, &st.Streak); err != nil {
		return err
	}
	st.GamesPlayed++
	if won {
		st.Wins++
		st.Streak++
	} else {
		st.Streak = 0
	}
	_, err := tx.ExecContext(ctx, `UPDATE users SET games_played=?, wins=?, streak=? WHERE id=?`,
		st.GamesPlayed, st.Wins, st.Streak, userID)
	return err
}

func (s *Store) Stats(ctx context.Context, userID string) (Stats, error) {
	var st Stats
	err := s.db.QueryRowContext(ctx,
		`SELECT games_played, wins, streak FROM users WHERE id=?`, userID,
	).Scan(&st.GamesPlayed, &st.Wins, &st.Streak)
	return st, err
}

// Recent returns the user's latest games, newest first. Default limit is 50.
func (s *Store) Recent(ctx context.Context, userID string, limit int) ([]Result, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
        SELECT id, date, mode, difficulty, target, outcome, attempts, elapsed_ms, created_at
        FROM games
        WHERE user_id=?
        ORDER BY created_at DESC, rowid DESC
        LIMIT ?`, userID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Result{}
	for rows.Next() {
		r := Result{UserID: userID}
		if err := rows.Scan(&r.ID, &r.Date, &r.Mode, &r.Difficulty, &r.Target, &r.Outcome,
			&r.Attempts, &r.ElapsedMs, &r.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Leaderboard lists competitive wins for a date: fewest attempts, then
// fastest, then earliest. Default limit is 20.
func (s *Store) Leaderboard(ctx context.Context, date string, limit int) ([]LBRow, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
        SELECT u.username, g.attempts, g.elapsed_ms
        FROM games g
        JOIN users u ON u.id = g.user_id
        WHERE g.date=? AND g.mode=? AND g.outcome=?
        ORDER BY g.attempts ASC, g.elapsed_ms ASC, g.created_at ASC
        LIMIT ?`, date, string(game.ModeCompetitive), string(game.OutcomeWon), limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]LBRow, 0, limit)
	for rows.Next() {
		var r LBRow
		if err := rows.Scan(&r.Username, &r.Attempts, &r.ElapsedMs); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
