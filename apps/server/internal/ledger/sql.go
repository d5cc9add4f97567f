package ledger

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// dialect holds the few spots where sqlite and postgres disagree.
type dialect struct {
	name       string
	idColumn   string
	offsetOnly string // OFFSET clause without a row limit
	forUpdate  string
	numbered   bool // $1 placeholders instead of ?
}

// sqlService is the database/sql ledger shared by the sqlite and postgres
// backends. Timestamps are stored as unix milliseconds in both.
type sqlService struct {
	db          *sql.DB
	d           dialect
	recentLimit int
	savedLimit  int
}

func (s *sqlService) q(query string) string {
	if !s.d.numbered {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (s *sqlService) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *sqlService) ensureSchema(ctx context.Context) error {
	statements := []string{
		`
CREATE TABLE IF NOT EXISTS auction_event_stream (
    id ` + s.d.idColumn + `,
    source TEXT NOT NULL,
    session_id TEXT NOT NULL,
    seq BIGINT NOT NULL,
    event_type TEXT NOT NULL,
    envelope_b64 TEXT NOT NULL DEFAULT '',
    server_ts_ms BIGINT,
    created_at_ms BIGINT NOT NULL,
    UNIQUE (source, session_id, seq)
)`,
		`CREATE INDEX IF NOT EXISTS idx_auction_event_stream_session_seq ON auction_event_stream(source, session_id, seq)`,
		`
CREATE TABLE IF NOT EXISTS auction_history (
    id ` + s.d.idColumn + `,
    source TEXT NOT NULL,
    session_id TEXT NOT NULL,
    car_id TEXT NOT NULL DEFAULT '',
    outcome TEXT NOT NULL DEFAULT '',
    winner TEXT NOT NULL DEFAULT '',
    price BIGINT NOT NULL DEFAULT 0,
    turns INTEGER NOT NULL DEFAULT 0,
    played_at_ms BIGINT NOT NULL,
    summary_json TEXT NOT NULL DEFAULT '{}',
    is_saved INTEGER NOT NULL DEFAULT 0,
    saved_at_ms BIGINT,
    created_at_ms BIGINT NOT NULL,
    updated_at_ms BIGINT NOT NULL,
    UNIQUE (source, session_id)
)`,
		`CREATE INDEX IF NOT EXISTS idx_auction_history_recent ON auction_history(source, played_at_ms DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_auction_history_saved ON auction_history(source, is_saved, saved_at_ms DESC)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("%s ledger schema: %w", s.d.name, err)
		}
	}
	return nil
}

func (s *sqlService) RecordAuction(ctx context.Context, rec Record) error {
	if err := normalizeRecord(&rec); err != nil {
		return err
	}
	summaryRaw, err := json.Marshal(rec.Summary)
	if err != nil {
		return err
	}
	nowMs := time.Now().UTC().UnixMilli()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, e := range rec.Events {
		if _, err := tx.ExecContext(ctx, s.q(`
INSERT INTO auction_event_stream (
    source, session_id, seq, event_type, envelope_b64, server_ts_ms, created_at_ms
)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (source, session_id, seq) DO UPDATE
SET
    event_type = excluded.event_type,
    envelope_b64 = excluded.envelope_b64,
    server_ts_ms = excluded.server_ts_ms
`), string(rec.Source), rec.SessionID, int64(e.Seq), e.EventType, e.EnvelopeB64, nullableInt64Ptr(e.ServerTsMs), nowMs); err != nil {
			return err
		}
	}

	if _, err := tx.ExecContext(ctx, s.q(`
INSERT INTO auction_history (
    source, session_id, car_id, outcome, winner, price, turns,
    played_at_ms, summary_json, is_saved, saved_at_ms, created_at_ms, updated_at_ms
)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, 0, NULL, ?, ?)
ON CONFLICT (source, session_id) DO UPDATE
SET
    car_id = excluded.car_id,
    outcome = excluded.outcome,
    winner = excluded.winner,
    price = excluded.price,
    turns = excluded.turns,
    played_at_ms = excluded.played_at_ms,
    summary_json = excluded.summary_json,
    updated_at_ms = excluded.updated_at_ms
`), string(rec.Source), rec.SessionID, rec.CarID, rec.Outcome, rec.Winner, rec.Price, rec.Turns,
		rec.PlayedAt.UTC().UnixMilli(), string(summaryRaw), nowMs, nowMs); err != nil {
		return err
	}

	if err := s.trimTx(ctx, tx, rec.Source); err != nil {
		return err
	}
	return tx.Commit()
}

// trimTx drops unsaved history beyond the recent limit, then the event
// streams nothing points at any more.
func (s *sqlService) trimTx(ctx context.Context, tx *sql.Tx, source Source) error {
	if s.recentLimit <= 0 {
		return nil
	}
	if _, err := tx.ExecContext(ctx, s.q(`
DELETE FROM auction_history
WHERE source = ?
  AND is_saved = 0
  AND id IN (
      SELECT id
      FROM auction_history
      WHERE source = ?
        AND is_saved = 0
      ORDER BY played_at_ms DESC, id DESC
      `+s.d.offsetOnly+`
  )
`), string(source), string(source), s.recentLimit); err != nil {
		return err
	}
	_, err := tx.ExecContext(ctx, s.q(`
DELETE FROM auction_event_stream
WHERE source = ?
  AND session_id NOT IN (
      SELECT session_id FROM auction_history WHERE source = ?
  )
`), string(source), string(source))
	return err
}

const historyColumns = `session_id, source, car_id, outcome, winner, price, turns,
    played_at_ms, summary_json, is_saved, saved_at_ms, updated_at_ms`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanHistory(row rowScanner) (HistoryItem, error) {
	var (
		item       HistoryItem
		sourceRaw  string
		playedAtMs int64
		summaryRaw string
		isSaved    int64
		savedAtMs  sql.NullInt64
		updatedMs  int64
	)
	if err := row.Scan(&item.SessionID, &sourceRaw, &item.CarID, &item.Outcome, &item.Winner, &item.Price, &item.Turns,
		&playedAtMs, &summaryRaw, &isSaved, &savedAtMs, &updatedMs); err != nil {
		return item, err
	}
	item.Source = Source(sourceRaw)
	item.PlayedAt = time.UnixMilli(playedAtMs).UTC()
	item.UpdatedAt = time.UnixMilli(updatedMs).UTC()
	item.IsSaved = isSaved != 0
	if savedAtMs.Valid {
		t := time.UnixMilli(savedAtMs.Int64).UTC()
		item.SavedAt = &t
	}
	if summaryRaw != "" {
		_ = json.Unmarshal([]byte(summaryRaw), &item.Summary)
	}
	if item.Summary == nil {
		item.Summary = map[string]any{}
	}
	return item, nil
}

func (s *sqlService) ListRecent(ctx context.Context, source Source, limit int) ([]HistoryItem, error) {
	if !isAuditSource(source) {
		return nil, fmt.Errorf("invalid source %q", source)
	}
	limit = clampLimit(limit)

	rows, err := s.db.QueryContext(ctx, s.q(`
SELECT `+historyColumns+`
FROM auction_history
WHERE source = ?
ORDER BY played_at_ms DESC, id DESC
LIMIT ?
`), string(source), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]HistoryItem, 0, limit)
	for rows.Next() {
		item, err := scanHistory(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (s *sqlService) GetAuction(ctx context.Context, source Source, sessionID string) (HistoryItem, error) {
	if !isAuditSource(source) {
		return HistoryItem{}, fmt.Errorf("invalid source %q", source)
	}
	item, err := scanHistory(s.db.QueryRowContext(ctx, s.q(`
SELECT `+historyColumns+`
FROM auction_history
WHERE source = ?
  AND session_id = ?
`), string(source), sessionID))
	if errors.Is(err, sql.ErrNoRows) {
		return item, ErrNotFound
	}
	return item, err
}

func (s *sqlService) GetAuctionEvents(ctx context.Context, source Source, sessionID string) ([]EventItem, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, ErrNotFound
	}
	if !isAuditSource(source) {
		return nil, fmt.Errorf("invalid source %q", source)
	}

	rows, err := s.db.QueryContext(ctx, s.q(`
SELECT seq, event_type, envelope_b64, server_ts_ms
FROM auction_event_stream
WHERE source = ?
  AND session_id = ?
ORDER BY seq ASC
`), string(source), sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := make([]EventItem, 0, 64)
	for rows.Next() {
		var (
			e        EventItem
			seq      int64
			serverTs sql.NullInt64
		)
		if err := rows.Scan(&seq, &e.EventType, &e.EnvelopeB64, &serverTs); err != nil {
			return nil, err
		}
		e.Seq = uint64(seq)
		if serverTs.Valid {
			v := serverTs.Int64
			e.ServerTsMs = &v
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(events) == 0 {
		return nil, ErrNotFound
	}
	return events, nil
}

func (s *sqlService) SetSaved(ctx context.Context, source Source, sessionID string, saved bool) error {
	if strings.TrimSpace(sessionID) == "" {
		return ErrNotFound
	}
	if !isAuditSource(source) {
		return fmt.Errorf("invalid source %q", source)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var current int64
	if err := tx.QueryRowContext(ctx, s.q(`
SELECT is_saved
FROM auction_history
WHERE source = ?
  AND session_id = ?
`+s.d.forUpdate), string(source), sessionID).Scan(&current); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	if (current != 0) == saved {
		return tx.Commit()
	}

	nowMs := time.Now().UTC().UnixMilli()
	if saved {
		var savedCount int
		if err := tx.QueryRowContext(ctx, s.q(`
SELECT COUNT(1)
FROM auction_history
WHERE source = ?
  AND is_saved = 1
`), string(source)).Scan(&savedCount); err != nil {
			return err
		}
		if savedCount >= s.savedLimit {
			return ErrSavedLimitReach
		}
		if _, err := tx.ExecContext(ctx, s.q(`
UPDATE auction_history
SET is_saved = 1,
    saved_at_ms = ?,
    updated_at_ms = ?
WHERE source = ?
  AND session_id = ?
`), nowMs, nowMs, string(source), sessionID); err != nil {
			return err
		}
		return tx.Commit()
	}

	if _, err := tx.ExecContext(ctx, s.q(`
UPDATE auction_history
SET is_saved = 0,
    saved_at_ms = NULL,
    updated_at_ms = ?
WHERE source = ?
  AND session_id = ?
`), nowMs, string(source), sessionID); err != nil {
		return err
	}
	if err := s.trimTx(ctx, tx, source); err != nil {
		return err
	}
	return tx.Commit()
}

func nullableInt64Ptr(v *int64) any {
	if v == nil {
		return nil
	}
	return *v
}
