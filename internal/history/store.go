// Package history implements the History Store: a durable per-SE map of
// session date to partner alias, used by the Selector to reject recent
// repeats and by the Frequency Analyzer to count per-SE pairing frequency.
package history

import (
    "context"
    "database/sql"

    "github.com/dirflash/fuse-pairing/pkg/errors"
    "github.com/dirflash/fuse-pairing/pkg/retry"
)

// Store is the History Store contract.
type Store interface {
    History(ctx context.Context, alias string) (map[string]string, error)
    RecordPair(ctx context.Context, date, a, b string) error
    MatchCount(ctx context.Context, alias string) (int, error)
}

// MySQLStore is the durable History Store implementation.
type MySQLStore struct {
    db       *sql.DB
    retryCfg retry.Config
}

func NewMySQLStore(db *sql.DB, retryCfg retry.Config) *MySQLStore {
    return &MySQLStore{db: db, retryCfg: retryCfg}
}

// History returns alias's full date -> partner map.
func (s *MySQLStore) History(ctx context.Context, alias string) (map[string]string, error) {
    out := make(map[string]string)

    err := retry.Do(ctx, s.retryCfg, "history.history", func() error {
        rows, err := s.db.QueryContext(ctx, `
            SELECT session_date, partner_alias FROM se_history WHERE alias = ?`, alias)
        if err != nil {
            return errors.Wrap(err, errors.ErrTransientStore, "history read failed")
        }
        defer rows.Close()

        for rows.Next() {
            var date, partner string
            if err := rows.Scan(&date, &partner); err != nil {
                return errors.Wrap(err, errors.ErrTransientStore, "history row scan failed")
            }
            out[date] = partner
        }
        return rows.Err()
    })
    if err != nil {
        return nil, err
    }

    return out, nil
}

// RecordPair upserts (date -> b) into a's history and (date -> a) into b's
// history. The two upserts are independent: a torn write is acceptable,
// callers must tolerate it and re-run repair on the next session.
func (s *MySQLStore) RecordPair(ctx context.Context, date, a, b string) error {
    if err := s.upsert(ctx, a, date, b); err != nil {
        return err
    }
    return s.upsert(ctx, b, date, a)
}

func (s *MySQLStore) upsert(ctx context.Context, alias, date, partner string) error {
    return retry.Do(ctx, s.retryCfg, "history.record_pair", func() error {
        _, err := s.db.ExecContext(ctx, `
            INSERT INTO se_history (alias, session_date, partner_alias)
            VALUES (?, ?, ?)
            ON DUPLICATE KEY UPDATE partner_alias = VALUES(partner_alias)`,
            alias, date, partner)
        if err != nil {
            return errors.Wrap(err, errors.ErrTransientStore, "history upsert failed")
        }
        return nil
    })
}

// MatchCount returns |history(alias)|, the Frequency Analyzer's per-SE count.
func (s *MySQLStore) MatchCount(ctx context.Context, alias string) (int, error) {
    var count int
    err := retry.Do(ctx, s.retryCfg, "history.match_count", func() error {
        row := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM se_history WHERE alias = ?`, alias)
        if err := row.Scan(&count); err != nil {
            return errors.Wrap(err, errors.ErrTransientStore, "match count read failed")
        }
        return nil
    })
    return count, err
}

// SchemaDDL is the create-table statement for se_history.
const SchemaDDL = `
CREATE TABLE IF NOT EXISTS se_history (
    alias VARCHAR(128) NOT NULL,
    session_date CHAR(10) NOT NULL,
    partner_alias VARCHAR(128) NOT NULL,
    PRIMARY KEY (alias, session_date)
);`
