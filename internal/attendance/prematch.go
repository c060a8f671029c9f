package attendance

import (
    "context"
    "database/sql"

    "github.com/dirflash/fuse-pairing/pkg/errors"
    "github.com/dirflash/fuse-pairing/pkg/retry"
)

// PrematchStore persists one bookkeeping row per session date, giving
// callers an idempotent "does this date have an intake yet" signal before
// Attendance Intake replaces per-status membership (SPEC_FULL.md
// "Prematch upload bookkeeping", grounded on process_attachment.py's
// cwa_prematch existence check).
type PrematchStore struct {
    db       *sql.DB
    retryCfg retry.Config
}

func NewPrematchStore(db *sql.DB, retryCfg retry.Config) *PrematchStore {
    return &PrematchStore{db: db, retryCfg: retryCfg}
}

// EnsureDate upserts a prematch record for date, returning true if the
// record already existed.
func (p *PrematchStore) EnsureDate(ctx context.Context, date string) (existed bool, err error) {
    err = retry.Do(ctx, p.retryCfg, "attendance.ensure_prematch", func() error {
        row := p.db.QueryRowContext(ctx, `SELECT 1 FROM cwa_prematch WHERE session_date = ?`, date)
        var dummy int
        scanErr := row.Scan(&dummy)
        if scanErr == nil {
            existed = true
            return nil
        }
        if scanErr != sql.ErrNoRows {
            return errors.Wrap(scanErr, errors.ErrTransientStore, "prematch lookup failed")
        }

        _, insertErr := p.db.ExecContext(ctx, `INSERT INTO cwa_prematch (session_date) VALUES (?)`, date)
        if insertErr != nil {
            return errors.Wrap(insertErr, errors.ErrTransientStore, "prematch insert failed")
        }
        existed = false
        return nil
    })
    return existed, err
}

// SchemaDDL is the create-table statement for cwa_prematch.
const SchemaDDL = `
CREATE TABLE IF NOT EXISTS cwa_prematch (
    session_date CHAR(10) PRIMARY KEY,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);`
