package attendance

import (
    "context"
    "database/sql"

    "github.com/dirflash/fuse-pairing/internal/models"
    "github.com/dirflash/fuse-pairing/pkg/errors"
    "github.com/dirflash/fuse-pairing/pkg/retry"
)

var statusNames = map[models.ResponseStatus]string{
    models.StatusAccepted:   "accepted",
    models.StatusDeclined:   "declined",
    models.StatusTentative:  "tentative",
    models.StatusNoResponse: "no_response",
}

// Store persists one Attendance Record per session date, replacing
// membership wholesale on every Save: re-intake is idempotent because a
// full replacement of an identical roster leaves the same rows behind.
type Store interface {
    Save(ctx context.Context, record *models.AttendanceRecord) error
    Load(ctx context.Context, date string) (*models.AttendanceRecord, error)
}

// MySQLStore is the durable Store implementation.
type MySQLStore struct {
    db       *sql.DB
    retryCfg retry.Config
}

func NewMySQLStore(db *sql.DB, retryCfg retry.Config) *MySQLStore {
    return &MySQLStore{db: db, retryCfg: retryCfg}
}

// Save replaces every row for record.Date with the classified membership in
// record. The delete-then-insert pair runs inside one transaction so a
// concurrent Load never observes a half-replaced date.
func (s *MySQLStore) Save(ctx context.Context, record *models.AttendanceRecord) error {
    return retry.Do(ctx, s.retryCfg, "attendance.save", func() error {
        tx, err := s.db.BeginTx(ctx, nil)
        if err != nil {
            return errors.Wrap(err, errors.ErrTransientStore, "failed to begin attendance save")
        }
        defer tx.Rollback()

        if _, err := tx.ExecContext(ctx, `DELETE FROM attendance_records WHERE session_date = ?`, record.Date); err != nil {
            return errors.Wrap(err, errors.ErrTransientStore, "failed to clear prior attendance rows")
        }

        stmt, err := tx.PrepareContext(ctx, `
            INSERT INTO attendance_records (session_date, alias, status) VALUES (?, ?, ?)`)
        if err != nil {
            return errors.Wrap(err, errors.ErrTransientStore, "failed to prepare attendance insert")
        }
        defer stmt.Close()

        sets := []struct {
            status  models.ResponseStatus
            members map[string]struct{}
        }{
            {models.StatusAccepted, record.Accepted},
            {models.StatusDeclined, record.Declined},
            {models.StatusTentative, record.Tentative},
            {models.StatusNoResponse, record.NoResponse},
        }

        for _, set := range sets {
            for alias := range set.members {
                if _, err := stmt.ExecContext(ctx, record.Date, alias, statusNames[set.status]); err != nil {
                    return errors.Wrap(err, errors.ErrTransientStore, "failed to insert attendance row")
                }
            }
        }

        if err := tx.Commit(); err != nil {
            return errors.Wrap(err, errors.ErrTransientStore, "failed to commit attendance save")
        }
        return nil
    })
}

// Load returns the Attendance Record for date, or an empty one if no intake
// has happened yet.
func (s *MySQLStore) Load(ctx context.Context, date string) (*models.AttendanceRecord, error) {
    record := models.NewAttendanceRecord(date)

    err := retry.Do(ctx, s.retryCfg, "attendance.load", func() error {
        rows, err := s.db.QueryContext(ctx, `
            SELECT alias, status FROM attendance_records WHERE session_date = ?`, date)
        if err != nil {
            return errors.Wrap(err, errors.ErrTransientStore, "attendance load failed")
        }
        defer rows.Close()

        for rows.Next() {
            var alias, status string
            if err := rows.Scan(&alias, &status); err != nil {
                return errors.Wrap(err, errors.ErrTransientStore, "attendance row scan failed")
            }
            switch status {
            case "accepted":
                record.Accepted[alias] = struct{}{}
            case "declined":
                record.Declined[alias] = struct{}{}
            case "tentative":
                record.Tentative[alias] = struct{}{}
            default:
                record.NoResponse[alias] = struct{}{}
            }
        }
        return rows.Err()
    })
    if err != nil {
        return nil, err
    }

    return record, nil
}

// SchemaDDL is the create-table statement for attendance_records.
const SchemaDDL = `
CREATE TABLE IF NOT EXISTS attendance_records (
    session_date CHAR(10) NOT NULL,
    alias VARCHAR(128) NOT NULL,
    status VARCHAR(16) NOT NULL,
    PRIMARY KEY (session_date, alias)
);`
