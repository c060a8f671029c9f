// Package attendance implements attendance intake: parsing an RSVP roster
// into the four-set Attendance Record, and host injection for odd-sized
// attendance sets.
package attendance

import (
    "bufio"
    "encoding/csv"
    "io"
    "regexp"
    "strings"

    "github.com/dirflash/fuse-pairing/internal/models"
    "github.com/dirflash/fuse-pairing/pkg/errors"
    "github.com/dirflash/fuse-pairing/pkg/logger"
)

// parenSuffix matches a parenthesized suffix on a name column, e.g.
// "Alice Smith (asmith)", promoted to ", asmith" before the comma split.
var parenSuffix = regexp.MustCompile(`\((.*?)\)`)

const minRosterFields = 4

// ParseRoster parses a CSV roster: tolerates a leading UTF-8 BOM,
// skips the header row, and classifies each row's response status. The
// alias column is field index 1 (0-based) after the parenthesis-to-comma
// promotion; the status column is field index 3 of the row as written,
// before the promotion shifts the later columns.
func ParseRoster(r io.Reader) ([]models.RosterRow, error) {
    reader := bufio.NewReader(r)
    // Strip a leading UTF-8 BOM if present (encoding="utf-8-sig" in the
    // original).
    bom, err := reader.Peek(3)
    if err == nil && len(bom) == 3 && bom[0] == 0xEF && bom[1] == 0xBB && bom[2] == 0xBF {
        reader.Discard(3)
    }

    content, err := io.ReadAll(reader)
    if err != nil {
        return nil, errors.Wrap(err, errors.ErrMalformedRoster, "failed to read roster")
    }

    lines := strings.Split(string(content), "\n")
    if len(lines) < 2 {
        return nil, errors.New(errors.ErrMalformedRoster, "roster has no data rows after the header")
    }

    var rows []models.RosterRow
    for _, line := range lines[1:] { // skip header row
        line = strings.TrimRight(line, "\r")
        if strings.TrimSpace(line) == "" {
            continue
        }

        raw, err := csv.NewReader(strings.NewReader(line)).Read()
        if err != nil {
            return nil, errors.Wrap(err, errors.ErrMalformedRoster, "failed to parse roster row")
        }
        if len(raw) < minRosterFields {
            return nil, errors.New(errors.ErrMalformedRoster, "roster row has too few fields").
                WithContext("row", line)
        }

        transformed := parenSuffix.ReplaceAllString(line, ", $1")

        fields, err := csv.NewReader(strings.NewReader(transformed)).Read()
        if err != nil {
            return nil, errors.Wrap(err, errors.ErrMalformedRoster, "failed to parse roster row")
        }
        if len(fields) < minRosterFields {
            return nil, errors.New(errors.ErrMalformedRoster, "roster row has too few fields").
                WithContext("row", line)
        }

        for i := range fields {
            fields[i] = strings.TrimSpace(fields[i])
        }

        rows = append(rows, models.RosterRow{
            Alias:       fields[1],
            DisplayName: fields[1],
            Status:      classifyStatus(strings.TrimSpace(raw[3])),
        })
    }

    return rows, nil
}

func classifyStatus(raw string) models.ResponseStatus {
    switch raw {
    case "Accepted":
        return models.StatusAccepted
    case "Declined":
        return models.StatusDeclined
    case "Tentative":
        return models.StatusTentative
    default:
        return models.StatusNoResponse
    }
}

// BuildRecord classifies rows into a fresh four-set Attendance Record.
// "Latest intake wins" is full replacement, so the caller always starts
// from NewAttendanceRecord rather than patching a prior one.
func BuildRecord(date string, rows []models.RosterRow) *models.AttendanceRecord {
    record := models.NewAttendanceRecord(date)

    for _, row := range rows {
        switch row.Status {
        case models.StatusAccepted:
            record.Accepted[row.Alias] = struct{}{}
        case models.StatusDeclined:
            record.Declined[row.Alias] = struct{}{}
        case models.StatusTentative:
            record.Tentative[row.Alias] = struct{}{}
        default:
            record.NoResponse[row.Alias] = struct{}{}
        }
    }

    logger.WithField("session_date", date).
        WithField("accepted", len(record.Accepted)).
        WithField("declined", len(record.Declined)).
        WithField("tentative", len(record.Tentative)).
        WithField("no_response", len(record.NoResponse)).
        Info("attendance roster classified")

    return record
}

// InjectHost adds hostAlias to the effective attendance set when the count
// is odd. Idempotent: a second call on a set already containing
// hostAlias (and therefore already even, or already holding the host) is a
// no-op.
func InjectHost(attendees map[string]struct{}, hostAlias string) {
    if _, present := attendees[hostAlias]; present {
        return
    }
    if len(attendees)%2 == 1 {
        attendees[hostAlias] = struct{}{}
    }
}
