// Package writer implements the Match Writer: persisting new
// pairings to the History Store and emitting the session's match CSV.
package writer

import (
    "context"
    "encoding/csv"
    "fmt"
    "math/rand"
    "os"
    "path/filepath"
    "strings"

    "github.com/dirflash/fuse-pairing/internal/directory"
    "github.com/dirflash/fuse-pairing/internal/history"
    "github.com/dirflash/fuse-pairing/internal/models"
    "github.com/dirflash/fuse-pairing/pkg/errors"
    "github.com/dirflash/fuse-pairing/pkg/logger"
)

const maxFilenameRetries = 100

// Writer persists pairings and emits the session's match CSV.
type Writer struct {
    histStore history.Store
    dirStore  directory.Store
    outputDir string
    rnd       *rand.Rand
}

func New(histStore history.Store, dirStore directory.Store, outputDir string, rnd *rand.Rand) *Writer {
    return &Writer{histStore: histStore, dirStore: dirStore, outputDir: outputDir, rnd: rnd}
}

// Write records history for every pair and emits the session CSV. In test
// mode it does neither, returning the "NA" sentinel. On a history write
// failure after retries it returns an InfeasiblePersist error but still
// attempts the CSV emission, per the "emit the CSV anyway" policy.
func (w *Writer) Write(ctx context.Context, sessionDate string, pairs []models.Pair, testMode bool) (string, error) {
    if testMode {
        return "NA", nil
    }

    var persistErr error
    for _, p := range pairs {
        if err := w.histStore.RecordPair(ctx, sessionDate, p.SE1, p.SE2); err != nil {
            persistErr = errors.Wrap(err, errors.ErrInfeasiblePersist, "history write failed after retries")
            break
        }
    }

    filename, csvErr := w.writeCSV(ctx, sessionDate, pairs)
    if csvErr != nil {
        if persistErr != nil {
            return "", persistErr
        }
        return "", csvErr
    }

    if persistErr != nil {
        return filename, persistErr
    }

    return filename, nil
}

func (w *Writer) writeCSV(ctx context.Context, sessionDate string, pairs []models.Pair) (string, error) {
    aliases := make([]string, 0, len(pairs)*2)
    for _, p := range pairs {
        aliases = append(aliases, p.SE1, p.SE2)
    }

    resolved, err := w.dirStore.ResolveAll(ctx, aliases)
    if err != nil {
        return "", err
    }

    base := strings.NewReplacer("/", "_", "-", "_").Replace(sessionDate) + "-matches.csv"
    path := filepath.Join(w.outputDir, base)

    file, err := w.createWithFallback(path)
    if err != nil {
        return "", err
    }
    defer file.Close()

    cw := csv.NewWriter(file)
    cw.UseCRLF = false

    if err := cw.Write([]string{"SE1_NAME", "SE1_CCO", "SE2_CCO", "SE2_NAME"}); err != nil {
        return "", errors.Wrap(err, errors.ErrInternal, "failed to write CSV header")
    }

    for _, p := range pairs {
        se1 := resolved[p.SE1]
        se2 := resolved[p.SE2]
        if err := cw.Write([]string{se1.DisplayName, se1.Alias, se2.Alias, se2.DisplayName}); err != nil {
            return "", errors.Wrap(err, errors.ErrInternal, "failed to write CSV row")
        }
    }

    cw.Flush()
    if err := cw.Error(); err != nil {
        return "", errors.Wrap(err, errors.ErrInternal, "failed to flush CSV")
    }

    logger.WithField("session_date", sessionDate).WithField("filename", filepath.Base(path)).
        Info("match CSV written")

    return filepath.Base(path), nil
}

// createWithFallback opens path for writing, retrying with a random
// "-PE<N>" suffix if the original name is not writable.
func (w *Writer) createWithFallback(path string) (*os.File, error) {
    file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
    if err == nil {
        return file, nil
    }
    if !os.IsPermission(err) {
        return nil, errors.Wrap(err, errors.ErrInternal, "failed to create match CSV")
    }

    ext := filepath.Ext(path)
    stem := strings.TrimSuffix(path, ext)

    for i := 0; i < maxFilenameRetries; i++ {
        suffix := fmt.Sprintf("-PE%d", w.rnd.Intn(100)+1)
        candidate := stem + suffix + ext
        file, err := os.OpenFile(candidate, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
        if err == nil {
            return file, nil
        }
        if !os.IsPermission(err) {
            return nil, errors.Wrap(err, errors.ErrInternal, "failed to create match CSV")
        }
    }

    return nil, errors.New(errors.ErrInternal, "exhausted filename fallback attempts").
        WithContext("path", path)
}
