// Package engine wires the Directory Store, History Store, Attendance
// Intake, Pairing Selector, Reset Controller, and Match Writer into the
// single entrypoint the CLI and serve mode call.
package engine

import (
    "context"
    "math/rand"

    "github.com/dirflash/fuse-pairing/internal/directory"
    "github.com/dirflash/fuse-pairing/internal/history"
    "github.com/dirflash/fuse-pairing/internal/models"
    "github.com/dirflash/fuse-pairing/internal/pairing"
    "github.com/dirflash/fuse-pairing/internal/writer"
    "github.com/dirflash/fuse-pairing/pkg/logger"
)

// Engine is the single run entrypoint over one attendance record.
type Engine struct {
    dirStore directory.Store
    reset    *pairing.ResetController
    writer   *writer.Writer
    host     string
}

// New assembles an Engine from its already-constructed components. rnd is
// shared with the Selector and Match Writer so a fixed seed makes an entire
// run deterministic end to end.
func New(dirStore directory.Store, histStore history.Store, w *writer.Writer, hostAlias string, maxResets int, rnd *rand.Rand, selCfg pairing.Config) *Engine {
    sel := pairing.NewSelector(histStore, rnd, selCfg)
    return &Engine{
        dirStore: dirStore,
        reset:    pairing.NewResetController(sel, histStore, hostAlias, maxResets),
        writer:   w,
        host:     hostAlias,
    }
}

// Run executes one full pairing run against record: resolves every
// effective attendee (plus the host alias, in case Host Injection needs it)
// through the Directory Store, runs the Reset Controller's kobayashi loop,
// then persists and emits the session's match CSV.
//
// On success it returns the CSV filename ("NA" in test mode).
// OutcomeInfeasiblePersist also carries a populated Filename: the CSV was
// written, but the history persistence that should accompany it failed.
// Any other outcome carries the Kobayashi-exhaustion or store error as Err;
// the caller decides what status code that maps to.
func (e *Engine) Run(ctx context.Context, sessionDate string, record *models.AttendanceRecord, testMode bool) models.RunOutcome {
    attendees := record.EffectiveAttendance()

    aliases := make([]string, 0, len(attendees)+1)
    for a := range attendees {
        aliases = append(aliases, a)
    }
    aliases = append(aliases, e.host)

    directoryMap, err := e.dirStore.ResolveAll(ctx, aliases)
    if err != nil {
        return models.RunOutcome{Kind: models.OutcomeInfeasible, Err: err}
    }

    snapshot := models.SessionSnapshot{Attendees: attendees, Directory: directoryMap}

    pairs, outcome, err := e.reset.Run(ctx, snapshot)
    if outcome != models.OutcomeSuccess {
        return models.RunOutcome{Kind: outcome, Err: err}
    }

    filename, err := e.writer.Write(ctx, sessionDate, pairs, testMode)
    if err != nil && filename == "" {
        return models.RunOutcome{Kind: models.OutcomeInfeasible, Err: err}
    }

    if err != nil {
        logger.WithField("session_date", sessionDate).WithError(err).
            Warn("match CSV written but history persistence failed")
        return models.RunOutcome{Kind: models.OutcomeInfeasiblePersist, Filename: filename, Err: err}
    }

    return models.RunOutcome{Kind: models.OutcomeSuccess, Filename: filename}
}
