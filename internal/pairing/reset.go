package pairing

import (
    "context"

    "github.com/dirflash/fuse-pairing/internal/attendance"
    "github.com/dirflash/fuse-pairing/internal/history"
    "github.com/dirflash/fuse-pairing/internal/models"
    "github.com/dirflash/fuse-pairing/pkg/errors"
    "github.com/dirflash/fuse-pairing/pkg/logger"
)

// ResetController wraps the Selector loop, detecting the Kobayashi
// infeasibility signal and restarting from the initial snapshot up to
// MaxResets times.
type ResetController struct {
    selector  *Selector
    histStore history.Store
    hostAlias string
    maxResets int
}

func NewResetController(selector *Selector, histStore history.Store, hostAlias string, maxResets int) *ResetController {
    return &ResetController{
        selector:  selector,
        histStore: histStore,
        hostAlias: hostAlias,
        maxResets: maxResets,
    }
}

// Run executes the pairing engine end to end against one snapshot: Host
// Injection, Frequency Analysis, sem_set construction, then the Selector
// loop, retrying from scratch on every kobayashi signal. It returns
// the produced pairs and OutcomeSuccess on clean termination, or
// OutcomeInfeasible with an ErrInfeasible error once the reset budget
// (testable property 8: never more than 5 resets) is exhausted. Any other
// error is a genuine store failure, returned as err with OutcomeInfeasible.
func (rc *ResetController) Run(ctx context.Context, snapshot models.SessionSnapshot) ([]models.Pair, models.RunOutcomeKind, error) {
    resetCount := 0

    for {
        attendees := make(map[string]struct{}, len(snapshot.Attendees))
        for a := range snapshot.Attendees {
            attendees[a] = struct{}{}
        }
        attendance.InjectHost(attendees, rc.hostAlias)

        semSet := make(map[string]struct{})
        for alias, se := range snapshot.Directory {
            if _, ok := attendees[alias]; ok && se.SEM {
                semSet[alias] = struct{}{}
            }
        }

        freq, err := ComputeFrequency(ctx, rc.histStore, attendees)
        if err != nil {
            return nil, models.OutcomeInfeasible, err
        }

        pairs, err := rc.selector.Run(ctx, snapshot.Directory, attendees, semSet, freq.TopSEs, freq.Counts)
        if err == nil {
            return pairs, models.OutcomeSuccess, nil
        }

        if !errors.Is(err, errors.ErrInfeasible) {
            return nil, models.OutcomeInfeasible, err
        }

        if resetCount >= rc.maxResets {
            logger.WithField("reset_count", resetCount).Warn("kobayashi reset budget exhausted")
            return nil, models.OutcomeInfeasible, errors.New(errors.ErrInfeasible, "reset budget exhausted").
                WithContext("reset_count", resetCount)
        }

        resetCount++
        logger.WithField("reset_count", resetCount).WithError(err).Info("kobayashi signal, restarting from snapshot")
    }
}
