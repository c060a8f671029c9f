package engine

import (
    "context"
    "math/rand"
    "testing"

    "github.com/dirflash/fuse-pairing/internal/directory"
    "github.com/dirflash/fuse-pairing/internal/history"
    "github.com/dirflash/fuse-pairing/internal/models"
    "github.com/dirflash/fuse-pairing/internal/pairing"
    "github.com/dirflash/fuse-pairing/internal/writer"
)

func TestEngineRunProducesEvenPairsAndCSV(t *testing.T) {
    dir := directory.NewFakeStore(map[string]models.SE{
        "a1": {Alias: "a1", DisplayName: "A One", RegionIndex: 1},
        "b1": {Alias: "b1", DisplayName: "B One", RegionIndex: 1},
        "a2": {Alias: "a2", DisplayName: "A Two", RegionIndex: 2},
        "b2": {Alias: "b2", DisplayName: "B Two", RegionIndex: 2},
        "host": {Alias: "host", DisplayName: "Host", RegionIndex: 2},
    })
    hist := history.NewFakeStore()
    w := writer.New(hist, dir, t.TempDir(), rand.New(rand.NewSource(1)))
    e := New(dir, hist, w, "host", 5, rand.New(rand.NewSource(1)), pairing.Config{WaterlineYears: 1, DateLayout: "2006-01-02"})

    record := models.NewAttendanceRecord("2024-06-01")
    for _, alias := range []string{"a1", "b1", "a2", "b2"} {
        record.Accepted[alias] = struct{}{}
    }

    outcome := e.Run(context.Background(), "2024-06-01", record, false)
    if outcome.Kind != models.OutcomeSuccess {
        t.Fatalf("expected success, got kind=%v err=%v", outcome.Kind, outcome.Err)
    }
    if outcome.Filename != "2024_06_01-matches.csv" {
        t.Fatalf("unexpected filename: %s", outcome.Filename)
    }
}

func TestEngineRunTestModeReturnsSentinel(t *testing.T) {
    dir := directory.NewFakeStore(map[string]models.SE{
        "a1": {Alias: "a1", RegionIndex: 1}, "b1": {Alias: "b1", RegionIndex: 2},
        "host": {Alias: "host", RegionIndex: 2},
    })
    hist := history.NewFakeStore()
    w := writer.New(hist, dir, t.TempDir(), rand.New(rand.NewSource(3)))
    e := New(dir, hist, w, "host", 5, rand.New(rand.NewSource(3)), pairing.Config{WaterlineYears: 1, DateLayout: "2006-01-02"})

    record := models.NewAttendanceRecord("2024-06-01")
    record.Accepted["a1"] = struct{}{}
    record.Accepted["b1"] = struct{}{}

    outcome := e.Run(context.Background(), "2024-06-01", record, true)
    if outcome.Kind != models.OutcomeSuccess {
        t.Fatalf("expected success, got kind=%v err=%v", outcome.Kind, outcome.Err)
    }
    if outcome.Filename != "NA" {
        t.Fatalf("expected NA sentinel, got %q", outcome.Filename)
    }
}

func TestEngineRunSurfacesHistoryPersistFailureButStillEmitsCSV(t *testing.T) {
    dir := directory.NewFakeStore(map[string]models.SE{
        "a1":   {Alias: "a1", DisplayName: "A One", RegionIndex: 1},
        "b1":   {Alias: "b1", DisplayName: "B One", RegionIndex: 2},
        "host": {Alias: "host", RegionIndex: 2},
    })
    hist := history.NewFakeStore()
    hist.FailRecordPair = true
    w := writer.New(hist, dir, t.TempDir(), rand.New(rand.NewSource(7)))
    e := New(dir, hist, w, "host", 5, rand.New(rand.NewSource(7)), pairing.Config{WaterlineYears: 1, DateLayout: "2006-01-02"})

    record := models.NewAttendanceRecord("2024-06-01")
    record.Accepted["a1"] = struct{}{}
    record.Accepted["b1"] = struct{}{}

    outcome := e.Run(context.Background(), "2024-06-01", record, false)
    if outcome.Kind != models.OutcomeInfeasiblePersist {
        t.Fatalf("expected OutcomeInfeasiblePersist, got kind=%v err=%v", outcome.Kind, outcome.Err)
    }
    if outcome.Filename == "" {
        t.Fatalf("expected CSV filename to still be populated despite history failure")
    }
    if outcome.Err == nil {
        t.Fatalf("expected a non-nil error describing the history failure")
    }
}
