package attendance

import (
    "context"
    "sync"

    "github.com/dirflash/fuse-pairing/internal/models"
)

// FakeStore is an in-memory Store for engine/CLI tests.
type FakeStore struct {
    mu      sync.Mutex
    records map[string]*models.AttendanceRecord
}

func NewFakeStore() *FakeStore {
    return &FakeStore{records: make(map[string]*models.AttendanceRecord)}
}

func (f *FakeStore) Save(_ context.Context, record *models.AttendanceRecord) error {
    f.mu.Lock()
    defer f.mu.Unlock()
    cp := models.NewAttendanceRecord(record.Date)
    for a := range record.Accepted {
        cp.Accepted[a] = struct{}{}
    }
    for a := range record.Declined {
        cp.Declined[a] = struct{}{}
    }
    for a := range record.Tentative {
        cp.Tentative[a] = struct{}{}
    }
    for a := range record.NoResponse {
        cp.NoResponse[a] = struct{}{}
    }
    f.records[record.Date] = cp
    return nil
}

func (f *FakeStore) Load(_ context.Context, date string) (*models.AttendanceRecord, error) {
    f.mu.Lock()
    defer f.mu.Unlock()
    if r, ok := f.records[date]; ok {
        return r, nil
    }
    return models.NewAttendanceRecord(date), nil
}
