package directory

import (
    "context"
    "sync"

    "github.com/dirflash/fuse-pairing/internal/models"
    "github.com/dirflash/fuse-pairing/pkg/errors"
)

// FakeStore is an in-memory Store used by Selector and Reset Controller
// tests; injected handles make this trivial.
type FakeStore struct {
    mu      sync.Mutex
    records map[string]models.SE
    nextIdx int
}

// NewFakeStore seeds a FakeStore with the given records, keyed by alias.
func NewFakeStore(records map[string]models.SE) *FakeStore {
    f := &FakeStore{records: make(map[string]models.SE)}
    maxIdx := 0
    for alias, se := range records {
        f.records[alias] = se
        if se.StableIndex > maxIdx {
            maxIdx = se.StableIndex
        }
    }
    f.nextIdx = maxIdx + 1
    return f
}

func (f *FakeStore) Lookup(_ context.Context, alias string) (models.SE, error) {
    f.mu.Lock()
    defer f.mu.Unlock()
    se, ok := f.records[alias]
    if !ok {
        return models.SE{}, errors.New(errors.ErrUnknownAlias, "alias not found").WithContext("alias", alias)
    }
    return se, nil
}

func (f *FakeStore) RegisterUnknown(_ context.Context, alias, displayName string) (models.SE, error) {
    f.mu.Lock()
    defer f.mu.Unlock()
    if se, ok := f.records[alias]; ok {
        return se, nil
    }
    se := models.SE{
        Alias:       alias,
        DisplayName: displayName,
        RegionName:  "VIP",
        RegionIndex: models.RegionVIP,
        RoleFlag:    "VIP",
        StableIndex: f.nextIdx,
    }
    f.nextIdx++
    f.records[alias] = se
    return se, nil
}

func (f *FakeStore) RegionIndex(_ context.Context, regionName string) (int, error) {
    f.mu.Lock()
    defer f.mu.Unlock()
    for _, se := range f.records {
        if se.RegionName == regionName {
            return se.RegionIndex, nil
        }
    }
    return 0, errors.New(errors.ErrUnknownAlias, "unknown region").WithContext("region", regionName)
}

func (f *FakeStore) ResolveAll(ctx context.Context, aliases []string) (map[string]models.SE, error) {
    out := make(map[string]models.SE, len(aliases))
    for _, alias := range aliases {
        se, err := f.Lookup(ctx, alias)
        if errors.Is(err, errors.ErrUnknownAlias) {
            se, err = f.RegisterUnknown(ctx, alias, alias)
        }
        if err != nil {
            return nil, err
        }
        out[alias] = se
    }
    return out, nil
}
