// Package directory implements the Directory Store: a
// read-mostly lookup of SE metadata backed by MySQL and fronted by a Redis
// cache, with bounded retry on every store call and a worker pool for bulk
// attendance resolution.
package directory

import (
    "context"
    "database/sql"
    "fmt"
    "math/rand"
    "sync"
    "time"

    "github.com/dirflash/fuse-pairing/internal/models"
    "github.com/dirflash/fuse-pairing/pkg/errors"
    "github.com/dirflash/fuse-pairing/pkg/logger"
    "github.com/dirflash/fuse-pairing/pkg/retry"
)

// Cache is the subset of *db.Cache the store depends on, so tests can supply
// an in-memory fake instead of dialing Redis.
type Cache interface {
    Get(ctx context.Context, key string, dest interface{}) error
    Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
    Delete(ctx context.Context, keys ...string) error
    Lock(ctx context.Context, key string, ttl time.Duration) (func(), error)
}

// Store is the Directory Store contract the pairing engine depends on.
type Store interface {
    Lookup(ctx context.Context, alias string) (models.SE, error)
    RegisterUnknown(ctx context.Context, alias, displayName string) (models.SE, error)
    RegionIndex(ctx context.Context, regionName string) (int, error)
    ResolveAll(ctx context.Context, aliases []string) (map[string]models.SE, error)
}

// MySQLStore is the durable Directory Store implementation: MySQL for
// storage, Redis for hot reads, retry.Do wrapping every round trip.
type MySQLStore struct {
    db          *sql.DB
    cache       Cache
    retryCfg    retry.Config
    workerCount int
    rnd         *rand.Rand
    rndMu       sync.Mutex

    regionCacheMu sync.Mutex
    regionCache   map[string]int // region name -> region index, per process lifetime
}

// NewMySQLStore builds a Directory Store. workerCount bounds the concurrency
// of ResolveAll's bulk lookups across a worker pool. rnd
// supplies the random fallback stable index for unknown-alias registration
// when the directory is empty (Design Notes: inject the randomness source).
func NewMySQLStore(db *sql.DB, cache Cache, retryCfg retry.Config, workerCount int, rnd *rand.Rand) *MySQLStore {
    return &MySQLStore{
        db:          db,
        cache:       cache,
        retryCfg:    retryCfg,
        workerCount: workerCount,
        rnd:         rnd,
        regionCache: make(map[string]int),
    }
}

func (s *MySQLStore) cacheKey(alias string) string {
    return fmt.Sprintf("se:%s", alias)
}

// Lookup resolves one alias, consulting the cache before the database.
func (s *MySQLStore) Lookup(ctx context.Context, alias string) (models.SE, error) {
    var se models.SE

    if s.cache != nil {
        if err := s.cache.Get(ctx, s.cacheKey(alias), &se); err == nil && se.Alias != "" {
            return se, nil
        }
    }

    var found models.SE
    var notFound bool

    err := retry.Do(ctx, s.retryCfg, "directory.lookup", func() error {
        row := s.db.QueryRowContext(ctx, `
            SELECT alias, display_name, region_name, region_index, sem_flag, role_flag, stable_index
            FROM se_info WHERE alias = ?`, alias)

        err := row.Scan(&found.Alias, &found.DisplayName, &found.RegionName, &found.RegionIndex, &found.SEM, &found.RoleFlag, &found.StableIndex)
        if err == sql.ErrNoRows {
            notFound = true
            return nil
        }
        if err != nil {
            return errors.Wrap(err, errors.ErrTransientStore, "directory lookup failed")
        }
        return nil
    })
    if err != nil {
        return models.SE{}, err
    }
    if notFound {
        return models.SE{}, errors.New(errors.ErrUnknownAlias, "alias not found in directory").WithContext("alias", alias)
    }

    if s.cache != nil {
        s.cache.Set(ctx, s.cacheKey(alias), found, 10*time.Minute)
    }

    return found, nil
}

// RegisterUnknown auto-provisions alias with a conservative VIP default,
// assigning the next stable index (max+1, or a random
// 6-digit fallback when the directory is empty). The unknown-alias path is
// racy across concurrent sessions, so the insert is guarded by a
// distributed lock keyed on the alias.
func (s *MySQLStore) RegisterUnknown(ctx context.Context, alias, displayName string) (models.SE, error) {
    log := logger.WithContext(ctx).WithField("alias", alias)

    var unlock func()
    if s.cache != nil {
        release, err := s.cache.Lock(ctx, fmt.Sprintf("register:%s", alias), 5*time.Second)
        if err == nil {
            unlock = release
            defer unlock()
        }
    }

    // Another session may have won the race; re-check before inserting.
    if existing, err := s.Lookup(ctx, alias); err == nil {
        return existing, nil
    }

    se := models.SE{
        Alias:       alias,
        DisplayName: displayName,
        RegionName:  "VIP",
        RegionIndex: models.RegionVIP,
        SEM:         false,
        RoleFlag:    "VIP",
    }

    err := retry.Do(ctx, s.retryCfg, "directory.register_unknown", func() error {
        var maxIndex sql.NullInt64
        row := s.db.QueryRowContext(ctx, `SELECT MAX(stable_index) FROM se_info`)
        if err := row.Scan(&maxIndex); err != nil && err != sql.ErrNoRows {
            return errors.Wrap(err, errors.ErrTransientStore, "failed to read max stable index")
        }

        if maxIndex.Valid {
            se.StableIndex = int(maxIndex.Int64) + 1
        } else {
            se.StableIndex = s.randomStableIndex()
        }

        _, err := s.db.ExecContext(ctx, `
            INSERT INTO se_info (alias, display_name, region_name, region_index, sem_flag, role_flag, stable_index)
            VALUES (?, ?, ?, ?, ?, ?, ?)
            ON DUPLICATE KEY UPDATE display_name = display_name`,
            se.Alias, se.DisplayName, se.RegionName, se.RegionIndex, se.SEM, se.RoleFlag, se.StableIndex)
        if err != nil {
            return errors.Wrap(err, errors.ErrTransientStore, "failed to insert unknown SE")
        }
        return nil
    })
    if err != nil {
        return models.SE{}, err
    }

    if s.cache != nil {
        s.cache.Set(ctx, s.cacheKey(alias), se, 10*time.Minute)
    }

    log.WithField("stable_index", se.StableIndex).Info("auto-provisioned unknown SE")
    return se, nil
}

// randomStableIndex produces a 6-digit fallback index when the directory
// holds no existing SEs to derive max(index)+1 from.
func (s *MySQLStore) randomStableIndex() int {
    s.rndMu.Lock()
    defer s.rndMu.Unlock()
    return 100000 + s.rnd.Intn(900000)
}

// RegionIndex resolves a region name to its index, caching the result for
// the lifetime of the process (SPEC_FULL.md "Region index caching within a
// run", grounded on the original's region_index_cache).
func (s *MySQLStore) RegionIndex(ctx context.Context, regionName string) (int, error) {
    s.regionCacheMu.Lock()
    if idx, ok := s.regionCache[regionName]; ok {
        s.regionCacheMu.Unlock()
        return idx, nil
    }
    s.regionCacheMu.Unlock()

    var idx int
    err := retry.Do(ctx, s.retryCfg, "directory.region_index", func() error {
        row := s.db.QueryRowContext(ctx, `SELECT region_index FROM se_info WHERE region_name = ? LIMIT 1`, regionName)
        if err := row.Scan(&idx); err != nil {
            if err == sql.ErrNoRows {
                return errors.New(errors.ErrUnknownAlias, "unknown region").WithContext("region", regionName)
            }
            return errors.Wrap(err, errors.ErrTransientStore, "region index lookup failed")
        }
        return nil
    })
    if err != nil {
        return 0, err
    }

    s.regionCacheMu.Lock()
    s.regionCache[regionName] = idx
    s.regionCacheMu.Unlock()

    return idx, nil
}

type resolveResult struct {
    alias string
    se    models.SE
    err   error
}

// ResolveAll resolves every alias concurrently via a bounded worker pool,
// auto-provisioning any alias not found
// in the directory. Results are collected into an unordered map; callers
// consume it deterministically thereafter.
func (s *MySQLStore) ResolveAll(ctx context.Context, aliases []string) (map[string]models.SE, error) {
    workers := s.workerCount
    if workers <= 0 {
        workers = 10
    }
    if workers > len(aliases) {
        workers = len(aliases)
    }
    if workers == 0 {
        return map[string]models.SE{}, nil
    }

    jobs := make(chan string, len(aliases))
    results := make(chan resolveResult, len(aliases))

    var wg sync.WaitGroup
    for i := 0; i < workers; i++ {
        wg.Add(1)
        go func() {
            defer wg.Done()
            for alias := range jobs {
                se, err := s.Lookup(ctx, alias)
                if errors.Is(err, errors.ErrUnknownAlias) {
                    se, err = s.RegisterUnknown(ctx, alias, alias)
                }
                results <- resolveResult{alias: alias, se: se, err: err}
            }
        }()
    }

    for _, alias := range aliases {
        jobs <- alias
    }
    close(jobs)

    go func() {
        wg.Wait()
        close(results)
    }()

    out := make(map[string]models.SE, len(aliases))
    var firstErr error
    for res := range results {
        if res.err != nil {
            if firstErr == nil {
                firstErr = res.err
            }
            continue
        }
        out[res.alias] = res.se
    }

    if firstErr != nil {
        return nil, firstErr
    }

    return out, nil
}

// SchemaDDL is the create-table statement for se_info, mirrored by the
// migration under internal/db/migrations.
const SchemaDDL = `
CREATE TABLE IF NOT EXISTS se_info (
    alias VARCHAR(128) PRIMARY KEY,
    display_name VARCHAR(256) NOT NULL,
    region_name VARCHAR(64) NOT NULL,
    region_index INT NOT NULL,
    sem_flag BOOLEAN NOT NULL DEFAULT FALSE,
    role_flag VARCHAR(32) NOT NULL DEFAULT '',
    stable_index INT NOT NULL,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);`
