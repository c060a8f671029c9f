package pairing

import (
    "context"
    "math"
    "math/rand"
    "time"

    "github.com/dirflash/fuse-pairing/internal/history"
    "github.com/dirflash/fuse-pairing/internal/models"
    "github.com/dirflash/fuse-pairing/pkg/errors"
    "github.com/dirflash/fuse-pairing/pkg/logger"
)

type seClass int

const (
    classRegular seClass = iota
    classVIP
    classSSEM
    classSEM
)

// Config carries the knobs the Selector needs from internal/config
// (Pairing section) without importing that package directly.
type Config struct {
    WaterlineYears int
    DateLayout     string
}

// Selector runs the main pairing loop against one run's state. It
// holds no cross-run state itself; runState below is rebuilt fresh on every
// attempt by the Reset Controller.
type Selector struct {
    histStore history.Store
    rnd       *rand.Rand
    cfg       Config
}

// NewSelector builds a Selector. rnd is the injected randomness source:
// every "uniform random" pick in the main loop consults it so tests can
// run with a fixed seed.
func NewSelector(histStore history.Store, rnd *rand.Rand, cfg Config) *Selector {
    return &Selector{histStore: histStore, rnd: rnd, cfg: cfg}
}

// runState is the Selector's mutable working set for one attempt: the
// region buckets, the remaining sem_set, the
// top_ses cohort, the per-SE frequency counts, and the pair list under
// construction.
type runState struct {
    buckets         map[int]*models.RegionBucket
    attendees       map[string]struct{}
    semSet          map[string]struct{}
    topSes          map[string]struct{}
    frequencyCounts map[string]int
    directory       map[string]models.SE
    historyCache    map[string]map[string]string
    pairs           []models.Pair
}

func (s *Selector) newRunState(directory map[string]models.SE, attendees map[string]struct{}, semSet, topSes map[string]struct{}, frequencyCounts map[string]int) *runState {
    buckets := BuildBuckets(directory, attendees)
    attCopy := make(map[string]struct{}, len(attendees))
    for a := range attendees {
        attCopy[a] = struct{}{}
    }
    semCopy := make(map[string]struct{}, len(semSet))
    for a := range semSet {
        if _, ok := attCopy[a]; ok {
            semCopy[a] = struct{}{}
        }
    }
    topCopy := make(map[string]struct{}, len(topSes))
    for a := range topSes {
        if _, ok := attCopy[a]; ok {
            topCopy[a] = struct{}{}
        }
    }

    return &runState{
        buckets:         buckets,
        attendees:       attCopy,
        semSet:          semCopy,
        topSes:          topCopy,
        frequencyCounts: frequencyCounts,
        directory:       directory,
        historyCache:    make(map[string]map[string]string),
    }
}

// Run executes the Selector loop to completion against one attempt's
// initial state, returning the produced pairs on clean termination. A
// kobayashi signal returns an *errors.AppError with code ErrInfeasible;
// the Reset Controller is the only caller that should interpret it as a
// retry signal rather than a terminal failure. frequencyCounts is the
// Frequency Analyzer's per-SE pairing count, used as the basis for the
// high-frequency region padding once more than 10 attendees remain.
func (s *Selector) Run(ctx context.Context, directory map[string]models.SE, attendees map[string]struct{}, semSet, topSes map[string]struct{}, frequencyCounts map[string]int) ([]models.Pair, error) {
    state := s.newRunState(directory, attendees, semSet, topSes, frequencyCounts)

    for {
        count := state.totalCount()
        if count == 0 {
            return state.pairs, nil
        }

        if err := s.iterate(ctx, state, count); err != nil {
            return nil, err
        }
    }
}

func (state *runState) totalCount() int {
    total := 0
    for _, b := range state.buckets {
        total += len(b.Aliases)
    }
    return total
}

func (state *runState) regionSizes() map[int]int {
    sizes := make(map[int]int, len(state.buckets))
    for idx, b := range state.buckets {
        sizes[idx] = len(b.Aliases)
    }
    return sizes
}

func priorityRegion(sizes map[int]int) int {
    best := -1
    bestSize := -1
    for idx, sz := range sizes {
        if sz > bestSize || (sz == bestSize && idx < best) {
            best = idx
            bestSize = sz
        }
    }
    return best
}

// regionPlusMedian computes the candidate region set: always every
// non-empty region, plus, once count exceeds 10, a second appearance for
// the regions sized more than 2 above the high median of the per-SE
// frequency counts (or, if none are, the regions sized at or above that
// median) - padding their weight in the random draw rather than narrowing
// the candidate set.
func regionPlusMedian(sizes map[int]int, frequencyCounts map[string]int, count int) []int {
    base := make([]int, 0, len(sizes))
    for idx := range sizes {
        base = append(base, idx)
    }

    if count <= 10 {
        return base
    }

    values := make([]int, 0, len(frequencyCounts))
    for _, v := range frequencyCounts {
        values = append(values, v)
    }
    median := highMedian(values)

    var padding []int
    for idx, sz := range sizes {
        if sz > median+2 {
            padding = append(padding, idx)
        }
    }
    if len(padding) == 0 {
        for idx, sz := range sizes {
            if sz >= median {
                padding = append(padding, idx)
            }
        }
    }

    return append(base, padding...)
}

func (s *Selector) randomFrom(set map[string]struct{}) string {
    if len(set) == 0 {
        return ""
    }
    idx := s.rnd.Intn(len(set))
    i := 0
    for alias := range set {
        if i == idx {
            return alias
        }
        i++
    }
    return ""
}

func (s *Selector) randomFromSlice(aliases []string) string {
    if len(aliases) == 0 {
        return ""
    }
    return aliases[s.rnd.Intn(len(aliases))]
}

func (s *Selector) randomRegion(regions []int) int {
    if len(regions) == 0 {
        return -1
    }
    return regions[s.rnd.Intn(len(regions))]
}

func union(a, b map[string]struct{}) map[string]struct{} {
    out := make(map[string]struct{}, len(a)+len(b))
    for k := range a {
        out[k] = struct{}{}
    }
    for k := range b {
        out[k] = struct{}{}
    }
    return out
}

func setMinus(base map[string]struct{}, exclude ...map[string]struct{}) map[string]struct{} {
    out := make(map[string]struct{}, len(base))
    for k := range base {
        excluded := false
        for _, ex := range exclude {
            if _, ok := ex[k]; ok {
                excluded = true
                break
            }
        }
        if !excluded {
            out[k] = struct{}{}
        }
    }
    return out
}

func (state *runState) bucketSet(idx int) map[string]struct{} {
    b, ok := state.buckets[idx]
    if !ok {
        return map[string]struct{}{}
    }
    out := make(map[string]struct{}, len(b.Aliases))
    for _, a := range b.Aliases {
        out[a] = struct{}{}
    }
    return out
}

func (state *runState) removeAlias(alias string) {
    se := state.directory[alias]
    b, ok := state.buckets[se.RegionIndex]
    if ok {
        for i, a := range b.Aliases {
            if a == alias {
                b.Aliases = append(b.Aliases[:i], b.Aliases[i+1:]...)
                break
            }
        }
        if len(b.Aliases) == 0 {
            delete(state.buckets, se.RegionIndex)
        }
    }
    delete(state.attendees, alias)
    delete(state.semSet, alias)
    delete(state.topSes, alias)
}

func (state *runState) classify(alias string) seClass {
    se := state.directory[alias]
    switch {
    case se.RegionIndex == models.RegionVIP:
        return classVIP
    case se.RegionIndex == models.RegionSeniorLeadership:
        return classSSEM
    default:
        if _, ok := state.semSet[alias]; ok {
            return classSEM
        }
        return classRegular
    }
}

func (s *Selector) historyOf(ctx context.Context, state *runState, alias string) (map[string]string, error) {
    if h, ok := state.historyCache[alias]; ok {
        return h, nil
    }
    h, err := s.histStore.History(ctx, alias)
    if err != nil {
        return nil, err
    }
    state.historyCache[alias] = h
    return h, nil
}

func kobayashi(reason string) error {
    return errors.New(errors.ErrInfeasible, reason)
}

// iterate runs exactly one selection iteration, appending one pair to
// state.pairs (or returning a kobayashi signal).
func (s *Selector) iterate(ctx context.Context, state *runState, count int) error {
    sizes := state.regionSizes()
    nonEmptyRegions := len(sizes)
    prio := priorityRegion(sizes)

    prioritySelect := false
    if nonEmptyRegions >= 3 && sizes[prio] == count-sizes[prio] {
        prioritySelect = true
    }

    zeroSet := state.bucketSet(models.RegionSeniorLeadership)
    leaderPercent := math.Round(float64(len(zeroSet)+len(state.semSet))/float64(count)*10000) / 100

    // Feasibility gate.
    if nonEmptyRegions == 1 && count >= 1 {
        return kobayashi("single region remains with attendees unassigned")
    }

    candidateRegions := regionPlusMedian(sizes, state.frequencyCounts, count)

    se1 := s.selectSE1(state, sizes, prio, prioritySelect, leaderPercent, zeroSet, candidateRegions)
    if se1 == "" {
        return kobayashi("SE1 selection produced no candidate")
    }

    se1Class := state.classify(se1)
    se1Region := state.directory[se1].RegionIndex
    state.removeAlias(se1)

    se2, err := s.selectAndValidateSE2(ctx, state, se1, se1Class, se1Region)
    if err != nil {
        return err
    }
    if se2 == "" {
        return kobayashi("SE2 selection exhausted all candidates")
    }

    state.removeAlias(se2)
    state.pairs = append(state.pairs, models.Pair{SE1: se1, SE2: se2})

    logger.WithField("se1", se1).WithField("se2", se2).Debug("pair committed")

    return nil
}

func (s *Selector) selectSE1(state *runState, sizes map[int]int, prio int, prioritySelect bool, leaderPercent float64, zeroSet map[string]struct{}, candidateRegions []int) string {
    // R1: VIP-first.
    if vipSet := state.bucketSet(models.RegionVIP); len(vipSet) > 0 {
        return s.randomFrom(vipSet)
    }
    // R2: Top-bias.
    if len(state.topSes) > 0 && leaderPercent <= 30 {
        return s.randomFrom(state.topSes)
    }
    // R3: Leader-balance.
    if leaderPercent > 20 {
        return s.randomFrom(union(zeroSet, state.semSet))
    }
    // R4: Priority-region.
    if prioritySelect {
        return s.randomFrom(state.bucketSet(prio))
    }
    // R5: Default.
    region := s.randomRegion(candidateRegions)
    if region == -1 {
        return ""
    }
    return s.randomFrom(state.bucketSet(region))
}

func (s *Selector) selectAndValidateSE2(ctx context.Context, state *runState, se1 string, se1Class seClass, se1Region int) (string, error) {
    candidate, err := s.pickSE2Candidate(state, se1Class, se1Region)
    if err != nil {
        return "", err
    }
    if candidate == "" {
        return "", nil
    }

    se2Hist, err := s.historyOf(ctx, state, candidate)
    if err != nil {
        return "", err
    }

    if !isPreviousPartner(se2Hist, se1) {
        return candidate, nil
    }

    // Repeat pair: apply the waterline rule or the repair loop.
    if len(state.attendees) == 1 {
        accepted, err := s.waterlineAdmits(se2Hist, se1)
        if err != nil {
            return "", err
        }
        if accepted {
            return candidate, nil
        }
        return "", kobayashi("waterline rejected the only remaining pair")
    }

    se1Hist, err := s.historyOf(ctx, state, se1)
    if err != nil {
        return "", err
    }

    matchables := setMinus(state.attendees, valuesAsSet(se1Hist))
    delete(matchables, se1)
    if len(matchables) == 0 {
        return "", kobayashi("no SE remains that SE1 has not already been paired with")
    }

    order := shuffledKeys(matchables, s.rnd)
    for _, cand := range order {
        candRegion := state.directory[cand].RegionIndex
        if candRegion == se1Region {
            continue
        }
        if (se1Region == models.RegionVIP && candRegion == models.RegionSeniorLeadership) ||
            (se1Region == models.RegionSeniorLeadership && candRegion == models.RegionVIP) {
            continue
        }
        return cand, nil
    }

    return "", kobayashi("SE2 repair loop exhausted all candidates")
}

func (s *Selector) pickSE2Candidate(state *runState, se1Class seClass, se1Region int) (string, error) {
    switch se1Class {
    case classVIP:
        pool := setMinus(state.attendees, state.semSet, state.bucketSet(models.RegionSeniorLeadership), state.bucketSet(models.RegionVIP))
        return s.randomFrom(pool), nil
    case classSSEM, classSEM:
        pool := setMinus(state.attendees, state.semSet, state.bucketSet(models.RegionSeniorLeadership))
        return s.randomFrom(pool), nil
    default:
        sizes := state.regionSizes()
        candidates := regionPlusMedian(sizes, state.frequencyCounts, state.totalCount())
        filtered := candidates[:0:0]
        for _, idx := range candidates {
            if idx != se1Region {
                filtered = append(filtered, idx)
            }
        }
        region := s.randomRegion(filtered)
        if region == -1 {
            return "", nil
        }
        return s.randomFrom(state.bucketSet(region)), nil
    }
}

func isPreviousPartner(hist map[string]string, alias string) bool {
    for _, partner := range hist {
        if partner == alias {
            return true
        }
    }
    return false
}

func valuesAsSet(m map[string]string) map[string]struct{} {
    out := make(map[string]struct{}, len(m))
    for _, v := range m {
        out[v] = struct{}{}
    }
    return out
}

func shuffledKeys(m map[string]struct{}, rnd *rand.Rand) []string {
    out := make([]string, 0, len(m))
    for k := range m {
        out = append(out, k)
    }
    rnd.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
    return out
}

// waterlineAdmits implements the last-pair exception: a repeated pair
// is admitted only if the most recent prior pairing between SE1 and the
// candidate is strictly older than one waterline period ago.
func (s *Selector) waterlineAdmits(se2Hist map[string]string, se1 string) (bool, error) {
    var mostRecent time.Time
    found := false

    for dateStr, partner := range se2Hist {
        if partner != se1 {
            continue
        }
        d, err := time.Parse(s.cfg.DateLayout, dateStr)
        if err != nil {
            continue
        }
        if !found || d.After(mostRecent) {
            mostRecent = d
            found = true
        }
    }

    if !found {
        return true, nil
    }

    target := time.Now().UTC().AddDate(-s.cfg.WaterlineYears, 0, 0)
    return mostRecent.Before(target), nil
}
