package stats

import (
	"sync"

	"tourstats/internal/records"
	"tourstats/internal/simulation"
)

// AnalysisSession holds one normalized dataset and memoizes analysis results
// per filter. The dataset is treated as read-only once handed over.
type AnalysisSession struct {
	tours            []*records.Tour
	recs             []records.MergedRecord
	defaultTolerance int

	mu   sync.Mutex
	memo map[string]*AnalysisResult
}

// NewAnalysisSession creates a session over merged data.
func NewAnalysisSession(tours []*records.Tour, recs []records.MergedRecord, defaultTolerance int) *AnalysisSession {
	return &AnalysisSession{
		tours:            tours,
		recs:             recs,
		defaultTolerance: defaultTolerance,
		memo:             make(map[string]*AnalysisResult),
	}
}

// Analyze returns the cached result for an equal filter, computing it once.
// Callers must not mutate the returned value.
func (s *AnalysisSession) Analyze(f Filter) (*AnalysisResult, error) {
	key := f.Key()
	s.mu.Lock()
	defer s.mu.Unlock()
	if res, ok := s.memo[key]; ok {
		return res, nil
	}
	res, err := Analyze(s.tours, s.recs, f, s.defaultTolerance)
	if err != nil {
		return nil, err
	}
	s.memo[key] = res
	return res, nil
}

// Simulate runs the demand engine over the filtered, classified records.
// Results are never cached since the engine may be unseeded.
func (s *AnalysisSession) Simulate(f Filter, engine *simulation.DemandEngine) (*simulation.DemandResult, error) {
	_, classified, _, err := Prepare(s.tours, s.recs, f, s.defaultTolerance)
	if err != nil {
		return nil, err
	}
	return engine.Run(classified), nil
}

// Filtered returns the narrowed, classified records for listings.
func (s *AnalysisSession) Filtered(f Filter) ([]*records.Tour, []records.MergedRecord, error) {
	tours, classified, _, err := Prepare(s.tours, s.recs, f, s.defaultTolerance)
	return tours, classified, err
}

// Tours returns every normalized tour.
func (s *AnalysisSession) Tours() []*records.Tour {
	return s.tours
}

// Records returns every merged record, unclassified.
func (s *AnalysisSession) Records() []records.MergedRecord {
	return s.recs
}

// DefaultTolerance returns the tolerance used when a filter sets none.
func (s *AnalysisSession) DefaultTolerance() int {
	return s.defaultTolerance
}

// Cached reports how many filter results are memoized.
func (s *AnalysisSession) Cached() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.memo)
}
