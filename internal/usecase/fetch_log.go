package usecase

import (
	"sort"
	"sync"
	"time"

	"MacroPulse/internal/domain/models"
)

// FetchLog records when each series was fetched during one pipeline run.
// It is created per run and safe for concurrent use by the fetch workers.
type FetchLog struct {
	mu      sync.Mutex
	records map[string]models.FetchRecord
}

func NewFetchLog() *FetchLog {
	return &FetchLog{records: make(map[string]models.FetchRecord)}
}

func (f *FetchLog) Record(seriesID string, at time.Time, points int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records[seriesID] = models.FetchRecord{SeriesID: seriesID, FetchedAt: at, Points: points}
}

// Records returns the log ordered by series id.
func (f *FetchLog) Records() []models.FetchRecord {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.FetchRecord, 0, len(f.records))
	for _, r := range f.records {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SeriesID < out[j].SeriesID })
	return out
}
