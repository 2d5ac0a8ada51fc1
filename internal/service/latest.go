package service

import (
	"sync"

	"microclimate_station/internal/models"
)

// latestReading is a single-slot last-value cache. The sense task writes
// every sample it produces; the status observer and the monitoring
// service read it without touching the reading queue.
type latestReading struct {
	mu  sync.RWMutex
	r   models.Reading
	set bool
}

func newLatestReading() *latestReading {
	return &latestReading{}
}

func (l *latestReading) Set(r models.Reading) {
	l.mu.Lock()
	l.r = r
	l.set = true
	l.mu.Unlock()
}

// Get returns the most recent reading and whether one exists yet.
func (l *latestReading) Get() (models.Reading, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.r, l.set
}
