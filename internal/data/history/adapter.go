package history

import (
	"time"
)

// Adapter bridges Store to the core HistoryStore port.
type Adapter struct {
	store *Store
}

func NewAdapter(store *Store) *Adapter {
	return &Adapter{store: store}
}

func (a *Adapter) SaveRun(projectKey string, run Run) (Run, error) {
	return a.store.SaveRun(projectKey, run)
}

func (a *Adapter) LoadRuns(projectKey string, since time.Time) ([]Run, error) {
	return a.store.LoadRuns(projectKey, since)
}

func (a *Adapter) Ping() error {
	return a.store.Ping()
}
