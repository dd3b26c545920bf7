// Package cache provides the bounded memo store used for computed reports.
package cache

import (
	"log/slog"
	"time"
)

// Store is a keyed memo store.
type Store[T any] interface {
	Get(key string) (T, bool)
	Set(key string, value T)
	Delete(key string)
	// Purge drops every entry.
	Purge()
	Len() int
}

// Expirer is implemented by stores that can drop stale entries on demand.
type Expirer interface {
	Expire() int
}

// Janitor periodically expires entries of the registered stores.
type Janitor struct {
	stores []Expirer
	logger *slog.Logger
	stop   chan struct{}
	done   chan struct{}
}

func NewJanitor(logger *slog.Logger) *Janitor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Janitor{
		logger: logger,
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
}

// Register must be called before Start.
func (j *Janitor) Register(s Expirer) {
	j.stores = append(j.stores, s)
}

func (j *Janitor) Start(interval time.Duration) {
	go j.run(interval)
}

func (j *Janitor) run(interval time.Duration) {
	defer close(j.done)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			n := 0
			for _, s := range j.stores {
				n += s.Expire()
			}
			if n > 0 {
				j.logger.Debug("Expired cached entries", "count", n)
			}
		case <-j.stop:
			return
		}
	}
}

// Stop waits for the running sweep to finish.
func (j *Janitor) Stop() {
	close(j.stop)
	<-j.done
}
