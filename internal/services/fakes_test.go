package services

import (
	"context"
	"sync"
)

type fakeStore struct {
	mu         sync.Mutex
	probeCount int
	probeErr   error
	fields     map[string]any
	exists     bool
	getErr     error
	probes     int
	gets       int
	lastKey    string
}

func (s *fakeStore) Probe(ctx context.Context, collection string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.probes++
	return s.probeCount, s.probeErr
}

func (s *fakeStore) Get(ctx context.Context, collection, key string) (map[string]any, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gets++
	s.lastKey = collection + "/" + key
	if s.getErr != nil {
		return nil, false, s.getErr
	}
	return s.fields, s.exists, nil
}

// scriptedLoader blocks every Load until the test answers it, ignoring
// cancellation so late results can be simulated.
type scriptedLoader struct {
	mu      sync.Mutex
	replies []chan LoadResult
	started chan int
}

func newScriptedLoader() *scriptedLoader {
	return &scriptedLoader{started: make(chan int, 16)}
}

func (l *scriptedLoader) Load(ctx context.Context) LoadResult {
	reply := make(chan LoadResult, 1)
	l.mu.Lock()
	l.replies = append(l.replies, reply)
	idx := len(l.replies) - 1
	l.mu.Unlock()
	l.started <- idx
	return <-reply
}

func (l *scriptedLoader) answer(idx int, res LoadResult) {
	l.mu.Lock()
	reply := l.replies[idx]
	l.mu.Unlock()
	reply <- res
}

type loaderFunc func(ctx context.Context) LoadResult

func (f loaderFunc) Load(ctx context.Context) LoadResult { return f(ctx) }
