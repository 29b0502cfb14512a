package registry

import (
	"context"
	"errors"
	"sync"

	"github.com/arpitjain799/dissect.target/pkg/types"
)

// fakeSession serves canned listings keyed by exact path and counts every
// remote call, so tests can pin memoization and retry behavior.
type fakeSession struct {
	mu       sync.Mutex
	listings map[string]*types.KeyListing
	fail     map[string]error // paths that error instead of listing
	calls    map[string]int
}

func newFakeSession() *fakeSession {
	return &fakeSession{
		listings: make(map[string]*types.KeyListing),
		fail:     make(map[string]error),
		calls:    make(map[string]int),
	}
}

func (s *fakeSession) add(path string, listing *types.KeyListing) {
	s.listings[path] = listing
}

func (s *fakeSession) failWith(path string, err error) {
	s.fail[path] = err
}

func (s *fakeSession) callCount(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[path]
}

func (s *fakeSession) totalCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, c := range s.calls {
		n += c
	}
	return n
}

func (s *fakeSession) ListKeysAndValues(_ context.Context, path string) (*types.KeyListing, error) {
	s.mu.Lock()
	s.calls[path]++
	s.mu.Unlock()

	if err, ok := s.fail[path]; ok {
		return nil, err
	}
	if l, ok := s.listings[path]; ok {
		return l, nil
	}
	return nil, errors.New("no such key on endpoint")
}

func (s *fakeSession) ListDirectory(context.Context, string) ([]types.DirEntry, error) {
	return nil, errors.New("not implemented")
}

func (s *fakeSession) ReadFile(context.Context, string) ([]byte, error) {
	return nil, errors.New("not implemented")
}

func (s *fakeSession) OS() types.OSType { return types.OSWindows }

func (s *fakeSession) Drives() []string { return []string{`C:\`} }

func (s *fakeSession) Close(context.Context) error { return nil }
