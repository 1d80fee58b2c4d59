// Package session models one page view over the catalog: a single
// outstanding catalog fetch plus the user's tag selection.
//
// A fetch that resolves after the session was closed, or after a newer
// fetch was started, is dropped instead of being applied.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/pbaille/portfolio/internal/catalog"
	"github.com/pbaille/portfolio/internal/domain"
	"github.com/pbaille/portfolio/internal/facet"
)

var (
	// ErrStale is returned by Load when its result was discarded
	ErrStale = errors.New("stale catalog load discarded")
	// ErrNotReady is returned by selection operations before a catalog loaded
	ErrNotReady = errors.New("catalog not loaded")
	// ErrClosed is returned once the session has been closed
	ErrClosed = errors.New("session closed")
	// ErrInFlight is returned by Retry while a load is still running. It
	// wraps ErrNotReady.
	ErrInFlight = fmt.Errorf("catalog load in flight: %w", ErrNotReady)
)

// State is the fetch state of a session
type State int

const (
	Loading State = iota
	Ready
	Failed
	Closed
)

func (s State) String() string {
	switch s {
	case Loading:
		return "loading"
	case Ready:
		return "ready"
	case Failed:
		return "failed"
	case Closed:
		return "closed"
	default:
		return "unknown"
	}
}

// Session holds the catalog and selection of one page view.
// It is safe for concurrent use.
type Session struct {
	src    catalog.Source
	logger *zap.Logger

	mu       sync.Mutex
	gen      uint64
	inflight bool
	state    State
	err      error
	items    []domain.Project
	tags     []string
	sel      facet.Selection
}

// New creates a session in the Loading state. Nothing is fetched until
// Load or Start is called.
func New(src catalog.Source, logger *zap.Logger) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Session{src: src, logger: logger, state: Loading}
}

// Load fetches the catalog and applies it unless the session was closed
// or another Load started in the meantime, in which case ErrStale is
// returned and the result is dropped.
func (s *Session) Load(ctx context.Context) error {
	return s.load(ctx, false)
}

// Start runs Load in the background. The returned channel receives its
// result and is then closed.
func (s *Session) Start(ctx context.Context) <-chan error {
	done := make(chan error, 1)
	go func() {
		defer close(done)
		done <- s.Load(ctx)
	}()
	return done
}

// Retry reloads after a failure. It is a no-op on a ready session and
// refuses to start a second fetch while one is in flight.
func (s *Session) Retry(ctx context.Context) error {
	return s.load(ctx, true)
}

func (s *Session) load(ctx context.Context, retry bool) error {
	s.mu.Lock()
	switch {
	case s.state == Closed:
		s.mu.Unlock()
		return ErrClosed
	case retry && s.state == Ready:
		s.mu.Unlock()
		return nil
	case retry && s.inflight:
		s.mu.Unlock()
		return ErrInFlight
	}
	s.gen++
	gen := s.gen
	s.inflight = true
	s.state = Loading
	s.err = nil
	s.mu.Unlock()

	cat, err := s.src.Load(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == Closed || gen != s.gen {
		s.logger.Debug("Discarding stale catalog load", zap.Uint64("generation", gen), zap.Error(err))
		return ErrStale
	}
	s.inflight = false
	if err != nil {
		s.state = Failed
		s.err = err
		s.logger.Warn("Catalog load failed", zap.Error(err))
		return err
	}

	s.items, s.tags = cat.GetAll()
	s.state = Ready
	s.logger.Debug("Catalog loaded", zap.Int("projects", len(s.items)), zap.Int("tags", len(s.tags)))
	return nil
}

// Close ends the page view. Any fetch still in flight is discarded when
// it resolves.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	s.inflight = false
	s.state = Closed
	s.items, s.tags = nil, nil
	s.sel = facet.Clear()
}

// State returns the current fetch state
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Err returns the error of the last failed load
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Selection returns the current selection
func (s *Session) Selection() facet.Selection {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sel
}

// Toggle flips tag in the selection; dead-end tags are refused
func (s *Session) Toggle(tag string) (facet.Selection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.readyLocked(); err != nil {
		return s.sel, err
	}
	next := facet.Toggle(s.items, s.sel, tag)
	if next.Equal(s.sel) && !s.sel.Has(tag) {
		s.logger.Debug("Refusing dead-end tag", zap.String("tag", tag), zap.Stringer("selected", s.sel))
	}
	s.sel = next
	return s.sel, nil
}

// Select adds each tag in turn. Tags already selected are kept and
// dead-end tags are refused, as with Toggle.
func (s *Session) Select(tags ...string) (facet.Selection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.readyLocked(); err != nil {
		return s.sel, err
	}
	for _, t := range tags {
		if !s.sel.Has(t) {
			s.sel = facet.Toggle(s.items, s.sel, t)
		}
	}
	return s.sel, nil
}

// Clear empties the selection
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sel = facet.Clear()
}

// View returns the derived filter view for the current selection
func (s *Session) View(limit int) (facet.View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.readyLocked(); err != nil {
		return facet.View{}, err
	}
	return facet.Build(s.items, s.tags, s.sel, limit), nil
}

// Suggest returns autocomplete candidates for term
func (s *Session) Suggest(term string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.readyLocked(); err != nil {
		return nil, err
	}
	return facet.Suggest(s.items, s.tags, s.sel, term), nil
}

func (s *Session) readyLocked() error {
	switch s.state {
	case Ready:
		return nil
	case Closed:
		return ErrClosed
	case Failed:
		return errors.Join(ErrNotReady, s.err)
	default:
		return ErrNotReady
	}
}
