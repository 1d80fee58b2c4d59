package session

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/pbaille/portfolio/internal/catalog"
	"github.com/pbaille/portfolio/internal/domain"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func testCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	c, err := catalog.New([]domain.Project{
		{Slug: "item-1", Tags: []string{"HTML5", "CSS3", "Bootstrap", "JS"}},
		{Slug: "item-2", Tags: []string{"HTML5", "CSS3", "Bootstrap"}},
		{Slug: "item-3", Tags: []string{"HTML5", "CSS3", "jQuery", "JS"}},
		{Slug: "item-4", Tags: []string{"HTML5", "CSS3"}},
	}, nil)
	require.NoError(t, err)
	return c
}

// gatedSource blocks every load until release is closed
type gatedSource struct {
	cat     *catalog.Catalog
	err     error
	started chan struct{}
	release chan struct{}
}

func newGatedSource(cat *catalog.Catalog, err error) *gatedSource {
	return &gatedSource{
		cat:     cat,
		err:     err,
		started: make(chan struct{}, 8),
		release: make(chan struct{}),
	}
}

func (g *gatedSource) Load(ctx context.Context) (*catalog.Catalog, error) {
	g.started <- struct{}{}
	select {
	case <-g.release:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	if g.err != nil {
		return nil, g.err
	}
	return g.cat, nil
}

func staticSource(c *catalog.Catalog) catalog.Source {
	return catalog.SourceFunc(func(context.Context) (*catalog.Catalog, error) { return c, nil })
}

func waitResult(t *testing.T, done <-chan error) error {
	t.Helper()
	select {
	case err := <-done:
		return err
	case <-time.After(2 * time.Second):
		t.Fatal("load did not finish")
		return nil
	}
}

func TestLoad_Ready(t *testing.T) {
	s := New(staticSource(testCatalog(t)), nil)
	assert.Equal(t, Loading, s.State())

	require.NoError(t, s.Load(context.Background()))
	assert.Equal(t, Ready, s.State())

	v, err := s.View(0)
	require.NoError(t, err)
	assert.Equal(t, 4, v.Total)
	assert.Len(t, v.Tags, 5)
}

func TestOperationsBeforeLoad(t *testing.T) {
	s := New(staticSource(testCatalog(t)), nil)

	_, err := s.View(0)
	assert.ErrorIs(t, err, ErrNotReady)

	_, err = s.Toggle("HTML5")
	assert.ErrorIs(t, err, ErrNotReady)

	_, err = s.Suggest("h")
	assert.ErrorIs(t, err, ErrNotReady)
}

func TestLoad_FailureThenRetry(t *testing.T) {
	cat := testCatalog(t)
	fail := true
	src := catalog.SourceFunc(func(context.Context) (*catalog.Catalog, error) {
		if fail {
			return nil, fmt.Errorf("fetch: %w", catalog.ErrSourceUnavailable)
		}
		return cat, nil
	})
	s := New(src, nil)

	err := s.Load(context.Background())
	assert.ErrorIs(t, err, catalog.ErrSourceUnavailable)
	assert.Equal(t, Failed, s.State())
	assert.ErrorIs(t, s.Err(), catalog.ErrSourceUnavailable)

	_, err = s.View(0)
	assert.ErrorIs(t, err, ErrNotReady)
	assert.ErrorIs(t, err, catalog.ErrSourceUnavailable)

	fail = false
	require.NoError(t, s.Retry(context.Background()))
	assert.Equal(t, Ready, s.State())
	assert.NoError(t, s.Err())

	// Retry on a ready session does not refetch.
	fail = true
	require.NoError(t, s.Retry(context.Background()))
	assert.Equal(t, Ready, s.State())
}

func TestRetry_WhileLoadingKeepsSingleFetch(t *testing.T) {
	src := newGatedSource(testCatalog(t), nil)
	s := New(src, nil)

	done := s.Start(context.Background())
	<-src.started

	err := s.Retry(context.Background())
	assert.ErrorIs(t, err, ErrInFlight)
	assert.ErrorIs(t, err, ErrNotReady)
	assert.Len(t, src.started, 0, "retry must not start a second fetch")

	close(src.release)
	require.NoError(t, waitResult(t, done), "the original load is still applied")
	assert.Equal(t, Ready, s.State())

	require.NoError(t, s.Retry(context.Background()))
	assert.Len(t, src.started, 0)
}

func TestRetry_AfterFailureRefetchesOnce(t *testing.T) {
	src := newGatedSource(nil, catalog.ErrSourceUnavailable)
	s := New(src, nil)

	done := s.Start(context.Background())
	<-src.started
	close(src.release)
	assert.ErrorIs(t, waitResult(t, done), catalog.ErrSourceUnavailable)
	require.Equal(t, Failed, s.State())

	src.err = nil
	require.NoError(t, s.Retry(context.Background()))
	assert.Len(t, src.started, 1)
	assert.Equal(t, Ready, s.State())
}

func TestClose_DiscardsInFlightLoad(t *testing.T) {
	src := newGatedSource(testCatalog(t), nil)
	s := New(src, nil)

	done := s.Start(context.Background())
	<-src.started

	s.Close()
	close(src.release)

	assert.ErrorIs(t, waitResult(t, done), ErrStale)
	assert.Equal(t, Closed, s.State())

	_, err := s.View(0)
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, s.Load(context.Background()), ErrClosed)
}

func TestClose_DiscardsInFlightFailure(t *testing.T) {
	src := newGatedSource(nil, catalog.ErrSourceUnavailable)
	s := New(src, nil)

	done := s.Start(context.Background())
	<-src.started
	s.Close()
	close(src.release)

	assert.ErrorIs(t, waitResult(t, done), ErrStale)
	assert.NoError(t, s.Err())
	assert.Equal(t, Closed, s.State())
}

func TestNewerLoadSupersedesOlder(t *testing.T) {
	src := newGatedSource(testCatalog(t), nil)
	s := New(src, nil)

	first := s.Start(context.Background())
	<-src.started
	second := s.Start(context.Background())
	<-src.started

	close(src.release)

	results := []error{waitResult(t, first), waitResult(t, second)}
	var stale, ok int
	for _, err := range results {
		switch {
		case errors.Is(err, ErrStale):
			stale++
		case err == nil:
			ok++
		}
	}
	assert.Equal(t, 1, stale)
	assert.Equal(t, 1, ok)
	assert.Equal(t, Ready, s.State())
}

func TestLoad_CanceledContext(t *testing.T) {
	src := newGatedSource(testCatalog(t), nil)
	s := New(src, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := s.Start(ctx)
	<-src.started
	cancel()

	assert.ErrorIs(t, waitResult(t, done), context.Canceled)
	assert.Equal(t, Failed, s.State())
}

func TestSelectionFlow(t *testing.T) {
	s := New(staticSource(testCatalog(t)), nil)
	require.NoError(t, s.Load(context.Background()))

	sel, err := s.Toggle("jQuery")
	require.NoError(t, err)
	assert.Equal(t, []string{"jQuery"}, sel.Tags())

	v, err := s.View(0)
	require.NoError(t, err)
	assert.Equal(t, []string{"Bootstrap"}, v.Disabled)

	// Dead end: refused.
	sel, err = s.Toggle("Bootstrap")
	require.NoError(t, err)
	assert.Equal(t, []string{"jQuery"}, sel.Tags())

	suggestions, err := s.Suggest("b")
	require.NoError(t, err)
	assert.Empty(t, suggestions)

	s.Clear()
	v, err = s.View(0)
	require.NoError(t, err)
	assert.Equal(t, 4, v.Total)
	assert.Empty(t, v.Selected)

	sel, err = s.Select("Bootstrap", "JS", "jQuery")
	require.NoError(t, err)
	assert.Equal(t, []string{"Bootstrap", "JS"}, sel.Tags())

	v, err = s.View(0)
	require.NoError(t, err)
	require.Len(t, v.Items, 1)
	assert.Equal(t, "item-1", v.Items[0].Slug)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "loading", Loading.String())
	assert.Equal(t, "ready", Ready.String())
	assert.Equal(t, "failed", Failed.String())
	assert.Equal(t, "closed", Closed.String())
	assert.Equal(t, "unknown", State(42).String())
}
