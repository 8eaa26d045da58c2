package lookup

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heartmarshall/leocli/internal/cache"
	"github.com/heartmarshall/leocli/internal/domain"
)

// ---------------------------------------------------------------------------
// Manual mocks (func fields)
// ---------------------------------------------------------------------------

type mockCache struct {
	LookupFunc func(ctx context.Context, q domain.Query) (domain.ResultSet, error)
	StoreFunc  func(ctx context.Context, q domain.Query, rs domain.ResultSet) error
}

func (m *mockCache) Lookup(ctx context.Context, q domain.Query) (domain.ResultSet, error) {
	return m.LookupFunc(ctx, q)
}

func (m *mockCache) Store(ctx context.Context, q domain.Query, rs domain.ResultSet) error {
	if m.StoreFunc == nil {
		return nil
	}
	return m.StoreFunc(ctx, q, rs)
}

type mockDictionary struct {
	FetchFunc func(ctx context.Context, q domain.Query) (domain.ResultSet, error)
}

func (m *mockDictionary) Fetch(ctx context.Context, q domain.Query) (domain.ResultSet, error) {
	return m.FetchFunc(ctx, q)
}

type recordingObserver struct {
	mu       sync.Mutex
	outcomes []Outcome
	cache    []CacheResult
	fetches  int
}

func (o *recordingObserver) ObserveLookup(outcome Outcome) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.outcomes = append(o.outcomes, outcome)
}

func (o *recordingObserver) ObserveCache(result CacheResult) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.cache = append(o.cache, result)
}

func (o *recordingObserver) ObserveFetch(time.Duration, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.fetches++
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func sampleResult() domain.ResultSet {
	return domain.ResultSet{{
		Name: "subst",
		Pairs: []domain.TranslationPair{{
			Source: domain.Side{domain.Text("house")},
			Target: domain.Side{domain.Text("Haus")},
		}},
	}}
}

func missCache() *mockCache {
	return &mockCache{
		LookupFunc: func(context.Context, domain.Query) (domain.ResultSet, error) {
			return nil, cache.ErrCacheMiss
		},
	}
}

// ---------------------------------------------------------------------------
// Tests
// ---------------------------------------------------------------------------

func TestLookup_CacheHit(t *testing.T) {
	t.Parallel()

	rc := &mockCache{
		LookupFunc: func(_ context.Context, q domain.Query) (domain.ResultSet, error) {
			assert.Equal(t, "de/en/house", q.Key())
			return sampleResult(), nil
		},
	}
	dict := &mockDictionary{
		FetchFunc: func(context.Context, domain.Query) (domain.ResultSet, error) {
			t.Fatal("Fetch must not be called on a cache hit")
			return nil, nil
		},
	}
	obs := &recordingObserver{}
	svc := NewService(newTestLogger(), rc, dict, WithObserver(obs))

	res, err := svc.Lookup(context.Background(), Input{Words: []string{"house"}, Lang: "en", UseCache: true})
	require.NoError(t, err)
	assert.Equal(t, SourceCache, res.Source)
	assert.Equal(t, sampleResult(), res.Sections)
	assert.Equal(t, []Outcome{OutcomeCached}, obs.outcomes)
	assert.Equal(t, []CacheResult{CacheHit}, obs.cache)
}

func TestLookup_CacheMiss_FetchesAndStores(t *testing.T) {
	t.Parallel()

	var stored domain.ResultSet
	rc := missCache()
	rc.StoreFunc = func(_ context.Context, q domain.Query, rs domain.ResultSet) error {
		assert.Equal(t, []string{"to", "run"}, q.Terms)
		stored = rs
		return nil
	}
	dict := &mockDictionary{
		FetchFunc: func(_ context.Context, q domain.Query) (domain.ResultSet, error) {
			assert.Equal(t, "to run", q.Search())
			assert.Equal(t, "en", q.Lang1)
			assert.Equal(t, "de", q.Lang2)
			return sampleResult(), nil
		},
	}
	obs := &recordingObserver{}
	svc := NewService(newTestLogger(), rc, dict, WithObserver(obs))

	res, err := svc.Lookup(context.Background(), Input{Words: []string{"to run"}, Lang: "en", UseCache: true})
	require.NoError(t, err)
	assert.Equal(t, SourceRemote, res.Source)
	assert.Equal(t, sampleResult(), stored)
	assert.Equal(t, []Outcome{OutcomeFetched}, obs.outcomes)
	assert.Equal(t, []CacheResult{CacheMiss}, obs.cache)
	assert.Equal(t, 1, obs.fetches)
}

func TestLookup_NoMatches_NotCached(t *testing.T) {
	t.Parallel()

	rc := missCache()
	rc.StoreFunc = func(context.Context, domain.Query, domain.ResultSet) error {
		t.Error("empty results must not be cached")
		return nil
	}
	dict := &mockDictionary{
		FetchFunc: func(context.Context, domain.Query) (domain.ResultSet, error) {
			return domain.ResultSet{}, nil
		},
	}
	obs := &recordingObserver{}
	svc := NewService(newTestLogger(), rc, dict, WithObserver(obs))

	res, err := svc.Lookup(context.Background(), Input{Words: []string{"qwxz"}, Lang: "en", UseCache: true})
	assert.Nil(t, res)
	assert.ErrorIs(t, err, domain.ErrNoMatches)
	assert.Equal(t, []Outcome{OutcomeNoMatches}, obs.outcomes)
}

func TestLookup_CacheDisabled(t *testing.T) {
	t.Parallel()

	rc := &mockCache{
		LookupFunc: func(context.Context, domain.Query) (domain.ResultSet, error) {
			t.Error("cache must not be read when disabled")
			return nil, nil
		},
		StoreFunc: func(context.Context, domain.Query, domain.ResultSet) error {
			t.Error("cache must not be written when disabled")
			return nil
		},
	}
	dict := &mockDictionary{
		FetchFunc: func(context.Context, domain.Query) (domain.ResultSet, error) {
			return sampleResult(), nil
		},
	}

	svc := NewService(newTestLogger(), rc, dict)
	res, err := svc.Lookup(context.Background(), Input{Words: []string{"house"}, Lang: "en", UseCache: false})
	require.NoError(t, err)
	assert.Equal(t, SourceRemote, res.Source)

	// A nil cache behaves the same.
	svc = NewService(newTestLogger(), nil, dict)
	res, err = svc.Lookup(context.Background(), Input{Words: []string{"house"}, Lang: "en", UseCache: true})
	require.NoError(t, err)
	assert.Equal(t, SourceRemote, res.Source)
}

func TestLookup_CacheErrorsAreNotFatal(t *testing.T) {
	t.Parallel()

	rc := &mockCache{
		LookupFunc: func(context.Context, domain.Query) (domain.ResultSet, error) {
			return nil, errors.New("redis: connection refused")
		},
		StoreFunc: func(context.Context, domain.Query, domain.ResultSet) error {
			return errors.New("redis: connection refused")
		},
	}
	dict := &mockDictionary{
		FetchFunc: func(context.Context, domain.Query) (domain.ResultSet, error) {
			return sampleResult(), nil
		},
	}
	obs := &recordingObserver{}
	svc := NewService(newTestLogger(), rc, dict, WithObserver(obs))

	res, err := svc.Lookup(context.Background(), Input{Words: []string{"house"}, Lang: "en", UseCache: true})
	require.NoError(t, err)
	assert.Equal(t, sampleResult(), res.Sections)
	assert.Equal(t, []CacheResult{CacheError}, obs.cache)
}

func TestLookup_FetchError(t *testing.T) {
	t.Parallel()

	boom := errors.New("leo: unexpected status 503")
	dict := &mockDictionary{
		FetchFunc: func(context.Context, domain.Query) (domain.ResultSet, error) {
			return nil, boom
		},
	}
	obs := &recordingObserver{}
	svc := NewService(newTestLogger(), missCache(), dict, WithObserver(obs))

	_, err := svc.Lookup(context.Background(), Input{Words: []string{"house"}, Lang: "en", UseCache: true})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []Outcome{OutcomeError}, obs.outcomes)
}

func TestLookup_Validation(t *testing.T) {
	t.Parallel()

	dict := &mockDictionary{
		FetchFunc: func(context.Context, domain.Query) (domain.ResultSet, error) {
			t.Error("Fetch must not be called for invalid input")
			return nil, nil
		},
	}
	obs := &recordingObserver{}
	svc := NewService(newTestLogger(), nil, dict, WithObserver(obs))

	tests := []struct {
		name  string
		input Input
		field string
	}{
		{name: "no words", input: Input{Words: nil, Lang: "en"}, field: "terms"},
		{name: "blank words", input: Input{Words: []string{"  ", "\t"}, Lang: "en"}, field: "terms"},
		{name: "pivot language", input: Input{Words: []string{"Haus"}, Lang: "de"}, field: "lang"},
		{name: "unknown language", input: Input{Words: []string{"house"}, Lang: "xx"}, field: "lang"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Lookup(context.Background(), tt.input)
			require.ErrorIs(t, err, domain.ErrValidation)

			var ve *domain.ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.field, ve.Errors[0].Field)
		})
	}
}

func TestLookup_ConcurrentSameKeyFetchesOnce(t *testing.T) {
	t.Parallel()

	var fetches atomic.Int32
	release := make(chan struct{})
	dict := &mockDictionary{
		FetchFunc: func(context.Context, domain.Query) (domain.ResultSet, error) {
			fetches.Add(1)
			<-release
			return sampleResult(), nil
		},
	}
	svc := NewService(newTestLogger(), missCache(), dict)

	const callers = 5
	var wg sync.WaitGroup
	results := make([]*Result, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := svc.Lookup(context.Background(), Input{Words: []string{"house"}, Lang: "en", UseCache: true})
			assert.NoError(t, err)
			results[i] = res
		}(i)
	}

	// Give the callers time to join the in-flight lookup.
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), fetches.Load())
	for _, r := range results {
		require.NotNil(t, r)
		assert.Equal(t, sampleResult(), r.Sections)
	}
}

func TestLookup_CancelledCallerDoesNotFailSharedLookup(t *testing.T) {
	t.Parallel()

	started := make(chan struct{})
	release := make(chan struct{})
	var fetchErr atomic.Value
	dict := &mockDictionary{
		FetchFunc: func(ctx context.Context, _ domain.Query) (domain.ResultSet, error) {
			close(started)
			<-release
			if err := ctx.Err(); err != nil {
				fetchErr.Store(err)
				return nil, err
			}
			return sampleResult(), nil
		},
	}
	svc := NewService(newTestLogger(), missCache(), dict)
	in := Input{Words: []string{"house"}, Lang: "en", UseCache: true}

	firstCtx, cancelFirst := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := svc.Lookup(firstCtx, in)
		firstErr <- err
	}()
	<-started

	type outcome struct {
		res *Result
		err error
	}
	second := make(chan outcome, 1)
	go func() {
		res, err := svc.Lookup(context.Background(), in)
		second <- outcome{res, err}
	}()

	// Give the second caller time to join the in-flight lookup.
	time.Sleep(50 * time.Millisecond)
	cancelFirst()
	require.ErrorIs(t, <-firstErr, context.Canceled)

	close(release)
	got := <-second
	require.NoError(t, got.err)
	assert.Equal(t, sampleResult(), got.res.Sections)
	assert.Nil(t, fetchErr.Load())
}

func TestLookup_CallerDeadlineStopsWaiting(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	defer close(release)
	dict := &mockDictionary{
		FetchFunc: func(context.Context, domain.Query) (domain.ResultSet, error) {
			<-release
			return sampleResult(), nil
		},
	}
	obs := &recordingObserver{}
	svc := NewService(newTestLogger(), nil, dict, WithObserver(obs))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := svc.Lookup(ctx, Input{Words: []string{"house"}, Lang: "en"})
	require.ErrorIs(t, err, context.DeadlineExceeded)
	obs.mu.Lock()
	defer obs.mu.Unlock()
	assert.Equal(t, []Outcome{OutcomeError}, obs.outcomes)
}

func TestLookup_FlightTimeoutBoundsDetachedLookup(t *testing.T) {
	t.Parallel()

	dict := &mockDictionary{
		FetchFunc: func(ctx context.Context, _ domain.Query) (domain.ResultSet, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		},
	}
	svc := NewService(newTestLogger(), nil, dict, WithFlightTimeout(20*time.Millisecond))

	_, err := svc.Lookup(context.Background(), Input{Words: []string{"house"}, Lang: "en"})
	require.ErrorIs(t, err, context.DeadlineExceeded)
}
