// Package lookup answers dictionary queries, serving from the result cache
// when possible and falling back to the remote dictionary.
package lookup

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/heartmarshall/leocli/internal/cache"
	"github.com/heartmarshall/leocli/internal/domain"
)

type resultCache interface {
	Lookup(ctx context.Context, q domain.Query) (domain.ResultSet, error)
	Store(ctx context.Context, q domain.Query, rs domain.ResultSet) error
}

type dictionary interface {
	Fetch(ctx context.Context, q domain.Query) (domain.ResultSet, error)
}

// Observer receives lookup outcomes, e.g. for metrics.
type Observer interface {
	ObserveLookup(outcome Outcome)
	ObserveCache(result CacheResult)
	ObserveFetch(d time.Duration, err error)
}

// Outcome classifies how a lookup ended.
type Outcome string

const (
	OutcomeCached    Outcome = "cached"
	OutcomeFetched   Outcome = "fetched"
	OutcomeNoMatches Outcome = "no_matches"
	OutcomeInvalid   Outcome = "invalid"
	OutcomeError     Outcome = "error"
)

// CacheResult classifies one cache read.
type CacheResult string

const (
	CacheHit   CacheResult = "hit"
	CacheMiss  CacheResult = "miss"
	CacheError CacheResult = "error"
)

// Source tells where a result came from.
type Source string

const (
	SourceCache  Source = "cache"
	SourceRemote Source = "remote"
)

// Input is one lookup request.
type Input struct {
	Words    []string
	Lang     string
	UseCache bool
}

// Result is a successful lookup.
type Result struct {
	Query    domain.Query
	Sections domain.ResultSet
	Source   Source
}

// Service implements dictionary lookups.
type Service struct {
	log   *slog.Logger
	cache resultCache
	dict  dictionary
	obs   Observer
	group singleflight.Group
	now   func() time.Time

	flightTimeout time.Duration
}

const defaultFlightTimeout = 30 * time.Second

// Option configures a Service.
type Option func(*Service)

// WithObserver reports outcomes to obs.
func WithObserver(obs Observer) Option {
	return func(s *Service) { s.obs = obs }
}

// WithFlightTimeout bounds a shared lookup. The shared lookup does not
// inherit the cancellation of the caller that started it, so this is all
// that stops it once every caller has gone.
func WithFlightTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.flightTimeout = d
		}
	}
}

// NewService creates a lookup service. A nil cache disables caching.
func NewService(logger *slog.Logger, rc resultCache, dict dictionary, opts ...Option) *Service {
	s := &Service{
		log:   logger.With("service", "lookup"),
		cache: rc,
		dict:  dict,
		obs:   nopObserver{},
		now:   time.Now,

		flightTimeout: defaultFlightTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Lookup validates the input and returns the matching sections.
// An empty result is reported as domain.ErrNoMatches and is never cached.
// Concurrent lookups of the same query share one execution; a caller
// whose ctx ends stops waiting without failing the others.
func (s *Service) Lookup(ctx context.Context, in Input) (*Result, error) {
	q, err := domain.NewQuery(in.Words, in.Lang)
	if err != nil {
		s.obs.ObserveLookup(OutcomeInvalid)
		return nil, err
	}

	useCache := in.UseCache && s.cache != nil
	flightKey := q.Key()
	if !useCache {
		flightKey += "\x00nocache"
	}

	ch := s.group.DoChan(flightKey, func() (any, error) {
		flightCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.flightTimeout)
		defer cancel()
		return s.lookup(flightCtx, q, useCache)
	})

	var r singleflight.Result
	select {
	case r = <-ch:
	case <-ctx.Done():
		s.obs.ObserveLookup(OutcomeError)
		return nil, ctx.Err()
	}
	if r.Shared {
		s.log.DebugContext(ctx, "lookup shared", slog.String("key", q.Key()))
	}

	v, err := r.Val, r.Err
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNoMatches):
			s.obs.ObserveLookup(OutcomeNoMatches)
		default:
			s.obs.ObserveLookup(OutcomeError)
		}
		return nil, err
	}

	res := *v.(*Result)
	if res.Source == SourceCache {
		s.obs.ObserveLookup(OutcomeCached)
	} else {
		s.obs.ObserveLookup(OutcomeFetched)
	}
	return &res, nil
}

func (s *Service) lookup(ctx context.Context, q domain.Query, useCache bool) (*Result, error) {
	key := q.Key()

	if useCache {
		rs, err := s.cache.Lookup(ctx, q)
		switch {
		case err == nil:
			s.obs.ObserveCache(CacheHit)
			s.log.DebugContext(ctx, "cache hit", slog.String("key", key))
			return &Result{Query: q, Sections: rs, Source: SourceCache}, nil
		case errors.Is(err, cache.ErrCacheMiss):
			s.obs.ObserveCache(CacheMiss)
		default:
			s.obs.ObserveCache(CacheError)
			s.log.WarnContext(ctx, "cache lookup failed, fetching",
				slog.String("key", key),
				slog.String("error", err.Error()),
			)
		}
	}

	start := s.now()
	rs, err := s.dict.Fetch(ctx, q)
	s.obs.ObserveFetch(s.now().Sub(start), err)
	if err != nil {
		s.log.DebugContext(ctx, "dictionary fetch failed",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
		return nil, err
	}

	if rs.Empty() {
		return nil, domain.ErrNoMatches
	}

	if useCache {
		if err := s.cache.Store(ctx, q, rs); err != nil {
			s.log.WarnContext(ctx, "cache store failed",
				slog.String("key", key),
				slog.String("error", err.Error()),
			)
		}
	}

	s.log.InfoContext(ctx, "lookup fetched",
		slog.String("key", key),
		slog.Int("sections", len(rs)),
		slog.Int("pairs", rs.PairCount()),
	)
	return &Result{Query: q, Sections: rs, Source: SourceRemote}, nil
}

type nopObserver struct{}

func (nopObserver) ObserveLookup(Outcome) {}
func (nopObserver) ObserveCache(CacheResult) {}
func (nopObserver) ObserveFetch(time.Duration, error) {}
