package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bizledger/internal/cache"
	"bizledger/internal/repository"

	"go.uber.org/zap"
)

var ErrInvalidInput = errors.New("invalid input")

type Service struct {
	store  repository.Store
	cache  cache.Cache
	logger *zap.Logger
	loc    *time.Location
	now    func() time.Time
}

func New(store repository.Store, c cache.Cache, logger *zap.Logger, loc *time.Location) *Service {
	if c == nil {
		c = cache.Nop{}
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Service{
		store:  store,
		cache:  c,
		logger: logger,
		loc:    loc,
		now:    time.Now,
	}
}

func (s *Service) Location() *time.Location {
	return s.loc
}

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// invalidate drops cached read models after a write. A cache outage only
// means stale views until the TTL runs out, so it is logged, not returned.
func (s *Service) invalidate(ctx context.Context) {
	if err := s.cache.Invalidate(ctx); err != nil {
		s.logger.Warn("cache invalidation failed", zap.Error(err))
	}
}

// readThrough serves key from the cache or loads and caches it. The
// generation is taken before load, so a value loaded across an invalidation
// is stored under a generation nobody reads any more.
func readThrough[T any](ctx context.Context, s *Service, key string, load func(context.Context) (T, error)) (T, error) {
	gen, err := s.cache.Generation(ctx)
	if err != nil {
		s.logger.Warn("cache generation unavailable", zap.Error(err))
		return load(ctx)
	}

	var value T
	hit, err := s.cache.Get(ctx, gen, key, &value)
	if err != nil {
		s.logger.Warn("cache read failed", zap.String("key", key), zap.Error(err))
	} else if hit {
		return value, nil
	}

	value, err = load(ctx)
	if err != nil {
		return value, err
	}
	if err := s.cache.Set(ctx, gen, key, value); err != nil {
		s.logger.Warn("cache write failed", zap.String("key", key), zap.Error(err))
	}
	return value, nil
}
