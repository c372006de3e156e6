package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"MacroPulse/internal/domain/models"
	domrepo "MacroPulse/internal/domain/repository"

	"github.com/redis/go-redis/v9"
)

// RedisPortfolioStore keeps one JSON document per portfolio under
// <prefix>:portfolio:<id>. Portfolios do not expire.
type RedisPortfolioStore struct {
	client redis.UniversalClient
	prefix string
}

var _ domrepo.PortfolioStore = (*RedisPortfolioStore)(nil)

func NewRedisPortfolioStore(client redis.UniversalClient, prefix string) *RedisPortfolioStore {
	return &RedisPortfolioStore{client: client, prefix: prefix}
}

func (s *RedisPortfolioStore) key(id string) string {
	return fmt.Sprintf("%s:portfolio:%s", s.prefix, id)
}

func (s *RedisPortfolioStore) Get(ctx context.Context, id string) (*models.Portfolio, error) {
	b, err := s.client.Get(ctx, s.key(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("portfolio %s: %w", id, domrepo.ErrNotFound)
		}
		return nil, fmt.Errorf("get portfolio %s: %w", id, err)
	}

	var p models.Portfolio
	if err := json.Unmarshal(b, &p); err != nil {
		return nil, fmt.Errorf("decode portfolio %s: %w", id, err)
	}
	return &p, nil
}

func (s *RedisPortfolioStore) Save(ctx context.Context, p *models.Portfolio) error {
	b, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode portfolio %s: %w", p.ID, err)
	}
	if err := s.client.Set(ctx, s.key(p.ID), b, 0).Err(); err != nil {
		return fmt.Errorf("save portfolio %s: %w", p.ID, err)
	}
	return nil
}

// MemoryPortfolioStore is the store used when Redis is disabled.
type MemoryPortfolioStore struct {
	mu   sync.RWMutex
	data map[string]models.Portfolio
}

var _ domrepo.PortfolioStore = (*MemoryPortfolioStore)(nil)

func NewMemoryPortfolioStore() *MemoryPortfolioStore {
	return &MemoryPortfolioStore{data: make(map[string]models.Portfolio)}
}

func (s *MemoryPortfolioStore) Get(_ context.Context, id string) (*models.Portfolio, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.data[id]
	if !ok {
		return nil, fmt.Errorf("portfolio %s: %w", id, domrepo.ErrNotFound)
	}
	return clonePortfolio(p), nil
}

func (s *MemoryPortfolioStore) Save(_ context.Context, p *models.Portfolio) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[p.ID] = *clonePortfolio(*p)
	return nil
}

// clonePortfolio copies the slices and map so callers cannot mutate stored state.
func clonePortfolio(p models.Portfolio) *models.Portfolio {
	out := models.Portfolio{ID: p.ID}
	out.Holdings = append([]models.Holding(nil), p.Holdings...)
	if p.Targets != nil {
		out.Targets = make(map[models.EngineID]models.TargetBand, len(p.Targets))
		for k, v := range p.Targets {
			out.Targets[k] = v
		}
	}
	return &out
}
