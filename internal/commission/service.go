package commission

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

const rangesCacheTTL = 60 * time.Second

// ErrInvalidName indica nome de plano vazio.
var ErrInvalidName = errors.New("nome do plano obrigatório")

// Store abstrai a persistência de planos e faixas.
type Store interface {
	CreatePlan(ctx context.Context, name string) (*Plan, error)
	GetPlan(ctx context.Context, id uuid.UUID) (*Plan, error)
	ListPlans(ctx context.Context) ([]Plan, error)
	UpdatePlan(ctx context.Context, input UpdatePlanInput) (*Plan, error)
	DeletePlan(ctx context.Context, id uuid.UUID) error
	ListRanges(ctx context.Context, planID uuid.UUID) ([]CreditRange, error)
	ReplaceRanges(ctx context.Context, planID uuid.UUID, ranges []CreditRange) error
}

type redisCommander interface {
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// Service aplica as regras de planos de comissão.
type Service struct {
	store Store
	cache redisCommander
}

// NewService cria o serviço. cache pode ser nil.
func NewService(store Store, cache redisCommander) *Service {
	return &Service{store: store, cache: cache}
}

// CreatePlan cadastra um plano sem faixas.
func (s *Service) CreatePlan(ctx context.Context, name string) (*Plan, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrInvalidName
	}
	plan, err := s.store.CreatePlan(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("create plan: %w", err)
	}
	plan.Ranges = []CreditRange{}
	return plan, nil
}

// ListPlans lista os planos sem carregar faixas.
func (s *Service) ListPlans(ctx context.Context) ([]Plan, error) {
	plans, err := s.store.ListPlans(ctx)
	if err != nil {
		return nil, fmt.Errorf("list plans: %w", err)
	}
	if plans == nil {
		plans = []Plan{}
	}
	return plans, nil
}

// GetPlan devolve o plano com suas faixas.
func (s *Service) GetPlan(ctx context.Context, id uuid.UUID) (*Plan, error) {
	plan, err := s.store.GetPlan(ctx, id)
	if err != nil {
		return nil, err
	}
	ranges, err := s.store.ListRanges(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list ranges: %w", err)
	}
	plan.Ranges = ranges
	return plan, nil
}

// UpdatePlan renomeia ou ativa/desativa o plano.
func (s *Service) UpdatePlan(ctx context.Context, input UpdatePlanInput) (*Plan, error) {
	input.Name = strings.TrimSpace(input.Name)
	if input.Name == "" {
		return nil, ErrInvalidName
	}
	plan, err := s.store.UpdatePlan(ctx, input)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, input.ID)
	return plan, nil
}

// DeletePlan remove o plano e suas faixas.
func (s *Service) DeletePlan(ctx context.Context, id uuid.UUID) error {
	if err := s.store.DeletePlan(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx, id)
	return nil
}

// SetRanges valida e substitui todas as faixas do plano.
func (s *Service) SetRanges(ctx context.Context, planID uuid.UUID, ranges []CreditRange) ([]CreditRange, error) {
	normalized, err := NormalizeRanges(ranges)
	if err != nil {
		return nil, err
	}
	for i := range normalized {
		normalized[i].ID = uuid.New()
		normalized[i].PlanID = planID
	}

	if err := s.store.ReplaceRanges(ctx, planID, normalized); err != nil {
		return nil, err
	}
	s.invalidate(ctx, planID)
	return normalized, nil
}

// Lookup resolve o percentual de comissão para o valor financiado.
func (s *Service) Lookup(ctx context.Context, planID uuid.UUID, amount decimal.Decimal) (decimal.Decimal, error) {
	plan, err := s.store.GetPlan(ctx, planID)
	if err != nil {
		return decimal.Zero, err
	}
	if !plan.Active {
		return decimal.Zero, ErrPlanInactive
	}

	ranges, err := s.cachedRanges(ctx, planID)
	if err != nil {
		return decimal.Zero, err
	}
	return FindPercent(ranges, amount)
}

func (s *Service) cachedRanges(ctx context.Context, planID uuid.UUID) ([]CreditRange, error) {
	key := cacheKey(planID)
	if s.cache != nil {
		raw, err := s.cache.Get(ctx, key).Result()
		switch {
		case err == nil:
			var ranges []CreditRange
			if err := json.Unmarshal([]byte(raw), &ranges); err == nil {
				return ranges, nil
			}
			log.Warn().Str("plan_id", planID.String()).Msg("commission cache: payload inválido")
		case !errors.Is(err, redis.Nil):
			log.Warn().Err(err).Str("plan_id", planID.String()).Msg("commission cache: falha ao ler")
		}
	}

	ranges, err := s.store.ListRanges(ctx, planID)
	if err != nil {
		return nil, fmt.Errorf("list ranges: %w", err)
	}

	if s.cache != nil {
		if payload, err := json.Marshal(ranges); err == nil {
			if err := s.cache.Set(ctx, key, string(payload), rangesCacheTTL).Err(); err != nil {
				log.Warn().Err(err).Str("plan_id", planID.String()).Msg("commission cache: falha ao gravar")
			}
		}
	}
	return ranges, nil
}

func (s *Service) invalidate(ctx context.Context, planID uuid.UUID) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, cacheKey(planID)).Err(); err != nil {
		log.Warn().Err(err).Str("plan_id", planID.String()).Msg("commission cache: falha ao invalidar")
	}
}

func cacheKey(planID uuid.UUID) string {
	return "commission:ranges:" + planID.String()
}
