package commission

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

type stubStore struct {
	plans      map[uuid.UUID]*Plan
	ranges     map[uuid.UUID][]CreditRange
	rangeReads int
}

func newStubStore() *stubStore {
	return &stubStore{plans: map[uuid.UUID]*Plan{}, ranges: map[uuid.UUID][]CreditRange{}}
}

func (s *stubStore) CreatePlan(ctx context.Context, name string) (*Plan, error) {
	p := &Plan{ID: uuid.New(), Name: name, Active: true, CreatedAt: time.Now(), UpdatedAt: time.Now()}
	s.plans[p.ID] = p
	cp := *p
	return &cp, nil
}

func (s *stubStore) GetPlan(ctx context.Context, id uuid.UUID) (*Plan, error) {
	p, ok := s.plans[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *stubStore) ListPlans(ctx context.Context) ([]Plan, error) {
	var out []Plan
	for _, p := range s.plans {
		out = append(out, *p)
	}
	return out, nil
}

func (s *stubStore) UpdatePlan(ctx context.Context, input UpdatePlanInput) (*Plan, error) {
	p, ok := s.plans[input.ID]
	if !ok {
		return nil, ErrNotFound
	}
	p.Name = input.Name
	p.Active = input.Active
	cp := *p
	return &cp, nil
}

func (s *stubStore) DeletePlan(ctx context.Context, id uuid.UUID) error {
	if _, ok := s.plans[id]; !ok {
		return ErrNotFound
	}
	delete(s.plans, id)
	delete(s.ranges, id)
	return nil
}

func (s *stubStore) ListRanges(ctx context.Context, planID uuid.UUID) ([]CreditRange, error) {
	s.rangeReads++
	return append([]CreditRange{}, s.ranges[planID]...), nil
}

func (s *stubStore) ReplaceRanges(ctx context.Context, planID uuid.UUID, ranges []CreditRange) error {
	if _, ok := s.plans[planID]; !ok {
		return ErrNotFound
	}
	s.ranges[planID] = append([]CreditRange{}, ranges...)
	return nil
}

type stubRedis struct {
	store map[string]string
}

func (s *stubRedis) Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd {
	if s.store == nil {
		s.store = make(map[string]string)
	}
	s.store[key] = fmt.Sprint(value)
	cmd := redis.NewStatusCmd(ctx)
	cmd.SetVal("OK")
	return cmd
}

func (s *stubRedis) Get(ctx context.Context, key string) *redis.StringCmd {
	cmd := redis.NewStringCmd(ctx)
	val, ok := s.store[key]
	if !ok {
		cmd.SetErr(redis.Nil)
		return cmd
	}
	cmd.SetVal(val)
	return cmd
}

func (s *stubRedis) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	var removed int64
	for _, key := range keys {
		if _, ok := s.store[key]; ok {
			delete(s.store, key)
			removed++
		}
	}
	cmd := redis.NewIntCmd(ctx)
	cmd.SetVal(removed)
	return cmd
}

func dec(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func bounded(min, max, percent string) CreditRange {
	return CreditRange{MinAmount: dec(min), MaxAmount: decimal.NewNullDecimal(dec(max)), Percent: dec(percent)}
}

func open(min, percent string) CreditRange {
	return CreditRange{MinAmount: dec(min), Percent: dec(percent)}
}

func TestNormalizeRanges(t *testing.T) {
	cases := []struct {
		name    string
		ranges  []CreditRange
		wantErr error
	}{
		{name: "sorted", ranges: []CreditRange{bounded("0", "10000", "1.5"), open("10000", "2")}},
		{name: "unsorted input", ranges: []CreditRange{open("50000", "3"), bounded("0", "50000", "2")}},
		{name: "overlap", ranges: []CreditRange{bounded("0", "10000", "1"), bounded("9999.99", "20000", "2")}, wantErr: ErrOverlappingRanges},
		{name: "open not last", ranges: []CreditRange{open("0", "1"), bounded("10000", "20000", "2")}, wantErr: ErrOverlappingRanges},
		{name: "negative min", ranges: []CreditRange{bounded("-1", "10", "1")}, wantErr: ErrInvalidRange},
		{name: "max equals min", ranges: []CreditRange{bounded("10", "10", "1")}, wantErr: ErrInvalidRange},
		{name: "percent above 100", ranges: []CreditRange{open("0", "100.01")}, wantErr: ErrInvalidRange},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			out, err := NormalizeRanges(tc.ranges)
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("expected %v, got %v", tc.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			for i := 1; i < len(out); i++ {
				if out[i].MinAmount.LessThan(out[i-1].MinAmount) {
					t.Fatalf("ranges not sorted: %v", out)
				}
			}
		})
	}
}

func TestFindPercentHalfOpen(t *testing.T) {
	ranges := []CreditRange{bounded("0", "10000", "1.5"), open("10000", "2")}

	pct, err := FindPercent(ranges, dec("9999.99"))
	if err != nil || !pct.Equal(dec("1.5")) {
		t.Fatalf("expected 1.5, got %s (%v)", pct, err)
	}
	pct, err = FindPercent(ranges, dec("10000"))
	if err != nil || !pct.Equal(dec("2")) {
		t.Fatalf("expected 2 at boundary, got %s (%v)", pct, err)
	}

	if _, err := FindPercent([]CreditRange{bounded("1000", "2000", "1")}, dec("500")); !errors.Is(err, ErrNoMatchingRange) {
		t.Fatalf("expected ErrNoMatchingRange, got %v", err)
	}
}

func TestCommissionAmount(t *testing.T) {
	got := CommissionAmount(dec("45000"), dec("2.5"))
	if !got.Equal(dec("1125")) {
		t.Fatalf("expected 1125, got %s", got)
	}
	got = CommissionAmount(dec("333.33"), dec("1"))
	if !got.Equal(dec("3.33")) {
		t.Fatalf("expected 3.33, got %s", got)
	}
}

func TestLookupUsesCacheAndInvalidatesOnWrite(t *testing.T) {
	ctx := context.Background()
	store := newStubStore()
	cache := &stubRedis{}
	svc := NewService(store, cache)

	plan, err := svc.CreatePlan(ctx, "Padrão")
	if err != nil {
		t.Fatalf("create plan: %v", err)
	}
	if _, err := svc.SetRanges(ctx, plan.ID, []CreditRange{bounded("0", "20000", "1"), open("20000", "2")}); err != nil {
		t.Fatalf("set ranges: %v", err)
	}

	for i := 0; i < 3; i++ {
		pct, err := svc.Lookup(ctx, plan.ID, dec("25000"))
		if err != nil {
			t.Fatalf("lookup: %v", err)
		}
		if !pct.Equal(dec("2")) {
			t.Fatalf("expected 2, got %s", pct)
		}
	}
	if store.rangeReads != 1 {
		t.Fatalf("expected a single store read, got %d", store.rangeReads)
	}

	if _, err := svc.SetRanges(ctx, plan.ID, []CreditRange{open("0", "3")}); err != nil {
		t.Fatalf("set ranges: %v", err)
	}
	pct, err := svc.Lookup(ctx, plan.ID, dec("25000"))
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if !pct.Equal(dec("3")) {
		t.Fatalf("expected cache invalidated and 3 returned, got %s", pct)
	}
}

func TestLookupRejectsInactivePlan(t *testing.T) {
	ctx := context.Background()
	store := newStubStore()
	svc := NewService(store, nil)

	plan, _ := svc.CreatePlan(ctx, "Antigo")
	if _, err := svc.SetRanges(ctx, plan.ID, []CreditRange{open("0", "1")}); err != nil {
		t.Fatalf("set ranges: %v", err)
	}
	if _, err := svc.UpdatePlan(ctx, UpdatePlanInput{ID: plan.ID, Name: "Antigo", Active: false}); err != nil {
		t.Fatalf("update plan: %v", err)
	}

	if _, err := svc.Lookup(ctx, plan.ID, dec("100")); !errors.Is(err, ErrPlanInactive) {
		t.Fatalf("expected ErrPlanInactive, got %v", err)
	}
}

func TestSetRangesRejectsOverlapWithoutWriting(t *testing.T) {
	ctx := context.Background()
	store := newStubStore()
	svc := NewService(store, nil)

	plan, _ := svc.CreatePlan(ctx, "Teste")
	_, err := svc.SetRanges(ctx, plan.ID, []CreditRange{bounded("0", "100", "1"), bounded("50", "200", "2")})
	if !errors.Is(err, ErrOverlappingRanges) {
		t.Fatalf("expected ErrOverlappingRanges, got %v", err)
	}
	if len(store.ranges[plan.ID]) != 0 {
		t.Fatalf("expected no ranges persisted, got %v", store.ranges[plan.ID])
	}
}

func TestGetPlanIncludesRanges(t *testing.T) {
	ctx := context.Background()
	svc := NewService(newStubStore(), nil)

	plan, _ := svc.CreatePlan(ctx, "Completo")
	if _, err := svc.SetRanges(ctx, plan.ID, []CreditRange{open("0", "1")}); err != nil {
		t.Fatalf("set ranges: %v", err)
	}
	got, err := svc.GetPlan(ctx, plan.ID)
	if err != nil {
		t.Fatalf("get plan: %v", err)
	}
	if len(got.Ranges) != 1 || got.Ranges[0].PlanID != plan.ID {
		t.Fatalf("unexpected ranges %v", got.Ranges)
	}

	if _, err := svc.CreatePlan(ctx, "  "); !errors.Is(err, ErrInvalidName) {
		t.Fatalf("expected ErrInvalidName, got %v", err)
	}
}
