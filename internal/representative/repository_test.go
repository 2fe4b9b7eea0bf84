package representative

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"

	"github.com/google/uuid"

	"github.com/finveiculos/painel-representantes/internal/db"
	"github.com/finveiculos/painel-representantes/internal/util"
)

// Os testes abaixo exercitam as escritas condicionais no PostgreSQL e só
// rodam com TEST_DB_DSN definido.
func newTestRepository(t *testing.T) *Repository {
	t.Helper()
	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		t.Skip("TEST_DB_DSN não definido")
	}

	ctx := context.Background()
	pool, err := db.NewPool(ctx, dsn)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(pool.Close)
	if err := db.Migrate(ctx, pool); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return NewRepository(pool)
}

func createTestRepresentative(t *testing.T, repo *Repository, status Status) *Representative {
	t.Helper()
	id := uuid.New()
	rep, err := repo.Create(context.Background(), Representative{
		ID:           id,
		Name:         "Ana",
		Email:        id.String() + "@teste.finveiculos.com.br",
		CNPJ:         "11222333000144",
		CompanyName:  "Ana Veículos LTDA",
		PointOfSale:  "Loja Centro",
		PasswordHash: "hash",
		Status:       status,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	t.Cleanup(func() { _ = repo.Delete(context.Background(), id) })
	return rep
}

func TestRepositoryTransitionStatusIsConditional(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	rep := createTestRepresentative(t, repo, StatusPendingApproval)

	_, err := repo.TransitionStatus(ctx, StatusChange{ID: rep.ID, From: StatusActive, To: StatusInactive})
	if !errors.Is(err, ErrStatusConflict) {
		t.Fatalf("expected ErrStatusConflict, got %v", err)
	}

	updated, err := repo.TransitionStatus(ctx, StatusChange{ID: rep.ID, From: StatusPendingApproval, To: StatusActive, CommissionCode: util.CommissionCode()})
	if err != nil {
		t.Fatalf("transition: %v", err)
	}
	if updated.Status != StatusActive || updated.CommissionCode == nil {
		t.Fatalf("unexpected representative %+v", updated)
	}

	_, err = repo.TransitionStatus(ctx, StatusChange{ID: uuid.New(), From: StatusActive, To: StatusInactive})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRepositoryConcurrentPromotionWritesOnce(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	rep := createTestRepresentative(t, repo, StatusPendingApproval)

	for _, dt := range RequiredDocTypes() {
		doc, _, err := repo.UpsertDocument(ctx, rep.ID, dt, "https://cdn.test/"+string(dt), rep.ID.String()+"/"+string(dt))
		if err != nil {
			t.Fatalf("upsert %s: %v", dt, err)
		}
		if _, err := repo.ReviewDocument(ctx, doc.ID, DocApproved, nil); err != nil {
			t.Fatalf("review %s: %v", dt, err)
		}
	}

	const callers = 8
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		promoted int
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			complete, didPromote, err := repo.PromoteIfComplete(ctx, rep.ID, util.CommissionCode())
			if err != nil || !complete {
				t.Errorf("promote: complete=%v err=%v", complete, err)
				return
			}
			if didPromote {
				mu.Lock()
				promoted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if promoted != 1 {
		t.Fatalf("expected exactly one promoting write, got %d", promoted)
	}
	got, err := repo.Get(ctx, rep.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != StatusActive {
		t.Fatalf("expected active, got %s", got.Status)
	}
}

func TestRepositoryPromotionSkipsCancelled(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	rep := createTestRepresentative(t, repo, StatusCancelled)

	for _, dt := range RequiredDocTypes() {
		doc, _, err := repo.UpsertDocument(ctx, rep.ID, dt, "https://cdn.test/"+string(dt), rep.ID.String()+"/"+string(dt))
		if err != nil {
			t.Fatalf("upsert %s: %v", dt, err)
		}
		if _, err := repo.ReviewDocument(ctx, doc.ID, DocApproved, nil); err != nil {
			t.Fatalf("review %s: %v", dt, err)
		}
	}

	complete, didPromote, err := repo.PromoteIfComplete(ctx, rep.ID, util.CommissionCode())
	if err != nil || !complete || didPromote {
		t.Fatalf("expected complete without promotion, got complete=%v promoted=%v err=%v", complete, didPromote, err)
	}
}
