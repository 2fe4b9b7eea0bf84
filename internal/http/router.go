package http

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/finveiculos/painel-representantes/internal/admin"
	"github.com/finveiculos/painel-representantes/internal/auth"
	"github.com/finveiculos/painel-representantes/internal/commission"
	"github.com/finveiculos/painel-representantes/internal/config"
	"github.com/finveiculos/painel-representantes/internal/contract"
	httpmiddleware "github.com/finveiculos/painel-representantes/internal/http/middleware"
	"github.com/finveiculos/painel-representantes/internal/representative"
	"github.com/finveiculos/painel-representantes/internal/service"
)

// AuthAPI cobre login, refresh e logout.
type AuthAPI interface {
	LoginAdmin(ctx context.Context, email, password string) (*service.LoginResult, error)
	LoginRepresentative(ctx context.Context, email, password string) (*service.LoginResult, error)
	Refresh(ctx context.Context, audience, rawToken string) (*service.LoginResult, error)
	Logout(ctx context.Context, audience, rawToken string) error
}

// AdminAPI cobre a gestão de administradores.
type AdminAPI interface {
	ListAdmins(ctx context.Context) ([]admin.Administrator, error)
	CreateAdmin(ctx context.Context, name, email, password string) (*admin.Administrator, error)
}

// RepresentativeAPI cobre ciclo de vida, documentos e transferência.
type RepresentativeAPI interface {
	RegisterPublic(ctx context.Context, input representative.RegisterInput) (*representative.Representative, error)
	CreateRepresentative(ctx context.Context, input representative.CreateInput) (*representative.Representative, string, error)
	GetRepresentative(ctx context.Context, id uuid.UUID) (*representative.Representative, error)
	ListRepresentatives(ctx context.Context, filter representative.ListFilter) ([]representative.Representative, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, patch representative.ProfilePatch) (*representative.Representative, error)
	ResetPassword(ctx context.Context, id uuid.UUID) (string, error)
	AssignCommissionPlan(ctx context.Context, id uuid.UUID, planID *uuid.UUID) (*representative.Representative, error)
	ApproveRegistration(ctx context.Context, id uuid.UUID) (*representative.Representative, error)
	RejectRegistration(ctx context.Context, id uuid.UUID, reason string) (*representative.Representative, error)
	ChangeStatus(ctx context.Context, id uuid.UUID, to representative.Status, reason string) (*representative.Representative, error)
	CheckAndPromoteToActive(ctx context.Context, id uuid.UUID) (bool, error)
	ResolveLoginDestination(ctx context.Context, rep *representative.Representative) (representative.Destination, error)
	ListDocuments(ctx context.Context, repID uuid.UUID) ([]representative.Document, error)
	UploadDocument(ctx context.Context, repID uuid.UUID, rawType, filename string, body []byte) (*representative.Document, error)
	ApproveDocument(ctx context.Context, docID uuid.UUID) (*representative.DocumentReview, error)
	RejectDocument(ctx context.Context, docID uuid.UUID, reason string) (*representative.Document, error)
	DeleteRepresentative(ctx context.Context, session auth.Session, id uuid.UUID, adminPassword string) error
	TransferContracts(ctx context.Context, session auth.Session, id uuid.UUID, adminPassword string, dest representative.TransferDestination) (*representative.TransferResult, error)
}

// ContractAPI cobre contratos e seus arquivos.
type ContractAPI interface {
	Create(ctx context.Context, input contract.CreateInput) (*contract.Contract, error)
	Get(ctx context.Context, id uuid.UUID) (*contract.Contract, error)
	List(ctx context.Context, filter contract.Filter) ([]contract.Contract, error)
	ListByOwner(ctx context.Context, representativeID uuid.UUID) ([]contract.Contract, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) (*contract.Contract, error)
	Reassign(ctx context.Context, id uuid.UUID, owner *uuid.UUID) error
	Delete(ctx context.Context, id uuid.UUID) error
	AttachFile(ctx context.Context, id uuid.UUID, kind contract.FileKind, filename string, body []byte) (*contract.Contract, error)
}

// CommissionAPI cobre planos e faixas de comissão.
type CommissionAPI interface {
	CreatePlan(ctx context.Context, name string) (*commission.Plan, error)
	ListPlans(ctx context.Context) ([]commission.Plan, error)
	GetPlan(ctx context.Context, id uuid.UUID) (*commission.Plan, error)
	UpdatePlan(ctx context.Context, input commission.UpdatePlanInput) (*commission.Plan, error)
	DeletePlan(ctx context.Context, id uuid.UUID) error
	SetRanges(ctx context.Context, planID uuid.UUID, ranges []commission.CreditRange) ([]commission.CreditRange, error)
	Lookup(ctx context.Context, planID uuid.UUID, amount decimal.Decimal) (decimal.Decimal, error)
}

// Dependencies reúne os serviços usados pelos handlers.
type Dependencies struct {
	JWT             *auth.JWTManager
	Auth            AuthAPI
	Admins          AdminAPI
	Representatives RepresentativeAPI
	Contracts       ContractAPI
	Commission      CommissionAPI
	// ReadyChecks é executado em /ready; cada entrada nomeia uma dependência.
	ReadyChecks map[string]func(ctx context.Context) error
}

type Handler struct {
	cfg             *config.Config
	auth            AuthAPI
	admins          AdminAPI
	representatives RepresentativeAPI
	contracts       ContractAPI
	commission      CommissionAPI
	readyChecks     map[string]func(ctx context.Context) error
	publicLimiter   *httpmiddleware.RateLimiter
	authLimiter     *httpmiddleware.RateLimiter
	devCookies      bool
}

// NewRouter devolve roteador configurado.
func NewRouter(cfg *config.Config, deps Dependencies) http.Handler {
	devCookies := false
	for _, origin := range cfg.AllowOrigins {
		if strings.Contains(origin, "localhost") {
			devCookies = true
			break
		}
	}

	h := &Handler{
		cfg:             cfg,
		auth:            deps.Auth,
		admins:          deps.Admins,
		representatives: deps.Representatives,
		contracts:       deps.Contracts,
		commission:      deps.Commission,
		readyChecks:     deps.ReadyChecks,
		publicLimiter:   httpmiddleware.NewRateLimiter(cfg.RateLimitPublic.RequestsPerSecond, cfg.RateLimitPublic.Burst),
		authLimiter:     httpmiddleware.NewRateLimiter(cfg.RateLimitAuth.RequestsPerSecond, cfg.RateLimitAuth.Burst),
		devCookies:      devCookies,
	}

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(httpmiddleware.Logging)
	r.Use(httpmiddleware.Recover)
	r.Use(httpmiddleware.CORS(cfg.AllowOrigins))

	r.Group(func(public chi.Router) {
		public.Use(httpmiddleware.IPRateLimit(h.publicLimiter))

		public.Get("/health", h.Health)
		public.Get("/ready", h.Ready)

		public.Route("/auth", func(auth chi.Router) {
			auth.Post("/admin/login", h.LoginAdmin)
			auth.Post("/representative/login", h.LoginRepresentative)
			auth.Post("/refresh", h.Refresh)
			auth.Post("/logout", h.Logout)
		})

		public.Post("/representatives/register", h.RegisterRepresentative)
	})

	r.Group(func(private chi.Router) {
		private.Use(httpmiddleware.Auth(deps.JWT))
		private.Use(httpmiddleware.UserRateLimit(h.authLimiter))

		private.Route("/me", func(me chi.Router) {
			me.Use(httpmiddleware.RequireRepresentative)
			me.Use(httpmiddleware.RepresentativeAccess(h.currentDestination))
			me.Get("/", h.Me)
			me.Get("/documents", h.MyDocuments)
			me.Post("/documents/{type}", h.UploadMyDocument)
			me.With(httpmiddleware.RepresentativeAccess(h.currentDestination, representative.DestinationDashboard)).
				Get("/contracts", h.MyContracts)
		})

		private.Route("/admin", func(adm chi.Router) {
			adm.Use(httpmiddleware.RequireAdmin)

			adm.Route("/administrators", func(a chi.Router) {
				a.Get("/", h.ListAdmins)
				a.Post("/", h.CreateAdmin)
			})

			adm.Route("/representatives", func(rep chi.Router) {
				rep.Get("/", h.ListRepresentatives)
				rep.Post("/", h.CreateRepresentative)
				rep.Get("/{id}", h.GetRepresentative)
				rep.Patch("/{id}", h.UpdateRepresentative)
				rep.Delete("/{id}", h.DeleteRepresentative)
				rep.Post("/{id}/approve", h.ApproveRegistration)
				rep.Post("/{id}/reject", h.RejectRegistration)
				rep.Put("/{id}/status", h.ChangeRepresentativeStatus)
				rep.Post("/{id}/reset-password", h.ResetRepresentativePassword)
				rep.Put("/{id}/commission-plan", h.AssignCommissionPlan)
				rep.Post("/{id}/promote", h.PromoteRepresentative)
				rep.Post("/{id}/transfer", h.TransferContracts)
				rep.Get("/{id}/documents", h.ListRepresentativeDocuments)
				rep.Get("/{id}/contracts", h.ListRepresentativeContracts)
			})

			adm.Route("/documents", func(doc chi.Router) {
				doc.Post("/{id}/approve", h.ApproveDocument)
				doc.Post("/{id}/reject", h.RejectDocument)
			})

			adm.Route("/contracts", func(c chi.Router) {
				c.Get("/", h.ListContracts)
				c.Post("/", h.CreateContract)
				c.Get("/{id}", h.GetContract)
				c.Delete("/{id}", h.DeleteContract)
				c.Put("/{id}/status", h.UpdateContractStatus)
				c.Put("/{id}/owner", h.ReassignContract)
				c.Post("/{id}/files/{kind}", h.AttachContractFile)
			})

			adm.Route("/commission-plans", func(p chi.Router) {
				p.Get("/", h.ListCommissionPlans)
				p.Post("/", h.CreateCommissionPlan)
				p.Get("/{id}", h.GetCommissionPlan)
				p.Put("/{id}", h.UpdateCommissionPlan)
				p.Delete("/{id}", h.DeleteCommissionPlan)
				p.Put("/{id}/ranges", h.SetCommissionRanges)
				p.Get("/{id}/lookup", h.LookupCommission)
			})
		})
	})

	return r
}

// Health responde status simples.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Ready valida conexões com Postgres e Redis.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	failures := map[string]any{}
	for name, check := range h.readyChecks {
		if err := check(ctx); err != nil {
			failures[name] = err.Error()
		}
	}

	if len(failures) > 0 {
		WriteError(w, http.StatusServiceUnavailable, "INTERNAL", "dependências indisponíveis", failures)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]bool{"ready": true})
}

func (h *Handler) currentDestination(ctx context.Context, id uuid.UUID) (representative.Destination, error) {
	rep, err := h.representatives.GetRepresentative(ctx, id)
	if err != nil {
		return "", err
	}
	return h.representatives.ResolveLoginDestination(ctx, rep)
}
