package http

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/finveiculos/painel-representantes/internal/admin"
	"github.com/finveiculos/painel-representantes/internal/auth"
	"github.com/finveiculos/painel-representantes/internal/commission"
	"github.com/finveiculos/painel-representantes/internal/contract"
	"github.com/finveiculos/painel-representantes/internal/representative"
	"github.com/finveiculos/painel-representantes/internal/service"
	"github.com/finveiculos/painel-representantes/internal/storage"
	"github.com/finveiculos/painel-representantes/internal/util"
)

type fakeAuth struct {
	loginResult *service.LoginResult
	loginErr    error
	refreshed   []string
	loggedOut   []string
}

func (f *fakeAuth) LoginAdmin(ctx context.Context, email, password string) (*service.LoginResult, error) {
	return f.loginResult, f.loginErr
}

func (f *fakeAuth) LoginRepresentative(ctx context.Context, email, password string) (*service.LoginResult, error) {
	return f.loginResult, f.loginErr
}

func (f *fakeAuth) Refresh(ctx context.Context, audience, rawToken string) (*service.LoginResult, error) {
	f.refreshed = append(f.refreshed, audience+":"+rawToken)
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	return f.loginResult, nil
}

func (f *fakeAuth) Logout(ctx context.Context, audience, rawToken string) error {
	f.loggedOut = append(f.loggedOut, audience+":"+rawToken)
	return nil
}

type fakeAdmins struct {
	created []string
}

func (f *fakeAdmins) ListAdmins(ctx context.Context) ([]admin.Administrator, error) {
	return []admin.Administrator{{ID: uuid.New(), Name: "Admin", Email: "admin@finveiculos.com.br", Active: true}}, nil
}

func (f *fakeAdmins) CreateAdmin(ctx context.Context, name, email, password string) (*admin.Administrator, error) {
	f.created = append(f.created, email)
	return &admin.Administrator{ID: uuid.New(), Name: name, Email: email, Active: true}, nil
}

type fakeReps struct {
	reps        map[uuid.UUID]*representative.Representative
	policy      storage.Policy
	err         error
	review      *representative.DocumentReview
	uploadCalls int
	deleted     []uuid.UUID
	lastSession auth.Session
	lastDest    representative.TransferDestination
}

func newFakeReps() *fakeReps {
	return &fakeReps{
		reps:   make(map[uuid.UUID]*representative.Representative),
		policy: storage.Policy{MaxBytes: 64, Extensions: []string{".pdf", ".jpg", ".jpeg", ".png"}},
	}
}

func (f *fakeReps) add(status representative.Status) *representative.Representative {
	rep := &representative.Representative{ID: uuid.New(), Name: "Ana", Email: "ana@x.com", Status: status, CreatedAt: time.Now()}
	f.reps[rep.ID] = rep
	return rep
}

func (f *fakeReps) RegisterPublic(ctx context.Context, input representative.RegisterInput) (*representative.Representative, error) {
	if f.err != nil {
		return nil, f.err
	}
	rep := f.add(representative.StatusPendingApproval)
	rep.Email = input.Email
	return rep, nil
}

func (f *fakeReps) CreateRepresentative(ctx context.Context, input representative.CreateInput) (*representative.Representative, string, error) {
	if f.err != nil {
		return nil, "", f.err
	}
	rep := f.add(representative.StatusActive)
	if input.Password == "" {
		return rep, "Temp1234", nil
	}
	return rep, "", nil
}

func (f *fakeReps) GetRepresentative(ctx context.Context, id uuid.UUID) (*representative.Representative, error) {
	rep, ok := f.reps[id]
	if !ok {
		return nil, representative.ErrNotFound
	}
	cp := *rep
	return &cp, nil
}

func (f *fakeReps) ListRepresentatives(ctx context.Context, filter representative.ListFilter) ([]representative.Representative, error) {
	out := make([]representative.Representative, 0, len(f.reps))
	for _, rep := range f.reps {
		out = append(out, *rep)
	}
	return out, nil
}

func (f *fakeReps) UpdateProfile(ctx context.Context, id uuid.UUID, patch representative.ProfilePatch) (*representative.Representative, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.GetRepresentative(ctx, id)
}

func (f *fakeReps) ResetPassword(ctx context.Context, id uuid.UUID) (string, error) {
	if _, err := f.GetRepresentative(ctx, id); err != nil {
		return "", err
	}
	return "Nova1234", nil
}

func (f *fakeReps) AssignCommissionPlan(ctx context.Context, id uuid.UUID, planID *uuid.UUID) (*representative.Representative, error) {
	rep, ok := f.reps[id]
	if !ok {
		return nil, representative.ErrNotFound
	}
	rep.CommissionPlanID = planID
	return rep, nil
}

func (f *fakeReps) ApproveRegistration(ctx context.Context, id uuid.UUID) (*representative.Representative, error) {
	rep, ok := f.reps[id]
	if !ok {
		return nil, representative.ErrNotFound
	}
	if rep.Status == representative.StatusCancelled {
		return nil, representative.ErrInvalidTransition
	}
	rep.Status = representative.StatusActive
	return rep, nil
}

func (f *fakeReps) RejectRegistration(ctx context.Context, id uuid.UUID, reason string) (*representative.Representative, error) {
	if reason == "" {
		return nil, util.NewValidationError("reason", "motivo obrigatório")
	}
	rep, ok := f.reps[id]
	if !ok {
		return nil, representative.ErrNotFound
	}
	rep.Status = representative.StatusCancelled
	rep.RejectionReason = &reason
	return rep, nil
}

func (f *fakeReps) ChangeStatus(ctx context.Context, id uuid.UUID, to representative.Status, reason string) (*representative.Representative, error) {
	if f.err != nil {
		return nil, f.err
	}
	rep, ok := f.reps[id]
	if !ok {
		return nil, representative.ErrNotFound
	}
	if !representative.CanTransition(rep.Status, to) {
		return nil, representative.ErrInvalidTransition
	}
	rep.Status = to
	return rep, nil
}

func (f *fakeReps) CheckAndPromoteToActive(ctx context.Context, id uuid.UUID) (bool, error) {
	return false, f.err
}

func (f *fakeReps) ResolveLoginDestination(ctx context.Context, rep *representative.Representative) (representative.Destination, error) {
	return representative.ResolveLoginDestination(rep.Status, nil), nil
}

func (f *fakeReps) ListDocuments(ctx context.Context, repID uuid.UUID) ([]representative.Document, error) {
	docs := make([]representative.Document, 0, 4)
	for _, t := range representative.RequiredDocTypes() {
		docs = append(docs, representative.Document{ID: uuid.New(), RepresentativeID: repID, Type: t, Status: representative.DocPending})
	}
	return docs, nil
}

func (f *fakeReps) UploadDocument(ctx context.Context, repID uuid.UUID, rawType, filename string, body []byte) (*representative.Document, error) {
	f.uploadCalls++
	docType, err := representative.ParseDocType(rawType)
	if err != nil {
		return nil, err
	}
	if _, err := f.policy.Check(filename, int64(len(body))); err != nil {
		return nil, err
	}
	url := "https://files/" + filename
	return &representative.Document{ID: uuid.New(), RepresentativeID: repID, Type: docType, Status: representative.DocPending, FileURL: &url}, nil
}

func (f *fakeReps) ApproveDocument(ctx context.Context, docID uuid.UUID) (*representative.DocumentReview, error) {
	return f.review, f.err
}

func (f *fakeReps) RejectDocument(ctx context.Context, docID uuid.UUID, reason string) (*representative.Document, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &representative.Document{ID: docID, Status: representative.DocRejected, RejectionReason: &reason}, nil
}

func (f *fakeReps) DeleteRepresentative(ctx context.Context, session auth.Session, id uuid.UUID, adminPassword string) error {
	f.lastSession = session
	if f.err != nil {
		return f.err
	}
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeReps) TransferContracts(ctx context.Context, session auth.Session, id uuid.UUID, adminPassword string, dest representative.TransferDestination) (*representative.TransferResult, error) {
	f.lastSession = session
	f.lastDest = dest
	if f.err != nil {
		return nil, f.err
	}
	return &representative.TransferResult{Transferred: []uuid.UUID{uuid.New()}, Destination: dest}, nil
}

type fakeContracts struct {
	byOwner map[uuid.UUID][]contract.Contract
	filter  contract.Filter
}

func (f *fakeContracts) Create(ctx context.Context, input contract.CreateInput) (*contract.Contract, error) {
	return &contract.Contract{ID: uuid.New(), RepresentativeID: input.RepresentativeID, ClientName: input.ClientName, FinancedAmount: input.FinancedAmount, Status: contract.StatusDraft}, nil
}

func (f *fakeContracts) Get(ctx context.Context, id uuid.UUID) (*contract.Contract, error) {
	return nil, contract.ErrNotFound
}

func (f *fakeContracts) List(ctx context.Context, filter contract.Filter) ([]contract.Contract, error) {
	f.filter = filter
	return []contract.Contract{}, nil
}

func (f *fakeContracts) ListByOwner(ctx context.Context, representativeID uuid.UUID) ([]contract.Contract, error) {
	return f.byOwner[representativeID], nil
}

func (f *fakeContracts) UpdateStatus(ctx context.Context, id uuid.UUID, status string) (*contract.Contract, error) {
	if !contract.IsValidStatus(contract.NormalizeStatus(status)) {
		return nil, contract.ErrInvalidStatus
	}
	return &contract.Contract{ID: id, Status: status}, nil
}

func (f *fakeContracts) Reassign(ctx context.Context, id uuid.UUID, owner *uuid.UUID) error {
	return nil
}

func (f *fakeContracts) Delete(ctx context.Context, id uuid.UUID) error {
	return nil
}

func (f *fakeContracts) AttachFile(ctx context.Context, id uuid.UUID, kind contract.FileKind, filename string, body []byte) (*contract.Contract, error) {
	return &contract.Contract{ID: id}, nil
}

type fakeCommission struct {
	percent decimal.Decimal
	err     error
}

func (f *fakeCommission) CreatePlan(ctx context.Context, name string) (*commission.Plan, error) {
	if name == "" {
		return nil, commission.ErrInvalidName
	}
	return &commission.Plan{ID: uuid.New(), Name: name, Active: true}, nil
}

func (f *fakeCommission) ListPlans(ctx context.Context) ([]commission.Plan, error) {
	return []commission.Plan{}, nil
}

func (f *fakeCommission) GetPlan(ctx context.Context, id uuid.UUID) (*commission.Plan, error) {
	return nil, commission.ErrNotFound
}

func (f *fakeCommission) UpdatePlan(ctx context.Context, input commission.UpdatePlanInput) (*commission.Plan, error) {
	return &commission.Plan{ID: input.ID, Name: input.Name, Active: input.Active}, nil
}

func (f *fakeCommission) DeletePlan(ctx context.Context, id uuid.UUID) error {
	return nil
}

func (f *fakeCommission) SetRanges(ctx context.Context, planID uuid.UUID, ranges []commission.CreditRange) ([]commission.CreditRange, error) {
	return commission.NormalizeRanges(ranges)
}

func (f *fakeCommission) Lookup(ctx context.Context, planID uuid.UUID, amount decimal.Decimal) (decimal.Decimal, error) {
	return f.percent, f.err
}
