package representative

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/finveiculos/painel-representantes/internal/contract"
	"github.com/finveiculos/painel-representantes/internal/storage"
)

type memStore struct {
	mu          sync.Mutex
	reps        map[uuid.UUID]*Representative
	docs        map[uuid.UUID]*Document
	contracts   *memContracts
	transitions int
	promoteErr  error
}

func newMemStore(contracts *memContracts) *memStore {
	return &memStore{
		reps:      map[uuid.UUID]*Representative{},
		docs:      map[uuid.UUID]*Document{},
		contracts: contracts,
	}
}

func (m *memStore) Create(ctx context.Context, rep Representative) (*Representative, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.reps {
		if existing.Email == rep.Email {
			return nil, ErrDuplicateEmail
		}
	}
	rep.CreatedAt = time.Now()
	rep.UpdatedAt = rep.CreatedAt
	m.reps[rep.ID] = &rep
	cp := rep
	return &cp, nil
}

func (m *memStore) Get(ctx context.Context, id uuid.UUID) (*Representative, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rep, ok := m.reps[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *rep
	return &cp, nil
}

func (m *memStore) GetByEmail(ctx context.Context, email string) (*Representative, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, rep := range m.reps {
		if rep.Email == email {
			cp := *rep
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m *memStore) List(ctx context.Context, filter ListFilter) ([]Representative, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []Representative{}
	for _, rep := range m.reps {
		out = append(out, *rep)
	}
	return out, nil
}

func (m *memStore) UpdateProfile(ctx context.Context, id uuid.UUID, patch ProfilePatch) (*Representative, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rep, ok := m.reps[id]
	if !ok {
		return nil, ErrNotFound
	}
	if patch.Email != nil {
		for otherID, other := range m.reps {
			if otherID != id && other.Email == *patch.Email {
				return nil, ErrDuplicateEmail
			}
		}
		rep.Email = *patch.Email
	}
	if patch.Name != nil {
		rep.Name = *patch.Name
	}
	if patch.Phone != nil {
		rep.Phone = *patch.Phone
	}
	if patch.CNPJ != nil {
		rep.CNPJ = *patch.CNPJ
	}
	if patch.CompanyName != nil {
		rep.CompanyName = *patch.CompanyName
	}
	if patch.PointOfSale != nil {
		rep.PointOfSale = *patch.PointOfSale
	}
	cp := *rep
	return &cp, nil
}

func (m *memStore) UpdatePassword(ctx context.Context, id uuid.UUID, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rep, ok := m.reps[id]
	if !ok {
		return ErrNotFound
	}
	rep.PasswordHash = hash
	return nil
}

func (m *memStore) TransitionStatus(ctx context.Context, change StatusChange) (*Representative, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rep, ok := m.reps[change.ID]
	if !ok {
		return nil, ErrNotFound
	}
	if rep.Status != change.From {
		return nil, ErrStatusConflict
	}
	rep.Status = change.To
	rep.RejectionReason = change.RejectionReason
	if rep.CommissionCode == nil && change.CommissionCode != "" {
		code := change.CommissionCode
		rep.CommissionCode = &code
	}
	m.transitions++
	cp := *rep
	return &cp, nil
}

func (m *memStore) PromoteIfComplete(ctx context.Context, id uuid.UUID, commissionCode string) (bool, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.promoteErr != nil {
		return false, false, m.promoteErr
	}
	rep, ok := m.reps[id]
	if !ok {
		return false, false, ErrNotFound
	}

	approved := map[DocType]bool{}
	for _, doc := range m.docs {
		if doc.RepresentativeID == id && doc.Status == DocApproved {
			approved[doc.Type] = true
		}
	}
	complete := len(approved) == len(RequiredDocTypes())
	if !complete || rep.Status == StatusActive || rep.Status == StatusCancelled {
		return complete, false, nil
	}

	rep.Status = StatusActive
	rep.RejectionReason = nil
	if rep.CommissionCode == nil {
		rep.CommissionCode = &commissionCode
	}
	m.transitions++
	return true, true, nil
}

func (m *memStore) SetCommissionPlan(ctx context.Context, id uuid.UUID, planID *uuid.UUID) (*Representative, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rep, ok := m.reps[id]
	if !ok {
		return nil, ErrNotFound
	}
	rep.CommissionPlanID = planID
	cp := *rep
	return &cp, nil
}

func (m *memStore) Delete(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.reps[id]; !ok {
		return ErrNotFound
	}
	if m.contracts != nil && m.contracts.count(id) > 0 {
		return &HasActiveContractsError{}
	}
	delete(m.reps, id)
	for docID, doc := range m.docs {
		if doc.RepresentativeID == id {
			delete(m.docs, docID)
		}
	}
	return nil
}

func (m *memStore) EnsureDocumentPlaceholders(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.reps[id]; !ok {
		return ErrNotFound
	}
	for _, t := range RequiredDocTypes() {
		if m.findDoc(id, t) == nil {
			doc := &Document{ID: uuid.New(), RepresentativeID: id, Type: t, Status: DocPending, CreatedAt: time.Now()}
			m.docs[doc.ID] = doc
		}
	}
	return nil
}

func (m *memStore) ListDocuments(ctx context.Context, id uuid.UUID) ([]Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []Document{}
	for _, t := range RequiredDocTypes() {
		if doc := m.findDoc(id, t); doc != nil {
			out = append(out, *doc)
		}
	}
	return out, nil
}

func (m *memStore) GetDocument(ctx context.Context, id uuid.UUID) (*Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.docs[id]
	if !ok {
		return nil, ErrDocumentNotFound
	}
	cp := *doc
	return &cp, nil
}

func (m *memStore) UpsertDocument(ctx context.Context, repID uuid.UUID, docType DocType, fileURL, fileKey string) (*Document, *string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.reps[repID]; !ok {
		return nil, nil, ErrNotFound
	}
	now := time.Now()
	doc := m.findDoc(repID, docType)
	var previous *string
	if doc == nil {
		doc = &Document{ID: uuid.New(), RepresentativeID: repID, Type: docType, CreatedAt: now}
		m.docs[doc.ID] = doc
	} else {
		previous = doc.FileKey
	}
	doc.Status = DocPending
	doc.FileURL = &fileURL
	doc.FileKey = &fileKey
	doc.RejectionReason = nil
	doc.UploadedAt = &now
	doc.ReviewedAt = nil
	cp := *doc
	return &cp, previous, nil
}

func (m *memStore) ReviewDocument(ctx context.Context, id uuid.UUID, status DocStatus, reason *string) (*Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.docs[id]
	if !ok {
		return nil, ErrDocumentNotFound
	}
	now := time.Now()
	doc.Status = status
	doc.RejectionReason = reason
	doc.ReviewedAt = &now
	cp := *doc
	return &cp, nil
}

func (m *memStore) findDoc(repID uuid.UUID, docType DocType) *Document {
	for _, doc := range m.docs {
		if doc.RepresentativeID == repID && doc.Type == docType {
			return doc
		}
	}
	return nil
}

type memContracts struct {
	mu        sync.Mutex
	owners    map[uuid.UUID]*uuid.UUID
	order     []uuid.UUID
	failOn    int
	reassigns int
}

func newMemContracts() *memContracts {
	return &memContracts{owners: map[uuid.UUID]*uuid.UUID{}}
}

func (m *memContracts) add(owner uuid.UUID) uuid.UUID {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := uuid.New()
	o := owner
	m.owners[id] = &o
	m.order = append(m.order, id)
	return id
}

func (m *memContracts) count(owner uuid.UUID) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, o := range m.owners {
		if o != nil && *o == owner {
			n++
		}
	}
	return n
}

func (m *memContracts) adminOwned() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, o := range m.owners {
		if o == nil {
			n++
		}
	}
	return n
}

func (m *memContracts) ListByOwner(ctx context.Context, representativeID uuid.UUID) ([]contract.Contract, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []contract.Contract{}
	for _, id := range m.order {
		o := m.owners[id]
		if o != nil && *o == representativeID {
			owner := *o
			out = append(out, contract.Contract{ID: id, RepresentativeID: &owner, Status: contract.StatusApproved})
		}
	}
	return out, nil
}

func (m *memContracts) Reassign(ctx context.Context, id uuid.UUID, owner *uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reassigns++
	if m.failOn > 0 && m.reassigns == m.failOn {
		return errors.New("conexão perdida")
	}
	if _, ok := m.owners[id]; !ok {
		return contract.ErrNotFound
	}
	m.owners[id] = owner
	return nil
}

type stubAdmins struct {
	passwords map[uuid.UUID]string
}

func (s stubAdmins) VerifyAdminPassword(ctx context.Context, adminID uuid.UUID, password string) (bool, error) {
	expected, ok := s.passwords[adminID]
	return ok && expected == password, nil
}

type memFiles struct {
	mu      sync.Mutex
	objects map[string]storage.UploadInput
	deleted []string
}

func (m *memFiles) Upload(ctx context.Context, input storage.UploadInput) (*storage.UploadResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.objects == nil {
		m.objects = map[string]storage.UploadInput{}
	}
	m.objects[input.Key] = input
	return &storage.UploadResult{URL: "https://cdn.test/" + string(input.Bucket) + "/" + input.Key, Key: input.Key}, nil
}

func (m *memFiles) Delete(ctx context.Context, bucket storage.Bucket, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	m.deleted = append(m.deleted, key)
	return nil
}
