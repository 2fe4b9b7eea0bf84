package representative

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/finveiculos/painel-representantes/internal/auth"
)

func TestDeleteWithWrongPasswordMutatesNothing(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	rep := f.register(t, "ana@x.com")
	f.contracts.add(rep.ID)

	if err := f.svc.DeleteRepresentative(ctx, f.admin, rep.ID, "errada"); !errors.Is(err, ErrAuthentication) {
		t.Fatalf("expected ErrAuthentication, got %v", err)
	}
	if _, err := f.svc.TransferContracts(ctx, f.admin, rep.ID, "", TransferDestination{}); !errors.Is(err, ErrAuthentication) {
		t.Fatalf("expected ErrAuthentication on transfer, got %v", err)
	}

	representativeSession := auth.Session{Subject: f.admin.Subject, Audience: auth.AudienceRepresentative, Roles: []string{auth.RoleRepresentative}}
	if err := f.svc.DeleteRepresentative(ctx, representativeSession, rep.ID, adminPassword); !errors.Is(err, ErrAuthentication) {
		t.Fatalf("non-admin session must fail, got %v", err)
	}

	if _, err := f.store.Get(ctx, rep.ID); err != nil {
		t.Fatalf("representative must remain: %v", err)
	}
	if f.contracts.count(rep.ID) != 1 || f.contracts.reassigns != 0 {
		t.Fatal("contracts must remain untouched")
	}
}

func TestDeleteBlockedByContracts(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	rep := f.register(t, "ana@x.com")
	f.contracts.add(rep.ID)
	f.contracts.add(rep.ID)

	err := f.svc.DeleteRepresentative(ctx, f.admin, rep.ID, adminPassword)
	var blocked *HasActiveContractsError
	if !errors.As(err, &blocked) {
		t.Fatalf("expected HasActiveContractsError, got %v", err)
	}
	if len(blocked.Contracts) != 2 {
		t.Fatalf("expected the two contracts in the error, got %d", len(blocked.Contracts))
	}
	if _, err := f.store.Get(ctx, rep.ID); err != nil {
		t.Fatalf("representative must remain: %v", err)
	}
}

func TestDeleteWithoutContractsRemovesBlobs(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	rep := f.register(t, "ana@x.com")
	f.uploadAll(t, rep.ID)

	if err := f.svc.DeleteRepresentative(ctx, f.admin, rep.ID, adminPassword); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := f.store.Get(ctx, rep.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected representative removed, got %v", err)
	}
	if len(f.files.deleted) != 4 {
		t.Fatalf("expected four document blobs removed, got %v", f.files.deleted)
	}
	if err := f.svc.DeleteRepresentative(ctx, f.admin, rep.ID, adminPassword); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestTransferMovesAllContractsBeforeDelete(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	source := f.register(t, "ana@x.com")
	target := f.register(t, "bia@x.com")
	const n = 3
	for i := 0; i < n; i++ {
		f.contracts.add(source.ID)
	}

	result, err := f.svc.TransferContracts(ctx, f.admin, source.ID, adminPassword, TransferDestination{RepresentativeID: &target.ID})
	if err != nil {
		t.Fatalf("transfer: %v", err)
	}
	if len(result.Transferred) != n {
		t.Fatalf("expected %d transferred, got %d", n, len(result.Transferred))
	}

	fromOld, _ := f.contracts.ListByOwner(ctx, source.ID)
	fromNew, _ := f.contracts.ListByOwner(ctx, target.ID)
	if len(fromOld) != 0 || len(fromNew) != n {
		t.Fatalf("expected 0 on source and %d on target, got %d/%d", n, len(fromOld), len(fromNew))
	}
	if _, err := f.store.Get(ctx, source.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("source must be deleted, got %v", err)
	}
}

func TestTransferToAdministration(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	source := f.register(t, "ana@x.com")
	f.contracts.add(source.ID)
	f.contracts.add(source.ID)

	if _, err := f.svc.TransferContracts(ctx, f.admin, source.ID, adminPassword, TransferDestination{}); err != nil {
		t.Fatalf("transfer: %v", err)
	}
	if f.contracts.adminOwned() != 2 {
		t.Fatalf("expected contracts owned by administration, got %d", f.contracts.adminOwned())
	}
}

func TestTransferPartialFailureKeepsRepresentative(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	source := f.register(t, "ana@x.com")
	target := f.register(t, "bia@x.com")
	for i := 0; i < 4; i++ {
		f.contracts.add(source.ID)
	}
	f.contracts.failOn = 3

	_, err := f.svc.TransferContracts(ctx, f.admin, source.ID, adminPassword, TransferDestination{RepresentativeID: &target.ID})
	var terr *TransferError
	if !errors.As(err, &terr) {
		t.Fatalf("expected TransferError, got %v", err)
	}
	if len(terr.Reassigned) != 2 || len(terr.Pending) != 2 {
		t.Fatalf("expected 2 reassigned and 2 pending, got %d/%d", len(terr.Reassigned), len(terr.Pending))
	}
	if _, err := f.store.Get(ctx, source.ID); err != nil {
		t.Fatalf("source must not be deleted after partial failure: %v", err)
	}
	if f.contracts.count(source.ID) != 2 || f.contracts.count(target.ID) != 2 {
		t.Fatalf("unexpected split %d/%d", f.contracts.count(source.ID), f.contracts.count(target.ID))
	}
}

func TestTransferDestinationChecks(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	source := f.register(t, "ana@x.com")
	cancelled := f.register(t, "cancelado@x.com")
	if _, err := f.svc.RejectRegistration(ctx, cancelled.ID, "inativo"); err != nil {
		t.Fatalf("reject: %v", err)
	}
	f.contracts.add(source.ID)
	unknown := uuid.New()

	for name, dest := range map[string]*uuid.UUID{
		"same":      &source.ID,
		"cancelled": &cancelled.ID,
		"unknown":   &unknown,
	} {
		_, err := f.svc.TransferContracts(ctx, f.admin, source.ID, adminPassword, TransferDestination{RepresentativeID: dest})
		var verr *ValidationError
		if !errors.As(err, &verr) || verr.Fields["representativeId"] == "" {
			t.Fatalf("%s: expected destination validation error, got %v", name, err)
		}
	}
	if f.contracts.reassigns != 0 {
		t.Fatal("invalid destination must not reassign anything")
	}
}
