package incidents

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"cocina-ops/config"
	"cocina-ops/core/directory"
	"cocina-ops/core/store"
	"cocina-ops/core/utils"
)

func setupService(t *testing.T) (*Service, store.IncidentsStore, *sql.DB) {
	t.Helper()
	cfg := &config.AppConfig{DBPath: filepath.Join(t.TempDir(), "cocina.db")}
	logger := utils.NewLogger()
	db, err := store.NewDB(cfg, logger)
	if err != nil {
		t.Fatalf("db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := store.ApplyMigrations(context.Background(), db, "sqlite", logger); err != nil {
		t.Fatalf("migrations: %v", err)
	}
	kitchens := store.NewKitchensStore(db, "sqlite")
	incidents := store.NewIncidentsStore(db, "sqlite")
	audits := store.NewAuditStore(db, "sqlite")
	dir := directory.New([]config.DirectoryEntry{
		{LDAP: "30000001", Name: "Lara", Role: directory.RoleSeller},
		{LDAP: "30104750", Name: "Javi", Role: directory.RoleManager},
	})
	if err := kitchens.Insert(context.Background(), &store.Kitchen{
		ID: "k-1", LDAP: "30000001", OrderNumber: "PED-1", ClientName: "Cliente",
		Seller: "Maybeth", Installer: "Instalador B", InstallationDate: "2025-04-15",
	}); err != nil {
		t.Fatalf("insert kitchen: %v", err)
	}
	return NewService(kitchens, incidents, audits, dir, logger), incidents, db
}

func TestCreateIncidentSellerDefaults(t *testing.T) {
	svc, _, _ := setupService(t)
	inc, err := svc.CreateIncident(context.Background(), CreateIncidentInput{
		KitchenID:   "k-1",
		Description: "falta zócalo",
		InitialNote: "cliente avisado",
		ActorLDAP:   "30000001",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if inc.Status != store.StatusPending {
		t.Fatalf("expected Pendiente, got %s", inc.Status)
	}
	// A seller reporting without a cause reports one of their own.
	if inc.Cause != store.CauseSeller {
		t.Fatalf("expected cause Vendedor, got %s", inc.Cause)
	}
	if inc.AssignedToSeller == nil || *inc.AssignedToSeller != "Lara" {
		t.Fatalf("expected assignment to acting seller, got %v", inc.AssignedToSeller)
	}
	if len(inc.History) != 1 || inc.History[0].AuthorName != "Lara" || inc.History[0].StatusAtTime != store.StatusPending {
		t.Fatalf("expected initial history entry by the actor, got %+v", inc.History)
	}
	if inc.Observation != "cliente avisado" {
		t.Fatalf("observation mirror not set: %q", inc.Observation)
	}
}

func TestCreateIncidentManagerDefaultsToOther(t *testing.T) {
	svc, _, _ := setupService(t)
	inc, err := svc.CreateIncident(context.Background(), CreateIncidentInput{
		KitchenID:   "k-1",
		Description: "retraso transporte",
		ActorLDAP:   "30104750",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if inc.Cause != store.CauseOther {
		t.Fatalf("expected cause Otro, got %s", inc.Cause)
	}
	if inc.AssignedToSeller != nil || inc.AssignedToInstaller != nil {
		t.Fatalf("Otro incidents land on nobody, got %+v", inc)
	}
	if len(inc.History) != 0 || inc.Observation != "" {
		t.Fatalf("no note means no history, got %+v", inc.History)
	}
}

func TestCreateIncidentValidation(t *testing.T) {
	svc, incidents, _ := setupService(t)
	ctx := context.Background()
	cases := []CreateIncidentInput{
		{KitchenID: "k-1", Description: "x", ActorLDAP: "99999999"},
		{KitchenID: "k-1", Description: "   ", ActorLDAP: "30000001"},
		{KitchenID: "missing", Description: "x", ActorLDAP: "30000001"},
		{KitchenID: "k-1", Description: "x", Cause: "Meteorito", ActorLDAP: "30000001"},
	}
	for i, in := range cases {
		_, err := svc.CreateIncident(ctx, in)
		if _, ok := err.(*ValidationError); !ok {
			t.Fatalf("case %d: expected ValidationError, got %v", i, err)
		}
	}
	list, err := incidents.List(ctx, store.IncidentFilter{})
	if err != nil || len(list) != 0 {
		t.Fatalf("rejected operations must not write: %v (%d rows)", err, len(list))
	}
}

func TestAppendObservationIsAppendOnly(t *testing.T) {
	svc, incidents, _ := setupService(t)
	ctx := context.Background()
	inc, err := svc.CreateIncident(ctx, CreateIncidentInput{
		KitchenID: "k-1", Description: "puerta rayada", InitialNote: "primera nota", ActorLDAP: "30000001",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.SetStatus(ctx, inc.ID, store.StatusInProgress, "30104750"); err != nil {
		t.Fatalf("status: %v", err)
	}
	updated, err := svc.AppendObservation(ctx, inc.ID, "segunda nota", "30104750")
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if len(updated.History) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(updated.History))
	}
	first, second := updated.History[0], updated.History[1]
	if first.Text != "primera nota" || first.StatusAtTime != store.StatusPending {
		t.Fatalf("existing entry mutated: %+v", first)
	}
	if second.Text != "segunda nota" || second.StatusAtTime != store.StatusInProgress || second.AuthorName != "Javi" {
		t.Fatalf("unexpected new entry %+v", second)
	}
	if updated.Observation != "segunda nota" {
		t.Fatalf("mirror not refreshed: %q", updated.Observation)
	}
	// Blank notes and unknown authors are rejected before any write.
	if _, err := svc.AppendObservation(ctx, inc.ID, "   ", "30104750"); err == nil {
		t.Fatalf("expected blank note rejection")
	}
	if _, err := svc.AppendObservation(ctx, inc.ID, "nota", "99999999"); err == nil {
		t.Fatalf("expected unknown author rejection")
	}
	stored, err := incidents.Get(ctx, inc.ID)
	if err != nil || len(stored.History) != 2 {
		t.Fatalf("rejected appends must leave history untouched: %v (%d)", err, len(stored.History))
	}
}

func TestSetStatusPermissiveAndMirrorStale(t *testing.T) {
	svc, _, _ := setupService(t)
	ctx := context.Background()
	inc, err := svc.CreateIncident(ctx, CreateIncidentInput{
		KitchenID: "k-1", Description: "d", InitialNote: "nota original", ActorLDAP: "30000001",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	// Pendiente straight to Completada and back: every member of the status
	// set is reachable from every other.
	for _, next := range []string{store.StatusCompleted, store.StatusPending, store.StatusInProgress} {
		got, err := svc.SetStatus(ctx, inc.ID, next, "30104750")
		if err != nil {
			t.Fatalf("to %s: %v", next, err)
		}
		if got.Status != next {
			t.Fatalf("expected %s, got %s", next, got.Status)
		}
		if got.Observation != "nota original" {
			t.Fatalf("status change must not touch the mirror, got %q", got.Observation)
		}
	}
	if _, err := svc.SetStatus(ctx, inc.ID, "Archivada", "30104750"); err == nil {
		t.Fatalf("expected unknown status rejection")
	}
}

func TestApplyPatchRecomputesMirror(t *testing.T) {
	svc, _, _ := setupService(t)
	ctx := context.Background()
	inc, err := svc.CreateIncident(ctx, CreateIncidentInput{
		KitchenID: "k-1", Description: "d", InitialNote: "vieja", ActorLDAP: "30000001",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	newHistory := []store.ObservationEntry{
		{Text: "reescrita", Date: time.Now().UTC(), StatusAtTime: store.StatusInProgress},
		{Text: "última", Date: time.Now().UTC(), StatusAtTime: store.StatusInProgress},
	}
	status := store.StatusInProgress
	patched, err := svc.ApplyPatch(ctx, inc.ID, IncidentPatch{Status: &status, History: &newHistory})
	if err != nil {
		t.Fatalf("patch: %v", err)
	}
	if patched.Observation != "última" {
		t.Fatalf("mirror must follow the newest patched entry, got %q", patched.Observation)
	}
	empty := []store.ObservationEntry{}
	patched, err = svc.ApplyPatch(ctx, inc.ID, IncidentPatch{History: &empty})
	if err != nil {
		t.Fatalf("patch: %v", err)
	}
	if patched.Observation != "" {
		t.Fatalf("empty history clears the mirror, got %q", patched.Observation)
	}
	if _, err := svc.ApplyPatch(ctx, "missing", IncidentPatch{}); err != store.ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDefaultAssignment(t *testing.T) {
	kitchen := &store.Kitchen{Seller: "Maybeth", Installer: "Instalador B"}
	named := "Raquel"

	seller, installer := DefaultAssignment(kitchen, store.CauseSeller, nil, nil)
	if seller == nil || *seller != "Maybeth" || installer != nil {
		t.Fatalf("seller cause defaults to the kitchen's seller: %v %v", seller, installer)
	}
	seller, _ = DefaultAssignment(kitchen, store.CauseSeller, &named, nil)
	if *seller != "Raquel" {
		t.Fatalf("explicit assignee must win, got %s", *seller)
	}
	seller, installer = DefaultAssignment(kitchen, store.CauseInstaller, nil, nil)
	if seller != nil || installer == nil || *installer != "Instalador B" {
		t.Fatalf("installer cause defaults to the kitchen's installer: %v %v", seller, installer)
	}
	seller, installer = DefaultAssignment(kitchen, store.CauseLogistics, nil, nil)
	if seller != nil || installer != nil {
		t.Fatalf("logistics incidents land on nobody")
	}
}
