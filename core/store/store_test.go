package store

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"cocina-ops/config"
	"cocina-ops/core/utils"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	cfg := &config.AppConfig{DBPath: filepath.Join(t.TempDir(), "cocina.db")}
	logger := utils.NewLogger()
	db, err := NewDB(cfg, logger)
	if err != nil {
		t.Fatalf("db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := ApplyMigrations(context.Background(), db, "sqlite", logger); err != nil {
		t.Fatalf("migrations: %v", err)
	}
	return db
}

func TestParseHistoryLenient(t *testing.T) {
	cases := []string{"", "  ", "NULL", "null", "not json", `{"text":"obj not array"}`, "[broken"}
	for _, raw := range cases {
		if got := ParseHistory(raw); len(got) != 0 {
			t.Fatalf("ParseHistory(%q) = %v, expected empty", raw, got)
		}
	}
	entries := ParseHistory(`[{"text":"primera nota","statusAtTime":"Pendiente"}]`)
	if len(entries) != 1 || entries[0].Text != "primera nota" {
		t.Fatalf("expected one entry, got %+v", entries)
	}
}

func TestHistoryToJSONEmpty(t *testing.T) {
	if got := HistoryToJSON(nil); got != "[]" {
		t.Fatalf("expected [], got %q", got)
	}
}

func TestNormalizeSynthesizesFromObservation(t *testing.T) {
	created := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	inc := &Incident{Observation: "falta encimera", Status: StatusInProgress, CreatedAt: created}
	inc.Normalize()
	if len(inc.History) != 1 {
		t.Fatalf("expected synthesized entry, got %d", len(inc.History))
	}
	e := inc.History[0]
	if e.Text != "falta encimera" || e.StatusAtTime != StatusInProgress || !e.Date.Equal(created) {
		t.Fatalf("unexpected synthesized entry %+v", e)
	}
	if e.AuthorLDAP != "" || e.AuthorName != "" {
		t.Fatalf("synthesized entry must have no author, got %+v", e)
	}
	// Already-normalized incidents are untouched on a second pass.
	inc.Normalize()
	if len(inc.History) != 1 {
		t.Fatalf("normalize must be idempotent, got %d entries", len(inc.History))
	}
}

func TestNormalizeEmptyObservation(t *testing.T) {
	inc := &Incident{Observation: "   "}
	inc.Normalize()
	if len(inc.History) != 0 {
		t.Fatalf("blank observation must not synthesize history")
	}
}

func TestKitchensStoreRoundTrip(t *testing.T) {
	db := newTestDB(t)
	kitchens := NewKitchensStore(db, "sqlite")
	ctx := context.Background()
	k := &Kitchen{
		ID:               "k-1",
		LDAP:             "30000001",
		OrderNumber:      "PED-1001",
		ClientName:       "Cliente Uno",
		Seller:           "Lara",
		Installer:        "Instalador A",
		InstallationDate: "2025-04-15",
	}
	if err := kitchens.Insert(ctx, k); err != nil {
		t.Fatalf("insert: %v", err)
	}
	got, err := kitchens.Get(ctx, "k-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.OrderNumber != "PED-1001" || got.Seller != "Lara" {
		t.Fatalf("unexpected row %+v", got)
	}
	if _, err := kitchens.Get(ctx, "missing"); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	list, err := kitchens.List(ctx)
	if err != nil || len(list) != 1 {
		t.Fatalf("list: %v (%d rows)", err, len(list))
	}
}

func TestIncidentsStoreLegacyHistoryColumn(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	if err := NewKitchensStore(db, "sqlite").Insert(ctx, &Kitchen{ID: "k-1", OrderNumber: "PED-1", InstallationDate: "2025-01-10"}); err != nil {
		t.Fatalf("insert kitchen: %v", err)
	}
	// A sheet-era row: history column holds the literal string NULL, the
	// observation field carries the only note.
	_, err := db.ExecContext(ctx, `
		INSERT INTO incidents(id, kitchen_id, description, observation, history, status, cause, created_at, updated_at)
		VALUES(?,?,?,?,?,?,?,?,?)`,
		"i-legacy", "k-1", "puerta rayada", "pendiente de repuesto", "NULL",
		StatusPending, CauseInstaller, time.Now().UTC(), time.Now().UTC())
	if err != nil {
		t.Fatalf("raw insert: %v", err)
	}
	incidents := NewIncidentsStore(db, "sqlite")
	inc, err := incidents.Get(ctx, "i-legacy")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(inc.History) != 1 || inc.History[0].Text != "pendiente de repuesto" {
		t.Fatalf("expected normalized history from observation, got %+v", inc.History)
	}
}

func TestIncidentsStoreUpdateNotFound(t *testing.T) {
	db := newTestDB(t)
	incidents := NewIncidentsStore(db, "sqlite")
	err := incidents.Update(context.Background(), &Incident{ID: "missing", KitchenID: "k", Status: StatusPending, Cause: CauseOther})
	if err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestIncidentsStoreFilterAndOrder(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	kitchens := NewKitchensStore(db, "sqlite")
	for _, id := range []string{"k-1", "k-2"} {
		if err := kitchens.Insert(ctx, &Kitchen{ID: id, OrderNumber: id, InstallationDate: "2025-01-10"}); err != nil {
			t.Fatalf("insert kitchen: %v", err)
		}
	}
	incidents := NewIncidentsStore(db, "sqlite")
	base := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	rows := []*Incident{
		{ID: "i-1", KitchenID: "k-1", Description: "a", Status: StatusPending, Cause: CauseSeller, CreatedAt: base, UpdatedAt: base},
		{ID: "i-2", KitchenID: "k-2", Description: "b", Status: StatusCompleted, Cause: CauseOther, CreatedAt: base.Add(time.Hour), UpdatedAt: base.Add(time.Hour)},
		{ID: "i-3", KitchenID: "k-1", Description: "c", Status: StatusPending, Cause: CauseLogistics, CreatedAt: base.Add(2 * time.Hour), UpdatedAt: base.Add(2 * time.Hour)},
	}
	for _, inc := range rows {
		if err := incidents.Insert(ctx, inc); err != nil {
			t.Fatalf("insert %s: %v", inc.ID, err)
		}
	}
	byKitchen, err := incidents.List(ctx, IncidentFilter{KitchenID: "k-1"})
	if err != nil || len(byKitchen) != 2 {
		t.Fatalf("kitchen filter: %v (%d rows)", err, len(byKitchen))
	}
	if byKitchen[0].ID != "i-1" || byKitchen[1].ID != "i-3" {
		t.Fatalf("expected creation order, got %s %s", byKitchen[0].ID, byKitchen[1].ID)
	}
	byStatus, err := incidents.List(ctx, IncidentFilter{Status: StatusCompleted})
	if err != nil || len(byStatus) != 1 || byStatus[0].ID != "i-2" {
		t.Fatalf("status filter: %v %+v", err, byStatus)
	}
}

func TestAuditStoreAppendAndList(t *testing.T) {
	db := newTestDB(t)
	audits := NewAuditStore(db, "sqlite")
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if err := audits.Append(ctx, "30000001", "incident.note", "nota"); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	entries, err := audits.List(ctx, 2)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected limit to apply, got %d", len(entries))
	}
	if entries[0].ID < entries[1].ID {
		t.Fatalf("expected newest first, got %d then %d", entries[0].ID, entries[1].ID)
	}
}
