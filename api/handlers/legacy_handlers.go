package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gofrs/uuid/v5"

	"cocina-ops/core/incidents"
	"cocina-ops/core/store"
	"cocina-ops/core/utils"
)

// LegacyHandler serves the sheet-era single-endpoint action API. The wire
// contract is kept intact so the existing frontend needs no changes: one
// URL, an action selector, history as a JSON-encoded string, and the
// {kitchenData}/{incidentData}/{incidentId, updates} envelopes.
type LegacyHandler struct {
	kitchens  store.KitchensStore
	incidents store.IncidentsStore
	svc       *incidents.Service
	audits    store.AuditStore
	logger    *utils.Logger
}

func NewLegacyHandler(ks store.KitchensStore, is store.IncidentsStore, svc *incidents.Service, audits store.AuditStore, logger *utils.Logger) *LegacyHandler {
	return &LegacyHandler{kitchens: ks, incidents: is, svc: svc, audits: audits, logger: logger}
}

func (h *LegacyHandler) Actions(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Query().Get("action") {
	case "getKitchens":
		h.getKitchens(w, r)
	case "getIncidents":
		h.getIncidents(w, r)
	case "addKitchen":
		h.addKitchen(w, r)
	case "addIncident":
		h.addIncident(w, r)
	case "updateIncident":
		h.updateIncident(w, r)
	default:
		http.Error(w, "unknown action", http.StatusBadRequest)
	}
}

func (h *LegacyHandler) getKitchens(w http.ResponseWriter, r *http.Request) {
	kitchens, err := h.kitchens.List(r.Context())
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	if kitchens == nil {
		kitchens = []store.Kitchen{}
	}
	writeJSON(w, http.StatusOK, kitchens)
}

// legacyIncident re-encodes history as a JSON string, the shape the storage
// column and the original API always used.
type legacyIncident struct {
	store.Incident
	History string `json:"history"`
}

func (h *LegacyHandler) getIncidents(w http.ResponseWriter, r *http.Request) {
	items, err := h.incidents.List(r.Context(), store.IncidentFilter{})
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	out := make([]legacyIncident, 0, len(items))
	for _, inc := range items {
		out = append(out, legacyIncident{Incident: inc, History: store.HistoryToJSON(inc.History)})
	}
	writeJSON(w, http.StatusOK, out)
}

type legacyKitchenEnvelope struct {
	KitchenData store.Kitchen `json:"kitchenData"`
}

func (h *LegacyHandler) addKitchen(w http.ResponseWriter, r *http.Request) {
	var env legacyKitchenEnvelope
	if err := json.NewDecoder(r.Body).Decode(&env); err != nil {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}
	k := env.KitchenData
	if k.ID == "" {
		id, err := uuid.NewV4()
		if err != nil {
			writeServiceError(w, h.logger, err)
			return
		}
		k.ID = id.String()
	}
	k.CreatedAt = time.Now().UTC()
	if err := h.kitchens.Insert(r.Context(), &k); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	if err := h.audits.Append(r.Context(), k.LDAP, "kitchen.register", "kitchen "+k.OrderNumber); err != nil {
		h.logger.Warnf("audit append failed: %v", err)
	}
	writeJSON(w, http.StatusOK, map[string]string{"result": "success", "id": k.ID})
}

// flexHistory accepts history either as a native array or as a JSON-encoded
// string, and never fails: junk decodes to an empty history, the same
// leniency applied when reading the storage column.
type flexHistory []store.ObservationEntry

func (h *flexHistory) UnmarshalJSON(b []byte) error {
	trimmed := bytes.TrimSpace(b)
	if len(trimmed) == 0 || string(trimmed) == "null" {
		*h = nil
		return nil
	}
	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			*h = nil
			return nil
		}
		*h = store.ParseHistory(s)
		return nil
	}
	var entries []store.ObservationEntry
	if err := json.Unmarshal(trimmed, &entries); err != nil {
		*h = nil
		return nil
	}
	*h = entries
	return nil
}

type legacyIncidentPayload struct {
	ID                  string      `json:"id"`
	KitchenID           string      `json:"kitchenId"`
	Description         string      `json:"description"`
	Observation         string      `json:"observation"`
	History             flexHistory `json:"history"`
	Status              string      `json:"status"`
	AssignedToSeller    *string     `json:"assignedToSeller"`
	AssignedToInstaller *string     `json:"assignedToInstaller"`
	Cause               string      `json:"cause"`
	CreatedAt           *time.Time  `json:"createdAt"`
	UpdatedAt           *time.Time  `json:"updatedAt"`
}

type legacyIncidentEnvelope struct {
	IncidentData legacyIncidentPayload `json:"incidentData"`
}

// addIncident honors the client-generated id and timestamps like the
// original record store did, defaulting whatever the caller left out.
func (h *LegacyHandler) addIncident(w http.ResponseWriter, r *http.Request) {
	var env legacyIncidentEnvelope
	if err := json.NewDecoder(r.Body).Decode(&env); err != nil {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}
	p := env.IncidentData
	if strings.TrimSpace(p.KitchenID) == "" {
		writeValidationError(w, "kitchenId", "kitchenId is required")
		return
	}
	if strings.TrimSpace(p.Description) == "" {
		writeValidationError(w, "description", "description is required")
		return
	}
	if p.ID == "" {
		id, err := uuid.NewV4()
		if err != nil {
			writeServiceError(w, h.logger, err)
			return
		}
		p.ID = id.String()
	}
	now := time.Now().UTC()
	createdAt := now
	if p.CreatedAt != nil {
		createdAt = *p.CreatedAt
	}
	updatedAt := createdAt
	if p.UpdatedAt != nil {
		updatedAt = *p.UpdatedAt
	}
	status := p.Status
	if status == "" {
		status = store.StatusPending
	}
	if !store.ValidStatus(status) {
		writeValidationError(w, "status", "unknown status "+status)
		return
	}
	cause := p.Cause
	if cause == "" {
		cause = store.CauseOther
	}
	if !store.ValidCause(cause) {
		writeValidationError(w, "cause", "unknown cause "+cause)
		return
	}
	inc := &store.Incident{
		ID:                  p.ID,
		KitchenID:           p.KitchenID,
		Description:         p.Description,
		Observation:         p.Observation,
		History:             p.History,
		Status:              status,
		AssignedToSeller:    p.AssignedToSeller,
		AssignedToInstaller: p.AssignedToInstaller,
		Cause:               cause,
		CreatedAt:           createdAt,
		UpdatedAt:           updatedAt,
	}
	if err := h.incidents.Insert(r.Context(), inc); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	if err := h.audits.Append(r.Context(), "", "incident.create", "incident "+inc.ID); err != nil {
		h.logger.Warnf("audit append failed: %v", err)
	}
	writeJSON(w, http.StatusOK, map[string]string{"result": "success", "id": inc.ID})
}

type legacyUpdatePayload struct {
	Status      *string      `json:"status"`
	History     *flexHistory `json:"history"`
	Observation *string      `json:"observation"`
	UpdatedAt   *time.Time   `json:"updatedAt"`
}

type legacyUpdateEnvelope struct {
	IncidentID string              `json:"incidentId"`
	Updates    legacyUpdatePayload `json:"updates"`
}

// updateIncident is a field-level last-write-wins patch. The observation
// mirror is recomputed only when the patch carries history; the caller's own
// observation value is superseded by that recomputation, and a status-only
// patch leaves the stored mirror untouched.
func (h *LegacyHandler) updateIncident(w http.ResponseWriter, r *http.Request) {
	var env legacyUpdateEnvelope
	if err := json.NewDecoder(r.Body).Decode(&env); err != nil {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}
	if env.IncidentID == "" {
		writeValidationError(w, "incidentId", "incidentId is required")
		return
	}
	patch := incidents.IncidentPatch{
		Status:    env.Updates.Status,
		UpdatedAt: env.Updates.UpdatedAt,
	}
	if env.Updates.History != nil {
		entries := []store.ObservationEntry(*env.Updates.History)
		patch.History = &entries
	}
	if _, err := h.svc.ApplyPatch(r.Context(), env.IncidentID, patch); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"result": "success"})
}
