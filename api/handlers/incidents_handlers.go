package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"cocina-ops/config"
	"cocina-ops/core/directory"
	"cocina-ops/core/incidents"
	"cocina-ops/core/rbac"
	"cocina-ops/core/scope"
	"cocina-ops/core/store"
	"cocina-ops/core/utils"
)

type IncidentsHandler struct {
	cfg       *config.AppConfig
	kitchens  store.KitchensStore
	incidents store.IncidentsStore
	svc       *incidents.Service
	dir       *directory.Directory
	policy    *rbac.Policy
	logger    *utils.Logger
}

func NewIncidentsHandler(cfg *config.AppConfig, ks store.KitchensStore, is store.IncidentsStore, svc *incidents.Service, dir *directory.Directory, policy *rbac.Policy, logger *utils.Logger) *IncidentsHandler {
	return &IncidentsHandler{cfg: cfg, kitchens: ks, incidents: is, svc: svc, dir: dir, policy: policy, logger: logger}
}

// List serves the task board: incidents scoped by month/year, optionally
// narrowed by status or stripped of completed ones, ordered by the owning
// kitchen's installation date.
func (h *IncidentsHandler) List(w http.ResponseWriter, r *http.Request) {
	kitchens, err := h.kitchens.List(r.Context())
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	all, err := h.incidents.List(r.Context(), store.IncidentFilter{})
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	q := r.URL.Query()
	kitchens, scoped := scope.ByMonthYear(kitchens, all, q.Get("month"), q.Get("year"))
	scoped = scope.FilterIncidents(scoped, q.Get("status"), parseBoolParam(q.Get("hide_completed")))
	scoped = scope.SortByInstallation(scoped, kitchens)
	if scoped == nil {
		scoped = []store.Incident{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": scoped})
}

func (h *IncidentsHandler) Get(w http.ResponseWriter, r *http.Request) {
	inc, err := h.incidents.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, inc)
}

type createIncidentRequest struct {
	KitchenID           string  `json:"kitchenId"`
	Description         string  `json:"description"`
	Cause               string  `json:"cause"`
	Observation         string  `json:"observation"`
	ActorLDAP           string  `json:"actorLdap"`
	AssignedToSeller    *string `json:"assignedToSeller"`
	AssignedToInstaller *string `json:"assignedToInstaller"`
}

func (h *IncidentsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createIncidentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeValidationError(w, "body", "invalid json payload")
		return
	}
	if !h.allowed(w, req.ActorLDAP, rbac.PermCreateIncident) {
		return
	}
	inc, err := h.svc.CreateIncident(r.Context(), incidents.CreateIncidentInput{
		KitchenID:           req.KitchenID,
		Description:         req.Description,
		Cause:               req.Cause,
		InitialNote:         req.Observation,
		ActorLDAP:           req.ActorLDAP,
		AssignedToSeller:    req.AssignedToSeller,
		AssignedToInstaller: req.AssignedToInstaller,
	})
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, inc)
}

type addObservationRequest struct {
	Text       string `json:"text"`
	AuthorLDAP string `json:"authorLdap"`
}

func (h *IncidentsHandler) AddObservation(w http.ResponseWriter, r *http.Request) {
	var req addObservationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeValidationError(w, "body", "invalid json payload")
		return
	}
	if !h.allowed(w, req.AuthorLDAP, rbac.PermUpdateIncident) {
		return
	}
	inc, err := h.svc.AppendObservation(r.Context(), chi.URLParam(r, "id"), req.Text, req.AuthorLDAP)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, inc)
}

type setStatusRequest struct {
	Status    string `json:"status"`
	ActorLDAP string `json:"actorLdap"`
}

func (h *IncidentsHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	var req setStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeValidationError(w, "body", "invalid json payload")
		return
	}
	if !h.allowed(w, req.ActorLDAP, rbac.PermUpdateIncident) {
		return
	}
	inc, err := h.svc.SetStatus(r.Context(), chi.URLParam(r, "id"), req.Status, req.ActorLDAP)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, inc)
}

// allowed resolves the acting ldap and consults the role policy; it writes
// the failure response itself and reports whether the caller may proceed.
func (h *IncidentsHandler) allowed(w http.ResponseWriter, ldap, perm string) bool {
	actor, ok := h.dir.Resolve(ldap)
	if !ok {
		writeValidationError(w, "actor", "ldap does not resolve in the directory")
		return false
	}
	if !h.policy.Allowed(actor.Role, perm) {
		http.Error(w, "forbidden", http.StatusForbidden)
		return false
	}
	return true
}
