package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gofrs/uuid/v5"

	"cocina-ops/config"
	"cocina-ops/core/directory"
	"cocina-ops/core/rbac"
	"cocina-ops/core/scope"
	"cocina-ops/core/store"
	"cocina-ops/core/utils"
)

type KitchensHandler struct {
	cfg       *config.AppConfig
	kitchens  store.KitchensStore
	incidents store.IncidentsStore
	dir       *directory.Directory
	policy    *rbac.Policy
	audits    store.AuditStore
	logger    *utils.Logger
}

func NewKitchensHandler(cfg *config.AppConfig, ks store.KitchensStore, is store.IncidentsStore, dir *directory.Directory, policy *rbac.Policy, audits store.AuditStore, logger *utils.Logger) *KitchensHandler {
	return &KitchensHandler{cfg: cfg, kitchens: ks, incidents: is, dir: dir, policy: policy, audits: audits, logger: logger}
}

func (h *KitchensHandler) List(w http.ResponseWriter, r *http.Request) {
	kitchens, err := h.kitchens.List(r.Context())
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	q := r.URL.Query()
	kitchens, _ = scope.ByMonthYear(kitchens, nil, q.Get("month"), q.Get("year"))
	if search := strings.TrimSpace(q.Get("q")); search != "" {
		kitchens = scope.SearchKitchens(kitchens, search)
	}
	if kitchens == nil {
		kitchens = []store.Kitchen{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": kitchens})
}

type createKitchenRequest struct {
	LDAP             string `json:"ldap"`
	OrderNumber      string `json:"orderNumber"`
	ClientName       string `json:"clientName"`
	Seller           string `json:"seller"`
	Installer        string `json:"installer"`
	InstallationDate string `json:"installationDate"`
}

func (h *KitchensHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createKitchenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeValidationError(w, "body", "invalid json payload")
		return
	}
	actor, ok := h.dir.Resolve(req.LDAP)
	if !ok {
		writeValidationError(w, "ldap", "ldap does not resolve in the directory")
		return
	}
	if !h.policy.Allowed(actor.Role, rbac.PermRegisterKitchen) {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}
	for field, value := range map[string]string{
		"orderNumber":      req.OrderNumber,
		"clientName":       req.ClientName,
		"seller":           req.Seller,
		"installer":        req.Installer,
		"installationDate": req.InstallationDate,
	} {
		if strings.TrimSpace(value) == "" {
			writeValidationError(w, field, field+" is required")
			return
		}
	}
	if _, err := time.Parse("2006-01-02", req.InstallationDate); err != nil {
		writeValidationError(w, "installationDate", "expected YYYY-MM-DD")
		return
	}
	id, err := uuid.NewV4()
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	kitchen := &store.Kitchen{
		ID:               id.String(),
		LDAP:             actor.LDAP,
		OrderNumber:      strings.TrimSpace(req.OrderNumber),
		ClientName:       strings.TrimSpace(req.ClientName),
		Seller:           req.Seller,
		Installer:        req.Installer,
		InstallationDate: req.InstallationDate,
		CreatedAt:        time.Now().UTC(),
	}
	if err := h.kitchens.Insert(r.Context(), kitchen); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	if err := h.audits.Append(r.Context(), actor.LDAP, "kitchen.register", "kitchen "+kitchen.OrderNumber); err != nil {
		h.logger.Warnf("audit append failed: %v", err)
	}
	writeJSON(w, http.StatusCreated, kitchen)
}
