package handlers

import (
	"net/http"
	"strconv"

	"cocina-ops/core/directory"
	"cocina-ops/core/rbac"
	"cocina-ops/core/store"
	"cocina-ops/core/utils"
)

type MiscHandler struct {
	dir    *directory.Directory
	policy *rbac.Policy
	audits store.AuditStore
	logger *utils.Logger
}

func NewMiscHandler(dir *directory.Directory, policy *rbac.Policy, audits store.AuditStore, logger *utils.Logger) *MiscHandler {
	return &MiscHandler{dir: dir, policy: policy, audits: audits, logger: logger}
}

func (h *MiscHandler) SearchDirectory(w http.ResponseWriter, r *http.Request) {
	actors := h.dir.Search(r.URL.Query().Get("q"))
	if actors == nil {
		actors = []directory.Actor{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": actors})
}

// ListAudit exposes the mutation trail. Manager only.
func (h *MiscHandler) ListAudit(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.dir.Resolve(r.Header.Get("X-Actor-Ldap"))
	if !ok {
		writeValidationError(w, "actor", "ldap does not resolve in the directory")
		return
	}
	if !h.policy.Allowed(actor.Role, rbac.PermViewAudit) {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	entries, err := h.audits.List(r.Context(), limit)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	if entries == nil {
		entries = []store.AuditEntry{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": entries})
}
