package handlers

import (
	"net/http"

	"cocina-ops/config"
	"cocina-ops/core/analytics"
	"cocina-ops/core/scope"
	"cocina-ops/core/store"
	"cocina-ops/core/utils"
)

type DashboardHandler struct {
	cfg       *config.AppConfig
	kitchens  store.KitchensStore
	incidents store.IncidentsStore
	logger    *utils.Logger
}

func NewDashboardHandler(cfg *config.AppConfig, ks store.KitchensStore, is store.IncidentsStore, logger *utils.Logger) *DashboardHandler {
	return &DashboardHandler{cfg: cfg, kitchens: ks, incidents: is, logger: logger}
}

type rosterSplit[T any] struct {
	Sellers    []T `json:"sellers"`
	Installers []T `json:"installers"`
}

type dashboardResponse struct {
	TotalKitchens      int                            `json:"totalKitchens"`
	HistoricalAffected int                            `json:"historicalAffected"`
	ActiveAffected     int                            `json:"activeAffected"`
	HistoricalRatio    float64                        `json:"historicalRatio"`
	PendingRatio       float64                        `json:"pendingRatio"`
	SellerSummary      []analytics.Summary            `json:"sellerSummary"`
	InstallerSummary   []analytics.Summary            `json:"installerSummary"`
	ResolutionSpeed    rosterSplit[analytics.ResolutionStat] `json:"resolutionSpeed"`
	CauseDistribution  []analytics.CauseSlice         `json:"causeDistribution"`
	PendingLoad        rosterSplit[analytics.Load]    `json:"pendingLoad"`
	ActiveKitchens     int                            `json:"activeKitchens"`
}

func (h *DashboardHandler) load(w http.ResponseWriter, r *http.Request) ([]store.Kitchen, []store.Incident, bool) {
	kitchens, err := h.kitchens.List(r.Context())
	if err != nil {
		writeServiceError(w, h.logger, err)
		return nil, nil, false
	}
	incidents, err := h.incidents.List(r.Context(), store.IncidentFilter{})
	if err != nil {
		writeServiceError(w, h.logger, err)
		return nil, nil, false
	}
	q := r.URL.Query()
	kitchens, incidents = scope.ByMonthYear(kitchens, incidents, q.Get("month"), q.Get("year"))
	return kitchens, incidents, true
}

func (h *DashboardHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	kitchens, incidents, ok := h.load(w, r)
	if !ok {
		return
	}
	rosters := h.cfg.Rosters
	historical, active := analytics.AffectedCounts(kitchens, incidents)
	resp := dashboardResponse{
		TotalKitchens:      len(kitchens),
		HistoricalAffected: historical,
		ActiveAffected:     active,
		HistoricalRatio:    analytics.Round1(analytics.HistoricalRatio(kitchens, incidents)),
		PendingRatio:       analytics.Round1(analytics.PendingRatio(kitchens, incidents)),
		SellerSummary:      roundSummaries(analytics.SummaryFor(rosters.Sellers, kitchens, incidents, analytics.RoleSeller)),
		InstallerSummary:   roundSummaries(analytics.SummaryFor(rosters.Installers, kitchens, incidents, analytics.RoleInstaller)),
		ResolutionSpeed: rosterSplit[analytics.ResolutionStat]{
			Sellers:    roundSpeeds(analytics.ResolutionSpeed(incidents, rosters.Sellers, analytics.RoleSeller)),
			Installers: roundSpeeds(analytics.ResolutionSpeed(incidents, rosters.Installers, analytics.RoleInstaller)),
		},
		// The dashboard pie excludes Otro before computing percentages.
		CauseDistribution: roundSlices(analytics.CauseDistribution(incidents, store.CauseOther)),
		PendingLoad: rosterSplit[analytics.Load]{
			Sellers:    analytics.PendingLoad(rosters.Sellers, incidents, analytics.RoleSeller),
			Installers: analytics.PendingLoad(rosters.Installers, incidents, analytics.RoleInstaller),
		},
		ActiveKitchens: analytics.ActiveKitchenCount(incidents),
	}
	writeJSON(w, http.StatusOK, resp)
}

type drilldownResponse struct {
	Type            string           `json:"type"`
	Label           string           `json:"label"`
	TotalKitchens   int              `json:"totalKitchens"`
	ActiveIncidents int              `json:"activeIncidents"`
	PendingRatio    float64          `json:"pendingRatio"`
	Kitchens        []store.Kitchen  `json:"kitchens"`
	Incidents       []store.Incident `json:"incidents"`
}

// Drilldown is the per-professional detail view: their kitchens, the full
// incident list (completed included), and pending-only statistics.
func (h *DashboardHandler) Drilldown(w http.ResponseWriter, r *http.Request) {
	role := r.URL.Query().Get("type")
	label := r.URL.Query().Get("label")
	if role != analytics.RoleSeller && role != analytics.RoleInstaller {
		writeValidationError(w, "type", "type must be seller or installer")
		return
	}
	if label == "" {
		writeValidationError(w, "label", "label is required")
		return
	}
	kitchens, incidents, ok := h.load(w, r)
	if !ok {
		return
	}
	ownKitchens, ownIncidents := scope.ByActor(kitchens, incidents, role, label)
	activeCount := len(scope.ActiveOnly(ownIncidents))
	ratio := 0.0
	if len(ownKitchens) > 0 {
		ratio = float64(activeCount) / float64(len(ownKitchens)) * 100
	}
	if ownKitchens == nil {
		ownKitchens = []store.Kitchen{}
	}
	if ownIncidents == nil {
		ownIncidents = []store.Incident{}
	}
	writeJSON(w, http.StatusOK, drilldownResponse{
		Type:            role,
		Label:           label,
		TotalKitchens:   len(ownKitchens),
		ActiveIncidents: activeCount,
		PendingRatio:    analytics.Round1(ratio),
		Kitchens:        ownKitchens,
		Incidents:       ownIncidents,
	})
}

func (h *DashboardHandler) Years(w http.ResponseWriter, r *http.Request) {
	kitchens, err := h.kitchens.List(r.Context())
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	years := scope.AvailableYears(kitchens)
	if years == nil {
		years = []int{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"years": years})
}

func roundSummaries(in []analytics.Summary) []analytics.Summary {
	for i := range in {
		in[i].IncidencePercentage = analytics.Round1(in[i].IncidencePercentage)
	}
	return in
}

func roundSpeeds(in []analytics.ResolutionStat) []analytics.ResolutionStat {
	for i := range in {
		in[i].AvgDays = analytics.Round1(in[i].AvgDays)
	}
	if in == nil {
		in = []analytics.ResolutionStat{}
	}
	return in
}

func roundSlices(in []analytics.CauseSlice) []analytics.CauseSlice {
	for i := range in {
		in[i].Percentage = analytics.Round1(in[i].Percentage)
	}
	if in == nil {
		in = []analytics.CauseSlice{}
	}
	return in
}
