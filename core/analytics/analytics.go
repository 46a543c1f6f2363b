// Package analytics derives the dashboard's read-only statistics from the
// current kitchen/incident sets. Every function is pure: identical inputs
// give identical outputs, nothing is mutated, and division by zero always
// yields 0.
package analytics

import (
	"math"
	"sort"

	"cocina-ops/core/store"
)

const (
	RoleSeller    = "seller"
	RoleInstaller = "installer"
)

// Summary is one roster row of the per-professional incidence table.
type Summary struct {
	Label               string  `json:"label"`
	TotalKitchens       int     `json:"totalKitchens"`
	Incidents           int     `json:"incidents"`
	IncidencePercentage float64 `json:"incidencePercentage"`
}

type ResolutionStat struct {
	Name    string  `json:"name"`
	AvgDays float64 `json:"avgDays"`
}

type CauseSlice struct {
	Cause      string  `json:"cause"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

type Load struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func causeFor(role string) string {
	if role == RoleInstaller {
		return store.CauseInstaller
	}
	return store.CauseSeller
}

func assignedTo(inc store.Incident, role string) string {
	var p *string
	if role == RoleInstaller {
		p = inc.AssignedToInstaller
	} else {
		p = inc.AssignedToSeller
	}
	if p == nil {
		return ""
	}
	return *p
}

func kitchenActor(k store.Kitchen, role string) string {
	if role == RoleInstaller {
		return k.Installer
	}
	return k.Seller
}

// SummaryFor computes the incidence table for a roster. An incident counts
// against a professional when it is assigned to them, or when it belongs to
// one of their kitchens and its cause matches the role. Output order follows
// the roster.
func SummaryFor(roster []string, kitchens []store.Kitchen, incidents []store.Incident, role string) []Summary {
	out := make([]Summary, 0, len(roster))
	cause := causeFor(role)
	for _, label := range roster {
		ownKitchens := map[string]struct{}{}
		total := 0
		for _, k := range kitchens {
			if kitchenActor(k, role) == label {
				ownKitchens[k.ID] = struct{}{}
				total++
			}
		}
		count := 0
		for _, inc := range incidents {
			if assignedTo(inc, role) == label {
				count++
				continue
			}
			if _, ok := ownKitchens[inc.KitchenID]; ok && inc.Cause == cause {
				count++
			}
		}
		pct := 0.0
		if total > 0 {
			pct = float64(count) / float64(total) * 100
		}
		out = append(out, Summary{Label: label, TotalKitchens: total, Incidents: count, IncidencePercentage: pct})
	}
	return out
}

// AffectedCounts returns how many kitchens have ever had an incident and how
// many currently have a non-completed one.
func AffectedCounts(kitchens []store.Kitchen, incidents []store.Incident) (historical, active int) {
	everAffected := map[string]struct{}{}
	activeAffected := map[string]struct{}{}
	for _, inc := range incidents {
		everAffected[inc.KitchenID] = struct{}{}
		if inc.Status != store.StatusCompleted {
			activeAffected[inc.KitchenID] = struct{}{}
		}
	}
	for _, k := range kitchens {
		if _, ok := everAffected[k.ID]; ok {
			historical++
		}
		if _, ok := activeAffected[k.ID]; ok {
			active++
		}
	}
	return historical, active
}

// HistoricalRatio is the percentage of kitchens that have ever had at least
// one incident, regardless of status.
func HistoricalRatio(kitchens []store.Kitchen, incidents []store.Incident) float64 {
	if len(kitchens) == 0 {
		return 0
	}
	historical, _ := AffectedCounts(kitchens, incidents)
	return float64(historical) / float64(len(kitchens)) * 100
}

// PendingRatio is the percentage of kitchens with at least one incident that
// is not yet completed.
func PendingRatio(kitchens []store.Kitchen, incidents []store.Incident) float64 {
	if len(kitchens) == 0 {
		return 0
	}
	_, active := AffectedCounts(kitchens, incidents)
	return float64(active) / float64(len(kitchens)) * 100
}

// ResolutionSpeed averages the open-to-close time, in days, of completed
// incidents per assigned professional. Professionals with no completed
// incidents are omitted; the result is sorted fastest first.
func ResolutionSpeed(incidents []store.Incident, roster []string, role string) []ResolutionStat {
	var out []ResolutionStat
	for _, name := range roster {
		var totalMs float64
		n := 0
		for _, inc := range incidents {
			if inc.Status != store.StatusCompleted {
				continue
			}
			if assignedTo(inc, role) != name {
				continue
			}
			totalMs += float64(inc.UpdatedAt.Sub(inc.CreatedAt).Milliseconds())
			n++
		}
		if n == 0 {
			continue
		}
		avgDays := totalMs / float64(n) / float64(24*60*60*1000)
		out = append(out, ResolutionStat{Name: name, AvgDays: avgDays})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].AvgDays < out[j].AvgDays })
	return out
}

// CauseDistribution counts incidents per cause after dropping the excluded
// causes; percentages are relative to the remaining subset. Causes with no
// incidents are omitted.
func CauseDistribution(incidents []store.Incident, excluded ...string) []CauseSlice {
	skip := map[string]struct{}{}
	for _, c := range excluded {
		skip[c] = struct{}{}
	}
	counts := map[string]int{}
	total := 0
	for _, inc := range incidents {
		if _, ok := skip[inc.Cause]; ok {
			continue
		}
		counts[inc.Cause]++
		total++
	}
	var out []CauseSlice
	for _, cause := range store.Causes() {
		n := counts[cause]
		if n == 0 {
			continue
		}
		out = append(out, CauseSlice{
			Cause:      cause,
			Count:      n,
			Percentage: float64(n) / float64(total) * 100,
		})
	}
	return out
}

// PendingLoad is the task-board sidebar: non-completed incidents currently
// assigned to each roster member, busiest first. Zero counts stay visible.
func PendingLoad(roster []string, incidents []store.Incident, role string) []Load {
	out := make([]Load, 0, len(roster))
	for _, name := range roster {
		count := 0
		for _, inc := range incidents {
			if inc.Status == store.StatusCompleted {
				continue
			}
			if assignedTo(inc, role) == name {
				count++
			}
		}
		out = append(out, Load{Name: name, Count: count})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	return out
}

// ActiveKitchenCount is the number of distinct kitchens with at least one
// non-completed incident.
func ActiveKitchenCount(incidents []store.Incident) int {
	seen := map[string]struct{}{}
	for _, inc := range incidents {
		if inc.Status == store.StatusCompleted {
			continue
		}
		seen[inc.KitchenID] = struct{}{}
	}
	return len(seen)
}

// Round1 rounds to one decimal place. Applied at the display boundary only;
// intermediate math keeps full precision.
func Round1(v float64) float64 {
	return math.Round(v*10) / 10
}
