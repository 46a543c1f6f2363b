// Package scope narrows the working kitchen/incident sets before they reach
// the aggregation engine or the list views.
package scope

import (
	"sort"
	"strconv"
	"strings"

	"cocina-ops/core/analytics"
	"cocina-ops/core/store"
)

// ByMonthYear keeps kitchens whose installation date matches the given
// month/year; empty filters match everything. Incidents are scoped
// transitively: one survives iff its owning kitchen did.
func ByMonthYear(kitchens []store.Kitchen, incidents []store.Incident, month, year string) ([]store.Kitchen, []store.Incident) {
	wantMonth := parseIntFilter(month)
	wantYear := parseIntFilter(year)
	var keptKitchens []store.Kitchen
	keptIDs := map[string]struct{}{}
	for _, k := range kitchens {
		if wantMonth != 0 || wantYear != 0 {
			t := k.InstallationTime()
			if t.IsZero() {
				continue
			}
			if wantMonth != 0 && int(t.Month()) != wantMonth {
				continue
			}
			if wantYear != 0 && t.Year() != wantYear {
				continue
			}
		}
		keptKitchens = append(keptKitchens, k)
		keptIDs[k.ID] = struct{}{}
	}
	var keptIncidents []store.Incident
	for _, inc := range incidents {
		if _, ok := keptIDs[inc.KitchenID]; ok {
			keptIncidents = append(keptIncidents, inc)
		}
	}
	return keptKitchens, keptIncidents
}

// ByActor narrows to one professional's drill-down: their kitchens, plus
// incidents either assigned to them or caused by their role on one of those
// kitchens. Applied on top of whatever scope is already active.
func ByActor(kitchens []store.Kitchen, incidents []store.Incident, role, label string) ([]store.Kitchen, []store.Incident) {
	cause := store.CauseSeller
	if role == analytics.RoleInstaller {
		cause = store.CauseInstaller
	}
	var keptKitchens []store.Kitchen
	keptIDs := map[string]struct{}{}
	for _, k := range kitchens {
		actor := k.Seller
		if role == analytics.RoleInstaller {
			actor = k.Installer
		}
		if actor == label {
			keptKitchens = append(keptKitchens, k)
			keptIDs[k.ID] = struct{}{}
		}
	}
	var keptIncidents []store.Incident
	for _, inc := range incidents {
		assigned := inc.AssignedToSeller
		if role == analytics.RoleInstaller {
			assigned = inc.AssignedToInstaller
		}
		if assigned != nil && *assigned == label {
			keptIncidents = append(keptIncidents, inc)
			continue
		}
		if _, ok := keptIDs[inc.KitchenID]; ok && inc.Cause == cause {
			keptIncidents = append(keptIncidents, inc)
		}
	}
	return keptKitchens, keptIncidents
}

// ActiveOnly drops completed incidents. The drill-down "pending" statistics
// use this; the detail table shows the full list.
func ActiveOnly(incidents []store.Incident) []store.Incident {
	var out []store.Incident
	for _, inc := range incidents {
		if inc.Status != store.StatusCompleted {
			out = append(out, inc)
		}
	}
	return out
}

// FilterIncidents applies the task-board controls: an optional exact status
// filter and the hide-completed toggle.
func FilterIncidents(incidents []store.Incident, status string, hideCompleted bool) []store.Incident {
	var out []store.Incident
	for _, inc := range incidents {
		if status != "" && inc.Status != status {
			continue
		}
		if hideCompleted && inc.Status == store.StatusCompleted {
			continue
		}
		out = append(out, inc)
	}
	return out
}

// SortByInstallation orders incidents by their owning kitchen's installation
// date, oldest first. Incidents whose kitchen is unknown keep their relative
// position.
func SortByInstallation(incidents []store.Incident, kitchens []store.Kitchen) []store.Incident {
	byID := make(map[string]store.Kitchen, len(kitchens))
	for _, k := range kitchens {
		byID[k.ID] = k
	}
	out := make([]store.Incident, len(incidents))
	copy(out, incidents)
	sort.SliceStable(out, func(i, j int) bool {
		ka, okA := byID[out[i].KitchenID]
		kb, okB := byID[out[j].KitchenID]
		if !okA || !okB {
			return false
		}
		return ka.InstallationTime().Before(kb.InstallationTime())
	})
	return out
}

// SearchKitchens is the registration-form autocomplete: substring match on
// order number, client name, or registering ldap; queries under two
// characters return nothing and results cap at ten.
func SearchKitchens(kitchens []store.Kitchen, query string) []store.Kitchen {
	q := strings.ToLower(strings.TrimSpace(query))
	if len(q) < 2 {
		return nil
	}
	var out []store.Kitchen
	for _, k := range kitchens {
		if strings.Contains(strings.ToLower(k.OrderNumber), q) ||
			strings.Contains(strings.ToLower(k.ClientName), q) ||
			strings.Contains(strings.ToLower(k.LDAP), q) {
			out = append(out, k)
			if len(out) == 10 {
				break
			}
		}
	}
	return out
}

// AvailableYears lists the distinct installation years present, ascending.
func AvailableYears(kitchens []store.Kitchen) []int {
	seen := map[int]struct{}{}
	for _, k := range kitchens {
		t := k.InstallationTime()
		if t.IsZero() {
			continue
		}
		seen[t.Year()] = struct{}{}
	}
	out := make([]int, 0, len(seen))
	for y := range seen {
		out = append(out, y)
	}
	sort.Ints(out)
	return out
}

func parseIntFilter(raw string) int {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0
	}
	n, err := strconv.Atoi(strings.TrimPrefix(raw, "0"))
	if err != nil {
		return 0
	}
	return n
}
