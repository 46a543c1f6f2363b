package store

import (
	"encoding/json"
	"strings"
	"time"
)

// Status values are stored and served with their original Spanish wire
// values; the sheet-era frontend and the historical rows both use them.
const (
	StatusPending    = "Pendiente"
	StatusInProgress = "Gestionando"
	StatusCompleted  = "Completada"
)

const (
	CauseSeller    = "Vendedor"
	CauseInstaller = "Instalador"
	CauseLogistics = "Logística"
	CauseOther     = "Otro"
)

var validStatus = map[string]struct{}{
	StatusPending:    {},
	StatusInProgress: {},
	StatusCompleted:  {},
}

var validCause = map[string]struct{}{
	CauseSeller:    {},
	CauseInstaller: {},
	CauseLogistics: {},
	CauseOther:     {},
}

func ValidStatus(s string) bool {
	_, ok := validStatus[s]
	return ok
}

func ValidCause(c string) bool {
	_, ok := validCause[c]
	return ok
}

func Statuses() []string {
	return []string{StatusPending, StatusInProgress, StatusCompleted}
}

func Causes() []string {
	return []string{CauseSeller, CauseInstaller, CauseLogistics, CauseOther}
}

// Kitchen is one registered installation project. Rows are immutable after
// registration.
type Kitchen struct {
	ID               string    `json:"id"`
	LDAP             string    `json:"ldap"`
	OrderNumber      string    `json:"orderNumber"`
	ClientName       string    `json:"clientName"`
	Seller           string    `json:"seller"`
	Installer        string    `json:"installer"`
	InstallationDate string    `json:"installationDate"` // YYYY-MM-DD
	CreatedAt        time.Time `json:"createdAt"`
}

// InstallationTime parses the calendar date; the zero time is returned for
// rows with an unparsable date so callers can still sort them.
func (k Kitchen) InstallationTime() time.Time {
	t, err := time.Parse("2006-01-02", k.InstallationDate)
	if err != nil {
		return time.Time{}
	}
	return t
}

// ObservationEntry is one immutable line of an incident's audit trail. The
// author name is resolved from the directory at write time and never again.
type ObservationEntry struct {
	Text         string    `json:"text"`
	Date         time.Time `json:"date"`
	StatusAtTime string    `json:"statusAtTime"`
	AuthorLDAP   string    `json:"authorLdap"`
	AuthorName   string    `json:"authorName"`
}

// Incident is a reported problem or management thread against a kitchen.
// Observation mirrors the newest history entry's text; it exists only for
// backward read compatibility with the sheet-era storage and is recomputed
// whenever history changes (and only then).
type Incident struct {
	ID                  string             `json:"id"`
	KitchenID           string             `json:"kitchenId"`
	Description         string             `json:"description"`
	Observation         string             `json:"observation"`
	History             []ObservationEntry `json:"history"`
	Status              string             `json:"status"`
	AssignedToSeller    *string            `json:"assignedToSeller"`
	AssignedToInstaller *string            `json:"assignedToInstaller"`
	Cause               string             `json:"cause"`
	CreatedAt           time.Time          `json:"createdAt"`
	UpdatedAt           time.Time          `json:"updatedAt"`
}

// Normalize synthesizes a single history entry from the legacy observation
// field when a stored row has an empty history. Downstream code treats
// history as the single source of truth.
func (inc *Incident) Normalize() {
	if len(inc.History) == 0 && strings.TrimSpace(inc.Observation) != "" {
		inc.History = []ObservationEntry{{
			Text:         inc.Observation,
			Date:         inc.CreatedAt,
			StatusAtTime: inc.Status,
		}}
	}
}

// ParseHistory decodes the JSON-encoded history column. Legacy rows carry
// "", "NULL", or junk in this field; all of those normalize to an empty
// history rather than an error.
func ParseHistory(raw string) []ObservationEntry {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.EqualFold(raw, "null") {
		return nil
	}
	var entries []ObservationEntry
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		return nil
	}
	return entries
}

func HistoryToJSON(entries []ObservationEntry) string {
	if len(entries) == 0 {
		return "[]"
	}
	b, err := json.Marshal(entries)
	if err != nil {
		return "[]"
	}
	return string(b)
}
