package incidents

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gofrs/uuid/v5"

	"cocina-ops/core/directory"
	"cocina-ops/core/store"
	"cocina-ops/core/utils"
)

// ValidationError is a local, pre-write failure: the operation is rejected
// before any state changes and no storage call is made.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// Service enforces the incident lifecycle: state transitions, append-only
// history, and the legacy observation mirror.
type Service struct {
	kitchens  store.KitchensStore
	incidents store.IncidentsStore
	audits    store.AuditStore
	dir       *directory.Directory
	logger    *utils.Logger
	now       func() time.Time
}

func NewService(kitchens store.KitchensStore, incidents store.IncidentsStore, audits store.AuditStore, dir *directory.Directory, logger *utils.Logger) *Service {
	return &Service{
		kitchens:  kitchens,
		incidents: incidents,
		audits:    audits,
		dir:       dir,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

type CreateIncidentInput struct {
	KitchenID           string
	Description         string
	Cause               string
	InitialNote         string
	ActorLDAP           string
	AssignedToSeller    *string
	AssignedToInstaller *string
}

// CreateIncident constructs and persists a new incident in estado Pendiente.
// An initial note, when present, becomes the first history entry authored by
// the acting user.
func (s *Service) CreateIncident(ctx context.Context, in CreateIncidentInput) (*store.Incident, error) {
	actor, ok := s.dir.Resolve(in.ActorLDAP)
	if !ok {
		return nil, invalid("actor", "ldap does not resolve in the directory")
	}
	if strings.TrimSpace(in.Description) == "" {
		return nil, invalid("description", "description is required")
	}
	kitchen, err := s.kitchens.Get(ctx, in.KitchenID)
	if err != nil {
		if err == store.ErrNotFound {
			return nil, invalid("kitchenId", "kitchen does not exist")
		}
		return nil, err
	}

	cause := strings.TrimSpace(in.Cause)
	if cause == "" {
		// Role-based defaulting: a seller reporting an incident is, by
		// default, reporting one of their own.
		if actor.Role == directory.RoleSeller {
			cause = store.CauseSeller
			if in.AssignedToSeller == nil {
				name := actor.Name
				in.AssignedToSeller = &name
			}
		} else {
			cause = store.CauseOther
		}
	}
	if !store.ValidCause(cause) {
		return nil, invalid("cause", "unknown cause "+cause)
	}

	seller, installer := DefaultAssignment(kitchen, cause, in.AssignedToSeller, in.AssignedToInstaller)

	id, err := uuid.NewV4()
	if err != nil {
		return nil, err
	}
	now := s.now()
	note := strings.TrimSpace(in.InitialNote)
	var history []store.ObservationEntry
	if note != "" {
		history = []store.ObservationEntry{{
			Text:         note,
			Date:         now,
			StatusAtTime: store.StatusPending,
			AuthorLDAP:   actor.LDAP,
			AuthorName:   actor.Name,
		}}
	}
	inc := &store.Incident{
		ID:                  id.String(),
		KitchenID:           kitchen.ID,
		Description:         strings.TrimSpace(in.Description),
		Observation:         note,
		History:             history,
		Status:              store.StatusPending,
		AssignedToSeller:    seller,
		AssignedToInstaller: installer,
		Cause:               cause,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	if err := s.incidents.Insert(ctx, inc); err != nil {
		return nil, err
	}
	s.audit(ctx, actor.LDAP, "incident.create", fmt.Sprintf("incident %s on kitchen %s (%s)", inc.ID, kitchen.OrderNumber, cause))
	return inc, nil
}

// AppendObservation adds one immutable entry to the incident's history and
// refreshes the legacy observation mirror. Validation failures leave the
// incident untouched.
func (s *Service) AppendObservation(ctx context.Context, incidentID, text, actorLDAP string) (*store.Incident, error) {
	note := strings.TrimSpace(text)
	if note == "" {
		return nil, invalid("text", "note text is required")
	}
	actor, ok := s.dir.Resolve(actorLDAP)
	if !ok {
		return nil, invalid("actor", "ldap does not resolve in the directory")
	}
	inc, err := s.incidents.Get(ctx, incidentID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	inc.History = append(inc.History, store.ObservationEntry{
		Text:         note,
		Date:         now,
		StatusAtTime: inc.Status,
		AuthorLDAP:   actor.LDAP,
		AuthorName:   actor.Name,
	})
	inc.Observation = note
	inc.UpdatedAt = now
	if err := s.incidents.Update(ctx, inc); err != nil {
		return nil, err
	}
	s.audit(ctx, actor.LDAP, "incident.note", fmt.Sprintf("incident %s: %s", inc.ID, note))
	return inc, nil
}

// SetStatus moves the incident to the given status. Any member of the status
// set is accepted from any current status; ordering is not enforced, matching
// the behavior the sheet-era backend always had. The observation mirror is
// deliberately not recomputed here.
func (s *Service) SetStatus(ctx context.Context, incidentID, newStatus, actorLDAP string) (*store.Incident, error) {
	if !store.ValidStatus(newStatus) {
		return nil, invalid("status", "unknown status "+newStatus)
	}
	inc, err := s.incidents.Get(ctx, incidentID)
	if err != nil {
		return nil, err
	}
	inc.Status = newStatus
	inc.UpdatedAt = s.now()
	if err := s.incidents.Update(ctx, inc); err != nil {
		return nil, err
	}
	s.audit(ctx, actorLDAP, "incident.status", fmt.Sprintf("incident %s -> %s", inc.ID, newStatus))
	return inc, nil
}

// IncidentPatch is the legacy partial-update shape. Only the fields the
// sheet-era frontend ever patched are honored; anything else in the payload
// is ignored.
type IncidentPatch struct {
	Status    *string
	History   *[]store.ObservationEntry
	UpdatedAt *time.Time
}

// ApplyPatch reproduces the legacy updateIncident action: a field-level
// last-write-wins patch. When the patch carries history, the observation
// mirror is recomputed from the newest entry; a status-only patch leaves the
// mirror stale, exactly as the original caller-side denormalization did.
func (s *Service) ApplyPatch(ctx context.Context, incidentID string, patch IncidentPatch) (*store.Incident, error) {
	inc, err := s.incidents.Get(ctx, incidentID)
	if err != nil {
		return nil, err
	}
	if patch.Status != nil {
		if !store.ValidStatus(*patch.Status) {
			return nil, invalid("status", "unknown status "+*patch.Status)
		}
		inc.Status = *patch.Status
	}
	if patch.History != nil {
		inc.History = *patch.History
		if n := len(inc.History); n > 0 {
			inc.Observation = inc.History[n-1].Text
		} else {
			inc.Observation = ""
		}
	}
	if patch.UpdatedAt != nil {
		inc.UpdatedAt = *patch.UpdatedAt
	} else {
		inc.UpdatedAt = s.now()
	}
	if err := s.incidents.Update(ctx, inc); err != nil {
		return nil, err
	}
	s.audit(ctx, "", "incident.patch", "incident "+inc.ID)
	return inc, nil
}

// DefaultAssignment is the explicit assignment policy: a seller-caused
// incident lands on the kitchen's seller unless one was named, an
// installer-caused incident on the kitchen's installer, and logistics/other
// incidents on nobody.
func DefaultAssignment(kitchen *store.Kitchen, cause string, seller, installer *string) (*string, *string) {
	switch cause {
	case store.CauseSeller:
		if seller == nil || *seller == "" {
			s := kitchen.Seller
			seller = &s
		}
		return seller, nil
	case store.CauseInstaller:
		if installer == nil || *installer == "" {
			i := kitchen.Installer
			installer = &i
		}
		return nil, installer
	default:
		return nil, nil
	}
}

func (s *Service) audit(ctx context.Context, actor, action, details string) {
	if s.audits == nil {
		return
	}
	if err := s.audits.Append(ctx, actor, action, details); err != nil {
		s.logger.Warnf("audit append failed for %s: %v", action, err)
	}
}
