// Package appbootstrap assembles the runtime object graph: stores, the
// directory, the role policy, the incident service, and the digest scheduler.
package appbootstrap

import (
	"database/sql"

	"cocina-ops/api"
	"cocina-ops/config"
	"cocina-ops/core/digest"
	"cocina-ops/core/directory"
	"cocina-ops/core/incidents"
	"cocina-ops/core/rbac"
	"cocina-ops/core/store"
	"cocina-ops/core/utils"
)

type Runtime struct {
	ServerDeps api.ServerDeps
	Digest     *digest.Scheduler
}

func Compose(cfg *config.AppConfig, db *sql.DB, logger *utils.Logger) (*Runtime, error) {
	kitchens := store.NewKitchensStore(db, cfg.DBDriver)
	incidentsStore := store.NewIncidentsStore(db, cfg.DBDriver)
	audits := store.NewAuditStore(db, cfg.DBDriver)

	dir := directory.New(cfg.Directory)
	policy, err := rbac.NewPolicy([]string{directory.RoleSeller, directory.RoleManager, directory.RoleCPC})
	if err != nil {
		return nil, err
	}
	svc := incidents.NewService(kitchens, incidentsStore, audits, dir, logger)

	return &Runtime{
		ServerDeps: api.ServerDeps{
			Cfg:       cfg,
			Kitchens:  kitchens,
			Incidents: incidentsStore,
			Audits:    audits,
			Directory: dir,
			Policy:    policy,
			Svc:       svc,
			Logger:    logger,
		},
		Digest: digest.NewScheduler(cfg.Digest, cfg.Rosters, incidentsStore, audits, logger),
	}, nil
}
