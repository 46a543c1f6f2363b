// Package digest emits a scheduled workload summary: pending incident counts
// per professional, logged and recorded in the audit trail.
package digest

import (
	"context"
	"fmt"
	"strings"

	"github.com/robfig/cron/v3"

	"cocina-ops/config"
	"cocina-ops/core/analytics"
	"cocina-ops/core/store"
	"cocina-ops/core/utils"
)

type Scheduler struct {
	cfg       config.DigestConfig
	rosters   config.RostersConfig
	incidents store.IncidentsStore
	audits    store.AuditStore
	logger    *utils.Logger
	cron      *cron.Cron
}

func NewScheduler(cfg config.DigestConfig, rosters config.RostersConfig, incidents store.IncidentsStore, audits store.AuditStore, logger *utils.Logger) *Scheduler {
	return &Scheduler{cfg: cfg, rosters: rosters, incidents: incidents, audits: audits, logger: logger}
}

func (s *Scheduler) Start() error {
	if !s.cfg.Enabled {
		s.logger.Infof("digest scheduler disabled")
		return nil
	}
	s.cron = cron.New()
	if _, err := s.cron.AddFunc(s.cfg.Schedule, s.run); err != nil {
		return fmt.Errorf("digest schedule %q: %w", s.cfg.Schedule, err)
	}
	s.cron.Start()
	s.logger.Infof("digest scheduler started (%s)", s.cfg.Schedule)
	return nil
}

func (s *Scheduler) Stop() {
	if s.cron != nil {
		<-s.cron.Stop().Done()
	}
}

func (s *Scheduler) run() {
	ctx := context.Background()
	incidents, err := s.incidents.List(ctx, store.IncidentFilter{})
	if err != nil {
		s.logger.Errorf("digest: list incidents: %v", err)
		return
	}
	sellers := analytics.PendingLoad(s.rosters.Sellers, incidents, analytics.RoleSeller)
	installers := analytics.PendingLoad(s.rosters.Installers, incidents, analytics.RoleInstaller)
	summary := fmt.Sprintf("sellers: %s; installers: %s", formatLoads(sellers), formatLoads(installers))
	s.logger.Infof("daily digest, pending %s", summary)
	if err := s.audits.Append(ctx, "", "digest.daily", summary); err != nil {
		s.logger.Warnf("digest: audit append: %v", err)
	}
}

func formatLoads(loads []analytics.Load) string {
	parts := make([]string, 0, len(loads))
	for _, l := range loads {
		parts = append(parts, fmt.Sprintf("%s=%d", l.Name, l.Count))
	}
	return strings.Join(parts, " ")
}
