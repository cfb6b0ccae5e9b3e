package services

import (
	"context"
	"errors"
	"time"

	"github.com/karsa-studio/api/internal/repositories"
)

// BuildInfo carries metadata stamped at build time.
type BuildInfo struct {
	Version     string
	CommitSHA   string
	Environment string
}

// SystemServiceDeps bundles collaborators required to construct the system service.
type SystemServiceDeps struct {
	Health repositories.HealthRepository
	Build  BuildInfo
	Clock  func() time.Time
}

type systemService struct {
	health    repositories.HealthRepository
	build     BuildInfo
	clock     func() time.Time
	startedAt time.Time
}

// NewSystemService wires dependencies into a concrete SystemService implementation.
func NewSystemService(deps SystemServiceDeps) (SystemService, error) {
	if deps.Health == nil {
		return nil, errors.New("system service: health repository is required")
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	return &systemService{
		health:    deps.Health,
		build:     deps.Build,
		clock:     clock,
		startedAt: clock(),
	}, nil
}

// HealthReport checks every registered dependency and stamps the report with
// build metadata and process uptime.
func (s *systemService) HealthReport(ctx context.Context) (SystemHealthReport, error) {
	report, err := s.health.Collect(ctx)
	if err != nil {
		return SystemHealthReport{}, err
	}
	report.Version = s.build.Version
	report.CommitSHA = s.build.CommitSHA
	report.Environment = s.build.Environment
	report.Uptime = s.clock().Sub(s.startedAt)
	return report, nil
}
