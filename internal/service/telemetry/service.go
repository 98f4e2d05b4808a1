package telemetry

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"

	"github.com/hornsiq/sentinel/backend/internal/logging"
	model "github.com/hornsiq/sentinel/backend/internal/model/telemetry"
)

// ErrNotFound is returned by the lookup-by-id operations.
var ErrNotFound = goerr.New("record not found")

// Demo constants reported by Stats alongside the computed counts.
const (
	demoSecurityScore = 72
	demoTotalAssets   = 847
	demoActiveThreats = 4
)

// Service answers read-only queries over the telemetry fixtures.
type Service struct {
	repo  *Repository
	now   func() time.Time
	newID func() string
}

// NewService creates a query service backed by repo.
func NewService(repo *Repository) *Service {
	return &Service{
		repo:  repo,
		now:   func() time.Time { return time.Now().UTC() },
		newID: uuid.NewString,
	}
}

// AlertFilter narrows ListAlerts. Empty strings and a zero Limit mean "not supplied".
type AlertFilter struct {
	Severity string
	Status   string
	Limit    int
}

// VulnerabilityFilter narrows ListVulnerabilities.
type VulnerabilityFilter struct {
	Severity string
	Patched  *bool
	Limit    int
}

// ThreatFilter narrows ListThreats.
type ThreatFilter struct {
	Type       string
	Confidence string
	Limit      int
}

// OSINTFilter narrows ListOSINT.
type OSINTFilter struct {
	Type     string
	Verified *bool
	Limit    int
}

// AgentFilter narrows ListAgents. Agents are never truncated.
type AgentFilter struct {
	Status         string
	DeploymentMode string
}

func (s *Service) ListAlerts(ctx context.Context, f AlertFilter) []model.Alert {
	return apply(s.repo.Alerts(ctx), f.Limit,
		matchString(f.Severity, func(a model.Alert) string { return a.Severity }),
		matchString(f.Status, func(a model.Alert) string { return a.Status }),
	)
}

// GetAlert returns the alert with the given id or ErrNotFound.
func (s *Service) GetAlert(ctx context.Context, id string) (model.Alert, error) {
	return findByID(s.repo.Alerts(ctx), id, func(a model.Alert) string { return a.ID })
}

func (s *Service) ListVulnerabilities(ctx context.Context, f VulnerabilityFilter) []model.Vulnerability {
	return apply(s.repo.Vulnerabilities(ctx), f.Limit,
		matchString(f.Severity, func(v model.Vulnerability) string { return v.Severity }),
		matchBool(f.Patched, func(v model.Vulnerability) bool { return v.Patched }),
	)
}

func (s *Service) ListThreats(ctx context.Context, f ThreatFilter) []model.ThreatIntel {
	return apply(s.repo.Threats(ctx), f.Limit,
		matchString(f.Type, func(t model.ThreatIntel) string { return t.Type }),
		matchString(f.Confidence, func(t model.ThreatIntel) string { return t.Confidence }),
	)
}

func (s *Service) ListOSINT(ctx context.Context, f OSINTFilter) []model.OSINTFinding {
	return apply(s.repo.OSINT(ctx), f.Limit,
		matchString(f.Type, func(o model.OSINTFinding) string { return o.Type }),
		matchBool(f.Verified, func(o model.OSINTFinding) bool { return o.Verified }),
	)
}

func (s *Service) ListAgents(ctx context.Context, f AgentFilter) []model.Agent {
	return apply(s.repo.Agents(ctx), 0,
		matchString(f.Status, func(a model.Agent) string { return a.Status }),
		matchString(f.DeploymentMode, func(a model.Agent) string { return a.DeploymentMode }),
	)
}

// GetAgent returns the agent with the given id or ErrNotFound.
func (s *Service) GetAgent(ctx context.Context, id string) (model.Agent, error) {
	return findByID(s.repo.Agents(ctx), id, func(a model.Agent) string { return a.ID })
}

func (s *Service) Mentions(ctx context.Context) []model.Mention {
	return s.repo.Mentions(ctx)
}

func (s *Service) SecurityTools(ctx context.Context) []model.SecurityTool {
	return s.repo.SecurityTools(ctx)
}

// Stats recomputes dashboard counters from the fixtures. Alerts without a
// severity count as low.
func (s *Service) Stats(ctx context.Context) model.DashboardStats {
	alerts := s.repo.Alerts(ctx)
	vulns := s.repo.Vulnerabilities(ctx)

	counts := make(map[string]int, 4)
	for _, a := range alerts {
		severity := a.Severity
		if severity == "" {
			severity = "low"
		}
		counts[severity]++
	}

	critical := 0
	for _, v := range vulns {
		if v.Severity == "critical" {
			critical++
		}
	}

	return model.DashboardStats{
		SecurityScore:           demoSecurityScore,
		TotalAssets:             demoTotalAssets,
		ActiveThreats:           demoActiveThreats,
		CriticalAlerts:          counts["critical"],
		HighAlerts:              counts["high"],
		MediumAlerts:            counts["medium"],
		LowAlerts:               counts["low"],
		VulnerabilitiesTotal:    len(vulns),
		VulnerabilitiesCritical: critical,
		OSINTFindings:           len(s.repo.OSINT(ctx)),
		ConnectedAgents:         len(s.repo.Agents(ctx)),
	}
}

// Acknowledge builds the canned receipt for an action. It validates nothing
// and persists nothing.
func (s *Service) Acknowledge(ctx context.Context, action Action, targetID string) model.ActionReceipt {
	receipt := model.ActionReceipt{
		Success:   true,
		Action:    string(action),
		TargetID:  targetID,
		Message:   action.describe(targetID),
		RequestID: s.newID(),
		Timestamp: s.now().Format(time.RFC3339),
	}

	logging.From(ctx).Info("action acknowledged",
		"action", receipt.Action,
		"target_id", targetID,
		"request_id", receipt.RequestID,
	)
	return receipt
}

func findByID[T any](items []T, id string, key func(T) string) (T, error) {
	for _, item := range items {
		if key(item) == id {
			return item, nil
		}
	}
	var zero T
	return zero, goerr.Wrap(ErrNotFound, "lookup by id", goerr.V("id", id))
}
