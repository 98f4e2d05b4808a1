package telemetry

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/m-mizutani/goerr/v2"

	"github.com/hornsiq/sentinel/backend/internal/logging"
	model "github.com/hornsiq/sentinel/backend/internal/model/telemetry"
)

// Fixture file names inside the data directory.
const (
	AlertsFile          = "alerts.json"
	VulnerabilitiesFile = "vulnerabilities.json"
	ThreatsFile         = "threats.json"
	OSINTFile           = "osint.json"
	AgentsFile          = "agents.json"
	SentimentFile       = "sentiment.json"
	SecurityToolsFile   = "security_tools.json"
)

// Repository reads record lists from JSON files. Every call goes to disk;
// nothing is cached so edits to the fixtures show up on the next request.
type Repository struct {
	dir string
}

// NewRepository returns a Repository rooted at dir.
func NewRepository(dir string) *Repository {
	return &Repository{dir: dir}
}

// Alerts loads alerts.json. Missing tags become an empty list.
func (r *Repository) Alerts(ctx context.Context) []model.Alert {
	alerts := loadList[model.Alert](ctx, r.dir, AlertsFile)
	for i := range alerts {
		if alerts[i].Tags == nil {
			alerts[i].Tags = []string{}
		}
	}
	return alerts
}

func (r *Repository) Vulnerabilities(ctx context.Context) []model.Vulnerability {
	return loadList[model.Vulnerability](ctx, r.dir, VulnerabilitiesFile)
}

func (r *Repository) Threats(ctx context.Context) []model.ThreatIntel {
	return loadList[model.ThreatIntel](ctx, r.dir, ThreatsFile)
}

func (r *Repository) OSINT(ctx context.Context) []model.OSINTFinding {
	return loadList[model.OSINTFinding](ctx, r.dir, OSINTFile)
}

func (r *Repository) Agents(ctx context.Context) []model.Agent {
	return loadList[model.Agent](ctx, r.dir, AgentsFile)
}

func (r *Repository) Mentions(ctx context.Context) []model.Mention {
	return loadList[model.Mention](ctx, r.dir, SentimentFile)
}

func (r *Repository) SecurityTools(ctx context.Context) []model.SecurityTool {
	return loadList[model.SecurityTool](ctx, r.dir, SecurityToolsFile)
}

// loadList decodes a JSON array. A missing file is an empty list; a file that
// cannot be read or decoded is logged and also treated as empty.
func loadList[T any](ctx context.Context, dir, name string) []T {
	items, err := readList[T](filepath.Join(dir, name))
	if err != nil {
		logging.From(ctx).Warn("failed to load data file, serving empty list", "file", name, "error", err)
		return []T{}
	}
	return items
}

func readList[T any](path string) ([]T, error) {
	raw, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return []T{}, nil
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read data file", goerr.V("path", path))
	}

	var items []T
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, goerr.Wrap(err, "failed to decode data file", goerr.V("path", path))
	}
	if items == nil {
		items = []T{}
	}
	return items, nil
}
