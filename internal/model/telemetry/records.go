package telemetry

// Alert is a single detection surfaced on the dashboard.
type Alert struct {
	ID            string   `json:"id"`
	Severity      string   `json:"severity"`
	Type          string   `json:"type"`
	Title         string   `json:"title"`
	Description   string   `json:"description"`
	AffectedAsset string   `json:"affected_asset"`
	DetectedAt    string   `json:"detected_at"`
	Status        string   `json:"status"`
	Tags          []string `json:"tags"`
}

// Vulnerability describes a CVE affecting one or more systems.
type Vulnerability struct {
	CVEID           string   `json:"cve_id"`
	Severity        string   `json:"severity"`
	CVSSScore       float64  `json:"cvss_score"`
	Title           string   `json:"title"`
	Description     string   `json:"description"`
	AffectedSystems []string `json:"affected_systems"`
	PublishedDate   string   `json:"published_date"`
	Patched         bool     `json:"patched"`
	PatchAvailable  bool     `json:"patch_available"`
}

// ThreatIntel is an indicator of compromise with sighting window.
type ThreatIntel struct {
	ID          string   `json:"id"`
	Type        string   `json:"type"`
	Indicator   string   `json:"indicator"`
	Description string   `json:"description"`
	FirstSeen   string   `json:"first_seen"`
	LastSeen    string   `json:"last_seen"`
	Confidence  string   `json:"confidence"`
	Tags        []string `json:"tags"`
}

// OSINTFinding is an open-source intelligence hit.
type OSINTFinding struct {
	ID           string `json:"id"`
	Type         string `json:"type"`
	Source       string `json:"source"`
	Finding      string `json:"finding"`
	Severity     string `json:"severity"`
	DiscoveredAt string `json:"discovered_at"`
	Verified     bool   `json:"verified"`
}

// Agent is a deployed sensor reporting to the platform.
type Agent struct {
	ID             string            `json:"id"`
	Name           string            `json:"name"`
	Hostname       string            `json:"hostname"`
	DeploymentMode string            `json:"deployment_mode"`
	Status         string            `json:"status"`
	LastCheckin    string            `json:"last_checkin"`
	Version        string            `json:"version"`
	Tags           map[string]string `json:"tags"`
	Metrics        map[string]any    `json:"metrics"`
}

// Mention is one item of the brand sentiment feed.
type Mention struct {
	ID             string  `json:"id"`
	Platform       string  `json:"platform"`
	PlatformIcon   string  `json:"platform_icon"`
	Name           string  `json:"name"`
	Handle         string  `json:"handle"`
	Sentiment      string  `json:"sentiment"`
	SentimentScore float64 `json:"sentiment_score"`
	Content        string  `json:"content"`
	Time           string  `json:"time"`
	Engagement     string  `json:"engagement"`
	URL            string  `json:"url"`
}

// SecurityTool reports the status of an integrated scanner.
type SecurityTool struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	Category       string   `json:"category"`
	Status         string   `json:"status"`
	Description    string   `json:"description"`
	Capabilities   []string `json:"capabilities"`
	Replaces       string   `json:"replaces"`
	MonthlySavings float64  `json:"monthlySavings"`
	LastRun        string   `json:"lastRun"`
	FindingsCount  int      `json:"findingsCount"`
	Icon           string   `json:"icon"`
}

// DashboardStats is recomputed from the fixtures on every request.
type DashboardStats struct {
	SecurityScore           int `json:"security_score"`
	TotalAssets             int `json:"total_assets"`
	ActiveThreats           int `json:"active_threats"`
	CriticalAlerts          int `json:"critical_alerts"`
	HighAlerts              int `json:"high_alerts"`
	MediumAlerts            int `json:"medium_alerts"`
	LowAlerts               int `json:"low_alerts"`
	VulnerabilitiesTotal    int `json:"vulnerabilities_total"`
	VulnerabilitiesCritical int `json:"vulnerabilities_critical"`
	OSINTFindings           int `json:"osint_findings"`
	ConnectedAgents         int `json:"connected_agents"`
}

// ActionReceipt is the canned confirmation returned by action endpoints.
// Nothing is persisted.
type ActionReceipt struct {
	Success   bool   `json:"success"`
	Action    string `json:"action"`
	TargetID  string `json:"target_id"`
	Message   string `json:"message"`
	RequestID string `json:"request_id"`
	Timestamp string `json:"timestamp"`
}
