package telemetry

import "fmt"

// Action names a stateless dashboard action.
type Action string

const (
	ActionAcknowledge Action = "acknowledge"
	ActionResolve     Action = "resolve"
	ActionEscalate    Action = "escalate"
	ActionBlock       Action = "block"
	ActionMarkPatched Action = "mark_patched"
	ActionSave        Action = "save"
	ActionExport      Action = "export"
	ActionRestart     Action = "restart"
)

var actionMessages = map[Action]string{
	ActionAcknowledge: "Alert %s acknowledged",
	ActionResolve:     "Alert %s resolved",
	ActionEscalate:    "Alert %s escalated to incident response",
	ActionBlock:       "Indicator %s added to blocklist",
	ActionMarkPatched: "Vulnerability %s marked as patched",
	ActionSave:        "OSINT finding %s saved",
	ActionExport:      "Export of %s queued",
	ActionRestart:     "Restart command sent to agent %s",
}

func (a Action) describe(targetID string) string {
	format, ok := actionMessages[a]
	if !ok {
		return fmt.Sprintf("Action %s applied to %s", a, targetID)
	}
	return fmt.Sprintf(format, targetID)
}
