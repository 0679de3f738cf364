package appliance

import (
	"encoding/base64"
	"fmt"
)

// Alert severities and statuses reported by appliances.
const (
	SeverityDiagnostic = "DIAGNOSTIC"
	SeverityWarning    = "WARNING"
	StatusNotNeeded    = "NOT_NEEDED"
)

// DefaultNotificationTitle titles alert notifications.
const DefaultNotificationTitle = "Electrolux status"

// keyAlerts is the reported-state key holding the alert list.
const keyAlerts = "alerts"

// Alert is one entry of an appliance's alert list.
type Alert struct {
	Code     string `json:"code"`
	Severity string `json:"severity"`
	Status   string `json:"acknowledgeStatus"`
}

// NotifyPolicy selects which alert severities raise notifications.
type NotifyPolicy struct {
	Diagnostic bool `yaml:"diagnostic" json:"diagnostic"`
	Warning    bool `yaml:"warning" json:"warning"`
	Default    bool `yaml:"default" json:"default"`
}

// DefaultNotifyPolicy notifies on everything except diagnostics and
// warnings.
func DefaultNotifyPolicy() NotifyPolicy {
	return NotifyPolicy{Default: true}
}

// ShouldNotify reports whether an alert with the given severity and status
// warrants a notification. Alerts whose acknowledgement is not needed never
// do.
func (p NotifyPolicy) ShouldNotify(severity, status string) bool {
	if status == StatusNotNeeded {
		return false
	}
	switch severity {
	case SeverityDiagnostic:
		return p.Diagnostic
	case SeverityWarning:
		return p.Warning
	default:
		return p.Default
	}
}

// Notification is a user-facing alert message.
type Notification struct {
	// ID is derived from title and message so repeats of the same alert
	// replace each other instead of piling up.
	ID          string `json:"id"`
	ApplianceID string `json:"appliance_id"`
	Title       string `json:"title"`
	Message     string `json:"message"`
}

// NewNotification builds the notification for an alert.
func NewNotification(title, applianceID string, a Alert) Notification {
	msg := fmt.Sprintf("Alert: %s</br>Severity: %s</br>Status: %s", a.Code, a.Severity, a.Status)
	return Notification{
		ID:          base64.StdEncoding.EncodeToString([]byte(title + "-" + msg)),
		ApplianceID: applianceID,
		Title:       title,
		Message:     msg,
	}
}

// Alerts returns the alerts in the reported state.
func (s *State) Alerts() []Alert {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, ok := s.extractValue("", keyAlerts)
	if !ok {
		return nil
	}
	list, ok := raw.([]any)
	if !ok {
		return nil
	}

	alerts := make([]Alert, 0, len(list))
	for _, item := range list {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		a := Alert{}
		a.Code, _ = m["code"].(string)
		a.Severity, _ = m["severity"].(string)
		a.Status, _ = m["acknowledgeStatus"].(string)
		if a.Code == "" {
			continue
		}
		alerts = append(alerts, a)
	}
	return alerts
}

// Notifications returns the notifications the current alerts warrant under
// policy p.
func (s *State) Notifications(title string, p NotifyPolicy) []Notification {
	var out []Notification
	for _, a := range s.Alerts() {
		if p.ShouldNotify(a.Severity, a.Status) {
			out = append(out, NewNotification(title, s.ID, a))
		}
	}
	return out
}
