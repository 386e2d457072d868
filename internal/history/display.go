package history

import "fmt"

// Severity levels attached to history entries for UI surfacing.
const (
	SeverityInfo    = "info"
	SeverityWarning = "warning"
	SeverityError   = "error"
	SeveritySuccess = "success"
)

// Confidence below this threshold downgrades an otherwise successful
// extract or export to a warning.
const lowConfidenceThreshold = 0.7

// displayMessage renders a short human-readable summary of an event.
func displayMessage(ev Event) string {
	if !ev.Success && ev.ErrorMessage != "" {
		return "Failed: " + ev.ErrorMessage
	}

	name := ev.FileName
	if name == "" {
		name = "document"
	}

	switch ev.Action {
	case ActionUpload:
		return "Uploaded " + name
	case ActionExtract:
		target := ev.FieldName
		if target == "" {
			target = "fields"
		}
		if ev.Confidence != nil {
			return fmt.Sprintf("Extracted %s with %.1f%% confidence", target, *ev.Confidence*100)
		}
		return "Extracted " + target
	case ActionEdit:
		if ev.FieldName != "" {
			return "Edited " + ev.FieldName
		}
		return "Edited " + name
	case ActionExport:
		return "Exported " + name
	case ActionDelete:
		return "Deleted " + name
	case ActionView:
		return "Viewed " + name
	case ActionRevision:
		if ev.FieldName != "" {
			return "Revised " + ev.FieldName
		}
		return "Revised field"
	case ActionConfidenceChange:
		return "Confidence updated for " + ev.FieldName
	case ActionValidation:
		return "Validated " + name
	case ActionSecurity:
		return "Security check on " + name
	case ActionError:
		if ev.ErrorMessage != "" {
			return "Error: " + ev.ErrorMessage
		}
		return "Error processing " + name
	default:
		return ev.Action + " " + name
	}
}

// severityFor classifies an event for display.
func severityFor(ev Event) string {
	if !ev.Success {
		return SeverityError
	}
	switch ev.Action {
	case ActionError, ActionValidation:
		return SeverityWarning
	case ActionExtract, ActionExport:
		if ev.Confidence != nil && *ev.Confidence < lowConfidenceThreshold {
			return SeverityWarning
		}
		return SeveritySuccess
	default:
		return SeverityInfo
	}
}

// actionDisplay returns the icon and color hints for an action.
func actionDisplay(action string) (icon, color string) {
	switch action {
	case ActionUpload:
		return "Upload", "blue"
	case ActionExtract:
		return "FileText", "green"
	case ActionEdit:
		return "Edit3", "yellow"
	case ActionExport:
		return "Download", "purple"
	case ActionDelete:
		return "Trash2", "red"
	case ActionView:
		return "Eye", "gray"
	case ActionError:
		return "AlertCircle", "red"
	case ActionSecurity:
		return "Shield", "indigo"
	case ActionRevision:
		return "RefreshCw", "orange"
	case ActionConfidenceChange:
		return "TrendingUp", "blue"
	case ActionValidation:
		return "CheckCircle", "green"
	default:
		return "Activity", "gray"
	}
}
