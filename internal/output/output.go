// Package output provides styled terminal output helpers (success, error,
// warning, event formatting) using lipgloss.
package output

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"ticlog/internal/models"
	"ticlog/internal/timeutil"
)

var (
	// Styles
	titleStyle   = lipgloss.NewStyle().Bold(true)
	subtleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	typeStyles   = map[models.EventType]lipgloss.Style{
		models.TypeTic:       lipgloss.NewStyle().Foreground(lipgloss.Color("45")),
		models.TypeEmotional: lipgloss.NewStyle().Foreground(lipgloss.Color("212")),
		models.TypeCombined:  lipgloss.NewStyle().Foreground(lipgloss.Color("141")),
	}
	syncStyles = map[models.SyncStatus]lipgloss.Style{
		models.SyncPending: lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		models.SyncSynced:  lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		models.SyncError:   lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
	}
)

// Success prints a success message
func Success(format string, args ...interface{}) {
	fmt.Println(successStyle.Render(fmt.Sprintf(format, args...)))
}

// Error prints an error message
func Error(format string, args ...interface{}) {
	fmt.Println(errorStyle.Render("ERROR: " + fmt.Sprintf(format, args...)))
}

// Warning prints a warning message
func Warning(format string, args ...interface{}) {
	fmt.Println(warningStyle.Render("Warning: " + fmt.Sprintf(format, args...)))
}

// Info prints an info message
func Info(format string, args ...interface{}) {
	fmt.Println(fmt.Sprintf(format, args...))
}

// JSON outputs data as JSON
func JSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

// Error codes for structured JSON output
const (
	ErrCodeNotFound      = "not_found"
	ErrCodeInvalidInput  = "invalid_input"
	ErrCodeDatabaseError = "database_error"
)

// JSONError outputs an error as JSON
func JSONError(code, message string) {
	fmt.Printf(`{"error":{"code":"%s","message":"%s"}}`, code, message)
	fmt.Println()
}

// FormatEventType formats an event type with color
func FormatEventType(t models.EventType) string {
	style, ok := typeStyles[t]
	if !ok {
		return string(t)
	}
	return style.Render(fmt.Sprintf("[%s]", t))
}

// SyncBadge returns a sync status indicator with symbol
// e.g., "↑ pending", "✓ synced", "✗ error"
func SyncBadge(status models.SyncStatus) string {
	symbols := map[models.SyncStatus]string{
		models.SyncPending: "↑",
		models.SyncSynced:  "✓",
		models.SyncError:   "✗",
	}
	symbol, ok := symbols[status]
	if !ok {
		symbol = "?"
	}
	style, hasStyle := syncStyles[status]
	if hasStyle {
		return style.Render(fmt.Sprintf("%s %s", symbol, status))
	}
	return fmt.Sprintf("%s %s", symbol, status)
}

// ShortID shortens an event id to 8 characters or returns as-is if shorter
func ShortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// FormatEventShort formats an event in one-line list format
func FormatEventShort(ev *models.Event, now time.Time) string {
	var parts []string
	parts = append(parts, titleStyle.Render(ShortID(ev.ID)))
	parts = append(parts, FormatEventType(ev.EventType))
	parts = append(parts, subtleStyle.Render(timeutil.Relative(ev.StartedAt, now)))

	if ev.DurationSeconds != nil {
		parts = append(parts, timeutil.FormatDuration(*ev.DurationSeconds))
	} else {
		parts = append(parts, warningStyle.Render("ongoing"))
	}

	if ev.Description != "" {
		parts = append(parts, ev.Description)
	}

	parts = append(parts, SyncBadge(ev.SyncStatus))

	return strings.Join(parts, "  ")
}

// FormatEventLong formats an event in full detail format
func FormatEventLong(ev *models.Event) string {
	var sb strings.Builder

	sb.WriteString(titleStyle.Render(fmt.Sprintf("%s %s", ev.ID, FormatEventType(ev.EventType))))
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("Started: %s\n", timeutil.FormatISO(ev.StartedAt)))

	if ev.EndedAt != nil {
		sb.WriteString(fmt.Sprintf("Ended:   %s\n", timeutil.FormatISO(*ev.EndedAt)))
	} else {
		sb.WriteString("Ended:   ongoing\n")
	}
	if ev.DurationSeconds != nil {
		sb.WriteString(fmt.Sprintf("Duration: %s\n", timeutil.FormatDuration(*ev.DurationSeconds)))
	}

	if ev.Description != "" {
		sb.WriteString("\n")
		sb.WriteString(subtleStyle.Render("Description:"))
		sb.WriteString("\n")
		sb.WriteString(ev.Description)
		sb.WriteString("\n")
	}
	if ev.Triggers != "" {
		sb.WriteString("\n")
		sb.WriteString(subtleStyle.Render("Triggers:"))
		sb.WriteString("\n")
		sb.WriteString(ev.Triggers)
		sb.WriteString("\n")
	}
	if ev.Notes != "" {
		sb.WriteString("\n")
		sb.WriteString(subtleStyle.Render("Notes:"))
		sb.WriteString("\n")
		sb.WriteString(ev.Notes)
		sb.WriteString("\n")
	}

	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("Sync: %s", SyncBadge(ev.SyncStatus)))
	if ev.SyncedAt != nil {
		sb.WriteString(subtleStyle.Render(fmt.Sprintf(" (%s)", timeutil.FormatISO(*ev.SyncedAt))))
	}
	sb.WriteString("\n")
	sb.WriteString(subtleStyle.Render(fmt.Sprintf("Created: %s  Updated: %s",
		timeutil.FormatISO(ev.CreatedAt), timeutil.FormatISO(ev.UpdatedAt))))
	sb.WriteString("\n")

	return sb.String()
}
