package monitor

import (
	"fmt"
	"strings"
	"time"

	"ticlog/internal/output"
)

const maxRows = 20

// View renders the dashboard
func (m Model) View() string {
	var sb strings.Builder

	sb.WriteString(headerStyle.Render(fmt.Sprintf("ticlog monitor %s", m.Version)))
	sb.WriteString("\n\n")

	switch {
	case m.Syncing:
		sb.WriteString(fmt.Sprintf("%s Syncing...\n", m.Spinner.View()))
	case m.Status != "":
		sb.WriteString(okStyle.Render(m.Status))
		sb.WriteString("\n")
	default:
		sb.WriteString(m.renderState())
		sb.WriteString("\n")
	}
	sb.WriteString("\n")

	if m.Err != nil {
		sb.WriteString(errorStyle.Render(fmt.Sprintf("error: %v", m.Err)))
		sb.WriteString("\n\n")
	}

	sb.WriteString(m.renderEvents())

	sb.WriteString(footerStyle.Render("r refresh  s sync  q quit"))
	return sb.String()
}

func (m Model) renderState() string {
	msg := m.State.Message
	switch {
	case m.State.ErrorCount > 0:
		return errorStyle.Render(msg)
	case m.State.PendingCount > 0:
		return pendingStyle.Render(msg)
	default:
		return okStyle.Render(msg)
	}
}

func (m Model) renderEvents() string {
	if len(m.Events) == 0 {
		return subtleStyle.Render("No events logged yet") + "\n\n"
	}

	var sb strings.Builder
	now := time.Now().UTC()
	rows := m.Events
	if len(rows) > maxRows {
		rows = rows[:maxRows]
	}
	for i := range rows {
		sb.WriteString(output.FormatEventShort(&rows[i], now))
		sb.WriteString("\n")
	}
	if len(m.Events) > maxRows {
		sb.WriteString(subtleStyle.Render(fmt.Sprintf("... and %d more", len(m.Events)-maxRows)))
		sb.WriteString("\n")
	}
	sb.WriteString("\n")
	return sb.String()
}
