package cmd

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"ticlog/internal/models"
	"ticlog/internal/output"
	"ticlog/internal/timeutil"
)

var logCmd = &cobra.Command{
	Use:     "log",
	Short:   "Log a new event",
	Aliases: []string{"add"},
	Long: `Log a tic, emotional, or combined event.

With no flags an interactive form collects the details. Flags skip the
form for scripted use:

  ticlog log -t tic -d "eye blink" --for 2m
  ticlog log -t emotional --at 2026-08-25T14:00:00Z --triggers "crowded room"`,
	GroupID: "core",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			output.Error("%v", err)
			return err
		}
		defer st.Close()

		eventType, _ := cmd.Flags().GetString("type")
		desc, _ := cmd.Flags().GetString("desc")
		triggers, _ := cmd.Flags().GetString("triggers")
		notes, _ := cmd.Flags().GetString("notes")
		at, _ := cmd.Flags().GetString("at")
		dur, _ := cmd.Flags().GetDuration("for")
		endedAt, _ := cmd.Flags().GetString("ended-at")

		if eventType == "" {
			var err error
			eventType, desc, triggers, notes, err = runLogForm()
			if err != nil {
				if errors.Is(err, huh.ErrUserAborted) {
					return nil
				}
				return err
			}
		}

		if !models.ValidEventType(eventType) {
			output.Error("invalid type %q (valid: tic, emotional, combined)", eventType)
			return fmt.Errorf("invalid event type")
		}

		started := time.Now().UTC()
		if at != "" {
			started, err = timeutil.ParseISO(at)
			if err != nil {
				output.Error("invalid --at value: %v", err)
				return err
			}
		}

		ev := &models.Event{
			EventType:   models.EventType(eventType),
			Description: desc,
			Triggers:    triggers,
			Notes:       notes,
			StartedAt:   started,
		}

		switch {
		case endedAt != "":
			ended, err := timeutil.ParseISO(endedAt)
			if err != nil {
				output.Error("invalid --ended-at value: %v", err)
				return err
			}
			ev.EndedAt = &ended
		case dur > 0:
			ended := started.Add(dur)
			ev.EndedAt = &ended
		}

		if err := st.CreateEvent(ev); err != nil {
			output.Error("%v", err)
			return err
		}

		if ev.HasEnded() {
			output.Success("Logged %s event %s (%s)", ev.EventType, output.ShortID(ev.ID),
				timeutil.FormatDuration(*ev.DurationSeconds))
		} else {
			output.Success("Logged %s event %s (ongoing)", ev.EventType, output.ShortID(ev.ID))
		}
		return nil
	},
}

// runLogForm collects event details interactively.
func runLogForm() (eventType, desc, triggers, notes string, err error) {
	eventType = string(models.TypeTic)

	typeOptions := make([]huh.Option[string], 0, len(models.EventTypes()))
	for _, t := range models.EventTypes() {
		name := string(t)
		label := strings.ToUpper(name[:1]) + name[1:]
		typeOptions = append(typeOptions, huh.NewOption(label, name))
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Event type").
				Options(typeOptions...).
				Value(&eventType),
			huh.NewInput().
				Title("Description").
				Placeholder("what happened").
				Value(&desc),
			huh.NewInput().
				Title("Triggers").
				Placeholder("optional").
				Value(&triggers),
			huh.NewText().
				Title("Notes").
				Value(&notes),
		),
	)

	if err := form.Run(); err != nil {
		return "", "", "", "", err
	}
	return eventType, desc, triggers, notes, nil
}

func init() {
	logCmd.Flags().StringP("type", "t", "", "event type: tic, emotional, combined")
	logCmd.Flags().StringP("desc", "d", "", "short description")
	logCmd.Flags().String("triggers", "", "suspected triggers")
	logCmd.Flags().String("notes", "", "free-form notes")
	logCmd.Flags().String("at", "", "start time (RFC3339, default now)")
	logCmd.Flags().Duration("for", 0, "event duration, sets the end time")
	logCmd.Flags().String("ended-at", "", "end time (RFC3339, overrides --for)")
	rootCmd.AddCommand(logCmd)
}
