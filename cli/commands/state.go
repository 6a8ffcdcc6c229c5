package commands

import (
	"fmt"

	"github.com/caseflow/caseflow"
	"github.com/caseflow/caseflow/cli/styles"
	"github.com/caseflow/caseflow/cli/ui"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

// NewStateCommand creates the state command
func NewStateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "state <case-id>",
		Short: "Show the projected state of a case",
		Long: `Show the projected state of a case.

The state is recomputed from the event log on every read: the three
track statuses, the claimed and approved values, and the derived sums
and next required action.`,
		Args: cobra.ExactArgs(1),

		RunE: func(cmd *cobra.Command, args []string) error {
			engine, _, cleanup, err := buildEngine(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			version, state, err := engine.GetState(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if !state.Created {
				return fmt.Errorf("case %s does not exist", args[0])
			}

			fmt.Println(styles.Title.Render(state.Title))
			fmt.Println(styles.FormatKeyValue("Case ID", state.CaseID))
			fmt.Println(styles.FormatKeyValue("Version", fmt.Sprintf("%d", version)))
			fmt.Println(styles.FormatKeyValue("Status", styles.OverallStatus(state.OverallStatus)))
			fmt.Println()

			table := ui.NewTable("Track", "Status", "Claimed", "Approved", "Variance", "Revisions")
			for _, track := range []caseflow.Track{
				caseflow.TrackGrounds, caseflow.TrackCompensation, caseflow.TrackTimeExtension,
			} {
				ts := state.Track(track)
				label := string(track)
				if ts.Locked {
					label = styles.IconLock + " " + label
				}
				table.AddRow(
					label,
					styles.TrackStatus(ts.Status),
					formatValue(track, ts.ClaimedValue),
					formatValue(track, ts.ApprovedValue),
					formatValue(track, ts.Variance()),
					fmt.Sprintf("%d", ts.RevisionCount),
				)
			}
			fmt.Println(table.Render())

			if state.SumClaimed != 0 || state.SumApproved != 0 {
				fmt.Println(styles.FormatKeyValue("Sum claimed", fmt.Sprintf("%d", state.SumClaimed)))
				fmt.Println(styles.FormatKeyValue("Sum approved", fmt.Sprintf("%d", state.SumApproved)))
			}
			if pct := state.Compensation.ApprovalPercentage(); pct != nil {
				fmt.Println(styles.FormatKeyValue("Approval", fmt.Sprintf("%.0f%%", *pct)))
			}
			if next := state.NextAction; next != nil {
				action := fmt.Sprintf("%s by %s", next.Action, next.Role)
				if next.Track != "" {
					action += fmt.Sprintf(" on %s", next.Track)
				}
				fmt.Println(styles.FormatKeyValue("Next action", action))
			}

			return nil
		},
	}

	return cmd
}

// formatValue renders a track value, days suffixed for the time track.
func formatValue(track caseflow.Track, v *int64) string {
	if v == nil {
		return "-"
	}
	if track == caseflow.TrackTimeExtension {
		return fmt.Sprintf("%dd", *v)
	}
	return fmt.Sprintf("%d", *v)
}

// NewTimelineCommand creates the timeline command
func NewTimelineCommand() *cobra.Command {
	var plain bool

	cmd := &cobra.Command{
		Use:   "timeline <case-id>",
		Short: "Browse the event timeline of a case",
		Long: `Browse the event timeline of a case.

Opens an interactive browser over the case's event log. Use --plain for
non-interactive output suitable for scripts and pipes.`,
		Args: cobra.ExactArgs(1),

		RunE: func(cmd *cobra.Command, args []string) error {
			engine, _, cleanup, err := buildEngine(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			entries, err := engine.GetTimeline(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				return fmt.Errorf("case %s does not exist", args[0])
			}

			if plain {
				for _, entry := range entries {
					line := fmt.Sprintf("%3d  %s  %-24s %s (%s)",
						entry.Version, entry.Timestamp, entry.Label, entry.Actor, entry.Role)
					if entry.Detail != "" {
						line += "  " + entry.Detail
					}
					fmt.Println(line)
				}
				return nil
			}

			program := tea.NewProgram(ui.NewTimeline(args[0], entries))
			_, err = program.Run()
			return err
		},
	}

	cmd.Flags().BoolVar(&plain, "plain", false, "Print the timeline without the interactive browser")

	return cmd
}
