package commands

import (
	"fmt"
	"strings"

	"github.com/caseflow/caseflow"
	"github.com/caseflow/caseflow/adapters"
	"github.com/caseflow/caseflow/cli/config"
	"github.com/caseflow/caseflow/cli/styles"
	"github.com/caseflow/caseflow/cli/ui"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

// NewCreateCommand creates the create command
func NewCreateCommand() *cobra.Command {
	var (
		caseID      string
		title       string
		project     string
		contractRef string
		comment     string
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Open a new claim case",
		Long: `Open a new claim case with an empty event log.

The case starts with all three tracks (grounds, compensation, time
extension) inactive. Submit claims on the tracks afterwards.

Examples:
  caseflow create --title "Rock blasting delay, section 4"
  caseflow create --title "Winter works" --project "E6 North" --contract "NS8407 §25"`,

		RunE: func(cmd *cobra.Command, args []string) error {
			if title == "" {
				return fmt.Errorf("--title is required")
			}

			engine, cfg, cleanup, err := buildEngine(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			if caseID == "" {
				caseID = uuid.New().String()
			}

			event := caseflow.Event{
				CaseID:  caseID,
				Type:    caseflow.EventCaseCreated,
				Actor:   cfg.Actor.Name,
				Role:    caseflow.Role(cfg.Actor.Role),
				Comment: comment,
				Payload: caseflow.CaseCreatedPayload{
					Title:       title,
					Project:     project,
					ContractRef: contractRef,
				},
			}

			version, state, err := engine.SubmitEvent(cmd.Context(), event, adapters.NoCase)
			if err != nil {
				return err
			}

			fmt.Println(styles.FormatSuccess("Case created"))
			fmt.Println()
			fmt.Println(styles.FormatKeyValue("Case ID", state.CaseID))
			fmt.Println(styles.FormatKeyValue("Title", state.Title))
			fmt.Println(styles.FormatKeyValue("Version", fmt.Sprintf("%d", version)))
			return nil
		},
	}

	cmd.Flags().StringVar(&caseID, "case", "", "Case ID (generated when omitted)")
	cmd.Flags().StringVarP(&title, "title", "t", "", "Case title (required)")
	cmd.Flags().StringVarP(&project, "project", "p", "", "Construction project name")
	cmd.Flags().StringVar(&contractRef, "contract", "", "Governing contract clause reference")
	cmd.Flags().StringVarP(&comment, "comment", "c", "", "Free-text remark on the event")

	return cmd
}

// NewCloseCommand creates the close command
func NewCloseCommand() *cobra.Command {
	var (
		note            string
		comment         string
		expectedVersion int64
	)

	cmd := &cobra.Command{
		Use:   "close <case-id>",
		Short: "Close a settled case",
		Long: `Close a case whose active tracks are all settled.

Closing is only accepted by the owner, and only when every active track
is locked, withdrawn or was never claimed.`,
		Args: cobra.ExactArgs(1),

		RunE: func(cmd *cobra.Command, args []string) error {
			engine, cfg, cleanup, err := buildEngine(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			caseID := args[0]
			version, err := resolveVersion(cmd, engine, caseID, expectedVersion)
			if err != nil {
				return err
			}

			event := caseflow.Event{
				CaseID:  caseID,
				Type:    caseflow.EventCaseClosed,
				Actor:   cfg.Actor.Name,
				Role:    caseflow.Role(cfg.Actor.Role),
				Comment: comment,
				Payload: caseflow.CaseClosedPayload{Note: note},
			}

			newVersion, state, err := engine.SubmitEvent(cmd.Context(), event, version)
			if err != nil {
				return err
			}

			fmt.Println(styles.FormatSuccess(fmt.Sprintf("Case closed at version %d", newVersion)))
			fmt.Println(styles.FormatKeyValue("Status", string(state.OverallStatus)))
			return nil
		},
	}

	cmd.Flags().StringVar(&note, "note", "", "Closing remark")
	cmd.Flags().StringVarP(&comment, "comment", "c", "", "Free-text remark on the event")
	cmd.Flags().Int64Var(&expectedVersion, "expected-version", -1, "Expected case version (auto-detected when omitted)")

	return cmd
}

// NewListCommand creates the list command
func NewListCommand() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List known cases",
		Long:  `List known cases ordered by most recent activity.`,

		RunE: func(cmd *cobra.Command, args []string) error {
			engine, _, cleanup, err := buildEngine(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			summaries, err := engine.Adapter().ListCases(cmd.Context(), limit)
			if err != nil {
				return err
			}

			if len(summaries) == 0 {
				fmt.Println(styles.Muted.Render("No cases yet. Open one with 'caseflow create'."))
				return nil
			}

			table := ui.NewTable("Case", "Title", "Status", "Events", "Updated")
			for _, s := range summaries {
				_, state, err := engine.GetState(cmd.Context(), s.CaseID)
				if err != nil {
					return err
				}
				table.AddRow(
					shortID(s.CaseID),
					state.Title,
					string(state.OverallStatus),
					fmt.Sprintf("%d", s.EventCount),
					s.LastUpdated.UTC().Format("2006-01-02 15:04"),
				)
			}
			fmt.Println(table.Render())
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "l", 0, "Maximum number of cases to show (0 for all)")

	return cmd
}

// resolveVersion returns the explicit expected version, or reads the current
// version from the log when the caller asked for auto-detection.
func resolveVersion(cmd *cobra.Command, engine *caseflow.Engine, caseID string, expected int64) (int64, error) {
	if expected >= 0 {
		return expected, nil
	}
	version, _, err := engine.GetState(cmd.Context(), caseID)
	if err != nil {
		return 0, err
	}
	return version, nil
}

// actorOf reads the submitting identity from the config.
func actorOf(cfg *config.Config) (string, caseflow.Role) {
	return cfg.Actor.Name, caseflow.Role(cfg.Actor.Role)
}

// shortID abbreviates a UUID-style case ID for table display.
func shortID(id string) string {
	if len(id) > 13 && strings.Count(id, "-") >= 4 {
		return id[:13] + "…"
	}
	return id
}
