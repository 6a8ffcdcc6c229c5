package commands

import (
	"fmt"

	"github.com/caseflow/caseflow"
	"github.com/caseflow/caseflow/cli/styles"
	"github.com/spf13/cobra"
)

// parseTrack maps a CLI track argument to its domain track.
func parseTrack(arg string) (caseflow.Track, error) {
	switch arg {
	case "grounds":
		return caseflow.TrackGrounds, nil
	case "compensation":
		return caseflow.TrackCompensation, nil
	case "time-extension", "time_extension", "time":
		return caseflow.TrackTimeExtension, nil
	}
	return "", fmt.Errorf("unknown track %q (grounds, compensation, time-extension)", arg)
}

// claimStage distinguishes the three claim-side mutations of a track.
type claimStage int

const (
	stageDrafted claimStage = iota
	stageSubmitted
	stageUpdated
)

// claimEventType returns the event type for a claim mutation on a track.
func claimEventType(track caseflow.Track, stage claimStage) caseflow.EventType {
	types := map[caseflow.Track][3]caseflow.EventType{
		caseflow.TrackGrounds: {
			caseflow.EventGroundsDrafted, caseflow.EventGroundsSubmitted, caseflow.EventGroundsUpdated,
		},
		caseflow.TrackCompensation: {
			caseflow.EventCompensationDrafted, caseflow.EventCompensationSubmitted, caseflow.EventCompensationUpdated,
		},
		caseflow.TrackTimeExtension: {
			caseflow.EventTimeExtensionDrafted, caseflow.EventTimeExtensionSubmitted, caseflow.EventTimeExtensionUpdated,
		},
	}
	return types[track][stage]
}

// respondEventType returns the response event type for a track.
func respondEventType(track caseflow.Track) caseflow.EventType {
	switch track {
	case caseflow.TrackGrounds:
		return caseflow.EventGroundsResponded
	case caseflow.TrackCompensation:
		return caseflow.EventCompensationResponded
	default:
		return caseflow.EventTimeExtensionResponded
	}
}

// acceptEventType returns the acceptance event type for a track.
func acceptEventType(track caseflow.Track) caseflow.EventType {
	switch track {
	case caseflow.TrackGrounds:
		return caseflow.EventGroundsAccepted
	case caseflow.TrackCompensation:
		return caseflow.EventCompensationAccepted
	default:
		return caseflow.EventTimeExtensionAccepted
	}
}

// withdrawEventType returns the withdrawal event type for a track.
func withdrawEventType(track caseflow.Track) caseflow.EventType {
	switch track {
	case caseflow.TrackGrounds:
		return caseflow.EventGroundsWithdrawn
	case caseflow.TrackCompensation:
		return caseflow.EventCompensationWithdrawn
	default:
		return caseflow.EventTimeExtensionWithdrawn
	}
}

// claimPayload builds the claim payload for a track from the command flags.
func claimPayload(track caseflow.Track, amount, days int64, currency, method, justification string) (caseflow.Payload, error) {
	switch track {
	case caseflow.TrackGrounds:
		if justification == "" {
			return nil, fmt.Errorf("--justification is required for the grounds track")
		}
		return caseflow.GroundsClaimPayload{
			Justification: justification,
			ClaimMethod:   method,
		}, nil

	case caseflow.TrackCompensation:
		if amount <= 0 {
			return nil, fmt.Errorf("--amount is required for the compensation track")
		}
		return caseflow.CompensationClaimPayload{
			Amount:        amount,
			Currency:      currency,
			ClaimMethod:   method,
			Justification: justification,
		}, nil

	default:
		if days <= 0 {
			return nil, fmt.Errorf("--days is required for the time extension track")
		}
		return caseflow.TimeExtensionClaimPayload{
			Days:          days,
			ClaimMethod:   method,
			Justification: justification,
		}, nil
	}
}

// submitClaim submits one claim mutation and prints the resulting track state.
func submitClaim(cmd *cobra.Command, trackArg string, stage claimStage,
	caseID string, expectedVersion, amount, days int64,
	currency, method, justification, comment string) error {

	track, err := parseTrack(trackArg)
	if err != nil {
		return err
	}

	payload, err := claimPayload(track, amount, days, currency, method, justification)
	if err != nil {
		return err
	}

	engine, cfg, cleanup, err := buildEngine(cmd.Context())
	if err != nil {
		return err
	}
	defer cleanup()

	version, err := resolveVersion(cmd, engine, caseID, expectedVersion)
	if err != nil {
		return err
	}

	actor, role := actorOf(cfg)
	event := caseflow.Event{
		CaseID:  caseID,
		Type:    claimEventType(track, stage),
		Actor:   actor,
		Role:    role,
		Comment: comment,
		Payload: payload,
	}

	newVersion, state, err := engine.SubmitEvent(cmd.Context(), event, version)
	if err != nil {
		return err
	}

	printTrackResult(track, state, newVersion)
	return nil
}

// printTrackResult prints the outcome of a track mutation.
func printTrackResult(track caseflow.Track, state caseflow.CaseState, version int64) {
	ts := state.Track(track)
	fmt.Println(styles.FormatSuccess(fmt.Sprintf("Recorded at version %d", version)))
	fmt.Println(styles.FormatKeyValue("Track", string(track)))
	fmt.Println(styles.FormatKeyValue("Status", styles.TrackStatus(ts.Status)))
	if next := state.NextAction; next != nil {
		fmt.Println(styles.FormatKeyValue("Next action", fmt.Sprintf("%s by %s", next.Action, next.Role)))
	}
}

// NewSubmitCommand creates the submit command
func NewSubmitCommand() *cobra.Command {
	var (
		caseID          string
		expectedVersion int64
		draft           bool
		amount          int64
		days            int64
		currency        string
		method          string
		justification   string
		comment         string
	)

	cmd := &cobra.Command{
		Use:   "submit <track>",
		Short: "Submit a claim on a track",
		Long: `Submit a claim on one of the three negotiation tracks.

A submitted claim awaits the owner's response. Use --draft to record the
claim without sending it; a draft can still be revised freely.

Compensation and time extension claims require an approved grounds track
or a grounds claim submitted in the same case.

Examples:
  caseflow submit grounds --case <id> --justification "Unforeseen rock conditions"
  caseflow submit compensation --case <id> --amount 500000 --currency NOK
  caseflow submit time-extension --case <id> --days 14 --draft`,
		Args: cobra.ExactArgs(1),

		RunE: func(cmd *cobra.Command, args []string) error {
			if caseID == "" {
				return fmt.Errorf("--case is required")
			}
			stage := stageSubmitted
			if draft {
				stage = stageDrafted
			}
			return submitClaim(cmd, args[0], stage, caseID, expectedVersion,
				amount, days, currency, method, justification, comment)
		},
	}

	cmd.Flags().StringVar(&caseID, "case", "", "Case ID (required)")
	cmd.Flags().Int64Var(&expectedVersion, "expected-version", -1, "Expected case version (auto-detected when omitted)")
	cmd.Flags().BoolVar(&draft, "draft", false, "Record as a draft instead of sending")
	cmd.Flags().Int64Var(&amount, "amount", 0, "Claimed compensation in minor units")
	cmd.Flags().Int64Var(&days, "days", 0, "Claimed extension in calendar days")
	cmd.Flags().StringVar(&currency, "currency", "", "ISO 4217 currency code")
	cmd.Flags().StringVar(&method, "method", "", "Claim calculation method")
	cmd.Flags().StringVarP(&justification, "justification", "j", "", "Substantiation of the claim")
	cmd.Flags().StringVarP(&comment, "comment", "c", "", "Free-text remark on the event")

	return cmd
}

// NewUpdateCommand creates the update command
func NewUpdateCommand() *cobra.Command {
	var (
		caseID          string
		expectedVersion int64
		amount          int64
		days            int64
		currency        string
		method          string
		justification   string
		comment         string
	)

	cmd := &cobra.Command{
		Use:   "update <track>",
		Short: "Revise a claim on a track",
		Long: `Revise an existing claim on a track.

An update replaces the claimed value and substantiation and sends the
revised claim. Locked and withdrawn tracks cannot be updated.

Examples:
  caseflow update compensation --case <id> --amount 420000
  caseflow update grounds --case <id> --justification "Supplementary survey report"`,
		Args: cobra.ExactArgs(1),

		RunE: func(cmd *cobra.Command, args []string) error {
			if caseID == "" {
				return fmt.Errorf("--case is required")
			}
			return submitClaim(cmd, args[0], stageUpdated, caseID, expectedVersion,
				amount, days, currency, method, justification, comment)
		},
	}

	cmd.Flags().StringVar(&caseID, "case", "", "Case ID (required)")
	cmd.Flags().Int64Var(&expectedVersion, "expected-version", -1, "Expected case version (auto-detected when omitted)")
	cmd.Flags().Int64Var(&amount, "amount", 0, "Revised compensation in minor units")
	cmd.Flags().Int64Var(&days, "days", 0, "Revised extension in calendar days")
	cmd.Flags().StringVar(&currency, "currency", "", "ISO 4217 currency code")
	cmd.Flags().StringVar(&method, "method", "", "Claim calculation method")
	cmd.Flags().StringVarP(&justification, "justification", "j", "", "Substantiation of the claim")
	cmd.Flags().StringVarP(&comment, "comment", "c", "", "Free-text remark on the event")

	return cmd
}

// NewRespondCommand creates the respond command
func NewRespondCommand() *cobra.Command {
	var (
		caseID          string
		expectedVersion int64
		result          string
		approvedAmount  int64
		approvedDays    int64
		note            string
		comment         string
	)

	cmd := &cobra.Command{
		Use:   "respond <track>",
		Short: "Record the owner's verdict on a sent claim",
		Long: `Record the owner's verdict on a sent claim.

Results:
  approved            grant the claim in full (locks the track)
  partially_approved  grant part of the claim (requires --approved-amount or --approved-days)
  rejected_disagree   reject on the merits
  rejected_late       reject as submitted too late
  unspecified         record a verdict with no defined consequence

Examples:
  caseflow respond grounds --case <id> --result approved
  caseflow respond compensation --case <id> --result partially_approved --approved-amount 350000`,
		Args: cobra.ExactArgs(1),

		RunE: func(cmd *cobra.Command, args []string) error {
			if caseID == "" {
				return fmt.Errorf("--case is required")
			}
			track, err := parseTrack(args[0])
			if err != nil {
				return err
			}

			verdict := caseflow.ResponseResult(result)
			if !verdict.Valid() {
				return fmt.Errorf("unknown result %q", result)
			}

			var payload caseflow.Payload
			switch track {
			case caseflow.TrackGrounds:
				payload = caseflow.GroundsResponsePayload{Result: verdict, Note: note}
			case caseflow.TrackCompensation:
				p := caseflow.CompensationResponsePayload{Result: verdict, Note: note}
				if cmd.Flags().Changed("approved-amount") {
					p.ApprovedAmount = &approvedAmount
				}
				payload = p
			default:
				p := caseflow.TimeExtensionResponsePayload{Result: verdict, Note: note}
				if cmd.Flags().Changed("approved-days") {
					p.ApprovedDays = &approvedDays
				}
				payload = p
			}

			engine, cfg, cleanup, err := buildEngine(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			version, err := resolveVersion(cmd, engine, caseID, expectedVersion)
			if err != nil {
				return err
			}

			actor, _ := actorOf(cfg)
			event := caseflow.Event{
				CaseID:  caseID,
				Type:    respondEventType(track),
				Actor:   actor,
				Role:    caseflow.RoleOwner,
				Comment: comment,
				Payload: payload,
			}

			newVersion, state, err := engine.SubmitEvent(cmd.Context(), event, version)
			if err != nil {
				return err
			}

			printTrackResult(track, state, newVersion)
			return nil
		},
	}

	cmd.Flags().StringVar(&caseID, "case", "", "Case ID (required)")
	cmd.Flags().Int64Var(&expectedVersion, "expected-version", -1, "Expected case version (auto-detected when omitted)")
	cmd.Flags().StringVarP(&result, "result", "r", "", "Verdict (approved, partially_approved, rejected_disagree, rejected_late, unspecified)")
	cmd.Flags().Int64Var(&approvedAmount, "approved-amount", 0, "Granted compensation in minor units")
	cmd.Flags().Int64Var(&approvedDays, "approved-days", 0, "Granted extension in calendar days")
	cmd.Flags().StringVar(&note, "note", "", "Explanation of the verdict")
	cmd.Flags().StringVarP(&comment, "comment", "c", "", "Free-text remark on the event")

	return cmd
}

// NewAcceptCommand creates the accept command
func NewAcceptCommand() *cobra.Command {
	var (
		caseID          string
		expectedVersion int64
		note            string
		comment         string
	)

	cmd := &cobra.Command{
		Use:   "accept <track>",
		Short: "Accept a partial approval, locking the track",
		Long: `Accept a partial approval on a track.

Acceptance locks the track at the approved value; no further events may
mutate it. Only the claimant may accept.`,
		Args: cobra.ExactArgs(1),

		RunE: func(cmd *cobra.Command, args []string) error {
			if caseID == "" {
				return fmt.Errorf("--case is required")
			}
			track, err := parseTrack(args[0])
			if err != nil {
				return err
			}

			engine, cfg, cleanup, err := buildEngine(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			version, err := resolveVersion(cmd, engine, caseID, expectedVersion)
			if err != nil {
				return err
			}

			actor, _ := actorOf(cfg)
			event := caseflow.Event{
				CaseID:  caseID,
				Type:    acceptEventType(track),
				Actor:   actor,
				Role:    caseflow.RoleClaimant,
				Comment: comment,
				Payload: caseflow.AcceptancePayload{Note: note},
			}

			newVersion, state, err := engine.SubmitEvent(cmd.Context(), event, version)
			if err != nil {
				return err
			}

			printTrackResult(track, state, newVersion)
			return nil
		},
	}

	cmd.Flags().StringVar(&caseID, "case", "", "Case ID (required)")
	cmd.Flags().Int64Var(&expectedVersion, "expected-version", -1, "Expected case version (auto-detected when omitted)")
	cmd.Flags().StringVar(&note, "note", "", "Acceptance remark")
	cmd.Flags().StringVarP(&comment, "comment", "c", "", "Free-text remark on the event")

	return cmd
}

// NewWithdrawCommand creates the withdraw command
func NewWithdrawCommand() *cobra.Command {
	var (
		caseID          string
		expectedVersion int64
		reason          string
		comment         string
	)

	cmd := &cobra.Command{
		Use:   "withdraw <track>",
		Short: "Withdraw a claim on a track",
		Long: `Withdraw a non-terminal claim on a track.

Withdrawal is terminal: the track accepts no further events. Only the
claimant may withdraw.`,
		Args: cobra.ExactArgs(1),

		RunE: func(cmd *cobra.Command, args []string) error {
			if caseID == "" {
				return fmt.Errorf("--case is required")
			}
			track, err := parseTrack(args[0])
			if err != nil {
				return err
			}

			engine, cfg, cleanup, err := buildEngine(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			version, err := resolveVersion(cmd, engine, caseID, expectedVersion)
			if err != nil {
				return err
			}

			actor, _ := actorOf(cfg)
			event := caseflow.Event{
				CaseID:  caseID,
				Type:    withdrawEventType(track),
				Actor:   actor,
				Role:    caseflow.RoleClaimant,
				Comment: comment,
				Payload: caseflow.WithdrawalPayload{Reason: reason},
			}

			newVersion, state, err := engine.SubmitEvent(cmd.Context(), event, version)
			if err != nil {
				return err
			}

			printTrackResult(track, state, newVersion)
			return nil
		},
	}

	cmd.Flags().StringVar(&caseID, "case", "", "Case ID (required)")
	cmd.Flags().Int64Var(&expectedVersion, "expected-version", -1, "Expected case version (auto-detected when omitted)")
	cmd.Flags().StringVar(&reason, "reason", "", "Reason for the withdrawal")
	cmd.Flags().StringVarP(&comment, "comment", "c", "", "Free-text remark on the event")

	return cmd
}
