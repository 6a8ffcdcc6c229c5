// Package commands provides the CLI command implementations for caseflow.
package commands

import (
	"fmt"

	"github.com/caseflow/caseflow/cli/styles"
	"github.com/caseflow/caseflow/cli/ui"
	"github.com/spf13/cobra"
)

var (
	// Version information (set at build time)
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

// NewRootCommand creates the root command for the caseflow CLI
func NewRootCommand() *cobra.Command {
	var noColor bool

	rootCmd := &cobra.Command{
		Use:   "caseflow",
		Short: "Construction claim case engine",
		Long: ui.SimpleBanner() + `

Caseflow tracks construction claim cases between a claimant (contractor)
and an owner as an append-only event log. Every case carries three
negotiation tracks: grounds, compensation and time extension.

` + styles.Title.Render("Quick Start:") + `

  ` + styles.Code.Render("caseflow init") + `             Initialize a project
  ` + styles.Code.Render("caseflow create") + `           Open a new case
  ` + styles.Code.Render("caseflow submit grounds") + `   Submit a claim on a track
  ` + styles.Code.Render("caseflow state <case>") + `     Show the current case state
  ` + styles.Code.Render("caseflow diagnose") + `         Check your setup

` + styles.Title.Render("Documentation:") + `

  https://github.com/caseflow/caseflow`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if noColor {
				styles.DisableColors()
			}
		},
	}

	// Global flags
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")

	// Add subcommands
	rootCmd.AddCommand(NewInitCommand())
	rootCmd.AddCommand(NewCreateCommand())
	rootCmd.AddCommand(NewSubmitCommand())
	rootCmd.AddCommand(NewUpdateCommand())
	rootCmd.AddCommand(NewRespondCommand())
	rootCmd.AddCommand(NewAcceptCommand())
	rootCmd.AddCommand(NewWithdrawCommand())
	rootCmd.AddCommand(NewCloseCommand())
	rootCmd.AddCommand(NewStateCommand())
	rootCmd.AddCommand(NewTimelineCommand())
	rootCmd.AddCommand(NewListCommand())
	rootCmd.AddCommand(NewDiagnoseCommand())
	rootCmd.AddCommand(NewVersionCommand(Version, Commit, BuildDate))

	return rootCmd
}

// Execute runs the root command
func Execute() error {
	rootCmd := NewRootCommand()

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(styles.FormatError(err.Error()))
		return err
	}

	return nil
}
