// caseflow is the command-line interface for the caseflow claim case engine.
//
// Usage:
//
//	caseflow <command> [flags]
//
// Commands:
//
//	init        Initialize a new caseflow project
//	create      Open a new claim case
//	submit      Submit a claim on a track
//	update      Revise a claim on a track
//	respond     Record the owner's verdict on a sent claim
//	accept      Accept a partial approval, locking the track
//	withdraw    Withdraw a claim on a track
//	close       Close a settled case
//	state       Show the projected state of a case
//	timeline    Browse the event timeline of a case
//	list        List known cases
//	diagnose    Run diagnostic checks on your setup
//	version     Show version information
//
// Examples:
//
//	# Initialize a new project
//	caseflow init my-project
//
//	# Open a case and submit a compensation claim
//	caseflow create --title "Rock blasting delay, section 4"
//	caseflow submit grounds --case <id> --justification "Unforeseen rock conditions"
//	caseflow submit compensation --case <id> --amount 500000 --currency NOK
//
//	# Respond as the owner
//	caseflow respond compensation --case <id> --result partially_approved --approved-amount 350000
//
//	# Run diagnostics
//	caseflow diagnose
package main

import (
	"os"

	"github.com/caseflow/caseflow/cli/commands"

	// Register PostgreSQL driver
	_ "github.com/jackc/pgx/v5/stdlib"
)

// Build information (set via ldflags)
var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

func main() {
	// Set version info
	commands.Version = version
	commands.Commit = commit
	commands.BuildDate = buildDate

	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
