package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/thoreinstein/autoback/internal/config"
	"github.com/thoreinstein/autoback/internal/doctor"
	"github.com/thoreinstein/autoback/internal/errors"
)

var (
	doctorJSON bool
	doctorFix  bool
	doctorAll  bool
)

func init() {
	addSessionFlags(doctorCmd)
	doctorCmd.Flags().BoolVar(&doctorJSON, "json", false, "output results as JSON")
	doctorCmd.Flags().BoolVar(&doctorFix, "fix", false, "repair fixable issues")
	doctorCmd.Flags().BoolVar(&doctorAll, "all", false, "show all checks including passed ones")
	doctorCmd.MarkFlagsMutuallyExclusive("json", "all")
	rootCmd.AddCommand(doctorCmd)
}

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Diagnose a session's backup setup",
	Long: `Run diagnostic checks on the configuration, the session file and the
backup directory.

The most common problem it finds is a file in the backup directory that is
newer than every backup but not a numbered backup itself. While it is the
newest file no backups are taken.

Exit codes:
  0 - All checks passed (no errors or warnings)
  1 - Warnings present, no errors
  2 - Errors present`,
	Example: `  autoback doctor --base ~/Music/Song --session Song
  autoback doctor --fix
  autoback doctor --json`,
	Args: cobra.NoArgs,
	RunE: runDoctor,
}

// errDoctorWarnings is a sentinel error for exit code 1.
var errDoctorWarnings = errors.New("warnings found")

// errDoctorErrors is a sentinel error for exit code 2.
var errDoctorErrors = errors.New("errors found")

func runDoctor(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Current()
	if err != nil {
		return errors.NewConfigError(err)
	}
	target := &doctor.Target{
		Config:     cfg,
		ConfigFile: config.FileUsed(),
		ConfigErr:  configLoadErr,
	}
	return runDoctorWithWriter(cmd.Context(), target, doctorFix, doctorJSON, doctorAll, cmd.OutOrStdout())
}

func runDoctorWithWriter(ctx context.Context, target *doctor.Target, fix, asJSON, all bool, w io.Writer) error {
	runner := doctor.NewRunner(fix)
	for _, c := range doctor.SessionChecks(target) {
		runner.AddCheck(c)
	}
	report := runner.Run(ctx)

	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			return errors.Wrap(err, "encoding JSON")
		}
	} else {
		printDoctorReport(report, all, w)
	}

	if report.HasErrors() {
		return errors.NewExitError(errDoctorErrors, errors.ExitSystem)
	}
	if report.HasWarnings() {
		return errors.NewExitError(errDoctorWarnings, errors.ExitUser)
	}
	return nil
}

func printDoctorReport(report *doctor.Report, all bool, w io.Writer) {
	for _, fr := range report.Fixes {
		if fr.Fixed {
			fmt.Fprintf(w, "%s fixed %s: %s\n", color.GreenString("✓"), fr.Check, fr.Description)
			continue
		}
		msg := fr.Description
		if fr.Error != nil {
			msg += ": " + fr.Error.Error()
		}
		fmt.Fprintf(w, "%s could not fix %s: %s\n", color.RedString("✗"), fr.Check, msg)
	}
	if len(report.Fixes) > 0 {
		fmt.Fprintln(w)
	}

	shown := false
	for _, result := range report.Results {
		problem := result.Status == doctor.SeverityError || result.Status == doctor.SeverityWarning
		if !all && !problem {
			continue
		}
		shown = true
		fmt.Fprintf(w, "%s [%s] %s: %s\n", statusIcon(result.Status), result.Category, result.Name, result.Message)
		if problem && result.FixHint != "" {
			fmt.Fprintf(w, "  hint: %s\n", result.FixHint)
		}
	}
	if shown {
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "Summary: %d passed, %d info, %d warnings, %d errors\n",
		report.Summary.Passed, report.Summary.Info, report.Summary.Warnings, report.Summary.Errors)
}

func statusIcon(s doctor.Severity) string {
	switch s {
	case doctor.SeverityPass:
		return color.GreenString("✓")
	case doctor.SeverityInfo:
		return color.CyanString("ℹ")
	case doctor.SeverityWarning:
		return color.YellowString("⚠")
	case doctor.SeverityError:
		return color.RedString("✗")
	default:
		return "?"
	}
}
