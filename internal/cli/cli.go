// Package cli carries the scaffolding shared by the analysis executables:
// error formatting per the "<tool>: <kind>: <detail>" contract and the
// common exit-code handling.
package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	analysis "github.com/lirtools/analysis"
)

// Main executes the tool's root command and maps failure onto exit code 1,
// emitting a single diagnostic line on the error stream.
func Main(tool string, newCmd func(out io.Writer) *cobra.Command) int {
	cmd := newCmd(os.Stdout)
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true
	cmd.SetArgs(os.Args[1:])

	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %s\n", tool, Message(err))
		return 1
	}
	return 0
}

// Message renders an error with its kind prefix; anything that is not a
// typed analysis error (cobra argument validation, mostly) counts as usage.
func Message(err error) string {
	var aerr *analysis.Error
	if errors.As(err, &aerr) {
		return aerr.Error()
	}
	return fmt.Sprintf("%s: %s", analysis.Usage, err)
}

// ReadFile reads path, reporting a missing or unreadable file as a usage
// error per the CLI contract.
func ReadFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, analysis.Errorf(analysis.Usage, "%v", err)
	}
	return data, nil
}
