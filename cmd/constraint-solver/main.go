package main

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/lirtools/analysis/constraints"
	"github.com/lirtools/analysis/internal/cli"
)

func init() {
	log.SetFlags(log.Ltime | log.Lshortfile)
}

func main() {
	os.Exit(cli.Main("constraint-solver", newConstraintSolverCmd))
}

func newConstraintSolverCmd(out io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "constraint-solver <constraints-file>",
		Short: "Solve set constraints into a points-to map",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := cli.ReadFile(args[0])
			if err != nil {
				return err
			}
			stmts, err := constraints.ParseConstraints(string(data), constraints.NewInterner())
			if err != nil {
				return err
			}
			sol := constraints.Solve(stmts)
			fmt.Fprint(out, constraints.FormatSolution(sol))
			return nil
		},
	}
}
