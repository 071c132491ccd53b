package main

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/lirtools/analysis/constraints"
	"github.com/lirtools/analysis/internal/cli"
	"github.com/lirtools/analysis/lir"
)

func init() {
	log.SetFlags(log.Ltime | log.Lshortfile)
}

func main() {
	os.Exit(cli.Main("constraint-generator", newConstraintGeneratorCmd))
}

func newConstraintGeneratorCmd(out io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "constraint-generator <lir-json>",
		Short: "Emit set constraints for a program's pointer flow",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := cli.ReadFile(args[0])
			if err != nil {
				return err
			}
			p, err := lir.Parse(data)
			if err != nil {
				return err
			}
			stmts := constraints.NewGenerator(p).Generate()
			fmt.Fprint(out, constraints.Format(stmts))
			return nil
		},
	}
}
