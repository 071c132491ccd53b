package main

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/lirtools/analysis/config"
	"github.com/lirtools/analysis/constraints"
	"github.com/lirtools/analysis/dataflow"
	"github.com/lirtools/analysis/internal/cli"
	"github.com/lirtools/analysis/lir"
	"github.com/lirtools/analysis/modref"
)

func init() {
	log.SetFlags(log.Ltime | log.Lshortfile)
}

func main() {
	os.Exit(cli.Main("reaching-defs", newReachingDefsCmd))
}

// The pipeline: points-to solving feeds the call graph and mod/ref
// summaries, which feed the reaching-definitions transfer at call sites.
func newReachingDefsCmd(out io.Writer) *cobra.Command {
	var configPath, entry string
	cmd := &cobra.Command{
		Use:   "reaching-defs <lir-file> <lir-json> <func>",
		Short: "Reaching definitions with points-to-based call effects",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if entry != "" {
				cfg.Entry = entry
			}
			data, err := cli.ReadFile(args[1])
			if err != nil {
				return err
			}
			p, err := lir.Parse(data)
			if err != nil {
				return err
			}

			pointsTo := constraints.Solve(constraints.NewGenerator(p).Generate())

			graph := modref.BuildGraph(p, pointsTo, cfg.Entry)
			graph.Closure()
			mods := modref.ModSets(graph.Summaries())

			res, err := dataflow.ReachingDefs(p, args[2], pointsTo, mods)
			if err != nil {
				return err
			}
			fmt.Fprint(out, res)
			return nil
		},
	}
	cmd.Flags().StringVar(&configPath, "config", config.ConfigName, "analysis options file")
	cmd.Flags().StringVar(&entry, "entry", "", "call-graph entry function (defaults to the configured entry)")
	return cmd
}
