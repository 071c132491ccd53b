package main

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/lirtools/analysis/config"
	"github.com/lirtools/analysis/dataflow"
	"github.com/lirtools/analysis/internal/cli"
	"github.com/lirtools/analysis/lir"
)

func init() {
	log.SetFlags(log.Ltime | log.Lshortfile)
}

func main() {
	os.Exit(cli.Main("interval-analysis", newIntervalAnalysisCmd))
}

func newIntervalAnalysisCmd(out io.Writer) *cobra.Command {
	var configPath string
	cmd := &cobra.Command{
		Use:   "interval-analysis <lir-file> <lir-json> <func>",
		Short: "Integer-interval analysis with loop-header widening",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			data, err := cli.ReadFile(args[1])
			if err != nil {
				return err
			}
			p, err := lir.Parse(data)
			if err != nil {
				return err
			}
			res, err := dataflow.Intervals(p, args[2], dataflow.Options{
				AddrofGlobals: cfg.AddrofGlobals,
			})
			if err != nil {
				return err
			}
			fmt.Fprint(out, res)
			return nil
		},
	}
	cmd.Flags().StringVar(&configPath, "config", config.ConfigName, "analysis options file")
	return cmd
}
