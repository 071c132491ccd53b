package main

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/lirtools/analysis/internal/cli"
	"github.com/lirtools/analysis/lir"
)

func init() {
	log.SetFlags(log.Ltime | log.Lshortfile)
}

func main() {
	os.Exit(cli.Main("lir-stats", newLirStatsCmd))
}

func newLirStatsCmd(out io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "lir-stats <lir-json>",
		Short: "Summarize a LIR program's structure",
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
			fmt.Fprint(out, p.Stats())
			return nil
		},
	}
}
