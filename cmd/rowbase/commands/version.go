package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rowbase/rowbase-go/internal/version"
)

func newVersionCommand(a *app) *cobra.Command {
	var short bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			build := version.Current()
			if short {
				fmt.Fprintln(a.printer.Out, build.Version)
				return
			}
			for _, f := range build.Fields() {
				a.printer.KeyValue(f[0], f[1])
			}
		},
	}

	cmd.Flags().BoolVar(&short, "short", false, "print only the version number")
	return cmd
}
