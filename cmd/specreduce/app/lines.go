package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roman-kulish/specreduce/internal/catalog"
)

func (a *app) newLinesCommand() *cobra.Command {
	var asYAML bool

	cmd := &cobra.Command{
		Use:   "lines",
		Short: "List available element lines",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cat, err := a.loadCatalog()
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if asYAML {
				p, err := catalog.MarshalLines(cat)
				if err != nil {
					return err
				}
				_, err = w.Write(p)
				return err
			}

			for _, code := range cat.Codes() {
				line, err := cat.Line(code)
				if err != nil {
					return err
				}
				if _, err = fmt.Fprintf(w, "%4s %s\n", code, line); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asYAML, "yaml", false, "print the lines as a YAML line file")
	return cmd
}
