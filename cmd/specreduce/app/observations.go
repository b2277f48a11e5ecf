package app

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/roman-kulish/specreduce/internal/storage"
)

func (a *app) newObservationsCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "observations",
		Short: "List archived observations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) (err error) {
			store := storage.NewSqliteStore(a.config.DBPath)
			defer closeWithError(store, &err)

			observations, err := store.Observations(cmd.Context())
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(observations)
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tCREATED\tSOURCE\tLABEL\tCALIBRATION")
			for _, obs := range observations {
				calibration := "-"
				if obs.Calibration != nil {
					calibration = *obs.Calibration
				}
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n",
					obs.ID, obs.CreatedAt.Local().Format(time.DateTime), obs.Source, obs.Label, calibration)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print observations as JSON")
	return cmd
}
