package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"cohortmatch/internal/cohort"
	"cohortmatch/internal/engine"
)

func newStatsCmd() *cobra.Command {
	var ageInterval string

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Print aggregate statistics over the entities file",
		Long:  "Load the entities file into an in-memory DuckDB instance and print entity counts overall and by country. With --age, also count entities inside an age interval.",
		Example: `  cohortmatch stats
  cohortmatch stats --age "[18,65)" --output json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			conn, err := engine.Open()
			if err != nil {
				return err
			}
			defer conn.Close()

			eng := engine.NewStatsEngine(conn, quietLogger())
			if err := eng.LoadEntities(cmd.Context(), entitiesPath(cmd)); err != nil {
				return err
			}
			stats, err := eng.Summary(cmd.Context())
			if err != nil {
				return err
			}

			var inInterval int64
			if ageInterval != "" {
				iv, err := cohort.ParseInterval(ageInterval)
				if err != nil {
					return err
				}
				if inInterval, err = eng.CountInAgeInterval(cmd.Context(), iv); err != nil {
					return err
				}
			}

			if getOutputFormat(cmd) == "json" {
				out := map[string]interface{}{
					"entities":   stats.Entities,
					"by_country": stats.ByCountry,
				}
				if ageInterval != "" {
					out["in_age_interval"] = inInterval
				}
				return printJSON(os.Stdout, out)
			}

			fmt.Fprintf(os.Stdout, "entities: %d\n", stats.Entities)
			if ageInterval != "" {
				fmt.Fprintf(os.Stdout, "in age %s: %d\n", ageInterval, inInterval)
			}
			fmt.Fprintln(os.Stdout, "COUNTRY\tCOUNT")
			for _, c := range stats.ByCountry {
				fmt.Fprintf(os.Stdout, "%s\t%d\n", c.Country, c.Count)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&ageInterval, "age", "", "Also count entities inside this age interval, e.g. \"[18,65)\"")
	return cmd
}
