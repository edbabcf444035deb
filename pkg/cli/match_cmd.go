package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"cohortmatch/internal/domain"
)

func newMatchCmd() *cobra.Command {
	var eid int64

	cmd := &cobra.Command{
		Use:   "match",
		Short: "List the cohorts an entity belongs to",
		Long:  "Match one entity (--eid) or every entity against all cohort definitions.",
		Example: `  # One entity
  cohortmatch match --eid 1

  # Every entity, as JSON
  cohortmatch match --output json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			table, err := loadEntities(cmd)
			if err != nil {
				return err
			}
			store, err := loadStore(cmd)
			if err != nil {
				return err
			}

			var entities []domain.Entity
			if cmd.Flags().Changed("eid") {
				e, err := table.ByEID(eid)
				if err != nil {
					return err
				}
				entities = []domain.Entity{*e}
			} else {
				entities = table.All()
			}

			type row struct {
				EID     int64    `json:"eid"`
				Cohorts []string `json:"cohorts"`
			}
			rows := make([]row, 0, len(entities))
			for i := range entities {
				ids := store.Matches(&entities[i])
				if ids == nil {
					ids = []string{}
				}
				rows = append(rows, row{EID: entities[i].EID, Cohorts: ids})
			}

			if getOutputFormat(cmd) == "json" {
				if cmd.Flags().Changed("eid") {
					return printJSON(os.Stdout, rows[0])
				}
				return printJSON(os.Stdout, rows)
			}

			fmt.Fprintln(os.Stdout, "EID\tCOHORTS")
			for _, r := range rows {
				fmt.Fprintln(os.Stdout, matchLine(r.EID, r.Cohorts))
			}
			return nil
		},
	}

	cmd.Flags().Int64Var(&eid, "eid", 0, "Match only the entity with this id")
	return cmd
}

func matchLine(id int64, cohorts []string) string {
	if len(cohorts) == 0 {
		return fmt.Sprintf("%d\t-", id)
	}
	return fmt.Sprintf("%d\t%s", id, strings.Join(cohorts, ","))
}
