package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"cohortmatch/internal/cohort"
	"cohortmatch/internal/repository"
)

func newCohortsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cohorts",
		Short: "List all cohort definitions",
		Long:  "List cohorts from the cohort rules file, with any persisted metastore cohorts applied on top.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := loadStore(cmd)
			if err != nil {
				return err
			}

			if getOutputFormat(cmd) == "json" {
				type row struct {
					ID       string `json:"id"`
					RuleLine string `json:"rule_line"`
				}
				rows := make([]row, 0, store.Len())
				for _, c := range store.List() {
					rows = append(rows, row{c.ID, c.RuleLine()})
				}
				return printJSON(os.Stdout, rows)
			}

			fmt.Fprintln(os.Stdout, "ID\tRULES")
			for _, c := range store.List() {
				fmt.Fprintf(os.Stdout, "%s\t%s\n", c.ID, c.RuleLine())
			}
			return nil
		},
	}
}

func newAddCohortCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add-cohort <rule-line>",
		Short: "Add or overwrite a cohort definition",
		Long: `Parse a tab-separated "key:value" rule line and persist it to the
metastore, where the server picks it up on its next start. A cohort with the
same ID is overwritten.`,
		Example: `  cohortmatch add-cohort "$(printf 'cohort:5\tcountry:US\tage:[18,65)')" --meta-db meta.sqlite`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := cohort.ParseRuleLine(args[0])
			if err != nil {
				return err
			}

			meta := metaDBPath(cmd)
			if meta == "" {
				return fmt.Errorf("add-cohort needs a metastore: set --meta-db or META_DB_PATH")
			}
			conn, err := openMetastore(meta)
			if err != nil {
				return err
			}
			defer conn.Close()

			if err := repository.NewCohortRepo(conn).Upsert(cmd.Context(), c.ID, c.RuleLine()); err != nil {
				return err
			}

			if getOutputFormat(cmd) == "json" {
				return printJSON(os.Stdout, map[string]string{
					"id":        c.ID,
					"rule_line": c.RuleLine(),
				})
			}
			fmt.Fprintf(os.Stdout, "cohort %s saved\n", c.ID)
			return nil
		},
	}
	return cmd
}
