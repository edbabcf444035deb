package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

func newEntitiesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "entities",
		Short: "List the entities loaded from the entities file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			table, err := loadEntities(cmd)
			if err != nil {
				return err
			}

			if getOutputFormat(cmd) == "json" {
				type row struct {
					EID       int64    `json:"eid"`
					FirstName string   `json:"first_name"`
					LastName  string   `json:"last_name"`
					Age       int64    `json:"age"`
					Country   string   `json:"country"`
					ZipCode   string   `json:"zip_code"`
					Emails    []string `json:"emails"`
				}
				rows := make([]row, 0, table.Len())
				for _, e := range table.All() {
					rows = append(rows, row{e.EID, e.FirstName, e.LastName, e.Age, e.Country, e.ZipCode, e.Emails})
				}
				return printJSON(os.Stdout, rows)
			}

			fmt.Fprintln(os.Stdout, "EID\tNAME\tAGE\tCOUNTRY\tZIP\tEMAILS")
			for _, e := range table.All() {
				fmt.Fprintf(os.Stdout, "%d\t%s %s\t%d\t%s\t%s\t%s\n",
					e.EID, e.FirstName, e.LastName, e.Age, e.Country, e.ZipCode,
					strings.Join(e.Emails, ","))
			}
			return nil
		},
	}
}
