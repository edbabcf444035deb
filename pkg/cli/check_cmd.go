package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"cohortmatch/internal/scenario"
)

func newCheckCmd() *cobra.Command {
	var suitePath string

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Run the built-in acceptance checks against the input files",
		Long: `Run the embedded checks (load counts, interval boundaries, cohort
add/overwrite, malformed input handling) against the configured files,
printing one PASS/FAIL line per check. With --suite, a YAML file of expected
eid-to-cohort matches is run instead. The exit code is 0 only when every
check passes.`,
		Example: `  cohortmatch check
  cohortmatch check --suite expectations.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var results []scenario.Result
			if suitePath != "" {
				s, err := scenario.LoadSuite(suitePath)
				if err != nil {
					return err
				}
				results, err = scenario.RunSuite(s, entitiesPath(cmd), cohortsPath(cmd))
				if err != nil {
					return err
				}
			} else {
				results = scenario.Run(entitiesPath(cmd), cohortsPath(cmd))
			}

			if scenario.Report(os.Stdout, results) {
				return nil
			}
			failed := 0
			for _, r := range results {
				if r.Err != nil {
					failed++
				}
			}
			return fmt.Errorf("%d of %d checks failed", failed, len(results))
		},
	}

	cmd.Flags().StringVar(&suitePath, "suite", "", "YAML suite of expected matches")
	return cmd
}
