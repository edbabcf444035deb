// Package cli implements the cohortmatch command-line interface. All
// commands operate directly on the input files and the local metastore;
// no running server is required.
package cli

import (
	"database/sql"
	"fmt"
	"os"

	_ "github.com/duckdb/duckdb-go/v2"
	_ "github.com/mattn/go-sqlite3"
	"github.com/spf13/cobra"

	"cohortmatch/internal/cohort"
	"cohortmatch/internal/config"
	"cohortmatch/internal/db"
	"cohortmatch/internal/domain"
	"cohortmatch/internal/ingest"
	"cohortmatch/internal/repository"
)

var (
	version = "dev"
	commit  = "none"
)

// Execute runs the CLI and returns the process exit code.
func Execute() int {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func newRootCmd() *cobra.Command {
	var (
		entitiesFile string
		cohortsFile  string
		metaDB       string
		output       string
	)

	rootCmd := &cobra.Command{
		Use:           "cohortmatch",
		Short:         "Entity cohort matching",
		Long:          "Match entities from a TSV file against tab-separated cohort rule definitions.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// flag > env > default
			if !cmd.Flags().Changed("entities") {
				if v := os.Getenv("ENTITIES_FILE"); v != "" {
					entitiesFile = v
				}
			}
			if !cmd.Flags().Changed("cohorts") {
				if v := os.Getenv("COHORTS_FILE"); v != "" {
					cohortsFile = v
				}
			}
			if !cmd.Flags().Changed("meta-db") {
				if v := os.Getenv("META_DB_PATH"); v != "" {
					metaDB = v
				}
			}
			return validateOutputFormat(output)
		},
	}

	rootCmd.PersistentFlags().StringVar(&entitiesFile, "entities", config.DefaultEntitiesFile, "Entities TSV file")
	rootCmd.PersistentFlags().StringVar(&cohortsFile, "cohorts", config.DefaultCohortsFile, "Cohort rules file")
	rootCmd.PersistentFlags().StringVar(&metaDB, "meta-db", "", "SQLite metastore path (optional)")
	rootCmd.PersistentFlags().StringVarP(&output, "output", "o", "table", "Output format (table, json)")

	rootCmd.AddCommand(newEntitiesCmd())
	rootCmd.AddCommand(newCohortsCmd())
	rootCmd.AddCommand(newAddCohortCmd())
	rootCmd.AddCommand(newMatchCmd())
	rootCmd.AddCommand(newStatsCmd())
	rootCmd.AddCommand(newCheckCmd())
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

// loadEntities reads the entities file configured on the root command.
func loadEntities(cmd *cobra.Command) (*domain.EntityTable, error) {
	return newIngestor(cmd).LoadEntities()
}

// loadStore builds the cohort store the same way the server does at boot:
// file cohorts first, then persisted metastore cohorts overriding by ID.
func loadStore(cmd *cobra.Command) (*cohort.Store, error) {
	cohorts, err := newIngestor(cmd).LoadCohorts()
	if err != nil {
		return nil, err
	}
	store := cohort.NewStore()
	for _, c := range cohorts {
		store.Upsert(c)
	}

	meta := metaDBPath(cmd)
	if meta == "" {
		return store, nil
	}
	if _, err := os.Stat(meta); err != nil {
		// No metastore yet means no persisted cohorts.
		if os.IsNotExist(err) {
			return store, nil
		}
		return nil, fmt.Errorf("metastore %s: %w", meta, err)
	}

	conn, err := openMetastore(meta)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	stored, err := repository.NewCohortRepo(conn).List(cmd.Context())
	if err != nil {
		return nil, err
	}
	for _, sc := range stored {
		c, err := cohort.ParseRuleLine(sc.RuleLine)
		if err != nil {
			return nil, fmt.Errorf("stored cohort %q: %w", sc.ID, err)
		}
		store.Upsert(c)
	}
	return store, nil
}

func newIngestor(cmd *cobra.Command) *ingest.Ingestor {
	return ingest.New(entitiesPath(cmd), cohortsPath(cmd), quietLogger())
}

func openMetastore(path string) (*sql.DB, error) {
	conn, err := db.OpenSQLite(path)
	if err != nil {
		return nil, err
	}
	if err := db.RunMigrations(conn); err != nil {
		conn.Close()
		return nil, err
	}
	return conn, nil
}
