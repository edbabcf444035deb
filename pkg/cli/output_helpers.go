package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// getOutputFormat returns the effective output format from the root command's
// persistent flags.
func getOutputFormat(cmd *cobra.Command) string {
	v, _ := cmd.Root().PersistentFlags().GetString("output")
	return v
}

func validateOutputFormat(output string) error {
	if output != "" && output != "table" && output != "json" {
		return fmt.Errorf("unsupported output format %q: use 'table' or 'json'", output)
	}
	return nil
}

func entitiesPath(cmd *cobra.Command) string {
	return stringFlag(cmd.Root().PersistentFlags(), "entities")
}

func cohortsPath(cmd *cobra.Command) string {
	return stringFlag(cmd.Root().PersistentFlags(), "cohorts")
}

func metaDBPath(cmd *cobra.Command) string {
	return stringFlag(cmd.Root().PersistentFlags(), "meta-db")
}

// stringFlag reads a string flag, tolerating flag sets that don't define it
// (as happens when commands are exercised without their root).
func stringFlag(fs *pflag.FlagSet, name string) string {
	if fs.Lookup(name) == nil {
		return ""
	}
	v, _ := fs.GetString(name)
	return v
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// quietLogger discards ingest progress logs so command output stays clean.
func quietLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
