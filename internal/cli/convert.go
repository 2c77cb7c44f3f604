package cli

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vk/eventflow/efio/csvio"
	"github.com/vk/eventflow/efio/sqliteio"
	"github.com/vk/eventflow/series"
)

var (
	convertTable    string
	convertIndexes  []string
	convertUnixTime bool
)

var convertCmd = &cobra.Command{
	Use:   "convert SRC DST",
	Short: "Convert event data between CSV and SQLite",
	Long: `Convert event data between CSV and SQLite.

Formats are inferred from file extensions: .csv is CSV, anything else is
treated as a SQLite database. SQLite endpoints need --table.`,
	Args: cobra.ExactArgs(2),
	RunE: runConvert,
}

func init() {
	convertCmd.Flags().StringVar(&convertTable, "table", "", "sqlite table name")
	convertCmd.Flags().StringSliceVar(&convertIndexes, "indexes", nil, "columns to group by")
	convertCmd.Flags().BoolVar(&convertUnixTime, "unix-time", false, "treat timestamps as unix epoch seconds")
	rootCmd.AddCommand(convertCmd)
}

func runConvert(cmd *cobra.Command, args []string) error {
	src, dst := args[0], args[1]

	es, err := readAny(cmd, src)
	if err != nil {
		return err
	}
	return writeAny(cmd, dst, es)
}

func isCSV(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".csv")
}

func readAny(cmd *cobra.Command, path string) (*series.EventSet, error) {
	if isCSV(path) {
		return csvio.Read(path, csvio.ReadOptions{
			Indexes:         convertIndexes,
			IsUnixTimestamp: convertUnixTime,
		})
	}
	if convertTable == "" {
		return nil, fmt.Errorf("reading from sqlite %q needs --table", path)
	}
	db, err := sqliteio.Open(path)
	if err != nil {
		return nil, err
	}
	defer db.Close()
	return sqliteio.Read(cmd.Context(), db, convertTable, sqliteio.ReadOptions{
		Indexes:         convertIndexes,
		IsUnixTimestamp: convertUnixTime,
	})
}

func writeAny(cmd *cobra.Command, path string, es *series.EventSet) error {
	if isCSV(path) {
		return csvio.Write(es, path)
	}
	if convertTable == "" {
		return fmt.Errorf("writing to sqlite %q needs --table", path)
	}
	db, err := sqliteio.Open(path)
	if err != nil {
		return err
	}
	defer db.Close()
	return sqliteio.Write(cmd.Context(), db, convertTable, es)
}
