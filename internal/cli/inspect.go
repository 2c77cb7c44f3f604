package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vk/eventflow/efio/csvio"
)

var (
	inspectIndexes   []string
	inspectTimestamp string
	inspectUnixTime  bool
)

var inspectCmd = &cobra.Command{
	Use:   "inspect FILE",
	Short: "Print the schema and per-key event counts of a CSV file",
	Args:  cobra.ExactArgs(1),
	RunE:  runInspect,
}

func init() {
	inspectCmd.Flags().StringSliceVar(&inspectIndexes, "indexes", nil, "columns to group by")
	inspectCmd.Flags().StringVar(&inspectTimestamp, "timestamp", "", "timestamp column name")
	inspectCmd.Flags().BoolVar(&inspectUnixTime, "unix-time", false, "treat timestamps as unix epoch seconds")
	rootCmd.AddCommand(inspectCmd)
}

func runInspect(cmd *cobra.Command, args []string) error {
	opts := csvio.ReadOptions{
		Indexes:         inspectIndexes,
		Timestamp:       inspectTimestamp,
		IsUnixTimestamp: inspectUnixTime,
	}
	es, err := csvio.Read(args[0], opts)
	if err != nil {
		return err
	}

	cmd.Println(es.Schema().String())
	cmd.Printf("events: %d  keys: %d\n", es.NumEvents(), es.NumKeys())
	for _, key := range es.Keys() {
		d, _ := es.Get(key)
		label := "()"
		if len(d.Index) > 0 {
			label = fmt.Sprintf("%v", d.Index)
		}
		cmd.Printf("  %s: %d events\n", label, d.NumEvents())
	}
	return nil
}
