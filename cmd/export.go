package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sells-group/finstat-harvester/internal/sink"
)

var exportCmd = &cobra.Command{
	Use:   "export <results.csv> <out.xlsx>",
	Short: "Convert a results CSV into an XLSX workbook",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		n, err := sink.ExportXLSX(args[0], args[1])
		if err != nil {
			return err
		}
		fmt.Printf("Exported %d records to %s\n", n, args[1])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)
}
