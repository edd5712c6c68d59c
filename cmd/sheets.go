package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/QuartzBytes/sheetquery-cli/internal/workbook"
)

var sheetsPreview int

var sheetsCmd = &cobra.Command{
	Use:   "sheets <file>",
	Short: "List the worksheets in a workbook",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		names, err := workbook.ListSheets(path)
		if err != nil {
			return err
		}
		for _, name := range names {
			sheet, err := workbook.Open(path, name)
			if err != nil {
				fmt.Printf("%s (unreadable: %v)\n", name, err)
				continue
			}
			fmt.Printf("%s: %d rows, %d columns\n", name, sheet.TotalRows(), sheet.TotalColumns())
			if sheetsPreview > 0 {
				limit := sheetsPreview
				if limit > sheet.TotalRows() {
					limit = sheet.TotalRows()
				}
				for i := 0; i < limit; i++ {
					fmt.Printf("  %s\n", workbook.PipeRow(sheet.Rows[i], sheet.TotalColumns()))
				}
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sheetsCmd)
	sheetsCmd.Flags().IntVar(&sheetsPreview, "preview", 0, "print the first N rows of each sheet")
}
