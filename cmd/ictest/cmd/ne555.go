package cmd

import (
	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/OpenTraceIC/pkg/ictest"
	"github.com/OpenTraceLab/OpenTraceIC/pkg/report"
)

var ne555Cmd = &cobra.Command{
	Use:   "ne555",
	Short: "Run the NE555 astable timer test",
	Long: `Run the tester's fixed NE555 test and print the measured frequency and the
firmware's pass/fail status. The timer's pins are fixed in firmware.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return execute(report.Meta{Title: "NE555", Board: cfg.Board}, ictest.Analog{})
	},
}

func init() {
	rootCmd.AddCommand(ne555Cmd)
	ne555Cmd.Flags().StringVar(&pdfPath, "pdf", "", "also write the report as a PDF")
}
