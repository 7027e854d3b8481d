package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/OpenTraceIC/pkg/ictest"
	"github.com/OpenTraceLab/OpenTraceIC/pkg/report"
)

var pdfPath string

// errTestFailed makes the exit status reflect a failing device.
var errTestFailed = errors.New("device under test failed")

var runCmd = &cobra.Command{
	Use:   "run <plan.toml>",
	Short: "Run a test plan on the tester",
	Long: `Send a test plan to the tester board, wait for its reply and print the
per-item results. The exit status is non-zero when the device fails or no
reply arrives.

Examples:
  ictest run plans/74hc08.toml --port sim
  ictest run plans/74hc08.toml --port /dev/ttyACM0 --pdf 74hc08.pdf`,
	Args: cobra.ExactArgs(1),
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringVar(&pdfPath, "pdf", "", "also write the report as a PDF")
}

func runRun(cmd *cobra.Command, args []string) error {
	p, command, err := loadPlan(args[0])
	if err != nil {
		return err
	}
	return execute(report.Meta{Title: p.Name, Board: cfg.Board}, command)
}

// execute runs one command on the configured port and reports the outcome.
func execute(meta report.Meta, command ictest.Command) error {
	t, closer, err := openTester()
	if err != nil {
		return err
	}
	defer closer.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	meta.Port = cfg.Port
	meta.When = time.Now()
	rep, runErr := t.Run(ctx, command)

	if err := report.WriteText(os.Stdout, meta, rep, runErr); err != nil {
		return err
	}
	if pdfPath != "" {
		if err := report.WritePDF(pdfPath, meta, rep, runErr); err != nil {
			return err
		}
		fmt.Printf("PDF report written to %s\n", pdfPath)
	}
	if runErr != nil {
		return runErr
	}
	if passed, known := rep.Verdict(); known && !passed {
		return errTestFailed
	}
	return nil
}
