package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/OpenTraceIC/pkg/ictest"
	"github.com/OpenTraceLab/OpenTraceIC/pkg/plan"
	"github.com/OpenTraceLab/OpenTraceIC/pkg/report"
)

var encodeCmd = &cobra.Command{
	Use:   "encode <plan.toml>",
	Short: "Print the command packet a plan sends",
	Long: `Resolve a test plan against the selected board and print the packet bytes
without talking to any hardware.

Examples:
  ictest encode plans/74hc08.toml
  ictest encode plans/4017.toml --board MEGA`,
	Args: cobra.ExactArgs(1),
	RunE: runEncode,
}

func init() {
	rootCmd.AddCommand(encodeCmd)
}

func runEncode(cmd *cobra.Command, args []string) error {
	p, command, err := loadPlan(args[0])
	if err != nil {
		return err
	}
	packet := command.Encode()
	if verbose {
		fmt.Printf("Plan:   %s (%s, board %s)\n", p.Name, command.Kind(), cfg.Board)
	}
	fmt.Printf("Packet (%d bytes): %s\n", len(packet), report.Hex(packet))
	return nil
}

// loadPlan reads a plan and builds its command for the selected board. A plan
// saved for another board only warns; pins that do not exist fail the build.
func loadPlan(path string) (*plan.Plan, ictest.Command, error) {
	p, err := plan.Load(path)
	if err != nil {
		return nil, nil, err
	}
	board, err := loadBoard()
	if err != nil {
		return nil, nil, err
	}
	if err := p.CheckBoard(board.Name()); err != nil {
		logger.Warn().Str("plan", p.Board).Str("board", board.Name()).Msg("plan was saved for another board")
	}
	command, err := p.Build(board)
	if err != nil {
		return nil, nil, err
	}
	return p, command, nil
}
