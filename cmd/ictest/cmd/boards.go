package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/OpenTraceIC/pkg/pinmap"
)

var boardsCmd = &cobra.Command{
	Use:   "boards [name]",
	Short: "List boards and their pin codes",
	Long: `List the built-in boards and those loaded from --boards-dir. With a board
name, print that board's pin names and the codes sent on the wire.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runBoards,
}

func init() {
	rootCmd.AddCommand(boardsCmd)
}

func runBoards(cmd *cobra.Command, args []string) error {
	reg := pinmap.DefaultRegistry()
	if cfg.BoardsDir != "" {
		if err := reg.LoadDir(cfg.BoardsDir); err != nil {
			return fmt.Errorf("load boards: %w", err)
		}
	}

	if len(args) == 1 {
		b, err := reg.Lookup(args[0])
		if err != nil {
			return err
		}
		fmt.Printf("Board %s (%d pins)\n", b.Name(), b.Len())
		for _, p := range b.Pins() {
			fmt.Printf("  %-6s 0x%02X\n", p.Name, byte(p.Code))
		}
		return nil
	}

	fmt.Println("Boards:")
	for _, name := range reg.Names() {
		b, err := reg.Lookup(name)
		if err != nil {
			return err
		}
		names := b.Names()
		span := ""
		if len(names) > 0 {
			span = fmt.Sprintf(" %s..%s", names[0], names[len(names)-1])
		}
		marker := " "
		if b.Name() == cfg.Board {
			marker = "*"
		}
		fmt.Printf(" %s %-10s %2d pins%s\n", marker, b.Name(), b.Len(), span)
	}
	return nil
}
