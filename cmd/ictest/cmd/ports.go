package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/OpenTraceIC/pkg/transport"
)

var portsCmd = &cobra.Command{
	Use:   "ports",
	Short: "List serial ports and detected tester boards",
	Long: `Scan the host for serial ports and USB boards (Arduino Uno/Mega and common
USB-serial bridges) and print a summary. Use this to find the --port value.`,
	RunE: runPorts,
}

func init() {
	rootCmd.AddCommand(portsCmd)
}

func runPorts(cmd *cobra.Command, args []string) error {
	ports, err := transport.ListPorts()
	if err != nil {
		logger.Warn().Err(err).Msg("serial enumeration failed")
	}
	if len(ports) == 0 {
		fmt.Println("No serial ports found.")
	} else {
		fmt.Println("Serial ports:")
		for _, p := range ports {
			line := "  - " + p.Name
			if p.USB {
				line += fmt.Sprintf(" (VID:PID %04X:%04X)", p.VendorID, p.ProductID)
			}
			if p.Board != nil {
				line += " " + p.Board.Label()
			} else if p.Product != "" {
				line += " " + p.Product
			}
			fmt.Println(line)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	boards, err := transport.DiscoverBoards(ctx)
	if err != nil {
		// libusb is optional; the serial list above is what --port needs.
		logger.Warn().Err(err).Msg("usb discovery failed")
	}
	fmt.Println("USB boards:")
	for _, b := range boards {
		fmt.Printf("  - %s [%s] (VID:PID %04X:%04X)\n", b.Label(), b.Kind, b.VendorID, b.ProductID)
	}
	return nil
}
