package cmd

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/OpenTraceIC/pkg/ictest"
	"github.com/OpenTraceLab/OpenTraceIC/pkg/report"
)

var (
	scanKind  string
	scanCount int
)

var scanCmd = &cobra.Command{
	Use:   "scan <hex>...",
	Short: "Locate and decode a reply frame in captured bytes",
	Long: `Scan a captured reply (hex, with or without separators) for the frame a
command kind expects and decode its results. With --count the result count is
checked as the tester would check it.

Examples:
  ictest scan 47 61 74 65 0D 0A 55 02 01 00 FF --kind gate
  ictest scan 5504010204 08FF --kind demux --count 4
  ictest scan "55 03 E8 01 FF" --kind ne555`,
	Args: cobra.MinimumNArgs(1),
	RunE: runScan,
}

func init() {
	rootCmd.AddCommand(scanCmd)
	scanCmd.Flags().StringVarP(&scanKind, "kind", "k", "gate",
		"command kind (gate, flipflop, mux, demux, counter, ne555)")
	scanCmd.Flags().IntVarP(&scanCount, "count", "n", 0,
		"expected result count (default: the frame's own count)")
}

func runScan(cmd *cobra.Command, args []string) error {
	buf, err := parseHexArgs(args)
	if err != nil {
		return err
	}
	kind, demux, err := parseKind(scanKind)
	if err != nil {
		return err
	}

	if kind == ictest.KindAnalog {
		r, err := ictest.DecodeAnalog(buf)
		if err != nil {
			return fmt.Errorf("no NE555 reading: %w", err)
		}
		if r.HasFrequency {
			fmt.Printf("Frequency: %.2f Hz\n", r.FrequencyHz)
		}
		if r.HasStatus {
			fmt.Printf("Status:    %s\n", passFail(r.Passed))
		}
		return nil
	}

	shape := ictest.ReplyShape(kind)
	shape.Expect = scanCount
	f, err := ictest.Scan(buf, shape)
	if err != nil {
		if ictest.Pending(buf, shape) {
			return ictest.ErrTruncatedFrame
		}
		return err
	}
	fmt.Printf("Frame at offset %d: %d result(s): %s\n", f.Start, f.Len(), report.Hex(f.Payload))

	expected := scanCount
	if expected == 0 {
		expected = f.Len()
	}
	switch {
	case kind == ictest.KindMux && demux:
		res, err := ictest.DecodeDemux(f, expected)
		if err != nil {
			return err
		}
		printPassFail("Channel", 0, res)
	case kind == ictest.KindMux || kind == ictest.KindCounter:
		vals, err := ictest.DecodeValues(f, expected)
		if err != nil {
			return err
		}
		for i, v := range vals {
			fmt.Printf("  [%d] %d\n", i, v)
		}
	default:
		res, err := ictest.DecodePassFail(f, expected)
		if err != nil {
			return err
		}
		label := "Gate"
		if kind == ictest.KindFlipFlop {
			label = "Flip-flop"
		}
		printPassFail(label, 1, res)
	}
	return nil
}

func printPassFail(label string, base int, res ictest.PassFail) {
	for i, ok := range res.Passed {
		fmt.Printf("  %s %d: %s\n", label, i+base, passFail(ok))
	}
	fmt.Printf("Result: %s\n", passFail(res.AllPassed))
}

func passFail(ok bool) string {
	if ok {
		return "PASS"
	}
	return "FAIL"
}

// parseKind maps a CLI kind name to a command kind; demux reports the DEMUX
// flavour of KindMux.
func parseKind(s string) (kind ictest.Kind, demux bool, err error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "gate", "gates":
		return ictest.KindGate, false, nil
	case "flipflop", "flip-flop", "ff":
		return ictest.KindFlipFlop, false, nil
	case "mux":
		return ictest.KindMux, false, nil
	case "demux":
		return ictest.KindMux, true, nil
	case "counter":
		return ictest.KindCounter, false, nil
	case "ne555", "analog", "555":
		return ictest.KindAnalog, false, nil
	}
	return 0, false, fmt.Errorf("unknown kind %q", s)
}

// parseHexArgs joins the arguments into bytes. Separators (spaces, colons,
// commas) and 0x prefixes are ignored.
func parseHexArgs(args []string) ([]byte, error) {
	var sb strings.Builder
	for _, a := range args {
		for _, field := range strings.FieldsFunc(a, func(r rune) bool {
			return r == ' ' || r == ':' || r == ',' || r == '\t'
		}) {
			field = strings.TrimPrefix(strings.TrimPrefix(field, "0x"), "0X")
			if len(field) == 1 {
				field = "0" + field
			}
			sb.WriteString(field)
		}
	}
	b, err := hex.DecodeString(sb.String())
	if err != nil {
		return nil, fmt.Errorf("invalid hex: %w", err)
	}
	return b, nil
}
