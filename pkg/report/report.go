// Package report renders exchange outcomes for people: hex dumps, a plain
// text summary and a printable PDF.
package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/OpenTraceLab/OpenTraceIC/pkg/ictest"
	"github.com/OpenTraceLab/OpenTraceIC/pkg/tester"
)

// Meta describes the run a report belongs to.
type Meta struct {
	Title string // IC or plan name
	Board string
	Port  string
	When  time.Time
}

// Hex formats bytes as space-separated upper-case hex pairs.
func Hex(b []byte) string {
	var sb strings.Builder
	for i, c := range b {
		if i > 0 {
			sb.WriteByte(' ')
		}
		fmt.Fprintf(&sb, "%02X", c)
	}
	return sb.String()
}

// Line is one rendered result line.
type Line struct {
	Label string
	Value string
	// Fail marks lines that report a failure, for highlighting.
	Fail bool
}

// Lines renders an exchange outcome. rep may be nil when the packet was never
// sent; runErr is the error Run returned, if any.
func Lines(rep *tester.Report, runErr error) []Line {
	var out []Line
	if rep != nil {
		out = append(out,
			Line{Label: "Sent", Value: Hex(rep.Packet)},
			Line{Label: "Received", Value: Hex(rep.Response)},
		)
		out = append(out, resultLines(rep)...)
	}
	if runErr != nil {
		out = append(out, Line{Label: "Error", Value: runErr.Error(), Fail: true})
	}
	if rep != nil {
		out = append(out, verdictLine(rep, runErr))
	}
	return out
}

func resultLines(rep *tester.Report) []Line {
	var out []Line
	switch {
	case rep.PassFail != nil:
		label := "Gate"
		switch rep.Kind {
		case ictest.KindFlipFlop:
			label = "Flip-flop"
		case ictest.KindMux:
			label = "Channel"
		}
		for i, ok := range rep.PassFail.Passed {
			n := i + 1
			if rep.Kind == ictest.KindMux {
				n = i
			}
			out = append(out, Line{Label: fmt.Sprintf("%s %d", label, n), Value: passText(ok), Fail: !ok})
		}
	case rep.Values != nil:
		prefix := "Channel "
		if rep.Kind == ictest.KindCounter {
			prefix = "Q"
		}
		for i, v := range rep.Values {
			out = append(out, Line{Label: fmt.Sprintf("%s%d", prefix, i), Value: fmt.Sprintf("%d", v)})
		}
	case rep.Analog != nil:
		a := rep.Analog
		if a.HasFrequency {
			out = append(out, Line{Label: "Frequency", Value: fmt.Sprintf("%.2f Hz", a.FrequencyHz)})
		}
		if a.HasStatus {
			out = append(out, Line{Label: "Status", Value: passText(a.Passed), Fail: !a.Passed})
		}
	}
	return out
}

func verdictLine(rep *tester.Report, runErr error) Line {
	if runErr != nil {
		return Line{Label: "Result", Value: "NO RESULT", Fail: true}
	}
	passed, known := rep.Verdict()
	if !known {
		return Line{Label: "Result", Value: "see values"}
	}
	return Line{Label: "Result", Value: passText(passed), Fail: !passed}
}

func passText(ok bool) string {
	if ok {
		return "PASS"
	}
	return "FAIL"
}

// WriteText writes a plain text report.
func WriteText(w io.Writer, m Meta, rep *tester.Report, runErr error) error {
	var sb strings.Builder
	if h := heading(m, rep); h != "" {
		sb.WriteString(h)
		sb.WriteByte('\n')
	}
	for _, l := range Lines(rep, runErr) {
		fmt.Fprintf(&sb, "%-10s %s\n", l.Label+":", l.Value)
	}
	if rep != nil {
		if dbg := rep.DebugText(); dbg != "" {
			sb.WriteString("Debug:\n")
			for _, line := range strings.Split(dbg, "\n") {
				sb.WriteString("  ")
				sb.WriteString(line)
				sb.WriteByte('\n')
			}
		}
	}
	_, err := io.WriteString(w, sb.String())
	return err
}

func heading(m Meta, rep *tester.Report) string {
	var parts []string
	if m.Title != "" {
		parts = append(parts, m.Title)
	}
	var ctx []string
	if rep != nil {
		ctx = append(ctx, rep.Kind.String())
	}
	if m.Board != "" {
		ctx = append(ctx, "board "+m.Board)
	}
	if m.Port != "" {
		ctx = append(ctx, "port "+m.Port)
	}
	if len(ctx) > 0 {
		parts = append(parts, "("+strings.Join(ctx, ", ")+")")
	}
	if len(parts) == 0 {
		return ""
	}
	return "Test: " + strings.Join(parts, " ")
}
