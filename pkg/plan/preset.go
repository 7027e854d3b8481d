package plan

import (
	"fmt"
	"sort"
	"strings"

	"github.com/OpenTraceLab/OpenTraceIC/pkg/pinmap"
)

// counterOutputs is the output count of each known counter IC.
var counterOutputs = map[string]int{
	"4017": 10, // decade counter, one-hot Q0..Q9
	"7493": 4,  // 4-bit binary ripple counter
}

// CounterModels lists the ICs CounterPreset knows.
func CounterModels() []string {
	models := make([]string, 0, len(counterOutputs))
	for m := range counterOutputs {
		models = append(models, m)
	}
	sort.Strings(models)
	return models
}

// CounterPreset returns a counter plan for a known IC wired to the board's
// pins in declaration order: clock on the first, reset on the second and the
// outputs after them. On a MEGA that is clock D22, reset D23, outputs from D24.
func CounterPreset(model string, board *pinmap.Board, pulses int) (*Plan, error) {
	model = strings.TrimPrefix(strings.ToUpper(strings.TrimSpace(model)), "CD")
	model = strings.TrimPrefix(model, "SN")
	n, ok := counterOutputs[model]
	if !ok {
		return nil, fmt.Errorf("plan: no counter preset for %q (known: %s)", model, strings.Join(CounterModels(), ", "))
	}
	names := board.Names()
	if len(names) < n+2 {
		return nil, fmt.Errorf("plan: board %s has %d pins, %s needs %d", board.Name(), len(names), model, n+2)
	}
	return &Plan{
		Name:  model,
		Board: board.Name(),
		Kind:  KindCounter,
		Counter: &Counter{
			Clock:   names[0],
			Reset:   names[1],
			Outputs: append([]string(nil), names[2:2+n]...),
			Pulses:  pulses,
		},
	}, nil
}
