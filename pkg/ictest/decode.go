package ictest

// ResultPass is the per-item status byte for a passing gate or flip-flop.
const ResultPass = 0x01

// PassFail holds per-item verdicts in the order the items were encoded.
type PassFail struct {
	Passed    []bool
	AllPassed bool
}

// Failed returns the indices of the items that failed.
func (p PassFail) Failed() []int {
	var idx []int
	for i, ok := range p.Passed {
		if !ok {
			idx = append(idx, i)
		}
	}
	return idx
}

// DecodePassFail interprets gate and flip-flop results: 0x01 is a pass and
// any other byte is a fail.
func DecodePassFail(f Frame, expected int) (PassFail, error) {
	if err := checkCount(f, expected); err != nil {
		return PassFail{}, err
	}
	res := PassFail{Passed: make([]bool, len(f.Payload)), AllPassed: true}
	for i, b := range f.Payload {
		res.Passed[i] = b == ResultPass
		if !res.Passed[i] {
			res.AllPassed = false
		}
	}
	return res, nil
}

// DecodeValues returns the raw per-index values of mux and counter results.
// No verdict is made here; callers compare against their expected table.
func DecodeValues(f Frame, expected int) ([]byte, error) {
	if err := checkCount(f, expected); err != nil {
		return nil, err
	}
	return append([]byte(nil), f.Payload...), nil
}

// DecodeDemux compares each select combination's observed output vector with
// the one-hot pattern 1<<index.
func DecodeDemux(f Frame, channels int) (PassFail, error) {
	if err := checkCount(f, channels); err != nil {
		return PassFail{}, err
	}
	res := PassFail{Passed: make([]bool, len(f.Payload)), AllPassed: true}
	for i, b := range f.Payload {
		res.Passed[i] = uint(b) == 1<<uint(i)
		if !res.Passed[i] {
			res.AllPassed = false
		}
	}
	return res, nil
}

func checkCount(f Frame, expected int) error {
	if len(f.Payload) != expected {
		return &CountError{Expected: expected, Actual: len(f.Payload)}
	}
	return nil
}
