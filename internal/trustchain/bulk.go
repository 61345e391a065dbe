package trustchain

import "github.com/jaxxstorm/rollovermon/internal/model"

// Verdict is the window-level classification of one vantage point.
type Verdict struct {
	State model.State
	// Inconsistent is set when both valid and bogus samples were seen but
	// their outcomes match no state.
	Inconsistent bool
}

type tally struct {
	valid, bogus                int
	validNoError, validServfail int
	bogusNoError, bogusServfail int
}

func (t *tally) add(s Sample) {
	switch s.Label {
	case model.LabelValid:
		t.valid++
		switch s.Outcome {
		case model.OutcomeNoError:
			t.validNoError++
		case model.OutcomeServfail:
			t.validServfail++
		}
	case model.LabelBogus:
		t.bogus++
		switch s.Outcome {
		case model.OutcomeNoError:
			t.bogusNoError++
		case model.OutcomeServfail:
			t.bogusServfail++
		}
	}
}

// ReduceWindow classifies all samples a vantage point produced inside one
// window from the presence or absence of NOERROR and SERVFAIL answers.
func ReduceWindow(samples []Sample) Verdict {
	t := tally{}
	for _, s := range samples {
		t.add(s)
	}

	validResolves := t.validNoError > 0 && t.validServfail == 0
	validFails := t.validNoError == 0 && t.validServfail > 0
	bogusResolves := t.bogusNoError > 0 && t.bogusServfail == 0
	bogusFails := t.bogusNoError == 0 && t.bogusServfail > 0

	switch {
	case bogusFails && validResolves:
		return Verdict{State: model.StateSecure}
	case bogusResolves && validResolves:
		return Verdict{State: model.StateInsecure}
	case bogusFails && validFails:
		return Verdict{State: model.StateBogus}
	default:
		return Verdict{State: model.StateUnknown, Inconsistent: t.valid > 0 && t.bogus > 0}
	}
}
