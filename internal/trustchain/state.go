package trustchain

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/jaxxstorm/rollovermon/internal/model"
)

type Mode string

const (
	// ModeWindow classifies each window from the outcome counts of all its
	// samples.
	ModeWindow Mode = "window"
	// ModePair pairs every valid sample with a nearby bogus sample.
	ModePair Mode = "pair"
)

func ParseMode(value string) (Mode, error) {
	switch m := Mode(strings.ToLower(value)); m {
	case "":
		return ModeWindow, nil
	case ModeWindow, ModePair:
		return m, nil
	default:
		return "", fmt.Errorf("unsupported trust chain mode: %q", value)
	}
}

// Sample is one trust-chain response of one vantage point.
type Sample struct {
	VantagePoint string
	Family       model.Family
	Label        model.Label
	Outcome      model.Outcome
	Timestamp    time.Time
}

// SamplesFromObservations keeps trust-chain observations labelled valid or
// bogus and drops everything else.
func SamplesFromObservations(observations []model.Observation) []Sample {
	out := make([]Sample, 0, len(observations))
	for _, obs := range observations {
		if obs.Goal != model.GoalTrustChain {
			continue
		}
		label := model.Label(strings.ToLower(obs.QueryType))
		if label != model.LabelValid && label != model.LabelBogus {
			continue
		}
		out = append(out, Sample{
			VantagePoint: obs.VantagePoint(),
			Family:       obs.Family,
			Label:        label,
			Outcome:      obs.Outcome,
			Timestamp:    obs.Timestamp,
		})
	}
	return out
}

// DefineState maps the outcomes of a valid and a bogus query to a state.
func DefineState(valid, bogus model.Outcome) model.State {
	switch {
	case valid == model.OutcomeMissing || bogus == model.OutcomeMissing:
		return model.StateUnknown
	case valid == model.OutcomeNoError && bogus == model.OutcomeNoError:
		return model.StateInsecure
	case valid == model.OutcomeNoError && bogus == model.OutcomeServfail:
		return model.StateSecure
	default:
		return model.StateBogus
	}
}

// CheckSufficient fails unless samples hold both valid and bogus answers.
func CheckSufficient(samples []Sample) error {
	seen := map[model.Label]bool{}
	for _, s := range samples {
		seen[s.Label] = true
	}
	if seen[model.LabelValid] && seen[model.LabelBogus] {
		return nil
	}
	present := []string{}
	for label := range seen {
		present = append(present, string(label))
	}
	sort.Strings(present)
	return &model.InsufficientDataError{Present: present}
}

// sortSamples returns a copy of samples ordered by time. Samples with equal
// timestamps keep their arrival order.
func sortSamples(samples []Sample) []Sample {
	out := append([]Sample(nil), samples...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	return out
}
