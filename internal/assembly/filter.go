package assembly

import (
	"fmt"
	"strings"

	"backlot/internal/services"
)

// Transition describes how two adjacent clips blend at their boundary.
type Transition struct {
	Type    string
	Seconds float64
}

// DefaultTransition is applied at boundaries with no explicit transition.
var DefaultTransition = Transition{Type: "fade", Seconds: 0.5}

// ComputeOffsets returns the absolute start time of each crossfade. The
// timeline advances by each clip's duration minus the overlap consumed by
// its leading transition: offset[i] = currentEnd - transitions[i].Seconds.
func ComputeOffsets(durations []float64, transitions []Transition) ([]float64, error) {
	if len(transitions) != len(durations)-1 {
		return nil, services.Wrap(services.ErrValidation, "assembly", "offsets",
			fmt.Sprintf("%d transitions for %d clips", len(transitions), len(durations)), nil)
	}
	offsets := make([]float64, len(transitions))
	currentEnd := durations[0]
	for i, tr := range transitions {
		if tr.Seconds <= 0 {
			return nil, services.Wrap(services.ErrValidation, "assembly", "offsets",
				fmt.Sprintf("boundary %d: non-positive transition duration %.2fs", i+1, tr.Seconds), nil)
		}
		if tr.Seconds >= durations[i] || tr.Seconds >= durations[i+1] {
			return nil, services.Wrap(services.ErrValidation, "assembly", "offsets",
				fmt.Sprintf("boundary %d: transition %.2fs not shorter than both adjacent clips (%.2fs, %.2fs)",
					i+1, tr.Seconds, durations[i], durations[i+1]), nil)
		}
		offsets[i] = currentEnd - tr.Seconds
		currentEnd = offsets[i] + durations[i+1]
	}
	return offsets, nil
}

// BuildFilterGraph renders the ffmpeg filter_complex expression chaining all
// clips with xfade video transitions and, when audio is present, acrossfade
// audio transitions. It returns the graph plus the output labels to map.
func BuildFilterGraph(durations []float64, transitions []Transition, withAudio bool) (graph, videoLabel, audioLabel string, err error) {
	offsets, err := ComputeOffsets(durations, transitions)
	if err != nil {
		return "", "", "", err
	}

	var parts []string
	prevVideo := "[0:v]"
	for i, tr := range transitions {
		kind := strings.TrimSpace(tr.Type)
		if kind == "" {
			kind = DefaultTransition.Type
		}
		videoLabel = fmt.Sprintf("[vx%d]", i+1)
		parts = append(parts, fmt.Sprintf("%s[%d:v]xfade=transition=%s:duration=%g:offset=%g%s",
			prevVideo, i+1, kind, tr.Seconds, offsets[i], videoLabel))
		prevVideo = videoLabel
	}

	if withAudio {
		prevAudio := "[0:a]"
		for i, tr := range transitions {
			audioLabel = fmt.Sprintf("[ax%d]", i+1)
			parts = append(parts, fmt.Sprintf("%s[%d:a]acrossfade=d=%g%s",
				prevAudio, i+1, tr.Seconds, audioLabel))
			prevAudio = audioLabel
		}
	}
	return strings.Join(parts, ";"), videoLabel, audioLabel, nil
}
