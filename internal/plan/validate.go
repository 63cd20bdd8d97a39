package plan

import (
	"fmt"
	"strings"

	"backlot/internal/services"
)

// Validate checks the structural invariants of a director plan: contiguous
// scene ordering from 1, per-scene duration within (0, MaxSceneSeconds],
// and contiguous segment time ranges covering each scene exactly.
func Validate(p *DirectorPlan) error {
	if p == nil {
		return services.Wrap(services.ErrValidation, "plan", "validate", "plan is nil", nil)
	}
	if len(p.Scenes) == 0 {
		return services.Wrap(services.ErrValidation, "plan", "validate", "plan has no scenes", nil)
	}

	seen := make(map[string]struct{}, len(p.Scenes))
	for i, scene := range p.Scenes {
		label := fmt.Sprintf("scene %d", i+1)
		if scene.Order != i+1 {
			return services.Wrap(services.ErrValidation, "plan", "validate",
				fmt.Sprintf("%s: order %d breaks contiguous numbering", label, scene.Order), nil)
		}
		if strings.TrimSpace(scene.ID) == "" {
			return services.Wrap(services.ErrValidation, "plan", "validate", label+": missing id", nil)
		}
		if _, dup := seen[scene.ID]; dup {
			return services.Wrap(services.ErrValidation, "plan", "validate", label+": duplicate id "+scene.ID, nil)
		}
		seen[scene.ID] = struct{}{}
		if scene.DurationSeconds <= 0 || scene.DurationSeconds > MaxSceneSeconds {
			return services.Wrap(services.ErrValidation, "plan", "validate",
				fmt.Sprintf("%s: duration %.1fs outside (0, %.0f]", label, scene.DurationSeconds, MaxSceneSeconds), nil)
		}
		if err := validateSegments(label, scene); err != nil {
			return err
		}
		if scene.Transition != nil && scene.Transition.Seconds <= 0 {
			return services.Wrap(services.ErrValidation, "plan", "validate",
				fmt.Sprintf("%s: transition duration %.2fs must be positive", label, scene.Transition.Seconds), nil)
		}
	}
	return nil
}

func validateSegments(label string, scene Scene) error {
	if len(scene.Segments) == 0 {
		return services.Wrap(services.ErrValidation, "plan", "validate", label+": no segments", nil)
	}
	var cursor float64
	for j, segment := range scene.Segments {
		start, err := ParseTimecode(segment.Start)
		if err != nil {
			return err
		}
		end, err := ParseTimecode(segment.End)
		if err != nil {
			return err
		}
		if start != cursor {
			return services.Wrap(services.ErrValidation, "plan", "validate",
				fmt.Sprintf("%s: segment %d starts at %s, expected %s", label, j+1, segment.Start, FormatTimecode(cursor)), nil)
		}
		if end <= start {
			return services.Wrap(services.ErrValidation, "plan", "validate",
				fmt.Sprintf("%s: segment %d has non-positive span", label, j+1), nil)
		}
		cursor = end
	}
	if cursor > scene.DurationSeconds {
		return services.Wrap(services.ErrValidation, "plan", "validate",
			fmt.Sprintf("%s: segments run to %s past the %.1fs scene duration", label, FormatTimecode(cursor), scene.DurationSeconds), nil)
	}
	return nil
}
