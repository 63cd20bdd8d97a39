package plan

import (
	"fmt"
	"strings"
)

const planningInstructions = `You are a film director breaking a story concept into discrete scenes.
Produce a complete shot plan as JSON.

Rules:
- Every scene runs at most %.0f seconds; split longer beats across scenes.
- Scenes are numbered contiguously from 1 in the "order" field.
- Each scene carries one or more segments with contiguous MM:SS time ranges
  starting at 00:00 and covering the scene without gaps.
- Each segment describes the on-screen action for its range and names the
  camera movement.
- Describe the main subject once in "subject_prompt" and the environment once
  in "environment_prompt"; scene prompts must stay consistent with both.
- Name a single "visual_style" applied to the whole production.
- When a scene should blend into the next, set its "transition" with a type
  (such as "fade") and a duration in seconds shorter than both scenes.

Concept:
%s`

// BuildPlanningPrompt renders the full planning request for a story concept.
func BuildPlanningPrompt(concept string) string {
	return fmt.Sprintf(planningInstructions, MaxSceneSeconds, strings.TrimSpace(concept))
}

// ResponseSchema is the structured-output schema for the planning call. It
// mirrors DirectorPlan so the model cannot drift from the decode target.
func ResponseSchema() map[string]any {
	segment := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"start_time":      map[string]any{"type": "string"},
			"end_time":        map[string]any{"type": "string"},
			"prompt":          map[string]any{"type": "string"},
			"camera_movement": map[string]any{"type": "string"},
		},
		"required": []string{"start_time", "end_time", "prompt"},
	}
	transition := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"type":     map[string]any{"type": "string"},
			"duration": map[string]any{"type": "number"},
		},
		"required": []string{"type", "duration"},
	}
	scene := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"id":               map[string]any{"type": "string"},
			"order":            map[string]any{"type": "integer"},
			"duration_seconds": map[string]any{"type": "number"},
			"segments":         map[string]any{"type": "array", "items": segment},
			"transition":       transition,
		},
		"required": []string{"id", "order", "duration_seconds", "segments"},
	}
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"subject_prompt":     map[string]any{"type": "string"},
			"environment_prompt": map[string]any{"type": "string"},
			"visual_style":       map[string]any{"type": "string"},
			"reasoning":          map[string]any{"type": "string"},
			"scenes":             map[string]any{"type": "array", "items": scene},
		},
		"required": []string{"subject_prompt", "environment_prompt", "visual_style", "scenes"},
	}
}
