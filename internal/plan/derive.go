package plan

import (
	"fmt"
	"strings"
)

// BuildMasterPrompt combines a scene's segments into the single timed action
// description submitted for clip generation. Each segment contributes one
// line with its explicit time range and camera direction.
func BuildMasterPrompt(scene Scene) string {
	lines := make([]string, 0, len(scene.Segments))
	for _, segment := range scene.Segments {
		var b strings.Builder
		fmt.Fprintf(&b, "[%s-%s]", strings.TrimSpace(segment.Start), strings.TrimSpace(segment.End))
		if camera := strings.TrimSpace(segment.CameraMovement); camera != "" {
			fmt.Fprintf(&b, " (camera: %s)", camera)
		}
		if prompt := strings.TrimSpace(segment.Prompt); prompt != "" {
			b.WriteByte(' ')
			b.WriteString(prompt)
		}
		lines = append(lines, b.String())
	}
	return strings.Join(lines, "\n")
}

// DeriveMasterPrompts fills MasterPrompt for every scene in place.
func DeriveMasterPrompts(p *DirectorPlan) {
	for i := range p.Scenes {
		p.Scenes[i].MasterPrompt = BuildMasterPrompt(p.Scenes[i])
	}
}
