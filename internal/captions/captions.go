package captions

import (
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"backlot/internal/plan"
)

// Cue is one time-coded caption entry. Start and End are absolute seconds
// from the beginning of the assembled production.
type Cue struct {
	Index   int
	Speaker string
	Text    string
	Start   float64
	End     float64
}

// Dialogue markers come in two forms; the quoted form is checked first so a
// quoted line with trailing prose does not swallow the rest of the segment.
var (
	quotedDialogue   = regexp.MustCompile(`(?i)(\S[^.!?\n]*?)\s+says:\s*"([^"]+)"`)
	unquotedDialogue = regexp.MustCompile(`(?i)(\S[^.!?\n]*?)\s+says:\s*(.+)$`)
)

var speakerCaser = cases.Title(language.English)

// Extract walks every scene's segments in order and produces cues for the
// segments carrying a dialogue marker. Timing uses a cumulative offset: a
// scene's segments are placed against the total duration of all scenes
// before it. Silent segments are skipped; a plan with no dialogue yields an
// empty slice.
func Extract(p *plan.DirectorPlan) ([]Cue, error) {
	if p == nil {
		return nil, nil
	}
	var cues []Cue
	var offset float64
	for _, scene := range p.Scenes {
		for _, segment := range scene.Segments {
			speaker, text, ok := matchDialogue(segment.Prompt)
			if !ok {
				continue
			}
			start, err := plan.ParseTimecode(segment.Start)
			if err != nil {
				return nil, err
			}
			end, err := plan.ParseTimecode(segment.End)
			if err != nil {
				return nil, err
			}
			cues = append(cues, Cue{
				Index:   len(cues) + 1,
				Speaker: speakerCaser.String(strings.TrimSpace(speaker)),
				Text:    strings.TrimSpace(text),
				Start:   offset + start,
				End:     offset + end,
			})
		}
		offset += scene.DurationSeconds
	}
	return cues, nil
}

// matchDialogue applies the dialogue grammar to one segment prompt. The first
// match in the segment wins.
func matchDialogue(prompt string) (speaker, text string, ok bool) {
	if m := quotedDialogue.FindStringSubmatch(prompt); m != nil {
		return m[1], m[2], true
	}
	if m := unquotedDialogue.FindStringSubmatch(prompt); m != nil {
		return m[1], m[2], true
	}
	return "", "", false
}

// RenderSRT serializes cues in SubRip format: sequential cue numbers,
// HH:MM:SS,mmm timestamps, and a blank line between cues. Zero cues render
// as an empty track.
func RenderSRT(cues []Cue) string {
	if len(cues) == 0 {
		return ""
	}
	var b strings.Builder
	for i, cue := range cues {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%d\n%s --> %s\n%s\n", cue.Index, formatSRTTime(cue.Start), formatSRTTime(cue.End), cue.Text)
	}
	return b.String()
}

func formatSRTTime(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	millis := int(seconds*1000 + 0.5)
	h := millis / 3600000
	millis %= 3600000
	m := millis / 60000
	millis %= 60000
	s := millis / 1000
	millis %= 1000
	return fmt.Sprintf("%02d:%02d:%02d,%03d", h, m, s, millis)
}
