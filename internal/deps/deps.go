// Package deps verifies the external binaries a production run shells out
// to. Drafted clips only become a delivered film through ffmpeg, so a
// missing binary is cheaper to report before any quota is spent.
package deps

import (
	"fmt"
	"os/exec"
	"strings"
)

// Requirement defines an external binary Backlot relies on.
type Requirement struct {
	Name        string
	Command     string
	Description string
}

// Status reports the availability of a requirement.
type Status struct {
	Name        string
	Command     string
	Description string
	Available   bool
	Detail      string
}

// ProductionRequirements lists the binaries a full production needs: the
// transcoder that stitches clips and the prober that measures them.
func ProductionRequirements(ffmpeg, ffprobe string) []Requirement {
	return []Requirement{
		{Name: "FFmpeg", Command: ffmpeg, Description: "stitches drafted clips with crossfade transitions"},
		{Name: "FFprobe", Command: ffprobe, Description: "probes clip durations for transition offsets"},
	}
}

// CheckBinaries evaluates the requirements against PATH.
func CheckBinaries(requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		cmd := strings.TrimSpace(req.Command)
		status := Status{
			Name:        req.Name,
			Command:     cmd,
			Description: strings.TrimSpace(req.Description),
		}
		if cmd == "" {
			status.Detail = "command not configured"
			results = append(results, status)
			continue
		}
		if _, err := exec.LookPath(cmd); err != nil {
			status.Detail = fmt.Sprintf("binary %q not found", cmd)
			results = append(results, status)
			continue
		}
		status.Available = true
		results = append(results, status)
	}
	return results
}

// FirstMissing returns the first unavailable status, or nil when every
// requirement resolved.
func FirstMissing(statuses []Status) *Status {
	for i := range statuses {
		if !statuses[i].Available {
			return &statuses[i]
		}
	}
	return nil
}
