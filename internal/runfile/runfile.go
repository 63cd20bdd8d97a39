// Package runfile persists a production run's artifacts as plain files
// under the workspace: a manifest, the director plan, and one media file
// per shot. It exists so out-of-band operations (regenerating a shot,
// re-stitching, rendering the plan) can pick up where a run left off
// without any database.
package runfile

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"backlot/internal/drafting"
	"backlot/internal/plan"
	"backlot/internal/state"
)

const (
	manifestName = "manifest.json"
	planName     = "plan.json"
	shotsDirName = "shots"
)

// ErrNoRuns indicates the workspace has no saved production runs.
var ErrNoRuns = errors.New("no saved production runs")

type manifest struct {
	RunID   string         `json:"run_id"`
	Concept string         `json:"concept"`
	Phase   state.Phase    `json:"phase"`
	Error   string         `json:"error,omitempty"`
	Shots   []manifestShot `json:"shots"`
}

type manifestShot struct {
	SceneID   string `json:"scene_id"`
	ShotID    string `json:"shot_id"`
	Version   int    `json:"version"`
	RemoteRef string `json:"remote_ref,omitempty"`
	File      string `json:"file"`
}

func runDir(workDir, runID string) string {
	return filepath.Join(workDir, "runs", runID)
}

// Save writes the run's manifest, plan, and shot media under the workspace.
func Save(workDir string, snapshot state.ProductionState) error {
	dir := runDir(workDir, snapshot.RunID)
	if err := os.MkdirAll(filepath.Join(dir, shotsDirName), 0o755); err != nil {
		return fmt.Errorf("runfile: create run dir: %w", err)
	}

	m := manifest{
		RunID:   snapshot.RunID,
		Concept: snapshot.Concept,
		Phase:   snapshot.Phase,
		Error:   snapshot.Error,
	}
	for i, shot := range snapshot.Artifacts.Shots {
		name := fmt.Sprintf("%02d-%s-v%d.mp4", i, shot.SceneID, shot.Version)
		if len(shot.Media) > 0 {
			if err := os.WriteFile(filepath.Join(dir, shotsDirName, name), shot.Media, 0o644); err != nil {
				return fmt.Errorf("runfile: write shot %s: %w", shot.SceneID, err)
			}
		}
		m.Shots = append(m.Shots, manifestShot{
			SceneID:   shot.SceneID,
			ShotID:    shot.ShotID,
			Version:   shot.Version,
			RemoteRef: shot.RemoteRef,
			File:      filepath.Join(shotsDirName, name),
		})
	}

	if snapshot.Artifacts.Plan != nil {
		encoded, err := json.MarshalIndent(snapshot.Artifacts.Plan, "", "  ")
		if err != nil {
			return fmt.Errorf("runfile: encode plan: %w", err)
		}
		if err := os.WriteFile(filepath.Join(dir, planName), encoded, 0o644); err != nil {
			return fmt.Errorf("runfile: write plan: %w", err)
		}
	}

	encoded, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("runfile: encode manifest: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, manifestName), encoded, 0o644); err != nil {
		return fmt.Errorf("runfile: write manifest: %w", err)
	}
	return nil
}

// Load restores a saved run, including shot media, into a production state.
func Load(workDir, runID string) (state.ProductionState, error) {
	dir := runDir(workDir, runID)
	data, err := os.ReadFile(filepath.Join(dir, manifestName))
	if err != nil {
		return state.ProductionState{}, fmt.Errorf("runfile: read manifest: %w", err)
	}
	var m manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return state.ProductionState{}, fmt.Errorf("runfile: decode manifest: %w", err)
	}

	restored := state.NewState(m.RunID)
	restored.Concept = m.Concept
	restored.Phase = m.Phase
	restored.Error = m.Error

	if planData, err := os.ReadFile(filepath.Join(dir, planName)); err == nil {
		var p plan.DirectorPlan
		if err := json.Unmarshal(planData, &p); err != nil {
			return state.ProductionState{}, fmt.Errorf("runfile: decode plan: %w", err)
		}
		restored.Artifacts.Plan = &p
	} else if !errors.Is(err, fs.ErrNotExist) {
		return state.ProductionState{}, fmt.Errorf("runfile: read plan: %w", err)
	}

	for _, shot := range m.Shots {
		artifact := drafting.VideoArtifact{
			SceneID:   shot.SceneID,
			ShotID:    shot.ShotID,
			Version:   shot.Version,
			RemoteRef: shot.RemoteRef,
		}
		if shot.File != "" {
			media, err := os.ReadFile(filepath.Join(dir, shot.File))
			if err != nil && !errors.Is(err, fs.ErrNotExist) {
				return state.ProductionState{}, fmt.Errorf("runfile: read shot %s: %w", shot.SceneID, err)
			}
			artifact.Media = media
		}
		restored.Artifacts.Shots = append(restored.Artifacts.Shots, artifact)
	}
	return restored, nil
}

// LatestRunID returns the most recently modified saved run.
func LatestRunID(workDir string) (string, error) {
	entries, err := os.ReadDir(filepath.Join(workDir, "runs"))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", ErrNoRuns
		}
		return "", fmt.Errorf("runfile: list runs: %w", err)
	}

	type candidate struct {
		id       string
		modified int64
	}
	var candidates []candidate
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		candidates = append(candidates, candidate{id: entry.Name(), modified: info.ModTime().UnixNano()})
	}
	if len(candidates) == 0 {
		return "", ErrNoRuns
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].modified > candidates[j].modified })
	return candidates[0].id, nil
}
