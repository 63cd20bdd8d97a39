package drafting

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"backlot/internal/assets"
	"backlot/internal/plan"
	"backlot/internal/quota"
	"backlot/internal/services"
)

type scriptedVideos struct {
	starts   int
	startErr []error
	polls    []PollStatus
	pollErr  []error
	pollIdx  int
	prompt   string
	refs     [][]byte
}

func (s *scriptedVideos) StartVideo(_ context.Context, prompt string, refs [][]byte, _ float64) (string, error) {
	s.prompt = prompt
	s.refs = refs
	s.starts++
	if len(s.startErr) > 0 {
		err := s.startErr[0]
		s.startErr = s.startErr[1:]
		if err != nil {
			return "", err
		}
	}
	return "operations/test", nil
}

func (s *scriptedVideos) PollVideo(_ context.Context, _ string) (PollStatus, error) {
	i := s.pollIdx
	s.pollIdx++
	if i < len(s.pollErr) && s.pollErr[i] != nil {
		return PollStatus{}, s.pollErr[i]
	}
	if i < len(s.polls) {
		return s.polls[i], nil
	}
	return PollStatus{Done: true, Media: []byte("clip")}, nil
}

type recordingGate struct {
	categories []quota.Category
}

func (g *recordingGate) Acquire(_ context.Context, category quota.Category) error {
	g.categories = append(g.categories, category)
	return nil
}

func draftPlan() *plan.DirectorPlan {
	p := &plan.DirectorPlan{
		SubjectPrompt:     "a clockwork fox",
		EnvironmentPrompt: "a foggy harbor",
		VisualStyle:       "watercolor",
		Scenes: []plan.Scene{{
			ID:              "scene-1",
			Order:           1,
			DurationSeconds: 5,
			Segments: []plan.Segment{
				{Start: "00:00", End: "00:05", Prompt: "fox leaps between crates", CameraMovement: "tracking"},
			},
		}},
	}
	plan.DeriveMasterPrompts(p)
	return p
}

func newTestExecutor(videos VideoService, gate QuotaGate) (*Executor, *[]time.Duration) {
	ex := NewExecutor(videos, gate, Options{
		MaxAttempts:     3,
		PollInterval:    10 * time.Second,
		AttemptCooldown: 20 * time.Second,
	}, nil)
	var slept []time.Duration
	ex.sleep = func(_ context.Context, d time.Duration) error {
		slept = append(slept, d)
		return nil
	}
	return ex, &slept
}

func TestDraftSceneSucceedsAfterPolling(t *testing.T) {
	videos := &scriptedVideos{polls: []PollStatus{
		{},
		{},
		{Done: true, Media: []byte("clip"), RemoteRef: "files/clip.mp4"},
	}}
	gate := &recordingGate{}
	ex, slept := newTestExecutor(videos, gate)

	artifact, err := ex.DraftScene(context.Background(), draftPlan(), 0, nil, "")
	if err != nil {
		t.Fatalf("DraftScene: %v", err)
	}
	if artifact.SceneID != "scene-1" || artifact.Version != 1 || string(artifact.Media) != "clip" {
		t.Fatalf("unexpected artifact %+v", artifact)
	}
	if len(gate.categories) != 1 || gate.categories[0] != quota.CategoryVideo {
		t.Fatalf("expected one video quota acquisition, got %v", gate.categories)
	}
	// Two pending polls mean two poll-interval sleeps.
	if len(*slept) != 2 || (*slept)[0] != 10*time.Second {
		t.Fatalf("unexpected sleeps %v", *slept)
	}
}

func TestDraftSceneEmptyResultRetriesWithLinearCooldown(t *testing.T) {
	videos := &scriptedVideos{polls: []PollStatus{
		{Done: true},                       // attempt 1: done, no media
		{Done: true},                       // attempt 2: done, no media
		{Done: true, Media: []byte("ok")},  // attempt 3 succeeds
	}}
	gate := &recordingGate{}
	ex, slept := newTestExecutor(videos, gate)

	artifact, err := ex.DraftScene(context.Background(), draftPlan(), 0, nil, "")
	if err != nil {
		t.Fatalf("DraftScene: %v", err)
	}
	if string(artifact.Media) != "ok" {
		t.Fatalf("unexpected media %q", artifact.Media)
	}
	if videos.starts != 3 {
		t.Fatalf("expected 3 attempts, got %d", videos.starts)
	}
	if len(gate.categories) != 3 {
		t.Fatalf("expected quota acquisition per attempt, got %d", len(gate.categories))
	}
	// Cooldown is the attempt number about to run times the base cooldown.
	want := []time.Duration{40 * time.Second, 60 * time.Second}
	if len(*slept) != 2 || (*slept)[0] != want[0] || (*slept)[1] != want[1] {
		t.Fatalf("cooldowns %v, want %v", *slept, want)
	}
}

func TestDraftSceneExhaustsAttempts(t *testing.T) {
	transient := services.Wrap(services.ErrTransient, "gemini", "invoke", "status 503", nil)
	videos := &scriptedVideos{startErr: []error{transient, transient, transient}}
	ex, _ := newTestExecutor(videos, &recordingGate{})

	_, err := ex.DraftScene(context.Background(), draftPlan(), 0, nil, "")
	var failed *FailedError
	if !errors.As(err, &failed) {
		t.Fatalf("expected FailedError, got %v", err)
	}
	if failed.SceneIndex != 0 || failed.Attempts != 3 {
		t.Fatalf("unexpected failure %+v", failed)
	}
}

func TestDraftSceneStopsOnNonRetryableError(t *testing.T) {
	invalid := services.Wrap(services.ErrValidation, "gemini", "invoke", "status 400", nil)
	videos := &scriptedVideos{startErr: []error{invalid}}
	ex, slept := newTestExecutor(videos, &recordingGate{})

	_, err := ex.DraftScene(context.Background(), draftPlan(), 0, nil, "")
	var failed *FailedError
	if !errors.As(err, &failed) || failed.Attempts != 1 {
		t.Fatalf("expected single-attempt failure, got %v", err)
	}
	if len(*slept) != 0 {
		t.Fatalf("unexpected sleeps %v", *slept)
	}
}

func TestBuildShotPromptIncludesFeedbackAndReferences(t *testing.T) {
	p := draftPlan()
	prompt := BuildShotPrompt(p, p.Scenes[0], "make the fog denser")
	for _, fragment := range []string{"clockwork fox", "foggy harbor", "[00:00-00:05]", "watercolor", "Revision notes: make the fog denser"} {
		if !strings.Contains(prompt, fragment) {
			t.Errorf("prompt missing %q:\n%s", fragment, prompt)
		}
	}

	videos := &scriptedVideos{}
	ex, _ := newTestExecutor(videos, nil)
	refs := []assets.AssetItem{
		{Type: assets.TypeCharacter, Data: []byte("char")},
		{Type: assets.TypeBackground, Data: []byte("bg")},
	}
	if _, err := ex.DraftScene(context.Background(), p, 0, refs, ""); err != nil {
		t.Fatalf("DraftScene: %v", err)
	}
	if len(videos.refs) != 2 {
		t.Fatalf("expected both reference images forwarded, got %d", len(videos.refs))
	}
}
