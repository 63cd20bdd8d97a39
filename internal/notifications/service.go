package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const userAgent = "Backlot-Go/0.1.0"

// Service defines the notification surface exposed to the orchestrator.
type Service interface {
	NotifyPlanReady(ctx context.Context, concept string, scenes int) error
	NotifyAssetsReady(ctx context.Context, count int) error
	NotifySceneDrafted(ctx context.Context, sceneID string, index, total int) error
	NotifyCritiqueComplete(ctx context.Context, pass bool, failing int) error
	NotifyProductionComplete(ctx context.Context, outputFile string, duration time.Duration) error
	NotifyError(ctx context.Context, err error, context string) error
	TestNotification(ctx context.Context) error
}

// Options configures the ntfy backend.
type Options struct {
	Topic          string
	TimeoutSeconds int
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(opts Options) Service {
	topic := strings.TrimSpace(opts.Topic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(opts.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint: topic,
		client:   &http.Client{Timeout: timeout},
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
}

func (n *ntfyService) NotifyPlanReady(ctx context.Context, concept string, scenes int) error {
	concept = strings.TrimSpace(concept)
	data := payload{
		title:   "Backlot - Plan Ready",
		message: fmt.Sprintf("Shot plan ready: %d scenes for %q", scenes, concept),
		tags:    []string{"backlot", "plan", "completed"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyAssetsReady(ctx context.Context, count int) error {
	data := payload{
		title:   "Backlot - Assets Ready",
		message: fmt.Sprintf("Reference assets ready: %d images", count),
		tags:    []string{"backlot", "assets", "completed"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifySceneDrafted(ctx context.Context, sceneID string, index, total int) error {
	sceneID = strings.TrimSpace(sceneID)
	data := payload{
		title:   "Backlot - Scene Drafted",
		message: fmt.Sprintf("Drafted scene %s (%d/%d)", sceneID, index, total),
		tags:    []string{"backlot", "draft", "completed"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyCritiqueComplete(ctx context.Context, pass bool, failing int) error {
	var message string
	if pass {
		message = "Critique passed: all shots cleared the bar"
	} else {
		message = fmt.Sprintf("Critique flagged %d shot(s) for a retake", failing)
	}
	data := payload{
		title:   "Backlot - Critique Complete",
		message: message,
		tags:    []string{"backlot", "critique", "completed"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyProductionComplete(ctx context.Context, outputFile string, duration time.Duration) error {
	duration = duration.Round(time.Second)
	if duration < 0 {
		duration = 0
	}
	outputFile = strings.TrimSpace(outputFile)
	message := fmt.Sprintf("Production complete in %s", duration)
	if outputFile != "" {
		message = fmt.Sprintf("%s\nFile: %s", message, outputFile)
	}
	data := payload{
		title:    "Backlot - Complete",
		message:  message,
		tags:     []string{"backlot", "production", "completed"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyError(ctx context.Context, err error, contextLabel string) error {
	var builder strings.Builder
	builder.WriteString("Error")
	if contextLabel = strings.TrimSpace(contextLabel); contextLabel != "" {
		builder.WriteString(" with ")
		builder.WriteString(contextLabel)
	}
	builder.WriteString(": ")
	if err != nil {
		builder.WriteString(strings.TrimSpace(err.Error()))
	} else {
		builder.WriteString("unknown")
	}

	data := payload{
		title:    "Backlot - Error",
		message:  builder.String(),
		tags:     []string{"backlot", "error", "alert"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "Backlot - Test",
		message:  "Notification system test",
		tags:     []string{"backlot", "test"},
		priority: "low",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) NotifyPlanReady(context.Context, string, int) error                    { return nil }
func (noopService) NotifyAssetsReady(context.Context, int) error                          { return nil }
func (noopService) NotifySceneDrafted(context.Context, string, int, int) error            { return nil }
func (noopService) NotifyCritiqueComplete(context.Context, bool, int) error               { return nil }
func (noopService) NotifyProductionComplete(context.Context, string, time.Duration) error { return nil }
func (noopService) NotifyError(context.Context, error, string) error                      { return nil }
func (noopService) TestNotification(context.Context) error                                { return nil }
