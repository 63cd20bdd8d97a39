package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateGemini(); err != nil {
		return err
	}
	if err := c.validateQuota(); err != nil {
		return err
	}
	if err := c.validateDrafting(); err != nil {
		return err
	}
	if err := c.validateCritique(); err != nil {
		return err
	}
	if err := c.validateAssembly(); err != nil {
		return err
	}
	if err := c.validateNotifications(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateGemini() error {
	if c.Gemini.APIKey == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = "~/.config/backlot/config.toml"
		}
		return fmt.Errorf("gemini.api_key is required. Set GEMINI_API_KEY env var or edit %s (create with 'backlot config init')", defaultPath)
	}
	if c.Gemini.TimeoutSeconds <= 0 {
		return errors.New("gemini.timeout_seconds must be positive")
	}
	return nil
}

func (c *Config) validateQuota() error {
	return ensurePositiveMap(map[string]int{
		"quota.video_interval": c.Quota.VideoIntervalSeconds,
		"quota.image_interval": c.Quota.ImageIntervalSeconds,
		"quota.text_interval":  c.Quota.TextIntervalSeconds,
	})
}

func (c *Config) validateDrafting() error {
	if err := ensurePositiveMap(map[string]int{
		"drafting.max_attempts":     c.Drafting.MaxAttempts,
		"drafting.poll_interval":    c.Drafting.PollIntervalSeconds,
		"drafting.attempt_cooldown": c.Drafting.AttemptCooldownSeconds,
	}); err != nil {
		return err
	}
	if c.Drafting.SceneCooldownSeconds < 0 {
		return errors.New("drafting.scene_cooldown must be >= 0")
	}
	return nil
}

func (c *Config) validateCritique() error {
	if c.Critique.ShotPassScore < 0 || c.Critique.ShotPassScore > 10 {
		return errors.New("critique.shot_pass_score must be between 0 and 10")
	}
	if c.Critique.FidelityPassScore < 0 || c.Critique.FidelityPassScore > 10 {
		return errors.New("critique.fidelity_pass_score must be between 0 and 10")
	}
	return nil
}

func (c *Config) validateAssembly() error {
	if strings.TrimSpace(c.Assembly.FFmpegBinary) == "" {
		return errors.New("assembly.ffmpeg_binary must be set")
	}
	if strings.TrimSpace(c.Assembly.FFprobeBinary) == "" {
		return errors.New("assembly.ffprobe_binary must be set")
	}
	if c.Assembly.DefaultTransitionDuration <= 0 {
		return errors.New("assembly.default_transition_duration must be positive")
	}
	return nil
}

func (c *Config) validateNotifications() error {
	if strings.TrimSpace(c.Notifications.NtfyTopic) != "" && c.Notifications.RequestTimeout <= 0 {
		return errors.New("notifications.request_timeout must be positive when ntfy_topic is set")
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
