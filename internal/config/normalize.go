package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeGemini(); err != nil {
		return err
	}
	if err := c.normalizeAssets(); err != nil {
		return err
	}
	c.normalizeQuota()
	c.normalizeDrafting()
	c.normalizeCritique()
	c.normalizeAssembly()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.WorkDir, err = expandPath(c.Paths.WorkDir); err != nil {
		return fmt.Errorf("paths.work_dir: %w", err)
	}
	if c.Paths.OutputDir, err = expandPath(c.Paths.OutputDir); err != nil {
		return fmt.Errorf("paths.output_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeGemini() error {
	c.Gemini.APIKey = strings.TrimSpace(c.Gemini.APIKey)
	if c.Gemini.APIKey == "" {
		if value, ok := os.LookupEnv("GEMINI_API_KEY"); ok {
			c.Gemini.APIKey = strings.TrimSpace(value)
		} else if value, ok := os.LookupEnv("GOOGLE_API_KEY"); ok {
			c.Gemini.APIKey = strings.TrimSpace(value)
		}
	}
	c.Gemini.BaseURL = strings.TrimSpace(c.Gemini.BaseURL)
	if c.Gemini.BaseURL == "" {
		c.Gemini.BaseURL = defaultGeminiBaseURL
	}
	c.Gemini.TextModel = strings.TrimSpace(c.Gemini.TextModel)
	if c.Gemini.TextModel == "" {
		c.Gemini.TextModel = defaultGeminiTextModel
	}
	c.Gemini.ImageModel = strings.TrimSpace(c.Gemini.ImageModel)
	if c.Gemini.ImageModel == "" {
		c.Gemini.ImageModel = defaultGeminiImageModel
	}
	c.Gemini.VideoModel = strings.TrimSpace(c.Gemini.VideoModel)
	if c.Gemini.VideoModel == "" {
		c.Gemini.VideoModel = defaultGeminiVideoModel
	}
	if c.Gemini.TimeoutSeconds <= 0 {
		c.Gemini.TimeoutSeconds = defaultGeminiTimeoutSeconds
	}
	return nil
}

func (c *Config) normalizeAssets() error {
	var err error
	c.Assets.CharacterFile = strings.TrimSpace(c.Assets.CharacterFile)
	if c.Assets.CharacterFile != "" {
		if c.Assets.CharacterFile, err = expandPath(c.Assets.CharacterFile); err != nil {
			return fmt.Errorf("assets.character_file: %w", err)
		}
	}
	c.Assets.BackgroundFile = strings.TrimSpace(c.Assets.BackgroundFile)
	if c.Assets.BackgroundFile != "" {
		if c.Assets.BackgroundFile, err = expandPath(c.Assets.BackgroundFile); err != nil {
			return fmt.Errorf("assets.background_file: %w", err)
		}
	}
	return nil
}

func (c *Config) normalizeQuota() {
	if c.Quota.VideoIntervalSeconds <= 0 {
		c.Quota.VideoIntervalSeconds = defaultVideoIntervalSeconds
	}
	if c.Quota.ImageIntervalSeconds <= 0 {
		c.Quota.ImageIntervalSeconds = defaultImageIntervalSeconds
	}
	if c.Quota.TextIntervalSeconds <= 0 {
		c.Quota.TextIntervalSeconds = defaultTextIntervalSeconds
	}
}

func (c *Config) normalizeDrafting() {
	if c.Drafting.MaxAttempts <= 0 {
		c.Drafting.MaxAttempts = defaultDraftMaxAttempts
	}
	if c.Drafting.PollIntervalSeconds <= 0 {
		c.Drafting.PollIntervalSeconds = defaultDraftPollInterval
	}
	if c.Drafting.AttemptCooldownSeconds <= 0 {
		c.Drafting.AttemptCooldownSeconds = defaultDraftAttemptCooldown
	}
	if c.Drafting.SceneCooldownSeconds < 0 {
		c.Drafting.SceneCooldownSeconds = defaultDraftSceneCooldown
	}
}

func (c *Config) normalizeCritique() {
	if c.Critique.ShotPassScore <= 0 {
		c.Critique.ShotPassScore = defaultShotPassScore
	}
	if c.Critique.FidelityPassScore <= 0 {
		c.Critique.FidelityPassScore = defaultFidelityPassScore
	}
}

func (c *Config) normalizeAssembly() {
	c.Assembly.FFmpegBinary = strings.TrimSpace(c.Assembly.FFmpegBinary)
	if c.Assembly.FFmpegBinary == "" {
		c.Assembly.FFmpegBinary = "ffmpeg"
	}
	c.Assembly.FFprobeBinary = strings.TrimSpace(c.Assembly.FFprobeBinary)
	if c.Assembly.FFprobeBinary == "" {
		c.Assembly.FFprobeBinary = "ffprobe"
	}
	c.Assembly.DefaultTransition = strings.ToLower(strings.TrimSpace(c.Assembly.DefaultTransition))
	if c.Assembly.DefaultTransition == "" {
		c.Assembly.DefaultTransition = defaultTransitionType
	}
	if c.Assembly.DefaultTransitionDuration <= 0 {
		c.Assembly.DefaultTransitionDuration = defaultTransitionDuration
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
