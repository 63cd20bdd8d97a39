package config

const (
	defaultWorkDir   = "~/.local/share/backlot/work"
	defaultOutputDir = "~/backlot"
	defaultLogDir    = "~/.local/share/backlot/logs"

	defaultGeminiBaseURL        = "https://generativelanguage.googleapis.com/v1beta"
	defaultGeminiTextModel      = "gemini-2.5-flash"
	defaultGeminiImageModel     = "gemini-2.5-flash-image"
	defaultGeminiVideoModel     = "veo-3.0-generate-001"
	defaultGeminiTimeoutSeconds = 120

	defaultVideoIntervalSeconds = 30
	defaultImageIntervalSeconds = 20
	defaultTextIntervalSeconds  = 12

	defaultDraftMaxAttempts     = 3
	defaultDraftPollInterval    = 10
	defaultDraftAttemptCooldown = 20
	defaultDraftSceneCooldown   = 8

	defaultShotPassScore     = 8.5
	defaultFidelityPassScore = 8.0

	defaultTransitionType     = "fade"
	defaultTransitionDuration = 0.5

	defaultNotifyRequestTimeout = 10

	defaultLogFormat = "console"
	defaultLogLevel  = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			WorkDir:   defaultWorkDir,
			OutputDir: defaultOutputDir,
			LogDir:    defaultLogDir,
		},
		Gemini: Gemini{
			BaseURL:        defaultGeminiBaseURL,
			TextModel:      defaultGeminiTextModel,
			ImageModel:     defaultGeminiImageModel,
			VideoModel:     defaultGeminiVideoModel,
			TimeoutSeconds: defaultGeminiTimeoutSeconds,
		},
		Quota: Quota{
			VideoIntervalSeconds: defaultVideoIntervalSeconds,
			ImageIntervalSeconds: defaultImageIntervalSeconds,
			TextIntervalSeconds:  defaultTextIntervalSeconds,
		},
		Drafting: Drafting{
			MaxAttempts:            defaultDraftMaxAttempts,
			PollIntervalSeconds:    defaultDraftPollInterval,
			AttemptCooldownSeconds: defaultDraftAttemptCooldown,
			SceneCooldownSeconds:   defaultDraftSceneCooldown,
		},
		Critique: Critique{
			ShotPassScore:     defaultShotPassScore,
			FidelityPassScore: defaultFidelityPassScore,
		},
		Assembly: Assembly{
			FFmpegBinary:              "ffmpeg",
			FFprobeBinary:             "ffprobe",
			DefaultTransition:         defaultTransitionType,
			DefaultTransitionDuration: defaultTransitionDuration,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyRequestTimeout,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
