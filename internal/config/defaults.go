package config

const (
	defaultAudioDir = "~/VoiceMemos"
	defaultVaultDir = "~/Vault"
	defaultInboxDir = "Inbox"
	defaultDataDir  = "~/.local/share/w2o"

	defaultWhisperModel   = "large-v3"
	defaultWhisperTimeout = 1800

	defaultGroqBaseURL    = "https://api.groq.com/openai/v1"
	defaultGroqModel      = "llama-3.3-70b-versatile"
	defaultGroqTimeout    = 120
	defaultRPMLimit       = 28
	defaultTPMLimit       = 11000
	defaultRPDLimit       = 950
	defaultChunkTokens    = 6000

	defaultPollInterval       = 60
	defaultErrorRetryInterval = 10

	defaultLogFormat = "console"
	defaultLogLevel  = "info"
)

// Default returns a Config populated with the built-in defaults. Credentials
// are intentionally left empty and fail Validate until the user supplies them.
func Default() Config {
	return Config{
		Paths: Paths{
			AudioDir: defaultAudioDir,
			VaultDir: defaultVaultDir,
			InboxDir: defaultInboxDir,
			DataDir:  defaultDataDir,
		},
		Whisper: Whisper{
			Model:          defaultWhisperModel,
			TimeoutSeconds: defaultWhisperTimeout,
		},
		Groq: Groq{
			BaseURL:         defaultGroqBaseURL,
			Model:           defaultGroqModel,
			TimeoutSeconds:  defaultGroqTimeout,
			RPMLimit:        defaultRPMLimit,
			TPMLimit:        defaultTPMLimit,
			RPDLimit:        defaultRPDLimit,
			ChunkTokenLimit: defaultChunkTokens,
		},
		Workflow: Workflow{
			PollInterval:       defaultPollInterval,
			ErrorRetryInterval: defaultErrorRetryInterval,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
