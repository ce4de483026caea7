// Package config loads and saves the pipeline's YAML configuration, following the teacher
// repository's Load/Save/defaultConfiguration idiom.
package config

import (
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

type Configuration struct {
	Storage       StorageConfig       `yaml:"storage"`
	LLM           LLMConfig           `yaml:"llm"`
	Fetcher       FetcherConfig       `yaml:"fetcher"`
	Preparer      PreparerConfig      `yaml:"preparer"`
	Transcriber   TranscriberConfig   `yaml:"transcriber"`
	Job           JobConfig           `yaml:"job"`
	Uploads       UploadsConfig       `yaml:"uploads"`
	Transcription TranscriptionConfig `yaml:"transcription"`
}

type StorageConfig struct {
	DataDirectory string `yaml:"data_directory"`
	BinDirectory  string `yaml:"bin_directory"`
}

type LLMConfig struct {
	Provider   string           `yaml:"provider"`
	OpenRouter OpenRouterConfig `yaml:"openrouter"`
	Ollama     OllamaConfig     `yaml:"ollama"`
}

type OpenRouterConfig struct {
	APIKey       string `yaml:"api_key"`
	DefaultModel string `yaml:"default_model"`
}

type OllamaConfig struct {
	BaseURL      string `yaml:"base_url"`
	DefaultModel string `yaml:"default_model"`
}

// TranscriptionConfig selects and configures the speech-to-text provider.
type TranscriptionConfig struct {
	Provider string        `yaml:"provider"` // "openai" or "whisper-local"
	OpenAI   OpenAIConfig  `yaml:"openai"`
	Whisper  WhisperConfig `yaml:"whisper"`
}

type OpenAIConfig struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
	Model   string `yaml:"model"`
}

type WhisperConfig struct {
	Model  string `yaml:"model"`
	Device string `yaml:"device"`
}

// FetcherConfig governs spec §4.1.
type FetcherConfig struct {
	Timeout          time.Duration `yaml:"timeout"`
	MaxRedirects      int           `yaml:"max_redirects"`
	UserAgent         string        `yaml:"user_agent"`
	MinPayloadBytes   int64         `yaml:"min_payload_bytes"`
	ProgressEveryBytes int64        `yaml:"progress_every_bytes"`
}

// PreparerConfig governs spec §4.3's constants.
type PreparerConfig struct {
	ProviderLimitBytes int64    `yaml:"provider_limit_bytes"`
	SegmentDurationSec int      `yaml:"segment_duration_sec"`
	CodecCascade       []Codec  `yaml:"codec_cascade"`
}

// Codec is one entry of the cascade Preparer tries in order (spec §4.3).
type Codec struct {
	Encoder string `yaml:"encoder"`
	Ext     string `yaml:"ext"`
}

// TranscriberConfig governs spec §4.4's concurrency and retry policy.
type TranscriberConfig struct {
	ConcurrentLimit        int           `yaml:"concurrent_limit"`
	SingleFileMaxAttempts  int           `yaml:"single_file_max_attempts"`
	SegmentMaxAttempts     int           `yaml:"segment_max_attempts"`
	BackoffBaseQuota       time.Duration `yaml:"backoff_base_quota"`
	BackoffBaseDefault     time.Duration `yaml:"backoff_base_default"`
	BackoffCap             time.Duration `yaml:"backoff_cap"`
	PromptMaxChars         int           `yaml:"prompt_max_chars"`
	OverallDeadline        time.Duration `yaml:"overall_deadline"`
	MaxOverallDeadline     time.Duration `yaml:"max_overall_deadline"`
}

// JobConfig governs spec §4.8.
type JobConfig struct {
	LogCapacity int           `yaml:"log_capacity"`
	LogTTL      time.Duration `yaml:"log_ttl"`
}

// UploadsConfig governs spec §5's backpressure policy.
type UploadsConfig struct {
	MaxBodyBytes int64 `yaml:"max_body_bytes"`
}

// Load reads the configuration from path, creating a default file there if absent — same
// create-on-first-run shape as the teacher's configuration loader.
func Load(path string) (*Configuration, error) {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		path = filepath.Join(home, ".podcastpipe", "configuration.yaml")
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		configuration := defaultConfiguration()
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, err
		}
		if err := Save(configuration, path); err != nil {
			return nil, err
		}
		return configuration, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	configuration := &Configuration{}
	if err := yaml.Unmarshal(data, configuration); err != nil {
		return nil, err
	}
	return configuration, nil
}

// Save writes the configuration to path.
func Save(configuration *Configuration, path string) error {
	data, err := yaml.Marshal(configuration)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}

func defaultConfiguration() *Configuration {
	home, _ := os.UserHomeDir()
	return &Configuration{
		Storage: StorageConfig{
			DataDirectory: filepath.Join(home, ".podcastpipe"),
		},
		LLM: LLMConfig{
			Provider: "openrouter",
			OpenRouter: OpenRouterConfig{
				DefaultModel: "anthropic/claude-3.5-sonnet",
			},
			Ollama: OllamaConfig{
				BaseURL:      "http://localhost:11434",
				DefaultModel: "llama3.2",
			},
		},
		Transcription: TranscriptionConfig{
			Provider: "openai",
			OpenAI: OpenAIConfig{
				BaseURL: "https://api.openai.com/v1",
				Model:   "whisper-1",
			},
			Whisper: WhisperConfig{
				Model:  "base",
				Device: "auto",
			},
		},
		Fetcher: FetcherConfig{
			Timeout:            120 * time.Second,
			MaxRedirects:       5,
			UserAgent:          "Mozilla/5.0 (compatible; podcastpipe/1.0; +https://example.invalid/bot)",
			MinPayloadBytes:    1024,
			ProgressEveryBytes: 5 * 1024 * 1024,
		},
		Preparer: PreparerConfig{
			ProviderLimitBytes: 25 * 1024 * 1024,
			SegmentDurationSec: 300,
			CodecCascade: []Codec{
				{Encoder: "libmp3lame", Ext: "mp3"},
				{Encoder: "mp3", Ext: "mp3"},
				{Encoder: "aac", Ext: "m4a"},
				{Encoder: "libvorbis", Ext: "ogg"},
				{Encoder: "pcm_s16le", Ext: "wav"},
			},
		},
		Transcriber: TranscriberConfig{
			ConcurrentLimit:       3,
			SingleFileMaxAttempts: 5,
			SegmentMaxAttempts:    3,
			BackoffBaseQuota:      5 * time.Second,
			BackoffBaseDefault:    2 * time.Second,
			BackoffCap:            30 * time.Second,
			PromptMaxChars:        400,
			OverallDeadline:       30 * time.Minute,
			MaxOverallDeadline:    60 * time.Minute,
		},
		Job: JobConfig{
			LogCapacity: 500,
			LogTTL:      5 * time.Minute,
		},
		Uploads: UploadsConfig{
			MaxBodyBytes: 32 * 1024 * 1024,
		},
	}
}
