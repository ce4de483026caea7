// Command podcastpipe drives the transcription pipeline directly from the command line,
// standing in for the out-of-scope HTTP layer: the core only ever consumes audio bytes (or a
// source URL) plus Params, exactly as SubmitFromUrl/SubmitFromBytes expect.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"podcastpipe/internal/config"
	"podcastpipe/internal/llm"
	"podcastpipe/internal/models"
	"podcastpipe/internal/pipeline"
	"podcastpipe/internal/prepare"
	"podcastpipe/internal/transcribe"
)

func main() {
	configurationPath := flag.String("configuration", "", "Path to configuration file")
	sourceURL := flag.String("url", "", "URL of the audio to fetch and transcribe")
	sourceFile := flag.String("file", "", "Path to a local audio file to transcribe")
	outputDirectory := flag.String("out", ".", "Directory to write rendered transcripts into")
	formatsFlag := flag.String("formats", "txt", "Comma-separated output formats: txt,srt,vtt,json")
	contentTypeFlag := flag.String("content-type", "podcast", "podcast, interview, or lecture")
	language := flag.String("language", models.AutoLanguage, "BCP-47 source language, or \"auto\"")
	keywords := flag.String("keywords", "", "Comma-separated domain keywords to prime the prompt")
	diarize := flag.Bool("diarize", false, "Enable heuristic speaker labelling")
	flag.Parse()

	if *sourceURL == "" && *sourceFile == "" {
		log.Fatal("one of -url or -file is required")
	}

	loadedConfiguration, err := config.Load(*configurationPath)
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	if err := ensureDataDirectory(loadedConfiguration.Storage.DataDirectory); err != nil {
		log.Fatalf("failed to create data directory: %v", err)
	}

	logFilePath := filepath.Join(loadedConfiguration.Storage.DataDirectory, "podcastpipe.log")
	logFile, err := os.OpenFile(logFilePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		log.Fatalf("failed to open log file: %v", err)
	}
	defer logFile.Close()

	multiWriter := io.MultiWriter(os.Stdout, logFile)
	logger := slog.New(slog.NewJSONHandler(multiWriter, nil))
	slog.SetDefault(logger)

	llmProvider, _ := buildLLMProvider(loadedConfiguration)
	transcriptionProvider := buildTranscriptionProvider(loadedConfiguration)

	transcoder := prepare.NewTranscoder(loadedConfiguration.Storage.BinDirectory)
	if err := transcoder.CheckDependencies(); err != nil {
		slog.Error("ffmpeg/ffprobe dependency check failed", "error", err)
		os.Exit(1)
	}
	if err := transcriptionProvider.CheckDependencies(); err != nil {
		slog.Error("transcription provider dependency check failed", "error", err)
		os.Exit(1)
	}

	core := pipeline.New(loadedConfiguration, transcriptionProvider, llmProvider)

	params := models.Params{
		OutputFormats:            parseFormats(*formatsFlag),
		ContentType:              models.ContentType(*contentTypeFlag),
		SourceLanguage:           *language,
		Keywords:                 *keywords,
		EnableSpeakerDiarization: *diarize,
	}

	ctx := context.Background()

	var jobID string
	if *sourceURL != "" {
		jobID = core.SubmitFromUrl(ctx, titleFrom(*sourceURL), *sourceURL, params)
	} else {
		payload, readErr := os.ReadFile(*sourceFile)
		if readErr != nil {
			log.Fatalf("failed to read %s: %v", *sourceFile, readErr)
		}
		jobID = core.SubmitFromBytes(ctx, titleFrom(*sourceFile), payload, filepath.Ext(*sourceFile), params)
	}

	slog.Info("podcastpipe: job submitted", "job_id", jobID)

	waitCtx, cancel := context.WithTimeout(ctx, loadedConfiguration.Transcriber.MaxOverallDeadline)
	defer cancel()

	result, err := core.AwaitResult(waitCtx, jobID)
	for _, entry := range core.PollLogs(jobID) {
		slog.Info("podcastpipe: job log", "stage", entry.Stage, "level", entry.Level, "message", entry.Message)
	}
	if err != nil {
		response := models.AsErrorResponse(err)
		slog.Error("podcastpipe: job failed", "class", response.Class, "message", response.Message)
		os.Exit(1)
	}

	if err := writeResult(*outputDirectory, jobID, result); err != nil {
		log.Fatalf("failed to write rendered output: %v", err)
	}
	slog.Info("podcastpipe: job completed", "job_id", jobID, "language", result.Language, "duration_sec", result.DurationSec)
}

func buildLLMProvider(configuration *config.Configuration) (llm.Provider, string) {
	switch configuration.LLM.Provider {
	case "ollama":
		return llm.NewOllamaProvider(configuration.LLM.Ollama.BaseURL), configuration.LLM.Ollama.DefaultModel
	case "openrouter":
		return llm.NewOpenRouterProvider(configuration.LLM.OpenRouter.APIKey), configuration.LLM.OpenRouter.DefaultModel
	case "none", "":
		return nil, ""
	default:
		slog.Warn("unknown llm provider, spell-correction disabled", "provider", configuration.LLM.Provider)
		return nil, ""
	}
}

func buildTranscriptionProvider(configuration *config.Configuration) transcribe.Provider {
	switch configuration.Transcription.Provider {
	case "whisper-local":
		return transcribe.NewWhisperProvider(configuration.Transcription.Whisper.Model, configuration.Transcription.Whisper.Device)
	default:
		return transcribe.NewOpenAIProvider(configuration.Transcription.OpenAI.APIKey, configuration.Transcription.OpenAI.BaseURL)
	}
}

func parseFormats(raw string) []models.OutputFormat {
	var formats []models.OutputFormat
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		formats = append(formats, models.OutputFormat(part))
	}
	if len(formats) == 0 {
		return []models.OutputFormat{models.FormatTXT}
	}
	return formats
}

func titleFrom(source string) string {
	base := filepath.Base(source)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func writeResult(outputDirectory, jobID string, result models.Result) error {
	if err := os.MkdirAll(outputDirectory, 0755); err != nil {
		return err
	}
	for format, content := range result.Formats {
		path := filepath.Join(outputDirectory, fmt.Sprintf("%s.%s", jobID, format))
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			return err
		}
	}
	return nil
}

func ensureDataDirectory(directoryPath string) error {
	if len(directoryPath) > 0 && directoryPath[0] == '~' {
		homeDirectory, err := os.UserHomeDir()
		if err != nil {
			return err
		}
		directoryPath = filepath.Join(homeDirectory, directoryPath[1:])
	}

	targetDirectories := []string{
		directoryPath,
		filepath.Join(directoryPath, "tmp"),
	}
	for _, directory := range targetDirectories {
		if err := os.MkdirAll(directory, 0755); err != nil {
			return err
		}
	}
	return nil
}
