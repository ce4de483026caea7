// Package fetch implements spec §4.1: acquiring audio bytes from a URL with redirect
// following, a timeout, and a browser-like User-Agent, grounded on the teacher's general
// context-aware HTTP client style (internal/llm/openrouter.go makes authenticated requests
// the same way: http.NewRequestWithContext + explicit header setting + a shared client).
package fetch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"

	"podcastpipe/internal/config"
	"podcastpipe/internal/models"
)

// Fetcher downloads audio from a URL, following redirects itself so it can cap the hop count
// and reject redirect cycles (spec §4.1's TooManyRedirects class).
type Fetcher struct {
	config config.FetcherConfig
	client *http.Client
}

func New(configuration config.FetcherConfig) *Fetcher {
	return &Fetcher{
		config: configuration,
		client: &http.Client{
			Timeout: configuration.Timeout,
			// Redirects are followed manually below so the hop count and cycle
			// detection are this package's own responsibility, not net/http's.
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

// Fetch streams the resource at rawURL into memory and returns its bytes, per spec §4.1.
func (fetcher *Fetcher) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	visited := make(map[string]bool)
	currentURL := rawURL

	for hop := 0; ; hop++ {
		if hop > fetcher.config.MaxRedirects {
			return nil, &models.PipelineError{
				Stage: "fetcher", Class: models.ClassFetchFailed,
				Message: fmt.Sprintf("exceeded %d redirects", fetcher.config.MaxRedirects),
			}
		}
		if visited[currentURL] {
			return nil, &models.PipelineError{Stage: "fetcher", Class: models.ClassFetchFailed, Message: "redirect cycle detected"}
		}
		visited[currentURL] = true

		request, requestError := http.NewRequestWithContext(ctx, http.MethodGet, currentURL, nil)
		if requestError != nil {
			return nil, &models.PipelineError{Stage: "fetcher", Class: models.ClassInvalidInput, Message: "invalid URL", Err: requestError}
		}
		request.Header.Set("User-Agent", fetcher.config.UserAgent)
		request.Header.Set("Accept", "audio/*, */*")

		response, doError := fetcher.client.Do(request)
		if doError != nil {
			if ctx.Err() != nil {
				return nil, &models.PipelineError{Stage: "fetcher", Class: models.ClassTimeout, Message: "fetch timed out", Err: doError}
			}
			return nil, &models.PipelineError{Stage: "fetcher", Class: models.ClassFetchFailed, Message: "network error", Err: doError}
		}

		if isRedirect(response.StatusCode) {
			location := response.Header.Get("Location")
			response.Body.Close()
			if location == "" {
				return nil, &models.PipelineError{Stage: "fetcher", Class: models.ClassFetchFailed, Message: "redirect with no Location header"}
			}
			nextURL, resolveError := resolveLocation(currentURL, location)
			if resolveError != nil {
				return nil, &models.PipelineError{Stage: "fetcher", Class: models.ClassFetchFailed, Message: "invalid redirect Location", Err: resolveError}
			}
			currentURL = nextURL
			continue
		}

		defer response.Body.Close()

		if response.StatusCode < 200 || response.StatusCode >= 300 {
			return nil, &models.PipelineError{
				Stage: "fetcher", Class: models.ClassFetchFailed,
				Message: fmt.Sprintf("HTTP %d", response.StatusCode),
			}
		}

		payload, readError := fetcher.readWithProgress(ctx, response.Body)
		if readError != nil {
			return nil, &models.PipelineError{Stage: "fetcher", Class: models.ClassFetchFailed, Message: "read failed", Err: readError}
		}

		if int64(len(payload)) < fetcher.config.MinPayloadBytes {
			return nil, &models.PipelineError{
				Stage: "fetcher", Class: models.ClassInvalidInput,
				Message: fmt.Sprintf("payload too small (%d bytes, minimum %d)", len(payload), fetcher.config.MinPayloadBytes),
			}
		}
		return payload, nil
	}
}

func (fetcher *Fetcher) readWithProgress(ctx context.Context, body io.Reader) ([]byte, error) {
	var buffer []byte
	chunk := make([]byte, 64*1024)
	var sinceLastLog int64
	threshold := fetcher.config.ProgressEveryBytes
	if threshold <= 0 {
		threshold = 5 * 1024 * 1024
	}

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		read, readError := body.Read(chunk)
		if read > 0 {
			buffer = append(buffer, chunk[:read]...)
			sinceLastLog += int64(read)
			if sinceLastLog >= threshold {
				slog.Info("fetch progress", "bytes_read", len(buffer))
				sinceLastLog = 0
			}
		}
		if readError == io.EOF {
			return buffer, nil
		}
		if readError != nil {
			return nil, readError
		}
	}
}

func isRedirect(status int) bool {
	switch status {
	case http.StatusMovedPermanently, http.StatusFound, http.StatusSeeOther,
		http.StatusTemporaryRedirect, http.StatusPermanentRedirect:
		return true
	}
	return false
}

func resolveLocation(base, location string) (string, error) {
	baseURL, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	locationURL, err := url.Parse(location)
	if err != nil {
		return "", err
	}
	return baseURL.ResolveReference(locationURL).String(), nil
}
