// Package postprocess implements spec §4.6: optional language-detected spell/grammar
// correction and optional heuristic speaker labelling, run on a MergedTranscript.
package postprocess

import (
	"podcastpipe/internal/models"
	"podcastpipe/internal/transcribe"
)

// DetectLanguage implements spec §4.6.1's fallback heuristic: counts Latin letters and CJK
// Unified Ideographs in text and classifies by their ratios. Only used when the transcript
// carries no provider-reported language and Params.SourceLanguage is "auto" (or empty, or
// not a parsable language tag).
func DetectLanguage(text string) string {
	var latin, cjk, total int
	for _, r := range text {
		switch {
		case isLatinLetter(r):
			latin++
			total++
		case isCJKIdeograph(r):
			cjk++
			total++
		}
	}
	if total == 0 {
		return "en"
	}

	if float64(latin)/float64(total) > 0.5 || (latin > 2*cjk && latin > 100) {
		return "en"
	}
	if float64(cjk)/float64(total) > 0.3 || cjk > 50 {
		return "zh"
	}
	return "en"
}

func isLatinLetter(r rune) bool {
	return (r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z')
}

func isCJKIdeograph(r rune) bool {
	return r >= 0x4E00 && r <= 0x9FFF
}

// ResolveLanguage applies spec §9's Open Question resolution: the post-detection value wins
// and overwrites the transcript's Language field, so downstream consumers never see the raw
// provider value once detection has run.
func ResolveLanguage(transcript *models.MergedTranscript, sourceLanguage string) {
	if transcript.Language != "" {
		return
	}
	if tag := transcribe.NormalizeLanguageTag(sourceLanguage); tag != "" {
		transcript.Language = tag
		return
	}
	transcript.Language = DetectLanguage(transcript.Text)
}
