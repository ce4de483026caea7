package transcribe

import (
	"fmt"

	"golang.org/x/text/language"

	"podcastpipe/internal/models"
)

var contentTypeTemplate = map[models.ContentType]string{
	models.ContentTypePodcast:   "This is a podcast episode. Transcribe the spoken audio faithfully.",
	models.ContentTypeInterview: "This is an interview with multiple speakers. Transcribe the spoken audio faithfully.",
	models.ContentTypeLecture:   "This is an educational lecture. Transcribe the spoken audio faithfully, including technical terminology.",
}

// BuildPrompt assembles the short system-style prompt spec §4.4 describes: a template keyed
// by (language, contentType), with user keywords prepended and given truncation priority, the
// whole thing hard-capped at maxChars.
func BuildPrompt(contentType models.ContentType, sourceLanguage, keywords string, maxChars int) string {
	template, ok := contentTypeTemplate[contentType]
	if !ok {
		template = contentTypeTemplate[models.ContentTypePodcast]
	}
	if tag := NormalizeLanguageTag(sourceLanguage); tag != "" {
		template = fmt.Sprintf("Spoken language: %s. %s", tag, template)
	}

	if keywords == "" {
		return truncate(template, maxChars)
	}

	prompt := keywords + ". " + template
	if len(prompt) <= maxChars {
		return prompt
	}
	// Keywords win truncation priority: keep as much of them as fits, drop the template.
	if len(keywords) >= maxChars {
		return truncate(keywords, maxChars)
	}
	return truncate(prompt, maxChars)
}

func truncate(text string, maxChars int) string {
	if len(text) <= maxChars {
		return text
	}
	return text[:maxChars]
}

// NormalizeLanguageTag validates sourceLanguage as a BCP-47 tag and returns its canonical
// form, or "" when sourceLanguage is empty, "auto", or not parsable — the caller then omits
// the "Spoken language" hint entirely rather than passing a malformed tag to the provider.
func NormalizeLanguageTag(sourceLanguage string) string {
	if sourceLanguage == "" || sourceLanguage == models.AutoLanguage {
		return ""
	}
	tag, err := language.Parse(sourceLanguage)
	if err != nil {
		return ""
	}
	return tag.String()
}
