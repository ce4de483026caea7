package postprocess

import (
	"fmt"
	"math/rand"

	"podcastpipe/internal/models"
)

const maxSpeakers = 4

// LabelSpeakers implements spec §4.6.3's heuristic placeholder for real diarization: a gap
// over 3s or a text-length jump over 50 characters between consecutive segments probabilistically
// advances the speaker counter (capped at maxSpeakers). Per spec §9's Open Question
// resolution, the RNG is seeded for reproducible tests rather than left to the default global
// source — callers needing non-deterministic behavior should seed from a real time source.
func LabelSpeakers(transcript *models.MergedTranscript, seed int64) {
	if len(transcript.Segments) == 0 {
		return
	}

	random := rand.New(rand.NewSource(seed))
	speakerIndex := 1
	transcript.Segments[0].Speaker = speakerLabel(speakerIndex)

	for i := 1; i < len(transcript.Segments); i++ {
		previous := transcript.Segments[i-1]
		current := transcript.Segments[i]

		gap := current.Start - previous.End
		lengthJump := len(current.Text) - len(previous.Text)
		if lengthJump < 0 {
			lengthJump = -lengthJump
		}

		shouldConsiderSwitch := gap > 3 || lengthJump > 50
		if shouldConsiderSwitch && speakerIndex < maxSpeakers && random.Float64() < 0.5 {
			speakerIndex++
		}
		transcript.Segments[i].Speaker = speakerLabel(speakerIndex)
	}
}

func speakerLabel(index int) string {
	return fmt.Sprintf("Speaker %d", index)
}
