package pipeline

import (
	"dubber/internal/speech"
	"dubber/internal/subtitles"
)

func speechRequest(line subtitles.Line, reference string, gap float64, speechPath, silencePath string) speech.Request {
	return speech.Request{
		Text:           line.Text,
		Language:       line.Lang,
		ReferencePath:  reference,
		SilenceSeconds: gap,
		SpeechPath:     speechPath,
		SilencePath:    silencePath,
	}
}
