package speech

import "context"

// Transcriber converts recorded call audio to text. Used only when the
// carrier did not supply a transcript for a gather cycle.
type Transcriber interface {
	// TranscribeURL transcribes audio hosted at the given URL.
	TranscribeURL(ctx context.Context, mediaURL string) (string, error)
}

// Synthesizer converts text to speech audio.
type Synthesizer interface {
	// Synthesize returns encoded audio (MP3) for the given text.
	Synthesize(ctx context.Context, text string) ([]byte, error)
}
