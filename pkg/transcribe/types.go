// Package transcribe turns audio into transcript text and parses existing
// transcript files (plain text and WebVTT).
package transcribe

// InaudibleSentinel replaces the text of a chunk whose recognition failed
// transiently. Downstream analysis treats it as unintelligible speech.
const InaudibleSentinel = "[inaudible]"

// Segment is one attributed span of a transcript.
type Segment struct {
	// Speaker is the display name, empty when unknown.
	Speaker string `json:"speaker,omitempty"`
	// SpeakerID is the source-specific speaker identifier, if present.
	SpeakerID string `json:"speaker_id,omitempty"`
	// Text is the spoken content.
	Text string `json:"text"`
	// StartMs and EndMs bound the segment in milliseconds.
	StartMs int `json:"start_ms"`
	EndMs   int `json:"end_ms"`
}

// Transcript is the normalized output of the transcription stage.
type Transcript struct {
	// FullText is the complete transcript as a single string.
	FullText string `json:"full_text"`

	// Segments are the attributed spans, when the source format has them.
	Segments []Segment `json:"segments,omitempty"`

	// Speakers are the unique speaker names in order of first appearance.
	Speakers []string `json:"speakers,omitempty"`

	// Format records the source ("txt", "vtt", "audio").
	Format string `json:"format"`

	// DurationSeconds is the meeting length, when derivable.
	DurationSeconds int `json:"duration_seconds,omitempty"`

	// InaudibleChunks counts chunks degraded to the inaudible sentinel.
	InaudibleChunks int `json:"inaudible_chunks,omitempty"`
}
