// Package media normalizes meeting inputs. It classifies files by kind
// (video, audio, text transcript) and extracts audio tracks from video
// containers so the transcription stage only ever sees audio or text.
package media

import (
	"fmt"
	"path/filepath"
	"strings"

	rcerrors "github.com/otherjamesbrown/recap-cli/pkg/errors"
)

// Kind classifies a meeting input file.
type Kind string

const (
	// KindVideo is a video container whose audio track needs extraction.
	KindVideo Kind = "video"
	// KindAudio is an audio file ready for transcription.
	KindAudio Kind = "audio"
	// KindText is an existing transcript (plain text or WebVTT).
	KindText Kind = "text"
	// KindUnsupported is anything the pipeline cannot normalize.
	KindUnsupported Kind = "unsupported"
)

// String returns the string representation of the kind.
func (k Kind) String() string {
	return string(k)
}

// kindByExtension maps lowercase file extensions to kinds.
var kindByExtension = map[string]Kind{
	".mp4": KindVideo,
	".mp3": KindAudio,
	".wav": KindAudio,
	".txt": KindText,
	".vtt": KindText,
}

// DetectKind classifies a file by its extension. Classification is by
// extension only; content sniffing is left to the downstream tools.
func DetectKind(path string) Kind {
	ext := strings.ToLower(filepath.Ext(path))
	if kind, ok := kindByExtension[ext]; ok {
		return kind
	}
	return KindUnsupported
}

// Validate returns an error if the file cannot enter the pipeline.
func Validate(path string) (Kind, error) {
	kind := DetectKind(path)
	if kind == KindUnsupported {
		return kind, fmt.Errorf("%w: %q (supported: mp4, mp3, wav, txt, vtt)",
			rcerrors.ErrUnsupportedMedia, filepath.Ext(path))
	}
	return kind, nil
}
