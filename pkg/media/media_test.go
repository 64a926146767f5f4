package media

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	rcerrors "github.com/otherjamesbrown/recap-cli/pkg/errors"
)

func TestDetectKind(t *testing.T) {
	tests := []struct {
		path string
		want Kind
	}{
		{"standup.mp4", KindVideo},
		{"standup.MP4", KindVideo},
		{"call.mp3", KindAudio},
		{"call.wav", KindAudio},
		{"notes.txt", KindText},
		{"captions.vtt", KindText},
		{"/abs/path/to/recording.mp4", KindVideo},
		{"archive.zip", KindUnsupported},
		{"audio.ogg", KindUnsupported},
		{"noextension", KindUnsupported},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectKind(tt.path))
		})
	}
}

func TestValidateUnsupported(t *testing.T) {
	kind, err := Validate("slides.pptx")
	require.Error(t, err)
	assert.Equal(t, KindUnsupported, kind)
	assert.True(t, rcerrors.IsUnsupportedMedia(err))
	assert.Contains(t, err.Error(), ".pptx")
}

func TestValidateSupported(t *testing.T) {
	kind, err := Validate("meeting.wav")
	require.NoError(t, err)
	assert.Equal(t, KindAudio, kind)
}

func TestWorkspaceClose(t *testing.T) {
	ws, err := NewWorkspace()
	require.NoError(t, err)
	require.DirExists(t, ws.Dir)

	require.NoError(t, ws.Close())
	assert.NoDirExists(t, ws.Dir)
}
