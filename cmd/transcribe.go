package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/otherjamesbrown/recap-cli/pkg/media"
	"github.com/otherjamesbrown/recap-cli/pkg/transcribe"
)

// NewTranscribeCommand creates the 'transcribe' command.
func NewTranscribeCommand(deps *Deps) *cobra.Command {
	if deps == nil {
		deps = &Deps{}
	}

	return &cobra.Command{
		Use:   "transcribe <path>",
		Short: "Extract a transcript without analyzing it",
		Long: `Extract a transcript from a recording or transcript file and print it.

Video inputs have their audio track extracted and chunked before speech
recognition. Chunks that fail transiently are marked [inaudible] instead of
failing the whole run.

Examples:
  recap transcribe ./standup.mp4
  recap transcribe ./meeting.vtt --output json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTranscribe(cmd, deps, args[0])
		},
	}
}

func runTranscribe(cmd *cobra.Command, deps *Deps, inputPath string) error {
	if err := deps.ensure(); err != nil {
		return err
	}

	kind, err := media.Validate(inputPath)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), deps.commandTimeout())
	defer cancel()

	var transcript *transcribe.Transcript
	switch kind {
	case media.KindText:
		transcript, err = parseTranscriptFile(inputPath)
	default:
		transcript, err = transcribeRecording(ctx, deps, inputPath, kind)
	}
	if err != nil {
		return err
	}

	return writeResult(cmd.OutOrStdout(), deps.Config.OutputFormat, transcript, func(w io.Writer) error {
		if len(transcript.Speakers) > 0 {
			fmt.Fprintf(w, "Speakers: %s\n\n", strings.Join(transcript.Speakers, ", "))
		}
		fmt.Fprintln(w, transcript.FullText)
		if transcript.InaudibleChunks > 0 {
			fmt.Fprintf(w, "\nWarning: %d chunk(s) were inaudible\n", transcript.InaudibleChunks)
		}
		return nil
	})
}

func parseTranscriptFile(path string) (*transcribe.Transcript, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if strings.EqualFold(filepath.Ext(path), ".vtt") {
		return transcribe.ParseVTT(f)
	}
	return transcribe.ParseTXT(f)
}

func transcribeRecording(ctx context.Context, deps *Deps, path string, kind media.Kind) (*transcribe.Transcript, error) {
	extractor := media.NewExtractor(deps.Logger)

	ws, err := media.NewWorkspace()
	if err != nil {
		return nil, err
	}
	defer ws.Close()

	audioPath := path
	if kind == media.KindVideo {
		if audioPath, err = extractor.ExtractAudio(ctx, ws, path); err != nil {
			return nil, err
		}
	}

	chunks, err := extractor.SplitAudio(ctx, ws, audioPath, deps.Config.Transcribe.ChunkSeconds)
	if err != nil {
		return nil, err
	}

	ct := transcribe.NewChunkedTranscriber(deps.transcriber(), deps.Logger)
	return ct.TranscribeChunks(ctx, chunks)
}
