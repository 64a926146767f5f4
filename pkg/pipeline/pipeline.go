// Package pipeline orchestrates a full meeting run: input validation, text
// extraction, optional repository snapshot, analysis, and session storage.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/otherjamesbrown/recap-cli/pkg/analyze"
	rcerrors "github.com/otherjamesbrown/recap-cli/pkg/errors"
	"github.com/otherjamesbrown/recap-cli/pkg/logging"
	"github.com/otherjamesbrown/recap-cli/pkg/media"
	"github.com/otherjamesbrown/recap-cli/pkg/observability"
	"github.com/otherjamesbrown/recap-cli/pkg/repo"
	"github.com/otherjamesbrown/recap-cli/pkg/transcribe"
)

// Pipeline stages, used in spans, metrics, and error stages.
const (
	StageValidate   = "validate"
	StageExtract    = "extract"
	StageSnapshot   = "snapshot"
	StageAnalyze    = "analyze"
	StageStore      = "store"
	StageDistribute = "distribute"
)

// Snapshotter fetches repository snapshots.
type Snapshotter interface {
	Fetch(ctx context.Context, loc repo.Locator, branch string) (*repo.Snapshot, error)
}

// Analyzer produces an analysis record from transcript text.
type Analyzer interface {
	Analyze(ctx context.Context, transcript string, filePaths []string) (*analyze.Record, error)
}

// Request describes one pipeline run.
type Request struct {
	// InputPath is the meeting artifact: mp4, mp3, wav, txt, or vtt.
	InputPath string

	// Repository optionally names a repo to snapshot for code context.
	Repository string

	// Branch selects the snapshot branch; empty means the default branch.
	Branch string
}

// Result is the outcome of one pipeline run.
type Result struct {
	SessionID  string                 `json:"session_id"`
	MediaKind  string                 `json:"media_kind"`
	Transcript *transcribe.Transcript `json:"transcript,omitempty"`
	Snapshot   *repo.Snapshot         `json:"snapshot,omitempty"`
	Record     *analyze.Record        `json:"record"`
	Warnings   []string               `json:"warnings,omitempty"`
	Duration   time.Duration          `json:"-"`
}

// Runner wires the pipeline stages together.
type Runner struct {
	extractor    *media.Extractor
	transcriber  transcribe.Transcriber
	chunkSeconds int
	snapshots    Snapshotter
	analyzer     Analyzer
	metrics      *observability.PipelineMetrics
	tracer       *observability.Tracer
	logger       logging.Logger
}

// RunnerConfig holds the Runner's collaborators. Extractor, Transcriber, and
// Snapshots may be nil when the corresponding inputs are never used.
type RunnerConfig struct {
	Extractor    *media.Extractor
	Transcriber  transcribe.Transcriber
	ChunkSeconds int
	Snapshots    Snapshotter
	Analyzer     Analyzer
	Metrics      *observability.PipelineMetrics
	Tracer       *observability.Tracer
	Logger       logging.Logger
}

// NewRunner creates a Runner.
func NewRunner(cfg RunnerConfig) *Runner {
	if cfg.Logger == nil {
		cfg.Logger = logging.NewNopLogger()
	}
	if cfg.Tracer == nil {
		cfg.Tracer = observability.NewTracer()
	}
	if cfg.ChunkSeconds <= 0 {
		cfg.ChunkSeconds = 30
	}
	return &Runner{
		extractor:    cfg.Extractor,
		transcriber:  cfg.Transcriber,
		chunkSeconds: cfg.ChunkSeconds,
		snapshots:    cfg.Snapshots,
		analyzer:     cfg.Analyzer,
		metrics:      cfg.Metrics,
		tracer:       cfg.Tracer,
		logger:       cfg.Logger,
	}
}

// Process runs the full pipeline for one meeting artifact. A failing snapshot
// degrades to a warning; every other stage failure aborts the run with a
// stage-tagged pipeline error.
func (r *Runner) Process(ctx context.Context, req Request) (*Result, error) {
	started := time.Now()
	result := &Result{SessionID: uuid.NewString()}

	logger := r.logger.With(logging.F("session_id", result.SessionID))

	kind, err := r.runValidate(ctx, req, result)
	if err != nil {
		return nil, err
	}

	ctx, span := r.tracer.StartProcessSpan(ctx, result.SessionID, kind.String())
	defer span.End()
	helper := observability.NewSpanHelper(span)

	if err := r.runExtract(ctx, req, kind, result, logger); err != nil {
		helper.SetError(err, rcerrors.ClassifyError(err), false)
		return nil, err
	}

	r.runSnapshot(ctx, req, result, logger)
	if result.Snapshot != nil {
		helper.SetRepository(result.Snapshot.Repository)
	}

	if err := r.runAnalyze(ctx, result, logger); err != nil {
		helper.SetError(err, rcerrors.ClassifyError(err), false)
		return nil, err
	}
	helper.SetRecoveryTier(result.Record.RecoveryTier)

	result.Duration = time.Since(started)
	helper.SetDuration(result.Duration.Milliseconds())
	helper.SetSuccess()

	logger.Info("pipeline run complete",
		logging.F("media_kind", result.MediaKind),
		logging.F("recovery_tier", result.Record.RecoveryTier),
		logging.F("warnings", len(result.Warnings)),
		logging.F("duration_ms", result.Duration.Milliseconds()))

	return result, nil
}

func (r *Runner) runValidate(ctx context.Context, req Request, result *Result) (media.Kind, error) {
	started := time.Now()

	kind, err := media.Validate(req.InputPath)
	if err != nil {
		r.recordStage(StageValidate, "error", started)
		return kind, rcerrors.NewPipelineError(StageValidate, "unsupported input", err)
	}
	if _, err := os.Stat(req.InputPath); err != nil {
		r.recordStage(StageValidate, "error", started)
		return kind, rcerrors.NewPipelineError(StageValidate, "input not readable",
			fmt.Errorf("%w: %v", rcerrors.ErrValidation, err))
	}
	if req.Repository != "" {
		if _, err := repo.ParseLocator(req.Repository); err != nil {
			r.recordStage(StageValidate, "error", started)
			return kind, rcerrors.NewPipelineError(StageValidate, "bad repository locator", err)
		}
	}

	result.MediaKind = kind.String()
	if r.metrics != nil {
		r.metrics.RecordInput(result.MediaKind)
	}
	r.recordStage(StageValidate, "ok", started)
	return kind, nil
}

func (r *Runner) runExtract(ctx context.Context, req Request, kind media.Kind, result *Result, logger logging.Logger) error {
	ctx, span := r.tracer.StartStageSpan(ctx, StageExtract)
	defer span.End()
	started := time.Now()

	var (
		transcript *transcribe.Transcript
		err        error
	)
	switch kind {
	case media.KindText:
		transcript, err = r.extractText(req.InputPath)
	case media.KindAudio, media.KindVideo:
		transcript, err = r.extractSpeech(ctx, req.InputPath, kind)
	default:
		err = fmt.Errorf("%w: %s", rcerrors.ErrUnsupportedMedia, kind)
	}
	if err != nil {
		r.recordStage(StageExtract, "error", started)
		return rcerrors.NewPipelineError(StageExtract, "extracting transcript", err)
	}

	if strings.TrimSpace(transcript.FullText) == "" {
		r.recordStage(StageExtract, "error", started)
		return rcerrors.NewPipelineError(StageExtract, "empty transcript",
			fmt.Errorf("%w: no usable text in %s", rcerrors.ErrValidation, req.InputPath))
	}

	if transcript.InaudibleChunks > 0 {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("%d audio chunk(s) could not be transcribed", transcript.InaudibleChunks))
	}

	result.Transcript = transcript
	r.recordStage(StageExtract, "ok", started)
	logger.Debug("transcript extracted",
		logging.F("format", transcript.Format),
		logging.F("chars", len(transcript.FullText)),
		logging.F("segments", len(transcript.Segments)))
	return nil
}

func (r *Runner) extractText(path string) (*transcribe.Transcript, error) {
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

func (r *Runner) extractSpeech(ctx context.Context, path string, kind media.Kind) (*transcribe.Transcript, error) {
	if r.extractor == nil || r.transcriber == nil {
		return nil, fmt.Errorf("%w: audio pipeline not configured", rcerrors.ErrValidation)
	}

	ws, err := media.NewWorkspace()
	if err != nil {
		return nil, err
	}
	defer ws.Close()

	audioPath := path
	if kind == media.KindVideo {
		if audioPath, err = r.extractor.ExtractAudio(ctx, ws, path); err != nil {
			return nil, err
		}
	}

	chunks, err := r.extractor.SplitAudio(ctx, ws, audioPath, r.chunkSeconds)
	if err != nil {
		return nil, err
	}

	ct := transcribe.NewChunkedTranscriber(r.transcriber, r.logger)
	transcript, err := ct.TranscribeChunks(ctx, chunks)
	if err != nil {
		return nil, err
	}

	if r.metrics != nil {
		for i := 0; i < len(chunks)-transcript.InaudibleChunks; i++ {
			r.metrics.RecordChunk("ok")
		}
		for i := 0; i < transcript.InaudibleChunks; i++ {
			r.metrics.RecordChunk("inaudible")
		}
	}
	return transcript, nil
}

// runSnapshot never fails the run; missing code context degrades analysis
// quality but the meeting can still be summarized.
func (r *Runner) runSnapshot(ctx context.Context, req Request, result *Result, logger logging.Logger) {
	if req.Repository == "" || r.snapshots == nil {
		return
	}

	ctx, span := r.tracer.StartStageSpan(ctx, StageSnapshot)
	defer span.End()
	started := time.Now()

	loc, err := repo.ParseLocator(req.Repository)
	if err != nil {
		r.recordStage(StageSnapshot, "error", started)
		result.Warnings = append(result.Warnings, fmt.Sprintf("skipping snapshot: %v", err))
		return
	}

	snap, err := r.snapshots.Fetch(ctx, loc, req.Branch)
	if err != nil {
		r.recordStage(StageSnapshot, "error", started)
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("repository snapshot failed, analyzing without code context: %v", err))
		logger.Warn("snapshot fetch failed", logging.F("repository", loc.String()), logging.Err(err))
		return
	}

	if r.metrics != nil {
		if snap.FromCache {
			r.metrics.RecordSnapshotCache("hit")
		} else {
			r.metrics.RecordSnapshotCache("miss")
			for _, content := range snap.Files {
				r.metrics.RecordSnapshotFile("fetched", len(content))
			}
			for i := 0; i < snap.Skipped; i++ {
				r.metrics.RecordSnapshotFile("skipped", 0)
			}
		}
	}

	result.Snapshot = snap
	r.recordStage(StageSnapshot, "ok", started)
}

func (r *Runner) runAnalyze(ctx context.Context, result *Result, logger logging.Logger) error {
	ctx, span := r.tracer.StartStageSpan(ctx, StageAnalyze)
	defer span.End()
	started := time.Now()

	var filePaths []string
	if result.Snapshot != nil {
		filePaths = result.Snapshot.FileList()
	}

	rec, err := r.analyzer.Analyze(ctx, result.Transcript.FullText, filePaths)
	if err != nil {
		r.recordStage(StageAnalyze, "error", started)
		return rcerrors.NewPipelineError(StageAnalyze, "analyzing transcript", err)
	}

	if r.metrics != nil {
		r.metrics.RecordRecoveryTier(rec.RecoveryTier)
	}
	if rec.Degraded() {
		result.Warnings = append(result.Warnings,
			"analysis response was not structured JSON; only a raw summary is available")
	}

	result.Record = rec
	r.recordStage(StageAnalyze, "ok", started)
	return nil
}

func (r *Runner) recordStage(stage, status string, started time.Time) {
	if r.metrics != nil {
		r.metrics.RecordStage(stage, status, time.Since(started).Seconds())
	}
}
