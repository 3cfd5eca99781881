package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// Static errors for media operations.
var (
	// ErrFFprobeExecution is returned when the ffprobe command fails.
	ErrFFprobeExecution = errors.New("ffprobe execution failed")
	// ErrNoVideoStream is returned when ffprobe reports no usable dimensions.
	ErrNoVideoStream = errors.New("no video stream dimensions found")
)

// Compile-time check that FFmpegProcessor implements Processor.
var _ Processor = (*FFmpegProcessor)(nil)

// FFmpegProcessor implements Processor using the ffmpeg and ffprobe CLIs.
type FFmpegProcessor struct {
	ffmpegPath  string
	ffprobePath string
}

// NewFFmpegProcessor creates a new FFmpegProcessor.
// Empty paths default to "ffmpeg" and "ffprobe" (found via PATH).
func NewFFmpegProcessor(ffmpegPath, ffprobePath string) *FFmpegProcessor {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if ffprobePath == "" {
		ffprobePath = "ffprobe"
	}
	return &FFmpegProcessor{ffmpegPath: ffmpegPath, ffprobePath: ffprobePath}
}

// ProbeDimensions returns the width and height reported by ffprobe for the
// first video stream of path.
func (p *FFmpegProcessor) ProbeDimensions(ctx context.Context, path string) (int, int, error) {
	// #nosec G204 - ffprobePath is set by the application, not user input
	cmd := exec.CommandContext(ctx, p.ffprobePath,
		"-v", "error",
		"-select_streams", "v:0",
		"-show_entries", "stream=width,height",
		"-of", "csv=s=x:p=0",
		path,
	)

	var stdout bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return 0, 0, fmt.Errorf("ffprobe cancelled: %w", ctx.Err())
		}
		return 0, 0, fmt.Errorf("%w: %w, stderr: %s", ErrFFprobeExecution, err, stderr.String())
	}

	return parseDimensions(stdout.String())
}

// parseDimensions reads "WIDTHxHEIGHT" from the first non-empty line of
// ffprobe csv output.
func parseDimensions(output string) (int, int, error) {
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		// Some containers report a trailing separator, e.g. "1080x1920x".
		line = strings.TrimSuffix(line, "x")

		var w, h int
		if _, err := fmt.Sscanf(line, "%dx%d", &w, &h); err != nil {
			return 0, 0, fmt.Errorf("parse dimensions %q: %w", line, err)
		}
		if w <= 0 || h <= 0 {
			return 0, 0, fmt.Errorf("%w: %dx%d", ErrNoVideoStream, w, h)
		}
		return w, h, nil
	}
	return 0, 0, ErrNoVideoStream
}

// OverlayImage burns imagePath onto videoPath at (x, y), re-encoding video
// with libx264 and copying audio.
func (p *FFmpegProcessor) OverlayImage(ctx context.Context, videoPath, imagePath, outputPath string, x, y int) error {
	args := []string{
		"-y",            // Overwrite output file without asking
		"-i", videoPath, // Input video
		"-i", imagePath, // Overlay image
		"-filter_complex", fmt.Sprintf("[0:v][1:v]overlay=%d:%d", x, y),
		"-c:a", "copy", // Pass audio through
		"-c:v", "libx264",
		"-preset", "fast",
		"-crf", "22",
		outputPath,
	}
	return p.runFFmpeg(ctx, args)
}

// runFFmpeg executes ffmpeg with the given arguments and returns an error
// containing stderr output if the command fails.
func (p *FFmpegProcessor) runFFmpeg(ctx context.Context, args []string) error {
	// #nosec G204 - ffmpegPath is set by the application, not user input
	cmd := exec.CommandContext(ctx, p.ffmpegPath, args...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("ffmpeg cancelled: %w", ctx.Err())
		}
		return &FFmpegError{
			Args:   args,
			Stderr: stderr.String(),
			Err:    err,
		}
	}

	return nil
}

// FFmpegError represents an error from running ffmpeg, including the stderr output.
type FFmpegError struct {
	Args   []string
	Stderr string
	Err    error
}

func (e *FFmpegError) Error() string {
	return fmt.Sprintf("ffmpeg error: %v\nargs: %v\nstderr: %s", e.Err, e.Args, e.Stderr)
}

func (e *FFmpegError) Unwrap() error {
	return e.Err
}
