// Package transcode normalises uploaded audio into the 16 kHz mono PCM WAV
// format the speech-to-text providers expect. It shells out to ffmpeg, which
// handles whatever container the browser's MediaRecorder produced (webm/opus,
// ogg, mp4/aac) without per-format code here.
package transcode

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"
)

// ErrTranscode is wrapped by all errors returned from WAV, so callers can
// distinguish a bad upload from infrastructure failures with errors.Is.
var ErrTranscode = errors.New("transcode failed")

// Artifact is a transcoded WAV file on disk. The caller owns it and must call
// Close to remove it.
type Artifact struct {
	// Path is the location of the 16 kHz mono WAV file.
	Path string
}

// Close removes the artifact from disk. Safe to call multiple times.
func (a *Artifact) Close() error {
	if a.Path == "" {
		return nil
	}
	err := os.Remove(a.Path)
	a.Path = ""
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("transcode: remove artifact: %w", err)
	}
	return nil
}

// FFmpeg transcodes audio by invoking the ffmpeg executable.
type FFmpeg struct {
	path    string
	workDir string
}

// Option is a functional option for FFmpeg.
type Option func(*FFmpeg)

// WithPath sets the ffmpeg executable to invoke instead of resolving
// "ffmpeg" via PATH.
func WithPath(path string) Option {
	return func(f *FFmpeg) { f.path = path }
}

// WithWorkDir sets the directory for scratch files. Defaults to the system
// temp directory.
func WithWorkDir(dir string) Option {
	return func(f *FFmpeg) { f.workDir = dir }
}

// New constructs an FFmpeg transcoder.
func New(opts ...Option) *FFmpeg {
	f := &FFmpeg{path: "ffmpeg"}
	for _, o := range opts {
		o(f)
	}
	return f
}

// WAV writes the audio read from r to a scratch file, converts it to a
// 16 kHz mono 16-bit PCM WAV, and returns the result as an [Artifact].
// The input scratch file is always removed before WAV returns; the output
// file is removed on every error path.
func (f *FFmpeg) WAV(ctx context.Context, r io.Reader) (*Artifact, error) {
	in, err := os.CreateTemp(f.workDir, "upload-*.audio")
	if err != nil {
		return nil, fmt.Errorf("%w: create input file: %w", ErrTranscode, err)
	}
	defer func() {
		if err := os.Remove(in.Name()); err != nil {
			slog.Warn("failed to remove transcode input", "path", in.Name(), "error", err)
		}
	}()

	if _, err := io.Copy(in, r); err != nil {
		in.Close()
		return nil, fmt.Errorf("%w: write input file: %w", ErrTranscode, err)
	}
	if err := in.Close(); err != nil {
		return nil, fmt.Errorf("%w: close input file: %w", ErrTranscode, err)
	}

	out, err := os.CreateTemp(f.workDir, "audio-*.wav")
	if err != nil {
		return nil, fmt.Errorf("%w: create output file: %w", ErrTranscode, err)
	}
	outPath := out.Name()
	out.Close()

	args := []string{
		"-y",
		"-i", in.Name(),
		"-vn",
		"-ac", "1",
		"-ar", "16000",
		"-acodec", "pcm_s16le",
		"-f", "wav",
		outPath,
	}
	cmd := exec.CommandContext(ctx, f.path, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		os.Remove(outPath)
		return nil, fmt.Errorf("%w: ffmpeg: %w (%s)", ErrTranscode, err, stderrTail(stderr.String()))
	}

	info, err := os.Stat(outPath)
	if err != nil || info.Size() == 0 {
		os.Remove(outPath)
		return nil, fmt.Errorf("%w: ffmpeg produced no output", ErrTranscode)
	}

	return &Artifact{Path: outPath}, nil
}

// stderrTail returns the last few lines of ffmpeg's stderr, which carry the
// actual failure reason; the preceding banner and stream info are noise.
func stderrTail(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	const keep = 3
	if len(lines) > keep {
		lines = lines[len(lines)-keep:]
	}
	return strings.Join(lines, " | ")
}
