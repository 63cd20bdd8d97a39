package assembly

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"backlot/internal/logging"
	"backlot/internal/media/ffprobe"
	"backlot/internal/services"
)

// Clip is one stitch input: raw media bytes plus a stable name used for the
// temporary file and diagnostics.
type Clip struct {
	Name string
	Data []byte
}

// Options configures the assembly engine.
type Options struct {
	FFmpegBinary  string
	FFprobeBinary string
	WorkDir       string
}

// Engine stitches an ordered clip list into one combined media file. The
// engine is shared across runs; every Stitch call works inside its own
// uniquely named temporary directory so concurrent or repeated runs never
// collide on intermediate files.
type Engine struct {
	opts   Options
	logger *slog.Logger

	runExec func(ctx context.Context, name string, args ...string) ([]byte, error)
	probe   func(ctx context.Context, binary, path string) (ffprobe.Result, error)
}

// NewEngine wires an assembly engine with defaults filled in.
func NewEngine(opts Options, logger *slog.Logger) *Engine {
	if strings.TrimSpace(opts.FFmpegBinary) == "" {
		opts.FFmpegBinary = "ffmpeg"
	}
	if strings.TrimSpace(opts.FFprobeBinary) == "" {
		opts.FFprobeBinary = "ffprobe"
	}
	if strings.TrimSpace(opts.WorkDir) == "" {
		opts.WorkDir = os.TempDir()
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Engine{
		opts:    opts,
		logger:  logging.NewComponentLogger(logger, "assembly"),
		runExec: runCommand,
		probe:   ffprobe.Inspect,
	}
}

// Stitch joins the clips at outputPath. Zero clips is an error; a single
// clip is written out verbatim with no transcoding. All intermediate files
// live in a per-call unique namespace removed on success and failure alike.
func (e *Engine) Stitch(ctx context.Context, clips []Clip, transitions []Transition, outputPath string) error {
	switch len(clips) {
	case 0:
		return services.Wrap(services.ErrNothingToStitch, "assembly", "stitch", "no clips", nil)
	case 1:
		if err := writeFileAtomic(outputPath, clips[0].Data); err != nil {
			return services.Wrap(services.ErrAssembly, "assembly", "stitch", "write single clip", err)
		}
		e.logger.Info("single clip copied verbatim", logging.String("output", outputPath))
		return nil
	}
	if len(transitions) != len(clips)-1 {
		return services.Wrap(services.ErrValidation, "assembly", "stitch",
			fmt.Sprintf("%d transitions for %d clips", len(transitions), len(clips)), nil)
	}

	tempDir := filepath.Join(e.opts.WorkDir, "stitch-"+uuid.NewString())
	if err := os.MkdirAll(tempDir, 0o755); err != nil {
		return services.Wrap(services.ErrAssembly, "assembly", "stitch", "create temp namespace", err)
	}
	defer os.RemoveAll(tempDir)

	inputs := make([]string, len(clips))
	durations := make([]float64, len(clips))
	withAudio := true
	for i, clip := range clips {
		name := strings.TrimSpace(clip.Name)
		if name == "" {
			name = fmt.Sprintf("clip-%d", i+1)
		}
		path := filepath.Join(tempDir, fmt.Sprintf("%02d-%s.mp4", i, sanitizeName(name)))
		if err := os.WriteFile(path, clip.Data, 0o644); err != nil {
			return services.Wrap(services.ErrAssembly, "assembly", "stitch", "stage clip "+name, err)
		}
		probed, err := e.probe(ctx, e.opts.FFprobeBinary, path)
		if err != nil {
			return services.Wrap(services.ErrAssembly, "assembly", "stitch", "probe clip "+name, err)
		}
		duration := probed.DurationSeconds()
		if duration <= 0 {
			return services.Wrap(services.ErrValidation, "assembly", "stitch",
				fmt.Sprintf("clip %s has no measurable duration", name), nil)
		}
		inputs[i] = path
		durations[i] = duration
		if !probed.HasAudio() {
			withAudio = false
		}
	}

	// Validation runs before any transcoding so a bad transition never
	// costs an ffmpeg invocation.
	graph, videoLabel, audioLabel, err := BuildFilterGraph(durations, transitions, withAudio)
	if err != nil {
		return err
	}

	stitched := filepath.Join(tempDir, "stitched.mp4")
	args := make([]string, 0, 4*len(inputs)+12)
	args = append(args, "-y", "-hide_banner", "-loglevel", "error")
	for _, input := range inputs {
		args = append(args, "-i", input)
	}
	args = append(args, "-filter_complex", graph, "-map", videoLabel)
	if withAudio {
		args = append(args, "-map", audioLabel)
	}
	args = append(args, "-movflags", "+faststart", stitched)

	e.logger.Info("stitching clips",
		logging.Int("clips", len(clips)),
		logging.String("filter", graph),
	)
	if output, err := e.runExec(ctx, e.opts.FFmpegBinary, args...); err != nil {
		return services.Wrap(services.ErrAssembly, "assembly", "stitch",
			"ffmpeg: "+strings.TrimSpace(string(output)), err)
	}
	if err := copyFile(stitched, outputPath); err != nil {
		return services.Wrap(services.ErrAssembly, "assembly", "stitch", "deliver output", err)
	}
	e.logger.Info("stitch complete", logging.String("output", outputPath))
	return nil
}

func runCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	return cmd.CombinedOutput()
}

func sanitizeName(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '-'
		}
	}, name)
}

func writeFileAtomic(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp := path + ".partial"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	tmp := dst + ".partial"
	out, err := os.Create(tmp)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(tmp)
		return err
	}
	if err := out.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, dst)
}
