// Package verify runs smoke checks against the hook compositor: a plain
// render, a multi-line aesthetic render and a scale comparison. Each check
// writes real PNG files and removes them afterwards unless asked to keep them.
package verify

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/maauso/openshorts-hooks/internal/hook"
)

// Check names.
const (
	CheckBasic     = "basic"
	CheckAesthetic = "aesthetic"
	CheckScale     = "scale"
	CheckAll       = "all"
)

// SampleWidth is the target width every check renders at.
const SampleWidth = 800

// Sample texts.
const (
	BasicText     = "POV: You are testing the viral hook feature\nand it works perfectly."
	AestheticText = "POV: You are testing\nthe new aesthetic feature\nwith explicit lines."
	ScaleText     = "Custom Position\n& Size Test"
)

// ErrUnknownCheck is returned for a check name that does not exist.
var ErrUnknownCheck = errors.New("unknown check")

// Renderer renders hook cards.
type Renderer interface {
	Composite(ctx context.Context, req hook.Request) (hook.Result, error)
}

// Outcome is the result of one check.
type Outcome struct {
	Name   string
	Passed bool
	// Details are human-readable observations, such as rendered sizes.
	Details []string
	Err     error
}

// Runner executes checks against a Renderer, writing files into its directory.
type Runner struct {
	renderer Renderer
	dir      string
	keep     bool
	logger   *slog.Logger
}

// Option configures a Runner.
type Option func(*Runner)

// WithKeep leaves generated images on disk.
func WithKeep(keep bool) Option {
	return func(r *Runner) {
		r.keep = keep
	}
}

// WithLogger sets the runner's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		r.logger = logger
	}
}

// NewRunner creates a Runner writing images into dir.
func NewRunner(renderer Renderer, dir string, opts ...Option) *Runner {
	r := &Runner{
		renderer: renderer,
		dir:      dir,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Names returns every check name in run order.
func Names() []string {
	return []string{CheckBasic, CheckAesthetic, CheckScale}
}

// ParseChecks expands a comma-separated list of check names. "all" selects
// every check.
func ParseChecks(s string) ([]string, error) {
	var names []string
	seen := make(map[string]bool)
	for _, part := range strings.Split(s, ",") {
		name := strings.ToLower(strings.TrimSpace(part))
		switch name {
		case "":
			continue
		case CheckAll:
			return Names(), nil
		case CheckBasic, CheckAesthetic, CheckScale:
			if !seen[name] {
				seen[name] = true
				names = append(names, name)
			}
		default:
			return nil, fmt.Errorf("%w: %q", ErrUnknownCheck, name)
		}
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("%w: empty selection", ErrUnknownCheck)
	}
	return names, nil
}

// Run executes the named checks in order. Unknown names produce a failed
// outcome.
func (r *Runner) Run(ctx context.Context, names []string) []Outcome {
	outcomes := make([]Outcome, 0, len(names))
	for _, name := range names {
		var o Outcome
		switch name {
		case CheckBasic:
			o = r.basic(ctx)
		case CheckAesthetic:
			o = r.aesthetic(ctx)
		case CheckScale:
			o = r.scale(ctx)
		default:
			o = Outcome{Err: fmt.Errorf("%w: %q", ErrUnknownCheck, name)}
		}
		o.Name = name
		outcomes = append(outcomes, o)
	}
	return outcomes
}

func (r *Runner) render(ctx context.Context, text, file string, scale float64) (hook.Result, error) {
	return r.renderer.Composite(ctx, hook.Request{
		Text:        text,
		TargetWidth: SampleWidth,
		Scale:       scale,
		OutputPath:  filepath.Join(r.dir, file),
	})
}

func (r *Runner) cleanup(paths ...string) {
	if r.keep {
		return
	}
	for _, p := range paths {
		if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			r.logger.Warn("failed to remove check output", "path", p, "error", err)
		}
	}
}

// basic renders the sample hook and checks a non-empty file was written.
func (r *Runner) basic(ctx context.Context) Outcome {
	path := filepath.Join(r.dir, "test_hook.png")
	defer r.cleanup(path)

	res, err := r.render(ctx, BasicText, "test_hook.png", 1.0)
	if err != nil {
		return Outcome{Err: err}
	}

	info, err := os.Stat(res.Path)
	if err != nil {
		return Outcome{Err: fmt.Errorf("file does not exist: %w", err)}
	}
	if info.Size() == 0 {
		return Outcome{Err: errors.New("file is empty")}
	}

	return Outcome{
		Passed:  true,
		Details: []string{fmt.Sprintf("dimensions %dx%d", res.Width, res.Height)},
	}
}

// aesthetic renders explicit lines and checks the canvas leaves room for the
// shadow around the card.
func (r *Runner) aesthetic(ctx context.Context) Outcome {
	path := filepath.Join(r.dir, "aesthetic_hook.png")
	defer r.cleanup(path)

	res, err := r.render(ctx, AestheticText, "aesthetic_hook.png", 1.0)
	if err != nil {
		return Outcome{Err: err}
	}
	if _, err := os.Stat(res.Path); err != nil {
		return Outcome{Err: fmt.Errorf("file does not exist: %w", err)}
	}

	details := []string{
		fmt.Sprintf("dimensions including shadow %dx%d", res.Width, res.Height),
		fmt.Sprintf("lines %d", len(res.Layout.Lines)),
	}
	if res.Width <= res.Layout.BoxWidth || res.Height <= res.Layout.BoxHeight {
		return Outcome{Details: details, Err: errors.New("canvas does not exceed card box")}
	}
	if len(res.Layout.Lines) < 3 {
		return Outcome{Details: details, Err: errors.New("explicit line breaks were not kept")}
	}
	return Outcome{Passed: true, Details: details}
}

// scale renders the same text small and large and checks both dimensions grow.
func (r *Runner) scale(ctx context.Context) Outcome {
	smallPath := filepath.Join(r.dir, "hook_small.png")
	largePath := filepath.Join(r.dir, "hook_large.png")
	defer r.cleanup(smallPath, largePath)

	small, err := r.render(ctx, ScaleText, "hook_small.png", hook.SizeSmall.Scale())
	if err != nil {
		return Outcome{Err: fmt.Errorf("small: %w", err)}
	}
	large, err := r.render(ctx, ScaleText, "hook_large.png", hook.SizeLarge.Scale())
	if err != nil {
		return Outcome{Err: fmt.Errorf("large: %w", err)}
	}

	details := []string{
		fmt.Sprintf("small %dx%d", small.Width, small.Height),
		fmt.Sprintf("large %dx%d", large.Width, large.Height),
	}
	if large.Width > small.Width && large.Height > small.Height {
		return Outcome{Passed: true, Details: details}
	}
	return Outcome{Details: details, Err: errors.New("large render is not bigger than small render")}
}

// Report prints one PASS or FAIL line per outcome, followed by its details,
// and reports whether every check passed.
func Report(w io.Writer, outcomes []Outcome) bool {
	ok := true
	for _, o := range outcomes {
		if o.Passed {
			_, _ = fmt.Fprintf(w, "PASS %s\n", o.Name)
		} else {
			ok = false
			_, _ = fmt.Fprintf(w, "FAIL %s: %v\n", o.Name, o.Err)
		}
		for _, d := range o.Details {
			_, _ = fmt.Fprintf(w, "     %s\n", d)
		}
	}
	return ok
}
