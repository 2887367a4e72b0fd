package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/framelink/pkg/cache"
	"github.com/matzehuels/framelink/pkg/errors"
	pio "github.com/matzehuels/framelink/pkg/io"
	"github.com/matzehuels/framelink/pkg/link"
	"github.com/matzehuels/framelink/pkg/observability"
	"github.com/matzehuels/framelink/pkg/render"
	"github.com/matzehuels/framelink/pkg/render/linkgraph"
	"github.com/matzehuels/framelink/pkg/scene"
	"github.com/matzehuels/framelink/pkg/session"
)

// Graph output formats.
const (
	FormatDOT = "dot"
	FormatSVG = "svg"
	FormatPDF = "pdf"
	FormatPNG = "png"
)

// Cache key types reported to observability hooks.
const (
	keyResult     = "result"
	keyValidation = "validate"
	keyGraph      = "graph"
)

// Runner executes scripts, validation and graph rendering with caching.
// Both the CLI and the API server use it.
//
// The Runner holds no per-project state, so one Runner may serve many
// goroutines.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger

	// AnimationScope is passed to every editor the runner opens.
	AnimationScope link.Scope

	// TTL overrides the per-kind cache TTLs when positive.
	TTL time.Duration
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// =============================================================================
// Apply
// =============================================================================

// Apply runs ops in order against a copy of p and returns the result.
// The boolean reports a cache hit. Invalid ops fail before anything runs;
// a failing op aborts the script and nothing is cached.
func (r *Runner) Apply(ctx context.Context, p *scene.Project, ops []Op) (*scene.Project, bool, error) {
	if p == nil {
		return nil, false, errors.New(errors.ErrCodeInvalidInput, "project is required")
	}
	script := Script{Ops: ops}
	if err := script.Validate(); err != nil {
		return nil, false, err
	}

	hooks := observability.Pipeline()
	hooks.OnApplyStart(ctx, len(ops))
	start := time.Now()

	key, keyErr := r.resultKey(p, ops)
	if keyErr == nil {
		if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
			if out, err := pio.Unmarshal(data); err == nil {
				observability.Cache().OnCacheHit(ctx, keyResult)
				hooks.OnApplyComplete(ctx, len(ops), time.Since(start), nil)
				r.Logger.Debug("script result from cache", "ops", len(ops))
				return out, true, nil
			}
		}
		observability.Cache().OnCacheMiss(ctx, keyResult)
	} else {
		r.Logger.Warn("cannot hash script input, skipping cache", "err", keyErr)
	}

	out, err := r.run(ctx, p, ops)
	hooks.OnApplyComplete(ctx, len(ops), time.Since(start), err)
	if err != nil {
		return nil, false, err
	}

	r.Logger.Info("applied script", "ops", len(ops), "frames", len(out.Frames), "duration", time.Since(start))

	if keyErr == nil {
		if data, err := pio.Marshal(out); err == nil {
			if err := r.Cache.Set(ctx, key, data, r.ttl(cache.ResultTTL)); err != nil {
				r.Logger.Warn("cache write failed", "key", keyResult, "err", err)
			} else {
				observability.Cache().OnCacheSet(ctx, keyResult, len(data))
			}
		}
	}
	return out, false, nil
}

func (r *Runner) run(ctx context.Context, p *scene.Project, ops []Op) (*scene.Project, error) {
	ed, err := r.open(p)
	if err != nil {
		return nil, err
	}
	for i := range ops {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := r.step(ed, &ops[i]); err != nil {
			return nil, fmt.Errorf("op %d (%s): %w", i+1, ops[i].Kind, err)
		}
	}
	return ed.Project(), nil
}

func (r *Runner) step(ed *session.Editor, op *Op) error {
	r.Logger.Debug("op", "kind", op.Kind, "frame", op.Frame, "layer", op.Layer)
	switch op.Kind {
	case KindSetVisibility:
		ed.SetVisibility(op.Frame, op.Layer, *op.Visible)
	case KindSyncVisibility:
		ed.SyncVisibility(op.Frame, op.Layer, *op.Visible)
	case KindSyncAnimation:
		ed.SyncAnimation(op.Frame, op.Layer, op.Animation.Animation())
	case KindSetOverride:
		ed.SetOverride(op.Frame, op.Layer, scene.Stream(op.Stream), op.Overridden)
	case KindToggleLink:
		gid, err := ed.ToggleLink(op.Frame, op.Layer, op.mode())
		if err != nil {
			return err
		}
		if gid != "" {
			r.Logger.Debug("locked", "group", gid)
		}
	case KindAutoLink:
		return ed.AutoLink(op.mode())
	default:
		return errors.New(errors.ErrCodeInvalidOp, "unknown op kind %q", op.Kind)
	}
	return nil
}

func (r *Runner) open(p *scene.Project) (*session.Editor, error) {
	return session.NewEditor(p, session.Options{Logger: r.Logger, AnimationScope: r.AnimationScope})
}

func (r *Runner) resultKey(p *scene.Project, ops []Op) (string, error) {
	ph, err := projectHash(p)
	if err != nil {
		return "", err
	}
	sh, err := cache.HashJSON(struct {
		Scope link.Scope `json:"scope"`
		Ops   []Op       `json:"ops"`
	}{r.AnimationScope, ops})
	if err != nil {
		return "", err
	}
	return r.Keyer.ResultKey(ph, sh), nil
}

func projectHash(p *scene.Project) (string, error) {
	data, err := pio.Marshal(p)
	if err != nil {
		return "", err
	}
	return cache.Hash(data), nil
}

// =============================================================================
// Validate
// =============================================================================

// Validate returns the invariant violations of p in mode. An empty report
// means the project is consistent.
func (r *Runner) Validate(ctx context.Context, p *scene.Project, mode link.Mode) ([]string, bool, error) {
	if p == nil {
		return nil, false, errors.New(errors.ErrCodeInvalidInput, "project is required")
	}
	if !mode.Valid() {
		return nil, false, errors.New(errors.ErrCodeInvalidMode, "unknown mode %q", mode)
	}

	start := time.Now()
	var key string
	if ph, err := projectHash(p); err == nil {
		key = r.Keyer.ValidationKey(ph, string(mode))
		if violations, err := cache.GetJSON[[]string](ctx, r.Cache, key); err == nil {
			observability.Cache().OnCacheHit(ctx, keyValidation)
			return violations, true, nil
		}
		observability.Cache().OnCacheMiss(ctx, keyValidation)
	}

	ed, err := r.open(p)
	if err != nil {
		return nil, false, err
	}
	violations := ed.Validate(mode)
	observability.Pipeline().OnValidateComplete(ctx, string(mode), len(violations), time.Since(start))

	if key != "" {
		if violations == nil {
			violations = []string{}
		}
		if err := cache.SetJSON(ctx, r.Cache, key, violations, r.ttl(cache.ValidationTTL)); err != nil {
			r.Logger.Warn("cache write failed", "key", keyValidation, "err", err)
		} else {
			observability.Cache().OnCacheSet(ctx, keyValidation, len(violations))
		}
	}
	return violations, false, nil
}

// =============================================================================
// Graph
// =============================================================================

// Graph renders the link groups of mode in format (dot, svg, pdf or png).
func (r *Runner) Graph(ctx context.Context, p *scene.Project, mode link.Mode, format string) ([]byte, bool, error) {
	if p == nil {
		return nil, false, errors.New(errors.ErrCodeInvalidInput, "project is required")
	}
	if !mode.Valid() {
		return nil, false, errors.New(errors.ErrCodeInvalidMode, "unknown mode %q", mode)
	}
	if err := ValidateFormat(format); err != nil {
		return nil, false, err
	}

	var key string
	if ph, err := projectHash(p); err == nil {
		key = r.Keyer.GraphKey(ph, cache.GraphKeyOpts{Mode: string(mode), Format: format})
		if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
			observability.Cache().OnCacheHit(ctx, keyGraph)
			return data, true, nil
		}
		observability.Cache().OnCacheMiss(ctx, keyGraph)
	}

	data, err := renderGraph(ctx, p, mode, format)
	if err != nil {
		return nil, false, err
	}

	if key != "" {
		if err := r.Cache.Set(ctx, key, data, r.ttl(cache.GraphTTL)); err != nil {
			r.Logger.Warn("cache write failed", "key", keyGraph, "err", err)
		} else {
			observability.Cache().OnCacheSet(ctx, keyGraph, len(data))
		}
	}
	return data, false, nil
}

func renderGraph(ctx context.Context, p *scene.Project, mode link.Mode, format string) ([]byte, error) {
	dot := linkgraph.ToDOT(p, linkgraph.Options{Mode: mode, Detailed: true})
	if format == FormatDOT {
		return []byte(dot), nil
	}
	svg, err := linkgraph.RenderSVG(ctx, dot)
	if err != nil {
		return nil, err
	}
	switch format {
	case FormatPDF:
		return render.ToPDF(svg)
	case FormatPNG:
		return render.ToPNG(svg, 2.0)
	default:
		return svg, nil
	}
}

// ValidateFormat checks a graph output format.
func ValidateFormat(format string) error {
	switch format {
	case FormatDOT, FormatSVG, FormatPDF, FormatPNG:
		return nil
	}
	return errors.New(errors.ErrCodeInvalidFormat, "unsupported graph format %q (want dot, svg, pdf or png)", format)
}

func (r *Runner) ttl(def time.Duration) time.Duration {
	if r.TTL > 0 {
		return r.TTL
	}
	return def
}

// Close releases the cache.
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}
