// Package pipeline runs registered features over a translation unit in
// validate, transform and emit phases.
package pipeline

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"czar/internal/core/errors"
	"czar/internal/shared/observability"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

type Phase int

const (
	PhaseValidate Phase = iota
	PhaseTransform
	PhaseEmit
)

func (p Phase) String() string {
	switch p {
	case PhaseValidate:
		return "validate"
	case PhaseTransform:
		return "transform"
	case PhaseEmit:
		return "emit"
	default:
		return fmt.Sprintf("Phase(%d)", int(p))
	}
}

type Hook func(*Context) error

// EmitHook writes auxiliary C that the emitter places ahead of definitions.
type EmitHook func(*Context, io.Writer) error

type Feature struct {
	Name         string
	Description  string
	Enabled      bool
	Validate     Hook
	Transform    Hook
	Emit         EmitHook
	Dependencies []string
}

func (f *Feature) has(p Phase) bool {
	switch p {
	case PhaseValidate:
		return f.Validate != nil
	case PhaseTransform:
		return f.Transform != nil
	case PhaseEmit:
		return f.Emit != nil
	}
	return false
}

var errSuppressed = stderrors.New("feature suppressed")

// Registry keeps features in registration order. That order is the
// ordering contract between passes.
type Registry struct {
	features []*Feature
	index    map[string]*Feature
}

func NewRegistry() *Registry {
	return &Registry{index: make(map[string]*Feature)}
}

func (r *Registry) Register(f *Feature) error {
	if f == nil || f.Name == "" {
		return errors.New(errors.CodeValidationError, "feature name is required")
	}
	if _, exists := r.index[f.Name]; exists {
		return errors.AddContext(
			errors.New(errors.CodeConflict, "feature already registered"),
			errors.CtxFeature, f.Name)
	}
	r.features = append(r.features, f)
	r.index[f.Name] = f
	return nil
}

func (r *Registry) Lookup(name string) (*Feature, bool) {
	f, ok := r.index[name]
	return f, ok
}

func (r *Registry) Enable(name string) error { return r.setEnabled(name, true) }

func (r *Registry) Disable(name string) error { return r.setEnabled(name, false) }

func (r *Registry) setEnabled(name string, on bool) error {
	f, ok := r.index[name]
	if !ok {
		return errors.AddContext(
			errors.Newf(errors.CodeNotFound, "unknown feature %q", name),
			errors.CtxFeature, name)
	}
	f.Enabled = on
	return nil
}

// Features returns the registered features in registration order.
func (r *Registry) Features() []*Feature {
	out := make([]*Feature, len(r.features))
	copy(out, r.features)
	return out
}

func (r *Registry) Validate(ctx context.Context, pc *Context) error {
	return r.Run(ctx, PhaseValidate, pc, nil)
}

func (r *Registry) Transform(ctx context.Context, pc *Context) error {
	return r.Run(ctx, PhaseTransform, pc, nil)
}

func (r *Registry) Emit(ctx context.Context, pc *Context, w io.Writer) error {
	return r.Run(ctx, PhaseEmit, pc, w)
}

// Run walks enabled features with a hook for phase in registration order.
// Each feature first pulls in its dependency closure; a missing, disabled or
// cyclic dependency suppresses the feature without failing the run.
func (r *Registry) Run(ctx context.Context, phase Phase, pc *Context, w io.Writer) error {
	ctx, span := observability.Tracer.Start(ctx, "pipeline."+phase.String())
	defer span.End()

	run := &phaseRun{
		registry:   r,
		phase:      phase,
		pc:         pc,
		w:          w,
		done:       make(map[string]bool),
		visiting:   make(map[string]bool),
		suppressed: make(map[string]bool),
	}
	for _, f := range r.features {
		if !f.Enabled || !f.has(phase) {
			continue
		}
		err := run.visit(ctx, f)
		if stderrors.Is(err, errSuppressed) {
			slog.Debug("feature suppressed", "feature", f.Name, "phase", phase.String(), "reason", err)
			observability.FeaturesSuppressedTotal.WithLabelValues(f.Name).Inc()
			continue
		}
		if err != nil {
			return err
		}
	}
	return nil
}

type phaseRun struct {
	registry   *Registry
	phase      Phase
	pc         *Context
	w          io.Writer
	done       map[string]bool
	visiting   map[string]bool
	suppressed map[string]bool
}

func (p *phaseRun) visit(ctx context.Context, f *Feature) error {
	if p.done[f.Name] {
		return nil
	}
	if p.suppressed[f.Name] {
		return fmt.Errorf("%w: earlier suppression", errSuppressed)
	}
	if p.visiting[f.Name] {
		p.suppressed[f.Name] = true
		return fmt.Errorf("%w: dependency cycle through %q", errSuppressed, f.Name)
	}
	p.visiting[f.Name] = true
	defer delete(p.visiting, f.Name)

	for _, name := range f.Dependencies {
		dep, ok := p.registry.index[name]
		if !ok || !dep.Enabled {
			p.suppressed[f.Name] = true
			return fmt.Errorf("%w: dependency %q unavailable", errSuppressed, name)
		}
		if !dep.has(p.phase) {
			continue
		}
		if err := p.visit(ctx, dep); err != nil {
			if stderrors.Is(err, errSuppressed) {
				p.suppressed[f.Name] = true
			}
			return err
		}
	}

	if err := p.call(ctx, f); err != nil {
		return err
	}
	p.done[f.Name] = true
	return nil
}

func (p *phaseRun) call(ctx context.Context, f *Feature) error {
	_, span := observability.Tracer.Start(ctx, "feature."+f.Name, trace.WithAttributes(
		attribute.String("czar.phase", p.phase.String()),
		attribute.String("czar.file", p.pc.File),
	))
	defer span.End()

	start := time.Now()
	defer func() {
		observability.FeatureDuration.WithLabelValues(f.Name, p.phase.String()).Observe(time.Since(start).Seconds())
	}()

	switch p.phase {
	case PhaseValidate:
		return f.Validate(p.pc)
	case PhaseTransform:
		return f.Transform(p.pc)
	default:
		if p.w == nil {
			return nil
		}
		return f.Emit(p.pc, p.w)
	}
}
