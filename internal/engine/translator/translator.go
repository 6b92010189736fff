// Package translator wires the lexer, feature pipeline and emitter into a
// single call that turns one .cz file into a header/source pair.
package translator

import (
	"context"
	stderrors "errors"
	"path/filepath"
	"time"

	"czar/internal/core/errors"
	"czar/internal/engine/diag"
	"czar/internal/engine/emitter"
	"czar/internal/engine/features"
	"czar/internal/engine/imports"
	"czar/internal/engine/parser"
	"czar/internal/engine/pipeline"
	"czar/internal/shared/observability"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

type Options struct {
	GNUExtensions    bool
	Debug            bool
	RuntimeHeader    string
	DisabledFeatures []string
}

type Result struct {
	File       string
	HeaderName string // foo.cz.h
	SourceName string // foo.cz.c
	Header     string
	Source     string
	Warnings   []*diag.Diagnostic
	Imports    []imports.Resolution
	// Structs lists struct names seeded from imported headers.
	Structs []string
	Tokens  int
}

// Translator keeps the imported-header scan cache across files.
type Translator struct {
	scanner *imports.Scanner
}

func New() *Translator {
	return &Translator{scanner: imports.NewScanner()}
}

var defaultTranslator = New()

// Translate runs the default translator.
func Translate(ctx context.Context, file string, src []byte, opts Options) (*Result, error) {
	return defaultTranslator.Translate(ctx, file, src, opts)
}

// HeaderName returns the generated header name for file.
func HeaderName(file string) string { return filepath.Base(file) + ".h" }

// SourceName returns the generated source name for file.
func SourceName(file string) string { return filepath.Base(file) + ".c" }

// Translate converts src, read from file, into C. A fatal diagnostic is
// returned as a VALIDATION_ERROR wrapping the *diag.Diagnostic; warnings
// travel on the result.
func (t *Translator) Translate(ctx context.Context, file string, src []byte, opts Options) (*Result, error) {
	ctx, span := observability.Tracer.Start(ctx, "translator.Translate")
	defer span.End()
	span.SetAttributes(attribute.String("czar.file", file))

	start := time.Now()
	defer func() {
		observability.TranslationDuration.Observe(time.Since(start).Seconds())
	}()

	res, err := t.translate(ctx, file, src, opts)
	if res != nil {
		observability.DiagnosticsTotal.WithLabelValues(diag.Warning.String()).Add(float64(len(res.Warnings)))
	}
	if err != nil {
		observability.TranslationsTotal.WithLabelValues("error").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return res, err
	}
	observability.TranslationsTotal.WithLabelValues("ok").Inc()
	observability.UnitTokens.Observe(float64(res.Tokens))
	return res, nil
}

func (t *Translator) translate(ctx context.Context, file string, src []byte, opts Options) (*Result, error) {
	unit := parser.Parse(src)
	pc := pipeline.NewContext(file, src, unit, pipeline.Options{
		GNUExtensions: opts.GNUExtensions,
		Debug:         opts.Debug,
		RuntimeHeader: opts.RuntimeHeader,
	})
	res := &Result{
		File:       file,
		HeaderName: HeaderName(file),
		SourceName: SourceName(file),
	}

	features.Prepare(pc)
	dir := filepath.Dir(file)
	res.Imports = imports.ResolveAll(dir, unit)
	res.Structs = t.scanner.Structs(res.Imports)
	features.SeedHeaderStructs(pc, res.Structs)

	registry := pipeline.NewRegistry()
	if err := features.Register(registry); err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "register features")
	}
	for _, name := range opts.DisabledFeatures {
		if err := registry.Disable(name); err != nil {
			return nil, err
		}
	}

	if err := registry.Validate(ctx, pc); err != nil {
		res.Warnings = pc.Diag.Warnings()
		return res, fail(err, file)
	}
	if err := registry.Transform(ctx, pc); err != nil {
		res.Warnings = pc.Diag.Warnings()
		return res, fail(err, file)
	}
	res.Warnings = pc.Diag.Warnings()

	imports.Apply(unit, res.Imports)
	out, err := emitter.Emit(ctx, pc, registry, emitter.Options{
		HeaderName:     res.HeaderName,
		SiblingHeaders: imports.Siblings(dir, file),
		UsesImports:    len(res.Imports) > 0,
	})
	if err != nil {
		return res, fail(err, file)
	}
	res.Header, res.Source = out.Header, out.Source
	res.Tokens = unit.Len()
	return res, nil
}

func fail(err error, file string) error {
	var d *diag.Diagnostic
	if stderrors.As(err, &d) {
		observability.DiagnosticsTotal.WithLabelValues(diag.Error.String()).Inc()
		return errors.AtPath(d, errors.CodeValidationError, "translation failed", file)
	}
	return errors.AddContext(err, errors.CtxPath, file)
}

// Diagnostic extracts the fatal diagnostic carried by err, if any.
func Diagnostic(err error) (*diag.Diagnostic, bool) {
	var d *diag.Diagnostic
	ok := stderrors.As(err, &d)
	return d, ok
}
