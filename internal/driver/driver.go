// Package driver runs the parse, lower and verify pipeline over one file.
package driver

import (
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/alecthomas/participle/v2"
	"github.com/tliron/commonlog"
	"golang.org/x/sync/errgroup"

	"strata/grammar"
	"strata/internal/config"
	"strata/internal/errors"
	"strata/internal/ir"
	"strata/internal/lower"
)

var log = commonlog.GetLogger("strata.driver")

// VersionConstraint is the range of format versions the tools accept.
const VersionConstraint = ">= 1.0.0, < 2.0.0"

var constraint = mustConstraint(VersionConstraint)

func mustConstraint(c string) *semver.Constraints {
	parsed, err := semver.NewConstraint(c)
	if err != nil {
		panic(err)
	}
	return parsed
}

// Result is everything known about one compiled file.
type Result struct {
	Filename string
	Source   string
	// File is nil when the source does not parse.
	File *grammar.File
	// Module is nil when the source does not parse.
	Module      *lower.Module
	Diagnostics []errors.CompilerError
}

// HasErrors reports whether any diagnostic is an error.
func (r *Result) HasErrors() bool {
	return errors.HasErrors(r.Diagnostics)
}

// CompileFile reads path and compiles it.
func CompileFile(ctx context.Context, path string, cfg *config.Config) (*Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return Compile(ctx, path, string(data), cfg)
}

// Compile parses, lowers and verifies source. Problems in the source are
// returned as diagnostics; the error is only set when ctx is cancelled.
func Compile(ctx context.Context, filename, source string, cfg *config.Config) (*Result, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	res := &Result{Filename: filename, Source: source}

	file, err := grammar.ParseString(filename, source)
	if err != nil {
		res.Diagnostics = append(res.Diagnostics, syntaxError(filename, err))
		return res, nil
	}
	res.File = file

	m, errs := lower.Lower(filename, file)
	res.Module = m
	res.Diagnostics = append(res.Diagnostics, errs...)
	if m.Version != nil {
		if diag, ok := checkVersion(m.Version); !ok {
			res.Diagnostics = append(res.Diagnostics, diag)
		}
	}

	level := errors.ParseLevel(cfg.Diagnostics.PossiblyUndefined)
	diags := make([][]errors.CompilerError, len(m.Functions))
	g, ctx := errgroup.WithContext(ctx)
	if cfg.Workers > 0 {
		g.SetLimit(cfg.Workers)
	}
	for i, fn := range m.Functions {
		i, fn := i, fn
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			diags[i] = build(fn, cfg, level)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	for _, d := range diags {
		res.Diagnostics = append(res.Diagnostics, d...)
	}
	errors.Sort(res.Diagnostics)
	log.Infof("%s: %d functions, %d diagnostics", filename, len(m.Functions), len(res.Diagnostics))
	return res, nil
}

// build completes the def/use graph of one function and reports its
// undefined uses. Functions are independent, so builds run concurrently.
func build(fn *lower.Function, cfg *config.Config, level errors.ErrorLevel) []errors.CompilerError {
	f := fn.IR
	if cfg.Flatten {
		f.Flatten(f)
	}
	f.ResolveAll()

	violations := f.Verify()
	var diags []errors.CompilerError
	for _, v := range violations {
		switch v.Kind {
		case ir.UndefinedUse:
			diags = append(diags, errors.UndefinedVariable(v.Variable.Name(), usePosition(fn, v)))
		case ir.PartiallyUndefinedUse:
			paths := undefinedPaths(f, v.Block, v.Variable)
			diags = append(diags, errors.PossiblyUndefinedVariable(level, v.Variable.Name(), usePosition(fn, v), paths))
		default:
			// Incoming violations are graph bugs, not source errors.
			log.Errorf("%s: %s", f.Name(), v)
		}
	}
	if cfg.Freeze && len(violations) == 0 {
		f.Freeze()
	}
	return diags
}

func usePosition(fn *lower.Function, v ir.Violation) errors.Position {
	if pos, ok := fn.UsePosition(v.Use); ok {
		return pos
	}
	if pos, ok := fn.PositionOf(v.Use.User()); ok {
		return pos
	}
	return errors.PositionOf(fn.Source.Pos)
}

// undefinedPaths names the predecessors through which no definition of v
// flows into the join reaching the top of b.
func undefinedPaths(f *ir.Function, b *ir.Block, v *ir.Variable) []string {
	t := f.Probe(b, v).Timeline()
	if t == nil || !t.HasIncoming() {
		return nil
	}
	var paths []string
	for _, n := range t.Incoming() {
		if n.IsUndefined() {
			paths = append(paths, n.Predecessor().Label())
		}
	}
	return paths
}

func checkVersion(v *grammar.Version) (errors.CompilerError, bool) {
	pos := errors.PositionOf(v.Pos)
	version, err := semver.NewVersion(v.Value)
	if err != nil || !constraint.Check(version) {
		return errors.UnsupportedVersion(v.Value, VersionConstraint, pos), false
	}
	return errors.CompilerError{}, true
}

func syntaxError(filename string, err error) errors.CompilerError {
	var perr participle.Error
	if stderrors.As(err, &perr) {
		pos := errors.PositionOf(perr.Position())
		if pos.Filename == "" {
			pos.Filename = filename
		}
		return errors.SyntaxError(perr.Message(), pos)
	}
	msg := err.Error()
	if i := strings.LastIndex(msg, ": "); i >= 0 {
		msg = msg[i+2:]
	}
	return errors.SyntaxError(msg, errors.Position{Filename: filename, Line: 1, Column: 1})
}
