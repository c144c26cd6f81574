package driver

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"strata/internal/config"
	"strata/internal/errors"
	"strata/internal/ir"
)

func compileSource(t *testing.T, source string, cfg *config.Config) *Result {
	t.Helper()
	res, err := Compile(context.Background(), "test.sir", source, cfg)
	require.NoError(t, err)
	return res
}

func TestCompileCounterIsClean(t *testing.T) {
	res, err := CompileFile(context.Background(), "../../examples/counter.sir", nil)
	require.NoError(t, err)
	assert.Empty(t, res.Diagnostics)
	require.NotNil(t, res.Module)
	assert.True(t, res.Module.Functions[0].IR.IsFrozen())
}

func TestCompileReportsUndefinedUses(t *testing.T) {
	res, err := CompileFile(context.Background(), "../../examples/undefined.sir", nil)
	require.NoError(t, err)
	require.Len(t, res.Diagnostics, 2)

	partial := res.Diagnostics[0]
	assert.Equal(t, errors.ErrorPossiblyUndefined, partial.Code)
	assert.Equal(t, errors.Warning, partial.Level)
	assert.Equal(t, 12, partial.Position.Line)
	assert.Equal(t, 14, partial.Position.Column)
	require.NotEmpty(t, partial.Notes)
	assert.Contains(t, partial.Notes[0], "no definition reaches this use through")

	undefined := res.Diagnostics[1]
	assert.Equal(t, errors.ErrorUndefinedVariable, undefined.Code)
	assert.Equal(t, errors.Error, undefined.Level)
	assert.Equal(t, 18, undefined.Position.Line)

	assert.True(t, res.HasErrors())
	for _, fn := range res.Module.Functions {
		assert.False(t, fn.IR.IsFrozen(), fn.IR.Name())
	}
}

func TestPossiblyUndefinedLevelFromConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Diagnostics.PossiblyUndefined = "error"
	res := compileSource(t, `func f(c: bool) -> (r: i64) {
    if {
        br c;
    } then {
        r = const 1;
    }
    ret r;
}`, cfg)
	require.Len(t, res.Diagnostics, 1)
	assert.Equal(t, errors.Error, res.Diagnostics[0].Level)
	assert.True(t, res.HasErrors())
}

func TestCompileSyntaxError(t *testing.T) {
	res := compileSource(t, "func f( {\n}", nil)
	require.Len(t, res.Diagnostics, 1)
	assert.Equal(t, errors.ErrorSyntax, res.Diagnostics[0].Code)
	assert.Equal(t, "test.sir", res.Diagnostics[0].Position.Filename)
	assert.Equal(t, 1, res.Diagnostics[0].Position.Line)
	assert.Nil(t, res.Module)
}

func TestCompileVersion(t *testing.T) {
	tests := []struct {
		version string
		ok      bool
	}{
		{"1.0", true},
		{"1.4.2", true},
		{"2.0", false},
		{"0.9", false},
		{"latest", false},
	}
	for _, tt := range tests {
		t.Run(tt.version, func(t *testing.T) {
			res := compileSource(t, `version "`+tt.version+`";`, nil)
			if tt.ok {
				assert.Empty(t, res.Diagnostics)
				return
			}
			require.Len(t, res.Diagnostics, 1)
			assert.Equal(t, errors.ErrorUnsupportedVersion, res.Diagnostics[0].Code)
		})
	}
}

func TestCompileFlattensBeforeResolving(t *testing.T) {
	cfg := config.Default()
	cfg.Flatten = true
	res := compileSource(t, `func f(a: i64) -> (r: i64) {
    {
        {
            r = copy a;
        }
    }
    ret r;
}`, cfg)
	require.Empty(t, res.Diagnostics)
	body := res.Module.Functions[0].IR.Body().(*ir.Sequence)
	assert.Equal(t, 3, body.Len())
	assert.True(t, res.Module.Functions[0].IR.IsFrozen())
}

func TestCompileWithoutFreeze(t *testing.T) {
	cfg := config.Default()
	cfg.Freeze = false
	res, err := CompileFile(context.Background(), "../../examples/counter.sir", cfg)
	require.NoError(t, err)
	assert.False(t, res.Module.Functions[0].IR.IsFrozen())
}

func TestCompileSortsDiagnostics(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 8; i++ {
		b.WriteString("func f")
		b.WriteByte(byte('a' + i))
		b.WriteString("() -> (r: i64) {\n    var y: i64;\n    r = copy y;\n}\n\n")
	}
	cfg := config.Default()
	cfg.Workers = 3
	res := compileSource(t, b.String(), cfg)
	require.Len(t, res.Diagnostics, 8)
	for i := 1; i < len(res.Diagnostics); i++ {
		assert.Less(t, res.Diagnostics[i-1].Position.Line, res.Diagnostics[i].Position.Line)
	}
}

func TestCompileCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Compile(ctx, "test.sir", "func f() { }", nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWatchRecompilesOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "w.sir")
	require.NoError(t, os.WriteFile(path, []byte("func f() -> (r: i64) {\n    r = const 1;\n}\n"), 0o644))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	results := make(chan *Result, 8)
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, []string{path}, nil, func(r *Result) {
			select {
			case results <- r:
			default:
			}
		})
	}()

	first := <-results
	assert.Empty(t, first.Diagnostics)

	require.NoError(t, os.WriteFile(path, []byte("func f() -> (r: i64) {\n    r = copy r;\n}\n"), 0o644))
	for {
		select {
		case r := <-results:
			if len(r.Diagnostics) == 0 || r.Diagnostics[0].Code != errors.ErrorUndefinedVariable {
				continue
			}
			cancel()
			require.NoError(t, <-done)
			return
		case <-ctx.Done():
			t.Fatal("no recompilation after write")
		}
	}
}
