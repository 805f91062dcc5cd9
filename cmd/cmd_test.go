package cmd

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/hannajonsd/build-optimizer/analyzer"
	"github.com/hannajonsd/build-optimizer/optimizer"
	"github.com/hannajonsd/build-optimizer/transform"
)

const enumModule = "let Mode;\n(function (Mode) { Mode[\"Eager\"] = \"eager\"; })(Mode || (Mode = {}));\n"

const wrappedEnum = "let Mode = /*@__PURE__*/ (function (Mode) { Mode[\"Eager\"] = \"eager\"; return Mode; })({});\n"

type mockOptimizer struct {
	mock.Mock
}

func (m *mockOptimizer) Optimize(ctx context.Context, opts optimizer.Options) (*transform.Result, error) {
	args := m.Called(ctx, opts)
	res, _ := args.Get(0).(*transform.Result)
	return res, args.Error(1)
}

// useTestEnv swaps the filesystem and optimizer used by the commands.
func useTestEnv(t *testing.T, opt analyzer.Optimizer) afero.Fs {
	t.Helper()

	fs := afero.NewMemMapFs()
	originalFs, originalOptimizer := appFs, buildOptimizer
	appFs = fs
	if opt != nil {
		buildOptimizer = opt
	}
	t.Cleanup(func() {
		appFs, buildOptimizer = originalFs, originalOptimizer
	})

	return fs
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	cmd := newRootCmd()
	cmd.AddCommand(newOptimizeCmd(), newRunCmd(), newSummaryCmd())
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})

	logFile := filepath.Join(t.TempDir(), "build-optimizer.log")
	cmd.SetArgs(append(args, "--log-file", logFile))
	err := cmd.Execute()

	return out.String(), err
}

func TestOptimizeCmd_Stdout(t *testing.T) {
	fs := useTestEnv(t, nil)
	require.NoError(t, afero.WriteFile(fs, "/in/enum.js", []byte(enumModule), 0o644))

	out, err := execute(t, "optimize", "/in/enum.js")
	require.NoError(t, err)
	assert.Equal(t, wrappedEnum, out)
}

func TestOptimizeCmd_WritesOutputAndMap(t *testing.T) {
	fs := useTestEnv(t, nil)
	require.NoError(t, afero.WriteFile(fs, "/in/enum.js", []byte(enumModule), 0o644))

	out, err := execute(t, "optimize", "/in/enum.js", "-o", "/dist/enum.js", "--source-map")
	require.NoError(t, err)
	assert.Empty(t, out)

	written, err := afero.ReadFile(fs, "/dist/enum.js")
	require.NoError(t, err)
	assert.Equal(t, wrappedEnum+"\n//# sourceMappingURL=/dist/enum.js.map", string(written))

	exists, err := afero.Exists(fs, "/dist/enum.js.map")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestOptimizeCmd_UnchangedEchoesInput(t *testing.T) {
	opt := &mockOptimizer{}
	fs := useTestEnv(t, opt)
	require.NoError(t, afero.WriteFile(fs, "/in/plain.js", []byte("foo();\n"), 0o644))

	opt.On("Optimize", mock.Anything, mock.Anything).Return(&transform.Result{EmitSkipped: true}, nil)

	out, err := execute(t, "optimize", "/in/plain.js")
	require.NoError(t, err)
	assert.Equal(t, "foo();\n", out)
	opt.AssertExpectations(t)
}

func TestOptimizeCmd_ClassificationOverrides(t *testing.T) {
	opt := &mockOptimizer{}
	useTestEnv(t, opt)

	opt.On("Optimize", mock.Anything, mock.MatchedBy(func(opts optimizer.Options) bool {
		return opts.InputFilePath == "/in/a.js" &&
			opts.IsSideEffectFree != nil && *opts.IsSideEffectFree &&
			opts.IsFrameworkCoreFile != nil && !*opts.IsFrameworkCoreFile &&
			opts.Strict
	})).Return(&transform.Result{Content: "/*@__PURE__*/ a();\n"}, nil)

	out, err := execute(t, "optimize", "/in/a.js", "--side-effect-free", "--core=false", "--strict")
	require.NoError(t, err)
	assert.Equal(t, "/*@__PURE__*/ a();\n", out)
	opt.AssertExpectations(t)
}

func TestOptimizeCmd_DerivesClassificationByDefault(t *testing.T) {
	opt := &mockOptimizer{}
	useTestEnv(t, opt)

	opt.On("Optimize", mock.Anything, mock.MatchedBy(func(opts optimizer.Options) bool {
		return opts.IsSideEffectFree == nil && opts.IsFrameworkCoreFile == nil && !opts.Strict
	})).Return(&transform.Result{Content: "a();\n"}, nil)

	_, err := execute(t, "optimize", "/in/a.js")
	require.NoError(t, err)
	opt.AssertExpectations(t)
}

func TestOptimizeCmd_Errors(t *testing.T) {
	opt := &mockOptimizer{}
	useTestEnv(t, opt)

	opt.On("Optimize", mock.Anything, mock.Anything).Return(nil, transform.ErrSyntax)

	_, err := execute(t, "optimize", "/in/broken.js", "--strict")
	assert.ErrorIs(t, err, transform.ErrSyntax)

	_, err = execute(t, "optimize")
	assert.Error(t, err)
}

func TestRunCmd(t *testing.T) {
	opt := &mockOptimizer{}
	fs := useTestEnv(t, opt)
	require.NoError(t, afero.WriteFile(fs, "/repo/a.js", []byte("a();"), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/repo/b.js", []byte("b();"), 0o644))

	opt.On("Optimize", mock.Anything, mock.MatchedBy(func(opts optimizer.Options) bool {
		return opts.InputFilePath == "/repo/a.js"
	})).Return(&transform.Result{Content: "/*@__PURE__*/ a();"}, nil)
	opt.On("Optimize", mock.Anything, mock.MatchedBy(func(opts optimizer.Options) bool {
		return opts.InputFilePath == "/repo/b.js"
	})).Return(&transform.Result{EmitSkipped: true}, nil)

	out, err := execute(t, "run", "/repo", "--all", "-p", "2", "--out-dir", "/out", "--report", "/reports/run.yaml")
	require.NoError(t, err)
	opt.AssertExpectations(t)

	assert.Contains(t, out, "/repo/a.js")
	assert.Contains(t, out, "1 optimized, 1 unchanged, 0 skipped, 0 failed")

	written, err := afero.ReadFile(fs, "/out/a.js")
	require.NoError(t, err)
	assert.Equal(t, "/*@__PURE__*/ a();", string(written))

	report, err := analyzer.ReadReport(fs, "/reports/run.yaml")
	require.NoError(t, err)
	assert.Equal(t, 2, report.Totals.Files)
	assert.Equal(t, "/out", report.OutDir)

	summary, err := execute(t, "summary", "/reports/run.yaml")
	require.NoError(t, err)
	assert.Contains(t, summary, "/repo/b.js")
}

func TestRunCmd_GatesOnTypings(t *testing.T) {
	opt := &mockOptimizer{}
	fs := useTestEnv(t, opt)
	require.NoError(t, afero.WriteFile(fs, "/repo/node_modules/plain/package.json", []byte(`{"name":"plain"}`), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/repo/node_modules/plain/index.js", []byte("a();"), 0o644))

	out, err := execute(t, "run", "/repo")
	require.NoError(t, err)
	opt.AssertNotCalled(t, "Optimize", mock.Anything, mock.Anything)
	assert.Contains(t, out, "0 optimized, 0 unchanged, 1 skipped, 0 failed")
}

func TestRunCmd_StrictFailure(t *testing.T) {
	opt := &mockOptimizer{}
	fs := useTestEnv(t, opt)
	require.NoError(t, afero.WriteFile(fs, "/repo/a.js", []byte("a("), 0o644))

	opt.On("Optimize", mock.Anything, mock.Anything).Return(nil, transform.ErrSyntax)

	out, err := execute(t, "run", "/repo", "--all", "--strict")
	assert.ErrorIs(t, err, analyzer.ErrFilesFailed)
	assert.Contains(t, out, "1 failed")
}

func TestSummaryCmd_MissingReport(t *testing.T) {
	useTestEnv(t, nil)

	_, err := execute(t, "summary", "/missing.yaml")
	assert.Error(t, err)
}
