package optimizer

import (
	"context"
	"os"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hannajonsd/build-optimizer/transform"
)

const (
	imports = `import { __decorate, __metadata } from "tslib";
import { Injectable, Input, Component } from '@disco3/core';
`
	clazz      = "var Clazz = (function () { function Clazz() { } return Clazz; }());"
	decorators = "Clazz.decorators = [ { type: Injectable } ];"
)

func ptr[T any](v T) *T {
	return &v
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func optimize(t *testing.T, opts Options) *transform.Result {
	t.Helper()
	result, err := BuildOptimizer(context.Background(), opts)
	require.NoError(t, err)
	return result
}

func TestBuildOptimizerSideEffectFreeModules(t *testing.T) {
	input := imports + `var ChangeDetectionStrategy;
(function (ChangeDetectionStrategy) {
  ChangeDetectionStrategy[ChangeDetectionStrategy["OnPush"] = 0] = "OnPush";
  ChangeDetectionStrategy[ChangeDetectionStrategy["Default"] = 1] = "Default";
})(ChangeDetectionStrategy || (ChangeDetectionStrategy = {}));
` + clazz + `
` + decorators + `
Clazz.propDecorators = { 'ngIf': [{ type: Input }] };
Clazz.ctorParameters = function () { return [{type: Injectable}]; };
var ComponentClazz = (function () {
  function ComponentClazz() { }
  __decorate([
    Input(),
    __metadata("design:type", Object)
  ], Clazz.prototype, "selected", void 0);
  ComponentClazz = __decorate([
    Component({
      selector: 'app-root'
    }),
    __metadata("design:paramtypes", [Injectable])
  ], ComponentClazz);
  return ComponentClazz;
}());
var RenderType_MdOption = ɵcrt({ encapsulation: 2, styles: styles_MdOption });
`
	want := imports + `var ChangeDetectionStrategy = /*@__PURE__*/ (function (ChangeDetectionStrategy) {
  ChangeDetectionStrategy[ChangeDetectionStrategy["OnPush"] = 0] = "OnPush";
  ChangeDetectionStrategy[ChangeDetectionStrategy["Default"] = 1] = "Default";
  return ChangeDetectionStrategy;
})({});
var Clazz = /*@__PURE__*/ (function () { function Clazz() { } return Clazz; }());
var ComponentClazz = /*@__PURE__*/ (function () {
  function ComponentClazz() { }
  return ComponentClazz;
}());
var RenderType_MdOption = /*@__PURE__*/ ɵcrt({ encapsulation: 2, styles: styles_MdOption });
`

	paths := []string{
		"/node_modules/@disco3/core/fesm2015/core.js",
		"/node_modules/@disco3/core/esm2015/core.js",
		`\node_modules\@disco3\core\fesm2015\core.js`,
		`\node_modules\@disco3\core\esm2015\core.js`,
	}

	for _, path := range paths {
		t.Run(path, func(t *testing.T) {
			result := optimize(t, Options{Content: ptr(input), InputFilePath: path})
			assert.False(t, result.EmitSkipped)
			if diff := cmp.Diff(oneLine(want), oneLine(result.Content)); diff != "" {
				t.Errorf("unexpected output (-want +got):\n%s", diff)
			}

			again := optimize(t, Options{Content: ptr(result.Content), InputFilePath: path})
			assert.True(t, again.EmitSkipped, "second run should not change anything")
		})
	}
}

func TestBuildOptimizerSkipsTslibHelpers(t *testing.T) {
	for _, helper := range []string{"__decorate", "__decorate$1"} {
		t.Run(helper, func(t *testing.T) {
			input := `class LanguageState {
}

LanguageState.ctorParameters = () => [
    { type: TranslateService },
    { type: undefined, decorators: [{ type: Inject, args: [LANGUAGE_CONFIG,] }] }
];

` + helper + `([
    Action(CheckLanguage),
    __metadata("design:type", Function),
    __metadata("design:paramtypes", [Object]),
    __metadata("design:returntype", void 0)
], LanguageState.prototype, "checkLanguage", null);
`
			want := `let LanguageState = /*@__PURE__*/ (() => {
class LanguageState {
}
` + helper + `([
    Action(CheckLanguage),
    __metadata("design:type", Function),
    __metadata("design:paramtypes", [Object]),
    __metadata("design:returntype", void 0)
], LanguageState.prototype, "checkLanguage", null);
return LanguageState;
})();
`
			result := optimize(t, Options{Content: ptr(input), IsSideEffectFree: ptr(true)})
			assert.False(t, result.EmitSkipped)
			assert.Equal(t, oneLine(want), oneLine(result.Content))
		})
	}
}

func TestBuildOptimizerLeavesClassesWithoutStatics(t *testing.T) {
	declaration := `import { Injectable } from '@disco3/core';

class Platform {
  constructor(_doc) {
  }
  init() {
  }
}
`
	input := declaration + `
Platform.decorators = [
    { type: Injectable }
];

/** @nocollapse */
Platform.ctorParameters = () => [
    { type: undefined, decorators: [{ type: Inject, args: [DOCUMENT] }] }
];
`
	result := optimize(t, Options{Content: ptr(input), IsSideEffectFree: ptr(true)})
	assert.False(t, result.EmitSkipped)
	assert.Equal(t, oneLine(declaration), oneLine(result.Content))
}

func TestBuildOptimizerConcreteScenario(t *testing.T) {
	input := "import { Injectable } from '@disco3/core';\nclass Foo{} Foo.decorators=[{type:Injectable}];\n"
	result := optimize(t, Options{Content: ptr(input)})
	assert.Equal(t, "import { Injectable } from '@disco3/core';\nclass Foo{}\n", result.Content)
}

func TestBuildOptimizerInvalidSyntax(t *testing.T) {
	input := "))))invalid syntax " + clazz + " " + decorators

	result := optimize(t, Options{Content: ptr(input)})
	assert.True(t, result.EmitSkipped)
	assert.Empty(t, result.Content)

	_, err := BuildOptimizer(context.Background(), Options{Content: ptr(input), Strict: true})
	require.ErrorIs(t, err, transform.ErrSyntax)
}

func TestBuildOptimizerInput(t *testing.T) {
	t.Run("requires content or a path", func(t *testing.T) {
		_, err := BuildOptimizer(context.Background(), Options{})
		require.ErrorIs(t, err, ErrNoInput)
	})

	t.Run("skips empty content", func(t *testing.T) {
		result := optimize(t, Options{Content: ptr("")})
		assert.True(t, result.EmitSkipped)
	})

	t.Run("reads the input file", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		path := "/node_modules/@disco3/common/index.js"
		require.NoError(t, afero.WriteFile(fs, path, []byte("console.log(42);"), 0o644))

		result := optimize(t, Options{InputFilePath: path, Fs: fs})
		assert.Equal(t, "/*@__PURE__*/ console.log(42);", result.Content)
	})

	t.Run("classifies by the original path", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		require.NoError(t, afero.WriteFile(fs, "/tmp/copy.js", []byte("console.log(42);"), 0o644))

		result := optimize(t, Options{
			InputFilePath:    "/tmp/copy.js",
			OriginalFilePath: "/node_modules/rxjs/operators.js",
			Fs:               fs,
		})
		assert.Equal(t, "/*@__PURE__*/ console.log(42);", result.Content)
	})

	t.Run("reports read failures", func(t *testing.T) {
		_, err := BuildOptimizer(context.Background(), Options{InputFilePath: "/missing.js", Fs: afero.NewMemMapFs()})
		require.ErrorIs(t, err, os.ErrNotExist)
	})
}

func TestBuildOptimizerKnownSideEffectFreeModules(t *testing.T) {
	input := "console.log(42);"

	tests := []struct {
		path    string
		skipped bool
	}{
		{"/node_modules/@disco3/core/@disco3/core.es5.js", false},
		{"/node_modules/rxjs/operators/map.js", false},
		{"/node_modules/other-package/core.es5.js", true},
		{"/node_modules/other_lib/index.js", true},
		{"/node_modules/rxjs/add/operator/map.js", true},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			result := optimize(t, Options{Content: ptr(input), InputFilePath: tt.path})
			assert.Equal(t, tt.skipped, result.EmitSkipped)
			if !tt.skipped {
				assert.Contains(t, result.Content, "/*@__PURE__*/ console.log(42);")
			}
		})
	}

	result := optimize(t, Options{Content: ptr(input), InputFilePath: "/node_modules/@disco3/core/index.js", IsSideEffectFree: ptr(false)})
	assert.True(t, result.EmitSkipped)
}

func TestBuildOptimizerSourceMaps(t *testing.T) {
	input := oneLine(imports + clazz + " " + decorators)

	t.Run("not produced by default", func(t *testing.T) {
		result := optimize(t, Options{Content: ptr(input)})
		assert.False(t, result.EmitSkipped)
		assert.Nil(t, result.SourceMap)
	})

	t.Run("embeds the original source", func(t *testing.T) {
		result := optimize(t, Options{Content: ptr(input), EmitSourceMap: true})
		require.NotNil(t, result.SourceMap)
		assert.Equal(t, []string{input}, result.SourceMap.SourcesContent)
	})

	t.Run("uses empty names without paths", func(t *testing.T) {
		result := optimize(t, Options{Content: ptr(input), EmitSourceMap: true})
		require.NotNil(t, result.SourceMap)
		assert.Equal(t, "", result.SourceMap.File)
		assert.Equal(t, "", result.SourceMap.Sources[0])
		assert.NotContains(t, result.Content, "sourceMappingURL")
	})

	t.Run("uses the given paths", func(t *testing.T) {
		result := optimize(t, Options{
			Content:        ptr(input),
			EmitSourceMap:  true,
			InputFilePath:  "/path/to/file.js",
			OutputFilePath: "/path/to/file.bo.js",
		})
		require.NotNil(t, result.SourceMap)
		assert.Equal(t, "/path/to/file.bo.js", result.SourceMap.File)
		assert.Equal(t, "/path/to/file.js", result.SourceMap.Sources[0])
		assert.Contains(t, result.Content, "sourceMappingURL=/path/to/file.bo.js.map")
	})
}

func TestClassify(t *testing.T) {
	tests := []struct {
		path string
		want transform.Classification
	}{
		{"/node_modules/@disco3/core/fesm2015/core.js", transform.Classification{IsFrameworkCoreFile: true, IsSideEffectFree: true}},
		{`C:\app\node_modules\@disco3\core\esm2015\src\di.js`, transform.Classification{IsFrameworkCoreFile: true, IsSideEffectFree: true}},
		{"/node_modules/@disco3/core/bundles/core.umd.js", transform.Classification{IsSideEffectFree: true}},
		{"/node_modules/@disco3/platform-browser/fesm2015/platform-browser.js", transform.Classification{IsSideEffectFree: true}},
		{"/node_modules/@disco3/cdk/a11y.js", transform.Classification{IsSideEffectFree: true}},
		{"/node_modules/rxjs/add/operator/map.js", transform.Classification{}},
		{"/src/app/app.component.js", transform.Classification{}},
		{"", transform.Classification{}},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.path, nil, nil))
		})
	}

	assert.Equal(t,
		transform.Classification{IsFrameworkCoreFile: true},
		Classify("/src/app.js", ptr(false), ptr(true)))
}

func TestSelectPasses(t *testing.T) {
	names := func(content string, c transform.Classification) ([]string, bool) {
		passes, typeInfo := selectPasses(content, c)
		return passNames(passes), typeInfo
	}

	got, typeInfo := names("var a = 1;", transform.Classification{})
	assert.Equal(t, []string{"wrap-enums"}, got)
	assert.False(t, typeInfo)

	got, typeInfo = names("X.decorators = [];", transform.Classification{IsSideEffectFree: true})
	assert.Equal(t, []string{"scrub-file", "wrap-enums", "prefix-functions"}, got)
	assert.True(t, typeInfo)

	got, _ = names("var Clazz = (function () {\n    function Clazz() {\n    }\n    return Clazz;\n}());", transform.Classification{})
	assert.Equal(t, []string{"wrap-enums", "prefix-classes"}, got)
}
