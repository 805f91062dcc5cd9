package optimizer

import (
	"regexp"

	"github.com/hannajonsd/build-optimizer/transform"
)

// Framework packages and rxjs are known to have no side effects at load
// time.
var knownSideEffectFreeModules = []*regexp.Regexp{
	regexp.MustCompile(`[\\/]node_modules[\\/]@disco3[\\/]animations[\\/]`),
	regexp.MustCompile(`[\\/]node_modules[\\/]@disco3[\\/]common[\\/]`),
	regexp.MustCompile(`[\\/]node_modules[\\/]@disco3[\\/]compiler[\\/]`),
	regexp.MustCompile(`[\\/]node_modules[\\/]@disco3[\\/]core[\\/]`),
	regexp.MustCompile(`[\\/]node_modules[\\/]@disco3[\\/]forms[\\/]`),
	regexp.MustCompile(`[\\/]node_modules[\\/]@disco3[\\/]http[\\/]`),
	regexp.MustCompile(`[\\/]node_modules[\\/]@disco3[\\/]platform-browser-dynamic[\\/]`),
	regexp.MustCompile(`[\\/]node_modules[\\/]@disco3[\\/]platform-browser[\\/]`),
	regexp.MustCompile(`[\\/]node_modules[\\/]@disco3[\\/]platform-webworker-dynamic[\\/]`),
	regexp.MustCompile(`[\\/]node_modules[\\/]@disco3[\\/]platform-webworker[\\/]`),
	regexp.MustCompile(`[\\/]node_modules[\\/]@disco3[\\/]router[\\/]`),
	regexp.MustCompile(`[\\/]node_modules[\\/]@disco3[\\/]upgrade[\\/]`),
	regexp.MustCompile(`[\\/]node_modules[\\/]@disco3[\\/]material[\\/]`),
	regexp.MustCompile(`[\\/]node_modules[\\/]@disco3[\\/]cdk[\\/]`),
	regexp.MustCompile(`[\\/]node_modules[\\/]rxjs[\\/]`),
}

// rxjs/add imports patch prototypes on purpose.
var sideEffectingModules = regexp.MustCompile(`[\\/]node_modules[\\/]rxjs[\\/]add[\\/]`)

var coreFiles = regexp.MustCompile(`[\\/]node_modules[\\/]@disco3[\\/]core[\\/]f?esm2015[\\/]`)

// IsKnownCoreFile reports whether path is a source file of the framework
// core package.
func IsKnownCoreFile(path string) bool {
	return path != "" && coreFiles.MatchString(path)
}

// IsKnownSideEffectFree reports whether path belongs to a package known to
// be free of module-load side effects.
func IsKnownSideEffectFree(path string) bool {
	if path == "" || sideEffectingModules.MatchString(path) {
		return false
	}
	for _, re := range knownSideEffectFreeModules {
		if re.MatchString(path) {
			return true
		}
	}
	return false
}

// Classify derives the classification of a file from its original path.
// Non-nil overrides win over the path tables.
func Classify(path string, sideEffectFree, core *bool) transform.Classification {
	c := transform.Classification{
		IsFrameworkCoreFile: IsKnownCoreFile(path),
		IsSideEffectFree:    IsKnownSideEffectFree(path),
	}
	if sideEffectFree != nil {
		c.IsSideEffectFree = *sideEffectFree
	}
	if core != nil {
		c.IsFrameworkCoreFile = *core
	}
	return c
}
