package analyzer

import (
	"path/filepath"
	"strings"
)

const nodeModules = "node_modules"

// packageFromPath derives the npm package name from the last node_modules
// segment of path. Files outside node_modules have no package name.
func packageFromPath(path string) string {
	parts := strings.Split(filepath.ToSlash(path), "/")

	idx := -1
	for i, part := range parts {
		if part == nodeModules {
			idx = i
		}
	}
	if idx < 0 || idx+1 >= len(parts)-1 {
		return ""
	}

	name := parts[idx+1]
	// Scoped packages start with @
	if strings.HasPrefix(name, "@") {
		if idx+2 >= len(parts)-1 {
			return ""
		}
		return name + "/" + parts[idx+2]
	}

	return name
}
