package analyzer

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"github.com/hannajonsd/build-optimizer/parser"
)

// GitignoreParser matches paths against the .gitignore at a run's root.
type GitignoreParser struct {
	rootDir          string
	ignorePatterns   []string
	negationPatterns []string
}

// NewGitignoreParser creates a new gitignore parser for the given directory
func NewGitignoreParser(fs afero.Fs, rootDir string) *GitignoreParser {
	gp := &GitignoreParser{
		rootDir: rootDir,
	}
	gp.loadGitignore(fs)
	return gp
}

// loadGitignore reads and parses the .gitignore file
func (gp *GitignoreParser) loadGitignore(fs afero.Fs) {
	file, err := fs.Open(filepath.Join(gp.rootDir, ".gitignore"))
	if err != nil {
		return
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if pattern, ok := strings.CutPrefix(line, "!"); ok {
			gp.negationPatterns = append(gp.negationPatterns, pattern)
		} else {
			gp.ignorePatterns = append(gp.ignorePatterns, line)
		}
	}
}

// ShouldIgnore checks if a path should be ignored based on .gitignore patterns
func (gp *GitignoreParser) ShouldIgnore(path string) bool {
	relPath, err := filepath.Rel(gp.rootDir, path)
	if err != nil || relPath == "." {
		return false
	}

	relPath = filepath.ToSlash(relPath)

	ignored := false
	for _, pattern := range gp.ignorePatterns {
		if matchPattern(pattern, relPath) {
			ignored = true
			break
		}
	}
	if !ignored {
		return false
	}

	for _, pattern := range gp.negationPatterns {
		if matchPattern(pattern, relPath) {
			return false
		}
	}

	return true
}

// matchPattern checks if a path matches a gitignore pattern
func matchPattern(pattern, path string) bool {
	pathParts := strings.Split(path, "/")

	if dir, ok := strings.CutSuffix(pattern, "/"); ok {
		if strings.HasPrefix(path, dir+"/") || path == dir {
			return true
		}
		for _, part := range pathParts {
			if matchSimplePattern(dir, part) {
				return true
			}
		}
		return false
	}

	if anchored, ok := strings.CutPrefix(pattern, "/"); ok {
		return matchSimplePattern(anchored, path) || strings.HasPrefix(path, anchored+"/")
	}

	for i := range pathParts {
		if matchSimplePattern(pattern, strings.Join(pathParts[i:], "/")) {
			return true
		}
	}

	if !strings.Contains(pattern, "/") {
		for _, part := range pathParts {
			if matchSimplePattern(pattern, part) {
				return true
			}
		}
	}

	return false
}

// matchSimplePattern handles basic pattern matching
func matchSimplePattern(pattern, text string) bool {
	if pattern == text {
		return true
	}

	if strings.Contains(pattern, "*") {
		return matchWildcard(pattern, text)
	}

	return false
}

// matchWildcard performs basic wildcard pattern matching
func matchWildcard(pattern, text string) bool {
	if pattern == "*" {
		return true
	}

	if strings.HasPrefix(pattern, "*") && strings.HasSuffix(pattern, "*") {
		return strings.Contains(text, pattern[1:len(pattern)-1])
	}

	if suffix, ok := strings.CutPrefix(pattern, "*"); ok {
		return strings.HasSuffix(text, suffix)
	}

	if prefix, ok := strings.CutSuffix(pattern, "*"); ok {
		return strings.HasPrefix(text, prefix)
	}

	return false
}

// findSourceFiles finds all JavaScript files under root. Hidden directories,
// ignored paths and skip are not descended into.
func findSourceFiles(fs afero.Fs, root, skip string) ([]string, error) {
	var sourceFiles []string

	gitignoreParser := NewGitignoreParser(fs, root)

	err := afero.Walk(fs, root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if info.IsDir() {
			if path == root {
				return nil
			}
			if strings.HasPrefix(info.Name(), ".") || path == skip || gitignoreParser.ShouldIgnore(path) {
				return filepath.SkipDir
			}
			return nil
		}

		if parser.IsSupported(path) && !gitignoreParser.ShouldIgnore(path) {
			sourceFiles = append(sourceFiles, path)
		}

		return nil
	})

	return sourceFiles, err
}
