package parser

import (
	"path/filepath"
	"strings"
)

// IsSupported reports whether filePath holds JavaScript the parser accepts.
func IsSupported(filePath string) bool {
	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".js", ".mjs", ".cjs":
		return true
	}
	return false
}

// NewParser returns the parser used for compiled modules.
func NewParser() (Parser, error) {
	p, err := NewJavaScriptParser()
	if err != nil {
		return nil, err
	}
	return p, nil
}
