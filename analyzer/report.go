package analyzer

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// WriteReport stores report as YAML at path.
func WriteReport(fs afero.Fs, path string, report *Report) error {
	data, err := yaml.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}

	if err := fs.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create report directory: %w", err)
	}
	if err := afero.WriteFile(fs, path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write report %s: %w", path, err)
	}

	return nil
}

// ReadReport loads a report written by WriteReport.
func ReadReport(fs afero.Fs, path string) (*Report, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read report %s: %w", path, err)
	}

	var report Report
	if err := yaml.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("failed to decode report %s: %w", path, err)
	}

	return &report, nil
}
