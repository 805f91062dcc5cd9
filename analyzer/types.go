package analyzer

// Status is the outcome of one file in a run.
type Status string

const (
	StatusOptimized Status = "optimized"
	StatusUnchanged Status = "unchanged"
	StatusSkipped   Status = "skipped"
	StatusFailed    Status = "failed"
)

// Options configures a directory run.
type Options struct {
	Root string
	// OutDir mirrors Root. Files are rewritten in place when empty.
	OutDir        string
	Parallel      int
	All           bool
	Strict        bool
	EmitSourceMap bool
}

// FileResult records what happened to a single file
type FileResult struct {
	Path     string `yaml:"path"`
	Output   string `yaml:"output,omitempty"`
	Package  string `yaml:"package,omitempty"`
	Status   Status `yaml:"status"`
	BytesIn  int    `yaml:"bytes_in"`
	BytesOut int    `yaml:"bytes_out"`
	Error    string `yaml:"error,omitempty"`
}

// Totals aggregates the file results of a run
type Totals struct {
	Files     int `yaml:"files"`
	Optimized int `yaml:"optimized"`
	Unchanged int `yaml:"unchanged"`
	Skipped   int `yaml:"skipped"`
	Failed    int `yaml:"failed"`
	BytesIn   int `yaml:"bytes_in"`
	BytesOut  int `yaml:"bytes_out"`
}

// Report is the outcome of a directory run, ordered by path
type Report struct {
	Root   string       `yaml:"root"`
	OutDir string       `yaml:"out_dir,omitempty"`
	Files  []FileResult `yaml:"files"`
	Totals Totals       `yaml:"totals"`
}

func (r *Report) tally() {
	r.Totals = Totals{Files: len(r.Files)}
	for _, f := range r.Files {
		r.Totals.BytesIn += f.BytesIn
		r.Totals.BytesOut += f.BytesOut
		switch f.Status {
		case StatusOptimized:
			r.Totals.Optimized++
		case StatusUnchanged:
			r.Totals.Unchanged++
		case StatusSkipped:
			r.Totals.Skipped++
		case StatusFailed:
			r.Totals.Failed++
		}
	}
}
