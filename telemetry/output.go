package telemetry

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"

	"github.com/pthm-cable/fitness/config"
)

// OutputManager writes the step series and per-agent rows as CSV files in one
// directory. It implements Sink.
type OutputManager struct {
	dir        string
	modelFile  *os.File
	agentsFile *os.File

	// Track if headers have been written
	modelHeaderWritten  bool
	agentsHeaderWritten bool
}

// NewOutputManager creates a new output manager and initializes the output directory.
// Returns nil if dir is empty (output disabled).
func NewOutputManager(dir string) (*OutputManager, error) {
	if dir == "" {
		return nil, nil
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	f, err := os.Create(filepath.Join(dir, "model.csv"))
	if err != nil {
		return nil, fmt.Errorf("creating model.csv: %w", err)
	}

	return &OutputManager{dir: dir, modelFile: f}, nil
}

// WriteConfig saves the current configuration as YAML.
func (om *OutputManager) WriteConfig(cfg *config.Config) error {
	if om == nil {
		return nil
	}
	return cfg.WriteYAML(filepath.Join(om.dir, "config.yaml"))
}

// WriteStep writes a step record to model.csv.
func (om *OutputManager) WriteStep(stats StepStats) error {
	if om == nil {
		return nil
	}
	if err := writeRecords(om.modelFile, []StepStats{stats}, &om.modelHeaderWritten); err != nil {
		return fmt.Errorf("writing model row: %w", err)
	}
	return nil
}

// WriteAgents writes per-agent rows to agents.csv, creating it on first use.
func (om *OutputManager) WriteAgents(rows []AgentRow) error {
	if om == nil || len(rows) == 0 {
		return nil
	}
	if om.agentsFile == nil {
		f, err := os.Create(filepath.Join(om.dir, "agents.csv"))
		if err != nil {
			return fmt.Errorf("creating agents.csv: %w", err)
		}
		om.agentsFile = f
	}
	if err := writeRecords(om.agentsFile, rows, &om.agentsHeaderWritten); err != nil {
		return fmt.Errorf("writing agent rows: %w", err)
	}
	return nil
}

// writeRecords marshals records, including the header only on first write.
func writeRecords[T any](f *os.File, records []T, headerWritten *bool) error {
	if !*headerWritten {
		if err := gocsv.Marshal(records, f); err != nil {
			return err
		}
		*headerWritten = true
		return nil
	}
	return gocsv.MarshalWithoutHeaders(records, f)
}

// Dir returns the output directory path.
func (om *OutputManager) Dir() string {
	if om == nil {
		return ""
	}
	return om.dir
}

// Close flushes and closes all output files.
func (om *OutputManager) Close() error {
	if om == nil {
		return nil
	}

	var firstErr error

	if om.modelFile != nil {
		if err := om.modelFile.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	if om.agentsFile != nil {
		if err := om.agentsFile.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	return firstErr
}

// ReadSteps loads a model.csv written by OutputManager.
func ReadSteps(path string) ([]StepStats, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	var steps []StepStats
	if err := gocsv.UnmarshalFile(f, &steps); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return steps, nil
}
