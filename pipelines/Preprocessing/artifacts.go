package preprocessing

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/weatherops/raincast/pipelines"
)

// Artifact file names shared by the pipeline stages
const (
	XTrainFile   = "X_train.json"
	XTestFile    = "X_test.json"
	YTrainFile   = "y_train.json"
	YTestFile    = "y_test.json"
	EncodersFile = "encoders.json"
)

// Matrix is a persisted feature partition. Columns records the exact
// feature order the model must be fit and queried with.
type Matrix struct {
	Columns []string    `json:"columns"`
	Rows    [][]float64 `json:"rows"`
}

// Vector is a persisted target partition
type Vector struct {
	Name   string    `json:"name"`
	Values []float64 `json:"values"`
}

// SaveMatrix writes a feature partition as JSON, overwriting any
// existing artifact at that path
func SaveMatrix(path string, m *Matrix) error {
	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("failed to marshal matrix: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write matrix: %w", err)
	}
	return nil
}

// LoadMatrix reads a feature partition written by preprocessing
func LoadMatrix(path string) (*Matrix, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, pipelines.NewDataLoadError(path, "failed to read matrix artifact", err)
	}
	var m Matrix
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, pipelines.NewDataLoadError(path, "failed to unmarshal matrix artifact", err)
	}
	if len(m.Columns) == 0 || len(m.Rows) == 0 {
		return nil, pipelines.NewDataLoadError(path, "matrix artifact is empty", nil)
	}
	for i, row := range m.Rows {
		if len(row) != len(m.Columns) {
			return nil, pipelines.NewDataLoadError(path,
				fmt.Sprintf("row %d has %d values, expected %d", i, len(row), len(m.Columns)), nil)
		}
	}
	return &m, nil
}

// SaveVector writes a target partition as JSON
func SaveVector(path string, v *Vector) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal vector: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write vector: %w", err)
	}
	return nil
}

// LoadVector reads a target partition written by preprocessing
func LoadVector(path string) (*Vector, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, pipelines.NewDataLoadError(path, "failed to read vector artifact", err)
	}
	var v Vector
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, pipelines.NewDataLoadError(path, "failed to unmarshal vector artifact", err)
	}
	if len(v.Values) == 0 {
		return nil, pipelines.NewDataLoadError(path, "vector artifact is empty", nil)
	}
	return &v, nil
}
