package pipelines

import "fmt"

// DataLoadError reports a source file or artifact that is missing, empty
// or malformed. It is fatal to the pipeline run that triggers it.
type DataLoadError struct {
	Path string
	Msg  string
	Err  error
}

// NewDataLoadError creates a DataLoadError for the given path
func NewDataLoadError(path, msg string, err error) *DataLoadError {
	return &DataLoadError{Path: path, Msg: msg, Err: err}
}

// Error implements the error interface
func (e *DataLoadError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("data load failed (%s): %s: %v", e.Path, e.Msg, e.Err)
	}
	return fmt.Sprintf("data load failed (%s): %s", e.Path, e.Msg)
}

// Unwrap returns the wrapped cause
func (e *DataLoadError) Unwrap() error { return e.Err }

// TransformationError reports an encoding or date-decomposition step that
// encountered a value it cannot map. Fatal to preprocessing.
type TransformationError struct {
	Column string
	Value  string
	Msg    string
	Err    error
}

// NewTransformationError creates a TransformationError for a column/value pair
func NewTransformationError(column, value, msg string, err error) *TransformationError {
	return &TransformationError{Column: column, Value: value, Msg: msg, Err: err}
}

// Error implements the error interface
func (e *TransformationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("transformation failed (column %s, value %q): %s: %v", e.Column, e.Value, e.Msg, e.Err)
	}
	return fmt.Sprintf("transformation failed (column %s, value %q): %s", e.Column, e.Value, e.Msg)
}

// Unwrap returns the wrapped cause
func (e *TransformationError) Unwrap() error { return e.Err }

// TrainingError reports a fit that cannot proceed, usually shape-mismatched
// inputs. Fatal to the training stage; the run is never retried.
type TrainingError struct {
	Msg string
	Err error
}

// NewTrainingError creates a TrainingError
func NewTrainingError(msg string, err error) *TrainingError {
	return &TrainingError{Msg: msg, Err: err}
}

// Error implements the error interface
func (e *TrainingError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("training failed: %s: %v", e.Msg, e.Err)
	}
	return fmt.Sprintf("training failed: %s", e.Msg)
}

// Unwrap returns the wrapped cause
func (e *TrainingError) Unwrap() error { return e.Err }

// InferenceError reports a feature vector that does not match the model's
// expected shape at serving time. Recovered at the request boundary and
// surfaced to the user as a generic failure, never a stack trace.
type InferenceError struct {
	Msg string
	Err error
}

// NewInferenceError creates an InferenceError
func NewInferenceError(msg string, err error) *InferenceError {
	return &InferenceError{Msg: msg, Err: err}
}

// Error implements the error interface
func (e *InferenceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("inference failed: %s: %v", e.Msg, e.Err)
	}
	return fmt.Sprintf("inference failed: %s", e.Msg)
}

// Unwrap returns the wrapped cause
func (e *InferenceError) Unwrap() error { return e.Err }
