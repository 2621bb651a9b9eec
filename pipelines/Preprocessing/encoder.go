package preprocessing

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/weatherops/raincast/pipelines"
)

// LabelEncoder maps the distinct string categories of one column to dense
// integer codes. Codes are assigned over the sorted unique values, so
// re-fitting on the same data always reproduces the same mapping.
type LabelEncoder struct {
	Column  string   `json:"column"`
	Classes []string `json:"classes"` // sorted; code = index
}

// FitLabelEncoder builds an encoder from the observed values of a column.
// Missing tokens are ignored; they must be filtered out before encoding.
func FitLabelEncoder(column string, values []string) *LabelEncoder {
	seen := make(map[string]bool)
	unique := []string{}
	for _, v := range values {
		if IsMissing(v) {
			continue
		}
		if !seen[v] {
			seen[v] = true
			unique = append(unique, v)
		}
	}
	sort.Strings(unique)
	return &LabelEncoder{Column: column, Classes: unique}
}

// Encode returns the integer code of a category. A category outside the
// fitted mapping has no defined code and yields a TransformationError.
func (le *LabelEncoder) Encode(value string) (int, error) {
	i := sort.SearchStrings(le.Classes, value)
	if i < len(le.Classes) && le.Classes[i] == value {
		return i, nil
	}
	return 0, pipelines.NewTransformationError(le.Column, value, "category not in fitted mapping", nil)
}

// Decode returns the category string for a code
func (le *LabelEncoder) Decode(code int) (string, error) {
	if code < 0 || code >= len(le.Classes) {
		return "", pipelines.NewTransformationError(le.Column, fmt.Sprintf("%d", code), "code outside fitted mapping", nil)
	}
	return le.Classes[code], nil
}

// Contains reports whether a category is part of the fitted mapping
func (le *LabelEncoder) Contains(value string) bool {
	i := sort.SearchStrings(le.Classes, value)
	return i < len(le.Classes) && le.Classes[i] == value
}

// NumClasses returns the number of fitted categories
func (le *LabelEncoder) NumClasses() int {
	return len(le.Classes)
}

// EncoderSet is the single mapping artifact shared by training and
// serving. It also records the feature column order of the partitions so
// serving can assemble vectors in the exact shape the model was fit on.
type EncoderSet struct {
	Encoders     map[string]*LabelEncoder `json:"encoders"`
	FeatureOrder []string                 `json:"feature_order"`
	TargetColumn string                   `json:"target_column"`
}

// Encoder returns the encoder fitted for a column, or nil
func (es *EncoderSet) Encoder(column string) *LabelEncoder {
	return es.Encoders[column]
}

// Save writes the encoder set as JSON
func (es *EncoderSet) Save(path string) error {
	data, err := json.MarshalIndent(es, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal encoder set: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write encoder set: %w", err)
	}
	return nil
}

// LoadEncoderSet reads an encoder set persisted by preprocessing
func LoadEncoderSet(path string) (*EncoderSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, pipelines.NewDataLoadError(path, "failed to read encoder set", err)
	}
	var es EncoderSet
	if err := json.Unmarshal(data, &es); err != nil {
		return nil, pipelines.NewDataLoadError(path, "failed to unmarshal encoder set", err)
	}
	return &es, nil
}
