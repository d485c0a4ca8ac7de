package features

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/parquet-go/parquet-go"

	"github.com/imagesense/sense-bench/internal/pkg/errors"
)

// featureRow is one record of a parquet feature dump.
type featureRow struct {
	ID     int64     `parquet:"id"`
	Vector []float32 `parquet:"vector"`
}

// jsonRow is one record of a JSON feature dump.
type jsonRow struct {
	ID     int64     `json:"id"`
	Vector []float64 `json:"vector"`
}

// Load reads a feature dump, dispatching on the file extension.
// Supported formats: .parquet (id + vector columns) and .json (array of
// {"id": ..., "vector": [...]} records).
func Load(path string) (*Store, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".parquet":
		return LoadParquet(path)
	case ".json":
		return LoadJSON(path)
	default:
		return nil, errors.ValidationError("unsupported feature dump format: " + path).
			WithDetail("supported", ".parquet, .json")
	}
}

// LoadParquet reads a parquet feature dump.
func LoadParquet(path string) (*Store, error) {
	rows, err := parquet.ReadFile[featureRow](path)
	if err != nil {
		return nil, errors.Wrap(errors.CodeValidation, "reading parquet feature dump", err)
	}

	ids := make([]int64, len(rows))
	vectors := make([][]float64, len(rows))
	for i, row := range rows {
		ids[i] = row.ID
		vec := make([]float64, len(row.Vector))
		for j, v := range row.Vector {
			vec[j] = float64(v)
		}
		vectors[i] = vec
	}

	return New(ids, vectors)
}

// LoadJSON reads a JSON feature dump.
func LoadJSON(path string) (*Store, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(errors.CodeValidation, "opening feature dump", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, errors.Wrap(errors.CodeValidation, "reading feature dump", err)
	}

	var rows []jsonRow
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, errors.Wrap(errors.CodeValidation, "parsing feature dump", err)
	}

	ids := make([]int64, len(rows))
	vectors := make([][]float64, len(rows))
	for i, row := range rows {
		ids[i] = row.ID
		vectors[i] = row.Vector
	}

	return New(ids, vectors)
}
