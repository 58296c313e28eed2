// Package testrecords generates well-formed raw provider batches for
// exercising the intake pipeline end to end.
package testrecords

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/okian/intake/pkg/logger"
)

// File permission constants.
const (
	sampleFilePerm = 0o600
	sampleDirPerm  = 0o750
)

// Score generation ranges.
const (
	tenScaleMax     = 10
	hundredScaleMax = 100
)

// Dimension names used for generated scores.
var dimensions = []string{"anxiety", "social", "attention", "memory", "processing"}

// Assessment categories used for generated rows.
var categories = []string{"behavioral", "cognitive", "developmental"}

// Config controls sample batch generation.
type Config struct {
	// OutputDir receives the generated files.
	OutputDir string
	// Files is the number of files generated per format.
	Files int
	// Rows is the number of rows per file.
	Rows int
}

// randomInt returns a random integer in [0, max] using crypto/rand.
func randomInt(max int64) int64 {
	n, _ := rand.Int(rand.Reader, big.NewInt(max+1))
	return n.Int64()
}

func pick(values []string) string {
	return values[randomInt(int64(len(values)-1))]
}

// Generate writes Files sample batches for each of the three provider
// formats into cfg.OutputDir.
func Generate(ctx context.Context, cfg *Config) error {
	if err := os.MkdirAll(cfg.OutputDir, sampleDirPerm); err != nil {
		return fmt.Errorf("create sample directory: %w", err)
	}

	log := logger.Get()
	for i := 0; i < cfg.Files; i++ {
		files := map[string][]byte{
			fmt.Sprintf("batch_%d.a", i): nestedBatch(cfg.Rows),
			fmt.Sprintf("batch_%d.b", i): flatBatch(cfg.Rows),
			fmt.Sprintf("batch_%d.c", i): delimitedBatch(cfg.Rows),
		}
		for name, data := range files {
			path := filepath.Join(cfg.OutputDir, name)
			if err := os.WriteFile(path, data, sampleFilePerm); err != nil {
				return fmt.Errorf("write sample file: %w", err)
			}
			log.Info(ctx, "wrote sample batch", logger.String("file", path))
		}
	}
	return nil
}

// nestedBatch builds a provider A file: an array of structured
// patient+assessment objects with 0-10 dimension scores.
func nestedBatch(rows int) []byte {
	batch := make([]map[string]any, 0, rows)
	for i := 0; i < rows; i++ {
		scores := map[string]int64{}
		for d := 0; d <= int(randomInt(2)); d++ {
			scores[pick(dimensions)] = randomInt(tenScaleMax)
		}
		batch = append(batch, map[string]any{
			"patient": map[string]any{
				"id":   "P-" + uuid.New().String(),
				"name": fmt.Sprintf("patient %d", i),
				"dob":  time.Now().AddDate(-int(randomInt(80)), 0, 0).Format("20060102"),
			},
			"assessment": map[string]any{
				"type":   pick(categories),
				"scores": scores,
				"notes":  "generated sample",
			},
		})
	}
	out, _ := json.Marshal(batch)
	return out
}

// flatBatch builds a provider B file: an array of flat key/value
// objects with score_* fields on the 0-10 scale.
func flatBatch(rows int) []byte {
	batch := make([]map[string]any, 0, rows)
	for i := 0; i < rows; i++ {
		row := map[string]any{
			"patient_id":      "P-" + uuid.New().String(),
			"patient_name":    fmt.Sprintf("patient %d", i),
			"assessment_type": pick(categories),
			"notes":           "generated sample",
		}
		for d := 0; d <= int(randomInt(2)); d++ {
			row["score_"+pick(dimensions)] = randomInt(tenScaleMax)
		}
		batch = append(batch, row)
	}
	out, _ := json.Marshal(batch)
	return out
}

// delimitedBatch builds a provider C file: header-first delimited text
// with one 0-100 metric per row.
func delimitedBatch(rows int) []byte {
	var b strings.Builder
	b.WriteString("patient_id,assessment_date,metric_name,metric_value,category\n")
	for i := 0; i < rows; i++ {
		fmt.Fprintf(&b, "P-%s,%s,%s,%d,%s\n",
			uuid.New().String(),
			time.Now().AddDate(0, 0, -int(randomInt(30))).Format("2006-01-02"),
			pick(dimensions),
			randomInt(hundredScaleMax),
			pick(categories),
		)
	}
	return []byte(b.String())
}
