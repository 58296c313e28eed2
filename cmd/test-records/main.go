package main

import (
	"context"
	"flag"
	"os"

	"github.com/okian/intake/internal/testrecords"
	"github.com/okian/intake/pkg/logger"
)

// Default configuration constants.
const (
	defaultFiles = 1
	defaultRows  = 25
)

func main() {
	var (
		outputDir = flag.String("dir", "./input", "Directory the sample batches are written to")
		files     = flag.Int("files", defaultFiles, "Number of files to generate per format")
		rows      = flag.Int("rows", defaultRows, "Number of rows per file")
	)
	flag.Parse()

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return
	}

	ctx := context.Background()
	cfg := &testrecords.Config{
		OutputDir: *outputDir,
		Files:     *files,
		Rows:      *rows,
	}

	if err := testrecords.Generate(ctx, cfg); err != nil {
		logger.Get().Error(ctx, "sample generation failed", logger.Error(err))
		os.Exit(1)
	}
}
