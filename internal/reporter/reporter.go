package reporter

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"

	"getmac/internal/models"
)

// Reporter appends resolution results to a CSV file.
type Reporter struct {
	outputFile string
	logger     *slog.Logger
}

// New creates a new Reporter instance.
func New(outputFile string, logger *slog.Logger) *Reporter {
	return &Reporter{outputFile: outputFile, logger: logger.With(slog.String("component", "reporter"))}
}

// Write appends result, writing the header first when the file is new or empty.
func (r *Reporter) Write(result models.ResolveResult) error {
	file, err := os.OpenFile(r.outputFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("open output file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return fmt.Errorf("stat output file: %w", err)
	}

	writer := csv.NewWriter(file)
	if info.Size() == 0 {
		if err := writer.Write(models.CSVHeader()); err != nil {
			return fmt.Errorf("write CSV header: %w", err)
		}
	}
	if err := writer.Write(result.ToCSVRow()); err != nil {
		return fmt.Errorf("write record: %w", err)
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("flush records: %w", err)
	}

	r.logger.Debug("Result recorded.", "file", r.outputFile, "target", result.Target, "status", result.Status)
	return nil
}
