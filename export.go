package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// WriteExportFile stores one CSV export under the export directory, named by
// register and date, and returns the written path.
func WriteExportFile(content, outputDir, register string, exportDate time.Time) (string, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return "", err
	}
	filename := fmt.Sprintf("%s_%s.csv", sanitizeFilename(register), exportDate.Format("20060102"))
	path := filepath.Join(outputDir, filename)
	return path, os.WriteFile(path, []byte(content), 0644)
}

func sanitizeFilename(s string) string {
	replacer := strings.NewReplacer("/", "_", "\\", "_", ":", "_", "*", "_", "?", "_", "\"", "_", "<", "_", ">", "_", "|", "_")
	return replacer.Replace(s)
}
