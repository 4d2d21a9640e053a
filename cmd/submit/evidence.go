package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sngm3741/warranty-services/api/internal/evidence"
)

// readEvidence loads a file from disk. mimeType overrides detection.
func readEvidence(path, mimeType string) (*evidence.File, error) {
	if strings.TrimSpace(path) == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read evidence: %w", err)
	}
	name := filepath.Base(path)
	if mimeType == "" {
		mimeType = evidence.DetectMIME(name, data)
	}
	return &evidence.File{Name: name, MimeType: mimeType, Data: data}, nil
}
