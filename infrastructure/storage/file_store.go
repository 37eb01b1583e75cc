package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"monaco_verification/domain/entities"
	"monaco_verification/domain/interfaces"
)

var (
	// ErrArtifactExists is returned when a path is written twice in one run
	ErrArtifactExists = errors.New("artifact already written in this run")
	// ErrEmptyArtifact is returned for zero-length payloads
	ErrEmptyArtifact = errors.New("artifact is empty")
	// ErrReportNotFound is returned when no report was saved for a scenario
	ErrReportNotFound = errors.New("report not found")
)

type fileStore struct {
	artifactDir string
	mu          sync.Mutex
	written     map[string]bool
}

// NewFileStore - creates storage rooted at artifactDir
func NewFileStore(artifactDir string) (interfaces.Storage, error) {
	if err := os.MkdirAll(artifactDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create artifact directory: %w", err)
	}
	return &fileStore{
		artifactDir: artifactDir,
		written:     make(map[string]bool),
	}, nil
}

// BeginRun - forgets which artifacts the previous run wrote
func (s *fileStore) BeginRun() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.written = make(map[string]bool)
}

// SaveArtifact - writes an evidence file, overwriting files from earlier runs
func (s *fileStore) SaveArtifact(path string, data []byte) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("%s: %w", path, ErrEmptyArtifact)
	}
	resolved := s.resolve(path)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.written[resolved] {
		return "", fmt.Errorf("%s: %w", resolved, ErrArtifactExists)
	}

	if err := os.MkdirAll(filepath.Dir(resolved), 0755); err != nil {
		return "", fmt.Errorf("failed to create directory for %s: %w", resolved, err)
	}
	if err := os.WriteFile(resolved, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", resolved, err)
	}
	s.written[resolved] = true
	return resolved, nil
}

// SaveReport - writes the run report as indented JSON
func (s *fileStore) SaveReport(report *entities.Report) (string, error) {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode report: %w", err)
	}
	path := s.reportPath(report.Scenario)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write report: %w", err)
	}
	return path, nil
}

// LoadReport - loads the last report saved for a scenario
func (s *fileStore) LoadReport(scenario string) (*entities.Report, error) {
	path := s.reportPath(scenario)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%s: %w", path, ErrReportNotFound)
		}
		return nil, err
	}

	var report entities.Report
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return &report, nil
}

func (s *fileStore) resolve(path string) string {
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(s.artifactDir, path)
}

func (s *fileStore) reportPath(scenario string) string {
	return filepath.Join(s.artifactDir, "report-"+sanitizeFilename(scenario)+".json")
}

// sanitizeFilename - creates a safe file name component
func sanitizeFilename(name string) string {
	if name == "" {
		return "unnamed"
	}
	unsafe := []string{"/", "\\", ":", "*", "?", "\"", "<", ">", "|", " "}
	for _, char := range unsafe {
		name = strings.ReplaceAll(name, char, "_")
	}
	return name
}
