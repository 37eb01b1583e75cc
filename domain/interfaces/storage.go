package interfaces

import "monaco_verification/domain/entities"

// Storage persists evidence artifacts and run reports
type Storage interface {
	// BeginRun resets the per-run artifact bookkeeping
	BeginRun()

	// SaveArtifact writes data to path and returns the resolved location
	SaveArtifact(path string, data []byte) (string, error)

	// SaveReport writes the report and returns its location
	SaveReport(report *entities.Report) (string, error)

	// LoadReport loads the last report saved for a scenario
	LoadReport(scenario string) (*entities.Report, error)
}
