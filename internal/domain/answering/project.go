package answering

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/skillbase/backend/internal/domain/shared"
)

// ProjectStatus represents the processing status of a project
type ProjectStatus string

const (
	ProjectStatusDraft      ProjectStatus = "draft"
	ProjectStatusProcessing ProjectStatus = "processing"
	ProjectStatusCompleted  ProjectStatus = "completed"
	ProjectStatusError      ProjectStatus = "error"
)

// IsValid checks if the status is valid
func (s ProjectStatus) IsValid() bool {
	switch s {
	case ProjectStatusDraft, ProjectStatusProcessing, ProjectStatusCompleted, ProjectStatusError:
		return true
	}
	return false
}

// IsTerminal returns true if this is a terminal state for the pipeline
func (s ProjectStatus) IsTerminal() bool {
	return s == ProjectStatusCompleted || s == ProjectStatusError
}

// ModelSpeed selects the generation speed/quality trade-off
type ModelSpeed string

const (
	ModelSpeedFast     ModelSpeed = "fast"
	ModelSpeedBalanced ModelSpeed = "balanced"
	ModelSpeedQuality  ModelSpeed = "quality"
)

// IsValid checks if the model speed is valid
func (m ModelSpeed) IsValid() bool {
	switch m {
	case ModelSpeedFast, ModelSpeedBalanced, ModelSpeedQuality:
		return true
	}
	return false
}

// Batch size bounds for a processing run
const (
	MinBatchSize = 5
	MaxBatchSize = 50
)

// ProjectConfig is the typed configuration blob carried by a project.
// Stored as a versioned JSON document, never as a free-form map.
type ProjectConfig struct {
	LibraryID      uuid.UUID  `json:"library_id"`
	CustomerID     *uuid.UUID `json:"customer_id,omitempty"`
	BatchSize      int        `json:"batch_size"`
	ModelSpeed     ModelSpeed `json:"model_speed"`
	PromptOverride string     `json:"prompt_override,omitempty"`
}

// Project is a named collection of questions answered in bulk.
type Project struct {
	shared.OwnedAggregateRoot
	Name       string        `json:"name"`
	CustomerID *uuid.UUID    `json:"customer_id,omitempty"`
	Status     ProjectStatus `json:"status"`
	Config     ProjectConfig `json:"config"`
}

// NewProject creates a project in DRAFT with the given configuration
func NewProject(ownerID uuid.UUID, name string, config ProjectConfig) (*Project, error) {
	if name == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Project name cannot be empty")
	}
	if config.LibraryID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_LIBRARY", "Project requires a library")
	}
	if config.BatchSize == 0 {
		config.BatchSize = MinBatchSize
	}
	if config.BatchSize < MinBatchSize || config.BatchSize > MaxBatchSize {
		return nil, shared.NewDomainError("INVALID_BATCH_SIZE",
			fmt.Sprintf("Batch size must be between %d and %d", MinBatchSize, MaxBatchSize))
	}
	if config.ModelSpeed == "" {
		config.ModelSpeed = ModelSpeedBalanced
	}
	if !config.ModelSpeed.IsValid() {
		return nil, shared.NewDomainError("INVALID_MODEL_SPEED", fmt.Sprintf("Invalid model speed: %s", config.ModelSpeed))
	}

	return &Project{
		OwnedAggregateRoot: shared.NewOwnedAggregateRoot(ownerID),
		Name:               name,
		CustomerID:         config.CustomerID,
		Status:             ProjectStatusDraft,
		Config:             config,
	}, nil
}

// BeginProcessing transitions DRAFT -> PROCESSING. A project already in
// PROCESSING is rejected so duplicate dispatches cannot overlap.
func (p *Project) BeginProcessing() error {
	if p.Status == ProjectStatusProcessing {
		return shared.ErrAlreadyProcessing
	}
	if p.Status != ProjectStatusDraft {
		return shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("Cannot start processing from state: %s", p.Status))
	}
	p.Status = ProjectStatusProcessing
	p.Touch()
	p.IncrementVersion()
	return nil
}

// CompleteProcessing transitions PROCESSING -> COMPLETED. Callers must have
// verified that every row is terminal first.
func (p *Project) CompleteProcessing() error {
	if p.Status != ProjectStatusProcessing {
		return shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("Cannot complete from state: %s", p.Status))
	}
	p.Status = ProjectStatusCompleted
	p.Touch()
	p.IncrementVersion()
	return nil
}

// FailProcessing transitions PROCESSING -> ERROR for failures that cannot be
// reverted cleanly. Visible only through the status polling surface.
func (p *Project) FailProcessing() error {
	if p.Status != ProjectStatusProcessing {
		return shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("Cannot fail from state: %s", p.Status))
	}
	p.Status = ProjectStatusError
	p.Touch()
	p.IncrementVersion()
	return nil
}

// RevertToDraft is the revert transition after a run-fatal generation failure:
// PROCESSING -> DRAFT, leaving the project eligible for a fresh dispatch.
func (p *Project) RevertToDraft() error {
	if p.Status != ProjectStatusProcessing {
		return shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("Cannot revert from state: %s", p.Status))
	}
	p.Status = ProjectStatusDraft
	p.Touch()
	p.IncrementVersion()
	return nil
}
