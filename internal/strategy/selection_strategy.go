package strategy

import (
	"image"

	"github.com/anime-shed/table-cropper-go/pkg/models"
)

// SelectionStrategy picks the candidate image a flow continues with
type SelectionStrategy interface {
	Select(candidates models.CandidateSet) (name string, img image.Image, ok bool)
	GetStrategyName() string
}

// DefaultPriority prefers the most corrected candidate available
var DefaultPriority = []string{
	models.CandidatePerspectiveCorrected,
	models.CandidateCroppedTable,
	models.CandidateOriginal,
}

// PrioritySelectionStrategy returns the first present candidate in priority order
type PrioritySelectionStrategy struct {
	priority []string
}

// NewPrioritySelectionStrategy falls back to DefaultPriority when priority is empty
func NewPrioritySelectionStrategy(priority []string) SelectionStrategy {
	if len(priority) == 0 {
		priority = DefaultPriority
	}
	return &PrioritySelectionStrategy{priority: append([]string(nil), priority...)}
}

// Select returns ok=false when none of the prioritized candidates carry an image
func (s *PrioritySelectionStrategy) Select(candidates models.CandidateSet) (string, image.Image, bool) {
	for _, name := range s.priority {
		if img, ok := candidates.Get(name); ok {
			return name, img, true
		}
	}
	return "", nil, false
}

// GetStrategyName returns the strategy name
func (s *PrioritySelectionStrategy) GetStrategyName() string {
	return "priority_selection"
}
