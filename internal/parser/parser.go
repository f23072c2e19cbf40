package parser

import "vcheck/internal/domain"

// Parser extracts events from a collaborator's raw output
type Parser interface {
	ParseEvents(output string) []domain.Event
}
