package core

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ID represents a domain identifier
type ID string

// NewID creates a new unique identifier using UUID v7 for time-ordered generation
func NewID() ID {
	id, err := uuid.NewV7()
	if err != nil {
		// Fallback to v4 if v7 fails
		id = uuid.New()
	}
	return ID(id.String())
}

// String returns the string representation
func (id ID) String() string {
	return string(id)
}

// IsEmpty checks if the ID is empty
func (id ID) IsEmpty() bool {
	return id == ""
}

// Domain-specific ID types
type (
	ItemID       ID
	ArtifactID   ID
	ValidationID ID
	PlanID       ID
	CritiqueID   ID
	RunID        ID
)

// String conversions for domain IDs
func (id ItemID) String() string       { return ID(id).String() }
func (id ArtifactID) String() string   { return ID(id).String() }
func (id ValidationID) String() string { return ID(id).String() }
func (id PlanID) String() string       { return ID(id).String() }
func (id CritiqueID) String() string   { return ID(id).String() }
func (id RunID) String() string        { return ID(id).String() }

// ParseItemID parses a string into ItemID
func ParseItemID(s string) (ItemID, error) {
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("item ID cannot be empty")
	}
	return ItemID(s), nil
}

// ParseArtifactID parses a string into ArtifactID
func ParseArtifactID(s string) (ArtifactID, error) {
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("artifact ID cannot be empty")
	}
	return ArtifactID(s), nil
}

// ParsePlanID parses a string into PlanID
func ParsePlanID(s string) (PlanID, error) {
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("plan ID cannot be empty")
	}
	return PlanID(s), nil
}
