package service

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Toggler is implemented by repositories holding boolean flags.
type Toggler interface {
	Toggle(ctx context.Context, id primitive.ObjectID, field string, expected bool) error
}

// ToggleResult reports the value of a flag after a toggle attempt. When the
// attempt fails, Value is the value the client held before, so it can revert.
type ToggleResult struct {
	Field string `json:"field"`
	Value bool   `json:"value"`
}

// toggleFlag flips field from expected to !expected in a single attempt.
func toggleFlag(ctx context.Context, repo Toggler, allowed []string, id primitive.ObjectID, field string, expected bool) (ToggleResult, error) {
	if !contains(allowed, field) {
		return ToggleResult{Field: field, Value: expected}, invalidf("field %q cannot be toggled", field)
	}
	if err := repo.Toggle(ctx, id, field, expected); err != nil {
		return ToggleResult{Field: field, Value: expected}, err
	}
	return ToggleResult{Field: field, Value: !expected}, nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
