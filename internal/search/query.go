package search

import (
	"fmt"
	"strings"

	"github.com/hyperjump/tanya/internal/models"
)

// ProcessQuery trims query and checks it and k before any service is called.
// maxK of 0 disables the upper bound.
func ProcessQuery(query string, k, maxK int) (string, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return "", &models.ValidationError{Field: "query", Reason: "must not be empty"}
	}
	if err := ValidateK(k, maxK); err != nil {
		return "", err
	}
	return query, nil
}

// ValidateK checks 1 <= k <= maxK. maxK of 0 disables the upper bound.
func ValidateK(k, maxK int) error {
	if k < 1 {
		return &models.ValidationError{Field: "k", Reason: fmt.Sprintf("must be at least 1, got %d", k)}
	}
	if maxK > 0 && k > maxK {
		return &models.ValidationError{Field: "k", Reason: fmt.Sprintf("must be at most %d, got %d", maxK, k)}
	}
	return nil
}
