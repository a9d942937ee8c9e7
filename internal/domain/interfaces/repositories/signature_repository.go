// Package repositories defines interfaces for data access layers.
package repositories

import (
	"context"

	"github.com/ochairo/specimen/internal/domain/entities"
)

// SignatureRepository loads the packer signature database
type SignatureRepository interface {
	// LoadSignatures reads, authenticates and parses the database.
	// The result is shared read-only for the lifetime of the process.
	LoadSignatures(ctx context.Context) (*entities.SignatureDatabase, error)
}
