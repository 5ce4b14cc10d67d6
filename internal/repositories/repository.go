package repositories

import "context"

// Repository groups the adapters the services talk to
type Repository interface {
	Users() UserStore
	Identity() IdentityProvider
	Sessions() SessionStore
	Blobs() BlobStore

	// Health check
	Ping(ctx context.Context) error

	// Close connections
	Close() error
}

// RepositoryManager interface for managing repository lifecycle
type RepositoryManager interface {
	// Initialize repositories with their backend connections
	Initialize(ctx context.Context) error

	// Get repository instance
	GetRepository() Repository

	// Health check for all repositories
	HealthCheck(ctx context.Context) error

	// Graceful shutdown
	Shutdown(ctx context.Context) error
}
