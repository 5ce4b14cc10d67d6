package backend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/SAP-F-2025/school-dashboard/internal/cache"
	"github.com/SAP-F-2025/school-dashboard/internal/config"
	"github.com/SAP-F-2025/school-dashboard/internal/repositories"
	"github.com/SAP-F-2025/school-dashboard/internal/repositories/casdoor"
	"github.com/SAP-F-2025/school-dashboard/internal/repositories/firestoredb"
	"github.com/SAP-F-2025/school-dashboard/internal/repositories/memory"
	"github.com/SAP-F-2025/school-dashboard/internal/repositories/postgres"
	"github.com/SAP-F-2025/school-dashboard/internal/repositories/redisstore"
	"github.com/SAP-F-2025/school-dashboard/internal/repositories/storage"
)

// Repository implements the main Repository interface over the configured backends
type Repository struct {
	db              *gorm.DB
	redisClient     *redis.Client
	firestoreClient *firestore.Client
	cacheManager    *cache.CacheManager

	// Repository instances
	users    repositories.UserStore
	identity repositories.IdentityProvider
	sessions repositories.SessionStore
	blobs    repositories.BlobStore
}

// RepositoryConfig holds configuration for repository initialization
type RepositoryConfig struct {
	Config      *config.Config
	DB          *gorm.DB
	RedisClient *redis.Client
	FirebaseApp *firebase.App
	Logger      *slog.Logger
}

func (r *Repository) Users() repositories.UserStore {
	return r.users
}

func (r *Repository) Identity() repositories.IdentityProvider {
	return r.identity
}

func (r *Repository) Sessions() repositories.SessionStore {
	return r.sessions
}

func (r *Repository) Blobs() repositories.BlobStore {
	return r.blobs
}

// Ping checks the health of database and cache connections
func (r *Repository) Ping(ctx context.Context) error {
	if r.db != nil {
		sqlDB, err := r.db.DB()
		if err != nil {
			return fmt.Errorf("failed to get database instance: %w", err)
		}
		if err := sqlDB.PingContext(ctx); err != nil {
			return fmt.Errorf("database ping failed: %w", err)
		}
	}

	if r.redisClient != nil {
		if err := r.cacheManager.HealthCheck(ctx); err != nil {
			return fmt.Errorf("cache ping failed: %w", err)
		}
	}

	return nil
}

// Close closes all connections
func (r *Repository) Close() error {
	var errs []error

	if r.db != nil {
		sqlDB, err := r.db.DB()
		if err != nil {
			errs = append(errs, fmt.Errorf("failed to get database instance: %w", err))
		} else if err := sqlDB.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database: %w", err))
		}
	}

	if r.firestoreClient != nil {
		if err := r.firestoreClient.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close Firestore: %w", err))
		}
	}

	if r.redisClient != nil {
		if err := r.redisClient.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close Redis: %w", err))
		}
	}

	return errors.Join(errs...)
}

// RepositoryManager implements the RepositoryManager interface
type RepositoryManager struct {
	config RepositoryConfig
	repo   *Repository
}

// NewRepositoryManager creates a new repository manager
func NewRepositoryManager(config RepositoryConfig) repositories.RepositoryManager {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	return &RepositoryManager{
		config: config,
	}
}

// Initialize checks connections and builds the adapters selected by config
func (rm *RepositoryManager) Initialize(ctx context.Context) error {
	cfg := rm.config.Config
	if cfg == nil {
		return fmt.Errorf("configuration is required")
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if cfg.NeedsDatabase() {
		if rm.config.DB == nil {
			return fmt.Errorf("database connection is required")
		}
		sqlDB, err := rm.config.DB.DB()
		if err != nil {
			return fmt.Errorf("failed to get database instance: %w", err)
		}
		if err := sqlDB.PingContext(pingCtx); err != nil {
			return fmt.Errorf("database connection failed: %w", err)
		}
		if err := postgres.AutoMigrate(rm.config.DB); err != nil {
			return fmt.Errorf("database migration failed: %w", err)
		}
	}

	if cfg.NeedsFirebase() && rm.config.FirebaseApp == nil {
		return fmt.Errorf("firebase app is required")
	}

	if rm.config.RedisClient != nil {
		if _, err := rm.config.RedisClient.Ping(pingCtx).Result(); err != nil {
			return fmt.Errorf("Redis connection failed: %w", err)
		}
	}

	repo := &Repository{
		db:           rm.config.DB,
		redisClient:  rm.config.RedisClient,
		cacheManager: cache.NewCacheManager(rm.config.RedisClient),
	}

	var users repositories.UserStore
	switch cfg.DocumentStore {
	case config.DocumentStorePostgres:
		users = postgres.NewUserPostgreSQL(rm.config.DB)
	case config.DocumentStoreFirestore:
		client, err := rm.config.FirebaseApp.Firestore(ctx)
		if err != nil {
			return fmt.Errorf("failed to create Firestore client: %w", err)
		}
		repo.firestoreClient = client
		users = firestoredb.NewUserFirestore(client)
	default:
		return fmt.Errorf("unknown document store %q", cfg.DocumentStore)
	}
	repo.users = cache.NewCachedUserStore(users, repo.cacheManager)

	switch cfg.IdentityProvider {
	case config.IdentityCasdoor:
		repo.identity = casdoor.NewIdentityCasdoor(casdoor.CasdoorConfig{
			Endpoint:         cfg.Casdoor.Endpoint,
			ClientID:         cfg.Casdoor.ClientID,
			ClientSecret:     cfg.Casdoor.ClientSecret,
			Certificate:      cfg.Casdoor.Cert,
			OrganizationName: cfg.Casdoor.Organization,
			ApplicationName:  cfg.Casdoor.Application,
		}, rm.config.RedisClient, rm.config.Logger)
	case config.IdentityLocal:
		repo.identity = postgres.NewCredentialPostgreSQL(rm.config.DB, rm.config.Logger)
	default:
		return fmt.Errorf("unknown identity provider %q", cfg.IdentityProvider)
	}

	if rm.config.RedisClient != nil {
		repo.sessions = redisstore.NewSessionRedis(rm.config.RedisClient)
	} else {
		rm.config.Logger.Warn("REDIS_URL not set, sessions are kept in memory")
		repo.sessions = memory.NewSessionMemory()
	}

	switch cfg.BlobStore {
	case config.BlobStoreLocal:
		blobs, err := storage.NewBlobLocal(cfg.LocalBlobDir, cfg.PublicBaseURL)
		if err != nil {
			return err
		}
		repo.blobs = blobs
	case config.BlobStoreFirebase:
		blobs, err := storage.NewBlobFirebase(ctx, rm.config.FirebaseApp, cfg.Firebase.StorageBucket)
		if err != nil {
			return err
		}
		repo.blobs = blobs
	default:
		return fmt.Errorf("unknown blob store %q", cfg.BlobStore)
	}

	rm.repo = repo
	return nil
}

// GetRepository returns the repository instance
func (rm *RepositoryManager) GetRepository() repositories.Repository {
	if rm.repo == nil {
		return nil
	}
	return rm.repo
}

// HealthCheck checks the health of all repository connections
func (rm *RepositoryManager) HealthCheck(ctx context.Context) error {
	if rm.repo == nil {
		return fmt.Errorf("repository not initialized")
	}

	return rm.repo.Ping(ctx)
}

// Shutdown gracefully shuts down all repository connections
func (rm *RepositoryManager) Shutdown(ctx context.Context) error {
	if rm.repo == nil {
		return nil
	}

	return rm.repo.Close()
}
