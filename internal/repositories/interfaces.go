package repositories

import (
	"context"
	"io"
	"time"

	"github.com/SAP-F-2025/school-dashboard/internal/models"
)

// UserStore is the document store holding one profile per email.
type UserStore interface {
	// GetUser returns ErrNotFound when no document exists for email.
	GetUser(ctx context.Context, email string) (*models.UserRecord, error)

	// SetUser fully overwrites the document keyed by user.Email.
	SetUser(ctx context.Context, user *models.UserRecord) error

	// UpdateProfile rewrites name, class and section in place, leaving role
	// and the history arrays untouched. Returns ErrNotFound when the document
	// does not exist.
	UpdateProfile(ctx context.Context, email, name, classGrade, section string) error

	// AppendToField union-appends value to one of the history arrays.
	// A value equal to an existing element is not appended again.
	// Returns ErrNotFound when the document does not exist.
	AppendToField(ctx context.Context, email string, field models.ArrayField, value interface{}) error

	// ListUsers scans the whole collection. There is no server-side filter.
	ListUsers(ctx context.Context) ([]*models.UserRecord, error)
}

// IdentityProvider authenticates email/password accounts.
type IdentityProvider interface {
	// SignIn returns ErrInvalidCredentials for an unknown email or a wrong password.
	SignIn(ctx context.Context, email, password string) (*models.Identity, error)

	// SignUp returns ErrAlreadyExists when the email is taken.
	SignUp(ctx context.Context, email, password string) (*models.Identity, error)
}

// SessionStore keeps server-side sessions keyed by an opaque token.
type SessionStore interface {
	Create(ctx context.Context, identity models.Identity, ttl time.Duration) (*models.Session, error)

	// Get returns ErrNotFound for an unknown or expired token.
	Get(ctx context.Context, token string) (*models.Session, error)

	Delete(ctx context.Context, token string) error
}

// BlobStore holds uploaded assignment files.
type BlobStore interface {
	Upload(ctx context.Context, path, contentType string, r io.Reader) (*models.BlobHandle, error)
	PublicURL(ctx context.Context, handle *models.BlobHandle) (string, error)
}
