package firestoredb

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/SAP-F-2025/school-dashboard/internal/models"
	"github.com/SAP-F-2025/school-dashboard/internal/repositories"
)

// UsersCollection holds one document per user, keyed by email
const UsersCollection = "users"

type UserFirestore struct {
	client *firestore.Client
}

func NewUserFirestore(client *firestore.Client) repositories.UserStore {
	return &UserFirestore{client: client}
}

func (s *UserFirestore) doc(email string) *firestore.DocumentRef {
	return s.client.Collection(UsersCollection).Doc(email)
}

func (s *UserFirestore) GetUser(ctx context.Context, email string) (*models.UserRecord, error) {
	snap, err := s.doc(email).Get(ctx)
	if err != nil {
		return nil, handleFirestoreError(err, "get user")
	}

	var u models.UserRecord
	if err := snap.DataTo(&u); err != nil {
		return nil, fmt.Errorf("decode user %s: %w", email, err)
	}
	if u.Email == "" {
		u.Email = snap.Ref.ID
	}
	u.Normalize()
	return &u, nil
}

func (s *UserFirestore) SetUser(ctx context.Context, user *models.UserRecord) error {
	if user == nil || user.Email == "" {
		return fmt.Errorf("set user failed: email is required")
	}
	if err := repositories.CheckRole(user.Role); err != nil {
		return fmt.Errorf("set user failed: %w", err)
	}

	rec := *user
	rec.Normalize()
	_, err := s.doc(rec.Email).Set(ctx, rec)
	return handleFirestoreError(err, "set user")
}

// UpdateProfile writes only the profile fields; Update fails when the document is missing
func (s *UserFirestore) UpdateProfile(ctx context.Context, email, name, classGrade, section string) error {
	_, err := s.doc(email).Update(ctx, []firestore.Update{
		{Path: "name", Value: name},
		{Path: "classGrade", Value: classGrade},
		{Path: "section", Value: section},
	})
	return handleFirestoreError(err, "update profile")
}

// AppendToField uses a server-side ArrayUnion; Update fails when the document is missing
func (s *UserFirestore) AppendToField(ctx context.Context, email string, field models.ArrayField, value interface{}) error {
	if err := repositories.CheckArrayValue(field, value); err != nil {
		return err
	}

	_, err := s.doc(email).Update(ctx, []firestore.Update{
		{Path: string(field), Value: firestore.ArrayUnion(value)},
	})
	return handleFirestoreError(err, "append to "+string(field))
}

func (s *UserFirestore) ListUsers(ctx context.Context) ([]*models.UserRecord, error) {
	iter := s.client.Collection(UsersCollection).Documents(ctx)
	defer iter.Stop()

	var users []*models.UserRecord
	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, handleFirestoreError(err, "list users")
		}

		var u models.UserRecord
		if err := snap.DataTo(&u); err != nil {
			return nil, fmt.Errorf("decode user %s: %w", snap.Ref.ID, err)
		}
		if u.Email == "" {
			u.Email = snap.Ref.ID
		}
		u.Normalize()
		users = append(users, &u)
	}
	return users, nil
}

func handleFirestoreError(err error, operation string) error {
	if err == nil {
		return nil
	}
	switch status.Code(err) {
	case codes.NotFound:
		return fmt.Errorf("%s failed: %w", operation, repositories.ErrNotFound)
	case codes.AlreadyExists:
		return fmt.Errorf("%s failed: %w", operation, repositories.ErrAlreadyExists)
	}
	return fmt.Errorf("%s failed: %w", operation, err)
}
