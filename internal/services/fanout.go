package services

import (
	"context"
	"log/slog"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/SAP-F-2025/school-dashboard/internal/models"
	"github.com/SAP-F-2025/school-dashboard/internal/repositories"
)

// fanout union-appends value to field on every recipient and waits for all of them.
// Failures are collected, not retried, and successful writes are kept.
func fanout(ctx context.Context, store repositories.UserStore, logger *slog.Logger, limit int, recipients []*models.UserRecord, field models.ArrayField, value interface{}) (*models.FanoutResult, []string) {
	var (
		g       errgroup.Group
		mu      sync.Mutex
		updated []string
		failed  = []string{}
	)
	if limit > 0 {
		g.SetLimit(limit)
	}

	for _, r := range recipients {
		email := r.Email
		g.Go(func() error {
			err := store.AppendToField(ctx, email, field, value)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				logger.ErrorContext(ctx, "Failed to update recipient", "email", email, "field", field, "error", err)
				failed = append(failed, email)
				return nil
			}
			updated = append(updated, email)
			return nil
		})
	}
	_ = g.Wait()

	sort.Strings(updated)
	sort.Strings(failed)

	return &models.FanoutResult{
		Matched: len(recipients),
		Updated: len(updated),
		Failed:  failed,
	}, updated
}

// classStudents scans every profile for Students of exactly class/section
func classStudents(ctx context.Context, store repositories.UserStore, class, section string) ([]*models.UserRecord, error) {
	users, err := store.ListUsers(ctx)
	if err != nil {
		return nil, err
	}

	var out []*models.UserRecord
	for _, u := range users {
		if u.Role == models.RoleStudent && u.ClassGrade == class && u.Section == section {
			out = append(out, u)
		}
	}
	return out, nil
}
