package postgres

import (
	"context"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/SAP-F-2025/school-dashboard/internal/models"
	"github.com/SAP-F-2025/school-dashboard/internal/repositories"
)

// userRow stores a UserRecord with its history arrays as JSON columns
type userRow struct {
	Email      string                              `gorm:"primaryKey;size:255"`
	Name       string                              `gorm:"size:255"`
	Role       string                              `gorm:"size:16;not null"`
	ClassGrade string                              `gorm:"column:class_grade;size:64;index:idx_users_class_section"`
	Section    string                              `gorm:"size:64;index:idx_users_class_section"`
	Marks      datatypes.JSONSlice[models.Mark]    `gorm:"not null"`
	Attendance datatypes.JSONSlice[string]         `gorm:"not null"`
	Msgs       datatypes.JSONSlice[string]         `gorm:"not null"`
	Files      datatypes.JSONSlice[models.FileRef] `gorm:"not null"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (userRow) TableName() string {
	return "users"
}

func newUserRow(u *models.UserRecord) *userRow {
	rec := *u
	rec.Normalize()
	return &userRow{
		Email:      rec.Email,
		Name:       rec.Name,
		Role:       string(rec.Role),
		ClassGrade: rec.ClassGrade,
		Section:    rec.Section,
		Marks:      datatypes.NewJSONSlice(rec.Marks),
		Attendance: datatypes.NewJSONSlice(rec.Attendance),
		Msgs:       datatypes.NewJSONSlice(rec.Msgs),
		Files:      datatypes.NewJSONSlice(rec.Files),
	}
}

func (r *userRow) toModel() *models.UserRecord {
	u := &models.UserRecord{
		Email:      r.Email,
		Name:       r.Name,
		Role:       models.Role(r.Role),
		ClassGrade: r.ClassGrade,
		Section:    r.Section,
		Marks:      []models.Mark(r.Marks),
		Attendance: []string(r.Attendance),
		Msgs:       []string(r.Msgs),
		Files:      []models.FileRef(r.Files),
	}
	u.Normalize()
	return u
}

// appendValue union-appends an already type-checked value to field and returns
// the column to write, or "" when value was already present.
func (r *userRow) appendValue(field models.ArrayField, value interface{}) (string, interface{}) {
	var changed bool
	switch field {
	case models.FieldMarks:
		r.Marks, changed = unionAppend(r.Marks, value.(models.Mark))
		return columnIf(changed, "marks"), r.Marks
	case models.FieldFiles:
		r.Files, changed = unionAppend(r.Files, value.(models.FileRef))
		return columnIf(changed, "files"), r.Files
	case models.FieldAttendance:
		r.Attendance, changed = unionAppend(r.Attendance, value.(string))
		return columnIf(changed, "attendance"), r.Attendance
	default:
		r.Msgs, changed = unionAppend(r.Msgs, value.(string))
		return columnIf(changed, "msgs"), r.Msgs
	}
}

func columnIf(changed bool, column string) string {
	if changed {
		return column
	}
	return ""
}

type UserPostgreSQL struct {
	db *gorm.DB
}

func NewUserPostgreSQL(db *gorm.DB) repositories.UserStore {
	return &UserPostgreSQL{db: db}
}

// GetUser retrieves a user document by email
func (s *UserPostgreSQL) GetUser(ctx context.Context, email string) (*models.UserRecord, error) {
	var row userRow
	if err := s.db.WithContext(ctx).First(&row, "email = ?", email).Error; err != nil {
		return nil, handleDBError(err, "get user")
	}
	return row.toModel(), nil
}

// SetUser upserts the full document; created_at survives an overwrite
func (s *UserPostgreSQL) SetUser(ctx context.Context, user *models.UserRecord) error {
	if user == nil || user.Email == "" {
		return fmt.Errorf("set user failed: email is required")
	}
	if err := repositories.CheckRole(user.Role); err != nil {
		return fmt.Errorf("set user failed: %w", err)
	}

	row := newUserRow(user)
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "email"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"name", "role", "class_grade", "section",
				"marks", "attendance", "msgs", "files", "updated_at",
			}),
		}).
		Create(row).Error
	return handleDBError(err, "set user")
}

// UpdateProfile updates the profile columns in one statement
func (s *UserPostgreSQL) UpdateProfile(ctx context.Context, email, name, classGrade, section string) error {
	result := s.db.WithContext(ctx).
		Model(&userRow{}).
		Where("email = ?", email).
		Updates(map[string]interface{}{
			"name":        name,
			"class_grade": classGrade,
			"section":     section,
			"updated_at":  time.Now(),
		})
	if result.Error != nil {
		return handleDBError(result.Error, "update profile")
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("update profile %s: %w", email, repositories.ErrNotFound)
	}
	return nil
}

// AppendToField union-appends under a row lock so concurrent appends are not lost
func (s *UserPostgreSQL) AppendToField(ctx context.Context, email string, field models.ArrayField, value interface{}) error {
	if err := repositories.CheckArrayValue(field, value); err != nil {
		return err
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row userRow
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&row, "email = ?", email).Error; err != nil {
			return handleDBError(err, "append to "+string(field))
		}

		column, list := row.appendValue(field, value)
		if column == "" {
			return nil
		}

		err := tx.Model(&userRow{}).
			Where("email = ?", email).
			Updates(map[string]interface{}{column: list, "updated_at": time.Now()}).Error
		return handleDBError(err, "append to "+string(field))
	})
}

// ListUsers returns every document ordered by email
func (s *UserPostgreSQL) ListUsers(ctx context.Context) ([]*models.UserRecord, error) {
	var rows []userRow
	if err := s.db.WithContext(ctx).Order("email").Find(&rows).Error; err != nil {
		return nil, handleDBError(err, "list users")
	}

	users := make([]*models.UserRecord, 0, len(rows))
	for i := range rows {
		users = append(users, rows[i].toModel())
	}
	return users, nil
}
