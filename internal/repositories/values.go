package repositories

import (
	"fmt"

	"github.com/SAP-F-2025/school-dashboard/internal/models"
)

// CheckRole rejects roles outside the three stored values
func CheckRole(role models.Role) error {
	if !role.Valid() {
		return fmt.Errorf("%w: role %q", ErrInvalidField, role)
	}
	return nil
}

// CheckArrayValue reports whether value has the element type stored in field.
// marks holds models.Mark, files holds models.FileRef, attendance and msgs hold strings.
func CheckArrayValue(field models.ArrayField, value interface{}) error {
	if !field.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidField, field)
	}

	ok := false
	switch field {
	case models.FieldMarks:
		_, ok = value.(models.Mark)
	case models.FieldFiles:
		_, ok = value.(models.FileRef)
	case models.FieldAttendance, models.FieldMsgs:
		_, ok = value.(string)
	}
	if !ok {
		return fmt.Errorf("%w: %T cannot be appended to %s", ErrInvalidField, value, field)
	}
	return nil
}
