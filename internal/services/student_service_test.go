package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SAP-F-2025/school-dashboard/internal/models"
)

func TestStudentService_Dashboard(t *testing.T) {
	u := student("s@school.test", "10", "A")
	u.Marks = []models.Mark{{Subject: "Math", Score: 40}, {Subject: "Art", Score: 35}, {Subject: "PE", Score: 20}}
	u.Msgs = []string{"first", "second", "third"}
	u.Files = []models.FileRef{{Name: "hw.pdf", URL: "https://blobs.test/hw.pdf"}}
	svc := NewStudentService(newFakeRepo(u), testLogger())

	d, err := svc.Dashboard(context.Background(), "S@school.test")
	require.NoError(t, err)
	assert.Equal(t, []string{"third", "second", "first"}, d.Messages)
	assert.Equal(t, u.Files, d.Files)
	require.Len(t, d.Marks, 3)
	assert.Equal(t, []string{"Math", "40", "Pass"}, d.Marks[0].Cells())
	assert.Equal(t, "Pass", d.Marks[1].Result)
	assert.Equal(t, "Fail", d.Marks[2].Result)
}

func TestStudentService_DashboardWithoutRecord(t *testing.T) {
	repo := newFakeRepo()
	svc := NewStudentService(repo, testLogger())

	d, err := svc.Dashboard(context.Background(), "ghost@school.test")
	require.NoError(t, err)
	assert.Empty(t, d.Files)
	assert.Empty(t, d.Messages)
	assert.Empty(t, d.Marks)

	repo.users.getErr = errors.New("store unavailable")
	_, err = svc.Dashboard(context.Background(), "ghost@school.test")
	assert.Error(t, err)
}
