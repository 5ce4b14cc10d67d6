package services

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"reflect"
	"sort"
	"sync"

	"github.com/SAP-F-2025/school-dashboard/internal/events"
	"github.com/SAP-F-2025/school-dashboard/internal/models"
	"github.com/SAP-F-2025/school-dashboard/internal/repositories"
	"github.com/SAP-F-2025/school-dashboard/internal/repositories/memory"
	"github.com/SAP-F-2025/school-dashboard/internal/validator"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// memUsers is an in-memory UserStore with injectable failures
type memUsers struct {
	mu          sync.Mutex
	docs        map[string]*models.UserRecord
	appendErr   map[string]error
	setErr      map[string]error
	getErr      error
	listErr     error
	appendCalls int
	setCalls    int
	evicted     []string
}

func newMemUsers(users ...*models.UserRecord) *memUsers {
	m := &memUsers{
		docs:      make(map[string]*models.UserRecord),
		appendErr: make(map[string]error),
		setErr:    make(map[string]error),
	}
	for _, u := range users {
		m.docs[u.Email] = clone(u)
	}
	return m
}

func clone(u *models.UserRecord) *models.UserRecord {
	c := *u
	c.Marks = append([]models.Mark{}, u.Marks...)
	c.Attendance = append([]string{}, u.Attendance...)
	c.Msgs = append([]string{}, u.Msgs...)
	c.Files = append([]models.FileRef{}, u.Files...)
	return &c
}

func (m *memUsers) GetUser(ctx context.Context, email string) (*models.UserRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	u, ok := m.docs[email]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return clone(u), nil
}

func (m *memUsers) SetUser(ctx context.Context, user *models.UserRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.setCalls++
	if err := m.setErr[user.Email]; err != nil {
		return err
	}
	m.docs[user.Email] = clone(user)
	return nil
}

func (m *memUsers) UpdateProfile(ctx context.Context, email, name, classGrade, section string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.setErr[email]; err != nil {
		return err
	}
	u, ok := m.docs[email]
	if !ok {
		return repositories.ErrNotFound
	}
	u.Name, u.ClassGrade, u.Section = name, classGrade, section
	return nil
}

func (m *memUsers) AppendToField(ctx context.Context, email string, field models.ArrayField, value interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.appendCalls++
	if err := m.appendErr[email]; err != nil {
		return err
	}
	if err := repositories.CheckArrayValue(field, value); err != nil {
		return err
	}
	u, ok := m.docs[email]
	if !ok {
		return repositories.ErrNotFound
	}

	switch field {
	case models.FieldMarks:
		if !containsValue(u.Marks, value) {
			u.Marks = append(u.Marks, value.(models.Mark))
		}
	case models.FieldFiles:
		if !containsValue(u.Files, value) {
			u.Files = append(u.Files, value.(models.FileRef))
		}
	case models.FieldAttendance:
		if !containsValue(u.Attendance, value) {
			u.Attendance = append(u.Attendance, value.(string))
		}
	case models.FieldMsgs:
		if !containsValue(u.Msgs, value) {
			u.Msgs = append(u.Msgs, value.(string))
		}
	}
	return nil
}

func containsValue(slice interface{}, value interface{}) bool {
	v := reflect.ValueOf(slice)
	for i := 0; i < v.Len(); i++ {
		if reflect.DeepEqual(v.Index(i).Interface(), value) {
			return true
		}
	}
	return false
}

func (m *memUsers) ListUsers(ctx context.Context) ([]*models.UserRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	emails := make([]string, 0, len(m.docs))
	for e := range m.docs {
		emails = append(emails, e)
	}
	sort.Strings(emails)
	out := make([]*models.UserRecord, 0, len(emails))
	for _, e := range emails {
		out = append(out, clone(m.docs[e]))
	}
	return out, nil
}

func (m *memUsers) Evict(ctx context.Context, email string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.evicted = append(m.evicted, email)
}

func (m *memUsers) get(email string) *models.UserRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.docs[email]; ok {
		return clone(u)
	}
	return nil
}

// memIdentity is an in-memory IdentityProvider
type memIdentity struct {
	mu        sync.Mutex
	passwords map[string]string
	signUpErr map[string]error
}

func newMemIdentity() *memIdentity {
	return &memIdentity{
		passwords: make(map[string]string),
		signUpErr: make(map[string]error),
	}
}

func (m *memIdentity) SignIn(ctx context.Context, email, password string) (*models.Identity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.passwords[email]; !ok || p != password {
		return nil, repositories.ErrInvalidCredentials
	}
	return &models.Identity{UID: "uid-" + email, Email: email}, nil
}

func (m *memIdentity) SignUp(ctx context.Context, email, password string) (*models.Identity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.signUpErr[email]; err != nil {
		return nil, err
	}
	if _, ok := m.passwords[email]; ok {
		return nil, repositories.ErrAlreadyExists
	}
	m.passwords[email] = password
	return &models.Identity{UID: "uid-" + email, Email: email}, nil
}

func (m *memIdentity) has(email string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.passwords[email]
	return ok
}

// memBlobs keeps uploads in memory
type memBlobs struct {
	mu        sync.Mutex
	objects   map[string][]byte
	uploadErr error
}

func newMemBlobs() *memBlobs {
	return &memBlobs{objects: make(map[string][]byte)}
}

func (m *memBlobs) Upload(ctx context.Context, path, contentType string, r io.Reader) (*models.BlobHandle, error) {
	if m.uploadErr != nil {
		return nil, m.uploadErr
	}
	var buf bytes.Buffer
	n, err := io.Copy(&buf, r)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	m.objects[path] = buf.Bytes()
	m.mu.Unlock()
	return &models.BlobHandle{Path: path, ContentType: contentType, Size: n}, nil
}

func (m *memBlobs) PublicURL(ctx context.Context, handle *models.BlobHandle) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.objects[handle.Path]; !ok {
		return "", repositories.ErrNotFound
	}
	return "https://blobs.test/" + handle.Path, nil
}

type fakeRepo struct {
	users    *memUsers
	identity *memIdentity
	sessions repositories.SessionStore
	blobs    *memBlobs
	pingErr  error
}

func newFakeRepo(users ...*models.UserRecord) *fakeRepo {
	return &fakeRepo{
		users:    newMemUsers(users...),
		identity: newMemIdentity(),
		sessions: memory.NewSessionMemory(),
		blobs:    newMemBlobs(),
	}
}

func (r *fakeRepo) Users() repositories.UserStore { return r.users }
func (r *fakeRepo) Identity() repositories.IdentityProvider { return r.identity }
func (r *fakeRepo) Sessions() repositories.SessionStore { return r.sessions }
func (r *fakeRepo) Blobs() repositories.BlobStore { return r.blobs }
func (r *fakeRepo) Ping(ctx context.Context) error { return r.pingErr }
func (r *fakeRepo) Close() error { return nil }

func student(email, class, section string) *models.UserRecord {
	return models.NewUserRecord(email, "", models.RoleStudent, class, section)
}

func newTestPublisher() *events.MockEventPublisher {
	return events.NewMockEventPublisher(testLogger())
}

func newTestValidator() *validator.Validator {
	return validator.New()
}
