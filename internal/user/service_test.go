// AngelaMos | 2026
// service_test.go

package user

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/persona-advice/internal/core"
	"github.com/carterperez-dev/persona-advice/internal/middleware"
)

// memRepo is an in-memory Repository. Writes inside a failed transaction are
// discarded by memTx.
type memRepo struct {
	mu     sync.Mutex
	nextID int64
	users  map[int64]User
	roles  map[int64][]string
	likes  map[int64][]LikedEntity
}

func newMemRepo() *memRepo {
	return &memRepo{
		nextID: 1,
		users:  map[int64]User{},
		roles:  map[int64][]string{},
		likes:  map[int64][]LikedEntity{},
	}
}

func (m *memRepo) Create(_ context.Context, u *User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if existing.Username == u.Username || existing.Email == u.Email {
			return core.ErrDuplicateKey
		}
	}
	u.ID = m.nextID
	u.CreatedOn = time.Now()
	m.nextID++
	m.users[u.ID] = *u
	return nil
}

func (m *memRepo) GetByID(_ context.Context, id int64) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	return &u, nil
}

func (m *memRepo) GetByUsername(_ context.Context, username string) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Username == username {
			return &u, nil
		}
	}
	return nil, core.ErrNotFound
}

func (m *memRepo) Update(_ context.Context, u *User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[u.ID]; !ok {
		return core.ErrNotFound
	}
	m.users[u.ID] = *u
	return nil
}

func (m *memRepo) UpdatePassword(_ context.Context, id int64, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return core.ErrNotFound
	}
	u.PasswordHash = hash
	m.users[id] = u
	return nil
}

func (m *memRepo) Delete(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[id]; !ok {
		return core.ErrNotFound
	}
	delete(m.users, id)
	delete(m.roles, id)
	delete(m.likes, id)
	return nil
}

func (m *memRepo) List(_ context.Context) ([]User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]User, 0, len(m.users))
	for id := int64(1); id < m.nextID; id++ {
		if u, ok := m.users[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

func (m *memRepo) UsernameTaken(_ context.Context, username string, excludeID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Username == username && u.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (m *memRepo) EmailTaken(_ context.Context, email string, excludeID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email && u.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (m *memRepo) AssignRole(_ context.Context, userID int64, role string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.roles[userID] = append(m.roles[userID], role)
	return nil
}

func (m *memRepo) ListRoles(_ context.Context, userID int64) ([]Role, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Role, 0, len(m.roles[userID]))
	for i, name := range m.roles[userID] {
		out = append(out, Role{ID: int64(i + 1), Name: name})
	}
	return out, nil
}

func (m *memRepo) HasRole(_ context.Context, userID int64, role string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.roles[userID] {
		if r == role {
			return true, nil
		}
	}
	return false, nil
}

func (m *memRepo) ListLikedEntities(_ context.Context, userID int64) ([]LikedEntity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.likes[userID], nil
}

type memTx struct {
	fail error
}

func (t memTx) InTx(_ context.Context, fn func(tx core.DBTX) error) error {
	if err := fn(nil); err != nil {
		return err
	}
	return t.fail
}

func newTestService(repo *memRepo) *Service {
	return newService(memTx{}, repo, func(core.DBTX) Repository { return repo })
}

func ptr(s string) *string { return &s }

func TestRegister(t *testing.T) {
	repo := newMemRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	u, err := svc.Register(ctx, CreateUserRequest{
		Username: "jane_doe",
		Email:    "jane@example.com",
		Password: "a234567!",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), u.ID)
	assert.NotEqual(t, "a234567!", u.PasswordHash)

	ok, err := core.VerifyPassword("a234567!", u.PasswordHash)
	require.NoError(t, err)
	assert.True(t, ok)

	isUser, err := svc.HasRole(ctx, u.ID, RoleUser)
	require.NoError(t, err)
	assert.True(t, isUser)
}

func TestRegisterDuplicateUsername(t *testing.T) {
	repo := newMemRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	_, err := svc.Register(ctx, CreateUserRequest{Username: "jane_doe", Email: "a@example.com", Password: "a234567!"})
	require.NoError(t, err)

	_, err = svc.Register(ctx, CreateUserRequest{Username: "jane_doe", Email: "b@example.com", Password: "a234567!"})
	require.Error(t, err)
	assert.Equal(t, http.StatusConflict, core.HTTPStatus(err))
	assert.ErrorIs(t, err, core.ErrDuplicateKey)

	users, err := svc.ListUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 1)
}

func TestRegisterCommitFailure(t *testing.T) {
	repo := newMemRepo()
	svc := newService(memTx{fail: errors.New("connection reset")}, repo,
		func(core.DBTX) Repository { return repo })

	_, err := svc.Register(context.Background(), CreateUserRequest{
		Username: "jane_doe", Email: "a@example.com", Password: "a234567!",
	})
	require.Error(t, err)
	assert.Equal(t, http.StatusInternalServerError, core.HTTPStatus(err))
	assert.Contains(t, err.Error(), "Server Error: connection reset")
}

func TestCheckUniqueness(t *testing.T) {
	repo := newMemRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	jane, err := svc.Register(ctx, CreateUserRequest{Username: "jane_doe", Email: "jane@example.com", Password: "a234567!"})
	require.NoError(t, err)
	_, err = svc.Register(ctx, CreateUserRequest{Username: "john_doe", Email: "john@example.com", Password: "a234567!"})
	require.NoError(t, err)

	tests := []struct {
		name      string
		attrs     Attributes
		excluding *User
		wantValid bool
		wantCode  int
		wantMsgs  int
	}{
		{
			name:      "fresh values",
			attrs:     Attributes{Username: ptr("new_user"), Email: ptr("new@example.com")},
			wantValid: true,
			wantCode:  http.StatusOK,
		},
		{
			name:     "empty fields reported together",
			attrs:    Attributes{Username: ptr(""), Password: ptr(" ")},
			wantCode: http.StatusBadRequest,
			wantMsgs: 2,
		},
		{
			name:     "both collide",
			attrs:    Attributes{Username: ptr("john_doe"), Email: ptr("john@example.com")},
			wantCode: http.StatusConflict,
			wantMsgs: 2,
		},
		{
			name:      "own values on update",
			attrs:     Attributes{Username: ptr("jane_doe"), Email: ptr("jane@example.com")},
			excluding: jane,
			wantValid: true,
			wantCode:  http.StatusOK,
		},
		{
			name:      "other user's email on update",
			attrs:     Attributes{Email: ptr("john@example.com")},
			excluding: jane,
			wantCode:  http.StatusConflict,
			wantMsgs:  1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := svc.CheckUniqueness(ctx, tt.attrs, tt.excluding)
			require.NoError(t, err)
			assert.Equal(t, tt.wantValid, res.Valid)
			assert.Equal(t, tt.wantCode, res.Status)
			assert.Len(t, res.Messages, tt.wantMsgs)
		})
	}
}

func TestUpdateAndDeleteUser(t *testing.T) {
	repo := newMemRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	u, err := svc.Register(ctx, CreateUserRequest{Username: "jane_doe", Email: "jane@example.com", Password: "a234567!"})
	require.NoError(t, err)

	updated, err := svc.UpdateUser(ctx, u.ID, UpdateUserRequest{Email: ptr("jane2@example.com")})
	require.NoError(t, err)
	assert.Equal(t, "jane2@example.com", updated.Email)
	assert.Equal(t, "jane_doe", updated.Username)

	_, err = svc.UpdateUser(ctx, 99, UpdateUserRequest{})
	assert.Equal(t, http.StatusNotFound, core.HTTPStatus(err))

	require.NoError(t, svc.DeleteUser(ctx, u.ID))
	err = svc.DeleteUser(ctx, u.ID)
	assert.Equal(t, http.StatusNotFound, core.HTTPStatus(err))
}

func TestValidRules(t *testing.T) {
	assert.True(t, ValidUsername("jane_doe"))
	assert.True(t, ValidUsername("J-9"))
	assert.False(t, ValidUsername("9jane"))
	assert.False(t, ValidUsername("ja"))
	assert.False(t, ValidUsername("a_very_long_username"))

	assert.True(t, ValidPassword("a234567!"))
	assert.False(t, ValidPassword("a2345678"))
	assert.False(t, ValidPassword("abcdefg!"))
	assert.False(t, ValidPassword("a2!"))
	assert.False(t, ValidPassword("a234567!^"))
	assert.False(t, ValidPassword("a234567!a234567!a234567!"))
}

type stubVerifier struct{}

func (stubVerifier) VerifyToken(_ context.Context, token string) (int64, error) {
	switch token {
	case "token-1":
		return 1, nil
	case "token-2":
		return 2, nil
	}
	return 0, core.ErrTokenInvalid
}

func (stubVerifier) VerifyCredentials(context.Context, string, string) (int64, error) {
	return 0, core.ErrUnauthorized
}

func newTestRouter(svc *Service) chi.Router {
	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) {
		NewHandler(svc).RegisterRoutes(r,
			middleware.Authenticator(stubVerifier{}),
			middleware.OptionalAuth(stubVerifier{}),
		)
	})
	return r
}

func doJSON(r http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestHandlerRegistrationFlow(t *testing.T) {
	repo := newMemRepo()
	r := newTestRouter(newTestService(repo))

	rec := doJSON(r, http.MethodPost, "/api/users/", "", map[string]string{
		"username": "jane_doe", "email": "jane@example.com", "password": "a234567!",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.NotContains(t, rec.Body.String(), "jane@example.com")
	assert.NotContains(t, rec.Body.String(), "password")

	rec = doJSON(r, http.MethodPost, "/api/users/", "", map[string]string{
		"username": "jane_doe", "email": "other@example.com", "password": "a234567!",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = doJSON(r, http.MethodPost, "/api/users/", "", map[string]string{
		"username": "1bad", "email": "x@example.com", "password": "weak",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(r, http.MethodGet, "/api/users/jane_doe", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "jane@example.com")

	rec = doJSON(r, http.MethodGet, "/api/users/1", "token-1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "jane@example.com")

	rec = doJSON(r, http.MethodGet, "/api/users/", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "jane@example.com")

	rec = doJSON(r, http.MethodGet, "/api/users/1/roles", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"name":"user"`)

	rec = doJSON(r, http.MethodGet, "/api/users/404", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandlerSelfOnlyMutations(t *testing.T) {
	repo := newMemRepo()
	svc := newTestService(repo)
	r := newTestRouter(svc)
	ctx := context.Background()

	_, err := svc.Register(ctx, CreateUserRequest{Username: "jane_doe", Email: "jane@example.com", Password: "a234567!"})
	require.NoError(t, err)
	_, err = svc.Register(ctx, CreateUserRequest{Username: "john_doe", Email: "john@example.com", Password: "a234567!"})
	require.NoError(t, err)

	rec := doJSON(r, http.MethodPut, "/api/users/1", "", map[string]string{"email": "x@example.com"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doJSON(r, http.MethodPut, "/api/users/1", "token-2", map[string]string{"email": "x@example.com"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doJSON(r, http.MethodPut, "/api/users/1", "token-1", map[string]string{"email": "john@example.com"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = doJSON(r, http.MethodPut, "/api/users/1", "token-1", map[string]string{"username": ""})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(r, http.MethodPut, "/api/users/1", "token-1", map[string]string{"email": "new@example.com"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "new@example.com")

	rec = doJSON(r, http.MethodDelete, "/api/users/1", "token-2", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doJSON(r, http.MethodDelete, "/api/users/1", "token-1", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	_, err = svc.GetUser(ctx, 1)
	assert.Equal(t, http.StatusNotFound, core.HTTPStatus(err))
}
