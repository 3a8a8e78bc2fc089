package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/kinddrop/server/internal/api"
	"github.com/kinddrop/server/internal/api/services"
	"github.com/kinddrop/server/internal/config"
	"github.com/kinddrop/server/internal/daily"
	"github.com/kinddrop/server/internal/models"
	"github.com/kinddrop/server/internal/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type fixedClock struct {
	now time.Time
}

func (c *fixedClock) Now() time.Time { return c.now }

type testServer struct {
	db      *gorm.DB
	clock   *fixedClock
	handler http.Handler
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, repositories.Migrate(db))

	pacific, err := time.LoadLocation("America/Los_Angeles")
	require.NoError(t, err)
	clock := &fixedClock{now: time.Date(2025, 6, 15, 12, 0, 0, 0, pacific)}
	resolver, err := daily.NewResolver(clock, "America/Los_Angeles")
	require.NoError(t, err)

	repositories.DB = db
	services.Messages = services.NewMessageService(db, resolver, 10)
	services.Moderation = services.NewModerationClient("")

	return &testServer{
		db:      db,
		clock:   clock,
		handler: api.SetupRouter(),
	}
}

func (s *testServer) addUser(t *testing.T, email string) *models.User {
	t.Helper()
	hashed, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	require.NoError(t, err)
	user := &models.User{
		Email:         email,
		Username:      "U" + strings.Split(email, "@")[0],
		Password:      string(hashed),
		Points:        50,
		UnlockedItems: models.DefaultUnlockedItems,
		Roles:         []string{"user"},
		AccountType:   "regular",
	}
	require.NoError(t, repositories.CreateUser(s.db, user))
	return user
}

func sessionCookie(t *testing.T, user *models.User) *http.Cookie {
	t.Helper()
	claims := jwt.MapClaims{
		"userId":   user.ID.String(),
		"username": user.Username,
		"exp":      time.Now().Add(time.Hour).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).
		SignedString([]byte(config.Envs.JWTSecret))
	require.NoError(t, err)
	return &http.Cookie{Name: "token", Value: token}
}

func (s *testServer) request(t *testing.T, method, path string, body any, cookie *http.Cookie) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if cookie != nil {
		req.AddCookie(cookie)
	}

	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)

	var payload map[string]any
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	}
	return rec, payload
}

func data(t *testing.T, payload map[string]any) map[string]any {
	t.Helper()
	d, ok := payload["data"].(map[string]any)
	require.True(t, ok, "payload has no data object: %v", payload)
	return d
}

func TestSignUpLoginLogout(t *testing.T) {
	s := newTestServer(t)

	rec, payload := s.request(t, http.MethodPost, "/api/v1/auth/sign-up",
		map[string]any{"email": "alice@example.com", "password": "password123"}, nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	d := data(t, payload)
	assert.Equal(t, "alice@example.com", d["email"])
	assert.EqualValues(t, 50, d["points"])
	assert.NotEmpty(t, d["username"])

	var sawSession bool
	for _, c := range rec.Result().Cookies() {
		if c.Name == "token" && c.Value != "" {
			sawSession = true
		}
	}
	assert.True(t, sawSession, "sign-up should set a session cookie")

	// Duplicate email is rejected.
	rec, _ = s.request(t, http.MethodPost, "/api/v1/auth/sign-up",
		map[string]any{"email": "alice@example.com", "password": "other"}, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	// Wrong password.
	rec, _ = s.request(t, http.MethodPost, "/api/v1/auth/login",
		map[string]any{"email": "alice@example.com", "password": "wrong"}, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Unknown account.
	rec, _ = s.request(t, http.MethodPost, "/api/v1/auth/login",
		map[string]any{"email": "nobody@example.com", "password": "password123"}, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, _ = s.request(t, http.MethodPost, "/api/v1/auth/login",
		map[string]any{"email": "alice@example.com", "password": "password123"}, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestLogout(t *testing.T) {
	s := newTestServer(t)
	alice := s.addUser(t, "alice@example.com")

	rec, payload := s.request(t, http.MethodPost, "/api/v1/auth/logout", nil, sessionCookie(t, alice))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, payload["success"].(bool))

	var cleared bool
	for _, c := range rec.Result().Cookies() {
		if c.Name == "token" && c.Value == "" && c.MaxAge < 0 {
			cleared = true
		}
	}
	assert.True(t, cleared, "logout should expire the session cookie")

	rec, _ = s.request(t, http.MethodGet, "/api/v1/auth/logout", nil, nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestSendReceiveFlow(t *testing.T) {
	s := newTestServer(t)
	alice := s.addUser(t, "alice@example.com")
	bob := s.addUser(t, "bob@example.com")
	carol := s.addUser(t, "carol@example.com")

	// Alice sends and earns the reward.
	rec, payload := s.request(t, http.MethodPost, "/api/v1/messages/send",
		map[string]any{"text": "You matter.", "customization": map[string]any{"color": "color-purple"}},
		sessionCookie(t, alice))
	require.Equal(t, http.StatusOK, rec.Code)
	d := data(t, payload)
	assert.EqualValues(t, 60, d["points"])
	assert.NotEmpty(t, d["messageId"])

	// Second send the same day is rejected.
	rec, _ = s.request(t, http.MethodPost, "/api/v1/messages/send",
		map[string]any{"text": "again"}, sessionCookie(t, alice))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// Eligibility reflects the consumed send.
	rec, payload = s.request(t, http.MethodGet, "/api/v1/messages/status", nil, sessionCookie(t, alice))
	require.Equal(t, http.StatusOK, rec.Code)
	d = data(t, payload)
	assert.Equal(t, false, d["canSend"])
	assert.Equal(t, true, d["canReceive"])

	// Bob receives Alice's message; sender is the display handle.
	rec, payload = s.request(t, http.MethodGet, "/api/v1/messages/receive", nil, sessionCookie(t, bob))
	require.Equal(t, http.StatusOK, rec.Code)
	d = data(t, payload)
	assert.Equal(t, false, d["waiting"])
	msg, ok := d["message"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "You matter.", msg["text"])
	assert.Equal(t, alice.Username, msg["sender"])

	// Bob cannot receive twice in a day.
	rec, _ = s.request(t, http.MethodGet, "/api/v1/messages/receive", nil, sessionCookie(t, bob))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// The pool is drained: Carol waits.
	rec, payload = s.request(t, http.MethodGet, "/api/v1/messages/receive", nil, sessionCookie(t, carol))
	require.Equal(t, http.StatusOK, rec.Code)
	d = data(t, payload)
	assert.Equal(t, true, d["waiting"])
	assert.Nil(t, d["message"])

	// History shows both sides.
	rec, payload = s.request(t, http.MethodGet, "/api/v1/messages/mine", nil, sessionCookie(t, bob))
	require.Equal(t, http.StatusOK, rec.Code)
	d = data(t, payload)
	received, ok := d["receivedMessages"].([]any)
	require.True(t, ok)
	require.Len(t, received, 1)
}

func TestSendValidation(t *testing.T) {
	s := newTestServer(t)
	alice := s.addUser(t, "alice@example.com")

	rec, _ := s.request(t, http.MethodPost, "/api/v1/messages/send",
		map[string]any{"text": "   "}, sessionCookie(t, alice))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = s.request(t, http.MethodPost, "/api/v1/messages/send",
		map[string]any{"text": "hello"}, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestBannedUserRejectedEverywhere(t *testing.T) {
	s := newTestServer(t)
	alice := s.addUser(t, "alice@example.com")
	require.NoError(t, repositories.UpdateUserFields(s.db, alice.ID, map[string]any{"banned": true}))

	for _, probe := range []struct {
		method, path string
	}{
		{http.MethodPost, "/api/v1/messages/send"},
		{http.MethodGet, "/api/v1/messages/receive"},
		{http.MethodGet, "/api/v1/messages/status"},
		{http.MethodGet, "/api/v1/users/me"},
	} {
		rec, _ := s.request(t, probe.method, probe.path,
			map[string]any{"text": "hi"}, sessionCookie(t, alice))
		assert.Equal(t, http.StatusForbidden, rec.Code, "%s %s", probe.method, probe.path)
	}
}

func TestStaleSessionForDeletedUser(t *testing.T) {
	s := newTestServer(t)
	alice := s.addUser(t, "alice@example.com")
	cookie := sessionCookie(t, alice)
	require.NoError(t, s.db.Delete(&models.User{}, "id = ?", alice.ID).Error)

	rec, _ := s.request(t, http.MethodGet, "/api/v1/messages/status", nil, cookie)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUnlockItemEndpoint(t *testing.T) {
	s := newTestServer(t)
	alice := s.addUser(t, "alice@example.com")

	rec, payload := s.request(t, http.MethodPost, "/api/v1/shop/unlock",
		map[string]any{"itemId": "font-serif", "cost": 30}, sessionCookie(t, alice))
	require.Equal(t, http.StatusOK, rec.Code)
	d := data(t, payload)
	assert.EqualValues(t, 20, d["newPoints"])

	rec, _ = s.request(t, http.MethodPost, "/api/v1/shop/unlock",
		map[string]any{"itemId": "font-serif", "cost": 30}, sessionCookie(t, alice))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = s.request(t, http.MethodPost, "/api/v1/shop/unlock",
		map[string]any{"itemId": "bg-sunset", "cost": 100}, sessionCookie(t, alice))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRegenerateUsernameOnce(t *testing.T) {
	s := newTestServer(t)
	alice := s.addUser(t, "alice@example.com")

	rec, payload := s.request(t, http.MethodGet, "/api/v1/users/me/username/regenerate", nil, sessionCookie(t, alice))
	require.Equal(t, http.StatusOK, rec.Code)
	suggestion := data(t, payload)["newUsername"].(string)
	require.NotEmpty(t, suggestion)

	rec, _ = s.request(t, http.MethodPost, "/api/v1/users/me/username/regenerate",
		map[string]any{"newUsername": suggestion}, sessionCookie(t, alice))
	require.Equal(t, http.StatusOK, rec.Code)

	rec, _ = s.request(t, http.MethodPost, "/api/v1/users/me/username/regenerate",
		map[string]any{"newUsername": "SecondTry1"}, sessionCookie(t, alice))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestAdminEndpoints(t *testing.T) {
	s := newTestServer(t)
	alice := s.addUser(t, "alice@example.com")
	admin := s.addUser(t, "admin@example.com")
	require.NoError(t, repositories.UpdateUserFields(s.db, admin.ID, map[string]any{"account_type": "admin"}))

	// Non-admin is rejected.
	rec, _ := s.request(t, http.MethodGet, "/api/v1/admin/stats", nil, sessionCookie(t, alice))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// Seed one pending message.
	rec, _ = s.request(t, http.MethodPost, "/api/v1/messages/send",
		map[string]any{"text": "hi"}, sessionCookie(t, alice))
	require.Equal(t, http.StatusOK, rec.Code)

	rec, payload := s.request(t, http.MethodGet, "/api/v1/admin/stats", nil, sessionCookie(t, admin))
	require.Equal(t, http.StatusOK, rec.Code)
	d := data(t, payload)
	assert.EqualValues(t, 2, d["totalUsers"])
	assert.EqualValues(t, 1, d["totalMessages"])
	assert.EqualValues(t, 1, d["pendingMessages"])
	assert.EqualValues(t, 0, d["deliveredMessages"])

	// Ban via partial update.
	rec, _ = s.request(t, http.MethodPost, "/api/v1/admin/users/update",
		map[string]any{"email": "alice@example.com", "banned": true}, sessionCookie(t, admin))
	require.Equal(t, http.StatusOK, rec.Code)
	stored, err := repositories.GetUserByEmail(s.db, "alice@example.com")
	require.NoError(t, err)
	assert.True(t, stored.Banned)

	// Delete cascades to the user's messages.
	rec, _ = s.request(t, http.MethodPost, "/api/v1/admin/users/delete",
		map[string]any{"email": "alice@example.com"}, sessionCookie(t, admin))
	require.Equal(t, http.StatusOK, rec.Code)

	count, err := repositories.CountMessages(s.db)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestProfanityEndpoint(t *testing.T) {
	s := newTestServer(t)
	alice := s.addUser(t, "alice@example.com")

	rec, payload := s.request(t, http.MethodPost, "/api/v1/moderation/profanity",
		map[string]any{"text": "you are wonderful"}, sessionCookie(t, alice))
	require.Equal(t, http.StatusOK, rec.Code)
	d := data(t, payload)
	assert.Equal(t, false, d["flagged"])
}
