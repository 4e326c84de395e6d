package http_test

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	User    *struct {
		ID       int64  `json:"id"`
		Username string `json:"username"`
		Name     string `json:"name"`
	} `json:"user"`
}

func decode(t *testing.T, body []byte) envelope {
	t.Helper()
	var e envelope
	require.NoError(t, json.Unmarshal(body, &e))
	return e
}

func TestRegister_DuplicateUsername(t *testing.T) {
	env := newTestEnv(t)

	w := env.do("POST", "/api/register", `{"username":"alice","password":"secret"}`)
	require.Equal(t, http.StatusOK, w.Code)
	first := decode(t, w.Body.Bytes())
	assert.True(t, first.Success)
	assert.Equal(t, "User registered successfully", first.Message)

	w = env.do("POST", "/api/register", `{"username":"alice","password":"another"}`)
	require.Equal(t, http.StatusOK, w.Code)
	second := decode(t, w.Body.Bytes())
	assert.False(t, second.Success)
	assert.Equal(t, "Username already exists", second.Message)

	u, err := env.Store.FindByUsername(env.Ctx, "alice")
	require.NoError(t, err)
	require.NotNil(t, u, "exactly one row must exist")
	// the first password still verifies: the duplicate attempt changed nothing
	w = env.do("POST", "/api/login", `{"username":"alice","password":"secret"}`)
	assert.True(t, decode(t, w.Body.Bytes()).Success)
}

func TestRegister_WeakPasswordRejected(t *testing.T) {
	env := newTestEnv(t)

	w := env.do("POST", "/api/register", `{"username":"shorty","password":"12345"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, decode(t, w.Body.Bytes()).Success)

	u, err := env.Store.FindByUsername(env.Ctx, "shorty")
	require.NoError(t, err)
	assert.Nil(t, u)
}

func TestLogin(t *testing.T) {
	env := newTestEnv(t)
	env.do("POST", "/api/register", `{"username":"alice","password":"secret"}`)

	w := env.do("POST", "/api/login", `{"username":"alice","password":"secret"}`)
	require.Equal(t, http.StatusOK, w.Code)
	ok := decode(t, w.Body.Bytes())
	assert.True(t, ok.Success)
	assert.Equal(t, "Login successful", ok.Message)
	require.NotNil(t, ok.User)
	assert.Equal(t, "alice", ok.User.Username)
	assert.NotZero(t, ok.User.ID)

	w = env.do("POST", "/api/login", `{"username":"alice","password":"wrong"}`)
	bad := decode(t, w.Body.Bytes())
	assert.False(t, bad.Success)
	assert.Equal(t, "Incorrect password", bad.Message)
	assert.Nil(t, bad.User)

	w = env.do("POST", "/api/login", `{"username":"nobody","password":"secret"}`)
	missing := decode(t, w.Body.Bytes())
	assert.False(t, missing.Success)
	assert.Equal(t, "Invalid username", missing.Message)
}

func TestGoogleLogin_IdempotentUpsert(t *testing.T) {
	env := newTestEnv(t)
	body := `{"email":"g@x.com","name":"Gina","googleId":"sub-42","picture":"https://p/x.png"}`

	w := env.do("POST", "/api/google-login", body)
	require.Equal(t, http.StatusOK, w.Code)
	first := decode(t, w.Body.Bytes())
	require.True(t, first.Success)
	require.NotNil(t, first.User)

	w = env.do("POST", "/api/google-login", body)
	second := decode(t, w.Body.Bytes())
	require.True(t, second.Success)
	require.NotNil(t, second.User)

	assert.Equal(t, first.User.ID, second.User.ID, "repeat logins must hit the same row")
	assert.Equal(t, "g@x.com", second.User.Username)
	assert.Equal(t, "Gina", second.User.Name)

	// google-only account: the sentinel password can never log in locally
	w = env.do("POST", "/api/login", `{"username":"g@x.com","password":"GOOGLE_AUTH"}`)
	assert.False(t, decode(t, w.Body.Bytes()).Success)
}

func TestGoogleLogin_NoProfileMergeOnRepeat(t *testing.T) {
	env := newTestEnv(t)
	env.do("POST", "/api/google-login", `{"email":"g@x.com","name":"Old Name","googleId":"sub-7"}`)

	w := env.do("POST", "/api/google-login", `{"email":"g@x.com","name":"New Name","googleId":"sub-7"}`)
	got := decode(t, w.Body.Bytes())
	require.True(t, got.Success)
	assert.Equal(t, "Old Name", got.User.Name, "repeat logins return the stored row unmodified")
}

func TestForgotPassword_UnknownEmail(t *testing.T) {
	env := newTestEnv(t)

	w := env.do("POST", "/api/forgot-password", `{"email":"ghost@x.com"}`)
	require.Equal(t, http.StatusOK, w.Code)
	got := decode(t, w.Body.Bytes())
	assert.False(t, got.Success)
	assert.Equal(t, "Email not found", got.Message)
}

func TestResetToken_SingleUse(t *testing.T) {
	env := newTestEnv(t)
	env.do("POST", "/api/register", `{"username":"bob@x.com","password":"abcdef"}`)

	w := env.do("POST", "/api/forgot-password", `{"email":"bob@x.com"}`)
	require.True(t, decode(t, w.Body.Bytes()).Success)

	u, err := env.Store.FindByUsername(env.Ctx, "bob@x.com")
	require.NoError(t, err)
	require.NotNil(t, u.ResetToken)
	require.NotNil(t, u.ResetExpiry)
	assert.WithinDuration(t, time.Now().Add(time.Hour), *u.ResetExpiry, 5*time.Second)
	token := *u.ResetToken

	w = env.do("POST", "/api/reset-password", `{"token":"`+token+`","newPassword":"newpass1"}`)
	first := decode(t, w.Body.Bytes())
	assert.True(t, first.Success)
	assert.Equal(t, "Password reset successful", first.Message)

	// second redemption with the same token must fail
	w = env.do("POST", "/api/reset-password", `{"token":"`+token+`","newPassword":"newpass2"}`)
	second := decode(t, w.Body.Bytes())
	assert.False(t, second.Success)
	assert.Equal(t, "Invalid or expired token", second.Message)
}

func TestResetToken_Expired(t *testing.T) {
	env := newTestEnv(t)
	env.do("POST", "/api/register", `{"username":"eve@x.com","password":"abcdef"}`)

	// issue an already-expired token directly through the store
	require.NoError(t, env.Store.SetResetToken(env.Ctx, "eve@x.com", "stale-token", time.Now().Add(-time.Minute)))

	w := env.do("POST", "/api/reset-password", `{"token":"stale-token","newPassword":"newpass1"}`)
	got := decode(t, w.Body.Bytes())
	assert.False(t, got.Success)
	assert.Equal(t, "Invalid or expired token", got.Message)

	// a fresh forgot-password overwrites the stale token
	env.do("POST", "/api/forgot-password", `{"email":"eve@x.com"}`)
	u, err := env.Store.FindByUsername(env.Ctx, "eve@x.com")
	require.NoError(t, err)
	require.NotNil(t, u.ResetToken)
	assert.NotEqual(t, "stale-token", *u.ResetToken)
}

func TestResetToken_MismatchedTokenNeverMatches(t *testing.T) {
	env := newTestEnv(t)
	env.do("POST", "/api/register", `{"username":"bob@x.com","password":"abcdef"}`)
	env.do("POST", "/api/forgot-password", `{"email":"bob@x.com"}`)

	w := env.do("POST", "/api/reset-password", `{"token":"wellformedbutwrongAAAAAAAAAAAAAAAAAAAAAAAAA","newPassword":"newpass1"}`)
	got := decode(t, w.Body.Bytes())
	assert.False(t, got.Success)
	assert.Equal(t, "Invalid or expired token", got.Message)
}

func TestEndToEnd_RegisterForgotResetLogin(t *testing.T) {
	env := newTestEnv(t)

	w := env.do("POST", "/api/register", `{"username":"bob@x.com","password":"abcdef"}`)
	require.True(t, decode(t, w.Body.Bytes()).Success)

	w = env.do("POST", "/api/forgot-password", `{"email":"bob@x.com"}`)
	require.True(t, decode(t, w.Body.Bytes()).Success)

	u, err := env.Store.FindByUsername(env.Ctx, "bob@x.com")
	require.NoError(t, err)
	require.NotNil(t, u.ResetToken)

	w = env.do("POST", "/api/reset-password", `{"token":"`+*u.ResetToken+`","newPassword":"newpass1"}`)
	require.True(t, decode(t, w.Body.Bytes()).Success)

	w = env.do("POST", "/api/login", `{"username":"bob@x.com","password":"abcdef"}`)
	assert.False(t, decode(t, w.Body.Bytes()).Success, "old password must stop working")

	w = env.do("POST", "/api/login", `{"username":"bob@x.com","password":"newpass1"}`)
	assert.True(t, decode(t, w.Body.Bytes()).Success, "new password must work")
}

func TestLiveness(t *testing.T) {
	env := newTestEnv(t)

	w := env.do("GET", "/", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Backend is running", w.Body.String())

	w = env.do("GET", "/healthz", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestMalformedJSON(t *testing.T) {
	env := newTestEnv(t)

	for _, path := range []string{
		"/api/register", "/api/login", "/api/google-login",
		"/api/forgot-password", "/api/reset-password",
	} {
		w := env.do("POST", path, `{not json`)
		assert.Equal(t, http.StatusBadRequest, w.Code, path)
	}
}
