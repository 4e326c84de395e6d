package http_test

import (
	"bytes"
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	api "github.com/nutrilabel/auth-service/internal/http"
	"github.com/nutrilabel/auth-service/internal/queue"
	"github.com/nutrilabel/auth-service/internal/repo"
)

type testEnv struct {
	Ctx    context.Context
	Store  *repo.Memory
	Router *gin.Engine
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	store := repo.NewMemory()
	h := api.NewHandler(store, queue.NewNoop(), "auth.events", "http://localhost:5173", "", time.Hour)

	gin.SetMode(gin.TestMode)
	return &testEnv{Ctx: context.Background(), Store: store, Router: api.NewRouter(h)}
}

func (e *testEnv) do(method, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	e.Router.ServeHTTP(w, req)
	return w
}
