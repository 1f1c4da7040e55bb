package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"helpdesk/internal/config"
	"helpdesk/internal/pkg/jwt"
)

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{Port: 8080, Mode: "test"},
		LLM: config.LLMConfig{
			Provider:  config.ProviderMock,
			MaxTokens: 500,
			Timeout:   time.Second,
		},
		Support: config.SupportConfig{
			BrandName:      "Kerala Sellers",
			PolicyCacheTTL: time.Minute,
			LockTTL:        30 * time.Second,
			ReturnWindow:   7 * 24 * time.Hour,
		},
	}
}

func request(t *testing.T, srv *Server, method, path string, body any, header map[string]string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	srv.Engine().ServeHTTP(w, req)

	var out map[string]any
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	}
	return w, out
}

func TestServerInMemory(t *testing.T) {
	srv, err := New(context.Background(), testConfig())
	require.NoError(t, err)

	w, body := request(t, srv, http.MethodGet, "/ready", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ready", body["status"])

	w, body = request(t, srv, http.MethodPost, "/api/v1/conversations", map[string]string{"user_id": "u1"}, nil)
	require.Equal(t, http.StatusCreated, w.Code)
	id := body["data"].(map[string]any)["id"].(string)

	w, body = request(t, srv, http.MethodPost, "/api/v1/conversations/"+id+"/messages", map[string]string{"message": "hello"}, nil)
	require.Equal(t, http.StatusCreated, w.Code)
	reply := body["data"].(map[string]any)["ai_response"].(map[string]any)
	assert.Equal(t, false, reply["used_fallback"])
	assert.EqualValues(t, 1.0, reply["confidence"])

	// 未配置密钥时坐席接口不需要认证
	w, _ = request(t, srv, http.MethodPost, "/api/v1/conversations/"+id+"/escalate", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	w, _ = request(t, srv, http.MethodPost, "/api/v1/conversations/"+id+"/assign", map[string]string{"agent_id": "a1"}, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w, body = request(t, srv, http.MethodGet, "/api/v1/policies/unknown", nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.EqualValues(t, 40401, body["code"])
}

func TestServerAgentAuth(t *testing.T) {
	cfg := testConfig()
	cfg.Auth.JWTSecret = "test-secret"
	srv, err := New(context.Background(), cfg)
	require.NoError(t, err)

	w, body := request(t, srv, http.MethodPost, "/api/v1/conversations", map[string]string{"user_id": "u1"}, nil)
	require.Equal(t, http.StatusCreated, w.Code)
	id := body["data"].(map[string]any)["id"].(string)

	w, _ = request(t, srv, http.MethodPost, "/api/v1/conversations/"+id+"/escalate", map[string]string{"reason": "help"}, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w, _ = request(t, srv, http.MethodPost, "/api/v1/conversations/"+id+"/assign", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	token, err := jwt.NewJWT("test-secret", time.Hour).GenerateToken("agent-7")
	require.NoError(t, err)
	auth := map[string]string{"Authorization": "Bearer " + token}

	w, body = request(t, srv, http.MethodPost, "/api/v1/conversations/"+id+"/assign", nil, auth)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "agent-7", body["data"].(map[string]any)["assigned_agent"])

	w, body = request(t, srv, http.MethodPost, "/api/v1/conversations/"+id+"/agent/messages", map[string]string{"message": "hello", "agent_id": "spoofed"}, auth)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "agent-7", body["data"].(map[string]any)["agent_id"])
}

func TestServerLocalArchive(t *testing.T) {
	cfg := testConfig()
	cfg.Storage = config.StorageConfig{
		Type:  "local",
		Local: &config.LocalConfig{BasePath: t.TempDir(), BaseURL: "http://localhost:8080/files"},
	}
	srv, err := New(context.Background(), cfg)
	require.NoError(t, err)

	w, body := request(t, srv, http.MethodPost, "/api/v1/conversations", map[string]string{"user_id": "u1"}, nil)
	require.Equal(t, http.StatusCreated, w.Code)
	id := body["data"].(map[string]any)["id"].(string)

	w, _ = request(t, srv, http.MethodPost, "/api/v1/conversations/"+id+"/messages", map[string]string{"message": "I have a complaint"}, nil)
	require.Equal(t, http.StatusCreated, w.Code)

	w, body = request(t, srv, http.MethodPost, "/api/v1/conversations/"+id+"/resolve", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "http://localhost:8080/files/transcripts/"+id+".json", body["data"].(map[string]any)["transcript_url"])

	req := httptest.NewRequest(http.MethodGet, "/files/transcripts/"+id+".json", nil)
	rec := httptest.NewRecorder()
	srv.Engine().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), id)
}
