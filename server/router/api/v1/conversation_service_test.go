package v1

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pedalhaus/pedalhaus/agent"
	"github.com/pedalhaus/pedalhaus/plugin/llm"
	"github.com/pedalhaus/pedalhaus/plugin/vectorstore"
	"github.com/pedalhaus/pedalhaus/server/profile"
	"github.com/pedalhaus/pedalhaus/store"
	memdb "github.com/pedalhaus/pedalhaus/store/db/memory"
)

type stubGenerator struct{}

func (stubGenerator) Generate(ctx context.Context, system string, msgs []llm.Message) (string, error) {
	return "Here is a fine bike for you.", nil
}

type stubSearcher struct{}

func (stubSearcher) Search(ctx context.Context, query, sourceID string, k int) ([]vectorstore.Snippet, error) {
	if sourceID == vectorstore.SourceFAQ {
		return nil, nil
	}
	return []vectorstore.Snippet{{
		ID:      "1",
		Content: `{"id":1,"name":"Trailblazer 500","type":"mountain","brand":"Ridgeline","price_eur":1299,"frame_material":"aluminum","gears":21,"brakes":"hydraulic disc","intended_use":["trail"]}`,
	}}, nil
}

type stubCRM struct{}

func (stubCRM) CreateLead(ctx context.Context, name, email, phone string) (string, error) {
	return "lead-1", nil
}

func newTestAPI(t *testing.T) (*echo.Echo, *store.Store) {
	t.Helper()
	sessions, err := store.New(memdb.New())
	require.NoError(t, err)

	orch := agent.New(sessions, stubSearcher{}, stubGenerator{}, stubCRM{}, nil)
	api := NewAPIV1Service(&profile.Profile{}, sessions, orch)

	e := echo.New()
	api.Register(e)
	return e, sessions
}

func doJSON(e *echo.Echo, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	e, _ := newTestAPI(t)

	rec := doJSON(e, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestCreateConversation(t *testing.T) {
	e, _ := newTestAPI(t)

	rec := doJSON(e, http.MethodPost, "/api/v1/conversations", "")
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp conversationResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.SessionID)
	assert.Equal(t, string(store.StateGreeting), resp.State)
	assert.NotEmpty(t, resp.Message)
}

func TestPostMessage(t *testing.T) {
	e, _ := newTestAPI(t)

	rec := doJSON(e, http.MethodPost, "/api/v1/conversations", "")
	require.Equal(t, http.StatusCreated, rec.Code)
	var created conversationResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

	rec = doJSON(e, http.MethodPost,
		"/api/v1/conversations/"+created.SessionID+"/messages",
		`{"message":"I need a mountain bike"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp messageResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, created.SessionID, resp.SessionID)
	assert.NotEmpty(t, resp.Response)
	assert.NotEmpty(t, resp.Products)
	assert.False(t, resp.LeadCreated)
}

func TestPostMessageValidation(t *testing.T) {
	e, _ := newTestAPI(t)

	rec := doJSON(e, http.MethodPost, "/api/v1/conversations", "")
	var created conversationResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

	rec = doJSON(e, http.MethodPost,
		"/api/v1/conversations/"+created.SessionID+"/messages",
		`{"message":"   "}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPostMessageUnknownSession(t *testing.T) {
	e, _ := newTestAPI(t)

	rec := doJSON(e, http.MethodPost,
		"/api/v1/conversations/does-not-exist/messages",
		`{"message":"hi"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetConversationHistory(t *testing.T) {
	e, _ := newTestAPI(t)

	rec := doJSON(e, http.MethodPost, "/api/v1/conversations", "")
	var created conversationResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

	doJSON(e, http.MethodPost,
		"/api/v1/conversations/"+created.SessionID+"/messages",
		`{"message":"I need a mountain bike"}`)

	rec = doJSON(e, http.MethodGet, "/api/v1/conversations/"+created.SessionID, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp historyResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, created.SessionID, resp.SessionID)
	// Welcome turn + user turn + assistant reply.
	require.Len(t, resp.History, 3)
	assert.Equal(t, store.RoleAssistant, resp.History[0].Role)
	assert.Equal(t, store.RoleUser, resp.History[1].Role)
}

func TestDeleteConversation(t *testing.T) {
	e, _ := newTestAPI(t)

	rec := doJSON(e, http.MethodPost, "/api/v1/conversations", "")
	var created conversationResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

	rec = doJSON(e, http.MethodDelete, "/api/v1/conversations/"+created.SessionID, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(e, http.MethodDelete, "/api/v1/conversations/"+created.SessionID, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
