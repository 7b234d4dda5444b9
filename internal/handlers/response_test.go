package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ai-shadow/shadow-backend/internal/errordata"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestContext(target string) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req := httptest.NewRequest(http.MethodGet, target, nil)
	c.Request = req.WithContext(errordata.WithErrorData(req.Context()))
	return c, w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestRespondErrorEnvelope(t *testing.T) {
	c, w := newTestContext("/")
	respondError(c, errordata.Gateway("quota exceeded", errors.New("429")))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	body := decode(t, w)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "Error sending message", body["message"])
	assert.Equal(t, "quota exceeded", body["error"])
	assert.True(t, errordata.GetErrorData(c.Request.Context()).HasMessage())
}

func TestRespondErrorHidesPlainErrors(t *testing.T) {
	c, w := newTestContext("/")
	respondError(c, errors.New("pq: connection reset"))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	body := decode(t, w)
	assert.Equal(t, "Internal server error", body["message"])
	assert.NotContains(t, body, "error")
}

func TestRespondOKAddsSuccess(t *testing.T) {
	c, w := newTestContext("/")
	respondOK(c, http.StatusCreated, gin.H{"token": "t"})

	assert.Equal(t, http.StatusCreated, w.Code)
	body := decode(t, w)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "t", body["token"])
}

func TestQueryInt(t *testing.T) {
	cases := []struct {
		target string
		want   int
	}{
		{"/?limit=10", 10},
		{"/", 50},
		{"/?limit=abc", 50},
		{"/?limit=-3", 50},
		{"/?limit=0", 0},
	}
	for _, tc := range cases {
		c, _ := newTestContext(tc.target)
		assert.Equal(t, tc.want, queryInt(c, "limit", 50), tc.target)
	}
}

func TestUUIDParamMalformedIsNotFound(t *testing.T) {
	c, w := newTestContext("/")
	c.Params = gin.Params{{Key: "chatId", Value: "nope"}}
	_, ok := uuidParam(c, "chatId", errChatNotFound)

	assert.False(t, ok)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Chat not found", decode(t, w)["message"])
}

func TestNoRoute(t *testing.T) {
	c, w := newTestContext("/api/missing")
	NoRoute(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
	body := decode(t, w)
	assert.Equal(t, "/api/missing", body["path"])
}
