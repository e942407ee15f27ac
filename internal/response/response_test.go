package response

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvelopeCarriesRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestIDMiddleware())
	r.GET("/ok", func(c *gin.Context) { Success(c, http.StatusOK, gin.H{"x": 1}) })
	r.GET("/bad", func(c *gin.Context) {
		FailWithFields(c, http.StatusBadRequest, ErrValidation, map[string]string{"email": "required"})
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ok", nil)
	req.Header.Set("X-Request-ID", "req-123")
	r.ServeHTTP(w, req)

	var ok Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &ok))
	assert.Equal(t, "req-123", ok.Metadata.RequestID)
	assert.Equal(t, "req-123", w.Header().Get("X-Request-ID"))
	assert.Nil(t, ok.Error)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/bad", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var bad Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &bad))
	require.NotNil(t, bad.Error)
	assert.Equal(t, ErrValidation, bad.Error.Code)
	assert.Equal(t, "required", bad.Error.Fields["email"])
	assert.NotEmpty(t, bad.Metadata.RequestID)
}

func TestGetMessageDefault(t *testing.T) {
	assert.Equal(t, "Session not found.", GetMessage(ErrSessionNotFound))
	assert.Equal(t, "An unexpected error occurred.", GetMessage(ErrCode("NOPE")))
}

func TestRequestIDRejectsOddHeaders(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestIDMiddleware())
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, RequestID(c)) })

	for _, bad := range []string{"has space", string(make([]byte, 65))} {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Request-ID", bad)
		r.ServeHTTP(w, req)
		assert.NotEqual(t, bad, w.Body.String())
		assert.Len(t, w.Body.String(), 36)
	}
}
