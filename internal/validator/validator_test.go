package validator

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type startBody struct {
	Email string `json:"email" binding:"required,quizemail"`
}

type item struct {
	QuestionIndex *int    `json:"questionIndex" binding:"required,min=0"`
	Answer        *string `json:"answer" binding:"required"`
}

type submitBody struct {
	SessionID string `json:"sessionId" binding:"required"`
	Answers   []item `json:"answers" binding:"required,dive"`
}

func bindBody(t *testing.T, body string, dst interface{}) map[string]string {
	t.Helper()
	gin.SetMode(gin.TestMode)
	Setup()

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	return Bind(c, dst)
}

func TestIsQuizEmail(t *testing.T) {
	assert.True(t, IsQuizEmail("a@b.co"))
	assert.True(t, IsQuizEmail("first.last+tag@sub.example.org"))
	assert.False(t, IsQuizEmail(""))
	assert.False(t, IsQuizEmail("a@b"))
	assert.False(t, IsQuizEmail("a b@c.d"))
	assert.False(t, IsQuizEmail("no-at.example.com"))
}

func TestBindRejectsBadEmail(t *testing.T) {
	var dst startBody
	fields := bindBody(t, `{"email":"nope"}`, &dst)
	require.NotNil(t, fields)
	assert.Equal(t, "email must be a valid email address", fields["email"])
}

func TestBindAcceptsZeroIndex(t *testing.T) {
	var dst submitBody
	fields := bindBody(t, `{"sessionId":"x","answers":[{"questionIndex":0,"answer":""}]}`, &dst)
	assert.Nil(t, fields)
	require.Len(t, dst.Answers, 1)
	assert.Equal(t, 0, *dst.Answers[0].QuestionIndex)
}

func TestBindReportsNestedPaths(t *testing.T) {
	var dst submitBody
	fields := bindBody(t, `{"sessionId":"x","answers":[{"questionIndex":1}]}`, &dst)
	require.NotNil(t, fields)
	assert.Contains(t, fields, "answers[0].answer")
}

func TestBindReportsTypeErrors(t *testing.T) {
	var dst submitBody
	fields := bindBody(t, `{"sessionId":"x","answers":"nope"}`, &dst)
	require.NotNil(t, fields)
	assert.Contains(t, fields, "answers")
}
