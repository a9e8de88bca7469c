package utils

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func newContext(prefer ...string) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	for _, p := range prefer {
		c.Request.Header.Add("Prefer", p)
	}
	return c, w
}

func TestSendError(t *testing.T) {
	c, w := newContext()
	SendBadRequest(c, "bad body")

	assert.True(t, c.IsAborted())
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":{"message":"bad body","code":400}}`, w.Body.String())
}

func TestSendRecords(t *testing.T) {
	c, w := newContext()
	SendRecords(c, http.StatusOK, "0-0/1", []map[string]any{{"a": 1}})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "0-0/1", w.Header().Get("Content-Range"))
	assert.JSONEq(t, `[{"a":1}]`, w.Body.String())
}

func TestPreferMinimal(t *testing.T) {
	tests := []struct {
		prefer []string
		want   bool
	}{
		{nil, false},
		{[]string{"return=representation"}, false},
		{[]string{"return=minimal"}, true},
		{[]string{"count=exact, return=minimal"}, true},
		{[]string{"count=exact", "return=minimal"}, true},
		{[]string{"return=minimalist"}, false},
	}
	for _, tc := range tests {
		c, _ := newContext(tc.prefer...)
		assert.Equal(t, tc.want, PreferMinimal(c), "%v", tc.prefer)
	}

	c, w := newContext("return=minimal")
	SendRecords(c, http.StatusCreated, "", []map[string]any{{"a": 1}})
	c.Writer.WriteHeaderNow()
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, w.Body.String())
}
