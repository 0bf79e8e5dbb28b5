package utils

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestSendNotFound(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	SendNotFound(c, "post not found")

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":{"message":"post not found"}}`, w.Body.String())
}

func TestQueryInt(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/posts?limit=5&offset=abc", nil)

	assert.Equal(t, 5, QueryInt(c, "limit", 10))
	assert.Equal(t, 0, QueryInt(c, "offset", 0))
	assert.Equal(t, 7, QueryInt(c, "missing", 7))
}
