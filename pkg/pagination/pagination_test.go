package pagination

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	assert.Equal(t, Params{Page: 1, Limit: 20, Offset: 0}, Normalize(0, 0))
	assert.Equal(t, Params{Page: 3, Limit: 10, Offset: 20}, Normalize(3, 10))
	assert.Equal(t, Params{Page: 2, Limit: MaxLimit, Offset: MaxLimit}, Normalize(2, 500))
}

func TestParseQuery(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("GET", "/api/requests?page=2&limit=5", nil)

	assert.Equal(t, Params{Page: 2, Limit: 5, Offset: 5}, Parse(c))
}
