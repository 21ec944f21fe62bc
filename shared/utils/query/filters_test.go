package query

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func testContext(rawQuery string, params gin.Params) *gin.Context {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("GET", "/?"+rawQuery, nil)
	c.Params = params
	return c
}

func TestUintParam(t *testing.T) {
	c := testContext("", gin.Params{{Key: "id", Value: "42"}})
	value, ok := UintParam(c, "id")
	assert.True(t, ok)
	assert.Equal(t, uint(42), value)

	for _, raw := range []string{"", "0", "-1", "abc", "1.5"} {
		c := testContext("", gin.Params{{Key: "id", Value: raw}})
		_, ok := UintParam(c, "id")
		assert.False(t, ok, "raw=%q", raw)
	}
}

func TestUintQuery(t *testing.T) {
	c := testContext("company_id=7", nil)
	value, present, ok := UintQuery(c, "company_id")
	assert.True(t, present)
	assert.True(t, ok)
	assert.Equal(t, uint(7), value)

	// Absent is fine, malformed is not.
	_, present, ok = UintQuery(c, "user_id")
	assert.False(t, present)
	assert.True(t, ok)

	c = testContext("company_id=zero", nil)
	_, present, ok = UintQuery(c, "company_id")
	assert.True(t, present)
	assert.False(t, ok)

	c = testContext("company_id=0", nil)
	_, present, ok = UintQuery(c, "company_id")
	assert.True(t, present)
	assert.False(t, ok, "zero is never a valid id")
}
