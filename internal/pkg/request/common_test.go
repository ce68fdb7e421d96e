package request

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type slotBody struct {
	Date  string `json:"date" binding:"required,weekday"`
	Start string `json:"start" binding:"required,hhmm"`
}

func bindStatus(t *testing.T, body string) int {
	t.Helper()
	require.NoError(t, RegisterValidators())

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/", func(c *gin.Context) {
		var b slotBody
		if err := c.ShouldBindJSON(&b); err != nil {
			c.Status(http.StatusBadRequest)
			return
		}
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w.Code
}

func TestCustomValidators(t *testing.T) {
	assert.Equal(t, http.StatusOK, bindStatus(t, `{"date":"2025-03-10","start":"09:00"}`))
	assert.Equal(t, http.StatusOK, bindStatus(t, `{"date":"2025-03-14","start":"09:00:00"}`))
	// Saturday
	assert.Equal(t, http.StatusBadRequest, bindStatus(t, `{"date":"2025-03-15","start":"09:00"}`))
	assert.Equal(t, http.StatusBadRequest, bindStatus(t, `{"date":"2025-03-10","start":"9am"}`))
	assert.Equal(t, http.StatusBadRequest, bindStatus(t, `{"date":"10/03/2025","start":"09:00"}`))
}

func TestListParamsNormalize(t *testing.T) {
	p := ListParams{}
	p.Normalize()
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, 20, p.PageSize)

	p = ListParams{Page: 3, PageSize: 500}
	p.Normalize()
	assert.Equal(t, 3, p.Page)
	assert.Equal(t, 100, p.PageSize)
}
