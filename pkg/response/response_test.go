package response

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/cmc-renewal/cms-api/internal/models"
	appErrors "github.com/cmc-renewal/cms-api/pkg/errors"
)

func record(handler gin.HandlerFunc) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	handler(c)
	return w
}

func TestListEnvelope(t *testing.T) {
	w := record(func(c *gin.Context) {
		List(c, []map[string]interface{}{{"id": 1}}, &models.Pagination{Page: 1, PageSize: 25, PageCount: 1, Total: 1})
	})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t,
		`{"data":[{"id":1}],"meta":{"pagination":{"page":1,"pageSize":25,"pageCount":1,"total":1}}}`,
		w.Body.String())
}

func TestErrorEnvelope(t *testing.T) {
	w := record(func(c *gin.Context) {
		Error(c, appErrors.Clone(appErrors.ErrValidation, "Invalid key password"))
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t,
		`{"data":null,"error":{"name":"ValidationError","message":"Invalid key password","status":400}}`,
		w.Body.String())
}

func TestErrorHidesInternalDetails(t *testing.T) {
	w := record(func(c *gin.Context) {
		Error(c, errors.New("pq: connection refused"))
	})

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "connection refused")
	assert.Contains(t, w.Body.String(), "InternalServerError")
}
