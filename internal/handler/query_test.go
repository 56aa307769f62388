package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cmc-renewal/cms-api/internal/models"
	appErrors "github.com/cmc-renewal/cms-api/pkg/errors"
	"github.com/cmc-renewal/cms-api/pkg/filter"
)

func contextFor(target string) *gin.Context {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, target, nil)
	return c
}

func TestSanitizeQueryParsesAllParameters(t *testing.T) {
	c := contextFor("/api/notices?filters[title][$contains]=notice&sort=publishedAt:desc,title" +
		"&pagination[page]=2&pagination[pageSize]=10&fields[1]=summary&fields[0]=title&populate=*&status=draft")

	q, err := sanitizeQuery(c)
	require.NoError(t, err)
	assert.Equal(t, filter.Contains("title", "notice"), q.Filters)
	assert.Equal(t, []models.SortField{{Field: "publishedAt", Desc: true}, {Field: "title"}}, q.Sort)
	assert.Equal(t, 2, q.Page)
	assert.Equal(t, 10, q.PageSize)
	assert.Equal(t, []string{"title", "summary"}, q.Fields)
	assert.Equal(t, []string{"*"}, q.Populate)
	assert.Equal(t, models.StatusDraft, q.Status)
}

func TestSanitizeQueryIndexedSortAndPopulate(t *testing.T) {
	c := contextFor("/api/notices?sort[1]=title:asc&sort[0]=views:desc&populate[0]=category_ko&populate[seo][fields][0]=title")

	q, err := sanitizeQuery(c)
	require.NoError(t, err)
	assert.Equal(t, []models.SortField{{Field: "views", Desc: true}, {Field: "title"}}, q.Sort)
	assert.Equal(t, []string{"category_ko", "seo"}, q.Populate)
	assert.Nil(t, q.Filters)
}

func TestSanitizeQueryRejectsMalformedInput(t *testing.T) {
	for _, target := range []string{
		"/api/notices?sort=title:sideways",
		"/api/notices?pagination[page]=zero",
		"/api/notices?pagination[pageSize]=-1",
		"/api/notices?pagination[page]=2305843009213693952&pagination[pageSize]=100",
		"/api/notices?pagination[page]=21474838&pagination[pageSize]=100",
		"/api/notices?filters[title][$regex]=x",
	} {
		_, err := sanitizeQuery(contextFor(target))
		require.Error(t, err, target)
		assert.Equal(t, http.StatusBadRequest, appErrors.FromError(err).Status, target)
	}
}
