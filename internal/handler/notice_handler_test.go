package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cmc-renewal/cms-api/internal/models"
	"github.com/cmc-renewal/cms-api/pkg/filter"
)

type noticeServiceMock struct {
	recruitCode string
	query       models.EntityQuery
	err         error
}

func (m *noticeServiceMock) List(ctx context.Context, recruitCode string, q models.EntityQuery) ([]models.Entity, models.Pagination, error) {
	m.recruitCode, m.query = recruitCode, q
	if m.err != nil {
		return nil, models.Pagination{}, m.err
	}
	return []models.Entity{{"id": 1, "title": "Hiring"}}, models.NewPagination(1, 25, 1), nil
}

func (m *noticeServiceMock) FindOne(ctx context.Context, id string, q models.EntityQuery) (models.Entity, error) {
	if m.err != nil {
		return nil, m.err
	}
	return models.Entity{"id": 1, "documentId": id}, nil
}

func noticeRouter(svc *noticeServiceMock) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewNoticeHandler(svc)
	r := gin.New()
	r.GET("/api/notices", h.List)
	r.GET("/api/notices/:id", h.FindOne)
	return r
}

func TestNoticeHandlerListPassesRecruitCodeAndFilters(t *testing.T) {
	svc := &noticeServiceMock{}
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/notices?recruitCode=recruit-1&filters[title][$contains]=notice", nil)
	noticeRouter(svc).ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "recruit-1", svc.recruitCode)
	assert.Equal(t, filter.Contains("title", "notice"), svc.query.Filters)

	var body struct {
		Data []map[string]interface{} `json:"data"`
		Meta struct {
			Pagination models.Pagination `json:"pagination"`
		} `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Len(t, body.Data, 1)
	assert.Equal(t, 1, body.Meta.Pagination.Total)
	assert.Equal(t, 25, body.Meta.Pagination.PageSize)
}

func TestNoticeHandlerRejectsBadQuery(t *testing.T) {
	svc := &noticeServiceMock{}
	w := httptest.NewRecorder()
	noticeRouter(svc).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/notices?filters[$or]=x", nil))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), `"name":"ValidationError"`)
}

func TestNoticeHandlerHidesInternalErrors(t *testing.T) {
	svc := &noticeServiceMock{err: errors.New("pq: connection refused")}
	w := httptest.NewRecorder()
	noticeRouter(svc).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/notices", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "connection refused")
}

func TestNoticeHandlerFindOne(t *testing.T) {
	w := httptest.NewRecorder()
	noticeRouter(&noticeServiceMock{}).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/notices/abc123", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"data":{"id":1,"documentId":"abc123"},"meta":{}}`, w.Body.String())
}
