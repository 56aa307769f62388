package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cmc-renewal/cms-api/internal/models"
	appErrors "github.com/cmc-renewal/cms-api/pkg/errors"
	"github.com/cmc-renewal/cms-api/pkg/filter"
)

func newMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	sqlxdb := sqlx.NewDb(db, "sqlmock")
	return sqlxdb, mock, func() {
		db.Close()
	}
}

const noticeColumns = `"notices"."id" AS "id", "notices"."document_id" AS "documentId", "notices"."created_at" AS "createdAt", ` +
	`"notices"."updated_at" AS "updatedAt", "notices"."published_at" AS "publishedAt", "notices"."title" AS "title", ` +
	`"notices"."summary" AS "summary", "notices"."content" AS "content", "notices"."views" AS "views"`

const categoryJoin = `LEFT JOIN "categories" AS "category_ko" ON "category_ko"."id" = "notices"."category_ko_id"`

func TestFindPageGeneralFeed(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewEntityRepository(db, models.DefaultRegistry())

	where := `WHERE "notices"."published_at" IS NOT NULL AND ("notices"."category_ko_id" IS NULL OR "category_ko"."name" NOT IN ($1))`
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM "notices" ` + categoryJoin + ` ` + where)).
		WithArgs("Jobs").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(26))

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "documentId", "createdAt", "updatedAt", "publishedAt", "title", "summary", "content", "views"}).
		AddRow(int64(26), "doc-26", now, now, now, "Welcome", nil, "<p>hi</p>", int64(3))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT ` + noticeColumns + ` FROM "notices" ` + categoryJoin + ` ` + where +
		` ORDER BY "notices"."published_at" DESC, "notices"."id" ASC LIMIT 25 OFFSET 25`)).
		WithArgs("Jobs").
		WillReturnRows(rows)

	entities, pagination, err := repo.FindPage(context.Background(), models.NoticeUID, models.EntityQuery{
		Filters: filter.Or{filter.IsNull("category_ko"), filter.NotIn("category_ko.name", []string{"Jobs"})},
		Sort:    []models.SortField{{Field: "publishedAt", Desc: true}},
		Page:    2,
	})
	require.NoError(t, err)
	require.Len(t, entities, 1)
	assert.Equal(t, "Welcome", entities[0]["title"])
	assert.Equal(t, models.Pagination{Page: 2, PageSize: 25, PageCount: 2, Total: 26}, pagination)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindManyCategoriesByPrefix(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewEntityRepository(db, models.DefaultRegistry())

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT "categories"."id" AS "id", "categories"."document_id" AS "documentId", "categories"."name" AS "name" ` +
		`FROM "categories" WHERE "categories"."code" LIKE $1 ORDER BY "categories"."id" ASC`)).
		WithArgs("recruit%").
		WillReturnRows(sqlmock.NewRows([]string{"id", "documentId", "name"}).AddRow(int64(1), "c1", "Jobs"))

	entities, err := repo.FindMany(context.Background(), models.CategoryUID, models.EntityQuery{
		Filters: filter.StartsWith("code", "recruit"),
		Fields:  []string{"name"},
	})
	require.NoError(t, err)
	assert.Equal(t, []models.Entity{{"id": int64(1), "documentId": "c1", "name": "Jobs"}}, entities)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindOnePopulatesRelation(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewEntityRepository(db, models.DefaultRegistry())

	columns := []string{"id", "documentId", "title", "category_ko.id", "category_ko.documentId", "category_ko.code", "category_ko.name"}
	mock.ExpectQuery(`FROM "notices" LEFT JOIN "categories" AS "category_ko" .* WHERE "notices"\."document_id" = \$1 AND "notices"\."published_at" IS NOT NULL .* LIMIT 1`).
		WithArgs("doc-1").
		WillReturnRows(sqlmock.NewRows(columns).AddRow(int64(1), "doc-1", "Hiring", int64(4), "c4", "recruit-1", "Jobs"))

	entity, err := repo.FindOne(context.Background(), models.NoticeUID, "doc-1", models.EntityQuery{Populate: []string{"category_ko"}})
	require.NoError(t, err)
	assert.Equal(t, "Hiring", entity["title"])
	assert.Equal(t, models.Entity{"id": int64(4), "documentId": "c4", "code": "recruit-1", "name": "Jobs"}, entity["category_ko"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindOneNullRelationAndNotFound(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewEntityRepository(db, models.DefaultRegistry())

	mock.ExpectQuery(`WHERE "notices"\."id" = \$1`).
		WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "category_ko.id", "category_ko.name"}).AddRow(int64(5), nil, nil))
	mock.ExpectQuery(`WHERE "notices"\."id" = \$1`).
		WithArgs(int64(6)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	entity, err := repo.FindOne(context.Background(), models.NoticeUID, "5", models.EntityQuery{Populate: []string{"*"}})
	require.NoError(t, err)
	assert.Contains(t, entity, "category_ko")
	assert.Nil(t, entity["category_ko"])

	_, err = repo.FindOne(context.Background(), models.NoticeUID, "6", models.EntityQuery{})
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindPageRejectsInvalidKeys(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewEntityRepository(db, models.DefaultRegistry())

	cases := []models.EntityQuery{
		{Filters: filter.Eq("password", "x")},
		{Filters: filter.Eq("category_ko.unknown", "x")},
		{Fields: []string{"category_ko"}},
		{Populate: []string{"title"}},
		{Sort: []models.SortField{{Field: "nope"}}},
		{Status: "archived"},
	}
	for _, q := range cases {
		_, _, err := repo.FindPage(context.Background(), models.NoticeUID, q)
		var appErr *appErrors.Error
		require.True(t, errors.As(err, &appErr), "%+v", q)
		assert.Equal(t, "ValidationError", appErr.Code)
	}
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateAndDeleteFile(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewEntityRepository(db, models.DefaultRegistry())

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "files" ("created_at", "document_id", "hash", "mime", "name", "object_key", "provider", "size", "updated_at", "url") VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10) RETURNING id`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(7)))
	mock.ExpectQuery(`FROM "files" WHERE "files"\."id" = \$1 ORDER BY "files"\."id" ASC LIMIT 1`).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "size"}).AddRow(int64(7), "a.png", []byte("12.5")))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "files" WHERE "id" = $1`)).
		WithArgs(int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "files" WHERE "id" = $1`)).
		WithArgs(int64(8)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	created, err := repo.Create(context.Background(), models.FileUID, models.Entity{
		"name": "a.png", "hash": "a_1", "mime": "image/png", "size": 12.5,
		"url": "https://cdn/a.png", "provider": "s3", "objectKey": "portfolio/a.png",
	})
	require.NoError(t, err)
	assert.Equal(t, 12.5, created["size"])

	require.NoError(t, repo.Delete(context.Background(), models.FileUID, 7))
	assert.ErrorIs(t, repo.Delete(context.Background(), models.FileUID, 8), appErrors.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateRejectsUnknownAttribute(t *testing.T) {
	db, _, cleanup := newMock(t)
	defer cleanup()
	repo := NewEntityRepository(db, models.DefaultRegistry())

	_, err := repo.Create(context.Background(), models.FileUID, models.Entity{"password": "x"})
	assert.Error(t, err)
}
