package service

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cmc-renewal/cms-api/internal/models"
	appErrors "github.com/cmc-renewal/cms-api/pkg/errors"
	"github.com/cmc-renewal/cms-api/pkg/storage"
)

type memoryProvider struct {
	objects map[string][]byte
	putErr  error
}

func (p *memoryProvider) Put(ctx context.Context, obj storage.Object) (string, error) {
	if p.putErr != nil {
		return "", p.putErr
	}
	body, err := io.ReadAll(obj.Body)
	if err != nil {
		return "", err
	}
	p.objects[obj.Key] = body
	return "https://cdn.example.com/" + obj.Key, nil
}

func (p *memoryProvider) Delete(ctx context.Context, key string) error {
	delete(p.objects, key)
	return nil
}

func (p *memoryProvider) Name() string { return "memory" }

type memoryFiles struct {
	*memoryStore
	createErr error
}

func (m *memoryFiles) Create(ctx context.Context, uid string, values models.Entity) (models.Entity, error) {
	if m.createErr != nil {
		return nil, m.createErr
	}
	row := models.Entity{}
	for k, v := range values {
		row[k] = v
	}
	row["id"] = int64(len(m.data[uid]) + 1)
	row["documentId"] = strconv.Itoa(len(m.data[uid]) + 1)
	m.data[uid] = append(m.data[uid], row)
	return row, nil
}

func (m *memoryFiles) Delete(ctx context.Context, uid string, id int64) error {
	rows := m.data[uid]
	for i, r := range rows {
		if r.ID() == id {
			m.data[uid] = append(rows[:i], rows[i+1:]...)
			return nil
		}
	}
	return appErrors.ErrNotFound
}

func newUploadService(files *memoryFiles, provider *memoryProvider) *UploadService {
	content := NewContentService(files.memoryStore, models.DefaultRegistry(), nil, nil)
	svc := NewUploadService(files, content, provider, UploadConfig{
		Keys:        storage.KeyBuilder{BaseDir: "portfolio", SortInStorage: true},
		MaxFileSize: 1024,
	}, nil, nil)
	svc.now = func() time.Time { return time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC) }
	return svc
}

func TestUploadServiceStoresAndRecordsFile(t *testing.T) {
	files := &memoryFiles{memoryStore: &memoryStore{data: map[string][]models.Entity{}}}
	provider := &memoryProvider{objects: map[string][]byte{}}
	svc := newUploadService(files, provider)

	out, err := svc.Upload(context.Background(), []UploadFile{{
		Name: "Team Photo.PNG", MIME: "image/png", Size: 5, Body: strings.NewReader("hello"),
	}})
	require.NoError(t, err)
	require.Len(t, out, 1)

	stored := files.data[models.FileUID][0]
	key := stored.String("objectKey")
	assert.True(t, strings.HasPrefix(key, "portfolio/images/2024/05/team_photo_"), key)
	assert.True(t, strings.HasSuffix(key, ".png"), key)
	assert.Equal(t, []byte("hello"), provider.objects[key])

	assert.Equal(t, "Team Photo.PNG", out[0].String("name"))
	assert.Equal(t, "memory", out[0].String("provider"))
	assert.Equal(t, "https://cdn.example.com/"+key, out[0].String("url"))
	assert.NotContains(t, out[0], "objectKey")
	assert.NotContains(t, out[0], "folderPath")
}

func TestUploadServiceRejectsLargeFiles(t *testing.T) {
	files := &memoryFiles{memoryStore: &memoryStore{data: map[string][]models.Entity{}}}
	provider := &memoryProvider{objects: map[string][]byte{}}
	svc := newUploadService(files, provider)

	_, err := svc.Upload(context.Background(), []UploadFile{{Name: "big.bin", MIME: "application/octet-stream", Size: 4096, Body: strings.NewReader("")}})
	assert.Equal(t, http.StatusRequestEntityTooLarge, appErrors.FromError(err).Status)
	assert.Empty(t, provider.objects)

	_, err = svc.Upload(context.Background(), nil)
	assert.Equal(t, http.StatusBadRequest, appErrors.FromError(err).Status)
}

func TestUploadServiceCleansUpWhenRecordFails(t *testing.T) {
	files := &memoryFiles{memoryStore: &memoryStore{data: map[string][]models.Entity{}}, createErr: errors.New("insert failed")}
	provider := &memoryProvider{objects: map[string][]byte{}}
	svc := newUploadService(files, provider)

	_, err := svc.Upload(context.Background(), []UploadFile{{Name: "a.txt", MIME: "text/plain", Size: 1, Body: strings.NewReader("a")}})
	assert.Equal(t, http.StatusInternalServerError, appErrors.FromError(err).Status)
	assert.Empty(t, provider.objects)
}

func TestUploadServiceRemove(t *testing.T) {
	files := &memoryFiles{memoryStore: &memoryStore{data: map[string][]models.Entity{}}}
	provider := &memoryProvider{objects: map[string][]byte{}}
	svc := newUploadService(files, provider)

	_, err := svc.Upload(context.Background(), []UploadFile{{Name: "doc.pdf", MIME: "application/pdf", Size: 3, Body: strings.NewReader("pdf")}})
	require.NoError(t, err)

	removed, err := svc.Remove(context.Background(), "1")
	require.NoError(t, err)
	assert.Equal(t, "doc.pdf", removed.String("name"))
	assert.Empty(t, provider.objects)
	assert.Empty(t, files.data[models.FileUID])

	_, err = svc.Remove(context.Background(), "abc")
	assert.Equal(t, http.StatusNotFound, appErrors.FromError(err).Status)
}

func TestFileHash(t *testing.T) {
	assert.Regexp(t, `^team_photo_[a-z0-9]{10}$`, fileHash("Team  Photo!"))
	assert.Regexp(t, `^[a-z0-9]{10}$`, fileHash("사진"))
}
