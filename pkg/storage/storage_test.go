package storage

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cmc-renewal/cms-api/pkg/config"
)

func TestKeyBuilderSortsByKindAndMonth(t *testing.T) {
	now := time.Date(2024, 5, 3, 12, 0, 0, 0, time.UTC)
	sorted := KeyBuilder{BaseDir: "/portfolio/", SortInStorage: true}
	flat := KeyBuilder{BaseDir: "portfolio"}

	assert.Equal(t, "portfolio/images/2024/05/photo_a1b2.png", sorted.Build("photo_a1b2", ".PNG", "image/png", now))
	assert.Equal(t, "portfolio/videos/2024/05/clip_ff.mp4", sorted.Build("clip_ff", ".mp4", "video/mp4", now))
	assert.Equal(t, "portfolio/files/2024/05/doc_01.pdf", sorted.Build("doc_01", ".pdf", "application/pdf", now))
	assert.Equal(t, "portfolio/doc_01.pdf", flat.Build("doc_01", ".pdf", "application/pdf", now))
}

func TestValidKey(t *testing.T) {
	assert.True(t, validKey("portfolio/images/a.png"))
	assert.False(t, validKey("../etc/passwd"))
	assert.False(t, validKey("/abs/a.png"))
	assert.False(t, validKey("a//b"))
	assert.False(t, validKey(""))
}

func TestLocalProviderPutAndDelete(t *testing.T) {
	dir := t.TempDir()
	p, err := NewLocalProvider(dir, "/uploads/")
	require.NoError(t, err)

	url, err := p.Put(context.Background(), Object{Key: "portfolio/files/a.txt", Body: strings.NewReader("hello")})
	require.NoError(t, err)
	assert.Equal(t, "/uploads/portfolio/files/a.txt", url)

	data, err := os.ReadFile(filepath.Join(dir, "portfolio", "files", "a.txt"))
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))

	require.NoError(t, p.Delete(context.Background(), "portfolio/files/a.txt"))
	require.NoError(t, p.Delete(context.Background(), "portfolio/files/a.txt"))
	_, err = os.Stat(filepath.Join(dir, "portfolio", "files", "a.txt"))
	assert.True(t, os.IsNotExist(err))

	_, err = p.Put(context.Background(), Object{Key: "../escape.txt", Body: strings.NewReader("x")})
	assert.ErrorIs(t, err, ErrInvalidKey)
}

type fakeObjectAPI struct {
	put       *s3.PutObjectInput
	body      string
	deleteErr error
}

func (f *fakeObjectAPI) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.put = in
	raw, _ := io.ReadAll(in.Body)
	f.body = string(raw)
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeObjectAPI) DeleteObject(context.Context, *s3.DeleteObjectInput, ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	return &s3.DeleteObjectOutput{}, f.deleteErr
}

func TestS3ProviderPut(t *testing.T) {
	api := &fakeObjectAPI{}
	p := NewS3Provider(api, config.UploadConfig{
		Bucket:   "cmc-bucket.appspot.com",
		Endpoint: "https://storage.googleapis.com/",
	}, nil)

	url, err := p.Put(context.Background(), Object{
		Key:         "portfolio/images/2024/05/my photo_1.png",
		Body:        strings.NewReader("png"),
		Size:        3,
		ContentType: "image/png",
	})
	require.NoError(t, err)

	assert.Equal(t, "https://storage.googleapis.com/cmc-bucket.appspot.com/portfolio/images/2024/05/my%20photo_1.png", url)
	assert.Equal(t, "cmc-bucket.appspot.com", *api.put.Bucket)
	assert.Equal(t, "image/png", *api.put.ContentType)
	assert.Equal(t, int64(3), *api.put.ContentLength)
	assert.Equal(t, "png", api.body)
}

func TestS3ProviderDeleteMissingObject(t *testing.T) {
	api := &fakeObjectAPI{deleteErr: &smithy.GenericAPIError{Code: "NoSuchKey", Message: "not found"}}
	p := NewS3Provider(api, config.UploadConfig{Bucket: "b", PublicBaseURL: "https://cdn.example"}, nil)

	assert.NoError(t, p.Delete(context.Background(), "portfolio/a.png"))

	api.deleteErr = errors.New("boom")
	assert.Error(t, p.Delete(context.Background(), "portfolio/a.png"))
}
