package storage

import (
	"context"
	"net/url"
	"path"
	"strings"
	"testing"
	"time"

	"omiit/models"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var origin = Origin{Scheme: "http", Host: "localhost:5050"}

func TestLocalStoreWritesFileAndBuildsURL(t *testing.T) {
	fs := afero.NewMemMapFs()
	store := NewLocal(fs, "./public", "/public/")

	raw, err := store.Store(context.Background(), origin, File{
		FieldName: "cover",
		Filename:  "photo.JPG",
		Body:      strings.NewReader("jpeg bytes"),
	})
	require.NoError(t, err)

	u, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "http", u.Scheme)
	assert.Equal(t, "localhost:5050", u.Host)
	assert.True(t, strings.HasPrefix(u.Path, "/public/cover-"), u.Path)
	assert.True(t, strings.HasSuffix(u.Path, ".JPG"), u.Path)

	content, err := afero.ReadFile(fs, path.Join("./public", path.Base(u.Path)))
	require.NoError(t, err)
	assert.Equal(t, "jpeg bytes", string(content))
}

func TestLocalStoreNamesAreUniqueWithinTheSameMillisecond(t *testing.T) {
	store := NewLocal(afero.NewMemMapFs(), "public", "public")
	frozen := time.UnixMilli(1_700_000_000_000)
	store.now = func() time.Time { return frozen }

	first, err := store.Store(context.Background(), origin, File{FieldName: "cover", Filename: "photo.JPG", Body: strings.NewReader("a")})
	require.NoError(t, err)
	second, err := store.Store(context.Background(), origin, File{FieldName: "cover", Filename: "photo.JPG", Body: strings.NewReader("b")})
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.Contains(t, first, "cover-1700000000000-")
	assert.Contains(t, second, "cover-1700000000000-")
}

func TestLocalStoreFilesystemFailure(t *testing.T) {
	store := NewLocal(afero.NewReadOnlyFs(afero.NewMemMapFs()), "public", "public")

	_, err := store.Store(context.Background(), origin, File{FieldName: "cover", Filename: "a.png", Body: strings.NewReader("x")})
	require.Error(t, err)
	assert.True(t, models.IsCode(err, models.CodeUploadIO))
}

func TestLocalStoreCanceledContext(t *testing.T) {
	store := NewLocal(afero.NewMemMapFs(), "public", "public")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := store.Store(ctx, origin, File{Filename: "a.png", Body: strings.NewReader("x")})
	assert.True(t, models.IsCode(err, models.CodeUploadIO))
}

func TestExtension(t *testing.T) {
	tests := map[string]string{
		"photo.JPG":           "JPG",
		"archive.tar.gz":      "gz",
		"noext":               "",
		"trailing.":           "",
		`C:\Users\me\pic.png`: "png",
		"dir.v2/file":         "",
	}
	for in, want := range tests {
		assert.Equal(t, want, extension(in), in)
	}
}
