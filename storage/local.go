package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"
	"time"

	"omiit/models"

	"github.com/google/uuid"
	"github.com/spf13/afero"
)

// Local writes files under a directory that is served back over HTTP.
type Local struct {
	fs         afero.Fs
	dir        string
	publicPath string
	now        func() time.Time
}

// NewLocal stores files in dir on fs; the returned URL exposes them under publicPath.
func NewLocal(fs afero.Fs, dir, publicPath string) *Local {
	return &Local{
		fs:         fs,
		dir:        dir,
		publicPath: strings.Trim(publicPath, "/"),
		now:        time.Now,
	}
}

func (l *Local) Name() string { return "local" }

func (l *Local) Store(ctx context.Context, origin Origin, file File) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", models.NewUploadIOError(err)
	}

	name := l.syntheticName(file)
	if err := l.fs.MkdirAll(l.dir, 0o755); err != nil {
		return "", models.NewUploadIOError(err)
	}

	dst, err := l.fs.Create(path.Join(l.dir, name))
	if err != nil {
		return "", models.NewUploadIOError(err)
	}
	if _, err := io.Copy(dst, file.Body); err != nil {
		_ = dst.Close()
		return "", models.NewUploadIOError(err)
	}
	if err := dst.Close(); err != nil {
		return "", models.NewUploadIOError(err)
	}

	u := url.URL{
		Scheme: origin.Scheme,
		Host:   origin.Host,
		Path:   "/" + path.Join(l.publicPath, name),
	}
	return u.String(), nil
}

// syntheticName builds "{field}-{unixMillis}-{uuid}.{ext}". Only the
// extension of the original filename survives.
func (l *Local) syntheticName(file File) string {
	field := file.FieldName
	if field == "" {
		field = CoverField
	}
	name := fmt.Sprintf("%s-%d-%s", field, l.now().UnixMilli(), uuid.NewString())
	if ext := extension(file.Filename); ext != "" {
		name += "." + ext
	}
	return name
}

func extension(filename string) string {
	base := path.Base(strings.ReplaceAll(filename, "\\", "/"))
	i := strings.LastIndex(base, ".")
	if i < 0 || i == len(base)-1 {
		return ""
	}
	return base[i+1:]
}
