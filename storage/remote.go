package storage

import (
	"context"
	"errors"

	"omiit/models"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

// Uploader is the slice of the Cloudinary upload API the remote store needs.
type Uploader interface {
	Upload(ctx context.Context, file interface{}, params uploader.UploadParams) (*uploader.UploadResult, error)
}

// Remote uploads files to Cloudinary under a fixed folder and lets the
// service pick the public id.
type Remote struct {
	api    Uploader
	folder string
	format string
}

// NewRemote builds a Remote from a CLOUDINARY_URL. An empty URL yields a
// store whose every upload fails, so the server can still boot without it.
func NewRemote(cloudinaryURL, folder, format string) (*Remote, error) {
	if cloudinaryURL == "" {
		return &Remote{folder: folder, format: format}, nil
	}
	cld, err := cloudinary.NewFromURL(cloudinaryURL)
	if err != nil {
		return nil, err
	}
	return NewRemoteWithUploader(&cld.Upload, folder, format), nil
}

func NewRemoteWithUploader(api Uploader, folder, format string) *Remote {
	return &Remote{api: api, folder: folder, format: format}
}

func (r *Remote) Name() string { return "remote" }

func (r *Remote) Store(ctx context.Context, _ Origin, file File) (string, error) {
	if r.api == nil {
		return "", models.NewUploadNetworkError(errors.New("remote storage is not configured"))
	}

	res, err := r.api.Upload(ctx, file.Body, uploader.UploadParams{
		Folder: r.folder,
		Format: r.format,
	})
	if err != nil {
		return "", models.NewUploadNetworkError(err)
	}
	if res.Error.Message != "" {
		return "", models.NewUploadNetworkError(errors.New(res.Error.Message))
	}
	if res.SecureURL != "" {
		return res.SecureURL, nil
	}
	if res.URL != "" {
		return res.URL, nil
	}
	return "", models.NewUploadNetworkError(errors.New("remote storage returned no URL"))
}
