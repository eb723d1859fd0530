// Package storage turns an uploaded cover file into a durable, fetchable URL.
package storage

import (
	"context"
	"io"
)

// CoverField is the only multipart field an attachment is read from.
const CoverField = "cover"

// File is a single uploaded file.
type File struct {
	FieldName string
	Filename  string
	Body      io.Reader
}

// Origin is where the serving request arrived, used to build URLs that
// point back at this deployment.
type Origin struct {
	Scheme string
	Host   string
}

// AttachmentStore persists a file and returns its absolute URL.
type AttachmentStore interface {
	Store(ctx context.Context, origin Origin, file File) (string, error)
	Name() string
}
