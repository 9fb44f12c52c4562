// Package asset handles project images: checking uploaded bytes, sending
// them to the remote asset host and deciding which image a project ends up
// with when a request carries a file, a URL, both or neither.
package asset

import (
	"context"
	"fmt"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/triforge/triforge-api/internal/apperror"
)

// DefaultMaxBytes is the upload limit used when none is configured.
const DefaultMaxBytes int64 = 5 << 20

// File is an uploaded image held in memory.
type File struct {
	Name        string
	ContentType string // sniffed from the bytes, not taken from the client
	Data        []byte
}

// Uploader stores a file on the asset host and returns its public HTTPS URL.
type Uploader interface {
	Upload(ctx context.Context, f *File) (string, error)
}

// NewFile checks data and wraps it as a File. The content type is sniffed
// from the bytes and must be image/*.
func NewFile(name string, data []byte, maxBytes int64) (*File, error) {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	if len(data) == 0 {
		return nil, apperror.ValidationFailed("image", "uploaded image is empty")
	}
	if int64(len(data)) > maxBytes {
		return nil, apperror.ValidationFailed("image",
			fmt.Sprintf("uploaded image must be %d bytes or less", maxBytes))
	}

	mt := mimetype.Detect(data)
	if !strings.HasPrefix(mt.String(), "image/") {
		return nil, apperror.ValidationFailed("image",
			fmt.Sprintf("uploaded file must be an image, got %s", mt.String()))
	}

	return &File{Name: name, ContentType: mt.String(), Data: data}, nil
}

// =========================================================================
// IMAGE SOURCE
// =========================================================================

// SourceKind tags which image input a request carried.
type SourceKind int

const (
	SourceNone SourceKind = iota
	SourceFile
	SourceURL
)

func (k SourceKind) String() string {
	switch k {
	case SourceFile:
		return "file"
	case SourceURL:
		return "url"
	default:
		return "none"
	}
}

// Source is the image input of one create/update request, resolved at the
// transport boundary. Exactly one of File/URL is meaningful, per Kind.
type Source struct {
	Kind SourceKind
	File *File
	URL  string
}

// NewSource picks the winning input. A file always beats a URL. A URL that
// is empty after trimming counts as no input.
func NewSource(file *File, url string) Source {
	if file != nil {
		return Source{Kind: SourceFile, File: file}
	}
	if u := strings.TrimSpace(url); u != "" {
		return Source{Kind: SourceURL, URL: u}
	}
	return Source{Kind: SourceNone}
}

// FileSource and URLSource are shorthands mostly used by tests.
func FileSource(f *File) Source { return NewSource(f, "") }
func URLSource(u string) Source { return NewSource(nil, u) }

// ResolveCreate returns the image a new project is stored with. A project
// cannot be created without one.
func ResolveCreate(ctx context.Context, up Uploader, src Source) (string, error) {
	switch src.Kind {
	case SourceFile:
		return upload(ctx, up, src.File)
	case SourceURL:
		return src.URL, nil
	default:
		return "", apperror.ValidationFailed("image",
			"image is required: upload a file in field 'image' or send a URL in field 'image'")
	}
}

// ResolveUpdate returns the image a project has after an update. Without a
// file or a non-empty URL the existing image is kept; an empty value never
// clears it.
func ResolveUpdate(ctx context.Context, up Uploader, src Source, existing string) (string, error) {
	switch src.Kind {
	case SourceFile:
		return upload(ctx, up, src.File)
	case SourceURL:
		return src.URL, nil
	default:
		return existing, nil
	}
}

func upload(ctx context.Context, up Uploader, f *File) (string, error) {
	if up == nil {
		return "", apperror.Upstream("failed to upload image", ErrNotConfigured)
	}
	url, err := up.Upload(ctx, f)
	if err != nil {
		return "", apperror.Upstream("failed to upload image", err)
	}
	return url, nil
}
