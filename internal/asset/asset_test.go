package asset

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/triforge/triforge-api/internal/apperror"
)

// pngHeader is enough for content sniffing to report image/png.
var pngHeader = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0x0d, 'I', 'H', 'D', 'R'}

type fakeUploader struct {
	url   string
	err   error
	calls int
}

func (f *fakeUploader) Upload(_ context.Context, _ *File) (string, error) {
	f.calls++
	return f.url, f.err
}

func testFile(t *testing.T) *File {
	t.Helper()
	f, err := NewFile("logo.png", pngHeader, 0)
	require.NoError(t, err)
	return f
}

// ===== FILE CHECKS =====

func TestNewFile(t *testing.T) {
	f, err := NewFile("logo.png", pngHeader, 1024)
	require.NoError(t, err)
	assert.Equal(t, "image/png", f.ContentType)

	_, err = NewFile("empty.png", nil, 1024)
	assert.True(t, errors.Is(err, apperror.ErrValidation))

	_, err = NewFile("big.png", pngHeader, 4)
	assert.True(t, errors.Is(err, apperror.ErrValidation))

	_, err = NewFile("notes.txt", []byte("just some text"), 1024)
	assert.True(t, errors.Is(err, apperror.ErrValidation))
}

// ===== SOURCE SELECTION =====

func TestNewSource(t *testing.T) {
	f := testFile(t)

	assert.Equal(t, SourceFile, NewSource(f, "https://x.test/a.png").Kind)
	assert.Equal(t, SourceFile, NewSource(f, "").Kind)

	src := NewSource(nil, "  https://x.test/a.png  ")
	assert.Equal(t, SourceURL, src.Kind)
	assert.Equal(t, "https://x.test/a.png", src.URL)

	assert.Equal(t, SourceNone, NewSource(nil, "   ").Kind)
	assert.Equal(t, SourceNone, NewSource(nil, "").Kind)
}

// ===== CREATE =====

func TestResolveCreate_NoImageIsRejected(t *testing.T) {
	up := &fakeUploader{url: "https://cdn.test/x.png"}

	_, err := ResolveCreate(context.Background(), up, NewSource(nil, ""))

	assert.True(t, errors.Is(err, apperror.ErrValidation))
	assert.Zero(t, up.calls)
}

func TestResolveCreate_URLUsedVerbatimAfterTrim(t *testing.T) {
	up := &fakeUploader{}

	got, err := ResolveCreate(context.Background(), up, NewSource(nil, " https://x.test/a.png "))

	require.NoError(t, err)
	assert.Equal(t, "https://x.test/a.png", got)
	assert.Zero(t, up.calls)
}

func TestResolveCreate_FileWinsOverURL(t *testing.T) {
	up := &fakeUploader{url: "https://cdn.test/uploaded.png"}

	got, err := ResolveCreate(context.Background(), up, NewSource(testFile(t), "https://x.test/a.png"))

	require.NoError(t, err)
	assert.Equal(t, "https://cdn.test/uploaded.png", got)
	assert.Equal(t, 1, up.calls)
}

func TestResolveCreate_UploadFailureIsUpstream(t *testing.T) {
	up := &fakeUploader{err: errors.New("Invalid api_key")}

	_, err := ResolveCreate(context.Background(), up, FileSource(testFile(t)))

	require.Error(t, err)
	assert.True(t, errors.Is(err, apperror.ErrUpstream))
	var appErr *apperror.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "Invalid api_key", appErr.Detail)
}

func TestResolveCreate_NilUploader(t *testing.T) {
	_, err := ResolveCreate(context.Background(), nil, FileSource(testFile(t)))

	assert.True(t, errors.Is(err, apperror.ErrUpstream))
	assert.True(t, errors.Is(err, ErrNotConfigured))
}

// ===== UPDATE =====

func TestResolveUpdate(t *testing.T) {
	const existing = "https://cdn.test/old.png"

	tests := []struct {
		name string
		src  Source
		want string
	}{
		{"nothing sent keeps existing", NewSource(nil, ""), existing},
		{"empty value keeps existing", NewSource(nil, "   "), existing},
		{"new url replaces", URLSource("https://x.test/new.png"), "https://x.test/new.png"},
		{"file replaces", FileSource(testFile(t)), "https://cdn.test/uploaded.png"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			up := &fakeUploader{url: "https://cdn.test/uploaded.png"}
			got, err := ResolveUpdate(context.Background(), up, tt.src, existing)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveUpdate_UploadFailureAborts(t *testing.T) {
	up := &fakeUploader{err: errors.New("timeout")}

	got, err := ResolveUpdate(context.Background(), up, FileSource(testFile(t)), "https://cdn.test/old.png")

	assert.Empty(t, got)
	assert.True(t, errors.Is(err, apperror.ErrUpstream))
}

func TestCloudinaryConfig(t *testing.T) {
	assert.False(t, CloudinaryConfig{}.Configured())
	assert.False(t, CloudinaryConfig{CloudName: "demo"}.Configured())
	assert.True(t, CloudinaryConfig{URL: "cloudinary://k:s@demo"}.Configured())
	assert.True(t, CloudinaryConfig{CloudName: "demo", APIKey: "k", APISecret: "s"}.Configured())

	_, err := NewCloudinary(CloudinaryConfig{}, nil)
	assert.ErrorIs(t, err, ErrNotConfigured)
}
