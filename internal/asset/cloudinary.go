package asset

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/rs/xid"
)

// ErrNotConfigured is returned when an upload is attempted without asset host
// credentials.
var ErrNotConfigured = errors.New("asset: cloudinary credentials are not configured")

// CloudinaryConfig holds the asset host credentials. URL (cloudinary://...)
// takes precedence over the individual parts.
type CloudinaryConfig struct {
	URL       string
	CloudName string
	APIKey    string
	APISecret string
	Folder    string
}

// Configured reports whether enough credentials are present to upload.
func (c CloudinaryConfig) Configured() bool {
	return c.URL != "" || (c.CloudName != "" && c.APIKey != "" && c.APISecret != "")
}

// Cloudinary uploads images to a Cloudinary folder.
type Cloudinary struct {
	cld    *cloudinary.Cloudinary
	folder string
	logger *slog.Logger
}

// NewCloudinary builds the uploader. It does not contact the host.
func NewCloudinary(cfg CloudinaryConfig, logger *slog.Logger) (*Cloudinary, error) {
	if !cfg.Configured() {
		return nil, ErrNotConfigured
	}

	var (
		cld *cloudinary.Cloudinary
		err error
	)
	if cfg.URL != "" {
		cld, err = cloudinary.NewFromURL(cfg.URL)
	} else {
		cld, err = cloudinary.NewFromParams(cfg.CloudName, cfg.APIKey, cfg.APISecret)
	}
	if err != nil {
		return nil, fmt.Errorf("asset: creating cloudinary client: %w", err)
	}
	cld.Config.URL.Secure = true

	return &Cloudinary{cld: cld, folder: cfg.Folder, logger: logger}, nil
}

// Upload sends f to the configured folder under a fresh public id.
func (c *Cloudinary) Upload(ctx context.Context, f *File) (string, error) {
	publicID := xid.New().String()

	resp, err := c.cld.Upload.Upload(ctx, bytes.NewReader(f.Data), uploader.UploadParams{
		Folder:       c.folder,
		PublicID:     publicID,
		ResourceType: "image",
	})
	if err != nil {
		c.logger.Error("cloudinary upload failed",
			slog.String("file", f.Name),
			slog.String("error", err.Error()),
		)
		return "", fmt.Errorf("cloudinary: %w", err)
	}
	if resp.Error.Message != "" {
		c.logger.Error("cloudinary rejected upload",
			slog.String("file", f.Name),
			slog.String("error", resp.Error.Message),
		)
		return "", fmt.Errorf("cloudinary: %s", resp.Error.Message)
	}
	if resp.SecureURL == "" {
		return "", errors.New("cloudinary: upload returned no secure url")
	}

	c.logger.Info("image uploaded",
		slog.String("publicID", resp.PublicID),
		slog.String("contentType", f.ContentType),
		slog.Int("bytes", len(f.Data)),
	)
	return resp.SecureURL, nil
}
