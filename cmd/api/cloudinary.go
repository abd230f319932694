package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

type photoStore interface {
	Upload(ctx context.Context, file io.Reader, publicID string) (string, error)
	Destroy(ctx context.Context, photoURL string) error
}

type cloudinaryPhotos struct {
	cld    *cloudinary.Cloudinary
	folder string
}

var errPhotosDisabled = errors.New("photo storage is not configured")

// disabledPhotos stands in when no Cloudinary account is configured.
type disabledPhotos struct{}

func (disabledPhotos) Upload(context.Context, io.Reader, string) (string, error) {
	return "", errPhotosDisabled
}

func (disabledPhotos) Destroy(context.Context, string) error {
	return errPhotosDisabled
}

func newCloudinaryPhotos(cloudinaryURL, folder string) (*cloudinaryPhotos, error) {
	cld, err := cloudinary.NewFromURL(cloudinaryURL)
	if err != nil {
		return nil, err
	}
	return &cloudinaryPhotos{cld: cld, folder: folder}, nil
}

// Upload stores the file under a caller-controlled public ID and returns its
// secure URL.
func (c *cloudinaryPhotos) Upload(ctx context.Context, file io.Reader, publicID string) (string, error) {
	resp, err := c.cld.Upload.Upload(ctx, file, uploader.UploadParams{
		Folder:    c.folder,
		PublicID:  publicID,
		Overwrite: api.Bool(false),
	})
	if err != nil {
		return "", fmt.Errorf("cloudinary upload: %w", err)
	}
	if resp.Error.Message != "" {
		return "", fmt.Errorf("cloudinary upload: %s", resp.Error.Message)
	}
	return resp.SecureURL, nil
}

func (c *cloudinaryPhotos) Destroy(ctx context.Context, photoURL string) error {
	publicID, err := extractPublicIDFromURL(photoURL)
	if err != nil {
		return fmt.Errorf("failed to extract public ID: %w", err)
	}

	_, err = c.cld.Upload.Destroy(ctx, uploader.DestroyParams{
		PublicID: publicID,
	})
	if err != nil {
		return fmt.Errorf("failed to delete photo from Cloudinary: %w", err)
	}
	return nil
}

// extractPublicIDFromURL turns
// https://res.cloudinary.com/<cloud>/image/upload/v1740815725/hotels/hotel_3_1.png
// into hotels/hotel_3_1.
func extractPublicIDFromURL(photoURL string) (string, error) {
	parsedURL, err := url.Parse(photoURL)
	if err != nil {
		return "", fmt.Errorf("invalid URL format: %w", err)
	}

	parts := strings.Split(parsedURL.Path, "/")
	for i, part := range parts {
		if part != "upload" || i+1 >= len(parts) {
			continue
		}
		rest := parts[i+1:]
		if len(rest) > 1 && isVersionSegment(rest[0]) {
			rest = rest[1:]
		}
		id := strings.Join(rest, "/")
		id = strings.TrimSuffix(id, path.Ext(id))
		if id == "" {
			break
		}
		return id, nil
	}

	return "", errors.New("failed to extract public ID from URL")
}

func isVersionSegment(s string) bool {
	if len(s) < 2 || s[0] != 'v' {
		return false
	}
	for _, r := range s[1:] {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
