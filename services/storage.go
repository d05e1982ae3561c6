package services

import (
	"context"
	"fmt"
	"io"
	"log"
	"path/filepath"
	"strings"
	"time"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/google/uuid"

	"pathology-lab-server/config"
)

// CloudinaryUploader stores report PDFs in Cloudinary. Paths are scoped per
// booking and suffixed with a random id so references can never collide
// across patients or dates.
type CloudinaryUploader struct {
	cld     *cloudinary.Cloudinary
	folder  string
	timeout time.Duration
}

// NewCloudinaryUploader builds an uploader from the environment config. It
// errors when credentials are missing so main can fall back to degraded
// (sentinel) uploads instead of crashing.
func NewCloudinaryUploader() (*CloudinaryUploader, error) {
	cfg := config.AppConfig.Cloudinary
	if cfg.CloudName == "" || cfg.APIKey == "" || cfg.APISecret == "" {
		return nil, fmt.Errorf("cloudinary credentials are not configured")
	}

	cloudinaryURL := fmt.Sprintf("cloudinary://%s:%s@%s", cfg.APIKey, cfg.APISecret, cfg.CloudName)
	cld, err := cloudinary.NewFromURL(cloudinaryURL)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize cloudinary: %w", err)
	}

	return &CloudinaryUploader{
		cld:     cld,
		folder:  cfg.ReportFolder,
		timeout: time.Duration(cfg.UploadTimeout) * time.Second,
	}, nil
}

// UploadReport uploads a report artifact with a bounded timeout and returns
// its secure URL.
func (u *CloudinaryUploader) UploadReport(ctx context.Context, bookingID uint, filename string, file io.Reader) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, u.timeout)
	defer cancel()

	base := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	if base == "" || base == "." {
		base = "report"
	}
	publicID := fmt.Sprintf("%s_%s", base, uuid.NewString())
	folder := fmt.Sprintf("%s/%d", u.folder, bookingID)

	overwrite := false
	unique := true
	up, err := u.cld.Upload.Upload(ctx, file, uploader.UploadParams{
		Folder:         folder,
		PublicID:       publicID,
		Overwrite:      &overwrite,
		UniqueFilename: &unique,
		ResourceType:   "raw",
	})
	if err != nil {
		return "", err
	}

	log.Printf("✅ Report uploaded for booking %d: %s", bookingID, up.SecureURL)
	return up.SecureURL, nil
}
