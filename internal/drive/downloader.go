package drive

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
)

// DownloadOptions controls how files are pulled from Google Drive.
type DownloadOptions struct {
	FolderID    string
	DownloadDir string
}

// Downloader wraps Service to download files from a specific folder.
type Downloader struct {
	service *Service
}

func NewDownloader(s *Service) *Downloader {
	return &Downloader{service: s}
}

// DownloadFolder downloads every CSV, XLSX and Google Sheet of a folder into
// DownloadDir and returns the local paths. Sheets are saved as XLSX.
func (d *Downloader) DownloadFolder(ctx context.Context, opts DownloadOptions) ([]string, error) {
	if opts.DownloadDir == "" {
		return nil, fmt.Errorf("download dir is required")
	}
	if err := os.MkdirAll(opts.DownloadDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create download dir: %w", err)
	}

	files, err := d.service.ListFiles(ctx, opts.FolderID)
	if err != nil {
		return nil, err
	}

	var localPaths []string
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !f.IsSpreadsheet() {
			log.Debug().Str("file", f.Name).Str("mime", f.MimeType).Msg("drive: skipping non-spreadsheet file")
			continue
		}

		localPath := filepath.Join(opts.DownloadDir, f.LocalName())
		if err := d.downloadTo(ctx, f, localPath); err != nil {
			return nil, err
		}
		localPaths = append(localPaths, localPath)
	}

	return localPaths, nil
}

func (d *Downloader) downloadTo(ctx context.Context, f *File, localPath string) error {
	out, err := os.Create(localPath)
	if err != nil {
		return fmt.Errorf("failed to create local file %s: %w", localPath, err)
	}
	if err := d.service.Download(ctx, f, out); err != nil {
		out.Close()
		return fmt.Errorf("failed to download %s: %w", f.Name, err)
	}
	return out.Close()
}
