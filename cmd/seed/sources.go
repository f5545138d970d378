package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/hirase-art/inventory-risk/internal/config"
	"github.com/hirase-art/inventory-risk/internal/drive"
	"github.com/hirase-art/inventory-risk/internal/ingest"
	"github.com/hirase-art/inventory-risk/internal/storage"
	"github.com/urfave/cli/v2"
)

// fileSource resolves seed input to local file paths.
type fileSource interface {
	Fetch(ctx context.Context) ([]string, error)
}

func sourceFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "source",
			Usage: "Where files come from: local, s3 or drive",
			Value: "local",
		},
		&cli.StringFlag{
			Name:  "path",
			Usage: "Local file or directory (source=local)",
		},
		&cli.StringFlag{
			Name:  "download-dir",
			Usage: "Directory remote files are downloaded to",
			Value: "./data/tmp/seed",
		},
		&cli.StringFlag{Name: "s3-endpoint", EnvVars: []string{"S3_ENDPOINT"}},
		&cli.StringFlag{Name: "s3-access-key", EnvVars: []string{"S3_ACCESS_KEY"}},
		&cli.StringFlag{Name: "s3-secret-key", EnvVars: []string{"S3_SECRET_KEY"}},
		&cli.StringFlag{Name: "s3-bucket", EnvVars: []string{"S3_BUCKET"}},
		&cli.StringFlag{Name: "s3-region", Value: "us-east-1", EnvVars: []string{"S3_REGION"}},
		&cli.BoolFlag{Name: "s3-use-ssl", Value: true, EnvVars: []string{"S3_USE_SSL"}},
		&cli.StringFlag{
			Name:  "s3-prefix",
			Usage: "Object key prefix to list (source=s3); defaults to the command name",
		},
		&cli.StringFlag{
			Name:  "s3-key",
			Usage: "Single object key, relative to the prefix (source=s3)",
		},
		&cli.StringFlag{
			Name:    "drive-credentials",
			Usage:   "Service account JSON (source=drive)",
			EnvVars: []string{"GOOGLE_DRIVE_CREDENTIALS_JSON"},
		},
		&cli.StringFlag{
			Name:    "drive-folder",
			Usage:   "Drive folder ID (source=drive)",
			EnvVars: []string{"GOOGLE_DRIVE_FOLDER_ID"},
		},
	}
}

func newSource(c *cli.Context, kind string) (fileSource, error) {
	switch c.String("source") {
	case "", "local":
		if c.String("path") == "" {
			return nil, fmt.Errorf("--path is required for local sources")
		}
		return &localSource{path: c.String("path")}, nil
	case "s3":
		return newS3Source(c, kind)
	case "drive":
		svc, err := drive.NewService(c.Context, c.String("drive-credentials"))
		if err != nil {
			return nil, err
		}
		return &driveSource{
			downloader: drive.NewDownloader(svc),
			opts: drive.DownloadOptions{
				FolderID:    c.String("drive-folder"),
				DownloadDir: filepath.Join(c.String("download-dir"), "drive", kind),
			},
		}, nil
	}
	return nil, fmt.Errorf("unknown source %q", c.String("source"))
}

// localSource is a single file or every spreadsheet directly inside a
// directory, sorted by name.
type localSource struct {
	path string
}

func (s *localSource) Fetch(ctx context.Context) ([]string, error) {
	info, err := os.Stat(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", s.path, err)
	}
	if !info.IsDir() {
		return []string{s.path}, nil
	}

	entries, err := os.ReadDir(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", s.path, err)
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") || strings.HasPrefix(entry.Name(), "~$") {
			continue
		}
		if _, err := ingest.FormatOf(entry.Name()); err != nil {
			continue
		}
		paths = append(paths, filepath.Join(s.path, entry.Name()))
	}
	sort.Strings(paths)
	return paths, nil
}

type s3Source struct {
	client   storage.ObjectStorage
	prefix   string
	override string
	destDir  string
}

func newS3Source(c *cli.Context, kind string) (*s3Source, error) {
	client, err := storage.NewS3Client(config.StorageConfig{
		Endpoint:  c.String("s3-endpoint"),
		AccessKey: c.String("s3-access-key"),
		SecretKey: c.String("s3-secret-key"),
		Bucket:    c.String("s3-bucket"),
		Region:    c.String("s3-region"),
		UseSSL:    c.Bool("s3-use-ssl"),
	})
	if err != nil {
		return nil, err
	}

	prefix := c.String("s3-prefix")
	if prefix == "" {
		prefix = kind
	}

	destDir := filepath.Join(c.String("download-dir"), "s3", kind)
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to ensure download dir %s: %w", destDir, err)
	}

	return &s3Source{
		client:   client,
		prefix:   prefix,
		override: c.String("s3-key"),
		destDir:  destDir,
	}, nil
}

func (s *s3Source) Fetch(ctx context.Context) ([]string, error) {
	var keys []string

	if s.override != "" {
		keys = []string{resolveObjectKey(s.prefix, s.override)}
	} else {
		listPrefix := strings.TrimSpace(s.prefix)
		objects, err := s.client.ListObjects(ctx, listPrefix)
		if err != nil {
			return nil, fmt.Errorf("failed to list objects for prefix %s: %w", listPrefix, err)
		}
		for _, obj := range objects {
			if _, err := ingest.FormatOf(obj.Key); err == nil {
				keys = append(keys, obj.Key)
			}
		}
	}

	if len(keys) == 0 {
		return nil, fmt.Errorf("no CSV or XLSX files found for prefix %s", s.prefix)
	}

	localPaths := make([]string, 0, len(keys))
	for _, key := range keys {
		localPath := filepath.Join(s.destDir, objectRelativePath(s.prefix, key))
		if err := s.client.DownloadObject(ctx, key, localPath); err != nil {
			return nil, err
		}
		localPaths = append(localPaths, localPath)
	}

	sort.Strings(localPaths)
	return localPaths, nil
}

type driveSource struct {
	downloader *drive.Downloader
	opts       drive.DownloadOptions
}

func (s *driveSource) Fetch(ctx context.Context) ([]string, error) {
	paths, err := s.downloader.DownloadFolder(ctx, s.opts)
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)
	return paths, nil
}

func resolveObjectKey(prefix, override string) string {
	if override == "" {
		return strings.TrimSpace(prefix)
	}
	if prefix == "" {
		return strings.TrimPrefix(override, "/")
	}

	prefixTrimmed := strings.TrimSuffix(strings.TrimSpace(prefix), "/")
	overrideTrimmed := strings.TrimPrefix(strings.TrimSpace(override), "/")

	if strings.HasPrefix(overrideTrimmed, prefixTrimmed) {
		return overrideTrimmed
	}
	return storage.JoinKey(prefixTrimmed, overrideTrimmed)
}

func objectRelativePath(prefix, key string) string {
	if prefix == "" {
		return key
	}
	prefixTrimmed := strings.TrimSuffix(strings.TrimSpace(prefix), "/")
	rel := strings.TrimPrefix(key, prefixTrimmed+"/")
	if rel == "" || rel == key {
		return filepath.Base(key)
	}
	return rel
}
