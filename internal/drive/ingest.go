package drive

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/hirase-art/inventory-risk/internal/cache"
	"github.com/hirase-art/inventory-risk/internal/domain"
	"github.com/hirase-art/inventory-risk/internal/ingest"
	"github.com/hirase-art/inventory-risk/internal/storage"
	"github.com/rs/zerolog/log"
)

var (
	ErrFolderNotFound = errors.New("drive: folder not found")
	ErrInvalidRequest = errors.New("drive: invalid ingest request")
)

// FileSource is the part of Service the ingest flow needs.
type FileSource interface {
	GetFile(ctx context.Context, fileID string) (*File, error)
	Download(ctx context.Context, f *File, w io.Writer) error
}

// CacheInvalidator drops cached snapshots of one kind.
type CacheInvalidator interface {
	InvalidateKind(ctx context.Context, kind cache.Kind) error
}

type IngestRequest struct {
	FileID  string      `json:"file_id"`
	Kind    string      `json:"kind"`
	Unit    domain.Unit `json:"unit,omitempty"`
	Replace bool        `json:"replace,omitempty"`
}

type IngestResult struct {
	FileID     string             `json:"file_id"`
	FileName   string             `json:"file_name"`
	ArchiveKey string             `json:"archive_key,omitempty"`
	Load       *ingest.LoadResult `json:"load"`
}

// IngestOptions wires the optional collaborators. Nil fields are skipped.
type IngestOptions struct {
	Archive       storage.ObjectStorage
	ArchivePrefix string
	Cache         CacheInvalidator
	Location      *time.Location
}

type IngestService struct {
	files FileSource
	store ingest.Store
	opts  IngestOptions
	now   func() time.Time
}

func NewIngestService(files FileSource, store ingest.Store, opts IngestOptions) *IngestService {
	return &IngestService{
		files: files,
		store: store,
		opts:  opts,
		now:   time.Now,
	}
}

// Ingest downloads one Drive file, loads it into the database as req.Kind,
// archives the downloaded bytes, then invalidates the affected cache entries.
// Archive and cache failures are logged only.
func (s *IngestService) Ingest(ctx context.Context, req IngestRequest) (*IngestResult, error) {
	if req.FileID == "" {
		return nil, fmt.Errorf("%w: file_id is required", ErrInvalidRequest)
	}
	kind, ok := ingest.ParseKind(req.Kind)
	if !ok {
		return nil, fmt.Errorf("%w: unknown kind %q", ErrInvalidRequest, req.Kind)
	}
	if req.Unit != "" {
		unit, ok := domain.ParseUnit(string(req.Unit))
		if !ok {
			return nil, fmt.Errorf("%w: unknown unit %q", ErrInvalidRequest, req.Unit)
		}
		req.Unit = unit
	}

	file, err := s.files.GetFile(ctx, req.FileID)
	if err != nil {
		return nil, err
	}
	if !file.IsSpreadsheet() {
		return nil, fmt.Errorf("%w: %s is not a CSV or XLSX file", ErrInvalidRequest, file.Name)
	}

	var buf bytes.Buffer
	if err := s.files.Download(ctx, file, &buf); err != nil {
		return nil, err
	}

	table, err := ingest.ReadBytes(file.LocalName(), buf.Bytes())
	if err != nil {
		return nil, err
	}

	load, err := ingest.Load(ctx, s.store, kind, table, ingest.LoadOptions{
		Unit:     req.Unit,
		Replace:  req.Replace,
		Location: s.opts.Location,
	})
	if err != nil {
		return nil, err
	}

	result := &IngestResult{FileID: file.ID, FileName: file.Name, Load: load}

	logger := log.With().Str("file", file.Name).Str("kind", string(kind)).Logger()
	logger.Info().
		Int("rows", load.Rows).
		Int("written", load.Written).
		Int("coercion_fallbacks", load.Diagnostics.CoercionFallbacks).
		Msg("drive: file ingested")

	if s.opts.Archive != nil {
		key := storage.ArchiveKey(s.opts.ArchivePrefix, string(kind), file.LocalName(), s.now())
		if err := s.opts.Archive.UploadObject(ctx, key, buf.Bytes()); err != nil {
			logger.Warn().Err(err).Str("key", key).Msg("drive: archive upload failed")
		} else {
			result.ArchiveKey = key
		}
	}

	if s.opts.Cache != nil {
		if err := s.opts.Cache.InvalidateKind(ctx, cacheKindOf(kind)); err != nil {
			logger.Warn().Err(err).Msg("drive: cache invalidation failed")
		}
	}

	return result, nil
}

func cacheKindOf(kind ingest.Kind) cache.Kind {
	switch kind {
	case ingest.KindMaster:
		return cache.KindMaster
	case ingest.KindShipments:
		return cache.KindShipments
	case ingest.KindStock:
		return cache.KindStock
	default:
		return cache.KindInbound
	}
}
