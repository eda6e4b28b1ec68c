package export

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/askdb/askdb/internal/config"
	"github.com/askdb/askdb/internal/observability"
	"github.com/askdb/askdb/internal/query"
	"github.com/askdb/askdb/internal/storage"
	"github.com/askdb/askdb/internal/storage/local"
	"github.com/askdb/askdb/internal/storage/s3"
)

const parquetContentType = "application/vnd.apache.parquet"

// Record is one answered question as written to the export store.
type Record struct {
	ID             string
	Question       string
	SQL            string
	Interpretation string
	Result         query.Result
}

type Exporter struct {
	store  storage.ExportStore
	target string
	prefix string
	logger *slog.Logger
	now    func() time.Time
}

func NewExporter(store storage.ExportStore, target, prefix string, logger *slog.Logger) *Exporter {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Exporter{store: store, target: target, prefix: prefix, logger: logger, now: time.Now}
}

// FromConfig builds the configured exporter, or returns nil when exports are
// disabled.
func FromConfig(ctx context.Context, cfg config.Config, logger *slog.Logger) (*Exporter, error) {
	var store storage.ExportStore
	switch cfg.Export.Target {
	case config.ExportNone, "":
		return nil, nil
	case config.ExportLocal:
		localStore, err := local.New(cfg.Export.Dir)
		if err != nil {
			return nil, err
		}
		store = localStore
	case config.ExportS3:
		s3Store, err := s3.New(ctx, s3.ConfigFrom(cfg.ObjectStore))
		if err != nil {
			return nil, fmt.Errorf("init s3 export store: %w", err)
		}
		store = s3Store
	default:
		return nil, fmt.Errorf("unknown export target %q", cfg.Export.Target)
	}
	return NewExporter(store, cfg.Export.Target, cfg.Export.Prefix, logger), nil
}

func (e *Exporter) Target() string {
	return e.target
}

// Location names where exports are written.
func (e *Exporter) Location() string {
	return e.store.Location()
}

func (e *Exporter) Export(ctx context.Context, record Record) (storage.Object, error) {
	info, err := e.export(ctx, record)
	observability.ObserveExport(e.target, err)
	if err != nil {
		return storage.Object{}, err
	}
	observability.LoggerFromContext(ctx, e.logger).Info("query result exported",
		"target", e.target,
		"location", info.Location,
		"rows", len(record.Result.Rows),
		"bytes", info.Size,
	)
	return info, nil
}

func (e *Exporter) export(ctx context.Context, record Record) (storage.Object, error) {
	exportedAt := e.now().UTC()
	key, err := storage.BuildExportPath(e.prefix, exportedAt, record.ID)
	if err != nil {
		return storage.Object{}, fmt.Errorf("build export path: %w", err)
	}
	data, err := EncodeRecord(record, exportedAt.UnixMilli())
	if err != nil {
		return storage.Object{}, err
	}
	info, err := e.store.Put(ctx, key, data, storage.PutOptions{
		ContentType: parquetContentType,
		Metadata:    map[string]string{"query-id": record.ID},
	})
	if err != nil {
		return storage.Object{}, fmt.Errorf("store export: %w", err)
	}
	return info, nil
}
