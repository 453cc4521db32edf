package s3blob

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/tallmansamadam/ladybug-trading/internal/domain"
)

// TradeSource exposes the retained fills for archival.
type TradeSource interface {
	All() []domain.TradeRecord
}

// SnapshotSource exposes the retained portfolio snapshots for archival.
type SnapshotSource interface {
	List() []domain.PortfolioSnapshot
}

// ActivitySource exposes the retained activity entries for archival.
type ActivitySource interface {
	List(limit int) []domain.ActivityEntry
}

// Archiver periodically copies the bounded in-memory trails to cold storage
// as JSONL objects. The rings only hold the most recent entries, so the
// archive is the long-term record; objects are keyed by capture hour and a
// re-run inside the same hour simply overwrites with a fresher copy.
type Archiver struct {
	writer    *Writer
	trades    TradeSource
	snapshots SnapshotSource
	activity  ActivitySource
	prefix    string
	interval  time.Duration
	logger    *slog.Logger
	now       func() time.Time
}

// NewArchiver wires an Archiver over the given history sources. prefix is the
// object key root; empty defaults to "history".
func NewArchiver(
	writer *Writer,
	trades TradeSource,
	snapshots SnapshotSource,
	activity ActivitySource,
	prefix string,
	interval time.Duration,
	logger *slog.Logger,
) *Archiver {
	if prefix == "" {
		prefix = "history"
	}
	return &Archiver{
		writer:    writer,
		trades:    trades,
		snapshots: snapshots,
		activity:  activity,
		prefix:    strings.Trim(prefix, "/"),
		interval:  interval,
		logger:    logger.With(slog.String("component", "archiver")),
		now:       time.Now,
	}
}

// Run archives on every interval until the context is cancelled. One failed
// upload is logged and retried at the next interval.
func (a *Archiver) Run(ctx context.Context) error {
	a.logger.Info("archiver started", slog.Duration("interval", a.interval))
	defer a.logger.Info("archiver stopped")

	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := a.Archive(ctx); err != nil {
				a.logger.Warn("archive pass failed", slog.String("error", err.Error()))
			}
		}
	}
}

// Archive uploads one JSONL object per trail. Empty trails are skipped.
func (a *Archiver) Archive(ctx context.Context) error {
	at := a.now().UTC()

	if err := putJSONL(ctx, a.writer, a.archivePath("trades", at), a.trades.All()); err != nil {
		return err
	}
	if err := putJSONL(ctx, a.writer, a.archivePath("portfolio", at), a.snapshots.List()); err != nil {
		return err
	}
	if err := putJSONL(ctx, a.writer, a.archivePath("activity", at), a.activity.List(0)); err != nil {
		return err
	}
	return nil
}

// archivePath builds the object key, partitioned by capture hour:
//
//	history/trades/2025-06-01T12.jsonl
func (a *Archiver) archivePath(kind string, at time.Time) string {
	return fmt.Sprintf("%s/%s/%s.jsonl", a.prefix, kind, at.Format("2006-01-02T15"))
}

func putJSONL[T any](ctx context.Context, w *Writer, path string, records []T) error {
	if len(records) == 0 {
		return nil
	}
	buf, err := marshalJSONL(records)
	if err != nil {
		return fmt.Errorf("s3blob: archive %s marshal: %w", path, err)
	}
	if err := w.Put(ctx, path, bytes.NewReader(buf), "application/x-ndjson"); err != nil {
		return fmt.Errorf("s3blob: archive %s upload: %w", path, err)
	}
	return nil
}

// marshalJSONL serialises records as newline-delimited JSON.
func marshalJSONL[T any](records []T) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	for i, rec := range records {
		if err := enc.Encode(rec); err != nil {
			return nil, fmt.Errorf("jsonl encode record %d: %w", i, err)
		}
	}
	return buf.Bytes(), nil
}
