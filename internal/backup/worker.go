package backup

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"tasklist/internal/storage"
)

// Source produces a consistent snapshot of the active store.
type Source interface {
	Snapshot(ctx context.Context, w io.Writer) error
}

// SourceFunc adapts a plain function to the Source interface.
type SourceFunc func(ctx context.Context, w io.Writer) error

func (f SourceFunc) Snapshot(ctx context.Context, w io.Writer) error {
	return f(ctx, w)
}

type Config struct {
	Bucket    string
	KeyPrefix string
	Interval  time.Duration
	Retain    int
	Logger    *logrus.Logger
}

// Worker periodically snapshots the store and uploads the result to object
// storage, pruning snapshots beyond the retention count.
type Worker struct {
	cfg     Config
	storage storage.Service
	source  Source

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewWorker(cfg Config, store storage.Service, source Source) *Worker {
	if cfg.Interval <= 0 {
		cfg.Interval = time.Hour
	}
	if cfg.Retain <= 0 {
		cfg.Retain = 5
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}
	return &Worker{
		cfg:     cfg,
		storage: store,
		source:  source,
	}
}

func (w *Worker) Start(ctx context.Context) error {
	if w.cfg.Bucket == "" {
		return fmt.Errorf("backup bucket is required")
	}

	w.ctx, w.cancel = context.WithCancel(ctx)
	w.wg.Add(1)
	go w.run()

	w.cfg.Logger.Infof("backup worker started, interval %s, bucket %s", w.cfg.Interval, w.cfg.Bucket)
	return nil
}

func (w *Worker) Shutdown() {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
	w.cfg.Logger.Info("backup worker stopped")
}

func (w *Worker) run() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.ctx.Done():
			return
		case <-ticker.C:
			if err := w.runOnce(w.ctx); err != nil {
				w.cfg.Logger.Warnf("backup run: %v", err)
			}
		}
	}
}

// runOnce snapshots the store to a temp file, uploads it, and prunes old
// snapshots.
func (w *Worker) runOnce(ctx context.Context) error {
	tmp, err := os.CreateTemp("", "tasklist-backup-*.db")
	if err != nil {
		return fmt.Errorf("create backup temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if err := w.source.Snapshot(ctx, tmp); err != nil {
		tmp.Close()
		return fmt.Errorf("snapshot store: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close backup temp file: %w", err)
	}

	key := fmt.Sprintf("%s/snapshot-%s.db", w.cfg.KeyPrefix, uuid.NewString())
	location, err := w.storage.UploadFile(ctx, tmpPath, w.cfg.Bucket, key)
	if err != nil {
		return fmt.Errorf("upload snapshot: %w", err)
	}
	w.cfg.Logger.Infof("uploaded snapshot to %s", location)

	if err := w.prune(ctx); err != nil {
		w.cfg.Logger.Warnf("prune snapshots: %v", err)
	}
	return nil
}

func (w *Worker) prune(ctx context.Context) error {
	objects, err := w.storage.ListObjects(ctx, w.cfg.Bucket, w.cfg.KeyPrefix+"/")
	if err != nil {
		return err
	}
	if len(objects) <= w.cfg.Retain {
		return nil
	}

	sort.Slice(objects, func(i, j int) bool {
		ti, tj := objects[i].LastModified, objects[j].LastModified
		if ti == nil {
			return false
		}
		if tj == nil {
			return true
		}
		return ti.After(*tj)
	})

	for _, obj := range objects[w.cfg.Retain:] {
		if err := w.storage.DeletePrefix(ctx, w.cfg.Bucket, obj.Key); err != nil {
			return err
		}
		w.cfg.Logger.Infof("pruned snapshot %s", obj.Key)
	}
	return nil
}
