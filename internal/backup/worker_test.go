package backup

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tasklist/internal/storage"
)

type fakeStorage struct {
	uploads []string
	objects map[string][]byte
	clock   time.Time
	stamps  map[string]time.Time
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{
		objects: make(map[string][]byte),
		stamps:  make(map[string]time.Time),
		clock:   time.Date(2026, 1, 2, 12, 0, 0, 0, time.UTC),
	}
}

func (f *fakeStorage) UploadFile(ctx context.Context, localPath, bucket, key string) (string, error) {
	data, err := os.ReadFile(localPath)
	if err != nil {
		return "", err
	}
	f.clock = f.clock.Add(time.Minute)
	f.objects[key] = data
	f.stamps[key] = f.clock
	f.uploads = append(f.uploads, key)
	return fmt.Sprintf("s3://%s/%s", bucket, key), nil
}

func (f *fakeStorage) ListObjects(ctx context.Context, bucket, prefix string) ([]storage.ObjectInfo, error) {
	var objects []storage.ObjectInfo
	for key, data := range f.objects {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		stamp := f.stamps[key]
		objects = append(objects, storage.ObjectInfo{
			Key:          key,
			Size:         int64(len(data)),
			LastModified: &stamp,
		})
	}
	return objects, nil
}

func (f *fakeStorage) DeletePrefix(ctx context.Context, bucket, prefix string) error {
	for key := range f.objects {
		if strings.HasPrefix(key, prefix) {
			delete(f.objects, key)
			delete(f.stamps, key)
		}
	}
	return nil
}

func testSource(payload string) Source {
	return SourceFunc(func(ctx context.Context, w io.Writer) error {
		_, err := io.WriteString(w, payload)
		return err
	})
}

func TestRunOnce_UploadsSnapshot(t *testing.T) {
	store := newFakeStorage()
	w := NewWorker(Config{
		Bucket:    "backups",
		KeyPrefix: "tasklist",
		Retain:    5,
	}, store, testSource("snapshot-bytes"))

	require.NoError(t, w.runOnce(context.Background()))

	require.Len(t, store.uploads, 1)
	key := store.uploads[0]
	assert.True(t, strings.HasPrefix(key, "tasklist/snapshot-"))
	assert.Equal(t, []byte("snapshot-bytes"), store.objects[key])
}

func TestRunOnce_PrunesOldSnapshots(t *testing.T) {
	store := newFakeStorage()
	w := NewWorker(Config{
		Bucket:    "backups",
		KeyPrefix: "tasklist",
		Retain:    2,
	}, store, testSource("snapshot-bytes"))

	ctx := context.Background()
	for i := 0; i < 4; i++ {
		require.NoError(t, w.runOnce(ctx))
	}

	assert.Len(t, store.objects, 2)
	// the two newest uploads survive
	assert.Contains(t, store.objects, store.uploads[3])
	assert.Contains(t, store.objects, store.uploads[2])
}

func TestStart_RequiresBucket(t *testing.T) {
	w := NewWorker(Config{}, newFakeStorage(), testSource("x"))
	assert.Error(t, w.Start(context.Background()))
}

func TestStartAndShutdown(t *testing.T) {
	store := newFakeStorage()
	w := NewWorker(Config{
		Bucket:    "backups",
		KeyPrefix: "tasklist",
		Interval:  10 * time.Millisecond,
	}, store, testSource("snapshot-bytes"))

	require.NoError(t, w.Start(context.Background()))
	time.Sleep(50 * time.Millisecond)
	w.Shutdown()

	assert.NotEmpty(t, store.uploads)
}
