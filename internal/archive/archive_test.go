package archive

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memStore struct {
	mu   sync.Mutex
	objs map[string][]byte
	err  error
}

func (m *memStore) Put(_ context.Context, key string, data []byte) error {
	if m.err != nil {
		return m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.objs == nil {
		m.objs = map[string][]byte{}
	}
	m.objs[key] = data
	return nil
}

func fixedNow() time.Time { return time.Date(2026, 10, 19, 23, 30, 0, 0, time.UTC) }

func TestFileArchiverUploadsUnderDatedKey(t *testing.T) {
	p := filepath.Join(t.TempDir(), "attendance.csv")
	require.NoError(t, os.WriteFile(p, []byte("identity,date,time,period_id\n"), 0o644))
	store := &memStore{}
	msk, err := time.LoadLocation("Europe/Moscow")
	require.NoError(t, err)

	a := &FileArchiver{Store: store, Path: p, Prefix: "school-1", Location: msk, Now: fixedNow}
	require.NoError(t, a.Flush(context.Background(), nil))

	// 23:30 UTC: уже следующий день по Москве.
	assert.Equal(t, "identity,date,time,period_id\n", string(store.objs["school-1/2026-10-20/attendance.csv"]))
	assert.Equal(t, "s3", a.Name())
}

func TestFileArchiverErrors(t *testing.T) {
	a := &FileArchiver{Store: &memStore{}, Path: filepath.Join(t.TempDir(), "missing.csv"), Now: fixedNow}
	require.Error(t, a.Flush(context.Background(), nil))

	p := filepath.Join(t.TempDir(), "a.csv")
	require.NoError(t, os.WriteFile(p, []byte("x"), 0o644))
	boom := errors.New("access denied")
	a = &FileArchiver{Store: &memStore{err: boom}, Path: p, Now: fixedNow}
	assert.ErrorIs(t, a.Flush(context.Background(), nil), boom)
}

func TestS3StorePutAgainstFakeEndpoint(t *testing.T) {
	type put struct{ path, body string }
	puts := make(chan put, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPut {
			b, _ := io.ReadAll(r.Body)
			puts <- put{r.URL.Path, string(b)}
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	store, err := NewS3Store(context.Background(), S3Options{
		Bucket:    "journal",
		Region:    "us-east-1",
		Endpoint:  srv.URL,
		PathStyle: true,
		AccessKey: "test",
		SecretKey: "test",
	})
	require.NoError(t, err)
	require.NoError(t, store.Put(context.Background(), "a/2026-10-19/attendance.csv", []byte("row\n")))

	got := <-puts
	assert.Equal(t, "/journal/a/2026-10-19/attendance.csv", got.path)
	assert.Contains(t, got.body, "row")
}

func TestNewS3StoreRequiresBucket(t *testing.T) {
	_, err := NewS3Store(context.Background(), S3Options{})
	require.Error(t, err)
}
