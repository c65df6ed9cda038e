package corpus

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

// fakeEnroller принимает снимки, содержимое которых начинается с "face".
type fakeEnroller struct {
	err   error
	calls map[string]int
}

func (f *fakeEnroller) Enroll(_ context.Context, identity string, images [][]byte) (int, error) {
	if f.err != nil {
		return 0, f.err
	}
	if f.calls == nil {
		f.calls = map[string]int{}
	}
	f.calls[identity] = len(images)
	n := 0
	for _, img := range images {
		if strings.HasPrefix(string(img), "face") {
			n++
		}
	}
	return n, nil
}

func layout(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for rel, body := range files {
		p := filepath.Join(dir, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	}
	return dir
}

func TestScan(t *testing.T) {
	dir := layout(t, map[string]string{
		"bob/1.png":      "face",
		"alice/b.jpg":    "face",
		"alice/a.jpeg":   "face",
		"alice/info.txt": "x",
		"stray.jpg":      "face",
	})
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "carol"), 0o755))

	ids, err := Scan(dir)
	require.NoError(t, err)
	require.Len(t, ids, 3)
	assert.Equal(t, "alice", ids[0].Name)
	assert.Equal(t, []string{filepath.Join(dir, "alice", "a.jpeg"), filepath.Join(dir, "alice", "b.jpg")}, ids[0].Images)
	assert.Equal(t, "carol", ids[2].Name)
	assert.Empty(t, ids[2].Images)
}

func TestEnrollWarnsAndSkips(t *testing.T) {
	dir := layout(t, map[string]string{
		"alice/1.jpg": "face-a",
		"alice/2.jpg": "blurry",
		"bob/1.jpg":   "blurry",
	})
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "carol"), 0o755))
	core, logs := observer.New(zap.WarnLevel)

	sum, err := Enroll(context.Background(), dir, &fakeEnroller{}, zap.New(core))
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Identities)
	assert.Equal(t, 1, sum.Images)
	assert.Equal(t, []string{"bob", "carol"}, sum.Skipped)

	assert.Equal(t, 1, logs.FilterMessage("нет изображений для человека").Len())
	assert.Equal(t, 2, logs.FilterMessage("на части снимков лицо не найдено").Len())
}

func TestEnrollNoReferences(t *testing.T) {
	dir := layout(t, map[string]string{"bob/1.jpg": "blurry"})
	_, err := Enroll(context.Background(), dir, &fakeEnroller{}, nil)
	assert.ErrorIs(t, err, ErrNoReferences)

	_, err = Enroll(context.Background(), t.TempDir(), &fakeEnroller{}, nil)
	assert.ErrorIs(t, err, ErrNoReferences)
}

func TestEnrollTransportError(t *testing.T) {
	dir := layout(t, map[string]string{"alice/1.jpg": "face"})
	boom := errors.New("connection refused")
	_, err := Enroll(context.Background(), dir, &fakeEnroller{err: boom}, nil)
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, ErrNoReferences)
}

func TestEnrollMissingDir(t *testing.T) {
	_, err := Enroll(context.Background(), filepath.Join(t.TempDir(), "nope"), &fakeEnroller{}, nil)
	require.Error(t, err)
}
