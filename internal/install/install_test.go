package install

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SiirRandall/goldberg-manager/internal/github"
)

type fakeSource struct {
	rel github.Release
	err error
}

func (f fakeSource) Latest(context.Context) (github.Release, error) { return f.rel, f.err }

// fakeExtractor writes files instead of reading a real archive.
type fakeExtractor struct {
	files map[string]string
	err   error
	calls int
}

func (f *fakeExtractor) Extract(_ context.Context, archivePath, destRoot string) error {
	f.calls++
	if _, err := os.Stat(archivePath); err != nil {
		return err
	}
	for name, content := range f.files {
		p := filepath.Join(destRoot, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			return err
		}
		if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
			return err
		}
	}
	return f.err
}

func releaseFiles() map[string]string {
	files := map[string]string{}
	for _, d := range releaseDLLs {
		files[d.src] = d.dst
	}
	return files
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func newTestUpdater(t *testing.T, x Extractor) (*Updater, *atomic.Int32) {
	t.Helper()
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = io.WriteString(w, "7z-bytes")
	}))
	t.Cleanup(srv.Close)

	work := t.TempDir()
	return &Updater{
		Layout:    NewLayout(work, ""),
		Source:    fakeSource{rel: github.Release{JobID: "release-2024_08_01", DownloadURL: srv.URL + "/emu-win-release.7z"}},
		Extractor: x,
		Client:    srv.Client(),
		UserAgent: "test",
		Log:       quietLogger(),
	}, &hits
}

func TestUpdate_InstallsAndRecordsJobID(t *testing.T) {
	x := &fakeExtractor{files: releaseFiles()}
	u, hits := newTestUpdater(t, x)
	var lastDone int64
	u.Progress = func(done, _ int64) { lastDone = done }

	updated, err := u.Update(context.Background())
	require.NoError(t, err)
	assert.True(t, updated)
	assert.EqualValues(t, 1, hits.Load())
	assert.EqualValues(t, len("7z-bytes"), lastDone)

	for _, d := range releaseDLLs {
		b, err := os.ReadFile(filepath.Join(u.Layout.EmuDir, d.dst))
		require.NoError(t, err)
		assert.Equal(t, d.dst, string(b))
	}
	jobID, err := os.ReadFile(u.Layout.JobIDPath())
	require.NoError(t, err)
	assert.Equal(t, "release-2024_08_01", string(jobID))

	// same job id: nothing is downloaded again
	updated, err = u.Update(context.Background())
	require.NoError(t, err)
	assert.False(t, updated)
	assert.EqualValues(t, 1, hits.Load())
	assert.Equal(t, 1, x.calls)
}

func TestUpdate_MissingDLLIsIncomplete(t *testing.T) {
	files := releaseFiles()
	delete(files, "release/experimental/x32/steam_api.dll")
	u, _ := newTestUpdater(t, &fakeExtractor{files: files})

	updated, err := u.Update(context.Background())
	assert.False(t, updated)
	assert.ErrorIs(t, err, ErrSetupIncomplete)
	assert.NoFileExists(t, u.Layout.JobIDPath())

	entries, err := os.ReadDir(u.Layout.EmuDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestUpdate_EntryFailuresAggregate(t *testing.T) {
	x := &fakeExtractor{
		files: releaseFiles(),
		err:   errors.Join(ErrSetupIncomplete, errors.New("2 entries failed")),
	}
	u, _ := newTestUpdater(t, x)

	_, err := u.Update(context.Background())
	assert.ErrorIs(t, err, ErrSetupIncomplete)
	assert.ErrorContains(t, err, "2 entries failed")
}

func TestUpdate_SourceFailure(t *testing.T) {
	u, hits := newTestUpdater(t, &fakeExtractor{})
	u.Source = fakeSource{err: errors.New("offline")}

	_, err := u.Update(context.Background())
	assert.ErrorIs(t, err, ErrSetupIncomplete)
	assert.ErrorContains(t, err, "offline")
	assert.EqualValues(t, 0, hits.Load())
	assert.DirExists(t, u.Layout.EmuDir)
}

func TestDownload_BadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()
	dest := filepath.Join(t.TempDir(), "goldberg.7z")

	err := Download(context.Background(), srv.Client(), srv.URL, "test", dest, nil)
	assert.ErrorContains(t, err, "404")
	assert.NoFileExists(t, dest)
	assert.NoFileExists(t, dest+".part")
}

func TestEntryPath(t *testing.T) {
	root := filepath.Join("tmp", "goldberg")
	tests := []struct {
		name string
		want string
		ok   bool
	}{
		{"release/regular/x64/steam_api64.dll", filepath.Join(root, "release", "regular", "x64", "steam_api64.dll"), true},
		{`release\experimental\x32\steam_api.dll`, filepath.Join(root, "release", "experimental", "x32", "steam_api.dll"), true},
		{"../evil.dll", "", false},
		{"release/../../evil.dll", "", false},
		{".", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := entryPath(root, tt.name)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEnsureTools(t *testing.T) {
	work := t.TempDir()
	l := NewLayout(work, "")
	require.NoError(t, os.MkdirAll(filepath.Dir(l.ToolsArchive()), 0o755))
	require.NoError(t, os.WriteFile(l.ToolsArchive(), []byte("7z"), 0o644))
	x := &fakeExtractor{files: map[string]string{"generate_emu_config/generate_emu_config.exe": "exe"}}

	require.NoError(t, EnsureTools(context.Background(), l, x, quietLogger()))
	assert.FileExists(t, filepath.Join(l.GeneratorDir(), "generate_emu_config.exe"))
	assert.FileExists(t, filepath.Join(l.ToolsDir(), "generate_emu_config-win.7z"))

	require.NoError(t, EnsureTools(context.Background(), l, x, quietLogger()))
	assert.Equal(t, 1, x.calls)
}

func TestNewLayout_EmuDirOverride(t *testing.T) {
	assert.Equal(t, filepath.Join("work", "goldberg"), NewLayout("work", "").EmuDir)
	assert.Equal(t, "custom", NewLayout("work", "custom").EmuDir)
}
