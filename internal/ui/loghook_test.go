package ui

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"fyne.io/fyne/v2/test"
	"fyne.io/fyne/v2/widget"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SiirRandall/goldberg-manager/internal/goldberg"
)

func TestFormatEntry(t *testing.T) {
	log := logrus.New()

	e := log.WithField("job_id", "release-2024_08_01").WithField("dll", "steam_api")
	e.Level = logrus.InfoLevel
	e.Message = "Download finished!"
	assert.Equal(t, "Download finished! dll=steam_api job_id=release-2024_08_01", formatEntry(e))

	e = log.WithError(errors.New("boom"))
	e.Level = logrus.WarnLevel
	e.Message = "Could not copy overlay font"
	assert.Equal(t, "WARNING: Could not copy overlay font error=boom", formatEntry(e))
}

func TestFormatLine(t *testing.T) {
	ts := time.Date(2024, 8, 1, 9, 5, 7, 0, time.UTC)
	assert.Equal(t, "[09:05:07] Saving configuration...\n", formatLine(ts, "Saving configuration..."))
}

func TestLogHookLevels(t *testing.T) {
	h := newLogHook(nil, logrus.InfoLevel)
	assert.Contains(t, h.Levels(), logrus.WarnLevel)
	assert.Contains(t, h.Levels(), logrus.InfoLevel)
	assert.NotContains(t, h.Levels(), logrus.DebugLevel)
}

func touch(t *testing.T, p string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte("x"), 0o644))
}

func TestOriginalDLLs(t *testing.T) {
	dir := t.TempDir()
	assert.Empty(t, originalDLLs(dir))
	assert.Empty(t, originalDLLs(""))

	touch(t, filepath.Join(dir, "steam_api64.dll"))
	assert.Equal(t, []string{filepath.Join(dir, "steam_api64.dll")}, originalDLLs(dir))

	// once applied, steam_api64.dll is the emulator build
	touch(t, filepath.Join(dir, goldberg.AppIDFile))
	touch(t, filepath.Join(dir, goldberg.SettingsDir, "configs.main.ini"))
	assert.Empty(t, originalDLLs(dir))

	touch(t, filepath.Join(dir, "steam_api64_o.dll"))
	assert.Equal(t, []string{filepath.Join(dir, "steam_api64_o.dll")}, originalDLLs(dir))
}

func TestMergeAppPaths(t *testing.T) {
	fresh := []goldberg.DlcApp{{AppID: 481, Name: "Soundtrack"}, {AppID: 482, Name: "Expansion"}}
	known := []goldberg.DlcApp{{AppID: 482, Name: "Old name", AppPath: `C:\dlc`}, {AppID: 999, AppPath: "gone"}}

	assert.Equal(t, []goldberg.DlcApp{
		{AppID: 481, Name: "Soundtrack"},
		{AppID: 482, Name: "Expansion", AppPath: `C:\dlc`},
	}, mergeAppPaths(fresh, known))
}

func TestAppendLine_KeepsEveryLine(t *testing.T) {
	test.NewTempApp(t)
	view := widget.NewMultiLineEntry()
	makeReadOnlyEntry(view)
	ts := time.Date(2024, 8, 1, 9, 5, 7, 0, time.UTC)

	appendLine(view, ts, "Initializing download...")
	appendLine(view, ts, "Download finished!")
	hook := newLogHook(view, logrus.InfoLevel)
	require.NoError(t, hook.Fire(&logrus.Entry{Time: ts, Level: logrus.InfoLevel, Message: "Extraction was successful!"}))

	assert.Equal(t,
		"[09:05:07] Initializing download...\n[09:05:07] Download finished!\n[09:05:07] Extraction was successful!\n",
		view.Text)
}
