// Package goldberg reads and writes the Goldberg emulator configuration of a
// game directory and swaps the game's Steam API DLLs for the emulator's.
package goldberg

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/SiirRandall/goldberg-manager/internal/fsutil"
	"github.com/SiirRandall/goldberg-manager/internal/settings"
)

const (
	SettingsDir = "steam_settings"
	AppIDFile   = "steam_appid.txt"

	achievementsFile = "achievements.json"
	dlcFile          = "DLC.txt"
	appPathsFile     = "app_paths.txt"
	appConfigFile    = "configs.app.ini"
	mainConfigFile   = "configs.main.ini"
	overlayFile      = "configs.overlay.ini"
	userConfigFile   = "configs.user.ini"

	offlineMarker           = "offline.txt"
	disableNetworkingMarker = "disable_networking.txt"
	disableOverlayMarker    = "disable_overlay.txt"

	imagesDir     = "images"
	fontsDir      = "fonts"
	controllerDir = "controller"
	glyphsDir     = "glyphs"
)

// ExperimentalSource reports the global experimental flag.
type ExperimentalSource interface {
	Experimental() bool
}

// Assets are files shipped next to the tool that get copied into every
// configured game.
type Assets struct {
	OverlayTemplate string
	Font            string
	GlyphsDir       string
}

type Options struct {
	// EmuDir holds steam_api[64][_exp].dll extracted from the emulator release.
	EmuDir     string
	Assets     Assets
	Settings   ExperimentalSource
	Controller ControllerGenerator
	HTTPClient *http.Client
	UserAgent  string
}

// Writer applies and reads back the emulator configuration of game directories.
type Writer struct {
	emuDir     string
	assets     Assets
	settings   ExperimentalSource
	controller ControllerGenerator
	client     *http.Client
	userAgent  string
	log        logrus.FieldLogger

	copyFile func(src, dst string) error
}

func NewWriter(opts Options, log logrus.FieldLogger) *Writer {
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 45 * time.Second}
	}
	ua := opts.UserAgent
	if ua == "" {
		ua = "Goldberg-Manager/1.0"
	}
	return &Writer{
		emuDir:     opts.EmuDir,
		assets:     opts.Assets,
		settings:   opts.Settings,
		controller: opts.Controller,
		client:     client,
		userAgent:  ua,
		log:        log,
		copyFile:   fsutil.CopyFile,
	}
}

// Applied reports whether the emulator has been configured in gameDir before.
func Applied(gameDir string) bool {
	return fsutil.DirExists(filepath.Join(gameDir, SettingsDir)) &&
		fsutil.Exists(filepath.Join(gameDir, AppIDFile))
}

// Save stages the emulator DLLs and writes the full steam_settings layout.
// DLL staging fails fast; controller generation and icon downloads only log.
// The steps are not atomic as a whole: an error leaves the earlier steps applied.
func (w *Writer) Save(ctx context.Context, gameDir string, g settings.Global, c Configuration) error {
	log := w.log.WithField("game_dir", gameDir)
	log.Info("Saving configuration...")

	log.Info("Running DLL setup...")
	for _, name := range []string{x86Name, x64Name} {
		if !fsutil.Exists(filepath.Join(gameDir, name+".dll")) {
			continue
		}
		if err := w.stageDLL(gameDir, name, c.ExperimentalNow); err != nil {
			return err
		}
	}
	log.Info("DLL setup finished!")

	settingsDir := filepath.Join(gameDir, SettingsDir)
	if err := fsutil.EnsureDir(settingsDir); err != nil {
		return phaseErr("create steam_settings", err)
	}
	if err := os.WriteFile(filepath.Join(gameDir, AppIDFile), []byte(strconv.Itoa(c.AppID)), 0o644); err != nil {
		return phaseErr("write "+AppIDFile, err)
	}

	if err := w.writeConfigs(settingsDir, g, c); err != nil {
		return err
	}

	w.copyFont(settingsDir)
	w.copyController(ctx, settingsDir, c.AppID)

	if err := w.saveAchievements(ctx, settingsDir, c.Achievements); err != nil {
		return err
	}
	if err := w.saveDLCs(settingsDir, c.DLCs); err != nil {
		return err
	}

	log.Info("Configuration saved.")
	return nil
}

func (w *Writer) copyFont(settingsDir string) {
	if w.assets.Font == "" {
		return
	}
	dst := filepath.Join(settingsDir, fontsDir, filepath.Base(w.assets.Font))
	if err := fsutil.CopyFile(w.assets.Font, dst); err != nil {
		w.log.WithError(err).Warn("Could not copy overlay font")
	}
}
