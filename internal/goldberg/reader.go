package goldberg

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strconv"

	"github.com/SiirRandall/goldberg-manager/internal/fsutil"
)

// Read loads the configuration already present in gameDir. Missing files
// leave their part of the configuration empty and malformed lines are
// skipped. An app path for a DLC that is not listed is reported as an error
// wrapping ErrUnknownDlc.
func (w *Writer) Read(ctx context.Context, gameDir string) (Configuration, error) {
	if err := ctx.Err(); err != nil {
		return Configuration{}, err
	}
	log := w.log.WithField("game_dir", gameDir)
	log.Info("Reading configuration...")

	c := NewConfiguration()
	settingsDir := filepath.Join(gameDir, SettingsDir)

	if line, ok, err := fsutil.FirstLine(filepath.Join(gameDir, AppIDFile)); err != nil {
		log.WithError(err).Warn("Could not read steam_appid.txt")
	} else if !ok {
		log.Info(`"steam_appid.txt" missing! Skipping...`)
	} else if id, err := strconv.Atoi(line); err != nil {
		log.WithField("value", line).Warn("Invalid AppID in steam_appid.txt")
	} else {
		c.AppID = id
	}

	c.Achievements = w.readAchievements(filepath.Join(settingsDir, achievementsFile))

	if w.settings != nil {
		c.ExperimentalNow = w.settings.Experimental()
	}

	dlcs, err := w.readDLCs(settingsDir)
	if err != nil {
		return Configuration{}, err
	}
	c.DLCs = dlcs

	c.Offline = fsutil.Exists(filepath.Join(settingsDir, offlineMarker))
	c.DisableNetworking = fsutil.Exists(filepath.Join(settingsDir, disableNetworkingMarker))
	c.DisableOverlay = fsutil.Exists(filepath.Join(settingsDir, disableOverlayMarker))
	return c, nil
}

func (w *Writer) readAchievements(path string) []Achievement {
	b, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		w.log.Info(`"steam_settings/achievements.json" missing! Skipping...`)
		return []Achievement{}
	}
	if err != nil {
		w.log.WithError(err).Warn("Could not read achievements")
		return []Achievement{}
	}
	var list []Achievement
	if err := json.Unmarshal(b, &list); err != nil {
		w.log.WithError(err).Warn("Malformed achievements.json, ignoring it")
		return []Achievement{}
	}
	if list == nil {
		list = []Achievement{}
	}
	return list
}

func (w *Writer) readDLCs(settingsDir string) ([]DlcApp, error) {
	dlcs := []DlcApp{}

	lines, err := fsutil.ReadLines(filepath.Join(settingsDir, dlcFile))
	switch {
	case err != nil:
		w.log.WithError(err).Warn("Could not read DLC.txt")
	case lines != nil:
		w.log.Info("Getting DLCs...")
		for _, line := range lines {
			r := ParseDlcLine(line)
			if !r.Matched() {
				continue
			}
			dlcs = upsertDlc(dlcs, DlcApp{AppID: r.ID, Name: r.Value})
		}
	default:
		fromINI, err := readAppConfigDLCs(filepath.Join(settingsDir, appConfigFile))
		if err != nil {
			w.log.WithError(err).Warn("Could not read configs.app.ini")
		}
		if len(fromINI) == 0 {
			w.log.Info(`"steam_settings/DLC.txt" missing! Skipping...`)
		}
		for _, d := range fromINI {
			dlcs = upsertDlc(dlcs, d)
		}
	}

	pathLines, err := fsutil.ReadLines(filepath.Join(settingsDir, appPathsFile))
	if err != nil {
		w.log.WithError(err).Warn("Could not read app_paths.txt")
		return dlcs, nil
	}
	for n, line := range pathLines {
		r := ParseAppPathLine(line)
		if !r.Matched() {
			continue
		}
		i := slices.IndexFunc(dlcs, func(d DlcApp) bool { return d.AppID == r.ID })
		if i < 0 {
			return nil, fmt.Errorf("%s line %d: app id %d: %w", appPathsFile, n+1, r.ID, ErrUnknownDlc)
		}
		dlcs[i].AppPath = r.Value
	}
	return dlcs, nil
}

// upsertDlc keeps the list unique by AppID; a later entry replaces the name.
func upsertDlc(list []DlcApp, d DlcApp) []DlcApp {
	if i := slices.IndexFunc(list, func(x DlcApp) bool { return x.AppID == d.AppID }); i >= 0 {
		list[i].Name = d.Name
		return list
	}
	return append(list, d)
}
