package goldberg

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/ini.v1"

	"github.com/SiirRandall/goldberg-manager/internal/fsutil"
	"github.com/SiirRandall/goldberg-manager/internal/settings"
)

const dlcSection = "app::dlcs"

func init() {
	// The emulator's parser expects bare key=value pairs.
	ini.PrettyFormat = false
}

// iniOptions keeps '#' and ';' in values literal instead of quoting them.
var iniOptions = ini.LoadOptions{IgnoreInlineComment: true}

type iniKey struct{ name, value string }

type iniSection struct {
	name string
	keys []iniKey
}

func renderINI(sections ...iniSection) ([]byte, error) {
	f := ini.Empty(iniOptions)
	for _, s := range sections {
		sec, err := f.NewSection(s.name)
		if err != nil {
			return nil, err
		}
		for _, k := range s.keys {
			if _, err := sec.NewKey(k.name, k.value); err != nil {
				return nil, fmt.Errorf("[%s] %s: %w", s.name, k.name, err)
			}
		}
	}
	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func flag(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

func mainConfig(c Configuration) []iniSection {
	return []iniSection{
		{name: "main::general", keys: []iniKey{
			{"new_app_ticket", "1"},
			{"gc_token", "1"},
		}},
		{name: "main::connectivity", keys: []iniKey{
			{"disable_networking", flag(c.DisableNetworking)},
			{"offline", flag(c.Offline)},
		}},
	}
}

func overlayConfig(c Configuration) []iniSection {
	return []iniSection{
		{name: "overlay::general", keys: []iniKey{
			{"enable_experimental_overlay", flag(!c.DisableOverlay)},
			{"hook_delay_sec", "5"},
			{"renderer_detector_timeout_sec", "35"},
			{"disable_achievement_progress", "0"},
		}},
	}
}

func userConfig(g settings.Global) []iniSection {
	g = settings.Normalize(g)
	return []iniSection{
		{name: "user::general", keys: []iniKey{
			{"account_name", g.AccountName},
			{"account_steamid", strconv.FormatUint(g.UserSteamID, 10)},
			{"language", g.Language},
		}},
	}
}

func (w *Writer) writeConfigs(settingsDir string, g settings.Global, c Configuration) error {
	w.log.Info("Setting up configs.main.ini")
	if err := writeINI(filepath.Join(settingsDir, mainConfigFile), nil, mainConfig(c)...); err != nil {
		return phaseErr("write "+mainConfigFile, err)
	}

	w.log.Info("Setting up configs.overlay.ini")
	var tmpl []byte
	if w.assets.OverlayTemplate != "" {
		b, err := os.ReadFile(w.assets.OverlayTemplate)
		if err != nil {
			w.log.WithError(err).Warn("Overlay template missing, writing base overlay settings only")
		}
		tmpl = b
	}
	if err := writeINI(filepath.Join(settingsDir, overlayFile), tmpl, overlayConfig(c)...); err != nil {
		return phaseErr("write "+overlayFile, err)
	}

	w.log.Info("Setting up configs.user.ini")
	if err := writeINI(filepath.Join(settingsDir, userConfigFile), nil, userConfig(g)...); err != nil {
		return phaseErr("write "+userConfigFile, err)
	}
	return writeMarkers(settingsDir, c)
}

// writeMarkers mirrors the connectivity and overlay flags as marker files,
// which is what Read looks at.
func writeMarkers(settingsDir string, c Configuration) error {
	markers := []struct {
		name string
		on   bool
	}{
		{offlineMarker, c.Offline},
		{disableNetworkingMarker, c.DisableNetworking},
		{disableOverlayMarker, c.DisableOverlay},
	}
	for _, m := range markers {
		p := filepath.Join(settingsDir, m.name)
		var err error
		if m.on {
			err = os.WriteFile(p, nil, 0o644)
		} else {
			err = fsutil.RemoveIfExists(p)
		}
		if err != nil {
			return phaseErr("write "+m.name, err)
		}
	}
	return nil
}

func writeINI(path string, suffix []byte, sections ...iniSection) error {
	b, err := renderINI(sections...)
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(b, suffix...), 0o644)
}

func (w *Writer) saveDLCs(settingsDir string, dlcs []DlcApp) error {
	appConfig := filepath.Join(settingsDir, appConfigFile)
	appPaths := filepath.Join(settingsDir, appPathsFile)

	// DLC.txt would shadow configs.app.ini on the next Read, so it goes even
	// when the list is empty.
	if err := fsutil.RemoveIfExists(filepath.Join(settingsDir, dlcFile)); err != nil {
		return phaseErr("remove "+dlcFile, err)
	}

	if len(dlcs) == 0 {
		w.log.Info("No DLC set! Removing DLC configuration files...")
		if err := fsutil.RemoveIfExists(appConfig); err != nil {
			return phaseErr("remove "+appConfigFile, err)
		}
		if err := fsutil.RemoveIfExists(appPaths); err != nil {
			return phaseErr("remove "+appPathsFile, err)
		}
		return nil
	}

	w.log.WithField("count", len(dlcs)).Info("Saving DLC settings...")
	// The DLC lines are written verbatim; the ini encoder would quote names
	// holding backticks or edge whitespace.
	var app, paths strings.Builder
	fmt.Fprintf(&app, "[%s]\nunlock_all=0\n", dlcSection)
	for _, d := range dlcs {
		app.WriteString(d.String())
		app.WriteByte('\n')
		if d.AppPath != "" {
			fmt.Fprintf(&paths, "%d=%s\n", d.AppID, d.AppPath)
		}
	}
	if err := os.WriteFile(appConfig, []byte(app.String()), 0o644); err != nil {
		return phaseErr("write "+appConfigFile, err)
	}

	if paths.Len() == 0 {
		if err := fsutil.RemoveIfExists(appPaths); err != nil {
			return phaseErr("remove "+appPathsFile, err)
		}
		return nil
	}
	if err := os.WriteFile(appPaths, []byte(paths.String()), 0o644); err != nil {
		return phaseErr("write "+appPathsFile, err)
	}
	return nil
}

// readAppConfigDLCs reads the [app::dlcs] section written by saveDLCs.
func readAppConfigDLCs(path string) ([]DlcApp, error) {
	f, err := ini.LoadSources(iniOptions, path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	sec, err := f.GetSection(dlcSection)
	if err != nil {
		return nil, nil
	}
	var out []DlcApp
	for _, k := range sec.Keys() {
		id, err := strconv.Atoi(k.Name())
		if err != nil {
			continue
		}
		out = append(out, DlcApp{AppID: id, Name: k.Value()})
	}
	return out, nil
}

func phaseErr(phase string, err error) error {
	return fmt.Errorf("%s: %w", phase, err)
}
