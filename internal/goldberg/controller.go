package goldberg

import (
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/SiirRandall/goldberg-manager/internal/fsutil"
)

// ControllerGenerator produces the steam_settings/controller tree for an app
// and returns the directory it was written to.
type ControllerGenerator interface {
	Generate(ctx context.Context, appID int) (string, error)
}

const generatorExe = "generate_emu_config.exe"

// ExecGenerator runs the bundled generate_emu_config tool.
type ExecGenerator struct {
	// Dir contains generate_emu_config.exe and receives its output/ tree.
	Dir string
	// Setup, when set, runs before the tool to make sure it is unpacked.
	Setup func(ctx context.Context) error
}

func (g ExecGenerator) Generate(ctx context.Context, appID int) (string, error) {
	if g.Setup != nil {
		if err := g.Setup(ctx); err != nil {
			return "", fmt.Errorf("prepare %s: %w", generatorExe, err)
		}
	}
	cmd := exec.CommandContext(ctx, filepath.Join(g.Dir, generatorExe),
		strconv.Itoa(appID), "-anon", "-skip_ach", "-skip_inv")
	cmd.Dir = g.Dir
	if out, err := cmd.CombinedOutput(); err != nil {
		return "", fmt.Errorf("run %s: %w: %s", generatorExe, err, lastLine(out))
	}

	dir := filepath.Join(g.Dir, "output", strconv.Itoa(appID), SettingsDir, controllerDir)
	if !fsutil.DirExists(dir) {
		return "", fmt.Errorf("%s produced no controller config for %d", generatorExe, appID)
	}
	return dir, nil
}

func lastLine(b []byte) string {
	s := strings.TrimSpace(string(b))
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		return strings.TrimSpace(s[i+1:])
	}
	return s
}

func (w *Writer) copyController(ctx context.Context, settingsDir string, appID int) {
	dst := filepath.Join(settingsDir, controllerDir)
	if err := fsutil.EnsureDir(dst); err != nil {
		w.log.WithError(err).Warn("Could not create controller dir")
		return
	}
	if w.controller == nil || appID < 0 {
		return
	}

	src, err := w.controller.Generate(ctx, appID)
	if err != nil {
		w.log.WithError(err).Error("Controller config generation failed")
		return
	}
	if err := fsutil.CopyDir(src, dst); err != nil {
		w.log.WithError(err).Error("Could not copy controller config")
		return
	}
	if w.assets.GlyphsDir == "" || !fsutil.DirExists(w.assets.GlyphsDir) {
		return
	}
	if err := fsutil.CopyDir(w.assets.GlyphsDir, filepath.Join(dst, glyphsDir)); err != nil {
		w.log.WithError(err).Error("Could not copy controller glyphs")
	}
}
