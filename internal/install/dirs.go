package install

import (
	"os"
	"path/filepath"
)

// Layout is where the manager keeps its local emulator copy and bundled
// assets. All paths hang off one work directory.
type Layout struct {
	WorkDir string
	EmuDir  string
}

func NewLayout(workDir, emuDir string) Layout {
	if emuDir == "" {
		emuDir = filepath.Join(workDir, "goldberg")
	}
	return Layout{WorkDir: workDir, EmuDir: emuDir}
}

func (l Layout) ArchivePath() string { return filepath.Join(l.WorkDir, "goldberg.7z") }
func (l Layout) JobIDPath() string   { return filepath.Join(l.WorkDir, "job_id") }
func (l Layout) ToolsDir() string    { return filepath.Join(l.WorkDir, "tools") }

func (l Layout) GeneratorDir() string {
	return filepath.Join(l.ToolsDir(), "generate_emu_config")
}

func (l Layout) ToolsArchive() string {
	return filepath.Join(l.WorkDir, "Configs", "generate_emu_config-win.7z")
}

func (l Layout) OverlayTemplate() string {
	return filepath.Join(l.WorkDir, "Configs", "configs.overlay.ini.template")
}

func (l Layout) Font() string {
	return filepath.Join(l.WorkDir, "Media", "fonts", "Roboto-Medium.ttf")
}

func (l Layout) GlyphsDir() string { return filepath.Join(l.WorkDir, "Media", "glyphs") }

// ResolveWorkDir picks the directory that ships the bundled Configs/ and
// Media/ folders: next to the executable, else the working directory.
func ResolveWorkDir() (string, error) {
	var candidates []string
	if exe, err := os.Executable(); err == nil {
		candidates = append(candidates, filepath.Dir(exe))
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	candidates = append(candidates, cwd)
	for _, c := range candidates {
		if dirExists(filepath.Join(c, "Configs")) || dirExists(filepath.Join(c, "Media")) {
			return c, nil
		}
	}
	// fallback: the working directory, like a portable install
	return cwd, nil
}

func dirExists(p string) bool {
	info, err := os.Stat(p)
	return err == nil && info.IsDir()
}
