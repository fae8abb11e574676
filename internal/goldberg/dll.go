package goldberg

import (
	"os"
	"path/filepath"

	"github.com/SiirRandall/goldberg-manager/internal/fsutil"
)

const (
	x86Name = "steam_api"
	x64Name = "steam_api64"

	originalSuffix = "_o"
	backupSuffix   = ".GOLDBERGGUIBACKUP"
)

// EmulatorDLL is the file name of the emulator build that replaces name.
func EmulatorDLL(name string, experimental bool) string {
	if experimental {
		return name + "_exp.dll"
	}
	return name + ".dll"
}

// stageDLL backs up <name>.dll and installs the emulator build in its place.
// The first run keeps the game's DLL as <name>_o.dll; later runs move the
// previous emulator DLL to a hidden backup so the original stays untouched.
func (w *Writer) stageDLL(gameDir, name string, experimental bool) error {
	current := filepath.Join(gameDir, name+".dll")
	original := filepath.Join(gameDir, name+originalSuffix+".dll")
	backup := filepath.Join(gameDir, "."+name+".dll"+backupSuffix)
	emu := filepath.Join(w.emuDir, EmulatorDLL(name, experimental))
	log := w.log.WithField("dll", name)

	// Nothing has been moved yet, so a missing emulator build is harmless.
	if !fsutil.Exists(emu) {
		return &StagingError{DLL: name, Op: "locate emulator dll", Err: os.ErrNotExist}
	}

	if !fsutil.Exists(original) {
		log.Info("Back up original Steam API DLL...")
		if err := os.Rename(current, original); err != nil {
			return &StagingError{DLL: name, Op: "back up original", Err: err}
		}
	} else {
		if err := fsutil.RemoveIfExists(backup); err != nil {
			return &StagingError{DLL: name, Op: "remove stale backup", Err: err}
		}
		if err := os.Rename(current, backup); err != nil {
			return &StagingError{DLL: name, Op: "back up previous", Err: err}
		}
		if err := hideFile(backup); err != nil {
			log.WithError(err).Warn("Could not hide DLL backup")
		}
	}

	log.Info("Copy Goldberg DLL to target path...")
	if err := w.copyFile(emu, current); err != nil {
		return &StagingError{DLL: name, Op: "install emulator dll", Missing: true, Err: err}
	}
	return nil
}
