// Package install keeps the local copy of the Goldberg emulator up to date
// and unpacks the bundled helper tools.
package install

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/SiirRandall/goldberg-manager/internal/fsutil"
	"github.com/SiirRandall/goldberg-manager/internal/github"
)

// ErrSetupIncomplete means the emulator could not be set up automatically and
// has to be downloaded and extracted into the goldberg folder by hand.
var ErrSetupIncomplete = errors.New("could not set up Goldberg emulator, set it up manually")

// ReleaseSource finds the newest emulator release.
type ReleaseSource interface {
	Latest(ctx context.Context) (github.Release, error)
}

// releaseDLLs maps archive paths to the flat names the config writer installs.
var releaseDLLs = []struct{ src, dst string }{
	{"release/regular/x64/steam_api64.dll", "steam_api64.dll"},
	{"release/regular/x32/steam_api.dll", "steam_api.dll"},
	{"release/experimental/x64/steam_api64.dll", "steam_api64_exp.dll"},
	{"release/experimental/x32/steam_api.dll", "steam_api_exp.dll"},
}

type Updater struct {
	Layout    Layout
	Source    ReleaseSource
	Extractor Extractor
	Client    *http.Client
	UserAgent string
	Progress  Progress
	Log       logrus.FieldLogger
}

// Update downloads and extracts the newest emulator release when its job id
// differs from the one recorded locally. It reports whether a new release was
// installed. Every failure wraps ErrSetupIncomplete.
func (u *Updater) Update(ctx context.Context) (bool, error) {
	u.Log.Info("Initializing download...")
	if err := fsutil.EnsureDir(u.Layout.EmuDir); err != nil {
		return false, incomplete(err)
	}

	rel, err := u.Source.Latest(ctx)
	if err != nil {
		return false, incomplete(err)
	}
	log := u.Log.WithField("job_id", rel.JobID)

	local, ok, err := fsutil.FirstLine(u.Layout.JobIDPath())
	if err != nil {
		log.WithError(err).Error("An error occurred, local Goldberg setup might be broken!")
	}
	if ok && local == rel.JobID && u.dllsPresent() {
		log.Info("Latest Goldberg emulator is already available! Skipping...")
		return false, nil
	}
	if ok {
		log.WithField("local", local).Info("New Goldberg emulator is available! Downloading...")
	}

	log.WithField("url", rel.DownloadURL).Info("Starting download...")
	if err := Download(ctx, u.Client, rel.DownloadURL, u.UserAgent, u.Layout.ArchivePath(), u.Progress); err != nil {
		return false, incomplete(err)
	}
	log.Info("Download finished!")

	if err := u.extract(ctx); err != nil {
		u.reset()
		return false, err
	}
	if err := os.WriteFile(u.Layout.JobIDPath(), []byte(rel.JobID), 0o644); err != nil {
		log.WithError(err).Warn("Could not record job id")
	}
	log.Info("Extraction was successful!")
	return true, nil
}

func (u *Updater) extract(ctx context.Context) error {
	if err := os.RemoveAll(u.Layout.EmuDir); err != nil {
		return incomplete(err)
	}
	if err := fsutil.EnsureDir(u.Layout.EmuDir); err != nil {
		return incomplete(err)
	}

	var errs []error
	if err := u.Extractor.Extract(ctx, u.Layout.ArchivePath(), u.Layout.EmuDir); err != nil {
		if ctx.Err() != nil {
			return incomplete(err)
		}
		errs = append(errs, err)
	}
	for _, d := range releaseDLLs {
		src := filepath.Join(u.Layout.EmuDir, filepath.FromSlash(d.src))
		if err := fsutil.CopyFile(src, filepath.Join(u.Layout.EmuDir, d.dst)); err != nil {
			u.Log.WithError(err).WithField("dll", d.src).Error("Error occurred while copying Goldberg DLL")
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		u.Log.Warn("Error occurred while extracting! Please setup Goldberg manually")
		return incomplete(errors.Join(errs...))
	}
	return nil
}

func (u *Updater) dllsPresent() bool {
	for _, d := range releaseDLLs {
		if !fsutil.Exists(filepath.Join(u.Layout.EmuDir, d.dst)) {
			return false
		}
	}
	return true
}

// reset leaves an empty goldberg folder for the user to fill by hand.
func (u *Updater) reset() {
	if err := os.RemoveAll(u.Layout.EmuDir); err != nil {
		u.Log.WithError(err).Warn("Could not clean goldberg folder")
	}
	if err := fsutil.EnsureDir(u.Layout.EmuDir); err != nil {
		u.Log.WithError(err).Warn("Could not recreate goldberg folder")
	}
}

func incomplete(err error) error {
	if errors.Is(err, ErrSetupIncomplete) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrSetupIncomplete, err)
}
