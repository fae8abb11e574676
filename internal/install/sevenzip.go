package install

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/bodgit/sevenzip"
	"github.com/sirupsen/logrus"
)

// Extractor unpacks an archive below destRoot.
type Extractor interface {
	Extract(ctx context.Context, archivePath, destRoot string) error
}

// SevenZip extracts .7z archives. Entries that fail are logged and skipped;
// the returned error then wraps ErrSetupIncomplete.
type SevenZip struct {
	Log logrus.FieldLogger
}

func (s SevenZip) Extract(ctx context.Context, archivePath, destRoot string) error {
	r, err := sevenzip.OpenReader(archivePath)
	if err != nil {
		return fmt.Errorf("open %s: %w", filepath.Base(archivePath), err)
	}
	defer r.Close()

	s.Log.WithField("archive", archivePath).Debug("Start extraction...")
	failed := 0
	for _, f := range r.File {
		if err := ctx.Err(); err != nil {
			return err
		}
		target, ok := entryPath(destRoot, f.Name)
		if !ok {
			continue
		}
		if err := extractEntry(f, target); err != nil {
			failed++
			s.Log.WithError(err).WithField("entry", f.Name).Error("Error while trying to extract entry")
		}
	}
	if failed > 0 {
		return fmt.Errorf("%w: %d archive entries failed to extract", ErrSetupIncomplete, failed)
	}
	return nil
}

// entryPath maps an archive entry to a path below destRoot, rejecting
// entries that would escape it.
func entryPath(destRoot, name string) (string, bool) {
	name = filepath.Clean(filepath.FromSlash(strings.ReplaceAll(name, `\`, "/")))
	if name == "." || filepath.IsAbs(name) || name == ".." || strings.HasPrefix(name, ".."+string(filepath.Separator)) {
		return "", false
	}
	return filepath.Join(destRoot, name), true
}

func extractEntry(f *sevenzip.File, target string) error {
	if f.FileInfo().IsDir() {
		return os.MkdirAll(target, 0o755)
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	out, err := os.OpenFile(target, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, rc); err != nil {
		_ = out.Close()
		return errors.Join(err, os.Remove(target))
	}
	return out.Close()
}
