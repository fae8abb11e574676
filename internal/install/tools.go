package install

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/SiirRandall/goldberg-manager/internal/fsutil"
)

// EnsureTools unpacks the bundled generate_emu_config archive into the tools
// directory unless the generator is already there.
func EnsureTools(ctx context.Context, l Layout, x Extractor, log logrus.FieldLogger) error {
	exe := filepath.Join(l.GeneratorDir(), "generate_emu_config.exe")
	if fsutil.Exists(exe) {
		return nil
	}
	if err := fsutil.EnsureDir(l.ToolsDir()); err != nil {
		return err
	}

	archive := filepath.Join(l.ToolsDir(), filepath.Base(l.ToolsArchive()))
	if !fsutil.Exists(archive) {
		if err := fsutil.CopyFile(l.ToolsArchive(), archive); err != nil {
			return fmt.Errorf("copy bundled tools: %w", err)
		}
	}
	log.WithField("archive", archive).Info("Extracting controller config generator...")
	if err := x.Extract(ctx, archive, l.ToolsDir()); err != nil {
		return err
	}
	if !fsutil.Exists(exe) {
		return fmt.Errorf("%s missing after extraction", filepath.Base(exe))
	}
	return nil
}
