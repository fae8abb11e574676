package goldberg

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/SiirRandall/goldberg-manager/internal/fsutil"
)

const localImagePrefix = imagesDir + "/"

// saveAchievements caches the icons locally and rewrites the icon fields of
// list in place to the cached paths before writing achievements.json.
func (w *Writer) saveAchievements(ctx context.Context, settingsDir string, list []Achievement) error {
	imageDir := filepath.Join(settingsDir, imagesDir)
	jsonPath := filepath.Join(settingsDir, achievementsFile)

	if len(list) == 0 {
		w.log.Info("No achievements set! Removing achievement files...")
		if err := os.RemoveAll(imageDir); err != nil {
			return phaseErr("remove images", err)
		}
		if err := fsutil.RemoveIfExists(jsonPath); err != nil {
			return phaseErr("remove "+achievementsFile, err)
		}
		return nil
	}

	w.log.WithField("count", len(list)).Info("Downloading images...")
	if err := fsutil.EnsureDir(imageDir); err != nil {
		return phaseErr("create images", err)
	}

	// Icons are shared between achievements often enough to dedupe.
	local := map[string]string{}
	for i := range list {
		a := &list[i]
		for _, icon := range []*string{&a.Icon, &a.IconGray} {
			if err := ctx.Err(); err != nil {
				return err
			}
			if *icon == "" {
				continue
			}
			p, seen := local[*icon]
			if !seen {
				var err error
				p, err = w.cacheImage(ctx, imageDir, *icon)
				if err != nil {
					w.log.WithError(err).WithField("url", *icon).Warn("Could not download achievement icon")
					p = *icon
				}
				local[*icon] = p
			}
			*icon = p
		}
	}

	w.log.Info("Saving achievements...")
	b, err := json.MarshalIndent(list, "", "  ")
	if err != nil {
		return phaseErr("encode achievements", err)
	}
	if err := fsutil.WriteFileAtomic(jsonPath, b); err != nil {
		return phaseErr("write "+achievementsFile, err)
	}
	w.log.Info("Finished saving achievements.")
	return nil
}

// cacheImage makes sure the icon behind ref exists in imageDir and returns
// the path the emulator should use for it.
func (w *Writer) cacheImage(ctx context.Context, imageDir, ref string) (string, error) {
	name := imageName(ref)
	if name == "" {
		return "", fmt.Errorf("no file name in %q", ref)
	}
	target := filepath.Join(imageDir, name)
	rel := localImagePrefix + name

	if fsutil.Exists(target) {
		return rel, nil
	}
	if strings.HasPrefix(ref, localImagePrefix) {
		w.log.WithField("image", ref).Warn("Previously downloaded image is now missing!")
		return ref, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ref, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", w.userAgent)
	resp, err := w.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("download failed: %s", resp.Status)
	}

	tmp := target + ".part"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(f, resp.Body); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return "", err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return "", err
	}
	if err := os.Rename(tmp, target); err != nil {
		_ = os.Remove(tmp)
		return "", err
	}
	return rel, nil
}

func imageName(ref string) string {
	p := ref
	if u, err := url.Parse(ref); err == nil && u.Scheme != "" {
		p = u.Path
	}
	name := path.Base(strings.ReplaceAll(p, `\`, "/"))
	if name == "." || name == "/" {
		return ""
	}
	return name
}
