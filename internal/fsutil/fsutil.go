// Package fsutil holds the small file helpers shared by the settings store,
// the game config writer and the emulator installer.
package fsutil

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

func EnsureDir(p string) error {
	return os.MkdirAll(p, 0o755)
}

// Exists reports whether p exists and is a regular file.
func Exists(p string) bool {
	info, err := os.Stat(p)
	return err == nil && info.Mode().IsRegular()
}

func DirExists(p string) bool {
	info, err := os.Stat(p)
	return err == nil && info.IsDir()
}

// RemoveIfExists deletes a file; a missing file is not an error.
func RemoveIfExists(p string) error {
	if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// FirstLine returns the first line of p with surrounding whitespace trimmed.
// ok is false when the file does not exist.
func FirstLine(p string) (line string, ok bool, err error) {
	f, err := os.Open(p)
	if errors.Is(err, fs.ErrNotExist) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	if sc.Scan() {
		return strings.TrimSpace(sc.Text()), true, nil
	}
	return "", true, sc.Err()
}

// ReadLines returns every line of p, or nil when the file does not exist.
func ReadLines(p string) ([]string, error) {
	b, err := os.ReadFile(p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	s := strings.ReplaceAll(string(b), "\r\n", "\n")
	s = strings.TrimSuffix(s, "\n")
	if s == "" {
		return nil, nil
	}
	return strings.Split(s, "\n"), nil
}

// CopyFile copies src over dst, creating dst's parent directory.
func CopyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	if err := EnsureDir(filepath.Dir(dst)); err != nil {
		return err
	}
	out, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}

// CopyDir recursively copies the contents of src into dst, overwriting files
// that already exist.
func CopyDir(src, dst string) error {
	return filepath.WalkDir(src, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, p)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if d.IsDir() {
			return EnsureDir(target)
		}
		if !d.Type().IsRegular() {
			return nil
		}
		if err := CopyFile(p, target); err != nil {
			return fmt.Errorf("copy %s: %w", rel, err)
		}
		return nil
	})
}

// WriteFileAtomic writes data to a sibling temp file and renames it over p.
func WriteFileAtomic(p string, data []byte) error {
	tmp := p + ".part"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmp, p); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}
