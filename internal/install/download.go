package install

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
)

type writerFunc func([]byte) (int, error)

func (f writerFunc) Write(p []byte) (int, error) { return f(p) }

// Progress receives the bytes written so far and the expected total, which is
// zero when the server sent no Content-Length.
type Progress func(done, total int64)

// Download streams url into dest. When the server announces a length the
// written size must match it; dest is only replaced by a complete file.
func Download(ctx context.Context, client *http.Client, url, userAgent, dest string, progress Progress) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", userAgent)
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("download failed: %s", resp.Status)
	}

	contentLen := resp.ContentLength
	if contentLen < 0 {
		contentLen = 0
	}

	var reader io.Reader = resp.Body
	var bytesRead int64
	if progress != nil {
		reader = io.TeeReader(reader, writerFunc(func(p []byte) (int, error) {
			bytesRead += int64(len(p))
			progress(bytesRead, contentLen)
			return len(p), nil
		}))
	}

	tmp := dest + ".part"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	n, err := io.Copy(f, reader)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err == nil && contentLen > 0 && n != contentLen {
		err = fmt.Errorf("file size does not match: got %d bytes, want %d", n, contentLen)
	}
	if err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, dest)
}
