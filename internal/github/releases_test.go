package github

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const latestPage = `<html><body>
<a href="/Detanup01/gbe_fork/releases/tag/release-2024_08_01" class="Link">release-2024_08_01</a>
<a href="/Detanup01/gbe_fork/releases/tag/release-2023_01_01">older</a>
</body></html>`

func TestLatest(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/Detanup01/gbe_fork/releases/latest", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		_, _ = io.WriteString(w, latestPage)
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/", 5*time.Second)
	c.Token = "secret"
	rel, err := c.Latest(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "release-2024_08_01", rel.JobID)
	assert.Equal(t, srv.URL+"/Detanup01/gbe_fork/releases/download/release-2024_08_01/emu-win-release.7z", rel.DownloadURL)
	assert.Equal(t, "Bearer secret", gotAuth)
}

func TestLatest_NoTag(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "<html>nothing here</html>")
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, 5*time.Second).Latest(context.Background())
	assert.ErrorContains(t, err, "no release tag")
}

func TestLatest_RateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, 5*time.Second).Latest(context.Background())
	assert.ErrorContains(t, err, "GITHUB_TOKEN")
}
