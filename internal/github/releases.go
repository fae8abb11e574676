package github

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"
)

const (
	repoOwner = "Detanup01"
	repoName  = "gbe_fork"
	repoPath  = "/" + repoOwner + "/" + repoName
	assetName = "emu-win-release.7z"

	DefaultBaseURL = "https://github.com"
)

var tagPattern = regexp.MustCompile(regexp.QuoteMeta(repoPath+"/releases/tag/") + `(release-\d{4}_\d{2}_\d{2})`)

// Release is the newest emulator build found on the releases page.
type Release struct {
	// JobID is the release tag, e.g. release-2024_08_01.
	JobID       string
	DownloadURL string
}

type Client struct {
	BaseURL   string
	Token     string
	UserAgent string
	HTTP      *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		BaseURL:   strings.TrimSuffix(baseURL, "/"),
		UserAgent: "Goldberg-Manager/1.0 (+fyne)",
		HTTP:      &http.Client{Timeout: timeout},
	}
}

// Latest scrapes the releases/latest page for the newest release tag.
func (c *Client) Latest(ctx context.Context) (Release, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+repoPath+"/releases/latest", nil)
	if err != nil {
		return Release{}, err
	}
	req.Header.Set("User-Agent", c.UserAgent)
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return Release{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusTooManyRequests {
		return Release{}, fmt.Errorf("GitHub returned %s (rate limited?). Try setting GITHUB_TOKEN", resp.Status)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return Release{}, fmt.Errorf("GitHub error: %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return Release{}, err
	}
	return c.parse(body)
}

func (c *Client) parse(page []byte) (Release, error) {
	m := tagPattern.FindSubmatch(page)
	if m == nil {
		return Release{}, fmt.Errorf("no release tag found on %s releases page", repoName)
	}
	tag := string(m[1])
	return Release{
		JobID:       tag,
		DownloadURL: c.BaseURL + repoPath + "/releases/download/" + tag + "/" + assetName,
	}, nil
}
