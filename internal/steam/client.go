// Package steam looks up achievement schemas and DLC lists of an app through
// the Steam Web API and the store API.
package steam

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/SiirRandall/goldberg-manager/internal/goldberg"
)

// ErrNoAPIKey is returned when no Steam Web API key was configured.
var ErrNoAPIKey = errors.New("a Steam Web API key is required, get one at https://steamcommunity.com/dev/apikey")

type Client struct {
	apiKey    string
	apiURL    string
	storeURL  string
	userAgent string
	http      *http.Client
	log       logrus.FieldLogger
}

type Options struct {
	APIKey    string
	APIURL    string
	StoreURL  string
	UserAgent string
	Timeout   time.Duration
}

func NewClient(opts Options, log logrus.FieldLogger) (*Client, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, ErrNoAPIKey
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 45 * time.Second
	}
	return &Client{
		apiKey:    strings.TrimSpace(opts.APIKey),
		apiURL:    strings.TrimSuffix(opts.APIURL, "/"),
		storeURL:  strings.TrimSuffix(opts.StoreURL, "/"),
		userAgent: opts.UserAgent,
		http:      &http.Client{Timeout: opts.Timeout},
		log:       log,
	}, nil
}

type schemaResponse struct {
	Game struct {
		GameName           string `json:"gameName"`
		AvailableGameStats struct {
			Achievements []struct {
				Name        string `json:"name"`
				DisplayName string `json:"displayName"`
				Description string `json:"description"`
				Hidden      int    `json:"hidden"`
				Icon        string `json:"icon"`
				IconGray    string `json:"icongray"`
			} `json:"achievements"`
		} `json:"availableGameStats"`
	} `json:"game"`
}

// Achievements fetches the achievement schema of appID.
func (c *Client) Achievements(ctx context.Context, appID int) ([]goldberg.Achievement, error) {
	q := url.Values{}
	q.Set("key", c.apiKey)
	q.Set("appid", strconv.Itoa(appID))
	q.Set("l", "english")

	var resp schemaResponse
	if err := c.getJSON(ctx, c.apiURL+"/ISteamUserStats/GetSchemaForGame/v2/?"+q.Encode(), &resp); err != nil {
		return nil, fmt.Errorf("achievements of %d: %w", appID, err)
	}

	list := resp.Game.AvailableGameStats.Achievements
	out := make([]goldberg.Achievement, 0, len(list))
	for _, a := range list {
		out = append(out, goldberg.Achievement{
			ID:          a.Name,
			Name:        a.DisplayName,
			Description: a.Description,
			Hidden:      a.Hidden,
			Icon:        a.Icon,
			IconGray:    a.IconGray,
		})
	}
	c.log.WithField("app_id", appID).WithField("count", len(out)).Info("Got achievements.")
	return out, nil
}

type appDetails struct {
	Success bool `json:"success"`
	Data    struct {
		Name string `json:"name"`
		DLC  []int  `json:"dlc"`
	} `json:"data"`
}

func (c *Client) details(ctx context.Context, appID int) (appDetails, error) {
	var resp map[string]appDetails
	u := c.storeURL + "/api/appdetails?appids=" + strconv.Itoa(appID)
	if err := c.getJSON(ctx, u, &resp); err != nil {
		return appDetails{}, err
	}
	d, ok := resp[strconv.Itoa(appID)]
	if !ok || !d.Success {
		return appDetails{}, fmt.Errorf("store has no details for app %d", appID)
	}
	return d, nil
}

// AppName returns the store name of appID.
func (c *Client) AppName(ctx context.Context, appID int) (string, error) {
	d, err := c.details(ctx, appID)
	if err != nil {
		return "", err
	}
	return d.Data.Name, nil
}

// DLCs lists the DLC of appID with their store names. DLC whose details
// cannot be fetched keep an "Unknown DLC" name.
func (c *Client) DLCs(ctx context.Context, appID int) ([]goldberg.DlcApp, error) {
	d, err := c.details(ctx, appID)
	if err != nil {
		return nil, fmt.Errorf("DLC of %d: %w", appID, err)
	}

	out := make([]goldberg.DlcApp, 0, len(d.Data.DLC))
	for _, id := range d.Data.DLC {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		name, err := c.AppName(ctx, id)
		if err != nil {
			c.log.WithError(err).WithField("dlc", id).Warn("Could not get DLC name")
			name = "Unknown DLC " + strconv.Itoa(id)
		}
		out = append(out, goldberg.DlcApp{AppID: id, Name: name})
	}
	c.log.WithField("app_id", appID).WithField("count", len(out)).Info("Got DLC list.")
	return out, nil
}

func (c *Client) getJSON(ctx context.Context, u string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusForbidden {
		return fmt.Errorf("steam returned 403, check the Steam Web API key")
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("steam error: %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}
	return json.NewDecoder(resp.Body).Decode(v)
}
