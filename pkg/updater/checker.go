package updater

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/kpauljoseph/cardforge/pkg/logger"
	"github.com/kpauljoseph/cardforge/pkg/version"
)

const DefaultReleaseURL = "https://api.github.com/repos/kpauljoseph/cardforge/releases/latest"

type Checker struct {
	url     string
	current string
	client  *http.Client
	logger  *logger.Logger
}

type Option func(*Checker)

func WithURL(url string) Option {
	return func(c *Checker) {
		c.url = url
	}
}

// WithCurrentVersion overrides the version compiled into the binary.
func WithCurrentVersion(v string) Option {
	return func(c *Checker) {
		c.current = v
	}
}

func NewChecker(log *logger.Logger, opts ...Option) *Checker {
	if log == nil {
		log = logger.Discard()
	}
	c := &Checker{
		url:     DefaultReleaseURL,
		current: version.Version,
		client:  &http.Client{Timeout: 10 * time.Second},
		logger:  log,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Checker) Check(ctx context.Context) (*UpdateInfo, error) {
	c.logger.Debug("Checking for updates at %s", c.url)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", version.UserAgent())
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch latest release: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("release endpoint returned status %d", resp.StatusCode)
	}

	var release Release
	if err := json.NewDecoder(resp.Body).Decode(&release); err != nil {
		return nil, fmt.Errorf("failed to decode release: %w", err)
	}

	current := strings.TrimPrefix(c.current, "v")
	latest := strings.TrimPrefix(release.TagName, "v")
	return &UpdateInfo{
		CurrentVersion: current,
		LatestVersion:  latest,
		ReleaseNotes:   release.Body,
		DownloadURL:    release.HTMLURL,
		IsAvailable:    !release.Draft && !release.Prerelease && CompareVersions(current, latest) < 0,
	}, nil
}

// CompareVersions compares dotted versions numerically, returning -1, 0 or
// 1. Non-numeric parts compare as text; missing parts count as 0.
func CompareVersions(v1, v2 string) int {
	parts1 := strings.Split(v1, ".")
	parts2 := strings.Split(v2, ".")

	for i := 0; i < max(len(parts1), len(parts2)); i++ {
		a, b := "0", "0"
		if i < len(parts1) {
			a = parts1[i]
		}
		if i < len(parts2) {
			b = parts2[i]
		}
		if c := comparePart(a, b); c != 0 {
			return c
		}
	}
	return 0
}

func comparePart(a, b string) int {
	x, errA := strconv.Atoi(a)
	y, errB := strconv.Atoi(b)
	if errA != nil || errB != nil {
		return strings.Compare(a, b)
	}
	switch {
	case x < y:
		return -1
	case x > y:
		return 1
	}
	return 0
}
