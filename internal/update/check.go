// Package update checks GitHub releases for a newer scrutinizer version.
package update

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/avast/retry-go/v4"
)

// Repo is the GitHub repository releases are published to.
const Repo = "erik-smit/scrutinizer"

// Result holds the outcome of a version check.
type Result struct {
	Latest    string
	Current   string
	UpdateCmd string
}

// NeedsUpdate reports whether Latest is a higher semantic version than
// Current. Versions that do not parse never need an update.
func (r *Result) NeedsUpdate() bool {
	latest, err := semver.NewVersion(r.Latest)
	if err != nil {
		return false
	}
	current, err := semver.NewVersion(r.Current)
	if err != nil {
		return false
	}
	return latest.GreaterThan(current)
}

type githubRelease struct {
	TagName string `json:"tag_name"`
}

var errNoRelease = errors.New("no release published")

// Checker queries the releases API.
type Checker struct {
	BaseURL  string
	Client   *http.Client
	Attempts uint
}

// NewChecker returns a checker for api.github.com with short timeouts.
func NewChecker() *Checker {
	return &Checker{
		BaseURL:  "https://api.github.com",
		Client:   &http.Client{Timeout: 2 * time.Second},
		Attempts: 2,
	}
}

// Latest returns the newest release of Repo compared to currentVersion.
// Development builds are not checked and yield a nil result.
func (c *Checker) Latest(ctx context.Context, currentVersion string) (*Result, error) {
	if currentVersion == "dev" {
		return nil, nil
	}

	var tag string
	err := retry.Do(func() error {
		var err error
		tag, err = c.fetch(ctx)
		return err
	},
		retry.Context(ctx),
		retry.Attempts(c.Attempts),
		retry.Delay(200*time.Millisecond),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool { return !errors.Is(err, errNoRelease) }),
	)
	if err != nil {
		return nil, fmt.Errorf("checking latest release: %w", err)
	}

	return &Result{
		Latest:    tag,
		Current:   currentVersion,
		UpdateCmd: fmt.Sprintf("go install github.com/%s/cmd/scrutinizer@latest", Repo),
	}, nil
}

func (c *Checker) fetch(ctx context.Context) (string, error) {
	url := fmt.Sprintf("%s/repos/%s/releases/latest", c.BaseURL, Repo)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", retry.Unrecoverable(err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := c.Client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return "", errNoRelease
	case resp.StatusCode != http.StatusOK:
		return "", fmt.Errorf("unexpected status %s", resp.Status)
	}

	var release githubRelease
	if err := json.NewDecoder(resp.Body).Decode(&release); err != nil {
		return "", retry.Unrecoverable(fmt.Errorf("decoding release: %w", err))
	}
	if release.TagName == "" {
		return "", errNoRelease
	}
	return release.TagName, nil
}
