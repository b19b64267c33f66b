package installer

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"macos-bootstrap/internal/logger"
)

// githubRelease is the subset of the GitHub release JSON we need to
// locate a downloadable archive asset.
type githubRelease struct {
	TagName string `json:"tag_name"`
	Assets  []struct {
		Name               string `json:"name"`
		BrowserDownloadURL string `json:"browser_download_url"`
	} `json:"assets"`
}

// Archive formats we can extract, in download preference order.
var assetExtensions = []string{".zip", ".tar.xz", ".tar.gz", ".tgz", ".tar.bz2", ".7z"}

// githubAPIBase is a variable so tests can point it at a local server.
var githubAPIBase = "https://api.github.com"

// fetchRelease retrieves the release metadata for repo (owner/name) at
// the given tag. The context deadline bounds the whole request.
func fetchRelease(ctx context.Context, repo, tag string) (*githubRelease, error) {
	url := fmt.Sprintf("%s/repos/%s/releases/tags/%s", githubAPIBase, repo, tag)
	logger.Debug("[DEBUG] Fetching GitHub release: %s\n", url)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build release request for %s@%s: %w", repo, tag, err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch release %s@%s: %w", repo, tag, err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			logger.Warn("[WARN] Failed to close response body: %v\n", cerr)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("release fetch for %s@%s returned HTTP %d", repo, tag, resp.StatusCode)
	}

	var release githubRelease
	if err := json.NewDecoder(resp.Body).Decode(&release); err != nil {
		return nil, fmt.Errorf("failed to decode release JSON for %s@%s: %w", repo, tag, err)
	}
	logger.Debug("[DEBUG] Release %s has %d assets\n", release.TagName, len(release.Assets))
	return &release, nil
}

// archiveAsset picks the first asset in a supported archive format,
// preferring zip (font releases almost always ship one).
func (r *githubRelease) archiveAsset() (name, url string, err error) {
	for _, ext := range assetExtensions {
		for _, asset := range r.Assets {
			if strings.HasSuffix(strings.ToLower(asset.Name), ext) {
				return asset.Name, asset.BrowserDownloadURL, nil
			}
		}
	}
	return "", "", fmt.Errorf("release %s has no extractable archive asset", r.TagName)
}

// downloadFile streams the content at url into destPath. The context
// deadline bounds the whole transfer, body included.
func downloadFile(ctx context.Context, url, destPath string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to build request for %s: %w", url, err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to GET %s: %w", url, err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			logger.Warn("[WARN] Failed to close response body: %v\n", cerr)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download of %s returned HTTP %d", url, resp.StatusCode)
	}

	out, err := os.Create(destPath)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", destPath, err)
	}
	defer func() {
		if cerr := out.Close(); cerr != nil {
			logger.Warn("[WARN] Failed to close %s: %v\n", destPath, cerr)
		}
	}()

	if _, err := io.Copy(out, resp.Body); err != nil {
		return fmt.Errorf("failed to write %s: %w", destPath, err)
	}
	logger.Debug("[DEBUG] Downloaded %s to %s\n", url, destPath)
	return nil
}
