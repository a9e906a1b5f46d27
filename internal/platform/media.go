package platform

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
)

// downloadToTemp fetches a remote media file into a temporary file and
// returns its path with a cleanup func. cleanup is safe to call exactly
// once on every exit path; the file never outlives the adapter call.
func downloadToTemp(ctx context.Context, client *http.Client, url, pattern string) (string, func(), error) {
	tmp, err := os.CreateTemp("", pattern)
	if err != nil {
		return "", nil, fmt.Errorf("create temp file: %w", err)
	}
	cleanup := func() { os.Remove(tmp.Name()) }

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		tmp.Close()
		cleanup()
		return "", nil, err
	}

	resp, err := client.Do(req)
	if err != nil {
		tmp.Close()
		cleanup()
		return "", nil, fmt.Errorf("download media: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		tmp.Close()
		cleanup()
		return "", nil, fmt.Errorf("download media: unexpected status %d", resp.StatusCode)
	}

	if _, err := io.Copy(tmp, resp.Body); err != nil {
		tmp.Close()
		cleanup()
		return "", nil, fmt.Errorf("save media: %w", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return "", nil, err
	}

	return tmp.Name(), cleanup, nil
}
