package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
)

const (
	twitterBaseV2     = "https://api.twitter.com/2"
	twitterUploadURL  = "https://upload.twitter.com/1.1/media/upload.json"
	twitterMaxResults = 20
)

type Twitter struct {
	client *http.Client
}

func NewTwitter(client *http.Client) *Twitter {
	if client == nil {
		client = defaultClient()
	}
	return &Twitter{client: client}
}

func (t *Twitter) Name() string { return "twitter" }

// Publish posts a tweet. An image URL is downloaded to a temp file first
// because the upload endpoint wants the bytes, not a URL; the file is
// removed on every exit path.
func (t *Twitter) Publish(ctx context.Context, cred Credential, post PostPayload) (string, error) {
	var mediaIDs []string

	if post.ImageURL != "" {
		mediaID, err := t.uploadRemoteImage(ctx, cred, post.ImageURL)
		if err != nil {
			return "", err
		}
		mediaIDs = append(mediaIDs, mediaID)
	}

	body := map[string]interface{}{"text": post.Message}
	if len(mediaIDs) > 0 {
		body["media"] = map[string]interface{}{"media_ids": mediaIDs}
	}
	raw, err := json.Marshal(body)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, twitterBaseV2+"/tweets", bytes.NewReader(raw))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+cred.AccessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		return "", &StatusError{Code: resp.StatusCode, Body: string(respBody)}
	}

	return "success", nil
}

// FetchMetrics sums impressions and link clicks over the account's last 20
// tweets.
func (t *Twitter) FetchMetrics(ctx context.Context, cred Credential) (MetricsResult, error) {
	endpoint := fmt.Sprintf("%s/users/%s/tweets?max_results=%d&tweet.fields=public_metrics",
		twitterBaseV2, cred.AccountID, twitterMaxResults)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return MetricsResult{}, err
	}
	req.Header.Set("Authorization", "Bearer "+cred.AccessToken)

	resp, err := t.client.Do(req)
	if err != nil {
		return MetricsResult{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return MetricsResult{}, &StatusError{Code: resp.StatusCode, Body: string(body)}
	}

	var payload struct {
		Data []struct {
			PublicMetrics struct {
				ImpressionCount int64 `json:"impression_count"`
				URLLinkClicks   int64 `json:"url_link_clicks"`
			} `json:"public_metrics"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return MetricsResult{}, fmt.Errorf("decode tweets response: %w", err)
	}

	metrics := MetricsResult{Platform: t.Name()}
	for _, tweet := range payload.Data {
		metrics.Views += tweet.PublicMetrics.ImpressionCount
		metrics.Clicks += tweet.PublicMetrics.URLLinkClicks
	}
	return metrics, nil
}

func (t *Twitter) uploadRemoteImage(ctx context.Context, cred Credential, imageURL string) (string, error) {
	path, cleanup, err := downloadToTemp(ctx, t.client, imageURL, "tweet-image-*.jpg")
	if err != nil {
		return "", err
	}
	defer cleanup()

	file, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer file.Close()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("media", "media.jpg")
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(part, file); err != nil {
		return "", err
	}
	if err := writer.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, twitterUploadURL, &buf)
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+cred.AccessToken)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := t.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return "", &StatusError{Code: resp.StatusCode, Body: string(body)}
	}

	var result struct {
		MediaIDString string `json:"media_id_string"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decode media upload response: %w", err)
	}
	return result.MediaIDString, nil
}
