package platform

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

const graphBaseURL = "https://graph.facebook.com/v23.0"

type Facebook struct {
	client *http.Client
}

func NewFacebook(client *http.Client) *Facebook {
	if client == nil {
		client = defaultClient()
	}
	return &Facebook{client: client}
}

func (f *Facebook) Name() string { return "facebook" }

// Publish posts to the page feed, picking the video, photo or plain feed
// endpoint based on the payload media.
func (f *Facebook) Publish(ctx context.Context, cred Credential, post PostPayload) (string, error) {
	switch {
	case post.VideoURL != "":
		params := url.Values{}
		params.Set("file_url", post.VideoURL)
		params.Set("description", post.Message)
		params.Set("access_token", cred.AccessToken)
		if err := f.post(ctx, fmt.Sprintf("%s/%s/videos", graphBaseURL, cred.AccountID), params); err != nil {
			return "", err
		}
		return "video_success", nil

	case post.ImageURL != "":
		params := url.Values{}
		params.Set("url", post.ImageURL)
		params.Set("caption", post.Message)
		params.Set("access_token", cred.AccessToken)
		if err := f.post(ctx, fmt.Sprintf("%s/%s/photos", graphBaseURL, cred.AccountID), params); err != nil {
			return "", err
		}
		return "image_success", nil

	default:
		params := url.Values{}
		params.Set("message", post.Message)
		params.Set("access_token", cred.AccessToken)
		if err := f.post(ctx, fmt.Sprintf("%s/%s/feed", graphBaseURL, cred.AccountID), params); err != nil {
			return "", err
		}
		return "text_success", nil
	}
}

// FetchMetrics reads page impressions and total actions from the page
// insights edge.
func (f *Facebook) FetchMetrics(ctx context.Context, cred Credential) (MetricsResult, error) {
	endpoint := fmt.Sprintf("%s/%s/insights?metric=page_impressions,page_total_actions&access_token=%s",
		graphBaseURL, cred.AccountID, url.QueryEscape(cred.AccessToken))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return MetricsResult{}, err
	}
	resp, err := f.client.Do(req)
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
			Name   string `json:"name"`
			Values []struct {
				Value int64 `json:"value"`
			} `json:"values"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return MetricsResult{}, fmt.Errorf("decode insights response: %w", err)
	}

	metrics := MetricsResult{Platform: f.Name()}
	for _, d := range payload.Data {
		if len(d.Values) == 0 {
			continue
		}
		switch d.Name {
		case "page_impressions":
			metrics.Views = d.Values[0].Value
		case "page_total_actions":
			metrics.Clicks = d.Values[0].Value
		}
	}
	return metrics, nil
}

func (f *Facebook) post(ctx context.Context, endpoint string, params url.Values) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(params.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := f.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return &StatusError{Code: resp.StatusCode, Body: string(body)}
	}
	return nil
}
