package platform

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

type Instagram struct {
	client *http.Client
}

func NewInstagram(client *http.Client) *Instagram {
	if client == nil {
		client = defaultClient()
	}
	return &Instagram{client: client}
}

func (ig *Instagram) Name() string { return "instagram" }

// Publish runs the Graph API two-step sequence: create a media container,
// then publish it. Instagram requires media; a text-only payload is a
// terminal failure.
func (ig *Instagram) Publish(ctx context.Context, cred Credential, post PostPayload) (string, error) {
	params := url.Values{}
	params.Set("caption", post.Message)
	params.Set("access_token", cred.AccessToken)

	switch {
	case post.VideoURL != "":
		params.Set("media_type", "VIDEO")
		params.Set("video_url", post.VideoURL)
	case post.ImageURL != "":
		params.Set("image_url", post.ImageURL)
	default:
		return "", errors.New("no image or video url for instagram post")
	}

	containerID, err := ig.createContainer(ctx, cred, params)
	if err != nil {
		return "", err
	}

	pubParams := url.Values{}
	pubParams.Set("creation_id", containerID)
	pubParams.Set("access_token", cred.AccessToken)
	endpoint := fmt.Sprintf("%s/%s/media_publish", graphBaseURL, cred.AccountID)
	if err := ig.post(ctx, endpoint, pubParams, nil); err != nil {
		return "", err
	}

	return "success", nil
}

// FetchMetrics reads account impressions. The insights edge reports no
// click metric for Instagram, so clicks stay zero.
func (ig *Instagram) FetchMetrics(ctx context.Context, cred Credential) (MetricsResult, error) {
	endpoint := fmt.Sprintf("%s/%s/insights?metric=impressions,reach&access_token=%s",
		graphBaseURL, cred.AccountID, url.QueryEscape(cred.AccessToken))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return MetricsResult{}, err
	}
	resp, err := ig.client.Do(req)
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

	metrics := MetricsResult{Platform: ig.Name()}
	for _, d := range payload.Data {
		if d.Name == "impressions" && len(d.Values) > 0 {
			metrics.Views = d.Values[0].Value
		}
	}
	return metrics, nil
}

func (ig *Instagram) createContainer(ctx context.Context, cred Credential, params url.Values) (string, error) {
	var result struct {
		ID string `json:"id"`
	}
	endpoint := fmt.Sprintf("%s/%s/media", graphBaseURL, cred.AccountID)
	if err := ig.post(ctx, endpoint, params, &result); err != nil {
		return "", err
	}
	if result.ID == "" {
		return "", errors.New("instagram returned no container id")
	}
	return result.ID, nil
}

func (ig *Instagram) post(ctx context.Context, endpoint string, params url.Values, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(params.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := ig.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return &StatusError{Code: resp.StatusCode, Body: string(body)}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}
