package platform

import (
	"context"
	"net/http"
	"os"
	"strings"

	"golang.org/x/oauth2"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"
)

const youtubeMaxResults = 20

type YouTube struct {
	client *http.Client
}

func NewYouTube(client *http.Client) *YouTube {
	if client == nil {
		client = defaultClient()
	}
	return &YouTube{client: client}
}

func (y *YouTube) Name() string { return "youtube" }

// Publish uploads the payload video. YouTube has nothing to publish
// without one; that case is recorded as the "no_video" skip, not a
// failure.
func (y *YouTube) Publish(ctx context.Context, cred Credential, post PostPayload) (string, error) {
	if post.VideoURL == "" {
		return "no_video", nil
	}

	service, err := y.service(ctx, cred)
	if err != nil {
		return "", err
	}

	path, cleanup, err := downloadToTemp(ctx, y.client, post.VideoURL, "yt-video-*.mp4")
	if err != nil {
		return "", err
	}
	defer cleanup()

	file, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer file.Close()

	video := &youtube.Video{
		Snippet: &youtube.VideoSnippet{
			Title:       post.Title,
			Description: post.Message,
			CategoryId:  "22",
		},
		Status: &youtube.VideoStatus{PrivacyStatus: "public"},
	}

	call := service.Videos.Insert([]string{"snippet", "status"}, video)
	if _, err := call.Media(file).Do(); err != nil {
		return "", wrapGoogleError(err)
	}

	return "video_success", nil
}

// FetchMetrics lists the channel's 20 most recent uploads, then pulls
// their statistics in one videos.list call.
func (y *YouTube) FetchMetrics(ctx context.Context, cred Credential) (MetricsResult, error) {
	service, err := y.service(ctx, cred)
	if err != nil {
		return MetricsResult{}, err
	}

	search, err := service.Search.List([]string{"id"}).
		ChannelId(cred.AccountID).
		MaxResults(youtubeMaxResults).
		Order("date").
		Type("video").
		Context(ctx).
		Do()
	if err != nil {
		return MetricsResult{}, wrapGoogleError(err)
	}

	var ids []string
	for _, item := range search.Items {
		if item.Id != nil && item.Id.VideoId != "" {
			ids = append(ids, item.Id.VideoId)
		}
	}
	metrics := MetricsResult{Platform: y.Name()}
	if len(ids) == 0 {
		return metrics, nil
	}

	videos, err := service.Videos.List([]string{"statistics"}).
		Id(strings.Join(ids, ",")).
		Context(ctx).
		Do()
	if err != nil {
		return MetricsResult{}, wrapGoogleError(err)
	}

	for _, v := range videos.Items {
		if v.Statistics == nil {
			continue
		}
		metrics.Views += int64(v.Statistics.ViewCount)
	}
	return metrics, nil
}

func (y *YouTube) service(ctx context.Context, cred Credential) (*youtube.Service, error) {
	token := &oauth2.Token{AccessToken: cred.AccessToken}
	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(token))
	client.Timeout = callTimeout
	return youtube.NewService(ctx, option.WithHTTPClient(client))
}

// wrapGoogleError converts googleapi errors to StatusError so the retry
// predicate can classify them without knowing about the YouTube client.
func wrapGoogleError(err error) error {
	if gerr, ok := err.(*googleapi.Error); ok {
		return &StatusError{Code: gerr.Code, Body: gerr.Message}
	}
	return err
}
