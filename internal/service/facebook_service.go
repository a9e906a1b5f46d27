package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	config "github.com/publora/publora/configs"
	"github.com/publora/publora/internal/models"
	"github.com/publora/publora/internal/repository"
	"github.com/publora/publora/pkg/utils"
)

type FacebookService interface {
	FacebookCallback(ctx context.Context, code string, userID int64) error
}

type facebookService struct {
	cfg config.Config
	sa  repository.SocialAccountRepository
}

func NewFacebookService(cfg config.Config, sa repository.SocialAccountRepository) FacebookService {
	return &facebookService{
		cfg: cfg,
		sa:  sa,
	}
}

// FacebookCallback exchanges the OAuth code for a long-lived user token
// and connects every page the user manages as a separate account. Posting
// and insights both run against page tokens, so those are what get stored.
func (fb *facebookService) FacebookCallback(ctx context.Context, code string, userID int64) error {
	var err error

	if code == "" {
		err = errors.New("code or state is empty")
		slog.Info(err.Error())
		return err
	}

	if userID == 0 {
		err = errors.New("User not found")
		slog.Info(err.Error())
		return err
	}

	userToken, err := fb.exchangeCodeForToken(code)
	if err != nil {
		return err
	}

	longLivedToken, expiresAt, err := fb.getLongLivedToken(userToken)
	if err != nil {
		return err
	}

	pages, err := fb.listPages(longLivedToken)
	if err != nil {
		return err
	}

	if len(pages) == 0 {
		err = errors.New("no Facebook pages available for this account")
		slog.Info(err.Error())
		return err
	}

	for _, page := range pages {
		encryptedPageToken, err := utils.Encrypt([]byte(page.AccessToken), []byte(fb.cfg.SecretKey))
		if err != nil {
			return err
		}

		accountInfo := &models.SocialAccount{
			UserID:          userID,
			Platform:        "facebook",
			AccountID:       page.ID,
			AccountName:     page.Name,
			AccountUsername: page.Name,
			AccessToken:     encryptedPageToken,
			RefreshToken:    encryptedPageToken,
			TokenExpiresAt:  expiresAt,
		}

		if _, err := fb.sa.Create(ctx, nil, accountInfo); err != nil {
			return err
		}
	}

	return nil
}

func (fb *facebookService) exchangeCodeForToken(code string) (string, error) {
	params := url.Values{}
	params.Set("client_id", fb.cfg.FacebookClientID)
	params.Set("client_secret", fb.cfg.FacebookClientSecret)
	params.Set("redirect_uri", fb.cfg.FacebookRedirectURI)
	params.Set("code", code)

	reqURL := fmt.Sprintf("https://graph.facebook.com/v23.0/oauth/access_token?%s", params.Encode())

	resp, err := http.Get(reqURL)
	if err != nil {
		slog.Info(err.Error())
		return "", fmt.Errorf("failed to exchange code: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("error response from Facebook: %s (status code: %d)", body, resp.StatusCode)
	}

	var result struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		slog.Info(err.Error())
		return "", fmt.Errorf("failed to decode token response: %v", err)
	}

	return result.AccessToken, nil
}

func (fb *facebookService) getLongLivedToken(userToken string) (string, time.Time, error) {
	params := url.Values{}
	params.Set("grant_type", "fb_exchange_token")
	params.Set("client_id", fb.cfg.FacebookClientID)
	params.Set("client_secret", fb.cfg.FacebookClientSecret)
	params.Set("fb_exchange_token", userToken)

	reqURL := fmt.Sprintf("https://graph.facebook.com/v23.0/oauth/access_token?%s", params.Encode())

	resp, err := http.Get(reqURL)
	if err != nil {
		slog.Info(err.Error())
		return "", time.Time{}, fmt.Errorf("failed to get long-lived token: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", time.Time{}, fmt.Errorf("error response from Facebook: %s (status code: %d)", body, resp.StatusCode)
	}

	var result struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int64  `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		slog.Info(err.Error())
		return "", time.Time{}, fmt.Errorf("failed to decode long-lived token response: %v", err)
	}

	return result.AccessToken, time.Now().Add(time.Second * time.Duration(result.ExpiresIn)), nil
}

type facebookPage struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	AccessToken string `json:"access_token"`
}

func (fb *facebookService) listPages(userToken string) ([]facebookPage, error) {
	reqURL := fmt.Sprintf("https://graph.facebook.com/v23.0/me/accounts?access_token=%s", url.QueryEscape(userToken))

	resp, err := http.Get(reqURL)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("error response from Facebook: %s (status code: %d)", body, resp.StatusCode)
	}

	var result struct {
		Data []facebookPage `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	return result.Data, nil
}
