package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// GoogleClient Google 로그인 API 클라이언트
type GoogleClient struct {
	clientID     string
	clientSecret string
	redirectURI  string
	authURL      string
	apiURL       string
	httpClient   *http.Client
}

func NewGoogleClient(clientID, clientSecret, redirectURI string) *GoogleClient {
	return &GoogleClient{
		clientID:     clientID,
		clientSecret: clientSecret,
		redirectURI:  redirectURI,
		authURL:      "https://oauth2.googleapis.com/token",
		apiURL:       "https://www.googleapis.com/oauth2/v2/userinfo",
		httpClient:   newHTTPClient(),
	}
}

// Login exchanges the authorization code and fetches the Google profile
func (c *GoogleClient) Login(ctx context.Context, code string) (*UserInfo, error) {
	accessToken, err := c.getAccessToken(ctx, code)
	if err != nil {
		return nil, err
	}
	return c.getUserInfo(ctx, accessToken)
}

func (c *GoogleClient) getAccessToken(ctx context.Context, code string) (string, error) {
	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("client_id", c.clientID)
	form.Set("client_secret", c.clientSecret)
	form.Set("redirect_uri", c.redirectURI)
	form.Set("code", code)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.authURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("failed to create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNetworkError, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read token response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: status %d, body %s", ErrTokenExchange, resp.StatusCode, string(body))
	}

	var tokenResp struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.Unmarshal(body, &tokenResp); err != nil {
		return "", fmt.Errorf("failed to unmarshal token response: %w", err)
	}
	if tokenResp.AccessToken == "" {
		return "", ErrTokenExchange
	}

	return tokenResp.AccessToken, nil
}

func (c *GoogleClient) getUserInfo(ctx context.Context, accessToken string) (*UserInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apiURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create user info request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNetworkError, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read user info response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d, body %s", ErrUserInfoFetch, resp.StatusCode, string(body))
	}

	var userResp struct {
		ID      string `json:"id"`
		Name    string `json:"name"`
		Picture string `json:"picture"`
	}
	if err := json.Unmarshal(body, &userResp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal user info response: %w", err)
	}
	if userResp.ID == "" {
		return nil, ErrUserInfoFetch
	}

	nickname := userResp.Name
	if nickname == "" {
		nickname = defaultNickname
	}

	return &UserInfo{
		ID:              userResp.ID,
		Nickname:        nickname,
		ProfileImageURL: userResp.Picture,
	}, nil
}
