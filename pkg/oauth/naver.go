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

// NaverClient 네이버 로그인 API 클라이언트
type NaverClient struct {
	clientID     string
	clientSecret string
	authURL      string
	apiURL       string
	httpClient   *http.Client
}

func NewNaverClient(clientID, clientSecret string) *NaverClient {
	return &NaverClient{
		clientID:     clientID,
		clientSecret: clientSecret,
		authURL:      "https://nid.naver.com/oauth2.0/token",
		apiURL:       "https://openapi.naver.com/v1/nid/me",
		httpClient:   newHTTPClient(),
	}
}

// Login exchanges the authorization code (with CSRF state) and fetches the Naver profile
func (c *NaverClient) Login(ctx context.Context, code, state string) (*UserInfo, error) {
	accessToken, err := c.getAccessToken(ctx, code, state)
	if err != nil {
		return nil, err
	}
	return c.getUserInfo(ctx, accessToken)
}

func (c *NaverClient) getAccessToken(ctx context.Context, code, state string) (string, error) {
	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("client_id", c.clientID)
	form.Set("client_secret", c.clientSecret)
	form.Set("code", code)
	form.Set("state", state)

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

func (c *NaverClient) getUserInfo(ctx context.Context, accessToken string) (*UserInfo, error) {
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

	// 네이버는 실제 프로필을 response 필드 아래에 감싸서 내려준다
	var userResp struct {
		Response struct {
			ID           string `json:"id"`
			Nickname     string `json:"nickname"`
			ProfileImage string `json:"profile_image"`
		} `json:"response"`
	}
	if err := json.Unmarshal(body, &userResp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal user info response: %w", err)
	}
	if userResp.Response.ID == "" {
		return nil, ErrUserInfoFetch
	}

	nickname := userResp.Response.Nickname
	if nickname == "" {
		nickname = defaultNickname
	}

	return &UserInfo{
		ID:              userResp.Response.ID,
		Nickname:        nickname,
		ProfileImageURL: userResp.Response.ProfileImage,
	}, nil
}
