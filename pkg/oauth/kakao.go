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

// KakaoClient 카카오 로그인 API 클라이언트
type KakaoClient struct {
	clientID    string
	redirectURI string
	authURL     string // 토큰 발급 엔드포인트
	apiURL      string // 유저 정보 엔드포인트
	httpClient  *http.Client
}

func NewKakaoClient(clientID, redirectURI string) *KakaoClient {
	return &KakaoClient{
		clientID:    clientID,
		redirectURI: redirectURI,
		authURL:     "https://kauth.kakao.com/oauth/token",
		apiURL:      "https://kapi.kakao.com/v2/user/me",
		httpClient:  newHTTPClient(),
	}
}

// Login exchanges the authorization code and fetches the Kakao profile
func (c *KakaoClient) Login(ctx context.Context, code string) (*UserInfo, error) {
	accessToken, err := c.getAccessToken(ctx, code)
	if err != nil {
		return nil, err
	}
	return c.getUserInfo(ctx, accessToken)
}

// getAccessToken 카카오 인가코드로 액세스 토큰 받기
func (c *KakaoClient) getAccessToken(ctx context.Context, code string) (string, error) {
	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("client_id", c.clientID)
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

// getUserInfo 액세스 토큰으로 유저 정보 가져오기
func (c *KakaoClient) getUserInfo(ctx context.Context, accessToken string) (*UserInfo, error) {
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
		ID         json.Number `json:"id"`
		Properties struct {
			Nickname     string `json:"nickname"`
			ProfileImage string `json:"profile_image"`
		} `json:"properties"`
	}
	if err := json.Unmarshal(body, &userResp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal user info response: %w", err)
	}
	if userResp.ID.String() == "" {
		return nil, ErrUserInfoFetch
	}

	nickname := userResp.Properties.Nickname
	if nickname == "" {
		nickname = defaultNickname
	}

	return &UserInfo{
		ID:              userResp.ID.String(),
		Nickname:        nickname,
		ProfileImageURL: userResp.Properties.ProfileImage,
	}, nil
}
