// Package oauth implements the social login provider clients (Kakao, Naver,
// Google, Apple). Every provider normalizes its user payload into UserInfo so
// the auth service never sees provider-specific shapes.
package oauth

import (
	"errors"
	"net/http"
	"time"
)

// UserInfo 모든 소셜 로그인 provider가 공통으로 반환하는 유저 정보
type UserInfo struct {
	ID              string // provider가 발급한 고유 ID
	Nickname        string
	ProfileImageURL string
}

var (
	ErrTokenExchange  = errors.New("failed to exchange authorization code for access token")
	ErrUserInfoFetch  = errors.New("failed to fetch user info from provider")
	ErrInvalidIDToken = errors.New("invalid identity token")
	ErrNetworkError   = errors.New("network error")
)

const defaultNickname = "한입유저"

// newHTTPClient creates the HTTP client shared by provider calls
func newHTTPClient() *http.Client {
	return &http.Client{
		Timeout: 10 * time.Second,
	}
}
