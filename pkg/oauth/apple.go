package oauth

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
)

const appleIssuer = "https://appleid.apple.com"

// AppleClient Apple 로그인 클라이언트
// Sign in with Apple은 클라이언트가 직접 Apple로부터 id_token을 받아서
// 서버에 전달하는 방식이라 토큰 교환 왕복이 없다.
type AppleClient struct {
	clientID string
}

func NewAppleClient(clientID string) *AppleClient {
	return &AppleClient{clientID: clientID}
}

// Login verifies the id_token claims and extracts the Apple user identity
func (c *AppleClient) Login(_ context.Context, idToken string) (*UserInfo, error) {
	claims, err := decodeIDTokenPayload(idToken)
	if err != nil {
		return nil, err
	}

	if claims.Issuer != appleIssuer {
		return nil, fmt.Errorf("%w: unexpected issuer %q", ErrInvalidIDToken, claims.Issuer)
	}
	if claims.Audience != c.clientID {
		return nil, fmt.Errorf("%w: unexpected audience %q", ErrInvalidIDToken, claims.Audience)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing sub claim", ErrInvalidIDToken)
	}

	// Apple은 닉네임과 프로필 이미지를 제공하지 않으므로 이메일 앞부분을 사용
	nickname := defaultNickname
	if claims.Email != "" {
		nickname = strings.SplitN(claims.Email, "@", 2)[0]
	}

	return &UserInfo{
		ID:       claims.Subject,
		Nickname: nickname,
	}, nil
}

type appleIDTokenClaims struct {
	Issuer   string `json:"iss"`
	Audience string `json:"aud"`
	Subject  string `json:"sub"`
	Email    string `json:"email"`
}

func decodeIDTokenPayload(idToken string) (*appleIDTokenClaims, error) {
	parts := strings.Split(idToken, ".")
	if len(parts) != 3 {
		return nil, fmt.Errorf("%w: token is not a JWT", ErrInvalidIDToken)
	}

	payload, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidIDToken, err)
	}

	var claims appleIDTokenClaims
	if err := json.Unmarshal(payload, &claims); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidIDToken, err)
	}

	return &claims, nil
}
