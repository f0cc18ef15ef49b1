package service

import (
	"context"
	"errors"
	"time"

	"github.com/onebite/onebite-backend/internal/app/model"
	"github.com/onebite/onebite-backend/internal/app/repository"
	"github.com/onebite/onebite-backend/pkg/logger"
	"github.com/onebite/onebite-backend/pkg/oauth"
	"github.com/onebite/onebite-backend/pkg/redis"
	"github.com/onebite/onebite-backend/pkg/util"
)

var (
	ErrUserNotFound        = errors.New("user not found")
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
	ErrTokenRevoked        = errors.New("token has been revoked")
)

// CodeLoginClient 인가 코드를 받아 로그인하는 소셜 클라이언트 (카카오/구글)
type CodeLoginClient interface {
	Login(ctx context.Context, code string) (*oauth.UserInfo, error)
}

// StateLoginClient CSRF state 검증이 필요한 소셜 클라이언트 (네이버)
type StateLoginClient interface {
	Login(ctx context.Context, code, state string) (*oauth.UserInfo, error)
}

// TokenLoginClient identity token을 직접 받는 소셜 클라이언트 (애플)
type TokenLoginClient interface {
	Login(ctx context.Context, idToken string) (*oauth.UserInfo, error)
}

// LoginResult 소셜 로그인 결과. IsNewUser는 이번 로그인으로
// 계정이 처음 생성됐을 때만 true가 된다.
type LoginResult struct {
	TokenPair *util.TokenPair
	User      *model.User
	IsNewUser bool
}

type AuthService interface {
	LoginWithKakao(ctx context.Context, code string) (*LoginResult, error)
	LoginWithNaver(ctx context.Context, code, state string) (*LoginResult, error)
	LoginWithGoogle(ctx context.Context, code string) (*LoginResult, error)
	LoginWithApple(ctx context.Context, idToken string) (*LoginResult, error)
	RefreshToken(ctx context.Context, refreshToken string) (*util.TokenPair, error)
	Logout(ctx context.Context, accessToken string) error
	GetUserByID(id uint) (*model.User, error)
}

type authService struct {
	userRepo      repository.UserRepository
	kakaoClient   CodeLoginClient
	naverClient   StateLoginClient
	googleClient  CodeLoginClient
	appleClient   TokenLoginClient
	jwtSecret     string
	accessExpiry  time.Duration
	refreshExpiry time.Duration
}

func NewAuthService(
	userRepo repository.UserRepository,
	kakaoClient CodeLoginClient,
	naverClient StateLoginClient,
	googleClient CodeLoginClient,
	appleClient TokenLoginClient,
	jwtSecret string,
	accessExpiry, refreshExpiry time.Duration,
) AuthService {
	return &authService{
		userRepo:      userRepo,
		kakaoClient:   kakaoClient,
		naverClient:   naverClient,
		googleClient:  googleClient,
		appleClient:   appleClient,
		jwtSecret:     jwtSecret,
		accessExpiry:  accessExpiry,
		refreshExpiry: refreshExpiry,
	}
}

func (s *authService) LoginWithKakao(ctx context.Context, code string) (*LoginResult, error) {
	info, err := s.kakaoClient.Login(ctx, code)
	if err != nil {
		logger.Error("Kakao login failed", err, nil)
		return nil, err
	}
	return s.loginOrRegister(model.ProviderKakao, info)
}

func (s *authService) LoginWithNaver(ctx context.Context, code, state string) (*LoginResult, error) {
	info, err := s.naverClient.Login(ctx, code, state)
	if err != nil {
		logger.Error("Naver login failed", err, nil)
		return nil, err
	}
	return s.loginOrRegister(model.ProviderNaver, info)
}

func (s *authService) LoginWithGoogle(ctx context.Context, code string) (*LoginResult, error) {
	info, err := s.googleClient.Login(ctx, code)
	if err != nil {
		logger.Error("Google login failed", err, nil)
		return nil, err
	}
	return s.loginOrRegister(model.ProviderGoogle, info)
}

func (s *authService) LoginWithApple(ctx context.Context, idToken string) (*LoginResult, error) {
	info, err := s.appleClient.Login(ctx, idToken)
	if err != nil {
		logger.Error("Apple login failed", err, nil)
		return nil, err
	}
	return s.loginOrRegister(model.ProviderApple, info)
}

// loginOrRegister finds the account for (provider, providerID) or creates
// one on first login. The created flag from the repository is the single
// source of truth for IsNewUser.
func (s *authService) loginOrRegister(provider model.AuthProvider, info *oauth.UserInfo) (*LoginResult, error) {
	nickname := info.Nickname
	if nickname == "" {
		nickname = util.RandomNickname()
	}

	user := &model.User{
		Provider:        provider,
		ProviderID:      info.ID,
		Nickname:        nickname,
		ProfileImageURL: info.ProfileImageURL,
	}

	found, created, err := s.userRepo.FindOrCreate(user)
	if err != nil {
		logger.Error("Failed to find or create user", err, map[string]interface{}{
			"provider": provider,
		})
		return nil, err
	}

	tokenPair, err := util.GenerateTokenPair(
		found.ID, found.Nickname, string(found.Provider),
		s.jwtSecret, s.accessExpiry, s.refreshExpiry,
	)
	if err != nil {
		logger.Error("Failed to generate token pair", err, map[string]interface{}{
			"user_id": found.ID,
		})
		return nil, err
	}

	logger.Info("Social login processed", map[string]interface{}{
		"user_id":     found.ID,
		"provider":    provider,
		"is_new_user": created,
	})

	return &LoginResult{
		TokenPair: tokenPair,
		User:      found,
		IsNewUser: created,
	}, nil
}

func (s *authService) RefreshToken(ctx context.Context, refreshToken string) (*util.TokenPair, error) {
	claims, err := util.ValidateToken(refreshToken, s.jwtSecret)
	if err != nil {
		logger.Warn("Refresh failed: token validation error", map[string]interface{}{
			"error": err.Error(),
		})
		return nil, ErrInvalidRefreshToken
	}

	if claims.Type != "refresh" {
		logger.Warn("Refresh failed: not a refresh token", map[string]interface{}{
			"token_type": claims.Type,
		})
		return nil, ErrInvalidRefreshToken
	}

	blacklisted, err := redis.IsTokenBlacklisted(ctx, refreshToken)
	if err != nil {
		logger.Error("Failed to check token blacklist", err, nil)
	} else if blacklisted {
		return nil, ErrTokenRevoked
	}

	user, err := s.userRepo.FindByID(claims.UserID)
	if err != nil {
		return nil, ErrUserNotFound
	}

	tokenPair, err := util.GenerateTokenPair(
		user.ID, user.Nickname, string(user.Provider),
		s.jwtSecret, s.accessExpiry, s.refreshExpiry,
	)
	if err != nil {
		return nil, err
	}

	logger.Info("Token pair refreshed", map[string]interface{}{
		"user_id": user.ID,
	})
	return tokenPair, nil
}

// Logout blacklists the access token for its remaining lifetime. An already
// expired token needs no blacklisting, so it is not an error.
func (s *authService) Logout(ctx context.Context, accessToken string) error {
	claims, err := util.ValidateToken(accessToken, s.jwtSecret)
	if err != nil {
		if errors.Is(err, util.ErrExpiredToken) {
			return nil
		}
		return err
	}

	ttl := util.TokenRemainingTTL(claims)
	if ttl <= 0 {
		return nil
	}

	if err := redis.BlacklistToken(ctx, accessToken, ttl); err != nil {
		logger.Error("Failed to blacklist token", err, map[string]interface{}{
			"user_id": claims.UserID,
		})
		return err
	}

	logger.Info("User logged out", map[string]interface{}{
		"user_id": claims.UserID,
	})
	return nil
}

func (s *authService) GetUserByID(id uint) (*model.User, error) {
	user, err := s.userRepo.FindByID(id)
	if err != nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}
