package service

import (
	"context"
	"testing"
	"time"

	"github.com/onebite/onebite-backend/internal/app/model"
	"github.com/onebite/onebite-backend/internal/app/repository"
	"github.com/onebite/onebite-backend/internal/db"
	"github.com/onebite/onebite-backend/pkg/oauth"
	"github.com/onebite/onebite-backend/pkg/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const testJWTSecret = "test-secret"

type stubCodeClient struct {
	info *oauth.UserInfo
	err  error
}

func (s *stubCodeClient) Login(_ context.Context, _ string) (*oauth.UserInfo, error) {
	return s.info, s.err
}

type stubStateClient struct {
	info *oauth.UserInfo
	err  error
}

func (s *stubStateClient) Login(_ context.Context, _, _ string) (*oauth.UserInfo, error) {
	return s.info, s.err
}

func setupAuthServiceTest(t *testing.T, kakaoInfo *oauth.UserInfo, kakaoErr error) (AuthService, *gorm.DB) {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() {
		db.CleanupTestDB(testDB)
	})

	userRepo := repository.NewUserRepository(testDB)
	kakao := &stubCodeClient{info: kakaoInfo, err: kakaoErr}
	naver := &stubStateClient{info: kakaoInfo, err: kakaoErr}
	google := &stubCodeClient{info: kakaoInfo, err: kakaoErr}
	apple := &stubCodeClient{info: kakaoInfo, err: kakaoErr}

	authService := NewAuthService(
		userRepo, kakao, naver, google, apple,
		testJWTSecret, 15*time.Minute, 168*time.Hour,
	)
	return authService, testDB
}

func TestAuthService_LoginWithKakao_FirstLogin(t *testing.T) {
	svc, _ := setupAuthServiceTest(t, &oauth.UserInfo{
		ID:       "kakao-123",
		Nickname: "한입이",
	}, nil)

	result, err := svc.LoginWithKakao(context.Background(), "auth-code")
	require.NoError(t, err)

	assert.True(t, result.IsNewUser)
	assert.NotZero(t, result.User.ID)
	assert.Equal(t, model.ProviderKakao, result.User.Provider)
	assert.Equal(t, "kakao-123", result.User.ProviderID)
	assert.Equal(t, "한입이", result.User.Nickname)
	assert.NotEmpty(t, result.TokenPair.AccessToken)
	assert.NotEmpty(t, result.TokenPair.RefreshToken)
}

func TestAuthService_LoginWithKakao_RepeatLoginIsNotNew(t *testing.T) {
	svc, _ := setupAuthServiceTest(t, &oauth.UserInfo{
		ID:       "kakao-123",
		Nickname: "한입이",
	}, nil)

	first, err := svc.LoginWithKakao(context.Background(), "auth-code")
	require.NoError(t, err)
	require.True(t, first.IsNewUser)

	second, err := svc.LoginWithKakao(context.Background(), "auth-code")
	require.NoError(t, err)

	assert.False(t, second.IsNewUser)
	assert.Equal(t, first.User.ID, second.User.ID)
}

func TestAuthService_Login_SameProviderIDDifferentProvider(t *testing.T) {
	svc, _ := setupAuthServiceTest(t, &oauth.UserInfo{
		ID:       "shared-id",
		Nickname: "한입이",
	}, nil)

	kakaoResult, err := svc.LoginWithKakao(context.Background(), "code")
	require.NoError(t, err)
	googleResult, err := svc.LoginWithGoogle(context.Background(), "code")
	require.NoError(t, err)

	// provider가 다르면 같은 provider_id라도 별개 계정
	assert.True(t, googleResult.IsNewUser)
	assert.NotEqual(t, kakaoResult.User.ID, googleResult.User.ID)
}

func TestAuthService_Login_BlankNicknameGetsFallback(t *testing.T) {
	svc, _ := setupAuthServiceTest(t, &oauth.UserInfo{
		ID: "kakao-456",
	}, nil)

	result, err := svc.LoginWithKakao(context.Background(), "auth-code")
	require.NoError(t, err)
	assert.NotEmpty(t, result.User.Nickname)
}

func TestAuthService_Login_ProviderError(t *testing.T) {
	svc, _ := setupAuthServiceTest(t, nil, oauth.ErrTokenExchange)

	_, err := svc.LoginWithKakao(context.Background(), "bad-code")
	assert.ErrorIs(t, err, oauth.ErrTokenExchange)
}

func TestAuthService_RefreshToken_Success(t *testing.T) {
	svc, _ := setupAuthServiceTest(t, &oauth.UserInfo{
		ID:       "kakao-123",
		Nickname: "한입이",
	}, nil)

	result, err := svc.LoginWithKakao(context.Background(), "auth-code")
	require.NoError(t, err)

	pair, err := svc.RefreshToken(context.Background(), result.TokenPair.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)

	claims, err := util.ValidateToken(pair.AccessToken, testJWTSecret)
	require.NoError(t, err)
	assert.Equal(t, result.User.ID, claims.UserID)
	assert.Equal(t, "access", claims.Type)
}

func TestAuthService_RefreshToken_RejectsAccessToken(t *testing.T) {
	svc, _ := setupAuthServiceTest(t, &oauth.UserInfo{
		ID:       "kakao-123",
		Nickname: "한입이",
	}, nil)

	result, err := svc.LoginWithKakao(context.Background(), "auth-code")
	require.NoError(t, err)

	// 액세스 토큰으로는 갱신 불가
	_, err = svc.RefreshToken(context.Background(), result.TokenPair.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)
}

func TestAuthService_RefreshToken_Garbage(t *testing.T) {
	svc, _ := setupAuthServiceTest(t, nil, nil)

	_, err := svc.RefreshToken(context.Background(), "not-a-token")
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)
}

func TestAuthService_GetUserByID(t *testing.T) {
	svc, testDB := setupAuthServiceTest(t, nil, nil)

	user := &model.User{
		Provider:   model.ProviderGoogle,
		ProviderID: "g-1",
		Nickname:   "구글유저",
	}
	require.NoError(t, testDB.Create(user).Error)

	found, err := svc.GetUserByID(user.ID)
	require.NoError(t, err)
	assert.Equal(t, "구글유저", found.Nickname)

	_, err = svc.GetUserByID(9999)
	assert.ErrorIs(t, err, ErrUserNotFound)
}
