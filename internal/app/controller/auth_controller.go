package controller

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/onebite/onebite-backend/internal/app/model"
	"github.com/onebite/onebite-backend/internal/app/service"
	apperrors "github.com/onebite/onebite-backend/internal/errors"
	"github.com/onebite/onebite-backend/internal/middleware"
	"github.com/onebite/onebite-backend/pkg/oauth"
)

type AuthController struct {
	authService service.AuthService
}

func NewAuthController(authService service.AuthService) *AuthController {
	return &AuthController{
		authService: authService,
	}
}

type CodeLoginRequest struct {
	Code string `json:"code" binding:"required"`
}

type NaverLoginRequest struct {
	Code  string `json:"code" binding:"required"`
	State string `json:"state" binding:"required"`
}

type AppleLoginRequest struct {
	IDToken string `json:"id_token" binding:"required"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

type UserResponse struct {
	ID              uint               `json:"id"`
	Provider        model.AuthProvider `json:"provider"`
	Nickname        string             `json:"nickname"`
	ProfileImageURL string             `json:"profile_image_url,omitempty"`
	CreatedAt       time.Time          `json:"created_at"`
}

type AuthResponse struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	User         UserResponse `json:"user"`
	IsNewUser    bool         `json:"is_new_user"`
}

func toUserResponse(user *model.User) UserResponse {
	return UserResponse{
		ID:              user.ID,
		Provider:        user.Provider,
		Nickname:        user.Nickname,
		ProfileImageURL: user.ProfileImageURL,
		CreatedAt:       user.CreatedAt,
	}
}

// LoginKakao handles Kakao social login
// POST /api/auth/kakao
func (ctrl *AuthController) LoginKakao(c *gin.Context) {
	var req CodeLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationRequired, "인가 코드가 필요합니다")
		return
	}

	result, err := ctrl.authService.LoginWithKakao(c.Request.Context(), req.Code)
	ctrl.respondLogin(c, "kakao", result, err)
}

// LoginNaver handles Naver social login
// POST /api/auth/naver
func (ctrl *AuthController) LoginNaver(c *gin.Context) {
	var req NaverLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationRequired, "인가 코드와 state가 필요합니다")
		return
	}

	result, err := ctrl.authService.LoginWithNaver(c.Request.Context(), req.Code, req.State)
	ctrl.respondLogin(c, "naver", result, err)
}

// LoginGoogle handles Google social login
// POST /api/auth/google
func (ctrl *AuthController) LoginGoogle(c *gin.Context) {
	var req CodeLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationRequired, "인가 코드가 필요합니다")
		return
	}

	result, err := ctrl.authService.LoginWithGoogle(c.Request.Context(), req.Code)
	ctrl.respondLogin(c, "google", result, err)
}

// LoginApple handles Apple social login
// POST /api/auth/apple
func (ctrl *AuthController) LoginApple(c *gin.Context) {
	var req AppleLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationRequired, "identity token이 필요합니다")
		return
	}

	result, err := ctrl.authService.LoginWithApple(c.Request.Context(), req.IDToken)
	ctrl.respondLogin(c, "apple", result, err)
}

func (ctrl *AuthController) respondLogin(c *gin.Context, provider string, result *service.LoginResult, err error) {
	log := middleware.GetLoggerFromContext(c)

	if err != nil {
		switch {
		case errors.Is(err, oauth.ErrTokenExchange), errors.Is(err, oauth.ErrInvalidIDToken):
			log.Warn("Social login rejected by provider", map[string]interface{}{
				"provider": provider,
			})
			apperrors.RespondWithError(c, http.StatusUnauthorized, apperrors.AuthInvalidCode, "소셜 로그인 인증에 실패했습니다")
			return
		case errors.Is(err, oauth.ErrUserInfoFetch), errors.Is(err, oauth.ErrNetworkError):
			log.Error("Provider communication failed", err, map[string]interface{}{
				"provider": provider,
			})
			apperrors.RespondWithError(c, http.StatusInternalServerError, apperrors.InternalExternalAPI, "소셜 로그인 처리 중 오류가 발생했습니다")
			return
		default:
			log.Error("Social login failed", err, map[string]interface{}{
				"provider": provider,
			})
			apperrors.ParseAndRespond(c, http.StatusInternalServerError, err, "로그인")
			return
		}
	}

	log.Info("Social login successful", map[string]interface{}{
		"provider":    provider,
		"user_id":     result.User.ID,
		"is_new_user": result.IsNewUser,
	})

	c.JSON(http.StatusOK, AuthResponse{
		AccessToken:  result.TokenPair.AccessToken,
		RefreshToken: result.TokenPair.RefreshToken,
		User:         toUserResponse(result.User),
		IsNewUser:    result.IsNewUser,
	})
}

// Refresh issues a new token pair from a refresh token
// POST /api/auth/refresh
func (ctrl *AuthController) Refresh(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationRequired, "리프레시 토큰이 필요합니다")
		return
	}

	tokenPair, err := ctrl.authService.RefreshToken(c.Request.Context(), req.RefreshToken)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidRefreshToken):
			apperrors.RespondWithError(c, http.StatusUnauthorized, apperrors.AuthTokenInvalid, "유효하지 않은 리프레시 토큰입니다")
			return
		case errors.Is(err, service.ErrTokenRevoked):
			apperrors.RespondWithError(c, http.StatusUnauthorized, apperrors.AuthTokenRevoked, "로그아웃된 토큰입니다")
			return
		case errors.Is(err, service.ErrUserNotFound):
			apperrors.NotFound(c, apperrors.UserNotFound, "사용자를 찾을 수 없습니다")
			return
		default:
			log.Error("Failed to refresh token", err, nil)
			apperrors.InternalError(c, "토큰 갱신에 실패했습니다")
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"access_token":  tokenPair.AccessToken,
		"refresh_token": tokenPair.RefreshToken,
	})
}

// Logout blacklists the current access token
// POST /api/auth/logout
func (ctrl *AuthController) Logout(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	authHeader := c.GetHeader("Authorization")
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		apperrors.Unauthorized(c, "로그인이 필요합니다")
		return
	}

	if err := ctrl.authService.Logout(c.Request.Context(), parts[1]); err != nil {
		log.Error("Failed to logout", err, nil)
		apperrors.InternalError(c, "로그아웃에 실패했습니다")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "로그아웃되었습니다",
	})
}

// GetMe returns the current user's profile
// GET /api/auth/me
func (ctrl *AuthController) GetMe(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, exists := middleware.GetUserID(c)
	if !exists {
		apperrors.Unauthorized(c, "로그인이 필요합니다")
		return
	}

	user, err := ctrl.authService.GetUserByID(userID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			apperrors.NotFound(c, apperrors.UserNotFound, "사용자를 찾을 수 없습니다")
			return
		}
		log.Error("Failed to fetch user", err, map[string]interface{}{
			"user_id": userID,
		})
		apperrors.InternalError(c, "사용자 조회에 실패했습니다")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user": toUserResponse(user),
	})
}
