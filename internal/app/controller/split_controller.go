package controller

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/onebite/onebite-backend/internal/app/model"
	"github.com/onebite/onebite-backend/internal/app/service"
	apperrors "github.com/onebite/onebite-backend/internal/errors"
	"github.com/onebite/onebite-backend/internal/middleware"
	"github.com/onebite/onebite-backend/pkg/util"
)

type SplitController struct {
	splitService    service.SplitService
	defaultRadiusKm float64
}

func NewSplitController(splitService service.SplitService, defaultRadiusKm float64) *SplitController {
	return &SplitController{
		splitService:    splitService,
		defaultRadiusKm: defaultRadiusKm,
	}
}

type CreateSplitRequest struct {
	ProductName string  `json:"product_name" binding:"required"`
	TotalPrice  int     `json:"total_price" binding:"required,gt=0"`
	TotalQty    int     `json:"total_qty" binding:"required,gt=0"`
	SplitCount  int     `json:"split_count" binding:"required,gte=2"`
	ImageURL    string  `json:"image_url"`
	Latitude    float64 `json:"latitude" binding:"gte=-90,lte=90"`
	Longitude   float64 `json:"longitude" binding:"gte=-180,lte=180"`
	Address     string  `json:"address" binding:"required"`
}

type UserSummary struct {
	ID              uint   `json:"id"`
	Nickname        string `json:"nickname"`
	ProfileImageURL string `json:"profile_image_url,omitempty"`
}

type ParticipantResponse struct {
	UserID          uint      `json:"user_id"`
	Nickname        string    `json:"nickname"`
	ProfileImageURL string    `json:"profile_image_url,omitempty"`
	JoinedAt        time.Time `json:"joined_at"`
}

type SplitResponse struct {
	ID             uint                  `json:"id"`
	Author         UserSummary           `json:"author"`
	ProductName    string                `json:"product_name"`
	TotalPrice     int                   `json:"total_price"`
	TotalQty       int                   `json:"total_qty"`
	SplitCount     int                   `json:"split_count"`
	PricePerPerson int                   `json:"price_per_person"`
	QtyPerPerson   int                   `json:"qty_per_person"`
	CurrentMembers int                   `json:"current_members"`
	ImageURL       string                `json:"image_url,omitempty"`
	Latitude       float64               `json:"latitude"`
	Longitude      float64               `json:"longitude"`
	Address        string                `json:"address"`
	Status         model.SplitStatus     `json:"status"`
	DistanceKm     *float64              `json:"distance_km,omitempty"`
	Participants   []ParticipantResponse `json:"participants"`
	CreatedAt      time.Time             `json:"created_at"`
}

func toSplitResponse(split *model.SplitRequest) SplitResponse {
	participants := make([]ParticipantResponse, 0, len(split.Participants))
	for _, p := range split.Participants {
		participants = append(participants, ParticipantResponse{
			UserID:          p.UserID,
			Nickname:        p.User.Nickname,
			ProfileImageURL: p.User.ProfileImageURL,
			JoinedAt:        p.JoinedAt,
		})
	}

	resp := SplitResponse{
		ID: split.ID,
		Author: UserSummary{
			ID:              split.Author.ID,
			Nickname:        split.Author.Nickname,
			ProfileImageURL: split.Author.ProfileImageURL,
		},
		ProductName:    split.ProductName,
		TotalPrice:     split.TotalPrice,
		TotalQty:       split.TotalQty,
		SplitCount:     split.SplitCount,
		PricePerPerson: split.PricePerPerson(),
		QtyPerPerson:   split.QtyPerPerson(),
		CurrentMembers: split.CurrentMembers(),
		ImageURL:       split.ImageURL,
		Latitude:       split.Latitude,
		Longitude:      split.Longitude,
		Address:        split.Address,
		Status:         split.Status,
		Participants:   participants,
		CreatedAt:      split.CreatedAt,
	}

	// 거리는 응답에서만 소수 둘째 자리로 반올림한다 (정렬은 원본 값 기준)
	if split.DistanceKm != nil {
		rounded := util.RoundKm(*split.DistanceKm)
		resp.DistanceKm = &rounded
	}

	return resp
}

func toSplitResponses(splits []model.SplitRequest) []SplitResponse {
	responses := make([]SplitResponse, 0, len(splits))
	for i := range splits {
		responses = append(responses, toSplitResponse(&splits[i]))
	}
	return responses
}

// CreateSplit creates a new split request
// POST /api/splits
func (ctrl *SplitController) CreateSplit(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, exists := middleware.GetUserID(c)
	if !exists {
		apperrors.Unauthorized(c, "로그인이 필요합니다")
		return
	}

	var req CreateSplitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid split creation request", map[string]interface{}{
			"error": err.Error(),
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "입력값이 올바르지 않습니다")
		return
	}

	split, err := ctrl.splitService.Create(userID, service.CreateSplitInput{
		ProductName: req.ProductName,
		TotalPrice:  req.TotalPrice,
		TotalQty:    req.TotalQty,
		SplitCount:  req.SplitCount,
		ImageURL:    req.ImageURL,
		Latitude:    req.Latitude,
		Longitude:   req.Longitude,
		Address:     req.Address,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrBlankProductName),
			errors.Is(err, service.ErrInvalidPrice),
			errors.Is(err, service.ErrInvalidQty),
			errors.Is(err, service.ErrInvalidSplitCount):
			log.Warn("Split creation failed: validation error", map[string]interface{}{
				"user_id": userID,
				"error":   err.Error(),
			})
			apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "입력값이 올바르지 않습니다")
			return
		case errors.Is(err, service.ErrUserNotFound):
			apperrors.NotFound(c, apperrors.UserNotFound, "사용자를 찾을 수 없습니다")
			return
		default:
			log.Error("Failed to create split request", err, map[string]interface{}{
				"user_id": userID,
			})
			apperrors.ParseAndRespond(c, http.StatusInternalServerError, err, "나눠사기 등록")
			return
		}
	}

	log.Info("Split request created successfully", map[string]interface{}{
		"split_id": split.ID,
		"user_id":  userID,
	})

	c.JSON(http.StatusCreated, gin.H{
		"split": toSplitResponse(split),
	})
}

// ListSplits returns split requests, optionally filtered
// GET /api/splits?status=WAITING
// GET /api/splits?lat=37.5&lng=127.0&radiusKm=3
//
// 위치 파라미터가 있으면 상태 필터보다 우선한다 (근처 조회는 항상 WAITING만)
func (ctrl *SplitController) ListSplits(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	latStr := c.Query("lat")
	lngStr := c.Query("lng")
	if latStr != "" || lngStr != "" {
		ctrl.listNearby(c, latStr, lngStr)
		return
	}

	var (
		splits []model.SplitRequest
		err    error
	)

	if statusStr := c.Query("status"); statusStr != "" {
		status := model.SplitStatus(statusStr)
		if !status.IsValid() {
			log.Warn("Invalid status filter", map[string]interface{}{
				"status": statusStr,
			})
			apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "유효하지 않은 상태값입니다")
			return
		}
		splits, err = ctrl.splitService.GetByStatus(status)
	} else {
		splits, err = ctrl.splitService.GetAll()
	}
	if err != nil {
		log.Error("Failed to fetch split requests", err, nil)
		apperrors.InternalError(c, "나눠사기 목록 조회에 실패했습니다")
		return
	}

	log.Info("Split requests fetched successfully", map[string]interface{}{
		"count": len(splits),
	})

	c.JSON(http.StatusOK, gin.H{
		"splits": toSplitResponses(splits),
		"count":  len(splits),
	})
}

func (ctrl *SplitController) listNearby(c *gin.Context, latStr, lngStr string) {
	log := middleware.GetLoggerFromContext(c)

	lat, latErr := strconv.ParseFloat(latStr, 64)
	lng, lngErr := strconv.ParseFloat(lngStr, 64)
	if latErr != nil || lngErr != nil || lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		log.Warn("Invalid coordinates", map[string]interface{}{
			"lat": latStr,
			"lng": lngStr,
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "위치 정보가 올바르지 않습니다")
		return
	}

	radiusKm := ctrl.defaultRadiusKm
	if radiusStr := c.Query("radiusKm"); radiusStr != "" {
		parsed, err := strconv.ParseFloat(radiusStr, 64)
		if err != nil || parsed <= 0 {
			log.Warn("Invalid radius", map[string]interface{}{
				"radius_km": radiusStr,
			})
			apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "조회 반경이 올바르지 않습니다")
			return
		}
		radiusKm = parsed
	}

	splits, err := ctrl.splitService.FindNearby(lat, lng, radiusKm)
	if err != nil {
		log.Error("Failed to fetch nearby split requests", err, map[string]interface{}{
			"lat": lat,
			"lng": lng,
		})
		apperrors.InternalError(c, "근처 나눠사기 조회에 실패했습니다")
		return
	}

	log.Info("Nearby split requests fetched successfully", map[string]interface{}{
		"count":     len(splits),
		"radius_km": radiusKm,
	})

	c.JSON(http.StatusOK, gin.H{
		"splits":    toSplitResponses(splits),
		"count":     len(splits),
		"radius_km": radiusKm,
	})
}

// GetMySplits returns split requests authored by the current user
// GET /api/splits/my
func (ctrl *SplitController) GetMySplits(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, exists := middleware.GetUserID(c)
	if !exists {
		apperrors.Unauthorized(c, "로그인이 필요합니다")
		return
	}

	splits, err := ctrl.splitService.GetByAuthorID(userID)
	if err != nil {
		log.Error("Failed to fetch user's split requests", err, map[string]interface{}{
			"user_id": userID,
		})
		apperrors.InternalError(c, "내 나눠사기 목록 조회에 실패했습니다")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"splits": toSplitResponses(splits),
		"count":  len(splits),
	})
}

// GetSplitByID returns a split request by ID
// GET /api/splits/:id
func (ctrl *SplitController) GetSplitByID(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	id, ok := parseSplitID(c)
	if !ok {
		return
	}

	split, err := ctrl.splitService.GetByID(id)
	if err != nil {
		if errors.Is(err, service.ErrSplitNotFound) {
			log.Warn("Split request not found", map[string]interface{}{
				"split_id": id,
			})
			apperrors.NotFound(c, apperrors.SplitNotFound, "나눠사기를 찾을 수 없습니다")
			return
		}
		log.Error("Failed to fetch split request", err, map[string]interface{}{
			"split_id": id,
		})
		apperrors.InternalError(c, "나눠사기 조회에 실패했습니다")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"split": toSplitResponse(split),
	})
}

// JoinSplit joins the current user into a split request
// POST /api/splits/:id/join
func (ctrl *SplitController) JoinSplit(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, exists := middleware.GetUserID(c)
	if !exists {
		apperrors.Unauthorized(c, "로그인이 필요합니다")
		return
	}

	id, ok := parseSplitID(c)
	if !ok {
		return
	}

	split, err := ctrl.splitService.Join(id, userID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrSplitNotFound):
			apperrors.NotFound(c, apperrors.SplitNotFound, "나눠사기를 찾을 수 없습니다")
			return
		case errors.Is(err, service.ErrNotJoinable):
			log.Warn("Join rejected: split not joinable", map[string]interface{}{
				"split_id": id,
				"user_id":  userID,
			})
			apperrors.Conflict(c, apperrors.SplitNotJoinable, "참여할 수 없는 나눠사기입니다")
			return
		case errors.Is(err, service.ErrSelfJoin):
			apperrors.Conflict(c, apperrors.SplitSelfJoin, "본인이 등록한 나눠사기에는 참여할 수 없습니다")
			return
		case errors.Is(err, service.ErrAlreadyJoined):
			apperrors.Conflict(c, apperrors.SplitAlreadyJoined, "이미 참여한 나눠사기입니다")
			return
		case errors.Is(err, service.ErrUserNotFound):
			apperrors.NotFound(c, apperrors.UserNotFound, "사용자를 찾을 수 없습니다")
			return
		default:
			log.Error("Failed to join split request", err, map[string]interface{}{
				"split_id": id,
				"user_id":  userID,
			})
			apperrors.ParseAndRespond(c, http.StatusInternalServerError, err, "나눠사기 참여")
			return
		}
	}

	log.Info("Split request joined successfully", map[string]interface{}{
		"split_id": id,
		"user_id":  userID,
		"status":   split.Status,
	})

	c.JSON(http.StatusOK, gin.H{
		"split": toSplitResponse(split),
	})
}

// CancelSplit cancels a split request (author only)
// PATCH /api/splits/:id/cancel
func (ctrl *SplitController) CancelSplit(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, exists := middleware.GetUserID(c)
	if !exists {
		apperrors.Unauthorized(c, "로그인이 필요합니다")
		return
	}

	id, ok := parseSplitID(c)
	if !ok {
		return
	}

	split, err := ctrl.splitService.Cancel(id, userID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrSplitNotFound):
			apperrors.NotFound(c, apperrors.SplitNotFound, "나눠사기를 찾을 수 없습니다")
			return
		case errors.Is(err, service.ErrNotAuthor):
			log.Warn("Cancel rejected: not the author", map[string]interface{}{
				"split_id": id,
				"user_id":  userID,
			})
			apperrors.Forbidden(c, apperrors.AuthzOwnerOnly, "작성자만 취소할 수 있습니다")
			return
		case errors.Is(err, service.ErrNotCancellable):
			apperrors.Conflict(c, apperrors.SplitNotCancellable, "대기 중인 나눠사기만 취소할 수 있습니다")
			return
		default:
			log.Error("Failed to cancel split request", err, map[string]interface{}{
				"split_id": id,
				"user_id":  userID,
			})
			apperrors.ParseAndRespond(c, http.StatusInternalServerError, err, "나눠사기 취소")
			return
		}
	}

	log.Info("Split request cancelled successfully", map[string]interface{}{
		"split_id": id,
		"user_id":  userID,
	})

	c.JSON(http.StatusOK, gin.H{
		"split": toSplitResponse(split),
	})
}

func parseSplitID(c *gin.Context) (uint, bool) {
	idStr := c.Param("id")
	id, err := strconv.ParseUint(idStr, 10, 32)
	if err != nil {
		log := middleware.GetLoggerFromContext(c)
		log.Warn("Invalid split ID format", map[string]interface{}{
			"split_id": idStr,
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "유효하지 않은 ID입니다")
		return 0, false
	}
	return uint(id), true
}
