package scheduler

import (
	"time"

	"github.com/onebite/onebite-backend/internal/app/service"
	"github.com/onebite/onebite-backend/pkg/logger"
	"github.com/robfig/cron/v3"
)

// SplitExpiryScheduler 오래된 대기 상태 나눠사기 자동 취소 스케줄러
type SplitExpiryScheduler struct {
	cron         *cron.Cron
	splitService service.SplitService
	expiryAfter  time.Duration
}

// NewSplitExpiryScheduler 나눠사기 만료 스케줄러 생성
func NewSplitExpiryScheduler(splitService service.SplitService, expiryAfter time.Duration) *SplitExpiryScheduler {
	return &SplitExpiryScheduler{
		cron:         cron.New(),
		splitService: splitService,
		expiryAfter:  expiryAfter,
	}
}

// Start 스케줄러 시작
func (s *SplitExpiryScheduler) Start() error {
	// 매일 새벽 4시에 기한이 지난 WAITING 나눠사기를 취소 처리
	// cron 표현식: "0 4 * * *" = 매일 4시 0분
	_, err := s.cron.AddFunc("0 4 * * *", func() {
		logger.Info("Starting scheduled split expiry", map[string]interface{}{
			"expiry_after": s.expiryAfter.String(),
		})

		count, err := s.splitService.ExpireStale(s.expiryAfter)
		if err != nil {
			logger.Error("Failed to expire stale split requests from scheduler", err)
			return
		}

		logger.Info("Scheduled split expiry completed", map[string]interface{}{
			"cancelled": count,
		})
	})

	if err != nil {
		logger.Error("Failed to add cron job for split expiry", err)
		return err
	}

	s.cron.Start()
	logger.Info("Split expiry scheduler started successfully (daily at 4:00 AM)", nil)

	return nil
}

// Stop 스케줄러 중지
func (s *SplitExpiryScheduler) Stop() {
	logger.Info("Stopping split expiry scheduler...", nil)
	s.cron.Stop()
	logger.Info("Split expiry scheduler stopped", nil)
}
