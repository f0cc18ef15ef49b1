package model

import (
	"time"
)

type SplitStatus string // 나눠사기 진행 상태

const (
	SplitWaiting   SplitStatus = "WAITING"   // 나눌 사람 대기중
	SplitMatched   SplitStatus = "MATCHED"   // 매칭됨
	SplitCompleted SplitStatus = "COMPLETED" // 거래 완료 (전이 미구현, 확장용)
	SplitCancelled SplitStatus = "CANCELLED" // 취소
)

// IsValid reports whether the status is a known SplitStatus value
func (s SplitStatus) IsValid() bool {
	switch s {
	case SplitWaiting, SplitMatched, SplitCompleted, SplitCancelled:
		return true
	}
	return false
}

// SplitRequest 나눠사기 게시글
type SplitRequest struct {
	ID          uint        `gorm:"primarykey" json:"id"`
	AuthorID    uint        `gorm:"not null;index" json:"author_id"` // 작성자 ID
	Author      User        `gorm:"foreignKey:AuthorID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"author,omitempty"`
	ProductName string      `gorm:"not null" json:"product_name"`              // 상품명
	TotalPrice  int         `gorm:"not null" json:"total_price"`               // 총 금액 (원)
	TotalQty    int         `gorm:"not null" json:"total_qty"`                 // 총 수량
	SplitCount  int         `gorm:"not null" json:"split_count"`               // 나누는 인원 (작성자 포함)
	ImageURL    string      `json:"image_url,omitempty"`                       // 상품 이미지
	Latitude    float64     `gorm:"type:decimal(10,8)" json:"latitude"`        // 위도 (WGS84)
	Longitude   float64     `gorm:"type:decimal(11,8)" json:"longitude"`       // 경도 (WGS84)
	Address     string      `gorm:"type:text" json:"address"`                  // 거래 장소
	Status      SplitStatus `gorm:"type:varchar(20);default:'WAITING';index" json:"status"` // 진행 상태
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`

	Participants []SplitParticipant `gorm:"foreignKey:SplitRequestID" json:"participants,omitempty"` // 참여자 목록 (작성자 제외)

	// 근처 검색에서만 채워지는 계산 필드. 정렬은 원본 정밀도로 하고
	// 반올림은 응답 DTO에서만 한다.
	DistanceKm *float64 `gorm:"-" json:"-"`
}

func (SplitRequest) TableName() string {
	return "split_requests"
}

// PricePerPerson 1인당 금액. 정수 나눗셈이라 나머지는 버려진다 (기획 확정 전까지 유지).
func (s *SplitRequest) PricePerPerson() int {
	return s.TotalPrice / s.SplitCount
}

// QtyPerPerson 1인당 수량. PricePerPerson과 같은 버림 규칙.
func (s *SplitRequest) QtyPerPerson() int {
	return s.TotalQty / s.SplitCount
}

// CurrentMembers 현재 인원 수. 작성자는 participant 행 없이 1명으로 센다.
func (s *SplitRequest) CurrentMembers() int {
	return len(s.Participants) + 1
}

// SplitParticipant 나눠사기 참여 기록
// (split_request_id, user_id) 복합 unique 인덱스가 중복 참여를 DB 레벨에서 막는다.
type SplitParticipant struct {
	ID             uint      `gorm:"primarykey" json:"id"`
	SplitRequestID uint      `gorm:"not null;index:idx_split_participant_join,unique" json:"split_request_id"` // 나눠사기 ID
	UserID         uint      `gorm:"not null;index:idx_split_participant_join,unique" json:"user_id"`          // 참여자 ID
	JoinedAt       time.Time `gorm:"autoCreateTime" json:"joined_at"`                                          // 참여 시각

	User User `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"user,omitempty"`
}

func (SplitParticipant) TableName() string {
	return "split_participants"
}
