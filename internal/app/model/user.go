package model

import (
	"time"
)

type AuthProvider string // 소셜 로그인 provider 타입

const (
	ProviderKakao  AuthProvider = "KAKAO"
	ProviderNaver  AuthProvider = "NAVER"
	ProviderGoogle AuthProvider = "GOOGLE"
	ProviderApple  AuthProvider = "APPLE"
)

// IsValid reports whether the provider tag is one of the supported providers
func (p AuthProvider) IsValid() bool {
	switch p {
	case ProviderKakao, ProviderNaver, ProviderGoogle, ProviderApple:
		return true
	}
	return false
}

type User struct {
	ID              uint         `gorm:"primarykey" json:"id"`                                                            // 사용자 ID
	Provider        AuthProvider `gorm:"type:varchar(20);not null;uniqueIndex:idx_users_provider_identity" json:"provider"` // 소셜 로그인 provider
	ProviderID      string       `gorm:"not null;uniqueIndex:idx_users_provider_identity" json:"-"`                       // provider가 발급한 고유 ID
	Nickname        string       `gorm:"not null" json:"nickname"`                                                        // 닉네임 (provider 프로필에서 가져옴)
	ProfileImageURL string       `json:"profile_image_url,omitempty"`                                                     // 프로필 이미지 URL
	CreatedAt       time.Time    `json:"created_at"`                                                                      // 생성 시각 (최초 로그인)
	UpdatedAt       time.Time    `json:"updated_at"`                                                                      // 수정 시각
}

func (User) TableName() string {
	return "users"
}
