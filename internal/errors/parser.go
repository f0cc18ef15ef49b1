package errors

import (
	"errors"
	"strings"

	"github.com/lib/pq"
	"gorm.io/gorm"
)

// PostgreSQL SQLSTATE codes
const (
	pqUniqueViolation     = "23505"
	pqForeignKeyViolation = "23503"
	pqNotNullViolation    = "23502"
	pqCheckViolation      = "23514"
)

// ErrorInfo 에러 정보 구조
type ErrorInfo struct {
	Code    string // 에러 코드 (codes.go 참조)
	Message string // 사용자 친화적 메시지
}

// ParseError 에러를 파싱하여 사용자 친화적인 메시지와 코드로 변환
// 보안상 민감한 정보는 숨기되, 사용자가 문제를 해결할 수 있는 정보 제공
func ParseError(err error, context string) ErrorInfo {
	if err == nil {
		return ErrorInfo{
			Code:    InternalServerError,
			Message: "서버 오류가 발생했습니다",
		}
	}

	// 1. GORM 기본 에러
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrorInfo{
			Code:    ResourceNotFound,
			Message: getNotFoundMessage(context),
		}
	}

	// 2. PostgreSQL 에러 (pq 드라이버가 SQLSTATE를 내려줌)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch string(pqErr.Code) {
		case pqUniqueViolation:
			return parseUniqueViolation(pqErr.Constraint + " " + pqErr.Detail)
		case pqForeignKeyViolation:
			return parseForeignKeyViolation(pqErr.Constraint + " " + pqErr.Detail)
		case pqNotNullViolation:
			return ErrorInfo{Code: ValidationRequired, Message: "필수 항목이 누락되었습니다"}
		case pqCheckViolation:
			return ErrorInfo{Code: ValidationInvalidRange, Message: "입력값이 유효하지 않습니다"}
		}
	}

	// 2-1. 드라이버 구분 없는 fallback (SQLite 등은 에러 문자열로 판별)
	errStrLower := strings.ToLower(err.Error())
	if strings.Contains(errStrLower, "duplicate key") || strings.Contains(errStrLower, "unique constraint") {
		return parseUniqueViolation(errStrLower)
	}
	if strings.Contains(errStrLower, "foreign key constraint") {
		return parseForeignKeyViolation(errStrLower)
	}

	// 3. 네트워크/연결 에러
	if strings.Contains(errStrLower, "connection refused") ||
		strings.Contains(errStrLower, "no such host") ||
		strings.Contains(errStrLower, "timeout") {
		return ErrorInfo{
			Code:    InternalExternalAPI,
			Message: "외부 서비스 연결에 실패했습니다. 잠시 후 다시 시도해주세요",
		}
	}

	// 4. 기본 내부 서버 오류
	return ErrorInfo{
		Code:    InternalServerError,
		Message: "서버 오류가 발생했습니다. 잠시 후 다시 시도해주세요",
	}
}

// parseUniqueViolation Unique constraint 위반 에러 파싱
func parseUniqueViolation(detail string) ErrorInfo {
	detailLower := strings.ToLower(detail)

	// 같은 나눠사기에 두 번 참여
	if strings.Contains(detailLower, "split_participant") {
		return ErrorInfo{
			Code:    SplitAlreadyJoined,
			Message: "이미 참여한 나눠사기입니다",
		}
	}

	// 같은 (provider, provider_id)로 중복 가입
	if strings.Contains(detailLower, "provider") {
		return ErrorInfo{
			Code:    ResourceAlreadyExists,
			Message: "이미 가입된 소셜 계정입니다",
		}
	}

	return ErrorInfo{
		Code:    ResourceAlreadyExists,
		Message: "이미 존재하는 데이터입니다",
	}
}

// parseForeignKeyViolation Foreign key constraint 위반 에러 파싱
func parseForeignKeyViolation(detail string) ErrorInfo {
	detailLower := strings.ToLower(detail)

	if strings.Contains(detailLower, "author_id") || strings.Contains(detailLower, "user_id") {
		return ErrorInfo{
			Code:    UserNotFound,
			Message: "존재하지 않는 사용자입니다",
		}
	}
	if strings.Contains(detailLower, "split_request_id") {
		return ErrorInfo{
			Code:    SplitNotFound,
			Message: "존재하지 않는 나눠사기입니다",
		}
	}

	return ErrorInfo{
		Code:    ResourceNotFound,
		Message: "참조하는 데이터를 찾을 수 없습니다",
	}
}

// getNotFoundMessage context에 따른 Not Found 메시지
func getNotFoundMessage(context string) string {
	contextLower := strings.ToLower(context)

	if strings.Contains(contextLower, "split") || strings.Contains(contextLower, "나눠사기") {
		return "나눠사기를 찾을 수 없습니다"
	}
	if strings.Contains(contextLower, "user") || strings.Contains(contextLower, "사용자") {
		return "사용자를 찾을 수 없습니다"
	}

	return "요청한 데이터를 찾을 수 없습니다"
}
