package errors

// 에러 코드 상수 정의
// 형식: CATEGORY_SPECIFIC_DETAIL
// 프론트엔드에서 이 코드를 기반으로 메시지를 매핑함

const (
	// ==================== 인증 (AUTH_) ====================
	AuthUnauthorized   = "AUTH_UNAUTHORIZED"    // 로그인 필요
	AuthTokenExpired   = "AUTH_TOKEN_EXPIRED"   // 토큰 만료
	AuthTokenInvalid   = "AUTH_TOKEN_INVALID"   // 잘못된 토큰
	AuthTokenRevoked   = "AUTH_TOKEN_REVOKED"   // 로그아웃된 토큰
	AuthProviderFailed = "AUTH_PROVIDER_FAILED" // 소셜 로그인 실패
	AuthInvalidCode    = "AUTH_INVALID_CODE"    // 잘못된 인가 코드

	// ==================== 인가/권한 (AUTHZ_) ====================
	AuthzForbidden = "AUTHZ_FORBIDDEN"  // 접근 권한 없음
	AuthzOwnerOnly = "AUTHZ_OWNER_ONLY" // 작성자만 가능

	// ==================== 검증 (VALIDATION_) ====================
	ValidationInvalidInput = "VALIDATION_INVALID_INPUT" // 잘못된 입력
	ValidationInvalidID    = "VALIDATION_INVALID_ID"    // 잘못된 ID
	ValidationInvalidRange = "VALIDATION_INVALID_RANGE" // 범위 초과
	ValidationRequired     = "VALIDATION_REQUIRED"      // 필수 항목

	// ==================== 리소스 (RESOURCE_) ====================
	ResourceNotFound      = "RESOURCE_NOT_FOUND"      // 리소스 없음
	ResourceAlreadyExists = "RESOURCE_ALREADY_EXISTS" // 이미 존재
	ResourceConflict      = "RESOURCE_CONFLICT"       // 충돌

	// ==================== 사용자 (USER_) ====================
	UserNotFound = "USER_NOT_FOUND" // 사용자 없음

	// ==================== 나눠사기 (SPLIT_) ====================
	SplitNotFound       = "SPLIT_NOT_FOUND"        // 나눠사기 없음
	SplitNotJoinable    = "SPLIT_NOT_JOINABLE"     // WAITING 상태가 아님
	SplitSelfJoin       = "SPLIT_SELF_JOIN"        // 본인 글 참여 불가
	SplitAlreadyJoined  = "SPLIT_ALREADY_JOINED"   // 이미 참여함
	SplitNotCancellable = "SPLIT_NOT_CANCELLABLE"  // 취소 불가 상태

	// ==================== 내부 오류 (INTERNAL_) ====================
	InternalServerError   = "INTERNAL_SERVER_ERROR"   // 서버 오류
	InternalDatabaseError = "INTERNAL_DATABASE_ERROR" // DB 오류
	InternalExternalAPI   = "INTERNAL_EXTERNAL_API"   // 외부 API 오류
)
