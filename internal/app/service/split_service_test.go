package service

import (
	"testing"
	"time"

	"github.com/onebite/onebite-backend/internal/app/model"
	"github.com/onebite/onebite-backend/internal/app/repository"
	"github.com/onebite/onebite-backend/internal/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupSplitServiceTest(t *testing.T) (SplitService, *gorm.DB) {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() {
		db.CleanupTestDB(testDB)
	})

	splitRepo := repository.NewSplitRepository(testDB)
	participantRepo := repository.NewSplitParticipantRepository(testDB)
	userRepo := repository.NewUserRepository(testDB)
	splitService := NewSplitService(splitRepo, participantRepo, userRepo, testDB)

	return splitService, testDB
}

func createTestUser(t *testing.T, testDB *gorm.DB, providerID, nickname string) *model.User {
	user := &model.User{
		Provider:   model.ProviderKakao,
		ProviderID: providerID,
		Nickname:   nickname,
	}
	require.NoError(t, testDB.Create(user).Error)
	return user
}

func createTestSplit(t *testing.T, svc SplitService, authorID uint, splitCount int) *model.SplitRequest {
	split, err := svc.Create(authorID, CreateSplitInput{
		ProductName: "코스트코 양상추 한 박스",
		TotalPrice:  20000,
		TotalQty:    12,
		SplitCount:  splitCount,
		Latitude:    37.4979,
		Longitude:   127.0276,
		Address:     "서울시 강남구 역삼동",
	})
	require.NoError(t, err)
	return split
}

func TestSplitService_Create_Success(t *testing.T) {
	svc, testDB := setupSplitServiceTest(t)
	author := createTestUser(t, testDB, "author-1", "작성자")

	split, err := svc.Create(author.ID, CreateSplitInput{
		ProductName: "생수 2L 24병",
		TotalPrice:  20000,
		TotalQty:    24,
		SplitCount:  3,
		Latitude:    37.5,
		Longitude:   127.0,
		Address:     "서울시 송파구",
	})
	require.NoError(t, err)

	assert.NotZero(t, split.ID)
	assert.Equal(t, author.ID, split.AuthorID)
	assert.Equal(t, model.SplitWaiting, split.Status)
	assert.Equal(t, "작성자", split.Author.Nickname)
	assert.Empty(t, split.Participants)
	assert.Equal(t, 1, split.CurrentMembers())
}

func TestSplitService_Create_FloorDivision(t *testing.T) {
	svc, testDB := setupSplitServiceTest(t)
	author := createTestUser(t, testDB, "author-1", "작성자")

	split, err := svc.Create(author.ID, CreateSplitInput{
		ProductName: "사과 한 상자",
		TotalPrice:  20000,
		TotalQty:    10,
		SplitCount:  3,
		Latitude:    37.5,
		Longitude:   127.0,
		Address:     "서울시 강동구",
	})
	require.NoError(t, err)

	// 20000원 / 3명 = 6666원 (나머지 버림)
	assert.Equal(t, 6666, split.PricePerPerson())
	// 10개 / 3명 = 3개
	assert.Equal(t, 3, split.QtyPerPerson())
}

func TestSplitService_Create_ValidationErrors(t *testing.T) {
	svc, testDB := setupSplitServiceTest(t)
	author := createTestUser(t, testDB, "author-1", "작성자")

	base := CreateSplitInput{
		ProductName: "상품",
		TotalPrice:  10000,
		TotalQty:    4,
		SplitCount:  2,
		Latitude:    37.5,
		Longitude:   127.0,
		Address:     "서울시",
	}

	blank := base
	blank.ProductName = "   "
	_, err := svc.Create(author.ID, blank)
	assert.ErrorIs(t, err, ErrBlankProductName)

	badPrice := base
	badPrice.TotalPrice = 0
	_, err = svc.Create(author.ID, badPrice)
	assert.ErrorIs(t, err, ErrInvalidPrice)

	badQty := base
	badQty.TotalQty = 0
	_, err = svc.Create(author.ID, badQty)
	assert.ErrorIs(t, err, ErrInvalidQty)

	badCount := base
	badCount.SplitCount = 1
	_, err = svc.Create(author.ID, badCount)
	assert.ErrorIs(t, err, ErrInvalidSplitCount)
}

func TestSplitService_Create_AuthorNotFound(t *testing.T) {
	svc, _ := setupSplitServiceTest(t)

	_, err := svc.Create(9999, CreateSplitInput{
		ProductName: "상품",
		TotalPrice:  10000,
		TotalQty:    4,
		SplitCount:  2,
		Latitude:    37.5,
		Longitude:   127.0,
		Address:     "서울시",
	})
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestSplitService_Join_Success(t *testing.T) {
	svc, testDB := setupSplitServiceTest(t)
	author := createTestUser(t, testDB, "author-1", "작성자")
	joiner := createTestUser(t, testDB, "joiner-1", "참여자")
	split := createTestSplit(t, svc, author.ID, 4)

	joined, err := svc.Join(split.ID, joiner.ID)
	require.NoError(t, err)

	// 정원 4명 중 2명 (작성자 + 참여자 1명)이므로 아직 대기
	assert.Equal(t, model.SplitWaiting, joined.Status)
	assert.Equal(t, 2, joined.CurrentMembers())
	require.Len(t, joined.Participants, 1)
	assert.Equal(t, joiner.ID, joined.Participants[0].UserID)
	assert.Equal(t, "참여자", joined.Participants[0].User.Nickname)
}

func TestSplitService_Join_MatchesWhenFull(t *testing.T) {
	svc, testDB := setupSplitServiceTest(t)
	author := createTestUser(t, testDB, "author-1", "작성자")
	split := createTestSplit(t, svc, author.ID, 4)

	// 작성자 포함 4명이므로 참여자 3명이 차면 매칭
	for i, providerID := range []string{"j-1", "j-2", "j-3"} {
		joiner := createTestUser(t, testDB, providerID, "참여자")
		joined, err := svc.Join(split.ID, joiner.ID)
		require.NoError(t, err)

		if i < 2 {
			assert.Equal(t, model.SplitWaiting, joined.Status)
		} else {
			assert.Equal(t, model.SplitMatched, joined.Status)
		}
	}
}

func TestSplitService_Join_TwoPersonSplitMatchesImmediately(t *testing.T) {
	svc, testDB := setupSplitServiceTest(t)
	author := createTestUser(t, testDB, "author-1", "작성자")
	joiner := createTestUser(t, testDB, "joiner-1", "참여자")
	split := createTestSplit(t, svc, author.ID, 2)

	joined, err := svc.Join(split.ID, joiner.ID)
	require.NoError(t, err)
	assert.Equal(t, model.SplitMatched, joined.Status)
	assert.Equal(t, 2, joined.CurrentMembers())
}

func TestSplitService_Join_NotFound(t *testing.T) {
	svc, testDB := setupSplitServiceTest(t)
	joiner := createTestUser(t, testDB, "joiner-1", "참여자")

	_, err := svc.Join(9999, joiner.ID)
	assert.ErrorIs(t, err, ErrSplitNotFound)
}

func TestSplitService_Join_SelfJoin(t *testing.T) {
	svc, testDB := setupSplitServiceTest(t)
	author := createTestUser(t, testDB, "author-1", "작성자")
	split := createTestSplit(t, svc, author.ID, 3)

	_, err := svc.Join(split.ID, author.ID)
	assert.ErrorIs(t, err, ErrSelfJoin)
}

func TestSplitService_Join_Duplicate(t *testing.T) {
	svc, testDB := setupSplitServiceTest(t)
	author := createTestUser(t, testDB, "author-1", "작성자")
	joiner := createTestUser(t, testDB, "joiner-1", "참여자")
	split := createTestSplit(t, svc, author.ID, 4)

	_, err := svc.Join(split.ID, joiner.ID)
	require.NoError(t, err)

	_, err = svc.Join(split.ID, joiner.ID)
	assert.ErrorIs(t, err, ErrAlreadyJoined)
}

func TestSplitService_Join_NotWaiting(t *testing.T) {
	svc, testDB := setupSplitServiceTest(t)
	author := createTestUser(t, testDB, "author-1", "작성자")
	joiner := createTestUser(t, testDB, "joiner-1", "참여자")
	late := createTestUser(t, testDB, "late-1", "늦은참여자")
	split := createTestSplit(t, svc, author.ID, 2)

	_, err := svc.Join(split.ID, joiner.ID)
	require.NoError(t, err)

	// 이미 MATCHED 상태이므로 거절
	_, err = svc.Join(split.ID, late.ID)
	assert.ErrorIs(t, err, ErrNotJoinable)

	// 취소된 나눠사기도 참여 불가
	cancelled := createTestSplit(t, svc, author.ID, 4)
	_, err = svc.Cancel(cancelled.ID, author.ID)
	require.NoError(t, err)

	_, err = svc.Join(cancelled.ID, late.ID)
	assert.ErrorIs(t, err, ErrNotJoinable)
}

func TestSplitService_Join_UserNotFound(t *testing.T) {
	svc, testDB := setupSplitServiceTest(t)
	author := createTestUser(t, testDB, "author-1", "작성자")
	split := createTestSplit(t, svc, author.ID, 3)

	_, err := svc.Join(split.ID, 9999)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestSplitService_Cancel_Success(t *testing.T) {
	svc, testDB := setupSplitServiceTest(t)
	author := createTestUser(t, testDB, "author-1", "작성자")
	split := createTestSplit(t, svc, author.ID, 3)

	cancelled, err := svc.Cancel(split.ID, author.ID)
	require.NoError(t, err)
	assert.Equal(t, model.SplitCancelled, cancelled.Status)
}

func TestSplitService_Cancel_KeepsParticipants(t *testing.T) {
	svc, testDB := setupSplitServiceTest(t)
	author := createTestUser(t, testDB, "author-1", "작성자")
	joiner := createTestUser(t, testDB, "joiner-1", "참여자")
	split := createTestSplit(t, svc, author.ID, 4)

	_, err := svc.Join(split.ID, joiner.ID)
	require.NoError(t, err)

	cancelled, err := svc.Cancel(split.ID, author.ID)
	require.NoError(t, err)
	assert.Equal(t, model.SplitCancelled, cancelled.Status)
	// 참여 이력은 남는다
	assert.Len(t, cancelled.Participants, 1)
}

func TestSplitService_Cancel_NotAuthor(t *testing.T) {
	svc, testDB := setupSplitServiceTest(t)
	author := createTestUser(t, testDB, "author-1", "작성자")
	other := createTestUser(t, testDB, "other-1", "남")
	split := createTestSplit(t, svc, author.ID, 3)

	_, err := svc.Cancel(split.ID, other.ID)
	assert.ErrorIs(t, err, ErrNotAuthor)
}

func TestSplitService_Cancel_NotWaiting(t *testing.T) {
	svc, testDB := setupSplitServiceTest(t)
	author := createTestUser(t, testDB, "author-1", "작성자")
	joiner := createTestUser(t, testDB, "joiner-1", "참여자")
	split := createTestSplit(t, svc, author.ID, 2)

	_, err := svc.Join(split.ID, joiner.ID)
	require.NoError(t, err)

	_, err = svc.Cancel(split.ID, author.ID)
	assert.ErrorIs(t, err, ErrNotCancellable)
}

func TestSplitService_Cancel_NotFound(t *testing.T) {
	svc, testDB := setupSplitServiceTest(t)
	author := createTestUser(t, testDB, "author-1", "작성자")

	_, err := svc.Cancel(9999, author.ID)
	assert.ErrorIs(t, err, ErrSplitNotFound)
}

func createSplitAt(t *testing.T, svc SplitService, authorID uint, name string, lat, lng float64) *model.SplitRequest {
	split, err := svc.Create(authorID, CreateSplitInput{
		ProductName: name,
		TotalPrice:  10000,
		TotalQty:    4,
		SplitCount:  2,
		Latitude:    lat,
		Longitude:   lng,
		Address:     "테스트 주소",
	})
	require.NoError(t, err)
	return split
}

func TestSplitService_FindNearby_FiltersAndSorts(t *testing.T) {
	svc, testDB := setupSplitServiceTest(t)
	author := createTestUser(t, testDB, "author-1", "작성자")

	// 경도 0.001도 ≈ 0.11km, 0.01도 ≈ 1.11km (적도 기준)
	near := createSplitAt(t, svc, author.ID, "가까운 글", 0, 0.001)
	far := createSplitAt(t, svc, author.ID, "먼 글", 0, 0.01)
	createSplitAt(t, svc, author.ID, "아주 먼 글", 1, 1)

	results, err := svc.FindNearby(0, 0, 2)
	require.NoError(t, err)
	require.Len(t, results, 2)

	// 가까운 순 정렬
	assert.Equal(t, near.ID, results[0].ID)
	assert.Equal(t, far.ID, results[1].ID)
	require.NotNil(t, results[0].DistanceKm)
	require.NotNil(t, results[1].DistanceKm)
	assert.InDelta(t, 0.111, *results[0].DistanceKm, 0.01)
	assert.Less(t, *results[0].DistanceKm, *results[1].DistanceKm)
}

func TestSplitService_FindNearby_EmptyWhenRadiusTooSmall(t *testing.T) {
	svc, testDB := setupSplitServiceTest(t)
	author := createTestUser(t, testDB, "author-1", "작성자")

	createSplitAt(t, svc, author.ID, "가까운 글", 0, 0.001)

	results, err := svc.FindNearby(0, 0, 0.05)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSplitService_FindNearby_InclusiveBoundary(t *testing.T) {
	svc, testDB := setupSplitServiceTest(t)
	author := createTestUser(t, testDB, "author-1", "작성자")

	split := createSplitAt(t, svc, author.ID, "경계에 있는 글", 0, 0.001)

	// 검색 반경을 실제 거리와 동일하게 주면 포함된다
	probe, err := svc.FindNearby(0, 0, 100)
	require.NoError(t, err)
	require.Len(t, probe, 1)
	exact := *probe[0].DistanceKm

	results, err := svc.FindNearby(0, 0, exact)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, split.ID, results[0].ID)
}

func TestSplitService_FindNearby_OnlyWaiting(t *testing.T) {
	svc, testDB := setupSplitServiceTest(t)
	author := createTestUser(t, testDB, "author-1", "작성자")
	joiner := createTestUser(t, testDB, "joiner-1", "참여자")

	waiting := createSplitAt(t, svc, author.ID, "대기 글", 0, 0.001)
	matched := createSplitAt(t, svc, author.ID, "매칭된 글", 0, 0.002)
	_, err := svc.Join(matched.ID, joiner.ID)
	require.NoError(t, err)

	results, err := svc.FindNearby(0, 0, 3)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, waiting.ID, results[0].ID)
}

func TestSplitService_GetByStatus(t *testing.T) {
	svc, testDB := setupSplitServiceTest(t)
	author := createTestUser(t, testDB, "author-1", "작성자")

	split := createTestSplit(t, svc, author.ID, 3)
	_, err := svc.Cancel(split.ID, author.ID)
	require.NoError(t, err)
	createTestSplit(t, svc, author.ID, 3)

	waiting, err := svc.GetByStatus(model.SplitWaiting)
	require.NoError(t, err)
	assert.Len(t, waiting, 1)

	cancelled, err := svc.GetByStatus(model.SplitCancelled)
	require.NoError(t, err)
	assert.Len(t, cancelled, 1)
}

func TestSplitService_GetByAuthorID(t *testing.T) {
	svc, testDB := setupSplitServiceTest(t)
	author := createTestUser(t, testDB, "author-1", "작성자")
	other := createTestUser(t, testDB, "other-1", "남")

	createTestSplit(t, svc, author.ID, 3)
	createTestSplit(t, svc, author.ID, 3)
	createTestSplit(t, svc, other.ID, 3)

	splits, err := svc.GetByAuthorID(author.ID)
	require.NoError(t, err)
	assert.Len(t, splits, 2)
	for _, s := range splits {
		assert.Equal(t, author.ID, s.AuthorID)
	}
}

func TestSplitService_ExpireStale(t *testing.T) {
	svc, testDB := setupSplitServiceTest(t)
	author := createTestUser(t, testDB, "author-1", "작성자")

	stale := createTestSplit(t, svc, author.ID, 3)
	fresh := createTestSplit(t, svc, author.ID, 3)

	// 오래된 글로 만들기
	require.NoError(t, testDB.Model(&model.SplitRequest{}).
		Where("id = ?", stale.ID).
		Update("created_at", time.Now().Add(-8*24*time.Hour)).Error)

	count, err := svc.ExpireStale(7 * 24 * time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	expired, err := svc.GetByID(stale.ID)
	require.NoError(t, err)
	assert.Equal(t, model.SplitCancelled, expired.Status)

	kept, err := svc.GetByID(fresh.ID)
	require.NoError(t, err)
	assert.Equal(t, model.SplitWaiting, kept.Status)
}
