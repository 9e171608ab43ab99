package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/postlinehq/postline/internal/models"
	"github.com/postlinehq/postline/internal/transfer"
)

type stubPostRepo struct {
	created []*models.SocialPost
	byID    map[int64]*models.SocialPost
	removed []int64
}

func newStubPostRepo() *stubPostRepo {
	return &stubPostRepo{byID: make(map[int64]*models.SocialPost)}
}

func (s *stubPostRepo) Create(ctx context.Context, post *models.SocialPost) (int64, error) {
	s.created = append(s.created, post)
	id := int64(len(s.created))
	s.byID[id] = post
	return id, nil
}

func (s *stubPostRepo) GetByID(ctx context.Context, id int64) (*models.SocialPost, error) {
	return s.byID[id], nil
}

func (s *stubPostRepo) List(ctx context.Context) ([]*models.SocialPost, error) {
	return s.created, nil
}

func (s *stubPostRepo) ListDue(ctx context.Context, now time.Time) ([]*models.SocialPost, error) {
	return nil, nil
}

func (s *stubPostRepo) MarkPublished(ctx context.Context, id int64, externalPostID string, now time.Time) (bool, error) {
	return false, nil
}

func (s *stubPostRepo) MarkFailed(ctx context.Context, id int64, message string, now time.Time) (bool, error) {
	return false, nil
}

func (s *stubPostRepo) Remove(ctx context.Context, id int64) error {
	s.removed = append(s.removed, id)
	delete(s.byID, id)
	return nil
}

func futureCreation(platform string) *transfer.PostCreation {
	return &transfer.PostCreation{
		Content:     "hello",
		Platform:    platform,
		ScheduledAt: time.Now().Add(time.Hour),
	}
}

func TestCreatePost(t *testing.T) {
	repo := newStubPostRepo()
	s := NewPostService(repo)

	pc := futureCreation("linkedin")
	pc.MediaURL = "https://cdn.example.com/pic.jpg"

	post, delay, err := s.Create(context.Background(), pc)
	require.NoError(t, err)
	assert.Equal(t, int64(1), post.ID)
	assert.Equal(t, models.PostStatusPending, post.Status)
	assert.Equal(t, "https://cdn.example.com/pic.jpg", post.MediaURL.String)
	assert.InDelta(t, time.Hour.Seconds(), delay.Seconds(), 5)
}

func TestCreateRejectsEmptyFields(t *testing.T) {
	s := NewPostService(newStubPostRepo())

	pc := futureCreation("linkedin")
	pc.Content = ""
	_, _, err := s.Create(context.Background(), pc)
	assert.ErrorIs(t, err, ErrEmptyContent)

	pc = futureCreation("")
	_, _, err = s.Create(context.Background(), pc)
	assert.ErrorIs(t, err, ErrEmptyPlatform)
}

func TestCreateEnforcesPlatformContentLimits(t *testing.T) {
	s := NewPostService(newStubPostRepo())

	cases := []struct {
		platform string
		limit    int
	}{
		{"twitter", 280},
		{"threads", 500},
		{"linkedin", 3000},
		{"facebook", 63206},
		{"mastodon", 3000}, // unknown platform gets the default limit
	}

	for _, tc := range cases {
		pc := futureCreation(tc.platform)
		pc.Content = strings.Repeat("a", tc.limit)
		_, _, err := s.Create(context.Background(), pc)
		assert.NoError(t, err, "%s content at the limit should pass", tc.platform)

		pc = futureCreation(tc.platform)
		pc.Content = strings.Repeat("a", tc.limit+1)
		_, _, err = s.Create(context.Background(), pc)
		assert.ErrorIs(t, err, ErrContentLong, "%s content over the limit should fail", tc.platform)
	}
}

func TestCreateCountsRunesNotBytes(t *testing.T) {
	s := NewPostService(newStubPostRepo())

	// 280 multibyte runes are within twitter's limit even though the
	// byte count is far over it.
	pc := futureCreation("twitter")
	pc.Content = strings.Repeat("é", 280)

	_, _, err := s.Create(context.Background(), pc)
	assert.NoError(t, err)
}

func TestCreateRejectsNonFutureSchedule(t *testing.T) {
	s := NewPostService(newStubPostRepo())

	pc := futureCreation("linkedin")
	pc.ScheduledAt = time.Now().Add(-time.Minute)
	_, _, err := s.Create(context.Background(), pc)
	assert.ErrorIs(t, err, ErrNotFuture)

	pc = futureCreation("linkedin")
	pc.ScheduledAt = time.Now()
	_, _, err = s.Create(context.Background(), pc)
	assert.ErrorIs(t, err, ErrNotFuture, "a schedule equal to now is not in the future")
}

func TestCreateNormalizesScheduleToUTC(t *testing.T) {
	repo := newStubPostRepo()
	s := NewPostService(repo)

	loc := time.FixedZone("UTC+5", 5*3600)
	local := time.Now().In(loc).Add(time.Hour)

	pc := futureCreation("linkedin")
	pc.ScheduledAt = local

	post, _, err := s.Create(context.Background(), pc)
	require.NoError(t, err)
	assert.Equal(t, time.UTC, post.ScheduledAt.Location())
	assert.True(t, post.ScheduledAt.Equal(local))
}

func TestRemovePost(t *testing.T) {
	repo := newStubPostRepo()
	s := NewPostService(repo)

	post, _, err := s.Create(context.Background(), futureCreation("linkedin"))
	require.NoError(t, err)

	require.NoError(t, s.Remove(context.Background(), post.ID))
	assert.Equal(t, []int64{post.ID}, repo.removed)

	err = s.Remove(context.Background(), post.ID)
	assert.ErrorIs(t, err, ErrPostNotFound)
}
