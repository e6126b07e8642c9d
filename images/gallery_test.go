package images

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"labelme/models"
)

func TestParseLimit(t *testing.T) {
	tests := []struct {
		raw  string
		want int
	}{
		{raw: "", want: 10},
		{raw: "abc", want: 10},
		{raw: "0", want: 10},
		{raw: "-3", want: 10},
		{raw: "7", want: 7},
		{raw: "1000", want: 100},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLimit(tt.raw))
		})
	}
}

func TestGallery_List(t *testing.T) {
	fresh := fixedNow.Add(30 * time.Minute)
	expired := fixedNow.Add(-time.Minute)

	t.Run("換發過期的 URL 並寫回", func(t *testing.T) {
		deps := setupTest(t)
		deps.metadata.EXPECT().Scan(gomock.Any(), 10, "").Return(&Page{
			Images: []*models.Image{
				{ID: "stale", S3Key: "u/stale/a.png", URL: "https://old", SignedURLExpiresAt: &expired},
				{ID: "fresh", S3Key: "u/fresh/b.png", URL: "https://cached", SignedURLExpiresAt: &fresh},
				{ID: "external", URL: "https://x/y/z.jpg", IsExternal: true},
				{ID: "new", S3Key: "u/new/c.png"},
			},
		}, nil)
		deps.objects.EXPECT().PresignGet(gomock.Any(), "u/stale/a.png", time.Hour).Return("https://signed/a", nil)
		deps.objects.EXPECT().PresignGet(gomock.Any(), "u/new/c.png", time.Hour).Return("https://signed/c", nil)
		deps.metadata.EXPECT().UpdateURL(gomock.Any(), "stale", "https://signed/a", fixedNow.Add(time.Hour)).Return(nil)
		deps.metadata.EXPECT().UpdateURL(gomock.Any(), "new", "https://signed/c", fixedNow.Add(time.Hour)).Return(nil)

		page, err := NewGallery(deps.objects, deps.metadata, deps.opts...).List(context.Background(), 0, "")
		require.NoError(t, err)

		byID := lo.KeyBy(page.Images, func(img *models.Image) string { return img.ID })
		assert.Equal(t, "https://signed/a", byID["stale"].URL)
		assert.Equal(t, fixedNow.Add(time.Hour), *byID["stale"].SignedURLExpiresAt)
		assert.Equal(t, "https://cached", byID["fresh"].URL)
		assert.Equal(t, "https://x/y/z.jpg", byID["external"].URL)
		assert.Equal(t, "https://signed/c", byID["new"].URL)
		assert.Nil(t, page.LastKey)
		assert.Empty(t, page.Failures)
	})

	t.Run("換發失敗時回傳不帶 URL 的項目", func(t *testing.T) {
		deps := setupTest(t)
		deps.metadata.EXPECT().Scan(gomock.Any(), 5, "cursor-1").Return(&Page{
			Images: []*models.Image{{ID: "a", S3Key: "u/a/a.png", URL: "https://old", SignedURLExpiresAt: &expired}},
			Cursor: "cursor-2",
		}, nil)
		deps.objects.EXPECT().PresignGet(gomock.Any(), gomock.Any(), gomock.Any()).Return("", errors.New("denied"))

		page, err := NewGallery(deps.objects, deps.metadata, deps.opts...).List(context.Background(), 5, "cursor-1")
		require.NoError(t, err)
		require.Len(t, page.Images, 1)
		assert.Empty(t, page.Images[0].URL)
		assert.Equal(t, []ItemFailure{{Item: "a", Reason: "Error refreshing image URL"}}, page.Failures)
		assert.Equal(t, "cursor-2", *page.LastKey)
	})

	t.Run("依 updatedAt 由新到舊排序", func(t *testing.T) {
		deps := setupTest(t)
		older := fixedNow.Add(-time.Hour)
		deps.metadata.EXPECT().Scan(gomock.Any(), gomock.Any(), gomock.Any()).Return(&Page{
			Images: []*models.Image{
				{ID: "none", IsExternal: true, URL: "u"},
				{ID: "older", IsExternal: true, URL: "u", UpdatedAt: &older},
				{ID: "newer", IsExternal: true, URL: "u", UpdatedAt: lo.ToPtr(fixedNow)},
			},
		}, nil)

		page, err := NewGallery(deps.objects, deps.metadata, deps.opts...).List(context.Background(), 10, "")
		require.NoError(t, err)
		assert.Equal(t, []string{"newer", "older", "none"}, lo.Map(page.Images, func(img *models.Image, _ int) string { return img.ID }))
	})

	t.Run("沒有異動時重複讀取結果相同", func(t *testing.T) {
		deps := setupTest(t)
		scan := func() *Page {
			return &Page{Images: []*models.Image{{ID: "a", S3Key: "k", URL: "https://cached", SignedURLExpiresAt: &fresh}}}
		}
		deps.metadata.EXPECT().Scan(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(func(context.Context, int, string) (*Page, error) {
			return scan(), nil
		}).Times(2)

		g := NewGallery(deps.objects, deps.metadata, deps.opts...)
		first, err := g.List(context.Background(), 10, "")
		require.NoError(t, err)
		second, err := g.List(context.Background(), 10, "")
		require.NoError(t, err)
		assert.Equal(t, first, second)
	})

	t.Run("無效的 cursor", func(t *testing.T) {
		deps := setupTest(t)
		deps.metadata.EXPECT().Scan(gomock.Any(), gomock.Any(), "garbage").Return(nil, models.ErrInvalidCursor)

		_, err := NewGallery(deps.objects, deps.metadata, deps.opts...).List(context.Background(), 10, "garbage")
		assert.Equal(t, models.KindValidation, models.KindOf(err))
	})

	t.Run("scan 失敗", func(t *testing.T) {
		deps := setupTest(t)
		deps.metadata.EXPECT().Scan(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, errors.New("boom"))

		_, err := NewGallery(deps.objects, deps.metadata, deps.opts...).List(context.Background(), 10, "")
		assert.Equal(t, models.KindUpstream, models.KindOf(err))
	})
}
