package services

import (
	"context"
	"strings"
	"testing"

	"marketplace_console_go/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackfillSlugs(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.Create(&models.HeadCategory{Name: "Home Decor", Slug: "home-decor", IsActive: true}).Error)
	require.NoError(t, db.Create(&models.HeadCategory{Name: "Home Decor", Slug: "Home Decor!", IsActive: true}).Error)
	require.NoError(t, db.Create(&models.HeadCategory{Name: "Garden Tools", Slug: "", IsActive: true}).Error)

	m := NewHeadCategoryManager(db, nil)

	t.Run("dry run writes nothing", func(t *testing.T) {
		report, err := m.BackfillSlugs(ctx, true, nil)
		require.NoError(t, err)
		assert.Equal(t, 3, report.Scanned)
		require.Len(t, report.Changes, 2)

		var count int64
		db.Model(&models.HeadCategory{}).Where("slug = ?", "garden-tools").Count(&count)
		assert.Zero(t, count)
	})

	t.Run("rewrites non-canonical slugs", func(t *testing.T) {
		report, err := m.BackfillSlugs(ctx, false, nil)
		require.NoError(t, err)
		require.Len(t, report.Changes, 2)

		var slugs []string
		require.NoError(t, db.Model(&models.HeadCategory{}).Order("slug").Pluck("slug", &slugs).Error)
		assert.Equal(t, []string{"garden-tools", "home-decor", "home-decor-1"}, slugs)
	})

	t.Run("second run is a no-op", func(t *testing.T) {
		report, err := m.BackfillSlugs(ctx, false, nil)
		require.NoError(t, err)
		assert.Empty(t, report.Changes)
	})
}

func TestUniqueSlug(t *testing.T) {
	taken := map[string]bool{"tv": true, "tv-1": true}
	assert.Equal(t, "tv-2", uniqueSlug("tv", taken))
	assert.Equal(t, "radio", uniqueSlug("radio", taken))

	long := strings.Repeat("a", MaxSlugLength)
	got := uniqueSlug(long, map[string]bool{long: true})
	assert.Len(t, got, MaxSlugLength)
	assert.True(t, strings.HasSuffix(got, "-1"))
}
