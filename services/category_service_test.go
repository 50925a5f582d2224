package services

import (
	"context"
	"testing"

	"marketplace_console_go/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestCreateHeadCategorySanitizesInput(t *testing.T) {
	db := setupTestDB(t)
	heads := NewHeadCategoryManager(db, NewImageGate(nil))

	head, err := heads.Create(context.Background(), "", CategoryFields{
		Name:        "  Electronics!!  ",
		Description: "  Phones, <i>laptops</i> and more  ",
	})
	require.NoError(t, err)
	assert.Equal(t, "Electronics", head.Name)
	assert.Equal(t, "electronics", head.Slug)
	assert.Equal(t, "Phones, laptops and more", head.Description)
	assert.True(t, head.IsActive)
	assert.Nil(t, head.ImageURL)

	var stored models.HeadCategory
	require.NoError(t, db.First(&stored, "id = ?", head.ID).Error)
	assert.Equal(t, "Electronics", stored.Name)
	assert.Equal(t, "electronics", stored.Slug)
}

func TestCreateCategoryValidation(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	heads := NewHeadCategoryManager(db, nil)
	subs := NewSubCategoryManager(db, nil)

	_, err := heads.Create(ctx, "", CategoryFields{Name: "   "})
	var verrs ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Contains(t, verrs.Fields(), "name")

	_, err = heads.Create(ctx, "", CategoryFields{Name: "Fashion"})
	require.NoError(t, err)
	_, err = heads.Create(ctx, "", CategoryFields{Name: "Fashion!"})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "slug", verr.Field)

	_, err = subs.Create(ctx, "", CategoryFields{Name: "Shoes"})
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "parent_id", verr.Field)

	_, err = subs.Create(ctx, "missing-head", CategoryFields{Name: "Shoes"})
	assert.ErrorIs(t, err, ErrParentCategoryNotFound)
}

func TestCreateCategoryWithImage(t *testing.T) {
	db := setupTestDB(t)
	up := okUploader("https://cdn.example.com/categories/head/toys/1-a.png")
	heads := NewHeadCategoryManager(db, NewImageGate(up))

	head, err := heads.Create(context.Background(), "", CategoryFields{
		Name:  "Toys",
		Image: ImageChoice{File: imageOfSize(MinImageSize), URL: "https://elsewhere.example.com/b.png"},
	})
	require.NoError(t, err)
	require.NotNil(t, head.ImageURL)
	assert.Equal(t, "https://cdn.example.com/categories/head/toys/1-a.png", *head.ImageURL)
	require.Len(t, up.requests, 1)
	assert.Equal(t, "toys", up.requests[0].Slug)

	// Too small: nothing is uploaded and nothing is inserted
	_, err = heads.Create(context.Background(), "", CategoryFields{Name: "Books", Image: ImageChoice{File: imageOfSize(MinImageSize - 1)}})
	assert.ErrorIs(t, err, ErrImageTooSmall)
	assert.Len(t, up.requests, 1)

	var count int64
	db.Model(&models.HeadCategory{}).Where("slug = ?", "books").Count(&count)
	assert.Equal(t, int64(0), count)
}

func TestCategoryWriteFailureDiscardsUpload(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	up := okUploader("https://cdn.example.com/categories/head/toys/1-a.png")
	heads := NewHeadCategoryManager(db, NewImageGate(up))

	_, err := heads.Create(ctx, "", CategoryFields{Name: "Toys"})
	require.NoError(t, err)
	games, err := heads.Create(ctx, "", CategoryFields{Name: "Games"})
	require.NoError(t, err)

	_, err = heads.Create(ctx, "", CategoryFields{Name: "Toys", Image: ImageChoice{File: imageOfSize(MinImageSize)}})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "slug", verr.Field)
	assert.Equal(t, []string{"p"}, up.removed)

	_, err = heads.Update(ctx, games.ID, CategoryFields{Name: "Toys", Image: ImageChoice{File: imageOfSize(MinImageSize)}})
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []string{"p", "p"}, up.removed)

	// A pasted URL was never uploaded, so there is nothing to remove
	_, err = heads.Create(ctx, "", CategoryFields{Name: "Toys", Image: ImageChoice{URL: "https://cdn.example.com/t.png"}})
	require.ErrorAs(t, err, &verr)
	assert.Len(t, up.removed, 2)
}

func TestListCategories(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	heads := NewHeadCategoryManager(db, nil)
	subs := NewSubCategoryManager(db, nil)

	home, err := heads.Create(ctx, "", CategoryFields{Name: "Home"})
	require.NoError(t, err)
	garden, err := heads.Create(ctx, "", CategoryFields{Name: "Garden", IsActive: boolPtr(false)})
	require.NoError(t, err)
	_, err = heads.Create(ctx, "", CategoryFields{Name: "Apparel"})
	require.NoError(t, err)

	all, err := heads.List(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"Apparel", "Garden", "Home"}, []string{all[0].Name, all[1].Name, all[2].Name})

	active, err := heads.ListActive(ctx, "")
	require.NoError(t, err)
	assert.Len(t, active, 2)
	for _, h := range active {
		assert.NotEqual(t, garden.ID, h.ID)
	}

	_, err = subs.Create(ctx, home.ID, CategoryFields{Name: "Lighting"})
	require.NoError(t, err)
	_, err = subs.Create(ctx, garden.ID, CategoryFields{Name: "Planters"})
	require.NoError(t, err)

	underHome, err := subs.List(ctx, home.ID)
	require.NoError(t, err)
	require.Len(t, underHome, 1)
	assert.Equal(t, "Lighting", underHome[0].Name)

	allSubs, err := subs.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, allSubs, 2)
}

func TestUpdateCategory(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	up := okUploader("https://cdn.example.com/new.png")
	heads := NewHeadCategoryManager(db, NewImageGate(up))

	head, err := heads.Create(ctx, "", CategoryFields{Name: "Sports", Image: ImageChoice{URL: "https://cdn.example.com/old.png"}})
	require.NoError(t, err)

	t.Run("missing id fails before any write", func(t *testing.T) {
		_, err := heads.Update(ctx, "does-not-exist", CategoryFields{
			Name:  "Ghost",
			Image: ImageChoice{File: imageOfSize(MinImageSize)},
		})
		assert.ErrorIs(t, err, ErrHeadCategoryNotFound)
		assert.Empty(t, up.requests)

		var count int64
		db.Model(&models.HeadCategory{}).Where("name = ?", "Ghost").Count(&count)
		assert.Equal(t, int64(0), count)
	})

	t.Run("empty image choice keeps the image", func(t *testing.T) {
		id, err := heads.Update(ctx, head.ID, CategoryFields{Name: "Sports & Fitness", IsActive: boolPtr(false)})
		require.NoError(t, err)
		assert.Equal(t, head.ID, id)

		got, err := heads.Get(ctx, head.ID)
		require.NoError(t, err)
		assert.Equal(t, "Sports & Fitness", got.Name)
		assert.Equal(t, "sports-fitness", got.Slug)
		assert.False(t, got.IsActive)
		require.NotNil(t, got.ImageURL)
		assert.Equal(t, "https://cdn.example.com/old.png", *got.ImageURL)
	})

	t.Run("uploaded file replaces the image", func(t *testing.T) {
		_, err := heads.Update(ctx, head.ID, CategoryFields{Name: "Sports", Image: ImageChoice{File: imageOfSize(MinImageSize)}})
		require.NoError(t, err)

		got, err := heads.Get(ctx, head.ID)
		require.NoError(t, err)
		require.NotNil(t, got.ImageURL)
		assert.Equal(t, "https://cdn.example.com/new.png", *got.ImageURL)
	})

	t.Run("remove image clears it", func(t *testing.T) {
		_, err := heads.Update(ctx, head.ID, CategoryFields{Name: "Sports", Image: ImageChoice{Remove: true}})
		require.NoError(t, err)

		got, err := heads.Get(ctx, head.ID)
		require.NoError(t, err)
		assert.Nil(t, got.ImageURL)
	})

	t.Run("write matching zero rows is an error", func(t *testing.T) {
		require.NoError(t, db.Exec(`CREATE TRIGGER block_head_update BEFORE UPDATE ON head_categories
			BEGIN SELECT RAISE(IGNORE); END;`).Error)
		defer db.Exec("DROP TRIGGER block_head_update")

		_, err := heads.Update(ctx, head.ID, CategoryFields{Name: "Blocked"})
		assert.ErrorIs(t, err, ErrWriteNotApplied)
	})
}

func TestDeleteSubCategoryWithMicroChildIsBlocked(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	heads := NewHeadCategoryManager(db, nil)
	subs := NewSubCategoryManager(db, nil)
	micros := NewMicroCategoryManager(db, nil)

	head, err := heads.Create(ctx, "", CategoryFields{Name: "Electronics"})
	require.NoError(t, err)
	sub, err := subs.Create(ctx, head.ID, CategoryFields{Name: "Cables"})
	require.NoError(t, err)
	_, err = micros.Create(ctx, sub.ID, CategoryFields{Name: "USB-C Cables"})
	require.NoError(t, err)

	err = subs.Delete(ctx, sub.ID)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCategoryHasChildren)
	assert.Contains(t, err.Error(), "1")

	var conflict *ChildConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, int64(1), conflict.Count)
	assert.Equal(t, LevelMicro, conflict.ChildLevel)

	_, err = subs.Get(ctx, sub.ID)
	assert.NoError(t, err, "sub category must still exist")

	count, err := subs.ChildCount(ctx, sub.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	// Head is blocked by its sub category too
	err = heads.Delete(ctx, head.ID)
	assert.ErrorIs(t, err, ErrCategoryHasChildren)
}

func TestDeleteCategory(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	heads := NewHeadCategoryManager(db, nil)

	head, err := heads.Create(ctx, "", CategoryFields{Name: "Stationery"})
	require.NoError(t, err)

	require.NoError(t, heads.Delete(ctx, head.ID))
	_, err = heads.Get(ctx, head.ID)
	assert.ErrorIs(t, err, ErrHeadCategoryNotFound)

	assert.ErrorIs(t, heads.Delete(ctx, head.ID), ErrHeadCategoryNotFound)

	other, err := heads.Create(ctx, "", CategoryFields{Name: "Furniture"})
	require.NoError(t, err)
	require.NoError(t, db.Exec(`CREATE TRIGGER block_head_delete BEFORE DELETE ON head_categories
		BEGIN SELECT RAISE(IGNORE); END;`).Error)

	assert.ErrorIs(t, heads.Delete(ctx, other.ID), ErrWriteNotApplied)
}

func TestDeleteMicroCategoryRemovesMeta(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	micro := seedMicro(t, db)
	micros := NewMicroCategoryManager(db, nil)

	require.NoError(t, db.Create(&models.MicroCategoryMeta{MicroCategoryID: micro.ID, MetaTitle: "USB cables"}).Error)

	count, err := micros.ChildCount(ctx, micro.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)

	require.NoError(t, micros.Delete(ctx, micro.ID))

	var metas int64
	db.Model(&models.MicroCategoryMeta{}).Count(&metas)
	assert.Equal(t, int64(0), metas)
}

func TestDeleteMicroCategoryWithLegacyMetaColumn(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	micro := seedMicro(t, db)
	micros := NewMicroCategoryManager(db, nil)

	require.NoError(t, db.Exec("DROP TABLE micro_category_meta").Error)
	require.NoError(t, db.Exec("CREATE TABLE micro_category_meta (id TEXT PRIMARY KEY, micro_categories TEXT, meta_title TEXT)").Error)
	require.NoError(t, db.Exec("INSERT INTO micro_category_meta (id, micro_categories, meta_title) VALUES (?, ?, ?)", "m1", micro.ID, "legacy").Error)

	require.NoError(t, micros.Delete(ctx, micro.ID))

	var metas int64
	require.NoError(t, db.Raw("SELECT COUNT(*) FROM micro_category_meta").Scan(&metas).Error)
	assert.Equal(t, int64(0), metas)
}

func TestDeleteMicroCategoryWithoutMetaTable(t *testing.T) {
	db := setupTestDB(t)
	micro := seedMicro(t, db)
	require.NoError(t, db.Exec("DROP TABLE micro_category_meta").Error)

	micros := NewMicroCategoryManager(db, nil)
	require.NoError(t, micros.Delete(context.Background(), micro.ID))
}

func TestDeleteMicroMetaPropagatesOtherErrors(t *testing.T) {
	db := setupTestDB(t)
	err := deleteMicroMeta(context.Background(), db, "x", []string{"micro_category_id = 1 OR"})
	assert.Error(t, err)
}

func seedMicro(t *testing.T, db *gorm.DB) *models.MicroCategory {
	t.Helper()
	ctx := context.Background()

	head, err := NewHeadCategoryManager(db, nil).Create(ctx, "", CategoryFields{Name: "Electronics"})
	require.NoError(t, err)
	sub, err := NewSubCategoryManager(db, nil).Create(ctx, head.ID, CategoryFields{Name: "Cables"})
	require.NoError(t, err)
	micro, err := NewMicroCategoryManager(db, nil).Create(ctx, sub.ID, CategoryFields{Name: "USB Cables"})
	require.NoError(t, err)
	return micro
}
