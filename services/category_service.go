package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"marketplace_console_go/models"

	"gorm.io/gorm"
)

// CategoryLevel names one level of the taxonomy
type CategoryLevel string

const (
	LevelHead  CategoryLevel = "head"
	LevelSub   CategoryLevel = "sub"
	LevelMicro CategoryLevel = "micro"
)

// ParseCategoryLevel validates a level taken from a URL or request body
func ParseCategoryLevel(s string) (CategoryLevel, error) {
	switch CategoryLevel(strings.ToLower(strings.TrimSpace(s))) {
	case LevelHead:
		return LevelHead, nil
	case LevelSub:
		return LevelSub, nil
	case LevelMicro:
		return LevelMicro, nil
	}
	return "", ErrInvalidLevel
}

var (
	ErrHeadCategoryNotFound   = errors.New("head category not found")
	ErrSubCategoryNotFound    = errors.New("sub category not found")
	ErrMicroCategoryNotFound  = errors.New("micro category not found")
	ErrParentCategoryNotFound = errors.New("parent category not found")
	ErrParentRequired         = errors.New("parent category is required")
	ErrCategoryHasChildren    = errors.New("category has child categories")
)

// ChildConflictError blocks deleting a category that still has children
type ChildConflictError struct {
	Level      CategoryLevel
	ID         string
	ChildLevel CategoryLevel
	Count      int64
}

func (e *ChildConflictError) Error() string {
	noun := "categories"
	if e.Count == 1 {
		noun = "category"
	}
	return fmt.Sprintf("cannot delete %s category: it has %d %s %s; delete or move them first",
		e.Level, e.Count, e.ChildLevel, noun)
}

// Is lets callers match with errors.Is(err, ErrCategoryHasChildren)
func (e *ChildConflictError) Is(target error) bool {
	return target == ErrCategoryHasChildren
}

// metaLinkColumns are the columns that have linked micro_category_meta to
// micro_categories over the schema's history, newest last. Deletes try each in order.
var metaLinkColumns = []string{"micro_categories", "micro_category_id"}

// levelSchema describes the table layout of one level
type levelSchema struct {
	level          CategoryLevel
	table          string
	parentLevel    CategoryLevel
	parentTable    string
	parentColumn   string
	childLevel     CategoryLevel
	childTable     string
	childColumn    string
	hasDescription bool
	notFound       error
}

var (
	headSchema = levelSchema{
		level:          LevelHead,
		table:          "head_categories",
		childLevel:     LevelSub,
		childTable:     "sub_categories",
		childColumn:    "head_category_id",
		hasDescription: true,
		notFound:       ErrHeadCategoryNotFound,
	}
	subSchema = levelSchema{
		level:          LevelSub,
		table:          "sub_categories",
		parentLevel:    LevelHead,
		parentTable:    "head_categories",
		parentColumn:   "head_category_id",
		childLevel:     LevelMicro,
		childTable:     "micro_categories",
		childColumn:    "sub_category_id",
		hasDescription: true,
		notFound:       ErrSubCategoryNotFound,
	}
	microSchema = levelSchema{
		level:        LevelMicro,
		table:        "micro_categories",
		parentLevel:  LevelSub,
		parentTable:  "sub_categories",
		parentColumn: "sub_category_id",
		notFound:     ErrMicroCategoryNotFound,
	}
)

// CategoryFields is the submitted category form
type CategoryFields struct {
	Name        string
	Slug        string
	Description string
	IsActive    *bool
	Image       ImageChoice
}

// CategoryRecord is implemented by the three category models
type CategoryRecord interface {
	models.HeadCategory | models.SubCategory | models.MicroCategory
}

// CategoryManager is the CRUD surface for one taxonomy level.
// T is the level's model; the db handle is injected, never global.
type CategoryManager[T CategoryRecord] struct {
	db     *gorm.DB
	gate   *ImageGate
	schema levelSchema
	now    func() time.Time
}

func NewHeadCategoryManager(db *gorm.DB, gate *ImageGate) *CategoryManager[models.HeadCategory] {
	return &CategoryManager[models.HeadCategory]{db: db, gate: gate, schema: headSchema, now: time.Now}
}

func NewSubCategoryManager(db *gorm.DB, gate *ImageGate) *CategoryManager[models.SubCategory] {
	return &CategoryManager[models.SubCategory]{db: db, gate: gate, schema: subSchema, now: time.Now}
}

func NewMicroCategoryManager(db *gorm.DB, gate *ImageGate) *CategoryManager[models.MicroCategory] {
	return &CategoryManager[models.MicroCategory]{db: db, gate: gate, schema: microSchema, now: time.Now}
}

// Level returns the level this manager serves
func (m *CategoryManager[T]) Level() CategoryLevel {
	return m.schema.level
}

// List returns every row of the level ordered by name, optionally under one parent
func (m *CategoryManager[T]) List(ctx context.Context, parentID string) ([]T, error) {
	return m.list(ctx, parentID, false)
}

// ListActive is List restricted to is_active = true
func (m *CategoryManager[T]) ListActive(ctx context.Context, parentID string) ([]T, error) {
	return m.list(ctx, parentID, true)
}

func (m *CategoryManager[T]) list(ctx context.Context, parentID string, activeOnly bool) ([]T, error) {
	query := m.db.WithContext(ctx).Table(m.schema.table)
	if parentID != "" && m.schema.parentColumn != "" {
		query = query.Where(m.schema.parentColumn+" = ?", parentID)
	}
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}

	rows := []T{}
	if err := query.Order("name ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list %s categories: %w", m.schema.level, err)
	}
	return rows, nil
}

// Get loads one row or returns the level's not-found error
func (m *CategoryManager[T]) Get(ctx context.Context, id string) (*T, error) {
	var row T
	err := m.db.WithContext(ctx).Table(m.schema.table).Where("id = ?", id).Take(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, m.schema.notFound
		}
		return nil, fmt.Errorf("failed to load %s category: %w", m.schema.level, err)
	}
	return &row, nil
}

// Create validates the form, resolves the image and inserts one row
func (m *CategoryManager[T]) Create(ctx context.Context, parentID string, fields CategoryFields) (*T, error) {
	name, slug, description, err := m.cleanFields(fields)
	if err != nil {
		return nil, err
	}

	if m.schema.parentColumn != "" {
		parentID = strings.TrimSpace(parentID)
		if parentID == "" {
			return nil, NewValidationError("parent_id", ErrParentRequired.Error())
		}
		exists, err := m.exists(ctx, m.schema.parentTable, parentID)
		if err != nil {
			return nil, err
		}
		if !exists {
			return nil, ErrParentCategoryNotFound
		}
	}

	image, err := m.imageGate().Resolve(ctx, m.schema.level, slug, fields.Image)
	if err != nil {
		return nil, err
	}

	isActive := true
	if fields.IsActive != nil {
		isActive = *fields.IsActive
	}

	record := m.build(parentID, name, slug, description, image.URL, isActive)
	if err := m.db.WithContext(ctx).Create(record).Error; err != nil {
		if isUniqueViolation(err) {
			err = NewValidationError("slug", fmt.Sprintf("slug %q is already in use", slug))
		} else {
			err = fmt.Errorf("failed to create %s category: %w", m.schema.level, err)
		}
		return nil, m.discardImage(ctx, image, err)
	}
	return record, nil
}

// Update verifies the row exists, then applies the form in place.
// It returns the id of the row that was confirmed and updated.
func (m *CategoryManager[T]) Update(ctx context.Context, id string, fields CategoryFields) (string, error) {
	exists, err := m.exists(ctx, m.schema.table, id)
	if err != nil {
		return "", err
	}
	if !exists {
		return "", m.schema.notFound
	}

	name, slug, description, err := m.cleanFields(fields)
	if err != nil {
		return "", err
	}

	image, err := m.imageGate().Resolve(ctx, m.schema.level, slug, fields.Image)
	if err != nil {
		return "", err
	}

	updates := map[string]interface{}{
		"name":       name,
		"slug":       slug,
		"updated_at": m.now(),
	}
	if m.schema.hasDescription {
		updates["description"] = description
	}
	if fields.IsActive != nil {
		updates["is_active"] = *fields.IsActive
	}
	if image.Changed {
		updates["image_url"] = image.URL
	}

	result := m.db.WithContext(ctx).Table(m.schema.table).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		err := fmt.Errorf("failed to update %s category: %w", m.schema.level, result.Error)
		if isUniqueViolation(result.Error) {
			err = NewValidationError("slug", fmt.Sprintf("slug %q is already in use", slug))
		}
		return "", m.discardImage(ctx, image, err)
	}
	if result.RowsAffected == 0 {
		return "", m.discardImage(ctx, image, ErrWriteNotApplied)
	}
	return id, nil
}

// Delete removes a row that has no children. Micro rows drop their meta record first.
func (m *CategoryManager[T]) Delete(ctx context.Context, id string) error {
	exists, err := m.exists(ctx, m.schema.table, id)
	if err != nil {
		return err
	}
	if !exists {
		return m.schema.notFound
	}

	count, err := m.ChildCount(ctx, id)
	if err != nil {
		return err
	}
	if count > 0 {
		return &ChildConflictError{Level: m.schema.level, ID: id, ChildLevel: m.schema.childLevel, Count: count}
	}

	if m.schema.level == LevelMicro {
		if err := deleteMicroMeta(ctx, m.db, id, metaLinkColumns); err != nil {
			return err
		}
	}

	result := m.db.WithContext(ctx).Exec("DELETE FROM "+m.schema.table+" WHERE id = ?", id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete %s category: %w", m.schema.level, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrWriteNotApplied
	}
	return nil
}

// ChildCount counts direct children at the next level down. Micro categories have none.
func (m *CategoryManager[T]) ChildCount(ctx context.Context, id string) (int64, error) {
	if m.schema.childTable == "" {
		return 0, nil
	}
	var count int64
	err := m.db.WithContext(ctx).Table(m.schema.childTable).Where(m.schema.childColumn+" = ?", id).Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count %s categories: %w", m.schema.childLevel, err)
	}
	return count, nil
}

// exists probes a single column so a missing row is known before any write
func (m *CategoryManager[T]) exists(ctx context.Context, table, id string) (bool, error) {
	var ids []string
	err := m.db.WithContext(ctx).Table(table).Where("id = ?", id).Limit(1).Pluck("id", &ids).Error
	if err != nil {
		return false, fmt.Errorf("failed to look up %s: %w", table, err)
	}
	return len(ids) > 0, nil
}

func (m *CategoryManager[T]) cleanFields(fields CategoryFields) (name, slug, description string, err error) {
	var verrs ValidationErrors

	name = SanitizeName(fields.Name)
	if name == "" {
		verrs.Add("name", "name is required")
	}

	slug = SanitizeSlug(fields.Slug)
	if slug == "" {
		slug = SanitizeSlug(name)
	}
	if slug == "" && name != "" {
		verrs.Add("slug", "slug must contain letters or digits")
	}

	if m.schema.hasDescription {
		description = SanitizeDescription(fields.Description)
	}

	return name, slug, description, verrs.ErrOrNil()
}

func (m *CategoryManager[T]) imageGate() *ImageGate {
	if m.gate == nil {
		return NewImageGate(nil)
	}
	return m.gate
}

// discardImage removes an image uploaded for a write that failed with cause.
// cause stays the primary error either way.
func (m *CategoryManager[T]) discardImage(ctx context.Context, image ResolvedImage, cause error) error {
	if err := m.imageGate().Discard(ctx, image); err != nil {
		return errors.Join(cause, fmt.Errorf("failed to remove uploaded image %s: %w", image.Key, err))
	}
	return cause
}

// build creates the model value for this level
func (m *CategoryManager[T]) build(parentID, name, slug, description string, imageURL *string, isActive bool) *T {
	var record T
	switch r := any(&record).(type) {
	case *models.HeadCategory:
		*r = models.HeadCategory{Name: name, Slug: slug, Description: description, ImageURL: imageURL, IsActive: isActive}
	case *models.SubCategory:
		*r = models.SubCategory{HeadCategoryID: parentID, Name: name, Slug: slug, Description: description, ImageURL: imageURL, IsActive: isActive}
	case *models.MicroCategory:
		*r = models.MicroCategory{SubCategoryID: parentID, Name: name, Slug: slug, ImageURL: imageURL, IsActive: isActive}
	}
	return &record
}

// deleteMicroMeta removes the optional meta row of a micro category. Each candidate
// link column is tried in order; a column the schema lacks moves on to the next one,
// and a missing meta table means there is nothing to delete.
func deleteMicroMeta(ctx context.Context, db *gorm.DB, microID string, candidates []string) error {
	for _, column := range candidates {
		err := db.WithContext(ctx).Exec("DELETE FROM micro_category_meta WHERE "+column+" = ?", microID).Error
		switch {
		case err == nil:
			return nil
		case isMissingTableError(err):
			return nil
		case isMissingColumnError(err):
			continue
		default:
			return fmt.Errorf("failed to delete micro category meta: %w", err)
		}
	}
	return nil
}
