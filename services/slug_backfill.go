package services

import (
	"context"
	"fmt"
	"strconv"

	"go.uber.org/zap"
)

// SlugChange is one row whose slug was (or would be) rewritten
type SlugChange struct {
	ID      string
	Name    string
	OldSlug string
	NewSlug string
}

// SlugReport summarizes a backfill run over one level
type SlugReport struct {
	Level   CategoryLevel
	Scanned int
	Changes []SlugChange
}

type slugRow struct {
	ID   string
	Name string
	Slug string
}

// BackfillSlugs rewrites every slug at this level that is empty or not in
// canonical form. The new slug is derived from the stored slug when it has
// usable characters, otherwise from the name, and gets a -1, -2... suffix
// while it collides with another row. With dryRun nothing is written.
func (m *CategoryManager[T]) BackfillSlugs(ctx context.Context, dryRun bool, logger *zap.Logger) (*SlugReport, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	var rows []slugRow
	err := m.db.WithContext(ctx).Table(m.schema.table).Select("id", "name", "slug").Order("created_at ASC").Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", m.schema.table, err)
	}

	report := &SlugReport{Level: m.schema.level, Scanned: len(rows)}

	taken := make(map[string]bool, len(rows))
	var pending []slugRow
	for _, row := range rows {
		if row.Slug != "" && SanitizeSlug(row.Slug) == row.Slug {
			taken[row.Slug] = true
			continue
		}
		pending = append(pending, row)
	}

	for _, row := range pending {
		base := SanitizeSlug(row.Slug)
		if base == "" {
			base = SanitizeSlug(row.Name)
		}
		if base == "" {
			base = string(m.schema.level) + "-category"
		}
		slug := uniqueSlug(base, taken)
		taken[slug] = true

		change := SlugChange{ID: row.ID, Name: row.Name, OldSlug: row.Slug, NewSlug: slug}
		if !dryRun {
			err := m.db.WithContext(ctx).Table(m.schema.table).Where("id = ?", row.ID).
				Updates(map[string]interface{}{"slug": slug, "updated_at": m.now()}).Error
			if err != nil {
				return report, fmt.Errorf("failed to update slug for %s %s: %w", m.schema.table, row.ID, err)
			}
		}
		logger.Info("slug backfilled",
			zap.String("level", string(m.schema.level)),
			zap.String("id", row.ID),
			zap.String("old", row.Slug),
			zap.String("new", slug),
			zap.Bool("dry_run", dryRun),
		)
		report.Changes = append(report.Changes, change)
	}

	return report, nil
}

// uniqueSlug appends -1, -2... to base until it is not in taken.
// The suffix always fits within MaxSlugLength.
func uniqueSlug(base string, taken map[string]bool) string {
	if !taken[base] {
		return base
	}
	for n := 1; ; n++ {
		suffix := "-" + strconv.Itoa(n)
		stem := base
		if len(stem)+len(suffix) > MaxSlugLength {
			stem = SanitizeSlug(stem[:MaxSlugLength-len(suffix)])
		}
		if candidate := stem + suffix; !taken[candidate] {
			return candidate
		}
	}
}
