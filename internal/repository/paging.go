package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/nurpe/erp-console/internal/model"
)

// paginate counts the filtered query and loads one page of it. Preloads are
// applied to the page query only.
func paginate[T any](ctx context.Context, query *gorm.DB, q model.ListQuery, order string, preloads ...string) (*model.Page[T], error) {
	q = q.Normalize()

	var total int64
	if err := query.Session(&gorm.Session{}).WithContext(ctx).Count(&total).Error; err != nil {
		return nil, err
	}

	items := make([]T, 0, q.PageSize)
	if total > 0 {
		page := query.Session(&gorm.Session{}).WithContext(ctx)
		for _, preload := range preloads {
			page = page.Preload(preload)
		}
		if err := page.
			Order(order).
			Offset(q.Offset()).
			Limit(q.PageSize).
			Find(&items).Error; err != nil {
			return nil, err
		}
	}

	return &model.Page[T]{
		Items:    items,
		Total:    total,
		Page:     q.Page,
		PageSize: q.PageSize,
	}, nil
}

// likePattern escapes LIKE metacharacters and wraps the term for substring search.
func likePattern(search string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + replacer.Replace(strings.TrimSpace(search)) + "%"
}
