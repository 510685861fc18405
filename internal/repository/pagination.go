package repository

import "gorm.io/gorm"

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Page 分页参数，零值表示不分页
type Page struct {
	Page     int
	PageSize int
}

// NewPage 规范化分页参数：默认第1页、每页20条，最多100条
func NewPage(page, pageSize int) Page {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	return Page{Page: page, PageSize: pageSize}
}

// Offset 偏移量
func (p Page) Offset() int {
	if p.Page < 1 {
		return 0
	}
	return (p.Page - 1) * p.PageSize
}

// Apply 在查询上附加 LIMIT/OFFSET
func (p Page) Apply(db *gorm.DB) *gorm.DB {
	if p.PageSize <= 0 {
		return db
	}
	return db.Offset(p.Offset()).Limit(p.PageSize)
}
