package query

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// UintParam parses an integer path parameter. ok is false when the
// value is missing or not a positive integer.
func UintParam(c *gin.Context, name string) (uint, bool) {
	raw := c.Param(name)
	value, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || value == 0 {
		return 0, false
	}
	return uint(value), true
}

// UintQuery parses an optional integer query parameter. present is
// false when the parameter was not supplied; ok is false when it was
// supplied but malformed.
func UintQuery(c *gin.Context, name string) (value uint, present bool, ok bool) {
	raw := c.Query(name)
	if raw == "" {
		return 0, false, true
	}
	parsed, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || parsed == 0 {
		return 0, true, false
	}
	return uint(parsed), true, true
}

// ApplyIDFilters narrows a query by the id columns that were actually
// supplied. Both absent means no narrowing at all.
func ApplyIDFilters(db *gorm.DB, filters map[string]uint) *gorm.DB {
	for column, value := range filters {
		if value != 0 {
			db = db.Where(column+" = ?", value)
		}
	}
	return db
}
