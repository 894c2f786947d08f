package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/supritimishra/FuelOne-1-sub007/internal/model"
	"gorm.io/gorm"
)

// Filter binds one query parameter to an equality condition on Column.
// Parse converts the raw value to the column type; nil keeps it a string.
type Filter struct {
	Column string
	Parse  func(string) (any, error)
}

// Filters maps query parameter names to filters
type Filters map[string]Filter

// Text filters a text or uuid column
func Text(column string) Filter {
	return Filter{Column: column}
}

// OnDate filters a date column by a YYYY-MM-DD value
func OnDate(column string) Filter {
	return Filter{Column: column, Parse: func(v string) (any, error) {
		return model.ParseDate(v)
	}}
}

// Flag filters a boolean column
func Flag(column string) Filter {
	return Filter{Column: column, Parse: func(v string) (any, error) {
		return strconv.ParseBool(v)
	}}
}

// Apply adds a condition for every filter present in the request query.
// Values that do not parse are rejected with 400.
func (f Filters) Apply(c echo.Context, query *gorm.DB) (*gorm.DB, error) {
	for param, filter := range f {
		raw := c.QueryParam(param)
		if raw == "" {
			continue
		}
		var value any = raw
		if filter.Parse != nil {
			parsed, err := filter.Parse(raw)
			if err != nil {
				return nil, echo.NewHTTPError(http.StatusBadRequest, "invalid "+param+" parameter")
			}
			value = parsed
		}
		query = query.Where(filter.Column+" = ?", value)
	}
	return query, nil
}
