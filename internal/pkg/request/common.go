package request

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

const (
	DateLayout      = "2006-01-02"
	TimeOfDayLayout = "15:04"

	defaultPageSize = 20
	maxPageSize     = 100
)

// ByIDRequest is a common struct for endpoints that require an ID path parameter.
type ByIDRequest struct {
	ID string `uri:"id" binding:"required,uuid"`
}

// ListParams holds the shared pagination query parameters.
type ListParams struct {
	Page     int `form:"page" binding:"omitempty,min=1"`
	PageSize int `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// Normalize fills in defaults for unset pagination values.
func (p *ListParams) Normalize() {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize < 1 {
		p.PageSize = defaultPageSize
	}
	if p.PageSize > maxPageSize {
		p.PageSize = maxPageSize
	}
}

var registerOnce sync.Once

// RegisterValidators adds the custom binding tags used by the DTOs:
//
//	hhmm     time of day as HH:MM or HH:MM:SS
//	weekday  calendar date YYYY-MM-DD falling on Monday..Friday
func RegisterValidators() error {
	var err error
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			err = fmt.Errorf("unexpected validator engine %T", binding.Validator.Engine())
			return
		}
		if err = v.RegisterValidation("hhmm", validateTimeOfDay); err != nil {
			return
		}
		err = v.RegisterValidation("weekday", validateWeekday)
	})
	return err
}

func validateTimeOfDay(fl validator.FieldLevel) bool {
	s := strings.TrimSpace(fl.Field().String())
	if _, err := time.Parse(TimeOfDayLayout, s); err == nil {
		return true
	}
	_, err := time.Parse("15:04:05", s)
	return err == nil
}

func validateWeekday(fl validator.FieldLevel) bool {
	d, err := time.Parse(DateLayout, strings.TrimSpace(fl.Field().String()))
	if err != nil {
		return false
	}
	wd := d.Weekday()
	return wd != time.Saturday && wd != time.Sunday
}
