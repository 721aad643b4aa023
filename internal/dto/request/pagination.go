package request

import "salon-booking/pkg/utils"

const (
	DefaultPerPage = 20
	MaxPerPage     = 100
)

// PaginatedRequest carries page/per_page from list endpoints.
type PaginatedRequest struct {
	Page    int `json:"page" validate:"omitempty,min=1"`
	PerPage int `json:"per_page" validate:"omitempty,min=1,max=100"`
}

func (p PaginatedRequest) Limit() int {
	return utils.ClampLimit(p.PerPage, DefaultPerPage, MaxPerPage)
}

func (p PaginatedRequest) Offset() int {
	return utils.CalculateOffset(p.Page, p.Limit())
}
