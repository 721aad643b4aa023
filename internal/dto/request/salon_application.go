package request

type SalonApplicationRequest struct {
	SalonName         string   `json:"salon_name" validate:"required,min=1,max=100"`
	BusinessEmail     string   `json:"business_email" validate:"required,email"`
	Phone             string   `json:"phone" validate:"required,min=10,max=15"`
	Website           *string  `json:"website,omitempty" validate:"omitempty,url"`
	Address           string   `json:"address" validate:"required,max=200"`
	City              string   `json:"city" validate:"required,max=100"`
	State             string   `json:"state" validate:"required,max=100"`
	PostalCode        string   `json:"postal_code" validate:"required,max=20"`
	Services          []string `json:"services" validate:"omitempty,max=50,dive,min=1,max=100"`
	Description       string   `json:"description" validate:"required,min=10,max=2000"`
	YearsInBusiness   int      `json:"years_in_business" validate:"min=0,max=100"`
	StaffCount        int      `json:"staff_count" validate:"required,min=1,max=1000"`
	ApplicationReason *string  `json:"application_reason,omitempty" validate:"omitempty,max=2000"`
}

type ApplicationListQuery struct {
	PaginatedRequest
	Status string `json:"status" validate:"omitempty,oneof=pending approved rejected"`
}

type ReviewApplicationRequest struct {
	Notes *string `json:"notes,omitempty" validate:"omitempty,max=2000"`
}
