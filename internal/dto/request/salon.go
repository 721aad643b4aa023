package request

type CreateSalonRequest struct {
	OwnerID     string  `json:"owner_id" validate:"required,uuid4"`
	Name        string  `json:"name" validate:"required,min=1,max=100"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=1000"`
	Address     string  `json:"address" validate:"required,max=200"`
	City        string  `json:"city" validate:"required,max=100"`
	Phone       *string `json:"phone,omitempty" validate:"omitempty,min=10,max=15"`
	Email       *string `json:"email,omitempty" validate:"omitempty,email"`
}

type UpdateSalonRequest struct {
	Name        *string `json:"name,omitempty" validate:"omitempty,min=1,max=100"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=1000"`
	Address     *string `json:"address,omitempty" validate:"omitempty,max=200"`
	City        *string `json:"city,omitempty" validate:"omitempty,max=100"`
	Phone       *string `json:"phone,omitempty" validate:"omitempty,min=10,max=15"`
	Email       *string `json:"email,omitempty" validate:"omitempty,email"`
	IsActive    *bool   `json:"is_active,omitempty"`
}

type ServiceRequest struct {
	Name            string  `json:"name" validate:"required,min=1,max=100"`
	Description     *string `json:"description,omitempty" validate:"omitempty,max=500"`
	Price           float64 `json:"price" validate:"required,gt=0"`
	DurationMinutes int     `json:"duration" validate:"required,min=15,max=480"`
}

type UpdateServiceRequest struct {
	Name            *string  `json:"name,omitempty" validate:"omitempty,min=1,max=100"`
	Description     *string  `json:"description,omitempty" validate:"omitempty,max=500"`
	Price           *float64 `json:"price,omitempty" validate:"omitempty,gt=0"`
	DurationMinutes *int     `json:"duration,omitempty" validate:"omitempty,min=15,max=480"`
	IsActive        *bool    `json:"is_active,omitempty"`
}

type SalonListQuery struct {
	PaginatedRequest
	City   string `json:"city" validate:"omitempty,max=100"`
	Search string `json:"search" validate:"omitempty,max=100"`
}
