package dto

// ConfigureCourseRequest updates the settings of a course. Nil fields are left unchanged.
type ConfigureCourseRequest struct {
	Credits          *int    `json:"credits" validate:"omitempty,min=1,max=10"`
	Alias            *string `json:"alias" validate:"omitempty,max=120"`
	Color            *string `json:"color" validate:"omitempty,hexcolor"`
	OverrideLmsSlots *bool   `json:"overrideLmsSlots"`
}

// CreateCustomCourseRequest adds a course the LMS does not know about.
type CreateCustomCourseRequest struct {
	Name    string `json:"name" validate:"required,max=120"`
	Credits int    `json:"credits" validate:"required,min=1,max=10"`
	Code    string `json:"code" validate:"omitempty,max=16"`
	Color   string `json:"color" validate:"omitempty,hexcolor"`
}
