package user

import (
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/shule/core"
)

// NewUser contains information needed to create a new User.
type NewUser struct {
	Name     string `json:"name" validate:"required,min=2"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Role     string `json:"role" validate:"required,oneof=Teacher Student"`
	Section  string `json:"section"`
}

func (nu *NewUser) Validate(validate *validator.Validate, svc *Service) error {
	nu.Name = core.CleanString(nu.Name)
	nu.Email = core.CleanString(nu.Email, true /* lower */)
	nu.Section = core.CleanString(nu.Section)

	if err := validate.Struct(nu); err != nil {
		return err
	}
	return svc.CheckEmailUniqueness(nu.Email)
}

// UpdateUser defines what information may be provided to modify an existing User.
// Zero-value fields are left unchanged; Section uses a pointer so it can be cleared.
type UpdateUser struct {
	Name     string  `json:"name" validate:"omitempty,min=2"`
	Email    string  `json:"email" validate:"omitempty,email"`
	Password string  `json:"password" validate:"omitempty,min=6"`
	Section  *string `json:"section"`
}

func (uu *UpdateUser) Validate(origUsr User, validate *validator.Validate, svc *Service) error {
	uu.Name = core.CleanString(uu.Name)
	uu.Email = core.CleanString(uu.Email, true /* lower */)
	if uu.Section != nil {
		section := core.CleanString(*uu.Section)
		uu.Section = &section
	}

	if err := validate.Struct(uu); err != nil {
		return err
	}
	if uu.Email != "" && uu.Email != origUsr.Email {
		return svc.CheckEmailUniqueness(uu.Email, origUsr)
	}
	return nil
}
