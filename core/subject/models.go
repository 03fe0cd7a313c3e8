package subject

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/shule/core"
)

type Subject struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"` // UTC
	UpdatedAt   time.Time `json:"updated_at"` // UTC
}

// NewSubject contains information needed to create a new Subject.
type NewSubject struct {
	Name        string `json:"name" validate:"required,min=2"`
	Description string `json:"description"`
}

func (ns *NewSubject) Validate(validate *validator.Validate, svc *Service) error {
	ns.Name = core.CleanString(ns.Name)
	ns.Description = core.CleanString(ns.Description)

	if err := validate.Struct(ns); err != nil {
		return err
	}
	return svc.CheckNameUniqueness(ns.Name)
}

// UpdateSubject defines what information may be provided to modify an existing Subject.
type UpdateSubject struct {
	Name        string  `json:"name" validate:"omitempty,min=2"`
	Description *string `json:"description"`
}

func (us *UpdateSubject) Validate(origSubj Subject, validate *validator.Validate, svc *Service) error {
	us.Name = core.CleanString(us.Name)
	if us.Description != nil {
		desc := core.CleanString(*us.Description)
		us.Description = &desc
	}

	if err := validate.Struct(us); err != nil {
		return err
	}
	if us.Name != "" && us.Name != origSubj.Name {
		return svc.CheckNameUniqueness(us.Name, origSubj)
	}
	return nil
}
