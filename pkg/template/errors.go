package template

import "errors"

var (
	ErrMissingVariable   = errors.New("template.errors.missing_required_variable")
	ErrInvalidProfile    = errors.New("template.errors.invalid_business_profile")
	ErrProfileNotFound   = errors.New("template.errors.business_profile_not_found")
	ErrEmptyBodyTemplate = errors.New("template.errors.empty_body_template")
)
