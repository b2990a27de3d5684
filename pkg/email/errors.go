package email

import "errors"

var (
	ErrInvalidConfig     = errors.New("email.errors.invalid_config")
	ErrFailedToSendEmail = errors.New("email.errors.failed_to_send_email")
)
