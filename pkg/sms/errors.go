package sms

import "errors"

var (
	ErrInvalidConfig    = errors.New("sms.errors.invalid_config")
	ErrFailedToSendSMS  = errors.New("sms.errors.failed_to_send_sms")
	ErrInvalidRecipient = errors.New("sms.errors.invalid_recipient")
)
