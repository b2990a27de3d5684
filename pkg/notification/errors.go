package notification

import "errors"

var (
	ErrEntryNotFound     = errors.New("notification.errors.log_entry_not_found")
	ErrTerminalState     = errors.New("notification.errors.terminal_state_immutable")
	ErrInvalidTransition = errors.New("notification.errors.invalid_status_transition")
	ErrInvalidMessage    = errors.New("notification.errors.invalid_message")
	ErrNoProvider        = errors.New("notification.errors.no_provider_for_channel")
	ErrStorageNil        = errors.New("notification.errors.storage_is_nil")
	ErrTemplateRepoNil   = errors.New("notification.errors.template_repository_is_nil")
	ErrEngineNil         = errors.New("notification.errors.template_engine_is_nil")
	ErrNoProviders       = errors.New("notification.errors.no_providers_configured")
)
