package notification

import "context"

// allowAllSettings is the default Settings: every type enabled.
type allowAllSettings struct{}

func (allowAllSettings) IsEnabled(ctx context.Context, notifType string) (bool, error) {
	return true, nil
}

// noOptOuts is the default Preferences: nobody opted out.
type noOptOuts struct{}

func (noOptOuts) IsOptedOut(ctx context.Context, recipient, notifType string) (bool, error) {
	return false, nil
}
