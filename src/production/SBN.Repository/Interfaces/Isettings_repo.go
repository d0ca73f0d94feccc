package interfaces

import (
	"context"

	sbnmodels "gitlab.com/binsense1/sbn.bin_server/src/production/SBN.Models"
)

type SettingsRepository interface {
	// GetSetting returns (nil, nil) for a missing key
	GetSetting(ctx context.Context, key string) (*sbnmodels.SystemSetting, error)

	// UpsertSetting creates or replaces a key/value row
	UpsertSetting(ctx context.Context, setting sbnmodels.SystemSetting) error
}
