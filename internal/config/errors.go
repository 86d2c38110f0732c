package config

import (
	"errors"
)

var (
	// ErrInvalid is wrapped by every validation failure.
	ErrInvalid = errors.New("config: invalid setting")

	// ErrUnknownSetting is returned for keys no section defines.
	ErrUnknownSetting = errors.New("config: unknown setting")

	// ErrNotWatching is returned by HandleReady before Watch.
	ErrNotWatching = errors.New("config: not watching")
)
