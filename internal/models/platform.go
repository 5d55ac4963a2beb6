package models

import (
	"fmt"

	"github.com/harmonia-app/harmonia/internal/shared"
)

// Platform identifies an external streaming service integration point.
type Platform string

const (
	PlatformSpotify    Platform = "spotify"
	PlatformAppleMusic Platform = "apple_music"
)

// Platforms returns every supported platform in a stable order.
func Platforms() []Platform {
	return []Platform{PlatformSpotify, PlatformAppleMusic}
}

// ParsePlatform converts a wire-level platform name into a [Platform].
func ParsePlatform(name string) (Platform, error) {
	switch Platform(name) {
	case PlatformSpotify:
		return PlatformSpotify, nil
	case PlatformAppleMusic:
		return PlatformAppleMusic, nil
	default:
		return "", fmt.Errorf("%w: %q", shared.ErrUnknownPlatform, name)
	}
}

func (p Platform) String() string {
	return string(p)
}

// Valid reports whether p is a supported platform.
func (p Platform) Valid() bool {
	_, err := ParsePlatform(string(p))
	return err == nil
}
