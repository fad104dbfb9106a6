package types

import (
	"regexp"
	"strings"
)

// Session codes are 6 uppercase alphanumerics; compiled once at package init.
var sessionCodeRegex = regexp.MustCompile(`^[A-Z0-9]{6}$`)

// NamedBackgrounds are the built-in background themes clients can render
// without a URL.
var NamedBackgrounds = []string{
	"BloomingGarden",
	"LighthouseOcean",
	"SaturnHula",
	"ClimbingCube",
}

// DefaultBackground is applied to freshly created sessions.
const DefaultBackground = "BloomingGarden"

// CustomBackgroundPrefix tags backgrounds that are raw URLs rather than named
// themes.
const CustomBackgroundPrefix = "custom:"

// IsValidSessionCode checks the 6-character uppercase alphanumeric format.
func IsValidSessionCode(code string) bool {
	return sessionCodeRegex.MatchString(code)
}

// IsValidMode checks that a raw mode string is one of the two timer modes.
func IsValidMode(mode string) bool {
	return mode == string(ModeFocus) || mode == string(ModeBreak)
}

// IsValidBackground accepts a named theme or a non-empty custom URL.
func IsValidBackground(bg string) bool {
	if strings.HasPrefix(bg, CustomBackgroundPrefix) {
		return len(bg) > len(CustomBackgroundPrefix)
	}
	for _, name := range NamedBackgrounds {
		if bg == name {
			return true
		}
	}
	return false
}
