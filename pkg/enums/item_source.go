package enums

import "fmt"

// ItemSource tags the provenance of a library item.
type ItemSource string

const (
	ItemSourceOfficial ItemSource = "official"
	ItemSourceCustom   ItemSource = "custom"
	ItemSourceModified ItemSource = "modified"
)

var validItemSources = []ItemSource{
	ItemSourceOfficial,
	ItemSourceCustom,
	ItemSourceModified,
}

// String implements fmt.Stringer.
func (s ItemSource) String() string {
	return string(s)
}

// IsValid reports whether the value is a known ItemSource.
func (s ItemSource) IsValid() bool {
	for _, candidate := range validItemSources {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseItemSource converts raw input into an ItemSource.
func ParseItemSource(value string) (ItemSource, error) {
	for _, candidate := range validItemSources {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid item source %q", value)
}
