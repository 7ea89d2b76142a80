package enums

import "fmt"

// ContentType describes how the contents of one sellable package are measured.
type ContentType string

const (
	ContentTypeUnit   ContentType = "unit"
	ContentTypeWeight ContentType = "weight"
)

var validContentTypes = []ContentType{
	ContentTypeUnit,
	ContentTypeWeight,
}

// String implements fmt.Stringer.
func (c ContentType) String() string {
	return string(c)
}

// IsValid reports whether the value is a known ContentType.
func (c ContentType) IsValid() bool {
	for _, candidate := range validContentTypes {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseContentType converts raw input into a ContentType.
func ParseContentType(value string) (ContentType, error) {
	for _, candidate := range validContentTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid content type %q", value)
}
