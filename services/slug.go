package services

import "regexp"

const maxSlugLength = 255

var slugPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// ValidSlug accepts letters, digits, dash and underscore only.
func ValidSlug(slug string) bool {
	return len(slug) <= maxSlugLength && slugPattern.MatchString(slug)
}

// ResourceType selects which listing an activity detail is resolved through.
type ResourceType string

const (
	ResourcePage   ResourceType = "qr"
	ResourceBanner ResourceType = "ban"
)

func ParseResourceType(s string) (ResourceType, error) {
	switch ResourceType(s) {
	case ResourcePage, ResourceBanner:
		return ResourceType(s), nil
	}
	return "", ErrInvalidResourceType
}
