package mode

// Mode is the ranking strategy chosen for a query.
type Mode string

// Ranking mode constants, in selection priority order.
const (
	// Image ranks every item by embedding similarity to the query image.
	Image Mode = "image"
	// Text puts items whose text contains the full query first.
	Text Mode = "text"
	// Browse lists all items in catalog order.
	Browse Mode = "browse"
)

// Select picks the ranking mode for a query with the given inputs.
func Select(hasImage, hasText bool) Mode {
	switch {
	case hasImage:
		return Image
	case hasText:
		return Text
	default:
		return Browse
	}
}

// IsValid checks if the mode is one of the supported values.
func (m Mode) IsValid() bool {
	return m == Image || m == Text || m == Browse
}
