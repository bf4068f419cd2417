package reconcile

import (
	"strings"

	"github.com/theirongolddev/tripspend/internal/model"
)

// Description markers written by the expense entry screens, e.g.
//
//	"Ha Long Bay cruise [Activity: tour-123] [Trip: Hanoi]"
const (
	activityMarker = "[Activity:"
	tripMarker     = "[Trip:"
)

// ParseDescription extracts the optional activity title and trip label from a
// free-text expense description. Malformed or partial markers leave the
// corresponding field nil; it never fails.
func ParseDescription(description string) model.DescriptionTag {
	var tag model.DescriptionTag
	if description == "" {
		return tag
	}

	if i := strings.Index(description, activityMarker); i >= 0 {
		if title := strings.TrimSpace(description[:i]); title != "" {
			tag.ActivityTitle = &title
		}
	}

	if i := strings.Index(description, tripMarker); i >= 0 {
		rest := description[i+len(tripMarker):]
		// Non-greedy: stop at the first closing bracket after the marker.
		if end := strings.IndexByte(rest, ']'); end >= 0 {
			if label := strings.TrimSpace(rest[:end]); label != "" {
				tag.TripLabel = &label
			}
		}
	}

	return tag
}

// Title returns the display title of an expense: the tagged activity title,
// else the raw description, else the category name. An activity marker with
// nothing before it also falls back to the category name.
func Title(e model.Expense) string {
	if e.Description == "" {
		return e.Category.DisplayName()
	}
	if tag := ParseDescription(e.Description); tag.ActivityTitle != nil {
		return *tag.ActivityTitle
	}
	if strings.Contains(e.Description, activityMarker) {
		return e.Category.DisplayName()
	}
	return e.Description
}
