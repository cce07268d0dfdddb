package syncstore

import "strings"

// Messages are the user-facing texts a store emits.
type Messages struct {
	LoadFailed   string
	FilterFailed string

	CreateUnauthenticated string
	Created               string
	CreateFailed          string

	UpdateUnauthenticated string
	Updated               string
	UpdateFailed          string

	RemoveUnauthenticated string
	Removed               string
	RemoveFailed          string
}

// DefaultMessages builds the standard texts for a resource, e.g.
// DefaultMessages("application", "applications").
func DefaultMessages(singular, plural string) Messages {
	title := singular
	if title != "" {
		title = strings.ToUpper(title[:1]) + title[1:]
	}
	return Messages{
		LoadFailed:            "Failed to load " + plural,
		FilterFailed:          "Failed to filter " + plural,
		CreateUnauthenticated: "Authentication required to add " + plural,
		Created:               title + " created successfully",
		CreateFailed:          "Failed to create " + singular,
		UpdateUnauthenticated: "Authentication required to update " + plural,
		Updated:               title + " updated successfully",
		UpdateFailed:          "Failed to update " + singular,
		RemoveUnauthenticated: "Authentication required to delete " + plural,
		Removed:               title + " deleted successfully",
		RemoveFailed:          "Failed to delete " + singular,
	}
}
