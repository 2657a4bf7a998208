package models

// Group is the unit of settlement. People, expenses and settlements all
// belong to exactly one group.
type Group struct {
	// ID is the unique identifier for the group (UUID format).
	ID string

	// Name is the display name of the group (e.g., "Roommates", "Ski Trip").
	Name string

	// OwnerID is the user who created the group.
	OwnerID string

	// MemberIDs are users other than the owner who may read and settle the group.
	MemberIDs []string

	// CreatedAt is the Unix timestamp when the group was created.
	CreatedAt int64
}

// HasAccess reports whether userID is the owner or a member of the group.
func (g *Group) HasAccess(userID string) bool {
	if userID == "" {
		return false
	}
	if g.OwnerID == userID {
		return true
	}
	for _, id := range g.MemberIDs {
		if id == userID {
			return true
		}
	}
	return false
}
