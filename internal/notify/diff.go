package notify

// LikeChangeKind classifies the difference between two likes lists
type LikeChangeKind int

const (
	// NoChange means the list did not grow: a like was removed, nothing changed,
	// or one like was swapped for another.
	NoChange LikeChangeKind = iota
	// SingleAddition means exactly one new user id appeared.
	SingleAddition
	// Ambiguous means the list grew but not by exactly one new user id.
	Ambiguous
)

func (k LikeChangeKind) String() string {
	switch k {
	case NoChange:
		return "no_change"
	case SingleAddition:
		return "single_addition"
	case Ambiguous:
		return "ambiguous"
	default:
		return "unknown"
	}
}

// LikeChange is the result of DiffLikes. UserID is set only for SingleAddition.
type LikeChange struct {
	Kind   LikeChangeKind
	UserID string
}

// DiffLikes compares the likes of a post before and after an update.
// A list that did not grow is always NoChange, even if its members differ.
func DiffLikes(before, after []string) LikeChange {
	if len(after) <= len(before) {
		return LikeChange{Kind: NoChange}
	}

	seen := make(map[string]struct{}, len(before))
	for _, id := range before {
		seen[id] = struct{}{}
	}

	var added string
	found := false
	for _, id := range after {
		if _, ok := seen[id]; ok {
			continue
		}
		if found && added != id {
			return LikeChange{Kind: Ambiguous}
		}
		added, found = id, true
	}

	// An empty id names no user
	if !found || added == "" {
		return LikeChange{Kind: Ambiguous}
	}
	return LikeChange{Kind: SingleAddition, UserID: added}
}
