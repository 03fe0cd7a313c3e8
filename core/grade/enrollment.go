package grade

// RefField names a denormalized back-reference collection on User.
type RefField string

const (
	RefAssigned RefField = "assigned_grade_ids" // Teacher → classes taught
	RefEnrolled RefField = "enrolled_grade_ids" // Student → classes attended
)

// Deltas is the exact set of back-reference updates a membership
// replacement requires: Add gains the grade ID, Remove loses it.
type Deltas struct {
	Add    []string
	Remove []string
}

func (d Deltas) IsEmpty() bool { return len(d.Add) == 0 && len(d.Remove) == 0 }

// MembershipDeltas computes the back-reference sweep for a wholesale
// membership replacement. newMembers is the replacement member set;
// currentHolders are the users currently carrying the back-reference.
// Users in both sets need no update.
func MembershipDeltas(newMembers, currentHolders []string) Deltas {
	newSet := make(map[string]struct{}, len(newMembers))
	for _, id := range newMembers {
		newSet[id] = struct{}{}
	}
	holderSet := make(map[string]struct{}, len(currentHolders))
	for _, id := range currentHolders {
		holderSet[id] = struct{}{}
	}

	var d Deltas
	for _, id := range newMembers {
		if _, ok := holderSet[id]; !ok {
			d.Add = append(d.Add, id)
		}
	}
	for _, id := range currentHolders {
		if _, ok := newSet[id]; !ok {
			d.Remove = append(d.Remove, id)
		}
	}
	return d
}
