package models

// CourseVisibility is the result of resolving an academic identity against
// the curriculum graph. It is a tagged variant: either no filter applies at
// all (guests, users without an academic identity) or a concrete, possibly
// empty, set of visible course IDs. An empty filtered set means an empty
// feed, never an unfiltered one — collapsing the two is the classic bug
// this type exists to prevent.
type CourseVisibility struct {
	unfiltered bool
	ids        map[string]struct{}
}

// UnfilteredVisibility returns the no-filter sentinel.
func UnfilteredVisibility() CourseVisibility {
	return CourseVisibility{unfiltered: true}
}

// FilteredVisibility returns a visibility limited to the given course IDs.
// Duplicates are collapsed.
func FilteredVisibility(courseIDs []string) CourseVisibility {
	ids := make(map[string]struct{}, len(courseIDs))
	for _, id := range courseIDs {
		ids[id] = struct{}{}
	}
	return CourseVisibility{ids: ids}
}

// Unfiltered reports whether no course filter applies.
func (v CourseVisibility) Unfiltered() bool {
	return v.unfiltered
}

// Empty reports whether the filter is present but matches nothing.
func (v CourseVisibility) Empty() bool {
	return !v.unfiltered && len(v.ids) == 0
}

// Contains reports whether the course is visible. Always true when
// unfiltered.
func (v CourseVisibility) Contains(courseID string) bool {
	if v.unfiltered {
		return true
	}
	_, ok := v.ids[courseID]
	return ok
}

// CourseIDs returns the filtered set as a slice. Nil when unfiltered.
func (v CourseVisibility) CourseIDs() []string {
	if v.unfiltered {
		return nil
	}
	out := make([]string, 0, len(v.ids))
	for id := range v.ids {
		out = append(out, id)
	}
	return out
}

// Len returns the size of the filtered set, 0 when unfiltered.
func (v CourseVisibility) Len() int {
	return len(v.ids)
}

// AcademicIdentity carries the program/degree/specialization selections a
// visibility resolution is keyed on. Nil fields mean "not selected".
type AcademicIdentity struct {
	ProgramID        *string
	MastersDegreeID  *string
	SpecializationID *string
}

// Blank reports whether no selection is present at all.
func (a AcademicIdentity) Blank() bool {
	return a.ProgramID == nil && a.MastersDegreeID == nil && a.SpecializationID == nil
}
