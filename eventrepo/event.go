package eventrepo

import (
	"slices"
	"strconv"
	"strings"
)

const attendeeTokenPrefix = "att_"

// Event is a record of the event store together with its current attendee set.
type Event struct {
	ID        EventID
	StartTime StartTime
	Attendees AttendeeSet
}

/***** AttendeeSet *****/

// AttendeeSet is an immutable set of attendee ids.
//
// The ids are kept sorted and free of duplicates, which gives a deterministic
// order for join aliasing and for serialization.
type AttendeeSet struct {
	ids []AttendeeID
}

// NewAttendeeSet builds an AttendeeSet from the given ids.
//
// It sanitizes the input:
//   - sorting the ids
//   - removing duplicate ids
func NewAttendeeSet(ids ...AttendeeID) AttendeeSet {
	if len(ids) == 0 {
		return AttendeeSet{}
	}

	sorted := slices.Clone(ids)
	slices.Sort(sorted)

	return AttendeeSet{ids: slices.Compact(sorted)}
}

// IDs returns a copy of the sorted attendee ids.
func (s AttendeeSet) IDs() []AttendeeID {
	return slices.Clone(s.ids)
}

func (s AttendeeSet) Len() int {
	return len(s.ids)
}

func (s AttendeeSet) IsEmpty() bool {
	return len(s.ids) == 0
}

func (s AttendeeSet) Contains(id AttendeeID) bool {
	_, found := slices.BinarySearch(s.ids, id)
	return found
}

// ContainsAll reports whether s is a superset of other.
func (s AttendeeSet) ContainsAll(other AttendeeSet) bool {
	for _, id := range other.ids {
		if !s.Contains(id) {
			return false
		}
	}

	return true
}

func (s AttendeeSet) Equal(other AttendeeSet) bool {
	return slices.Equal(s.ids, other.ids)
}

func (s AttendeeSet) String() string {
	parts := make([]string, len(s.ids))
	for i, id := range s.ids {
		parts[i] = strconv.FormatInt(id, 10)
	}

	return "{" + strings.Join(parts, ",") + "}"
}

/***** Token serialization *****/

// AttendeeToken returns the token used for the attendee in the serialized attendee column.
func AttendeeToken(id AttendeeID) string {
	return attendeeTokenPrefix + strconv.FormatInt(id, 10)
}

// SerializeAttendees renders the set as space separated tokens, e.g. "att_1 att_3".
func SerializeAttendees(s AttendeeSet) string {
	tokens := make([]string, len(s.ids))
	for i, id := range s.ids {
		tokens[i] = AttendeeToken(id)
	}

	return strings.Join(tokens, " ")
}

// ParseAttendees is the inverse of SerializeAttendees. Unknown tokens are skipped.
func ParseAttendees(serialized string) AttendeeSet {
	fields := strings.Fields(serialized)
	ids := make([]AttendeeID, 0, len(fields))

	for _, field := range fields {
		raw, ok := strings.CutPrefix(field, attendeeTokenPrefix)
		if !ok {
			continue
		}

		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			continue
		}

		ids = append(ids, id)
	}

	return NewAttendeeSet(ids...)
}
