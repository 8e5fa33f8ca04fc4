// Package conflict implements schedule conflict detection for proposed class
// assignments. Evaluation is a pure function over the caller-supplied
// candidate set: the package performs no I/O and holds no state, so it is safe
// to call from concurrent form-edit sessions.
package conflict

// DayOfWeek enumerates the seven scheduling days.
type DayOfWeek string

const (
	Monday    DayOfWeek = "monday"
	Tuesday   DayOfWeek = "tuesday"
	Wednesday DayOfWeek = "wednesday"
	Thursday  DayOfWeek = "thursday"
	Friday    DayOfWeek = "friday"
	Saturday  DayOfWeek = "saturday"
	Sunday    DayOfWeek = "sunday"
)

// Valid reports whether d is one of the seven known days.
func (d DayOfWeek) Valid() bool {
	switch d {
	case Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday:
		return true
	}
	return false
}

// DeliveryMode distinguishes physical from remote class sessions.
type DeliveryMode string

const (
	InPerson DeliveryMode = "in-person"
	Remote   DeliveryMode = "remote"
)

// Valid reports whether m is a known delivery mode.
func (m DeliveryMode) Valid() bool {
	return m == InPerson || m == Remote
}

// Assignment is a single scheduled class occurrence as seen by the conflict
// engine. It is owned by the caller and treated as immutable input; the data
// layer builds one per schedule row.
type Assignment struct {
	ID             string
	InstructorID   string
	InstructorName string
	RoomID         string
	RoomCode       string
	SectionLabel   string
	SubjectCode    string
	Day            DayOfWeek
	StartTime      string
	EndTime        string
	Mode           DeliveryMode
	WeekKey        int64
}

// Report is the outcome of one evaluation. Reasons keeps discovery order and
// holds at most one message per conflict dimension key.
type Report struct {
	HasConflict bool     `json:"has_conflict"`
	Reasons     []string `json:"reasons"`
}
