package conflict

import (
	"fmt"
	"strings"
)

// rule inspects a proposed/existing pair already known to share week, day and
// an overlapping interval. It returns a dedup key and a human-readable message
// when the dimension applies.
type rule func(proposed, existing Assignment) (key, message string, ok bool)

// rules are evaluated in a fixed order so reports are reproducible.
var rules = [...]rule{instructorRule, roomRule, sectionRule}

// instructorRule flags double-booked instructors. It applies to every delivery
// mode since an instructor cannot attend two sessions at once, physical or
// virtual.
func instructorRule(proposed, existing Assignment) (string, string, bool) {
	if proposed.InstructorID == "" || proposed.InstructorID != existing.InstructorID {
		return "", "", false
	}
	msg := fmt.Sprintf("Professor %s is already teaching %s on %s from %s to %s",
		displayName(existing), describeMode(existing.Mode), existing.Day, existing.StartTime, existing.EndTime)
	return "instructor-" + proposed.InstructorID, msg, true
}

// roomRule flags double-booked rooms. Remote sessions consume no physical
// room, so both sides must be in-person and reference the same room.
func roomRule(proposed, existing Assignment) (string, string, bool) {
	if proposed.Mode != InPerson || existing.Mode != InPerson {
		return "", "", false
	}
	if proposed.RoomID == "" || proposed.RoomID != existing.RoomID {
		return "", "", false
	}
	msg := fmt.Sprintf("Room %s is already booked on %s from %s to %s",
		roomName(existing), existing.Day, existing.StartTime, existing.EndTime)
	return "room-" + proposed.RoomID, msg, true
}

// sectionRule flags a section attending two sessions of the same delivery
// mode. A hybrid pattern, one in-person and one remote, is allowed. Blank
// labels opt the assignment out of section checks entirely.
func sectionRule(proposed, existing Assignment) (string, string, bool) {
	if proposed.Mode != existing.Mode {
		return "", "", false
	}
	section := strings.TrimSpace(proposed.SectionLabel)
	if section == "" || section != strings.TrimSpace(existing.SectionLabel) {
		return "", "", false
	}
	msg := fmt.Sprintf("Section %s already has %s (%s) on %s from %s to %s",
		section, describeMode(existing.Mode), existing.SubjectCode, existing.Day, existing.StartTime, existing.EndTime)
	return fmt.Sprintf("section-%s-%s", section, proposed.Mode), msg, true
}

func describeMode(m DeliveryMode) string {
	if m == Remote {
		return "a remote class"
	}
	return "an in-person class"
}

func displayName(a Assignment) string {
	if a.InstructorName != "" {
		return a.InstructorName
	}
	return a.InstructorID
}

func roomName(a Assignment) string {
	if a.RoomCode != "" {
		return a.RoomCode
	}
	return a.RoomID
}
