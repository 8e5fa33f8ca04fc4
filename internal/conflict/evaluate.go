package conflict

// Evaluate checks a proposed assignment against every known assignment and
// reports each distinct clash found. Candidates outside the proposed week and
// day, the record named by excludeID (self, when editing) and candidates whose
// interval does not overlap the proposal are skipped. A found conflict is a
// normal result, not an error; the only error condition is a time string that
// fails to parse, which indicates a caller bug.
func Evaluate(proposed Assignment, candidates []Assignment, excludeID string) (Report, error) {
	if _, err := ParseClock(proposed.StartTime); err != nil {
		return Report{}, err
	}
	if _, err := ParseClock(proposed.EndTime); err != nil {
		return Report{}, err
	}

	report := Report{}
	seen := make(map[string]struct{})

	for _, existing := range candidates {
		if existing.ID == excludeID && excludeID != "" {
			continue
		}
		if existing.WeekKey != proposed.WeekKey || existing.Day != proposed.Day {
			continue
		}

		overlap, err := Overlap(existing.StartTime, existing.EndTime, proposed.StartTime, proposed.EndTime)
		if err != nil {
			return Report{}, err
		}
		if !overlap {
			continue
		}

		for _, apply := range rules {
			key, message, ok := apply(proposed, existing)
			if !ok {
				continue
			}
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			report.Reasons = append(report.Reasons, message)
		}
	}

	report.HasConflict = len(report.Reasons) > 0
	return report, nil
}
