package care

// ComputeInitialDueDate returns the first due date for a reminder starting on
// start. Weekly and biweekly reminders with a preferred weekday move forward
// to the first matching day on or after start; every other case returns
// start unchanged.
func ComputeInitialDueDate(start Date, freq Frequency, preferred Weekday) Date {
	if !freq.UsesWeekday() {
		return start
	}
	want, ok := preferred.Time()
	if !ok {
		return start
	}

	offset := int(want) - int(start.Weekday())
	if offset < 0 {
		offset += 7
	}
	return start.AddDays(offset)
}

// AdvanceDueDate returns the due date following a completion on completed.
// Month and year steps clamp the day of month. Unknown frequencies advance
// by a week so a reminder never gets stuck.
func AdvanceDueDate(completed Date, freq Frequency) Date {
	switch freq {
	case Daily:
		return completed.AddDays(1)
	case Every3Days:
		return completed.AddDays(3)
	case Weekly:
		return completed.AddDays(7)
	case Biweekly:
		return completed.AddDays(14)
	case Monthly:
		return completed.AddMonths(1)
	case Quarterly:
		return completed.AddMonths(3)
	case SixMonthly:
		return completed.AddMonths(6)
	case Yearly:
		return completed.AddYears(1)
	case Biannually:
		return completed.AddYears(2)
	default:
		return completed.AddDays(7)
	}
}
