// Package age formats a patient's age for display on case pages and
// documents.
package age

import (
	"fmt"
	"time"
)

// InvalidDOB is returned by Display when the birth date lies after the
// reference date.
const InvalidDOB = "Invalid DOB"

// Display returns a human readable age for dob as of ref. Only the calendar
// day of each value is considered.
//
// Patients younger than one year are shown in months, patients under five in
// years and months, everyone else in whole years.
func Display(dob, ref time.Time) string {
	dy, dm, dd := dob.Date()
	ry, rm, rd := ref.Date()

	if dy > ry || (dy == ry && (dm > rm || (dm == rm && dd > rd))) {
		return InvalidDOB
	}

	months := (ry-dy)*12 + int(rm-dm)
	if rd < dd {
		months--
	}
	if months < 0 {
		months = 0
	}

	years := ry - dy
	if rm < dm || (rm == dm && rd < dd) {
		years--
	}

	switch {
	case years < 1:
		return fmt.Sprintf("%d months", months)
	case years < 5:
		return fmt.Sprintf("%d years %d months", years, months-years*12)
	default:
		return fmt.Sprintf("%d years", years)
	}
}
