package appointment

import (
	"fmt"
	"time"
)

const stampLayout = "Mon 2 Jan 2006 15:04"

func bookedText(patient string, start time.Time) string {
	return fmt.Sprintf("%s booked a session on %s.", patient, start.Format(stampLayout))
}

func canceledText(by string, start time.Time) string {
	return fmt.Sprintf("Your appointment on %s was canceled by %s.", start.Format(stampLayout), by)
}

func reminderText(with string, start time.Time) string {
	return fmt.Sprintf("Reminder: you have an appointment with %s on %s.", with, start.Format(stampLayout))
}

func documentText(patient string, start time.Time) string {
	return fmt.Sprintf("Your session with %s on %s is complete. Please add your notes.", patient, start.Format(stampLayout))
}
