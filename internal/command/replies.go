package command

import (
	"fmt"

	"medremind-backend/internal/adherence"
)

// HelpText lists the supported commands.
const HelpText = "🤖 Commands:\n" +
	"ADD <MEDICINE> <HH:MM>\n" +
	"TAKEN\n" +
	"MISSED\n" +
	"STATUS\n" +
	"REPORT DAILY\n" +
	"REPORT WEEKLY"

const (
	replyTaken          = "✔ Dose recorded as TAKEN"
	replyMissed         = "⚠ Dose MISSED. Caregiver notified"
	replyNoHistory      = "No medication history found"
	replyNoDataToday    = "No medication data for today"
	replyNoDataThisWeek = "No medication data for this week"
)

func formatError(line string) string {
	return fmt.Sprintf("❌ Format error in:\n%s\nUse: ADD <MEDICINE> <HH:MM>", line)
}

func invalidTime(line string) string {
	return fmt.Sprintf("❌ Invalid time in:\n%s\nUse HH:MM (24-hour)", line)
}

func internalError(line string) string {
	return fmt.Sprintf("⚠ Something went wrong while processing:\n%s\nPlease try again later.", line)
}

func scheduled(medicine, timeStr string) string {
	return fmt.Sprintf("✅ %s scheduled at %s", medicine, timeStr)
}

// CaregiverAlert is the body sent to the caregiver on a missed dose.
func CaregiverAlert(identity string) string {
	return fmt.Sprintf("🚨 Medication Alert!\nPatient: %s\nStatus: MISSED DOSE", identity)
}

func statusReply(r adherence.Report) string {
	if !r.Defined {
		return replyNoHistory
	}
	return fmt.Sprintf("📊 Adherence: %d%%", r.Percent)
}

func dailyReply(r adherence.Report) string {
	if !r.Defined {
		return replyNoDataToday
	}
	return fmt.Sprintf("📅 Daily Report (%s)\nTaken: %d\nTotal: %d\nAdherence: %d%%", r.Start, r.Taken, r.Total, r.Percent)
}

func weeklyReply(r adherence.Report) string {
	if !r.Defined {
		return replyNoDataThisWeek
	}
	return fmt.Sprintf("📆 Weekly Report (Last 7 Days)\nTaken: %d\nTotal: %d\nAdherence: %d%%", r.Taken, r.Total, r.Percent)
}
