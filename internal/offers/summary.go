package offers

import (
	"fmt"
	"strconv"
	"strings"

	"sublet/rentals/internal/models"
)

const (
	summaryMessageLen = 50
	summaryDateLayout = "Jan 2, 2006"
)

// Summarize lists the human-readable lines of a pending request, always in the
// order price, dates, message. Dates and message lines appear only when set.
func Summarize(req *models.Request, listingPrice float64) []string {
	if req == nil {
		return nil
	}
	lines := make([]string, 0, 3)

	if co := req.CounterOffer; co != nil {
		lines = append(lines, fmt.Sprintf("Offer: %s/month (%s than the listed %s)",
			formatAmount(co.Amount), strings.ToLower(string(co.Type)), formatAmount(listingPrice)))
	} else {
		lines = append(lines, fmt.Sprintf("Offer: %s/month (listed price)", formatAmount(listingPrice)))
	}

	if d := req.PreferredDates; d != nil {
		lines = append(lines, fmt.Sprintf("Dates: %s - %s",
			d.StartDate.Format(summaryDateLayout), d.EndDate.Format(summaryDateLayout)))
	}

	if msg := strings.TrimSpace(req.Message); msg != "" {
		lines = append(lines, "Message: "+truncate(msg, summaryMessageLen))
	}
	return lines
}

func formatAmount(v float64) string {
	return "$" + strconv.FormatFloat(v, 'f', -1, 64)
}

// truncate shortens s to n runes, marking the cut with an ellipsis.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
