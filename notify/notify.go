/*
Package notify posts submission notices to the company chat group.

PURPOSE:
  After a self-report is submitted, the chat bot pushes a summary to
  the group so everyone sees the report landed. Notification failure
  never fails a submission: the report is already stored, so the
  submit path logs and continues.

  The sink is an interface so the API layer does not care whether
  notifications go to LINE, to a test recorder, or nowhere at all
  (unconfigured deployments, or the admin toggle switched off).
*/
package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Entry is one employee's figure within a submission notice.
type Entry struct {
	Employee string
	Hours    decimal.Decimal
}

// Submission is the data a sink formats and delivers.
type Submission struct {
	Date        string // YYYY-MM-DD
	Category    string
	Entries     []Entry
	SubmittedAt time.Time
}

// Total sums the submission's hours.
func (s Submission) Total() decimal.Decimal {
	total := decimal.Zero
	for _, e := range s.Entries {
		total = total.Add(e.Hours)
	}
	return total
}

// Sink delivers submission notices.
type Sink interface {
	NotifySubmission(ctx context.Context, sub Submission) error
}

// Noop is a sink that delivers nothing. Used when the chat bot is not
// configured.
type Noop struct{}

func (Noop) NotifySubmission(context.Context, Submission) error { return nil }

var jst = time.FixedZone("JST", 9*60*60)

// FormatSubmission renders the group message for one submission.
func FormatSubmission(sub Submission) string {
	var b strings.Builder
	b.WriteString("📝 残業報告が届きました\n\n")
	fmt.Fprintf(&b, "📅 日付: %s\n", sub.Date)
	fmt.Fprintf(&b, "⏰ カテゴリ: %s\n\n", sub.Category)

	b.WriteString("👥 報告者:\n")
	for _, e := range sub.Entries {
		fmt.Fprintf(&b, "  • %s: %s時間\n", e.Employee, e.Hours.String())
	}

	fmt.Fprintf(&b, "\n合計: %s時間\n\n", sub.Total().StringFixed(1))
	fmt.Fprintf(&b, "報告時刻: %s", sub.SubmittedAt.In(jst).Format("2006/01/02 15:04:05"))
	return b.String()
}
