package orchestrators

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"strings"

	"retain/internal/adapters/email"
	"retain/internal/adapters/storage"
	"retain/internal/application/reconcile"
	"retain/internal/domain/expiration"
	"retain/internal/domain/note"
)

// ExpirationSourceForReminders defines the read interface needed by SendReminders.
type ExpirationSourceForReminders interface {
	List(ctx context.Context) ([]expiration.Record, error)
}

// SendRemindersInput carries input for the reminder digest orchestrator.
type SendRemindersInput struct {
	Recipients []string
	From       string
}

// SendRemindersDeps holds dependencies for SendReminders.
type SendRemindersDeps struct {
	Expirations ExpirationSourceForReminders
	Notes       storage.RowTable
	Sender      email.Sender
}

// SendRemindersResult reports what the digest covered.
type SendRemindersResult struct {
	HighPriority int
	MessageID    string
}

var ErrNoRecipients = errors.New("at least one recipient is required")

// ExecuteSendReminders emails a digest of the high-priority expirations to the
// configured recipients. Members whose note is already marked Renewed are left
// out of the digest.
// PRE: At least one recipient address
// POST: One email sent; an empty digest sends nothing and succeeds
func ExecuteSendReminders(ctx context.Context, input SendRemindersInput, deps SendRemindersDeps) (SendRemindersResult, error) {
	if len(input.Recipients) == 0 {
		return SendRemindersResult{}, ErrNoRecipients
	}

	records, err := deps.Expirations.List(ctx)
	if err != nil {
		return SendRemindersResult{}, err
	}

	header, rows, err := deps.Notes.List(ctx)
	if err != nil {
		header, rows = nil, nil
	}
	now := timeNow()
	combined := reconcile.Reconcile(records, reconcile.DecodeNotes(header, rows), now)

	var due []reconcile.Combined
	for _, c := range combined {
		if c.Note.Priority != note.PriorityHigh {
			continue
		}
		if c.Note.Status == "Renewed" {
			continue
		}
		due = append(due, c)
	}
	if len(due) == 0 {
		slog.Info("reminder_event", "event", "digest_empty")
		return SendRemindersResult{}, nil
	}

	var b strings.Builder
	b.WriteString("<h2>Memberships needing attention</h2><ul>")
	for _, c := range due {
		line := fmt.Sprintf("%s (%s) ends %s", c.FullName(), c.MembershipName,
			expiration.FormatDisplayDate(c.EndDate))
		b.WriteString("<li>" + html.EscapeString(line) + "</li>")
	}
	b.WriteString("</ul>")

	sent, err := deps.Sender.Send(ctx, email.SendRequest{
		To:      input.Recipients,
		From:    input.From,
		Subject: fmt.Sprintf("%d memberships need follow-up", len(due)),
		HTML:    b.String(),
	})
	if err != nil {
		return SendRemindersResult{}, err
	}

	slog.Info("reminder_event", "event", "digest_sent", "high_priority", len(due), "message_id", sent.MessageID)
	return SendRemindersResult{HighPriority: len(due), MessageID: sent.MessageID}, nil
}
