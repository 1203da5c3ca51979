// Package command resolves an inbound chat message into one reply per line.
package command

import (
	"context"
	"errors"
	"log"
	"strings"

	"medremind-backend/internal/adherence"
	"medremind-backend/internal/model"
	"medremind-backend/internal/notification"
	"medremind-backend/internal/parse"
	"medremind-backend/internal/reminder"
)

// Scheduler registers reminders; *reminder.Scheduler implements it.
type Scheduler interface {
	Schedule(ctx context.Context, identity, medicine, timeStr string) (string, error)
}

// Recorder appends medication events; store.Store implements it.
type Recorder interface {
	AppendEvent(ctx context.Context, identity, medicine, timeOfDay string, status model.Status) error
}

// Reporter computes adherence; *adherence.Service implements it.
type Reporter interface {
	AllTime(ctx context.Context, identity string) (adherence.Report, error)
	Daily(ctx context.Context, identity string) (adherence.Report, error)
	Weekly(ctx context.Context, identity string) (adherence.Report, error)
}

// Transcript holds the reply segments of one message, in line order.
type Transcript struct {
	Replies []string `json:"replies"`
}

// Text joins the segments into a single outbound message.
func (t Transcript) Text() string {
	return strings.Join(t.Replies, "\n\n")
}

// Interpreter dispatches parsed commands to the store, scheduler and
// adherence engine. It keeps no state between messages.
type Interpreter struct {
	scheduler Scheduler
	recorder  Recorder
	reporter  Reporter
	sender    notification.Sender
	caregiver string
}

// NewInterpreter wires an interpreter. caregiver is the identity alerted on
// missed doses.
func NewInterpreter(scheduler Scheduler, recorder Recorder, reporter Reporter, sender notification.Sender, caregiver string) *Interpreter {
	return &Interpreter{
		scheduler: scheduler,
		recorder:  recorder,
		reporter:  reporter,
		sender:    sender,
		caregiver: caregiver,
	}
}

// Handle resolves every line of body for identity. Each line yields exactly
// one reply; a failing line never stops the ones after it.
func (in *Interpreter) Handle(ctx context.Context, identity, body string) Transcript {
	commands := parse.ParseCommands(body)
	replies := make([]string, 0, len(commands))
	for _, cmd := range commands {
		replies = append(replies, in.execute(ctx, identity, cmd))
	}
	return Transcript{Replies: replies}
}

func (in *Interpreter) execute(ctx context.Context, identity string, cmd parse.Command) string {
	var (
		reply string
		err   error
	)

	switch cmd.Kind {
	case parse.KindAdd:
		reply, err = in.add(ctx, identity, cmd)
	case parse.KindTaken:
		reply, err = in.taken(ctx, identity)
	case parse.KindMissed:
		reply, err = in.missed(ctx, identity)
	case parse.KindStatus:
		reply, err = in.report(ctx, identity, in.reporter.AllTime, statusReply)
	case parse.KindReportDaily:
		reply, err = in.report(ctx, identity, in.reporter.Daily, dailyReply)
	case parse.KindReportWeekly:
		reply, err = in.report(ctx, identity, in.reporter.Weekly, weeklyReply)
	default:
		reply = HelpText
	}

	if err != nil {
		log.Printf("Error handling %q from %s: %v", cmd.Line, identity, err)
		return internalError(cmd.Line)
	}
	return reply
}

func (in *Interpreter) add(ctx context.Context, identity string, cmd parse.Command) (string, error) {
	if len(cmd.Tokens) != 3 {
		return formatError(cmd.Line), nil
	}
	medicine, timeStr := cmd.Tokens[1], cmd.Tokens[2]

	if _, err := in.scheduler.Schedule(ctx, identity, medicine, timeStr); err != nil {
		if errors.Is(err, reminder.ErrInvalidTimeFormat) {
			return invalidTime(cmd.Line), nil
		}
		return "", err
	}
	return scheduled(medicine, timeStr), nil
}

func (in *Interpreter) taken(ctx context.Context, identity string) (string, error) {
	if err := in.recorder.AppendEvent(ctx, identity, model.UnknownMedicine, "", model.StatusTaken); err != nil {
		return "", err
	}
	return replyTaken, nil
}

func (in *Interpreter) missed(ctx context.Context, identity string) (string, error) {
	if err := in.recorder.AppendEvent(ctx, identity, model.UnknownMedicine, "", model.StatusMissed); err != nil {
		return "", err
	}

	// The patient is told the caregiver was notified whatever the outcome.
	if err := in.sender.Send(ctx, in.caregiver, CaregiverAlert(identity)); err != nil {
		log.Printf("Caregiver alert error for %s: %v", identity, err)
	}
	return replyMissed, nil
}

func (in *Interpreter) report(ctx context.Context, identity string, compute func(context.Context, string) (adherence.Report, error), format func(adherence.Report) string) (string, error) {
	r, err := compute(ctx, identity)
	if err != nil {
		return "", err
	}
	return format(r), nil
}
