package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"arriendo-cajas-backend/internal/domain"
	"arriendo-cajas-backend/internal/logger"
	"arriendo-cajas-backend/internal/metrics"
	"arriendo-cajas-backend/internal/repository"
	"arriendo-cajas-backend/internal/utils"
)

// ReminderOptions holds the return reminder settings from configuration
type ReminderOptions struct {
	DaysBefore int
	Dedupe     bool
	Location   *time.Location
}

type reminderService struct {
	rentals   repository.RentalRepository
	reminders repository.ReminderRepository
	notifier  NotificationService
	opts      ReminderOptions
}

func NewReminderService(rentals repository.RentalRepository, reminders repository.ReminderRepository, notifier NotificationService, opts ReminderOptions) ReminderService {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	return &reminderService{
		rentals:   rentals,
		reminders: reminders,
		notifier:  notifier,
		opts:      opts,
	}
}

// Sweep sends a return reminder to every delivered rental whose return date is exactly DaysBefore days after today.
// A failing rental is counted and logged; the sweep goes on.
func (s *reminderService) Sweep(ctx context.Context, now time.Time) (*SweepResult, error) {
	today := utils.StartOfDay(now, s.opts.Location)
	window := today.AddDate(0, 0, s.opts.DaysBefore)
	logger.EnterMethod("reminderService.Sweep", "today", today.Format("2006-01-02"), "window", window.Format("2006-01-02"), "dedupe", s.opts.Dedupe)

	rentals, err := s.rentals.ListByStatus(ctx, domain.RentalStatusDelivered)
	if err != nil {
		logger.ExitMethodWithError("reminderService.Sweep", err)
		return nil, fmt.Errorf("failed to list delivered rentals: %w", err)
	}

	res := &SweepResult{}
	for i := range rentals {
		r := &rentals[i]
		res.Checked++

		returnDate := utils.CalendarDate(r.ReturnDate(), s.opts.Location)
		if utils.DaysBetween(window, returnDate) != 0 {
			continue
		}
		res.Matched++

		rctx := logger.WithRentalID(ctx, r.ID)
		if s.opts.Dedupe {
			first, err := s.reminders.MarkSent(rctx, r.ID, domain.ReminderKindReturn, window)
			if err != nil {
				res.Failed++
				metrics.RemindersSent.WithLabelValues("failed").Inc()
				logger.ErrorContext(rctx, "Failed to record reminder", "error", err)
				continue
			}
			if !first {
				res.Skipped++
				metrics.RemindersSent.WithLabelValues("skipped").Inc()
				logger.DebugContext(rctx, "Reminder already sent for this window")
				continue
			}
		}

		log, err := s.notifier.NotifyRental(rctx, r.ID, domain.EventReturnReminder)
		switch {
		case err != nil:
			res.Failed++
			metrics.RemindersSent.WithLabelValues("failed").Inc()
			logger.ErrorContext(rctx, "Failed to send return reminder", "error", err)
		case log.Status != domain.EmailStatusSent:
			res.Failed++
			metrics.RemindersSent.WithLabelValues("failed").Inc()
		default:
			res.Sent++
			metrics.RemindersSent.WithLabelValues("sent").Inc()
		}
	}

	logger.Info("Return reminder sweep finished",
		"checked", res.Checked, "matched", res.Matched, "sent", res.Sent, "skipped", res.Skipped, "failed", res.Failed)
	logger.ExitMethod("reminderService.Sweep")
	return res, nil
}

// Preview lists delivered rentals due back within the next days days, soonest first
func (s *reminderService) Preview(ctx context.Context, now time.Time, days int) ([]ReminderPreview, error) {
	if days < 0 {
		return nil, domain.NewValidationError("days", "must not be negative")
	}
	today := utils.StartOfDay(now, s.opts.Location)

	rentals, err := s.rentals.ListByStatus(ctx, domain.RentalStatusDelivered)
	if err != nil {
		return nil, err
	}

	out := []ReminderPreview{}
	for _, r := range rentals {
		returnDate := utils.CalendarDate(r.ReturnDate(), s.opts.Location)
		remaining := utils.DaysBetween(today, returnDate)
		if remaining < 0 || remaining > days {
			continue
		}
		out = append(out, ReminderPreview{Rental: r, ReturnDate: returnDate, DaysRemaining: remaining})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].DaysRemaining < out[j].DaysRemaining
	})
	return out, nil
}
