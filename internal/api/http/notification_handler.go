package http

import (
	"net/http"
	"time"

	"arriendo-cajas-backend/internal/domain"
	"arriendo-cajas-backend/internal/service"
)

type recordPaymentRequest struct {
	Amount    int64                `json:"amount"`
	Method    domain.PaymentMethod `json:"method"`
	Reference string               `json:"reference"`
	PaidAt    *time.Time           `json:"paid_at"`
}

type recordPaymentResponse struct {
	Payment *domain.Payment `json:"payment"`
	Rental  *domain.Rental  `json:"rental"`
}

func (s *Server) listRentalPayments(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	payments, err := s.svc.Payments.ListByRental(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if payments == nil {
		payments = []domain.Payment{}
	}
	writeJSON(w, http.StatusOK, payments)
}

func (s *Server) recordPayment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req recordPaymentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	in := service.RecordPaymentInput{RentalID: id, Amount: req.Amount, Method: req.Method, Reference: req.Reference}
	if req.PaidAt != nil {
		in.PaidAt = *req.PaidAt
	}
	payment, rental, err := s.svc.Payments.RecordPayment(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, recordPaymentResponse{Payment: payment, Rental: rental})
}

func (s *Server) listPayments(w http.ResponseWriter, r *http.Request) {
	from, to, err := dateRange(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	payments, err := s.svc.Payments.ListByRange(r.Context(), from, to)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if payments == nil {
		payments = []domain.Payment{}
	}
	writeJSON(w, http.StatusOK, payments)
}

func (s *Server) previewReminders(w http.ResponseWriter, r *http.Request) {
	days, err := queryInt(r, "days", 7)
	if err != nil {
		writeError(w, r, err)
		return
	}
	previews, err := s.svc.Reminders.Preview(r.Context(), time.Now(), days)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if previews == nil {
		previews = []service.ReminderPreview{}
	}
	writeJSON(w, http.StatusOK, previews)
}

func (s *Server) sweepReminders(w http.ResponseWriter, r *http.Request) {
	result, err := s.svc.Reminders.Sweep(r.Context(), time.Now())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) drainOutbox(w http.ResponseWriter, r *http.Request) {
	result, err := s.svc.Notifications.DrainOutbox(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) listEmailLogs(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	rentalID, err := queryInt(r, "rental_id", 0)
	if err != nil {
		writeError(w, r, err)
		return
	}
	limit, err := queryInt(r, "limit", 50)
	if err != nil {
		writeError(w, r, err)
		return
	}
	offset, err := queryInt(r, "offset", 0)
	if err != nil {
		writeError(w, r, err)
		return
	}
	logs, total, err := s.svc.EmailLogs.ListEmailLogs(r.Context(), domain.EmailLogFilter{
		RentalID:  int64(rentalID),
		Status:    domain.EmailStatus(q.Get("status")),
		EmailType: domain.EventType(q.Get("type")),
		Limit:     int32(limit),
		Offset:    int32(offset),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	if logs == nil {
		logs = []domain.EmailLog{}
	}
	writeJSON(w, http.StatusOK, listResponse[domain.EmailLog]{Items: logs, Total: total})
}

func (s *Server) getEmailLog(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	entry, err := s.svc.EmailLogs.GetEmailLog(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}
