package http

import (
	"net/http"

	"arriendo-cajas-backend/internal/domain"
	"arriendo-cajas-backend/internal/service"
)

type createRentalRequest struct {
	CustomerID         int64             `json:"customer_id"`
	DriverID           *int64            `json:"driver_id"`
	BoxQuantity        int               `json:"box_quantity"`
	PricePerDay        int64             `json:"price_per_day"`
	GuaranteeAmount    int64             `json:"guarantee_amount"`
	TotalAmount        *int64            `json:"total_amount"`
	DeliveryDate       string            `json:"delivery_date"`
	PickupDate         *string           `json:"pickup_date"`
	RentalDays         int               `json:"rental_days"`
	DeliveryAddress    string            `json:"delivery_address"`
	PickupAddress      string            `json:"pickup_address"`
	Notes              string            `json:"notes"`
	AdditionalProducts []domain.LineItem `json:"additional_products"`
}

type updateRentalRequest struct {
	BoxQuantity        *int               `json:"box_quantity"`
	PricePerDay        *int64             `json:"price_per_day"`
	GuaranteeAmount    *int64             `json:"guarantee_amount"`
	TotalAmount        *int64             `json:"total_amount"`
	DeliveryDate       *string            `json:"delivery_date"`
	PickupDate         *string            `json:"pickup_date"`
	DeliveryAddress    *string            `json:"delivery_address"`
	PickupAddress      *string            `json:"pickup_address"`
	Notes              *string            `json:"notes"`
	AdditionalProducts *[]domain.LineItem `json:"additional_products"`
	Version            int                `json:"version"`
}

type statusRequest struct {
	Status  domain.RentalStatus `json:"status"`
	Version int                 `json:"version"`
}

type assignDriverRequest struct {
	DriverID int64 `json:"driver_id"`
	Version  int   `json:"version"`
}

type reserveRequest struct {
	ItemIDs []int64 `json:"item_ids"`
}

func rentalFilter(r *http.Request) (domain.RentalFilter, error) {
	q := r.URL.Query()
	var f domain.RentalFilter

	f.Status = domain.RentalStatus(q.Get("status"))
	customerID, err := queryInt(r, "customer_id", 0)
	if err != nil {
		return f, err
	}
	driverID, err := queryInt(r, "driver_id", 0)
	if err != nil {
		return f, err
	}
	page, err := queryInt(r, "page", 1)
	if err != nil {
		return f, err
	}
	pageSize, err := queryInt(r, "page_size", 50)
	if err != nil {
		return f, err
	}
	f.CustomerID = int64(customerID)
	f.DriverID = int64(driverID)
	f.Page = int32(page)
	f.PageSize = int32(pageSize)

	if raw := q.Get("from"); raw != "" {
		from, err := parseDate("from", raw)
		if err != nil {
			return f, err
		}
		f.From = &from
	}
	if raw := q.Get("to"); raw != "" {
		to, err := parseDate("to", raw)
		if err != nil {
			return f, err
		}
		to = to.AddDate(0, 0, 1)
		f.To = &to
	}
	return f, nil
}

func (s *Server) writeRentals(w http.ResponseWriter, r *http.Request, f domain.RentalFilter) {
	rentals, total, err := s.svc.Rentals.ListRentals(r.Context(), f)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if rentals == nil {
		rentals = []domain.Rental{}
	}
	writeJSON(w, http.StatusOK, listResponse[domain.Rental]{Items: rentals, Total: total})
}

func (s *Server) listRentals(w http.ResponseWriter, r *http.Request) {
	f, err := rentalFilter(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.writeRentals(w, r, f)
}

// myRentals lists the caller's own rentals. Admins see the customer_id they ask for.
func (s *Server) myRentals(w http.ResponseWriter, r *http.Request) {
	f, err := rentalFilter(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	p, _ := PrincipalFrom(r.Context())
	if p == nil {
		writeError(w, r, domain.ErrUnauthorized)
		return
	}
	if p.Role != domain.RoleAdmin {
		if p.CustomerID == nil {
			writeError(w, r, domain.ErrForbidden)
			return
		}
		f.CustomerID = *p.CustomerID
		f.DriverID = 0
	}
	s.writeRentals(w, r, f)
}

func (s *Server) createRental(w http.ResponseWriter, r *http.Request) {
	var req createRentalRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	delivery, err := parseDate("delivery_date", req.DeliveryDate)
	if err != nil {
		writeError(w, r, err)
		return
	}
	pickup, err := parseOptionalDate("pickup_date", req.PickupDate)
	if err != nil {
		writeError(w, r, err)
		return
	}

	rental, err := s.svc.Rentals.CreateRental(r.Context(), service.CreateRentalInput{
		CustomerID:         req.CustomerID,
		DriverID:           req.DriverID,
		BoxQuantity:        req.BoxQuantity,
		PricePerDay:        req.PricePerDay,
		GuaranteeAmount:    req.GuaranteeAmount,
		TotalAmount:        req.TotalAmount,
		DeliveryDate:       delivery,
		PickupDate:         pickup,
		RentalDays:         req.RentalDays,
		DeliveryAddress:    req.DeliveryAddress,
		PickupAddress:      req.PickupAddress,
		Notes:              req.Notes,
		AdditionalProducts: req.AdditionalProducts,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, rental)
}

func (s *Server) getRental(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	rental, err := s.svc.Rentals.GetRental(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rental)
}

func (s *Server) updateRental(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req updateRentalRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	in := service.UpdateRentalInput{
		BoxQuantity:        req.BoxQuantity,
		PricePerDay:        req.PricePerDay,
		GuaranteeAmount:    req.GuaranteeAmount,
		TotalAmount:        req.TotalAmount,
		DeliveryAddress:    req.DeliveryAddress,
		PickupAddress:      req.PickupAddress,
		Notes:              req.Notes,
		AdditionalProducts: req.AdditionalProducts,
		Version:            req.Version,
	}
	if in.DeliveryDate, err = parseOptionalDate("delivery_date", req.DeliveryDate); err != nil {
		writeError(w, r, err)
		return
	}
	if in.PickupDate, err = parseOptionalDate("pickup_date", req.PickupDate); err != nil {
		writeError(w, r, err)
		return
	}

	rental, err := s.svc.Rentals.UpdateRental(r.Context(), id, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rental)
}

func (s *Server) deleteRental(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.svc.Rentals.DeleteRental(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) changeStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req statusRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.Status == "" {
		writeError(w, r, domain.NewValidationError("status", "is required"))
		return
	}
	rental, err := s.svc.Rentals.ChangeStatus(r.Context(), id, req.Status, req.Version)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rental)
}

func (s *Server) assignDriver(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req assignDriverRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	rental, err := s.svc.Rentals.AssignDriver(r.Context(), id, req.DriverID, req.Version)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rental)
}

func (s *Server) listReservations(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	reservations, err := s.svc.Rentals.ListReservations(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if reservations == nil {
		reservations = []domain.Reservation{}
	}
	writeJSON(w, http.StatusOK, reservations)
}

func (s *Server) reserve(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req reserveRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	reservations, err := s.svc.Rentals.Reserve(r.Context(), id, req.ItemIDs)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, reservations)
}

func (s *Server) listRentalEmails(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	logs, err := s.svc.Rentals.ListEmails(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if logs == nil {
		logs = []domain.EmailLog{}
	}
	writeJSON(w, http.StatusOK, logs)
}

func (s *Server) sendPaymentReminder(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	entry, err := s.svc.Rentals.SendPaymentReminder(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}
