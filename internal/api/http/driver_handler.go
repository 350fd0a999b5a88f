package http

import (
	"net/http"

	"arriendo-cajas-backend/internal/domain"
)

type driverRequest struct {
	Name      string `json:"name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	IsActive  *bool  `json:"is_active"`
	PushToken string `json:"push_token"`
}

func (req driverRequest) toDomain() *domain.Driver {
	d := &domain.Driver{
		Name:      req.Name,
		Email:     req.Email,
		Phone:     req.Phone,
		IsActive:  true,
		PushToken: req.PushToken,
	}
	if req.IsActive != nil {
		d.IsActive = *req.IsActive
	}
	return d
}

type activeRequest struct {
	Active bool `json:"active"`
}

// driverID resolves the driver record behind the caller. Admins may act for any driver via ?driver_id.
func driverID(r *http.Request) (int64, error) {
	p, ok := PrincipalFrom(r.Context())
	if !ok {
		return 0, domain.ErrUnauthorized
	}
	if p.Role == domain.RoleAdmin {
		id, err := queryInt(r, "driver_id", 0)
		if err != nil {
			return 0, err
		}
		if id <= 0 {
			return 0, domain.NewValidationError("driver_id", "is required for admin callers")
		}
		return int64(id), nil
	}
	if p.DriverID == nil {
		return 0, domain.ErrForbidden
	}
	return *p.DriverID, nil
}

func (s *Server) myTasks(w http.ResponseWriter, r *http.Request) {
	id, err := driverID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	tasks, err := s.svc.Rentals.ListDriverTasks(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if tasks == nil {
		tasks = []domain.Rental{}
	}
	writeJSON(w, http.StatusOK, tasks)
}

func (s *Server) completeTask(w http.ResponseWriter, r *http.Request) {
	id, err := driverID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	rentalID, err := pathID(r, "rentalID")
	if err != nil {
		writeError(w, r, err)
		return
	}
	rental, err := s.svc.Rentals.CompleteDriverTask(r.Context(), id, rentalID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rental)
}

func (s *Server) listDrivers(w http.ResponseWriter, r *http.Request) {
	drivers, err := s.svc.Drivers.ListDrivers(r.Context(), r.URL.Query().Get("active") == "true")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if drivers == nil {
		drivers = []domain.Driver{}
	}
	writeJSON(w, http.StatusOK, drivers)
}

func (s *Server) createDriver(w http.ResponseWriter, r *http.Request) {
	var req driverRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	d := req.toDomain()
	if err := s.svc.Drivers.CreateDriver(r.Context(), d); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, d)
}

func (s *Server) getDriver(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	d, err := s.svc.Drivers.GetDriver(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (s *Server) updateDriver(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req driverRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	d := req.toDomain()
	d.ID = id
	if err := s.svc.Drivers.UpdateDriver(r.Context(), d); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (s *Server) deleteDriver(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.svc.Drivers.DeleteDriver(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) setDriverActive(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req activeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	d, err := s.svc.Drivers.SetActive(r.Context(), id, req.Active)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}
