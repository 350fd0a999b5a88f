package http

import (
	"net/http"

	"arriendo-cajas-backend/internal/domain"
)

type customerRequest struct {
	Name             string `json:"name"`
	TaxID            string `json:"tax_id"`
	Email            string `json:"email"`
	Phone            string `json:"phone"`
	Address          string `json:"address"`
	SecondaryAddress string `json:"secondary_address"`
	Notes            string `json:"notes"`
}

func (req customerRequest) toDomain() *domain.Customer {
	return &domain.Customer{
		Name:             req.Name,
		TaxID:            req.TaxID,
		Email:            req.Email,
		Phone:            req.Phone,
		Address:          req.Address,
		SecondaryAddress: req.SecondaryAddress,
		Notes:            req.Notes,
	}
}

func (s *Server) listCustomers(w http.ResponseWriter, r *http.Request) {
	page, err := queryInt(r, "page", 1)
	if err != nil {
		writeError(w, r, err)
		return
	}
	pageSize, err := queryInt(r, "page_size", 50)
	if err != nil {
		writeError(w, r, err)
		return
	}
	customers, total, err := s.svc.Customers.ListCustomers(r.Context(), r.URL.Query().Get("search"), int32(page), int32(pageSize))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if customers == nil {
		customers = []domain.Customer{}
	}
	writeJSON(w, http.StatusOK, listResponse[domain.Customer]{Items: customers, Total: total})
}

func (s *Server) createCustomer(w http.ResponseWriter, r *http.Request) {
	var req customerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	c := req.toDomain()
	if err := s.svc.Customers.CreateCustomer(r.Context(), c); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (s *Server) getCustomer(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	c, err := s.svc.Customers.GetCustomer(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) updateCustomer(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req customerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	c := req.toDomain()
	c.ID = id
	if err := s.svc.Customers.UpdateCustomer(r.Context(), c); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) deleteCustomer(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.svc.Customers.DeleteCustomer(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
