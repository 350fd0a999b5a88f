package http

import (
	"net/http"

	"arriendo-cajas-backend/internal/domain"
)

type itemRequest struct {
	Code   string            `json:"code"`
	Type   domain.ItemType   `json:"type"`
	Status domain.ItemStatus `json:"status"`
	Notes  string            `json:"notes"`
}

type itemStatusRequest struct {
	Status domain.ItemStatus `json:"status"`
}

func (req itemRequest) toDomain() *domain.InventoryItem {
	item := &domain.InventoryItem{Code: req.Code, Type: req.Type, Status: req.Status, Notes: req.Notes}
	if item.Status == "" {
		item.Status = domain.ItemStatusAvailable
	}
	return item
}

func (s *Server) availability(w http.ResponseWriter, r *http.Request) {
	from, to, err := dateRange(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	itemType := domain.ItemType(r.URL.Query().Get("type"))
	if itemType == "" {
		itemType = domain.ItemTypeBox
	}
	items, err := s.svc.Inventory.Availability(r.Context(), itemType, from, to)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if items == nil {
		items = []domain.InventoryItem{}
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *Server) listItems(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	items, err := s.svc.Inventory.ListItems(r.Context(), domain.ItemType(q.Get("type")), domain.ItemStatus(q.Get("status")))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if items == nil {
		items = []domain.InventoryItem{}
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *Server) createItem(w http.ResponseWriter, r *http.Request) {
	var req itemRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	item := req.toDomain()
	if err := s.svc.Inventory.CreateItem(r.Context(), item); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

func (s *Server) getItem(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	item, err := s.svc.Inventory.GetItem(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (s *Server) updateItem(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req itemRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	item := req.toDomain()
	item.ID = id
	if err := s.svc.Inventory.UpdateItem(r.Context(), item); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (s *Server) setItemStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req itemStatusRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	item, err := s.svc.Inventory.SetStatus(r.Context(), id, req.Status)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (s *Server) deleteItem(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.svc.Inventory.DeleteItem(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
