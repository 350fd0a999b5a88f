package http

import (
	"net/http"
	"time"

	"arriendo-cajas-backend/internal/domain"
	"arriendo-cajas-backend/internal/logger"
	"arriendo-cajas-backend/internal/service"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	AccessToken string       `json:"access_token,omitempty"`
	ExpiresAt   *time.Time   `json:"expires_at,omitempty"`
	User        *domain.User `json:"user"`
}

type createUserRequest struct {
	Email      string      `json:"email"`
	Password   string      `json:"password"`
	Name       string      `json:"name"`
	Role       domain.Role `json:"role"`
	DriverID   *int64      `json:"driver_id"`
	CustomerID *int64      `json:"customer_id"`
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	user, p, err := s.svc.Auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}

	resp := loginResponse{User: user}
	if s.sessions != nil {
		if err := s.sessions.Save(w, r, p); err != nil {
			writeError(w, r, err)
			return
		}
	}
	if s.tokens != nil {
		token, exp, err := s.tokens.GenerateAccessToken(p)
		if err != nil {
			writeError(w, r, err)
			return
		}
		resp.AccessToken = token
		resp.ExpiresAt = &exp
	}

	logger.InfoContext(r.Context(), "User logged in", "userID", user.ID, "role", user.Role)
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	if s.sessions != nil {
		if err := s.sessions.Clear(w, r); err != nil {
			writeError(w, r, err)
			return
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) me(w http.ResponseWriter, r *http.Request) {
	p, ok := PrincipalFrom(r.Context())
	if !ok {
		writeError(w, r, domain.ErrUnauthorized)
		return
	}
	user, err := s.svc.Auth.GetUser(r.Context(), p.UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (s *Server) createUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	user, err := s.svc.Auth.CreateUser(r.Context(), service.CreateUserInput{
		Email:      req.Email,
		Password:   req.Password,
		Name:       req.Name,
		Role:       req.Role,
		DriverID:   req.DriverID,
		CustomerID: req.CustomerID,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}
