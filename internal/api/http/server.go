package http

import (
	"context"
	"net/http"

	"arriendo-cajas-backend/internal/config"
	"arriendo-cajas-backend/internal/security"
	"arriendo-cajas-backend/internal/service"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Services holds every business service the API exposes
type Services struct {
	Auth          service.AuthService
	Customers     service.CustomerService
	Drivers       service.DriverService
	Inventory     service.InventoryService
	Rentals       service.RentalService
	Payments      service.PaymentService
	Notifications service.NotificationService
	Reminders     service.ReminderService
	EmailLogs     service.EmailLogService
	Reports       service.ReportService
	Tracking      service.TrackingService
}

type ServerOpts struct {
	Services Services
	Tokens   security.TokenManager
	// Sessions may be nil; bearer tokens remain accepted
	Sessions *security.SessionManager
	// Ready reports whether dependencies are reachable for /healthz
	Ready func(ctx context.Context) error
	Config *config.Config
}

// Server is the JSON HTTP API
type Server struct {
	router   *mux.Router
	svc      Services
	tokens   security.TokenManager
	sessions *security.SessionManager
	ready    func(ctx context.Context) error
	config   *config.Config
}

func NewServer(opts ServerOpts) *Server {
	s := &Server{
		router:   mux.NewRouter(),
		svc:      opts.Services,
		tokens:   opts.Tokens,
		sessions: opts.Sessions,
		ready:    opts.Ready,
		config:   opts.Config,
	}
	if s.config == nil {
		s.config = &config.Config{}
	}
	s.setupRoutes()
	return s
}

// Handler returns the root handler with all middleware applied
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) setupRoutes() {
	r := s.router
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "route not found"})
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "method not allowed"})
	})
	r.Use(requestID, recovery, securityHeaders, logging, prometheusMiddleware, s.authenticate)

	// Public
	r.HandleFunc("/healthz", s.health).Methods(http.MethodGet).Name("health")
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet).Name("metrics")
	r.HandleFunc("/track/{code}/{token}", s.trackRental).Methods(http.MethodGet).Name("tracking.view")

	api := r.PathPrefix("/api/v1").Subrouter()

	// Auth
	api.HandleFunc("/auth/login", s.login).Methods(http.MethodPost).Name("auth.login")
	api.HandleFunc("/auth/logout", s.logout).Methods(http.MethodPost).Name("auth.logout")
	api.HandleFunc("/auth/me", s.me).Methods(http.MethodGet).Name("auth.me")
	api.HandleFunc("/users", s.createUser).Methods(http.MethodPost).Name("users.create")

	// Customers
	api.HandleFunc("/customers", s.listCustomers).Methods(http.MethodGet).Name("customers.list")
	api.HandleFunc("/customers", s.createCustomer).Methods(http.MethodPost).Name("customers.create")
	api.HandleFunc("/customers/{id:[0-9]+}", s.getCustomer).Methods(http.MethodGet).Name("customers.get")
	api.HandleFunc("/customers/{id:[0-9]+}", s.updateCustomer).Methods(http.MethodPut).Name("customers.update")
	api.HandleFunc("/customers/{id:[0-9]+}", s.deleteCustomer).Methods(http.MethodDelete).Name("customers.delete")

	// Drivers
	api.HandleFunc("/drivers/me/tasks", s.myTasks).Methods(http.MethodGet).Name("drivers.tasks")
	api.HandleFunc("/drivers/me/tasks/{rentalID:[0-9]+}/complete", s.completeTask).Methods(http.MethodPost).Name("drivers.task.complete")
	api.HandleFunc("/drivers", s.listDrivers).Methods(http.MethodGet).Name("drivers.list")
	api.HandleFunc("/drivers", s.createDriver).Methods(http.MethodPost).Name("drivers.create")
	api.HandleFunc("/drivers/{id:[0-9]+}", s.getDriver).Methods(http.MethodGet).Name("drivers.get")
	api.HandleFunc("/drivers/{id:[0-9]+}", s.updateDriver).Methods(http.MethodPut).Name("drivers.update")
	api.HandleFunc("/drivers/{id:[0-9]+}", s.deleteDriver).Methods(http.MethodDelete).Name("drivers.delete")
	api.HandleFunc("/drivers/{id:[0-9]+}/active", s.setDriverActive).Methods(http.MethodPatch).Name("drivers.active")

	// Inventory
	api.HandleFunc("/inventory/availability", s.availability).Methods(http.MethodGet).Name("inventory.availability")
	api.HandleFunc("/inventory", s.listItems).Methods(http.MethodGet).Name("inventory.list")
	api.HandleFunc("/inventory", s.createItem).Methods(http.MethodPost).Name("inventory.create")
	api.HandleFunc("/inventory/{id:[0-9]+}", s.getItem).Methods(http.MethodGet).Name("inventory.get")
	api.HandleFunc("/inventory/{id:[0-9]+}", s.updateItem).Methods(http.MethodPut).Name("inventory.update")
	api.HandleFunc("/inventory/{id:[0-9]+}/status", s.setItemStatus).Methods(http.MethodPatch).Name("inventory.status")
	api.HandleFunc("/inventory/{id:[0-9]+}", s.deleteItem).Methods(http.MethodDelete).Name("inventory.delete")

	// Rentals
	api.HandleFunc("/rentals", s.listRentals).Methods(http.MethodGet).Name("rentals.list")
	api.HandleFunc("/rentals", s.createRental).Methods(http.MethodPost).Name("rentals.create")
	api.HandleFunc("/rentals/{id:[0-9]+}", s.getRental).Methods(http.MethodGet).Name("rentals.get")
	api.HandleFunc("/rentals/{id:[0-9]+}", s.updateRental).Methods(http.MethodPut).Name("rentals.update")
	api.HandleFunc("/rentals/{id:[0-9]+}", s.deleteRental).Methods(http.MethodDelete).Name("rentals.delete")
	api.HandleFunc("/rentals/{id:[0-9]+}/status", s.changeStatus).Methods(http.MethodPatch).Name("rentals.status")
	api.HandleFunc("/rentals/{id:[0-9]+}/driver", s.assignDriver).Methods(http.MethodPut).Name("rentals.driver")
	api.HandleFunc("/rentals/{id:[0-9]+}/reservations", s.listReservations).Methods(http.MethodGet).Name("rentals.reservations.list")
	api.HandleFunc("/rentals/{id:[0-9]+}/reservations", s.reserve).Methods(http.MethodPost).Name("rentals.reservations.create")
	api.HandleFunc("/rentals/{id:[0-9]+}/payments", s.listRentalPayments).Methods(http.MethodGet).Name("rentals.payments.list")
	api.HandleFunc("/rentals/{id:[0-9]+}/payments", s.recordPayment).Methods(http.MethodPost).Name("rentals.payments.create")
	api.HandleFunc("/rentals/{id:[0-9]+}/emails", s.listRentalEmails).Methods(http.MethodGet).Name("rentals.emails")
	api.HandleFunc("/rentals/{id:[0-9]+}/payment-reminder", s.sendPaymentReminder).Methods(http.MethodPost).Name("rentals.payment_reminder")
	api.HandleFunc("/me/rentals", s.myRentals).Methods(http.MethodGet).Name("me.rentals")

	// Payments, reminders and notifications
	api.HandleFunc("/payments", s.listPayments).Methods(http.MethodGet).Name("payments.list")
	api.HandleFunc("/reminders/preview", s.previewReminders).Methods(http.MethodGet).Name("reminders.preview")
	api.HandleFunc("/reminders/sweep", s.sweepReminders).Methods(http.MethodPost).Name("reminders.sweep")
	api.HandleFunc("/outbox/drain", s.drainOutbox).Methods(http.MethodPost).Name("outbox.drain")
	api.HandleFunc("/email-logs", s.listEmailLogs).Methods(http.MethodGet).Name("email_logs.list")
	api.HandleFunc("/email-logs/{id:[0-9]+}", s.getEmailLog).Methods(http.MethodGet).Name("email_logs.get")

	// Reports
	api.HandleFunc("/reports/summary", s.reportSummary).Methods(http.MethodGet).Name("reports.summary")
	api.HandleFunc("/reports/rentals.xlsx", s.reportXLSX).Methods(http.MethodGet).Name("reports.xlsx")
	api.HandleFunc("/reports/rentals.pdf", s.reportPDF).Methods(http.MethodGet).Name("reports.pdf")
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	if s.ready != nil {
		if err := s.ready(r.Context()); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "error": err.Error()})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
