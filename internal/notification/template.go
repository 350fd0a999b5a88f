package notification

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"time"

	"arriendo-cajas-backend/internal/domain"
	"arriendo-cajas-backend/internal/utils"
)

//go:embed templates/*.html
var templateFS embed.FS

// Product is a line item prepared for display
type Product struct {
	Name     string
	Quantity int
	Subtotal string
}

// Payload carries every value a notification template may interpolate.
// Strings are raw; html/template escapes them according to context.
type Payload struct {
	RentalID        *int64
	CustomerID      *int64
	CustomerName    string
	CustomerEmail   string
	TrackingCode    string
	TrackingURL     string
	DeliveryDate    string
	PickupDate      string
	DeliveryAddress string
	PickupAddress   string
	BoxQuantity     int
	TotalAmount     string
	PaidAmount      string
	PendingAmount   string
	HasPending      bool
	DriverName      string
	DriverPhone     string
	Products        []Product
	DaysUntilReturn int
}

type view struct {
	Payload
	Title string
}

var templateTitles = map[domain.EventType]string{
	domain.EventPending:         "Solicitud de arriendo recibida",
	domain.EventPendingReminder: "Recordatorio de pago",
	domain.EventScheduled:       "Entrega programada",
	domain.EventPaid:            "Pago recibido",
	domain.EventOnRoute:         "Tus cajas van en camino",
	domain.EventDelivered:       "Cajas entregadas",
	domain.EventReturnReminder:  "Se acerca el retiro de tus cajas",
	domain.EventPickedUp:        "Cajas retiradas",
	domain.EventCompleted:       "Arriendo finalizado",
}

// Renderer holds one parsed template set per event type
type Renderer struct {
	sets map[domain.EventType]*template.Template
}

// NewRenderer parses the embedded templates. Every event in templateTitles must have a file.
func NewRenderer() (*Renderer, error) {
	r := &Renderer{sets: make(map[domain.EventType]*template.Template, len(templateTitles))}
	for ev := range templateTitles {
		t, err := template.New(string(ev)).ParseFS(templateFS, "templates/layout.html", "templates/"+string(ev)+".html")
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s template: %w", ev, err)
		}
		r.sets[ev] = t
	}
	return r, nil
}

// MustRenderer is NewRenderer for program initialisation
func MustRenderer() *Renderer {
	r, err := NewRenderer()
	if err != nil {
		panic(err)
	}
	return r
}

// Has reports whether ev has a template
func (r *Renderer) Has(ev domain.EventType) bool {
	_, ok := r.sets[ev]
	return ok
}

// Render returns the subject and HTML body for ev
func (r *Renderer) Render(ev domain.EventType, p Payload) (string, string, error) {
	t, ok := r.sets[ev]
	if !ok {
		return "", "", domain.ErrNoTemplate
	}

	title := templateTitles[ev]
	subject := title
	if p.TrackingCode != "" {
		subject = fmt.Sprintf("%s (%s)", title, p.TrackingCode)
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", view{Payload: p, Title: title}); err != nil {
		return subject, "", fmt.Errorf("failed to render %s template: %w", ev, err)
	}
	return subject, buf.String(), nil
}

// BuildPayload assembles template data for a rental. driver may be nil; today must already be in the business timezone.
func BuildPayload(r *domain.Rental, c *domain.Customer, d *domain.Driver, baseURL string, today time.Time) Payload {
	rentalID := r.ID
	customerID := c.ID

	p := Payload{
		RentalID:        &rentalID,
		CustomerID:      &customerID,
		CustomerName:    c.Name,
		CustomerEmail:   c.Email,
		TrackingCode:    r.TrackingCode,
		DeliveryDate:    utils.FormatDate(r.DeliveryDate),
		PickupDate:      utils.FormatDate(r.ReturnDate()),
		DeliveryAddress: r.DeliveryAddress,
		PickupAddress:   r.PickupAddress,
		BoxQuantity:     r.BoxQuantity,
		TotalAmount:     utils.FormatCLP(r.TotalAmount),
		PaidAmount:      utils.FormatCLP(r.PaidAmount),
		PendingAmount:   utils.FormatCLP(r.PendingAmount()),
		HasPending:      r.PendingAmount() > 0,
	}
	if r.TrackingCode != "" && r.TrackingToken != "" {
		p.TrackingURL = TrackingURL(baseURL, r.TrackingCode, r.TrackingToken)
	}
	if d != nil {
		p.DriverName = d.Name
		p.DriverPhone = d.Phone
	}
	for _, item := range r.AdditionalProducts {
		p.Products = append(p.Products, Product{
			Name:     item.Name,
			Quantity: item.Quantity,
			Subtotal: utils.FormatCLP(item.Subtotal()),
		})
	}
	if !today.IsZero() {
		p.DaysUntilReturn = utils.DaysBetween(today, r.ReturnDate())
	}
	return p
}

// TrackingURL builds the public tracking link for a rental
func TrackingURL(baseURL, code, token string) string {
	return fmt.Sprintf("%s/track/%s/%s", baseURL, code, token)
}
