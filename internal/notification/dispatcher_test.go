package notification

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"arriendo-cajas-backend/internal/domain"
	"arriendo-cajas-backend/internal/mail"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockEmailLogRepo struct {
	mock.Mock
}

func (m *MockEmailLogRepo) Create(ctx context.Context, l *domain.EmailLog) error {
	args := m.Called(ctx, l)
	if args.Error(0) == nil {
		l.ID = 100
	}
	return args.Error(0)
}
func (m *MockEmailLogRepo) GetByID(ctx context.Context, id int64) (*domain.EmailLog, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.EmailLog), args.Error(1)
}
func (m *MockEmailLogRepo) List(ctx context.Context, f domain.EmailLogFilter) ([]domain.EmailLog, int32, error) {
	args := m.Called(ctx, f)
	return args.Get(0).([]domain.EmailLog), args.Get(1).(int32), args.Error(2)
}

type fakeSender struct {
	sent []mail.Message
	err  error
}

func (s *fakeSender) Name() string { return "fake" }
func (s *fakeSender) Send(ctx context.Context, msg mail.Message) error {
	s.sent = append(s.sent, msg)
	return s.err
}

func sampleRental() (*domain.Rental, *domain.Customer) {
	pickup := time.Date(2025, 1, 17, 0, 0, 0, 0, time.UTC)
	r := &domain.Rental{
		ID:              4,
		CustomerID:      3,
		Status:          domain.RentalStatusDelivered,
		BoxQuantity:     15,
		TotalAmount:     125000,
		PaidAmount:      25000,
		DeliveryDate:    time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC),
		PickupDate:      &pickup,
		DeliveryAddress: "Av. Providencia 1234, Depto 56",
		TrackingCode:    "ARR-ABC123",
		TrackingToken:   "f00dbabe",
		AdditionalProducts: []domain.LineItem{
			{Name: "Carro", Quantity: 1, Price: 5000},
		},
	}
	c := &domain.Customer{ID: 3, Name: "Ana Pérez", Email: "ana@example.com"}
	return r, c
}

func TestRenderer_AllEventsRender(t *testing.T) {
	renderer, err := NewRenderer()
	require.NoError(t, err)

	r, c := sampleRental()
	p := BuildPayload(r, c, &domain.Driver{Name: "Pedro Soto", Phone: "+56 9 1111 1111"}, "https://cajas.example.com", time.Date(2025, 1, 15, 9, 0, 0, 0, time.UTC))

	for ev := range templateTitles {
		t.Run(string(ev), func(t *testing.T) {
			subject, html, err := renderer.Render(ev, p)
			require.NoError(t, err)
			assert.Contains(t, subject, "ARR-ABC123")
			assert.Contains(t, html, "Ana Pérez")
			assert.Contains(t, html, "https://cajas.example.com/track/ARR-ABC123/f00dbabe")
		})
	}

	assert.False(t, renderer.Has("retiro_programado"))
	_, _, err = renderer.Render("bogus", p)
	assert.ErrorIs(t, err, domain.ErrNoTemplate)
}

func TestRenderer_EscapesUserInput(t *testing.T) {
	renderer := MustRenderer()

	r, c := sampleRental()
	c.Name = `<script>alert('x')</script> & "Co"`
	r.DeliveryAddress = `<img src=x onerror=alert(1)> Calle 'Uno'`
	r.AdditionalProducts = []domain.LineItem{{Name: "<b>Cinta</b>", Quantity: 2, Price: 1000}}

	_, html, err := renderer.Render(domain.EventDelivered, BuildPayload(r, c, nil, "http://localhost:8080", time.Time{}))
	require.NoError(t, err)

	assert.NotContains(t, html, "<script>")
	assert.NotContains(t, html, "<img")
	assert.NotContains(t, html, "<b>Cinta")
	assert.Contains(t, html, "&lt;script&gt;alert(&#39;x&#39;)&lt;/script&gt; &amp; &#34;Co&#34;")
	assert.Contains(t, html, "&lt;img src=x onerror=alert(1)&gt;")
	assert.Contains(t, html, "&lt;b&gt;Cinta&lt;/b&gt;")
}

func TestBuildPayload(t *testing.T) {
	r, c := sampleRental()
	loc, _ := time.LoadLocation("America/Santiago")

	p := BuildPayload(r, c, nil, "http://localhost:8080", time.Date(2025, 1, 15, 8, 0, 0, 0, loc))
	assert.Equal(t, "10-01-2025", p.DeliveryDate)
	assert.Equal(t, "17-01-2025", p.PickupDate)
	assert.Equal(t, "$125.000", p.TotalAmount)
	assert.Equal(t, "$100.000", p.PendingAmount)
	assert.True(t, p.HasPending)
	assert.Equal(t, 2, p.DaysUntilReturn)
	assert.Empty(t, p.DriverName)
	require.Len(t, p.Products, 1)
	assert.Equal(t, "$5.000", p.Products[0].Subtotal)
}

func TestDispatcher_Sent(t *testing.T) {
	logs := new(MockEmailLogRepo)
	sender := &fakeSender{}
	d := NewDispatcher(MustRenderer(), sender, logs)

	r, c := sampleRental()
	logs.On("Create", mock.Anything, mock.MatchedBy(func(l *domain.EmailLog) bool {
		return l.Status == domain.EmailStatusSent && l.EmailType == domain.EventDelivered && l.SentAt != nil
	})).Return(nil).Once()

	entry, err := d.Dispatch(context.Background(), domain.EventDelivered, BuildPayload(r, c, nil, "http://localhost:8080", time.Time{}))
	require.NoError(t, err)
	assert.Equal(t, int64(100), entry.ID)
	assert.Equal(t, "ana@example.com", entry.ToEmail)
	assert.Equal(t, int64(4), *entry.RentalID)
	assert.Contains(t, entry.HTMLBody, "15")
	assert.Contains(t, entry.HTMLBody, "Av. Providencia 1234, Depto 56")
	require.Len(t, sender.sent, 1)
	assert.Equal(t, entry.HTMLBody, sender.sent[0].HTML)
	logs.AssertExpectations(t)
}

func TestDispatcher_TransportFailureStillLogs(t *testing.T) {
	logs := new(MockEmailLogRepo)
	d := NewDispatcher(MustRenderer(), &fakeSender{err: errors.New("535 authentication failed")}, logs)

	r, c := sampleRental()
	logs.On("Create", mock.Anything, mock.AnythingOfType("*domain.EmailLog")).Return(nil).Once()

	entry, err := d.Dispatch(context.Background(), domain.EventScheduled, BuildPayload(r, c, nil, "", time.Time{}))
	require.NoError(t, err)
	assert.Equal(t, domain.EmailStatusFailed, entry.Status)
	assert.Contains(t, entry.ErrorMessage, "535 authentication failed")
	assert.Nil(t, entry.SentAt)
	assert.NotEmpty(t, entry.HTMLBody)
	logs.AssertNumberOfCalls(t, "Create", 1)
}

func TestDispatcher_NoTransport(t *testing.T) {
	logs := new(MockEmailLogRepo)
	d := NewDispatcher(MustRenderer(), nil, logs)

	r, c := sampleRental()
	logs.On("Create", mock.Anything, mock.AnythingOfType("*domain.EmailLog")).Return(nil).Once()

	entry, err := d.Dispatch(context.Background(), domain.EventPending, BuildPayload(r, c, nil, "", time.Time{}))
	require.NoError(t, err)
	assert.Equal(t, domain.EmailStatusFailed, entry.Status)
	assert.Equal(t, "mail transport not configured", entry.ErrorMessage)
}

func TestDispatcher_UnknownEventWritesNothing(t *testing.T) {
	logs := new(MockEmailLogRepo)
	sender := &fakeSender{}
	d := NewDispatcher(MustRenderer(), sender, logs)

	r, c := sampleRental()
	entry, err := d.Dispatch(context.Background(), domain.EventType("bogus"), BuildPayload(r, c, nil, "", time.Time{}))
	assert.Nil(t, entry)
	assert.ErrorIs(t, err, domain.ErrNoTemplate)
	assert.Empty(t, sender.sent)
	logs.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestDispatcher_LogFailureSurfaces(t *testing.T) {
	logs := new(MockEmailLogRepo)
	d := NewDispatcher(MustRenderer(), &fakeSender{}, logs)

	r, c := sampleRental()
	logs.On("Create", mock.Anything, mock.Anything).Return(errors.New("db down")).Once()

	entry, err := d.Dispatch(context.Background(), domain.EventCompleted, BuildPayload(r, c, nil, "", time.Time{}))
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "db down"))
	assert.Equal(t, domain.EmailStatusSent, entry.Status)
}
