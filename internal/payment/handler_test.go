package payment

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The settlement with a nil DB proves the drop paths never touch storage:
// any accidental mutation attempt would panic.
func TestHandleUpdateDropsUnknownType(t *testing.T) {
	s := &Settlement{}

	err := s.HandleUpdate(context.Background(), WebhookUpdate{
		UpdateType: "invoice_expired",
	})
	assert.NoError(t, err)
}

func TestHandleUpdateDropsMalformedPayload(t *testing.T) {
	s := &Settlement{}

	err := s.HandleUpdate(context.Background(), WebhookUpdate{
		UpdateType: UpdateInvoicePaid,
		Payload: Invoice{
			InvoiceID: 101,
			Payload:   `{"user_id":"42","subscription_months":"3","payment_db_id":"abc"}`,
		},
	})
	assert.NoError(t, err)
}

func TestHandleWebhookMethodNotAllowed(t *testing.T) {
	s := &Settlement{}

	req := httptest.NewRequest(http.MethodGet, "/webhook/cryptopay", nil)
	rec := httptest.NewRecorder()
	s.HandleWebhook(rec, req)

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestHandleWebhookBadJSON(t *testing.T) {
	s := &Settlement{}

	req := httptest.NewRequest(http.MethodPost, "/webhook/cryptopay", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	s.HandleWebhook(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleWebhookIgnoredUpdateAcked(t *testing.T) {
	s := &Settlement{}

	req := httptest.NewRequest(http.MethodPost, "/webhook/cryptopay",
		strings.NewReader(`{"update_id":1,"update_type":"invoice_expired","payload":{}}`))
	rec := httptest.NewRecorder()
	s.HandleWebhook(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHandleWebhookSourceAllowlist(t *testing.T) {
	// httptest requests come from 192.0.2.1.
	body := `{"update_id":1,"update_type":"invoice_expired","payload":{}}`

	blocked := &Settlement{AllowedCIDRs: []string{"10.0.0.0/8"}}
	req := httptest.NewRequest(http.MethodPost, "/webhook/cryptopay", strings.NewReader(body))
	rec := httptest.NewRecorder()
	blocked.HandleWebhook(rec, req)
	require.Equal(t, http.StatusForbidden, rec.Code)

	allowed := &Settlement{AllowedCIDRs: []string{"192.0.2.0/24"}}
	req = httptest.NewRequest(http.MethodPost, "/webhook/cryptopay", strings.NewReader(body))
	rec = httptest.NewRecorder()
	allowed.HandleWebhook(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
}
