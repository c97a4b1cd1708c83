package payment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePayload(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    InvoicePayload
		wantErr bool
	}{
		{
			name:    "valid payload",
			payload: `{"user_id":"42","subscription_months":"3","payment_db_id":"7"}`,
			want:    InvoicePayload{TelegramID: 42, Months: 3, PaymentID: 7},
		},
		{
			name:    "non-numeric payment id",
			payload: `{"user_id":"42","subscription_months":"3","payment_db_id":"abc"}`,
			wantErr: true,
		},
		{
			name:    "non-numeric user id",
			payload: `{"user_id":"forty-two","subscription_months":"3","payment_db_id":"7"}`,
			wantErr: true,
		},
		{
			name:    "missing user id",
			payload: `{"subscription_months":"3","payment_db_id":"7"}`,
			wantErr: true,
		},
		{
			name:    "missing months",
			payload: `{"user_id":"42","payment_db_id":"7"}`,
			wantErr: true,
		},
		{
			name:    "not json",
			payload: `user_id=42`,
			wantErr: true,
		},
		{
			name:    "empty payload",
			payload: ``,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParsePayload(tt.payload)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEncodePayloadRoundTrip(t *testing.T) {
	encoded, err := EncodePayload(987654321, 6, 15)
	require.NoError(t, err)

	decoded, err := ParsePayload(encoded)
	require.NoError(t, err)
	assert.Equal(t, InvoicePayload{TelegramID: 987654321, Months: 6, PaymentID: 15}, decoded)
}
