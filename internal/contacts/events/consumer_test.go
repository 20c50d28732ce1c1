package events

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "jdpanel/pkg/errors"
	"jdpanel/pkg/kafka"
	"jdpanel/pkg/logger"
	"jdpanel/pkg/model"
)

type recorderFunc func(ctx context.Context, id string, at time.Time) error

func (f recorderFunc) TouchLastInteraction(ctx context.Context, id string, at time.Time) error {
	return f(ctx, id, at)
}

func TestBookingEventHandler(t *testing.T) {
	occurred := time.Date(2025, 3, 10, 17, 30, 0, 0, time.UTC)

	tests := []struct {
		name        string
		msg         kafka.Message
		recorderErr error
		wantTouched string
		wantType    kafka.ErrorType
		wantErr     bool
	}{
		{
			name: "stamps contact",
			msg: kafka.NewMessage().WithValue(model.BookingEvent{
				Type: model.EventBookingCreated, TenantID: "t", ContactID: "c-1", OccurredAt: occurred,
			}).Build(),
			wantTouched: "c-1",
		},
		{
			name: "event without contact is skipped",
			msg: kafka.NewMessage().WithValue(model.BookingEvent{
				Type: model.EventBookingCanceled, TenantID: "t", OccurredAt: occurred,
			}).Build(),
		},
		{
			name:     "garbage payload is permanent",
			msg:      kafka.NewMessage().WithRawValue([]byte("{not json")).Build(),
			wantErr:  true,
			wantType: kafka.ErrorTypePermanent,
		},
		{
			name: "invalid contact id is a business error",
			msg: kafka.NewMessage().WithValue(model.BookingEvent{
				Type: model.EventBookingCreated, ContactID: "nope", OccurredAt: occurred,
			}).Build(),
			recorderErr: apperrors.InvalidInput("Invalid contact ID format"),
			wantTouched: "nope",
			wantErr:     true,
			wantType:    kafka.ErrorTypeBusiness,
		},
		{
			name: "database failure is transient",
			msg: kafka.NewMessage().WithValue(model.BookingEvent{
				Type: model.EventBookingRescheduled, ContactID: "c-2", OccurredAt: occurred,
			}).Build(),
			recorderErr: apperrors.Internal("Failed to record contact interaction", errors.New("connection refused")),
			wantTouched: "c-2",
			wantErr:     true,
			wantType:    kafka.ErrorTypeTransient,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var touched string
			var touchedAt time.Time
			recorder := recorderFunc(func(ctx context.Context, id string, at time.Time) error {
				touched, touchedAt = id, at
				return tt.recorderErr
			})

			handler := NewBookingEventHandler(recorder, logger.Discard())
			err := handler(context.Background(), tt.msg)

			assert.Equal(t, tt.wantTouched, touched)
			if tt.wantTouched != "" {
				assert.True(t, touchedAt.Equal(occurred))
			}
			if !tt.wantErr {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tt.wantType, kafka.ClassifyError(err))
		})
	}
}
