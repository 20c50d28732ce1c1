package events

import (
	"context"
	"time"

	apperrors "jdpanel/pkg/errors"
	"jdpanel/pkg/kafka"
	"jdpanel/pkg/logger"
	"jdpanel/pkg/model"
)

// InteractionRecorder stamps the last time a contact interacted with the clinic.
type InteractionRecorder interface {
	TouchLastInteraction(ctx context.Context, id string, at time.Time) error
}

// NewBookingEventHandler keeps ultima_interacao current from agenda booking
// events. Events without a contact are acknowledged and ignored.
func NewBookingEventHandler(recorder InteractionRecorder, log *logger.Logger) kafka.MessageHandler {
	return func(ctx context.Context, msg kafka.Message) error {
		var event model.BookingEvent
		if err := msg.DecodeValue(&event); err != nil {
			return kafka.NewPermanentError("deserialization failed", err).
				WithDetail("event_id", msg.GetEventID())
		}

		if event.ContactID == "" {
			log.Debug("Booking event has no contact, skipping",
				"type", event.Type,
				"booking_uid", event.BookingUID,
			)
			return nil
		}

		at := event.OccurredAt
		if at.IsZero() {
			at = msg.Timestamp
		}

		if err := recorder.TouchLastInteraction(ctx, event.ContactID, at); err != nil {
			if appErr := apperrors.AsAppError(err); appErr.Code == apperrors.CodeInvalidInput {
				return kafka.NewBusinessError("invalid contact reference", err).
					WithDetail("contact_id", event.ContactID)
			}
			return kafka.NewTransientError("failed to record interaction", err).
				WithDetail("contact_id", event.ContactID)
		}

		log.Info("Contact interaction recorded",
			"contact_id", event.ContactID,
			"type", event.Type,
			"at", at,
		)
		return nil
	}
}
