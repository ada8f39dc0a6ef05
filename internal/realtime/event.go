// Package realtime relays domain events to connected websocket clients.
//
// Handlers publish through a Bus. The in-process bus broadcasts straight to
// the local Hub; the Redis bus fans events out over pub/sub so that every
// server instance's Hub receives them.
package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Event types pushed to clients.
const (
	EventVisitAssessed          = "visit_assessed"
	EventReferralUpdate         = "referral_update"
	EventReceiveNote            = "receive_note"
	EventTeleconsultationUpdate = "teleconsultation_update"
)

// TopicReferrals carries every referral change for facility dashboards.
const TopicReferrals = "referrals"

const (
	patientPrefix  = "patient:"
	referralPrefix = "referral:"
)

func PatientTopic(id string) string  { return patientPrefix + id }
func ReferralTopic(id string) string { return referralPrefix + id }

// ParsePatientTopic returns the patient id of a patient:<id> topic.
func ParsePatientTopic(topic string) (string, bool) {
	return parseTopic(topic, patientPrefix)
}

// ParseReferralTopic returns the referral id of a referral:<id> topic.
func ParseReferralTopic(topic string) (string, bool) {
	return parseTopic(topic, referralPrefix)
}

func parseTopic(topic, prefix string) (string, bool) {
	id, ok := strings.CutPrefix(topic, prefix)
	return id, ok && id != ""
}

// Event is one notification delivered to subscribers of Topic.
type Event struct {
	Type       string          `json:"type"`
	Topic      string          `json:"topic"`
	ResourceID string          `json:"resourceId,omitempty"`
	Timestamp  time.Time       `json:"timestamp"`
	Data       json.RawMessage `json:"data,omitempty"`
}

// Publisher delivers events to subscribers.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// NewEvent marshals payload into an event for topic.
func NewEvent(eventType, topic, resourceID string, payload any) (Event, error) {
	ev := Event{
		Type:       eventType,
		Topic:      topic,
		ResourceID: resourceID,
		Timestamp:  time.Now().UTC(),
	}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return Event{}, fmt.Errorf("marshal %s payload: %w", eventType, err)
		}
		ev.Data = raw
	}
	return ev, nil
}

// Notify publishes the same payload on each topic and joins any failures.
func Notify(ctx context.Context, p Publisher, eventType, resourceID string, payload any, topics ...string) error {
	if p == nil {
		return nil
	}
	var errs []error
	for _, topic := range topics {
		ev, err := NewEvent(eventType, topic, resourceID, payload)
		if err != nil {
			return err
		}
		if err := p.Publish(ctx, ev); err != nil {
			errs = append(errs, fmt.Errorf("publish %s on %s: %w", eventType, topic, err))
		}
	}
	return errors.Join(errs...)
}
