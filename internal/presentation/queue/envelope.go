package queue

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Builder-Lawyers/execution-service/internal/application/errs"
	"github.com/Builder-Lawyers/execution-service/internal/application/events"
	"github.com/Builder-Lawyers/execution-service/internal/application/interfaces"
	"github.com/google/uuid"
)

// Envelope is an inbound message reduced to what dispatch needs.
type Envelope struct {
	EventID       string
	EventType     string
	CorrelationID string
	Kind          events.EventKind
	Payload       []byte
}

type snsAttribute struct {
	Type  string `json:"Type"`
	Value string `json:"Value"`
}

type snsNotification struct {
	Type              string                  `json:"Type"`
	MessageID         string                  `json:"MessageId"`
	TopicArn          string                  `json:"TopicArn"`
	Message           *string                 `json:"Message"`
	MessageAttributes map[string]snsAttribute `json:"MessageAttributes"`
}

type payloadHeader struct {
	EventID       string `json:"EventId"`
	CorrelationID string `json:"CorrelationId"`
}

// Decode unwraps an SNS notification when the body is one and resolves the event
// identity, falling back from attributes to payload fields to generated ids.
func Decode(msg interfaces.Message) (Envelope, error) {
	body := []byte(msg.Body)
	if !isJSONObject(body) {
		return Envelope{}, errs.PoisonMessageError{Err: fmt.Errorf("message %s body is not a json object", msg.MessageID)}
	}

	attributes := msg.Attributes
	payload := body
	var notification snsNotification
	if err := json.Unmarshal(body, &notification); err == nil && notification.Message != nil {
		payload = []byte(*notification.Message)
		attributes = make(map[string]string, len(notification.MessageAttributes))
		for name, attr := range notification.MessageAttributes {
			attributes[name] = attr.Value
		}
	} else {
		notification = snsNotification{}
	}

	if !isJSONObject(payload) {
		return Envelope{}, errs.PoisonMessageError{Err: fmt.Errorf("message %s payload is not a json object", msg.MessageID)}
	}
	var header payloadHeader
	if err := json.Unmarshal(payload, &header); err != nil {
		return Envelope{}, errs.PoisonMessageError{Err: fmt.Errorf("message %s header, %w", msg.MessageID, err)}
	}

	eventType := attributes[interfaces.AttrEventType]
	if eventType == "" {
		eventType = topicName(notification.TopicArn)
	}

	return Envelope{
		EventID:       firstNonEmpty(attributes[interfaces.AttrEventID], header.EventID, notification.MessageID, uuid.NewString()),
		EventType:     eventType,
		CorrelationID: firstNonEmpty(attributes[interfaces.AttrCorrelationID], header.CorrelationID, uuid.NewString()),
		Kind:          events.ParseEventKind(eventType),
		Payload:       payload,
	}, nil
}

// PaymentConfirmed decodes the payload with the resolved identity applied.
func (e Envelope) PaymentConfirmed() (events.PaymentConfirmed, error) {
	var event events.PaymentConfirmed
	if err := json.Unmarshal(e.Payload, &event); err != nil {
		return event, errs.PoisonMessageError{Err: fmt.Errorf("decode %s, %w", e.EventType, err)}
	}
	if event.OsID == "" {
		return event, errs.PoisonMessageError{Err: fmt.Errorf("%s %s has no OsId", e.EventType, e.EventID)}
	}
	event.EventID = e.EventID
	event.CorrelationID = e.CorrelationID
	return event, nil
}

func (e Envelope) OsCanceled() (events.OsCanceled, error) {
	var event events.OsCanceled
	if err := json.Unmarshal(e.Payload, &event); err != nil {
		return event, errs.PoisonMessageError{Err: fmt.Errorf("decode %s, %w", e.EventType, err)}
	}
	if event.OsID == "" {
		return event, errs.PoisonMessageError{Err: fmt.Errorf("%s %s has no OsId", e.EventType, e.EventID)}
	}
	event.EventID = e.EventID
	event.CorrelationID = e.CorrelationID
	return event, nil
}

func isJSONObject(b []byte) bool {
	trimmed := bytes.TrimSpace(b)
	return len(trimmed) > 0 && trimmed[0] == '{' && json.Valid(trimmed)
}

func topicName(arn string) string {
	if arn == "" {
		return ""
	}
	return arn[strings.LastIndex(arn, ":")+1:]
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
