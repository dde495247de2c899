package store

import (
	"encoding/json"
	"fmt"
	"time"

	"tempus/internal/approval/models"
	"tempus/internal/eventstore"
	dErrors "tempus/pkg/domain-errors"
)

// occurredAt pulls the event's own timestamp for the stored record.
func occurredAt(ev models.Event) time.Time {
	switch v := ev.(type) {
	case models.ApprovalOpened:
		return v.OccurredAt
	case models.ApprovalSubmitted:
		return v.OccurredAt
	case models.ApprovalApproved:
		return v.OccurredAt
	case models.ApprovalRejected:
		return v.OccurredAt
	case models.ApprovalResubmitted:
		return v.OccurredAt
	}
	return time.Time{}
}

func encodeEvent(ev models.Event) ([]byte, error) {
	payload, err := json.Marshal(ev)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, fmt.Sprintf("encode %s", ev.EventType()))
	}
	return payload, nil
}

func decodeEvent(rec eventstore.Record) (models.Event, error) {
	var (
		ev  models.Event
		err error
	)
	switch rec.EventType {
	case models.TypeApprovalOpened:
		var v models.ApprovalOpened
		err = json.Unmarshal(rec.Payload, &v)
		ev = v
	case models.TypeApprovalSubmitted:
		var v models.ApprovalSubmitted
		err = json.Unmarshal(rec.Payload, &v)
		ev = v
	case models.TypeApprovalApproved:
		var v models.ApprovalApproved
		err = json.Unmarshal(rec.Payload, &v)
		ev = v
	case models.TypeApprovalRejected:
		var v models.ApprovalRejected
		err = json.Unmarshal(rec.Payload, &v)
		ev = v
	case models.TypeApprovalResubmitted:
		var v models.ApprovalResubmitted
		err = json.Unmarshal(rec.Payload, &v)
		ev = v
	default:
		return nil, dErrors.New(dErrors.CodeInternal, fmt.Sprintf("unknown approval event type %q", rec.EventType))
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, fmt.Sprintf("decode %s", rec.EventType))
	}
	return ev, nil
}
