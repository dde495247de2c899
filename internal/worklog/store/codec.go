package store

import (
	"encoding/json"
	"fmt"

	"tempus/internal/eventstore"
	"tempus/internal/worklog/models"
	dErrors "tempus/pkg/domain-errors"
)

// encodeEvent serializes a domain event for the log. The switch is the
// closed-union counterpart of apply: adding an event type without extending
// both is caught at the first encode or decode.
func encodeEvent(ev models.Event) ([]byte, error) {
	payload, err := json.Marshal(ev)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, fmt.Sprintf("encode %s", ev.EventType()))
	}
	return payload, nil
}

// decodeEvent rebuilds the typed event from a stored record. Unknown types
// are an internal fault: the log only ever contains events this package
// wrote.
func decodeEvent(rec eventstore.Record) (models.Event, error) {
	var (
		ev  models.Event
		err error
	)
	switch rec.EventType {
	case models.TypeEntryCreated:
		var v models.EntryCreated
		err = json.Unmarshal(rec.Payload, &v)
		ev = v
	case models.TypeEntryAmended:
		var v models.EntryAmended
		err = json.Unmarshal(rec.Payload, &v)
		ev = v
	case models.TypeEntryDeleted:
		var v models.EntryDeleted
		err = json.Unmarshal(rec.Payload, &v)
		ev = v
	case models.TypeEntrySubmitted:
		var v models.EntrySubmitted
		err = json.Unmarshal(rec.Payload, &v)
		ev = v
	case models.TypeEntryRecalled:
		var v models.EntryRecalled
		err = json.Unmarshal(rec.Payload, &v)
		ev = v
	case models.TypeEntryApproved:
		var v models.EntryApproved
		err = json.Unmarshal(rec.Payload, &v)
		ev = v
	case models.TypeEntryRejected:
		var v models.EntryRejected
		err = json.Unmarshal(rec.Payload, &v)
		ev = v
	case models.TypeEntryReopened:
		var v models.EntryReopened
		err = json.Unmarshal(rec.Payload, &v)
		ev = v
	case models.TypeEntryResubmitted:
		var v models.EntryResubmitted
		err = json.Unmarshal(rec.Payload, &v)
		ev = v
	default:
		return nil, dErrors.New(dErrors.CodeInternal, fmt.Sprintf("unknown entry event type %q", rec.EventType))
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, fmt.Sprintf("decode %s", rec.EventType))
	}
	return ev, nil
}
