package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// LegacyDateLayout is how the plugin's JSON files store dates, in local time
const LegacyDateLayout = "2006-01-02 15:04:05"

// jsonTime reads RFC 3339 and LegacyDateLayout dates. null and "" decode to the zero time.
type jsonTime struct {
	t time.Time
}

func (j *jsonTime) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("date: %w", err)
	}
	if s == "" {
		return nil
	}

	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		j.t = t
		return nil
	}
	t, err := time.ParseInLocation(LegacyDateLayout, s, time.Local)
	if err != nil {
		return fmt.Errorf("date %q: %w", s, err)
	}
	j.t = t
	return nil
}

func (j jsonTime) ptr() *time.Time {
	if j.t.IsZero() {
		return nil
	}
	t := j.t
	return &t
}

// jsonID reads an identifier written either as a JSON string or a number
type jsonID string

func (id *jsonID) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = jsonID(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("id: %w", err)
	}
	if i, err := n.Int64(); err == nil {
		*id = jsonID(strconv.FormatInt(i, 10))
		return nil
	}
	*id = jsonID(n.String())
	return nil
}

type orderRecordFields OrderRecord

// UnmarshalJSON accepts chat_id as a string or a number
func (r *OrderRecord) UnmarshalJSON(data []byte) error {
	aux := struct {
		orderRecordFields
		ChatID jsonID `json:"chat_id"`
	}{}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	*r = OrderRecord(aux.orderRecordFields)
	r.ChatID = string(aux.ChatID)
	return nil
}

type pendingOrderFields PendingOrder

// MarshalJSON also writes the waiting_for_* flags the plugin files carry
func (o PendingOrder) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		pendingOrderFields
		WaitingForUsername     bool `json:"waiting_for_username"`
		WaitingForConfirmation bool `json:"waiting_for_confirmation"`
	}{
		pendingOrderFields:     pendingOrderFields(o),
		WaitingForUsername:     o.WaitingForUsername(),
		WaitingForConfirmation: o.WaitingForConfirmation(),
	})
}

// UnmarshalJSON accepts both date layouts. For open orders the waiting_for_*
// flags win over status, since the plugin does not always update both.
func (o *PendingOrder) UnmarshalJSON(data []byte) error {
	aux := struct {
		pendingOrderFields
		Date                   jsonTime `json:"date"`
		CompletedDate          jsonTime `json:"completed_date"`
		CancelledDate          jsonTime `json:"cancelled_date"`
		WaitingForUsername     *bool    `json:"waiting_for_username"`
		WaitingForConfirmation *bool    `json:"waiting_for_confirmation"`
	}{}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	*o = PendingOrder(aux.pendingOrderFields)
	o.Date = aux.Date.t
	o.CompletedDate = aux.CompletedDate.ptr()
	o.CancelledDate = aux.CancelledDate.ptr()

	if o.Status.Terminal() {
		return nil
	}
	switch {
	case aux.WaitingForUsername != nil && *aux.WaitingForUsername:
		o.Status = StatusWaitingUsername
	case aux.WaitingForConfirmation != nil && *aux.WaitingForConfirmation:
		o.Status = StatusAwaitingConfirmation
	case o.Status == "":
		o.Status = StatusWaitingUsername
	}
	return nil
}
