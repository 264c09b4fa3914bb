package amqp

import (
	"encoding/json"
	"fmt"
	"time"
)

// PaymentEvent announces a ledger write. It carries ids only; consumers
// load the current record from storage.
type PaymentEvent struct {
	PaymentID string    `json:"paymentId"`
	ClientID  string    `json:"clientId"`
	Status    string    `json:"status"`
	Action    string    `json:"action"`
	Period    string    `json:"period"`
	Timestamp time.Time `json:"timestamp"`
}

func (e PaymentEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// PaymentEventFromJSON decodes an event and rejects ones without a payment id.
func PaymentEventFromJSON(data []byte) (PaymentEvent, error) {
	var e PaymentEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return PaymentEvent{}, err
	}
	if e.PaymentID == "" {
		return PaymentEvent{}, fmt.Errorf("payment event without payment id")
	}
	return e, nil
}
