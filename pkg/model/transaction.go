package model

import (
	"time"
)

// Transaction is the canonical point-of-sale record used everywhere past
// ingestion. The feed reports records with several possible field encodings;
// Normalize resolves all of them once so downstream code never touches the
// wire shape.
type Transaction struct {
	// TransactionID uniquely identifies the event. It is the de-duplication
	// key for every window, always compared as a string.
	TransactionID string `json:"transaction_id"`

	// Amount is the transaction amount in currency units.
	// Unparsable or missing amounts normalize to 0.
	Amount float64 `json:"amount"`

	MerchantName string `json:"merchant"`
	Category     string `json:"category"`
	City         string `json:"city"`
	State        string `json:"state"`

	// Latitude and Longitude are optional location coordinates.
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`

	// DateOfBirth is the cardholder's date of birth, nil when absent or
	// unparsable. Records without it are excluded from age analysis only.
	DateOfBirth *time.Time `json:"dob,omitempty"`

	// Timestamp is the event time in epoch milliseconds, 0 when no
	// encoding could be parsed. Zero is not an error: window membership
	// fails open for such records.
	Timestamp int64 `json:"timestamp"`

	// Fraud is the resolved ML prediction.
	Fraud bool `json:"fraud"`
}

// HasTimestamp reports whether an event time could be extracted.
func (t Transaction) HasTimestamp() bool {
	return t.Timestamp > 0
}

// Time returns the event time, or the zero time when unknown.
func (t Transaction) Time() time.Time {
	if t.Timestamp <= 0 {
		return time.Time{}
	}
	return time.UnixMilli(t.Timestamp)
}

// Envelope is the wire shape the feed uses for a single record: the raw
// transaction payload plus the ML prediction as a sibling field. Older feed
// snapshots carry the prediction inside the payload as ml_prediction; both
// placements are accepted, the sibling wins when present.
type Envelope struct {
	Transaction     map[string]any `json:"transaction"`
	FraudPrediction any            `json:"fraudPrediction"`
}

// WindowResponse is the wire shape of a trailing-window feed query.
// Success false means "no new information", never "empty window".
type WindowResponse struct {
	Success      bool       `json:"success"`
	Transactions []Envelope `json:"transactions"`
}

// Normalize flattens a wire envelope into a canonical Transaction.
// Every polymorphic field is resolved here and nowhere else.
func Normalize(env Envelope) Transaction {
	raw := env.Transaction

	prediction := env.FraudPrediction
	if prediction == nil {
		prediction = raw["ml_prediction"]
	}

	return Transaction{
		TransactionID: normalizeID(firstPresent(raw, "trans_num", "transaction_id", "id")),
		Amount:        parseAmount(firstPresent(raw, "amt", "amount")),
		MerchantName:  stringField(raw, "merchant", "merchant_name"),
		Category:      stringField(raw, "category"),
		City:          stringField(raw, "city"),
		State:         stringField(raw, "state"),
		Latitude:      floatField(raw, "lat", "latitude"),
		Longitude:     floatField(raw, "long", "lon", "longitude"),
		DateOfBirth:   parseDate(stringField(raw, "dob", "date_of_birth")),
		Timestamp:     ExtractTimestamp(raw),
		Fraud:         IsFraud(prediction),
	}
}

// NormalizeAll flattens a list of envelopes, discarding entries without a
// usable transaction id. An id-less record cannot participate in
// de-duplication, so it is treated as a malformed payload entry.
func NormalizeAll(envs []Envelope) []Transaction {
	out := make([]Transaction, 0, len(envs))
	for _, env := range envs {
		t := Normalize(env)
		if t.TransactionID == "" {
			continue
		}
		out = append(out, t)
	}
	return out
}
