package domain

import (
	"encoding/json"
	"time"
)

// ChangeOp is the kind of remote mutation carried by a ChangeEvent.
type ChangeOp string

const (
	ChangeUpsert ChangeOp = "upsert"
	ChangeDelete ChangeOp = "delete"
)

// ChangeEvent is published on the bookings change feed after every remote write.
// Booking is nil for deletes.
type ChangeEvent struct {
	Op      ChangeOp `json:"op"`
	ID      string   `json:"id"`
	Booking *Booking `json:"booking,omitempty"`
}

// SideEffectKind names the out-of-band work queued after a save.
type SideEffectKind string

const (
	EffectPushAlert       SideEffectKind = "push_alert"
	EffectArchiveEvidence SideEffectKind = "archive_evidence"
	EffectCustomerSync    SideEffectKind = "customer_sync"
)

// SideEffect is a durable outbox record.
type SideEffect struct {
	ID        string          `json:"id"`
	Kind      SideEffectKind  `json:"kind"`
	Payload   json.RawMessage `json:"payload"`
	Attempts  int             `json:"attempts"`
	LastError string          `json:"lastError,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`

	// Raw is the serialized form the queue handed out; used to claim the record.
	Raw string `json:"-"`
}

// Alert is the payload of an EffectPushAlert.
type Alert struct {
	Action    string    `json:"action"` // created | updated | reminder
	BookingID string    `json:"bookingId"`
	Customer  string    `json:"customer"`
	Title     string    `json:"title"`
	Date      string    `json:"date"`
	Actor     Actor     `json:"actor"`
	At        time.Time `json:"at"`
}

// Evidence is the payload of an EffectArchiveEvidence: a rendered document
// describing a non-admin mutation.
type Evidence struct {
	ID        string    `json:"id"`
	BookingID string    `json:"bookingId"`
	Action    string    `json:"action"`
	Actor     Actor     `json:"actor"`
	Document  string    `json:"document"`
	At        time.Time `json:"at"`
}

// CustomerContact is the payload of an EffectCustomerSync.
type CustomerContact struct {
	ID           string `json:"id,omitempty"`
	Name         string `json:"name"`
	Phone        string `json:"phone,omitempty"`
	Email        string `json:"email,omitempty"`
	Address      string `json:"address,omitempty"`
	Vehicle      string `json:"vehicle,omitempty"`
	VehicleYear  string `json:"vehicleYear,omitempty"`
	VehicleMake  string `json:"vehicleMake,omitempty"`
	VehicleModel string `json:"vehicleModel,omitempty"`
}
