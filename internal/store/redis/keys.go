package redis

import (
	"fmt"
	"strings"
	"time"
)

const (
	// KeyPrefixBooking is the prefix for booking documents
	KeyPrefixBooking = "detailcal:booking:"
	// KeyBookingIndex is the sorted set of booking ids scored by creation time
	KeyBookingIndex = "detailcal:bookings:index"
	// ChannelBookingChanges carries a ChangeEvent after every booking write
	ChannelBookingChanges = "detailcal:bookings:changes"

	// KeyOutbox is the sorted set of pending side effects scored by due time
	KeyOutbox = "detailcal:outbox"
	// KeyOutboxDead is the list of side effects that exhausted their attempts
	KeyOutboxDead = "detailcal:outbox:dead"

	// KeyPrefixEvidence is the prefix for archived evidence documents
	KeyPrefixEvidence = "detailcal:evidence:"
	// KeyEvidenceIndex is the list of evidence ids, newest first
	KeyEvidenceIndex = "detailcal:evidence:index"

	// ChannelAlerts carries push alerts for admins
	ChannelAlerts = "detailcal:alerts"

	// KeyPrefixReminder is the prefix for sent-reminder markers
	KeyPrefixReminder = "detailcal:reminder:"

	// KeyCustomerCache holds the last non-empty customer list
	KeyCustomerCache = "detailcal:customers:cache"
)

// BookingKey returns the Redis key for a booking by ID
func BookingKey(id string) string {
	return KeyPrefixBooking + id
}

// EvidenceKey returns the Redis key for an evidence document by ID
func EvidenceKey(id string) string {
	return KeyPrefixEvidence + id
}

// ReminderKey returns the marker key for the reminder of a booking due at due.
func ReminderKey(bookingID string, due time.Time) string {
	return KeyPrefixReminder + bookingID + ":" + due.UTC().Format("20060102")
}

// ExtractBookingID extracts the booking ID from a Redis key
func ExtractBookingID(key string) (string, error) {
	if !strings.HasPrefix(key, KeyPrefixBooking) || len(key) == len(KeyPrefixBooking) {
		return "", fmt.Errorf("invalid booking key: %s", key)
	}
	return key[len(KeyPrefixBooking):], nil
}
