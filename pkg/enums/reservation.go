package enums

import "fmt"

// ReservationStatus tracks stock held for an order item.
type ReservationStatus string

const (
	ReservationStatusReserved ReservationStatus = "RESERVED"
	ReservationStatusReleased ReservationStatus = "RELEASED"
	ReservationStatusReturned ReservationStatus = "RETURNED"
)

func (s ReservationStatus) String() string {
	return string(s)
}

// IsReleaseOutcome reports whether s is a valid target for releasing a reservation.
func (s ReservationStatus) IsReleaseOutcome() bool {
	return s == ReservationStatusReleased || s == ReservationStatusReturned
}

// AlertStatus tracks an operator-facing reservation alert.
type AlertStatus string

const (
	AlertStatusOpen     AlertStatus = "OPEN"
	AlertStatusResolved AlertStatus = "RESOLVED"
)

func (s AlertStatus) IsValid() bool {
	return s == AlertStatusOpen || s == AlertStatusResolved
}

func ParseAlertStatus(value string) (AlertStatus, error) {
	status := AlertStatus(value)
	if !status.IsValid() {
		return "", fmt.Errorf("invalid alert status %q", value)
	}
	return status, nil
}
