package model

import (
	"errors"
	"fmt"
)

type PaymentStatus string

const (
	StatusUnpaid   PaymentStatus = "unpaid"
	StatusPending  PaymentStatus = "pending"
	StatusPaid     PaymentStatus = "paid"
	StatusRejected PaymentStatus = "rejected"
)

// Label is what residents see; "pending" shows as "Processing".
func (s PaymentStatus) Label() string {
	switch s {
	case StatusUnpaid:
		return "Unpaid"
	case StatusPending:
		return "Processing"
	case StatusPaid:
		return "Paid"
	case StatusRejected:
		return "Rejected"
	}
	return string(s)
}

func (s PaymentStatus) Valid() bool {
	switch s {
	case StatusUnpaid, StatusPending, StatusPaid, StatusRejected:
		return true
	}
	return false
}

// Payable reports whether a resident may submit a payment for the instance.
func (s PaymentStatus) Payable() bool {
	return s == StatusUnpaid || s == StatusRejected
}

type Event string

const (
	EventSubmit  Event = "submit"
	EventApprove Event = "approve"
	EventReject  Event = "reject"
	EventReopen  Event = "reopen"
)

var ErrIllegalTransition = errors.New("illegal payment status transition")

var transitions = map[PaymentStatus]map[Event]PaymentStatus{
	StatusUnpaid: {
		EventSubmit: StatusPending,
	},
	StatusRejected: {
		EventSubmit: StatusPending,
		EventReopen: StatusUnpaid,
	},
	StatusPending: {
		EventApprove: StatusPaid,
		EventReject:  StatusRejected,
	},
}

// Transition is the only place that decides which status changes are legal.
// Paid is terminal.
func Transition(from PaymentStatus, ev Event) (PaymentStatus, error) {
	if next, ok := transitions[from][ev]; ok {
		return next, nil
	}
	return from, fmt.Errorf("%w: cannot %s from %s", ErrIllegalTransition, ev, from)
}
