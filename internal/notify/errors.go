package notify

import (
	"errors"
	"fmt"
)

// ErrDelivery matches every failure to hand a message to the webhook.
var ErrDelivery = errors.New("slack delivery failed")

// DeliveryError wraps a transport failure or a non-success webhook response.
// StatusCode is zero when no response was received.
type DeliveryError struct {
	StatusCode int
	Err        error
}

func (e *DeliveryError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%v: status %d: %v", ErrDelivery, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%v: %v", ErrDelivery, e.Err)
}

func (e *DeliveryError) Unwrap() []error {
	return []error{ErrDelivery, e.Err}
}
