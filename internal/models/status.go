package models

const (
	OrderStatusNew        = "new"
	OrderStatusPending    = "pending"
	OrderStatusInProgress = "in_progress"
	OrderStatusCompleted  = "completed"
	OrderStatusDelivered  = "delivered"
	OrderStatusCancelled  = "cancelled"
	OrderStatusLost       = "lost"
)

const (
	PaymentUnpaid   = "unpaid"
	PaymentPaid     = "paid"
	PaymentRefunded = "refunded"
)

const (
	SubmissionStatusNew        = "new"
	SubmissionStatusInProgress = "in_progress"
	SubmissionStatusPending    = "pending"
	SubmissionStatusDelivered  = "delivered"
	SubmissionStatusLost       = "lost"
)

var orderTransitions = map[string][]string{
	OrderStatusNew:        {OrderStatusPending, OrderStatusInProgress, OrderStatusCancelled, OrderStatusLost},
	OrderStatusPending:    {OrderStatusInProgress, OrderStatusCancelled, OrderStatusLost},
	OrderStatusInProgress: {OrderStatusCompleted, OrderStatusDelivered, OrderStatusCancelled, OrderStatusLost},
	// completed work can be reopened when the client asks for a revision
	OrderStatusCompleted: {OrderStatusDelivered, OrderStatusInProgress},
	OrderStatusDelivered: nil,
	OrderStatusCancelled: nil,
	OrderStatusLost:      nil,
}

var submissionTransitions = map[string][]string{
	SubmissionStatusNew:        {SubmissionStatusInProgress, SubmissionStatusPending, SubmissionStatusLost},
	SubmissionStatusInProgress: {SubmissionStatusPending, SubmissionStatusDelivered, SubmissionStatusLost},
	SubmissionStatusPending:    {SubmissionStatusInProgress, SubmissionStatusDelivered, SubmissionStatusLost},
	SubmissionStatusDelivered:  nil,
	SubmissionStatusLost:       nil,
}

func ValidOrderStatus(s string) bool {
	_, ok := orderTransitions[s]
	return ok
}

func ValidSubmissionStatus(s string) bool {
	_, ok := submissionTransitions[s]
	return ok
}

func ValidPaymentStatus(s string) bool {
	switch s {
	case PaymentUnpaid, PaymentPaid, PaymentRefunded:
		return true
	}
	return false
}

// CanTransitionOrder reports whether an order may move from one status to another.
// Staying in the same status is always allowed.
func CanTransitionOrder(from, to string) bool {
	return canTransition(orderTransitions, from, to)
}

func CanTransitionSubmission(from, to string) bool {
	return canTransition(submissionTransitions, from, to)
}

func canTransition(table map[string][]string, from, to string) bool {
	next, ok := table[from]
	if !ok {
		return false
	}
	if _, ok := table[to]; !ok {
		return false
	}
	if from == to {
		return true
	}
	for _, s := range next {
		if s == to {
			return true
		}
	}
	return false
}
