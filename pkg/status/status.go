// Package status classifies booking and bid lifecycle codes into display
// labels, badge styles and permitted actions. Statuses are assigned by the
// backend; this package never decides what the next status is.
package status

import "errors"

// Wire codes shared by bookings and bids.
const (
	codeOpen = iota + 1
	codeClosed
	codeCanceled
	codePending
	codeConfirmed
	codeStarted
	codeCompleted
	codeCanceledByWorker
	codeCanceledByCustomer
	codeDeclined
	codeWorkerOnHisWay
	codeWorkerOnYourDoorstep
	codeWorkerStartedWork
	codeTimeoutCanceled
	codeNotStarted
)

const (
	firstCode = codeOpen
	lastCode  = codeNotStarted
)

const labelUnknown = "Unknown"

var ErrUnknownStatus = errors.New("unknown status")

func label(code int) string {
	switch code {
	case codeOpen:
		return "Open"
	case codeClosed:
		return "Closed"
	case codeCanceled, codeCanceledByWorker, codeCanceledByCustomer, codeTimeoutCanceled:
		return "Canceled"
	case codePending:
		return "Pending"
	case codeConfirmed:
		return "Confirmed"
	case codeStarted:
		return "Started"
	case codeCompleted:
		return "Completed"
	case codeDeclined:
		return "Declined"
	case codeWorkerOnHisWay:
		return "On The Way"
	case codeWorkerOnYourDoorstep:
		return "At Your Doorstep"
	case codeWorkerStartedWork:
		return "Work Started"
	case codeNotStarted:
		return "Not Started"
	default:
		return labelUnknown
	}
}

func name(code int) string {
	switch code {
	case codeOpen:
		return "OPEN"
	case codeClosed:
		return "CLOSED"
	case codeCanceled:
		return "CANCELED"
	case codePending:
		return "PENDING"
	case codeConfirmed:
		return "CONFIRMED"
	case codeStarted:
		return "STARTED"
	case codeCompleted:
		return "COMPLETED"
	case codeCanceledByWorker:
		return "CANCELED_BY_WORKER"
	case codeCanceledByCustomer:
		return "CANCELED_BY_CUSTOMER"
	case codeDeclined:
		return "DECLINED"
	case codeWorkerOnHisWay:
		return "WORKER_IS_ON_HIS_WAY"
	case codeWorkerOnYourDoorstep:
		return "WORKER_IS_ON_YOUR_DOORSTEP"
	case codeWorkerStartedWork:
		return "WORKER_HAS_STARTED_THE_WORK"
	case codeTimeoutCanceled:
		return "TIMEOUT_CANCELED"
	case codeNotStarted:
		return "NOT_STARTED"
	default:
		return "UNKNOWN"
	}
}

func valid(code int) bool {
	return code >= firstCode && code <= lastCode
}

func isCanceled(code int) bool {
	switch code {
	case codeCanceled, codeCanceledByWorker, codeCanceledByCustomer, codeTimeoutCanceled:
		return true
	default:
		return false
	}
}
