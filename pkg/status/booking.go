package status

import "fmt"

type BookingStatus int

const (
	BookingOpen                 BookingStatus = codeOpen
	BookingClosed               BookingStatus = codeClosed
	BookingCanceled             BookingStatus = codeCanceled
	BookingPending              BookingStatus = codePending
	BookingConfirmed            BookingStatus = codeConfirmed
	BookingStarted              BookingStatus = codeStarted
	BookingCompleted            BookingStatus = codeCompleted
	BookingCanceledByWorker     BookingStatus = codeCanceledByWorker
	BookingCanceledByCustomer   BookingStatus = codeCanceledByCustomer
	BookingDeclined             BookingStatus = codeDeclined
	BookingWorkerOnHisWay       BookingStatus = codeWorkerOnHisWay
	BookingWorkerOnYourDoorstep BookingStatus = codeWorkerOnYourDoorstep
	BookingWorkerStartedWork    BookingStatus = codeWorkerStartedWork
	BookingTimeoutCanceled      BookingStatus = codeTimeoutCanceled
	BookingNotStarted           BookingStatus = codeNotStarted
)

// ParseBookingStatus accepts only enumerated codes.
func ParseBookingStatus(code int) (BookingStatus, error) {
	if !valid(code) {
		return 0, fmt.Errorf("%w: booking %d", ErrUnknownStatus, code)
	}
	return BookingStatus(code), nil
}

// BookingStatuses lists every defined booking status in code order.
func BookingStatuses() []BookingStatus {
	out := make([]BookingStatus, 0, lastCode)
	for c := firstCode; c <= lastCode; c++ {
		out = append(out, BookingStatus(c))
	}
	return out
}

func (s BookingStatus) String() string {
	return name(int(s))
}

func (s BookingStatus) Valid() bool {
	return valid(int(s))
}

// Label returns the user-facing label, "Unknown" for out-of-range codes.
func (s BookingStatus) Label() string {
	return label(int(s))
}

func (s BookingStatus) IsCanceled() bool {
	return isCanceled(int(s))
}

// Badge returns the badge variant along with the raw display color.
func (s BookingStatus) Badge() Badge {
	switch s {
	case BookingCompleted:
		return Badge{Variant: VariantSuccess, Color: ColorLightGreen}
	case BookingCanceled, BookingCanceledByWorker, BookingCanceledByCustomer, BookingTimeoutCanceled, BookingDeclined:
		return Badge{Variant: VariantDestructive, Color: ColorRed}
	case BookingConfirmed, BookingStarted, BookingWorkerOnHisWay, BookingWorkerOnYourDoorstep, BookingWorkerStartedWork:
		return Badge{Variant: VariantDefault, Color: ColorBlue}
	case BookingPending:
		return Badge{Variant: VariantOutline, Color: ColorAmber}
	default:
		return Badge{Variant: VariantSecondary, Color: ColorGray}
	}
}

// IsCancelable reports whether role may cancel a booking in status s. Only
// bookings that have not started yet can be canceled.
func IsCancelable(s BookingStatus, role Role) bool {
	if !role.Valid() {
		return false
	}
	switch s {
	case BookingPending, BookingConfirmed:
		return true
	default:
		return false
	}
}

// CanAddReview reports whether role may review a booking in status s.
func CanAddReview(s BookingStatus, role Role) bool {
	return s == BookingCompleted && role == RoleCustomer
}

// CanceledBy is the status a booking lands in when role cancels it.
func CanceledBy(role Role) BookingStatus {
	switch role {
	case RoleWorker:
		return BookingCanceledByWorker
	case RoleCustomer:
		return BookingCanceledByCustomer
	default:
		return BookingCanceled
	}
}

type BookingActions struct {
	CanCancel    bool `json:"canCancel"`
	CanAddReview bool `json:"canAddReview"`
}

func BookingActionsFor(s BookingStatus, role Role) BookingActions {
	return BookingActions{
		CanCancel:    IsCancelable(s, role),
		CanAddReview: CanAddReview(s, role),
	}
}
