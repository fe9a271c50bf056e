package status

import "fmt"

type BidStatus int

const (
	BidOpen                 BidStatus = codeOpen
	BidClosed               BidStatus = codeClosed
	BidCanceled             BidStatus = codeCanceled
	BidPending              BidStatus = codePending
	BidConfirmed            BidStatus = codeConfirmed
	BidStarted              BidStatus = codeStarted
	BidCompleted            BidStatus = codeCompleted
	BidCanceledByWorker     BidStatus = codeCanceledByWorker
	BidCanceledByCustomer   BidStatus = codeCanceledByCustomer
	BidDeclined             BidStatus = codeDeclined
	BidWorkerOnHisWay       BidStatus = codeWorkerOnHisWay
	BidWorkerOnYourDoorstep BidStatus = codeWorkerOnYourDoorstep
	BidWorkerStartedWork    BidStatus = codeWorkerStartedWork
	BidTimeoutCanceled      BidStatus = codeTimeoutCanceled
	BidNotStarted           BidStatus = codeNotStarted
)

func ParseBidStatus(code int) (BidStatus, error) {
	if !valid(code) {
		return 0, fmt.Errorf("%w: bid %d", ErrUnknownStatus, code)
	}
	return BidStatus(code), nil
}

func BidStatuses() []BidStatus {
	out := make([]BidStatus, 0, lastCode)
	for c := firstCode; c <= lastCode; c++ {
		out = append(out, BidStatus(c))
	}
	return out
}

func (s BidStatus) String() string {
	return name(int(s))
}

func (s BidStatus) Valid() bool {
	return valid(int(s))
}

func (s BidStatus) Label() string {
	return label(int(s))
}

func (s BidStatus) IsCanceled() bool {
	return isCanceled(int(s))
}

// Badge for bids carries no raw color; the front-end styles by variant only.
func (s BidStatus) Badge() Badge {
	switch s {
	case BidOpen:
		return Badge{Variant: VariantDefault}
	case BidCompleted:
		return Badge{Variant: VariantSuccess}
	case BidCanceled, BidCanceledByWorker, BidCanceledByCustomer, BidTimeoutCanceled, BidDeclined:
		return Badge{Variant: VariantDestructive}
	case BidPending:
		return Badge{Variant: VariantOutline}
	default:
		return Badge{Variant: VariantSecondary}
	}
}

// CanViewOffers gates both the offers list and the bid's action menu.
func CanViewOffers(s BidStatus) bool {
	return s == BidOpen
}

func CanAcceptOffer(s BidStatus) bool {
	return CanViewOffers(s)
}

func CanCancelBid(s BidStatus) bool {
	return CanViewOffers(s)
}

type BidActions struct {
	CanViewOffers  bool `json:"canViewOffers"`
	CanAcceptOffer bool `json:"canAcceptOffer"`
	CanCancel      bool `json:"canCancel"`
}

func BidActionsFor(s BidStatus) BidActions {
	return BidActions{
		CanViewOffers:  CanViewOffers(s),
		CanAcceptOffer: CanAcceptOffer(s),
		CanCancel:      CanCancelBid(s),
	}
}
