package auction

import "errors"

var (
	ErrAuctionClosed     = errors.New("auction already closed")
	ErrNotStarted        = errors.New("auction not started")
	ErrAlreadyStarted    = errors.New("auction already started")
	ErrInsufficientFunds = errors.New("bid exceeds player money")
	ErrStallLimit        = errors.New("no stalls left")
	ErrSkillTooLow       = errors.New("eye skill too low to kick tires")
	ErrUnknownRival      = errors.New("rival not in this auction")
	ErrAlreadyKicked     = errors.New("tires already kicked on this rival")
)

type InvalidStateError string

func (e InvalidStateError) Error() string { return "invalid state: " + string(e) }

func ErrInvalidState(msg string) error { return InvalidStateError(msg) }
