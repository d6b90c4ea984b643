package engine

// Reject is a validation rejection reason. Every illegal action maps to one
// of the named reasons below; the reason is surfaced verbatim to the
// initiating actor and never causes a session mutation.
type Reject string

func (r Reject) Error() string { return string(r) }

const (
	RejectInvalidPlayerCount Reject = "InvalidPlayerCount"
	RejectInvalidBidAmount   Reject = "InvalidBidAmount"
	RejectRoomNotJoinable    Reject = "RoomNotJoinable"
	RejectRoomFull           Reject = "RoomFull"
	RejectAlreadyJoined      Reject = "AlreadyJoined"
	RejectNotAuthorized      Reject = "NotAuthorized"
	RejectNotEnoughPlayers   Reject = "NotEnoughPlayers"
	RejectInvalidState       Reject = "InvalidState"
	RejectNotYourTurn        Reject = "NotYourTurn"
	RejectInvalidBid         Reject = "InvalidBid"
	RejectNoBidToChallenge   Reject = "NoBidToChallenge"
	RejectNotInRoom          Reject = "NotInRoom"
	RejectAlreadyRevealed    Reject = "AlreadyRevealed"
	RejectRevealMismatch     Reject = "RevealMismatch"
)
