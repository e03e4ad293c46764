package domain

const RaffleTopic = "raffle"

const (
	EventTypeUndefined EventType = iota
	EventTypeRaffleStarted
	EventTypeRaffleEntered
	EventTypeUpkeepPerformed
	EventTypeRandomnessFulfilled
	EventTypeWinnerPicked
	EventTypeSettlementFailed
)

type EventType int

func (t EventType) String() string {
	switch t {
	case EventTypeRaffleStarted:
		return "RaffleStarted"
	case EventTypeRaffleEntered:
		return "RaffleEntered"
	case EventTypeUpkeepPerformed:
		return "UpkeepPerformed"
	case EventTypeRandomnessFulfilled:
		return "RandomnessFulfilled"
	case EventTypeWinnerPicked:
		return "WinnerPicked"
	case EventTypeSettlementFailed:
		return "SettlementFailed"
	default:
		return "Undefined"
	}
}

type Event interface {
	GetTopic() string
	GetType() EventType
}

type RaffleEvent struct {
	Id   string
	Type EventType
}

func (e RaffleEvent) GetTopic() string   { return RaffleTopic }
func (e RaffleEvent) GetType() EventType { return e.Type }

type RaffleStarted struct {
	RaffleEvent
	Config    Config
	Timestamp int64
}

type RaffleEntered struct {
	RaffleEvent
	RoundId     uint64
	Participant string
	Amount      uint64
}

// UpkeepPerformed is emitted when the raffle moves to the calculating state
// and a randomness request has been issued for the round.
type UpkeepPerformed struct {
	RaffleEvent
	RoundId   uint64
	RequestId string
	Timestamp int64
}

type RandomnessFulfilled struct {
	RaffleEvent
	RoundId      uint64
	RequestId    string
	RandomWord   string
	WinnerIndex  uint64
	Winner       string
	Amount       uint64
	Participants uint64
	Timestamp    int64
}

type WinnerPicked struct {
	RaffleEvent
	RoundId      uint64
	RequestId    string
	RandomWord   string
	WinnerIndex  uint64
	Winner       string
	Payout       uint64
	Participants uint64
	Txid         string
	OpenedAt     int64
	Timestamp    int64
}

type SettlementFailed struct {
	RaffleEvent
	RoundId   uint64
	Winner    string
	Amount    uint64
	Reason    string
	Timestamp int64
}
