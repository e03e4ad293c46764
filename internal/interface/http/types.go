package httpservice

import (
	"strconv"

	"github.com/raffle-network/raffle/internal/core/application"
	"github.com/raffle-network/raffle/internal/core/domain"
)

// Amounts are encoded as decimal strings, they don't fit a json number.

type enterRequest struct {
	Participant string `json:"participant" binding:"required"`
	Payment     string `json:"payment" binding:"required"`
}

type fulfillRequest struct {
	RequestId   string   `json:"requestId" binding:"required"`
	RandomWords []string `json:"randomWords" binding:"required"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type pendingRequest struct {
	RequestId   string `json:"requestId"`
	RoundId     uint64 `json:"roundId"`
	RequestedAt int64  `json:"requestedAt"`
	Age         int64  `json:"age"`
}

type pendingSettlement struct {
	RoundId     uint64 `json:"roundId"`
	RequestId   string `json:"requestId"`
	RandomWord  string `json:"randomWord"`
	WinnerIndex uint64 `json:"winnerIndex"`
	Winner      string `json:"winner"`
	Amount      string `json:"amount"`
	Attempts    int    `json:"attempts"`
	LastError   string `json:"lastError,omitempty"`
}

type infoResponse struct {
	Name                 string             `json:"name"`
	EntranceFee          string             `json:"entranceFee"`
	Interval             int64              `json:"interval"`
	Coordinator          string             `json:"coordinator"`
	KeyHash              string             `json:"keyHash"`
	SubscriptionId       uint64             `json:"subscriptionId"`
	RequestConfirmations uint16             `json:"requestConfirmations"`
	CallbackGasLimit     uint32             `json:"callbackGasLimit"`
	NumWords             uint32             `json:"numWords"`
	State                string             `json:"state"`
	StateCode            int                `json:"stateCode"`
	RoundId              uint64             `json:"roundId"`
	LatestTimestamp      int64              `json:"latestTimestamp"`
	Participants         uint64             `json:"participants"`
	Balance              string             `json:"balance"`
	RecentWinner         string             `json:"recentWinner"`
	UpkeepNeeded         bool               `json:"upkeepNeeded"`
	UpkeepReason         string             `json:"upkeepReason"`
	PendingRequest       *pendingRequest    `json:"pendingRequest,omitempty"`
	PendingSettlement    *pendingSettlement `json:"pendingSettlement,omitempty"`
}

type roundResponse struct {
	RoundId      uint64 `json:"roundId"`
	RequestId    string `json:"requestId"`
	RandomWord   string `json:"randomWord"`
	WinnerIndex  uint64 `json:"winnerIndex"`
	Winner       string `json:"winner"`
	Payout       string `json:"payout"`
	Participants uint64 `json:"participants"`
	Txid         string `json:"txid"`
	OpenedAt     int64  `json:"openedAt"`
	SettledAt    int64  `json:"settledAt"`
}

func newInfoResponse(info *application.RaffleInfo) infoResponse {
	resp := infoResponse{
		Name:                 info.Name,
		EntranceFee:          formatAmount(info.EntranceFee),
		Interval:             info.Interval,
		Coordinator:          info.Coordinator,
		KeyHash:              info.KeyHash,
		SubscriptionId:       info.SubscriptionId,
		RequestConfirmations: info.RequestConfirmations,
		CallbackGasLimit:     info.CallbackGasLimit,
		NumWords:             info.NumWords,
		State:                info.State.String(),
		StateCode:            int(info.State),
		RoundId:              info.RoundId,
		LatestTimestamp:      info.OpenedAt,
		Participants:         info.Participants,
		Balance:              formatAmount(info.Balance),
		RecentWinner:         info.RecentWinner,
		UpkeepNeeded:         info.UpkeepNeeded,
		UpkeepReason:         info.UpkeepReason.String(),
	}
	if p := info.PendingRequest; p != nil {
		resp.PendingRequest = &pendingRequest{
			RequestId:   p.RequestId,
			RoundId:     p.RoundId,
			RequestedAt: p.RequestedAt,
			Age:         info.PendingRequestAge,
		}
	}
	if s := info.PendingSettlement; s != nil {
		resp.PendingSettlement = &pendingSettlement{
			RoundId:     s.RoundId,
			RequestId:   s.RequestId,
			RandomWord:  s.RandomWord,
			WinnerIndex: s.WinnerIndex,
			Winner:      s.Winner,
			Amount:      formatAmount(s.Amount),
			Attempts:    s.Attempts,
			LastError:   s.LastError,
		}
	}
	return resp
}

func newRoundResponse(round domain.SettledRound) roundResponse {
	return roundResponse{
		RoundId:      round.RoundId,
		RequestId:    round.RequestId,
		RandomWord:   round.RandomWord,
		WinnerIndex:  round.WinnerIndex,
		Winner:       round.Winner,
		Payout:       formatAmount(round.Payout),
		Participants: round.Participants,
		Txid:         round.Txid,
		OpenedAt:     round.OpenedAt,
		SettledAt:    round.SettledAt,
	}
}

func formatAmount(amount uint64) string {
	return strconv.FormatUint(amount, 10)
}
