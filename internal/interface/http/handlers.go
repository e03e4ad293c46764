package httpservice

import (
	"context"
	"crypto/subtle"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
	"github.com/holiman/uint256"
	"github.com/raffle-network/raffle/internal/core/application"
	log "github.com/sirupsen/logrus"
)

const (
	coordinatorHeader = "X-Oracle-Coordinator"
	credentialHeader  = "X-Oracle-Credential"
)

type handler struct {
	svc              application.Service
	oracleCredential string
}

func (h *handler) getInfo(c *gin.Context) {
	info, err := h.svc.GetInfo(c.Request.Context())
	if err != nil {
		errorJSON(c, err)
		return
	}
	c.JSON(http.StatusOK, newInfoResponse(info))
}

func (h *handler) getState(c *gin.Context) {
	info, err := h.svc.GetInfo(c.Request.Context())
	if err != nil {
		errorJSON(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"state":     info.State.String(),
		"stateCode": int(info.State),
	})
}

func (h *handler) getRecentWinner(c *gin.Context) {
	info, err := h.svc.GetInfo(c.Request.Context())
	if err != nil {
		errorJSON(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"recentWinner": info.RecentWinner})
}

func (h *handler) getParticipants(c *gin.Context) {
	participants, err := h.svc.GetParticipants(c.Request.Context())
	if err != nil {
		errorJSON(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"participants": participants})
}

func (h *handler) getParticipant(c *gin.Context) {
	index, err := strconv.ParseUint(c.Param("index"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{"invalid participant index"})
		return
	}

	participant, err := h.svc.GetParticipant(c.Request.Context(), index)
	if err != nil {
		errorJSON(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"participant": participant})
}

func (h *handler) enter(c *gin.Context) {
	var req enterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{"invalid request body"})
		return
	}
	if !common.IsHexAddress(req.Participant) {
		c.JSON(http.StatusBadRequest, errorResponse{"invalid participant address"})
		return
	}
	payment, err := strconv.ParseUint(req.Payment, 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{"invalid payment amount"})
		return
	}

	participant := common.HexToAddress(req.Participant).Hex()
	if err := h.svc.Enter(c.Request.Context(), participant, payment); err != nil {
		errorJSON(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"participant": participant})
}

func (h *handler) checkUpkeep(c *gin.Context) {
	ok, reason := h.svc.CheckUpkeep(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{
		"upkeepNeeded": ok,
		"reason":       reason.String(),
	})
}

func (h *handler) performUpkeep(c *gin.Context) {
	requestId, err := h.svc.PerformUpkeep(c.Request.Context())
	if err != nil {
		errorJSON(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"requestId": requestId})
}

func (h *handler) fulfill(c *gin.Context) {
	credential := c.GetHeader(credentialHeader)
	if len(h.oracleCredential) <= 0 || subtle.ConstantTimeCompare(
		[]byte(credential), []byte(h.oracleCredential),
	) != 1 {
		c.JSON(http.StatusUnauthorized, errorResponse{"invalid oracle credential"})
		return
	}

	var req fulfillRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{"invalid request body"})
		return
	}
	if len(req.RandomWords) <= 0 {
		c.JSON(http.StatusBadRequest, errorResponse{"missing random words"})
		return
	}
	words := make([]*uint256.Int, 0, len(req.RandomWords))
	for _, w := range req.RandomWords {
		word, err := uint256.FromDecimal(w)
		if err != nil {
			c.JSON(http.StatusBadRequest, errorResponse{
				fmt.Sprintf("invalid random word %s", w),
			})
			return
		}
		words = append(words, word)
	}

	caller := c.GetHeader(coordinatorHeader)
	if err := h.svc.FulfillRandomness(
		c.Request.Context(), caller, req.RequestId, words,
	); err != nil {
		errorJSON(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"requestId": req.RequestId})
}

func (h *handler) retrySettlement(c *gin.Context) {
	if err := h.svc.RetrySettlement(c.Request.Context()); err != nil {
		errorJSON(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *handler) getRounds(c *gin.Context) {
	rounds, err := h.svc.GetRounds(c.Request.Context())
	if err != nil {
		errorJSON(c, err)
		return
	}
	resp := make([]roundResponse, 0, len(rounds))
	for _, r := range rounds {
		resp = append(resp, newRoundResponse(r))
	}
	c.JSON(http.StatusOK, gin.H{"rounds": resp})
}

func (h *handler) getRound(c *gin.Context) {
	roundId, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{"invalid round id"})
		return
	}

	round, err := h.svc.GetRound(c.Request.Context(), roundId)
	if err != nil {
		errorJSON(c, err)
		return
	}
	c.JSON(http.StatusOK, newRoundResponse(*round))
}

// streamEvents pushes raffle events to the client as server-sent events
// until it disconnects.
func (h *handler) streamEvents(c *gin.Context) {
	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	ch := h.svc.GetEventsChannel(ctx)
	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case event, ok := <-ch:
			if !ok {
				return false
			}
			c.SSEvent(event.GetType().String(), event)
			return true
		}
	})
}

func errorJSON(c *gin.Context, err error) {
	status := statusFromError(err)
	if status == http.StatusInternalServerError {
		log.WithError(err).Warnf("%s %s failed", c.Request.Method, c.FullPath())
	}
	c.JSON(status, errorResponse{err.Error()})
}
