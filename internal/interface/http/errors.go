package httpservice

import (
	"errors"
	"net/http"

	"github.com/raffle-network/raffle/internal/core/domain"
)

var errorStatuses = []struct {
	err    error
	status int
}{
	{domain.ErrInsufficientPayment, http.StatusBadRequest},
	{domain.ErrExcessPayment, http.StatusBadRequest},
	{domain.ErrInvalidParticipant, http.StatusBadRequest},
	{domain.ErrOnlyCoordinatorCanFulfill, http.StatusForbidden},
	{domain.ErrIndexOutOfRange, http.StatusNotFound},
	{domain.ErrUnknownRequest, http.StatusNotFound},
	{domain.ErrRoundNotFound, http.StatusNotFound},
	{domain.ErrRoundNotOpen, http.StatusConflict},
	{domain.ErrUpkeepNotNeeded, http.StatusConflict},
	{domain.ErrReentrantCall, http.StatusConflict},
	{domain.ErrNoSettlementPending, http.StatusConflict},
	{domain.ErrOracleRequestFailed, http.StatusBadGateway},
	{domain.ErrTransferFailed, http.StatusBadGateway},
}

func statusFromError(err error) int {
	for _, e := range errorStatuses {
		if errors.Is(err, e.err) {
			return e.status
		}
	}
	return http.StatusInternalServerError
}
