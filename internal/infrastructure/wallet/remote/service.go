package remotewallet

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/dghubble/sling"
	"github.com/raffle-network/raffle/internal/core/ports"
)

type transferRequest struct {
	Reference string `json:"reference"`
	Recipient string `json:"recipient"`
	Amount    uint64 `json:"amount,string"`
}

type transferResponse struct {
	Txid string `json:"txid"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// service forwards payouts to an external custody service exposing
// POST /v1/transfer.
type service struct {
	client *sling.Sling
	http   *http.Client
}

func NewService(url string) (ports.WalletService, error) {
	if len(url) <= 0 {
		return nil, fmt.Errorf("missing wallet url")
	}
	if !strings.HasSuffix(url, "/") {
		url += "/"
	}

	httpClient := &http.Client{
		Transport: &http.Transport{
			MaxIdleConns:    10,
			IdleConnTimeout: 10 * time.Second,
		},
		Timeout: 30 * time.Second,
	}
	return &service{
		client: sling.New().Base(url).Client(httpClient),
		http:   httpClient,
	}, nil
}

func (s *service) Transfer(
	ctx context.Context, req ports.TransferRequest,
) (string, error) {
	body := transferRequest{
		Reference: req.Reference,
		Recipient: req.Recipient,
		Amount:    req.Amount,
	}
	httpReq, err := s.client.New().Post("v1/transfer").BodyJSON(body).Request()
	if err != nil {
		return "", err
	}

	success := &transferResponse{}
	failure := &errorResponse{}
	resp, err := s.client.Do(httpReq.WithContext(ctx), success, failure)
	if err != nil {
		return "", fmt.Errorf("failed to transfer funds: %s", err)
	}
	if resp.StatusCode != http.StatusOK {
		if len(failure.Error) > 0 {
			return "", fmt.Errorf("failed to transfer funds: %s", failure.Error)
		}
		return "", fmt.Errorf("failed to transfer funds: %s", resp.Status)
	}
	if len(success.Txid) <= 0 {
		return "", fmt.Errorf("failed to transfer funds: missing txid in response")
	}
	return success.Txid, nil
}

func (s *service) Close() {
	s.http.CloseIdleConnections()
}
