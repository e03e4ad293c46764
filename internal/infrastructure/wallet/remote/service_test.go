package remotewallet_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/raffle-network/raffle/internal/core/ports"
	remotewallet "github.com/raffle-network/raffle/internal/infrastructure/wallet/remote"
	"github.com/stretchr/testify/require"
)

const player = "0x70997970C51812dc3A010C7d01b50e0d17dc79C8"

func TestTransfer(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.Method != http.MethodPost || r.URL.Path != "/v1/transfer" {
			w.WriteHeader(http.StatusNotFound)
			return
		}

		var body map[string]string
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if body["recipient"] != player {
			w.WriteHeader(http.StatusUnprocessableEntity)
			// nolint:all
			json.NewEncoder(w).Encode(map[string]string{"error": "recipient rejected"})
			return
		}
		if body["amount"] == "0" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		// nolint:all
		json.NewEncoder(w).Encode(map[string]string{"txid": "0x" + body["reference"]})
	}))
	defer server.Close()

	wallet, err := remotewallet.NewService(server.URL)
	require.NoError(t, err)
	defer wallet.Close()

	ctx := context.Background()

	t.Run("valid", func(t *testing.T) {
		txid, err := wallet.Transfer(ctx, ports.TransferRequest{
			Reference: "raffle/0",
			Recipient: player,
			Amount:    18000000000000000000,
		})
		require.NoError(t, err)
		require.Equal(t, "0xraffle/0", txid)
	})

	t.Run("invalid", func(t *testing.T) {
		fixtures := []struct {
			req         ports.TransferRequest
			expectedErr string
		}{
			{
				req: ports.TransferRequest{
					Reference: "raffle/1", Recipient: "0x00", Amount: 1,
				},
				expectedErr: "failed to transfer funds: recipient rejected",
			},
			{
				req: ports.TransferRequest{
					Reference: "raffle/1", Recipient: player, Amount: 0,
				},
				expectedErr: "failed to transfer funds: 500 Internal Server Error",
			},
		}

		for _, f := range fixtures {
			txid, err := wallet.Transfer(ctx, f.req)
			require.EqualError(t, err, f.expectedErr)
			require.Empty(t, txid)
		}

		_, err := remotewallet.NewService("")
		require.EqualError(t, err, "missing wallet url")
	})
}
