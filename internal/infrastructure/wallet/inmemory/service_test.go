package inmemorywallet_test

import (
	"context"
	"testing"

	"github.com/raffle-network/raffle/internal/core/ports"
	inmemorywallet "github.com/raffle-network/raffle/internal/infrastructure/wallet/inmemory"
	"github.com/stretchr/testify/require"
)

const (
	player  = "0x70997970C51812dc3A010C7d01b50e0d17dc79C8"
	player2 = "0x3C44CdDdB6a900fa2b585dd299e03d12FA4293BC"
)

func TestTransfer(t *testing.T) {
	ctx := context.Background()

	t.Run("valid", func(t *testing.T) {
		wallet := inmemorywallet.NewService()
		defer wallet.Close()

		req := ports.TransferRequest{
			Reference: "raffle/0",
			Recipient: player,
			Amount:    30000000000000000,
		}
		txid, err := wallet.Transfer(ctx, req)
		require.NoError(t, err)
		require.Len(t, txid, 66)

		// same reference, same payout
		again, err := wallet.Transfer(ctx, req)
		require.NoError(t, err)
		require.Equal(t, txid, again)

		req.Reference = "raffle/1"
		other, err := wallet.Transfer(ctx, req)
		require.NoError(t, err)
		require.NotEqual(t, txid, other)

		payouts := wallet.Payouts()
		require.Len(t, payouts, 2)
		require.Equal(t, txid, payouts[0].Txid)
		require.Equal(t, player, payouts[0].Recipient)
		require.Equal(t, uint64(30000000000000000), payouts[0].Amount)
	})

	t.Run("invalid", func(t *testing.T) {
		wallet := inmemorywallet.NewService(player2)

		req := ports.TransferRequest{
			Reference: "raffle/0",
			Recipient: player2,
			Amount:    1,
		}
		txid, err := wallet.Transfer(ctx, req)
		require.EqualError(t, err, "recipient "+player2+" rejected the transfer")
		require.Empty(t, txid)
		require.Empty(t, wallet.Payouts())

		wallet.AcceptRecipient(player2)
		txid, err = wallet.Transfer(ctx, req)
		require.NoError(t, err)
		require.NotEmpty(t, txid)

		_, err = wallet.Transfer(ctx, ports.TransferRequest{Amount: 1})
		require.EqualError(t, err, "missing recipient")

		wallet.Close()
		_, err = wallet.Transfer(ctx, req)
		require.EqualError(t, err, "wallet closed")
	})
}
