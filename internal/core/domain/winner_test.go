package domain_test

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/raffle-network/raffle/internal/core/domain"
	"github.com/stretchr/testify/require"
)

func TestSelectWinner(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		maxWord := new(uint256.Int).SetAllOne()

		fixtures := []struct {
			randomWord    *uint256.Int
			count         uint64
			expectedIndex uint64
		}{
			{uint256.NewInt(0), 1, 0},
			{uint256.NewInt(7), 3, 1},
			{uint256.NewInt(9), 3, 0},
			{uint256.NewInt(2), 10, 2},
			// 2^256-1 = 3 * 5 * 17 * 257 * 641 * ...
			{maxWord, 5, 0},
			{maxWord, 2, 1},
		}

		for _, f := range fixtures {
			index, err := domain.SelectWinner(f.randomWord, f.count)
			require.NoError(t, err)
			require.Equal(t, f.expectedIndex, index)
			require.Less(t, index, f.count)

			again, err := domain.SelectWinner(f.randomWord, f.count)
			require.NoError(t, err)
			require.Equal(t, index, again)
		}
	})

	t.Run("invalid", func(t *testing.T) {
		_, err := domain.SelectWinner(uint256.NewInt(7), 0)
		require.ErrorIs(t, err, domain.ErrNoParticipants)

		_, err = domain.SelectWinner(nil, 3)
		require.EqualError(t, err, "missing random word")
	})
}
