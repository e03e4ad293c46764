package domain

import (
	"fmt"

	"github.com/holiman/uint256"
)

// SelectWinner maps a random word onto the participants list by taking it
// modulo the number of participants.
func SelectWinner(randomWord *uint256.Int, count uint64) (uint64, error) {
	if count == 0 {
		return 0, ErrNoParticipants
	}
	if randomWord == nil {
		return 0, fmt.Errorf("missing random word")
	}
	index := new(uint256.Int).Mod(randomWord, uint256.NewInt(count))
	return index.Uint64(), nil
}
