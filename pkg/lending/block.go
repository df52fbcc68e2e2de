package lending

import (
	"errors"
)

// BlockByTime block number of unix timestamp now
func BlockByTime(genesis, secondsPerBlock, now int64) (int64, error) {
	if secondsPerBlock <= 0 {
		return 0, errors.New("secondsPerBlock should not be less than or equal zero")
	}

	seconds := now - genesis
	if seconds < 0 {
		return 0, errors.New("invalid blocks")
	}

	return seconds / secondsPerBlock, nil
}

// SameBlock reports whether both timestamps fall into one block.
// A zero timestamp never matches.
func SameBlock(genesis, secondsPerBlock, a, b int64) bool {
	if a == 0 || b == 0 {
		return false
	}

	ba, err := BlockByTime(genesis, secondsPerBlock, a)
	if err != nil {
		return false
	}

	bb, err := BlockByTime(genesis, secondsPerBlock, b)
	if err != nil {
		return false
	}

	return ba == bb
}
