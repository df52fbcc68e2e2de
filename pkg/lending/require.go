package lending

import (
	"nftlend/core"
)

// Require returns code as error if condition is false
func Require(condition bool, code core.ErrorCode) error {
	if !condition {
		return code
	}

	return nil
}
