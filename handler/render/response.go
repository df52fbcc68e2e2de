package render

import (
	"net/http"
	"os"
	"strconv"

	"nftlend/core"
)

// Response internal error msg as hint
var ResponseErrorMessageAsHint bool

func init() {
	v := os.Getenv("RESPONSE_ERROR_MESSAGE_AS_HINT")
	ResponseErrorMessageAsHint, _ = strconv.ParseBool(v)
}

type errorResponse struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
	Hint string `json:"hint,omitempty"`
}

// Err renders err by its error code. Rejections are client errors, invariant
// violations and errors without a code are internal.
func Err(w http.ResponseWriter, err error) {
	code := core.CodeOf(err)

	switch {
	case code == core.ErrAssetNotFound || code == core.ErrTokenNotOwned:
		write(w, http.StatusNotFound, errorResponse{Code: int(code), Msg: code.Error()})
	case code == core.ErrUnknown || code.IsInvariant():
		resp := errorResponse{Code: int(code), Msg: "internal error"}
		if ResponseErrorMessageAsHint {
			resp.Hint = err.Error()
		}
		write(w, http.StatusInternalServerError, resp)
	default:
		write(w, http.StatusBadRequest, errorResponse{Code: int(code), Msg: code.Error()})
	}
}
