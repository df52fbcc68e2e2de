package render

import (
	"encoding/json"
	"net/http"

	"github.com/sirupsen/logrus"
)

type H map[string]interface{}

// JSON render with json
func JSON(w http.ResponseWriter, v interface{}) {
	write(w, http.StatusOK, v)
}

// Status renders v as json with statusCode
func Status(w http.ResponseWriter, statusCode int, v interface{}) {
	write(w, statusCode, v)
}

func write(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		logrus.WithError(err).Errorln("render: encode")
	}
}

// Error write error
func Error(w http.ResponseWriter, statusCode, errCode int, err error) {
	write(w, statusCode, errorResponse{Code: errCode, Msg: err.Error()})
}

// BadRequest bad request error
func BadRequest(w http.ResponseWriter, err error) {
	Error(w, http.StatusBadRequest, -1, err)
}

// NotFoundRequest not found request error
func NotFoundRequest(w http.ResponseWriter, err error) {
	Error(w, http.StatusNotFound, -1, err)
}
