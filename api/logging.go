package api

import (
	"labflux.com/lfx/logger"
	"github.com/rs/zerolog"
	"net/http"
)

var defaultLogger = logger.NewLogger("API")

type endpointLoggerFields struct {
	Method        string `json:"method"`
	Url           string `json:"url"`
	RemoteAddr    string `json:"remote_addr"`
	ContentLength int64  `json:"content_length"`
}

const RequestInfoFieldsKey = "request_info"

func makeRequestLogger(request *http.Request) zerolog.Logger {
	fields := endpointLoggerFields{
		Method:        request.Method,
		Url:           request.URL.String(),
		RemoteAddr:    request.RemoteAddr,
		ContentLength: request.ContentLength,
	}
	return defaultLogger.
		With().Interface(RequestInfoFieldsKey, fields).Logger()
}
