package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/emicklei/go-restful/v3"
	"github.com/rs/zerolog/log"
)

// ErrorResponse is the JSON body of every non-2xx answer.
type ErrorResponse struct {
	Error   string `json:"error" description:"Error message"`
	Code    int    `json:"code" description:"HTTP status code"`
	Details string `json:"details,omitempty" description:"Optional details"`
}

func HandleError(resp *restful.Response, err error, code int) {
	body := ErrorResponse{
		Error: http.StatusText(code),
		Code:  code,
	}
	if err != nil {
		body.Details = err.Error()
	}

	if writeErr := resp.WriteHeaderAndEntity(code, body); writeErr != nil {
		log.Error().Err(writeErr).Msg("Failed to write error response")
	}
}

// Logger logs one line per request once the chain has finished.
func Logger(req *restful.Request, resp *restful.Response, chain *restful.FilterChain) {
	start := time.Now()

	chain.ProcessFilter(req, resp)

	event := log.Info()
	if resp.StatusCode() >= http.StatusInternalServerError {
		event = log.Error()
	}
	event.
		Str("method", req.Request.Method).
		Str("path", req.Request.URL.Path).
		Int("status", resp.StatusCode()).
		Dur("duration", time.Since(start)).
		Msg("HTTP request")
}

func RecoverPanic(req *restful.Request, resp *restful.Response, chain *restful.FilterChain) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().
				Interface("panic", r).
				Str("path", req.Request.URL.Path).
				Msg("Recovered from panic")
			HandleError(resp, fmt.Errorf("panic: %v", r), http.StatusInternalServerError)
		}
	}()

	chain.ProcessFilter(req, resp)
}
