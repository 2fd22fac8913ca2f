package middleware

import (
	"net/http"
	"strconv"

	"github.com/ragdemo/docchat/internal/metrics"
	"github.com/ragdemo/docchat/pkg/logger_i"
	"golang.org/x/time/rate"
)

type requestResponseStruct struct {
	writer     http.ResponseWriter
	req        *http.Request
	badRequest failureStruct
	logger     *logger_i.Logger
}

type failureStruct struct {
	isBadRequest bool
	httpCode     int
	errorMessage string
}

// Chain runs the per-request steps in front of every API handler.
// A nil limiter disables rate limiting.
type Chain struct {
	limiter *IPRateLimiter
}

func NewChain(ratePerSecond int, burst int) *Chain {
	c := &Chain{}
	if ratePerSecond > 0 {
		c.limiter = NewIPRateLimiter(rate.Limit(ratePerSecond), burst)
	}
	return c
}

func (c *Chain) Wrap(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec := &metrics.HttpStatusRecorder{ResponseWriter: w, Status: http.StatusOK} //metrics
		defer func() {
			metrics.HttpRequestsTotal.WithLabelValues(r.URL.Path, strconv.Itoa(rec.Status)).Inc() //metrics
		}()

		re := c.processRequest(requestResponseStruct{req: r, writer: rec})
		if !handleBadRequest(re) {
			return
		}
		next(rec, re.req)
	}
}

func (c *Chain) processRequest(re requestResponseStruct) requestResponseStruct {
	re.logger = logger_i.NewLogger("middleware")
	re = injectTrace(re)
	if re.badRequest.isBadRequest {
		return re
	}
	re.logger.Info("New request received", "method", re.req.Method, "path", re.req.URL.Path)

	if c.limiter != nil {
		re = rateLimiter(re, c.limiter)
	}
	return re
}
