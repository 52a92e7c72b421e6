package middleware

import (
	"context"
	"crypto/subtle"
	"net"
	"net/http"
	"strings"

	"github.com/akolanti/RagBot/internal/adapter/utils"
	"github.com/akolanti/RagBot/internal/config"
	"github.com/akolanti/RagBot/internal/handlers"
	"github.com/akolanti/RagBot/pkg/logger_i"
)

func injectTrace(re requestResponseStruct) requestResponseStruct {
	re.logger.Debug("Injecting trace middleware")
	req := re.req
	if req == nil {
		//this is a bad request
		re.badRequest.httpCode = http.StatusBadRequest
		re.badRequest.errorMessage = "request is empty"
		re.badRequest.isBadRequest = true
		return re
	}
	trace := req.Header.Get("X-Trace-Id")
	if trace == "" {
		trace = utils.GetNewUUID()
	}
	re.logger = re.logger.With("traceId", trace)
	ctx := context.WithValue(req.Context(), config.TRACE_ID_KEY, trace)
	req.Header.Set(`X-Trace-Id`, trace)
	re.req = req.WithContext(ctx)

	re.logger.Debug("trace middleware injected")
	return re
}

func adminAuthenticate(re requestResponseStruct) requestResponseStruct {
	re.logger.Debug("Authenticating admin request")

	if config.NoAuthBypass {
		re.logger.Error("--------------------------------------- auth bypass----------------------------------------------")
		return re
	}
	if config.AdminPassword == "" {
		// a protected endpoint with no password configured stays closed
		re.badRequest = failureStruct{
			isBadRequest: true,
			httpCode:     http.StatusInternalServerError,
			errorMessage: "Admin password is not configured",
		}
		return re
	}
	if !IsValidAdminToken(adminToken(re.req), re.logger) {
		re.badRequest = failureStruct{
			isBadRequest: true,
			httpCode:     http.StatusForbidden,
			errorMessage: "Invalid admin token",
		}
		return re
	}
	re.logger.Debug("Authorized")
	return re
}

// adminToken reads X-Admin-Token, falling back to a bearer header for
// clients that only speak Authorization.
func adminToken(req *http.Request) string {
	if token := req.Header.Get("X-Admin-Token"); token != "" {
		return token
	}
	return strings.TrimPrefix(req.Header.Get("Authorization"), "Bearer ")
}

func IsValidAdminToken(token string, log *logger_i.Logger) bool {
	if token == "" {
		log.Error("Empty admin token")
		return false
	}
	if subtle.ConstantTimeCompare([]byte(token), []byte(handlers.AdminTokenHex())) != 1 {
		log.Error("Invalid admin token")
		return false
	}

	return true
}

func rateLimiter(re requestResponseStruct) requestResponseStruct {
	re.logger.Debug("Rate limiter middleware")
	ip, _, err := net.SplitHostPort(re.req.RemoteAddr)
	if err != nil {
		ip = re.req.RemoteAddr
	}

	if !limiterInstance.GetLimiter(ip).Allow() {
		re.logger.Error("Too many requests", "Rate Limiter exceeded", ip)
		re.badRequest = failureStruct{
			isBadRequest: true,
			httpCode:     http.StatusTooManyRequests,
			errorMessage: "Rate limit exceeded, slow down",
		}
		return re
	}
	re.logger.Debug("Rate limiter middleware authorized")
	return re
}

func handleBadRequest(re requestResponseStruct) {
	remote := ""
	if re.req != nil {
		remote = re.req.RemoteAddr
	}
	re.logger.Warn("Bad request", "httpCode", re.badRequest.httpCode, "errorMessage", re.badRequest.errorMessage, "IP", remote)
	handlers.WriteErrorResponse(re.writer, re.badRequest.httpCode, re.badRequest.errorMessage)
}
