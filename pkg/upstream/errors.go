package upstream

import (
	"context"
	"encoding/json"
	stdErrors "errors"
	"fmt"
	"net/http"
	"strings"

	pkgerrors "github.com/angelmondragon/leasedesk-backend/pkg/errors"
)

// Error is a non-2xx answer from the system of record.
type Error struct {
	StatusCode int
	Code       string
	Message    string
	Details    map[string]any
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("upstream error: status=%d code=%s message=%s", e.StatusCode, e.Code, e.Message)
}

func parseError(status int, body []byte) *Error {
	out := &Error{StatusCode: status}
	var obj map[string]any
	if err := json.Unmarshal(body, &obj); err != nil {
		out.Message = strings.TrimSpace(string(body))
		if out.Message == "" {
			out.Message = http.StatusText(status)
		}
		return out
	}
	if inner, ok := obj["error"].(map[string]any); ok {
		obj = inner
	}
	out.Code, _ = obj["code"].(string)
	if out.Code == "" {
		out.Code, _ = obj["error_code"].(string)
	}
	out.Message, _ = obj["message"].(string)
	if d, ok := obj["details"].(map[string]any); ok {
		out.Details = d
	}
	if out.Message == "" {
		out.Message = http.StatusText(status)
	}
	return out
}

// classify maps a transport or upstream failure onto the service's error codes.
// Upstream 4xx messages are kept verbatim so operators see the server's reason.
func classify(operation string, err error) error {
	if err == nil {
		return nil
	}
	var upErr *Error
	if !stdErrors.As(err, &upErr) {
		if stdErrors.Is(err, context.Canceled) {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, operation+" cancelled")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, operation+" failed: upstream unavailable")
	}

	details := map[string]any{"upstream_status": upErr.StatusCode}
	if upErr.Code != "" {
		details["upstream_code"] = upErr.Code
	}

	var code pkgerrors.Code
	switch {
	case upErr.StatusCode == http.StatusNotFound:
		code = pkgerrors.CodeNotFound
	case upErr.StatusCode == http.StatusConflict:
		code = pkgerrors.CodeConflict
	case upErr.StatusCode == http.StatusUnprocessableEntity:
		code = pkgerrors.CodeStateConflict
	case upErr.StatusCode == http.StatusTooManyRequests:
		code = pkgerrors.CodeRateLimit
	case upErr.StatusCode == http.StatusUnauthorized || upErr.StatusCode == http.StatusForbidden:
		// the service token was refused; nothing the operator can fix
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, operation+" failed: upstream refused credentials").WithDetails(details)
	case upErr.StatusCode >= 400 && upErr.StatusCode < 500:
		code = pkgerrors.CodeValidation
	default:
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, operation+" failed").WithDetails(details)
	}
	return pkgerrors.Wrap(code, err, upErr.Message).WithDetails(details)
}
