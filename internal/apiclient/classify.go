package apiclient

import (
	"errors"
	"net/http"
	"strings"
)

// Message keys returned by ClassifyError.
const (
	MsgSessionExpired = "session.expired"
	MsgNetwork        = "network"
	MsgAuthPassword   = "auth.password"
	MsgAuthBlocked    = "auth.blocked"
	MsgForbidden      = "forbidden"
	MsgValidation     = "validation"
	MsgGeneric        = "generic"
)

// Message is a user facing rendering of an API error.
type Message struct {
	Key  string
	Text string
}

var messageTexts = map[string]string{
	MsgSessionExpired: "Your session has expired. Please sign in again.",
	MsgNetwork:        "The server could not be reached. Check your connection.",
	MsgAuthPassword:   "Incorrect username or password.",
	MsgAuthBlocked:    "This account is blocked. Contact an administrator.",
	MsgForbidden:      "You do not have permission to perform this action.",
	MsgGeneric:        "Something went wrong. Please try again.",
}

// ClassifyError picks the message for err. Codes are checked first, then the
// message text is searched for "password" and "blocked".
func ClassifyError(err error) Message {
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr == nil {
		if err == nil {
			return Message{}
		}
		return message(MsgGeneric, "")
	}

	switch apiErr.Code {
	case CodeSessionExpired:
		return message(MsgSessionExpired, "")
	case CodeNetworkError:
		return message(MsgNetwork, "")
	}

	text := strings.ToLower(apiErr.Message)
	switch {
	case strings.Contains(text, "password"):
		return message(MsgAuthPassword, "")
	case strings.Contains(text, "blocked"):
		return message(MsgAuthBlocked, "")
	case apiErr.Code == CodePermissionDenied || apiErr.StatusCode == http.StatusForbidden:
		return message(MsgForbidden, "")
	case apiErr.Code == CodeInvalidInput || apiErr.StatusCode == http.StatusBadRequest:
		return message(MsgValidation, apiErr.Message)
	default:
		return message(MsgGeneric, "")
	}
}

func message(key, text string) Message {
	if text == "" {
		text = messageTexts[key]
	}
	return Message{Key: key, Text: text}
}
