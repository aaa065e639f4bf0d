package gateway

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"
)

type Kind int

const (
	Unknown Kind = iota
	NotFound
	ServerError
	NetworkUnreachable
	CrossOriginBlocked
)

func (k Kind) String() string {
	switch k {
	case NotFound:
		return "not_found"
	case ServerError:
		return "server_error"
	case NetworkUnreachable:
		return "network_unreachable"
	case CrossOriginBlocked:
		return "cross_origin_blocked"
	default:
		return "unknown"
	}
}

// TransportError is the uniform failure of every gateway operation.
type TransportError struct {
	Kind       Kind
	StatusCode int
	// Message is the localized text shown to the user.
	Message string
	Err     error
}

func (e *TransportError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

func IsTransportError(err error) bool {
	transportError := &TransportError{}
	return errors.As(err, &transportError)
}

// KindOf returns Unknown for errors that did not come from the gateway.
func KindOf(err error) Kind {
	transportError := &TransportError{}
	if errors.As(err, &transportError) {
		return transportError.Kind
	}
	return Unknown
}

const (
	messageNotFound    = "Ресурс не знайдено."
	messageServerError = "Внутрішня помилка сервера."
	messageCORS        = "Помилка CORS: Сервер не дозволяє доступ з цієї домену."
	messageNoResponse  = "Помилка: Сервер не відповідає."
	messageSetup       = "Помилка налаштування запиту:"
)

var successMessages = map[int]string{
	http.StatusOK:      "Дані отримано успішно:",
	http.StatusCreated: "Запис створено успішно:",
}

const messageSuccess = "Успішний статус:"

func successMessage(code int) string {
	if message, found := successMessages[code]; found {
		return message
	}
	return messageSuccess
}

func isCanceled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// classify maps a failed exchange to a TransportError. resp may be nil.
func classify(resp *resty.Response, err error) *TransportError {
	if err != nil {
		if strings.Contains(strings.ToUpper(err.Error()), "CORS") {
			return &TransportError{Kind: CrossOriginBlocked, Message: messageCORS, Err: err}
		}

		urlError := &url.Error{}
		if errors.As(err, &urlError) {
			return &TransportError{Kind: NetworkUnreachable, Message: messageNoResponse, Err: err}
		}

		return &TransportError{Kind: Unknown, Message: fmt.Sprintf("%s %s", messageSetup, err.Error()), Err: err}
	}

	code := resp.StatusCode()
	switch {
	case code == http.StatusNotFound:
		return &TransportError{Kind: NotFound, StatusCode: code, Message: messageNotFound}
	case code == http.StatusInternalServerError:
		return &TransportError{Kind: ServerError, StatusCode: code, Message: messageServerError}
	case code > http.StatusInternalServerError:
		return &TransportError{Kind: ServerError, StatusCode: code, Message: fmt.Sprintf("Помилка %d: %s", code, resp.String())}
	default:
		return &TransportError{Kind: Unknown, StatusCode: code, Message: fmt.Sprintf("Помилка %d: %s", code, resp.String())}
	}
}
