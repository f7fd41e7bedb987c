package errors

import (
	"fmt"
	"net/http"
)

var (
	// JWT и токены
	ErrInvalidSigningMethod = fmt.Errorf("неверный метод подписи токена")
	ErrInvalidToken         = fmt.Errorf("недопустимый токен")
	ErrTokenExpired         = fmt.Errorf("срок действия токена истёк")
	ErrTokenNotYetValid     = fmt.Errorf("токен ещё не активен")
	ErrTokenIsNotAccess     = fmt.Errorf("токен не является access-токеном")
	ErrTokenIsNotRefresh    = fmt.Errorf("токен не является refresh-токеном")

	// Авторизация
	ErrEmptyAuthHeader    = fmt.Errorf("заголовок авторизации отсутствует")
	ErrInvalidAuthHeader  = fmt.Errorf("неверный формат заголовка авторизации")
	ErrInvalidCredentials = fmt.Errorf("неверные учётные данные")
	ErrUnauthorized       = fmt.Errorf("неавторизован")
	ErrForbidden          = fmt.Errorf("доступ запрещён")

	// Контекст
	ErrActorNotFoundInContext = fmt.Errorf("пользователь не найден в контексте запроса")

	// Общие
	ErrNotFound   = fmt.Errorf("запись не найдена")
	ErrBadRequest = fmt.Errorf("неверный запрос")

	// Жизненный цикл заявок
	ErrTeamBusy = fmt.Errorf("у бригады уже есть заявка в работе")
)

// HttpError — ошибка с HTTP-кодом и сообщением для клиента.
// Err и Context попадают только в логи, Details — в тело ответа.
type HttpError struct {
	Code    int
	Message string
	Err     error
	Context map[string]interface{}
	Details interface{}
}

func (e *HttpError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *HttpError) Unwrap() error { return e.Err }

func NewHttpError(code int, message string, err error, context map[string]interface{}) *HttpError {
	return &HttpError{Code: code, Message: message, Err: err, Context: context}
}

func NewBadRequestError(message string) *HttpError {
	return &HttpError{Code: http.StatusBadRequest, Message: message}
}

func NewUnauthorizedError(message string) *HttpError {
	return &HttpError{Code: http.StatusUnauthorized, Message: message}
}

func NewForbiddenError(message string) *HttpError {
	return &HttpError{Code: http.StatusForbidden, Message: message}
}

func NewNotFoundError(message string) *HttpError {
	return &HttpError{Code: http.StatusNotFound, Message: message}
}

func NewConflictError(message string) *HttpError {
	return &HttpError{Code: http.StatusConflict, Message: message}
}
