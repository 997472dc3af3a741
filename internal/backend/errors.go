package backend

import "fmt"

// RequestError — бэкенд доступен, но ответил неуспешным статусом.
type RequestError struct {
	Status     int
	StatusText string
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("%d %s", e.Status, e.StatusText)
}

// NetworkError — транспорт не смог завершить запрос (DNS, connect, timeout)
// либо предохранитель разомкнут и до транспорта дело не дошло.
type NetworkError struct {
	Cause error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("backend unreachable: %v", e.Cause)
}

func (e *NetworkError) Unwrap() error { return e.Cause }
