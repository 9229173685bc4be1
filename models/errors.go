package models

import "fmt"

// TransportError is a failed round trip to the backtest service: the request
// never completed or it came back with a non-2xx status.
type TransportError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("error: %s returned status %d", e.Op, e.StatusCode)
	}
	return fmt.Sprintf("error: %s failed: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

type SubmissionError struct {
	Err error
}

func (e *SubmissionError) Error() string {
	return fmt.Sprintf("error: couldn't start backtest: %v", e.Err)
}

func (e *SubmissionError) Unwrap() error {
	return e.Err
}

type PollFetchError struct {
	Err error
}

func (e *PollFetchError) Error() string {
	return fmt.Sprintf("error: couldn't fetch new log lines: %v", e.Err)
}

func (e *PollFetchError) Unwrap() error {
	return e.Err
}
