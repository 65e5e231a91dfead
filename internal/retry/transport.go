// Package retry provides an http.RoundTripper that retries object storage
// requests on connection failures and gateway errors.
package retry

import (
	"errors"
	"io"
	"net"
	"net/http"
	"time"
)

type Transport struct {
	Base     http.RoundTripper
	Strategy Strategy
}

func (t *Transport) RoundTrip(request *http.Request) (*http.Response, error) {
	for retryCount := uint(0); ; retryCount++ {
		response, err := t.base().RoundTrip(request)
		if !retryable(response, err) {
			return response, err
		}

		sleep, exceeded := t.strategy().Sleep(retryCount)
		if exceeded {
			return response, err
		}
		next, ok := rewind(request)
		if !ok {
			return response, err
		}
		if response != nil {
			_, _ = io.Copy(io.Discard, response.Body)
			_ = response.Body.Close()
		}

		timer := time.NewTimer(sleep)
		select {
		case <-request.Context().Done():
			timer.Stop()
			return nil, request.Context().Err()
		case <-timer.C:
		}
		request = next
	}
}

func (t *Transport) base() http.RoundTripper {
	if t.Base != nil {
		return t.Base
	}
	return http.DefaultTransport
}

func (t *Transport) strategy() Strategy {
	if t.Strategy != nil {
		return t.Strategy
	}
	return NewNever()
}

func retryable(response *http.Response, err error) bool {
	if err != nil {
		var netErr net.Error
		return errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) || (errors.As(err, &netErr) && netErr.Timeout()) || isDialError(err)
	}

	switch response.StatusCode {
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	}
	return false
}

func isDialError(err error) bool {
	var opErr *net.OpError
	return errors.As(err, &opErr) && opErr.Op == "dial"
}

// rewind returns a copy of request whose body can be sent again.
func rewind(request *http.Request) (*http.Request, bool) {
	if request.Body == nil || request.Body == http.NoBody {
		return request, true
	}
	if request.GetBody == nil {
		return nil, false
	}

	body, err := request.GetBody()
	if err != nil {
		return nil, false
	}
	next := request.Clone(request.Context())
	next.Body = body
	return next, true
}
