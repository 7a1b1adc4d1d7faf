package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golden-vcr/hmac-auth/hmac"
)

// Outcome values recorded in a Decision, in addition to RejectionKind names
const (
	OutcomeAllow    = "allow"
	OutcomeCanceled = "canceled"
)

// Decision summarizes the result of a single call to Pipeline.Provide, for logging,
// metrics and auditing. It never includes the request's signature.
type Decision struct {
	Timestamp           time.Time `json:"timestamp"`
	Outcome             string    `json:"outcome"`
	Status              int       `json:"status"`
	ApiKey              string    `json:"apiKey,omitempty"`
	Method              string    `json:"method"`
	Path                string    `json:"path"`
	Principal           string    `json:"principal,omitempty"`
	ElapsedMilliseconds float64   `json:"elapsedMilliseconds"`
	Error               string    `json:"error,omitempty"`
}

// DecisionFunc receives each Decision made by a Pipeline
type DecisionFunc func(ctx context.Context, d Decision)

// Broadcast combines several DecisionFuncs into one that calls each in turn
func Broadcast(fns ...DecisionFunc) DecisionFunc {
	return func(ctx context.Context, d Decision) {
		for _, fn := range fns {
			if fn != nil {
				fn(ctx, d)
			}
		}
	}
}

func newDecision[P any](start time.Time, req Request, creds hmac.Credentials, principal P, err error) Decision {
	elapsed := time.Since(start)
	d := Decision{
		Timestamp:           start.UTC(),
		Outcome:             OutcomeAllow,
		Status:              http.StatusOK,
		ApiKey:              creds.ApiKey,
		Method:              req.Method(),
		ElapsedMilliseconds: float64(elapsed.Nanoseconds()) / float64(1000000),
	}
	if uri := req.RequestURI(); uri != nil {
		d.Path = uri.EscapedPath()
	}

	var rejection *Rejection
	switch {
	case err == nil:
		d.Principal = fmt.Sprint(principal)
	case errors.As(err, &rejection):
		d.Outcome = rejection.Kind.String()
		d.Status = rejection.Kind.StatusCode()
		if rejection.Err != nil {
			d.Error = rejection.Err.Error()
		}
	case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
		d.Outcome = OutcomeCanceled
		d.Status = StatusCode(err)
		d.Error = err.Error()
	default:
		d.Outcome = KindInternal.String()
		d.Status = StatusCode(err)
		d.Error = err.Error()
	}
	return d
}
