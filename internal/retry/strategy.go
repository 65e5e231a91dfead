package retry

import (
	"errors"
	"math"
	"math/rand"
	"time"

	"golang.org/x/exp/constraints"
)

type Strategy interface {
	// Sleep returns the delay before attempt retryCount+1 and whether the
	// retry budget is exhausted.
	Sleep(retryCount uint) (time.Duration, bool)
}

type never struct{}

func NewNever() Strategy {
	return &never{}
}

func (n *never) Sleep(uint) (time.Duration, bool) {
	return 0, true
}

type Entropy func(int64) int64

type exponentialBackOff struct {
	base          time.Duration
	max           time.Duration
	maxRetryCount uint
	entropy       Entropy
}

// NewExponentialBackOff returns full-jitter backoff: attempt n sleeps a
// random duration in [0, min(base*2^n, max)). A nil entropy uses
// math/rand.
func NewExponentialBackOff(base time.Duration, max time.Duration, maxRetryCount uint, entropy Entropy) Strategy {
	if entropy == nil {
		entropy = rand.Int63n
	}
	return &exponentialBackOff{
		base:          base,
		max:           max,
		maxRetryCount: maxRetryCount,
		entropy:       entropy,
	}
}

func (eb *exponentialBackOff) Sleep(retryCount uint) (time.Duration, bool) {
	if retryCount >= eb.maxRetryCount {
		return 0, true
	}

	ceiling := int64(eb.max)
	if retryCount < 63 {
		if delay, err := checkedMul(int64(1)<<retryCount, int64(eb.base)); err == nil {
			ceiling = lesser(delay, ceiling)
		}
	}
	if ceiling <= 0 {
		return 0, false
	}

	return time.Duration(eb.entropy(ceiling)), false
}

func lesser[T constraints.Ordered](l T, r T) T {
	if l > r {
		return r
	}
	return l
}

var ErrOverflow = errors.New("overflow")

func checkedMul(l int64, r int64) (int64, error) {
	if l == 0 || r == 0 {
		return 0, nil
	}
	if l > math.MaxInt64/r {
		return 0, ErrOverflow
	}
	return l * r, nil
}
