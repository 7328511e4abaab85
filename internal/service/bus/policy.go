package bus

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
)

const (
	StrategyConstant    = "constant"
	StrategyExponential = "exponential"

	DefaultReconnectDelay = 3 * time.Second
)

// NewReconnectPolicy builds the reconnect delay policy. Constant by default;
// exponential grows from delay up to maxDelay and never gives up.
func NewReconnectPolicy(strategy string, delay, maxDelay time.Duration) backoff.BackOff {
	if delay <= 0 {
		delay = DefaultReconnectDelay
	}

	if strategy == StrategyExponential {
		eb := backoff.NewExponentialBackOff()
		eb.InitialInterval = delay
		if maxDelay > delay {
			eb.MaxInterval = maxDelay
		} else {
			eb.MaxInterval = delay
		}
		eb.MaxElapsedTime = 0
		eb.Reset()
		return eb
	}

	return backoff.NewConstantBackOff(delay)
}

// URLFromBase derives the push endpoint from the REST base URL:
// http becomes ws, https becomes wss, and path is appended.
func URLFromBase(base, path string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("invalid base url: %w", err)
	}

	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", fmt.Errorf("unsupported base url scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return "", fmt.Errorf("base url has no host: %q", base)
	}

	u.Path = strings.TrimRight(u.Path, "/") + "/" + strings.TrimLeft(path, "/")
	return u.String(), nil
}
