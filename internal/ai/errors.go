package ai

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrProviderUnavailable = errors.New("ai provider unavailable")
	ErrInferenceTimeout    = errors.New("ai inference timeout")
	ErrInvalidResponse     = errors.New("ai provider returned invalid response")
)

// WrapError maps a transport error from a provider SDK onto the package sentinels.
func WrapError(provider string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w", provider, ErrInferenceTimeout)
	}
	return fmt.Errorf("%s: %w: %v", provider, ErrProviderUnavailable, err)
}
