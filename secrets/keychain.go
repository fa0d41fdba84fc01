package secrets

import (
	"errors"
	"fmt"
	"strings"

	"github.com/zalando/go-keyring"
)

const serviceName = "twingatebot"

var ErrNoToken = errors.New("bot token not configured")

// TokenSource supplies the bot token.
type TokenSource interface {
	Token() (string, error)
}

// Static is a token taken verbatim from configuration.
type Static string

func (s Static) Token() (string, error) {
	t := strings.TrimSpace(string(s))
	if t == "" {
		return "", ErrNoToken
	}
	return t, nil
}

// Keychain reads the token from the OS keychain under the given account.
type Keychain struct {
	Account string
}

func (k Keychain) Token() (string, error) {
	t, err := keyring.Get(serviceName, k.Account)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", fmt.Errorf("keychain account %q: %w", k.Account, ErrNoToken)
		}
		return "", fmt.Errorf("keychain account %q: %w", k.Account, err)
	}
	return Static(t).Token()
}

// Source picks where the token comes from: an explicit token wins, otherwise
// the keychain account is consulted.
func Source(token, account string) TokenSource {
	if strings.TrimSpace(token) != "" || account == "" {
		return Static(token)
	}
	return Keychain{Account: account}
}

// Resolve returns the token from the source chosen by Source.
func Resolve(token, account string) (string, error) {
	return Source(token, account).Token()
}
