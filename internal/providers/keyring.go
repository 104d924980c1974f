package providers

import (
	"errors"
	"sync"

	"pumpfun-radar/internal/observability"
)

// ErrAllKeysExhausted means every configured credential was rejected with
// 401/429 during a single call. The call is treated as "upstream
// unavailable"; the ring keeps its advanced position for the next call.
var ErrAllKeysExhausted = errors.New("all provider credentials exhausted")

// keyring holds an ordered list of credentials and the current index.
// A 401/429 advances the index atomically; the advanced position is shared
// by all subsequent calls.
type keyring struct {
	provider string
	mu       sync.Mutex
	keys     []string
	idx      int
}

func newKeyring(provider string, keys []string) *keyring {
	// An empty ring still performs one unauthenticated attempt.
	if len(keys) == 0 {
		keys = []string{""}
	}
	return &keyring{provider: provider, keys: keys}
}

// current returns the active credential.
func (k *keyring) current() string {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.keys[k.idx]
}

// advance rotates to the next credential if the rejected key is still the
// active one (a concurrent call may have rotated already).
func (k *keyring) advance(rejected string) {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.keys[k.idx] == rejected {
		k.idx = (k.idx + 1) % len(k.keys)
		observability.RecordKeyRotation(k.provider)
	}
}

// size returns the number of credentials in the ring.
func (k *keyring) size() int {
	return len(k.keys)
}

// withRotation runs fn with the active credential, rotating on 401/429
// until one key succeeds or all are exhausted.
func (k *keyring) withRotation(fn func(key string) error) error {
	for attempt := 0; attempt < k.size(); attempt++ {
		key := k.current()
		err := fn(key)
		if err == nil {
			return nil
		}
		var se *statusError
		if errors.As(err, &se) && se.rotatable() {
			k.advance(key)
			continue
		}
		return err
	}
	return ErrAllKeysExhausted
}
