package slicekit

import (
	"fmt"
	"strings"
)

// KeySeparator joins a slice name and a base key.
const KeySeparator = "/"

// Namespace derives the namespaced key for key within the slice name.
func Namespace(name, key string) string {
	return name + KeySeparator + key
}

// ValidateName rejects slice names that cannot produce unique namespaced keys.
func ValidateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return ErrNameRequired
	}
	if strings.Contains(name, KeySeparator) {
		return fmt.Errorf("%w: %q contains %q", ErrInvalidName, name, KeySeparator)
	}
	return nil
}

// ValidateKey rejects base keys that could collide once namespaced.
func ValidateKey(key string) error {
	if strings.TrimSpace(key) == "" {
		return ErrKeyRequired
	}
	if strings.Contains(key, KeySeparator) {
		return fmt.Errorf("%w: key %q contains %q", ErrKeyCollision, key, KeySeparator)
	}
	return nil
}
