package store

import (
	"context"
	"crypto/rand"
	"fmt"
)

const (
	base36Alphabet = "0123456789abcdefghijklmnopqrstuvwxyz"
	recordIDPrefix = "pu"
	idHashLength   = 6
	idMaxAttempts  = 20
)

// GenerateRecordID returns a new record id, retrying on the unlikely
// collision with an existing row.
func (s *Store) GenerateRecordID(ctx context.Context) (string, error) {
	return GenerateID(recordIDPrefix, func(id string) (bool, error) {
		return s.recordIDExists(ctx, id)
	})
}

// GenerateID returns a new prefixed random identifier. It retries on
// collisions using the provided exists function.
func GenerateID(prefix string, exists func(string) (bool, error)) (string, error) {
	if prefix == "" {
		return "", fmt.Errorf("id prefix is required")
	}

	for i := 0; i < idMaxAttempts; i++ {
		hash, err := randomBase36(idHashLength)
		if err != nil {
			return "", err
		}
		id := fmt.Sprintf("%s-%s", prefix, hash)
		if exists == nil {
			return id, nil
		}
		ok, err := exists(id)
		if err != nil {
			return "", err
		}
		if !ok {
			return id, nil
		}
	}

	return "", fmt.Errorf("unable to generate unique id")
}

func randomBase36(length int) (string, error) {
	b := make([]byte, length)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	out := make([]byte, length)
	for i := 0; i < length; i++ {
		out[i] = base36Alphabet[int(b[i])%len(base36Alphabet)]
	}
	return string(out), nil
}
