package credentials

import (
	"encoding/base64"
	"errors"
	"fmt"
	"os"
)

// Fetcher returns raw credentials material, such as a service-account JSON document.
type Fetcher interface {
	Fetch() ([]byte, error)
}

// From is a type definition for a function that returns a byte slice and an error.
type From func() ([]byte, error)

// Fetch calls f.
func (f From) Fetch() ([]byte, error) {
	return f()
}

// FromBase64Env reads the Base64 encoded value of the environment variable key and decodes it.
func FromBase64Env(key string) From {
	return func() ([]byte, error) {
		encoded := os.Getenv(key)
		if encoded == "" {
			return nil, fmt.Errorf("credentials env %s is not set", key)
		}

		return base64.StdEncoding.DecodeString(encoded)
	}
}

// FromFile reads credentials from the file at path.
func FromFile(path string) From {
	return func() ([]byte, error) {
		if path == "" {
			return nil, errors.New("credentials file path is empty")
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read credentials file: %w", err)
		}

		if len(data) == 0 {
			return nil, fmt.Errorf("credentials file %s is empty", path)
		}

		return data, nil
	}
}
