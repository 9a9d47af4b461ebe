package validate

import (
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/google/uuid"
)

// RequiredString validates that a string field is not empty
func RequiredString(value, field string) error {
	if value == "" {
		return fmt.Errorf("%s is required", field)
	}
	return nil
}

// RequiredSlice validates that a slice has at least one element
func RequiredSlice(values []string, field string) error {
	if len(values) == 0 {
		return fmt.Errorf("%s requires at least one item", field)
	}
	return nil
}

// OneOf validates that a string is one of the allowed values
func OneOf(value string, allowed []string, field string) error {
	for _, a := range allowed {
		if value == a {
			return nil
		}
	}
	return fmt.Errorf("invalid value for %s: %q (allowed: %v)", field, value, allowed)
}

// UUID validates that an optional field holds a canonical UUID, as required
// for installer upgrade codes.
func UUID(value, field string) error {
	if value == "" {
		return nil
	}
	if _, err := uuid.Parse(value); err != nil {
		return fmt.Errorf("%s must be a UUID: %w", field, err)
	}
	return nil
}

// PositiveDuration validates that an optional duration is not negative.
func PositiveDuration(value time.Duration, field string) error {
	if value < 0 {
		return fmt.Errorf("%s must not be negative", field)
	}
	return nil
}

// ExistingFile validates that path names an existing regular file.
func ExistingFile(path, field string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("%s: %w", field, err)
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("%s: %s is not a regular file", field, path)
	}
	return nil
}

// ExistingDir validates that path names an existing directory.
func ExistingDir(path, field string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("%s: %w", field, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s: %s is not a directory", field, path)
	}
	return nil
}

// HTTPURL validates that an optional field holds an absolute http(s) URL.
func HTTPURL(value, field string) error {
	if value == "" {
		return nil
	}
	u, err := url.Parse(value)
	if err != nil {
		return fmt.Errorf("%s: %w", field, err)
	}
	if (u.Scheme != "https" && u.Scheme != "http") || u.Host == "" {
		return fmt.Errorf("%s must be an http(s) URL, got %q", field, value)
	}
	return nil
}
