package graph

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// MarshalListing serializes a Listing to pretty-printed JSON bytes.
func MarshalListing(l Listing) ([]byte, error) {
	if l.SemanticDistances == nil {
		l.SemanticDistances = map[string]float64{}
	}
	return json.MarshalIndent(l, "", "  ")
}

// UnmarshalListing deserializes JSON bytes into a Listing. Domain ids must be
// present and unique.
func UnmarshalListing(data []byte) (Listing, error) {
	var l Listing
	if err := json.Unmarshal(data, &l); err != nil {
		return Listing{}, fmt.Errorf("unmarshal listing: %w", err)
	}
	if err := l.Validate(); err != nil {
		return Listing{}, err
	}
	return l, nil
}

// Validate checks that every domain has a unique, non-empty id.
func (l Listing) Validate() error {
	seen := make(map[string]bool, len(l.Domains))
	for i, d := range l.Domains {
		if d.ID == "" {
			return fmt.Errorf("domain %d has no id", i)
		}
		if seen[d.ID] {
			return fmt.Errorf("duplicate domain id %q", d.ID)
		}
		seen[d.ID] = true
	}
	return nil
}

// ReadListing reads a Listing from r.
func ReadListing(r io.Reader) (Listing, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Listing{}, err
	}
	return UnmarshalListing(data)
}

// ReadListingFile reads a Listing from a JSON file.
func ReadListingFile(path string) (Listing, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Listing{}, fmt.Errorf("read %s: %w", path, err)
	}
	return UnmarshalListing(data)
}

// WriteListingFile writes a Listing to a JSON file.
func WriteListingFile(l Listing, path string) error {
	data, err := MarshalListing(l)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
