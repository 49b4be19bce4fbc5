package container

import (
	"encoding/json"
	"fmt"
)

// Source tells where a delivered container came from.
type Source string

const (
	SourceNetwork Source = "network"
	SourceSaved   Source = "saved"
	SourceDefault Source = "default"
)

// Container is a key-value configuration payload addressed by a container id.
type Container struct {
	ID      string            `json:"id"`
	Version string            `json:"version"`
	Values  map[string]string `json:"values"`
	Source  Source            `json:"-"`
}

// GetString returns the value stored under key, or "" when the key is absent.
func (c *Container) GetString(key string) string {
	if c == nil {
		return ""
	}
	return c.Values[key]
}

func decodeContainer(id string, data []byte, source Source) (*Container, error) {
	var c Container
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedContainer, err)
	}
	if c.ID == "" {
		c.ID = id
	}
	if c.Values == nil {
		c.Values = map[string]string{}
	}
	c.Source = source
	return &c, nil
}

func encodeContainer(c *Container) ([]byte, error) {
	return json.Marshal(c)
}

// Status is the terminal state of one fetch attempt.
type Status int

const (
	StatusSuccess Status = iota
	StatusFailure
	StatusTimeout
)

func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusFailure:
		return "failure"
	case StatusTimeout:
		return "timeout"
	default:
		return "unknown"
	}
}

// Outcome is produced once per Fetch. Container is set only on success.
type Outcome struct {
	Status    Status
	Container *Container
	Err       error
}

func succeeded(c *Container) Outcome {
	return Outcome{Status: StatusSuccess, Container: c}
}

func failed(err error) Outcome {
	return Outcome{Status: StatusFailure, Err: fmt.Errorf("%w: %w", ErrFetchFailure, err)}
}

func timedOut() Outcome {
	return Outcome{Status: StatusTimeout, Err: ErrFetchTimeout}
}
