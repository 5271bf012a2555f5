package valueobjects

import (
	"errors"

	"github.com/google/uuid"
)

// NodeID identifies a shared content record. Many instances may
// reference the same NodeID.
type NodeID struct {
	value string
}

// NewNodeID creates a new random NodeID
func NewNodeID() NodeID {
	return NodeID{value: uuid.New().String()}
}

// NewNodeIDFromString creates a NodeID from an existing string
func NewNodeIDFromString(id string) (NodeID, error) {
	if id == "" {
		return NodeID{}, errors.New("node ID cannot be empty")
	}
	if _, err := uuid.Parse(id); err != nil {
		return NodeID{}, errors.New("node ID must be a valid UUID")
	}
	return NodeID{value: id}, nil
}

// String returns the string representation of the NodeID
func (id NodeID) String() string {
	return id.value
}

// Equals checks if two NodeIDs are equal
func (id NodeID) Equals(other NodeID) bool {
	return id.value == other.value
}

// IsZero checks if the NodeID is the zero value
func (id NodeID) IsZero() bool {
	return id.value == ""
}

// MarshalJSON implements json.Marshaler
func (id NodeID) MarshalJSON() ([]byte, error) {
	return marshalIDString(id.value)
}

// UnmarshalJSON implements json.Unmarshaler
func (id *NodeID) UnmarshalJSON(data []byte) error {
	v, err := unmarshalIDString(data)
	if err != nil {
		return err
	}
	id.value = v
	return nil
}

// InstanceID identifies one placement of a node on the canvas.
type InstanceID struct {
	value string
}

// NewInstanceID creates a new random InstanceID
func NewInstanceID() InstanceID {
	return InstanceID{value: uuid.New().String()}
}

// NewInstanceIDFromString creates an InstanceID from an existing string
func NewInstanceIDFromString(id string) (InstanceID, error) {
	if id == "" {
		return InstanceID{}, errors.New("instance ID cannot be empty")
	}
	if _, err := uuid.Parse(id); err != nil {
		return InstanceID{}, errors.New("instance ID must be a valid UUID")
	}
	return InstanceID{value: id}, nil
}

// String returns the string representation of the InstanceID
func (id InstanceID) String() string {
	return id.value
}

// Equals checks if two InstanceIDs are equal
func (id InstanceID) Equals(other InstanceID) bool {
	return id.value == other.value
}

// IsZero checks if the InstanceID is the zero value
func (id InstanceID) IsZero() bool {
	return id.value == ""
}

// MarshalJSON implements json.Marshaler
func (id InstanceID) MarshalJSON() ([]byte, error) {
	return marshalIDString(id.value)
}

// UnmarshalJSON implements json.Unmarshaler
func (id *InstanceID) UnmarshalJSON(data []byte) error {
	v, err := unmarshalIDString(data)
	if err != nil {
		return err
	}
	id.value = v
	return nil
}

func marshalIDString(value string) ([]byte, error) {
	return []byte(`"` + value + `"`), nil
}

func unmarshalIDString(data []byte) (string, error) {
	if string(data) == "null" {
		return "", nil
	}
	if len(data) < 2 || data[0] != '"' || data[len(data)-1] != '"' {
		return "", errors.New("id must be a string")
	}
	return string(data[1 : len(data)-1]), nil
}
