package vectors

import "strings"

// Role identifies who produced an utterance.
type Role int

// The zero Role is RoleUser, the default speaker of a stored utterance.
const (
	// RoleUser is the human side of a conversation.
	RoleUser Role = iota

	// RoleAssistant is the model side of a conversation.
	RoleAssistant

	// RoleOther covers any speaker that is neither the user nor the assistant.
	RoleOther
)

var roleNames = map[Role]string{
	RoleUser:      "user",
	RoleAssistant: "assistant",
	RoleOther:     "other",
}

// roleScalars is the one-dimensional encoding of each role.
var roleScalars = map[Role]float64{
	RoleUser:      1.0,
	RoleAssistant: 0.0,
	RoleOther:     0.5,
}

// ParseRole maps a role name to a Role. Unrecognized names map to RoleOther.
func ParseRole(name string) Role {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "user":
		return RoleUser
	case "assistant":
		return RoleAssistant
	}
	return RoleOther
}

// String returns the stored name of the role.
func (r Role) String() string {
	if name, ok := roleNames[r]; ok {
		return name
	}
	return roleNames[RoleOther]
}

// MarshalText encodes the role by name.
func (r Role) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// UnmarshalText decodes a role name; unknown names become RoleOther.
func (r *Role) UnmarshalText(text []byte) error {
	*r = ParseRole(string(text))
	return nil
}

// Scalar returns the role's value in the role space.
func (r Role) Scalar() float64 {
	if v, ok := roleScalars[r]; ok {
		return v
	}
	return roleScalars[RoleOther]
}

// RoleGenerator produces role vectors.
type RoleGenerator struct{}

// Generate returns the single-element role vector.
func (RoleGenerator) Generate(role Role) []float64 {
	return []float64{role.Scalar()}
}
