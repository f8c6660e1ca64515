package core

import (
	"fmt"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
)

// IDGenerator produces memory ids. Implementations must be safe for
// concurrent use and never repeat an id within a process.
type IDGenerator interface {
	NewID() string
}

type snowflakeIDs struct {
	node *snowflake.Node
}

func (g *snowflakeIDs) NewID() string {
	return g.node.Generate().String()
}

type uuidIDs struct{}

func (uuidIDs) NewID() string {
	return uuid.NewString()
}

// NewIDGenerator returns the generator for scheme ("snowflake" or "uuid").
func NewIDGenerator(scheme string, nodeID int64) (IDGenerator, error) {
	switch scheme {
	case "", "snowflake":
		node, err := snowflake.NewNode(nodeID)
		if err != nil {
			return nil, fmt.Errorf("%w: snowflake node %d: %v", ErrInvalidConfig, nodeID, err)
		}
		return &snowflakeIDs{node: node}, nil
	case "uuid":
		return uuidIDs{}, nil
	}
	return nil, fmt.Errorf("%w: unknown id scheme %q", ErrInvalidConfig, scheme)
}
