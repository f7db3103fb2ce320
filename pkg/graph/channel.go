package graph

import (
	"sync"

	"github.com/go-playground/validator/v10"
)

// ChannelRecord is one direction of a channel as listed by the daemon.
// Satoshis is a pointer so that a missing capacity can be told apart from zero.
type ChannelRecord struct {
	ShortChannelID string `json:"short_channel_id"`
	Source         string `json:"source" validate:"required"`
	Destination    string `json:"destination" validate:"required"`
	Satoshis       *int64 `json:"satoshis" validate:"required,gte=0"`
	Public         bool   `json:"public"`
}

// Edge is a directed, capacity-bearing link owned by its source node.
type Edge struct {
	ShortChannelID string
	Source         string
	Destination    string
	Capacity       int64 // sats
	Public         bool  // informational, never filtered on
}

// Node is a network participant and its outgoing edges, in listing order.
type Node struct {
	ID    string
	Alias string
	Edges []Edge
}

// Degree is the number of outgoing edges.
func (n *Node) Degree() int {
	return len(n.Edges)
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func recordValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// Validate checks that the record carries every field the graph needs.
func (r ChannelRecord) Validate() error {
	return recordValidator().Struct(r)
}

// Sats is a helper for building records by hand.
func Sats(v int64) *int64 {
	return &v
}
