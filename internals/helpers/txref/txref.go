package txref

import (
	"fmt"
	"strings"
	"sync"

	"github.com/bwmarrin/snowflake"
)

const (
	PrefixTransaction = "TXN"
	PrefixAccount     = "ACC"
)

// Generator issues time-ordered, collision-free references such as
// "TXN-1790358871552188416". Node ids must differ between instances.
type Generator struct {
	node *snowflake.Node
}

func New(nodeID int64) (*Generator, error) {
	n, err := snowflake.NewNode(nodeID)
	if err != nil {
		return nil, fmt.Errorf("snowflake node %d: %w", nodeID, err)
	}
	return &Generator{node: n}, nil
}

var (
	defaultOnce sync.Once
	defaultGen  *Generator
)

// Default returns a process-wide generator on node 1. Use New for a
// configured node id.
func Default() *Generator {
	defaultOnce.Do(func() {
		g, err := New(1)
		if err != nil {
			panic(err)
		}
		defaultGen = g
	})
	return defaultGen
}

func (g *Generator) Transaction() string {
	return PrefixTransaction + "-" + g.node.Generate().String()
}

func (g *Generator) AccountNumber() string {
	return PrefixAccount + "-" + strings.ToUpper(g.node.Generate().Base36())
}
