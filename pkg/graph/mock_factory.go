package graph

import "strconv"

// MockFactory constructs channel graph scenarios for tests and demos.
type MockFactory struct {
	Records []ChannelRecord
	Aliases map[string]string
	next    int
}

func NewMockFactory() *MockFactory {
	return &MockFactory{Aliases: make(map[string]string)}
}

// AddChannel adds a single direction source->destination.
func (m *MockFactory) AddChannel(source, destination string, sats int64) *MockFactory {
	m.next++
	m.Records = append(m.Records, ChannelRecord{
		ShortChannelID: mockSCID(m.next),
		Source:         source,
		Destination:    destination,
		Satoshis:       Sats(sats),
		Public:         true,
	})
	return m
}

// AddBidirectional adds both directions of one channel, sharing an id.
func (m *MockFactory) AddBidirectional(a, b string, sats int64) *MockFactory {
	m.next++
	scid := mockSCID(m.next)
	m.Records = append(m.Records,
		ChannelRecord{ShortChannelID: scid, Source: a, Destination: b, Satoshis: Sats(sats), Public: true},
		ChannelRecord{ShortChannelID: scid, Source: b, Destination: a, Satoshis: Sats(sats), Public: true},
	)
	return m
}

// AddAlias registers a display name.
func (m *MockFactory) AddAlias(id, alias string) *MockFactory {
	m.Aliases[id] = alias
	return m
}

// Build materialises the graph with aliases resolved.
func (m *MockFactory) Build() *Graph {
	g := Build(m.Records)
	g.ResolveAliases(m.Aliases)
	return g
}

func mockSCID(n int) string {
	return "600000x" + strconv.Itoa(n) + "x0"
}
