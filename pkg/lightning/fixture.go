package lightning

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Fixture file names, one canned response per RPC.
const (
	GetInfoFile      = "getinfo.txt"
	ListFundsFile    = "listfunds.txt"
	ListChannelsFile = "listchannels-all.txt"
	OwnChannelsFile  = "listchannels.txt"
	ListPeersFile    = "listpeers.txt"
	ListNodesFile    = "listnodes.txt"
)

// FeeUpdate is a setchannelfee call recorded by FixtureClient.
type FeeUpdate struct {
	ShortChannelID string
	BaseMsat       int
	PPM            int
}

// FixtureClient answers from JSON files in Dir instead of a live daemon.
type FixtureClient struct {
	Dir string

	mu      sync.Mutex
	updates []FeeUpdate
}

func NewFixtureClient(dir string) *FixtureClient {
	return &FixtureClient{Dir: dir}
}

func (f *FixtureClient) load(name string, out any) error {
	path := filepath.Join(f.Dir, name)
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read fixture: %w", err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode fixture %s: %w", path, err)
	}
	return nil
}

func (f *FixtureClient) GetInfo(ctx context.Context) (Info, error) {
	var info Info
	err := f.load(GetInfoFile, &info)
	return info, err
}

func (f *FixtureClient) ListFunds(ctx context.Context) (Funds, error) {
	var funds Funds
	err := f.load(ListFundsFile, &funds)
	return funds, err
}

// ListChannels serves the whole graph for an empty source and the node's own
// channels otherwise; the source id itself is not checked.
func (f *FixtureClient) ListChannels(ctx context.Context, source string) ([]Channel, error) {
	name := ListChannelsFile
	if source != "" {
		name = OwnChannelsFile
	}
	var resp channelsResponse
	if err := f.load(name, &resp); err != nil {
		return nil, err
	}
	return resp.Channels, nil
}

func (f *FixtureClient) ListPeers(ctx context.Context) ([]Peer, error) {
	var resp peersResponse
	if err := f.load(ListPeersFile, &resp); err != nil {
		return nil, err
	}
	return resp.Peers, nil
}

func (f *FixtureClient) ListNodes(ctx context.Context) ([]NodeInfo, error) {
	var resp nodesResponse
	if err := f.load(ListNodesFile, &resp); err != nil {
		return nil, err
	}
	return resp.Nodes, nil
}

// SetChannelFee records the call and changes nothing.
func (f *FixtureClient) SetChannelFee(ctx context.Context, shortChannelID string, baseMsat, ppm int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates = append(f.updates, FeeUpdate{ShortChannelID: shortChannelID, BaseMsat: baseMsat, PPM: ppm})
	return nil
}

// FeeUpdates returns the recorded setchannelfee calls in call order.
func (f *FixtureClient) FeeUpdates() []FeeUpdate {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]FeeUpdate(nil), f.updates...)
}
