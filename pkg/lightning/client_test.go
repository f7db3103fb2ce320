package lightning

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"testing"
	"time"

	"github.com/lcwatch/lcw/pkg/config"
	"github.com/lcwatch/lcw/pkg/graph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	selfID  = "0206c604b332b386b6cce8355ccf27fffd3a98b7a7a5b9b3a550c039c6ebae38e4"
	alphaID = "028ed3f6ad685b959ead7022518e1af76cd816f8e8ec7ccdda1ed4018e8f2223f8"
)

// fakeCommand re-executes the test binary as a stand-in lightning-cli.
func fakeCommand(t *testing.T) *[]string {
	t.Helper()
	var seen []string
	orig := execCommand
	execCommand = func(ctx context.Context, name string, args ...string) *exec.Cmd {
		seen = append([]string{name}, args...)
		cs := append([]string{"-test.run=TestHelperProcess", "--"}, args...)
		cmd := exec.CommandContext(ctx, os.Args[0], cs...)
		cmd.Env = append(os.Environ(), "GO_WANT_HELPER_PROCESS=1")
		return cmd
	}
	t.Cleanup(func() { execCommand = orig })
	return &seen
}

func TestHelperProcess(t *testing.T) {
	if os.Getenv("GO_WANT_HELPER_PROCESS") != "1" {
		return
	}
	args := os.Args
	for len(args) > 0 && args[0] != "--" {
		args = args[1:]
	}
	// Drop "--" and the "exec cln lightning-cli --network=testnet" prefix
	// newTestClient configures.
	args = args[5:]

	switch args[0] {
	case "getinfo":
		fmt.Print(`{"id":"` + selfID + `","blockheight":700000,"fees_collected_msat":"2000msat"}`)
	case "listchannels":
		if len(args) == 3 {
			fmt.Print(`{"channels":[{"source":"` + args[2] + `","destination":"x","satoshis":1}]}`)
		} else {
			fmt.Print(`{"channels":[]}`)
		}
	case "setchannelfee":
		fmt.Print(`{}`)
	case "broken":
		fmt.Print(`not json`)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %s", args[0])
		os.Exit(1)
	}
	os.Exit(0)
}

func newTestClient(t *testing.T) *CLIClient {
	c, err := NewCLIClient(config.LightningConfig{
		Command: "docker exec cln lightning-cli",
		Args:    []string{"--network=testnet"},
		Timeout: 10 * time.Second,
	}, nil)
	require.NoError(t, err)
	return c
}

func TestNewCLIClientRequiresCommand(t *testing.T) {
	_, err := NewCLIClient(config.LightningConfig{Command: "  "}, nil)
	assert.ErrorIs(t, err, ErrNoCommand)
}

func TestCLIClientGetInfo(t *testing.T) {
	seen := fakeCommand(t)
	c := newTestClient(t)

	info, err := c.GetInfo(context.Background())
	require.NoError(t, err)
	assert.Equal(t, selfID, info.ID)
	assert.Equal(t, int64(700000), info.BlockHeight)
	assert.Equal(t, Msat(2000), info.FeesCollected())
	assert.Equal(t, []string{"docker", "exec", "cln", "lightning-cli", "--network=testnet", "getinfo"}, *seen)
}

func TestCLIClientListChannels(t *testing.T) {
	seen := fakeCommand(t)
	c := newTestClient(t)

	chans, err := c.ListChannels(context.Background(), alphaID)
	require.NoError(t, err)
	require.Len(t, chans, 1)
	assert.Equal(t, alphaID, chans[0].Source)
	assert.Equal(t, []string{"listchannels", "null", alphaID}, (*seen)[5:])

	chans, err = c.ListChannels(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, chans)
}

func TestCLIClientSetChannelFee(t *testing.T) {
	seen := fakeCommand(t)
	c := newTestClient(t)

	require.NoError(t, c.SetChannelFee(context.Background(), "600000x1x0", 0, 120))
	assert.Equal(t, []string{"setchannelfee", "600000x1x0", "0", "120"}, (*seen)[5:])
}

func TestCLIClientErrors(t *testing.T) {
	fakeCommand(t)
	c := newTestClient(t)

	err := c.query(context.Background(), &struct{}{}, "broken")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to decode broken response")

	err = c.query(context.Background(), nil, "nonsense")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown command nonsense")
}

func TestMsatUnmarshal(t *testing.T) {
	var v struct {
		A Msat `json:"a"`
		B Msat `json:"b"`
		C Msat `json:"c"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a":1500,"b":"2500msat","c":null}`), &v))
	assert.Equal(t, Msat(1500), v.A)
	assert.Equal(t, Msat(2500), v.B)
	assert.Equal(t, Msat(0), v.C)
	assert.Equal(t, int64(2), v.B.Sats())

	assert.Error(t, json.Unmarshal([]byte(`{"a":"lots"}`), &v))
}

func TestChannelRecord(t *testing.T) {
	var chans []Channel
	require.NoError(t, json.Unmarshal([]byte(`[
		{"source":"a","destination":"b","short_channel_id":"1x1x1","satoshis":100,"public":true},
		{"source":"b","destination":"a","amount_msat":"250000msat"},
		{"source":"c","destination":"a"}
	]`), &chans))

	recs := Records(chans)
	require.Len(t, recs, 3)
	assert.Equal(t, graph.ChannelRecord{
		ShortChannelID: "1x1x1", Source: "a", Destination: "b", Satoshis: graph.Sats(100), Public: true,
	}, recs[0])
	assert.Equal(t, int64(250), *recs[1].Satoshis)
	assert.Nil(t, recs[2].Satoshis)
	assert.Error(t, recs[2].Validate())
}

func TestChannelsResponseSkipsUndecodableEntry(t *testing.T) {
	var resp channelsResponse
	require.NoError(t, json.Unmarshal([]byte(`{"channels":[
		{"source":"a","destination":"b","short_channel_id":"1x1x1","amount_msat":"100000msat"},
		{"source":"b","destination":"c","short_channel_id":"1x2x1","amount_msat":"12.5msat"},
		{"source":"c","destination":"a","short_channel_id":"1x3x1","satoshis":"lots"},
		{"source":"c","destination":"b","short_channel_id":"1x4x1","satoshis":300}
	]}`), &resp))

	require.Len(t, resp.Channels, 4)
	assert.Equal(t, "1x2x1", resp.Channels[1].ShortChannelID)
	_, ok := resp.Channels[1].Capacity()
	assert.False(t, ok)

	g := graph.Build(Records(resp.Channels))
	assert.Equal(t, 2, g.EdgeCount())
	assert.Equal(t, 2, g.Skipped())
	assert.True(t, g.Has("a"))
	assert.True(t, g.Has("c"))
	assert.False(t, g.Has("b"))
}

func TestChannelsResponseRejectsBrokenDocument(t *testing.T) {
	var resp channelsResponse
	assert.Error(t, json.Unmarshal([]byte(`{"channels":{}}`), &resp))
}
