package lightning

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/lcwatch/lcw/pkg/config"
)

// ErrNoCommand is returned when no lightning-cli invocation is configured.
var ErrNoCommand = errors.New("no lightning-cli command configured (set lightning.command or " + config.CommandEnv + ")")

// Client is the subset of the daemon RPC the tool uses.
type Client interface {
	GetInfo(ctx context.Context) (Info, error)
	ListFunds(ctx context.Context) (Funds, error)
	// ListChannels returns the whole public graph when source is empty, or
	// only the channels announced by source.
	ListChannels(ctx context.Context, source string) ([]Channel, error)
	ListPeers(ctx context.Context) ([]Peer, error)
	ListNodes(ctx context.Context) ([]NodeInfo, error)
	SetChannelFee(ctx context.Context, shortChannelID string, baseMsat, ppm int) error
}

// execCommand allows mocking exec.CommandContext for testing.
var execCommand = exec.CommandContext

// CLIClient shells out to lightning-cli.
type CLIClient struct {
	command []string
	timeout time.Duration
	logger  *slog.Logger
}

// NewCLIClient binds a client to cfg. The command may carry its own
// arguments, e.g. "docker exec cln lightning-cli"; cfg.Args follow it.
func NewCLIClient(cfg config.LightningConfig, logger *slog.Logger) (*CLIClient, error) {
	argv := strings.Fields(cfg.Command)
	if len(argv) == 0 {
		return nil, ErrNoCommand
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CLIClient{
		command: append(argv, cfg.Args...),
		timeout: cfg.Timeout,
		logger:  logger,
	}, nil
}

func (c *CLIClient) query(ctx context.Context, out any, params ...string) error {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	args := append(append([]string{}, c.command[1:]...), params...)
	start := time.Now()
	cmd := execCommand(ctx, c.command[0], args...)
	output, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && len(exitErr.Stderr) > 0 {
			return fmt.Errorf("lightning-cli %s failed: %s: %w", params[0], strings.TrimSpace(string(exitErr.Stderr)), err)
		}
		return fmt.Errorf("lightning-cli %s failed: %w", params[0], err)
	}
	c.logger.Debug("lightning-cli", "method", params[0], "bytes", len(output), "elapsed", time.Since(start))

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(output, out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", params[0], err)
	}
	return nil
}

func (c *CLIClient) GetInfo(ctx context.Context) (Info, error) {
	var info Info
	err := c.query(ctx, &info, "getinfo")
	return info, err
}

func (c *CLIClient) ListFunds(ctx context.Context) (Funds, error) {
	var funds Funds
	err := c.query(ctx, &funds, "listfunds")
	return funds, err
}

func (c *CLIClient) ListChannels(ctx context.Context, source string) ([]Channel, error) {
	params := []string{"listchannels"}
	if source != "" {
		params = append(params, "null", source)
	}
	var resp channelsResponse
	if err := c.query(ctx, &resp, params...); err != nil {
		return nil, err
	}
	return resp.Channels, nil
}

func (c *CLIClient) ListPeers(ctx context.Context) ([]Peer, error) {
	var resp peersResponse
	if err := c.query(ctx, &resp, "listpeers"); err != nil {
		return nil, err
	}
	return resp.Peers, nil
}

func (c *CLIClient) ListNodes(ctx context.Context) ([]NodeInfo, error) {
	var resp nodesResponse
	if err := c.query(ctx, &resp, "listnodes"); err != nil {
		return nil, err
	}
	return resp.Nodes, nil
}

func (c *CLIClient) SetChannelFee(ctx context.Context, shortChannelID string, baseMsat, ppm int) error {
	return c.query(ctx, nil, "setchannelfee", shortChannelID, strconv.Itoa(baseMsat), strconv.Itoa(ppm))
}
