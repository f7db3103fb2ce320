// Package report renders analysis results as terminal text or exports them
// as JSON, YAML or CSV.
package report

import (
	"github.com/lcwatch/lcw/pkg/centrality"
	"github.com/lcwatch/lcw/pkg/fees"
	"github.com/lcwatch/lcw/pkg/node"
)

// Analysis is the centrality of a single node.
type Analysis struct {
	Mode   string            `json:"mode" yaml:"mode"`
	Result centrality.Result `json:"result" yaml:"result"`
}

// Peers ranks candidate peers for a new channel of Amount sats.
type Peers struct {
	Mode       string                 `json:"mode" yaml:"mode"`
	Amount     int64                  `json:"amount" yaml:"amount"`
	Baseline   centrality.Result      `json:"baseline" yaml:"baseline"`
	Candidates []centrality.Candidate `json:"candidates" yaml:"candidates"`
}

// Nodes ranks the graph by centrality.
type Nodes struct {
	Mode  string              `json:"mode" yaml:"mode"`
	Nodes []centrality.Ranked `json:"nodes" yaml:"nodes"`
}

// Channels lists what each existing channel adds to the local score.
type Channels struct {
	Mode          string                    `json:"mode" yaml:"mode"`
	Baseline      centrality.Result         `json:"baseline" yaml:"baseline"`
	Contributions []centrality.Contribution `json:"contributions" yaml:"contributions"`
}

// Status is the node summary with the selected channels.
type Status struct {
	Filter   string          `json:"filter" yaml:"filter"`
	Sort     string          `json:"sort,omitempty" yaml:"sort,omitempty"`
	Summary  *node.Summary   `json:"summary" yaml:"summary"`
	Channels []*node.Channel `json:"channels" yaml:"channels"`
}

// FeePlan is a set of fee changes, applied or not.
type FeePlan struct {
	Policy  fees.Policy   `json:"policy" yaml:"policy"`
	DryRun  bool          `json:"dry_run" yaml:"dry_run"`
	Changes []fees.Change `json:"changes" yaml:"changes"`
	Skipped []string      `json:"skipped" yaml:"skipped"`
}

// Lookup holds raw daemon records matching a peer or channel query.
type Lookup struct {
	Query   string `json:"query" yaml:"query"`
	Matches []any  `json:"matches" yaml:"matches"`
}
