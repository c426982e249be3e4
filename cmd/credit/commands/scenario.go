package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/wonny/aegis-credit/internal/contracts"
	"github.com/wonny/aegis-credit/internal/scenario"
)

// scenarioCmd represents the scenario command
var scenarioCmd = &cobra.Command{
	Use:   "scenario",
	Short: "가중치 시나리오 조회",
	Long: `시나리오 파일(SCENARIO_FILE)의 가중치/등급표를 조회합니다.

Subcommands:
  list            - 전체 시나리오 목록 (참조 여부 포함)
  show [id]       - 시나리오 정의 상세 (기본: active)

Example:
  go run ./cmd/credit scenario list
  go run ./cmd/credit scenario show credit_index@3`,
}

var (
	scenarioListCmd = &cobra.Command{
		Use:   "list",
		Short: "시나리오 목록",
		RunE:  runScenarioList,
	}

	scenarioShowCmd = &cobra.Command{
		Use:   "show [id]",
		Short: "시나리오 상세",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runScenarioShow,
	}
)

func init() {
	rootCmd.AddCommand(scenarioCmd)
	scenarioCmd.AddCommand(scenarioListCmd)
	scenarioCmd.AddCommand(scenarioShowCmd)
}

// scenarioRow is one list entry
type scenarioRow struct {
	ID         string           `json:"id"`
	Mode       string           `json:"mode"`
	Weights    scenario.Weights `json:"weights"`
	Hash       string           `json:"hash"`
	Active     bool             `json:"active"`
	Baseline   bool             `json:"baseline"`
	Referenced bool             `json:"referenced"`
	Drifted    bool             `json:"drifted"` // referenced and the file definition changed
}

func runScenarioList(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := signalContext()
	defer cancel()

	cat, err := a.catalog()
	if err != nil {
		return err
	}

	active := cat.Active()
	baseline := cat.Baseline()

	rows := make([]scenarioRow, 0)
	for _, scn := range cat.List() {
		row := scenarioRow{
			ID:       scn.ID(),
			Mode:     string(scn.Mode()),
			Weights:  scn.Weights(),
			Hash:     scn.Hash(),
			Active:   active != nil && active.ID() == scn.ID(),
			Baseline: baseline != nil && baseline.ID() == scn.ID(),
		}
		fp, err := fingerprint(ctx, a.stores.Scenarios, scn)
		if err != nil {
			return err
		}
		if fp != nil && fp.ReferencedAt != nil {
			row.Referenced = true
			row.Drifted = fp.Hash != scn.Hash()
		}
		rows = append(rows, row)
	}

	if jsonOutput() {
		return printJSON(rows)
	}

	widths := []int{22, 10, 6, 6, 6, 6, 8, 12}
	PrintTableHeader([]string{"Scenario", "Mode", "CEI", "CGI", "RII", "MAI", "Tags", "Hash"}, widths)
	for _, r := range rows {
		tags := ""
		if r.Active {
			tags += "A"
		}
		if r.Baseline {
			tags += "B"
		}
		if r.Referenced {
			tags += "R"
		}
		if r.Drifted {
			tags += "!"
		}
		PrintTableRow([]string{
			r.ID,
			r.Mode,
			fmt.Sprintf("%.2f", r.Weights.CEI),
			fmt.Sprintf("%.2f", r.Weights.CGI),
			fmt.Sprintf("%.2f", r.Weights.RII),
			fmt.Sprintf("%.2f", r.Weights.MAI),
			tags,
			r.Hash[:12],
		}, widths)
	}
	fmt.Println("\nTags: A=active B=baseline R=referenced !=definition changed after reference")
	return nil
}

func runScenarioShow(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	id := ""
	if len(args) == 1 {
		id = args[0]
	}
	scn, err := a.scenario(id)
	if err != nil {
		return err
	}

	if jsonOutput() {
		return printJSON(struct {
			ID         string              `json:"id"`
			Hash       string              `json:"hash"`
			Definition scenario.Definition `json:"definition"`
		}{scn.ID(), scn.Hash(), scn.Definition()})
	}

	PrintHeader("Scenario "+scn.ID(), [][2]string{
		{"Hash", scn.Hash()},
		{"Mode", string(scn.Mode())},
	})
	data, err := yaml.Marshal(scn.Definition())
	if err != nil {
		return fmt.Errorf("marshal scenario: %w", err)
	}
	fmt.Print(string(data))
	return nil
}

// fingerprint returns the stored fingerprint of scn, nil when never recorded
func fingerprint(ctx context.Context, repo contracts.ScenarioRepository, scn *scenario.WeightScenario) (*contracts.ScenarioFingerprint, error) {
	fp, err := repo.GetScenarioFingerprint(ctx, scn.Name(), scn.Version())
	if errors.Is(err, contracts.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get fingerprint %s: %w", scn.ID(), err)
	}
	return fp, nil
}
