package commands

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/wonny/aegis-credit/internal/storage"
)

// loadCmd represents the load command
var loadCmd = &cobra.Command{
	Use:   "load",
	Short: "픽스처 적재",
	Long: `JSON 픽스처(재무제표/공시/기업 속성/관계 엣지)를 스토어에 적재합니다.

재무제표는 모든 백엔드에 적재됩니다.
공시/속성/엣지는 업스트림 소유 데이터이므로 sqlite 스토어에서만 받습니다.

파일 형식:
  {"statements": [...], "disclosures": [...], "attributes": [...], "edges": [...]}

Example:
  STORE_DRIVER=sqlite go run ./cmd/credit load --file cmd/credit/commands/testdata/sample.json`,
	RunE: runLoad,
}

var loadFile string

func init() {
	rootCmd.AddCommand(loadCmd)
	loadCmd.Flags().StringVarP(&loadFile, "file", "f", "", "fixture JSON file")
	_ = loadCmd.MarkFlagRequired("file")
}

// readFixture decodes path strictly; unknown keys fail
func readFixture(path string) (*storage.Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture: %w", err)
	}

	var f storage.Fixture
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("decode fixture %s: %w", path, err)
	}
	return &f, nil
}

func runLoad(cmd *cobra.Command, args []string) error {
	f, err := readFixture(loadFile)
	if err != nil {
		return err
	}

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := signalContext()
	defer cancel()

	if err := f.Load(ctx, a.stores); err != nil {
		return err
	}

	PrintSuccess(fmt.Sprintf("Loaded %d statements, %d disclosures, %d attributes, %d edges",
		len(f.Statements), len(f.Disclosures), len(f.Attributes), len(f.Edges)))
	return nil
}
