package pipeline

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/ajitpratap0/csvconf/pkg/compression"
	"github.com/ajitpratap0/csvconf/pkg/config"
	jsonpool "github.com/ajitpratap0/csvconf/pkg/json"
	"github.com/ajitpratap0/csvconf/pkg/sink"
	"github.com/ajitpratap0/csvconf/pkg/source"
	"github.com/ajitpratap0/csvconf/pkg/testutil"
)

type fileSuite struct {
	testutil.TableSuite
}

func TestFileSuite(t *testing.T) {
	suite.Run(t, new(fileSuite))
}

func (s *fileSuite) SetupTest() {
	testutil.UseTestLogger(s.T())
}

func (s *fileSuite) TestConvertDirectory() {
	s.WriteTable("tables/items.csv", "Id,Name,Tags\nint,string,string[]\n1,Sword,a|b\n2,Shield,\n")
	testutil.WriteFile(s.T(), s.Dir(), "tables/levels.csv.gz",
		testutil.Compress(s.T(), compression.Gzip, "Level,Pos\nint,Vector2\n1,\"0;1\"\n"))

	out := filepath.Join(s.Dir(), "out")
	jsonSink, err := sink.NewJSONSink(out, false, "")
	s.Require().NoError(err)

	p := New(source.NewRegistry(config.SourceConfig{BaseDir: s.Dir()}), jsonSink, &Config{Workers: 2, SinkName: "json"})
	report, err := p.Run(s.Context(), []config.SlotConfig{
		{Name: "items", URI: "tables/items.csv"},
		{Name: "world/levels", URI: "file://tables/levels.csv"},
	})
	s.Require().NoError(err)
	s.Equal(2, report.Succeeded)

	data, err := os.ReadFile(filepath.Join(out, "world", "levels.json"))
	s.Require().NoError(err)
	var asset struct {
		Slot    string                   `json:"slot"`
		Records []map[string]interface{} `json:"records"`
	}
	s.Require().NoError(jsonpool.Unmarshal(data, &asset))
	s.Equal("world/levels", asset.Slot)
	s.Require().Len(asset.Records, 1)
	s.Equal(map[string]interface{}{"x": float64(0), "y": float64(1)}, asset.Records[0]["Pos"])
}

func (s *fileSuite) TestMissingTableIsReported() {
	out := filepath.Join(s.Dir(), "out-missing")
	jsonSink, err := sink.NewJSONSink(out, false, "")
	s.Require().NoError(err)

	p := New(source.NewRegistry(config.SourceConfig{BaseDir: s.Dir()}), jsonSink, nil)
	report, err := p.Run(s.Context(), []config.SlotConfig{{Name: "ghost", URI: "ghost.csv"}})
	s.Error(err)
	s.Equal(1, report.Failed)
	s.NoFileExists(filepath.Join(out, "ghost.json"))
}
