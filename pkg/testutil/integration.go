package testutil

import (
	"context"
	"time"

	"github.com/stretchr/testify/suite"
)

// TableSuite is a testify suite with a scratch directory of tables.
type TableSuite struct {
	suite.Suite
	ctx       context.Context
	cancel    context.CancelFunc
	dir       string
	startTime time.Time
}

// SetupSuite runs before all tests in the suite
func (s *TableSuite) SetupSuite() {
	s.ctx, s.cancel = context.WithTimeout(context.Background(), 5*time.Minute)
	s.startTime = time.Now()
	s.dir = s.T().TempDir()
	s.T().Logf("table suite started in %s", s.dir)
}

// TearDownSuite runs after all tests in the suite
func (s *TableSuite) TearDownSuite() {
	s.cancel()
	s.T().Logf("table suite completed in %v", time.Since(s.startTime))
}

// Context returns the suite context
func (s *TableSuite) Context() context.Context {
	return s.ctx
}

// Dir returns the scratch directory.
func (s *TableSuite) Dir() string {
	return s.dir
}

// WriteTable writes a table under the scratch directory and returns its path.
func (s *TableSuite) WriteTable(name, text string) string {
	return WriteFile(s.T(), s.dir, name, []byte(text))
}
