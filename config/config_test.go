package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	conf := Default()
	assert.Equal(t, 16, conf.Optimizer.MaxIterations)
	assert.True(t, conf.Optimizer.EnableFilterPushDown)
	assert.True(t, conf.Optimizer.EnableLimitPushDown)
	assert.True(t, conf.Optimizer.EnableColumnPruning)
	assert.InDelta(t, 1.0/3.0, conf.Estimator.DefaultSelectivity, 1e-12)
	assert.Equal(t, uint64(65536), conf.Numbers.BlockSize)
	assert.Equal(t, "info", conf.Log.Level)
	assert.Empty(t, conf.Tables)
}

const sample = `
optimizer:
  max_iterations: 4
  enable_limit_push_down: false
estimator:
  default_selectivity: 0.5
tables:
  - name: t
    columns:
      - {name: a, type: bigint}
      - {name: s, type: varchar}
    rows:
      - [1, "x"]
      - [2, null]
    partition_size: 1
    filter_push_down: exact
    limit_push_down: true
`

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conf.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o644))

	conf, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 4, conf.Optimizer.MaxIterations)
	assert.False(t, conf.Optimizer.EnableLimitPushDown)
	assert.True(t, conf.Optimizer.EnableFilterPushDown)
	assert.Equal(t, 0.5, conf.Estimator.DefaultSelectivity)

	require.Len(t, conf.Tables, 1)
	table := conf.Tables[0]
	assert.Equal(t, "t", table.Name)
	assert.Equal(t, DefaultDatabase, table.Database)
	assert.Equal(t, []ColumnConf{{Name: "a", Type: "bigint"}, {Name: "s", Type: "varchar"}}, table.Columns)
	assert.Len(t, table.Rows, 2)
	assert.Nil(t, table.Rows[1][1])
	assert.Equal(t, "exact", table.FilterPushDown)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("SQLEXPLAIN_OPTIMIZER_MAX_ITERATIONS", "7")
	t.Setenv("SQLEXPLAIN_LOG_LEVEL", "debug")
	conf, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 7, conf.Optimizer.MaxIterations)
	assert.Equal(t, "debug", conf.Log.Level)
}

func TestValidate(t *testing.T) {
	conf := Default()
	conf.Optimizer.MaxIterations = 0
	assert.Error(t, conf.Validate())

	conf = Default()
	conf.Estimator.DefaultSelectivity = 2
	assert.Error(t, conf.Validate())

	conf = Default()
	conf.Tables = []TableConf{{Name: "t", Columns: []ColumnConf{{Name: "a", Type: "int"}}, Rows: [][]interface{}{{1, 2}}}}
	assert.Error(t, conf.Validate())

	conf = Default()
	conf.Tables = []TableConf{
		{Name: "t", Database: "d", Columns: []ColumnConf{{Name: "a", Type: "int"}}},
		{Name: "t", Database: "d", Columns: []ColumnConf{{Name: "a", Type: "int"}}},
	}
	assert.Error(t, conf.Validate())

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
