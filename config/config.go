package config

import (
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/spf13/viper"
)

const (
	envPrefix       = "SQLEXPLAIN"
	DefaultDatabase = "default"
)

type SQLConf struct {
	Optimizer OptimizerConf `mapstructure:"optimizer"`
	Estimator EstimatorConf `mapstructure:"estimator"`
	Numbers   NumbersConf   `mapstructure:"numbers"`
	Tables    []TableConf   `mapstructure:"tables"`
	Log       LogConf       `mapstructure:"log"`
}

type OptimizerConf struct {
	// push_down 批次的最大迭代次数
	MaxIterations        int  `mapstructure:"max_iterations"`
	EnableFilterPushDown bool `mapstructure:"enable_filter_push_down"`
	EnableLimitPushDown  bool `mapstructure:"enable_limit_push_down"`
	EnableColumnPruning  bool `mapstructure:"enable_column_pruning"`
}

type EstimatorConf struct {
	// 没有统计信息时单个等值条件的选择率
	DefaultSelectivity   float64 `mapstructure:"default_selectivity"`
	UnknownDistinctRatio float64 `mapstructure:"unknown_distinct_ratio"`
	UnknownNullFraction  float64 `mapstructure:"unknown_null_fraction"`
}

type NumbersConf struct {
	BlockSize uint64 `mapstructure:"block_size"`
}

// TableConf declares an in-memory table.
type TableConf struct {
	Name           string          `mapstructure:"name"`
	Database       string          `mapstructure:"database"`
	Columns        []ColumnConf    `mapstructure:"columns"`
	Rows           [][]interface{} `mapstructure:"rows"`
	PartitionSize  int             `mapstructure:"partition_size"`
	FilterPushDown string          `mapstructure:"filter_push_down"` // none, inexact or exact
	LimitPushDown  bool            `mapstructure:"limit_push_down"`
}

type ColumnConf struct {
	Name string `mapstructure:"name"`
	Type string `mapstructure:"type"`
}

type LogConf struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("optimizer.max_iterations", 16)
	v.SetDefault("optimizer.enable_filter_push_down", true)
	v.SetDefault("optimizer.enable_limit_push_down", true)
	v.SetDefault("optimizer.enable_column_pruning", true)
	v.SetDefault("estimator.default_selectivity", 1.0/3.0)
	v.SetDefault("estimator.unknown_distinct_ratio", 0.1)
	v.SetDefault("estimator.unknown_null_fraction", 0.01)
	v.SetDefault("numbers.block_size", 65536)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// Default returns the configuration used when no file is given.
func Default() SQLConf {
	conf, err := decode(newViper())
	if err != nil {
		panic(err)
	}
	return conf
}

// Load reads path (YAML, TOML or JSON, by extension) on top of the defaults.
// SQLEXPLAIN_<SECTION>_<KEY> environment variables override both. An empty
// path only applies defaults and environment.
func Load(path string) (SQLConf, error) {
	v := newViper()
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return SQLConf{}, errors.Wrapf(err, "read config %s", path)
		}
	}
	return decode(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func decode(v *viper.Viper) (SQLConf, error) {
	var conf SQLConf
	if err := v.Unmarshal(&conf); err != nil {
		return SQLConf{}, errors.Wrap(err, "decode config")
	}
	for i := range conf.Tables {
		if conf.Tables[i].Database == "" {
			conf.Tables[i].Database = DefaultDatabase
		}
	}
	if err := conf.Validate(); err != nil {
		return SQLConf{}, err
	}
	return conf, nil
}

func (c SQLConf) Validate() error {
	if c.Optimizer.MaxIterations <= 0 {
		return errors.Newf("optimizer.max_iterations must be positive, got %d", c.Optimizer.MaxIterations)
	}
	if s := c.Estimator.DefaultSelectivity; s < 0 || s > 1 {
		return errors.Newf("estimator.default_selectivity must be in [0, 1], got %v", s)
	}
	if r := c.Estimator.UnknownDistinctRatio; r <= 0 || r > 1 {
		return errors.Newf("estimator.unknown_distinct_ratio must be in (0, 1], got %v", r)
	}
	if f := c.Estimator.UnknownNullFraction; f < 0 || f > 1 {
		return errors.Newf("estimator.unknown_null_fraction must be in [0, 1], got %v", f)
	}
	if c.Numbers.BlockSize == 0 {
		return errors.New("numbers.block_size must be positive")
	}
	seen := make(map[string]bool)
	for i, t := range c.Tables {
		if t.Name == "" {
			return errors.Newf("tables[%d]: name is required", i)
		}
		if len(t.Columns) == 0 {
			return errors.Newf("table %s: no columns", t.Name)
		}
		key := t.Database + "." + t.Name
		if seen[key] {
			return errors.Newf("table %s declared twice", key)
		}
		seen[key] = true
		for j, row := range t.Rows {
			if len(row) != len(t.Columns) {
				return errors.Newf("table %s: row %d has %d values, want %d", t.Name, j, len(row), len(t.Columns))
			}
		}
	}
	return nil
}
