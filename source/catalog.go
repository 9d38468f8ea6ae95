package source

import (
	"regexp"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/tidwall/btree"

	"sql-explain/config"
	"sql-explain/errcode"
)

// 表函数，例如 numbers(10)
var tableFunctions = map[string]func([]string, config.SQLConf) (Source, error){
	"numbers": newNumbers,
}

var tableFunctionPattern = regexp.MustCompile(`^(\w+)\((.*)\)$`)

// Catalog resolves table names to sources. It is read-only after NewCatalog
// and can be shared between planners.
type Catalog struct {
	conf   config.SQLConf
	tables *btree.BTreeG[Source]
}

func lessSource(a, b Source) bool {
	if a.Database() != b.Database() {
		return a.Database() < b.Database()
	}
	return a.Name() < b.Name()
}

// NewCatalog registers every table declared in conf.
func NewCatalog(conf config.SQLConf) (*Catalog, error) {
	c := &Catalog{conf: conf, tables: btree.NewBTreeG[Source](lessSource)}
	for _, t := range conf.Tables {
		s, err := NewMemory(t)
		if err != nil {
			return nil, errors.Wrapf(err, "table %s", t.Name)
		}
		if err := c.Register(s); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Register adds s. Table names are unique per database.
func (c *Catalog) Register(s Source) error {
	if _, ok := c.tables.Get(s); ok {
		return errcode.Newf(errcode.BadArguments, "table %s.%s already exists", s.Database(), s.Name())
	}
	c.tables.Set(s)
	return nil
}

// Resolve accepts a table function call such as numbers(10), database.table,
// or a bare table name in the default database.
func (c *Catalog) Resolve(input string) (Source, error) {
	input = strings.TrimSpace(input)
	if m := tableFunctionPattern.FindStringSubmatch(input); m != nil {
		factory, ok := tableFunctions[strings.ToLower(m[1])]
		if !ok {
			return nil, errcode.Newf(errcode.UnknownTable, "unknown table function %s", m[1])
		}
		var args []string
		if strings.TrimSpace(m[2]) != "" {
			args = strings.Split(m[2], ",")
		}
		return factory(args, c.conf)
	}

	database, name := config.DefaultDatabase, input
	if i := strings.IndexByte(input, '.'); i >= 0 {
		database, name = input[:i], input[i+1:]
	}
	if s, ok := c.tables.Get(&tableKey{database: database, name: name}); ok {
		return s, nil
	}
	return nil, errcode.Newf(errcode.UnknownTable, "unknown table %s.%s", database, name)
}

// Tables returns the registered tables ordered by database and name.
func (c *Catalog) Tables() []Source {
	result := make([]Source, 0, c.tables.Len())
	c.tables.Scan(func(s Source) bool {
		result = append(result, s)
		return true
	})
	return result
}

// tableKey only carries the ordering fields, it is used for lookups.
type tableKey struct {
	Source
	database, name string
}

func (k *tableKey) Database() string { return k.database }
func (k *tableKey) Name() string     { return k.name }
