// Package cli is the sql-explain command line.
package cli

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/cockroachdb/errors"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"sql-explain/config"
	"sql-explain/log"
	"sql-explain/planner"
	"sql-explain/source"
)

type options struct {
	configFile string
	raw        bool
	conf       config.SQLConf
}

// New returns the root command. Every call has its own flag state.
func New() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:           "sql-explain",
		Short:         "Optimize a bound logical plan and print its EXPLAIN tree.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			conf, err := config.Load(opts.configFile)
			if err != nil {
				return err
			}
			opts.conf = conf
			return log.Init(cmd.Flags(), conf.Log)
		},
	}
	root.PersistentFlags().StringVar(&opts.configFile, "config", "", "config file (yaml, toml or json)")
	log.RegisterFlags(root.PersistentFlags())

	explain := &cobra.Command{
		Use:   "explain [FILE]",
		Short: "Print the EXPLAIN tree of the plan in FILE, or stdin when FILE is omitted.",
		Example: `sql-explain explain <<EOF
filter numbers.number#0 = 1
  scan numbers(10)
EOF`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExplain(cmd, args, opts)
		},
	}
	explain.Flags().BoolVar(&opts.raw, "raw", false, "skip the optimizer, only estimate the plan as written")

	tables := &cobra.Command{
		Use:   "tables",
		Short: "List the tables declared in the configuration.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTables(cmd, opts)
		},
	}

	root.AddCommand(explain, tables)
	return root
}

// Execute runs the command line and returns the process exit code.
func Execute() int {
	cmd := New()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}
	return 0
}

func runExplain(cmd *cobra.Command, args []string, opts *options) error {
	var text []byte
	var err error
	if len(args) == 1 {
		text, err = os.ReadFile(args[0])
		err = errors.Wrapf(err, "read %s", args[0])
	} else {
		text, err = io.ReadAll(cmd.InOrStdin())
		err = errors.Wrap(err, "read stdin")
	}
	if err != nil {
		return err
	}
	p, err := planner.New(opts.conf)
	if err != nil {
		return err
	}
	out, err := p.Explain(string(text), planner.Options{Raw: opts.raw})
	if err != nil {
		return err
	}
	_, err = io.WriteString(cmd.OutOrStdout(), out)
	return err
}

func runTables(cmd *cobra.Command, opts *options) error {
	catalog, err := source.NewCatalog(opts.conf)
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TABLE\tCOLUMNS\tROWS\tPARTITIONS\tSIZE\tFILTER PUSH DOWN\tLIMIT PUSH DOWN")
	for _, s := range catalog.Tables() {
		all := make([]int, len(s.Schema()))
		for i := range all {
			all[i] = i
		}
		capabilities := s.Capabilities()
		fmt.Fprintf(w, "%s\t%d\t%s\t%d\t%s\t%s\t%t\n",
			source.FullName(s),
			len(all),
			humanize.Comma(int64(s.NumRows())),
			s.NumPartitions(),
			humanize.IBytes(s.NumRows()*source.RowWidth(s, all)),
			capabilities.Filter,
			capabilities.Limit)
	}
	return w.Flush()
}
