package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/coffersTech/tierlog/internal/buffer"
	"github.com/coffersTech/tierlog/internal/codec"
	"github.com/coffersTech/tierlog/internal/engine"
	"github.com/coffersTech/tierlog/internal/model"
	"github.com/coffersTech/tierlog/internal/pkg/query"
)

type dumpOptions struct {
	journal    string
	priorities []string
	sort       string
	tieBreak   bool
	maxBytes   int
	codec      string
	query      string
	capacity   int
}

func newDumpCmd() *cobra.Command {
	var opts dumpOptions
	cmd := &cobra.Command{
		Use:   "dump",
		Short: "Print a bounded payload from a journal file",
		Long: "dump replays a journal into a fresh store, aggregates the requested tiers\n" +
			"and prints the payload that fits --max-bytes. The journal is not modified.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDump(cmd.OutOrStdout(), cmd.ErrOrStderr(), opts)
		},
	}
	cmd.Flags().StringVar(&opts.journal, "journal", os.Getenv("TIERLOG_JOURNAL"), "Journal file to read")
	cmd.Flags().StringSliceVar(&opts.priorities, "priority", nil, "Tiers to include, in order (default: info,debug,error)")
	cmd.Flags().StringVar(&opts.sort, "sort", "", "Sort by timestamp: asc|desc")
	cmd.Flags().BoolVar(&opts.tieBreak, "tiebreak", false, "Break timestamp ties by tier, then counter")
	cmd.Flags().IntVar(&opts.maxBytes, "max-bytes", 64*1024, "Payload byte budget")
	cmd.Flags().StringVar(&opts.codec, "codec", "json", "Payload codec: json|cbor|zstd")
	cmd.Flags().StringVar(&opts.query, "query", "", "Filter expression, e.g. priority:error AND file:main.rs")
	cmd.Flags().IntVar(&opts.capacity, "capacity", buffer.DefaultCapacity, "Per-tier capacity used for the replay")
	return cmd
}

func runDump(stdout, stderr io.Writer, opts dumpOptions) error {
	if opts.journal == "" {
		return fmt.Errorf("--journal is required")
	}
	if opts.maxBytes < 0 {
		return fmt.Errorf("--max-bytes must not be negative, got %d", opts.maxBytes)
	}
	// OpenJournal creates missing files; a dump must not.
	if _, err := os.Stat(opts.journal); err != nil {
		return err
	}

	priorities := make([]model.Priority, 0, len(opts.priorities))
	for _, s := range opts.priorities {
		p, err := model.ParsePriority(s)
		if err != nil {
			return err
		}
		priorities = append(priorities, p)
	}
	var order *model.SortOrder
	if opts.sort != "" {
		o, err := model.ParseSortOrder(opts.sort)
		if err != nil {
			return err
		}
		order = &o
	}
	enc, err := codec.Lookup(opts.codec)
	if err != nil {
		return err
	}
	filter, err := query.Parse(opts.query)
	if err != nil {
		return err
	}

	journal, err := buffer.OpenJournal(opts.journal)
	if err != nil {
		return err
	}
	defer journal.Close()

	store, err := buffer.NewStore(buffer.WithCapacity(opts.capacity))
	if err != nil {
		return err
	}
	if n, err := store.ReplayJournal(journal); err != nil {
		fmt.Fprintf(stderr, "warning: %v (restored %d records)\n", err, n)
	}

	l := engine.NewLog(store)
	if len(priorities) == 0 {
		l.PushAll()
	}
	for _, p := range priorities {
		l.PushTier(p)
	}
	l.Filter(filter)

	switch {
	case opts.tieBreak:
		o := model.Ascending
		if order != nil {
			o = *order
		}
		l.SortWithTieBreak(o)
	case order != nil:
		l.Sort(*order)
	}

	res := engine.NewSerializer(enc).SerializeResult(l, opts.maxBytes)
	if res.Truncated {
		fmt.Fprintf(stderr, "%d of %d entries fit in %d bytes\n", res.Included, res.Total, opts.maxBytes)
	}
	_, err = fmt.Fprintln(stdout, res.Payload)
	return err
}
