package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"

	"github.com/haukened/rr-zonecheck/internal/dns/common/log"
	"github.com/haukened/rr-zonecheck/internal/dns/domain"
	"github.com/haukened/rr-zonecheck/internal/dns/repos/rpz"
	"github.com/haukened/rr-zonecheck/internal/dns/repos/rpz/bloom"
	"github.com/haukened/rr-zonecheck/internal/dns/repos/rpz/bolt"
	"github.com/haukened/rr-zonecheck/internal/dns/repos/rpz/lru"
	"github.com/haukened/rr-zonecheck/internal/dns/repos/rpz/parsers"
)

// Rule file formats accepted by rpz import.
const (
	formatPlain = "plain"
	formatHosts = "hosts"
	formatRules = "rules"
)

type importOptions struct {
	format   string
	action   string
	redirect string
	category string
	source   string
	expires  string
	replace  bool
	strict   bool
}

func newRPZCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rpz",
		Short: "Response Policy Zone rule commands",
	}
	cmd.AddCommand(newRPZImportCommand(a), newRPZLookupCommand(a), newRPZStatsCommand(a))
	return cmd
}

func newRPZImportCommand(a *app) *cobra.Command {
	opts := importOptions{}
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Validate and store the rules in a local rule file",
		Args:  cobra.ExactArgs(1),
		RunE: a.runE(func(cmd *cobra.Command, args []string) error {
			return a.importRules(cmd, args[0], opts)
		}),
	}
	f := cmd.Flags()
	f.StringVar(&opts.format, "format", formatPlain, "rule file format: plain, hosts or rules")
	f.StringVar(&opts.action, "action", string(domain.RPZActionBlock), "action for rules that do not set one")
	f.StringVar(&opts.redirect, "redirect", "", "redirect target for rules that do not set one")
	f.StringVar(&opts.category, "category", "", "category for rules that do not set one (required for plain and hosts)")
	f.StringVar(&opts.source, "source", "", "source tag for rules that do not set one (defaults to the file name)")
	f.StringVar(&opts.expires, "expires", "", "RFC3339 expiry for rules that do not set one")
	f.BoolVar(&opts.replace, "replace", false, "replace every stored rule instead of merging")
	f.BoolVar(&opts.strict, "strict", false, "exit non-zero when any rule is rejected")
	return cmd
}

func newRPZLookupCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "lookup <name>...",
		Short: "Show the policy decision for one or more names",
		Args:  cobra.MinimumNArgs(1),
		RunE: a.runE(func(cmd *cobra.Command, args []string) error {
			repo, closeStore, err := a.openRPZ()
			if err != nil {
				return err
			}
			defer closeStore()

			out := cmd.OutOrStdout()
			for _, name := range args {
				d := repo.Decide(name)
				if !d.IsMatched() {
					fmt.Fprintf(out, "%s: no match\n", name)
					continue
				}
				fmt.Fprintf(out, "%s: %s (rule %s, category %s, source %s", name, d.Action, d.MatchedRule, d.Category, d.Source)
				if d.RedirectTarget != "" {
					fmt.Fprintf(out, ", target %s", d.RedirectTarget)
				}
				fmt.Fprintln(out, ")")
			}
			return nil
		}),
	}
}

func newRPZStatsCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show stored rule counts",
		Args:  cobra.NoArgs,
		RunE: a.runE(func(cmd *cobra.Command, _ []string) error {
			repo, closeStore, err := a.openRPZ()
			if err != nil {
				return err
			}
			defer closeStore()

			s := repo.Stats().Store
			updated := "never"
			if s.UpdatedUnix > 0 {
				updated = time.Unix(s.UpdatedUnix, 0).UTC().Format(time.RFC3339)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "rules: %d (%d exact, %d wildcard)\nversion: %d\nupdated: %s\n",
				s.Rules(), s.ExactCount, s.WildcardCount, s.Version, updated)
			return nil
		}),
	}
}

// openRPZ wires the bolt store, decision cache and Bloom prefilter into a
// repository. The returned func closes the store.
func (a *app) openRPZ() (rpz.Repository, func(), error) {
	store, err := bolt.New(a.cfg.RPZDB)
	if err != nil {
		return nil, nil, err
	}
	closeStore := func() {
		if err := store.Close(); err != nil {
			a.logger.Error(map[string]any{"error": err, "path": a.cfg.RPZDB}, "failed to close rpz store")
		}
	}

	cache, err := lru.New(a.cfg.RPZCacheSize)
	if err != nil {
		closeStore()
		return nil, nil, fmt.Errorf("failed to create decision cache: %w", err)
	}

	repo, err := rpz.NewRepository(store, cache, bloom.NewFactory(), a.cfg.RPZFPRate, a.clock, a.logger)
	if err != nil {
		closeStore()
		return nil, nil, fmt.Errorf("failed to open rpz repository: %w", err)
	}
	return repo, closeStore, nil
}

func (a *app) importRules(cmd *cobra.Command, path string, opts importOptions) error {
	defaults, err := opts.defaults(path)
	if err != nil {
		return err
	}
	// plain and hosts files carry no category of their own
	if defaults.Category == "" && (opts.format == formatPlain || opts.format == formatHosts) {
		return fmt.Errorf("--category is required for %s files", opts.format)
	}

	entries, err := parseRuleFile(path, opts.format, defaults, a.logger)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	accepted := make([]domain.ValidatedRPZRule, 0, len(entries))
	var rejected error
	for _, e := range entries {
		v, err := a.engine.ValidateRPZRule(e.Rule)
		if err != nil {
			fmt.Fprintf(out, "  rejected: line %d: %s: %v\n", e.Line, e.Rule.Domain, err)
			rejected = multierr.Append(rejected, fmt.Errorf("line %d: %w", e.Line, err))
			continue
		}
		for _, w := range v.Warnings {
			fmt.Fprintf(out, "  warning: line %d: %s: %s\n", e.Line, v.Rule.Domain, w)
		}
		accepted = append(accepted, v)
	}

	repo, closeStore, err := a.openRPZ()
	if err != nil {
		return err
	}
	defer closeStore()

	if opts.replace {
		err = repo.ReplaceAll(accepted, repo.Stats().Store.Version+1)
	} else {
		err = repo.Import(accepted)
	}
	if err != nil {
		return fmt.Errorf("failed to store rules: %w", err)
	}

	nrejected := len(multierr.Errors(rejected))
	fmt.Fprintf(out, "imported %d rules from %s, rejected %d\n", len(accepted), path, nrejected)
	if opts.strict && rejected != nil {
		return fmt.Errorf("%d rules rejected: %w", nrejected, rejected)
	}
	return nil
}

func (o importOptions) defaults(path string) (parsers.Defaults, error) {
	d := parsers.Defaults{
		Action:         domain.RPZAction(o.action),
		RedirectTarget: o.redirect,
		Category:       o.category,
		Source:         o.source,
	}
	if d.Source == "" {
		d.Source = path
	}
	if o.expires != "" {
		t, err := time.Parse(time.RFC3339, o.expires)
		if err != nil {
			return parsers.Defaults{}, fmt.Errorf("invalid --expires %q: %w", o.expires, err)
		}
		d.ExpiresAt = &t
	}
	return d, nil
}

func parseRuleFile(path, format string, defaults parsers.Defaults, logger log.Logger) ([]parsers.Entry, error) {
	switch format {
	case formatPlain, formatHosts:
	case formatRules:
		return parsers.ParseRulesFile(path, defaults, logger)
	default:
		return nil, fmt.Errorf("unknown rule file format %q (want plain, hosts or rules)", format)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open rule file: %w", err)
	}
	defer f.Close()

	if format == formatHosts {
		return parsers.ParseHostsFile(f, defaults, logger)
	}
	return parsers.ParsePlainList(f, defaults, logger)
}
