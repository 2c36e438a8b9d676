// Command resolve runs the version solver against a YAML package index
// and prints the resulting transaction, or the derivation chain proving
// that no solution exists.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/gosuri/uitable"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/xshapira/poetry/packages"
	"github.com/xshapira/poetry/repository"
	"github.com/xshapira/poetry/solver"
	"github.com/xshapira/poetry/transaction"
	"github.com/xshapira/poetry/versions"
)

type options struct {
	indexPath     string
	installedPath string
	synchronize   bool
	noUninstalls  bool
	envPairs      []string
	verbose       bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var opts options

	cmd := &cobra.Command{
		Use:   "resolve [flags] REQUIREMENT...",
		Short: "Resolve dependency requirements against a package index",
		Long: `Resolve computes a consistent set of package versions for the given
root requirements, e.g.:

    resolve --index index.yaml "flask ^2.0" "requests >=2.25,<3"

Each requirement is a package name followed by a version constraint.
When resolution is impossible, the full derivation chain explaining the
conflict is printed instead.`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, args, opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.indexPath, "index", "", "path to the YAML package index (required)")
	flags.StringVar(&opts.installedPath, "installed", "", "path to the YAML installed set")
	flags.BoolVar(&opts.synchronize, "synchronize", false, "uninstall installed packages absent from the result")
	flags.BoolVar(&opts.noUninstalls, "no-uninstalls", false, "never emit uninstall operations")
	flags.StringArrayVar(&opts.envPairs, "env", nil, "environment marker value as key=value (repeatable)")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "enable solver trace logging")
	cobra.CheckErr(cmd.MarkFlagRequired("index"))

	return cmd
}

func run(cmd *cobra.Command, args []string, opts options) error {
	log := logrus.New()
	log.Out = cmd.ErrOrStderr()
	if opts.verbose {
		log.Level = logrus.DebugLevel
	} else {
		log.Level = logrus.WarnLevel
	}

	index, err := repository.LoadIndex(opts.indexPath)
	if err != nil {
		return err
	}

	var installed []*packages.Package
	if opts.installedPath != "" {
		installed, err = repository.LoadInstalled(opts.installedPath)
		if err != nil {
			return err
		}
	}

	roots, err := parseRequirements(args)
	if err != nil {
		return err
	}

	solverOpts := []solver.Option{solver.WithLogger(log)}
	if len(opts.envPairs) > 0 {
		env, err := parseEnv(opts.envPairs)
		if err != nil {
			return err
		}
		solverOpts = append(solverOpts, solver.WithEnvironment(env))
	}

	result, err := solver.New(index, solverOpts...).Solve(roots...)
	if err != nil {
		var failure *solver.SolveFailure
		if f, ok := err.(*solver.SolveFailure); ok {
			failure = f
		}
		if failure == nil {
			return err
		}
		color.New(color.FgRed, color.Bold).Fprintln(cmd.OutOrStdout(), "Version solving failed.")
		fmt.Fprintln(cmd.OutOrStdout())
		fmt.Fprintln(cmd.OutOrStdout(), failure.Error())
		return err
	}

	resultPackages := make([]transaction.ResultPackage, 0, len(result.Packages))
	current := make([]*packages.Package, 0, len(result.Packages))
	for _, pkg := range result.Packages {
		resultPackages = append(resultPackages, transaction.ResultPackage{
			Package:  pkg,
			Priority: result.Depth(pkg),
		})
		current = append(current, pkg)
	}

	txn := transaction.New(current, resultPackages, installed, result.Root)
	operations := txn.CalculateOperations(!opts.noUninstalls, opts.synchronize)

	printOperations(cmd, operations)
	if result.AttemptedSolutions > 1 {
		fmt.Fprintf(cmd.OutOrStdout(), "\nResolved after %d attempts.\n", result.AttemptedSolutions)
	}
	return nil
}

func parseRequirements(args []string) ([]*packages.Dependency, error) {
	roots := make([]*packages.Dependency, 0, len(args))
	for _, arg := range args {
		fields := strings.Fields(arg)
		constraint := versions.Any()
		if len(fields) > 1 {
			var err error
			constraint, err = versions.ParseConstraint(strings.Join(fields[1:], " "))
			if err != nil {
				return nil, err
			}
		}
		roots = append(roots, packages.NewDependency(fields[0], constraint))
	}
	return roots, nil
}

func parseEnv(pairs []string) (packages.MarkerEnv, error) {
	env := packages.MarkerEnv{}
	for _, pair := range pairs {
		i := strings.Index(pair, "=")
		if i <= 0 {
			return nil, fmt.Errorf("invalid --env value %q, expected key=value", pair)
		}
		env[pair[:i]] = pair[i+1:]
	}
	return env, nil
}

func printOperations(cmd *cobra.Command, operations []transaction.Operation) {
	table := uitable.New()
	table.AddRow("OPERATION", "PACKAGE", "VERSION", "NOTE")

	for _, op := range operations {
		note := ""
		switch {
		case op.Status == transaction.Skipped:
			note = "skipped: " + op.SkipReason
		case op.Kind == transaction.Update:
			note = "from " + op.Previous.Version.String()
		}
		table.AddRow(op.Kind.String(), op.Package.CompleteName(), op.Package.Version.String(), note)
	}

	fmt.Fprintln(cmd.OutOrStdout(), table)
}
