// Command bindery-resolve resolves a workspace document offline, or against a
// resolver server, and prints the wiring and run order or the failure chain.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"github.com/fatih/color"
	"github.com/go-logr/logr"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"sigs.k8s.io/controller-runtime/pkg/log/zap"

	resolvev1 "github.com/bayleafwalker/bindery-resolver/api/v1alpha1"
	"github.com/bayleafwalker/bindery-resolver/internal/config"
	"github.com/bayleafwalker/bindery-resolver/internal/graph"
	"github.com/bayleafwalker/bindery-resolver/internal/manifest"
	"github.com/bayleafwalker/bindery-resolver/internal/preferences"
	"github.com/bayleafwalker/bindery-resolver/internal/resolver"
	"github.com/bayleafwalker/bindery-resolver/internal/resource"
	"github.com/bayleafwalker/bindery-resolver/internal/rpc"
	"github.com/bayleafwalker/bindery-resolver/internal/workspace"
)

// exit codes
const (
	exitResolved = 0
	exitFailed   = 1
	exitUsage    = 2
)

func main() {
	os.Exit(realMain(os.Args[1:]))
}

// realMain parses args, resolves and returns the process exit code. Deferred
// cleanup runs before the caller exits.
func realMain(args []string) int {
	fs := flag.NewFlagSet("bindery-resolve", flag.ContinueOnError)
	var (
		o       runOptions
		noColor bool
	)
	fs.StringVar(&o.workspace, "workspace", "", "Workspace document to resolve (YAML or JSON).")
	fs.StringVar(&o.config, "config", "", "Path to the resolver config file.")
	fs.StringVar(&o.preferences, "preferences", "", "File remembering earlier provider choices.")
	fs.StringVar(&o.target, "server", "", "Resolve remotely on this resolver server instead of offline.")
	fs.BoolVar(&o.interactive, "interactive", false, "Prompt when several providers are equally preferred.")
	fs.BoolVar(&o.strict, "strict", false, "Fail when the wiring contains a dependency cycle.")
	fs.BoolVar(&noColor, "no-color", false, "Disable colour output.")

	opts := zap.Options{Development: true}
	opts.BindFlags(fs)
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}

	if o.workspace == "" {
		fmt.Fprintln(os.Stderr, "bindery-resolve: -workspace is required")
		fs.Usage()
		return exitUsage
	}
	if noColor {
		color.NoColor = true
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logr.NewContext(ctx, zap.New(zap.UseFlagOptions(&opts)))

	code, err := run(ctx, o)
	if err != nil {
		failColor.Fprintf(os.Stderr, "bindery-resolve: %v\n", err)
	}
	return code
}

type runOptions struct {
	workspace   string
	config      string
	preferences string
	target      string
	interactive bool
	strict      bool
}

func run(ctx context.Context, o runOptions) (int, error) {
	doc, err := workspace.Load(o.workspace)
	if err != nil {
		return exitUsage, err
	}

	if o.target != "" {
		st, err := resolveRemote(ctx, o.target, doc)
		if err != nil {
			return exitFailed, err
		}
		render(os.Stdout, st)
		return exitCode(st), nil
	}

	cfg, err := config.Load(o.config)
	if err != nil {
		return exitUsage, err
	}
	ws, err := doc.Build(resource.DefaultValidators())
	if err != nil {
		return exitUsage, err
	}

	var cb resolver.CandidateSelectionCallback = resolver.DefaultCallback{}
	if o.interactive {
		cb = newPromptCallback()
	}
	if o.preferences != "" {
		store, err := preferences.Open(o.preferences)
		if err != nil {
			return exitUsage, err
		}
		cb = &preferences.Callback{Store: store, Next: cb}
	}

	res, err := ws.Resolve(ctx, cfg, cb)
	if err != nil {
		return exitUsage, err
	}
	st := manifest.Status(res)
	render(os.Stdout, st)

	if o.strict && res.Outcome == resolver.Resolved {
		if _, err := resolver.StrictOrder(res.Wiring); err != nil {
			var cycle *graph.CycleError[*resource.Resource]
			if errors.As(err, &cycle) {
				return exitFailed, fmt.Errorf("wiring is not orderable: %w", err)
			}
			return exitFailed, err
		}
	}
	return exitCode(st), nil
}

func resolveRemote(ctx context.Context, target string, doc workspace.Document) (resolvev1.ResolutionStatus, error) {
	conn, err := grpc.NewClient(target, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return resolvev1.ResolutionStatus{}, fmt.Errorf("dial %s: %w", target, err)
	}
	defer conn.Close()

	resp, err := rpc.NewClient(conn).Resolve(ctx, &rpc.ResolveRequest{Workspace: doc})
	if err != nil {
		return resolvev1.ResolutionStatus{}, err
	}
	return resp.Status, nil
}

func exitCode(st resolvev1.ResolutionStatus) int {
	if st.Phase == resolvev1.ResolutionPhaseResolved {
		return exitResolved
	}
	return exitFailed
}
