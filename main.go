package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/signal"
	"strings"

	"github.com/df07/go-lightpath/pkg/config"
	"github.com/df07/go-lightpath/pkg/loaders"
	"github.com/df07/go-lightpath/pkg/renderer"
	"github.com/df07/go-lightpath/pkg/scene"
)

// Exit codes
const (
	exitOK         = 0
	exitParseError = 1 // bad scene, options, or flags
	exitIOError    = 2 // unreadable input or unwritable output
)

const builtinPrefix = "builtin:"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run executes the tracer CLI and returns the process exit code
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fset := flag.NewFlagSet("tracer", flag.ContinueOnError)
	fset.SetOutput(stderr)
	output := fset.String("o", "output.ppm", "Output image; format from extension (.ppm .png .webp .tga .bmp .tif)")
	workers := fset.Int("j", 0, "Render workers (default: scene or number of CPUs)")
	samples := fset.Int("s", 0, "Samples per pixel (default: scene)")
	profilePath := fset.String("config", "", "JSON profile of option overrides")
	verbose := fset.Bool("v", false, "Log per-tile progress")
	list := fset.Bool("list", false, "List built-in scenes and exit")
	fset.Usage = func() {
		fmt.Fprintln(stderr, "Usage: tracer <scene.xml | builtin:name> [options]")
		fmt.Fprintln(stderr)
		fmt.Fprintln(stderr, "Options:")
		fset.PrintDefaults()
	}

	positional, err := parseInterspersed(fset, args)
	if errors.Is(err, flag.ErrHelp) {
		return exitOK
	}
	if err != nil {
		return exitParseError
	}

	if *list {
		for _, name := range scene.ListBuiltins() {
			fmt.Fprintf(stdout, "%s%s\n", builtinPrefix, name)
		}
		return exitOK
	}
	if len(positional) != 1 {
		fset.Usage()
		return exitParseError
	}

	logger := renderer.NewDefaultLogger(stderr)
	fail := func(err error) int {
		fmt.Fprintf(stderr, "tracer: %v\n", err)
		return exitCode(err)
	}

	if _, err := loaders.FormatForPath(*output); err != nil {
		return fail(err)
	}

	s, err := loadScene(positional[0], logger)
	if err != nil {
		return fail(err)
	}

	if *profilePath != "" {
		profile, err := config.LoadProfile(*profilePath)
		if err != nil {
			return fail(err)
		}
		profile.Apply(&s.Options)
	}
	s.Options.Resolve(config.Flags{Samples: *samples, Workers: *workers})

	rt, err := renderer.NewRaytracer(s, logger)
	if err != nil {
		return fail(err)
	}
	rt.SetVerbose(*verbose)

	img, stats, err := rt.Render(ctx)
	if err != nil {
		return fail(err)
	}

	if err := loaders.WriteImage(*output, img); err != nil {
		fmt.Fprintf(stderr, "tracer: %v\n", err)
		return exitIOError
	}
	fmt.Fprintf(stdout, "Render saved as %s (%s)\n", *output, stats)
	return exitOK
}

// parseInterspersed lets flags appear before and after the scene argument
func parseInterspersed(fset *flag.FlagSet, args []string) ([]string, error) {
	var positional []string
	for {
		if err := fset.Parse(args); err != nil {
			return nil, err
		}
		if fset.NArg() == 0 {
			return positional, nil
		}
		positional = append(positional, fset.Arg(0))
		args = fset.Args()[1:]
	}
}

// loadScene loads a built-in scene by name or parses an XML scene file
func loadScene(ref string, logger *renderer.DefaultLogger) (*scene.Scene, error) {
	if name, ok := strings.CutPrefix(ref, builtinPrefix); ok {
		return scene.Builtin(name)
	}
	return loaders.LoadSceneFile(ref, logger)
}

// exitCode maps an error to the CLI exit status. File system failures are I/O
// errors even when they surface through the scene parser.
func exitCode(err error) int {
	var pathErr *fs.PathError
	if errors.As(err, &pathErr) {
		return exitIOError
	}
	return exitParseError
}
