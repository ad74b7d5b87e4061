package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"

	"storyreel/config"
	"storyreel/internal/appdirs"
	"storyreel/internal/deps"
	"storyreel/log"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

type cliOptions struct {
	manifestPath string
	outDir       string
	showVersion  bool
	showDiagnose bool
}

var errManifestRequired = errors.New("-manifest is required")

func parseFlags(args []string, output io.Writer) (cliOptions, error) {
	var opts cliOptions
	flags := flag.NewFlagSet("render", flag.ContinueOnError)
	flags.SetOutput(output)

	flags.StringVar(&opts.manifestPath, "manifest", "", "path to a YAML job manifest")
	flags.StringVar(&opts.outDir, "out", "render-out", "working and output directory")
	flags.BoolVar(&opts.showVersion, "version", false, "print version information")
	flags.BoolVar(&opts.showDiagnose, "diagnose", false, "print runtime diagnostics")

	if err := flags.Parse(args); err != nil {
		return opts, err
	}
	if !opts.showVersion && !opts.showDiagnose && opts.manifestPath == "" {
		return opts, errManifestRequired
	}
	return opts, nil
}

func printVersion() {
	fmt.Printf("version: %s\ncommit: %s\ndate: %s\n", version, commit, date)
}

func printDiagnose() {
	fmt.Printf("runtime: %s/%s\n", runtime.GOOS, runtime.GOARCH)
	fmt.Printf("version: %s\n", version)

	if wd, err := os.Getwd(); err == nil {
		fmt.Printf("working_dir: %s\n", wd)
	} else {
		fmt.Printf("working_dir: <error: %v>\n", err)
	}

	if paths, err := appdirs.Resolve(); err == nil {
		fmt.Printf("portable: %t\n", paths.Portable)
		printPath("config", paths.ConfigFile)
		printPath("output", paths.OutputDir)
		printPath("jobs", appdirs.JobRootFor(paths))
		printPath("uploads", appdirs.UploadRootFor(paths))
		printPath("db", appdirs.DBPathFor(paths))
	} else {
		fmt.Printf("paths: <error: %v>\n", err)
	}

	if logDir, err := log.ResolveLogDir(); err == nil {
		printPath("effective_log_dir", logDir)
	} else {
		fmt.Printf("path.effective_log_dir: <error: %v>\n", err)
	}

	states := deps.ResolveDependencyInventory(config.Conf.Ffmpeg.FfmpegPath, config.Conf.Ffmpeg.FfprobePath)
	fmt.Println(deps.FormatDependencyReport(states))
}

func printPath(name, value string) {
	absPath, err := filepath.Abs(value)
	if err != nil {
		fmt.Printf("path.%s: %s (abs_error=%v)\n", name, value, err)
		return
	}

	if _, err = os.Stat(absPath); err == nil {
		fmt.Printf("path.%s: %s (exists)\n", name, absPath)
		return
	}
	if os.IsNotExist(err) {
		fmt.Printf("path.%s: %s (missing)\n", name, absPath)
		return
	}

	fmt.Printf("path.%s: %s (error=%v)\n", name, absPath, err)
}
