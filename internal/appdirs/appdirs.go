// Package appdirs decides where storyreel keeps its config file, logs, the
// job database and the per-job render directories.
package appdirs

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

const (
	// HomeEnv names an explicit data root. It wins over every other layout
	// and is what container deployments set.
	HomeEnv     = "STORYREEL_HOME"
	PortableEnv = "STORYREEL_PORTABLE"

	appName        = "StoryReel"
	configFileName = "config.toml"
	portableDir    = "data"
)

type Paths struct {
	Portable   bool
	ConfigDir  string
	ConfigFile string
	LogDir     string
	// OutputDir holds the jobs/ and uploads/ trees.
	OutputDir string
	// CacheDir holds the sqlite job database.
	CacheDir string
}

// lookups are the OS queries Resolve depends on, swapped out in tests.
type lookups struct {
	goos          string
	getenv        func(string) string
	executable    func() (string, error)
	userConfigDir func() (string, error)
	userCacheDir  func() (string, error)
}

func systemLookups() lookups {
	return lookups{
		goos:          runtime.GOOS,
		getenv:        os.Getenv,
		executable:    os.Executable,
		userConfigDir: os.UserConfigDir,
		userCacheDir:  os.UserCacheDir,
	}
}

// Resolve returns the layout in order of precedence: STORYREEL_HOME, the
// portable data dir next to the binary, per-user dirs on windows, and the
// working directory everywhere else.
func Resolve() (Paths, error) {
	return resolve(systemLookups())
}

func resolve(l lookups) (Paths, error) {
	l = l.filled()
	if home := strings.TrimSpace(l.getenv(HomeEnv)); home != "" {
		return rootedPaths(filepath.Clean(home)), nil
	}
	if isPortableEnabled(l.getenv(PortableEnv)) {
		exe, err := l.executable()
		if err != nil {
			return Paths{}, err
		}
		paths := rootedPaths(filepath.Join(filepath.Dir(exe), portableDir))
		paths.Portable = true
		return paths, nil
	}
	if l.goos == "windows" {
		return windowsPaths(l)
	}
	return workingDirPaths(), nil
}

func (l lookups) filled() lookups {
	sys := systemLookups()
	if l.goos == "" {
		l.goos = sys.goos
	}
	if l.getenv == nil {
		l.getenv = sys.getenv
	}
	if l.executable == nil {
		l.executable = sys.executable
	}
	if l.userConfigDir == nil {
		l.userConfigDir = sys.userConfigDir
	}
	if l.userCacheDir == nil {
		l.userCacheDir = sys.userCacheDir
	}
	return l
}

// rootedPaths puts every directory below one root.
func rootedPaths(root string) Paths {
	configDir := filepath.Join(root, "config")
	return Paths{
		ConfigDir:  configDir,
		ConfigFile: filepath.Join(configDir, configFileName),
		LogDir:     filepath.Join(root, "logs"),
		OutputDir:  filepath.Join(root, "output"),
		CacheDir:   filepath.Join(root, "cache"),
	}
}

func windowsPaths(l lookups) (Paths, error) {
	configRoot, err := nonEmptyDir(l.userConfigDir, "user config dir is empty")
	if err != nil {
		return Paths{}, err
	}
	cacheRoot, err := nonEmptyDir(l.userCacheDir, "user cache dir is empty")
	if err != nil {
		return Paths{}, err
	}

	configDir := filepath.Join(configRoot, appName)
	dataDir := filepath.Join(cacheRoot, appName)
	return Paths{
		ConfigDir:  configDir,
		ConfigFile: filepath.Join(configDir, configFileName),
		LogDir:     filepath.Join(dataDir, "logs"),
		OutputDir:  filepath.Join(dataDir, "output"),
		CacheDir:   filepath.Join(dataDir, "cache"),
	}, nil
}

func nonEmptyDir(lookup func() (string, error), emptyMsg string) (string, error) {
	dir, err := lookup()
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(dir) == "" {
		return "", errors.New(emptyMsg)
	}
	return dir, nil
}

// workingDirPaths keeps jobs/ and uploads/ directly in the working
// directory, which is how the server is usually run from a checkout.
func workingDirPaths() Paths {
	return Paths{
		ConfigDir:  "config",
		ConfigFile: filepath.Join("config", configFileName),
		LogDir:     ".",
		OutputDir:  ".",
		CacheDir:   "cache",
	}
}

func isPortableEnabled(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes":
		return true
	default:
		return false
	}
}
