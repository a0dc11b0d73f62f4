package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/viper"

	"github.com/tybalex/otto8-log-tool/internal/pipeline"
	"github.com/tybalex/otto8-log-tool/internal/snapshot"
)

// Build variables - set by ldflags during build.
var (
	version = "dev"
	commit  = "unknown"
)

const usage = `Usage: logtool <command> [flags]

Commands:
  discover     mine log templates from an input file or URL and persist a snapshot
  reconstruct  recover the parameter values of one cluster from the snapshot
  serve        run the HTTP API

Run "logtool <command> -h" for command flags.
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	switch os.Args[1] {
	case "discover":
		runDiscover(os.Args[2:])
	case "reconstruct":
		runReconstruct(os.Args[2:])
	case "serve":
		runServe(os.Args[2:])
	case "version", "-version", "--version":
		fmt.Printf("logtool %s (%s)\n", version, commit)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", os.Args[1], usage)
		os.Exit(2)
	}
}

// fatalJSON reports a terminal error the way every consumer of this tool
// expects it: one JSON object on stdout and a non-zero exit code.
func fatalJSON(err error) {
	msg := err.Error()
	if errors.Is(err, snapshot.ErrNotFound) {
		msg = "no snapshot found, run discover first"
	}
	out, _ := json.Marshal(map[string]string{"error": msg})
	fmt.Println(string(out))
	os.Exit(1)
}

func printJSON(v interface{}) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fatalJSON(fmt.Errorf("encode output: %w", err))
	}
	fmt.Println(string(out))
}

func runDiscover(args []string) {
	fs := flag.NewFlagSet("discover", flag.ExitOnError)
	input := fs.String("input", "", "log file path or http(s) URL (required)")
	configPath := fs.String("config", "", "config file (default is $HOME/.config/logtool/config.yml)")
	_ = fs.Parse(args)

	if *input == "" {
		fatalJSON(errors.New("discover requires -input"))
	}
	cfg, err := loadConfig(*configPath)
	if err != nil {
		fatalJSON(err)
	}
	a, err := newApp(cfg)
	if err != nil {
		fatalJSON(err)
	}

	snap, err := a.Discover(context.Background(), *input)
	if err != nil {
		fatalJSON(err)
	}
	printJSON(map[string]interface{}{"clusters": snap.Clusters})
}

func runReconstruct(args []string) {
	fs := flag.NewFlagSet("reconstruct", flag.ExitOnError)
	clusterID := fs.String("cluster-id", "", "cluster id from the discover listing (required)")
	configPath := fs.String("config", "", "config file (default is $HOME/.config/logtool/config.yml)")
	_ = fs.Parse(args)

	if *clusterID == "" {
		fatalJSON(errors.New("reconstruct requires -cluster-id"))
	}
	id, err := strconv.ParseInt(*clusterID, 10, 64)
	if err != nil {
		fatalJSON(fmt.Errorf("cluster id must be an integer: %q", *clusterID))
	}
	cfg, err := loadConfig(*configPath)
	if err != nil {
		fatalJSON(err)
	}
	a, err := newApp(cfg)
	if err != nil {
		fatalJSON(err)
	}

	result, err := a.Reconstruct(context.Background(), id)
	if err != nil {
		if errors.Is(err, pipeline.ErrClusterNotFound) {
			fatalJSON(fmt.Errorf("cluster %d not found in snapshot", id))
		}
		fatalJSON(err)
	}
	printJSON(result)
}

func loadConfig(configPath string) (appConfig, error) {
	var cfg appConfig

	home, err := os.UserHomeDir()
	if err != nil {
		return cfg, fmt.Errorf("finding home directory: %w", err)
	}

	dataDir := filepath.Join(home, ".local", "share", "logtool")

	v := viper.New()
	v.SetEnvPrefix("LOGTOOL")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))

	v.SetDefault("snapshot-path", filepath.Join(dataDir, "snapshot.json"))
	v.SetDefault("cache-dir", filepath.Join(dataDir, "cache"))
	v.SetDefault("mask-rules", "")
	v.SetDefault("workspace-url", "")
	v.SetDefault("s3-endpoint", "")
	v.SetDefault("s3-region", "")
	v.SetDefault("s3-access-key", "")
	v.SetDefault("s3-secret-key", "")
	v.SetDefault("s3-session-token", "")
	v.SetDefault("s3-use-ssl", true)
	v.SetDefault("api-port", defaultAPIPort)
	v.SetDefault("similarity-threshold", defaultSimilarityThreshold)
	v.SetDefault("tree-depth", defaultTreeDepth)
	v.SetDefault("max-children", defaultMaxChildren)
	v.SetDefault("max-clusters", defaultMaxClusters)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigFile(filepath.Join(home, ".config", "logtool", "config.yml"))
	}

	if err := v.ReadInConfig(); err != nil {
		var configFileNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFound) && !os.IsNotExist(err) {
			return cfg, err
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, err
	}
	cfg.ConfigPath = v.ConfigFileUsed()

	if cfg.APIPort <= 0 || cfg.APIPort > 65535 {
		return cfg, fmt.Errorf("invalid api-port: %d", cfg.APIPort)
	}

	// Expand ~ in paths.
	for _, p := range []*string{&cfg.SnapshotPath, &cfg.CacheDir, &cfg.MaskRules} {
		if strings.HasPrefix(*p, "~/") {
			*p = filepath.Join(home, (*p)[2:])
		}
	}

	if cfg.APIAddr == "" {
		cfg.APIAddr = net.JoinHostPort(defaultBindHost, strconv.Itoa(cfg.APIPort))
	}

	return cfg, nil
}
