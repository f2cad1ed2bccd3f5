package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/brettbedarf/filetree"
	"github.com/brettbedarf/filetree/config"
	"github.com/brettbedarf/filetree/filesystem"
	"github.com/brettbedarf/filetree/internal/util"
	"github.com/brettbedarf/filetree/requests"
	"github.com/brettbedarf/filetree/server"
)

type options struct {
	configPath string
	mountName  string
	verbose    int
	long       bool
	strict     bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var opts options
	cmd := &cobra.Command{
		Use:   "ft [flags] <nodes-file>...",
		Short: "Build an in-memory file tree from node definition files and list it",
		Long: `ft loads JSON or YAML node definition files into an in-memory file tree
and prints the tree, one absolute path per line. At each directory files are
listed before subdirectories.`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts, args)
		},
	}
	cmd.Flags().StringVarP(&opts.configPath, "config", "c", "", "Path to a YAML or JSON config file")
	cmd.Flags().StringVarP(&opts.mountName, "mount", "m", "", "Mount name for the tree (overrides config)")
	cmd.Flags().IntVarP(&opts.verbose, "verbose", "v", 3, "Log verbosity level between 1 (error) and 5 (trace)")
	cmd.Flags().BoolVarP(&opts.long, "long", "l", false, "Print the kind and size of every node")
	cmd.Flags().BoolVar(&opts.strict, "strict", false, "Fail on the first request that cannot be applied")
	return cmd
}

func run(cmd *cobra.Command, opts options, nodeFiles []string) error {
	cfg := config.NewDefaultConfig()
	if opts.configPath != "" {
		override, err := config.LoadConfigOverrideFile(opts.configPath)
		if err != nil {
			util.InitializeLoggerTo(cmd.ErrOrStderr(), util.LevelFromVerbosity(opts.verbose))
			util.GetLogger("main").Error().Err(err).Str("config", opts.configPath).Msg("Failed to load config")
			return err
		}
		cfg.Merge(override)
	}
	// an explicit -v wins over the config file, the flag default does not
	flags := &config.ConfigOverride{MountName: &opts.mountName}
	if cmd.Flags().Changed("verbose") {
		flags.LogLvl = &opts.verbose
	}
	cfg.Merge(flags)

	util.InitializeLoggerTo(cmd.ErrOrStderr(), cfg.LogLvl)
	logger := util.GetLogger("main")
	logger.Info().Int("level", cfg.LogLvl).Strs("nodes", nodeFiles).Str("mount", cfg.MountName).Msg("ft initializing")

	registry := server.NewRegistry(cfg)
	defer closeRegistry(registry)

	mount, err := registry.Mount(cfg.MountName)
	if err != nil {
		return err
	}

	var reqs []filetree.NodeRequestor
	for _, path := range nodeFiles {
		fileReqs, err := requests.LoadFile(path)
		if err != nil {
			logger.Error().Err(err).Str("nodes", path).Msg("Failed to load node definitions")
			return err
		}
		logger.Debug().Str("nodes", path).Int("requests", len(fileReqs)).Msg("Node definitions loaded")
		reqs = append(reqs, fileReqs...)
	}

	return mount.Do(func(tree *filesystem.FileTree) error {
		if err := apply(tree, reqs, opts.strict); err != nil {
			return err
		}
		return printTree(cmd.OutOrStdout(), tree, opts.long)
	})
}

func closeRegistry(registry *server.Registry) {
	if err := registry.Close(); err != nil {
		util.GetLogger("main").Warn().Err(err).Msg("Failed to close mounts")
	}
}

// apply adds directories first, then files, logging requests that fail
// unless strict is set
func apply(tree *filesystem.FileTree, reqs []filetree.NodeRequestor, strict bool) error {
	logger := util.GetLogger("apply")
	dirs, files := requests.Split(reqs)

	dirAddCnt := 0
	for _, req := range dirs {
		if err := tree.InsertDirectory(req.Path); err != nil {
			logger.Warn().Err(err).Str("path", req.Path).Str("status", filetree.StatusOf(err).String()).Msg("Failed to add directory request")
			if strict {
				return err
			}
			continue
		}
		dirAddCnt++
	}
	fileAddCnt := 0
	for _, req := range files {
		if err := tree.InsertFile(req.Path, req.Content, req.Size); err != nil {
			logger.Warn().Err(err).Str("path", req.Path).Str("status", filetree.StatusOf(err).String()).Msg("Failed to add file request")
			if strict {
				return err
			}
			continue
		}
		fileAddCnt++
	}
	logger.Info().Int("directories", dirAddCnt).Int("files", fileAddCnt).Int("nodes", tree.Count()).Msg("Added new nodes to tree")
	return nil
}

func printTree(w io.Writer, tree *filesystem.FileTree, long bool) error {
	if !long {
		listing, err := tree.String()
		if err != nil {
			return err
		}
		_, err = io.WriteString(w, listing)
		return err
	}
	return tree.Walk(func(e filetree.Entry) error {
		var err error
		if e.IsFile {
			_, err = fmt.Fprintf(w, "file %8d %s\n", e.Size, e.Path)
		} else {
			_, err = fmt.Fprintf(w, "dir  %8s %s\n", "-", e.Path)
		}
		return err
	})
}
