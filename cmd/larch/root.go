package main

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"larch/internal/colors"
	"larch/internal/config"
	"larch/internal/errors"
	"larch/internal/log"
	"larch/internal/pkgmgr"
	"larch/internal/source"
	"larch/internal/tree"
	"larch/internal/watch"
)

var (
	cfgFile string
	cfg     *config.Config
)

// errInputsFailed signals that some inputs were reported and skipped; the
// process still exits non-zero but the errors were already printed.
var errInputsFailed = errors.New("some inputs failed")

type rootFlags struct {
	colorChoice string
	alwaysColor bool
	packageMode bool
	textListing bool
	checkFS     bool
	pager       bool
	showSize    bool
	watchMode   bool
	debug       bool
}

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	flags := &rootFlags{}

	rootCmd := &cobra.Command{
		Use:   "larch [flags] <path|archive|package>...",
		Short: "Print lists of files as a tree",
		Long: `Larch renders directories, archives, and installed packages as a tree.

A directory argument is walked; a file argument is read as an archive
(tar or zip, optionally gzip/bzip2/xz/zstd compressed); with --package,
arguments name installed packages (dpkg or pacman). Use '-' to read a
listing or tar stream from stdin.`,
		Version:       version,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			log.SetDebug(flags.debug)

			var configErr error
			if cfgFile != "" {
				cfg, configErr = config.LoadConfigFile(cfgFile)
			} else {
				cfg, configErr = config.LoadConfig()
			}
			if configErr != nil {
				log.Warnf("using default settings: %v", configErr)
				cfg = config.New()
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRoot(flags, args)
		},
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/larch/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&flags.debug, "debug", false, "enable debug logging")

	rootCmd.Flags().StringVar(&flags.colorChoice, "color", "", "colorize output: auto, always, or never")
	rootCmd.Flags().BoolVarP(&flags.alwaysColor, "always-color", "C", false, "alias for --color=always")
	rootCmd.Flags().BoolVarP(&flags.packageMode, "package", "p", false, "list contents of installed packages (dpkg or pacman)")
	rootCmd.Flags().BoolVarP(&flags.textListing, "text-listing", "t", false, "read a newline-separated list of file names")
	rootCmd.Flags().BoolVarP(&flags.checkFS, "check-filesystem", "F", false, "with --text-listing, look up kinds and symlink targets on disk")
	rootCmd.Flags().BoolVarP(&flags.pager, "pager", "P", false, "send output to a pager ($LARCH_PAGER, $PAGER, or less)")
	rootCmd.Flags().BoolVarP(&flags.showSize, "size", "s", false, "append file sizes to each line")
	rootCmd.Flags().BoolVar(&flags.watchMode, "watch", false, "re-render when a directory input changes")
	rootCmd.MarkFlagsMutuallyExclusive("package", "text-listing")

	rootCmd.AddCommand(NewServeCmd())
	rootCmd.AddCommand(NewTuiCmd())

	return rootCmd
}

func runRoot(flags *rootFlags, args []string) error {
	if flags.checkFS && !flags.textListing {
		return errors.New("--check-filesystem requires --text-listing")
	}
	if flags.watchMode && (flags.packageMode || flags.textListing || len(args) != 1) {
		return errors.New("--watch takes exactly one directory argument")
	}

	table := colors.FromEnv()
	opts := tree.RenderOptions{
		Color:    colorEnabled(flags),
		ShowSize: flags.showSize || cfg.Display.ShowSize,
	}

	out := io.Writer(os.Stdout)
	var pager *pagerProc
	if flags.pager {
		p, err := spawnPager(cfg.Pager.Command)
		if err != nil {
			return err
		}
		pager = p
		out = p.stdin
	}

	var manager pkgmgr.Manager
	if flags.packageMode {
		var err error
		manager, err = defaultManager()
		if err != nil {
			return err
		}
	}

	errorCount := 0
	for i, input := range args {
		if i > 0 {
			fmt.Fprintln(out)
		}
		t, err := buildInput(flags, manager, input)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %s: %v\n", displayName(input), err)
			errorCount++
			continue
		}
		if err := t.Fprint(out, table, opts); err != nil {
			return err
		}
	}

	if pager != nil {
		if err := pager.wait(); err != nil {
			return err
		}
	}
	if flags.watchMode && errorCount == 0 {
		return watchLoop(args[0], table, opts)
	}
	if errorCount > 0 {
		return errInputsFailed
	}
	return nil
}

// buildInput builds one tree from one command line argument, dispatching on
// the input mode and, for paths, on whether it is a directory or a file.
func buildInput(flags *rootFlags, manager pkgmgr.Manager, input string) (*tree.Tree, error) {
	switch {
	case flags.packageMode:
		return manager.ReadPackage(input)
	case flags.textListing:
		src, err := source.OpenListing(input, flags.checkFS)
		if err != nil {
			return nil, err
		}
		return tree.Build(displayName(input), tree.Listing, src)
	case input == "-":
		// stdin is a tar stream (zip needs random access)
		src, err := source.NewArchiveStream(os.Stdin, "[stdin]")
		if err != nil {
			return nil, err
		}
		return tree.Build("[stdin]", tree.Archive, src)
	default:
		info, err := os.Stat(input)
		if err != nil {
			return nil, errors.NewSourceError("cannot stat path", input, errors.SourceFailure, err)
		}
		if info.IsDir() {
			src, err := source.NewFilesystem(input)
			if err != nil {
				return nil, err
			}
			return tree.Build(input, tree.Disk, src)
		}
		src, err := source.OpenArchive(input)
		if err != nil {
			return nil, err
		}
		return tree.Build(input, tree.Archive, src)
	}
}

// watchLoop re-renders the directory on every change until interrupted.
func watchLoop(dir string, table *colors.Table, opts tree.RenderOptions) error {
	w, err := watch.New(dir)
	if err != nil {
		return err
	}
	defer w.Stop()

	for range w.Events() {
		// clear the screen, then redraw from the top
		fmt.Print("\x1b[2J\x1b[H")
		src, err := source.NewFilesystem(dir)
		if err != nil {
			return err
		}
		t, err := tree.Build(dir, tree.Disk, src)
		if err != nil {
			log.Warnf("%v", err)
		}
		if err := t.Fprint(os.Stdout, table, opts); err != nil {
			return err
		}
	}
	return nil
}

// defaultManager picks the package manager, honoring db path overrides from
// the config file.
func defaultManager() (pkgmgr.Manager, error) {
	if cfg.Packages.PacmanDB != "" {
		return pkgmgr.NewPacman(cfg.Packages.PacmanDB)
	}
	if cfg.Packages.DpkgDB != "" {
		return pkgmgr.NewDpkg(cfg.Packages.DpkgDB)
	}
	return pkgmgr.Default()
}

func colorEnabled(flags *rootFlags) bool {
	choice := flags.colorChoice
	if flags.alwaysColor {
		choice = "always"
	}
	if choice == "" {
		choice = cfg.Display.Color
	}
	switch choice {
	case "always":
		return true
	case "never":
		return false
	default:
		// The pager inherits our stdout, so the tty check still decides;
		// less gets -R so the escapes render.
		return isatty.IsTerminal(os.Stdout.Fd())
	}
}

func displayName(input string) string {
	if input == "-" {
		return "[stdin]"
	}
	return input
}

// pagerProc is a spawned pager with our output connected to its stdin.
type pagerProc struct {
	cmd   *exec.Cmd
	stdin io.WriteCloser
}

// pagerArgv resolves the pager command line: the configured command, then
// $LARCH_PAGER, $PAGER, then less. For less, -R passes our color escapes
// through and --quit-if-one-screen keeps short trees from blanking the
// terminal.
func pagerArgv(configured string) []string {
	pager := configured
	if pager == "" {
		pager = os.Getenv("LARCH_PAGER")
	}
	if pager == "" {
		pager = os.Getenv("PAGER")
	}
	if pager == "" {
		pager = "less"
	}

	parts := strings.Fields(pager)
	if filepath.Base(parts[0]) == "less" {
		parts = append(parts, "-R", "--quit-if-one-screen")
	}
	return parts
}

// spawnPager starts the pager with our output connected to its stdin.
func spawnPager(configured string) (*pagerProc, error) {
	parts := pagerArgv(configured)
	cmd := exec.Command(parts[0], parts[1:]...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, err
	}
	if err := cmd.Start(); err != nil {
		return nil, errors.Wrapf(err, "failed to spawn pager %q", parts[0])
	}
	return &pagerProc{cmd: cmd, stdin: stdin}, nil
}

// wait closes the pipe so the pager sees EOF, then waits for it to exit.
func (p *pagerProc) wait() error {
	if err := p.stdin.Close(); err != nil {
		return err
	}
	if err := p.cmd.Wait(); err != nil {
		return errors.Wrap(err, "pager process failed")
	}
	return nil
}
