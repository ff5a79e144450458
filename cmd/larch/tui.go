package main

import (
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"larch/internal/colors"
	"larch/internal/source"
	"larch/internal/tree"
	"larch/internal/tui"
)

// NewTuiCmd creates the tui command
func NewTuiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tui [path]",
		Short: "Browse a directory or archive interactively",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input := "."
			if len(args) > 0 {
				input = args[0]
			}

			t, err := buildTuiTree(input)
			if err != nil {
				return err
			}

			program := tea.NewProgram(tui.New(t, colors.FromEnv()), tea.WithAltScreen())
			_, err = program.Run()
			return err
		},
	}
}

func buildTuiTree(input string) (*tree.Tree, error) {
	info, err := os.Stat(input)
	if err != nil {
		return nil, err
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
