package main

import (
	"fmt"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"larch/internal/colors"
	"larch/internal/errors"
	"larch/internal/web"
)

// NewServeCmd creates the serve command
func NewServeCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve [directory]",
		Short: "Serve the directory tree over HTTP",
		Long: `Serve exposes the tree of a directory over HTTP: JSON at /api/tree
and the rendered text form at /tree. The optional ?path= query selects a
subdirectory.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}
			info, err := os.Stat(dir)
			if err != nil {
				return err
			}
			if !info.IsDir() {
				return errors.Newf("%s is not a directory", dir)
			}

			if addr == "" {
				addr = cfg.Serve.Addr
			}

			gin.SetMode(gin.ReleaseMode)
			srv := web.NewServer(dir, colors.FromEnv())
			fmt.Printf("Serving %s at http://%s\n", dir, addr)
			return srv.Run(addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, 127.0.0.1:7319)")
	return cmd
}
