package cli

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/knightqmd/scheduler-app/internal/server"
)

func newServeCmd(app *App) *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "启动 HTTP 接口（/api/schedule, /api/plan）",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			addr := listen
			if addr == "" {
				addr = app.Config.Listen
			}
			if !app.Config.Debug {
				gin.SetMode(gin.ReleaseMode)
			}

			srv := server.New(app.Plans, app.Config.Server, app.Logger)
			fmt.Fprintf(cmd.OutOrStdout(), "Serving on http://%s\n", addr)
			return srv.ListenAndServe(cmd.Context(), addr)
		},
	}

	cmd.Flags().StringVar(&listen, "listen", "", "Listen address (default from config, 127.0.0.1:8000)")

	return cmd
}
