package app

import (
	"context"
	"log/slog"
	"os"

	"github.com/shandysiswandi/gobank/internal/transaction"
)

func (a *App) initModules() {
	if a.config.GetBool("modules.transaction.enabled") {
		closer, err := transaction.New(transaction.Dependency{
			Config:    a.config,
			Router:    a.router,
			Goroutine: a.goroutine,
			Context:   a.ctx,
		})
		if err != nil {
			slog.Error("failed to init module transaction", "error", err)
			os.Exit(1)
		}
		if closer != nil {
			if a.closerFn == nil {
				a.closerFn = map[string]func(context.Context) error{}
			}
			a.closerFn["Transaction"] = closer
		}
	}
}
