// Package app provides application initialization and dependency wiring.
//
// App is the container that orchestrates all components: it runs
// migrations, opens the database pool, initializes Genkit, indexes the
// corpus, registers tools, and assembles the query service.
package app

import (
	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/farego/farego/internal/chat"
	"github.com/farego/farego/internal/config"
	"github.com/farego/farego/internal/history"
	"github.com/farego/farego/internal/knowledge"
	"github.com/farego/farego/internal/log"
	"github.com/farego/farego/internal/memory"
	"github.com/farego/farego/internal/service"
)

// App is the core application container.
type App struct {
	Config *config.Config
	Logger log.Logger

	// Core services
	Genkit    *genkit.Genkit
	Embedder  ai.Embedder
	DBPool    *pgxpool.Pool
	Knowledge *knowledge.Store
	History   *history.Store
	Memory    *memory.Store
	Agent     *chat.Agent
	Service   *service.Service
	Tools     []ai.Tool
}

// Close gracefully releases all resources.
func (a *App) Close() error {
	if a.Logger != nil {
		a.Logger.Info("shutting down application")
	}

	if a.DBPool != nil {
		a.DBPool.Close()
		if a.Logger != nil {
			a.Logger.Info("database pool closed")
		}
	}

	return nil
}
