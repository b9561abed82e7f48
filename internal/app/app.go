// Package app wires repositories, services and HTTP handlers into one router.
package app

import (
	"database/sql"
	"log/slog"

	"github.com/go-chi/chi/v5"

	"github.com/joao-fontenele/cayocagi/internal/audit"
	"github.com/joao-fontenele/cayocagi/internal/auth"
	"github.com/joao-fontenele/cayocagi/internal/catalog"
	"github.com/joao-fontenele/cayocagi/internal/httpx"
	"github.com/joao-fontenele/cayocagi/internal/orders"
	"github.com/joao-fontenele/cayocagi/internal/tickets"
	"github.com/joao-fontenele/cayocagi/internal/users"
)

type App struct {
	Router  *chi.Mux
	Orders  *orders.Service
	Catalog *catalog.Service
	Users   *users.Service
	Ledger  *tickets.Ledger
}

func New(db *sql.DB, tokens *auth.Tokens, logger *slog.Logger, opts ...orders.Option) *App {
	authn := auth.NewAuthenticator(tokens, logger)

	ledger := tickets.NewLedger(db)
	catalogRepo := catalog.NewRepository(db)
	orderService := orders.NewService(orders.NewOrderRepository(db), catalogRepo, ledger, logger, opts...)
	catalogService := catalog.NewService(catalogRepo, orderService, logger)
	userService := users.NewService(users.NewRepository(db), tokens, logger)

	router := httpx.NewRouter()
	users.NewHandler(userService, logger).Register(router, authn)
	tickets.NewHandler(ledger, logger).Register(router, authn)
	catalog.NewHandler(catalogService, logger).Register(router, authn)
	orders.NewHandler(orderService, logger).Register(router, authn)
	audit.NewHandler(audit.NewHistoryRepository(db), logger).Register(router, authn)

	return &App{
		Router:  router,
		Orders:  orderService,
		Catalog: catalogService,
		Users:   userService,
		Ledger:  ledger,
	}
}
