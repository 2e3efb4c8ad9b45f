package router

import (
	"context"
	"database/sql"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "group-calendar/docs" // swagger generado por swag init

	"group-calendar/internal/adapters/llm/openai"
	mem "group-calendar/internal/adapters/storage/memory"
	pg "group-calendar/internal/adapters/storage/postgres"
	"group-calendar/internal/agent"
	"group-calendar/internal/domain/changerequests"
	"group-calendar/internal/domain/events"
	"group-calendar/internal/domain/groups"
	"group-calendar/internal/domain/users"
	"group-calendar/internal/middleware"
	"group-calendar/internal/platform/logger"
	"group-calendar/internal/ports/auth"
)

type Options struct {
	AuthVerifier auth.AuthVerifier // puede ser nil (modo dev)

	// Opcional: si viene, usa Postgres. Si no, in-memory.
	DB *sql.DB

	// Opcional: LLM para el agente. Si es nil se intenta por env; si
	// tampoco hay API key, /agent no se monta.
	Completer agent.ChatCompleter

	Logger logger.Logger
}

func NewRouter(opts Options) http.Handler {
	log := opts.Logger
	if log == nil {
		log = logger.NewFromEnv()
	}

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)

	r.Use(middleware.AuthContext(opts.AuthVerifier))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	var (
		usersRepo  users.Repository
		groupsRepo groups.Repository
		eventsRepo events.Repository
		crRepo     changerequests.Repository
	)

	// Si no te pasan DB explícita, intenta por env (para dev/handoff)
	db := opts.DB
	if db == nil {
		if dsn := os.Getenv("DB_DSN"); dsn != "" {
			opened, err := pg.Open(dsn)
			if err != nil {
				log.Warn("postgres unavailable, falling back to memory", map[string]any{"error": err.Error()})
			} else {
				db = opened
			}
		}
	}

	if db != nil {
		if err := pg.EnsureSchema(context.Background(), db); err != nil {
			log.Error("schema init failed", map[string]any{"error": err.Error()})
		}
		usersRepo = pg.NewUsersRepo(db)
		groupsRepo = pg.NewGroupsRepo(db)
		eventsRepo = pg.NewEventsRepo(db)
		crRepo = pg.NewChangeRequestsRepo(db)
	} else {
		usersRepo = mem.NewUsersRepo()
		groupsRepo = mem.NewGroupsRepo()
		eventsRepo = mem.NewEventsRepo()
		crRepo = mem.NewChangeRequestsRepo()
	}

	// Services por módulo. El service de users dobla como directorio de
	// participantes (timezone + ventana DND) para el de eventos.
	usersSvc := users.NewService(usersRepo)
	groupsSvc := groups.NewService(groupsRepo)
	eventsSvc := events.NewService(eventsRepo, usersSvc)
	crSvc := changerequests.NewService(crRepo, eventsSvc)

	// Rutas por módulo
	users.RegisterRoutes(r, usersSvc)
	groups.RegisterRoutes(r, groupsSvc)
	events.RegisterRoutes(r, eventsSvc)
	changerequests.RegisterRoutes(r, crSvc)

	// Agente: solo si hay LLM configurado.
	completer := opts.Completer
	if completer == nil {
		client, err := openai.NewFromEnv()
		if err != nil {
			log.Warn("openai client init failed", map[string]any{"error": err.Error()})
		} else if client != nil {
			completer = client
		}
	}
	if completer != nil {
		agent.RegisterRoutes(r, agent.New(completer, eventsSvc, log))
	}

	r.Get("/swagger/*", httpSwagger.WrapHandler)

	return r
}
