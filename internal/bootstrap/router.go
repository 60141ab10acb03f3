package bootstrap

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	httpapi "github.com/sowdesk/sowdesk-backend/internal/api/http"
	"github.com/sowdesk/sowdesk-backend/internal/api/http/middleware"
	"github.com/sowdesk/sowdesk-backend/internal/auth"
	"github.com/sowdesk/sowdesk-backend/internal/chat"
	dealshttp "github.com/sowdesk/sowdesk-backend/internal/deals/http"
	dealsvc "github.com/sowdesk/sowdesk-backend/internal/deals/service"
	"github.com/sowdesk/sowdesk-backend/internal/files"
	genhttp "github.com/sowdesk/sowdesk-backend/internal/generation/http"
	gensvc "github.com/sowdesk/sowdesk-backend/internal/generation/service"
	notifhttp "github.com/sowdesk/sowdesk-backend/internal/notifications/http"
	notifsvc "github.com/sowdesk/sowdesk-backend/internal/notifications/service"
	tcohttp "github.com/sowdesk/sowdesk-backend/internal/tco/http"
	tcostorage "github.com/sowdesk/sowdesk-backend/internal/tco/storage"
	tmplhttp "github.com/sowdesk/sowdesk-backend/internal/templates/http"
	tmplrepo "github.com/sowdesk/sowdesk-backend/internal/templates/repository"
	"github.com/sowdesk/sowdesk-backend/internal/users"
)

type RouterDeps struct {
	ServiceName string
	Version     string

	DB    *pgxpool.Pool
	Redis *redis.Client

	Verifier *auth.Verifier

	DealService         *dealsvc.DealService
	GenerationService   *gensvc.GenerationService
	NotificationService *notifsvc.NotificationService
	UserRepo            *users.Repo
	TemplateRepo        *tmplrepo.TemplateRepository
	Presigner           *files.Presigner
	PriceStore          *tcostorage.PriceStore
	TCORefresher        tcohttp.Refresher
	RAGClient           *chat.RAGClient

	CallbackSecret string
	AllowOrigins   []string
}

func BuildRouter(dep RouterDeps) *gin.Engine {
	r := gin.Default()

	corsCfg := cors.DefaultConfig()
	if len(dep.AllowOrigins) > 0 {
		corsCfg.AllowOrigins = dep.AllowOrigins
	} else {
		corsCfg.AllowAllOrigins = true
	}
	corsCfg.AllowHeaders = append(corsCfg.AllowHeaders, "Authorization", "X-User-Id", "X-User-Role")
	corsCfg.MaxAge = 12 * time.Hour
	r.Use(cors.New(corsCfg))
	r.Use(middleware.RequestIDMiddleware())

	healthHandler := httpapi.NewHealthHandler(dep.ServiceName, dep.Version, dep.DB, dep.Redis)
	healthHandler.RegisterRoutes(r)

	genHandler := genhttp.New(dep.GenerationService, dep.CallbackSecret)

	api := r.Group("/api/v1")

	// The orchestrator authenticates with a shared secret, not a user token,
	// so callbacks sit outside the auth middleware.
	callbacks := api.Group("/callbacks")
	genHandler.RegisterCallbacks(callbacks)

	if dep.Verifier != nil {
		api.Use(auth.Middleware(dep.Verifier))
	} else {
		api.Use(auth.OptionalUser())
	}
	api.Use(users.WithUser(dep.UserRepo))

	genHandler.RegisterMetrics(api.Group("/generation"))

	dealsGroup := api.Group("/deals")
	dealshttp.New(dep.DealService, dep.GenerationService).Register(dealsGroup)
	genHandler.Register(dealsGroup)
	chat.NewHandler(dep.RAGClient, dep.DealService).Register(dealsGroup)

	notifhttp.New(dep.NotificationService).Register(api.Group("/notifications"))
	tmplhttp.NewHandler(dep.TemplateRepo).Register(api.Group("/templates"))
	users.NewHandler(dep.UserRepo).Register(api.Group("/users"))
	files.NewHandler(dep.Presigner).Register(api.Group("/files"))
	tcohttp.NewHandler(dep.PriceStore, dep.TCORefresher).Register(api.Group("/tco"))

	return r
}
