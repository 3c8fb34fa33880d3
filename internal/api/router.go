package api

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/your-org/memorybook/internal/api/handlers"
	"github.com/your-org/memorybook/internal/api/ws"
	"github.com/your-org/memorybook/internal/auth"
	"github.com/your-org/memorybook/internal/captions"
	"github.com/your-org/memorybook/internal/facepipe"
	"github.com/your-org/memorybook/internal/queue"
	"github.com/your-org/memorybook/internal/storage"
)

type RouterConfig struct {
	APIKey   string
	DB       *storage.PostgresStore
	MinIO    *storage.MinIOStore
	Producer *queue.Producer
	Hub      *ws.Hub
	Pipeline *facepipe.Pipeline
	// Captions may be nil when no OpenAI key is configured.
	Captions *captions.Generator
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(LoggingMiddleware())
	r.Use(cors.Default())

	// System endpoints (no auth)
	systemH := handlers.NewSystemHandler(cfg.DB, cfg.MinIO, cfg.Producer)
	r.GET("/healthz", systemH.Healthz)
	r.GET("/readyz", systemH.Readyz)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API v1 (with auth)
	v1 := r.Group("/v1")
	v1.Use(auth.RequireAPIKey(cfg.APIKey))
	v1.Use(auth.RequireUser())

	// WebSocket
	v1.GET("/ws", cfg.Hub.HandleWS)

	// Collection (one per user)
	colH := handlers.NewCollectionHandler(cfg.DB, cfg.Pipeline)
	v1.GET("/collection", colH.Get)

	// Photos
	photoH := handlers.NewPhotoHandler(cfg.DB, cfg.MinIO, cfg.Pipeline, cfg.Captions, cfg.Producer)
	v1.POST("/photos", photoH.Upload)
	v1.GET("/photos", photoH.List)
	v1.GET("/photos/:id", photoH.Get)
	v1.POST("/photos/:id/faces", photoH.IndexFaces)
	v1.POST("/photos/:id/caption", photoH.Caption)

	// Persons
	personH := handlers.NewPersonHandler(cfg.DB)
	v1.POST("/persons", personH.Create)
	v1.GET("/persons", personH.List)
	v1.GET("/persons/:id", personH.Get)
	v1.DELETE("/persons/:id", personH.Delete)

	// Faces
	faceH := handlers.NewFaceHandler(cfg.Pipeline)
	v1.GET("/faces/unassigned", faceH.ListUnassigned)
	v1.POST("/faces/:id/assign", faceH.Assign)
	v1.POST("/faces/:id/unassign", faceH.Unassign)
	v1.POST("/faces/:id/skip", faceH.Skip)
	v1.POST("/faces/:id/person", faceH.CreatePerson)

	return r
}
