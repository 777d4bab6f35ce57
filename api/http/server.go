package http

import (
	"MediVision/internal/config"
	jwtMiddleware "MediVision/internal/middleware/jwt"
	medicalHandler "MediVision/internal/modules/medical/interface/http"
	"MediVision/pkg/ssl"

	cors "github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// NewEngine wires the routes. All dependencies come in through the handlers;
// the engine keeps no state of its own.
func NewEngine(conf *config.Config, medicalH *medicalHandler.MedicalHandler, adminH *medicalHandler.AdminHandler) *gin.Engine {
	ge := gin.Default()

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"*"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization"}
	ge.Use(cors.New(corsConfig))

	if conf.MainConfig.EnableTLS {
		ge.Use(ssl.TlsHandler(conf.MainConfig.Host, conf.MainConfig.Port))
	}

	ge.GET("/", medicalH.Health)

	api := ge.Group("/api")
	{
		api.POST("/diagnose", medicalH.Diagnose)
		api.POST("/search", medicalH.Search)
		api.GET("/patients/:id", medicalH.PatientSummary)
		api.POST("/treatment", medicalH.Treatment)
		api.GET("/collections", medicalH.Collections)
		api.POST("/admin/token", adminH.Token)
	}

	admin := api.Group("/")
	admin.Use(jwtMiddleware.Auth(conf.JwtConfig))
	{
		admin.POST("/analyze-image", adminH.AnalyzeImage)
		admin.POST("/admin/index/text", adminH.IndexText)
		admin.POST("/admin/index/batch", adminH.IndexBatch)
		admin.POST("/admin/seed", adminH.Seed)
		admin.DELETE("/admin/collections/:name", adminH.DropCollection)
	}

	return ge
}
