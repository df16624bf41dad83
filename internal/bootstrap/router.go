package bootstrap

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	httpapi "github.com/testvault-io/testvault-backend/internal/api/http"
	"github.com/testvault-io/testvault-backend/internal/api/middleware"
	"github.com/testvault-io/testvault-backend/internal/auth"
	projhttp "github.com/testvault-io/testvault-backend/internal/projects/http"
	projservice "github.com/testvault-io/testvault-backend/internal/projects/service"
	tchttp "github.com/testvault-io/testvault-backend/internal/testcases/http"
	tcservice "github.com/testvault-io/testvault-backend/internal/testcases/service"
	"github.com/testvault-io/testvault-backend/internal/users"
)

type RouterDeps struct {
	ServiceName string
	Version     string
	JWTSecret   string
	CORSOrigins []string
	DB          *pgxpool.Pool
	Users       *users.Repo
	Projects    *projservice.ProjectService
	TestCases   *tcservice.TestCaseService
}

func BuildRouter(dep RouterDeps) *gin.Engine {
	r := gin.Default()
	r.Use(middleware.RequestID())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     dep.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	healthHandler := httpapi.NewHealthHandler(dep.ServiceName, dep.Version, dep.DB)
	healthHandler.RegisterRoutes(r)

	api := r.Group("/api/v1")
	api.Use(auth.Middleware(dep.JWTSecret, dep.Users))

	testCaseHandler := tchttp.New(dep.TestCases)

	projectsGroup := api.Group("/projects")
	projhttp.New(dep.Projects).Register(projectsGroup)
	testCaseHandler.RegisterProjectRoutes(projectsGroup)

	testCaseHandler.RegisterRoutes(api.Group("/test-cases"))

	return r
}
