package api

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/Manish-tomar-aligarh/ai-hiring-platform/internal/api/middleware"
	"github.com/Manish-tomar-aligarh/ai-hiring-platform/internal/auth"
	"github.com/Manish-tomar-aligarh/ai-hiring-platform/internal/config"
	"github.com/Manish-tomar-aligarh/ai-hiring-platform/internal/database"
)

// Dependencies 汇总路由注册所需的基础设施与领域服务。
type Dependencies struct {
	Config      *config.Config
	DB          *gorm.DB
	Redis       redis.UniversalClient
	AuthService *auth.AuthService
	Storage     ObjectStore
	Logger      *slog.Logger

	Resumes    ResumeService
	Skills     SkillService
	Interviews InterviewService
	Jobs       JobService
}

// RegisterRoutes 注册 /v1 下的全部业务路由。
func RegisterRoutes(router *gin.Engine, deps Dependencies) {
	cfg := deps.Config
	authHandler := NewAuthHandler(deps.DB, deps.AuthService, deps.Redis, cfg.API)
	userHandler := NewUserHandler(deps.DB)
	resumeHandler := NewResumeHandler(deps.Resumes, deps.Storage, cfg.Upload.MaxResumeBytes, cfg.Upload.ClamdAddr)
	skillHandler := NewSkillHandler(deps.Skills)
	interviewHandler := NewInterviewHandler(deps.Interviews, deps.Storage, cfg.Upload.MaxVideoBytes, cfg.Upload.ClamdAddr)
	jobHandler := NewJobHandler(deps.Jobs)
	adminHandler := NewAdminHandler(deps.DB, deps.Storage)
	wsHandler := NewWsHandler(deps.Redis, deps.AuthService, deps.Logger, cfg.API.AllowedOrigins)

	authMiddleware := middleware.AuthMiddleware(deps.AuthService)
	passwordGate := middleware.RequirePasswordChanged()
	candidateOnly := middleware.RequireRoles(database.RoleCandidate)
	recruiterOrAdmin := middleware.RequireRoles(database.RoleRecruiter, database.RoleAdmin)
	adminOnly := middleware.RequireRoles(database.RoleAdmin)

	v1 := router.Group("/v1")
	{
		v1.GET("/ws", wsHandler.HandleConnection)

		authGroup := v1.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
			authGroup.POST("/refresh", authHandler.Refresh)
			authGroup.POST("/logout", authHandler.Logout)
			// 改密接口不经过 passwordGate，否则首次登录的账号无法完成改密。
			authGroup.POST("/change-password", authMiddleware, authHandler.ChangePassword)
		}

		secured := v1.Group("")
		secured.Use(authMiddleware, passwordGate)

		users := secured.Group("/users")
		{
			users.GET("/me", userHandler.Me)
			users.PATCH("/me", userHandler.UpdateProfile)
		}

		resumes := secured.Group("/resumes", candidateOnly)
		{
			resumes.POST("", resumeHandler.UploadResume)
			resumes.GET("", resumeHandler.ListResumes)
			resumes.GET("/:id", resumeHandler.GetResume)
		}

		skills := secured.Group("/skills")
		{
			skills.GET("/tests", skillHandler.ListTests)
			skills.GET("/tests/:id", skillHandler.GetTest)
			skills.POST("/tests/:id/attempts", candidateOnly, skillHandler.StartAttempt)
			skills.GET("/attempts", candidateOnly, skillHandler.ListAttempts)
			skills.POST("/attempts/:id/submit", candidateOnly, skillHandler.SubmitAttempt)
		}

		interviews := secured.Group("/interviews")
		{
			interviews.POST("", candidateOnly, interviewHandler.Schedule)
			interviews.GET("", recruiterOrAdmin, interviewHandler.ListAll)
			interviews.GET("/mine", candidateOnly, interviewHandler.ListMine)
			interviews.GET("/:id", interviewHandler.Get)
			interviews.POST("/:id/responses", candidateOnly, interviewHandler.SubmitResponse)
			interviews.POST("/:id/complete", candidateOnly, interviewHandler.Complete)
		}

		jobs := secured.Group("/jobs")
		{
			jobs.GET("", jobHandler.List)
			jobs.POST("", recruiterOrAdmin, jobHandler.Create)
			jobs.GET("/:id", jobHandler.Get)
			jobs.PATCH("/:id", recruiterOrAdmin, jobHandler.Update)
			jobs.POST("/:id/apply", candidateOnly, jobHandler.Apply)
			jobs.GET("/:id/applications", recruiterOrAdmin, jobHandler.Applications)
		}
		secured.POST("/applications/:id/shortlist", recruiterOrAdmin, jobHandler.Shortlist)

		admin := secured.Group("/admin", adminOnly)
		{
			admin.GET("/stats", adminHandler.Stats)
			admin.GET("/users", adminHandler.ListUsers)
			admin.DELETE("/users/:id", adminHandler.DeleteUser)
			admin.GET("/jobs", adminHandler.ListJobs)
			admin.DELETE("/jobs/:id", adminHandler.DeleteJob)
			admin.GET("/interviews", adminHandler.ListInterviews)
			admin.DELETE("/interviews/:id", adminHandler.DeleteInterview)
			admin.GET("/resumes", adminHandler.ListResumes)
			admin.DELETE("/resumes/:id", adminHandler.DeleteResume)
		}
	}
}
