package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/yukikurage/daily-tracker/internal/constants"
	"github.com/yukikurage/daily-tracker/internal/middleware"
	"github.com/yukikurage/daily-tracker/internal/repository"
	"github.com/yukikurage/daily-tracker/internal/services"
)

// Deps holds everything the router wires into handlers.
type Deps struct {
	Logger       *slog.Logger
	Sessions     sessions.Store
	Store        *repository.Store
	Events       Broadcaster
	WebSocket    http.Handler
	AuthService  *services.AuthService
	JobService   *services.JobService
	TaskService  *services.TaskService
	NoteService  *services.NoteService
	DriveService *services.DriveService
	AIService    *services.AIService
	ChatService  *services.ChatService
}

// NewRouter builds the gin engine with every API route registered.
func NewRouter(deps Deps) *gin.Engine {
	r := gin.New()
	r.Use(middleware.RequestLogger(deps.Logger), gin.Recovery())
	r.Use(sessions.Sessions(constants.SessionCookieName, deps.Sessions))
	r.MaxMultipartMemory = 8 << 20

	authHandler := NewAuthHandler(deps.AuthService, deps.ChatService)
	jobHandler := NewJobHandler(deps.JobService, deps.Events)
	taskHandler := NewTaskHandler(deps.TaskService, deps.Events)
	noteHandler := NewNoteHandler(deps.NoteService, deps.Events)
	driveHandler := NewDriveHandler(deps.DriveService, deps.Events)
	aiHandler := NewAIHandler(deps.AIService, deps.ChatService)

	r.GET("/health", Health(deps.Store))
	if deps.WebSocket != nil {
		r.GET("/ws", gin.WrapH(deps.WebSocket))
	}

	api := r.Group("/api")
	{
		// Auth routes (public)
		auth := api.Group("/auth")
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
			auth.POST("/logout", authHandler.Logout)
			auth.POST("/otp/send", authHandler.SendOTP)
			auth.POST("/otp/verify", authHandler.VerifyOTP)
			auth.POST("/login/phone", authHandler.LoginWithPhone)
			auth.POST("/password/reset", authHandler.ResetPassword)
			auth.GET("/me", middleware.RequireAuth(), authHandler.GetCurrentUser)
			auth.DELETE("/account", middleware.RequireAuth(), authHandler.DeleteAccount)
		}

		jobs := api.Group("/jobs")
		jobs.Use(middleware.RequireAuth())
		{
			jobs.GET("", jobHandler.ListJobs)
			jobs.POST("", jobHandler.CreateJob)
			jobs.GET("/:id", jobHandler.LoadJob(), jobHandler.GetJob)
			jobs.PATCH("/:id", jobHandler.UpdateJob)
			jobs.DELETE("/:id", jobHandler.DeleteJob)
			jobs.POST("/:id/analyze", jobHandler.AnalyzeJob)
		}

		tasks := api.Group("/tasks")
		tasks.Use(middleware.RequireAuth())
		{
			tasks.GET("", taskHandler.ListTasks)
			tasks.POST("", taskHandler.CreateTask)
			tasks.GET("/check-duplicate", taskHandler.CheckDuplicate)
			tasks.GET("/:id", taskHandler.LoadTask(), taskHandler.GetTask)
			tasks.PATCH("/:id", taskHandler.UpdateTask)
			tasks.DELETE("/:id", taskHandler.DeleteTask)
		}

		notes := api.Group("/notes")
		notes.Use(middleware.RequireAuth())
		{
			notes.GET("", noteHandler.ListNotes)
			notes.POST("", noteHandler.CreateNote)
			notes.GET("/:id", noteHandler.LoadNote(), noteHandler.GetNote)
			notes.PATCH("/:id", noteHandler.UpdateNote)
			notes.DELETE("/:id", noteHandler.DeleteNote)
		}

		drive := api.Group("/drive")
		drive.Use(middleware.RequireAuth())
		{
			drive.GET("/folders", driveHandler.ListFolders)
			drive.POST("/folders", driveHandler.CreateFolder)
			drive.GET("/folders/:id", driveHandler.LoadFolder(), driveHandler.GetFolder)
			drive.PATCH("/folders/:id", driveHandler.UpdateFolder)
			drive.DELETE("/folders/:id", driveHandler.DeleteFolder)

			drive.GET("/files", driveHandler.ListFiles)
			drive.POST("/files", driveHandler.UploadFile)
			drive.GET("/trash", driveHandler.ListTrash)
			drive.GET("/files/:id", driveHandler.LoadFile(), driveHandler.GetFile)
			drive.GET("/files/:id/download", driveHandler.DownloadFile)
			drive.PATCH("/files/:id", driveHandler.UpdateFile)
			drive.DELETE("/files/:id", driveHandler.DeleteFile)
			drive.POST("/files/:id/restore", driveHandler.RestoreFile)
		}

		ai := api.Group("/ai")
		ai.Use(middleware.RequireAuth())
		{
			ai.POST("/analyze-resume", aiHandler.AnalyzeResume)
			ai.POST("/chat", aiHandler.Chat)
			ai.GET("/quota", aiHandler.GetQuota)
		}
	}

	return r
}
