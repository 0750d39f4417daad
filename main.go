package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/princinho/sahohr/controllers"
	"github.com/princinho/sahohr/database"
	"github.com/princinho/sahohr/middleware"
	"github.com/princinho/sahohr/utils"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	ctx := context.Background()
	if err := database.EnsureIndexes(ctx); err != nil {
		log.Fatal(err)
	}
	if err := utils.SeedDefaults(ctx, utils.SeedCollections{
		Companies: database.OpenCollection("companies"),
		Roles:     database.OpenCollection("roles"),
		Menus:     database.OpenCollection("menus"),
		Grants:    database.OpenCollection("role_menu_permissions"),
		Users:     database.OpenCollection("users"),
		Employees: database.OpenCollection("employees"),
	}); err != nil {
		log.Fatal(err)
	}

	r := gin.New()

	allowedOrigins := map[string]bool{}
	for _, origin := range strings.Split(os.Getenv("ALLOWED_ORIGINS"), ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			allowedOrigins[origin] = true
		}
	}
	r.Use(cors.New(cors.Config{
		AllowOriginFunc: func(origin string) bool {
			return allowedOrigins[origin]
		},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	r.Use(gin.Logger())
	r.Use(gin.Recovery())

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	auth := r.Group("/auth")
	{
		auth.POST("", controllers.Login())
		auth.POST("/refresh-token", controllers.RefreshToken())
		auth.PUT("/logout", middleware.AuthMiddleware(), controllers.Logout())
		auth.POST("/initial-reset", controllers.InitialReset())
		auth.POST("/forgot-password", controllers.ForgotPassword())
		auth.POST("/forgot-password/resend-otp", controllers.ForgotPassword())
		auth.POST("/forgot-password/verify-otp", controllers.VerifyOtp())
		auth.POST("/forgot-password/reset", controllers.ResetPassword())
	}

	mfa := r.Group("/mfa")
	{
		mfa.POST("/generate", middleware.AuthMiddleware(), controllers.GenerateMfa())
		mfa.POST("/verify-setup", middleware.AuthMiddleware(), controllers.VerifyMfaSetup())
		// validate authenticates with the short-lived mfa token itself
		mfa.POST("/validate", controllers.ValidateMfa())
	}

	me := r.Group("/me", middleware.AuthMiddleware())
	{
		me.GET("/menus", controllers.GetMyMenus())
	}

	admin := r.Group("/admin", middleware.AuthMiddleware())
	{
		admin.POST("/users/me/password", controllers.ChangeMyPassword())

		users := admin.Group("/users", middleware.RequireMenu("employees"))
		{
			users.POST("", controllers.CreateUser())
			users.GET("", controllers.GetUsers())
			users.GET("/:id", controllers.GetUser())
			users.PATCH("/:id", controllers.UpdateUser())
			users.DELETE("/:id", controllers.DeleteUser())
		}

		employees := admin.Group("/employees", middleware.RequireMenu("employees"))
		{
			employees.POST("/:id/documents", controllers.UploadDocument())
			employees.GET("/:id/documents/url", controllers.GetDocumentURL())
			employees.DELETE("/:id/documents", controllers.DeleteDocument())
		}

		roles := admin.Group("/roles", middleware.RequireMenu("roles"))
		{
			roles.POST("", controllers.CreateRole())
			roles.GET("", controllers.GetRoles())
			roles.PATCH("/:id", controllers.UpdateRole())
			roles.DELETE("/:id", controllers.DeleteRole())
			roles.PUT("/:id/permissions", controllers.ReplaceRoleGrants())
			roles.GET("/:id/menus", controllers.GetRoleMenus())
		}

		permissions := admin.Group("/permissions", middleware.RequireMenu("roles"))
		{
			permissions.POST("", controllers.CreatePermission())
			permissions.GET("", controllers.GetPermissions())
			permissions.DELETE("/:id", controllers.DeletePermission())
		}

		menus := admin.Group("/menus", middleware.RequireMenu("menus"))
		{
			menus.POST("", controllers.CreateMenu())
			menus.GET("", controllers.GetMenus())
			menus.PATCH("/:id", controllers.UpdateMenu())
			menus.DELETE("/:id", controllers.DeleteMenu())
		}

		security := admin.Group("/security-settings", middleware.RequireMenu("security"))
		{
			security.GET("", controllers.GetSecuritySettings())
			security.PUT("", controllers.UpdateSecuritySettings())
		}
	}

	r.Run()
}
