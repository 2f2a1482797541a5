package main

import (
	"log"
	"time"

	config "github.com/anjiri1684/community_board/configs"
	"github.com/anjiri1684/community_board/database"
	"github.com/anjiri1684/community_board/handlers"
	"github.com/anjiri1684/community_board/jobs"
	"github.com/anjiri1684/community_board/routes"
	"github.com/anjiri1684/community_board/services"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/robfig/cron/v3"
)

func main() {
	database.ConnectDB()
	database.Migrate()
	database.SeedAdmin()

	settings, err := config.LoadSettings(config.ConfigDefault("SETTINGS_FILE", "settings.yaml"))
	if err != nil {
		log.Fatalf("🔥 Failed to load site settings: %v", err)
	}

	memoService := services.NewMemoService(database.DB, settings)

	var captcha services.CaptchaVerifier = services.NoCaptcha{}
	if settings.RecaptchaSecretKey != "" {
		captcha = services.NewRecaptchaVerifier(settings.RecaptchaSecretKey)
	} else {
		log.Println("⚠️ Captcha not configured. Challenge responses are not checked.")
	}
	handlers.InitMemoHandlers(memoService, captcha)

	c := cron.New()
	c.AddFunc("@hourly", jobs.ReconcileMemoCounts)
	go c.Start()
	log.Println("✅ Cron job for memo counter reconciliation scheduled successfully.")

	app := fiber.New(fiber.Config{
		Prefork:           false,
		AppName:           "Community Board",
		CaseSensitive:     true,
		StrictRouting:     true,
		EnablePrintRoutes: true,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}

			log.Printf("[ERROR] %v | Path: %s | Method: %s", err, c.Path(), c.Method())
			return c.Status(code).JSON(fiber.Map{
				"status":  "error",
				"code":    code,
				"message": err.Error(),
			})
		},
	})

	app.Use(cors.New(cors.Config{
		AllowOrigins:  "*",
		AllowHeaders:  "Origin, Content-Type, Accept, Authorization",
		AllowMethods:  "GET, POST, PUT, PATCH, DELETE, OPTIONS",
		ExposeHeaders: "Content-Length, Authorization",
		MaxAge:        86400,
	}))

	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		TimeFormat: "2006-01-02 15:04:05",
		Format:     "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))

	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "success",
			"message": "Welcome to Community Board API",
		})
	})

	routes.MemoRoutes(app)
	routes.MemberRoutes(app)

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "ok",
		})
	})

	log.Println("✅ Server is running on port 8080")
	if err := app.Listen(":8080"); err != nil {
		log.Fatalf("🔥 Server failed to start: %v", err)
	}
}
