package main

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/robfig/cron/v3"
	"github.com/rs/cors"
	_ "time/tzdata"

	"github.com/MohnajibG/circet/internal/app"
	"github.com/MohnajibG/circet/internal/config"
	"github.com/MohnajibG/circet/internal/constants"
	"github.com/MohnajibG/circet/internal/controllers"
	"github.com/MohnajibG/circet/internal/middleware"
	"github.com/MohnajibG/circet/internal/repositories"
	"github.com/MohnajibG/circet/internal/routes"
	"github.com/MohnajibG/circet/internal/services"
	"github.com/MohnajibG/circet/internal/utils"
)

func main() {
	utils.InitLogger(config.AppName)
	cfg := config.LoadConfig()

	application, err := app.NewApp(cfg)
	if err != nil {
		utils.Logger.Fatal("Failed to initialize canvass-service:", err)
	}
	defer application.Close()

	// Repositories
	buildingRepo := repositories.NewBuildingRepository(application.Store)
	apartmentRepo := repositories.NewApartmentRepository(application.Store, buildingRepo)
	profileRepo := repositories.NewUserProfileRepository(application.Store)
	visitLedger := repositories.NewVisitLedger(application.Store)

	if cfg.SeedTestData {
		if err := app.SeedTestData(context.Background(), buildingRepo, apartmentRepo); err != nil {
			utils.Logger.Fatal("Failed to seed test data:", err)
		}
	}

	// Services
	canvassService := services.NewCanvassService(cfg, buildingRepo, apartmentRepo, profileRepo, visitLedger)
	exportService := services.NewExportService(buildingRepo, apartmentRepo, visitLedger)
	reportService := services.NewReportService(cfg, profileRepo, exportService)

	// Controllers
	healthController := controllers.NewHealthController(application)
	buildingsController := controllers.NewBuildingsController(canvassService)
	apartmentsController := controllers.NewApartmentsController(canvassService)
	visitsController := controllers.NewVisitsController(canvassService, exportService)
	profileController := controllers.NewProfileController(canvassService)

	// Router setup
	router := mux.NewRouter()

	// Public Routes
	router.HandleFunc(routes.Health, healthController.HealthCheckHandler).Methods(http.MethodGet)

	// Secured routes for operators
	secured := router.NewRoute().Subrouter()
	secured.Use(middleware.AuthMiddleware(cfg.RSAPublicKey))
	secured.HandleFunc(routes.Buildings, buildingsController.ListBuildingsHandler).Methods(http.MethodGet)
	secured.HandleFunc(routes.Buildings, buildingsController.CreateBuildingHandler).Methods(http.MethodPost)
	secured.HandleFunc(routes.Building, buildingsController.GetBuildingHandler).Methods(http.MethodGet)
	secured.HandleFunc(routes.Building, buildingsController.UpdateBuildingHandler).Methods(http.MethodPatch)
	secured.HandleFunc(routes.BuildingLive, buildingsController.LiveBuildingHandler).Methods(http.MethodGet)
	secured.HandleFunc(routes.Apartments, apartmentsController.CreateApartmentHandler).Methods(http.MethodPost)
	secured.HandleFunc(routes.Apartment, apartmentsController.UpdateApartmentHandler).Methods(http.MethodPatch)
	secured.HandleFunc(routes.Apartment, apartmentsController.DeleteApartmentHandler).Methods(http.MethodDelete)
	secured.HandleFunc(routes.ApartmentNotes, apartmentsController.NotesDraftHandler).Methods(http.MethodPut)
	secured.HandleFunc(routes.ApartmentVisit, visitsController.MarkVisitedHandler).Methods(http.MethodPost)
	secured.HandleFunc(routes.DoorCount, visitsController.DoorCountHandler).Methods(http.MethodGet)
	secured.HandleFunc(routes.Profile, profileController.GetProfileHandler).Methods(http.MethodGet)
	secured.HandleFunc(routes.Profile, profileController.UpdateProfileHandler).Methods(http.MethodPut)
	secured.HandleFunc(routes.ExportVisits, visitsController.ExportVisitsHandler).Methods(http.MethodGet)

	// Cron job setup
	c := cron.New(cron.WithLocation(time.UTC))

	_, err = c.AddFunc(constants.DailyReportCronSpec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), constants.DailyReportJobTimeout)
		defer cancel()
		utils.Logger.Info("Starting daily visit report cron job...")
		if err := reportService.RunDailyReport(ctx); err != nil {
			utils.Logger.WithError(err).Error("Failed to build daily visit report")
		}
	})
	if err != nil {
		utils.Logger.WithError(err).Fatal("Failed to schedule daily visit report cron")
	}

	c.Start()
	utils.Logger.Info("Scheduled daily visit report cron job")

	co := cors.New(cors.Options{
		AllowedOrigins:   []string{cfg.AppUrl, constants.AllowedOriginLocalhost},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	})

	utils.Logger.Infof("Starting %s on port: %s", cfg.AppName, cfg.AppPort)
	if err := http.ListenAndServe(":"+cfg.AppPort, co.Handler(router)); err != nil {
		utils.Logger.Fatal("canvass-service failed to start:", err)
	}
}
