package main

import (
	"fmt"
	"log"
	"os"

	"github.com/mealsense/backend/config"
	"github.com/mealsense/backend/internal/catalog"
	httpDelivery "github.com/mealsense/backend/internal/delivery/http"
	"github.com/mealsense/backend/internal/infrastructure/extract"
	"github.com/mealsense/backend/internal/usecase"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	log.Printf("Starting MealSense Backend v1.0.0")
	log.Printf("Environment: %s", cfg.Server.Environment)
	log.Printf("Port: %s", cfg.Server.Port)
	log.Printf("Catalog: %s", cfg.Catalog.DBPath)

	// Open the catalog store (read path; the builder CLI populates it)
	store, err := catalog.NewStore(cfg.Catalog.DBPath)
	if err != nil {
		log.Fatalf("Failed to open catalog store: %v", err)
	}
	defer store.Close()

	extractClient := extract.NewClient(
		cfg.Extraction.BaseURL,
		cfg.Extraction.APIKey,
		cfg.Extraction.Timeout,
		cfg.Extraction.RatePerMinute,
	)

	// Enable debug mode in development environment
	if cfg.Server.Environment == "development" {
		extractClient.SetDebug(true)
		log.Printf("Extraction client debug mode enabled")
	}
	log.Printf("Extraction service: %s", cfg.Extraction.BaseURL)

	// Initialize usecase layer
	mealService := usecase.NewMealService(
		store,
		extractClient,
		usecase.MealServiceConfig{
			Classify: usecase.ClassifyConfig{
				HighSugarG:   cfg.Classify.HighSugarG,
				HighFatG:     cfg.Classify.HighFatG,
				HighSatFatG:  cfg.Classify.HighSatFatG,
				LowFiberG:    cfg.Classify.LowFiberG,
				HighSodiumMg: cfg.Classify.HighSodiumMg,
				CarbPct:      usecase.MacroRange{Min: cfg.Classify.CarbPctMin, Max: cfg.Classify.CarbPctMax},
				FatPct:       usecase.MacroRange{Min: cfg.Classify.FatPctMin, Max: cfg.Classify.FatPctMax},
				ProteinPct:   usecase.MacroRange{Min: cfg.Classify.ProteinPctMin, Max: cfg.Classify.ProteinPctMax},
			},
		},
	)

	// Create HTTP handler with dependencies
	handler := httpDelivery.NewHandler(mealService, store, cfg.Catalog.SearchLimit)

	// Setup router
	router := httpDelivery.SetupRouter(cfg, handler)

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	log.Printf("Server listening on %s", addr)

	if err := router.Run(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

func init() {
	// Set log flags for better debugging
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
	log.SetOutput(os.Stdout)
}
