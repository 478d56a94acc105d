package config

import (
	"crypto/rsa"
	"encoding/base64"
	"os"

	"github.com/golang-jwt/jwt/v5"
	"github.com/joho/godotenv"

	"github.com/MohnajibG/circet/internal/utils"
)

const AppName = "canvass-service"

// Store drivers.
const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"
)

type Config struct {
	AppName     string
	AppPort     string
	AppUrl      string
	StoreDriver string
	DBUrl       string

	RSAPublicKey *rsa.PublicKey

	GMapsAPIKey         string
	SendgridAPIKey      string
	SendgridFromEmail   string
	SendgridSandboxMode bool
	ReportEmail         string

	ExportDir    string
	SeedTestData bool
}

func LoadConfig() *Config {
	// .env is optional; real deployments set the environment directly.
	if err := godotenv.Load(); err == nil {
		utils.Logger.Info("Loaded environment from .env")
	}

	appPort := os.Getenv("APP_PORT")
	if appPort == "" {
		utils.Logger.Fatal("APP_PORT env var is missing")
	}
	appUrl := os.Getenv("APP_URL")
	if appUrl == "" {
		utils.Logger.Fatal("APP_URL env var is missing")
	}

	storeDriver := os.Getenv("STORE_DRIVER")
	if storeDriver == "" {
		storeDriver = StoreDriverPostgres
	}
	if storeDriver != StoreDriverPostgres && storeDriver != StoreDriverMemory {
		utils.Logger.Fatalf("Unknown STORE_DRIVER %q", storeDriver)
	}

	dbURL := os.Getenv("DATABASE_URL")
	if storeDriver == StoreDriverPostgres && dbURL == "" {
		utils.Logger.Fatal("DATABASE_URL env var is missing")
	}

	pubB64 := os.Getenv("JWT_PUBLIC_KEY_BASE64")
	if pubB64 == "" {
		utils.Logger.Fatal("JWT_PUBLIC_KEY_BASE64 env var is missing")
	}
	pubPEM, err := base64.StdEncoding.DecodeString(pubB64)
	if err != nil {
		utils.Logger.WithError(err).Fatal("JWT_PUBLIC_KEY_BASE64 is not valid base64")
	}
	pubKey, err := jwt.ParseRSAPublicKeyFromPEM(pubPEM)
	if err != nil {
		utils.Logger.WithError(err).Fatal("Failed to parse RSA public key")
	}

	exportDir := os.Getenv("EXPORT_DIR")
	if exportDir == "" {
		exportDir = "exports"
	}

	sgFrom := os.Getenv("SENDGRID_FROM_EMAIL")
	if sgFrom == "" {
		sgFrom = "no-reply@canvass.local"
	}

	return &Config{
		AppName:             AppName,
		AppPort:             appPort,
		AppUrl:              appUrl,
		StoreDriver:         storeDriver,
		DBUrl:               dbURL,
		RSAPublicKey:        pubKey,
		GMapsAPIKey:         os.Getenv("GMAPS_API_KEY"),
		SendgridAPIKey:      os.Getenv("SENDGRID_API_KEY"),
		SendgridFromEmail:   sgFrom,
		SendgridSandboxMode: os.Getenv("SENDGRID_SANDBOX_MODE") == "true",
		ReportEmail:         os.Getenv("REPORT_EMAIL"),
		ExportDir:           exportDir,
		SeedTestData:        os.Getenv("SEED_TEST_DATA") == "true",
	}
}
