package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"research_portal/portal/auth"
	"research_portal/portal/config"
	"research_portal/portal/services"
	"research_portal/portal/store"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
)

type portalEnv struct {
	JwtSecret string

	AdminUsername string
	AdminPassword string

	Neo4jUriFiles      string
	Neo4jUserFiles     string
	Neo4jPasswordFiles string

	Neo4jUriMeta      string
	Neo4jUserMeta     string
	Neo4jPasswordMeta string

	AllowedOrigin string
}

func loadEnvFile(envFile string) {
	slog.Info(fmt.Sprintf("loading env from file %v", envFile))
	err := godotenv.Load(envFile)
	if err != nil {
		log.Fatalf("error loading .env file '%v': %v", envFile, err)
	}
}

// All variables used by the portal are loaded here so the full set of
// deployment inputs is visible in one place. Database endpoints, credentials,
// and the signing secret are never hardcoded.
func loadEnv(memoryStore bool) portalEnv {
	missingEnvs := []string{}

	requiredEnv := func(key string) string {
		env := os.Getenv(key)
		if env == "" {
			missingEnvs = append(missingEnvs, key)
			slog.Error("missing required env variable", "key", key)
		}
		return env
	}

	databaseEnv := requiredEnv
	if memoryStore {
		databaseEnv = os.Getenv
	}

	env := portalEnv{
		JwtSecret: requiredEnv("JWT_SECRET"),

		AdminUsername: requiredEnv("ADMIN_USERNAME"),
		AdminPassword: requiredEnv("ADMIN_PASSWORD"),

		Neo4jUriFiles:      databaseEnv("NEO4J_URI_FILES"),
		Neo4jUserFiles:     databaseEnv("NEO4J_USER_FILES"),
		Neo4jPasswordFiles: databaseEnv("NEO4J_PASSWORD_FILES"),

		Neo4jUriMeta:      databaseEnv("NEO4J_URI_META"),
		Neo4jUserMeta:     databaseEnv("NEO4J_USER_META"),
		Neo4jPasswordMeta: databaseEnv("NEO4J_PASSWORD_META"),

		AllowedOrigin: os.Getenv("ALLOWED_ORIGIN"),
	}

	if len(missingEnvs) > 0 {
		log.Fatalf("The following required env vars are missing: %s", strings.Join(missingEnvs, ", "))
	}

	return env
}

func initLogging() {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo})
	slog.SetDefault(slog.New(handler))
}

func main() {
	envFile := flag.String("env", "", "File to load env variables from. If not specified they are read from the environment.")
	configFile := flag.String("config", "", "Optional yaml config file for server tunables.")
	memoryStore := flag.Bool("memory", false, "Use an in memory store instead of neo4j. For local development only, nothing is persisted.")
	port := flag.Int("port", 8000, "Port to run server on")

	flag.Parse()

	initLogging()

	if *envFile != "" {
		loadEnvFile(*envFile)
	}
	env := loadEnv(*memoryStore)

	cfg, err := config.Load(*configFile)
	if err != nil {
		log.Fatalf("error loading config: %v", err)
	}

	var gateway store.Gateway
	if *memoryStore {
		slog.Info("using in memory store, uploads will not be persisted")
		gateway = store.NewMemory()
	} else {
		gateway = store.NewNeo4j(store.Neo4jConfig{
			FilesUri:      env.Neo4jUriFiles,
			FilesUsername: env.Neo4jUserFiles,
			FilesPassword: env.Neo4jPasswordFiles,
			MetaUri:       env.Neo4jUriMeta,
			MetaUsername:  env.Neo4jUserMeta,
			MetaPassword:  env.Neo4jPasswordMeta,
		})
	}
	defer func() {
		if err := gateway.Close(context.Background()); err != nil {
			slog.Error("error closing store", "error", err)
		}
	}()

	provider, err := auth.NewProvider(context.Background(), gateway, auth.ProviderArgs{
		Secret:        []byte(env.JwtSecret),
		AdminUsername: env.AdminUsername,
		AdminPassword: env.AdminPassword,
	})
	if err != nil {
		log.Fatalf("error creating auth provider: %v", err)
	}

	portal := services.NewPortal(gateway, provider, cfg)

	allowedOrigins := []string{"*"}
	if env.AllowedOrigin != "" {
		allowedOrigins = []string{env.AllowedOrigin}
	}

	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Mount("/api/v1", portal.Routes())

	slog.Info("starting server", "port", *port)
	err = http.ListenAndServe(fmt.Sprintf(":%d", *port), r)
	if err != nil {
		log.Fatalf("listen and serve returned error: %v", err)
	}
}
