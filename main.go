package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	_ "github.com/go-sql-driver/mysql"

	"ortobanco-backend/internal/lending/history"
	"ortobanco-backend/internal/lending/integrity"
	"ortobanco-backend/internal/lending/items"
	"ortobanco-backend/internal/lending/loans"
	"ortobanco-backend/internal/platform/auth"
	"ortobanco-backend/internal/platform/db"
	"ortobanco-backend/internal/refdata/beneficiaries"
	"ortobanco-backend/internal/refdata/categories"
	"ortobanco-backend/internal/refdata/deposits"
)

func main() {
	cfg, err := db.LoadConfig("config/config.yaml")
	if err != nil {
		panic(err)
	}

	log.Printf("[INFO] mode:%s\n", cfg.Mode)
	if cfg.Mode != "dev" && cfg.Mode != "release" {
		log.Fatal("config mode must be dev or release")
	}

	conn, err := db.Connect(cfg.DB)
	if err != nil {
		panic(err)
	}
	defer conn.Close()
	log.Printf("[INFO] connected to DB: %s", cfg.DB.DBName)

	// reference data a fresh install needs before the first item
	seedCtx, cancelSeed := context.WithTimeout(context.Background(), 10*time.Second)
	if err := categories.NewStore(conn).SeedDefaults(seedCtx); err != nil {
		log.Printf("[WARN] seed categories: %v", err)
	}
	depositStore := deposits.NewStore(conn)
	if err := depositStore.SeedDefault(seedCtx); err != nil {
		log.Printf("[WARN] seed deposits: %v", err)
	}
	cancelSeed()

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())
	_ = r.SetTrustedProxies(nil)

	if cfg.Mode == "dev" {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     []string{"http://localhost:3000"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
			ExposeHeaders:    []string{"Content-Length"},
			AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowCredentials: true,
		}))
	}

	r.GET("/healthz", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	authSvc := auth.NewService(conn, cfg.Auth.JWTSecret)

	api := r.Group("/api/v1")
	clerk := api.Group("", auth.RequireAuth(authSvc.Secret()))
	admin := api.Group("", auth.RequireAuth(authSvc.Secret()), auth.RequireRole(auth.RoleAdmin))

	benSvc := beneficiaries.NewService(conn)

	auth.RegisterRoutes(api, admin, authSvc)
	items.RegisterRoutes(clerk, admin, items.NewService(conn))
	loans.RegisterRoutes(clerk, loans.NewService(conn, benSvc.Store(), cfg.Lending))
	history.RegisterRoutes(clerk, history.NewStore(conn))
	integrity.RegisterRoutes(clerk, admin, integrity.NewService(conn))
	beneficiaries.RegisterRoutes(clerk, admin, benSvc)
	deposits.RegisterRoutes(clerk, admin, depositStore)
	categories.RegisterRoutes(clerk, admin, categories.NewStore(conn))

	addr := cfg.Addr
	if addr == "" {
		addr = ":8080"
	}
	srv := &http.Server{Addr: addr, Handler: r}

	go func() {
		var err error
		if cfg.Certificate.Cert != "" && cfg.Certificate.Key != "" {
			log.Printf("[INFO] listening on https://%s", addr)
			err = srv.ListenAndServeTLS(cfg.Certificate.Cert, cfg.Certificate.Key)
		} else {
			log.Printf("[INFO] listening on http://%s", addr)
			err = srv.ListenAndServe()
		}
		if err != nil && err != http.ErrServerClosed {
			log.Fatal(err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt)
	<-quit
	log.Println("[INFO] shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal(err)
	}
}
