package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/Arnoldlarry15/ARES-Dashboard/internal/audit"
	"github.com/Arnoldlarry15/ARES-Dashboard/internal/auth"
	"github.com/Arnoldlarry15/ARES-Dashboard/internal/httpapi"
	"github.com/Arnoldlarry15/ARES-Dashboard/internal/oauth"
	"github.com/Arnoldlarry15/ARES-Dashboard/internal/obs"
	"github.com/Arnoldlarry15/ARES-Dashboard/internal/session"
	"github.com/Arnoldlarry15/ARES-Dashboard/internal/store"
)

var (
	version = "0.3.0"
	commit  = "dev"
)

func main() {
	obs.Init()
	obs.InitBuildInfo(version, commit)

	// Both signing secrets are mandatory: the service must not come up able
	// to mint unverifiable tokens.
	accessSecret := os.Getenv("ARES_JWT_SECRET")
	refreshSecret := os.Getenv("ARES_JWT_REFRESH_SECRET")
	codec, err := auth.NewCodec(accessSecret, refreshSecret)
	if err != nil {
		log.Fatalf("token codec: %v (set ARES_JWT_SECRET and ARES_JWT_REFRESH_SECRET)", err)
	}

	// Postgres is optional; without a DSN everything runs in memory.
	var db *sql.DB
	if dsn := os.Getenv("ARES_PG_DSN"); dsn != "" {
		db, err = sql.Open("pgx", dsn)
		if err != nil {
			log.Fatalf("open db: %v", err)
		}
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(10)
		db.SetConnMaxLifetime(30 * time.Minute)
	}

	var (
		auditLog  audit.Log
		campaigns store.Campaigns
		accounts  store.Accounts
	)
	if db != nil {
		auditLog = audit.NewPGLog(db)
		pg := store.NewPG(db)
		campaigns = pg.Campaigns()
		accounts = pg.Accounts()
	} else {
		auditLog = audit.NewMemoryLog()
		mem := store.NewMemory()
		campaigns = mem.Campaigns()
		accounts = mem.Accounts()
	}

	var sessionStore session.Store
	if path := os.Getenv("ARES_SESSION_FILE"); path != "" {
		sessionStore = session.NewFileStore(path)
	}
	sessions, err := session.NewManager(codec, sessionStore, auditLog)
	if err != nil {
		log.Fatalf("session manager: %v", err)
	}

	var provider *oauth.Provider
	if clientID := os.Getenv("ARES_OAUTH_CLIENT_ID"); clientID != "" {
		provider, err = oauth.NewProvider(oauth.Config{
			ClientID:     clientID,
			ClientSecret: os.Getenv("ARES_OAUTH_CLIENT_SECRET"),
			AuthURL:      os.Getenv("ARES_OAUTH_AUTH_URL"),
			TokenURL:     os.Getenv("ARES_OAUTH_TOKEN_URL"),
			UserInfoURL:  os.Getenv("ARES_OAUTH_USERINFO_URL"),
			RedirectURL:  os.Getenv("ARES_OAUTH_REDIRECT_URL"),
			Scopes:       splitScopes(os.Getenv("ARES_OAUTH_SCOPES")),
		})
		if err != nil {
			log.Fatalf("oauth provider: %v", err)
		}
	}

	api := httpapi.New(httpapi.Deps{
		Codec:     codec,
		Sessions:  sessions,
		Audit:     auditLog,
		Campaigns: campaigns,
		Accounts:  accounts,
		OAuth:     provider,
		Ready:     httpapi.ReadyProbe{DB: db},
		Version:   version,
	})

	addr := os.Getenv("ARES_LISTEN_ADDR")
	if addr == "" {
		addr = ":8080"
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           api.Handler(),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	log.Printf("Starting ares-dashboard-api %s on %s", version, srv.Addr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	<-stop
	log.Println("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = srv.Shutdown(ctx)
	if db != nil {
		_ = db.Close()
	}
	log.Println("Stopped")
}

func splitScopes(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
