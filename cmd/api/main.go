package main

import (
	"context"
	"crypto/rand"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-task-go/internal/auth"
	"github.com/ovaphlow/pitchfork/service-task-go/internal/avatar"
	"github.com/ovaphlow/pitchfork/service-task-go/internal/config"
	"github.com/ovaphlow/pitchfork/service-task-go/internal/notify"
	"github.com/ovaphlow/pitchfork/service-task-go/internal/router"
	"github.com/ovaphlow/pitchfork/service-task-go/internal/session"
	"github.com/ovaphlow/pitchfork/service-task-go/internal/store"
	"github.com/ovaphlow/pitchfork/service-task-go/internal/store/memory"
	"github.com/ovaphlow/pitchfork/service-task-go/internal/store/postgres"
	"github.com/ovaphlow/pitchfork/service-task-go/internal/task"
	"github.com/ovaphlow/pitchfork/service-task-go/internal/user"
	"github.com/ovaphlow/pitchfork/service-task-go/pkg/database"
	"github.com/ovaphlow/pitchfork/service-task-go/pkg/utilities"
)

func main() {
	// best-effort: without a .env file the real environment is used
	_ = godotenv.Load()

	cfg, err := config.NewConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	lg, err := utilities.Init(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer lg.Sync()

	sugar := lg.Sugar()
	sugar.Infow("starting service-task-go", "store", cfg.Store, "avatar_backend", cfg.Avatar.Backend)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, sqlDB, err := openStore(cfg)
	if err != nil {
		sugar.Fatalf("store: %v", err)
	}
	if sqlDB != nil {
		defer sqlDB.Close()
	}

	key := []byte(cfg.Auth.JWTKey)
	if len(key) == 0 {
		key = make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			sugar.Fatalf("generate signing key: %v", err)
		}
		sugar.Warn("JWT_KEY not set, using a random key; sessions will not survive a restart")
	}

	ids := utilities.NewIDGenerator(cfg.NodeID)
	sessions := session.NewManager(key, st.Users())
	notifier := notify.NewNotifier(newMailer(cfg.Mail, sugar), sugar)

	avatarStore, external, err := newAvatarStore(ctx, cfg, st)
	if err != nil {
		sugar.Fatalf("avatar storage: %v", err)
	}
	avatars := avatar.NewService(avatarStore, avatar.Transcoder{Size: cfg.Avatar.Size}, cfg.Avatar.MaxBytes, sugar)

	opts := []user.Option{user.WithNotifier(notifier)}
	if external {
		opts = append(opts, user.WithAvatarRemover(avatars))
	}
	users := user.NewService(st, sessions, user.BcryptHasher{Cost: cfg.Auth.BcryptCost}, ids, sugar, opts...)
	tasks := task.NewService(st.Tasks(), ids, sugar)

	handler := router.RegisterRoutes(router.Handlers{
		Users:   user.NewHandler(users, sugar),
		Tasks:   task.NewHandler(tasks, sugar),
		Avatars: avatar.NewHandler(avatars, sugar),
		Gate:    auth.NewGate(sessions, st.Users(), sugar),
	}, sugar)

	srv := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      handler,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	go func() {
		sugar.Infow("http server listening", "addr", cfg.HTTP.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			sugar.Fatalf("http server failed: %v", err)
		}
	}()

	<-ctx.Done()

	sugar.Info("shutting down")

	doneCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(doneCtx); err != nil {
		sugar.Warnf("http server shutdown failed: %v", err)
	}
	notifier.Wait()

	sugar.Info("goodbye")
}

func openStore(cfg *config.Config) (store.Store, *sql.DB, error) {
	if cfg.Store == config.StoreDriverMemory {
		return memory.New(), nil, nil
	}
	sqlDB, err := database.Connect(cfg.Database)
	if err != nil {
		return nil, nil, err
	}
	if err := database.Migrate(sqlDB); err != nil {
		sqlDB.Close()
		return nil, nil, err
	}
	return postgres.New(sqlx.NewDb(sqlDB, "postgres")), sqlDB, nil
}

// newAvatarStore reports external=true when images live outside the user
// row and need removing on account deletion.
func newAvatarStore(ctx context.Context, cfg *config.Config, st store.Store) (avatar.Store, bool, error) {
	if cfg.Avatar.Backend != config.AvatarBackendMinio {
		return avatar.NewDBStore(st.Users()), false, nil
	}
	client, err := minio.New(cfg.Storage.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.Storage.AccessKey, cfg.Storage.SecretKey, ""),
		Secure: cfg.Storage.UseSSL,
	})
	if err != nil {
		return nil, false, fmt.Errorf("create minio client: %w", err)
	}
	ms, err := avatar.NewMinioStore(ctx, client, cfg.Storage.Bucket)
	if err != nil {
		return nil, false, err
	}
	return ms, true, nil
}

func newMailer(cfg config.Mail, logger *zap.SugaredLogger) notify.Mailer {
	if cfg.APIKey == "" {
		return notify.LogMailer{Logger: logger}
	}
	return notify.NewMailgunMailer(cfg.Domain, cfg.APIKey, cfg.From)
}
