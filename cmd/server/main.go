package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"minicms/internal/api"
	"minicms/internal/auth"
	"minicms/internal/biz"
	"minicms/internal/conf"
	"minicms/internal/data"
	"minicms/internal/server"
	"minicms/internal/service"
	"minicms/internal/session"
)

var flagconf string

func init() {
	flag.StringVar(&flagconf, "conf", "configs/config.yaml", "config path, eg: -conf config.yaml")
}

func main() {
	flag.Parse()
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// load config
	cfg, err := conf.Load(flagconf)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.Log.SlogLevel()}))
	slog.SetDefault(logger)

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *conf.Config, logger *slog.Logger) error {
	// 手动依赖注入
	// data 层
	db, err := data.Open(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()
	logger.Info("database ready", "driver", cfg.Database.Driver)

	uploads, err := data.OpenUploadDir(cfg.Media.Dir)
	if err != nil {
		return err
	}
	userRepo := data.NewUserRepo(db)
	roleRepo := data.NewRoleRepo(db)
	postRepo := data.NewPostRepo(db)
	mediaRepo := data.NewMediaRepo(db)
	storage := data.NewStorage(uploads, cfg.Media.URLPrefix)

	// biz 层
	hasher := auth.BcryptHasher{}
	authUsecase := biz.NewAuthUsecase(userRepo, hasher)
	userUsecase := biz.NewUserUsecase(userRepo, roleRepo, hasher)
	postUsecase := biz.NewPostUsecase(postRepo, mediaRepo)
	mediaUsecase := biz.NewMediaUsecase(mediaRepo, storage, cfg.Media.MaxSize, logger)
	statsUsecase := biz.NewStatsUsecase(postRepo, userRepo, mediaRepo)
	linker := biz.NewAccountLinker(userRepo, emailPolicy(cfg.Auth.LinkByEmail), logger)

	if cfg.Admin.Email != "" {
		created, err := userUsecase.EnsureAdmin(ctx, biz.UserForm{
			Email:    cfg.Admin.Email,
			Name:     cfg.Admin.Name,
			Password: cfg.Admin.Password,
		})
		if err != nil {
			return err
		}
		if created {
			logger.Info("created bootstrap administrator", "email", cfg.Admin.Email)
		}
	}

	// auth 层
	client := auth.NewHTTPClient(cfg.Auth.HTTPTimeout, cfg.Auth.UserAgent)
	providers, err := auth.NewProviders(ctx, cfg.Auth, client)
	if err != nil {
		return err
	}
	flow := auth.NewFlow(providers, linker, client, logger)
	logger.Info("login providers configured", "providers", providers.Names(), "link_by_email", cfg.Auth.LinkByEmail)

	store, err := session.NewStore(cfg.Session)
	if err != nil {
		return err
	}
	sessions := session.NewManager(store, cfg.Session.Name, logger)
	gate := auth.NewGate(sessions, userRepo, cfg.Server.AdminPath, providers.Names(), logger)

	// service 层
	blogService := service.NewBlogService(postUsecase)

	// api 层
	renderer, err := api.NewRenderer()
	if err != nil {
		return err
	}
	view := api.NewView(renderer, cfg.Server.AdminPath, logger)
	router := api.NewRouter(api.RouterConfig{
		AdminPath:     cfg.Server.AdminPath,
		UploadsPrefix: cfg.Media.URLPrefix,
		Uploads:       uploads,
		DB:            db,
	}, view, gate, api.Handlers{
		Auth:      api.NewAuthHandler(view, flow, authUsecase, cfg.Auth.LandingPath, logger),
		Dashboard: api.NewDashboardHandler(view, statsUsecase),
		Posts:     api.NewPostHandler(view, postUsecase, mediaUsecase),
		Users:     api.NewUserHandler(view, userUsecase),
		Roles:     api.NewRoleHandler(view, userUsecase),
		Media:     api.NewMediaHandler(view, mediaUsecase, cfg.Media.MaxSize),
		Blog:      api.NewBlogHandler(view, blogService),
	})

	return server.New(cfg.Server, router, logger).Run(ctx)
}

func emailPolicy(name string) biz.EmailPolicy {
	switch name {
	case conf.LinkByEmailVerified:
		return biz.RequireVerifiedEmail
	case conf.LinkByEmailNever:
		return biz.NeverLinkByEmail
	default:
		return biz.TrustProviderEmail
	}
}
