package handler

import (
	"context"
	"fmt"

	"sukesh_education/internal/auth"
	"sukesh_education/internal/catalog"
	"sukesh_education/internal/config"
	"sukesh_education/internal/mail"
	"sukesh_education/internal/middleware"
	"sukesh_education/internal/observability"
	"sukesh_education/internal/profile"
	"sukesh_education/internal/queue"
	"sukesh_education/internal/storage"
	"sukesh_education/internal/user"
	"sukesh_education/internal/utils"
	"sukesh_education/internal/validation"
	"sukesh_education/internal/web"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
)

type controllers struct {
	user    *user.UserController
	profile *profile.ProfileController
	catalog *catalog.CatalogController
	pages   *pageController
}

// SetupHandler initializes all dependencies and routes.
// conn and redisClient are optional: without RabbitMQ reset mails are sent
// inline, without Redis sessions live in the database and rate limiting is off.
func SetupHandler(
	db *sqlx.DB,
	conn *amqp091.Connection,
	redisClient *redis.Client,
	cfg *config.Config,
	metrics *observability.Metrics,
	gatherer prometheus.Gatherer,
) (*gin.Engine, error) {
	renderer, err := web.NewRenderer()
	if err != nil {
		return nil, fmt.Errorf("load templates: %w", err)
	}

	store, err := storage.NewFromConfig(context.Background(), &cfg.Upload)
	if err != nil {
		return nil, fmt.Errorf("setup upload storage: %w", err)
	}

	// Initialize repositories
	userRepo := user.NewUserRepository(db.DriverName())
	tx := utils.NewTransactor(db)
	validator := validation.New()

	// Initialize services
	userService := newUserService(db, userRepo, tx, validator, redisClient, conn, cfg, metrics)
	profileService := profile.NewProfileService(userRepo, db, tx, store, validator, metrics, cfg.Upload.MaxBytes)
	catalogService := catalog.NewCatalogService(catalog.Default(), userRepo, db, tx, metrics)

	// Initialize controllers
	ctrls := &controllers{
		user: user.NewUserController(userService, user.CookieOptions{
			Name:   cfg.Session.CookieName,
			Secure: cfg.Session.CookieSecure,
		}),
		profile: profile.NewProfileController(profileService, cfg.Upload.MaxBytes),
		catalog: catalog.NewCatalogController(catalogService),
		pages:   &pageController{db: db},
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.HTMLRender = renderer

	r.Use(middleware.RequestLogger())
	r.Use(middleware.PrometheusMiddleware(metrics))
	if len(cfg.AllowedOrigins) > 0 {
		corsCfg := cors.DefaultConfig()
		corsCfg.AllowOrigins = cfg.AllowedOrigins
		corsCfg.AllowCredentials = true
		corsCfg.AddAllowHeaders("X-Requested-With", middleware.CSRFHeader)
		corsCfg.AddExposeHeaders(middleware.CSRFHeader)
		r.Use(cors.New(corsCfg))
	}
	r.Use(middleware.AppContext(cfg.AppName))
	r.Use(middleware.LoadSession(userService, cfg.Session.CookieName, cfg.Session.CookieSecure))

	r.Static("/static", cfg.StaticDir)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	// The body cap runs first so CSRF form parsing never buffers an oversized upload.
	site := r.Group("",
		middleware.BodyLimit(bodyLimit(cfg.Upload.MaxBytes)),
		middleware.CSRF(middleware.CSRFOptions{
			Key:            cfg.CSRFKey(),
			Secure:         cfg.Session.CookieSecure,
			TrustedOrigins: cfg.CSRF.TrustedOrigins,
		}),
	)

	limiter := newLimiterFactory(redisClient, cfg.RateLimit, metrics)
	setupRoutes(site, ctrls, limiter, cfg.RateLimit)

	return r, nil
}

// bodyLimit leaves room for the profile form fields around the largest picture.
func bodyLimit(maxUpload int64) int64 {
	if maxUpload <= 0 {
		maxUpload = profile.DefaultMaxUploadBytes
	}
	return maxUpload + 64<<10
}

// setupRoutes configures all application routes
func setupRoutes(r *gin.RouterGroup, ctrls *controllers, limit limiterFactory, rl config.RateLimitConfig) {
	r.GET("/", ctrls.pages.Index)
	r.GET("/health", ctrls.pages.Health)

	// Authentication
	authGroup := r.Group("/auth")
	{
		authGroup.GET("/logout", ctrls.user.Logout)

		guest := authGroup.Group("", middleware.RequireGuest())
		guest.GET("/login", ctrls.user.LoginPage)
		guest.POST("/login", limit(middleware.AuthRateLimiter(rl)), ctrls.user.Login)
		guest.GET("/register", ctrls.user.RegisterPage)
		guest.POST("/register", limit(middleware.AuthRateLimiter(rl)), ctrls.user.Register)
		guest.GET("/forgot-password", ctrls.user.ForgotPasswordPage)
		guest.POST("/forgot-password", limit(middleware.StrictRateLimiter()), ctrls.user.ForgotPassword)
		guest.GET("/reset-password", ctrls.user.ResetPasswordPage)
		guest.POST("/reset-password", ctrls.user.ResetPassword)
	}

	// Logged in users only
	member := r.Group("", middleware.RequireSession())
	{
		member.GET("/dashboard", ctrls.pages.Dashboard)

		member.GET("/profile", ctrls.profile.ProfilePage)
		member.POST("/profile", ctrls.profile.UpdateProfile)
		member.POST("/upload_profile_picture", ctrls.profile.UploadPicture)
		member.POST("/save-profile", ctrls.profile.SaveProfile)
		member.POST("/save_notification_preferences", ctrls.profile.SaveNotificationPreferences)

		member.GET("/my-subjects", ctrls.catalog.MySubjects)
		member.POST("/save-subjects", ctrls.catalog.SaveSubjects)
	}
}

// NewUserService builds the account service the same way the router does,
// for tools that create accounts outside a request.
func NewUserService(db *sqlx.DB, redisClient *redis.Client, conn *amqp091.Connection, cfg *config.Config, metrics *observability.Metrics) user.UserServiceInterface {
	return newUserService(db, user.NewUserRepository(db.DriverName()), utils.NewTransactor(db), validation.New(), redisClient, conn, cfg, metrics)
}

func newUserService(
	db *sqlx.DB,
	repo user.UserRepositoryInterface,
	tx utils.Transactor,
	validator *validation.Validator,
	redisClient *redis.Client,
	conn *amqp091.Connection,
	cfg *config.Config,
	metrics *observability.Metrics,
) user.UserServiceInterface {
	return user.NewUserService(
		repo,
		db,
		tx,
		newSessionStore(db, redisClient, &cfg.Session),
		newNotifier(conn, cfg, metrics),
		validator,
		metrics,
		user.Options{
			SessionTTL:  cfg.Session.TTL,
			RememberTTL: cfg.Session.RememberTTL,
			ResetTTL:    cfg.JWT.ResetTTL,
			JWTSecret:   cfg.JWT.Secret,
			BaseURL:     cfg.BaseURL,
		},
	)
}

func newSessionStore(db *sqlx.DB, redisClient *redis.Client, cfg *config.SessionConfig) auth.SessionStore {
	if cfg.Backend == "sql" || redisClient == nil {
		logrus.Info("Using SQL session store")
		return auth.NewSQLSessionStore(db)
	}
	logrus.Info("Using Redis session store")
	return auth.NewRedisSessionStore(redisClient)
}

func newNotifier(conn *amqp091.Connection, cfg *config.Config, metrics *observability.Metrics) mail.Notifier {
	if conn != nil {
		return mail.NewQueueNotifier(queue.NewPublisher(conn), metrics)
	}
	logrus.Info("No mail queue configured, password reset mails are sent inline")
	return mail.NewDirectNotifier(mail.NewLogMailer(cfg.MailFrom), cfg.AppName, metrics)
}

type limiterFactory func(*middleware.RateLimiterConfig) gin.HandlerFunc

// newLimiterFactory returns pass-through handlers when rate limiting is off.
func newLimiterFactory(redisClient *redis.Client, rl config.RateLimitConfig, metrics *observability.Metrics) limiterFactory {
	if redisClient == nil || !rl.Enabled {
		return func(*middleware.RateLimiterConfig) gin.HandlerFunc {
			return func(c *gin.Context) { c.Next() }
		}
	}
	return func(limits *middleware.RateLimiterConfig) gin.HandlerFunc {
		return middleware.RateLimiterMiddleware(redisClient, limits, metrics)
	}
}
