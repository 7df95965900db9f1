package bootstrap

import (
	"context"
	"fmt"
	"log"

	"course-notes-admin/internal/config"
	"course-notes-admin/internal/controller"
	"course-notes-admin/internal/courseapi"
	"course-notes-admin/internal/handler"
	"course-notes-admin/internal/pkg/logger"
	"course-notes-admin/internal/repository/memory"
	"course-notes-admin/internal/service"
	"course-notes-admin/internal/view"
	"course-notes-admin/internal/websocket"
	pktNats "course-notes-admin/pkg/nats"
	"course-notes-admin/pkg/objectstore"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
)

// Infrastructure holds the clients that talk to the outside world. Redis and
// Events are optional.
type Infrastructure struct {
	Logger    logger.ILogger
	HubLogger logger.ILogger
	Store     objectstore.Store
	CourseAPI courseapi.ICourseAPI
	Redis     *redis.Client
	Events    service.EventPublisher
}

type Container struct {
	// Controllers
	CourseController controller.ICourseController
	NoteController   controller.INoteController
	ProgressHandler  *handler.ProgressHandler

	// Services
	CourseService service.ICourseService
	NoteService   service.INoteService

	// Background Services (Exposed for main.go to run)
	ConsumerService service.IConsumerService
	WebSocketHub    *websocket.Hub

	Logger logger.ILogger

	closers []func()
}

// NewContainer connects every external client named by cfg and builds the container.
func NewContainer(ctx context.Context, cfg *config.Config) (*Container, error) {
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.IsProduction())

	store, closeStore, err := NewObjectStore(ctx, cfg.Storage)
	if err != nil {
		return nil, err
	}

	infra := Infrastructure{
		Logger:    sysLogger,
		HubLogger: logger.NewIsolatedLogger(cfg.App.HubLogFilePath),
		Store:     store,
		CourseAPI: courseapi.NewClient(cfg.CourseAPI.BaseURL, cfg.CourseAPI.Timeout),
	}
	var closers []func()
	if closeStore != nil {
		closers = append(closers, closeStore)
	}

	// Redis
	if cfg.App.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.App.RedisURL)
		if err != nil {
			log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
			opt = &redis.Options{Addr: cfg.App.RedisURL}
		}
		rdb := redis.NewClient(opt)
		if _, err := rdb.Ping(ctx).Result(); err != nil {
			log.Printf("[WARN] Failed to connect to Redis: %v. Progress stays on this instance", err)
			rdb.Close()
		} else {
			infra.Redis = rdb
			closers = append(closers, func() { rdb.Close() })
		}
	}

	// NATS
	if cfg.App.NatsURL != "" {
		natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
		if err != nil {
			log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
		} else {
			infra.Events = natsPub
			closers = append(closers, natsPub.Close)
		}
	}

	c := Build(cfg, infra)
	c.closers = append(c.closers, closers...)
	return c, nil
}

// NewObjectStore picks the storage provider. The returned close func may be nil.
func NewObjectStore(ctx context.Context, cfg config.StorageConfig) (objectstore.Store, func(), error) {
	switch cfg.Provider {
	case config.StorageProviderFirebase:
		store, err := objectstore.NewFirebaseStore(ctx, cfg.Bucket, cfg.CredentialsFile, cfg.ChunkSize)
		if err != nil {
			return nil, nil, err
		}
		log.Printf("[INFO] Using Object Storage: FIREBASE (%s)", cfg.Bucket)
		return store, func() { store.Close() }, nil
	case config.StorageProviderLocal:
		store, err := objectstore.NewLocalStore(cfg.LocalDir, cfg.PublicBaseURL)
		if err != nil {
			return nil, nil, err
		}
		log.Printf("[INFO] Using Object Storage: LOCAL (%s)", cfg.LocalDir)
		return store, nil, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage provider %q", cfg.Provider)
	}
}

// Build wires services and controllers on top of ready infrastructure.
func Build(cfg *config.Config, infra Infrastructure) *Container {
	hubLogger := infra.HubLogger
	if hubLogger == nil {
		hubLogger = infra.Logger
	}

	// Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{OutputChannelBuffer: 64},
		watermillLogger,
	)

	wsHub := websocket.NewHub(infra.Redis, hubLogger)

	publisherService := service.NewPublisherService(service.UploadProgressTopic, pubSub)
	consumerService := service.NewConsumerService(pubSub, service.UploadProgressTopic, wsHub, hubLogger)

	draftRepo := memory.NewNoteDraftRepository(cfg.App.DraftTTL)

	courseService := service.NewCourseService(infra.CourseAPI, infra.Logger)
	noteService := service.NewNoteService(
		draftRepo,
		infra.Store,
		infra.CourseAPI,
		publisherService,
		infra.Events,
		infra.Logger,
	)

	renderer := view.NewRenderer()

	return &Container{
		CourseController: controller.NewCourseController(courseService, renderer),
		NoteController:   controller.NewNoteController(noteService, renderer),
		ProgressHandler:  handler.NewProgressHandler(wsHub, infra.Logger),

		CourseService: courseService,
		NoteService:   noteService,

		ConsumerService: consumerService,
		WebSocketHub:    wsHub,

		Logger: infra.Logger,

		closers: []func(){func() { pubSub.Close() }},
	}
}

// Start runs the hub and the progress relay until ctx is cancelled.
func (c *Container) Start(ctx context.Context) error {
	go c.WebSocketHub.Run(ctx)
	return c.ConsumerService.Consume(ctx)
}

func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
	_ = c.Logger.Sync()
}
