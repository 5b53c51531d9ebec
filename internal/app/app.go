package app

import (
	"context"
	"errors"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/qs-lzh/movie-booking/config"
	"github.com/qs-lzh/movie-booking/internal/auth"
	"github.com/qs-lzh/movie-booking/internal/cache"
	"github.com/qs-lzh/movie-booking/internal/mq"
	"github.com/qs-lzh/movie-booking/internal/repository"
	"github.com/qs-lzh/movie-booking/internal/scheduler"
	"github.com/qs-lzh/movie-booking/internal/service/domain"
	"github.com/qs-lzh/movie-booking/internal/service/workflow"
)

type App struct {
	Config *config.Config

	DB     *gorm.DB
	Cache  *cache.RedisCache
	Logger *zap.Logger
	MQConn *amqp.Connection

	Tokens    *auth.TokenManager
	Publisher *mq.Publisher

	MovieService       domain.MovieService
	GenreService       domain.GenreService
	ShowtimeService    domain.ShowtimeService
	SeatService        domain.SeatService
	ReservationService domain.ReservationService
	UserService        domain.UserService
	AuthService        domain.AuthService

	ReservationWorkflow *workflow.ReservationWorkflow
	ShowtimeScheduler   *scheduler.ShowtimeScheduler
}

// New wires the application. redisCache and mqConn may be nil, in which case seat
// holds, cached counters and reservation events are switched off.
func New(cfg *config.Config, db *gorm.DB, redisCache *cache.RedisCache, mqConn *amqp.Connection, logger *zap.Logger) (*App, error) {
	uow := repository.NewUnitOfWorkGorm(db)
	tokens := auth.NewTokenManager(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.Audience, cfg.JWT.ExpiryMinutes)

	var seatCache domain.SeatCache = cache.NopCache{}
	if redisCache != nil {
		seatCache = redisCache
	}

	var (
		events    domain.EventPublisher = mq.NopPublisher{}
		publisher *mq.Publisher
	)
	if mqConn != nil {
		p, err := mq.NewPublisher(mqConn)
		if err != nil {
			return nil, err
		}
		publisher = p
		events = p
	}

	showtimeService := domain.NewShowtimeService(uow, seatCache, cfg.Booking.AvailabilityCacheTTL, logger)
	reservationService := domain.NewReservationService(uow, seatCache, events, cfg.Booking.SeatLockTTL, cfg.Booking.AvailabilityCacheTTL, logger)

	app := &App{
		Config:             cfg,
		DB:                 db,
		Cache:              redisCache,
		Logger:             logger,
		MQConn:             mqConn,
		Tokens:             tokens,
		Publisher:          publisher,
		MovieService:       domain.NewMovieService(uow),
		GenreService:       domain.NewGenreService(uow),
		ShowtimeService:    showtimeService,
		SeatService:        domain.NewSeatService(uow),
		ReservationService: reservationService,
		UserService:        domain.NewUserService(uow),
		AuthService:        domain.NewAuthService(uow, tokens),
		ShowtimeScheduler:  scheduler.NewShowtimeScheduler(showtimeService, logger),
	}
	if publisher != nil {
		app.ReservationWorkflow = workflow.NewReservationWorkflow(showtimeService, publisher, logger)
	}
	return app, nil
}

func (app *App) Init(ctx context.Context) error {
	// init redis
	if app.Cache != nil {
		counts, err := app.ShowtimeService.AvailabilitySnapshot(ctx)
		if err != nil {
			return err
		}
		if err := app.Cache.WarmAvailableSeats(ctx, counts, app.Config.Booking.AvailabilityCacheTTL); err != nil {
			return err
		}
		app.Logger.Info("seat availability cache warmed", zap.Int("showtimes", len(counts)))
	}

	// init rabbit mq
	if app.MQConn != nil {
		if err := mq.InitQueues(app.MQConn); err != nil {
			return err
		}
		if err := app.ReservationWorkflow.Start(app.MQConn); err != nil {
			return err
		}
	}

	if err := app.ShowtimeScheduler.Start(app.Config.Scheduler.ShowtimeSweepSchedule); err != nil {
		return err
	}

	admin := app.Config.Admin
	created, err := app.UserService.EnsureAdmin(ctx, admin.Email, admin.Username, admin.Password)
	if err != nil {
		return err
	}
	if created {
		app.Logger.Info("admin account created", zap.String("email", admin.Email))
	}
	return nil
}

func (app *App) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if app.ShowtimeScheduler != nil {
		app.ShowtimeScheduler.Stop(ctx)
	}

	var errs []error
	if app.Publisher != nil {
		errs = append(errs, app.Publisher.Close())
	}
	if app.MQConn != nil {
		errs = append(errs, app.MQConn.Close())
	}
	if app.Cache != nil {
		errs = append(errs, app.Cache.Close())
	}
	if app.DB != nil {
		sqlDB, err := app.DB.DB()
		if err != nil {
			errs = append(errs, err)
		} else {
			errs = append(errs, sqlDB.Close())
		}
	}
	return errors.Join(errs...)
}
