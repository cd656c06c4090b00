package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"gorm.io/gorm"

	appsvc "anonchat/internal/app"
	"anonchat/internal/cache"
	"anonchat/internal/config"
	"anonchat/internal/mail"
	mongoClient "anonchat/internal/platform/mongo"
	mysqlClient "anonchat/internal/platform/mysql"
	rabbitmqClient "anonchat/internal/platform/rabbitmq"
	redisClient "anonchat/internal/platform/redis"
	"anonchat/internal/repository"
	"anonchat/internal/schedule"
	"anonchat/internal/worker"
)

type App struct {
	Config *config.Config

	Store appsvc.UserStore
	MySQL *gorm.DB
	Mongo *mongo.Client

	Redis      *redis.Client
	InboxCache *cache.InboxCache

	MQConn         *amqp.Connection
	Publisher      *rabbitmqClient.DeliveryPublisher
	DeliveryWorker *worker.MessageDeliveryWorker

	Mailer      *mail.VerificationMailer
	CodeSweeper *schedule.CodeSweeper

	StartedAt time.Time
}

func New(ctx context.Context, cfg *config.Config) (*App, error) {
	a := &App{Config: cfg, StartedAt: time.Now()}

	if err := a.openStore(ctx); err != nil {
		_ = a.Close()
		return nil, err
	}

	redisCli, err := redisClient.New(ctx, cfg.Redis)
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	a.Redis = redisCli
	a.InboxCache = cache.NewInboxCache(
		redisCli,
		time.Duration(cfg.Redis.InboxTTLSeconds)*time.Second,
		time.Duration(cfg.Redis.InboxDirtyTTLSeconds)*time.Second,
	)

	mqConn, err := rabbitmqClient.New(ctx, cfg.RabbitMQ.URL, cfg.RabbitMQ.MessageDeliveryQueue)
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	a.MQConn = mqConn
	a.Publisher = rabbitmqClient.NewDeliveryPublisher(mqConn, cfg.RabbitMQ.MessageDeliveryQueue)

	sender, err := newMailSender(cfg.Mail)
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	a.Mailer = mail.NewVerificationMailer(sender, cfg.Mail.From, cfg.Mail.Subject)

	a.DeliveryWorker = worker.NewMessageDeliveryWorker(mqConn, a.Store, a.InboxCache, cfg.RabbitMQ.MessageDeliveryQueue)
	if err := a.DeliveryWorker.Start(ctx); err != nil {
		_ = a.Close()
		return nil, fmt.Errorf("start message delivery worker failed: %w", err)
	}

	a.CodeSweeper = schedule.NewCodeSweeper(a.Store, cfg.Scheduler.CodeSweepMinutes)
	if err := a.CodeSweeper.Start(); err != nil {
		_ = a.Close()
		return nil, err
	}

	return a, nil
}

func (a *App) openStore(ctx context.Context) error {
	switch a.Config.Database.Driver {
	case config.DriverMongo:
		client, err := mongoClient.New(ctx, a.Config.Mongo.URI)
		if err != nil {
			return err
		}
		a.Mongo = client
		store := repository.NewMongoUserRepository(client, a.Config.Mongo.Database)
		if err := store.EnsureIndexes(ctx); err != nil {
			return err
		}
		a.Store = store
	default:
		db, err := mysqlClient.New(ctx, a.Config.MySQLDSN())
		if err != nil {
			return err
		}
		a.MySQL = db
		store := repository.NewGormUserRepository(db)
		if err := store.Migrate(); err != nil {
			return err
		}
		a.Store = store
	}
	slog.Info("user store ready", "driver", a.Config.Database.Driver)
	return nil
}

func newMailSender(cfg config.MailConfig) (mail.Sender, error) {
	switch cfg.Provider {
	case config.MailProviderResend:
		if cfg.Resend.APIKey == "" {
			return nil, fmt.Errorf("resend provider requires an api key")
		}
		return mail.NewResendClient(cfg.Resend.BaseURL, cfg.Resend.APIKey), nil
	case config.MailProviderSMTP:
		if cfg.SMTP.Host == "" {
			return nil, fmt.Errorf("smtp provider requires a host")
		}
		return mail.NewSMTPSender(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.User, cfg.SMTP.Password), nil
	default:
		return mail.NewLogSender(slog.Default()), nil
	}
}

func (a *App) Close() error {
	var closeErr error
	if a.CodeSweeper != nil {
		a.CodeSweeper.Stop()
	}
	if a.DeliveryWorker != nil {
		a.DeliveryWorker.Close()
	}
	if a.MQConn != nil {
		if err := a.MQConn.Close(); err != nil {
			closeErr = err
		}
	}
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			closeErr = err
		}
	}
	if a.MySQL != nil {
		sqlDB, err := a.MySQL.DB()
		if err == nil {
			if err := sqlDB.Close(); err != nil {
				closeErr = err
			}
		}
	}
	if a.Mongo != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.Mongo.Disconnect(ctx); err != nil {
			closeErr = err
		}
	}
	return closeErr
}
