// cmd/order-service/main.go
package main

import (
	"context"
	"flag"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"

	"shopcore/internal/lock"
	"shopcore/internal/outbox"
	"shopcore/internal/pkg/bootstrap"
	"shopcore/internal/pkg/config"
	"shopcore/internal/pkg/database"
	"shopcore/internal/pkg/redis"
	invapp "shopcore/internal/service/inventory/application"
	invinfra "shopcore/internal/service/inventory/infrastructure"
	orderapp "shopcore/internal/service/order/application"
	orderinfra "shopcore/internal/service/order/infrastructure"
	payapp "shopcore/internal/service/payment/application"
	payinfra "shopcore/internal/service/payment/infrastructure"
	promoapp "shopcore/internal/service/promotion/application"
	promoinfra "shopcore/internal/service/promotion/infrastructure"
	"shopcore/internal/service/promotion/infrastructure/rule"
	userapp "shopcore/internal/service/user/application"
	userinfra "shopcore/internal/service/user/infrastructure"
)

const serviceName = "order-service"

// main 是应用的组装根：创建并组装所有依赖项，然后启动应用。
func main() {
	configPath := flag.String("config", "configs/order-service.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", *configPath).Msg("failed to load config")
	}
	cfg.Service.Name = serviceName

	db, err := database.Open(cfg.MySQL.DSN)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open database")
	}
	if err := db.AutoMigrate(
		&userinfra.UserModel{}, &userinfra.PointHistoryModel{},
		&invinfra.ProductModel{}, &invinfra.StockModel{}, &invinfra.StockMovementModel{},
		&promoinfra.CouponModel{}, &promoinfra.UserCouponModel{},
		&payinfra.PaymentModel{},
		&orderinfra.OrderModel{}, &orderinfra.OrderDetailModel{},
		&outbox.MessageModel{},
	); err != nil {
		log.Fatal().Err(err).Msg("failed to migrate schema")
	}
	uow := database.NewGormUnitOfWork(db)

	// 锁后端: 配置了 ZooKeeper 就用分布式锁，否则退化为进程内锁（单实例部署）
	var locker lock.Locker
	var zkLocker *lock.ZKLocker
	if len(cfg.Zookeeper.Addrs) > 0 {
		zkLocker, err = lock.NewZKLocker(cfg.Zookeeper.Addrs, cfg.Lock.WaitTimeout)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to zookeeper")
		}
		locker = zkLocker
	} else {
		locker = lock.NewKeyedMutex(cfg.Lock.WaitTimeout)
		log.Warn().Msg("zookeeper not configured, falling back to in-process locks")
	}

	// Redis 快速通道可选，不配置时发券直接走数据库临界区
	var redisClient *redis.Client
	var fastPath promoapp.FastPathGate
	if cfg.Redis.Addr != "" {
		redisClient, err = redis.NewClient(context.Background(), cfg.Redis.Addr)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to redis")
		}
		gate, err := promoinfra.NewRedisIssueGate(redisClient)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to initialize redis issue gate")
		}
		fastPath = gate
	}

	ruleEngine, err := rule.NewCELRuleEngine()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize rule engine")
	}

	userService := userapp.NewService(
		userinfra.NewGormUserRepository(db),
		userinfra.NewGormPointHistoryRepository(db),
		locker, uow,
	)
	inventoryService := invapp.NewService(
		invinfra.NewGormProductRepository(db),
		invinfra.NewGormStockRepository(db),
		invinfra.NewGormStockMovementRepository(db),
		locker, uow,
	)
	promotionService := promoapp.NewService(
		promoinfra.NewGormCouponRepository(db),
		promoinfra.NewGormUserCouponRepository(db),
		ruleEngine, locker, uow, fastPath,
	)
	paymentService := payapp.NewService(
		payinfra.NewGormPaymentRepository(db),
		payinfra.NewPointProcessor(),
		locker,
	)
	orderService := orderapp.NewService(
		orderinfra.NewGormOrderRepository(db),
		inventoryService,
		paymentService,
		inventoryService,
		promotionService,
		userService,
		paymentService,
		uow,
		outbox.NewGormRepository(db),
		otel.Tracer(serviceName),
	)

	srv := &server{
		orders:     orderService,
		users:      userService,
		promotions: promotionService,
	}

	bootstrap.StartService(bootstrap.AppInfo{
		ServiceName:      serviceName,
		Config:           cfg,
		RegisterHandlers: srv.registerRoutes,
		OnShutdown: func(ctx context.Context) {
			if redisClient != nil {
				if err := redisClient.Close(); err != nil {
					log.Error().Err(err).Msg("failed to close redis client")
				}
			}
			if zkLocker != nil {
				zkLocker.Close()
			}
		},
	})
}
