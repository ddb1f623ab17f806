package main

import (
	"log"

	"app/internal/config"
	"app/internal/domain/model"
	"app/internal/handler"
	"app/internal/infra/db"
	infraGateway "app/internal/infra/gateway"
	infraNotification "app/internal/infra/notification"
	infraRepo "app/internal/infra/repository"
	"app/internal/notification"
	"app/internal/server"
	"app/internal/usecase"

	"github.com/joho/godotenv"
)

func main() {
	//.envは無ければ環境変数だけで動かす
	_ = godotenv.Load("../.env")

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	//DB接続
	gormDB, err := db.Connect(cfg)
	if err != nil {
		panic(err)
	}
	if err := gormDB.AutoMigrate(
		&model.User{},
		&model.Genre{},
		&model.Movie{},
		&model.Cart{},
		&model.CartItem{},
		&model.Order{},
		&model.OrderItem{},
		&model.Payment{},
		&model.PaymentItem{},
		&model.WebhookEvent{},
	); err != nil {
		panic(err)
	}

	//Repository（GORM実装）生成
	movieRepo := infraRepo.NewMovieGormRepository(gormDB)
	userRepo := infraRepo.NewUserGormRepository(gormDB)
	cartRepo := infraRepo.NewCartGormRepository(gormDB)
	cartItemRepo := infraRepo.NewCartItemGormRepository(gormDB)
	orderRepo := infraRepo.NewOrderGormRepository(gormDB)
	orderItemRepo := infraRepo.NewOrderItemGormRepository(gormDB)
	paymentRepo := infraRepo.NewPaymentGormRepository(gormDB)
	txManager := infraRepo.NewTxManagerGorm(gormDB)

	//決済プロバイダ
	gw := infraGateway.NewStripeGateway(cfg)

	//通知。AMQP未設定ならログに落とすだけ。
	var notifier notification.Notifier
	if cfg.AMQPURL != "" {
		notifier = infraNotification.NewAMQPNotifier(cfg.AMQPURL)
		go infraNotification.StartEmailConsumer(cfg.AMQPURL)
	} else {
		log.Println("AMQP_URL not set, falling back to log notifier")
		notifier = infraNotification.NewLogNotifier()
	}

	//Usecase生成
	cartUC := usecase.NewCartUsecase(cartRepo, cartItemRepo, movieRepo, userRepo, notifier)
	orderUC := usecase.NewOrderUsecase(txManager)
	paymentUC := usecase.NewPaymentUsecase(
		txManager,
		orderRepo,
		orderItemRepo,
		movieRepo,
		paymentRepo,
		gw,
		cfg.CheckoutSuccessURL,
		cfg.CheckoutCancelURL,
	)
	webhookUC := usecase.NewWebhookUsecase(txManager, gw, notifier)

	//Handler生成
	cartH := handler.NewCartHandler(cartUC)
	orderH := handler.NewOrderHandler(orderUC)
	paymentH := handler.NewPaymentHandler(paymentUC, webhookUC)

	//Server起動
	if err := server.Start(cfg, cartH, orderH, paymentH); err != nil {
		panic(err)
	}
}
