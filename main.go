package main

import (
	"log"

	"github.com/redis/go-redis/v9"

	"github.com/filmcrewhq/filmcrew/config"
	"github.com/filmcrewhq/filmcrew/db"
	"github.com/filmcrewhq/filmcrew/mailingservices"
	"github.com/filmcrewhq/filmcrew/queue"
	"github.com/filmcrewhq/filmcrew/realtime"
	"github.com/filmcrewhq/filmcrew/server"
	"github.com/filmcrewhq/filmcrew/services"
)

func main() {
	conf, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	mailgunClient := &mailingservices.Mailgun{}
	mailgunClient.Init(conf)

	gormDB := db.GetDB(conf)
	if err := db.SeedRoles(gormDB.DB); err != nil {
		log.Fatalf("error seeding roles: %v", err)
	}
	if err := db.SeedDepartments(gormDB.DB); err != nil {
		log.Fatalf("error seeding departments: %v", err)
	}

	var redisClient *redis.Client
	if conf.RedisURL != "" {
		opt, err := redis.ParseURL(conf.RedisURL)
		if err != nil {
			log.Fatalf("error parsing redis url: %v", err)
		}
		redisClient = redis.NewClient(opt)
	}

	var queueClient *queue.Client
	var worker *queue.Worker
	if conf.RedisURL != "" {
		queueClient, err = queue.NewClient(conf.RedisURL)
		if err != nil {
			log.Fatalf("error creating queue client: %v", err)
		}
		defer queueClient.Close()

		worker, err = queue.NewWorker(conf.RedisURL, mailgunClient)
		if err != nil {
			log.Fatalf("error creating queue worker: %v", err)
		}
		if err := worker.Start(); err != nil {
			log.Fatalf("error starting queue worker: %v", err)
		}
		defer worker.Shutdown()
	}

	authRepo := db.NewAuthRepo(gormDB)
	chatRepo := db.NewChatRepo(gormDB)
	connRepo := db.NewConnectionRepo(gormDB)
	companyRepo := db.NewCompanyRepo(gormDB)
	jobRepo := db.NewJobRepo(gormDB)

	hub := realtime.NewHub(redisClient, chatRepo.UnreadTotal)

	authService := services.NewAuthService(authRepo, mailgunClient, queueClient, conf)
	chatService := services.NewChatService(chatRepo, redisClient, hub, conf)
	connectionService := services.NewConnectionService(connRepo, authRepo, conf)
	companyService := services.NewCompanyService(companyRepo, mailgunClient, queueClient, conf)
	jobService := services.NewJobService(jobRepo, companyRepo, conf)
	mediaService, err := services.NewMediaService(authRepo, companyRepo, conf)
	if err != nil {
		log.Fatalf("error creating media service: %v", err)
	}

	s := &server.Server{
		Config:            conf,
		DB:                *gormDB,
		AuthRepository:    authRepo,
		AuthService:       authService,
		ChatService:       chatService,
		ConnectionService: connectionService,
		CompanyService:    companyService,
		JobService:        jobService,
		MediaService:      mediaService,
		Hub:               hub,
	}
	s.Start()
}
