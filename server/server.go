package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/filmcrewhq/filmcrew/config"
	"github.com/filmcrewhq/filmcrew/db"
	errs "github.com/filmcrewhq/filmcrew/errors"
	"github.com/filmcrewhq/filmcrew/models"
	"github.com/filmcrewhq/filmcrew/realtime"
	"github.com/filmcrewhq/filmcrew/services"
)

// Server wires repositories, services and the realtime hub behind the gin
// router.
type Server struct {
	Config            *config.Config
	DB                db.GormDB
	AuthRepository    db.AuthRepository
	AuthService       services.AuthService
	ChatService       services.ChatService
	ConnectionService services.ConnectionService
	CompanyService    services.CompanyService
	JobService        services.JobService
	MediaService      services.MediaService
	Hub               *realtime.Hub
}

// Start runs the HTTP server until SIGINT/SIGTERM, then drains in-flight
// requests and closes the hub.
func (s *Server) Start() {
	port := s.Config.Port
	if port == 0 {
		port = 8080
	}

	r := s.setupRouter()
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: r,
	}

	hubCtx, stopHub := context.WithCancel(context.Background())
	if s.Hub != nil {
		go s.Hub.Run(hubCtx)
	}

	go func() {
		log.Printf("listening on :%d", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("shutting down")

	stopHub()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("forced shutdown: %v", err)
	}
}

// decode binds and validates a JSON body, translating binding failures into
// a field-level 400.
func decode(c *gin.Context, v interface{}) error {
	if err := c.ShouldBindJSON(v); err != nil {
		return err
	}
	return models.CleanInput(v)
}

// GetValuesFromContext pulls the access token and authenticated user set by
// the Authorize middleware.
func GetValuesFromContext(c *gin.Context) (string, *models.User, *errs.Error) {
	tokenI, tokenExists := c.Get("access_token")
	if !tokenExists {
		return "", nil, errs.New("forbidden", http.StatusForbidden)
	}
	userI, userExists := c.Get("user")
	if !userExists {
		return "", nil, errs.New("forbidden", http.StatusForbidden)
	}

	token, ok := tokenI.(string)
	if !ok {
		return "", nil, errs.ErrInternalServerError
	}
	user, ok := userI.(*models.User)
	if !ok {
		return "", nil, errs.ErrInternalServerError
	}
	return token, user, nil
}

func currentUserID(c *gin.Context) (uint, bool) {
	v, ok := c.Get("userID")
	if !ok {
		return 0, false
	}
	id, ok := v.(uint)
	return id, ok
}
