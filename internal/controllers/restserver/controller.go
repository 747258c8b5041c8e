package restserver

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/chrissnell/rehabtrack/internal/log"
	"github.com/chrissnell/rehabtrack/internal/motion"
	"github.com/chrissnell/rehabtrack/internal/sessions"
	"github.com/chrissnell/rehabtrack/internal/storage"
	"github.com/chrissnell/rehabtrack/pkg/config"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

const apiPrefix = "/api/v1"

// Controller represents the REST server controller
type Controller struct {
	ctx          context.Context
	wg           *sync.WaitGroup
	serverConfig config.ServerData
	segConfig    config.SegmentationData
	Server       http.Server
	store        storage.Store
	segmenter    *motion.Segmenter
	processor    *sessions.Processor
	health       *storage.HealthManager
	logger       *zap.SugaredLogger
	handlers     *Handlers
}

// NewController creates a new REST server controller. health may be nil, in
// which case /healthz pings the store on every request.
func NewController(ctx context.Context, wg *sync.WaitGroup, cfg *config.ConfigData, store storage.Store,
	segmenter *motion.Segmenter, health *storage.HealthManager, logger *zap.SugaredLogger) (*Controller, error) {
	if store == nil {
		return nil, fmt.Errorf("REST server requires a session store")
	}
	if segmenter == nil {
		return nil, fmt.Errorf("REST server requires a segmenter")
	}

	ctrl := &Controller{
		ctx:          ctx,
		wg:           wg,
		serverConfig: cfg.Server,
		segConfig:    cfg.Segmentation,
		store:        store,
		segmenter:    segmenter,
		processor:    sessions.NewProcessor(segmenter, logger),
		health:       health,
		logger:       logger,
	}

	// If a listen address was not provided, listen on all interfaces
	if ctrl.serverConfig.ListenAddr == "" {
		logger.Info("server.listen-addr not provided; defaulting to 0.0.0.0 (all interfaces)")
		ctrl.serverConfig.ListenAddr = "0.0.0.0"
	}
	if ctrl.serverConfig.Port == 0 {
		logger.Infof("server.port not provided; defaulting to %d", config.DefaultPort)
		ctrl.serverConfig.Port = config.DefaultPort
	}
	if ctrl.serverConfig.MaxUploadMB <= 0 {
		ctrl.serverConfig.MaxUploadMB = config.DefaultMaxUploadMB
	}

	ctrl.handlers = NewHandlers(ctrl)

	ctrl.Server.Addr = fmt.Sprintf("%v:%v", ctrl.serverConfig.ListenAddr, ctrl.serverConfig.Port)
	ctrl.Server.Handler = ctrl.Handler()
	ctrl.Server.ReadHeaderTimeout = 10 * time.Second

	return ctrl, nil
}

// StartController starts the REST server
func (c *Controller) StartController() error {
	log.Info("Starting REST server controller...")
	c.wg.Add(1)

	go func() {
		defer c.wg.Done()

		var err error
		if c.serverConfig.Cert != "" && c.serverConfig.Key != "" {
			log.Infof("REST server listening on https://%s", c.Server.Addr)
			err = c.Server.ListenAndServeTLS(c.serverConfig.Cert, c.serverConfig.Key)
		} else {
			log.Infof("REST server listening on http://%s", c.Server.Addr)
			err = c.Server.ListenAndServe()
		}
		if err != http.ErrServerClosed {
			log.Errorf("REST server error: %v", err)
		}
	}()

	go func() {
		<-c.ctx.Done()
		log.Info("Shutting down the REST server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		c.Server.Shutdown(shutdownCtx)
	}()

	return nil
}

// Handler returns the router wrapped in the recovery, logging and (optional) CORS middleware
func (c *Controller) Handler() http.Handler {
	var h http.Handler = c.setupRouter()

	if c.serverConfig.EnableCORS {
		h = handlers.CORS(
			handlers.AllowedOrigins([]string{"*"}),
			handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions}),
			handlers.AllowedHeaders([]string{"Content-Type", "Accept"}),
		)(h)
	}

	h = handlers.CustomLoggingHandler(io.Discard, h, log.HTTPLogFormatter)
	h = handlers.RecoveryHandler(
		handlers.RecoveryLogger(zap.NewStdLog(log.GetZapLogger())),
		handlers.PrintRecoveryStack(true),
	)(h)

	return h
}

// setupRouter configures the HTTP router with all endpoints
func (c *Controller) setupRouter() *mux.Router {
	router := mux.NewRouter()
	api := router.PathPrefix(apiPrefix).Subrouter()

	api.HandleFunc("/healthz", c.handlers.GetHealth).Methods(http.MethodGet)
	api.HandleFunc("/segment", c.handlers.SegmentSignal).Methods(http.MethodPost)

	api.HandleFunc("/users", c.handlers.ListUsers).Methods(http.MethodGet)
	api.HandleFunc("/users", c.handlers.CreateUser).Methods(http.MethodPost)
	api.HandleFunc("/users/{id}", c.handlers.GetUser).Methods(http.MethodGet)

	api.HandleFunc("/users/{id}/sessions", c.handlers.ListSessions).Methods(http.MethodGet)
	api.HandleFunc("/users/{id}/sessions", c.handlers.CreateSession).Methods(http.MethodPost)
	api.HandleFunc("/users/{id}/sessions/{date}", c.handlers.GetSession).Methods(http.MethodGet)
	api.HandleFunc("/users/{id}/sessions/{date}", c.handlers.DeleteSession).Methods(http.MethodDelete)
	api.HandleFunc("/users/{id}/sessions/{date}/chart", c.handlers.GetSessionChart).Methods(http.MethodGet)
	api.HandleFunc("/users/{id}/sessions/{date}/pattern", c.handlers.GetRepetitionPattern).Methods(http.MethodGet)

	api.HandleFunc("/users/{id}/progress", c.handlers.GetProgress).Methods(http.MethodGet)
	api.HandleFunc("/users/{id}/progress/chart", c.handlers.GetProgressChart).Methods(http.MethodGet)

	return router
}
