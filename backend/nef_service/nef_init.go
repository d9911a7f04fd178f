// SPDX-License-Identifier: Apache-2.0

// Package nef_service wires configuration, stores, the PCF client, the
// notifier and the HTTP surfaces together and runs the service.
package nef_service

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/urfave/cli"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/opennetsys/nefqos/backend/auth"
	"github.com/opennetsys/nefqos/backend/capif"
	"github.com/opennetsys/nefqos/backend/factory"
	"github.com/opennetsys/nefqos/backend/logger"
	"github.com/opennetsys/nefqos/backend/metrics"
	"github.com/opennetsys/nefqos/notifier"
	"github.com/opennetsys/nefqos/pcfclient"
	"github.com/opennetsys/nefqos/qosapi"
	"github.com/opennetsys/nefqos/qosmgmt"
	"github.com/opennetsys/nefqos/qosstore"
)

const orphanRetryInterval = 30 * time.Second

type NEF struct{}

type (
	// Config information.
	Config struct {
		cfg string
	}
)

var config Config

var nefCLi = []cli.Flag{
	cli.StringFlag{
		Name:     "cfg",
		Usage:    "nefqos config file",
		Required: true,
	},
}

func (*NEF) GetCliCmd() (flags []cli.Flag) {
	return nefCLi
}

func (nef *NEF) Initialize(c *cli.Context) {
	config = Config{
		cfg: c.String("cfg"),
	}

	absPath, err := filepath.Abs(config.cfg)
	if err != nil {
		logger.ConfigLog.Errorln(err)
		return
	}

	if err := factory.InitConfigFactory(absPath); err != nil {
		logger.ConfigLog.Errorln(err)
		return
	}

	nef.setLogLevel()
}

func (nef *NEF) setLogLevel() {
	if factory.NefConfig.Logger == nil || factory.NefConfig.Logger.NEF == nil {
		logger.InitLog.Warnln("nefqos config without log level setting")
		return
	}

	if factory.NefConfig.Logger.NEF.DebugLevel != "" {
		if level, err := zapcore.ParseLevel(factory.NefConfig.Logger.NEF.DebugLevel); err != nil {
			logger.InitLog.Warnf("NEF Log level [%s] is invalid, set to [info] level",
				factory.NefConfig.Logger.NEF.DebugLevel)
			logger.SetLogLevel(zap.InfoLevel)
		} else {
			logger.InitLog.Infof("NEF Log level is set to [%s] level", level)
			logger.SetLogLevel(level)
		}
	} else {
		logger.InitLog.Warnln("NEF Log level not set. Default set to [info] level")
		logger.SetLogLevel(zap.InfoLevel)
	}
}

func ginLoggerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.GinLog.Infof("| %3d | %13v | %-7s %s",
			c.Writer.Status(), time.Since(start), c.Request.Method, c.Request.URL.Path)
	}
}

// setupAuthenticationFeature onboards this service at the CAPIF core function
// and installs token verification on the northbound routes. The returned
// connector must be offboarded on shutdown.
func setupAuthenticationFeature(router *gin.Engine) *capif.Connector {
	cfg := factory.NefConfig.Configuration
	if cfg.Capif == nil || !cfg.Capif.Enabled {
		logger.InitLog.Errorln("authentication enabled but no CAPIF core function configured")
		return nil
	}
	connector := capif.NewConnector(cfg.Capif)
	if err := connector.OnboardProvider(cfg.NefBaseUrl); err != nil {
		logger.InitLog.Errorf("CAPIF onboarding failed: %v", err)
		return nil
	}
	pub, err := auth.LoadVerificationKey(cfg.Capif.CertPath)
	if err != nil {
		logger.InitLog.Errorf("loading verification key: %v", err)
		connector.OffboardProvider()
		return nil
	}
	router.Use(auth.Middleware(pub))
	return connector
}

func (nef *NEF) Start() {
	cfg := factory.NefConfig.Configuration

	subs := qosstore.NewSubscriptionStore()
	bindings := qosstore.NewBindingStore()
	pcf := pcfclient.NewClient(cfg.Pcf)
	dispatcher := notifier.NewDispatcher(cfg.Notifier)
	mgr := qosmgmt.NewManager(subs, bindings, cfg.QosProfiles, pcf, dispatcher, cfg.NefBaseUrl)

	ctx, stop := context.WithCancel(context.Background())
	defer stop()
	mgr.StartReconciler(ctx, orphanRetryInterval)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(ginLoggerMiddleware())
	router.Use(cors.New(cors.Config{
		AllowMethods: []string{"GET", "POST", "OPTIONS", "PUT", "PATCH", "DELETE"},
		AllowHeaders: []string{
			"Origin", "Content-Length", "Content-Type", "User-Agent",
			"Referrer", "Host", "Token", "X-Requested-With",
		},
		ExposeHeaders:    []string{"Content-Length", "Location"},
		AllowCredentials: true,
		AllowAllOrigins:  true,
		MaxAge:           86400,
	}))

	var connector *capif.Connector
	if cfg.EnableAuthentication {
		connector = setupAuthenticationFeature(router)
	}

	qosapi.AddQosService(router, mgr)
	qosapi.AddCallbackService(router, mgr)

	go metrics.InitMetrics(cfg.MetricsPort)

	httpAddr := cfg.WebServer.IP + ":" + cfg.WebServer.Port
	server := &http.Server{Addr: httpAddr, Handler: router}
	go func() {
		logger.InitLog.Infoln("NEF HTTP addr", httpAddr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.InitLog.Fatalln("HTTP server setup failed:", err)
		}
	}()

	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-signalChan
	logger.InitLog.Infof("received %v, shutting down", sig)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.InitLog.Warnf("HTTP server shutdown: %v", err)
	}
	if connector != nil {
		connector.OffboardProvider()
	}
	dispatcher.Stop()
}
