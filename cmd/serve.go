package cmd

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-amqp/pkg/amqp"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	httpHdlr "docqa/handler/http"
	jobctrl "docqa/src/infrastructure/job"
	"docqa/src/infrastructure/log"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the document question-answering server",
	Long: `The serve command starts an HTTP server that accepts document uploads
and answers questions grounded in their content. When rag.async_ingest is
enabled, uploads are ingested by the background worker instead of inline.`,
	Run: RunServer,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func RunServer(cmd *cobra.Command, args []string) {
	svcs, err := buildServices()
	if err != nil {
		log.Error(err, "Failed to build services")
		return
	}
	defer svcs.Close()

	// With async ingestion the server only publishes jobs; the worker
	// command consumes them.
	var jobService *jobctrl.JobService
	if viper.GetBool("rag.async_ingest") {
		amqpPublisher, err := amqp.NewPublisher(
			amqp.NewDurableQueueConfig(viper.GetString("amqp.url")),
			watermill.NewStdLogger(false, false),
		)
		if err != nil {
			log.Error(err, "Failed to create AMQP publisher")
			return
		}
		defer amqpPublisher.Close()

		jobRepo := jobctrl.NewPostgresJobRepository(svcs.db)
		jobService = jobctrl.NewJobService(amqpPublisher, jobRepo, watermill.NewStdLogger(false, false), nil)
	}

	documentHandler, err := httpHdlr.NewDocumentHandler(
		svcs.minio,
		viper.GetString("minio.documents_bucket"),
		svcs.docs,
		svcs.pipeline,
		jobService,
	)
	if err != nil {
		log.Error(err, "Failed to initialize document handler")
		return
	}

	chatHandler := httpHdlr.NewChatHandler(svcs.docs, svcs.chats, svcs.pipeline)

	handler := httpHdlr.NewHandler(documentHandler, chatHandler)

	// Setup gin router
	r := gin.Default()

	// Register routes
	handler.RegisterRoutes(r)

	// Create HTTP server
	srv := &http.Server{
		Addr:    ":" + viper.GetString("server.port"),
		Handler: r,
	}

	// Start server in a goroutine
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error(err, "Failed to start server")
			return
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	// Parse shutdown timeout
	timeout, err := time.ParseDuration(viper.GetString("server.shutdown_timeout"))
	if err != nil {
		log.Error(err, "Invalid shutdown timeout, using default 5s")
		timeout = 5 * time.Second
	}

	// Create context with timeout for shutdown
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	// Attempt graceful shutdown
	if err := srv.Shutdown(ctx); err != nil {
		log.Error(err, "Server forced to shutdown")
	}

	log.Info("Server exited")
}
