package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/kkariyawasam/ledger-engine/internal/config"
	"github.com/kkariyawasam/ledger-engine/internal/data/mongo"
	"github.com/kkariyawasam/ledger-engine/internal/executor"
	"github.com/kkariyawasam/ledger-engine/internal/logger"
	"github.com/kkariyawasam/ledger-engine/internal/platform/messaging/consumers"
	"github.com/kkariyawasam/ledger-engine/internal/platform/messaging/producers"
	"github.com/kkariyawasam/ledger-engine/internal/platform/persistence"
	"github.com/kkariyawasam/ledger-engine/internal/transaction_processor/consumer"
	"github.com/kkariyawasam/ledger-engine/internal/transaction_processor/service"
	"github.com/kkariyawasam/ledger-engine/internal/transaction_processor/sweeper"
)

func main() {
	// Create base context with cancellation
	appCtx, cancelAppCtx := context.WithCancel(context.Background())
	defer cancelAppCtx()

	// Initialize configuration
	cfg, err := config.LoadConfig("transaction_processor")
	if err != nil {
		// logger is not initialized yet, so we use fmt
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.NewLogger(cfg)

	log.Info("Starting Transaction Processor",
		"app_name", cfg.Application.Name,
		"env", cfg.Application.Env,
	)

	// Apply schema migrations before consuming
	if cfg.MongoDB.MigrationsPath != "" {
		if err := persistence.RunMigrations(cfg.MongoDB.URI, cfg.MongoDB.MigrationsPath); err != nil {
			log.Error("Failed to run migrations", "error", err)
			os.Exit(1)
		}
	}

	// Initialize MongoDB with app context
	mongoDB, err := persistence.NewMongoDB(appCtx, log, &cfg.MongoDB)
	if err != nil {
		log.Error("Failed to initialize MongoDB", "error", err)
		os.Exit(1)
	}

	// Initialize repositories and the transaction executor
	accountRepo := mongo.NewAccountRepository(log, mongoDB.Database())
	txnRepo := mongo.NewTxnRepository(log, mongoDB.Database())
	unitOfWork := persistence.NewMongoUnitOfWork(log, mongoDB.Client())
	txnExecutor := executor.New(log, accountRepo, txnRepo, unitOfWork)

	// Initialize Kafka consumer
	kafkaConsumer := consumers.NewKafkaConsumer(appCtx, log, &cfg.Kafka)

	// Initialize Kafka DLQ producer
	dlqProducer, err := producers.NewDLQProducer(appCtx, log, &cfg.Kafka)
	if err != nil {
		log.Error("Failed to initialize DLQ Kafka producer", "error", err)
		os.Exit(1)
	}
	// dlqProducer might be nil if DLQTopic is not configured. Handler is nil-safe.

	// Initialize the execution service behind a worker pool
	baseService := service.NewExecutionService(log, txnRepo, txnExecutor)
	executionService, err := service.NewWorkerPoolExecutionService(
		baseService,
		service.WorkerPoolConfig{Size: cfg.WorkerPool.Size},
		log,
	)
	if err != nil {
		log.Error("Failed to initialize worker pool", "error", err)
		os.Exit(1)
	}

	// Initialize transaction event handler. The nil check avoids handing the
	// handler a typed-nil publisher when the DLQ is disabled.
	var deadLetterPublisher producers.DeadLetterPublisher
	if dlqProducer != nil {
		deadLetterPublisher = dlqProducer
	}
	txnEventHandler := consumer.NewTxnEventHandler(
		log,
		executionService,
		deadLetterPublisher,
	)

	// Initialize reconciliation producer and the pending-transaction sweeper
	reconciliationProducer, err := producers.NewReconciliationProducer(appCtx, log, &cfg.Kafka)
	if err != nil {
		log.Error("Failed to initialize reconciliation Kafka producer", "error", err)
		os.Exit(1)
	}

	var pendingSweeper *sweeper.Sweeper
	if reconciliationProducer != nil {
		pendingSweeper = sweeper.NewSweeper(&cfg.Sweeper, txnRepo, reconciliationProducer, log)
	}

	// Create error channel for service errors
	errChan := make(chan error, 2)

	// Create wait group for graceful shutdown
	var wg sync.WaitGroup

	// Start Kafka consumer in a goroutine
	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Info("Starting Kafka consumer",
			"topic", cfg.Kafka.TransactionTopic,
			"group", cfg.Kafka.ConsumerGroup,
		)
		if err := kafkaConsumer.Subscribe(appCtx, cfg.Kafka.TransactionTopic, cfg.Kafka.ConsumerGroup, txnEventHandler.HandleMessage); err != nil {
			errChan <- fmt.Errorf("kafka consumer error: %w", err)
		}
	}()

	// Start pending-transaction sweeper in a goroutine
	if pendingSweeper != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			pendingSweeper.Start(appCtx)
		}()
	}

	// Set up signal handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	// Wait for a shutdown signal or error
	var serviceErr error
	select {
	case <-quit:
		log.Info("Shutdown signal received")
	case err := <-errChan:
		log.Error("Service error occurred", "error", err)
		serviceErr = err
	}

	// Cancel the application context
	cancelAppCtx()

	// Shutdown the worker pool
	log.Info("Shutting down worker pool", "running_workers", executionService.Running())
	executionService.Shutdown()

	// Create a shutdown context with timeout
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelShutdown()

	// Graceful shutdown sequence
	log.Info("Starting graceful shutdown...")

	// Wait for all goroutines to finish
	log.Info("Waiting for services to stop...")
	wgChan := make(chan struct{})
	go func() {
		wg.Wait()
		close(wgChan)
	}()

	select {
	case <-wgChan:
		log.Info("All services stopped successfully")
	case <-shutdownCtx.Done():
		log.Warn("Shutdown timeout reached, forcing exit")
	}

	// Close Kafka producers
	if dlqProducer != nil { // dlqProducer can be nil if DLQTopic was not configured
		if err = dlqProducer.Close(); err != nil {
			log.Error("Error closing DLQ Kafka producer", "error", err)
		}
	}
	if reconciliationProducer != nil {
		if err = reconciliationProducer.Close(); err != nil {
			log.Error("Error closing reconciliation Kafka producer", "error", err)
		}
	}

	// Close Kafka consumer
	if err = kafkaConsumer.Close(); err != nil {
		log.Error("Error closing Kafka consumer", "error", err)
	}

	// Close MongoDB connection
	if err = mongoDB.Close(shutdownCtx); err != nil {
		log.Error("Error closing MongoDB connection", "error", err)
	}

	// Final status
	if serviceErr != nil {
		log.Error("Transaction Processor shutdown with errors", "error", serviceErr)
	}
	if err != nil {
		log.Error("Transaction Processor shutdown completed with errors")
	} else {
		log.Info("Transaction Processor shutdown completed successfully")
	}
}
