//go:build integration

package main_test

import (
	"context"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	kafkamodule "github.com/testcontainers/testcontainers-go/modules/kafka"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/konk1n12/travel-buddy-ai-sub002/internal/application"
	"github.com/konk1n12/travel-buddy-ai-sub002/internal/config"
	"github.com/konk1n12/travel-buddy-ai-sub002/internal/events"
	"github.com/konk1n12/travel-buddy-ai-sub002/internal/planner"
	"github.com/konk1n12/travel-buddy-ai-sub002/internal/repository"
	"github.com/konk1n12/travel-buddy-ai-sub002/internal/routegen"
)

// backends is the containerized infrastructure a test runs against. Both
// containers are torn down through t.Cleanup.
type backends struct {
	DB      *gorm.DB
	Brokers []string
}

// routeStack is the wired session service on top of those backends.
type routeStack struct {
	Service *application.RouteSessionService
	Planner *planner.DemoPlanner
}

// startBackends brings up Postgres and Kafka, migrates the session table,
// and makes sure the event topic exists before any producer touches it.
func startBackends(t *testing.T) *backends {
	t.Helper()
	ctx := context.Background()

	pgContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "test",
				"POSTGRES_PASSWORD": "test",
				"POSTGRES_DB":       "test_routes",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err, "start postgres container")
	t.Cleanup(func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("terminate postgres container: %v", err)
		}
	})

	pgHost, err := pgContainer.Host(ctx)
	require.NoError(t, err)
	pgPort, err := pgContainer.MappedPort(ctx, "5432")
	require.NoError(t, err)

	dsn := config.DatabaseConfig{
		Host:     pgHost,
		Port:     pgPort.Port(),
		User:     "test",
		Password: "test",
		DBName:   "test_routes",
		SSLMode:  "disable",
	}.DSN()

	// The log line fires before the server takes connections, so keep
	// dialing until a ping goes through.
	var db *gorm.DB
	require.Eventually(t, func() bool {
		var err error
		db, err = gorm.Open(postgres.Open(dsn), &gorm.Config{})
		if err != nil {
			return false
		}
		sqlDB, err := db.DB()
		if err != nil {
			return false
		}
		return sqlDB.Ping() == nil
	}, 30*time.Second, 1*time.Second, "postgres never accepted a connection")

	require.NoError(t, db.AutoMigrate(&repository.SessionModel{}))

	// confluent-local runs KRaft, no zookeeper sidecar needed.
	kafkaContainer, err := kafkamodule.Run(ctx, "confluentinc/confluent-local:7.5.0")
	require.NoError(t, err, "start kafka container")
	t.Cleanup(func() {
		if err := kafkaContainer.Terminate(ctx); err != nil {
			t.Logf("terminate kafka container: %v", err)
		}
	})

	brokers, err := kafkaContainer.Brokers(ctx)
	require.NoError(t, err, "resolve kafka brokers")

	ensureTopics(t, brokers, events.TopicRouteEvents)

	return &backends{DB: db, Brokers: brokers}
}

// newRouteStack wires the full session service against the containers.
// Pacing is compressed so a session completes in well under a second.
func newRouteStack(t *testing.T, be *backends, plannerCfg planner.Config) *routeStack {
	t.Helper()
	logger, _ := zap.NewDevelopment()

	sessionRepo := repository.NewGormSessionRepository(be.DB)
	tripPlanner := planner.NewDemoPlanner(plannerCfg, logger)
	producer := events.NewProducer(be.Brokers, logger)
	t.Cleanup(func() { _ = producer.Close() })

	lifecycle, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	svc := application.NewRouteSessionService(
		lifecycle,
		tripPlanner,
		sessionRepo,
		producer,
		application.Config{
			Topic:     events.TopicRouteEvents,
			MaxActive: 8,
			Session: routegen.Config{
				MinVisible:       300 * time.Millisecond,
				RevealEvery:      30 * time.Millisecond,
				SubtitleEvery:    60 * time.Millisecond,
				FinalizeAfter:    10 * time.Second,
				FastForwardEvery: 5 * time.Millisecond,
			},
		},
		logger,
	)

	return &routeStack{Service: svc, Planner: tripPlanner}
}

// waitForSessionStatus polls the route_sessions row until it carries the
// wanted status and returns that row.
func waitForSessionStatus(t *testing.T, db *gorm.DB, sessionID uuid.UUID, status string, timeout time.Duration) repository.SessionModel {
	t.Helper()
	var row repository.SessionModel
	require.Eventually(t, func() bool {
		var model repository.SessionModel
		if err := db.First(&model, "id = ?", sessionID).Error; err != nil {
			return false
		}
		row = model
		return model.Status == status
	}, timeout, 100*time.Millisecond, "session row never reached status %s", status)
	return row
}

// awaitEvent consumes the topic from the first offset with a throwaway
// group until an envelope of the wanted type shows up.
func awaitEvent(t *testing.T, brokers []string, topic, wantType string, timeout time.Duration) events.CloudEvent {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	reader := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     brokers,
		GroupID:     fmt.Sprintf("assert-%s", uuid.NewString()[:8]),
		Topic:       topic,
		MinBytes:    1,
		MaxBytes:    10e6,
		StartOffset: kafkago.FirstOffset,
	})
	defer func() { _ = reader.Close() }()

	for {
		msg, err := reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				t.Fatalf("no %s event on topic %s before timeout", wantType, topic)
			}
			continue
		}
		ce, err := events.ParseCloudEvent(msg.Value)
		if err != nil {
			continue
		}
		if ce.Type == wantType {
			return ce
		}
	}
}

// ensureTopics creates the topics up front; producing to a missing topic
// races topic auto-creation and loses.
func ensureTopics(t *testing.T, brokers []string, topics ...string) {
	t.Helper()
	conn, err := kafkago.Dial("tcp", brokers[0])
	require.NoError(t, err, "dial kafka")
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err, "resolve kafka controller")

	controllerConn, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, fmt.Sprintf("%d", controller.Port)))
	require.NoError(t, err, "dial kafka controller")
	defer controllerConn.Close()

	configs := make([]kafkago.TopicConfig, len(topics))
	for i, topic := range topics {
		configs[i] = kafkago.TopicConfig{
			Topic:             topic,
			NumPartitions:     1,
			ReplicationFactor: 1,
		}
	}
	require.NoError(t, controllerConn.CreateTopics(configs...), "create topics")

	// Metadata takes a beat to propagate to the broker.
	time.Sleep(1 * time.Second)
}
