package exchange

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"iot-fleet-hub/internal/domain/tasklog"
	"iot-fleet-hub/internal/logger"
	pkgmqtt "iot-fleet-hub/pkg/mqtt"

	"go.uber.org/zap"
)

// Broker is the slice of the MQTT client the router needs. Tests substitute a
// fake; production wires pkg/mqtt.Client.
type Broker interface {
	Subscribe(topic string, qos byte, handler pkgmqtt.MessageHandler) error
	Publish(topic string, qos byte, retained bool, payload []byte) error
	Unsubscribe(topics ...string) error
}

type registration struct {
	handler  Handler
	qos      byte
	taskType tasklog.TaskType
}

// Router subscribes to the per-station request topics and dispatches each
// message to the handler registered for its action. Handlers run synchronously
// on the broker's receive loop; a slow handler delays subsequent messages,
// which is accepted at the expected per-station exchange volume.
type Router struct {
	broker      Broker
	topicPrefix string
	taskLogs    tasklog.Repository

	mu            sync.Mutex
	handlers      map[string]registration
	subscriptions []string
	started       bool
}

func NewRouter(broker Broker, topicPrefix string, taskLogs tasklog.Repository) *Router {
	return &Router{
		broker:      broker,
		topicPrefix: topicPrefix,
		taskLogs:    taskLogs,
		handlers:    make(map[string]registration),
	}
}

// Register binds an action to a handler and the QoS used for its replies.
// Registration happens once at startup; dispatch is a map lookup per message.
func (r *Router) Register(action string, qos byte, taskType tasklog.TaskType, handler Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[action] = registration{handler: handler, qos: qos, taskType: taskType}
}

// Start subscribes to one wildcard request topic per registered action.
func (r *Router) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.started {
		return nil
	}
	if len(r.handlers) == 0 {
		return fmt.Errorf("no exchange handlers registered")
	}

	for action, reg := range r.handlers {
		topic := fmt.Sprintf("%s/+/%s/request", r.topicPrefix, action)
		if err := r.broker.Subscribe(topic, reg.qos, r.handleMessage); err != nil {
			return fmt.Errorf("subscribe failed for %s: %w", topic, err)
		}
		r.subscriptions = append(r.subscriptions, topic)
		logger.Info("Listening for exchange requests",
			zap.String("topic", topic),
			zap.Uint8("qos", reg.qos),
		)
	}

	r.started = true
	return nil
}

// Stop unsubscribes from all request topics.
func (r *Router) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.started {
		return
	}

	if len(r.subscriptions) > 0 {
		if err := r.broker.Unsubscribe(r.subscriptions...); err != nil {
			logger.Warn("Failed to unsubscribe from exchange topics", zap.Error(err))
		}
	}

	r.subscriptions = nil
	r.started = false
}

// handleMessage is the single entry point for every inbound exchange message.
// No failure here may escape to the broker loop: malformed topics are dropped,
// handler and publish failures are logged and the loop continues.
func (r *Router) handleMessage(topic string, payload []byte) {
	received := time.Now()

	stationCode, action, ok := ParseTopic(r.topicPrefix, topic)
	if !ok {
		logger.Warn("Dropping message with unrecognized topic shape",
			zap.String("topic", topic),
		)
		return
	}

	r.mu.Lock()
	reg, found := r.handlers[action]
	r.mu.Unlock()
	if !found {
		logger.Warn("Dropping message for unregistered action",
			zap.String("topic", topic),
			zap.String("action", action),
		)
		return
	}

	ctx := context.Background()
	reply := reg.handler.Handle(ctx, stationCode, payload)

	r.appendLog(ctx, &tasklog.Entry{
		StationID:   reply.StationID,
		StationCode: stationCode,
		Topic:       topic,
		TaskType:    reg.taskType,
		Direction:   tasklog.DirectionRequest,
		Status:      tasklog.StatusReceived,
		ReceivedAt:  received,
	})

	responseTopic := fmt.Sprintf("%s/%s/%s/response", r.topicPrefix, stationCode, action)
	body, err := json.Marshal(reply.Payload)
	if err != nil {
		logger.Error("Failed to encode exchange reply",
			zap.String("station", stationCode),
			zap.String("action", action),
			zap.Error(err),
		)
		r.appendResponseLog(ctx, reply, stationCode, responseTopic, reg.taskType, received, tasklog.StatusFailed)
		return
	}

	if err := r.broker.Publish(responseTopic, reg.qos, false, body); err != nil {
		// The broker client owns retries; the router only records the failure
		// and returns control to the message loop.
		logger.Error("Failed to publish exchange reply",
			zap.String("station", stationCode),
			zap.String("topic", responseTopic),
			zap.Error(err),
		)
		r.appendResponseLog(ctx, reply, stationCode, responseTopic, reg.taskType, received, tasklog.StatusFailed)
		return
	}

	status := tasklog.StatusSent
	if reply.Failed {
		status = tasklog.StatusFailed
	}
	r.appendResponseLog(ctx, reply, stationCode, responseTopic, reg.taskType, received, status)

	if reply.OnPublished != nil {
		reply.OnPublished(ctx)
	}
}

func (r *Router) appendResponseLog(ctx context.Context, reply Reply, stationCode, topic string, taskType tasklog.TaskType, received time.Time, status tasklog.Status) {
	processed := time.Now()
	latency := processed.Sub(received).Milliseconds()

	r.appendLog(ctx, &tasklog.Entry{
		StationID:      reply.StationID,
		StationCode:    stationCode,
		Topic:          topic,
		TaskType:       taskType,
		Direction:      tasklog.DirectionResponse,
		Status:         status,
		ReceivedAt:     received,
		ProcessedAt:    &processed,
		ResponseTimeMs: &latency,
	})
}

func (r *Router) appendLog(ctx context.Context, entry *tasklog.Entry) {
	if r.taskLogs == nil {
		return
	}
	if err := r.taskLogs.Append(ctx, entry); err != nil {
		logger.Error("Failed to append task log",
			zap.String("station", entry.StationCode),
			zap.String("task_type", string(entry.TaskType)),
			zap.Error(err),
		)
	}
}

// ParseTopic decomposes {prefix}/{station}/{action}/request. Any other shape
// returns ok=false.
func ParseTopic(prefix, topic string) (stationCode, action string, ok bool) {
	segments := strings.Split(topic, "/")
	if len(segments) != 4 {
		return "", "", false
	}
	if segments[0] != prefix || segments[3] != "request" {
		return "", "", false
	}
	if segments[1] == "" || segments[2] == "" {
		return "", "", false
	}
	return segments[1], segments[2], true
}
