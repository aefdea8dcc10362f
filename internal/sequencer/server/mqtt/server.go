// Package mqtt is the sequencer's broker ingress: mission submissions,
// abort requests, and executor acknowledgements.
package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/astrolink-io/astrolink/internal/sequencer/core"
	"github.com/astrolink-io/astrolink/internal/sequencer/core/model"
	"github.com/astrolink-io/astrolink/internal/sequencer/core/service"
	"github.com/astrolink-io/astrolink/internal/sequencer/pacer"
	"github.com/astrolink-io/astrolink/pkg/log"
	pkgmqtt "github.com/astrolink-io/astrolink/pkg/mqtt"
	"github.com/astrolink-io/astrolink/pkg/mqtt/topic"
)

const subscribeQoS = 1

// Server subscribes to the inbound topics and dispatches each message to
// the mission service or the ack router.
type Server struct {
	client pkgmqtt.Client
	topics *topic.Builder
	svc    *service.Service
	acks   *pacer.AckRouter
	logger log.Logger
}

func NewServer(client pkgmqtt.Client, topics *topic.Builder, svc *service.Service, acks *pacer.AckRouter) *Server {
	return &Server{
		client: client,
		topics: topics,
		svc:    svc,
		acks:   acks,
		logger: log.Std().WithName("mqtt"),
	}
}

// Start connects to the broker, subscribes, and blocks until ctx is
// cancelled.
func (s *Server) Start(ctx context.Context) error {
	if err := s.client.Start(ctx); err != nil {
		return err
	}
	defer func() {
		s.logger.Info("Disconnecting MQTT client...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.client.Disconnect(shutdownCtx)
	}()

	s.logger.Info("Waiting for MQTT connection...")
	if err := s.client.AwaitConnection(ctx); err != nil {
		return err
	}
	s.logger.Info("MQTT connected")

	if err := s.initSubscriptions(ctx); err != nil {
		return err
	}

	<-ctx.Done()
	return nil
}

func (s *Server) initSubscriptions(ctx context.Context) error {
	subscriptions := map[string]pkgmqtt.MessageHandler{
		s.topics.MissionSubmit():      s.handleSubmit,
		s.topics.MissionAbort():       s.handleAbort,
		s.topics.CommandAckWildcard(): s.handleAck,
	}

	for filter, handler := range subscriptions {
		if err := s.client.Subscribe(ctx, filter, subscribeQoS, handler); err != nil {
			return fmt.Errorf("subscribe to %s: %w", filter, err)
		}
	}
	return nil
}

// handleSubmit treats the payload as a raw mission document. Rejections are
// logged; there is no reply channel on this path, submitters needing
// synchronous errors use the HTTP API.
func (s *Server) handleSubmit(ctx context.Context, _ string, payload []byte) {
	rec, err := s.svc.Submit(ctx, payload)
	if err != nil {
		s.logger.Warn("Mission submission rejected", "error", err.Error())
		return
	}
	s.logger.Info("Mission submitted via broker", "missionID", rec.MissionID)
}

// handleAbort expects the mission id, either as a bare string or as
// {"mission_id": "..."}.
func (s *Server) handleAbort(ctx context.Context, _ string, payload []byte) {
	missionID := parseAbortPayload(payload)
	if missionID == "" {
		s.logger.Warn("Abort request with no mission id, ignoring")
		return
	}

	if err := s.svc.Abort(missionID); err != nil {
		var nf *core.MissionNotFoundError
		var fin *core.MissionFinishedError
		if errors.As(err, &nf) || errors.As(err, &fin) {
			s.logger.Info("Abort request not applicable", "missionID", missionID, "reason", err.Error())
			return
		}
		s.logger.Error(err, "Abort failed", "missionID", missionID)
	}
}

// handleAck decodes an executor acknowledgement and routes it to the
// mission waiting on it. The mission id in the payload is authoritative;
// the topic's trailing segment is only checked for mismatch.
func (s *Server) handleAck(ctx context.Context, msgTopic string, payload []byte) {
	var ack model.AckMessage
	if err := json.Unmarshal(payload, &ack); err != nil {
		s.logger.Warn("Malformed ack payload, ignoring", "topic", msgTopic, "error", err.Error())
		return
	}
	if ack.MissionID == "" {
		s.logger.Warn("Ack without mission id, ignoring", "topic", msgTopic)
		return
	}
	if topicID := ackTopicMissionID(msgTopic); topicID != "" && topicID != ack.MissionID {
		s.logger.Warn("Ack mission id does not match its topic, ignoring",
			"topic", msgTopic, "missionID", ack.MissionID)
		return
	}

	if !s.acks.Route(ack) {
		s.logger.Debug("Ack for a mission not awaiting one, dropped",
			"missionID", ack.MissionID, "seq", ack.Seq)
	}
}

func parseAbortPayload(payload []byte) string {
	trimmed := strings.TrimSpace(string(payload))
	if trimmed == "" {
		return ""
	}
	if strings.HasPrefix(trimmed, "{") {
		var req struct {
			MissionID string `json:"mission_id"`
		}
		if err := json.Unmarshal(payload, &req); err != nil {
			return ""
		}
		return req.MissionID
	}
	return strings.Trim(trimmed, `"`)
}

func ackTopicMissionID(msgTopic string) string {
	idx := strings.LastIndex(msgTopic, "/")
	if idx < 0 || idx == len(msgTopic)-1 {
		return ""
	}
	return msgTopic[idx+1:]
}
