// Package service implements the sequencer's mission operations on top of
// the validator, the registry, and the admission queue. Both the HTTP and
// the MQTT server delegate here.
package service

import (
	"context"
	"errors"

	"github.com/astrolink-io/astrolink/internal/pkg/metrics"
	"github.com/astrolink-io/astrolink/internal/sequencer/core"
	"github.com/astrolink-io/astrolink/internal/sequencer/core/model"
	"github.com/astrolink-io/astrolink/internal/sequencer/registry"
	"github.com/astrolink-io/astrolink/internal/sequencer/validator"
	"github.com/astrolink-io/astrolink/pkg/log"
)

// Admitter hands accepted plans to the execution side and cancels them.
// Satisfied by the dispatcher.
type Admitter interface {
	Enqueue(plan *model.MissionPlan) error
	Cancel(missionID string) bool
}

// Service exposes the mission operations: submit, status, list, abort.
type Service struct {
	registry *registry.Registry
	admitter Admitter
	logger   log.Logger
}

func New(reg *registry.Registry, admitter Admitter) *Service {
	return &Service{
		registry: reg,
		admitter: admitter,
		logger:   log.Std().WithName("service"),
	}
}

// Submit validates a raw mission document and admits it for execution. All
// rejections are synchronous: schema violations, duplicate ids, and a full
// admission queue each surface as their typed error before any command is
// published.
func (s *Service) Submit(ctx context.Context, doc []byte) (*model.MissionRecord, error) {
	plan, err := validator.Validate(doc)
	if err != nil {
		if errors.Is(err, validator.ErrMalformedDocument) {
			metrics.MissionsSubmittedTotal.WithLabelValues("malformed").Inc()
		} else {
			metrics.MissionsSubmittedTotal.WithLabelValues("invalid").Inc()
		}
		s.logger.Info("Mission rejected by validation", "error", err.Error())
		return nil, err
	}

	rec, err := s.registry.Register(plan)
	if err != nil {
		metrics.MissionsSubmittedTotal.WithLabelValues("duplicate").Inc()
		s.logger.Info("Mission rejected as duplicate", "missionID", plan.MissionID)
		return nil, err
	}

	if err := s.admitter.Enqueue(plan); err != nil {
		// Undo the registration so the id is immediately reusable.
		s.registry.Remove(plan.MissionID)
		metrics.MissionsSubmittedTotal.WithLabelValues("queue_full").Inc()
		s.logger.Warn("Mission rejected, admission queue full", "missionID", plan.MissionID)
		return nil, err
	}

	metrics.MissionsSubmittedTotal.WithLabelValues("accepted").Inc()
	s.logger.Info("Mission accepted", "missionID", plan.MissionID, "steps", len(plan.FlightPlan))
	return rec, nil
}

// Status returns a snapshot of the mission's record.
func (s *Service) Status(missionID string) (*model.MissionRecord, error) {
	rec, ok := s.registry.Get(missionID)
	if !ok {
		return nil, &core.MissionNotFoundError{MissionID: missionID}
	}
	return rec, nil
}

// ListActive returns snapshots of every non-terminal mission.
func (s *Service) ListActive() []*model.MissionRecord {
	return s.registry.ListActive()
}

// Abort cancels the named mission whether it is queued or running. Aborting
// a finished mission fails with MissionFinishedError.
func (s *Service) Abort(missionID string) error {
	rec, ok := s.registry.Get(missionID)
	if !ok {
		return &core.MissionNotFoundError{MissionID: missionID}
	}
	if rec.Status.IsTerminal() {
		return &core.MissionFinishedError{MissionID: missionID, Status: string(rec.Status)}
	}
	if !s.admitter.Cancel(missionID) {
		// Cancel lost the race with the mission finishing on its own.
		rec, _ = s.registry.Get(missionID)
		if rec != nil && rec.Status.IsTerminal() {
			return &core.MissionFinishedError{MissionID: missionID, Status: string(rec.Status)}
		}
		return &core.MissionNotFoundError{MissionID: missionID}
	}
	s.logger.Info("Mission abort requested", "missionID", missionID)
	return nil
}
