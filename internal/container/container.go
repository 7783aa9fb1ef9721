package container

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	app "texiv-detect/internal/application"
	"texiv-detect/internal/domain/entity"
	"texiv-detect/internal/domain/port"
	"texiv-detect/internal/infrastructure/storage"
	"texiv-detect/internal/infrastructure/vision"
)

type Container struct {
	Controller  *app.Controller
	Subscribers *app.SubscriberService
	Session     *app.Session
}

func New(engine port.InferenceEngine, opener port.VideoOpener, cfg entity.ProcessingConfig, stopTimeout time.Duration, logger *zap.Logger) (*Container, error) {
	annotator, err := vision.NewAnnotator()
	if err != nil {
		return nil, fmt.Errorf("create annotator: %w", err)
	}

	detector := vision.NewDetector(engine, logger.Named("detector"))

	session := app.NewSession(detector, annotator, opener, logger.Named("session"))
	session.SetStopTimeout(stopTimeout)

	controller := app.NewController(detector, session, storage.NewMemoryFrameStore(), cfg, logger.Named("controller"))
	subscribers := app.NewSubscriberService(storage.NewMemorySubscriberRepository())

	return &Container{
		Controller:  controller,
		Subscribers: subscribers,
		Session:     session,
	}, nil
}
