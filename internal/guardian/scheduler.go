package guardian

import (
	"context"
	"sync"
	"time"

	"github.com/roylee0704/gron"

	"regenwasi/internal/gateways"
	"regenwasi/internal/guardian/interfaces"
	"regenwasi/internal/models"
	"regenwasi/internal/providers"
	"regenwasi/internal/services"
	"regenwasi/internal/structures"
)

const (
	defaultTickInterval = 15 * time.Second
	defaultSyncInterval = 5 * time.Minute
	syncHistoryEntries  = 5
)

// Scheduler drives the periodic work: the live degrade tick for visible
// sessions, the persistence interval, and the HUB sync. Init is idempotent:
// re-arming always cancels the previous cron first.
type Scheduler struct {
	config      *structures.Config
	logger      providers.Logger
	service     services.PetServiceInterface
	fileManager *FileManager
	autosaver   interfaces.AutosaverInterface
	hub         gateways.HubGatewayInterface
	cron        *gron.Cron
	opsMu       sync.Mutex
}

func NewScheduler(config *structures.Config, logger providers.Logger, service services.PetServiceInterface, fileManager *FileManager, autosaver interfaces.AutosaverInterface, hub gateways.HubGatewayInterface) interfaces.SchedulerInterface {
	return &Scheduler{
		config:      config,
		logger:      logger,
		service:     service,
		fileManager: fileManager,
		autosaver:   autosaver,
		hub:         hub,
	}
}

func (s *Scheduler) Init() {
	if s.cron != nil {
		s.cron.Stop()
	}
	s.cron = gron.New()

	tickInterval := s.config.Degradation.TickInterval
	if tickInterval <= 0 {
		tickInterval = defaultTickInterval
	}
	syncInterval := s.config.Hub.SyncInterval
	if syncInterval <= 0 {
		syncInterval = defaultSyncInterval
	}

	s.cron.AddFunc(gron.Every(tickInterval), func() {
		if s.service.TickVisible() {
			s.autosaver.Request()
		}
	})

	s.cron.AddFunc(gron.Every(s.config.Persistence.SaveInterval), func() {
		s.opsMu.Lock()
		defer s.opsMu.Unlock()

		err := s.fileManager.SaveToFile(s.config.Persistence.FilePath)
		if err != nil {
			s.logger.Errorf(providers.TypeApp, "Error while persisting data: %s", err)
			return
		}
		s.logger.Infof(providers.TypeApp, "Persisted data to file %s", s.config.Persistence.FilePath)
	})

	if s.config.Hub.BaseURL != "" {
		s.cron.AddFunc(gron.Every(syncInterval), s.syncAll)
	}

	s.cron.Start()
}

func (s *Scheduler) Stop() {
	if s.cron != nil {
		s.cron.Stop()
	}
}

func (s *Scheduler) Restore() error {
	return s.fileManager.LoadFromFile(s.config.Persistence.FilePath)
}

func (s *Scheduler) Persist() error {
	s.opsMu.Lock()
	defer s.opsMu.Unlock()

	s.logger.Infof(providers.TypeApp, "Persisting guardian data to file...")
	err := s.fileManager.SaveToFile(s.config.Persistence.FilePath)
	if err != nil {
		s.logger.Errorf(providers.TypeApp, "Error while persisting data: %s", err)
		return err
	}
	return nil
}

// syncAll pushes every registered pet to the HUB. Failures stay silent
// beyond a log line; sync must never disturb the session.
func (s *Scheduler) syncAll() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	for _, userID := range s.service.RegisteredUsers() {
		hubID, _ := s.service.HubRegistration(userID)
		pet, ok := s.service.PeekPet(userID)
		if !ok || hubID == "" {
			continue
		}
		if _, err := s.hub.Sync(ctx, BuildSyncRequest(hubID, pet)); err != nil {
			s.logger.Debugf(providers.TypeApp, "Hub sync for %s failed: %s", userID, err)
		}
	}
}

// BuildSyncRequest maps local pet state onto the HUB's wire schema.
func BuildSyncRequest(hubID string, pet *models.PetRecord) gateways.HubSyncRequest {
	history := pet.TrainingHistory
	if len(history) > syncHistoryEntries {
		history = history[:syncHistoryEntries]
	}
	return gateways.HubSyncRequest{
		RegenmonID: hubID,
		Stats: gateways.HubStats{
			Happiness: pet.Vitality,
			Energy:    pet.Energy,
			Hunger:    pet.Nutrition,
		},
		TotalPoints:     pet.TotalPoints,
		TrainingHistory: append([]models.TrainingEntry(nil), history...),
	}
}
