package services

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/architeacher/storefront/pkg/logger"
	"github.com/architeacher/storefront/services/svc-storefront/internal/domain/model"
	"github.com/architeacher/storefront/services/svc-storefront/internal/ports"
	"github.com/google/uuid"
)

const syncLockName = "catalog-sync"

type (
	// CatalogSynchronizer pulls the full external catalog and reconciles it
	// into the catalog store by natural key. Only one run is active at a time
	// per process, and per deployment when a distributed lock is configured.
	CatalogSynchronizer struct {
		source    ports.CatalogSource
		store     ports.CatalogStore
		publisher ports.EventPublisher
		lock      ports.DistributedLock
		lockTTL   time.Duration
		logger    logger.Logger
		now       func() time.Time

		running atomic.Bool
	}

	SynchronizerOption func(*CatalogSynchronizer)
)

var _ ports.CatalogSynchronizer = (*CatalogSynchronizer)(nil)

// WithDistributedLock makes runs exclusive across instances.
func WithDistributedLock(lock ports.DistributedLock, ttl time.Duration) SynchronizerOption {
	return func(s *CatalogSynchronizer) {
		s.lock = lock
		s.lockTTL = ttl
	}
}

func WithSynchronizerClock(now func() time.Time) SynchronizerOption {
	return func(s *CatalogSynchronizer) {
		s.now = now
	}
}

func NewCatalogSynchronizer(
	source ports.CatalogSource,
	store ports.CatalogStore,
	publisher ports.EventPublisher,
	log logger.Logger,
	opts ...SynchronizerOption,
) *CatalogSynchronizer {
	s := &CatalogSynchronizer{
		source:    source,
		store:     store,
		publisher: publisher,
		logger:    log.Component("catalog-synchronizer"),
		now:       func() time.Time { return time.Now().UTC() },
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Sync runs one reconciliation pass. It fails with model.ErrSyncInProgress
// when another run holds the guard. The whole pass is one transaction: the
// first failing device rolls back everything written by the run.
func (s *CatalogSynchronizer) Sync(ctx context.Context) (*model.SyncResult, error) {
	if !s.running.CompareAndSwap(false, true) {
		return nil, model.ErrSyncInProgress
	}
	defer s.running.Store(false)

	if s.lock != nil {
		acquired, err := s.lock.TryAcquire(ctx, syncLockName, s.lockTTL)
		if err != nil {
			return nil, fmt.Errorf("acquiring sync lock: %w", err)
		}

		if !acquired {
			return nil, model.ErrSyncInProgress
		}

		defer func() {
			if err := s.lock.Release(context.WithoutCancel(ctx), syncLockName); err != nil {
				s.logger.Warn().Err(err).Msg("failed to release sync lock")
			}
		}()
	}

	runID := uuid.NewString()
	ctx = context.WithValue(ctx, logger.ContextKeySyncRunID, runID)
	log := s.logger.WithContext(ctx)

	result := &model.SyncResult{
		Devices: make([]model.SyncedDevice, 0),
		Report: model.SyncReport{
			RunID:     runID,
			StartedAt: s.now(),
		},
	}

	external, err := s.source.FetchCatalog(ctx)
	if err != nil {
		return nil, err
	}

	if len(external) == 0 {
		log.Warn().Msg("catalog source returned no devices, nothing to synchronize")
		result.Report.FinishedAt = s.now()

		return result, nil
	}

	err = s.store.InTx(ctx, func(ctx context.Context, w ports.CatalogWriter) error {
		report := result.Report
		devices := make([]model.SyncedDevice, 0, len(external))

		for _, ext := range external {
			synced, err := s.reconcileDevice(ctx, w, ext, &report)
			if err != nil {
				return err
			}

			devices = append(devices, synced)
		}

		result.Devices = devices
		result.Report = report

		return nil
	})
	if err != nil {
		return nil, err
	}

	result.Report.FinishedAt = s.now()

	log.Info().
		Int("devices", len(result.Devices)).
		Int("touched", len(result.TouchedDevices())).
		Int("created", result.Report.Devices.Created).
		Int("updated", result.Report.Devices.Updated).
		Bool("changed", result.Report.Changed()).
		Dur("duration", result.Report.FinishedAt.Sub(result.Report.StartedAt)).
		Msg("catalog synchronized")

	if err := s.publisher.PublishCatalogSynchronized(ctx, result.Report); err != nil {
		log.Warn().Err(err).Msg("failed to publish catalog synchronized event")
	}

	return result, nil
}

func (s *CatalogSynchronizer) reconcileDevice(
	ctx context.Context,
	w ports.CatalogWriter,
	ext model.ExternalDevice,
	report *model.SyncReport,
) (model.SyncedDevice, error) {
	if err := model.ValidateExternalDevice(ext); err != nil {
		return model.SyncedDevice{}, err
	}

	local, err := w.FindDeviceByCode(ctx, ext.Code)
	if err != nil {
		return model.SyncedDevice{}, fmt.Errorf("looking up device %s: %w", ext.Code, err)
	}

	device, outcome, err := model.ReconcileDevice(local, ext, s.now())
	if err != nil {
		return model.SyncedDevice{}, err
	}

	if outcome.Changed() {
		if err := w.SaveDevice(ctx, device); err != nil {
			return model.SyncedDevice{}, fmt.Errorf("saving device %s: %w", ext.Code, err)
		}
	}

	report.Devices.Record(outcome)

	children := &childReconciler{w: w, report: report}
	device.Features = children.features(ctx, device.ID, ext.Features)
	device.Customizations = children.customizations(ctx, device.ID, ext.Customizations)
	device.Addons = children.addons(ctx, device.ID, ext.Addons)

	if children.err != nil {
		return model.SyncedDevice{}, fmt.Errorf("device %s: %w", ext.Code, children.err)
	}

	return model.SyncedDevice{
		Device:       device,
		Outcome:      outcome,
		ChildChanges: children.changes,
	}, nil
}

// childReconciler walks the nested records of one device. It stops at the
// first error and keeps it in err.
type childReconciler struct {
	w       ports.CatalogWriter
	report  *model.SyncReport
	changes int
	err     error
}

func (c *childReconciler) record(counts *model.EntityCounts, outcome model.Outcome) {
	counts.Record(outcome)

	if outcome.Changed() {
		c.changes++
	}
}

func (c *childReconciler) features(ctx context.Context, deviceID model.ID, exts []model.ExternalFeature) []model.Feature {
	features := make([]model.Feature, 0, len(exts))

	for _, ext := range exts {
		if c.err != nil {
			return nil
		}

		local, err := c.w.FindFeatureByName(ctx, deviceID, ext.Name)
		if err != nil {
			c.err = fmt.Errorf("looking up feature %q: %w", ext.Name, err)

			return nil
		}

		feature, outcome := model.ReconcileFeature(local, deviceID, ext)
		if outcome.Changed() {
			if err := c.w.SaveFeature(ctx, feature); err != nil {
				c.err = fmt.Errorf("saving feature %q: %w", ext.Name, err)

				return nil
			}
		}

		c.record(&c.report.Features, outcome)
		features = append(features, *feature)
	}

	return features
}

func (c *childReconciler) customizations(ctx context.Context, deviceID model.ID, exts []model.ExternalCustomization) []model.Customization {
	customizations := make([]model.Customization, 0, len(exts))

	for _, ext := range exts {
		if c.err != nil {
			return nil
		}

		local, err := c.w.FindCustomizationByName(ctx, deviceID, ext.Name)
		if err != nil {
			c.err = fmt.Errorf("looking up customization %q: %w", ext.Name, err)

			return nil
		}

		customization, outcome := model.ReconcileCustomization(local, deviceID, ext)
		if outcome.Changed() {
			if err := c.w.SaveCustomization(ctx, customization); err != nil {
				c.err = fmt.Errorf("saving customization %q: %w", ext.Name, err)

				return nil
			}
		}

		c.record(&c.report.Customizations, outcome)
		customization.Options = c.options(ctx, customization.ID, ext.Options)
		customizations = append(customizations, *customization)
	}

	return customizations
}

func (c *childReconciler) options(ctx context.Context, customizationID model.ID, exts []model.ExternalOption) []model.Option {
	options := make([]model.Option, 0, len(exts))

	for _, ext := range exts {
		if c.err != nil {
			return nil
		}

		local, err := c.w.FindOptionByCode(ctx, customizationID, ext.Code)
		if err != nil {
			c.err = fmt.Errorf("looking up option %q: %w", ext.Code, err)

			return nil
		}

		option, outcome := model.ReconcileOption(local, customizationID, ext)
		if outcome.Changed() {
			if err := c.w.SaveOption(ctx, option); err != nil {
				c.err = fmt.Errorf("saving option %q: %w", ext.Code, err)

				return nil
			}
		}

		c.record(&c.report.Options, outcome)
		options = append(options, *option)
	}

	return options
}

func (c *childReconciler) addons(ctx context.Context, deviceID model.ID, exts []model.ExternalAddon) []model.Addon {
	addons := make([]model.Addon, 0, len(exts))

	for _, ext := range exts {
		if c.err != nil {
			return nil
		}

		local, err := c.w.FindAddonByName(ctx, deviceID, ext.Name)
		if err != nil {
			c.err = fmt.Errorf("looking up add-on %q: %w", ext.Name, err)

			return nil
		}

		addon, outcome := model.ReconcileAddon(local, deviceID, ext)
		if outcome.Changed() {
			if err := c.w.SaveAddon(ctx, addon); err != nil {
				c.err = fmt.Errorf("saving add-on %q: %w", ext.Name, err)

				return nil
			}
		}

		c.record(&c.report.Addons, outcome)
		addons = append(addons, *addon)
	}

	return addons
}

// IsSyncInProgress reports whether err means the run was skipped because
// another one is active.
func IsSyncInProgress(err error) bool {
	return errors.Is(err, model.ErrSyncInProgress)
}
