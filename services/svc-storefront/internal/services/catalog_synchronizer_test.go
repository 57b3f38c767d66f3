package services_test

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/architeacher/storefront/pkg/logger"
	"github.com/architeacher/storefront/services/svc-storefront/internal/domain/model"
	"github.com/architeacher/storefront/services/svc-storefront/internal/services"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func dec(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func externalCatalog() []model.ExternalDevice {
	return []model.ExternalDevice{
		{
			ID:          7,
			Code:        "PHN-001",
			Name:        "Phone X",
			Description: "Flagship phone",
			BasePrice:   dec("100"),
			Currency:    "USD",
			Features: []model.ExternalFeature{
				{ID: 11, Name: "Screen", Description: "6.1 inch"},
			},
			Customizations: []model.ExternalCustomization{
				{
					ID:   21,
					Name: "Color",
					Options: []model.ExternalOption{
						{ID: 31, Code: "BLK", Name: "Black", AdditionalPrice: dec("0")},
						{ID: 32, Code: "GLD", Name: "Gold", AdditionalPrice: dec("15")},
					},
				},
			},
			Addons: []model.ExternalAddon{
				{ID: 41, Name: "Case", Price: dec("20"), FreeAbovePrice: dec("120")},
				{ID: 42, Name: "Charger", Price: dec("25"), FreeAbovePrice: dec("-1")},
			},
		},
		{
			ID:        8,
			Code:      "TAB-001",
			Name:      "Tablet",
			BasePrice: dec("300"),
			Currency:  "EUR",
		},
	}
}

type synchronizerFixture struct {
	source    *staticSource
	store     *memoryCatalog
	publisher *recordingPublisher
	sync      *services.CatalogSynchronizer
}

func newSynchronizerFixture(devices []model.ExternalDevice, opts ...services.SynchronizerOption) *synchronizerFixture {
	f := &synchronizerFixture{
		source:    &staticSource{devices: devices},
		store:     newMemoryCatalog(),
		publisher: &recordingPublisher{},
	}

	f.sync = services.NewCatalogSynchronizer(f.source, f.store, f.publisher, logger.NewTestLogger(), opts...)

	return f
}

func TestCatalogSynchronizer_Sync(t *testing.T) {
	t.Parallel()

	t.Run("first run creates every record", func(t *testing.T) {
		t.Parallel()

		f := newSynchronizerFixture(externalCatalog())

		result, err := f.sync.Sync(t.Context())
		require.NoError(t, err)

		devices, features, customizations, options, addons := f.store.counts()
		require.Equal(t, 2, devices)
		require.Equal(t, 1, features)
		require.Equal(t, 1, customizations)
		require.Equal(t, 2, options)
		require.Equal(t, 2, addons)

		require.Len(t, result.Devices, 2)
		require.Len(t, result.TouchedDevices(), 2)
		require.Equal(t, 2, result.Report.Devices.Created)
		require.Equal(t, 2, result.Report.Options.Created)
		require.True(t, result.Report.Changed())
		require.NotEmpty(t, result.Report.RunID)
		require.Equal(t, 1, f.publisher.syncCount())

		phone := result.Devices[0].Device
		require.Equal(t, "PHN-001", phone.Code)
		require.Len(t, phone.Customizations, 1)
		require.Len(t, phone.Customizations[0].Options, 2)
		require.Len(t, phone.Addons, 2)
	})

	t.Run("second identical run writes nothing", func(t *testing.T) {
		t.Parallel()

		f := newSynchronizerFixture(externalCatalog())

		first, err := f.sync.Sync(t.Context())
		require.NoError(t, err)

		writes := f.store.writeCount()

		second, err := f.sync.Sync(t.Context())
		require.NoError(t, err)

		require.Equal(t, writes, f.store.writeCount())
		require.Empty(t, second.TouchedDevices())
		require.False(t, second.Report.Changed())
		require.Equal(t, 2, second.Report.Devices.Unchanged)
		require.Equal(t, first.Devices[0].Device.ID, second.Devices[0].Device.ID)

		devices, _, _, options, _ := f.store.counts()
		require.Equal(t, 2, devices)
		require.Equal(t, 2, options)
	})

	t.Run("changed attributes update rows in place", func(t *testing.T) {
		t.Parallel()

		f := newSynchronizerFixture(externalCatalog())

		first, err := f.sync.Sync(t.Context())
		require.NoError(t, err)

		changed := externalCatalog()
		changed[0].BasePrice = dec("115")
		changed[0].Addons[0].FreeAbovePrice = dec("-1")
		f.source.set(changed)

		second, err := f.sync.Sync(t.Context())
		require.NoError(t, err)

		require.Equal(t, 1, second.Report.Devices.Updated)
		require.Equal(t, 1, second.Report.Addons.Updated)
		require.Len(t, second.TouchedDevices(), 1)

		phone, err := f.store.FetchDevice(t.Context(), first.Devices[0].Device.ID)
		require.NoError(t, err)
		require.True(t, dec("115").Equal(phone.BasePrice))

		caseAddon, ok := f.store.addonByName(phone.ID, "Case")
		require.True(t, ok)
		require.True(t, caseAddon.FreeAbovePrice.IsNegative())

		devices, _, _, _, addons := f.store.counts()
		require.Equal(t, 2, devices)
		require.Equal(t, 2, addons)
	})

	t.Run("locally created device is linked by code", func(t *testing.T) {
		t.Parallel()

		f := newSynchronizerFixture(externalCatalog()[:1])

		local := model.Device{
			ID:        model.NewID(),
			Code:      "PHN-001",
			Name:      "Phone X",
			BasePrice: dec("100"),
			Currency:  model.CurrencyUSD,
		}
		f.store.devices[local.ID] = local

		result, err := f.sync.Sync(t.Context())
		require.NoError(t, err)

		require.Equal(t, local.ID, result.Devices[0].Device.ID)
		require.Equal(t, model.OutcomeUpdated, result.Devices[0].Outcome)

		linked, err := f.store.FetchDevice(t.Context(), local.ID)
		require.NoError(t, err)
		require.Equal(t, int64(7), linked.ExternalIDValue())
	})

	t.Run("empty catalog is a no-op", func(t *testing.T) {
		t.Parallel()

		f := newSynchronizerFixture(nil)

		result, err := f.sync.Sync(t.Context())
		require.NoError(t, err)

		require.Empty(t, result.Devices)
		require.Zero(t, f.store.txCount)
		require.Zero(t, f.publisher.syncCount())
	})

	t.Run("source failure writes nothing", func(t *testing.T) {
		t.Parallel()

		f := newSynchronizerFixture(nil)
		f.source.err = model.ErrCatalogUnavailable

		_, err := f.sync.Sync(t.Context())
		require.ErrorIs(t, err, model.ErrCatalogUnavailable)
		require.Zero(t, f.store.writeCount())
	})

	t.Run("invalid record rolls back the whole run", func(t *testing.T) {
		t.Parallel()

		catalog := externalCatalog()
		catalog[1].Currency = "GBP"

		f := newSynchronizerFixture(catalog)

		_, err := f.sync.Sync(t.Context())
		require.ErrorIs(t, err, model.ErrInvalidCurrency)

		devices, _, _, options, _ := f.store.counts()
		require.Zero(t, devices)
		require.Zero(t, options)
		require.Zero(t, f.publisher.syncCount())
	})

	t.Run("write failure rolls back the whole run", func(t *testing.T) {
		t.Parallel()

		f := newSynchronizerFixture(externalCatalog())
		f.store.failOn = "addon"

		_, err := f.sync.Sync(t.Context())
		require.ErrorIs(t, err, errInjected)

		devices, features, _, _, addons := f.store.counts()
		require.Zero(t, devices)
		require.Zero(t, features)
		require.Zero(t, addons)
	})

	t.Run("publish failure does not fail the run", func(t *testing.T) {
		t.Parallel()

		f := newSynchronizerFixture(externalCatalog())
		f.publisher.err = errors.New("broker down")

		result, err := f.sync.Sync(t.Context())
		require.NoError(t, err)
		require.Len(t, result.Devices, 2)
	})
}

func TestCatalogSynchronizer_Exclusive(t *testing.T) {
	t.Parallel()

	t.Run("concurrent run is rejected", func(t *testing.T) {
		t.Parallel()

		f := newSynchronizerFixture(externalCatalog())
		f.source.block = make(chan struct{})

		var (
			wg       sync.WaitGroup
			firstErr error
		)

		wg.Add(1)
		go func() {
			defer wg.Done()

			_, firstErr = f.sync.Sync(t.Context())
		}()

		require.Eventually(t, func() bool {
			return f.source.callCount() == 1
		}, time.Second, 5*time.Millisecond)

		_, err := f.sync.Sync(t.Context())
		require.ErrorIs(t, err, model.ErrSyncInProgress)
		require.True(t, services.IsSyncInProgress(err))

		close(f.source.block)
		wg.Wait()

		require.NoError(t, firstErr)
	})

	t.Run("held distributed lock skips the run", func(t *testing.T) {
		t.Parallel()

		lock := &fakeLock{held: true}
		f := newSynchronizerFixture(externalCatalog(), services.WithDistributedLock(lock, time.Minute))

		_, err := f.sync.Sync(t.Context())
		require.ErrorIs(t, err, model.ErrSyncInProgress)
		require.Zero(t, f.source.callCount())
	})

	t.Run("distributed lock is released after the run", func(t *testing.T) {
		t.Parallel()

		lock := &fakeLock{}
		f := newSynchronizerFixture(externalCatalog(), services.WithDistributedLock(lock, time.Minute))

		_, err := f.sync.Sync(t.Context())
		require.NoError(t, err)
		require.Equal(t, 1, lock.released)
		require.False(t, lock.held)
	})

	t.Run("lock failure aborts the run", func(t *testing.T) {
		t.Parallel()

		lock := &fakeLock{err: errors.New("keydb unavailable")}
		f := newSynchronizerFixture(externalCatalog(), services.WithDistributedLock(lock, time.Minute))

		_, err := f.sync.Sync(t.Context())
		require.Error(t, err)
		require.False(t, services.IsSyncInProgress(err))
		require.Zero(t, f.source.callCount())
	})
}
