package services_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/architeacher/storefront/services/svc-storefront/internal/domain/model"
	"github.com/architeacher/storefront/services/svc-storefront/internal/ports"
)

type memoryCatalog struct {
	mu sync.Mutex

	devices        map[model.ID]model.Device
	features       map[model.ID]model.Feature
	customizations map[model.ID]model.Customization
	options        map[model.ID]model.Option
	addons         map[model.ID]model.Addon

	writes  int
	failOn  string
	txCount int
}

var (
	_ ports.CatalogStore  = (*memoryCatalog)(nil)
	_ ports.CatalogWriter = (*memoryCatalogWriter)(nil)
)

func newMemoryCatalog() *memoryCatalog {
	return &memoryCatalog{
		devices:        make(map[model.ID]model.Device),
		features:       make(map[model.ID]model.Feature),
		customizations: make(map[model.ID]model.Customization),
		options:        make(map[model.ID]model.Option),
		addons:         make(map[model.ID]model.Addon),
	}
}

func (m *memoryCatalog) FetchDevice(_ context.Context, id model.ID) (*model.Device, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	device, ok := m.devices[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", model.ErrDeviceNotFound, id)
	}

	return &device, nil
}

func (m *memoryCatalog) FetchCustomization(_ context.Context, id model.ID) (*model.Customization, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	customization, ok := m.customizations[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", model.ErrCustomizationNotFound, id)
	}

	return &customization, nil
}

func (m *memoryCatalog) FetchOption(_ context.Context, id model.ID) (*model.Option, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	option, ok := m.options[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", model.ErrOptionNotFound, id)
	}

	return &option, nil
}

func (m *memoryCatalog) FetchAddon(_ context.Context, id model.ID) (*model.Addon, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	addon, ok := m.addons[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", model.ErrAddonNotFound, id)
	}

	return &addon, nil
}

func (m *memoryCatalog) ListOptionsByCustomization(_ context.Context, customizationID model.ID) ([]model.Option, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	options := make([]model.Option, 0)
	for _, option := range m.options {
		if option.CustomizationID == customizationID {
			options = append(options, option)
		}
	}

	slices.SortFunc(options, func(a, b model.Option) int {
		return bytes.Compare(a.ID.UUID[:], b.ID.UUID[:])
	})

	return options, nil
}

func (m *memoryCatalog) InTx(ctx context.Context, fn func(ctx context.Context, w ports.CatalogWriter) error) error {
	m.mu.Lock()
	m.txCount++
	snapshot := m.clone()
	m.mu.Unlock()

	if err := fn(ctx, &memoryCatalogWriter{store: m}); err != nil {
		m.mu.Lock()
		m.restore(snapshot)
		m.mu.Unlock()

		return err
	}

	return nil
}

func (m *memoryCatalog) clone() *memoryCatalog {
	return &memoryCatalog{
		devices:        maps.Clone(m.devices),
		features:       maps.Clone(m.features),
		customizations: maps.Clone(m.customizations),
		options:        maps.Clone(m.options),
		addons:         maps.Clone(m.addons),
		writes:         m.writes,
	}
}

func (m *memoryCatalog) restore(snapshot *memoryCatalog) {
	m.devices = snapshot.devices
	m.features = snapshot.features
	m.customizations = snapshot.customizations
	m.options = snapshot.options
	m.addons = snapshot.addons
	m.writes = snapshot.writes
}

func (m *memoryCatalog) deviceByCode(code string) (model.Device, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, device := range m.devices {
		if device.Code == code {
			return device, true
		}
	}

	return model.Device{}, false
}

func (m *memoryCatalog) addonByName(deviceID model.ID, name string) (model.Addon, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, addon := range m.addons {
		if addon.DeviceID == deviceID && addon.Name == name {
			return addon, true
		}
	}

	return model.Addon{}, false
}

func (m *memoryCatalog) writeCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.writes
}

func (m *memoryCatalog) counts() (devices, features, customizations, options, addons int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.devices), len(m.features), len(m.customizations), len(m.options), len(m.addons)
}

type memoryCatalogWriter struct {
	store *memoryCatalog
}

var errInjected = errors.New("injected write failure")

func (w *memoryCatalogWriter) write(kind string, apply func()) error {
	w.store.mu.Lock()
	defer w.store.mu.Unlock()

	if w.store.failOn == kind {
		return errInjected
	}

	w.store.writes++
	apply()

	return nil
}

func (w *memoryCatalogWriter) FindDeviceByCode(_ context.Context, code string) (*model.Device, error) {
	device, ok := w.store.deviceByCode(code)
	if !ok {
		return nil, nil
	}

	return &device, nil
}

func (w *memoryCatalogWriter) FindFeatureByName(_ context.Context, deviceID model.ID, name string) (*model.Feature, error) {
	w.store.mu.Lock()
	defer w.store.mu.Unlock()

	for _, feature := range w.store.features {
		if feature.DeviceID == deviceID && feature.Name == name {
			return &feature, nil
		}
	}

	return nil, nil
}

func (w *memoryCatalogWriter) FindCustomizationByName(_ context.Context, deviceID model.ID, name string) (*model.Customization, error) {
	w.store.mu.Lock()
	defer w.store.mu.Unlock()

	for _, customization := range w.store.customizations {
		if customization.DeviceID == deviceID && customization.Name == name {
			return &customization, nil
		}
	}

	return nil, nil
}

func (w *memoryCatalogWriter) FindOptionByCode(_ context.Context, customizationID model.ID, code string) (*model.Option, error) {
	w.store.mu.Lock()
	defer w.store.mu.Unlock()

	for _, option := range w.store.options {
		if option.CustomizationID == customizationID && option.Code == code {
			return &option, nil
		}
	}

	return nil, nil
}

func (w *memoryCatalogWriter) FindAddonByName(_ context.Context, deviceID model.ID, name string) (*model.Addon, error) {
	addon, ok := w.store.addonByName(deviceID, name)
	if !ok {
		return nil, nil
	}

	return &addon, nil
}

func (w *memoryCatalogWriter) SaveDevice(_ context.Context, device *model.Device) error {
	row := *device
	row.Features, row.Customizations, row.Addons = nil, nil, nil

	return w.write("device", func() { w.store.devices[row.ID] = row })
}

func (w *memoryCatalogWriter) SaveFeature(_ context.Context, feature *model.Feature) error {
	return w.write("feature", func() { w.store.features[feature.ID] = *feature })
}

func (w *memoryCatalogWriter) SaveCustomization(_ context.Context, customization *model.Customization) error {
	row := *customization
	row.Options = nil

	return w.write("customization", func() { w.store.customizations[row.ID] = row })
}

func (w *memoryCatalogWriter) SaveOption(_ context.Context, option *model.Option) error {
	return w.write("option", func() { w.store.options[option.ID] = *option })
}

func (w *memoryCatalogWriter) SaveAddon(_ context.Context, addon *model.Addon) error {
	return w.write("addon", func() { w.store.addons[addon.ID] = *addon })
}

type staticSource struct {
	mu      sync.Mutex
	devices []model.ExternalDevice
	err     error
	calls   int
	block   chan struct{}
}

func (s *staticSource) FetchCatalog(ctx context.Context) ([]model.ExternalDevice, error) {
	s.mu.Lock()
	s.calls++
	block := s.block
	s.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.devices, s.err
}

func (s *staticSource) set(devices []model.ExternalDevice) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.devices = devices
}

func (s *staticSource) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.calls
}

type memorySales struct {
	mu    sync.Mutex
	sales map[model.ID]model.Sale
	err   error
}

func newMemorySales() *memorySales {
	return &memorySales{sales: make(map[model.ID]model.Sale)}
}

func (m *memorySales) Save(_ context.Context, sale *model.Sale) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return m.err
	}

	m.sales[sale.ID] = *sale

	return nil
}

func (m *memorySales) FetchByID(_ context.Context, id model.ID) (*model.Sale, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	sale, ok := m.sales[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", model.ErrSaleNotFound, id)
	}

	return &sale, nil
}

func (m *memorySales) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.sales)
}

type recordingPublisher struct {
	mu    sync.Mutex
	sales []model.ID
	syncs []model.SyncReport
	err   error
	block chan struct{}
}

func (p *recordingPublisher) PublishSaleRegistered(ctx context.Context, sale *model.Sale) error {
	if p.block != nil {
		select {
		case <-p.block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.sales = append(p.sales, sale.ID)

	return p.err
}

func (p *recordingPublisher) PublishCatalogSynchronized(_ context.Context, report model.SyncReport) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.syncs = append(p.syncs, report)

	return p.err
}

func (p *recordingPublisher) Close() error {
	return nil
}

func (p *recordingPublisher) syncCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	return len(p.syncs)
}

func (p *recordingPublisher) saleCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	return len(p.sales)
}

type recordingReporter struct {
	mu      sync.Mutex
	reports []model.SaleReport
	err     error
	done    chan struct{}
}

func newRecordingReporter() *recordingReporter {
	return &recordingReporter{done: make(chan struct{}, 16)}
}

func (r *recordingReporter) Report(_ context.Context, report model.SaleReport) error {
	r.mu.Lock()
	r.reports = append(r.reports, report)
	err := r.err
	r.mu.Unlock()

	r.done <- struct{}{}

	return err
}

func (r *recordingReporter) all() []model.SaleReport {
	r.mu.Lock()
	defer r.mu.Unlock()

	return slices.Clone(r.reports)
}

type recordingNotifier struct {
	mu    sync.Mutex
	sales []model.Sale
	err   error
}

func (n *recordingNotifier) Notify(_ context.Context, sale *model.Sale) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.sales = append(n.sales, *sale)

	return n.err
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()

	return len(n.sales)
}

type fakeLock struct {
	mu       sync.Mutex
	held     bool
	err      error
	released int
}

func (l *fakeLock) TryAcquire(context.Context, string, time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.err != nil {
		return false, l.err
	}

	if l.held {
		return false, nil
	}

	l.held = true

	return true, nil
}

func (l *fakeLock) Release(context.Context, string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.held = false
	l.released++

	return nil
}
