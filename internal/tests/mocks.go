package tests

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"

	"haulmatch/internal/domain"
	"haulmatch/internal/repository"
)

// ──────────────────────────────────────────────
// MOCK TRIP REPOSITORY
// ──────────────────────────────────────────────

// MockTripRepository is a mock implementation of TripRepository.
//
// When attached to a MockTxManager, direct writes serialize on the
// transaction mutex, the way a conditional UPDATE blocks on a row lock
// held by an open transaction.
type MockTripRepository struct {
	mu     sync.RWMutex
	trips  map[int64]*domain.Trip
	nextID int64
	txmu   *sync.Mutex

	// Reservations backs ListByDriverReservation, which joins the two
	// tables in the real store.
	Reservations *MockReservationRepository

	// Counters for verification
	CreateCallCount       int32
	UpdateStatusCallCount int32

	// Error injection
	CreateError       error
	UpdateStatusError error
}

// NewMockTripRepository creates a new mock trip repository.
func NewMockTripRepository() *MockTripRepository {
	return &MockTripRepository{
		trips: make(map[int64]*domain.Trip),
	}
}

// AddTrip adds a trip to the mock repository, assigning an ID if unset.
func (m *MockTripRepository) AddTrip(trip *domain.Trip) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if trip.ID == 0 {
		m.nextID++
		trip.ID = m.nextID
	}
	m.trips[trip.ID] = trip
}

func (m *MockTripRepository) Create(ctx context.Context, trip *domain.Trip) error {
	if m.txmu != nil {
		m.txmu.Lock()
		defer m.txmu.Unlock()
	}
	return m.create(ctx, trip)
}

func (m *MockTripRepository) create(_ context.Context, trip *domain.Trip) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	trip.ID = m.nextID
	copy := *trip
	m.trips[trip.ID] = &copy
	return nil
}

func (m *MockTripRepository) GetByID(ctx context.Context, id int64) (*domain.Trip, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	trip, ok := m.trips[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	// Return a copy to avoid mutation issues.
	copy := *trip
	return &copy, nil
}

func (m *MockTripRepository) ListByStatus(ctx context.Context, status domain.TripStatus) ([]*domain.Trip, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*domain.Trip
	for _, t := range m.trips {
		if t.Status == status {
			copy := *t
			result = append(result, &copy)
		}
	}
	return result, nil
}

func (m *MockTripRepository) ListByCompany(ctx context.Context, companyID int64) ([]*domain.Trip, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*domain.Trip
	for _, t := range m.trips {
		if t.CompanyID == companyID {
			copy := *t
			result = append(result, &copy)
		}
	}
	sortNewestFirst(result)
	return result, nil
}

func (m *MockTripRepository) ListByDriverReservation(ctx context.Context, driverID int64) ([]*domain.Trip, error) {
	if m.Reservations == nil {
		return nil, nil
	}
	tripIDs := m.Reservations.tripIDsForDriver(driverID)

	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*domain.Trip
	for _, id := range tripIDs {
		if t, ok := m.trips[id]; ok {
			copy := *t
			result = append(result, &copy)
		}
	}
	sortNewestFirst(result)
	return result, nil
}

func (m *MockTripRepository) UpdateStatus(ctx context.Context, id int64, to domain.TripStatus, from ...domain.TripStatus) error {
	if m.txmu != nil {
		m.txmu.Lock()
		defer m.txmu.Unlock()
	}
	return m.updateStatus(ctx, id, to, from...)
}

func (m *MockTripRepository) updateStatus(_ context.Context, id int64, to domain.TripStatus, from ...domain.TripStatus) error {
	atomic.AddInt32(&m.UpdateStatusCallCount, 1)
	if m.UpdateStatusError != nil {
		return m.UpdateStatusError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	trip, ok := m.trips[id]
	if !ok {
		return repository.ErrStatusConflict
	}
	for _, s := range from {
		if trip.Status == s {
			trip.Status = to
			return nil
		}
	}
	return repository.ErrStatusConflict
}

// GetTrip returns the trip by ID (for test assertions).
func (m *MockTripRepository) GetTrip(id int64) *domain.Trip {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.trips[id]
}

// AllTrips returns all trips for assertions.
func (m *MockTripRepository) AllTrips() []*domain.Trip {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*domain.Trip, 0, len(m.trips))
	for _, t := range m.trips {
		result = append(result, t)
	}
	return result
}

func (m *MockTripRepository) snapshot() map[int64]domain.Trip {
	m.mu.RLock()
	defer m.mu.RUnlock()
	snap := make(map[int64]domain.Trip, len(m.trips))
	for id, t := range m.trips {
		snap[id] = *t
	}
	return snap
}

func (m *MockTripRepository) restore(snap map[int64]domain.Trip) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.trips = make(map[int64]*domain.Trip, len(snap))
	for id, t := range snap {
		copy := t
		m.trips[id] = &copy
	}
}

func sortNewestFirst(trips []*domain.Trip) {
	sort.Slice(trips, func(i, j int) bool {
		return trips[i].CreatedAt.After(trips[j].CreatedAt)
	})
}

// ──────────────────────────────────────────────
// MOCK RESERVATION REPOSITORY
// ──────────────────────────────────────────────

// MockReservationRepository is a mock implementation of
// ReservationRepository. Keying by trip ID mirrors the store's per-trip
// uniqueness constraint: a second Create for the same trip fails with
// ErrDuplicate.
type MockReservationRepository struct {
	mu           sync.RWMutex
	reservations map[int64]*domain.Reservation
	txmu         *sync.Mutex

	// Counters for verification
	CreateCallCount int32
	DeleteCallCount int32

	// Error injection
	CreateError error
}

// NewMockReservationRepository creates a new mock reservation repository.
func NewMockReservationRepository() *MockReservationRepository {
	return &MockReservationRepository{
		reservations: make(map[int64]*domain.Reservation),
	}
}

func (m *MockReservationRepository) Create(ctx context.Context, reservation *domain.Reservation) error {
	if m.txmu != nil {
		m.txmu.Lock()
		defer m.txmu.Unlock()
	}
	return m.create(ctx, reservation)
}

func (m *MockReservationRepository) create(_ context.Context, reservation *domain.Reservation) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.reservations[reservation.TripID]; exists {
		return repository.ErrDuplicate
	}
	copy := *reservation
	m.reservations[reservation.TripID] = &copy
	return nil
}

func (m *MockReservationRepository) GetByTripID(ctx context.Context, tripID int64) (*domain.Reservation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	reservation, ok := m.reservations[tripID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *reservation
	return &copy, nil
}

func (m *MockReservationRepository) DeleteByTripID(ctx context.Context, tripID int64) error {
	if m.txmu != nil {
		m.txmu.Lock()
		defer m.txmu.Unlock()
	}
	return m.deleteByTripID(ctx, tripID)
}

func (m *MockReservationRepository) deleteByTripID(_ context.Context, tripID int64) error {
	atomic.AddInt32(&m.DeleteCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.reservations, tripID)
	return nil
}

func (m *MockReservationRepository) DeleteForDriver(ctx context.Context, tripID, driverID int64) error {
	if m.txmu != nil {
		m.txmu.Lock()
		defer m.txmu.Unlock()
	}
	return m.deleteForDriver(ctx, tripID, driverID)
}

func (m *MockReservationRepository) deleteForDriver(_ context.Context, tripID, driverID int64) error {
	atomic.AddInt32(&m.DeleteCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	reservation, ok := m.reservations[tripID]
	if !ok || reservation.DriverID != driverID {
		return repository.ErrNotFound
	}
	delete(m.reservations, tripID)
	return nil
}

// CountReservations returns the number of reservations.
func (m *MockReservationRepository) CountReservations() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.reservations)
}

// GetReservation returns the reservation for a trip (for test assertions).
func (m *MockReservationRepository) GetReservation(tripID int64) *domain.Reservation {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.reservations[tripID]
}

func (m *MockReservationRepository) tripIDsForDriver(driverID int64) []int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var ids []int64
	for _, r := range m.reservations {
		if r.DriverID == driverID {
			ids = append(ids, r.TripID)
		}
	}
	return ids
}

func (m *MockReservationRepository) snapshot() map[int64]domain.Reservation {
	m.mu.RLock()
	defer m.mu.RUnlock()
	snap := make(map[int64]domain.Reservation, len(m.reservations))
	for id, r := range m.reservations {
		snap[id] = *r
	}
	return snap
}

func (m *MockReservationRepository) restore(snap map[int64]domain.Reservation) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reservations = make(map[int64]*domain.Reservation, len(snap))
	for id, r := range snap {
		copy := r
		m.reservations[id] = &copy
	}
}

// ──────────────────────────────────────────────
// MOCK TX MANAGER
// ──────────────────────────────────────────────

// MockTxManager emulates the store's atomic combined write with a single
// mutex guarding the whole transaction, and snapshot/restore for
// rollback. Concurrent transactions and direct writes serialize on that
// mutex, matching how the store's row locks order them; reads stay
// lock-free.
type MockTxManager struct {
	mu           sync.Mutex
	trips        *MockTripRepository
	reservations *MockReservationRepository

	// Counters for verification
	WithinTxCallCount int32

	// Error injection
	BeginError error
}

// NewMockTxManager creates a new mock transaction manager over the given
// repositories and attaches them to its transaction mutex.
func NewMockTxManager(trips *MockTripRepository, reservations *MockReservationRepository) *MockTxManager {
	m := &MockTxManager{trips: trips, reservations: reservations}
	trips.txmu = &m.mu
	reservations.txmu = &m.mu
	return m
}

func (m *MockTxManager) WithinTx(ctx context.Context, fn func(repository.TxRepos) error) error {
	atomic.AddInt32(&m.WithinTxCallCount, 1)
	if m.BeginError != nil {
		return m.BeginError
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	tripSnap := m.trips.snapshot()
	reservationSnap := m.reservations.snapshot()

	// The repos handed to fn skip the transaction mutex, which is already
	// held here.
	err := fn(repository.TxRepos{
		Trips:        txTripRepo{m.trips},
		Reservations: txReservationRepo{m.reservations},
	})
	if err != nil {
		m.trips.restore(tripSnap)
		m.reservations.restore(reservationSnap)
		return err
	}
	return nil
}

type txTripRepo struct{ *MockTripRepository }

func (r txTripRepo) Create(ctx context.Context, trip *domain.Trip) error {
	return r.create(ctx, trip)
}

func (r txTripRepo) UpdateStatus(ctx context.Context, id int64, to domain.TripStatus, from ...domain.TripStatus) error {
	return r.updateStatus(ctx, id, to, from...)
}

type txReservationRepo struct{ *MockReservationRepository }

func (r txReservationRepo) Create(ctx context.Context, reservation *domain.Reservation) error {
	return r.create(ctx, reservation)
}

func (r txReservationRepo) DeleteByTripID(ctx context.Context, tripID int64) error {
	return r.deleteByTripID(ctx, tripID)
}

func (r txReservationRepo) DeleteForDriver(ctx context.Context, tripID, driverID int64) error {
	return r.deleteForDriver(ctx, tripID, driverID)
}

// ──────────────────────────────────────────────
// MOCK USER REPOSITORY
// ──────────────────────────────────────────────

// MockUserRepository is a mock implementation of UserRepository.
type MockUserRepository struct {
	mu     sync.RWMutex
	users  map[int64]*domain.User
	nextID int64

	// Counters for verification
	CreateCallCount int32

	// Error injection
	CreateError error
}

// NewMockUserRepository creates a new mock user repository.
func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{
		users: make(map[int64]*domain.User),
	}
}

// AddUser adds a user to the mock repository, assigning an ID if unset.
func (m *MockUserRepository) AddUser(user *domain.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if user.ID == 0 {
		m.nextID++
		user.ID = m.nextID
	}
	m.users[user.ID] = user
}

func (m *MockUserRepository) Create(ctx context.Context, user *domain.User) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == user.Email {
			return repository.ErrDuplicate
		}
	}
	m.nextID++
	user.ID = m.nextID
	copy := *user
	m.users[user.ID] = &copy
	return nil
}

func (m *MockUserRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	user, ok := m.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *user
	return &copy, nil
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.users {
		if u.Email == email {
			copy := *u
			return &copy, nil
		}
	}
	return nil, repository.ErrNotFound
}

// ──────────────────────────────────────────────
// MOCK TRIP CACHE
// ──────────────────────────────────────────────

// MockTripCache is a mock implementation of TripCacheInterface.
type MockTripCache struct {
	mu    sync.Mutex
	trips []*domain.Trip
	set   bool

	// Counters for verification
	GetCallCount        int32
	SetCallCount        int32
	InvalidateCallCount int32
}

// NewMockTripCache creates a new mock trip cache.
func NewMockTripCache() *MockTripCache {
	return &MockTripCache{}
}

func (m *MockTripCache) GetOpenTrips(ctx context.Context) ([]*domain.Trip, error) {
	atomic.AddInt32(&m.GetCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.set {
		return nil, nil
	}
	return m.trips, nil
}

func (m *MockTripCache) SetOpenTrips(ctx context.Context, trips []*domain.Trip) error {
	atomic.AddInt32(&m.SetCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.trips = trips
	m.set = true
	return nil
}

func (m *MockTripCache) InvalidateOpenTrips(ctx context.Context) error {
	atomic.AddInt32(&m.InvalidateCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.trips = nil
	m.set = false
	return nil
}
