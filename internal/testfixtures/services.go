package testfixtures

import (
	"log/slog"
	"time"

	"github.com/example/silab/internal/application"
	"github.com/example/silab/internal/persistence/memory"
)

// ServiceFactory assists tests with constructing application services using
// deterministic identifiers, a controllable clock, and a shared in-memory
// storage so related services observe each other's writes.
type ServiceFactory struct {
	Clock       *Clock
	IDGenerator *IDGenerator
	Storage     *memory.Storage
	Logger      *slog.Logger
}

// ServiceFactoryOption configures a ServiceFactory instance.
type ServiceFactoryOption func(*ServiceFactory)

// NewServiceFactory constructs a ServiceFactory with defaults.
func NewServiceFactory(opts ...ServiceFactoryOption) *ServiceFactory {
	factory := &ServiceFactory{
		Clock:       NewClock(time.Time{}),
		IDGenerator: NewIDGenerator("id"),
		Storage:     memory.NewStorage(),
	}
	for _, opt := range opts {
		opt(factory)
	}
	if factory.Clock == nil {
		factory.Clock = NewClock(time.Time{})
	}
	if factory.IDGenerator == nil {
		factory.IDGenerator = NewIDGenerator("id")
	}
	if factory.Storage == nil {
		factory.Storage = memory.NewStorage()
	}
	return factory
}

// WithClock overrides the clock used by the factory.
func WithClock(clock *Clock) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.Clock = clock
	}
}

// WithIDGenerator overrides the identifier generator used by the factory.
func WithIDGenerator(generator *IDGenerator) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.IDGenerator = generator
	}
}

// WithStorage overrides the in-memory storage shared by the services.
func WithStorage(storage *memory.Storage) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.Storage = storage
	}
}

// WithLogger sets the logger passed to constructed services.
func WithLogger(logger *slog.Logger) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.Logger = logger
	}
}

// BookingService constructs a booking service over the factory storage.
// onMutate may be nil.
func (f *ServiceFactory) BookingService(onMutate func()) *application.BookingService {
	return application.NewBookingService(
		f.Storage,
		f.Storage,
		f.Storage,
		f.IDGenerator.NextFunc(),
		f.Clock.NowFunc(),
		onMutate,
		f.Logger,
	)
}

// CalendarService constructs a calendar service over the factory storage.
func (f *ServiceFactory) CalendarService(cacheTTL time.Duration) *application.CalendarService {
	return application.NewCalendarService(
		f.Storage,
		f.Storage,
		f.Clock.NowFunc(),
		cacheTTL,
		f.Logger,
	)
}

// RoomService constructs a room service over the factory storage. onMutate
// may be nil.
func (f *ServiceFactory) RoomService(onMutate func()) *application.RoomService {
	return application.NewRoomService(
		f.Storage,
		f.IDGenerator.NextFunc(),
		f.Clock.NowFunc(),
		onMutate,
		f.Logger,
	)
}

// EquipmentService constructs an equipment service over the factory storage.
func (f *ServiceFactory) EquipmentService() *application.EquipmentService {
	return application.NewEquipmentService(
		f.Storage,
		f.IDGenerator.NextFunc(),
		f.Clock.NowFunc(),
		f.Logger,
	)
}

// UserService constructs a user service over the factory storage.
func (f *ServiceFactory) UserService(studentDomain string) *application.UserService {
	return application.NewUserService(
		f.Storage,
		f.IDGenerator.NextFunc(),
		f.Clock.NowFunc(),
		studentDomain,
		f.Logger,
	)
}

// AuthService constructs an auth service over the factory storage. A nil
// verifier falls back to the production argon2id implementation.
func (f *ServiceFactory) AuthService(verifier application.PasswordVerifier, sessionTTL time.Duration) *application.AuthService {
	return application.NewAuthService(
		f.Storage,
		f.Storage,
		verifier,
		f.IDGenerator.NextFunc(),
		f.Clock.NowFunc(),
		sessionTTL,
		f.Logger,
	)
}
