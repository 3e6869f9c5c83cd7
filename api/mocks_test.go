package api

import (
	"context"
	"io"

	"github.com/LhacenMed/admin-dashboard/internal/domain"
	"github.com/LhacenMed/admin-dashboard/internal/service/account"
	"github.com/LhacenMed/admin-dashboard/internal/service/seats"
	"github.com/LhacenMed/admin-dashboard/internal/service/trips"
	"github.com/stretchr/testify/mock"
)

type MockAccountUseCase struct {
	mock.Mock
}

func (m *MockAccountUseCase) Register(ctx context.Context, input account.RegisterInput) (*account.Session, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*account.Session), args.Error(1)
}

func (m *MockAccountUseCase) Login(ctx context.Context, input account.LoginInput) (*account.Session, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*account.Session), args.Error(1)
}

func (m *MockAccountUseCase) Me(ctx context.Context, actor domain.Actor) (*domain.Account, error) {
	args := m.Called(ctx, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

func (m *MockAccountUseCase) GetCompany(ctx context.Context, id string) (*domain.Account, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

func (m *MockAccountUseCase) CompanyStatus(ctx context.Context, id string) account.StatusResult {
	args := m.Called(ctx, id)
	return args.Get(0).(account.StatusResult)
}

func (m *MockAccountUseCase) AdminByAuthUID(ctx context.Context, authUID string) (*domain.Account, error) {
	args := m.Called(ctx, authUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

func (m *MockAccountUseCase) ListCompanies(ctx context.Context, actor domain.Actor, status domain.AccountStatus) ([]domain.Account, error) {
	args := m.Called(ctx, actor, status)
	return args.Get(0).([]domain.Account), args.Error(1)
}

func (m *MockAccountUseCase) UpdateStatus(ctx context.Context, actor domain.Actor, companyID string, status domain.AccountStatus) (*domain.Account, error) {
	args := m.Called(ctx, actor, companyID, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

func (m *MockAccountUseCase) Access(ctx context.Context, actor domain.Actor, required domain.AccountStatus, fallback string) account.AccessDecision {
	args := m.Called(ctx, actor, required, fallback)
	return args.Get(0).(account.AccessDecision)
}

func (m *MockAccountUseCase) EnsureAdmin(ctx context.Context, input account.AdminInput) error {
	args := m.Called(ctx, input)
	return args.Error(0)
}

func (m *MockAccountUseCase) RecentAccounts(ctx context.Context, device string) ([]domain.RecentAccount, error) {
	args := m.Called(ctx, device)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.RecentAccount), args.Error(1)
}

func (m *MockAccountUseCase) ForgetAccount(ctx context.Context, device, id string) error {
	args := m.Called(ctx, device, id)
	return args.Error(0)
}

type MockTripUseCase struct {
	mock.Mock
}

func (m *MockTripUseCase) Create(ctx context.Context, actor domain.Actor, input trips.CreateTripInput) (*domain.Trip, error) {
	args := m.Called(ctx, actor, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Trip), args.Error(1)
}

func (m *MockTripUseCase) List(ctx context.Context, actor domain.Actor, opts trips.ListOptions) ([]domain.Trip, error) {
	args := m.Called(ctx, actor, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Trip), args.Error(1)
}

func (m *MockTripUseCase) Get(ctx context.Context, actor domain.Actor, id string) (*domain.Trip, error) {
	args := m.Called(ctx, actor, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Trip), args.Error(1)
}

func (m *MockTripUseCase) ToggleStatus(ctx context.Context, actor domain.Actor, id string) (*domain.Trip, error) {
	args := m.Called(ctx, actor, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Trip), args.Error(1)
}

func (m *MockTripUseCase) Delete(ctx context.Context, actor domain.Actor, id string) error {
	args := m.Called(ctx, actor, id)
	return args.Error(0)
}

func (m *MockTripUseCase) Manifest(ctx context.Context, actor domain.Actor, id string) ([]byte, string, error) {
	args := m.Called(ctx, actor, id)
	if args.Get(0) == nil {
		return nil, "", args.Error(2)
	}
	return args.Get(0).([]byte), args.String(1), args.Error(2)
}

type MockSeatUseCase struct {
	mock.Mock
}

func (m *MockSeatUseCase) View(ctx context.Context, actor domain.Actor, tripID string) (*seats.SeatView, error) {
	args := m.Called(ctx, actor, tripID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*seats.SeatView), args.Error(1)
}

func (m *MockSeatUseCase) SetStatus(ctx context.Context, actor domain.Actor, tripID string, seat int, status domain.SeatStatus) (*seats.SeatView, error) {
	args := m.Called(ctx, actor, tripID, seat, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*seats.SeatView), args.Error(1)
}

func (m *MockSeatUseCase) Watch(ctx context.Context, actor domain.Actor, tripID string) (<-chan seats.TripUpdate, error) {
	args := m.Called(ctx, actor, tripID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(<-chan seats.TripUpdate), args.Error(1)
}

type MockTokenParser struct {
	mock.Mock
}

func (m *MockTokenParser) Parse(raw string) (domain.Actor, error) {
	args := m.Called(raw)
	return args.Get(0).(domain.Actor), args.Error(1)
}

type MockUploader struct {
	mock.Mock
}

func (m *MockUploader) Upload(ctx context.Context, name string, size int64, r io.Reader) (domain.Asset, error) {
	args := m.Called(ctx, name, size, r)
	return args.Get(0).(domain.Asset), args.Error(1)
}
