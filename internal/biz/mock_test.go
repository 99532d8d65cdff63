package biz

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"
)

// MockUserRepo is a mock implementation of UserRepo
type MockUserRepo struct {
	mock.Mock
}

func (m *MockUserRepo) FindActiveByEmail(ctx context.Context, email string) (*User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*User), args.Error(1)
}

func (m *MockUserRepo) FindByID(ctx context.Context, id int64) (*User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*User), args.Error(1)
}

func (m *MockUserRepo) List(ctx context.Context) ([]User, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]User), args.Error(1)
}

func (m *MockUserRepo) Count(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *MockUserRepo) Create(ctx context.Context, u NewUser) (*User, error) {
	args := m.Called(ctx, u)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*User), args.Error(1)
}

func (m *MockUserRepo) Update(ctx context.Context, id int64, name string, roleID int64) error {
	return m.Called(ctx, id, name, roleID).Error(0)
}

func (m *MockUserRepo) UpdatePassword(ctx context.Context, id int64, hash string) error {
	return m.Called(ctx, id, hash).Error(0)
}

func (m *MockUserRepo) SetActive(ctx context.Context, id int64, active bool) error {
	return m.Called(ctx, id, active).Error(0)
}

func (m *MockUserRepo) FindByProvider(ctx context.Context, provider, providerID string) (*User, error) {
	args := m.Called(ctx, provider, providerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*User), args.Error(1)
}

func (m *MockUserRepo) LinkOrCreate(ctx context.Context, req LinkRequest) (*User, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*User), args.Error(1)
}

// MockRoleRepo is a mock implementation of RoleRepo
type MockRoleRepo struct {
	mock.Mock
}

func (m *MockRoleRepo) List(ctx context.Context) ([]Role, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Role), args.Error(1)
}

func (m *MockRoleRepo) FindByID(ctx context.Context, id int64) (*Role, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Role), args.Error(1)
}

// MockPostRepo is a mock implementation of PostRepo
type MockPostRepo struct {
	mock.Mock
}

func (m *MockPostRepo) List(ctx context.Context) ([]Post, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Post), args.Error(1)
}

func (m *MockPostRepo) Count(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *MockPostRepo) FindBySlug(ctx context.Context, slug string) (*Post, error) {
	args := m.Called(ctx, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Post), args.Error(1)
}

func (m *MockPostRepo) Create(ctx context.Context, in PostInput) (int64, error) {
	args := m.Called(ctx, in)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockPostRepo) Update(ctx context.Context, id int64, in PostInput) error {
	return m.Called(ctx, id, in).Error(0)
}

func (m *MockPostRepo) SoftDeleteBySlug(ctx context.Context, slug string) error {
	return m.Called(ctx, slug).Error(0)
}

func (m *MockPostRepo) RestoreBySlug(ctx context.Context, slug string) error {
	return m.Called(ctx, slug).Error(0)
}

func (m *MockPostRepo) ListPublished(ctx context.Context, limit int) ([]Post, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Post), args.Error(1)
}

func (m *MockPostRepo) FindPublishedByID(ctx context.Context, id int64) (*Post, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Post), args.Error(1)
}

// MockMediaRepo is a mock implementation of MediaRepo
type MockMediaRepo struct {
	mock.Mock
}

func (m *MockMediaRepo) List(ctx context.Context) ([]Media, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Media), args.Error(1)
}

func (m *MockMediaRepo) Count(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *MockMediaRepo) FindByID(ctx context.Context, id int64) (*Media, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Media), args.Error(1)
}

func (m *MockMediaRepo) Create(ctx context.Context, media Media) (int64, error) {
	args := m.Called(ctx, media)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockMediaRepo) Delete(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

// MockStorage is a mock implementation of MediaStorage
type MockStorage struct {
	mock.Mock
}

func (m *MockStorage) Save(filename string, r io.Reader) (string, error) {
	data, _ := io.ReadAll(r)
	args := m.Called(filename, data)
	return args.String(0), args.Error(1)
}

func (m *MockStorage) Remove(filename string) error {
	return m.Called(filename).Error(0)
}

// plainHasher compares passwords verbatim; good enough for usecase tests.
type plainHasher struct{}

func (plainHasher) Hash(pw string) (string, error) { return "hashed:" + pw, nil }

func (plainHasher) Compare(hash, pw string) error {
	if hash != "hashed:"+pw {
		return ErrInvalidCredentials
	}
	return nil
}
