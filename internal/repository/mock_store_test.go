package repository

import (
	"context"
	"encoding/json"

	"github.com/LhacenMed/admin-dashboard/internal/docstore"
	"github.com/stretchr/testify/mock"
)

type MockStore struct {
	mock.Mock
}

func (m *MockStore) Get(ctx context.Context, collection, id string, out any) error {
	args := m.Called(ctx, collection, id, out)
	return args.Error(0)
}

func (m *MockStore) Find(ctx context.Context, collection string, filter docstore.Filter) ([]docstore.Snapshot, error) {
	args := m.Called(ctx, collection, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]docstore.Snapshot), args.Error(1)
}

func (m *MockStore) Count(ctx context.Context, collection string, filter docstore.Filter) (int64, error) {
	args := m.Called(ctx, collection, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockStore) Create(ctx context.Context, collection, id string, doc any) error {
	args := m.Called(ctx, collection, id, doc)
	return args.Error(0)
}

func (m *MockStore) Set(ctx context.Context, collection, id string, doc any) error {
	args := m.Called(ctx, collection, id, doc)
	return args.Error(0)
}

func (m *MockStore) Update(ctx context.Context, collection, id string, fields map[string]any) error {
	args := m.Called(ctx, collection, id, fields)
	return args.Error(0)
}

func (m *MockStore) Delete(ctx context.Context, collection, id string) error {
	args := m.Called(ctx, collection, id)
	return args.Error(0)
}

func (m *MockStore) Watch(ctx context.Context, collection, id string) (<-chan docstore.Snapshot, error) {
	args := m.Called(ctx, collection, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(<-chan docstore.Snapshot), args.Error(1)
}

func (m *MockStore) EnsureIndex(ctx context.Context, collection, field string, unique bool) error {
	args := m.Called(ctx, collection, field, unique)
	return args.Error(0)
}

// jsonDoc builds a snapshot backed by the JSON encoding of body.
func jsonDoc(id string, body any) docstore.Snapshot {
	data, err := json.Marshal(body)
	if err != nil {
		panic(err)
	}
	return docstore.NewSnapshot(id, func(out any) error {
		return json.Unmarshal(data, out)
	})
}

// fill copies body into the Get destination.
func fill(body any) func(mock.Arguments) {
	return func(args mock.Arguments) {
		data, err := json.Marshal(body)
		if err != nil {
			panic(err)
		}
		if err := json.Unmarshal(data, args.Get(3)); err != nil {
			panic(err)
		}
	}
}
