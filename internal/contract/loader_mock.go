package contract

import (
	"context"

	"github.com/huangsam/healthgap/schema"
	"github.com/stretchr/testify/mock"
)

// MockSnapshotLoader is a mock implementation of SnapshotLoader for testing.
type MockSnapshotLoader struct {
	mock.Mock
}

var _ SnapshotLoader = &MockSnapshotLoader{} // Compile-time check

// Load implements the SnapshotLoader interface.
func (m *MockSnapshotLoader) Load(ctx context.Context, dataDir string) (*schema.Snapshot, error) {
	ret := m.Called(ctx, dataDir)
	snap, _ := ret.Get(0).(*schema.Snapshot)
	return snap, ret.Error(1)
}
