package mocks

import "github.com/stretchr/testify/mock"

// MockDeviceInfo is a mock implementation of the DeviceInfoInterface
type MockDeviceInfo struct {
	mock.Mock
}

func (m *MockDeviceInfo) LoadDeviceInfo() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockDeviceInfo) GetDeviceID() string {
	args := m.Called()
	return args.String(0)
}

// NewMockDeviceInfo returns a device that always reports id.
func NewMockDeviceInfo(id string) *MockDeviceInfo {
	m := new(MockDeviceInfo)
	m.On("GetDeviceID").Return(id)
	m.On("LoadDeviceInfo").Return(nil)
	return m
}
