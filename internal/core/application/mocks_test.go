package application

import (
	"context"
	"time"

	"github.com/raffle-network/raffle/internal/core/ports"
	"github.com/stretchr/testify/mock"
)

type mockedOracle struct {
	mock.Mock
	coordinator string
	ch          chan ports.Fulfillment
}

func newMockedOracle(coordinator string) *mockedOracle {
	return &mockedOracle{
		coordinator: coordinator,
		ch:          make(chan ports.Fulfillment, 1),
	}
}

func (m *mockedOracle) Coordinator() string {
	return m.coordinator
}

func (m *mockedOracle) RequestRandomness(
	ctx context.Context, req ports.RandomnessRequest,
) (string, error) {
	args := m.Called(ctx, req)

	var res string
	if a := args.Get(0); a != nil {
		res = a.(string)
	}
	return res, args.Error(1)
}

func (m *mockedOracle) ResumeRequest(
	ctx context.Context, requestId string, req ports.RandomnessRequest,
) error {
	args := m.Called(ctx, requestId, req)
	return args.Error(0)
}

func (m *mockedOracle) GetFulfillmentChannel(
	_ context.Context,
) <-chan ports.Fulfillment {
	return m.ch
}

func (m *mockedOracle) Close() {
	m.Called()
}

type mockedWallet struct {
	mock.Mock
}

func (m *mockedWallet) Transfer(
	ctx context.Context, req ports.TransferRequest,
) (string, error) {
	args := m.Called(ctx, req)

	var res string
	if a := args.Get(0); a != nil {
		res = a.(string)
	}
	return res, args.Error(1)
}

func (m *mockedWallet) Close() {
	m.Called()
}

type mockedScheduler struct {
	mock.Mock
}

func (m *mockedScheduler) Start() {
	m.Called()
}

func (m *mockedScheduler) Stop() {
	m.Called()
}

func (m *mockedScheduler) ScheduleTask(
	interval time.Duration, immediate bool, task func(),
) error {
	args := m.Called(interval, immediate, task)
	return args.Error(0)
}
