package service_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"evicite/internal/domain"
	"evicite/internal/service"
	"evicite/mocks"
)

func TestRunWorker_PollsAndDispatchesRuns(t *testing.T) {
	runRepo := new(mocks.MockRunRepo)
	runSvc := new(mocks.MockRunService)

	run := domain.VerificationRun{ID: uuid.New(), Status: domain.RunStatusRunning, Total: 2}

	// First poll claims one run, subsequent polls find nothing.
	runRepo.On("ClaimPending", mock.Anything, mock.AnythingOfType("int")).
		Return([]domain.VerificationRun{run}, nil).Once()
	runRepo.On("ClaimPending", mock.Anything, mock.AnythingOfType("int")).
		Return([]domain.VerificationRun{}, nil).Maybe()

	runSvc.On("ExecuteRun", mock.Anything, mock.AnythingOfType("*domain.VerificationRun")).
		Return().Maybe()

	worker := service.NewRunWorker(runRepo, runSvc, service.RunWorkerConfig{
		PollInterval: 50 * time.Millisecond,
		Concurrency:  2,
		RunTimeout:   time.Second,
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		worker.Start(ctx)
		close(done)
	}()

	time.Sleep(200 * time.Millisecond)
	cancel()
	<-done

	runRepo.AssertCalled(t, "ClaimPending", mock.Anything, mock.AnythingOfType("int"))
	runSvc.AssertCalled(t, "ExecuteRun", mock.Anything, mock.AnythingOfType("*domain.VerificationRun"))
}

func TestRunWorker_RespectsConcurrencyCap(t *testing.T) {
	runRepo := new(mocks.MockRunRepo)
	runSvc := new(mocks.MockRunService)

	runRepo.On("ClaimPending", mock.Anything, mock.AnythingOfType("int")).
		Return([]domain.VerificationRun{}, nil).Maybe()

	worker := service.NewRunWorker(runRepo, runSvc, service.RunWorkerConfig{
		PollInterval: 50 * time.Millisecond,
		Concurrency:  2,
		RunTimeout:   time.Second,
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		worker.Start(ctx)
		close(done)
	}()

	time.Sleep(150 * time.Millisecond)
	cancel()
	<-done

	for _, call := range runRepo.Calls {
		if call.Method == "ClaimPending" {
			limit := call.Arguments.Get(1).(int)
			assert.LessOrEqual(t, limit, 2)
		}
	}
}

func TestRunWorker_WaitsForInFlightRuns(t *testing.T) {
	runRepo := new(mocks.MockRunRepo)
	runSvc := new(mocks.MockRunService)

	run := domain.VerificationRun{ID: uuid.New(), Status: domain.RunStatusRunning}
	runRepo.On("ClaimPending", mock.Anything, mock.AnythingOfType("int")).
		Return([]domain.VerificationRun{run}, nil).Once()
	runRepo.On("ClaimPending", mock.Anything, mock.AnythingOfType("int")).
		Return([]domain.VerificationRun{}, nil).Maybe()

	var finished atomic.Bool
	runSvc.On("ExecuteRun", mock.Anything, mock.AnythingOfType("*domain.VerificationRun")).
		Run(func(mock.Arguments) {
			time.Sleep(150 * time.Millisecond)
			finished.Store(true)
		}).Return().Once()

	worker := service.NewRunWorker(runRepo, runSvc, service.RunWorkerConfig{
		PollInterval: 20 * time.Millisecond,
		Concurrency:  1,
		RunTimeout:   time.Second,
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		worker.Start(ctx)
		close(done)
	}()

	// Cancel while the run is still executing; Start must block until it
	// completes.
	time.Sleep(60 * time.Millisecond)
	cancel()
	<-done

	assert.True(t, finished.Load())
}

func TestRunWorker_SurvivesClaimErrors(t *testing.T) {
	runRepo := new(mocks.MockRunRepo)
	runSvc := new(mocks.MockRunService)

	runRepo.On("ClaimPending", mock.Anything, mock.AnythingOfType("int")).
		Return(nil, errors.New("connection refused")).Maybe()

	worker := service.NewRunWorker(runRepo, runSvc, service.RunWorkerConfig{
		PollInterval: 20 * time.Millisecond,
		Concurrency:  1,
		RunTimeout:   time.Second,
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		worker.Start(ctx)
		close(done)
	}()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not shut down after claim errors")
	}
}
