package worker

import (
	"sync/atomic"

	"github.com/robfig/cron/v3"
)

// IJob cron driven job
type IJob interface {
	Start() error
	Run()
	Stop() error
}

type OnWork func() error

// BaseJob runs OnWork on its cron schedule, skipping a tick while the
// previous run is still going
type BaseJob struct {
	Cron    *cron.Cron
	OnWork  OnWork
	running int32
}

func (job *BaseJob) Start() error {
	job.Cron.Start()
	return nil
}

// Stop stops the scheduler and waits for a running job
func (job *BaseJob) Stop() error {
	<-job.Cron.Stop().Done()
	return nil
}

func (job *BaseJob) Run() {
	if !atomic.CompareAndSwapInt32(&job.running, 0, 1) {
		return
	}
	defer atomic.StoreInt32(&job.running, 0)

	_ = job.OnWork()
}

// IsRunning a run is in progress
func (job *BaseJob) IsRunning() bool {
	return atomic.LoadInt32(&job.running) == 1
}
