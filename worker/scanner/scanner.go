package scanner

import (
	"context"
	"sort"
	"sync"
	"time"

	"nftlend/core"
	"nftlend/internal/metrics"
	"nftlend/pkg/concurrency"
	"nftlend/pkg/id"
	"nftlend/service/pool"
	"nftlend/worker"

	"github.com/fox-one/pkg/logger"
	"github.com/fox-one/pkg/property"
	"github.com/robfig/cron/v3"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

const checkpointKey = "scanner_last_scan"

// Config scanner config
type Config struct {
	// Spec cron spec, @every 1m by default
	Spec        string `json:"spec"`
	Concurrency int    `json:"concurrency"`
}

// Candidate borrower that is not healthy
type Candidate struct {
	UserID          string          `json:"user_id"`
	State           string          `json:"state"`
	HealthFactor    decimal.Decimal `json:"health_factor"`
	NftHealthFactor decimal.Decimal `json:"nft_health_factor"`
	TotalDebtValue  decimal.Decimal `json:"total_debt_value"`
}

// Report outcome of one scan
type Report struct {
	Scanned    int            `json:"scanned"`
	States     map[string]int `json:"states"`
	Candidates []*Candidate   `json:"candidates"`
}

// Worker computes the risk state of every borrower and exports it. It never
// changes pool state.
type Worker struct {
	worker.BaseJob
	pool     *pool.Pool
	property property.Store
	limit    *concurrency.GoLimit
}

// New new scanner worker, property may be nil
func New(p *pool.Pool, property property.Store, cfg Config) *Worker {
	w := &Worker{
		pool:     p,
		property: property,
		limit:    concurrency.NewGoLimit(cfg.Concurrency),
	}

	spec := cfg.Spec
	if spec == "" {
		spec = "@every 1m"
	}

	w.Cron = cron.New()
	if _, err := w.Cron.AddFunc(spec, w.Run); err != nil {
		panic(err)
	}

	w.OnWork = func() error {
		_, err := w.Scan(context.Background())
		return err
	}

	return w
}

// Scan one pass over all borrowers
func (w *Worker) Scan(ctx context.Context) (*Report, error) {
	log := logger.FromContext(ctx).WithFields(logrus.Fields{
		"worker": "scanner",
		"scan":   id.GenTraceID(),
	})
	ctx = logger.WithContext(ctx, log)

	users, err := w.pool.Borrowers(ctx)
	if err != nil {
		log.WithError(err).Errorln("pool.Borrowers")
		return nil, err
	}

	report := &Report{
		States: map[string]int{
			pool.StateHealthy:      0,
			pool.StateAuctionable:  0,
			pool.StateLiquidatable: 0,
			pool.StateBadDebt:      0,
		},
	}

	var mux sync.Mutex
	concurrency.Await(w.limit, len(users), func(i int) {
		data, err := w.pool.ComputeAccountData(ctx, users[i])
		if err != nil {
			log.WithError(err).Errorln("pool.ComputeAccountData", users[i])
			return
		}

		state := w.pool.RiskState(data)

		mux.Lock()
		defer mux.Unlock()

		report.Scanned++
		report.States[state]++
		if state != pool.StateHealthy {
			report.Candidates = append(report.Candidates, candidateOf(users[i], state, data))
		}
	})

	sort.Slice(report.Candidates, func(i, j int) bool {
		return report.Candidates[i].HealthFactor.LessThan(report.Candidates[j].HealthFactor)
	})

	for state, n := range report.States {
		metrics.Accounts.WithLabelValues(state).Set(float64(n))
	}

	for _, c := range report.Candidates {
		log.WithFields(logrus.Fields{
			"user":              c.UserID,
			"state":             c.State,
			"health_factor":     c.HealthFactor,
			"nft_health_factor": c.NftHealthFactor,
		}).Infoln("candidate")
	}

	if w.property != nil {
		if err := w.property.Save(ctx, checkpointKey, time.Now().Unix()); err != nil {
			log.WithError(err).Errorln("property.Save", checkpointKey)
		}
	}

	log.Debugf("scanned %d borrowers, %d candidates", report.Scanned, len(report.Candidates))
	return report, nil
}

func candidateOf(userID, state string, data *core.AccountData) *Candidate {
	return &Candidate{
		UserID:          userID,
		State:           state,
		HealthFactor:    data.HealthFactor,
		NftHealthFactor: data.NftHealthFactor,
		TotalDebtValue:  data.TotalDebtValue,
	}
}
