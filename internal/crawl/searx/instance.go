package searx

import (
	"math/rand"
	"sync"
	"time"
)

// Health update constants. Failures degrade an instance quickly while
// recovery is gradual, so a flapping instance stays deprioritized
// longer than a single bad request would suggest.
const (
	healthRecoveryStep = 0.1
	healthPenaltyStep  = 0.2
	healthFloor        = 0.0
	healthCeiling      = 1.0

	unhealthyBelow      = 0.3
	unhealthyFailStreak = 3

	responseTimeAlpha = 0.3
)

// Instance is one metasearch mirror with health tracking. Constructed
// once per crawl session; mutated after every request attempt.
type Instance struct {
	URL                 string
	HealthScore         float64
	ConsecutiveFailures int
	AvgResponseTime     time.Duration
	LastSuccess         time.Time
	LastFailure         time.Time
	TotalRequests       int
}

// Healthy reports whether the instance is usable for selection.
func (i *Instance) Healthy() bool {
	return i.HealthScore > unhealthyBelow && i.ConsecutiveFailures < unhealthyFailStreak
}

// update applies the outcome of one request attempt.
func (i *Instance) update(success bool, responseTime time.Duration, now time.Time) {
	i.TotalRequests++

	if success {
		i.LastSuccess = now
		i.ConsecutiveFailures = 0

		i.HealthScore += healthRecoveryStep
		if i.HealthScore > healthCeiling {
			i.HealthScore = healthCeiling
		}
	} else {
		i.LastFailure = now
		i.ConsecutiveFailures++

		i.HealthScore -= healthPenaltyStep
		if i.HealthScore < healthFloor {
			i.HealthScore = healthFloor
		}
	}

	// Exponential moving average, new reading weighted 30%.
	i.AvgResponseTime = time.Duration(
		responseTimeAlpha*float64(responseTime) +
			(1-responseTimeAlpha)*float64(i.AvgResponseTime))
}

// Pool tracks a set of redundant instances and selects among them,
// weighted toward healthier ones. Safe for concurrent use.
type Pool struct {
	mu        sync.Mutex
	instances []*Instance
	rng       *rand.Rand
	now       func() time.Time
}

func NewPool(urls []string) *Pool {
	instances := make([]*Instance, 0, len(urls))
	for _, u := range urls {
		instances = append(instances, &Instance{URL: u, HealthScore: healthCeiling})
	}

	return &Pool{
		instances: instances,
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())), //nolint:gosec // selection jitter, not crypto
		now:       time.Now,
	}
}

// Size returns the number of instances in the pool.
func (p *Pool) Size() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	return len(p.instances)
}

// Select picks an instance via weighted-random selection proportional
// to health score among healthy instances. If none are healthy it
// falls back to the single highest-health instance, never deadlocking.
func (p *Pool) Select() *Instance {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.instances) == 0 {
		return nil
	}

	var (
		healthy     []*Instance
		totalWeight float64
	)

	for _, inst := range p.instances {
		if inst.Healthy() {
			healthy = append(healthy, inst)
			totalWeight += inst.HealthScore
		}
	}

	if len(healthy) == 0 {
		best := p.instances[0]
		for _, inst := range p.instances[1:] {
			if inst.HealthScore > best.HealthScore {
				best = inst
			}
		}

		return best
	}

	if totalWeight == 0 {
		return healthy[p.rng.Intn(len(healthy))]
	}

	pick := p.rng.Float64() * totalWeight
	for _, inst := range healthy {
		pick -= inst.HealthScore
		if pick <= 0 {
			return inst
		}
	}

	return healthy[len(healthy)-1]
}

// Report applies a request outcome to an instance's health.
func (p *Pool) Report(inst *Instance, success bool, responseTime time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()

	inst.update(success, responseTime, p.now())
}

// Snapshot returns a copy of the instance states for health reporting.
func (p *Pool) Snapshot() []Instance {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]Instance, len(p.instances))
	for i, inst := range p.instances {
		out[i] = *inst
	}

	return out
}
