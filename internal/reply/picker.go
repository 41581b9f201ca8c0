package reply

import "errors"

// PoolPicker draws replies uniformly from a fixed pool.
type PoolPicker struct {
	pool []string
	intN func(n int) int
}

// NewPoolPicker returns a picker over pool using intN for randomness.
func NewPoolPicker(pool []string, intN func(n int) int) *PoolPicker {
	return &PoolPicker{pool: append([]string(nil), pool...), intN: intN}
}

// Pick returns one entry of the pool.
func (p *PoolPicker) Pick(Request) (string, error) {
	if len(p.pool) == 0 {
		return "", errors.New("reply pool is empty")
	}
	return p.pool[p.intN(len(p.pool))], nil
}
