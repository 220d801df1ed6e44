package pager

// ───────────────────────────────────────────────────────────────────────────
// Placement advisor (C4)
// ───────────────────────────────────────────────────────────────────────────
//
// FitStrategy selects how the advisor chooses among multiple free regions
// that could satisfy a request.
type FitStrategy int

const (
	// BestFit selects the smallest free region that satisfies the request,
	// minimizing the size of the remainder left behind.
	BestFit FitStrategy = iota
	// WorstFit selects the largest free region, trading a bigger remainder
	// for fewer future splits of small regions.
	WorstFit
)

func (s FitStrategy) String() string {
	if s == WorstFit {
		return "worst-fit"
	}
	return "best-fit"
}

// Advisor implements the placement policy of spec.md §4.3: given a
// requested size, it selects a destination PageLink from the free-space
// registry under the configured strategy, or falls back to appending to
// the pool's last page (growing the pool if even that doesn't fit).
//
// Per the worked examples in spec.md §8 (S2, S3), a satisfying registry
// candidate always wins over extending the pool — extending the pool is
// the fallback used only when the registry holds nothing big enough,
// never a competing option weighed against a smaller/larger registry hit.
type Advisor struct {
	Strategy FitStrategy
}

// NewAdvisor creates a placement advisor using the given strategy.
func NewAdvisor(strategy FitStrategy) *Advisor {
	return &Advisor{Strategy: strategy}
}

func (a *Advisor) query(reg *Registry, size int) (PageLink, bool) {
	switch a.Strategy {
	case WorstFit:
		cand, ok := reg.WorstFit()
		if !ok || int(cand.Len) < size {
			return PageLink{}, false
		}
		return cand, true
	default:
		return reg.BestFit(size)
	}
}

// Select returns a PageLink of exactly `size` bytes ready for the caller
// to write into, reserving the space either from the free-space registry
// or by growing the page pool. On success the returned page's first_free
// watermark (if a tail placement was used) has already advanced, and any
// consumed registry region has already been removed (with its remainder,
// if any, reinserted) — callers still must write their payload via
// Page.WriteAt.
func (a *Advisor) Select(pool *Pool, reg *Registry, size int) (PageLink, error) {
	if cand, ok := a.query(reg, size); ok {
		reg.Remove(cand)
		used := PageLink{Page: cand.Page, Start: cand.Start, Len: uint16(size)}
		if cand.Len > uint16(size) {
			remainder := PageLink{
				Page:  cand.Page,
				Start: cand.Start + uint32(size),
				Len:   cand.Len - uint16(size),
			}
			reg.Insert(remainder)
		}
		return used, nil
	}

	last := pool.LastPage()
	if last.CanFit(size) {
		return last.Reserve(size)
	}
	pid := pool.NewPage()
	page, err := pool.Page(pid)
	if err != nil {
		return PageLink{}, err
	}
	return page.Reserve(size)
}

// Release returns a region to the free-space registry after a row is
// deleted. Coalescing, if enabled on reg, happens here.
func (a *Advisor) Release(reg *Registry, link PageLink) {
	reg.Insert(link)
}
