package service

import (
	"context"
	"math/rand"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/kaabmedia/Vdubscards/internal/datamodels/product"
)

// CatalogService answers the product listing routes: plain pass-through
// listings, sale filtering, random sampling, bulk lookup, upsell
// candidates and categories.
type CatalogService struct {
	catalog product.Repository

	mu  sync.Mutex
	rnd *rand.Rand
}

func NewCatalogService(catalog product.Repository) *CatalogService {
	return &CatalogService{
		catalog: catalog,
		rnd:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (s *CatalogService) intn(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rnd.Intn(n)
}

// ListParams mirrors the products route query surface.
type ListParams struct {
	Query       product.ListQuery
	SaleOnly    bool
	Random      bool
	Unique      bool
	PriceRanges []PriceRange
}

func filterSale(list []product.Product) []product.Product {
	out := make([]product.Product, 0, len(list))
	for i := range list {
		if list[i].IsOnSale() {
			out = append(out, list[i])
		}
	}
	return out
}

// catalogTotal probes the first page with per_page=1 to read the total
// record count from the pagination headers.
func (s *CatalogService) catalogTotal(ctx context.Context, q product.ListQuery) (int, error) {
	probe := q
	probe.PerPage = 1
	probe.Page = 0
	probe.Offset = nil
	_, info, err := s.catalog.ListPage(ctx, probe)
	if err != nil {
		return 0, err
	}
	return info.Total, nil
}

// randomSlice fetches one contiguous window at a random offset.
func (s *CatalogService) randomSlice(ctx context.Context, p ListParams) ([]product.Product, error) {
	total, err := s.catalogTotal(ctx, product.ListQuery{})
	if err != nil {
		return nil, err
	}
	limit := p.Query.PerPage
	if limit <= 0 {
		limit = 4
	}
	offset := 0
	if maxOffset := total - limit; maxOffset > 0 {
		offset = s.intn(maxOffset)
	}
	q := p.Query
	q.Offset = &offset
	q.Page = 0
	list, err := s.catalog.List(ctx, q)
	if err != nil {
		return nil, err
	}
	if p.SaleOnly {
		list = filterSale(list)
	}
	return list, nil
}

// randomUnique draws distinct random offsets and fetches one product per
// offset, concurrently, then deduplicates by id.
func (s *CatalogService) randomUnique(ctx context.Context, p ListParams) ([]product.Product, error) {
	total, err := s.catalogTotal(ctx, product.ListQuery{})
	if err != nil {
		return nil, err
	}
	count := p.Query.PerPage
	if count <= 0 {
		count = 4
	}
	want := count
	if total < want {
		want = total
	}
	offsets := map[int]struct{}{}
	for len(offsets) < want {
		offsets[s.intn(total)] = struct{}{}
	}

	picked := make([]int, 0, len(offsets))
	for off := range offsets {
		picked = append(picked, off)
	}
	sort.Ints(picked)

	results := make([][]product.Product, len(picked))
	g, gctx := errgroup.WithContext(ctx)
	for i, off := range picked {
		i, off := i, off
		g.Go(func() error {
			q := p.Query
			q.PerPage = 1
			q.Page = 0
			offset := off
			q.Offset = &offset
			batch, err := s.catalog.List(gctx, q)
			if err != nil {
				return err
			}
			results[i] = batch
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	seen := map[int64]struct{}{}
	out := make([]product.Product, 0, count)
	for _, batch := range results {
		for i := range batch {
			if _, dup := seen[batch[i].ID]; dup {
				continue
			}
			seen[batch[i].ID] = struct{}{}
			out = append(out, batch[i])
			if len(out) >= count {
				break
			}
		}
	}
	if p.SaleOnly {
		out = filterSale(out)
	}
	return out, nil
}

// listPriceRanges scans each selected range concurrently, unions the
// results by id and paginates the union in memory.
func (s *CatalogService) listPriceRanges(ctx context.Context, p ListParams) ([]product.Product, product.PageInfo, error) {
	perPage := p.Query.PerPage
	if perPage <= 0 {
		perPage = 24
	}
	page := p.Query.Page
	if page < 1 {
		page = 1
	}

	batches := make([][]product.Product, len(p.PriceRanges))
	g, gctx := errgroup.WithContext(ctx)
	for i, r := range p.PriceRanges {
		i, r := i, r
		g.Go(func() error {
			q := p.Query
			q.Page = 0
			q.MinPrice = formatPrice(r.Min)
			q.MaxPrice = ""
			if r.Max != nil {
				q.MaxPrice = formatPrice(*r.Max)
			}
			batch, err := s.catalog.List(gctx, q)
			if err != nil {
				return err
			}
			batches[i] = batch
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, product.PageInfo{}, err
	}

	seen := map[int64]struct{}{}
	all := []product.Product{}
	for _, batch := range batches {
		if p.SaleOnly {
			batch = filterSale(batch)
		}
		for i := range batch {
			if _, dup := seen[batch[i].ID]; dup {
				continue
			}
			seen[batch[i].ID] = struct{}{}
			all = append(all, batch[i])
		}
	}
	return paginate(all, page, perPage)
}

// List is the main products listing. PageInfo reflects the upstream
// totals for pass-through queries and locally computed totals whenever
// the body was filtered or unioned in memory.
func (s *CatalogService) List(ctx context.Context, p ListParams) ([]product.Product, product.PageInfo, error) {
	if p.Random && p.Unique {
		list, err := s.randomUnique(ctx, p)
		return list, localInfo(len(list), p.Query.PerPage), err
	}
	if p.Random {
		list, err := s.randomSlice(ctx, p)
		return list, localInfo(len(list), p.Query.PerPage), err
	}
	if len(p.PriceRanges) > 0 {
		return s.listPriceRanges(ctx, p)
	}

	list, info, err := s.catalog.ListPage(ctx, p.Query)
	if err != nil {
		return nil, product.PageInfo{}, err
	}
	if p.SaleOnly {
		list = filterSale(list)
		info = localInfo(len(list), p.Query.PerPage)
	}
	return list, info, nil
}

// Bulk fetches products by ids, preserving the requested order.
func (s *CatalogService) Bulk(ctx context.Context, ids []int64) ([]product.Product, error) {
	if len(ids) == 0 {
		return []product.Product{}, nil
	}
	list, err := s.catalog.List(ctx, product.ListQuery{Include: ids, PerPage: len(ids)})
	if err != nil {
		return nil, err
	}
	byID := make(map[int64]product.Product, len(list))
	for i := range list {
		byID[list[i].ID] = list[i]
	}
	out := make([]product.Product, 0, len(ids))
	for _, id := range ids {
		if p, ok := byID[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

// Get fetches a single product.
func (s *CatalogService) Get(ctx context.Context, id int64) (*product.Product, error) {
	return s.catalog.GetByID(ctx, id)
}

// Categories passes the category listing through.
func (s *CatalogService) Categories(ctx context.Context, q product.CategoryQuery) ([]product.Category, error) {
	return s.catalog.Categories(ctx, q)
}

// UpsellParams caps default to the route limits.
type UpsellParams struct {
	IDs    []int64
	Limit  int // final candidate cap, 1..12
	PerCat int // candidates fetched per category, 1..12
	CatCap int // categories considered, 1..6
}

// Upsell suggests products related to the cart: rank the cart's
// categories by frequency, fetch candidates per top category
// concurrently, drop cart members and duplicates, cap at Limit.
func (s *CatalogService) Upsell(ctx context.Context, p UpsellParams) ([]product.Product, error) {
	if len(p.IDs) == 0 {
		return []product.Product{}, nil
	}
	inCart, err := s.catalog.List(ctx, product.ListQuery{Include: p.IDs, PerPage: len(p.IDs)})
	if err != nil {
		return nil, err
	}

	freq := map[int64]int{}
	for i := range inCart {
		for _, c := range inCart[i].Categories {
			if c.ID > 0 {
				freq[c.ID]++
			}
		}
	}
	type catCount struct {
		id    int64
		count int
	}
	ranked := make([]catCount, 0, len(freq))
	for id, n := range freq {
		ranked = append(ranked, catCount{id, n})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].count != ranked[j].count {
			return ranked[i].count > ranked[j].count
		}
		return ranked[i].id < ranked[j].id
	})
	if len(ranked) > p.CatCap {
		ranked = ranked[:p.CatCap]
	}
	if len(ranked) == 0 {
		return []product.Product{}, nil
	}

	batches := make([][]product.Product, len(ranked))
	g, gctx := errgroup.WithContext(ctx)
	for i, rc := range ranked {
		i, rc := i, rc
		g.Go(func() error {
			batch, err := s.catalog.List(gctx, product.ListQuery{
				Category: formatID(rc.id),
				PerPage:  p.PerCat,
				Exclude:  p.IDs,
			})
			if err != nil {
				return err
			}
			batches[i] = batch
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	cartSet := make(map[int64]struct{}, len(p.IDs))
	for _, id := range p.IDs {
		cartSet[id] = struct{}{}
	}
	seen := map[int64]struct{}{}
	out := []product.Product{}
	for _, batch := range batches {
		for i := range batch {
			id := batch[i].ID
			if id == 0 {
				continue
			}
			if _, in := cartSet[id]; in {
				continue
			}
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			out = append(out, batch[i])
			if len(out) >= p.Limit {
				return out, nil
			}
		}
	}
	return out, nil
}
