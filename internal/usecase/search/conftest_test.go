package search

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"

	"github.com/kailas-cloud/facilityfinder/internal/db"
	"github.com/kailas-cloud/facilityfinder/internal/domain/facility"
	"github.com/kailas-cloud/facilityfinder/internal/domain/search/template"
)

// --- Mocks ---

type mockConn struct {
	broken bool
}

func (c *mockConn) Query(context.Context, string, ...any) ([]db.Row, error) { return nil, nil }

func (c *mockConn) Broken() bool { return c.broken }

// mockPool tracks every checkout and how it came back.
type mockPool struct {
	mu         sync.Mutex
	acquireErr error
	acquired   int
	released   int
	discarded  int
	out        int
	peak       int
	connFn     func() *mockConn
}

func (m *mockPool) Acquire(context.Context) (db.Conn, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.acquireErr != nil {
		return nil, m.acquireErr
	}
	m.acquired++
	m.out++
	if m.out > m.peak {
		m.peak = m.out
	}
	if m.connFn != nil {
		return m.connFn(), nil
	}
	return &mockConn{}, nil
}

func (m *mockPool) Release(db.Conn) {
	m.mu.Lock()
	m.released++
	m.out--
	m.mu.Unlock()
}

func (m *mockPool) Discard(db.Conn) {
	m.mu.Lock()
	m.discarded++
	m.out--
	m.mu.Unlock()
}

func (m *mockPool) counts() (acquired, released, discarded, out int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.acquired, m.released, m.discarded, m.out
}

type mockRepo struct {
	searchFn func(ctx context.Context, q db.Querier, t template.Template, p template.Params) ([]facility.Record, error)

	mu         sync.Mutex
	calls      int
	lastTmpl   template.Template
	lastParams template.Params
}

func (m *mockRepo) Search(
	ctx context.Context, q db.Querier, t template.Template, p template.Params,
) ([]facility.Record, error) {
	m.mu.Lock()
	m.calls++
	m.lastTmpl = t
	m.lastParams = p
	m.mu.Unlock()
	if m.searchFn != nil {
		return m.searchFn(ctx, q, t, p)
	}
	return []facility.Record{}, nil
}

type mockCache struct {
	entries map[string][]facility.Record
	puts    int
}

func cacheKey(t template.Template, p template.Params) string {
	return fmt.Sprintf("%s|%v", t, p)
}

func (m *mockCache) Get(_ context.Context, t template.Template, p template.Params) ([]facility.Record, bool) {
	recs, ok := m.entries[cacheKey(t, p)]
	return recs, ok
}

func (m *mockCache) Put(_ context.Context, t template.Template, p template.Params, recs []facility.Record) {
	if m.entries == nil {
		m.entries = map[string][]facility.Record{}
	}
	m.puts++
	m.entries[cacheKey(t, p)] = recs
}

// --- In-memory facility table ---

type fixture struct {
	name       string
	department string
	lat, lon   float64
}

// tableRepo evaluates templates over an in-memory table: radius by great-circle
// distance, similarity as the share of keyword characters found in the text.
// haversine is the great-circle distance in meters, standing in for ST_DWithin on geography.
func haversine(lat1, lon1, lat2, lon2 float64) float64 {
	const earthRadius = 6_371_000.0
	rad := math.Pi / 180
	dLat, dLon := (lat2-lat1)*rad, (lon2-lon1)*rad
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*rad)*math.Cos(lat2*rad)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadius * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

type tableRepo struct {
	rows []fixture
}

func (r *tableRepo) Search(
	_ context.Context, _ db.Querier, t template.Template, p template.Params,
) ([]facility.Record, error) {
	type scored struct {
		rec   facility.Record
		score float64
	}
	var hits []scored
	for _, f := range r.rows {
		if t.Spatial() && haversine(p.Latitude, p.Longitude, f.lat, f.lon) > p.Radius {
			continue
		}
		name, dept := f.name, f.department
		rec := facility.Record{
			Name:              &name,
			DepartmentContent: &dept,
			Location:          fmt.Sprintf(`{"type":"Point","coordinates":[%g,%g]}`, f.lon, f.lat),
		}
		var score float64
		if t.Ranked() {
			score = similarity(name+" "+dept, p.Keyword)
			rec.SimilarityScore = &score
		}
		hits = append(hits, scored{rec: rec, score: score})
	}
	if t.Ranked() {
		sort.SliceStable(hits, func(i, j int) bool { return hits[i].score > hits[j].score })
	}
	out := make([]facility.Record, 0, len(hits))
	for i, h := range hits {
		if i >= p.MaxResults {
			break
		}
		out = append(out, h.rec)
	}
	return out, nil
}

func similarity(text, keyword string) float64 {
	if strings.Contains(strings.ToLower(text), strings.ToLower(keyword)) {
		return 1
	}
	return 0
}
