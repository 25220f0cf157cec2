// Command publishbench drives the publisher against a local stand-in for the
// Graph API and reports latency percentiles. Storage follows the normal
// configuration; the Graph endpoint is always the local stand-in.
//
// Knobs: N (posts), CONC (workers), DUP (concurrent publishes per post),
// DELAY (stand-in latency, e.g. 20ms), IMAGE=1 to attach a photo.
package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"math"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/d60-Lab/social-publisher/config"
	"github.com/d60-Lab/social-publisher/internal/graph"
	"github.com/d60-Lab/social-publisher/internal/metrics"
	"github.com/d60-Lab/social-publisher/internal/model"
	"github.com/d60-Lab/social-publisher/internal/repository"
	"github.com/d60-Lab/social-publisher/internal/service"
	"github.com/d60-Lab/social-publisher/internal/watermark"
	"github.com/d60-Lab/social-publisher/pkg/database"
)

func must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}

func mustDo(err error) {
	if err != nil {
		panic(err)
	}
}

func envInt(key string, def int) int {
	if s := os.Getenv(key); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v > 0 {
			return v
		}
	}
	return def
}

func main() {
	cfg := must(config.Load())
	N := envInt("N", 500)
	CONC := envInt("CONC", 8)
	DUP := envInt("DUP", 2)
	delay, _ := time.ParseDuration(os.Getenv("DELAY"))
	withImage := os.Getenv("IMAGE") == "1"

	var feeds, photos atomic.Int64
	fake := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(delay)
		w.Header().Set("Content-Type", "application/json")
		if filepath.Base(r.URL.Path) == "photos" {
			photos.Add(1)
			fmt.Fprintf(w, `{"id":"m_%s"}`, uuid.NewString()[:8])
			return
		}
		feeds.Add(1)
		fmt.Fprintf(w, `{"id":"fb_%s"}`, uuid.NewString()[:8])
	}))
	defer fake.Close()

	posts, ledger := openStores(cfg)
	pages := repository.NewMemoryPageStore()
	ctx := context.Background()
	mustDo(pages.Put(ctx, &model.ConnectedPage{ID: "bench", Name: "bench", AccessToken: "t"}))

	reg := prometheus.NewRegistry()
	m := metrics.NewMetrics(reg)
	pub := service.NewPublisher(service.PublisherDeps{
		Posts:   posts,
		Ledger:  ledger,
		Pages:   pages,
		Graph:   graph.NewClient(graph.Config{Endpoint: fake.URL + "/v23.0"}, m),
		Marker:  watermark.New(cfg.Watermark.Quality, cfg.Watermark.MaxPixels, m),
		Metrics: m,
	})

	ids := make([]string, N)
	for i := range ids {
		p := &model.Post{Content: fmt.Sprintf("bench post %d", i), PageID: "bench"}
		mustDo(posts.Create(ctx, p))
		ids[i] = p.ID
	}
	before := len(must(ledger.ListRecords(ctx)))
	var img []byte
	if withImage {
		img = sampleJPEG()
	}

	// every post is published DUP times concurrently; only one may land
	type job struct{ id string }
	jobs := make(chan job, N*DUP)
	for _, id := range ids {
		for d := 0; d < DUP; d++ {
			jobs <- job{id: id}
		}
	}
	close(jobs)

	var (
		mu       sync.Mutex
		okLat    []time.Duration
		rejected int
		failed   int
	)
	t0 := time.Now()
	var wg sync.WaitGroup
	for w := 0; w < min(CONC, N*DUP); w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				st := time.Now()
				_, err := pub.Publish(ctx, service.PublishRequest{PostID: j.id, Image: img})
				d := time.Since(st)
				mu.Lock()
				switch {
				case err == nil:
					okLat = append(okLat, d)
				case errors.Is(err, service.ErrAlreadyPublished):
					rejected++
				default:
					failed++
				}
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	total := time.Since(t0)

	pct := func(vs []time.Duration, p float64) time.Duration {
		if len(vs) == 0 {
			return 0
		}
		xs := append([]time.Duration(nil), vs...)
		sort.Slice(xs, func(i, j int) bool { return xs[i] < xs[j] })
		k := int(math.Ceil(p*float64(len(xs)))) - 1
		k = max(0, min(k, len(xs)-1))
		return xs[k]
	}

	recs := len(must(ledger.ListRecords(ctx))) - before
	fmt.Printf("N=%d CONC=%d DUP=%d DELAY=%v IMAGE=%v storage=%s\n", N, CONC, DUP, delay, withImage, cfg.Storage.Driver)
	fmt.Printf("published=%d rejected=%d failed=%d records=%d feed_calls=%d photo_calls=%d\n",
		len(okLat), rejected, failed, recs, feeds.Load(), photos.Load())
	fmt.Printf("publish latency: total=%v p50=%v p95=%v p99=%v\n", total, pct(okLat, 0.50), pct(okLat, 0.95), pct(okLat, 0.99))
	fmt.Printf("watermark applied=%v\n", testutil.ToFloat64(m.WatermarkTotal.WithLabelValues("applied")))
	if int64(recs) != feeds.Load() {
		fmt.Println("WARNING: feed calls and records disagree")
		os.Exit(1)
	}
}

func openStores(cfg *config.Config) (repository.PostRepository, repository.LedgerRepository) {
	if cfg.Storage.Driver == "" || cfg.Storage.Driver == "json" {
		s := repository.NewMemoryStore(nil)
		return s, s
	}
	db := must(database.InitDB(cfg))
	mustDo(repository.InitSchema(db))
	return repository.NewPostRepository(db), repository.NewLedgerRepository(db)
}

func sampleJPEG() []byte {
	img := image.NewRGBA(image.Rect(0, 0, 640, 480))
	for y := 0; y < 480; y++ {
		for x := 0; x < 640; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	mustDo(jpeg.Encode(&buf, img, &jpeg.Options{Quality: 85}))
	return buf.Bytes()
}
