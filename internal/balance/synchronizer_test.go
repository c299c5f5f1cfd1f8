package balance

import (
	"context"
	"fmt"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/ember-tech/ember-wallet/internal/network"
)

var testAddr = common.HexToAddress("0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266")

// fakeReader serves a fixed wei balance or an error, counting queries.
type fakeReader struct {
	mu    sync.Mutex
	wei   *big.Int
	err   error
	calls int
}

func (f *fakeReader) BalanceAt(_ context.Context, _ common.Address) (*big.Int, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return new(big.Int).Set(f.wei), nil
}

func (f *fakeReader) queries() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// dialerFor routes each network id to its fake endpoint.
func dialerFor(readers map[string]*fakeReader) Dialer {
	return func(n network.Network) (ChainReader, error) {
		r, ok := readers[n.ID]
		if !ok {
			return nil, fmt.Errorf("no endpoint for %s", n.ID)
		}
		return r, nil
	}
}

func ether(n int64) *big.Int {
	wei := big.NewInt(n)
	return wei.Mul(wei, big.NewInt(1_000_000_000_000_000_000))
}

func TestRefreshAll(t *testing.T) {
	readers := map[string]*fakeReader{
		"ethereum": {wei: ether(1)},
		"bsc":      {wei: ether(2)},
		"polygon":  {wei: big.NewInt(500_000_000_000_000_000)},
	}
	s := NewSynchronizer(dialerFor(readers), nil)

	got := s.RefreshAll(context.Background(), testAddr, network.All())

	if len(got) != 3 {
		t.Fatalf("result count = %d, want 3", len(got))
	}
	if got["ethereum"].Formatted != "1.0000" {
		t.Errorf("ethereum = %q, want \"1.0000\"", got["ethereum"].Formatted)
	}
	if got["bsc"].Formatted != "2.0000" {
		t.Errorf("bsc = %q, want \"2.0000\"", got["bsc"].Formatted)
	}
	if got["polygon"].Formatted != "0.5000" {
		t.Errorf("polygon = %q, want \"0.5000\"", got["polygon"].Formatted)
	}
}

func TestRefreshAll_OneFailureIsIsolated(t *testing.T) {
	readers := map[string]*fakeReader{
		"ethereum": {wei: ether(1)},
		"bsc":      {err: fmt.Errorf("endpoint unreachable")},
		"polygon":  {wei: ether(3)},
	}
	s := NewSynchronizer(dialerFor(readers), nil)

	got := s.RefreshAll(context.Background(), testAddr, network.All())

	// Three results regardless: the failing network resolves to the zero
	// default on first load, the healthy ones are unaffected.
	if len(got) != 3 {
		t.Fatalf("result count = %d, want 3", len(got))
	}
	if got["bsc"] != Zero() {
		t.Errorf("bsc = %+v, want zero balance", got["bsc"])
	}
	if got["ethereum"].Formatted != "1.0000" || got["polygon"].Formatted != "3.0000" {
		t.Error("healthy networks should refresh despite the failure")
	}

	if s.LastErr("bsc") == nil {
		t.Error("failure should be recorded for observability")
	}
	if s.LastErr("ethereum") != nil {
		t.Errorf("ethereum LastErr = %v, want nil", s.LastErr("ethereum"))
	}
}

func TestRefreshOne_RetainsPreviousOnFailure(t *testing.T) {
	reader := &fakeReader{wei: ether(5)}
	readers := map[string]*fakeReader{"ethereum": reader}
	s := NewSynchronizer(dialerFor(readers), nil)

	eth, _ := network.ByID("ethereum")

	bal, err := s.RefreshOne(context.Background(), testAddr, eth)
	if err != nil {
		t.Fatalf("RefreshOne() error: %v", err)
	}
	if bal.Formatted != "5.0000" {
		t.Fatalf("balance = %q, want \"5.0000\"", bal.Formatted)
	}

	// Endpoint goes down: the stale value is served, error is reported.
	reader.mu.Lock()
	reader.err = fmt.Errorf("connection refused")
	reader.mu.Unlock()

	bal, err = s.RefreshOne(context.Background(), testAddr, eth)
	if err == nil {
		t.Error("expected informational error from failed refresh")
	}
	if bal.Formatted != "5.0000" {
		t.Errorf("balance = %q, want retained \"5.0000\"", bal.Formatted)
	}
	if s.Get("ethereum").Formatted != "5.0000" {
		t.Error("cached value should survive a failed refresh")
	}
}

func TestGet_ZeroBeforeFirstSuccess(t *testing.T) {
	s := NewSynchronizer(dialerFor(nil), nil)
	if s.Get("ethereum") != Zero() {
		t.Error("unfetched network should read as the zero balance")
	}
}

func TestConnected(t *testing.T) {
	readers := map[string]*fakeReader{"ethereum": {wei: ether(1)}}
	s := NewSynchronizer(dialerFor(readers), nil)

	if s.Connected() {
		t.Error("Connected() = true before any successful refresh")
	}

	eth, _ := network.ByID("ethereum")
	if _, err := s.RefreshOne(context.Background(), testAddr, eth); err != nil {
		t.Fatalf("RefreshOne() error: %v", err)
	}

	if !s.Connected() {
		t.Error("Connected() = false after a successful refresh")
	}
}

func TestConnected_FailuresOnly(t *testing.T) {
	readers := map[string]*fakeReader{"ethereum": {err: fmt.Errorf("down")}}
	s := NewSynchronizer(dialerFor(readers), nil)

	eth, _ := network.ByID("ethereum")
	s.RefreshOne(context.Background(), testAddr, eth)

	if s.Connected() {
		t.Error("Connected() should stay false while every refresh fails")
	}
}

// blockingReader parks queries until released, to observe in-flight state.
type blockingReader struct {
	release chan struct{}
	entered chan struct{}
}

func (b *blockingReader) BalanceAt(_ context.Context, _ common.Address) (*big.Int, error) {
	b.entered <- struct{}{}
	<-b.release
	return ether(1), nil
}

func TestLoading(t *testing.T) {
	blocker := &blockingReader{
		release: make(chan struct{}),
		entered: make(chan struct{}, 1),
	}
	s := NewSynchronizer(func(network.Network) (ChainReader, error) {
		return blocker, nil
	}, nil)

	eth, _ := network.ByID("ethereum")

	done := make(chan struct{})
	go func() {
		s.RefreshOne(context.Background(), testAddr, eth)
		close(done)
	}()

	<-blocker.entered
	if !s.Loading("ethereum") {
		t.Error("Loading() = false while a refresh is in flight")
	}

	close(blocker.release)
	<-done

	if s.Loading("ethereum") {
		t.Error("Loading() = true after the refresh completed")
	}
}

func TestRefreshOne_ConcurrentCallsShareOneQuery(t *testing.T) {
	blocker := &blockingReader{
		release: make(chan struct{}),
		entered: make(chan struct{}, 1),
	}
	s := NewSynchronizer(func(network.Network) (ChainReader, error) {
		return blocker, nil
	}, nil)

	eth, _ := network.ByID("ethereum")

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		s.RefreshOne(context.Background(), testAddr, eth)
	}()

	// First caller is now parked inside the endpoint query; later callers
	// must join its flight instead of issuing their own.
	<-blocker.entered

	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.RefreshOne(context.Background(), testAddr, eth)
		}()
	}
	time.Sleep(50 * time.Millisecond)

	close(blocker.release)
	wg.Wait()

	select {
	case <-blocker.entered:
		t.Error("concurrent refreshes should collapse into one endpoint query")
	default:
	}
}

// fixedPrice quotes every asset at a fixed USD value.
type fixedPrice struct {
	quote float64
	err   error
}

func (f *fixedPrice) Price(_ context.Context, _ string) (float64, error) {
	return f.quote, f.err
}

func TestRefreshOne_USDValuation(t *testing.T) {
	readers := map[string]*fakeReader{"ethereum": {wei: ether(2)}}
	s := NewSynchronizer(dialerFor(readers), &fixedPrice{quote: 1000})

	eth, _ := network.ByID("ethereum")
	bal, err := s.RefreshOne(context.Background(), testAddr, eth)
	if err != nil {
		t.Fatalf("RefreshOne() error: %v", err)
	}

	if bal.USD == nil {
		t.Fatal("USD should be set when the price feed answers")
	}
	if *bal.USD != 2000 {
		t.Errorf("USD = %v, want 2000", *bal.USD)
	}
}

func TestRefreshOne_PriceFailureIsNotFatal(t *testing.T) {
	readers := map[string]*fakeReader{"ethereum": {wei: ether(2)}}
	s := NewSynchronizer(dialerFor(readers), &fixedPrice{err: fmt.Errorf("rate limited")})

	eth, _ := network.ByID("ethereum")
	bal, err := s.RefreshOne(context.Background(), testAddr, eth)
	if err != nil {
		t.Fatalf("RefreshOne() error: %v", err)
	}

	if bal.Formatted != "2.0000" {
		t.Errorf("balance = %q, want \"2.0000\"", bal.Formatted)
	}
	if bal.USD != nil {
		t.Error("USD should be absent when the price feed fails")
	}
}
