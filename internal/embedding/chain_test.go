package embedding

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mike-a-ellis/chat-memory-mcp/internal/config"
)

// fakeBackend returns a one-element vector per text, derived from its length.
type fakeBackend struct {
	tier   Tier
	fail   bool
	failOn string
	calls  *callLog
}

func (b *fakeBackend) Embed(_ context.Context, texts []string) ([][]float32, error) {
	b.calls.record(b.tier, len(texts))
	if b.fail {
		return nil, errors.New("backend down")
	}
	out := make([][]float32, len(texts))
	for i, text := range texts {
		if b.failOn != "" && strings.Contains(text, b.failOn) {
			return nil, errors.New("item rejected")
		}
		out[i] = []float32{float32(len(text))}
	}
	return out, nil
}

type callLog struct {
	mu     sync.Mutex
	byTier map[Tier]int
	sizes  map[Tier][]int
}

func newCallLog() *callLog {
	return &callLog{byTier: map[Tier]int{}, sizes: map[Tier][]int{}}
}

func (l *callLog) record(tier Tier, size int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.byTier[tier]++
	l.sizes[tier] = append(l.sizes[tier], size)
}

func (l *callLog) count(tier Tier) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.byTier[tier]
}

type fakeFactory struct {
	calls   *callLog
	failing map[Tier]bool
	failOn  string
}

func (f *fakeFactory) build(tier Tier, _ config.Credentials) (Backend, error) {
	return &fakeBackend{tier: tier, fail: f.failing[tier], failOn: f.failOn, calls: f.calls}, nil
}

var (
	allCreds = config.Credentials{
		OpenAIAPIKey:          "sk-test",
		LocalEmbeddingBaseURL: "http://localhost:11434/v1",
	}
	localOnly = config.Credentials{LocalEmbeddingBaseURL: "http://localhost:11434/v1"}
	noCreds   = config.Credentials{}
)

func TestSequence(t *testing.T) {
	assert.Equal(t, []Tier{TierOpenAI, TierLocal, TierLexical}, Sequence(TierOpenAI))
	assert.Equal(t, []Tier{TierLocal, TierLexical}, Sequence(TierLocal))
	assert.Equal(t, []Tier{TierLexical}, Sequence(TierLexical))
	assert.Equal(t, []Tier{TierOpenAI, TierLocal, TierLexical}, Sequence("bogus"))
}

func TestParseTier(t *testing.T) {
	assert.Equal(t, TierLocal, ParseTier(" Local "))
	assert.Equal(t, TierLexical, ParseTier("lexical"))
	assert.Equal(t, TierOpenAI, ParseTier(""))
}

func TestChain_Embed(t *testing.T) {
	tests := []struct {
		name     string
		creds    config.Credentials
		failing  map[Tier]bool
		start    Tier
		wantTier Tier
		wantVec  bool
		calls    map[Tier]int
	}{
		{
			name:     "hosted succeeds",
			creds:    allCreds,
			start:    TierOpenAI,
			wantTier: TierOpenAI,
			wantVec:  true,
			calls:    map[Tier]int{TierOpenAI: 1},
		},
		{
			name:     "hosted fails over to local",
			creds:    allCreds,
			failing:  map[Tier]bool{TierOpenAI: true},
			start:    TierOpenAI,
			wantTier: TierLocal,
			wantVec:  true,
			calls:    map[Tier]int{TierOpenAI: 1, TierLocal: 1},
		},
		{
			name:     "missing hosted key skips the hosted call",
			creds:    localOnly,
			start:    TierOpenAI,
			wantTier: TierLocal,
			wantVec:  true,
			calls:    map[Tier]int{TierLocal: 1},
		},
		{
			name:     "no credentials ends lexical without calls",
			creds:    noCreds,
			start:    TierOpenAI,
			wantTier: TierLexical,
			calls:    map[Tier]int{},
		},
		{
			name:     "everything failing ends lexical",
			creds:    allCreds,
			failing:  map[Tier]bool{TierOpenAI: true, TierLocal: true},
			start:    TierOpenAI,
			wantTier: TierLexical,
			calls:    map[Tier]int{TierOpenAI: 1, TierLocal: 1},
		},
		{
			name:     "lexical preferred makes no calls",
			creds:    allCreds,
			start:    TierLexical,
			wantTier: TierLexical,
			calls:    map[Tier]int{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &fakeFactory{calls: newCallLog(), failing: tt.failing}
			chain := NewChain(f.build, WithCacheSize(0))

			got, err := chain.Embed(context.Background(), tt.creds, "hello", tt.start)
			require.NoError(t, err)
			assert.Equal(t, tt.wantTier, got.Tier)
			if tt.wantVec {
				assert.Equal(t, []float32{5}, got.Vector)
			} else {
				assert.Nil(t, got.Vector)
			}
			for _, tier := range []Tier{TierOpenAI, TierLocal} {
				assert.Equal(t, tt.calls[tier], f.calls.count(tier), "calls to %s", tier)
			}
		})
	}
}

func TestChain_EmbedCachesQueries(t *testing.T) {
	f := &fakeFactory{calls: newCallLog()}
	chain := NewChain(f.build)

	for i := 0; i < 3; i++ {
		got, err := chain.Embed(context.Background(), allCreds, "same query", TierOpenAI)
		require.NoError(t, err)
		assert.Equal(t, TierOpenAI, got.Tier)
	}
	assert.Equal(t, 1, f.calls.count(TierOpenAI))
}

func TestChain_EmbedCancelled(t *testing.T) {
	f := &fakeFactory{calls: newCallLog()}
	chain := NewChain(f.build, WithCacheSize(0))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := chain.Embed(ctx, allCreds, "hello", TierOpenAI)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestChain_BreakerSkipsFailingTier(t *testing.T) {
	f := &fakeFactory{calls: newCallLog(), failing: map[Tier]bool{TierOpenAI: true}}
	chain := NewChain(f.build, WithCacheSize(0))

	for i := 0; i < 8; i++ {
		got, err := chain.Embed(context.Background(), allCreds, strings.Repeat("q", i+1), TierOpenAI)
		require.NoError(t, err)
		assert.Equal(t, TierLocal, got.Tier)
	}
	// Five consecutive failures open the breaker; later calls skip the backend.
	assert.Equal(t, 5, f.calls.count(TierOpenAI))
	assert.Equal(t, 8, f.calls.count(TierLocal))
}

func TestChain_EmbedBatch(t *testing.T) {
	texts := []string{"a", "bb", "ccc", "dddd"}

	t.Run("hosted sends one request", func(t *testing.T) {
		f := &fakeFactory{calls: newCallLog()}
		chain := NewChain(f.build)

		got, err := chain.EmbedBatch(context.Background(), allCreds, texts, TierOpenAI)
		require.NoError(t, err)
		assert.Equal(t, TierOpenAI, got.Tier)
		assert.Equal(t, [][]float32{{1}, {2}, {3}, {4}}, got.Vectors)
		assert.Equal(t, []int{4}, f.calls.sizes[TierOpenAI])
	})

	t.Run("hosted failure moves the whole batch", func(t *testing.T) {
		f := &fakeFactory{calls: newCallLog(), failing: map[Tier]bool{TierOpenAI: true}}
		chain := NewChain(f.build)

		got, err := chain.EmbedBatch(context.Background(), allCreds, texts, TierOpenAI)
		require.NoError(t, err)
		assert.Equal(t, TierLocal, got.Tier)
		assert.Equal(t, [][]float32{{1}, {2}, {3}, {4}}, got.Vectors)
		assert.Equal(t, 4, f.calls.count(TierLocal))
	})

	t.Run("local item failure leaves a nil slot", func(t *testing.T) {
		f := &fakeFactory{calls: newCallLog(), failOn: "ccc"}
		chain := NewChain(f.build, WithConcurrency(2))

		got, err := chain.EmbedBatch(context.Background(), localOnly, texts, TierOpenAI)
		require.NoError(t, err)
		assert.Equal(t, TierLocal, got.Tier)
		require.Len(t, got.Vectors, 4)
		assert.Equal(t, []float32{1}, got.Vectors[0])
		assert.Equal(t, []float32{2}, got.Vectors[1])
		assert.Nil(t, got.Vectors[2])
		assert.Equal(t, []float32{4}, got.Vectors[3])
		assert.Equal(t, 0, f.calls.count(TierOpenAI))
	})

	t.Run("no credentials yields lexical slots", func(t *testing.T) {
		f := &fakeFactory{calls: newCallLog()}
		chain := NewChain(f.build)

		got, err := chain.EmbedBatch(context.Background(), noCreds, texts, TierOpenAI)
		require.NoError(t, err)
		assert.Equal(t, TierLexical, got.Tier)
		assert.Len(t, got.Vectors, 4)
		for _, v := range got.Vectors {
			assert.Nil(t, v)
		}
		assert.Equal(t, 0, f.calls.count(TierOpenAI))
		assert.Equal(t, 0, f.calls.count(TierLocal))
	})
}

type recordingObserver struct {
	mu       sync.Mutex
	served   []string
	degraded []bool
	failed   []string
}

func (o *recordingObserver) EmbeddingServed(tier string, degraded bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.served = append(o.served, tier)
	o.degraded = append(o.degraded, degraded)
}

func (o *recordingObserver) EmbeddingFailed(tier string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.failed = append(o.failed, tier)
}

func TestChain_Observer(t *testing.T) {
	f := &fakeFactory{calls: newCallLog(), failing: map[Tier]bool{TierOpenAI: true}}
	obs := &recordingObserver{}
	chain := NewChain(f.build, WithObserver(obs), WithCacheSize(0))

	_, err := chain.Embed(context.Background(), allCreds, "x", TierOpenAI)
	require.NoError(t, err)

	assert.Equal(t, []string{"openai"}, obs.failed)
	assert.Equal(t, []string{"local"}, obs.served)
	assert.Equal(t, []bool{true}, obs.degraded)
}

func TestNewOpenAIFactory_MissingCredentials(t *testing.T) {
	factory := NewOpenAIFactory(Models{})

	_, err := factory(TierOpenAI, noCreds)
	assert.ErrorIs(t, err, ErrUnavailable)

	_, err = factory(TierLocal, noCreds)
	assert.ErrorIs(t, err, ErrUnavailable)

	_, err = factory(TierOpenAI, config.Credentials{UseAzure: true, AzureAPIKey: "k"})
	assert.ErrorIs(t, err, ErrUnavailable)

	_, err = factory(TierLexical, allCreds)
	assert.ErrorIs(t, err, ErrUnavailable)

	backend, err := factory(TierLocal, localOnly)
	require.NoError(t, err)
	assert.NotNil(t, backend)
}

func TestToFloat32(t *testing.T) {
	assert.Equal(t, []float32{0.5, -1, 0}, toFloat32([]float64{0.5, -1, 0}))
}
