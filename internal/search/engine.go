// Package search ranks stored rows against a query, using cosine
// similarity on the first vector tier that can serve the query and
// falling back to lexical scoring.
package search

import (
	"context"
	"log/slog"
	"sort"
	"strings"

	"github.com/mike-a-ellis/chat-memory-mcp/internal/config"
	"github.com/mike-a-ellis/chat-memory-mcp/internal/embedding"
)

// DefaultLimit is the number of results returned when the caller asks for none.
const DefaultLimit = 4

// Row is one searchable item. A row may carry a vector for either tier, both or neither.
type Row struct {
	ID     string
	Text   string
	OpenAI []float32
	Local  []float32
}

// Vector returns the row's vector for tier, or nil.
func (r Row) Vector(tier embedding.Tier) []float32 {
	switch tier {
	case embedding.TierOpenAI:
		return r.OpenAI
	case embedding.TierLocal:
		return r.Local
	default:
		return nil
	}
}

// Result is a scored row.
type Result struct {
	Row      Row
	Score    float64
	Provider embedding.Tier
}

// Response holds the ranked results and the tier that produced the scores.
type Response struct {
	Results  []Result
	Provider embedding.Tier
}

// Floors are the score thresholds applied after ranking. A result is kept
// when it reaches the absolute floor of its mode and the relative floor
// times the top score.
type Floors struct {
	OpenAI          float64
	Local           float64
	Lexical         float64
	RelativeVector  float64
	RelativeLexical float64
}

// DefaultFloors returns the production thresholds.
func DefaultFloors() Floors {
	return Floors{
		OpenAI:          0.2,
		Local:           0.18,
		Lexical:         0.35,
		RelativeVector:  0.75,
		RelativeLexical: 0.5,
	}
}

// FloorsFromConfig maps search configuration onto Floors.
func FloorsFromConfig(c config.SearchConfig) Floors {
	return Floors{
		OpenAI:          c.FloorOpenAI,
		Local:           c.FloorLocal,
		Lexical:         c.FloorLexical,
		RelativeVector:  c.RelativeVector,
		RelativeLexical: c.RelativeLexical,
	}
}

func (f Floors) absolute(tier embedding.Tier) float64 {
	switch tier {
	case embedding.TierOpenAI:
		return f.OpenAI
	case embedding.TierLocal:
		return f.Local
	default:
		return f.Lexical
	}
}

func (f Floors) relative(tier embedding.Tier) float64 {
	if tier.IsVector() {
		return f.RelativeVector
	}
	return f.RelativeLexical
}

// Embedder produces the query vector. *embedding.Chain implements it.
type Embedder interface {
	Embed(ctx context.Context, creds config.Credentials, text string, preferred embedding.Tier) (embedding.Embedding, error)
}

// Engine runs similarity searches over caller-supplied corpora.
type Engine struct {
	embedder     Embedder
	floors       Floors
	defaultLimit int
	logger       *slog.Logger
}

// NewEngine creates an engine. A zero defaultLimit uses DefaultLimit.
func NewEngine(embedder Embedder, floors Floors, defaultLimit int, logger *slog.Logger) *Engine {
	if defaultLimit <= 0 {
		defaultLimit = DefaultLimit
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{embedder: embedder, floors: floors, defaultLimit: defaultLimit, logger: logger}
}

// Search ranks corpus against query. The error is non-nil only when ctx is done.
func (e *Engine) Search(ctx context.Context, creds config.Credentials, query string, corpus []Row, preferred embedding.Tier, limit int) (Response, error) {
	preferred = embedding.ParseTier(string(preferred))
	if strings.TrimSpace(query) == "" || len(corpus) == 0 {
		return Response{Results: []Result{}, Provider: preferred}, nil
	}
	if limit <= 0 {
		limit = e.defaultLimit
	}

	tier := preferred
	for tier.IsVector() {
		emb, err := e.embedder.Embed(ctx, creds, query, tier)
		if err != nil {
			return Response{}, err
		}
		if !emb.Tier.IsVector() {
			tier = embedding.TierLexical
			break
		}

		scored := scoreVectors(emb, corpus)
		if len(scored) > 0 {
			return Response{Results: e.rank(scored, emb.Tier, limit), Provider: emb.Tier}, nil
		}

		e.logger.Info("no rows carry vectors for tier, falling back", "tier", emb.Tier, "rows", len(corpus))
		tier = emb.Tier.Next()
	}

	scored := make([]Result, len(corpus))
	for i, row := range corpus {
		scored[i] = Result{Row: row, Score: Lexical(query, row.Text), Provider: embedding.TierLexical}
	}
	return Response{Results: e.rank(scored, embedding.TierLexical, limit), Provider: embedding.TierLexical}, nil
}

// scoreVectors compares the query only with rows holding a vector of the
// same tier and dimension.
func scoreVectors(emb embedding.Embedding, corpus []Row) []Result {
	var scored []Result
	for _, row := range corpus {
		v := row.Vector(emb.Tier)
		if len(v) == 0 || len(v) != len(emb.Vector) {
			continue
		}
		scored = append(scored, Result{Row: row, Score: Cosine(emb.Vector, v), Provider: emb.Tier})
	}
	return scored
}

func (e *Engine) rank(scored []Result, tier embedding.Tier, limit int) []Result {
	sort.SliceStable(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })
	return Filter(scored, e.floors.absolute(tier), e.floors.relative(tier), limit)
}

// Filter keeps results at or above both minScore and relative times the
// top score, up to limit. results must already be sorted by score.
func Filter(results []Result, minScore, relative float64, limit int) []Result {
	out := []Result{}
	if len(results) == 0 {
		return out
	}
	relFloor := results[0].Score * relative
	for _, r := range results {
		if r.Score < minScore || r.Score < relFloor {
			continue
		}
		out = append(out, r)
		if len(out) == limit {
			break
		}
	}
	return out
}
