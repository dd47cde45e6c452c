package keywords

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtract(t *testing.T) {
	tests := []struct {
		name string
		text string
		max  int
		want []string
	}{
		{
			name: "frequency then length",
			text: "postgres index postgres vacuum postgres index",
			max:  3,
			want: []string{"postgres", "index", "vacuum"},
		},
		{
			name: "stop words and short tokens dropped",
			text: "the api and the db with your sql",
			max:  5,
			want: []string{"api", "sql"},
		},
		{
			name: "cjk runs outweigh latin words",
			text: "数据库 api 数据库",
			max:  2,
			want: []string{"数据库", "api"},
		},
		{
			name: "punctuation and case normalized",
			text: "Redis! REDIS? redis.",
			max:  1,
			want: []string{"redis"},
		},
		{
			name: "empty",
			text: "  \n\t ",
			max:  3,
			want: nil,
		},
		{
			name: "zero max",
			text: "anything here",
			max:  0,
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Extract(tt.text, tt.max))
		})
	}
}

func TestExtract_Deterministic(t *testing.T) {
	text := "缓存 失效 redis cluster 缓存 timeout cluster 重试 backoff"
	first := Extract(text, 6)
	for i := 0; i < 20; i++ {
		assert.Equal(t, first, Extract(text, 6))
	}
}

func TestExtractStructured(t *testing.T) {
	t.Run("declared keywords are supplemented", func(t *testing.T) {
		got := ExtractStructured("关键词：A，B\n总结：...", 3)
		require.Len(t, got, 3)
		assert.Equal(t, "A", got[0])
		assert.Equal(t, "B", got[1])
		assert.Equal(t, "关键词", got[2])
	})

	t.Run("declared keywords truncated", func(t *testing.T) {
		got := ExtractStructured("关键词：x1、x2、x3、x4\n总结：ok", 3)
		assert.Equal(t, []string{"x1", "x2", "x3"}, got)
	})

	t.Run("block label", func(t *testing.T) {
		got := ExtractStructured("【关键词】\nalpha | beta ; gamma\n【核心结论】\nsomething", 3)
		assert.Equal(t, []string{"alpha", "beta", "gamma"}, got)
	})

	t.Run("english label", func(t *testing.T) {
		got := ExtractStructured("Keywords: kafka, consumer, lag\nSummary: tuned it", 3)
		assert.Equal(t, []string{"kafka", "consumer", "lag"}, got)
	})

	t.Run("no label falls back to frequency", func(t *testing.T) {
		got := ExtractStructured("grpc grpc deadline", 2)
		assert.Equal(t, []string{"grpc", "deadline"}, got)
	})
}

func TestMatch(t *testing.T) {
	pool := []string{"sql", "PostgreSQL", "索引", "", "sql"}

	got := Match("How do I tune a postgresql 索引 with SQL?", pool, 10)
	assert.Equal(t, []string{"PostgreSQL", "sql", "索引"}, got)

	assert.Equal(t, []string{"PostgreSQL"}, Match("postgresql sql", pool, 1))
	assert.Empty(t, Match("", pool, 5))
	assert.Empty(t, Match("nothing relevant", pool, 5))
}

func TestMatchScore(t *testing.T) {
	summary := "关键词：kafka，consumer，lag\n总结：consumer lag on kafka"

	assert.InDelta(t, 0.0, MatchScore("unrelated", summary), 1e-9)
	assert.InDelta(t, 0.0, MatchScore("anything", ""), 1e-9)

	full := MatchScore("kafka consumer lag 关键词 总结", summary)
	partial := MatchScore("kafka only", summary)
	assert.Greater(t, full, partial)
	assert.Greater(t, partial, 0.0)
	assert.LessOrEqual(t, full, 1.0)
}

func TestNormalizeSummary(t *testing.T) {
	t.Run("well formed response", func(t *testing.T) {
		got := NormalizeSummary("关键词：redis，缓存，ttl\n总结：- 设置了 TTL\n- 修复缓存击穿", "")
		assert.Equal(t, "关键词：redis，缓存，ttl\n总结：设置了 TTL 修复缓存击穿", got)
	})

	t.Run("empty response uses transcript", func(t *testing.T) {
		got := NormalizeSummary("", "user: deploy failed\nassistant: check the deploy logs")
		kws, summary := Parse(got)
		assert.Len(t, kws, CanonicalCount)
		assert.Equal(t, "user: deploy failed assistant: check the deploy logs", summary)
	})

	t.Run("nothing at all", func(t *testing.T) {
		got := NormalizeSummary("", "")
		assert.Equal(t, "关键词：关键词1，关键词2，关键词3\n总结：暂无可用总结。", got)
	})

	t.Run("long summary truncated", func(t *testing.T) {
		got := NormalizeSummary("总结："+strings.Repeat("字", 400), "")
		_, summary := Parse(got)
		assert.Equal(t, MaxSummaryRunes+3, len([]rune(summary)))
		assert.True(t, strings.HasSuffix(summary, "..."))
	})

	t.Run("core conclusion block", func(t *testing.T) {
		got := NormalizeSummary("【关键词】\na b c\n【核心结论】\n结论一\n【其他】\n忽略", "")
		_, summary := Parse(got)
		assert.Equal(t, "结论一", summary)
	})
}

func TestNormalizeSummary_Idempotent(t *testing.T) {
	once := NormalizeSummary("关键词：go，channel，select\n总结：用 select 处理超时", "")
	assert.Equal(t, once, NormalizeSummary(once, ""))
}

func TestParse(t *testing.T) {
	kws, summary := Parse("关键词：a1，b2，c3\n总结：hello world")
	assert.Equal(t, []string{"a1", "b2", "c3"}, kws)
	assert.Equal(t, "hello world", summary)

	kws, summary = Parse("just text")
	assert.Nil(t, kws)
	assert.Equal(t, "just text", summary)
}
