package tool

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	openaisdk "github.com/openai/openai-go"
	"github.com/uptrace/bun"
)

const (
	kbCandidateLimit = 200
	kbResultLimit    = 5
)

type kbDocumentRow struct {
	bun.BaseModel `bun:"table:kb_documents,alias:kd"`

	ID        int64     `bun:"id,pk,autoincrement"`
	Title     string    `bun:"title,notnull"`
	Content   string    `bun:"content,notnull"`
	Embedding []float64 `bun:"embedding,type:jsonb"`
	UpdatedAt time.Time `bun:"updated_at,notnull"`
}

// KnowledgeBase answers product queries for the recommendation step.
// Rows carry a precomputed embedding; when an embedding client is
// configured, results are ranked by cosine similarity to the query,
// otherwise by simple term overlap.
type KnowledgeBase struct {
	db             *bun.DB
	client         *openaisdk.Client
	embeddingModel string
}

func NewKnowledgeBase(db *bun.DB, client *openaisdk.Client, embeddingModel string) *KnowledgeBase {
	return &KnowledgeBase{
		db:             db,
		client:         client,
		embeddingModel: embeddingModel,
	}
}

// Init creates the documents table when it does not exist yet.
func (kb *KnowledgeBase) Init(ctx context.Context) error {
	_, err := kb.db.NewCreateTable().
		Model((*kbDocumentRow)(nil)).
		IfNotExists().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("create kb_documents table: %w", err)
	}
	return nil
}

type kbHit struct {
	Title   string  `json:"title"`
	Snippet string  `json:"snippet"`
	Score   float64 `json:"score"`
}

func (kb *KnowledgeBase) Search(ctx context.Context, query string) ([]kbHit, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, errors.New("query is required")
	}

	var rows []kbDocumentRow
	err := kb.db.NewSelect().
		Model(&rows).
		Limit(kbCandidateLimit).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("load kb documents: %w", err)
	}
	if len(rows) == 0 {
		return []kbHit{}, nil
	}

	var queryVec []float64
	if kb.client != nil {
		queryVec, err = kb.embed(ctx, query)
		if err != nil {
			// Embedding endpoint trouble degrades to term ranking
			// rather than failing the whole turn.
			queryVec = nil
		}
	}

	hits := make([]kbHit, 0, len(rows))
	for _, row := range rows {
		var score float64
		if queryVec != nil && len(row.Embedding) == len(queryVec) {
			score = cosineSimilarity(queryVec, row.Embedding)
		} else {
			score = termOverlap(query, row.Title+" "+row.Content)
		}
		if score <= 0 {
			continue
		}
		hits = append(hits, kbHit{
			Title:   row.Title,
			Snippet: snippet(row.Content),
			Score:   score,
		})
	}

	sort.Slice(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	if len(hits) > kbResultLimit {
		hits = hits[:kbResultLimit]
	}
	return hits, nil
}

func (kb *KnowledgeBase) embed(ctx context.Context, text string) ([]float64, error) {
	resp, err := kb.client.Embeddings.New(ctx, openaisdk.EmbeddingNewParams{
		Input: openaisdk.EmbeddingNewParamsInputUnion{
			OfString: openaisdk.String(text),
		},
		Model: openaisdk.EmbeddingModel(kb.embeddingModel),
	})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, errors.New("embedding response is empty")
	}
	return resp.Data[0].Embedding, nil
}

func cosineSimilarity(a, b []float64) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

func termOverlap(query, text string) float64 {
	text = strings.ToLower(text)
	terms := strings.Fields(strings.ToLower(query))
	if len(terms) == 0 {
		return 0
	}
	matched := 0
	for _, term := range terms {
		if strings.Contains(text, term) {
			matched++
		}
	}
	return float64(matched) / float64(len(terms))
}

func snippet(content string) string {
	const maxLen = 280
	content = strings.TrimSpace(content)
	if len(content) <= maxLen {
		return content
	}
	return content[:maxLen] + "..."
}
