package database

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/go-openapi/strfmt"
	"github.com/google/uuid"
	"github.com/tieubaoca/pdfchat-be/config"
	"github.com/tieubaoca/pdfchat-be/types"
	"github.com/weaviate/weaviate-go-client/v4/weaviate"
	"github.com/weaviate/weaviate-go-client/v4/weaviate/auth"
	"github.com/weaviate/weaviate-go-client/v4/weaviate/filters"
	"github.com/weaviate/weaviate-go-client/v4/weaviate/graphql"
	"github.com/weaviate/weaviate/entities/models"
)

const BATCH_SIZE = 200

var passageNamespace = uuid.MustParse("6f1c3b52-9a0e-4d0c-8f5e-3c2b7d9a1e44")

func passageClass(name string) *models.Class {
	return &models.Class{
		Class:       name,
		Description: "Embedded spans of uploaded PDF documents",
		Vectorizer:  "none",
		Properties: []*models.Property{
			{Name: "content", DataType: []string{"text"}},
			{Name: "namespace", DataType: []string{"text"}, Tokenization: "field"},
			{Name: "page", DataType: []string{"int"}},
			{Name: "chunkIndex", DataType: []string{"int"}},
			{Name: "embedModel", DataType: []string{"text"}, Tokenization: "field"},
			{Name: "createdAt", DataType: []string{"date"}},
		},
		VectorIndexType: "hnsw",
	}
}

// WeaviateStore keeps every document's passages in one class; the namespace
// property partitions them and is part of every filter.
type WeaviateStore struct {
	client    *weaviate.Client
	className string
}

func NewWeaviateStore(ctx context.Context, cfg config.WeaviateStoreConfig) (*WeaviateStore, error) {
	scheme := cfg.Scheme
	host := cfg.Host
	for _, s := range []string{"https", "http"} {
		if strings.HasPrefix(host, s+"://") {
			scheme = s
			host = strings.TrimPrefix(host, s+"://")
			break
		}
	}
	if scheme == "" {
		scheme = "http"
	}
	wcfg := weaviate.Config{
		Host:   host,
		Scheme: scheme,
	}
	if cfg.APIKey != "" {
		wcfg.AuthConfig = auth.ApiKey{Value: cfg.APIKey}
	}
	client, err := weaviate.NewClient(wcfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create weaviate client: %v", err)
	}

	className := cfg.ClassName
	if className == "" {
		className = "Passage"
	}
	store := &WeaviateStore{client: client, className: className}
	if err := store.ensureClass(ctx); err != nil {
		return nil, err
	}
	return store, nil
}

func (s *WeaviateStore) ensureClass(ctx context.Context) error {
	schema, err := s.client.Schema().Getter().Do(ctx)
	if err != nil {
		return fmt.Errorf("failed to get schema: %v", err)
	}
	for _, class := range schema.Classes {
		if class.Class == s.className {
			return nil
		}
	}
	if err := s.client.Schema().ClassCreator().WithClass(passageClass(s.className)).Do(ctx); err != nil {
		return fmt.Errorf("failed to create %s class: %v", s.className, err)
	}
	log.Printf("Created weaviate class %s", s.className)
	return nil
}

// ReInit drops the passage class with all its objects and recreates it empty.
func (s *WeaviateStore) ReInit(ctx context.Context) error {
	if err := s.client.Schema().ClassDeleter().WithClassName(s.className).Do(ctx); err != nil {
		return fmt.Errorf("failed to delete %s class: %v", s.className, err)
	}
	if err := s.client.Schema().ClassCreator().WithClass(passageClass(s.className)).Do(ctx); err != nil {
		return fmt.Errorf("failed to create %s class: %v", s.className, err)
	}
	return nil
}

func passageID(namespace string, chunkIndex int) strfmt.UUID {
	return strfmt.UUID(uuid.NewSHA1(passageNamespace, []byte(fmt.Sprintf("%s/%d", namespace, chunkIndex))).String())
}

func (s *WeaviateStore) Upsert(ctx context.Context, namespace string, passages []types.Passage, vectors [][]float32) error {
	if len(passages) != len(vectors) {
		return ErrVectorCount
	}
	createdAt := time.Now().UTC().Format(time.RFC3339)
	total := len(passages)
	for i := 0; i < total; i += BATCH_SIZE {
		end := i + BATCH_SIZE
		if end > total {
			end = total
		}

		batcher := s.client.Batch().ObjectsBatcher()
		for j := i; j < end; j++ {
			p := passages[j]
			batcher = batcher.WithObjects(&models.Object{
				Class: s.className,
				ID:    passageID(namespace, p.ChunkIndex),
				Properties: map[string]interface{}{
					"content":    p.Content,
					"namespace":  namespace,
					"page":       p.Page,
					"chunkIndex": p.ChunkIndex,
					"embedModel": p.EmbedModel,
					"createdAt":  createdAt,
				},
				Vector: vectors[j],
			})
		}

		resp, err := batcher.Do(ctx)
		if err != nil {
			return fmt.Errorf("failed to insert batch %d-%d: %v", i, end, err)
		}
		for _, r := range resp {
			if r.Result != nil && r.Result.Errors != nil && len(r.Result.Errors.Error) > 0 {
				return fmt.Errorf("failed to insert batch %d-%d: %s", i, end, r.Result.Errors.Error[0].Message)
			}
		}
		log.Printf("Inserted passages %d-%d of %d into %s", i, end, total, namespace)
	}
	return nil
}

func namespaceFilter(namespace string) *filters.WhereBuilder {
	return filters.Where().
		WithPath([]string{"namespace"}).
		WithOperator(filters.Equal).
		WithValueText(namespace)
}

func (s *WeaviateStore) Query(ctx context.Context, namespace string, vector []float32, topK int) ([]types.Passage, error) {
	fields := []graphql.Field{
		{Name: "content"},
		{Name: "page"},
		{Name: "chunkIndex"},
		{Name: "embedModel"},
		{Name: "_additional", Fields: []graphql.Field{{Name: "distance"}}},
	}
	getBuilder := s.client.GraphQL().Get().
		WithClassName(s.className).
		WithFields(fields...).
		WithNearVector(s.client.GraphQL().NearVectorArgBuilder().WithVector(vector)).
		WithWhere(namespaceFilter(namespace))
	if topK > 0 {
		getBuilder = getBuilder.WithLimit(topK)
	}

	result, err := getBuilder.Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("search failed: %v", err)
	}
	if len(result.Errors) > 0 {
		return nil, fmt.Errorf("search failed: %v", result.Errors[0].Message)
	}
	return parsePassages(result.Data, s.className), nil
}

// parsePassages reads Get.<class> from a GraphQL response. Rows that lack
// content are skipped; missing numeric fields read as zero.
func parsePassages(data map[string]models.JSONObject, className string) []types.Passage {
	passages := []types.Passage{}
	get, ok := data["Get"].(map[string]interface{})
	if !ok {
		return passages
	}
	rows, ok := get[className].([]interface{})
	if !ok {
		return passages
	}
	for _, item := range rows {
		row, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		content, ok := row["content"].(string)
		if !ok {
			continue
		}
		embedModel, _ := row["embedModel"].(string)
		passages = append(passages, types.Passage{
			Content:    content,
			Page:       toInt(row["page"]),
			ChunkIndex: toInt(row["chunkIndex"]),
			EmbedModel: embedModel,
			Rank:       len(passages) + 1,
		})
	}
	return passages
}

func toInt(v interface{}) int {
	switch n := v.(type) {
	case float64:
		return int(n)
	case int:
		return n
	case int64:
		return int(n)
	default:
		return 0
	}
}

func (s *WeaviateStore) DeleteNamespace(ctx context.Context, namespace string) error {
	resp, err := s.client.Batch().ObjectsBatchDeleter().
		WithClassName(s.className).
		WithOutput("minimal").
		WithWhere(namespaceFilter(namespace)).
		Do(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete namespace %s: %v", namespace, err)
	}
	if resp != nil && resp.Results != nil {
		log.Printf("Deleted %d passages from %s", resp.Results.Successful, namespace)
	}
	return nil
}
