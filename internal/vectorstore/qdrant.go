package vectorstore

import (
	"context"
	"fmt"
	"strings"

	"github.com/jonathan/outreach-agent/internal/embedding"
	pb "github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

const (
	payloadDocument = "document"
	payloadMetaPfx  = "meta."
)

// QdrantIndex stores documents as points in a Qdrant collection
type QdrantIndex struct {
	conn        *grpc.ClientConn
	points      pb.PointsClient
	collections pb.CollectionsClient
	collection  string
	embedder    embedding.Embedder
}

// OpenQdrant connects to Qdrant's gRPC endpoint at addr and creates the
// collection with cosine distance if it does not exist.
func OpenQdrant(ctx context.Context, addr, collection string, embedder embedding.Embedder) (*QdrantIndex, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("failed to dial qdrant %s: %w", addr, err)
	}
	q := &QdrantIndex{
		conn:        conn,
		points:      pb.NewPointsClient(conn),
		collections: pb.NewCollectionsClient(conn),
		collection:  collection,
		embedder:    embedder,
	}
	if err := q.ensureCollection(ctx); err != nil {
		_ = conn.Close()
		return nil, err
	}
	return q, nil
}

func (q *QdrantIndex) ensureCollection(ctx context.Context) error {
	list, err := q.collections.List(ctx, &pb.ListCollectionsRequest{})
	if err != nil {
		return fmt.Errorf("failed to list qdrant collections: %w", err)
	}
	for _, c := range list.GetCollections() {
		if c.GetName() == q.collection {
			return nil
		}
	}

	_, err = q.collections.Create(ctx, &pb.CreateCollection{
		CollectionName: q.collection,
		VectorsConfig: &pb.VectorsConfig{
			Config: &pb.VectorsConfig_Params{
				Params: &pb.VectorParams{
					Size:     uint64(q.embedder.Dimensions()),
					Distance: pb.Distance_Cosine,
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create qdrant collection %s: %w", q.collection, err)
	}
	return nil
}

// Count implements Index
func (q *QdrantIndex) Count(ctx context.Context) (int, error) {
	exact := true
	resp, err := q.points.Count(ctx, &pb.CountPoints{
		CollectionName: q.collection,
		Exact:          &exact,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to count points in %s: %w", q.collection, err)
	}
	return int(resp.GetResult().GetCount()), nil
}

// Add implements Index. Document IDs must be UUIDs.
func (q *QdrantIndex) Add(ctx context.Context, docs []Document) error {
	if len(docs) == 0 {
		return nil
	}

	vectors, err := q.embedder.Embed(ctx, documentTexts(docs))
	if err != nil {
		return fmt.Errorf("failed to embed documents: %w", err)
	}

	points := make([]*pb.PointStruct, len(docs))
	for i, doc := range docs {
		payload := make(map[string]*pb.Value, len(doc.Metadata)+1)
		payload[payloadDocument] = stringValue(doc.Text)
		for k, v := range doc.Metadata {
			payload[payloadMetaPfx+k] = stringValue(v)
		}
		points[i] = &pb.PointStruct{
			Id: &pb.PointId{
				PointIdOptions: &pb.PointId_Uuid{Uuid: doc.ID},
			},
			Vectors: &pb.Vectors{
				VectorsOptions: &pb.Vectors_Vector{
					Vector: &pb.Vector{Data: vectors[i]},
				},
			},
			Payload: payload,
		}
	}

	wait := true
	_, err = q.points.Upsert(ctx, &pb.UpsertPoints{
		CollectionName: q.collection,
		Wait:           &wait,
		Points:         points,
	})
	if err != nil {
		return fmt.Errorf("failed to upsert %d points: %w", len(points), err)
	}
	return nil
}

// Query implements Index
func (q *QdrantIndex) Query(ctx context.Context, texts []string, n int) ([][]Match, error) {
	if len(texts) == 0 {
		return [][]Match{}, nil
	}

	queries, err := q.embedder.Embed(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("failed to embed queries: %w", err)
	}

	results := make([][]Match, len(queries))
	for i, vec := range queries {
		resp, err := q.points.Search(ctx, &pb.SearchPoints{
			CollectionName: q.collection,
			Vector:         vec,
			Limit:          uint64(n),
			WithPayload:    &pb.WithPayloadSelector{SelectorOptions: &pb.WithPayloadSelector_Enable{Enable: true}},
		})
		if err != nil {
			return nil, fmt.Errorf("failed to search %q: %w", texts[i], err)
		}

		matches := make([]Match, len(resp.GetResult()))
		for j, r := range resp.GetResult() {
			m := Match{
				ID:       r.GetId().GetUuid(),
				Score:    r.GetScore(),
				Metadata: make(map[string]string),
			}
			for k, val := range r.GetPayload() {
				switch {
				case k == payloadDocument:
					m.Text = val.GetStringValue()
				case strings.HasPrefix(k, payloadMetaPfx):
					m.Metadata[strings.TrimPrefix(k, payloadMetaPfx)] = val.GetStringValue()
				}
			}
			matches[j] = m
		}
		results[i] = matches
	}
	return results, nil
}

// Close implements Index
func (q *QdrantIndex) Close() error {
	return q.conn.Close()
}

func stringValue(s string) *pb.Value {
	return &pb.Value{Kind: &pb.Value_StringValue{StringValue: s}}
}
