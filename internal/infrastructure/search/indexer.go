// Package search mirrors channels and videos into Elasticsearch for full text lookup.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/vidtube-api/internal/domain/entity"
)

const requestTimeout = 3 * time.Second

// ChannelDoc is the indexed form of a user.
type ChannelDoc struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	FullName  string `json:"fullName"`
	Avatar    string `json:"avatar"`
	CreatedAt string `json:"createdAt"`
}

// VideoDoc is the indexed form of a video.
type VideoDoc struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Thumbnail   string  `json:"thumbnail"`
	Duration    float64 `json:"duration"`
	Owner       string  `json:"owner"`
	IsPublished bool    `json:"isPublished"`
	CreatedAt   string  `json:"createdAt"`
}

// Indexer writes and queries the channel and video indices.
type Indexer struct {
	es            *elasticsearch.Client
	channelsIndex string
	videosIndex   string
	logger        *logrus.Logger
}

func NewIndexer(es *elasticsearch.Client, channelsIndex, videosIndex string, logger *logrus.Logger) *Indexer {
	return &Indexer{es: es, channelsIndex: channelsIndex, videosIndex: videosIndex, logger: logger}
}

func ChannelDocFrom(u *entity.User) ChannelDoc {
	return ChannelDoc{
		ID:        u.ID.Hex(),
		Username:  u.Username,
		FullName:  u.FullName,
		Avatar:    u.Avatar,
		CreatedAt: u.CreatedAt.Format(time.RFC3339Nano),
	}
}

func VideoDocFrom(v *entity.Video) VideoDoc {
	return VideoDoc{
		ID:          v.ID.Hex(),
		Title:       v.Title,
		Description: v.Description,
		Thumbnail:   v.Thumbnail,
		Duration:    v.Duration,
		Owner:       v.Owner.Hex(),
		IsPublished: v.IsPublished,
		CreatedAt:   v.CreatedAt.Format(time.RFC3339Nano),
	}
}

func (i *Indexer) IndexChannel(ctx context.Context, u *entity.User) error {
	return i.index(ctx, i.channelsIndex, u.ID.Hex(), ChannelDocFrom(u))
}

func (i *Indexer) IndexVideo(ctx context.Context, v *entity.Video) error {
	return i.index(ctx, i.videosIndex, v.ID.Hex(), VideoDocFrom(v))
}

func (i *Indexer) DeleteVideo(ctx context.Context, id string) error {
	c, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()
	req := esapi.DeleteRequest{Index: i.videosIndex, DocumentID: id}
	res, err := req.Do(c, i.es)
	if err != nil {
		return err
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() && res.StatusCode != 404 {
		return fmt.Errorf("es delete: %s", res.Status())
	}
	return nil
}

func (i *Indexer) index(ctx context.Context, index, id string, doc any) error {
	b, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	c, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()
	req := esapi.IndexRequest{Index: index, DocumentID: id, Body: bytes.NewReader(b), Refresh: "false"}
	res, err := req.Do(c, i.es)
	if err != nil {
		return err
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() {
		i.logger.WithField("status", res.Status()).WithField("index", index).WithField("id", id).Warn("es index response error")
		return fmt.Errorf("es index: %s", res.Status())
	}
	return nil
}

// SearchChannels matches username and full name.
func (i *Indexer) SearchChannels(ctx context.Context, q string, size int) ([]ChannelDoc, error) {
	out := []ChannelDoc{}
	err := i.search(ctx, i.channelsIndex, ChannelQuery(q, size), &out)
	return out, err
}

// SearchVideos matches title and description among published videos.
func (i *Indexer) SearchVideos(ctx context.Context, q string, size int) ([]VideoDoc, error) {
	out := []VideoDoc{}
	err := i.search(ctx, i.videosIndex, VideoQuery(q, size), &out)
	return out, err
}

// ChannelQuery builds the multi_match body for channels.
func ChannelQuery(q string, size int) map[string]any {
	return map[string]any{
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":     q,
				"fields":    []string{"username^2", "fullName"},
				"fuzziness": "AUTO",
			},
		},
		"size": clampSize(size),
	}
}

// VideoQuery builds the bool query for published videos.
func VideoQuery(q string, size int) map[string]any {
	return map[string]any{
		"query": map[string]any{
			"bool": map[string]any{
				"must": map[string]any{
					"multi_match": map[string]any{
						"query":  q,
						"fields": []string{"title^3", "description"},
					},
				},
				"filter": []any{
					map[string]any{"term": map[string]any{"isPublished": true}},
				},
			},
		},
		"size": clampSize(size),
	}
}

func clampSize(size int) int {
	if size <= 0 || size > 50 {
		return 10
	}
	return size
}

func (i *Indexer) search(ctx context.Context, index string, query map[string]any, dst any) error {
	b, err := json.Marshal(query)
	if err != nil {
		return err
	}
	c, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	res, err := i.es.Search(i.es.Search.WithContext(c), i.es.Search.WithIndex(index), i.es.Search.WithBody(bytes.NewReader(b)))
	if err != nil {
		return err
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() {
		return fmt.Errorf("es search: %s", res.Status())
	}

	var parsed struct {
		Hits struct {
			Hits []struct {
				Source json.RawMessage `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return err
	}
	sources := make([]json.RawMessage, 0, len(parsed.Hits.Hits))
	for _, h := range parsed.Hits.Hits {
		sources = append(sources, h.Source)
	}
	raw, err := json.Marshal(sources)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, dst)
}
