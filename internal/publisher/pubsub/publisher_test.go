package pubsub

import (
	"context"
	"encoding/json"
	"testing"

	"cloud.google.com/go/pubsub"
	"cloud.google.com/go/pubsub/pstest"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/JakeFAU/review-scraper/internal/scraper"
)

func newTestClient(t *testing.T) (*pubsub.Client, *pstest.Server) {
	t.Helper()

	srv := pstest.NewServer()
	t.Cleanup(func() { _ = srv.Close() })

	conn, err := grpc.NewClient(srv.Addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)

	client, err := pubsub.NewClient(context.Background(), "test-project", option.WithGRPCConn(conn))
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client, srv
}

func TestPublisherPublishesJSON(t *testing.T) {
	t.Parallel()

	client, srv := newTestClient(t)
	ctx := context.Background()
	_, err := client.CreateTopic(ctx, "review-runs")
	require.NoError(t, err)

	pub := New(client)
	defer pub.Stop()

	id, err := pub.Publish(ctx, "review-runs", map[string]any{"run_id": "run-1", "total_new_reviews": 4})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	msgs := srv.Messages()
	require.Len(t, msgs, 1)
	var got map[string]any
	require.NoError(t, json.Unmarshal(msgs[0].Data, &got))
	require.Equal(t, "run-1", got["run_id"])
	require.EqualValues(t, 4, got["total_new_reviews"])
}

func TestPublisherMissingTopicFails(t *testing.T) {
	t.Parallel()

	client, _ := newTestClient(t)
	pub := New(client)
	defer pub.Stop()

	_, err := pub.Publish(context.Background(), "does-not-exist", "payload")
	require.Error(t, err)
}

func TestPublisherValidation(t *testing.T) {
	t.Parallel()

	_, err := New(nil).Publish(context.Background(), "topic", "payload")
	require.Error(t, err)

	client, _ := newTestClient(t)
	_, err = New(client).Publish(context.Background(), "", "payload")
	require.Error(t, err)

	_, err = New(client).Publish(context.Background(), "topic", func() {})
	require.Error(t, err)
}

func TestPublisherAttachesSummaryLabels(t *testing.T) {
	t.Parallel()

	client, srv := newTestClient(t)
	ctx := context.Background()
	_, err := client.CreateTopic(ctx, "review-runs")
	require.NoError(t, err)

	pub := New(client)
	defer pub.Stop()

	summary := scraper.Summary{
		RunID:           "run-7",
		TotalCompanies:  2,
		TotalNewReviews: 5,
		Companies: map[string]scraper.Outcome{
			"acme":   {Status: scraper.StatusSuccess, NewReviews: 5},
			"globex": {Status: scraper.StatusFailed, Error: "boom"},
		},
	}
	_, err = pub.Publish(ctx, "review-runs", summary)
	require.NoError(t, err)

	msgs := srv.Messages()
	require.Len(t, msgs, 1)
	attrs := msgs[0].Attributes
	require.Equal(t, "application/json", attrs["content_type"])
	require.Equal(t, "run-7", attrs["run_id"])
	require.Equal(t, "1", attrs["failed_companies"])
	require.Equal(t, "5", attrs["total_new_reviews"])
}

func TestAttributeCarrier(t *testing.T) {
	t.Parallel()

	c := attributeCarrier{}
	c.Set("traceparent", "00-abc-def-01")
	require.Equal(t, "00-abc-def-01", c.Get("traceparent"))
	require.Equal(t, []string{"traceparent"}, c.Keys())
}
