package queue

import (
	"context"
	"encoding/json"
	"log/slog"

	"cloud.google.com/go/pubsub"

	"thirdcoast.systems/vidscan/internal/artifact"
	"thirdcoast.systems/vidscan/internal/stage"
)

// Cloud Storage notification attributes.
const (
	attrEventType = "eventType"
	attrBucketID  = "bucketId"
	attrObjectID  = "objectId"

	eventFinalize = "OBJECT_FINALIZE"
)

// objectResource is the JSON_API_V1 payload of a storage notification.
type objectResource struct {
	Name   string `json:"name"`
	Bucket string `json:"bucket"`
}

// StageFromNotification maps a storage notification to the video whose
// stage document was just written. Anything that is not a finalized stage
// document in one of the configured buckets is reported as not ok.
func StageFromNotification(buckets artifact.Buckets, attrs map[string]string, data []byte) (videoID string, kind stage.Kind, ok bool) {
	if ev := attrs[attrEventType]; ev != "" && ev != eventFinalize {
		return "", "", false
	}

	bucket, name := attrs[attrBucketID], attrs[attrObjectID]
	if bucket == "" || name == "" {
		var obj objectResource
		if err := json.Unmarshal(data, &obj); err != nil {
			return "", "", false
		}
		bucket, name = obj.Bucket, obj.Name
	}

	want, ok := buckets.KindForBucket(bucket)
	if !ok {
		return "", "", false
	}
	videoID, kind, ok = stage.KindFromObjectName(name)
	if !ok || kind != want {
		return "", "", false
	}
	return videoID, kind, true
}

// Subscriber enqueues an aggregation every time a stage document lands in
// storage.
type Subscriber struct {
	sub     *pubsub.Subscription
	jobs    Jobs
	buckets artifact.Buckets
}

func NewSubscriber(client *pubsub.Client, subscriptionID string, jobs Jobs, buckets artifact.Buckets) *Subscriber {
	return &Subscriber{
		sub:     client.Subscription(subscriptionID),
		jobs:    jobs,
		buckets: buckets,
	}
}

// Receive blocks until ctx ends. Messages that do not name a stage document
// are acked and dropped; enqueue failures are nacked for redelivery.
func (s *Subscriber) Receive(ctx context.Context) error {
	slog.Info("listening for storage notifications", "subscription", s.sub.ID())
	return s.sub.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		s.handle(ctx, msg)
	})
}

func (s *Subscriber) handle(ctx context.Context, msg *pubsub.Message) {
	videoID, kind, ok := StageFromNotification(s.buckets, msg.Attributes, msg.Data)
	if !ok {
		msg.Ack()
		return
	}
	id, err := Enqueue(ctx, s.jobs, videoID)
	if err != nil {
		slog.Warn("enqueue from notification failed", "video_id", videoID, "stage", kind, "error", err)
		msg.Nack()
		return
	}
	slog.Info("aggregate job queued", "video_id", videoID, "stage", kind, "job_id", id.String())
	msg.Ack()
}
