package ncmsync

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"strings"

	"cloud.google.com/go/pubsub"
	"github.com/catalogodata/catalogo_backend/config"
	"github.com/catalogodata/catalogo_backend/models"
	"github.com/gin-gonic/gin"
)

// PublishSyncRun enqueues a queued run for the push worker. Cloud Scheduler
// publishes to the same topic for the nightly refresh.
func PublishSyncRun(ctx context.Context, runId uint) error {
	topicName := strings.TrimSpace(os.Getenv("NCM_SYNC_TOPIC"))
	if topicName == "" {
		topicName = "ncm-sync"
	}

	client, err := config.GetClient(ctx)
	if err != nil {
		return err
	}

	topic := client.Topic(topicName)
	if envBoolDefault("NCM_SYNC_CREATE_TOPIC", false) {
		topic, err = config.CreateTopicIfNotExists(client, topicName)
		if err != nil {
			return err
		}
	}

	payload := SyncPubSubPayload{RunId: runId}
	data, _ := json.Marshal(payload)
	res := topic.Publish(ctx, &pubsub.Message{Data: data})
	_, err = res.Get(ctx)
	return err
}

// ScheduleSync creates a queued run row and publishes it. Used by the
// scheduled entrypoint; the trigger endpoint runs inline instead.
func ScheduleSync(ctx context.Context) (*models.ReferenceSyncRun, error) {
	db := config.GetDB().WithContext(ctx)
	run := models.ReferenceSyncRun{
		Status:      models.SyncRunStatusQueued,
		TriggeredBy: models.SyncTriggeredSystem,
	}
	if err := db.Create(&run).Error; err != nil {
		return nil, err
	}
	if err := PublishSyncRun(ctx, run.ID); err != nil {
		return nil, err
	}
	return &run, nil
}

// PubSubPushHandler always acks: a malformed message would otherwise be
// redelivered forever, and processSyncRun skips runs already finished.
func PubSubPushHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !envBoolDefault("ENABLE_NCM_PUBSUB_PUSH_ENDPOINT", true) {
			c.Status(204)
			return
		}

		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.Status(204)
			return
		}

		var envelope PubSubPushEnvelope
		if err := json.Unmarshal(body, &envelope); err != nil {
			c.Status(204)
			return
		}

		var payload SyncPubSubPayload
		if err := json.Unmarshal(envelope.Message.Data, &payload); err != nil {
			c.Status(204)
			return
		}
		if payload.RunId == 0 {
			c.Status(204)
			return
		}

		_ = processSyncRun(c.Request.Context(), payload)
		c.Status(204)
	}
}

func envBoolDefault(key string, def bool) bool {
	val := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	switch val {
	case "true", "1", "yes", "y", "on":
		return true
	case "false", "0", "no", "n", "off":
		return false
	default:
		return def
	}
}
