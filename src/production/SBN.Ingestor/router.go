package ingestor

import (
	"context"
	"strings"
	"time"

	broker "gitlab.com/binsense1/sbn.bin_server/src/production/SBN.Broker"
	livestore "gitlab.com/binsense1/sbn.bin_server/src/production/SBN.LiveStore"
	logger "gitlab.com/binsense1/sbn.bin_server/src/production/SBN.Logger"
	sbnmodels "gitlab.com/binsense1/sbn.bin_server/src/production/SBN.Models"
)

// Message kinds carried in the third topic segment.
const (
	kindData      = "data"
	kindStatus    = "status"
	kindGetConfig = "get-config"
)

// Router parses inbound topics, validates payloads and applies the
// accepted message to the live cache before any durable side effect.
// Malformed topics and payloads are logged and dropped; nothing in this
// path ever terminates the pipeline.
type Router struct {
	live       *livestore.Store
	sync       *Synchronizer
	dispatcher *broker.Dispatcher
	logger     *logger.Logger
}

func NewRouter(live *livestore.Store, sync *Synchronizer, dispatcher *broker.Dispatcher, log *logger.Logger) *Router {
	return &Router{
		live:       live,
		sync:       sync,
		dispatcher: dispatcher,
		logger:     log.WithComponent("router"),
	}
}

// Run drains the inbound channel until it is closed or the context is
// cancelled. A single goroutine runs this loop, which makes per-message
// ordering within the connection explicit: snapshots land in the cache
// in arrival order, so last-seen never moves backwards.
func (r *Router) Run(ctx context.Context, messages <-chan broker.Message) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-messages:
			if !ok {
				return
			}
			r.HandleMessage(ctx, msg.Topic, msg.Payload)
		}
	}
}

// HandleMessage routes one raw bus message. Topic shape is
// bins/{deviceId}/{kind}.
func (r *Router) HandleMessage(ctx context.Context, topic string, payload []byte) {
	parts := strings.Split(topic, "/")
	if len(parts) < 3 || parts[1] == "" {
		r.logger.WithField("topic", topic).Warn("Dropping message with malformed topic")
		return
	}

	deviceID := parts[1]
	kind := parts[2]

	switch kind {
	case kindData:
		r.handleData(ctx, payload)
	case kindStatus:
		r.handleStatus(ctx, deviceID, payload)
	case kindGetConfig:
		r.handleGetConfig(ctx, deviceID)
	default:
		r.logger.WithField("topic", topic).Warn("Dropping message of unknown kind")
	}
}

func (r *Router) handleData(ctx context.Context, payload []byte) {
	data, err := sbnmodels.ParseBinData(payload)
	if err != nil {
		// Rejected wholesale: no cache update, no persistence write.
		r.logger.ErrorWithError(err, "Dropping invalid data payload")
		return
	}

	now := time.Now()
	r.live.Put(data.DeviceID, sbnmodels.LiveSnapshot{
		FillLevel:         data.FillLevel,
		BatteryPercentage: data.BatteryPercentage,
		Voltage:           data.Voltage,
		IsTilted:          data.IsTilted,
		LastSeen:          now,
		Status:            sbnmodels.StatusOnline,
	})

	r.sync.OnData(ctx, data, now)
}

func (r *Router) handleStatus(ctx context.Context, deviceID string, payload []byte) {
	status := sbnmodels.StatusOffline
	if string(payload) == sbnmodels.StatusOnline {
		status = sbnmodels.StatusOnline
	}

	now := time.Now()
	snapshot, ok := r.live.Get(deviceID)
	if !ok {
		snapshot = sbnmodels.LiveSnapshot{
			FillLevel:         sbnmodels.DefaultFillLevel,
			BatteryPercentage: sbnmodels.DefaultBatteryPercentage,
			Voltage:           sbnmodels.DefaultVoltage,
		}
	}
	snapshot.Status = status
	snapshot.LastSeen = now
	r.live.Put(deviceID, snapshot)

	r.sync.OnStatus(ctx, deviceID, status, now)
}

func (r *Router) handleGetConfig(ctx context.Context, deviceID string) {
	r.sync.OnConfigRequest(ctx, deviceID, time.Now())

	if err := r.dispatcher.RespondToConfigRequest(ctx, deviceID); err != nil {
		r.logger.WithDevice(deviceID).ErrorWithError(err, "Failed to answer config request")
	}
}
