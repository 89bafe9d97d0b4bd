package client

import (
	"encoding/json"
	"regexp"
	"strconv"
	"time"

	"github.com/Shopify/sarama"

	"github.com/cajal-labs/mosaic/mosaic"
)

// kafkaMaxMessageSize is the max message size in bytes for a Kafka message.
const kafkaMaxMessageSize = 980 * mosaic.Kilo

var (
	kafkaProducer sarama.AsyncProducer

	// the kafka topic for activity logging
	kafkaActivityTopicName string
)

// KafkaConfig describes kafka servers for read-activity logging.  Without
// configured servers, activity logging is silently disabled.
type KafkaConfig struct {
	TopicActivity string // if supplied, will override topic for activity log
	Servers       []string
}

// Initialize sets up the activity topic and the async producer.  It is a
// no-op if no servers are configured.
func (kc KafkaConfig) Initialize(hostID string) error {
	if len(kc.Servers) == 0 {
		return nil
	}
	if kc.TopicActivity != "" {
		kafkaActivityTopicName = kc.TopicActivity
	} else {
		kafkaActivityTopicName = "mosaicactivity-" + hostID
	}
	reg, err := regexp.Compile(`[^a-zA-Z0-9\\._\\-]+`)
	if err != nil {
		return err
	}
	kafkaActivityTopicName = reg.ReplaceAllString(kafkaActivityTopicName, "-")

	config := sarama.NewConfig()
	config.Producer.MaxMessageBytes = kafkaMaxMessageSize
	if kafkaProducer, err = sarama.NewAsyncProducer(kc.Servers, config); err != nil {
		return err
	}

	go func() {
		for err := range kafkaProducer.Errors() {
			mosaic.Errorf("error on kafka send: %v\n", err)
		}
	}()
	mosaic.Infof("Kafka topic for mosaic activity: %s\n", kafkaActivityTopicName)
	return nil
}

// KafkaShutdown makes sure that the kafka queue is flushed before stopping.
func KafkaShutdown() {
	if kafkaProducer != nil {
		if err := kafkaProducer.Close(); err != nil {
			mosaic.Errorf("Kafka producer had error on close: %v\n", err)
		}
		kafkaProducer = nil
	}
}

// LogActivity publishes a read-activity map asynchronously.
func LogActivity(activity map[string]interface{}) {
	if kafkaProducer != nil {
		go func() {
			jsonmsg, err := json.Marshal(activity)
			if err != nil {
				mosaic.Errorf("unable to marshal activity for kafka logging: %v\n", err)
				return
			}
			timeKey := sarama.StringEncoder(strconv.FormatInt(time.Now().UnixNano(), 10))
			kafkaProducer.Input() <- &sarama.ProducerMessage{
				Topic: kafkaActivityTopicName,
				Value: sarama.ByteEncoder(jsonmsg),
				Key:   timeKey,
			}
		}()
	}
}
