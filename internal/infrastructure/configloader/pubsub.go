package configloader

import (
	"context"
	"fmt"

	"github.com/bionicotaku/lingo-utils/gcpubsub"
	"github.com/google/wire"
)

// EncodingResultsSubscriber 是编码结果订阅，与编码请求 topic 的 gcpubsub.Subscriber 区分。
type EncodingResultsSubscriber gcpubsub.Subscriber

// DeadLetterPublisher 是编码结果死信 topic 的发布器。
type DeadLetterPublisher gcpubsub.Publisher

// EncodingResultsSet 装配编码结果消费者所需的订阅与死信发布器。
var EncodingResultsSet = wire.NewSet(
	ProvideEncodingResultsSubscriber,
	ProvideDeadLetterPublisher,
)

// ProvideEncodingResultsSubscriber 基于 messaging.encoding_results 构造独立的 Pub/Sub 组件。
// 未配置订阅时返回 nil。
func ProvideEncodingResultsSubscriber(ctx context.Context, msg MessagingConfig, deps gcpubsub.Dependencies) (EncodingResultsSubscriber, func(), error) {
	results := msg.EncodingResults.PubSub
	if results.ProjectID == "" || results.SubscriptionID == "" {
		return nil, func() {}, nil
	}
	component, cleanup, err := gcpubsub.NewComponent(ctx, toGCPubSubConfig(results), deps)
	if err != nil {
		return nil, nil, fmt.Errorf("init encoding results subscriber: %w", err)
	}
	return gcpubsub.ProvideSubscriber(component), cleanup, nil
}

// ProvideDeadLetterPublisher 构造死信 topic 发布器，未配置时返回 nil。
func ProvideDeadLetterPublisher(ctx context.Context, msg MessagingConfig, deps gcpubsub.Dependencies) (DeadLetterPublisher, func(), error) {
	results := msg.EncodingResults
	if results.PubSub.ProjectID == "" || results.DeadLetterTopicID == "" {
		return nil, func() {}, nil
	}
	dlq := results.PubSub
	dlq.TopicID = results.DeadLetterTopicID
	dlq.SubscriptionID = ""
	component, cleanup, err := gcpubsub.NewComponent(ctx, toGCPubSubConfig(dlq), deps)
	if err != nil {
		return nil, nil, fmt.Errorf("init dead-letter publisher: %w", err)
	}
	return gcpubsub.ProvidePublisher(component), cleanup, nil
}
