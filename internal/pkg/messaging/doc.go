// Package messaging publishes and consumes envelopes over a pluggable broker.
//
// Supported drivers are Kafka, NATS, NSQ, Google Pub/Sub and an in-process
// memory broker for local runs and tests. Business code depends only on the
// Messaging interface.
package messaging
