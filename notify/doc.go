// Package notify delivers SMS and WeChat messages on behalf of the engine.
//
// Senders are called from the async dispatch pool, never on the request
// path. [NATSSender] hands messages to a downstream worker over NATS;
// [HTTPSender] posts directly to an SMS gateway.
package notify
