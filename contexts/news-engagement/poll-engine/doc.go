// Package pollengine implements the poll lifecycle and voting core inside the
// news-engagement context.
//
// The module owns poll creation/scheduling, the scheduled state machine that
// keeps at most one poll published at a time, ballot admission control, the
// vote statistics cache, and poll.published event production through an
// outbox-backed relay. Business rules live in application/domain layers;
// infrastructure stays behind ports and adapters.
package pollengine
